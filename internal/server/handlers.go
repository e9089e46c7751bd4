package server

import (
	"errors"

	"github.com/npezzotti/gurubu/internal/grooming"
	"github.com/npezzotti/gurubu/internal/types"
)

func (cs *GroomingServer) handleMessage(msg *ClientMessage) {
	switch {
	case msg.Create != nil:
		cs.handleCreate(msg)
	case msg.Join != nil:
		cs.handleJoin(msg)
	case msg.Vote != nil:
		req := msg.Vote
		cs.handleUpdate(msg, &req.RoomRequest, req, func() (types.Grooming, error) {
			return cs.manager.Vote(req.Credentials, req.RoomId, msg.client.id, req.Votes)
		})
	case msg.ShowResults != nil:
		req := msg.ShowResults
		cs.handleUpdate(msg, req, req, func() (types.Grooming, error) {
			return cs.manager.ShowResults(req.Credentials, req.RoomId, msg.client.id)
		})
	case msg.Reset != nil:
		req := msg.Reset
		cs.handleUpdate(msg, req, req, func() (types.Grooming, error) {
			return cs.manager.ResetVotes(req.Credentials, req.RoomId, msg.client.id)
		})
	case msg.Issues != nil:
		req := msg.Issues
		cs.handleUpdate(msg, &req.RoomRequest, req, func() (types.Grooming, error) {
			return cs.manager.SetIssues(req.Credentials, req.RoomId, msg.client.id, req.Issues)
		})
	case msg.Timer != nil:
		req := msg.Timer
		cs.handleUpdate(msg, &req.RoomRequest, req, func() (types.Grooming, error) {
			timer := types.Timer{TimeLeft: req.TimeLeft, IsRunning: req.IsRunning}
			return cs.manager.UpdateTimer(req.Credentials, req.RoomId, msg.client.id, timer)
		})
	case msg.Avatar != nil:
		req := msg.Avatar
		cs.handleUpdate(msg, &req.RoomRequest, req, func() (types.Grooming, error) {
			return cs.manager.UpdateAvatar(req.Credentials, req.RoomId, msg.client.id, req.Avatar)
		})
	case msg.Profile != nil:
		req := msg.Profile
		cs.handleUpdate(msg, &req.RoomRequest, req, func() (types.Grooming, error) {
			return cs.manager.UpdateProfilePicture(req.Credentials, req.RoomId, msg.client.id, req.Profile)
		})
	case msg.GurubuAI != nil:
		req := msg.GurubuAI
		cs.handleUpdate(msg, &req.RoomRequest, req, func() (types.Grooming, error) {
			return cs.manager.SetGurubuAI(req.Credentials, req.RoomId, msg.client.id, req.Payload)
		})
	case msg.Nickname != nil:
		req := msg.Nickname
		cs.handleUpdate(msg, &req.RoomRequest, req, func() (types.Grooming, error) {
			return cs.manager.UpdateNickname(req.Credentials, req.RoomId, msg.client.id, req.Nickname)
		})
	case msg.Remove != nil:
		cs.handleRemove(msg)
	case msg.Fetch != nil:
		cs.handleFetch(msg)
	case msg.Leave != nil:
		cs.leaveRoom(msg.client)
		msg.client.queueMessage(NoErrOK(msg.Id, nil))
	default:
		msg.client.queueMessage(ErrInvalidMessage(msg.Id))
	}
}

// valid validates the event payload and answers the client when it is
// malformed.
func (cs *GroomingServer) valid(msg *ClientMessage, payload any) bool {
	if err := cs.validate.Struct(payload); err != nil {
		cs.log.Debug().Err(err).Str("conn_id", msg.client.id).Msg("invalid payload")
		msg.client.queueMessage(ErrInvalidMessage(msg.Id))
		return false
	}
	return true
}

func (cs *GroomingServer) handleCreate(msg *ClientMessage) {
	c, req := msg.client, msg.Create
	if !cs.valid(msg, req) {
		return
	}

	if c.roomId != "" {
		cs.leaveRoom(c)
	}

	summary, err := cs.manager.CreateRoom(req.Nickname, req.Mode, c.id)
	if err != nil {
		cs.replyError(msg, err)
		return
	}

	cs.joinGroup(c, summary.RoomId)
	c.queueMessage(NoErrCreated(msg.Id, summary))
	cs.broadcastGrooming(summary.RoomId)
}

func (cs *GroomingServer) handleJoin(msg *ClientMessage) {
	c, req := msg.client, msg.Join
	if !cs.valid(msg, req) {
		return
	}

	if c.roomId != "" && c.roomId != req.RoomId {
		cs.leaveRoom(c)
	}

	summary, err := cs.manager.JoinRoom(req.Nickname, req.RoomId, req.Credentials, c.id)
	if err != nil {
		cs.replyError(msg, err)
		return
	}

	cs.joinGroup(c, summary.RoomId)
	c.queueMessage(NoErrOK(msg.Id, summary))
	cs.broadcastGrooming(summary.RoomId)
}

// handleUpdate runs an identity gated session operation, answers the caller
// with the new state and broadcasts it to the rest of the room.
func (cs *GroomingServer) handleUpdate(msg *ClientMessage, req *RoomRequest, payload any, op func() (types.Grooming, error)) {
	if !cs.valid(msg, payload) {
		return
	}

	g, err := op()
	if err != nil {
		cs.replyError(msg, err)
		return
	}

	cs.joinGroup(msg.client, req.RoomId)
	msg.client.queueMessage(NoErrOK(msg.Id, g))
	cs.broadcast(req.RoomId, GroomingNotification(req.RoomId, g), msg.client)
}

func (cs *GroomingServer) handleRemove(msg *ClientMessage) {
	c, req := msg.client, msg.Remove
	if !cs.valid(msg, req) {
		return
	}

	// only members of the room may remove its participants
	if c.roomId != req.RoomId {
		c.queueMessage(ErrForbidden(msg.Id))
		return
	}

	g, err := cs.manager.RemoveParticipant(req.RoomId, req.UserId)
	if err != nil {
		cs.replyError(msg, err)
		return
	}

	c.queueMessage(NoErrOK(msg.Id, g))
	cs.broadcast(req.RoomId, GroomingNotification(req.RoomId, g), c)
}

func (cs *GroomingServer) handleFetch(msg *ClientMessage) {
	c, req := msg.client, msg.Fetch
	if !cs.valid(msg, req) {
		return
	}

	g, ok := cs.manager.Grooming(req.RoomId)
	if !ok {
		c.queueMessage(ErrRoomNotFound(msg.Id))
		return
	}

	c.queueMessage(NoErrOK(msg.Id, g))
}

func (cs *GroomingServer) broadcastGrooming(roomId string) {
	g, ok := cs.manager.Grooming(roomId)
	if !ok {
		return
	}
	cs.broadcast(roomId, GroomingNotification(roomId, g), nil)
}

// replyError maps a manager error onto the response sent to the caller.
func (cs *GroomingServer) replyError(msg *ClientMessage, err error) {
	c := msg.client

	var rej *grooming.Rejection
	switch {
	case errors.As(err, &rej):
		if rej.Kind == grooming.KindConnectionLost {
			c.queueMessage(ErrConnectionLost(msg.Id))
		} else {
			c.queueMessage(ErrRoomExpired(msg.Id))
		}

		if rej.Notify {
			c.queueMessage(EncounteredErrorNotification(rej.Kind, rej.Message()))
		}
	case errors.Is(err, grooming.ErrParticipantNotFound):
		c.queueMessage(ErrParticipantNotFound(msg.Id))
	case errors.Is(err, grooming.ErrSessionNotFound):
		c.queueMessage(ErrRoomNotFound(msg.Id))
	case errors.Is(err, grooming.ErrInvalidMode):
		c.queueMessage(ErrInvalidMessage(msg.Id))
	default:
		cs.log.Error().Err(err).Str("conn_id", c.id).Msg("unexpected error")
		c.queueMessage(ErrInternalError(msg.Id))
	}
}
