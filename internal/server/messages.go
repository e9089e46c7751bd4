package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/npezzotti/gurubu/internal/grooming"
	"github.com/npezzotti/gurubu/internal/scoring"
	"github.com/npezzotti/gurubu/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is the envelope of every event sent by a client. Exactly one
// event field is expected to be set.
type ClientMessage struct {
	BaseMessage
	Create      *Create      `json:"create,omitempty"`
	Join        *Join        `json:"join,omitempty"`
	Vote        *Vote        `json:"vote,omitempty"`
	ShowResults *RoomRequest `json:"show_results,omitempty"`
	Reset       *RoomRequest `json:"reset,omitempty"`
	Issues      *Issues      `json:"issues,omitempty"`
	Timer       *Timer       `json:"timer,omitempty"`
	Avatar      *Avatar      `json:"avatar,omitempty"`
	Profile     *Profile     `json:"profile,omitempty"`
	GurubuAI    *GurubuAI    `json:"gurubu_ai,omitempty"`
	Nickname    *Nickname    `json:"nickname,omitempty"`
	Remove      *Remove      `json:"remove,omitempty"`
	Fetch       *Fetch       `json:"fetch,omitempty"`
	Leave       *Leave       `json:"leave,omitempty"`
	client      *Client      `json:"-"`
}

// RoomRequest identifies the caller within a room.
type RoomRequest struct {
	RoomId      string `json:"room_id" validate:"required"`
	Credentials string `json:"credentials" validate:"required"`
}

type Create struct {
	Nickname string       `json:"nickname" validate:"required,max=64"`
	Mode     scoring.Mode `json:"mode"`
}

type Join struct {
	RoomId   string `json:"room_id" validate:"required"`
	Nickname string `json:"nickname" validate:"required,max=64"`
	// Credentials are set when the client rejoins a room it was part of.
	Credentials string `json:"credentials,omitempty"`
}

type Vote struct {
	RoomRequest
	Votes scoring.Votes `json:"votes"`
}

type Issues struct {
	RoomRequest
	Issues []json.RawMessage `json:"issues"`
}

type Timer struct {
	RoomRequest
	TimeLeft  float64 `json:"time_left" validate:"gte=0"`
	IsRunning bool    `json:"is_running"`
}

type Avatar struct {
	RoomRequest
	Avatar json.RawMessage `json:"avatar"`
}

type Profile struct {
	RoomRequest
	Profile json.RawMessage `json:"profile"`
}

type GurubuAI struct {
	RoomRequest
	Payload json.RawMessage `json:"payload"`
}

type Nickname struct {
	RoomRequest
	Nickname string `json:"nickname" validate:"required,max=64"`
}

type Remove struct {
	RoomId string `json:"room_id" validate:"required"`
	UserId int    `json:"user_id" validate:"required,gt=0"`
}

type Fetch struct {
	RoomId string `json:"room_id" validate:"required"`
}

type Leave struct{}

type ServerMessage struct {
	BaseMessage
	Response     *Response     `json:"response,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	SkipClient   *Client       `json:"-"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
	Data         any    `json:"data,omitempty"`
}

type Notification struct {
	Grooming         *GroomingUpdate   `json:"grooming,omitempty"`
	EncounteredError *EncounteredError `json:"encountered_error,omitempty"`
	RoomDeleted      *RoomDeleted      `json:"room_deleted,omitempty"`
}

// GroomingUpdate carries the state of a room after a mutation.
type GroomingUpdate struct {
	RoomId   string         `json:"room_id"`
	Grooming types.Grooming `json:"grooming"`
}

type EncounteredError struct {
	Id      int    `json:"id"`
	Message string `json:"message"`
}

type RoomDeleted struct {
	RoomId string `json:"room_id"`
}

func NoErrOK(id int, data any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func NoErrCreated(id int, data any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusCreated,
			Data:         data,
		},
	}
}

func ErrRoomNotFound(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusNotFound,
			Error:        "room not found",
		},
	}
}

func ErrParticipantNotFound(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusNotFound,
			Error:        "participant not found",
		},
	}
}

// ErrRoomExpired answers an event aimed at a missing or expired room.
func ErrRoomExpired(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusGone,
			Error:        grooming.RoomExpiredMessage,
			Data: EncounteredError{
				Id:      int(grooming.KindRoomExpired),
				Message: grooming.RoomExpiredMessage,
			},
		},
	}
}

// ErrConnectionLost answers an event whose caller could not be identified.
func ErrConnectionLost(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusUnauthorized,
			Error:        grooming.ConnectionLostMessage,
			Data: EncounteredError{
				Id:      int(grooming.KindConnectionLost),
				Message: grooming.ConnectionLostMessage,
			},
		},
	}
}

func ErrForbidden(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusForbidden,
			Error:        "forbidden",
		},
	}
}

func ErrInternalError(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusInternalServerError,
			Error:        "internal server error",
		},
	}
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

// EncounteredErrorNotification is pushed to a client outside of any
// request/response exchange.
func EncounteredErrorNotification(kind grooming.RejectionKind, message string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Notification: &Notification{
			EncounteredError: &EncounteredError{
				Id:      int(kind),
				Message: message,
			},
		},
	}
}

func GroomingNotification(roomId string, g types.Grooming) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Notification: &Notification{
			Grooming: &GroomingUpdate{
				RoomId:   roomId,
				Grooming: g,
			},
		},
	}
}

func RoomDeletedNotification(roomId string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Notification: &Notification{
			RoomDeleted: &RoomDeleted{RoomId: roomId},
		},
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
