package grooming

import (
	"errors"
	"fmt"
)

var (
	// ErrRoomExpired is returned when the room is missing from the registry
	// or its TTL has elapsed.
	ErrRoomExpired = errors.New("room is expired")
	// ErrConnectionLost is returned when the caller's identity could not be
	// resolved for a live room.
	ErrConnectionLost = errors.New("connection lost")
	// ErrSessionNotFound is returned when a room has no grooming session.
	ErrSessionNotFound = errors.New("grooming session not found")
	// ErrParticipantNotFound is returned when the user is not a participant
	// of the room.
	ErrParticipantNotFound = errors.New("participant not found")
)

const (
	RoomExpiredMessage    = "Room is expired, if you think this is an error, please contact the room owner."
	ConnectionLostMessage = "Your connection is lost. Connect again"
)

// RejectionKind classifies why an operation was rejected. The values match
// the ids of the encountered error events sent to clients.
type RejectionKind int

const (
	KindRoomExpired    RejectionKind = 1
	KindConnectionLost RejectionKind = 3
)

// Rejection is returned by identity gated operations that did not mutate
// state.
type Rejection struct {
	Op     string
	RoomId string
	Kind   RejectionKind
	// Notify is set when the transport should push an out of band
	// encountered error event to the caller.
	Notify bool
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s %q: %s", r.Op, r.RoomId, r.Unwrap())
}

func (r *Rejection) Unwrap() error {
	if r.Kind == KindRoomExpired {
		return ErrRoomExpired
	}
	return ErrConnectionLost
}

// Message is the user facing explanation of the rejection.
func (r *Rejection) Message() string {
	if r.Kind == KindRoomExpired {
		return RoomExpiredMessage
	}
	return ConnectionLostMessage
}
