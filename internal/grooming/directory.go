package grooming

import "github.com/npezzotti/gurubu/internal/types"

// UserDirectory owns user-session records: ids, credentials and the live
// transport connections of each user.
type UserDirectory interface {
	// Join creates a user for the room, attaching connId when it is set.
	Join(nickname, roomId, connId string) (types.User, error)
	// Detach removes the connection and returns its user with the
	// connections that remain.
	Detach(connId string) (types.User, bool)
	// Resolve verifies the credentials and returns their user without
	// changing it.
	Resolve(credentials string) (types.User, bool)
	// Attach moves connId to the user.
	Attach(userId int, connId string) (types.User, bool)
	// Purge removes every user of the room.
	Purge(roomId string)
	// Rename changes the nickname of the user owning the credentials.
	Rename(credentials, nickname string) error
}
