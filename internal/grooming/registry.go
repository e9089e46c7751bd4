package grooming

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/npezzotti/gurubu/internal/scoring"
	"github.com/npezzotti/gurubu/internal/types"
)

// registry holds the rooms and their grooming sessions. A room and its
// session are always added and removed together. It is not safe for
// concurrent use; the Manager serialises access.
type registry struct {
	rooms    map[string]*types.Room
	sessions map[string]*types.Grooming
}

func newRegistry() *registry {
	return &registry{
		rooms:    make(map[string]*types.Room),
		sessions: make(map[string]*types.Grooming),
	}
}

func (r *registry) add(room types.Room, mode scoring.Mode) *types.Grooming {
	session := &types.Grooming{
		Mode:         mode,
		Participants: make(map[int]*types.Participant),
		Metrics:      mode.Metrics(),
		Score:        scoring.ZeroScore,
		Status:       types.StatusOngoing,
		Issues:       []json.RawMessage{},
	}

	r.rooms[room.RoomId] = &room
	r.sessions[room.RoomId] = session
	return session
}

func (r *registry) room(roomId string) (*types.Room, bool) {
	room, ok := r.rooms[roomId]
	return room, ok
}

func (r *registry) session(roomId string) (*types.Grooming, bool) {
	s, ok := r.sessions[roomId]
	return s, ok
}

// live returns the session of a room that exists and has not expired.
func (r *registry) live(roomId string, now time.Time) (*types.Grooming, bool) {
	room, ok := r.rooms[roomId]
	if !ok || room.Expired(now) {
		return nil, false
	}
	return r.session(roomId)
}

func (r *registry) expired(roomId string, now time.Time) bool {
	room, ok := r.rooms[roomId]
	return !ok || room.Expired(now)
}

func (r *registry) remove(roomId string) {
	delete(r.rooms, roomId)
	delete(r.sessions, roomId)
}

// expiredIds returns the ids of every room whose TTL elapsed at now.
func (r *registry) expiredIds(now time.Time) []string {
	var ids []string
	for id, room := range r.rooms {
		if room.Expired(now) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// list returns copies of all rooms ordered by creation time.
func (r *registry) list() []types.Room {
	rooms := make([]types.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, *room)
	}

	slices.SortFunc(rooms, func(a, b types.Room) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.RoomId, b.RoomId)
	})
	return rooms
}
