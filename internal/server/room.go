package server

import (
	"github.com/rs/zerolog"
)

// Room is the broadcast group of a grooming room: the clients that created
// or joined it over this server. It is owned by the GroomingServer loop.
type Room struct {
	id      string
	clients map[*Client]struct{}
	log     zerolog.Logger
}

func newRoom(id string, logger zerolog.Logger) *Room {
	return &Room{
		id:      id,
		clients: make(map[*Client]struct{}),
		log:     logger.With().Str("room_id", id).Logger(),
	}
}

func (r *Room) addClient(c *Client) {
	r.clients[c] = struct{}{}
	c.roomId = r.id
	r.log.Debug().Str("conn_id", c.id).Int("clients", len(r.clients)).Msg("client added to room")
}

func (r *Room) removeClient(c *Client) {
	if _, ok := r.clients[c]; !ok {
		return
	}

	delete(r.clients, c)
	if c.roomId == r.id {
		c.roomId = ""
	}
	r.log.Debug().Str("conn_id", c.id).Int("clients", len(r.clients)).Msg("client removed from room")
}

func (r *Room) empty() bool {
	return len(r.clients) == 0
}

func (r *Room) broadcast(msg *ServerMessage) {
	msg.Timestamp = Now()

	for client := range r.clients {
		if client == msg.SkipClient {
			continue
		}

		client.queueMessage(msg)
	}
}
