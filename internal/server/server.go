package server

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/npezzotti/gurubu/internal/grooming"
	"github.com/npezzotti/gurubu/internal/stats"
	"github.com/rs/zerolog"
)

const metricActiveClients = "NumActiveClients"

var ErrServerStopped = errors.New("grooming server stopped")

type stopReq struct {
	done chan struct{}
}

// GroomingServer is the WebSocket hub. A single loop owns the clients and
// the broadcast groups and handles every client event in arrival order.
type GroomingServer struct {
	log            zerolog.Logger
	manager        *grooming.Manager
	stats          stats.StatsProvider
	validate       *validator.Validate
	sweepInterval  time.Duration
	clients        map[*Client]struct{}
	rooms          map[string]*Room
	clientMsgChan  chan *ClientMessage
	registerChan   chan *Client
	deRegisterChan chan *Client
	sweptChan      chan []string
	stop           chan stopReq
	done           chan struct{}
}

func NewGroomingServer(logger zerolog.Logger, m *grooming.Manager, su stats.StatsProvider, sweepInterval time.Duration) *GroomingServer {
	su.RegisterMetric(metricActiveClients)

	return &GroomingServer{
		log:            logger.With().Str("component", "server").Logger(),
		manager:        m,
		stats:          su,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		sweepInterval:  sweepInterval,
		clients:        make(map[*Client]struct{}),
		rooms:          make(map[string]*Room),
		clientMsgChan:  make(chan *ClientMessage, 256),
		registerChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		sweptChan:      make(chan []string),
		stop:           make(chan stopReq),
		done:           make(chan struct{}),
	}
}

func (cs *GroomingServer) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := grooming.NewSweeper(cs.log, cs.manager, cs.sweepInterval, cs.roomsSwept)
	go sweeper.Run(ctx)

	for {
		select {
		case msg := <-cs.clientMsgChan:
			cs.handleMessage(msg)
		case client := <-cs.registerChan:
			cs.addClient(client)
		case client := <-cs.deRegisterChan:
			cs.removeClient(client)
		case ids := <-cs.sweptChan:
			cs.deleteRooms(ids)
		case req := <-cs.stop:
			cs.log.Info().Int("clients", len(cs.clients)).Msg("stopping clients")
			cancel()
			for c := range cs.clients {
				delete(cs.clients, c)
				c.stopClient()
			}

			close(cs.done)
			close(req.done)
			return
		}
	}
}

// RegisterClient adds a connected client to the hub.
func (cs *GroomingServer) RegisterClient(c *Client) error {
	select {
	case cs.registerChan <- c:
		return nil
	case <-cs.done:
		return ErrServerStopped
	}
}

// Shutdown stops the loop and disconnects every client.
func (cs *GroomingServer) Shutdown(ctx context.Context) error {
	cs.log.Info().Msg("received shutdown signal")
	req := stopReq{done: make(chan struct{})}

	select {
	case cs.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// roomsSwept is called from the sweeper goroutine.
func (cs *GroomingServer) roomsSwept(ids []string) {
	select {
	case cs.sweptChan <- ids:
	case <-cs.done:
	}
}

func (cs *GroomingServer) addClient(c *Client) {
	cs.clients[c] = struct{}{}
	cs.stats.Incr(metricActiveClients)
	cs.log.Debug().Str("conn_id", c.id).Int("clients", len(cs.clients)).Msg("client connected")
}

func (cs *GroomingServer) removeClient(c *Client) {
	if _, ok := cs.clients[c]; !ok {
		return
	}

	delete(cs.clients, c)
	c.stopClient()
	cs.stats.Decr(metricActiveClients)
	cs.leaveRoom(c)

	cs.log.Debug().Str("conn_id", c.id).Int("clients", len(cs.clients)).Msg("client disconnected")
}

// joinGroup moves the client into the broadcast group of the room.
func (cs *GroomingServer) joinGroup(c *Client, roomId string) {
	if c.roomId == roomId {
		return
	}
	cs.leaveGroup(c)

	r, ok := cs.rooms[roomId]
	if !ok {
		r = newRoom(roomId, cs.log)
		cs.rooms[roomId] = r
	}
	r.addClient(c)
}

func (cs *GroomingServer) leaveGroup(c *Client) {
	r, ok := cs.rooms[c.roomId]
	if !ok {
		return
	}

	r.removeClient(c)
	if r.empty() {
		delete(cs.rooms, r.id)
	}
}

// leaveRoom detaches the client's connection from its participant and tells
// the rest of the room.
func (cs *GroomingServer) leaveRoom(c *Client) {
	cs.leaveGroup(c)

	roomId, ok := cs.manager.Leave(c.id)
	if !ok {
		return
	}

	if g, ok := cs.manager.Grooming(roomId); ok {
		cs.broadcast(roomId, GroomingNotification(roomId, g), nil)
	}
}

func (cs *GroomingServer) deleteRooms(ids []string) {
	for _, id := range ids {
		r, ok := cs.rooms[id]
		if !ok {
			continue
		}

		r.broadcast(RoomDeletedNotification(id))
		for c := range r.clients {
			r.removeClient(c)
		}
		delete(cs.rooms, id)
	}

	cs.log.Info().Strs("room_ids", ids).Int("rooms", len(cs.rooms)).Msg("expired rooms deleted")
}

func (cs *GroomingServer) broadcast(roomId string, msg *ServerMessage, skip *Client) {
	r, ok := cs.rooms[roomId]
	if !ok {
		return
	}

	msg.SkipClient = skip
	r.broadcast(msg)
}
