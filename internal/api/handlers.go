package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/gurubu/internal/grooming"
	"github.com/npezzotti/gurubu/internal/scoring"
	"github.com/npezzotti/gurubu/internal/server"
)

type CreateRoomRequest struct {
	Nickname string       `json:"nickname" validate:"required,max=64"`
	Mode     scoring.Mode `json:"mode"`
}

type RoomStatus struct {
	RoomId string `json:"room_id"`
	Exists bool   `json:"exists"`
}

func (s *GroomingApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("json encode")
	}
}

func (s *GroomingApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// createRoom creates a room without a live connection. The creator stays
// disconnected until it joins over the WebSocket with the returned
// credentials.
func (s *GroomingApp) createRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.validate.Struct(req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	summary, err := s.manager.CreateRoom(req.Nickname, req.Mode, "")
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, grooming.ErrInvalidMode) {
			errResp = NewBadRequestError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, summary)
}

func (s *GroomingApp) listRooms(w http.ResponseWriter, _ *http.Request) {
	s.writeJson(w, http.StatusOK, s.manager.Rooms())
}

// getRoom reports whether a room exists and has not expired.
func (s *GroomingApp) getRoom(w http.ResponseWriter, r *http.Request) {
	roomId := r.PathValue("id")
	if !s.manager.RoomExists(roomId) {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, RoomStatus{RoomId: roomId, Exists: true})
}

func (s *GroomingApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("error upgrading connection")
		return
	}

	client := server.NewClient(conn, s.cs, s.log)
	if err := s.cs.RegisterClient(client); err != nil {
		s.log.Warn().Err(err).Str("conn_id", client.Id()).Msg("register client")
		conn.Close()
		return
	}

	go client.Write()
	go client.Read()
}
