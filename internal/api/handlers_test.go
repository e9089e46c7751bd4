package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/gurubu/internal/config"
	"github.com/npezzotti/gurubu/internal/grooming"
	"github.com/npezzotti/gurubu/internal/server"
	"github.com/npezzotti/gurubu/internal/stats"
	"github.com/npezzotti/gurubu/internal/testutil"
	"github.com/npezzotti/gurubu/internal/types"
	"github.com/npezzotti/gurubu/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = &config.Config{
	ServerAddr:     "localhost:8080",
	SigningKey:     []byte("secret"),
	AllowedOrigins: []string{"http://localhost:3000"},
}

// newTestApp wires a GroomingApp the way main does and returns its handler.
func newTestApp(t *testing.T) (*GroomingApp, *server.GroomingServer, http.Handler) {
	logger := testutil.TestLogger(t)
	su := stats.Permissive()
	m := grooming.NewManager(logger, users.NewStore(logger, testConfig.SigningKey), su)
	cs := server.NewGroomingServer(logger, m, su, time.Hour)

	app := NewGroomingApp(http.NewServeMux(), logger, cs, m, testConfig)
	return app, cs, app.mux.Handler
}

func TestNewGroomingApp(t *testing.T) {
	app, cs, _ := newTestApp(t)

	assert.NotNil(t, app, "expected app to be initialized")
	assert.NotNil(t, app.mux, "expected mux to be initialized")
	assert.NotNil(t, app.manager, "expected manager to be set")
	assert.Equal(t, cs, app.cs, "expected grooming server to be set")
	assert.Equal(t, testConfig.AllowedOrigins, app.allowedOrigins, "expected allowed origins to be set")
	assert.Equal(t, testConfig.ServerAddr, app.mux.Addr, "expected server address to match config")
}

func TestGroomingApp_Shutdown(t *testing.T) {
	app, _, _ := newTestApp(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, app.Shutdown(ctx), "expected shutdown of an idle server to succeed")
}

func Test_healthCheck(t *testing.T) {
	_, _, h := newTestApp(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")
	assert.Equal(t, "OK", rr.Body.String(), "expected response body to be 'OK'")
}

func TestCreateRoomHandler(t *testing.T) {
	tcases := []struct {
		name       string
		body       string
		statusCode int
	}{
		{"story point room", `{"nickname":"alice","mode":"0"}`, http.StatusCreated},
		{"weighted rubric room", `{"nickname":"alice","mode":1}`, http.StatusCreated},
		{"default mode", `{"nickname":"alice"}`, http.StatusCreated},
		{"missing nickname", `{"mode":"0"}`, http.StatusBadRequest},
		{"unknown mode", `{"nickname":"alice","mode":"5"}`, http.StatusBadRequest},
		{"malformed body", `{"nickname":`, http.StatusBadRequest},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			app, _, h := newTestApp(t)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewBufferString(tc.body))
			h.ServeHTTP(rr, req)

			assert.Equal(t, tc.statusCode, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			if tc.statusCode != http.StatusCreated {
				var apiErr ApiError
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr))
				assert.Equal(t, tc.statusCode, apiErr.StatusCode)
				assert.Equal(t, "bad request", apiErr.Message)
				return
			}

			var summary types.RoomSummary
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
			assert.NotEmpty(t, summary.RoomId)
			assert.NotEmpty(t, summary.Credentials)
			assert.True(t, summary.IsAdmin)
			assert.Equal(t, summary.CreatedAt.Add(grooming.DefaultRoomTTL), summary.ExpiredAt)

			g, ok := app.manager.Grooming(summary.RoomId)
			require.True(t, ok)
			assert.False(t, g.Participants[summary.UserId].Connected, "expected the creator to be offline until it joins over /ws")
		})
	}
}

func TestListAndGetRoomHandlers(t *testing.T) {
	app, _, h := newTestApp(t)

	summary, err := app.manager.CreateRoom("alice", 0, "")
	require.NoError(t, err)

	t.Run("list", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		var rooms []types.Room
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rooms))
		require.Len(t, rooms, 1)
		assert.Equal(t, summary.RoomId, rooms[0].RoomId)
	})

	t.Run("existing room", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/rooms/"+summary.RoomId, nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		var status RoomStatus
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
		assert.Equal(t, RoomStatus{RoomId: summary.RoomId, Exists: true}, status)
	})

	t.Run("missing room", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/rooms/missing", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func dialWs(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) server.ServerMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg server.ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServeWs_RoundTrip(t *testing.T) {
	_, cs, h := newTestApp(t)
	go cs.Run()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		cs.Shutdown(ctx)
	}()

	srv := httptest.NewServer(h)
	defer srv.Close()

	alice := dialWs(t, srv)
	require.NoError(t, alice.WriteJSON(map[string]any{
		"id":     1,
		"create": map[string]any{"nickname": "alice", "mode": "0"},
	}))

	created := readMessage(t, alice)
	require.NotNil(t, created.Response)
	assert.Equal(t, 1, created.Id)
	assert.Equal(t, http.StatusCreated, created.Response.ResponseCode)
	data := created.Response.Data.(map[string]any)
	roomId := data["room_id"].(string)
	assert.Equal(t, true, data["is_admin"])

	update := readMessage(t, alice)
	require.NotNil(t, update.Notification)
	require.NotNil(t, update.Notification.Grooming)
	assert.Len(t, update.Notification.Grooming.Grooming.Participants, 1)

	bob := dialWs(t, srv)
	require.NoError(t, bob.WriteJSON(map[string]any{
		"id":   2,
		"join": map[string]any{"room_id": roomId, "nickname": "bob"},
	}))

	joined := readMessage(t, bob)
	require.NotNil(t, joined.Response)
	assert.Equal(t, http.StatusOK, joined.Response.ResponseCode)
	bobId := int(joined.Response.Data.(map[string]any)["user_id"].(float64))

	update = readMessage(t, alice)
	require.NotNil(t, update.Notification)
	require.NotNil(t, update.Notification.Grooming)
	assert.Len(t, update.Notification.Grooming.Grooming.Participants, 2)

	// bob going away marks him disconnected for alice
	require.NoError(t, bob.Close())

	update = readMessage(t, alice)
	require.NotNil(t, update.Notification)
	require.NotNil(t, update.Notification.Grooming)
	participant := update.Notification.Grooming.Grooming.Participants[bobId]
	require.NotNil(t, participant)
	assert.False(t, participant.Connected)
}

func TestServeWs_RejectsOrigin(t *testing.T) {
	_, cs, h := newTestApp(t)
	go cs.Run()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		cs.Shutdown(ctx)
	}()

	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
