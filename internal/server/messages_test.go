package server

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/npezzotti/gurubu/internal/grooming"
	"github.com/npezzotti/gurubu/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoErrOk(t *testing.T) {
	result := NoErrOK(1, map[string]any{"testkey": "testvalue"})

	assert.NotNil(t, result.Response, "expected response to be non-nil")
	assert.Equal(t, 1, result.Id, "expected Id to match")
	assert.WithinDuration(t, Now(), result.Timestamp, time.Second, "expected Timestamp to be within 1 second")
	assert.Equal(t, http.StatusOK, result.Response.ResponseCode, "expected ResponseCode to match")
	assert.Equal(t, map[string]any{"testkey": "testvalue"}, result.Response.Data, "expected Data to match")
	assert.Empty(t, result.Response.Error)
}

func TestErrorResponses(t *testing.T) {
	tcases := []struct {
		name    string
		msg     *ServerMessage
		code    int
		errText string
		data    any
	}{
		{
			name:    "room expired",
			msg:     ErrRoomExpired(2),
			code:    http.StatusGone,
			errText: grooming.RoomExpiredMessage,
			data:    EncounteredError{Id: 1, Message: grooming.RoomExpiredMessage},
		},
		{
			name:    "connection lost",
			msg:     ErrConnectionLost(2),
			code:    http.StatusUnauthorized,
			errText: grooming.ConnectionLostMessage,
			data:    EncounteredError{Id: 3, Message: grooming.ConnectionLostMessage},
		},
		{
			name:    "room not found",
			msg:     ErrRoomNotFound(2),
			code:    http.StatusNotFound,
			errText: "room not found",
		},
		{
			name:    "participant not found",
			msg:     ErrParticipantNotFound(2),
			code:    http.StatusNotFound,
			errText: "participant not found",
		},
		{
			name:    "forbidden",
			msg:     ErrForbidden(2),
			code:    http.StatusForbidden,
			errText: "forbidden",
		},
		{
			name:    "internal error",
			msg:     ErrInternalError(2),
			code:    http.StatusInternalServerError,
			errText: "internal server error",
		},
		{
			name:    "service unavailable",
			msg:     ErrServiceUnavailable(2),
			code:    http.StatusServiceUnavailable,
			errText: "service unavailable",
		},
		{
			name:    "invalid message",
			msg:     ErrInvalidMessage(2),
			code:    http.StatusBadRequest,
			errText: "invalid message format",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			require.NotNil(t, tc.msg.Response)
			assert.Equal(t, 2, tc.msg.Id)
			assert.Equal(t, tc.code, tc.msg.Response.ResponseCode)
			assert.Equal(t, tc.errText, tc.msg.Response.Error)
			assert.Equal(t, tc.data, tc.msg.Response.Data)
		})
	}
}

func TestErrInvalidMessage_NoId(t *testing.T) {
	msg := ErrInvalidMessage(-1)
	assert.Zero(t, msg.Id, "expected negative ids to be dropped")
}

func TestEncounteredErrorNotification(t *testing.T) {
	msg := EncounteredErrorNotification(grooming.KindRoomExpired, grooming.RoomExpiredMessage)

	assert.Nil(t, msg.Response)
	require.NotNil(t, msg.Notification)
	assert.Equal(t, &EncounteredError{Id: 1, Message: grooming.RoomExpiredMessage}, msg.Notification.EncounteredError)
}

func Test_serializeMessage(t *testing.T) {
	message := &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        1,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: 200,
			Data:         "test data",
		},
	}

	expected := `{"id":1,"timestamp":"` + message.Timestamp.Format(time.RFC3339Nano) +
		`","response":{"response_code":200,"data":"test data"}}`

	bytes, err := serializeMessage(message)
	assert.NoError(t, err, "expected no error during serialization")
	assert.Equal(t, expected, string(bytes), "expected serialized message to match the expected format")
}

func TestClientMessage_Unmarshal(t *testing.T) {
	raw := `{
		"id": 7,
		"vote": {
			"room_id": "room-1",
			"credentials": "secret",
			"votes": {"storyPoint": "5", "performance": 3}
		}
	}`

	var msg ClientMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))

	assert.Equal(t, 7, msg.Id)
	require.NotNil(t, msg.Vote)
	assert.Nil(t, msg.Create)
	assert.Equal(t, "room-1", msg.Vote.RoomId)
	assert.Equal(t, "secret", msg.Vote.Credentials)
	assert.Equal(t, scoring.ParseVote("5"), msg.Vote.Votes["storyPoint"])
	assert.Equal(t, scoring.ParseVote("3"), msg.Vote.Votes["performance"])
}

func TestClientMessage_UnmarshalCreate(t *testing.T) {
	tcases := []struct {
		name    string
		raw     string
		mode    scoring.Mode
		wantErr bool
	}{
		{"wire id", `{"create":{"nickname":"alice","mode":"1"}}`, scoring.ModeWeightedRubric, false},
		{"numeric", `{"create":{"nickname":"alice","mode":0}}`, scoring.ModeStoryPoint, false},
		{"unknown mode", `{"create":{"nickname":"alice","mode":"9"}}`, 0, true},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			var msg ClientMessage
			err := json.Unmarshal([]byte(tc.raw), &msg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, msg.Create)
			assert.Equal(t, tc.mode, msg.Create.Mode)
		})
	}
}
