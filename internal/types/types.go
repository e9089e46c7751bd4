package types

import (
	"encoding/json"
	"maps"
	"slices"
	"time"

	"github.com/npezzotti/gurubu/internal/scoring"
)

// StatusOngoing is the only session status in use.
const StatusOngoing = "ongoing"

type Room struct {
	RoomId    string    `json:"room_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiredAt time.Time `json:"expired_at"`
}

// Expired reports whether the room's TTL has elapsed at now.
func (r Room) Expired(now time.Time) bool {
	return !now.Before(r.ExpiredAt)
}

// RoomSummary is returned to a user that created or joined a room.
type RoomSummary struct {
	Room
	UserId      int    `json:"user_id"`
	Credentials string `json:"credentials"`
	IsAdmin     bool   `json:"is_admin"`
}

// User is a user-session record owned by the user directory.
type User struct {
	Id          int      `json:"id"`
	Nickname    string   `json:"nickname"`
	RoomId      string   `json:"room_id"`
	Credentials string   `json:"-"`
	Sockets     []string `json:"-"`
}

type Participant struct {
	UserId    int             `json:"user_id"`
	Nickname  string          `json:"nickname"`
	RoomId    string          `json:"room_id"`
	IsAdmin   bool            `json:"is_admin"`
	Connected bool            `json:"connected"`
	Votes     scoring.Votes   `json:"votes"`
	Avatar    json.RawMessage `json:"avatar,omitempty"`
	Profile   json.RawMessage `json:"profile,omitempty"`
}

type Timer struct {
	TimeLeft  float64 `json:"time_left"`
	IsRunning bool    `json:"is_running"`
}

// Grooming is the voting state of a room.
type Grooming struct {
	Mode           scoring.Mode                   `json:"mode"`
	Participants   map[int]*Participant           `json:"participants"`
	Metrics        []scoring.Metric               `json:"metrics"`
	Score          string                         `json:"score"`
	MetricAverages map[string]scoring.MetricStats `json:"metric_averages,omitempty"`
	Status         string                         `json:"status"`
	IsResultShown  bool                           `json:"is_result_shown"`
	Issues         []json.RawMessage              `json:"issues"`
	Timer          Timer                          `json:"timer"`
	GurubuAI       json.RawMessage                `json:"gurubu_ai,omitempty"`
}

// Clone returns a deep copy of the grooming state.
func (g *Grooming) Clone() Grooming {
	c := *g
	c.Participants = make(map[int]*Participant, len(g.Participants))
	for id, p := range g.Participants {
		pc := *p
		pc.Votes = p.Votes.Clone()
		pc.Avatar = slices.Clone(p.Avatar)
		pc.Profile = slices.Clone(p.Profile)
		c.Participants[id] = &pc
	}

	c.Metrics = make([]scoring.Metric, len(g.Metrics))
	for i, m := range g.Metrics {
		m.Points = slices.Clone(m.Points)
		c.Metrics[i] = m
	}

	c.MetricAverages = maps.Clone(g.MetricAverages)
	c.Issues = make([]json.RawMessage, len(g.Issues))
	for i, issue := range g.Issues {
		c.Issues[i] = slices.Clone(issue)
	}
	c.GurubuAI = slices.Clone(g.GurubuAI)

	return c
}
