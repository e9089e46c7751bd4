package grooming

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/npezzotti/gurubu/internal/scoring"
	"github.com/npezzotti/gurubu/internal/stats"
	"github.com/npezzotti/gurubu/internal/types"
	"github.com/rs/zerolog"
)

// DefaultRoomTTL is how long a room lives after it is created.
const DefaultRoomTTL = 12 * time.Hour

const (
	metricActiveRooms = "NumActiveRooms"
	metricVotes       = "NumVotes"
	metricSweptRooms  = "NumSweptRooms"
)

var ErrInvalidMode = errors.New("invalid grooming mode")

// Manager owns the room registry and runs every session operation. All
// operations are serialised, so each one observes and leaves a consistent
// registry. Returned sessions are copies.
type Manager struct {
	log   zerolog.Logger
	dir   UserDirectory
	stats stats.StatsProvider
	reg   *registry
	mu    sync.Mutex
	now   func() time.Time
	ttl   time.Duration
	newId func() string
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithRoomTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

func WithIdGenerator(newId func() string) Option {
	return func(m *Manager) {
		m.newId = newId
	}
}

func NewManager(logger zerolog.Logger, dir UserDirectory, su stats.StatsProvider, opts ...Option) *Manager {
	m := &Manager{
		log:   logger.With().Str("component", "grooming").Logger(),
		dir:   dir,
		stats: su,
		reg:   newRegistry(),
		now:   time.Now,
		ttl:   DefaultRoomTTL,
		newId: uuid.NewString,
	}

	for _, opt := range opts {
		opt(m)
	}

	su.RegisterMetric(metricActiveRooms)
	su.RegisterMetric(metricVotes)
	su.RegisterMetric(metricSweptRooms)

	return m
}

// CreateRoom registers a new room in the given mode and makes its creator
// the first, admin participant.
func (m *Manager) CreateRoom(nickname string, mode scoring.Mode, connId string) (types.RoomSummary, error) {
	if !mode.Valid() {
		return types.RoomSummary{}, fmt.Errorf("create room: %w: %d", ErrInvalidMode, int(mode))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	room := types.Room{
		RoomId:    m.newId(),
		CreatedAt: now,
		ExpiredAt: now.Add(m.ttl),
	}

	m.release(connId, 0)
	user, err := m.dir.Join(nickname, room.RoomId, connId)
	if err != nil {
		return types.RoomSummary{}, fmt.Errorf("create room: join: %w", err)
	}

	session := m.reg.add(room, mode)
	session.Participants[user.Id] = newParticipant(user, true)
	m.stats.Incr(metricActiveRooms)

	m.log.Info().
		Str("room_id", room.RoomId).
		Stringer("mode", mode).
		Int("user_id", user.Id).
		Msg("room created")

	return summarize(room, user, true), nil
}

// JoinRoom adds a participant to the room. When the credentials resolve to a
// user of the room, that user's participant is reconnected instead of a new
// one being created.
func (m *Manager) JoinRoom(nickname, roomId, credentials, connId string) (types.RoomSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.reg.live(roomId, m.now())
	if !ok {
		m.log.Info().Str("room_id", roomId).Msg("join rejected: room is expired or missing")
		return types.RoomSummary{}, &Rejection{Op: "join room", RoomId: roomId, Kind: KindRoomExpired}
	}
	room, _ := m.reg.room(roomId)

	if credentials != "" {
		if user, ok := m.dir.Resolve(credentials); ok && user.RoomId == roomId {
			if connId != "" {
				user = m.claim(user.Id, connId)
			}

			p, ok := session.Participants[user.Id]
			if !ok {
				p = newParticipant(user, false)
				session.Participants[user.Id] = p
			}
			p.Connected = len(user.Sockets) > 0
			m.rescoreIfVoted(session)

			m.log.Info().Str("room_id", roomId).Int("user_id", user.Id).Msg("participant reconnected")
			return summarize(*room, user, p.IsAdmin), nil
		}
	}

	m.release(connId, 0)
	user, err := m.dir.Join(nickname, roomId, connId)
	if err != nil {
		return types.RoomSummary{}, fmt.Errorf("join room %q: %w", roomId, err)
	}

	session.Participants[user.Id] = newParticipant(user, false)
	m.rescoreIfVoted(session)

	m.log.Info().Str("room_id", roomId).Int("user_id", user.Id).Msg("participant joined")
	return summarize(*room, user, false), nil
}

// Leave detaches a transport connection. When it was the user's last
// connection the participant is marked disconnected; it is never deleted.
// It returns the affected room id.
func (m *Manager) Leave(connId string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.dir.Detach(connId)
	if !ok {
		return "", false
	}

	if _, ok := m.reg.session(user.RoomId); !ok {
		return "", false
	}

	m.disconnect(user)
	return user.RoomId, true
}

// claim moves connId to the user. A previous owner left without
// connections is marked disconnected.
func (m *Manager) claim(userId int, connId string) types.User {
	m.release(connId, userId)
	user, _ := m.dir.Attach(userId, connId)
	return user
}

// release detaches connId from its current owner unless that owner is
// userId.
func (m *Manager) release(connId string, userId int) {
	if connId == "" {
		return
	}

	prev, ok := m.dir.Detach(connId)
	if !ok || prev.Id == userId {
		return
	}
	m.disconnect(prev)
}

// disconnect marks the user's participant disconnected once the user has no
// connection left.
func (m *Manager) disconnect(user types.User) {
	if len(user.Sockets) > 0 {
		return
	}

	session, ok := m.reg.session(user.RoomId)
	if !ok {
		return
	}

	if p, ok := session.Participants[user.Id]; ok {
		p.Connected = false
		m.rescoreIfVoted(session)
		m.log.Info().Str("room_id", user.RoomId).Int("user_id", user.Id).Msg("participant disconnected")
	}
}

// RemoveParticipant deletes the participant from the room.
func (m *Manager) RemoveParticipant(roomId string, userId int) (types.Grooming, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.reg.session(roomId)
	if !ok {
		return types.Grooming{}, fmt.Errorf("remove participant from %q: %w", roomId, ErrSessionNotFound)
	}

	if _, ok := session.Participants[userId]; !ok {
		return types.Grooming{}, fmt.Errorf("remove participant %d from %q: %w", userId, roomId, ErrParticipantNotFound)
	}

	delete(session.Participants, userId)
	m.rescoreIfVoted(session)

	m.log.Info().Str("room_id", roomId).Int("user_id", userId).Msg("participant removed")
	return session.Clone(), nil
}

// Vote replaces the caller's votes and recomputes the room score.
func (m *Manager) Vote(credentials, roomId, connId string, votes scoring.Votes) (types.Grooming, error) {
	return m.update("vote", credentials, roomId, connId, func(s *types.Grooming, p *types.Participant) error {
		if p == nil {
			return ErrParticipantNotFound
		}

		p.Votes = votes.Clone()
		if p.Votes == nil {
			p.Votes = scoring.Votes{}
		}
		m.rescore(s)
		m.stats.Incr(metricVotes)
		return nil
	})
}

// ShowResults reveals the votes of the room.
func (m *Manager) ShowResults(credentials, roomId, connId string) (types.Grooming, error) {
	return m.update("show results", credentials, roomId, connId, func(s *types.Grooming, _ *types.Participant) error {
		s.IsResultShown = true
		return nil
	})
}

// SetIssues replaces the work items under estimation.
func (m *Manager) SetIssues(credentials, roomId, connId string, issues []json.RawMessage) (types.Grooming, error) {
	return m.update("set issues", credentials, roomId, connId, func(s *types.Grooming, _ *types.Participant) error {
		if issues == nil {
			issues = []json.RawMessage{}
		}
		s.Issues = issues
		return nil
	})
}

// SetGurubuAI replaces the AI insight payload of the room.
func (m *Manager) SetGurubuAI(credentials, roomId, connId string, payload json.RawMessage) (types.Grooming, error) {
	return m.update("set gurubu ai", credentials, roomId, connId, func(s *types.Grooming, _ *types.Participant) error {
		s.GurubuAI = payload
		return nil
	})
}

// UpdateTimer replaces the room timer with the client's state.
func (m *Manager) UpdateTimer(credentials, roomId, connId string, timer types.Timer) (types.Grooming, error) {
	return m.update("update timer", credentials, roomId, connId, func(s *types.Grooming, _ *types.Participant) error {
		s.Timer = timer
		return nil
	})
}

func (m *Manager) UpdateAvatar(credentials, roomId, connId string, avatar json.RawMessage) (types.Grooming, error) {
	return m.update("update avatar", credentials, roomId, connId, func(_ *types.Grooming, p *types.Participant) error {
		if p == nil {
			return ErrParticipantNotFound
		}
		p.Avatar = avatar
		return nil
	})
}

func (m *Manager) UpdateProfilePicture(credentials, roomId, connId string, profile json.RawMessage) (types.Grooming, error) {
	return m.update("update profile picture", credentials, roomId, connId, func(_ *types.Grooming, p *types.Participant) error {
		if p == nil {
			return ErrParticipantNotFound
		}
		p.Profile = profile
		return nil
	})
}

// ResetVotes hides the results, clears the score and empties the votes of
// every participant that has voted.
func (m *Manager) ResetVotes(credentials, roomId, connId string) (types.Grooming, error) {
	return m.update("reset votes", credentials, roomId, connId, func(s *types.Grooming, _ *types.Participant) error {
		s.IsResultShown = false
		s.Score = scoring.ZeroScore
		s.MetricAverages = nil

		for _, p := range s.Participants {
			if p.Votes != nil {
				p.Votes = scoring.Votes{}
			}
		}
		return nil
	})
}

// UpdateNickname renames the caller in the user directory and in the room.
func (m *Manager) UpdateNickname(credentials, roomId, connId, nickname string) (types.Grooming, error) {
	return m.update("update nickname", credentials, roomId, connId, func(_ *types.Grooming, p *types.Participant) error {
		if err := m.dir.Rename(credentials, nickname); err != nil {
			return fmt.Errorf("rename: %w", err)
		}
		if p != nil {
			p.Nickname = nickname
		}
		return nil
	})
}

// Grooming returns the session of the room, expired or not.
func (m *Manager) Grooming(roomId string) (types.Grooming, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.reg.session(roomId)
	if !ok {
		return types.Grooming{}, false
	}
	return s.Clone(), true
}

// RoomExists reports whether the room is registered and not expired.
func (m *Manager) RoomExists(roomId string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return !m.reg.expired(roomId, m.now())
}

// Rooms lists every registered room.
func (m *Manager) Rooms() []types.Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.reg.list()
}

// update resolves the caller and applies fn to the session of its room. The
// participant passed to fn is nil when the user is no longer part of the
// session.
func (m *Manager) update(op, credentials, roomId, connId string, fn func(*types.Grooming, *types.Participant) error) (types.Grooming, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.dir.Resolve(credentials)
	expired := m.reg.expired(roomId, m.now())
	if !ok || expired || user.RoomId != roomId {
		return types.Grooming{}, m.reject(op, roomId, connId, expired)
	}

	session, ok := m.reg.session(roomId)
	if !ok {
		return types.Grooming{}, fmt.Errorf("%s %q: %w", op, roomId, ErrSessionNotFound)
	}

	// the connection is only claimed once every check has passed
	if connId != "" {
		user = m.claim(user.Id, connId)
	}

	if err := fn(session, session.Participants[user.Id]); err != nil {
		return types.Grooming{}, fmt.Errorf("%s %q: %w", op, roomId, err)
	}

	return session.Clone(), nil
}

// reject classifies a failed identity gated operation. Without a connection
// every failure reads as an expired room; with one, only a missing or
// expired room does and the caller is notified out of band.
func (m *Manager) reject(op, roomId, connId string, expired bool) error {
	rej := &Rejection{Op: op, RoomId: roomId, Kind: KindRoomExpired}
	switch {
	case connId == "":
	case expired:
		rej.Notify = true
	default:
		rej.Kind = KindConnectionLost
	}

	m.log.Info().
		Str("op", op).
		Str("room_id", roomId).
		Bool("expired", expired).
		Msg("operation rejected")
	return rej
}

// rescore recomputes the cached score of the session from its participants.
func (m *Manager) rescore(s *types.Grooming) {
	ids := slices.Sorted(maps.Keys(s.Participants))
	ballots := make([]scoring.Ballot, 0, len(ids))
	for _, id := range ids {
		p := s.Participants[id]
		ballots = append(ballots, scoring.Ballot{Votes: p.Votes, Connected: p.Connected})
	}

	res := scoring.Aggregate(s.Mode, ballots)
	s.Score = res.Score
	if s.Mode == scoring.ModeWeightedRubric {
		s.MetricAverages = res.MetricAverages
	}
}

// rescoreIfVoted recomputes the score after a presence change as long as
// some participant has cast a vote. Otherwise the score keeps its reset
// value.
func (m *Manager) rescoreIfVoted(s *types.Grooming) {
	for _, p := range s.Participants {
		if len(p.Votes) > 0 {
			m.rescore(s)
			return
		}
	}
}

// newParticipant builds the participant of user. It is connected only while
// the user holds a live connection.
func newParticipant(user types.User, admin bool) *types.Participant {
	return &types.Participant{
		UserId:    user.Id,
		Nickname:  user.Nickname,
		RoomId:    user.RoomId,
		IsAdmin:   admin,
		Connected: len(user.Sockets) > 0,
	}
}

func summarize(room types.Room, user types.User, admin bool) types.RoomSummary {
	return types.RoomSummary{
		Room:        room,
		UserId:      user.Id,
		Credentials: user.Credentials,
		IsAdmin:     admin,
	}
}
