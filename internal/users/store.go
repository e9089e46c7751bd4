package users

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/npezzotti/gurubu/internal/types"
	"github.com/rs/zerolog"
)

const (
	userIdClaim   = "user-id"
	roomIdClaim   = "room-id"
	issuedAtClaim = "iat"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownUser        = errors.New("unknown user")
)

// Store keeps the user-session records of every room in memory. Users are
// identified by sequential ids and authenticate with signed credentials
// bound to their room. A user may hold several live connections.
type Store struct {
	log        zerolog.Logger
	signingKey []byte
	mu         sync.Mutex
	nextId     int
	users      map[int]*types.User
	conns      map[string]int
	now        func() time.Time
}

func NewStore(logger zerolog.Logger, signingKey []byte) *Store {
	return &Store{
		log:        logger.With().Str("component", "users").Logger(),
		signingKey: signingKey,
		users:      make(map[int]*types.User),
		conns:      make(map[string]int),
		now:        time.Now,
	}
}

// Join creates a user in the room and issues its credentials.
func (s *Store) Join(nickname, roomId, connId string) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextId + 1
	credentials, err := s.createCredentials(id, roomId)
	if err != nil {
		return types.User{}, fmt.Errorf("create credentials: %w", err)
	}
	s.nextId = id

	user := &types.User{
		Id:          id,
		Nickname:    nickname,
		RoomId:      roomId,
		Credentials: credentials,
	}
	s.users[id] = user

	if connId != "" {
		s.attach(user, connId)
	}

	s.log.Debug().Int("user_id", id).Str("room_id", roomId).Msg("user joined")
	return copyUser(user), nil
}

// Resolve returns the user owning the credentials. It does not touch the
// user's connections.
func (s *Store) Resolve(credentials string) (types.User, bool) {
	userId, roomId, err := s.verifyCredentials(credentials)
	if err != nil {
		s.log.Debug().Err(err).Msg("resolve credentials")
		return types.User{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userId]
	if !ok || user.RoomId != roomId {
		return types.User{}, false
	}
	return copyUser(user), true
}

// Attach moves connId to the user. The connection is taken from any user
// that held it before.
func (s *Store) Attach(userId int, connId string) (types.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userId]
	if !ok {
		return types.User{}, false
	}

	if connId != "" {
		s.attach(user, connId)
	}
	return copyUser(user), true
}

// Detach removes the connection from its user. The returned user lists the
// connections still open.
func (s *Store) Detach(connId string) (types.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userId, ok := s.conns[connId]
	if !ok {
		return types.User{}, false
	}
	delete(s.conns, connId)

	user, ok := s.users[userId]
	if !ok {
		return types.User{}, false
	}
	user.Sockets = slices.DeleteFunc(user.Sockets, func(c string) bool { return c == connId })

	return copyUser(user), true
}

// Purge forgets every user of the room along with their connections.
func (s *Store) Purge(roomId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for id, user := range s.users {
		if user.RoomId != roomId {
			continue
		}
		for _, c := range user.Sockets {
			delete(s.conns, c)
		}
		delete(s.users, id)
		purged++
	}

	s.log.Debug().Str("room_id", roomId).Int("purged", purged).Msg("users purged")
}

// Rename changes the nickname of the user owning the credentials.
func (s *Store) Rename(credentials, nickname string) error {
	userId, roomId, err := s.verifyCredentials(credentials)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userId]
	if !ok || user.RoomId != roomId {
		return ErrUnknownUser
	}
	user.Nickname = nickname
	return nil
}

// Len returns the number of known users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.users)
}

// attach moves the connection to user. A connection belongs to at most one
// user.
func (s *Store) attach(user *types.User, connId string) {
	if prev, ok := s.conns[connId]; ok && prev != user.Id {
		if owner, ok := s.users[prev]; ok {
			owner.Sockets = slices.DeleteFunc(owner.Sockets, func(c string) bool { return c == connId })
		}
	}

	s.conns[connId] = user.Id
	if !slices.Contains(user.Sockets, connId) {
		user.Sockets = append(user.Sockets, connId)
	}
}

func (s *Store) createCredentials(userId int, roomId string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		userIdClaim:   userId,
		roomIdClaim:   roomId,
		issuedAtClaim: s.now().Unix(),
	})

	return token.SignedString(s.signingKey)
}

func (s *Store) verifyCredentials(credentials string) (int, string, error) {
	if credentials == "" {
		return 0, "", ErrInvalidCredentials
	}

	token, err := jwt.Parse(credentials, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	if !token.Valid {
		return 0, "", ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fmt.Errorf("%w: invalid claims", ErrInvalidCredentials)
	}

	userId, ok := claims[userIdClaim].(float64)
	if !ok {
		return 0, "", fmt.Errorf("%w: invalid user id claim", ErrInvalidCredentials)
	}

	roomId, ok := claims[roomIdClaim].(string)
	if !ok {
		return 0, "", fmt.Errorf("%w: invalid room id claim", ErrInvalidCredentials)
	}

	return int(userId), roomId, nil
}

func copyUser(u *types.User) types.User {
	c := *u
	c.Sockets = slices.Clone(u.Sockets)
	return c
}
