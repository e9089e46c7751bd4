package grooming

import (
	"github.com/npezzotti/gurubu/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) Join(nickname, roomId, connId string) (types.User, error) {
	args := m.Called(nickname, roomId, connId)
	return args.Get(0).(types.User), args.Error(1)
}
func (m *MockUserDirectory) Detach(connId string) (types.User, bool) {
	args := m.Called(connId)
	return args.Get(0).(types.User), args.Bool(1)
}
func (m *MockUserDirectory) Resolve(credentials string) (types.User, bool) {
	args := m.Called(credentials)
	return args.Get(0).(types.User), args.Bool(1)
}
func (m *MockUserDirectory) Attach(userId int, connId string) (types.User, bool) {
	args := m.Called(userId, connId)
	return args.Get(0).(types.User), args.Bool(1)
}
func (m *MockUserDirectory) Purge(roomId string) {
	m.Called(roomId)
}
func (m *MockUserDirectory) Rename(credentials, nickname string) error {
	args := m.Called(credentials, nickname)
	return args.Error(0)
}
