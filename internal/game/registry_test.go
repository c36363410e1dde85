package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubStore struct {
	saved   []string
	deleted []string
}

func (s *stubStore) GetOrCreateUserID(name string) string { return "id-" + name }

func (s *stubStore) SaveRoom(name, hostID string) error {
	s.saved = append(s.saved, name)
	return nil
}

func (s *stubStore) DeleteRoom(name string) error {
	s.deleted = append(s.deleted, name)
	return nil
}

func newTestRegistry(t *testing.T) (*Registry, *recordingSink, *stubStore) {
	t.Helper()
	sink := newRecordingSink()
	store := &stubStore{}
	return NewRegistry(sink, store, 4, time.Minute, zaptest.NewLogger(t)), sink, store
}

func TestCreateRoom(t *testing.T) {
	reg, _, store := newTestRegistry(t)
	reg.SetUsername("c1", "alice")

	ok, msg := reg.CreateRoom("c1", "arena")
	require.True(t, ok)
	assert.Contains(t, msg, "created")
	assert.True(t, reg.RoomExists("arena"))
	assert.Equal(t, []string{"arena"}, store.saved)

	s := reg.SessionFor("c1")
	require.NotNil(t, s)
	assert.True(t, s.IsHost())
	assert.Equal(t, "alice", s.Username)
}

func TestCreateRoomDuplicateName(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ok, _ := reg.CreateRoom("c1", "arena")
	require.True(t, ok)

	ok, msg := reg.CreateRoom("c2", "arena")
	assert.False(t, ok, "a duplicate name never creates a second room")
	assert.Contains(t, msg, "already exists")
	assert.Nil(t, reg.SessionFor("c2"))
}

func TestJoinRoomValidation(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	ok, msg := reg.JoinRoom("c1", "nowhere")
	assert.False(t, ok)
	assert.Contains(t, msg, "does not exist")

	reg.CreateRoom("host", "arena")
	ok, _ = reg.JoinRoom("c2", "arena")
	require.True(t, ok)
	assert.Equal(t, 2, reg.RoomByName("arena").Size())
}

func TestJoinRoomFull(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	reg.CreateRoom("host", "arena")
	for i := 0; i < 3; i++ {
		ok, _ := reg.JoinRoom(fmt.Sprintf("c%d", i), "arena")
		require.True(t, ok)
	}

	ok, msg := reg.JoinRoom("late", "arena")
	assert.False(t, ok)
	assert.Contains(t, msg, "full")
}

func TestJoinRoomWhileRoundRunning(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	reg.CreateRoom("host", "arena")
	reg.JoinRoom("c1", "arena")
	reg.StartRound("host", "arena")
	defer func() {
		for _, s := range reg.RoomByName("arena").snapshotMembers() {
			s.Stop()
		}
	}()

	ok, msg := reg.JoinRoom("late", "arena")
	assert.False(t, ok)
	assert.Contains(t, msg, "already started")
}

func TestStartRoundHostOnly(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	reg.CreateRoom("host", "arena")
	reg.JoinRoom("c1", "arena")
	room := reg.RoomByName("arena")
	defer func() {
		for _, s := range room.snapshotMembers() {
			s.Stop()
		}
	}()

	reg.StartRound("c1", "arena")
	assert.False(t, room.IsRunning(), "non-host start request is dropped")

	reg.StartRound("host", "arena")
	assert.True(t, room.IsRunning())
}

func TestGameInputRouting(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	reg.CreateRoom("host", "arena")
	s := reg.SessionFor("host")
	s.Start()
	defer s.Stop()
	before := s.current.Position.X

	reg.HandleInput("host", "MoveLeft")
	assert.Equal(t, before-1, s.current.Position.X)

	reg.HandleInput("ghost-conn", "MoveLeft") // unknown connection is ignored
	assert.Equal(t, before-1, s.current.Position.X)
}

func TestDisconnectCleansUpEmptyRoom(t *testing.T) {
	reg, _, store := newTestRegistry(t)
	reg.CreateRoom("host", "arena")

	reg.Disconnect("host")

	assert.False(t, reg.RoomExists("arena"))
	assert.Nil(t, reg.SessionFor("host"))
	assert.Equal(t, []string{"arena"}, store.deleted)
}

func TestDisconnectTransfersHost(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	reg.CreateRoom("host", "arena")
	reg.JoinRoom("c1", "arena")
	reg.JoinRoom("c2", "arena")

	reg.Disconnect("host")

	room := reg.RoomByName("arena")
	require.NotNil(t, room)
	assert.Equal(t, "c1", room.HostID())
	assert.Equal(t, 2, room.Size())
	assert.True(t, reg.SessionFor("c1").IsHost())
}

func TestLeaveRoomKeepsUsername(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	reg.SetUsername("c1", "bob")
	reg.CreateRoom("c1", "arena")

	reg.LeaveRoom("c1")
	assert.Nil(t, reg.SessionFor("c1"))

	ok, _ := reg.CreateRoom("c1", "arena2")
	require.True(t, ok)
	assert.Equal(t, "bob", reg.SessionFor("c1").Username)
}
