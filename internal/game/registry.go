package game

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RoomStore persists user identities and room records. The sqlite store
// implements it; registry tests use a stub.
type RoomStore interface {
	GetOrCreateUserID(name string) string
	SaveRoom(name, hostID string) error
	DeleteRoom(name string) error
}

// Registry maps connection identity to session and room name to room, and
// routes inbound control messages to the right one. Its mutex guards the
// maps only; room and session state have their own locks.
type Registry struct {
	mu        sync.Mutex
	rooms     map[string]*Room
	sessions  map[string]*Session
	usernames map[string]string

	maxPlayers int
	tickEvery  time.Duration
	sink       Sink
	store      RoomStore
	logger     *zap.Logger
}

func NewRegistry(sink Sink, store RoomStore, maxPlayers int, tickEvery time.Duration, logger *zap.Logger) *Registry {
	if maxPlayers <= 0 {
		maxPlayers = 4
	}
	return &Registry{
		rooms:      make(map[string]*Room),
		sessions:   make(map[string]*Session),
		usernames:  make(map[string]string),
		maxPlayers: maxPlayers,
		tickEvery:  tickEvery,
		sink:       sink,
		store:      store,
		logger:     logger,
	}
}

// SetUsername stores the display name for a connection, to be used at the
// next room create or join, and pins a stable user id for it.
func (g *Registry) SetUsername(socketID, name string) {
	g.mu.Lock()
	g.usernames[socketID] = name
	g.mu.Unlock()
	if g.store != nil && name != "" {
		g.store.GetOrCreateUserID(name)
	}
}

// RoomExists answers the lobby's pre-navigation check.
func (g *Registry) RoomExists(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.rooms[name]
	return ok
}

// CreateRoom creates a room plus its host session. The reason string is
// user-facing; a taken name is expected control flow, not an error.
func (g *Registry) CreateRoom(socketID, roomName string) (bool, string) {
	g.mu.Lock()
	if _, exists := g.rooms[roomName]; exists {
		g.mu.Unlock()
		return false, fmt.Sprintf("Room %s already exists", roomName)
	}
	room := NewRoom(roomName, socketID, g.sink, g.logger)
	session := NewSession(socketID, g.usernames[socketID], true, room, g.sink, g.logger, g.tickEvery)
	room.addSession(session)
	g.rooms[roomName] = room
	g.sessions[socketID] = session
	g.mu.Unlock()

	if g.store != nil {
		if err := g.store.SaveRoom(roomName, socketID); err != nil {
			g.logger.Warn("failed to persist room record", zap.String("room", roomName), zap.Error(err))
		}
	}
	g.logger.Info("room created", zap.String("room", roomName), zap.String("host", socketID))
	room.RoomUpdate()
	return true, fmt.Sprintf("Room %s created successfully", roomName)
}

// JoinRoom adds a session to an existing room if it has space and no round
// in progress.
func (g *Registry) JoinRoom(socketID, roomName string) (bool, string) {
	g.mu.Lock()
	room, exists := g.rooms[roomName]
	if !exists {
		g.mu.Unlock()
		return false, fmt.Sprintf("Room %s does not exist", roomName)
	}
	if room.Size() >= g.maxPlayers {
		g.mu.Unlock()
		return false, fmt.Sprintf("Room %s is full", roomName)
	}
	if room.IsRunning() {
		g.mu.Unlock()
		return false, fmt.Sprintf("Room %s already started a round", roomName)
	}
	session := NewSession(socketID, g.usernames[socketID], false, room, g.sink, g.logger, g.tickEvery)
	room.addSession(session)
	g.sessions[socketID] = session
	g.mu.Unlock()

	g.logger.Info("player joined room", zap.String("room", roomName), zap.String("player", socketID))
	room.RoomUpdate()
	return true, fmt.Sprintf("Joined room %s", roomName)
}

// StartRound starts the round if the requester holds host authority.
// Anything else is stale input and is dropped.
func (g *Registry) StartRound(socketID, roomName string) {
	g.mu.Lock()
	room := g.rooms[roomName]
	session := g.sessions[socketID]
	g.mu.Unlock()
	if room == nil || session == nil || room.HostID() != socketID {
		return
	}
	room.StartRound()
}

// HandleInput forwards a game command to the connection's session.
func (g *Registry) HandleInput(socketID, command string) {
	g.mu.Lock()
	session := g.sessions[socketID]
	g.mu.Unlock()
	if session == nil {
		return
	}
	session.HandleInput(command)
}

// SessionFor returns the session bound to a connection, if any.
func (g *Registry) SessionFor(socketID string) *Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sessions[socketID]
}

// RoomByName returns the named room, if any.
func (g *Registry) RoomByName(name string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rooms[name]
}

// LeaveRoom tears down the connection's session: it leaves its room
// (transferring host authority if needed) and an emptied room is
// discarded. The display name sticks around for the next join.
func (g *Registry) LeaveRoom(socketID string) {
	g.mu.Lock()
	session := g.sessions[socketID]
	delete(g.sessions, socketID)
	g.mu.Unlock()
	if session == nil {
		return
	}

	room := session.Room()
	session.Disconnect()
	if room == nil {
		return
	}
	if room.Size() == 0 {
		g.mu.Lock()
		delete(g.rooms, room.Name)
		g.mu.Unlock()
		if g.store != nil {
			if err := g.store.DeleteRoom(room.Name); err != nil {
				g.logger.Warn("failed to delete room record", zap.String("room", room.Name), zap.Error(err))
			}
		}
		g.logger.Info("room discarded", zap.String("room", room.Name))
	}
}

// Disconnect is the transport-closed path: full session teardown plus
// connection-level cleanup.
func (g *Registry) Disconnect(socketID string) {
	g.LeaveRoom(socketID)
	g.mu.Lock()
	delete(g.usernames, socketID)
	g.mu.Unlock()
}
