package game

import (
	"sync"

	"go.uber.org/zap"

	"multitris/internal/model"
)

// Room owns a set of player sessions, the host authority, and the shared
// piece sequence every member draws from. The mutex guards membership, the
// host field, the round flag and the piece sequence. Room methods never
// hold the mutex while calling into a session; they copy the member list
// first, so lock order is always one session lock at a time.
type Room struct {
	Name string

	mu      sync.Mutex
	host    string
	members map[string]*Session
	order   []string
	running bool
	pieces  []*Piece

	sink   Sink
	logger *zap.Logger
}

func NewRoom(name, hostID string, sink Sink, logger *zap.Logger) *Room {
	return &Room{
		Name:    name,
		host:    hostID,
		members: make(map[string]*Session),
		sink:    sink,
		logger:  logger,
		pieces:  []*Piece{NewRandomPiece(), NewRandomPiece()},
	}
}

// HostID returns the current host's session id.
func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host
}

// IsRunning reports whether a round is in progress.
func (r *Room) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Size returns the current member count.
func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (r *Room) addSession(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[s.ID] = s
	r.order = append(r.order, s.ID)
}

func (r *Room) sessionByID(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[id]
}

// snapshotMembers copies the member list in insertion order so callers can
// talk to sessions without holding the room lock.
func (r *Room) snapshotMembers() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.members))
	for _, id := range r.order {
		if s, ok := r.members[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// PieceAt returns the shared piece at index i, extending the sequence with
// fresh random pieces so that i+1 always exists (the extra piece feeds the
// next-piece preview). Single writer: the room lock serializes appends from
// sessions exhausting the sequence concurrently.
func (r *Room) PieceAt(i int) *Piece {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.pieces) <= i+1 {
		r.pieces = append(r.pieces, NewRandomPiece())
	}
	return r.pieces[i]
}

// Broadcast fans msg out to every member.
func (r *Room) Broadcast(msg model.Message) {
	for _, s := range r.snapshotMembers() {
		r.sink.Send(s.ID, msg)
	}
}

// RoomUpdate broadcasts the current host and the ordered member list, each
// entry carrying the member's rendered grid so late joiners see the boards.
func (r *Room) RoomUpdate() {
	r.mu.Lock()
	host := r.host
	sessions := make([]*Session, 0, len(r.members))
	for _, id := range r.order {
		if s, ok := r.members[id]; ok {
			sessions = append(sessions, s)
		}
	}
	r.mu.Unlock()

	players := make([]model.RoomMember, 0, len(sessions))
	for _, s := range sessions {
		players = append(players, model.RoomMember{
			Username: s.Username,
			SocketID: s.ID,
			Grid:     s.VisualGrid(),
		})
	}
	r.Broadcast(model.Message{Type: "roomUpdate", Payload: model.RoomUpdate{Host: host, Players: players}})
}

// StartRound resets and starts every member. Host authorization is the
// router's job, not the room's.
func (r *Room) StartRound() {
	members := r.snapshotMembers()
	for _, s := range members {
		s.Reset()
	}
	r.Broadcast(model.Message{Type: "allPlayersDone", Payload: false})
	for _, s := range members {
		s.Start()
	}
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()
	r.logger.Info("round started", zap.String("room", r.Name), zap.Int("players", len(members)))
}

// CheckAllDone reports whether no member is still running. Non-running
// members that have drawn pieces are reset, which is the idle cleanup
// between rounds. The first time the round transitions to all-done the
// room broadcasts the signal and clears the round flag.
func (r *Room) CheckAllDone() bool {
	done := true
	for _, s := range r.snapshotMembers() {
		if s.IsRunning() {
			done = false
		} else if s.PieceIndex() != 0 {
			s.Reset()
		}
	}
	if !done {
		return false
	}
	r.mu.Lock()
	wasRunning := r.running
	r.running = false
	r.mu.Unlock()
	if wasRunning {
		r.Broadcast(model.Message{Type: "allPlayersDone", Payload: true})
	}
	return true
}

// SurvivorsCount counts members whose sessions are still running.
func (r *Room) SurvivorsCount() int {
	n := 0
	for _, s := range r.snapshotMembers() {
		if s.IsRunning() {
			n++
		}
	}
	return n
}

// SurvivorID returns the id of the sole running member, or "" if the count
// is not exactly one.
func (r *Room) SurvivorID() string {
	id := ""
	n := 0
	for _, s := range r.snapshotMembers() {
		if s.IsRunning() {
			id = s.ID
			n++
		}
	}
	if n != 1 {
		return ""
	}
	return id
}

// DispatchPenalty pushes n filler rows onto every other running member's
// board. A member whose board has no room for them is eliminated on the
// spot, and if that leaves a single survivor the round ends with a winner.
func (r *Room) DispatchPenalty(fromID string, n int) {
	if n <= 0 {
		return
	}
	eliminated := false
	for _, s := range r.snapshotMembers() {
		if s.ID == fromID || !s.IsRunning() {
			continue
		}
		if !s.ApplyPenalty(n) {
			eliminated = true
			r.logger.Info("player eliminated by penalty overflow",
				zap.String("room", r.Name), zap.String("player", s.ID), zap.Int("rows", n))
		}
	}
	if eliminated {
		r.CheckForWinner()
		r.CheckAllDone()
	}
}

// CheckForWinner declares the sole remaining running member the winner of
// the round: the survivor is stopped, its final shadow goes out, the room
// hears the round is complete and who won, and the survivor's session is
// reset for the next round. A no-op for single-member rooms.
func (r *Room) CheckForWinner() {
	members := r.snapshotMembers()
	if len(members) <= 1 {
		return
	}
	var winner *Session
	n := 0
	for _, s := range members {
		if s.IsRunning() {
			winner = s
			n++
		}
	}
	if n != 1 {
		return
	}
	winner.DeclareWinner()
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	r.Broadcast(model.Message{Type: "allPlayersDone", Payload: true})
	r.Broadcast(model.Message{Type: "Winner", Payload: model.WinnerPayload{SocketID: winner.ID}})
	r.logger.Info("winner declared", zap.String("room", r.Name), zap.String("player", winner.ID))
	winner.Reset()
}

// removeSession drops id from the room, transferring host authority to the
// earliest-joined remaining member first when the host is the one leaving.
// Returns the new host id ("" if unchanged) and whether the room is empty.
func (r *Room) removeSession(id string) (newHost string, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return "", len(r.members) == 0
	}
	delete(r.members, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if len(r.members) == 0 {
		return "", true
	}
	if r.host == id {
		r.host = r.order[0]
		newHost = r.host
	}
	return newHost, false
}
