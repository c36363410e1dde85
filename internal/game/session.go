package game

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"multitris/internal/model"
)

// DefaultTickPeriod is the gravity interval for a running session.
const DefaultTickPeriod = 500 * time.Millisecond

// Session is the authoritative state machine for one connected player: one
// board, one falling piece, a gravity tick, scoring and snapshots.
//
// All mutable state is guarded by mu. Public methods take the lock, run
// the mutation to completion, compute any outbound payloads, then release
// the lock before doing cross-session work (penalty fan-out, win
// detection) or writing to the sink, so no code path ever holds two
// session locks.
type Session struct {
	ID       string
	Username string

	mu       sync.Mutex
	room     *Room
	board    *Board
	current  *Piece
	pieceIdx int
	score    int
	level    int
	cleared  int
	running  bool
	gameOver bool
	isHost   bool
	stopc    chan struct{}

	tickEvery time.Duration
	sink      Sink
	logger    *zap.Logger
}

func NewSession(id, username string, host bool, room *Room, sink Sink, logger *zap.Logger, tickEvery time.Duration) *Session {
	if tickEvery <= 0 {
		tickEvery = DefaultTickPeriod
	}
	s := &Session{
		ID:        id,
		Username:  username,
		room:      room,
		isHost:    host,
		sink:      sink,
		logger:    logger,
		tickEvery: tickEvery,
	}
	s.resetLocked()
	return s
}

// Room returns the owning room.
func (s *Session) Room() *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// IsHost reports whether this session currently holds host authority.
func (s *Session) IsHost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isHost
}

func (s *Session) setHost(v bool) {
	s.mu.Lock()
	s.isHost = v
	s.mu.Unlock()
}

// IsRunning reports whether the gravity tick is live.
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// IsGameOver reports whether the current round ended for this player.
func (s *Session) IsGameOver() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameOver
}

// PieceIndex returns how far into the shared sequence this session is.
func (s *Session) PieceIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pieceIdx
}

// Score returns the running score.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Level returns the current level.
func (s *Session) Level() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// ClearedLines returns the cumulative cleared-line count.
func (s *Session) ClearedLines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

// Board exposes the playfield for tests and penalty setup.
func (s *Session) Board() *Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

func (s *Session) resetLocked() {
	s.board = NewBoard()
	s.pieceIdx = 0
	if s.room != nil {
		s.current = s.room.PieceAt(0).Clone()
	}
	s.score = 0
	s.level = 1
	s.cleared = 0
	s.gameOver = false
}

// Reset returns the session to Idle: fresh board, first shared piece,
// zeroed score, level and line counter.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Start begins the gravity tick and emits an immediate private snapshot.
// No-op while already running.
func (s *Session) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopc = make(chan struct{})
	go s.tickLoop(s.stopc)
	update := s.privateSnapshotLocked()
	s.mu.Unlock()
	s.sink.Send(s.ID, model.Message{Type: "GameUpdate", Payload: update})
}

// Stop cancels the tick. Idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
}

func (s *Session) stopLocked() {
	if s.stopc != nil {
		close(s.stopc)
		s.stopc = nil
	}
	s.running = false
}

func (s *Session) tickLoop(stopc chan struct{}) {
	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stopc:
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// isValidPositionLocked checks every occupied cell of the piece against
// the board bounds and locked content. Cells above the visible board
// (y < 0) are only bounded horizontally.
func (s *Session) isValidPositionLocked(p *Piece) bool {
	for _, block := range p.CurrentShape() {
		x := p.Position.X + block.X
		y := p.Position.Y + block.Y
		if x < 0 || x >= BoardCols {
			return false
		}
		if y >= BoardRows {
			return false
		}
		if y >= 0 && s.board.CellAt(x, y) != 0 {
			return false
		}
	}
	return true
}

func (s *Session) canMoveDownLocked() bool {
	test := s.current.Clone()
	test.Position.Y++
	return s.isValidPositionLocked(test)
}

func (s *Session) lockCurrentLocked() {
	for _, block := range s.current.CurrentShape() {
		x := s.current.Position.X + block.X
		y := s.current.Position.Y + block.Y
		if y >= 0 {
			s.board.Fill(x, y, s.current.Color)
		}
	}
}

func scoreForLines(n, level int) int {
	switch n {
	case 1:
		return 100 * level
	case 2:
		return 300 * level
	case 3:
		return 500 * level
	case 4:
		return 800 * level
	default:
		return 0
	}
}

// applyClearLocked awards the line-clear score and bumps the level when
// the cumulative count crosses a multiple of 10.
func (s *Session) applyClearLocked(n int) {
	s.score += scoreForLines(n, s.level)
	if (s.cleared+n)/10 > s.cleared/10 {
		s.level++
	}
	s.cleared += n
}

// spawnLocked draws the next piece from the room's shared sequence,
// appending to it when this session reaches the generated end so every
// member sees pieces in the same order. Returns false when the fresh
// piece has no valid position, which ends the round for this player.
func (s *Session) spawnLocked() bool {
	s.pieceIdx++
	s.current = s.room.PieceAt(s.pieceIdx).Clone()
	if !s.isValidPositionLocked(s.current) {
		s.gameOver = true
		return false
	}
	return true
}

// lockPipelineLocked commits the active piece, clears lines, scores and
// spawns the successor. Returns the cleared-line count; on spawn failure
// gameOver is set.
func (s *Session) lockPipelineLocked() int {
	s.lockCurrentLocked()
	n := s.board.ClearFullLines()
	s.applyClearLocked(n)
	s.spawnLocked()
	return n
}

// afterStep runs the cross-session consequences of a lock step with no
// session lock held: penalty fan-out is fire-and-forget relative to this
// session's own progression, and a game over triggers win detection. The
// room is captured under the lock by the caller so a concurrent
// disconnect cannot swap it out from under us.
func (s *Session) afterStep(room *Room, cleared int, over bool) {
	if room == nil {
		return
	}
	if cleared > 1 {
		room.DispatchPenalty(s.ID, cleared-1)
	}
	if over {
		s.Stop()
		s.broadcastShadow()
		s.logger.Info("game over", zap.String("player", s.ID), zap.Int("score", s.Score()))
		room.CheckForWinner()
		room.CheckAllDone()
	}
}

// Tick advances gravity by one step: move the piece down, or lock it and
// spawn the next one. Emits the private and shadow snapshots either way.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.gameOver {
		s.mu.Unlock()
		return
	}
	cleared := 0
	if s.canMoveDownLocked() {
		s.current.Position.Y++
	} else {
		cleared = s.lockPipelineLocked()
	}
	over := s.gameOver
	room := s.room
	shadow := s.shadowSnapshotLocked()
	update := s.privateSnapshotLocked()
	s.mu.Unlock()

	s.afterStep(room, cleared, over)
	if room != nil {
		room.Broadcast(model.Message{Type: "GameShadow", Payload: shadow})
	}
	s.sink.Send(s.ID, model.Message{Type: "GameUpdate", Payload: update})
}

// HandleInput routes one game command. Late input after game over or
// outside a round is dropped without a reply.
func (s *Session) HandleInput(command string) {
	if !s.IsRunning() {
		return
	}
	switch command {
	case model.InputRotate:
		s.RotateCurrent()
	case model.InputMoveLeft:
		s.MoveLeft()
	case model.InputMoveRight:
		s.MoveRight()
	case model.InputMoveDown:
		s.MoveDown()
	case model.InputHardDrop:
		s.HardDrop()
	}
}

// RotateCurrent advances the live piece's rotation and reverts the index
// if the result collides. The private snapshot goes out either way.
func (s *Session) RotateCurrent() {
	s.mu.Lock()
	original := s.current.RotationIndex
	s.current.Rotate()
	if !s.isValidPositionLocked(s.current) {
		s.current.RotationIndex = original
	}
	update := s.privateSnapshotLocked()
	s.mu.Unlock()
	s.sink.Send(s.ID, model.Message{Type: "GameUpdate", Payload: update})
}

func (s *Session) MoveLeft() {
	s.mu.Lock()
	s.current.Position.X--
	if !s.isValidPositionLocked(s.current) {
		s.current.Position.X++
	}
	update := s.privateSnapshotLocked()
	s.mu.Unlock()
	s.sink.Send(s.ID, model.Message{Type: "GameUpdate", Payload: update})
}

func (s *Session) MoveRight() {
	s.mu.Lock()
	s.current.Position.X++
	if !s.isValidPositionLocked(s.current) {
		s.current.Position.X--
	}
	update := s.privateSnapshotLocked()
	s.mu.Unlock()
	s.sink.Send(s.ID, model.Message{Type: "GameUpdate", Payload: update})
}

// MoveDown is the soft drop: the same down-or-lock branch as Tick, with a
// +level bonus for a step that actually moved the piece.
func (s *Session) MoveDown() {
	s.mu.Lock()
	cleared := 0
	if s.canMoveDownLocked() {
		s.current.Position.Y++
		s.score += s.level
	} else {
		cleared = s.lockPipelineLocked()
	}
	over := s.gameOver
	room := s.room
	update := s.privateSnapshotLocked()
	s.mu.Unlock()

	s.afterStep(room, cleared, over)
	s.sink.Send(s.ID, model.Message{Type: "GameUpdate", Payload: update})
}

// HardDrop slams the piece to the bottom, locking immediately and scoring
// the drop distance times the level on top of any cleared lines.
func (s *Session) HardDrop() {
	s.mu.Lock()
	distance := 0
	for s.canMoveDownLocked() {
		s.current.Position.Y++
		distance++
	}
	cleared := s.lockPipelineLocked()
	s.score += distance * s.level
	over := s.gameOver
	room := s.room
	update := s.privateSnapshotLocked()
	s.mu.Unlock()

	s.afterStep(room, cleared, over)
	s.sink.Send(s.ID, model.Message{Type: "GameUpdate", Payload: update})
}

// ApplyPenalty pushes n filler rows onto this board. Rejection eliminates
// the player: not-running, game over, tick cancelled. The shadow goes out
// to the room in both cases so opponents see the new terrain.
func (s *Session) ApplyPenalty(n int) bool {
	s.mu.Lock()
	ok := s.board.AddPenalty(n)
	if !ok {
		s.gameOver = true
		s.stopLocked()
	}
	shadow := s.shadowSnapshotLocked()
	room := s.room
	s.mu.Unlock()
	if room != nil {
		room.Broadcast(model.Message{Type: "GameShadow", Payload: shadow})
	}
	return ok
}

// DeclareWinner force-stops the sole survivor at the end of a round and
// emits its final shadow. The room broadcasts the round-complete and
// winner events.
func (s *Session) DeclareWinner() {
	s.mu.Lock()
	s.gameOver = true
	s.stopLocked()
	shadow := s.shadowSnapshotLocked()
	room := s.room
	s.mu.Unlock()
	if room != nil {
		room.Broadcast(model.Message{Type: "GameShadow", Payload: shadow})
	}
}

// Disconnect cancels the tick first, then leaves the room: host authority
// moves to the earliest-joined remaining member before removal, and the
// room hears a membership update. Safe to call for sessions that never
// joined a room.
func (s *Session) Disconnect() {
	s.Stop()
	s.mu.Lock()
	room := s.room
	s.room = nil
	s.mu.Unlock()
	if room == nil {
		return
	}
	newHost, empty := room.removeSession(s.ID)
	if empty {
		return
	}
	if newHost != "" {
		if successor := room.sessionByID(newHost); successor != nil {
			successor.setHost(true)
		}
		room.logger.Info("host transferred",
			zap.String("room", room.Name), zap.String("from", s.ID), zap.String("to", newHost))
	}
	room.RoomUpdate()
}

// broadcastShadow emits the reduced snapshot to the whole room.
func (s *Session) broadcastShadow() {
	s.mu.Lock()
	shadow := s.shadowSnapshotLocked()
	room := s.room
	s.mu.Unlock()
	if room != nil {
		room.Broadcast(model.Message{Type: "GameShadow", Payload: shadow})
	}
}

// VisualGrid renders the owner view: locked cells, ghost projection, then
// the active piece overlaid on top.
func (s *Session) VisualGrid() [][]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visualGridLocked()
}

func (s *Session) visualGridLocked() [][]int {
	grid := s.board.GridCopy()
	s.paintGhostLocked(grid)
	for _, block := range s.current.CurrentShape() {
		x := s.current.Position.X + block.X
		y := s.current.Position.Y + block.Y
		if x >= 0 && x < BoardCols && y >= 0 && y < BoardRows {
			grid[y][x] = s.current.Color
		}
	}
	return grid
}

// paintGhostLocked projects the active piece straight down to its landing
// position and marks those cells. Recomputed per snapshot, never stored.
func (s *Session) paintGhostLocked(grid [][]int) {
	ghost := s.current.Clone()
	for s.isValidPositionLocked(ghost) {
		ghost.Position.Y++
	}
	ghost.Position.Y--
	for _, block := range ghost.CurrentShape() {
		x := ghost.Position.X + block.X
		y := ghost.Position.Y + block.Y
		if x >= 0 && x < BoardCols && y >= 0 && y < BoardRows {
			grid[y][x] = GhostCell
		}
	}
}

func (s *Session) nextPieceViewLocked() *model.PieceView {
	if s.room == nil {
		return nil
	}
	next := s.room.PieceAt(s.pieceIdx + 1)
	shape := next.CurrentShape()
	cells := make([][2]int, len(shape))
	for i, block := range shape {
		cells[i] = [2]int{block.X, block.Y}
	}
	return &model.PieceView{Kind: next.Kind, Color: next.Color, Cells: cells}
}

func (s *Session) privateSnapshotLocked() model.GameUpdate {
	return model.GameUpdate{
		Grid:     s.visualGridLocked(),
		Score:    s.score,
		Level:    s.level,
		Next:     s.nextPieceViewLocked(),
		GameOver: s.gameOver,
	}
}

func (s *Session) shadowSnapshotLocked() model.GameShadow {
	return model.GameShadow{
		Grid:     s.board.GridCopy(),
		Score:    s.score,
		Level:    s.level,
		GameOver: s.gameOver,
		SocketID: s.ID,
	}
}
