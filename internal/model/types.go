package model

// Message is the envelope for every outbound frame.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Action is an inbound control frame read off a player's websocket.
type Action struct {
	Type          string `json:"type"`
	Payload       string `json:"payload,omitempty"`
	RoomName      string `json:"roomName,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Game input commands carried in an Action of type "gameInput".
const (
	InputRotate    = "Rotate"
	InputMoveLeft  = "MoveLeft"
	InputMoveRight = "MoveRight"
	InputMoveDown  = "MoveDown"
	InputHardDrop  = "HardDrop"
)

// RoomResponse answers a newRoom or joinRoom request. CanCreate is set on
// newRoomResponse frames, CanJoin on joinRoomResponse frames. Error is only
// populated when the handler recovered from an internal fault.
type RoomResponse struct {
	CorrelationID string `json:"correlationId"`
	CanCreate     *bool  `json:"canCreate,omitempty"`
	CanJoin       *bool  `json:"canJoin,omitempty"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
}

// PieceView is the next-piece reference included in private snapshots.
type PieceView struct {
	Kind  string   `json:"kind"`
	Color int      `json:"color"`
	Cells [][2]int `json:"cells"`
}

// GameUpdate is the private snapshot sent to the owning connection only:
// locked cells plus ghost projection plus the active piece overlay.
type GameUpdate struct {
	Grid     [][]int    `json:"grid"`
	Score    int        `json:"score"`
	Level    int        `json:"level"`
	Next     *PieceView `json:"nextPiece"`
	GameOver bool       `json:"gameOver"`
}

// GameShadow is the reduced snapshot broadcast to the rest of the room:
// locked terrain only, no ghost, no active piece.
type GameShadow struct {
	Grid     [][]int `json:"grid"`
	Score    int     `json:"score"`
	Level    int     `json:"level"`
	GameOver bool    `json:"gameOver"`
	SocketID string  `json:"socketId"`
}

// RoomMember is one entry of a roomUpdate broadcast.
type RoomMember struct {
	Username string  `json:"username"`
	SocketID string  `json:"socketId"`
	Grid     [][]int `json:"grid"`
}

// RoomUpdate announces the current host and membership to the whole room.
type RoomUpdate struct {
	Host    string       `json:"host"`
	Players []RoomMember `json:"players"`
}

// WinnerPayload carries the surviving session's identity.
type WinnerPayload struct {
	SocketID string `json:"socketId"`
}
