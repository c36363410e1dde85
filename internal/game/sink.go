package game

import "multitris/internal/model"

// Sink delivers an outbound event to one connection. The websocket layer
// implements it; sessions and rooms hold it instead of inheriting an
// emitter. Implementations must not call back into the game package.
type Sink interface {
	Send(socketID string, msg model.Message)
}
