package server

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"multitris/internal/model"
)

// Hub tracks live websocket connections by id and implements game.Sink.
// Writes on one connection are serialized with a per-connection mutex
// since gorilla/websocket allows only one concurrent writer.
type Hub struct {
	mu     sync.Mutex
	conns  map[string]*client
	logger *zap.Logger
}

type client struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{conns: make(map[string]*client), logger: logger}
}

func (h *Hub) Register(id string, ws *websocket.Conn) {
	h.mu.Lock()
	h.conns[id] = &client{ws: ws}
	h.mu.Unlock()
}

func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}

// Send writes one frame to a connection. A vanished or failing connection
// is not an error here; the read loop owns teardown.
func (h *Hub) Send(id string, msg model.Message) {
	h.mu.Lock()
	c := h.conns[id]
	h.mu.Unlock()
	if c == nil {
		return
	}
	c.mu.Lock()
	err := c.ws.WriteJSON(msg)
	c.mu.Unlock()
	if err != nil {
		h.logger.Debug("write failed", zap.String("conn", id), zap.Error(err))
	}
}
