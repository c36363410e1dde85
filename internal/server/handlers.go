package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"multitris/internal/game"
	"multitris/internal/model"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Handler owns the websocket endpoint and routes inbound control frames
// to the registry. Replies go through the Sink so the routing logic can be
// exercised without a live connection.
type Handler struct {
	Hub      *Hub
	Sink     game.Sink
	Registry *game.Registry
	Logger   *zap.Logger
}

func NewHandler(hub *Hub, registry *game.Registry, logger *zap.Logger) *Handler {
	return &Handler{Hub: hub, Sink: hub, Registry: registry, Logger: logger}
}

// CheckRoom answers the lobby form's existence probe.
func (h *Handler) CheckRoom(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	json.NewEncoder(w).Encode(map[string]bool{"exists": h.Registry.RoomExists(name)})
}

// HandleWS upgrades the connection, assigns it an identity, and runs the
// read loop until the transport closes. Teardown always goes through the
// registry's disconnect path.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	id := uuid.NewString()
	h.Hub.Register(id, ws)
	h.Logger.Info("client connected", zap.String("conn", id))

	defer func() {
		h.Registry.Disconnect(id)
		h.Hub.Unregister(id)
		ws.Close()
		h.Logger.Info("client disconnected", zap.String("conn", id))
	}()

	for {
		var action model.Action
		if err := ws.ReadJSON(&action); err != nil {
			return
		}
		h.dispatch(id, action)
	}
}

func (h *Handler) dispatch(id string, action model.Action) {
	switch action.Type {
	case "setUsername":
		h.Registry.SetUsername(id, action.Payload)
	case "newRoom":
		h.answerRoomRequest(id, action, true)
	case "joinRoom":
		h.answerRoomRequest(id, action, false)
	case "leaveRoom":
		h.Registry.LeaveRoom(id)
	case "start":
		h.Registry.StartRound(id, roomNameOf(action))
	case "gameInput":
		h.Registry.HandleInput(id, action.Payload)
	default:
		h.Logger.Debug("unknown message type", zap.String("conn", id), zap.String("type", action.Type))
	}
}

// Some clients put the room name in the payload field of leave/start
// frames instead of roomName.
func roomNameOf(action model.Action) string {
	if action.RoomName != "" {
		return action.RoomName
	}
	return action.Payload
}

// answerRoomRequest replies to newRoom/joinRoom, echoing the caller's
// correlation id. An internal fault is recovered here and reported in the
// same response shape; the connection survives.
func (h *Handler) answerRoomRequest(id string, action model.Action, create bool) {
	msgType := "joinRoomResponse"
	if create {
		msgType = "newRoomResponse"
	}
	defer func() {
		if rec := recover(); rec != nil {
			h.Logger.Error("room request failed",
				zap.String("conn", id), zap.String("room", action.RoomName), zap.Any("panic", rec))
			h.Sink.Send(id, model.Message{Type: msgType, Payload: model.RoomResponse{
				CorrelationID: action.CorrelationID,
				Error:         fmt.Sprint(rec),
			}})
		}
	}()

	var ok bool
	var reason string
	if create {
		ok, reason = h.Registry.CreateRoom(id, action.RoomName)
	} else {
		ok, reason = h.Registry.JoinRoom(id, action.RoomName)
	}
	resp := model.RoomResponse{CorrelationID: action.CorrelationID, Message: reason}
	if create {
		resp.CanCreate = &ok
	} else {
		resp.CanJoin = &ok
	}
	h.Sink.Send(id, model.Message{Type: msgType, Payload: resp})
}
