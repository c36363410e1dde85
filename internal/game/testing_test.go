package game

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"multitris/internal/model"
)

// recordingSink captures outbound frames per connection for assertions.
type recordingSink struct {
	mu   sync.Mutex
	msgs map[string][]model.Message
}

func newRecordingSink() *recordingSink {
	return &recordingSink{msgs: make(map[string][]model.Message)}
}

func (r *recordingSink) Send(id string, msg model.Message) {
	r.mu.Lock()
	r.msgs[id] = append(r.msgs[id], msg)
	r.mu.Unlock()
}

func (r *recordingSink) byType(id, msgType string) []model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Message
	for _, m := range r.msgs[id] {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func (r *recordingSink) lastOfType(id, msgType string) (model.Message, bool) {
	msgs := r.byType(id, msgType)
	if len(msgs) == 0 {
		return model.Message{}, false
	}
	return msgs[len(msgs)-1], true
}

func newTestRoom(t *testing.T, name, hostID string) (*Room, *recordingSink) {
	t.Helper()
	sink := newRecordingSink()
	return NewRoom(name, hostID, sink, zaptest.NewLogger(t)), sink
}

// addTestSession joins a session with a tick period long enough that the
// timer never fires during a test; ticks are driven by hand.
func addTestSession(t *testing.T, r *Room, id string, host bool) *Session {
	t.Helper()
	s := NewSession(id, "user-"+id, host, r, r.sink, r.logger, time.Minute)
	r.addSession(s)
	t.Cleanup(s.Stop)
	return s
}

// setPieces pins the start of the shared sequence to known kinds.
func setPieces(r *Room, kinds ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pieces = r.pieces[:0]
	for _, k := range kinds {
		r.pieces = append(r.pieces, catalogPiece(k))
	}
}
