package realtime

// Package realtime provides a lightweight in-process publish/subscribe hub
// used to fan out accepted search results to multiple listeners (e.g.
// WebSocket sessions watching a run).
//
// Design goals:
//   - Best-effort fan-out: slow listeners drop events (never backpressure
//     the search loop).
//   - No persistence or replay semantics (ephemeral stream).
//   - Simple event envelope, extensible to further event kinds.

import (
	"sync"

	"github.com/msnfinder/msnfinder/pkg/core"
)

// Event is the hub's envelope. Type is "result" for accepted results and
// "run" for run lifecycle transitions (started, stopped, finished).
type Event struct {
	Type   string       `json:"type"`
	RunID  string       `json:"run_id,omitempty"`
	State  string       `json:"state,omitempty"`
	Result *core.Result `json:"result,omitempty"`
}

// NewResultEvent wraps an accepted result for broadcast.
func NewResultEvent(runID string, r core.Result) Event {
	return Event{Type: "result", RunID: runID, Result: &r}
}

// NewRunEvent signals a run lifecycle transition.
func NewRunEvent(runID, state string) Event {
	return Event{Type: "run", RunID: runID, State: state}
}

// Hub is an in-memory fan-out dispatcher. Each registered listener receives
// events via its own buffered channel. If a listener's buffer is full when
// an event arrives, that event is dropped for that listener only, so a
// single slow consumer cannot stall delivery to the rest.
//
// The hub is concurrency-safe.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
}

// NewHub constructs a hub with the given per-listener buffer size.
// If bufSize <= 0, a default of 32 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a new listener and returns (listenerID, receive-only
// channel). Callers must later Unregister(id) to release resources.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener with the given id and closes its channel.
// It is safe to call multiple times; unknown ids are ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers an event to all registered listeners, best effort.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- event:
		default:
			// Drop for slow listener.
		}
	}
}

// Size returns the current number of active listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
