package server

import (
	"log/slog"
	"sync"

	"github.com/tulen-chik/reshalka/internal/engine"
)

// subscriberBuffer is how many snapshots a slow subscriber may lag behind
// before the oldest one is dropped.
const subscriberBuffer = 8

// Hub fans engine snapshots out to websocket subscribers. It implements
// engine.Observer and is called on the engine loop, so it never blocks.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan engine.Snapshot]struct{}
	closed bool
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[chan engine.Snapshot]struct{}),
		logger: logger,
	}
}

// SnapshotChanged implements engine.Observer.
func (h *Hub) SnapshotChanged(s engine.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- s:
			continue
		default:
		}
		// Full: drop the oldest so the subscriber ends on the latest state.
		select {
		case <-ch:
			h.logger.Debug("subscriber lagging, dropped snapshot", "seq", s.Seq)
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

// Subscribe registers a subscriber. The returned cancel func unregisters
// it and closes the channel.
func (h *Hub) Subscribe() (<-chan engine.Snapshot, func()) {
	ch := make(chan engine.Snapshot, subscriberBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

// Close ends every subscription. Later subscribers get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
