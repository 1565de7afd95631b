package position

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Hub fans position updates out to any number of subscribers. Producers
// call Publish; slow subscribers lose their oldest buffered fix rather
// than blocking the producer.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]chan Update
	last   Update
	seen   bool
	buffer int
}

// NewHub creates a hub whose subscriber channels buffer the given number
// of updates.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[uuid.UUID]chan Update),
		buffer: buffer,
	}
}

// Publish records the fix as the latest and delivers it to all subscribers.
func (h *Hub) Publish(u Update) {
	h.mu.Lock()
	h.last = u
	h.seen = true

	for id, ch := range h.subs {
		select {
		case ch <- u:
		default:
			// Full buffer: drop the oldest fix so the fresh one lands.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- u:
			default:
				slog.Debug("position update dropped", "subscriber", id)
			}
		}
	}
	h.mu.Unlock()
}

// Subscribe registers a consumer and returns its id and channel.
func (h *Hub) Subscribe() (uuid.UUID, <-chan Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.New()
	ch := make(chan Update, h.buffer)
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a consumer and closes its channel.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Last returns the most recent fix. ok is false before the first one.
func (h *Hub) Last() (Update, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last, h.seen
}

// Subscribers returns the current consumer count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
