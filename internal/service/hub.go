package service

import (
	"sync"

	"github.com/GoPolymarket/schemascope/internal/model"
	"github.com/GoPolymarket/schemascope/internal/pkg/metrics"
)

// Hub fans emitted records out to live stream subscribers. A subscriber that
// falls behind misses records rather than slowing delivery for others.
type Hub struct {
	mu      sync.Mutex
	subs    map[chan model.DiagnosticRecord]struct{}
	bufSize int
}

func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 16
	}
	return &Hub{
		subs:    make(map[chan model.DiagnosticRecord]struct{}),
		bufSize: bufSize,
	}
}

// Subscribe returns a record channel and a cancel func that closes it.
func (h *Hub) Subscribe() (<-chan model.DiagnosticRecord, func()) {
	ch := make(chan model.DiagnosticRecord, h.bufSize)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	metrics.StreamSubscribers.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
			metrics.StreamSubscribers.Dec()
		})
	}
	return ch, cancel
}

func (h *Hub) Publish(rec model.DiagnosticRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- rec:
		default:
		}
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
