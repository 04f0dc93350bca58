package display

import (
	"sync"

	"gitlab.com/justnurik/luxq/pkg/sensor"
)

type Renderer interface {
	Render(s sensor.Sample)
}

// Tee renders every sample on each of its renderers in order.
type Tee []Renderer

func (t Tee) Render(s sensor.Sample) {
	for _, r := range t {
		r.Render(s)
	}
}

// Hub mirrors rendered samples to subscribers. A subscriber that falls behind
// misses samples; Render never blocks.
type Hub struct {
	buffer int

	mu   sync.Mutex
	subs map[chan sensor.Sample]struct{}
}

func NewHub(buffer int) *Hub {
	return &Hub{
		buffer: buffer,
		subs:   make(map[chan sensor.Sample]struct{}),
	}
}

func (h *Hub) Render(s sensor.Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Subscribe returns a feed of rendered samples and the function that ends it.
func (h *Hub) Subscribe() (<-chan sensor.Sample, func()) {
	ch := make(chan sensor.Sample, h.buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}
