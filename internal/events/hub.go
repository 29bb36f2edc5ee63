package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var ErrHubClosed = errors.New("event hub closed")

const DefaultBuffer = 64

// Hub is the process-wide broadcaster. Every subscriber gets every event;
// a subscriber whose buffer is full misses the event.
type Hub struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	buffer  int
	seq     uint64
	closed  bool
	dropped atomic.Uint64
	logger  *zap.Logger
}

type Subscription struct {
	hub   *Hub
	ch    chan Envelope
	once  sync.Once
	start uint64
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

func (h *Hub) Subscribe() (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	sub := &Subscription{hub: h, ch: make(chan Envelope, h.buffer), start: h.seq}
	h.subs[sub] = struct{}{}
	return sub, nil
}

// Publish assigns the next sequence number and hands the event to every
// subscriber without waiting.
func (h *Hub) Publish(_ context.Context, evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	h.seq++
	env := Envelope{Seq: h.seq, Event: evt}
	for sub := range h.subs {
		select {
		case sub.ch <- env:
		default:
			total := h.dropped.Add(1)
			h.logger.Warn("subscriber buffer full, event dropped",
				zap.String("event", evt.Name),
				zap.Uint64("seq", env.Seq),
				zap.Uint64("dropped_total", total),
			)
		}
	}
}

// Seq returns the sequence number of the last published event.
func (h *Hub) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close ends every subscription. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		sub.once.Do(func() { close(sub.ch) })
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub)
	sub.once.Do(func() { close(sub.ch) })
}

// Events is closed when the subscription or the hub is closed.
func (s *Subscription) Events() <-chan Envelope {
	return s.ch
}

// Start is the hub sequence at subscription time. The first event delivered
// to s carries Start()+1.
func (s *Subscription) Start() uint64 {
	return s.start
}

func (s *Subscription) Close() {
	s.hub.remove(s)
}
