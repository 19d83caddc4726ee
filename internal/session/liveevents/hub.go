package liveevents

import (
	"errors"
	"sync"
)

const (
	KindStart = "start"
	KindPing  = "ping"
	KindView  = "view"
	KindEnd   = "end"
)

const (
	DefaultBufferSize       = 50
	DefaultSubscriberBuffer = 16
)

// LiveEvent is one session lifecycle notification fanned out to admin
// dashboard streams.
type LiveEvent struct {
	Kind       string `json:"kind"`
	SessionID  string `json:"session_id"`
	UserID     string `json:"user_id,omitempty"`
	Path       string `json:"path,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// Hub fans session events out to SSE subscribers. A bounded replay buffer
// gives late subscribers recent history; slow subscribers drop events
// instead of blocking publishers.
type Hub struct {
	mu               sync.Mutex
	buffer           []LiveEvent
	subs             map[uint64]chan LiveEvent
	nextID           uint64
	bufferSize       int
	subscriberBuffer int
}

type Subscription struct {
	hub  *Hub
	id   uint64
	ch   chan LiveEvent
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{
		subs:             make(map[uint64]chan LiveEvent),
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

func (h *Hub) Publish(event LiveEvent) {
	if h == nil {
		return
	}

	h.mu.Lock()
	h.buffer = append(h.buffer, event)
	if len(h.buffer) > h.bufferSize {
		h.buffer = h.buffer[len(h.buffer)-h.bufferSize:]
	}
	subs := make([]chan LiveEvent, 0, len(h.subs))
	for _, ch := range h.subs {
		subs = append(subs, ch)
	}
	h.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *Hub) Subscribe() (*Subscription, []LiveEvent, error) {
	if h == nil {
		return nil, nil, errors.New("hub_unavailable")
	}

	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[uint64]chan LiveEvent)
	}
	id := h.nextID
	h.nextID++
	ch := make(chan LiveEvent, h.subscriberBuffer)
	h.subs[id] = ch
	backlog := append([]LiveEvent(nil), h.buffer...)
	h.mu.Unlock()

	return &Subscription{hub: h, id: id, ch: ch}, backlog, nil
}

func (h *Hub) unsubscribe(id uint64) {
	if h == nil {
		return
	}
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

func (s *Subscription) Events() <-chan LiveEvent {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.id)
	})
}
