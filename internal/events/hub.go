package events

import (
	"sync"
	"time"

	"ownit/utils"
)

// defaultBuffer is the per-subscriber channel depth. A subscriber that falls
// further behind than this starts losing events.
const defaultBuffer = 16

// Hub is the in-process fanout: subscribers register on an auction topic and
// receive every event published for that auction while connected. The hub is
// constructor-injected into whatever needs to publish; there is no
// module-level instance.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[int]chan Event // key: topic -> subscriber id -> channel
	nextID int
	closed bool
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[int]chan Event)}
}

// Subscribe registers a subscriber on an auction topic. It returns the event
// channel and an unsubscribe function; the channel is closed on unsubscribe
// or hub shutdown.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, defaultBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	if h.topics[topic] == nil {
		h.topics[topic] = make(map[int]chan Event)
	}
	id := h.nextID
	h.nextID++
	h.topics[topic][id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.topics[topic]; ok {
				if _, ok := subs[id]; ok {
					delete(subs, id)
					close(ch)
				}
				if len(subs) == 0 {
					delete(h.topics, topic)
				}
			}
		})
	}
	return ch, unsubscribe
}

// PublishEvent delivers the event to every subscriber of the topic. Slow
// subscribers with a full buffer are skipped rather than blocking the
// publisher.
func (h *Hub) PublishEvent(topic, eventType string, payload any) {
	event := Event{
		Topic:     topic,
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for id, ch := range h.topics[topic] {
		select {
		case ch <- event:
		default:
			utils.Warn("event dropped for slow subscriber", map[string]any{
				"topic":      topic,
				"event_type": eventType,
				"subscriber": id,
			})
		}
	}
}

// Close shuts the hub down and closes every subscriber channel
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, subs := range h.topics {
		for _, ch := range subs {
			close(ch)
		}
	}
	h.topics = make(map[string]map[int]chan Event)
}
