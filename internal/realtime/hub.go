package realtime

import (
	"sync"
)

// Event is one change-feed entry pushed to a user's open streams.
type Event struct {
	Kind    string      `json:"kind"` // "notification" or "dispute_message"
	Payload interface{} `json:"payload"`
}

// Subscriber receives events for a single user on C until Close.
type Subscriber struct {
	UserID uint
	C      chan Event

	hub  *Hub
	once sync.Once
}

// Close detaches the subscriber from the hub and releases its channel.
func (s *Subscriber) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
		close(s.C)
	})
}

// Hub fans row-insert events out to per-user subscribers. Delivery is
// at-least-once per open connection with no ordering guarantee across rows;
// a subscriber whose buffer is full drops the event rather than blocking
// the publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[uint]map[*Subscriber]struct{}
}

const subscriberBuffer = 16

func NewHub() *Hub {
	return &Hub{subs: make(map[uint]map[*Subscriber]struct{})}
}

// Subscribe registers a stream for userID.
func (h *Hub) Subscribe(userID uint) *Subscriber {
	sub := &Subscriber{
		UserID: userID,
		C:      make(chan Event, subscriberBuffer),
		hub:    h,
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	return sub
}

func (h *Hub) unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[sub.UserID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.UserID)
		}
	}
}

// Publish delivers an event to every open stream of userID. Slow consumers
// lose the event; they are expected to reconcile by re-fetching.
func (h *Hub) Publish(userID uint, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[userID] {
		select {
		case sub.C <- ev:
		default:
		}
	}
}
