package events

import (
	"encoding/json"
	"sync"

	"jobagent-backend/internal/shared/telemetry"
)

// Sender delivers one encoded event to a subscriber. A non-nil error marks
// the subscriber dead and it is pruned from the hub.
type Sender interface {
	Send(data []byte) error
}

// Hub fans events out to a user's live subscribers. A user can hold several
// subscriptions at once (multiple tabs); publishing to a user with none is a
// no-op.
type Hub struct {
	mu   sync.Mutex
	subs map[string][]Sender
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string][]Sender)}
}

func (h *Hub) Subscribe(userID string, s Sender) {
	if userID == "" || s == nil {
		return
	}
	h.mu.Lock()
	h.subs[userID] = append(h.subs[userID], s)
	h.mu.Unlock()
}

func (h *Hub) Unsubscribe(userID string, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.subs[userID]
	for i, sub := range list {
		if sub == s {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(h.subs, userID)
	} else {
		h.subs[userID] = list
	}
}

// IsSubscribed reports whether the user has at least one live subscriber.
func (h *Hub) IsSubscribed(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID]) > 0
}

// Publish sends the event to every subscriber of the user, pruning the ones
// that fail.
func (h *Hub) Publish(userID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		telemetry.Error("events.marshal_failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	h.mu.Lock()
	list := append([]Sender(nil), h.subs[userID]...)
	h.mu.Unlock()

	var dead []Sender
	for _, sub := range list {
		if err := sub.Send(data); err != nil {
			dead = append(dead, sub)
		}
	}
	for _, sub := range dead {
		h.Unsubscribe(userID, sub)
	}
	if len(dead) > 0 {
		telemetry.Warn("events.pruned_subscribers", map[string]any{
			"user_id": userID,
			"count":   len(dead),
		})
	}
}
