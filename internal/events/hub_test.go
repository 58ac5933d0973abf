package events

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

type captureSender struct {
	mu     sync.Mutex
	events [][]byte
	fail   bool
}

func (s *captureSender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("send failed")
	}
	s.events = append(s.events, data)
	return nil
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *captureSender) last(t *testing.T) map[string]any {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		t.Fatal("no events captured")
	}
	var out map[string]any
	if err := json.Unmarshal(s.events[len(s.events)-1], &out); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	return out
}

func TestHubPublishToSubscriber(t *testing.T) {
	hub := NewHub()
	sub := &captureSender{}
	hub.Subscribe("u1", sub)

	if !hub.IsSubscribed("u1") {
		t.Fatal("expected u1 subscribed")
	}
	if hub.IsSubscribed("u2") {
		t.Fatal("u2 should not be subscribed")
	}

	hub.Publish("u1", NewLog(LevelInfo, "starting"))

	got := sub.last(t)
	if got["type"] != "log" || got["level"] != "info" || got["message"] != "starting" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got["timestamp"] == nil {
		t.Fatal("event missing timestamp")
	}
}

func TestHubPublishIsUserScoped(t *testing.T) {
	hub := NewHub()
	a := &captureSender{}
	b := &captureSender{}
	hub.Subscribe("u1", a)
	hub.Subscribe("u2", b)

	hub.Publish("u1", NewLog(LevelInfo, "only for u1"))

	if a.count() != 1 {
		t.Fatalf("u1 should receive the event, got %d", a.count())
	}
	if b.count() != 0 {
		t.Fatalf("u2 should not receive the event, got %d", b.count())
	}
}

func TestHubPublishWithoutSubscribersIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Publish("ghost", NewLog(LevelInfo, "nobody listening"))
}

func TestHubPrunesFailedSenders(t *testing.T) {
	hub := NewHub()
	healthy := &captureSender{}
	broken := &captureSender{fail: true}
	hub.Subscribe("u1", healthy)
	hub.Subscribe("u1", broken)

	hub.Publish("u1", NewLog(LevelInfo, "first"))
	hub.Publish("u1", NewLog(LevelInfo, "second"))

	if healthy.count() != 2 {
		t.Fatalf("healthy subscriber should get both events, got %d", healthy.count())
	}
	if !hub.IsSubscribed("u1") {
		t.Fatal("healthy subscriber should remain")
	}

	hub.Unsubscribe("u1", healthy)
	if hub.IsSubscribed("u1") {
		t.Fatal("broken subscriber should have been pruned")
	}
}

func TestProcessUpdatePercentage(t *testing.T) {
	e := NewProcessUpdate(StageApplying, 1, 3, map[string]any{"job": "j1"})
	if e["percentage"] != 33.3 {
		t.Fatalf("expected 33.3, got %v", e["percentage"])
	}

	zero := NewProcessUpdate(StageRanking, 0, 0, nil)
	if zero["percentage"] != 0.0 {
		t.Fatalf("expected 0 for empty total, got %v", zero["percentage"])
	}
	if _, ok := zero["details"]; ok {
		t.Fatal("details should be omitted when nil")
	}
}

func TestQueueUpdateNeverNil(t *testing.T) {
	e := NewQueueUpdate(nil)
	queue, ok := e["queue"].([]QueueEntry)
	if !ok {
		t.Fatalf("queue has unexpected type %T", e["queue"])
	}
	if queue == nil {
		t.Fatal("queue should be an empty slice, not nil")
	}
}
