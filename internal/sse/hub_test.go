package sse

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBroadcastRoutesByAdmin(t *testing.T) {
	hub := NewHub()
	a := hub.Register("client-a", 1)
	b := hub.Register("client-b", 2)
	defer hub.Unregister("client-a")
	defer hub.Unregister("client-b")

	hub.Broadcast(&NotificationEvent{
		Event:          EventNotificationCreated,
		NotificationID: 7,
		Title:          "test",
		RelatedAdminID: 1,
		Timestamp:      time.Now(),
	})

	select {
	case data := <-a.Events:
		var ev NotificationEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.NotificationID != 7 {
			t.Fatalf("unexpected notification id %d", ev.NotificationID)
		}
	default:
		t.Fatalf("target admin received nothing")
	}

	select {
	case <-b.Events:
		t.Fatalf("event leaked to another admin")
	default:
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	c := hub.Register("client", 1)
	defer hub.Unregister("client")

	// Fill the buffer and one more; the overflow must not block.
	for i := 0; i < cap(c.Events)+5; i++ {
		hub.Broadcast(&NotificationEvent{
			Event:          EventNotificationCreated,
			NotificationID: i,
			RelatedAdminID: 1,
		})
	}

	if got := len(c.Events); got != cap(c.Events) {
		t.Fatalf("expected full buffer %d, got %d", cap(c.Events), got)
	}
}

func TestUnregisterClosesChannel(t *testing.T) {
	hub := NewHub()
	c := hub.Register("client", 1)
	hub.Unregister("client")

	if _, ok := <-c.Events; ok {
		t.Fatalf("channel not closed")
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("client still registered")
	}
}
