package realtime

import (
	"testing"
	"time"
)

func recvEvent(t *testing.T, c <-chan Event) Event {
	t.Helper()
	select {
	case e := <-c:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, c <-chan Event) {
	t.Helper()
	select {
	case e := <-c:
		t.Fatalf("unexpected event: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDeliversMatchingEvents(t *testing.T) {
	hub := NewHub(4)
	defer hub.Close()

	sub := hub.Subscribe(Filter{Table: "members", Column: "id", Value: "7"})

	hub.Publish(Event{Table: "members", Type: EventUpdate, Keys: map[string]string{"id": "7"}})
	e := recvEvent(t, sub.C)
	if e.Table != "members" || e.Type != EventUpdate {
		t.Errorf("got %+v", e)
	}
}

func TestHubFiltersByKeyValue(t *testing.T) {
	hub := NewHub(4)
	defer hub.Close()

	sub := hub.Subscribe(Filter{Table: "alerts", Column: "member_id", Value: "1"})

	hub.Publish(Event{Table: "alerts", Type: EventInsert, Keys: map[string]string{"member_id": "2"}})
	hub.Publish(Event{Table: "members", Type: EventInsert, Keys: map[string]string{"member_id": "1"}})
	assertNoEvent(t, sub.C)

	hub.Publish(Event{Table: "alerts", Type: EventInsert, Keys: map[string]string{"member_id": "1"}})
	recvEvent(t, sub.C)
}

func TestHubEmptyColumnMatchesWholeTable(t *testing.T) {
	hub := NewHub(4)
	defer hub.Close()

	sub := hub.Subscribe(Filter{Table: "messages"})

	hub.Publish(Event{Table: "messages", Type: EventInsert, Keys: map[string]string{"to_user_id": "x"}})
	hub.Publish(Event{Table: "messages", Type: EventDelete, Keys: nil})
	recvEvent(t, sub.C)
	recvEvent(t, sub.C)
}

func TestHubMultipleFiltersAreOred(t *testing.T) {
	hub := NewHub(4)
	defer hub.Close()

	sub := hub.Subscribe(
		Filter{Table: "messages", Column: "to_user_id", Value: "me"},
		Filter{Table: "messages", Column: "from_user_id", Value: "me"},
	)

	hub.Publish(Event{Table: "messages", Type: EventInsert, Keys: map[string]string{"from_user_id": "me", "to_user_id": "peer"}})
	hub.Publish(Event{Table: "messages", Type: EventInsert, Keys: map[string]string{"from_user_id": "peer", "to_user_id": "me"}})
	recvEvent(t, sub.C)
	recvEvent(t, sub.C)

	// An event matching both filters must deliver once, not twice.
	hub.Publish(Event{Table: "messages", Type: EventUpdate, Keys: map[string]string{"from_user_id": "me", "to_user_id": "me"}})
	recvEvent(t, sub.C)
	assertNoEvent(t, sub.C)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(4)
	defer hub.Close()

	sub := hub.Subscribe(Filter{Table: "members"})
	hub.Unsubscribe(sub)

	if _, ok := <-sub.C; ok {
		t.Error("channel should be closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	hub.Publish(Event{Table: "members", Type: EventUpdate})

	// Double unsubscribe is a no-op.
	hub.Unsubscribe(sub)
}

func TestHubSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub(1)
	defer hub.Close()

	slow := hub.Subscribe(Filter{Table: "members"})
	live := hub.Subscribe(Filter{Table: "members"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			hub.Publish(Event{Table: "members", Type: EventUpdate})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}

	// The slow subscriber still holds its one buffered event.
	recvEvent(t, slow.C)
	recvEvent(t, live.C)
}

func TestHubClose(t *testing.T) {
	hub := NewHub(4)
	sub := hub.Subscribe(Filter{Table: "members"})

	hub.Close()
	if _, ok := <-sub.C; ok {
		t.Error("channel should be closed after hub close")
	}

	// Operations on a closed hub are safe no-ops.
	hub.Publish(Event{Table: "members"})
	late := hub.Subscribe(Filter{Table: "members"})
	if _, ok := <-late.C; ok {
		t.Error("subscription on closed hub should come back closed")
	}
	hub.Close()
}

func TestSubscriberCount(t *testing.T) {
	hub := NewHub(4)
	defer hub.Close()

	if got := hub.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}
	a := hub.Subscribe(Filter{Table: "members"})
	b := hub.Subscribe(Filter{Table: "alerts"})
	if got := hub.SubscriberCount(); got != 2 {
		t.Errorf("SubscriberCount() = %d, want 2", got)
	}
	hub.Unsubscribe(a)
	hub.Unsubscribe(b)
	if got := hub.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}
}
