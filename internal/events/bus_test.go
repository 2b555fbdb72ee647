package events

import (
	"testing"
	"time"
)

func TestSubscribeReceivesMatchingType(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	ch := bus.Subscribe(TypeAgentCompleted)

	bus.Publish(NewAgentCompleted("run-1", "seo", 72.5, 1, false))
	bus.Publish(NewAgentStarted("run-1", "trust", 2))

	select {
	case ev := <-ch:
		if ev.EventType() != TypeAgentCompleted {
			t.Errorf("type = %q, want %q", ev.EventType(), TypeAgentCompleted)
		}
		if ev.RunID() != "run-1" {
			t.Errorf("run id = %q", ev.RunID())
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	select {
	case ev := <-ch:
		t.Errorf("unexpected second event: %v", ev.EventType())
	default:
	}
}

func TestSubscribeAllTypes(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	ch := bus.Subscribe()

	bus.Publish(NewPhaseStarted("run-1", 0, []string{"website"}))
	bus.Publish(NewPhaseCompleted("run-1", 0, 1, 0, 0))

	for i := 0; i < 2; i++ {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("event %d not received", i)
		}
	}
}

func TestRingBufferDropsWhenFull(t *testing.T) {
	bus := New(2)
	defer bus.Close()

	ch := bus.Subscribe()

	for i := 0; i < 5; i++ {
		bus.Publish(NewAgentStarted("run-1", "seo", 1))
	}

	if bus.DroppedCount() == 0 {
		t.Error("expected dropped events with a full buffer")
	}

	// Channel still holds the newest events.
	select {
	case <-ch:
	default:
		t.Error("expected buffered event after drops")
	}
}

func TestPriorityNeverDrops(t *testing.T) {
	bus := New(1)
	defer bus.Close()

	ch := bus.SubscribePriority()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			ev := <-ch
			if ev.EventType() != TypeRunFailed {
				t.Errorf("type = %q", ev.EventType())
			}
		}
	}()

	for i := 0; i < 3; i++ {
		bus.PublishPriority(NewRunFailed("run-1", "boom"))
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("priority subscriber did not receive all events")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	bus.Publish(NewRunStarted("run-1", "Acme", "https://acme.example"))
}

func TestPublishAfterClose(t *testing.T) {
	bus := New(10)
	ch := bus.Subscribe()
	bus.Close()

	bus.Publish(NewRunCompleted("run-1", 61.2, "Strong Contender"))
	bus.PublishPriority(NewRunCompleted("run-1", 61.2, "Strong Contender"))

	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
}

func TestEventConstructorsCarryFields(t *testing.T) {
	rev := NewRevisionRequested("run-9", "conversion", 2, []string{"findings too short"})
	if rev.Agent != "conversion" || rev.Cycle != 2 || len(rev.Violations) != 1 {
		t.Errorf("revision event = %+v", rev)
	}
	if rev.Timestamp().IsZero() {
		t.Error("timestamp not set")
	}

	ceil := NewCeilingReached("run-9", "conversion", 3)
	if ceil.EventType() != TypeCeilingReached || ceil.Cycles != 3 {
		t.Errorf("ceiling event = %+v", ceil)
	}

	skip := NewAgentSkipped("run-9", "top5_pages", []string{"website", "positioning"})
	if len(skip.Missing) != 2 {
		t.Errorf("skipped event = %+v", skip)
	}
}
