package realtime

import (
	"testing"
	"time"
)

func TestPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(1)
	defer sub.Close()

	hub.Publish(1, Event{Kind: "notification", Payload: "hello"})

	select {
	case ev := <-sub.C:
		if ev.Kind != "notification" {
			t.Errorf("got kind %q, want notification", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

func TestPublishIsScopedToUser(t *testing.T) {
	hub := NewHub()
	mine := hub.Subscribe(1)
	theirs := hub.Subscribe(2)
	defer mine.Close()
	defer theirs.Close()

	hub.Publish(1, Event{Kind: "notification"})

	select {
	case <-theirs.C:
		t.Fatal("event leaked to another user's stream")
	default:
	}
	select {
	case <-mine.C:
	default:
		t.Fatal("event not delivered to the addressed user")
	}
}

func TestSlowConsumerDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(1)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish(1, Event{Kind: "notification", Payload: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow consumer")
	}
	if got := len(sub.C); got != subscriberBuffer {
		t.Errorf("buffered %d events, want %d (rest dropped)", got, subscriberBuffer)
	}
}

func TestCloseDetaches(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(1)
	sub.Close()
	sub.Close() // idempotent

	// Publishing after close must not panic on the closed channel.
	hub.Publish(1, Event{Kind: "notification"})
}
