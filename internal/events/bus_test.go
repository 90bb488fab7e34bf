package events_test

import (
	"testing"
	"time"

	"github.com/thinkier/dfr-io-hat/internal/events"
	"github.com/thinkier/dfr-io-hat/internal/models"
)

func TestBusSubscribePublish(t *testing.T) {
	bus := events.NewBus()
	ch := bus.Subscribe("test1")

	state := models.DefaultState()
	state.PWM.FreqHz = 123
	bus.Publish(state)

	select {
	case got := <-ch:
		if got.State.PWM.FreqHz != 123 {
			t.Errorf("got freq %d, want 123", got.State.PWM.FreqHz)
		}
		if got.Seq != 1 {
			t.Errorf("got seq %d, want 1", got.Seq)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusSequenceIncreases(t *testing.T) {
	bus := events.NewBus()
	ch := bus.Subscribe("seq")
	for i := 0; i < 3; i++ {
		bus.Publish(models.DefaultState())
	}
	for want := uint64(1); want <= 3; want++ {
		if got := (<-ch).Seq; got != want {
			t.Errorf("seq = %d, want %d", got, want)
		}
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := events.NewBus()
	ch := bus.Subscribe("test-unsub")

	bus.Unsubscribe("test-unsub")
	bus.Unsubscribe("test-unsub") // second call is a no-op

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed after unsubscribe")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestBusDropsEventsWhenFull(t *testing.T) {
	bus := events.NewBus()
	bus.Subscribe("slow-reader")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			bus.Publish(models.DefaultState())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Publish blocked for too long (should drop events)")
	}
	bus.Unsubscribe("slow-reader")
}

func TestBusClose(t *testing.T) {
	bus := events.NewBus()
	a := bus.Subscribe("a")
	b := bus.Subscribe("b")

	bus.Close()
	bus.Close()

	for name, ch := range map[string]<-chan events.Event{"a": a, "b": b} {
		if _, ok := <-ch; ok {
			t.Errorf("subscriber %s still open after Close", name)
		}
	}
	if n := bus.SubscriberCount(); n != 0 {
		t.Errorf("SubscriberCount after Close = %d, want 0", n)
	}

	late := bus.Subscribe("late")
	if _, ok := <-late; ok {
		t.Error("Subscribe after Close should return a closed channel")
	}
	bus.Publish(models.DefaultState()) // must not panic
}

func TestBusSubscriberCount(t *testing.T) {
	bus := events.NewBus()
	if n := bus.SubscriberCount(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
	bus.Subscribe("s1")
	bus.Subscribe("s2")
	if n := bus.SubscriberCount(); n != 2 {
		t.Errorf("expected 2 subscribers, got %d", n)
	}
	bus.Unsubscribe("s1")
	if n := bus.SubscriberCount(); n != 1 {
		t.Errorf("expected 1 subscriber, got %d", n)
	}
}
