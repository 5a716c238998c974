package output_storage

import (
	"errors"
	"testing"
	"time"
)

func recvWithin[T any](t *testing.T, ch <-chan T, d time.Duration) (T, bool) {
	t.Helper()
	var zero T
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(d):
		return zero, false
	}
}

func expectSilent[T any](t *testing.T, ch <-chan T, d time.Duration) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("unexpected value %v", v)
		}
	case <-time.After(d):
	}
}

func TestBroadcaster_FanOut(t *testing.T) {
	b := NewBroadcaster[string]()
	defer b.Close()

	first, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	b.Publish("one")
	if v, ok := recvWithin(t, first, 200*time.Millisecond); !ok || v != "one" {
		t.Fatalf("first subscriber got ok=%v v=%q", ok, v)
	}

	second, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	b.Publish("two")
	for i, ch := range []chan string{first, second} {
		if v, ok := recvWithin(t, ch, 200*time.Millisecond); !ok || v != "two" {
			t.Fatalf("subscriber %d got ok=%v v=%q", i, ok, v)
		}
	}
}

func TestBroadcaster_BackloggedSubscriberSeesLatest(t *testing.T) {
	b := NewBroadcaster[int]()
	defer b.Close()

	lagging, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	lagging <- -1 // buffer full

	b.Publish(7)
	time.Sleep(10 * time.Millisecond)

	if v, ok := recvWithin(t, lagging, 200*time.Millisecond); !ok || v != 7 {
		t.Fatalf("expected stale value replaced by 7, got ok=%v v=%d", ok, v)
	}
	expectSilent(t, lagging, 30*time.Millisecond)
}

func TestBroadcaster_UnsubscribeClosesOnlyThatChannel(t *testing.T) {
	b := NewBroadcaster[int]()
	defer b.Close()

	gone, _ := b.Subscribe()
	stays, _ := b.Subscribe()

	b.Unsubscribe(gone)
	if _, ok := recvWithin(t, gone, 100*time.Millisecond); ok {
		t.Fatalf("unsubscribed channel should be closed")
	}
	// A second Unsubscribe of the same channel must not double close.
	b.Unsubscribe(gone)

	for i := 0; i < 3; i++ {
		b.Publish(i)
		if v, ok := recvWithin(t, stays, 200*time.Millisecond); !ok || v != i {
			t.Fatalf("remaining subscriber missed %d: ok=%v v=%d", i, ok, v)
		}
	}
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster[int]()
	sub, _ := b.Subscribe()

	b.Close()
	b.Close()
	b.Publish(1)

	deadline := time.After(300 * time.Millisecond)
	for open := true; open; {
		select {
		case _, open = <-sub:
		case <-deadline:
			t.Fatalf("subscriber channel not closed after Close")
		}
	}

	// run marks the broadcaster closed once it drains; poll for it.
	for end := time.Now().Add(300 * time.Millisecond); ; {
		_, err := b.Subscribe()
		if errors.Is(err, ErrBroadcasterClosed) {
			break
		}
		if time.Now().After(end) {
			t.Fatalf("expected ErrBroadcasterClosed, got %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
