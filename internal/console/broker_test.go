package console

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func collect(ch <-chan Event, n int, timeout time.Duration) []Event {
	var out []Event
	deadline := time.After(timeout)
	for len(out) < n {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			return out
		}
	}
	return out
}

func TestBroker_PublishDeliversToSubscriber(t *testing.T) {
	t.Parallel()
	b := NewBroker(16)

	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(Event{Kind: EventLine, Package: "demo", Text: "hello"})

	events := collect(ch, 1, time.Second)
	require.Len(t, events, 1)
	require.Equal(t, "hello", events[0].Text)
	require.False(t, events[0].Time.IsZero(), "Publish should stamp the event time")
}

func TestBroker_ReplayForLateSubscriber(t *testing.T) {
	t.Parallel()
	b := NewBroker(16)

	b.Publish(Event{Kind: EventLine, Package: "demo", Text: "one"})
	b.Publish(Event{Kind: EventLine, Package: "demo", Text: "two"})

	ch, cancel := b.Subscribe()
	defer cancel()

	events := collect(ch, 2, time.Second)
	require.Len(t, events, 2)
	require.Equal(t, "one", events[0].Text)
	require.Equal(t, "two", events[1].Text)
}

func TestBroker_RingIsBounded(t *testing.T) {
	t.Parallel()
	b := NewBroker(3)

	for i := 0; i < 10; i++ {
		b.Publish(Event{Kind: EventLine, Text: string(rune('a' + i))})
	}

	history := b.History()
	require.Len(t, history, 3)
	require.Equal(t, "h", history[0].Text)
	require.Equal(t, "j", history[2].Text)
}

func TestBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()
	b := NewBroker(4)

	// Subscribe and never read: the channel buffer fills up.
	_, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			b.Publish(Event{Kind: EventLine, Text: "spam"})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publishing blocked on a slow subscriber")
	}
}

func TestBroker_CancelStopsDelivery(t *testing.T) {
	t.Parallel()
	b := NewBroker(4)

	ch, cancel := b.Subscribe()
	cancel()
	// Double cancel is safe.
	cancel()

	b.Publish(Event{Kind: EventLine, Text: "after"})

	_, open := <-ch
	require.False(t, open, "cancelled subscription channel should be closed")
}

func TestLineWriter_SplitsLines(t *testing.T) {
	t.Parallel()
	b := NewBroker(16)
	w := b.Writer("demo")

	_, err := w.Write([]byte("first line\nsecond "))
	require.NoError(t, err)
	_, err = w.Write([]byte("half\r\n"))
	require.NoError(t, err)

	history := b.History()
	require.Len(t, history, 2)
	require.Equal(t, "first line", history[0].Text)
	require.Equal(t, "second half", history[1].Text)
	require.Equal(t, "demo", history[0].Package)
}

func TestLineWriter_FlushPublishesPartialLine(t *testing.T) {
	t.Parallel()
	b := NewBroker(16)
	w := b.Writer("demo")

	_, err := w.Write([]byte("no newline"))
	require.NoError(t, err)
	require.Empty(t, b.History())

	w.Flush()
	history := b.History()
	require.Len(t, history, 1)
	require.Equal(t, "no newline", history[0].Text)

	// Flushing an empty buffer publishes nothing.
	w.Flush()
	require.Len(t, b.History(), 1)
}
