// Package console fans subprocess and script output out to UI subscribers.
package console

import (
	"bytes"
	"sync"
	"time"
)

// EventKind discriminates console events.
type EventKind string

const (
	// EventLine is one line of console output.
	EventLine EventKind = "line"
	// EventStarted marks a package subprocess starting.
	EventStarted EventKind = "started"
	// EventReady marks the package's web UI URL being detected.
	EventReady EventKind = "ready"
	// EventExited marks a package subprocess exiting.
	EventExited EventKind = "exited"
)

// Event is one item on the console stream.
type Event struct {
	Kind    EventKind `json:"kind"`
	Package string    `json:"package"`
	Text    string    `json:"text,omitempty"`
	URL     string    `json:"url,omitempty"`
	Time    time.Time `json:"time"`
}

// Broker fans events out to any number of subscribers. A bounded replay ring
// lets late subscribers see recent history. Publishing never blocks: a
// subscriber whose buffer is full misses events instead of stalling the
// producing subprocess.
type Broker struct {
	mu     sync.Mutex
	ring   []Event
	cap    int
	subs   map[chan Event]struct{}
	bufLen int
}

// NewBroker creates a broker keeping up to replay events of history.
func NewBroker(replay int) *Broker {
	if replay <= 0 {
		replay = 256
	}
	return &Broker{
		cap:    replay,
		subs:   make(map[chan Event]struct{}),
		bufLen: 64,
	}
}

// Publish appends the event to the replay ring and delivers it to all
// current subscribers.
func (b *Broker) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.ring = append(b.ring, ev)
	if len(b.ring) > b.cap {
		b.ring = b.ring[len(b.ring)-b.cap:]
	}

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is not keeping up; it misses this event.
		}
	}
}

// Subscribe registers a new subscriber. The replay ring is delivered first.
// The returned cancel function must be called to release the subscription.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	ch := make(chan Event, b.bufLen+len(b.ring))
	for _, ev := range b.ring {
		ch <- ev
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// History returns a copy of the replay ring.
func (b *Broker) History() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.ring))
	copy(out, b.ring)
	return out
}

// Writer returns an io.Writer that splits writes into lines and publishes
// each as an EventLine for the given package. Suitable as subprocess
// stdout/stderr or as the script host's print sink.
func (b *Broker) Writer(pkg string) *LineWriter {
	return &LineWriter{broker: b, pkg: pkg}
}

// LineWriter buffers partial writes until a newline arrives.
type LineWriter struct {
	broker *Broker
	pkg    string
	mu     sync.Mutex
	buf    bytes.Buffer
}

// Write implements io.Writer.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Partial line: keep it buffered for the next write.
			w.buf.WriteString(line)
			break
		}
		w.broker.Publish(Event{
			Kind:    EventLine,
			Package: w.pkg,
			Text:    trimEOL(line),
		})
	}
	return len(p), nil
}

// Flush publishes any buffered partial line.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() == 0 {
		return
	}
	w.broker.Publish(Event{
		Kind:    EventLine,
		Package: w.pkg,
		Text:    trimEOL(w.buf.String()),
	})
	w.buf.Reset()
}

func trimEOL(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
