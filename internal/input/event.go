package input

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// Event records one transition event raised by an action.
type Event struct {
	// Tick is the handler tick that raised the event.
	Tick uint64

	Action    string
	Context   string
	ContextID uuid.UUID

	// Kind is a single event: Started, OngoingEvent, FiredEvent, Canceled
	// or Completed.
	Kind state.Events

	State   state.State
	Value   value.Value
	Elapsed time.Duration
	Fired   time.Duration
}

// String returns a compact representation for logs.
func (e Event) String() string {
	return fmt.Sprintf("%s/%s %s %s %v", e.Context, e.Action, e.Kind, e.State, e.Value)
}

// Sink receives events synchronously.
type Sink interface {
	Emit(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event)

// Emit calls f.
func (f SinkFunc) Emit(ev Event) { f(ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Recorder collects events in emission order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink.
func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the event kinds recorded for an action, in order.
func (r *Recorder) Kinds(actionName string) []state.Events {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []state.Events
	for _, ev := range r.events {
		if ev.Action == actionName {
			kinds = append(kinds, ev.Kind)
		}
	}
	return kinds
}

// Count returns how many events of kind were recorded for an action.
func (r *Recorder) Count(actionName string, kind state.Events) int {
	n := 0
	for _, k := range r.Kinds(actionName) {
		if k == kind {
			n++
		}
	}
	return n
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = r.events[:0]
}

// ChanSink forwards events to a buffered channel for consumers on other
// goroutines. When the buffer is full the oldest event is dropped.
type ChanSink struct {
	mu      sync.Mutex
	ch      chan Event
	closed  bool
	dropped atomic.Uint64
}

// NewChanSink creates a ChanSink with the given buffer size.
func NewChanSink(size int) *ChanSink {
	if size <= 0 {
		size = 100
	}
	return &ChanSink{ch: make(chan Event, size)}
}

// Emit implements Sink. It never blocks.
func (s *ChanSink) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	select {
	case s.ch <- ev:
		return
	default:
	}
	select {
	case <-s.ch:
		s.dropped.Add(1)
	default:
	}
	select {
	case s.ch <- ev:
	default:
		s.dropped.Add(1)
	}
}

// Events returns the receive side of the channel.
func (s *ChanSink) Events() <-chan Event {
	return s.ch
}

// Dropped returns the number of events dropped because the buffer was full.
func (s *ChanSink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close closes the channel. Later events are discarded.
func (s *ChanSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Consume calls fn for each event until ctx is done or the sink is closed.
func (s *ChanSink) Consume(ctx context.Context, fn func(Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.ch:
			if !ok {
				return
			}
			fn(ev)
		}
	}
}

// multiSink fans out to several sinks in order.
type multiSink []Sink

func (m multiSink) Emit(ev Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}

// Tee returns a Sink that forwards every event to each sink in order.
// Nil sinks are skipped.
func Tee(sinks ...Sink) Sink {
	var m multiSink
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}
