package action

import (
	"fmt"
	"time"

	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// Time tracks how long an action has been active.
type Time struct {
	// Elapsed is the time since the action left None.
	Elapsed time.Duration
	// Fired is the time the action has continuously been Fired.
	Fired time.Duration
}

// update advances the timers using the state the action held during the
// tick that just ended.
func (t *Time) update(delta time.Duration, prev state.State) {
	switch prev {
	case state.None:
		t.Elapsed = 0
		t.Fired = 0
	case state.Ongoing:
		t.Elapsed += delta
		t.Fired = 0
	case state.Fired:
		t.Elapsed += delta
		t.Fired += delta
	}
}

type spanKind uint8

const (
	spanUpdates spanKind = iota
	spanDuration
	spanManual
)

// Span bounds how long a mock stays in effect.
type Span struct {
	kind     spanKind
	updates  int
	duration time.Duration
}

// Updates returns a span lasting n updates.
func Updates(n int) Span { return Span{kind: spanUpdates, updates: n} }

// For returns a span lasting d of tick time.
func For(d time.Duration) Span { return Span{kind: spanDuration, duration: d} }

// Manual returns a span that lasts until ClearMock is called.
func Manual() Span { return Span{kind: spanManual} }

// String describes the span.
func (s Span) String() string {
	switch s.kind {
	case spanUpdates:
		return fmt.Sprintf("%d updates", s.updates)
	case spanDuration:
		return s.duration.String()
	default:
		return "manual"
	}
}

type mock struct {
	state   state.State
	value   value.Value
	span    Span
	enabled bool
}

// advance consumes one update of the span and disables the mock once the
// span is exhausted. The mocked state still applies to the current update.
func (m *mock) advance(delta time.Duration) {
	switch m.span.kind {
	case spanUpdates:
		m.span.updates--
		if m.span.updates <= 0 {
			m.enabled = false
		}
	case spanDuration:
		m.span.duration -= delta
		if m.span.duration <= 0 {
			m.enabled = false
		}
	}
}

// Mock forces the action's state and value for the given span. Bindings,
// modifiers and conditions are not evaluated while the mock is active.
func (a *Action) Mock(s state.State, v value.Value, span Span) {
	a.mock = mock{state: s, value: v, span: span, enabled: true}
	if span.kind == spanUpdates && span.updates <= 0 {
		a.mock.enabled = false
	}
}

// MockOnce mocks the action for a single update.
func (a *Action) MockOnce(s state.State, v value.Value) {
	a.Mock(s, v, Updates(1))
}

// ClearMock disables any active mock.
func (a *Action) ClearMock() {
	a.mock.enabled = false
}

// Mocked reports whether a mock is active.
func (a *Action) Mocked() bool {
	return a.mock.enabled
}
