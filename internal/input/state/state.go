// Package state defines action trigger states, the events emitted on
// state transitions, and the read-only views conditions and modifiers use
// to inspect other actions.
package state

import (
	"strings"
	"time"

	"github.com/dshills/actionflow/internal/input/value"
)

// State is the trigger state of an action or condition.
// States are ordered: None < Ongoing < Fired.
type State uint8

const (
	// None means the action is inactive.
	None State = iota
	// Ongoing means the action is actuated but its conditions are not yet met.
	Ongoing
	// Fired means the action's conditions are met.
	Fired
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case None:
		return "none"
	case Ongoing:
		return "ongoing"
	case Fired:
		return "fired"
	default:
		return "unknown"
	}
}

// ParseState parses a state name as returned by String.
func ParseState(s string) (State, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return None, true
	case "ongoing":
		return Ongoing, true
	case "fired":
		return Fired, true
	}
	return None, false
}

// Max returns the more advanced of two states.
func Max(a, b State) State {
	if a > b {
		return a
	}
	return b
}

// Min returns the less advanced of two states.
func Min(a, b State) State {
	if a < b {
		return a
	}
	return b
}

// Events is a bit set of transition events.
type Events uint8

const (
	// Started is emitted when an action leaves None.
	Started Events = 1 << iota
	// OngoingEvent is emitted every tick the action is Ongoing.
	OngoingEvent
	// FiredEvent is emitted every tick the action is Fired.
	FiredEvent
	// Canceled is emitted when an action returns to None from Ongoing.
	Canceled
	// Completed is emitted when an action returns to None from Fired.
	Completed
)

// NoEvents is the empty event set.
const NoEvents Events = 0

// AllEvents lists every single event in emission order.
var AllEvents = [...]Events{Started, OngoingEvent, FiredEvent, Canceled, Completed}

// NewEvents returns the events produced by a transition from prev to next.
func NewEvents(prev, next State) Events {
	switch {
	case prev == None && next == Ongoing:
		return Started | OngoingEvent
	case prev == None && next == Fired:
		return Started | FiredEvent
	case next == Ongoing:
		return OngoingEvent
	case next == Fired:
		return FiredEvent
	case prev == Ongoing && next == None:
		return Canceled
	case prev == Fired && next == None:
		return Completed
	}
	return NoEvents
}

// Has returns true if e contains every event in o.
func (e Events) Has(o Events) bool {
	return e&o == o && o != 0
}

// IsEmpty returns true if no events are set.
func (e Events) IsEmpty() bool {
	return e == NoEvents
}

// Each calls fn for every single event in emission order.
func (e Events) Each(fn func(Events)) {
	for _, ev := range AllEvents {
		if e&ev != 0 {
			fn(ev)
		}
	}
}

// String returns a representation like "started|fired".
func (e Events) String() string {
	if e == NoEvents {
		return ""
	}
	var parts []string
	e.Each(func(ev Events) {
		parts = append(parts, eventNames[ev])
	})
	return strings.Join(parts, "|")
}

var eventNames = map[Events]string{
	Started:      "started",
	OngoingEvent: "ongoing",
	FiredEvent:   "fired",
	Canceled:     "canceled",
	Completed:    "completed",
}

// ParseEvent parses a single event name.
func ParseEvent(s string) (Events, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for ev, n := range eventNames {
		if n == s {
			return ev, true
		}
	}
	return NoEvents, false
}

// Time carries timing information for one evaluation tick.
type Time struct {
	// Delta is the time elapsed since the previous tick.
	Delta time.Duration
	// Now is the total time since the handler started.
	Now time.Duration
}

// DeltaSeconds returns Delta in seconds.
func (t Time) DeltaSeconds() float32 {
	return float32(t.Delta.Seconds())
}

// View is a read-only snapshot of one action's data.
type View struct {
	Name    string
	State   State
	Value   value.Value
	Events  Events
	Elapsed time.Duration
	Fired   time.Duration
}

// Peers looks up other actions by name during evaluation.
// Views reflect the value already computed this tick for actions evaluated
// earlier, and the previous tick's value otherwise.
type Peers interface {
	Lookup(name string) (View, bool)
}

// PeerMap is a Peers implementation backed by a map.
type PeerMap map[string]View

// Lookup returns the view for name.
func (m PeerMap) Lookup(name string) (View, bool) {
	v, ok := m[name]
	return v, ok
}

// NoPeers is a Peers with no actions.
var NoPeers Peers = PeerMap(nil)

// Referencer is implemented by modifiers and conditions that read other
// actions, so references can be checked when contexts are built.
type Referencer interface {
	References() []string
}
