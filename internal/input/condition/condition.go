// Package condition provides the stateful predicates that decide how an
// action's state advances each tick.
//
// A condition owns any timer state it needs. Conditions are never shared
// between bindings or actions.
package condition

import (
	"errors"
	"fmt"

	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// DefaultActuation is the magnitude at which a value counts as actuated.
const DefaultActuation float32 = 0.5

// ErrInvalidCondition is returned when a condition is misconfigured.
var ErrInvalidCondition = errors.New("invalid condition")

// Kind determines how a condition's verdict combines with others.
type Kind uint8

const (
	// Explicit conditions fire the action if any explicit condition fires.
	Explicit Kind = iota
	// Implicit conditions must all fire for the action to fire.
	// Otherwise the action is capped at Ongoing.
	Implicit
	// Blocker conditions block the action entirely when they return None.
	Blocker
	// EventsBlocker conditions suppress the action's events when they
	// return None, leaving its state and value intact.
	EventsBlocker
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Explicit:
		return "explicit"
	case Implicit:
		return "implicit"
	case Blocker:
		return "blocker"
	case EventsBlocker:
		return "events_blocker"
	default:
		return "unknown"
	}
}

// Condition evaluates a modified value into a state verdict.
type Condition interface {
	// Evaluate returns the verdict for this tick. Every condition in a
	// chain is evaluated every tick so timers stay current.
	Evaluate(peers state.Peers, t state.Time, v value.Value) state.State

	// Kind reports how the verdict combines with other conditions.
	Kind() Kind
}

// Validator is implemented by conditions whose parameters can be invalid.
type Validator interface {
	Validate() error
}

// Func adapts a function to an Explicit condition.
type Func func(peers state.Peers, t state.Time, v value.Value) state.State

// Evaluate calls f.
func (f Func) Evaluate(peers state.Peers, t state.Time, v value.Value) state.State {
	return f(peers, t, v)
}

// Kind returns Explicit.
func (f Func) Kind() Kind { return Explicit }

// Check validates a condition chain.
func Check(conds []Condition) error {
	for i, c := range conds {
		if c == nil {
			return fmt.Errorf("%w: condition %d is nil", ErrInvalidCondition, i)
		}
		if v, ok := c.(Validator); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("condition %d (%T): %w", i, c, err)
			}
		}
	}
	return nil
}

// References returns every action name read by conditions in the chain.
func References(conds []Condition) []string {
	var refs []string
	for _, c := range conds {
		if r, ok := c.(state.Referencer); ok {
			refs = append(refs, r.References()...)
		}
	}
	return refs
}

func actuation(a float32) float32 {
	if a <= 0 {
		return DefaultActuation
	}
	return a
}
