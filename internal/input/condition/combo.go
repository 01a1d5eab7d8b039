package condition

import (
	"fmt"
	"time"

	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// ComboStep is one step of a Combo: the named action must emit Events.
type ComboStep struct {
	Action string
	// Events that complete the step. Defaults to Completed when empty.
	Events state.Events
	// Timeout is the maximum time allowed to reach this step after the
	// previous one. Zero means no limit.
	Timeout time.Duration
}

// CancelAction resets a Combo when the named action emits any of Events.
type CancelAction struct {
	Action string
	// Events that cancel. Defaults to Ongoing|Fired when empty.
	Events state.Events
}

// Combo fires when its steps complete in order, each within its timeout.
//
// A step action emitting its events out of order, or a cancel action
// emitting its events, resets the combo. Combo is Ongoing while a sequence
// is in progress or the first step's action is active.
type Combo struct {
	Steps   []ComboStep
	Cancels []CancelAction

	index   int
	elapsed time.Duration
}

// NewCombo creates a Combo with the given steps.
func NewCombo(steps ...ComboStep) *Combo {
	return &Combo{Steps: steps}
}

// Evaluate implements Condition.
func (c *Combo) Evaluate(peers state.Peers, t state.Time, _ value.Value) state.State {
	if len(c.Steps) == 0 {
		return state.None
	}

	if c.cancelled(peers) {
		// No early return: the first step may still complete this tick.
		c.cancel()
	}

	if c.index > 0 {
		c.elapsed += t.Delta
		if timeout := c.Steps[c.index].Timeout; timeout > 0 && c.elapsed > timeout {
			c.cancel()
		}
	}

	step := c.Steps[c.index]
	current, ok := peers.Lookup(step.Action)
	if !ok {
		c.cancel()
		return state.None
	}

	if current.Events.Has(stepEvents(step)) {
		c.index++
		c.elapsed = 0
		if c.index >= len(c.Steps) {
			c.index = 0
			return state.Fired
		}
	}

	if c.index > 0 || current.State > state.None {
		return state.Ongoing
	}
	c.elapsed = 0
	return state.None
}

func (c *Combo) cancelled(peers state.Peers) bool {
	step := c.Steps[c.index]
	for _, cancel := range c.Cancels {
		if cancel.Action == step.Action {
			continue
		}
		peer, ok := peers.Lookup(cancel.Action)
		if !ok {
			continue
		}
		events := cancel.Events
		if events == state.NoEvents {
			events = state.OngoingEvent | state.FiredEvent
		}
		if peer.Events&events != 0 {
			return true
		}
	}

	// Another step's events break the order.
	for _, other := range c.Steps {
		if other.Action == step.Action {
			continue
		}
		peer, ok := peers.Lookup(other.Action)
		if !ok {
			continue
		}
		if peer.Events&stepEvents(other) != 0 {
			return true
		}
	}
	return false
}

func (c *Combo) cancel() {
	c.index = 0
	c.elapsed = 0
}

func stepEvents(s ComboStep) state.Events {
	if s.Events == state.NoEvents {
		return state.Completed
	}
	return s.Events
}

// Kind implements Condition.
func (c *Combo) Kind() Kind { return Implicit }

// References implements state.Referencer.
func (c *Combo) References() []string {
	refs := make([]string, 0, len(c.Steps)+len(c.Cancels))
	for _, s := range c.Steps {
		refs = append(refs, s.Action)
	}
	for _, cancel := range c.Cancels {
		refs = append(refs, cancel.Action)
	}
	return refs
}

// Validate implements Validator.
func (c *Combo) Validate() error {
	if len(c.Steps) == 0 {
		return fmt.Errorf("%w: combo needs at least one step", ErrInvalidCondition)
	}
	for i, s := range c.Steps {
		if s.Action == "" {
			return fmt.Errorf("%w: combo step %d has no action", ErrInvalidCondition, i)
		}
		if s.Timeout < 0 {
			return fmt.Errorf("%w: combo step %d timeout %v is negative", ErrInvalidCondition, i, s.Timeout)
		}
	}
	return nil
}
