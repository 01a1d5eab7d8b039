package condition

import (
	"fmt"

	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// Chord requires other actions to be active.
//
// It returns the least advanced state among its actions, so it fires only
// when every action has fired and stays at most Ongoing while any action
// has not. A missing action counts as None.
type Chord struct {
	Actions []string
}

// NewChord creates a Chord over the named actions.
func NewChord(actions ...string) *Chord {
	return &Chord{Actions: actions}
}

// Evaluate implements Condition.
func (c *Chord) Evaluate(peers state.Peers, _ state.Time, _ value.Value) state.State {
	if len(c.Actions) == 0 {
		return state.None
	}
	least := state.Fired
	for _, name := range c.Actions {
		peer, ok := peers.Lookup(name)
		if !ok {
			return state.None
		}
		least = state.Min(least, peer.State)
	}
	return least
}

// Kind implements Condition.
func (c *Chord) Kind() Kind { return Implicit }

// References implements state.Referencer.
func (c *Chord) References() []string { return c.Actions }

// Validate implements Validator.
func (c *Chord) Validate() error {
	if len(c.Actions) == 0 {
		return fmt.Errorf("%w: chord needs at least one action", ErrInvalidCondition)
	}
	return nil
}

// BlockBy blocks the action while any of the named actions is Fired.
// With EventsOnly set, only events are suppressed and the action's state
// and value are still updated.
type BlockBy struct {
	Actions    []string
	EventsOnly bool
}

// NewBlockBy creates a BlockBy over the named actions.
func NewBlockBy(actions ...string) *BlockBy {
	return &BlockBy{Actions: actions}
}

// Evaluate implements Condition.
func (c *BlockBy) Evaluate(peers state.Peers, _ state.Time, _ value.Value) state.State {
	for _, name := range c.Actions {
		if peer, ok := peers.Lookup(name); ok && peer.State == state.Fired {
			return state.None
		}
	}
	return state.Fired
}

// Kind implements Condition.
func (c *BlockBy) Kind() Kind {
	if c.EventsOnly {
		return EventsBlocker
	}
	return Blocker
}

// References implements state.Referencer.
func (c *BlockBy) References() []string { return c.Actions }

// Validate implements Validator.
func (c *BlockBy) Validate() error {
	if len(c.Actions) == 0 {
		return fmt.Errorf("%w: block_by needs at least one action", ErrInvalidCondition)
	}
	return nil
}
