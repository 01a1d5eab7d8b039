package condition

import (
	"fmt"
	"time"

	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// Hold is Ongoing while actuated and fires once the value has been held
// for at least Duration. Releasing early resets the timer.
//
// With OneShot set, Hold fires only on the tick the duration is reached
// and returns None for the rest of the hold.
type Hold struct {
	Duration  time.Duration
	OneShot   bool
	Actuation float32

	held time.Duration
}

// NewHold creates a Hold with the default actuation.
func NewHold(d time.Duration) *Hold {
	return &Hold{Duration: d, Actuation: DefaultActuation}
}

// Evaluate implements Condition.
func (c *Hold) Evaluate(_ state.Peers, t state.Time, v value.Value) state.State {
	if !v.IsActuated(actuation(c.Actuation)) {
		c.held = 0
		return state.None
	}

	before := c.held
	c.held += t.Delta
	if c.held < c.Duration {
		return state.Ongoing
	}

	justFinished := before < c.Duration || (before == 0 && c.Duration == 0)
	if justFinished || !c.OneShot {
		return state.Fired
	}
	return state.None
}

// Kind implements Condition.
func (c *Hold) Kind() Kind { return Explicit }

// Validate implements Validator.
func (c *Hold) Validate() error {
	if c.Duration < 0 {
		return fmt.Errorf("%w: hold duration %v is negative", ErrInvalidCondition, c.Duration)
	}
	return nil
}

// HoldAndRelease is Ongoing while actuated and fires on release if the
// value was held for at least Duration. The release tick's delta counts
// toward the hold, so releasing exactly at Duration fires.
type HoldAndRelease struct {
	Duration  time.Duration
	Actuation float32

	held     time.Duration
	actuated bool
}

// NewHoldAndRelease creates a HoldAndRelease with the default actuation.
func NewHoldAndRelease(d time.Duration) *HoldAndRelease {
	return &HoldAndRelease{Duration: d, Actuation: DefaultActuation}
}

// Evaluate implements Condition.
func (c *HoldAndRelease) Evaluate(_ state.Peers, t state.Time, v value.Value) state.State {
	c.held += t.Delta
	if v.IsActuated(actuation(c.Actuation)) {
		c.actuated = true
		return state.Ongoing
	}

	finished := c.actuated && c.held >= c.Duration
	c.held = 0
	c.actuated = false
	if finished {
		return state.Fired
	}
	return state.None
}

// Kind implements Condition.
func (c *HoldAndRelease) Kind() Kind { return Explicit }

// Validate implements Validator.
func (c *HoldAndRelease) Validate() error {
	if c.Duration < 0 {
		return fmt.Errorf("%w: hold duration %v is negative", ErrInvalidCondition, c.Duration)
	}
	return nil
}

// Tap fires when the value is released within Window of being actuated.
// Holding past the window returns None until the value is released.
type Tap struct {
	Window    time.Duration
	Actuation float32

	actuated bool
	held     time.Duration
}

// NewTap creates a Tap with the default actuation.
func NewTap(window time.Duration) *Tap {
	return &Tap{Window: window, Actuation: DefaultActuation}
}

// Evaluate implements Condition.
func (c *Tap) Evaluate(_ state.Peers, t state.Time, v value.Value) state.State {
	wasActuated := c.actuated
	expired := c.held >= c.Window
	c.actuated = v.IsActuated(actuation(c.Actuation))
	if c.actuated {
		c.held += t.Delta
	} else {
		c.held = 0
	}

	switch {
	case wasActuated && !c.actuated && !expired:
		return state.Fired
	case c.actuated && c.held >= c.Window:
		return state.None
	case c.actuated:
		return state.Ongoing
	}
	return state.None
}

// Kind implements Condition.
func (c *Tap) Kind() Kind { return Explicit }

// Validate implements Validator.
func (c *Tap) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("%w: tap window must be positive, got %v", ErrInvalidCondition, c.Window)
	}
	return nil
}

// Pulse fires repeatedly while actuated, once each time the hold time
// passes the next multiple of Interval.
//
// With TriggerOnStart (the default from NewPulse) the first pulse fires on
// the tick the value becomes actuated. A non-zero Limit caps the number of
// pulses per actuation; after that Pulse returns None until released.
// At most one pulse fires per tick.
type Pulse struct {
	Interval       time.Duration
	Limit          int
	TriggerOnStart bool
	Actuation      float32

	held  time.Duration
	count int
}

// NewPulse creates a Pulse that fires on start with the default actuation.
func NewPulse(interval time.Duration) *Pulse {
	return &Pulse{Interval: interval, TriggerOnStart: true, Actuation: DefaultActuation}
}

// Evaluate implements Condition.
func (c *Pulse) Evaluate(_ state.Peers, t state.Time, v value.Value) state.State {
	if !v.IsActuated(actuation(c.Actuation)) {
		c.held = 0
		c.count = 0
		return state.None
	}

	c.held += t.Delta
	if c.Limit > 0 && c.count >= c.Limit {
		return state.None
	}

	next := c.count
	if !c.TriggerOnStart {
		next++
	}
	// The start pulse fires even when the first tick has no delta.
	if next == 0 || c.held > c.Interval*time.Duration(next) {
		c.count++
		return state.Fired
	}
	return state.Ongoing
}

// Kind implements Condition.
func (c *Pulse) Kind() Kind { return Explicit }

// Validate implements Validator.
func (c *Pulse) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: pulse interval must be positive, got %v", ErrInvalidCondition, c.Interval)
	}
	if c.Limit < 0 {
		return fmt.Errorf("%w: pulse limit %d is negative", ErrInvalidCondition, c.Limit)
	}
	return nil
}
