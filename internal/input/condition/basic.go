package condition

import (
	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// Down fires every tick the value is actuated.
type Down struct {
	Actuation float32
}

// NewDown creates a Down with the default actuation.
func NewDown() *Down {
	return &Down{Actuation: DefaultActuation}
}

// Evaluate implements Condition.
func (c *Down) Evaluate(_ state.Peers, _ state.Time, v value.Value) state.State {
	if v.IsActuated(actuation(c.Actuation)) {
		return state.Fired
	}
	return state.None
}

// Kind implements Condition.
func (c *Down) Kind() Kind { return Explicit }

// Press fires once on the tick the value becomes actuated.
type Press struct {
	Actuation float32

	actuated bool
}

// NewPress creates a Press with the default actuation.
func NewPress() *Press {
	return &Press{Actuation: DefaultActuation}
}

// Evaluate implements Condition.
func (c *Press) Evaluate(_ state.Peers, _ state.Time, v value.Value) state.State {
	previous := c.actuated
	c.actuated = v.IsActuated(actuation(c.Actuation))
	if c.actuated && !previous {
		return state.Fired
	}
	return state.None
}

// Kind implements Condition.
func (c *Press) Kind() Kind { return Explicit }

// Release is Ongoing while actuated and fires on the tick the value is
// released.
type Release struct {
	Actuation float32

	actuated bool
}

// NewRelease creates a Release with the default actuation.
func NewRelease() *Release {
	return &Release{Actuation: DefaultActuation}
}

// Evaluate implements Condition.
func (c *Release) Evaluate(_ state.Peers, _ state.Time, v value.Value) state.State {
	previous := c.actuated
	c.actuated = v.IsActuated(actuation(c.Actuation))
	switch {
	case c.actuated:
		return state.Ongoing
	case previous:
		return state.Fired
	}
	return state.None
}

// Kind implements Condition.
func (c *Release) Kind() Kind { return Explicit }
