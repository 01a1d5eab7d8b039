package modifier

import (
	"fmt"
	"math"

	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// DefaultDecayRate is the SmoothNudge decay rate used when none is given.
const DefaultDecayRate float32 = 8.0

// snapDistanceSquared is the squared distance below which SmoothNudge
// snaps to its target.
const snapDistanceSquared = 1e-4

// SmoothNudge moves towards the input value exponentially over time.
type SmoothNudge struct {
	DecayRate float32

	current value.Vec3
}

// NewSmoothNudge creates a SmoothNudge with the given decay rate.
func NewSmoothNudge(decayRate float32) *SmoothNudge {
	return &SmoothNudge{DecayRate: decayRate}
}

func (m *SmoothNudge) Name() string { return "smooth_nudge" }

// Transform implements Modifier.
func (m *SmoothNudge) Transform(_ state.Peers, t state.Time, v value.Value) value.Value {
	dim := arith(v.Dim())
	target := v.Vec()
	if m.current.DistanceSquared(target) < snapDistanceSquared {
		m.current = target
		return value.FromVec(dim, target)
	}

	factor := float32(1 - math.Exp(-float64(m.DecayRate)*t.Delta.Seconds()))
	m.current = m.current.Add(target.Sub(m.current).MulScalar(factor))
	return value.FromVec(dim, m.current)
}

// OutputDim implements Shaper.
func (m *SmoothNudge) OutputDim(in value.Dim) (value.Dim, error) {
	if m.DecayRate < 0 {
		return in, fmt.Errorf("%w: decay rate must not be negative, got %g", ErrInvalidModifier, m.DecayRate)
	}
	return arith(in), nil
}

// LinearStep moves towards the input value by a fixed fraction of the
// target each tick, and back to zero by the same rate.
type LinearStep struct {
	StepRate float32

	previous value.Vec3
}

// NewLinearStep creates a LinearStep with a rate in [0, 1].
func NewLinearStep(stepRate float32) *LinearStep {
	return &LinearStep{StepRate: stepRate}
}

func (m *LinearStep) Name() string { return "linear_step" }

// Transform implements Modifier.
func (m *LinearStep) Transform(_ state.Peers, _ state.Time, v value.Value) value.Value {
	dim := arith(v.Dim())
	target := v.Vec()
	if m.StepRate < 0 || m.StepRate > 1 {
		return value.FromVec(dim, target)
	}

	if d := m.previous.DistanceSquared(target); d >= 0 && d < m.StepRate {
		m.previous = target
		return value.FromVec(dim, target)
	}
	diff := target.Length() - m.previous.Length()
	switch {
	case diff > 0:
		m.previous = m.previous.Add(target.MulScalar(m.StepRate))
	case diff < 0:
		m.previous = m.previous.Sub(signum(m.previous).MulScalar(m.StepRate))
	default:
		return value.FromVec(dim, target)
	}
	return value.FromVec(dim, m.previous)
}

// OutputDim implements Shaper.
func (m *LinearStep) OutputDim(in value.Dim) (value.Dim, error) {
	if m.StepRate < 0 || m.StepRate > 1 {
		return in, fmt.Errorf("%w: step rate must be in [0, 1], got %g", ErrInvalidModifier, m.StepRate)
	}
	return arith(in), nil
}

func signum(v value.Vec3) value.Vec3 {
	sign := func(f float32) float32 {
		switch {
		case f > 0:
			return 1
		case f < 0:
			return -1
		}
		return 0
	}
	return value.Vec3{X: sign(v.X), Y: sign(v.Y), Z: sign(v.Z)}
}
