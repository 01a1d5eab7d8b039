package modifier

import (
	"fmt"
	"math"

	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// Scale multiplies each axis by a factor.
type Scale struct {
	Factor value.Vec3
}

// NewScale creates a Scale with the same factor on every axis.
func NewScale(factor float32) *Scale {
	return &Scale{Factor: value.Splat(factor)}
}

func (m *Scale) Name() string { return "scale" }

// Transform implements Modifier.
func (m *Scale) Transform(_ state.Peers, _ state.Time, v value.Value) value.Value {
	return v.Scale(m.Factor)
}

// OutputDim implements Shaper.
func (m *Scale) OutputDim(in value.Dim) (value.Dim, error) {
	return arith(in), nil
}

// Negate flips the sign of selected axes.
type Negate struct {
	X, Y, Z bool
}

// NegateAll negates every axis.
func NegateAll() *Negate {
	return &Negate{X: true, Y: true, Z: true}
}

func (m *Negate) Name() string { return "negate" }

// Transform implements Modifier.
func (m *Negate) Transform(_ state.Peers, _ state.Time, v value.Value) value.Value {
	return v.Negate(m.X, m.Y, m.Z)
}

// OutputDim implements Shaper.
func (m *Negate) OutputDim(in value.Dim) (value.Dim, error) {
	return arith(in), nil
}

// Clamp restricts each axis to a range.
type Clamp struct {
	Min, Max value.Vec3
}

// NewClamp creates a Clamp with the same range on every axis.
func NewClamp(min, max float32) *Clamp {
	return &Clamp{Min: value.Splat(min), Max: value.Splat(max)}
}

func (m *Clamp) Name() string { return "clamp" }

// Transform implements Modifier.
func (m *Clamp) Transform(_ state.Peers, _ state.Time, v value.Value) value.Value {
	return v.Clamp(m.Min, m.Max)
}

// OutputDim implements Shaper.
func (m *Clamp) OutputDim(in value.Dim) (value.Dim, error) {
	if m.Min.X > m.Max.X || m.Min.Y > m.Max.Y || m.Min.Z > m.Max.Z {
		return in, fmt.Errorf("%w: min %v exceeds max %v", ErrInvalidModifier, m.Min, m.Max)
	}
	return arith(in), nil
}

// DeltaScale multiplies the value by the tick delta in seconds, making it
// frame-rate independent.
type DeltaScale struct{}

func (m *DeltaScale) Name() string { return "delta_scale" }

// Transform implements Modifier.
func (m *DeltaScale) Transform(_ state.Peers, t state.Time, v value.Value) value.Value {
	return v.Scale(value.Splat(t.DeltaSeconds()))
}

// OutputDim implements Shaper.
func (m *DeltaScale) OutputDim(in value.Dim) (value.Dim, error) {
	return arith(in), nil
}

// ExponentialCurve raises the magnitude of each axis to a power while
// keeping its sign.
type ExponentialCurve struct {
	Exp value.Vec3
}

// NewExponentialCurve creates a curve with the same exponent on every axis.
func NewExponentialCurve(exp float32) *ExponentialCurve {
	return &ExponentialCurve{Exp: value.Splat(exp)}
}

func (m *ExponentialCurve) Name() string { return "exponential_curve" }

// Transform implements Modifier.
func (m *ExponentialCurve) Transform(_ state.Peers, _ state.Time, v value.Value) value.Value {
	vec := v.Vec()
	out := value.Vec3{
		X: applyExp(vec.X, m.Exp.X),
		Y: applyExp(vec.Y, m.Exp.Y),
		Z: applyExp(vec.Z, m.Exp.Z),
	}
	return value.FromVec(arith(v.Dim()), out)
}

// OutputDim implements Shaper.
func (m *ExponentialCurve) OutputDim(in value.Dim) (value.Dim, error) {
	return arith(in), nil
}

func applyExp(v, exp float32) float32 {
	r := float32(math.Pow(math.Abs(float64(v)), float64(exp)))
	return float32(math.Copysign(float64(r), float64(v)))
}
