package modifier

import (
	"fmt"
	"math"

	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// DeadZoneKind selects how a dead zone treats multi-axis values.
type DeadZoneKind uint8

const (
	// Radial applies the dead zone to the vector length.
	Radial DeadZoneKind = iota
	// Axial applies the dead zone to each axis independently.
	Axial
)

// String returns the kind name.
func (k DeadZoneKind) String() string {
	if k == Axial {
		return "axial"
	}
	return "radial"
}

// Default dead zone thresholds.
const (
	DefaultLowerThreshold float32 = 0.2
	DefaultUpperThreshold float32 = 1.0
)

// DeadZone zeroes values below a lower threshold and rescales the rest so
// the range [lower, upper] maps to [0, 1].
type DeadZone struct {
	Kind  DeadZoneKind
	Lower float32
	Upper float32
}

// NewDeadZone creates a dead zone with default thresholds.
func NewDeadZone(kind DeadZoneKind) *DeadZone {
	return &DeadZone{Kind: kind, Lower: DefaultLowerThreshold, Upper: DefaultUpperThreshold}
}

func (m *DeadZone) Name() string { return "dead_zone" }

// Transform implements Modifier.
func (m *DeadZone) Transform(_ state.Peers, _ state.Time, v value.Value) value.Value {
	dim := arith(v.Dim())
	vec := v.Vec()

	if dim == value.DimAxis1D {
		return value.Axis1D(m.apply(vec.X))
	}
	if m.Kind == Radial {
		return value.FromVec(dim, vec.NormalizeOrZero().MulScalar(m.apply(vec.Length())))
	}
	return value.FromVec(dim, value.Vec3{X: m.apply(vec.X), Y: m.apply(vec.Y), Z: m.apply(vec.Z)})
}

func (m *DeadZone) apply(axis float32) float32 {
	lower := float32(math.Max(math.Abs(float64(axis))-float64(m.Lower), 0))
	scaled := lower / (m.Upper - m.Lower)
	if scaled > 1 {
		scaled = 1
	}
	if axis < 0 {
		return -scaled
	}
	return scaled
}

// OutputDim implements Shaper.
func (m *DeadZone) OutputDim(in value.Dim) (value.Dim, error) {
	if m.Lower < 0 || m.Upper <= m.Lower {
		return in, fmt.Errorf("%w: dead zone thresholds must satisfy 0 <= lower < upper, got %g..%g",
			ErrInvalidModifier, m.Lower, m.Upper)
	}
	return arith(in), nil
}
