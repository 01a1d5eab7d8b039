// Package modifier provides the value transforms applied to binding and
// action values before conditions are evaluated.
//
// Modifiers are stateful per instance. Every binding and action owns its
// own modifier instances, so smoothing and accumulation state is never
// shared between them.
package modifier

import (
	"errors"
	"fmt"

	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// ErrInvalidModifier is returned when a modifier is misconfigured.
var ErrInvalidModifier = errors.New("invalid modifier")

// Modifier transforms a value once per tick.
type Modifier interface {
	// Transform returns the modified value. It must not panic.
	Transform(peers state.Peers, t state.Time, v value.Value) value.Value
}

// Shaper is implemented by modifiers that change the value dimension or
// carry parameters that can be invalid.
type Shaper interface {
	// OutputDim returns the dimension produced for an input of dimension in,
	// or an error if the modifier cannot operate.
	OutputDim(in value.Dim) (value.Dim, error)
}

// Namer is implemented by modifiers that report a display name.
type Namer interface {
	Name() string
}

// Func adapts an ordinary function to the Modifier interface.
type Func func(peers state.Peers, t state.Time, v value.Value) value.Value

// Transform calls f.
func (f Func) Transform(peers state.Peers, t state.Time, v value.Value) value.Value {
	return f(peers, t, v)
}

// Chain is an ordered list of modifiers applied in sequence.
type Chain []Modifier

// Apply runs every modifier in order and returns the final value.
// Intermediate values are sanitized so a misbehaving modifier cannot
// propagate NaN or infinities.
func (c Chain) Apply(peers state.Peers, t state.Time, v value.Value) value.Value {
	for _, m := range c {
		v = m.Transform(peers, t, v).Sanitize()
	}
	return v
}

// References returns every action name read by modifiers in the chain.
func (c Chain) References() []string {
	var refs []string
	for _, m := range c {
		if r, ok := m.(state.Referencer); ok {
			refs = append(refs, r.References()...)
		}
	}
	return refs
}

// CheckChain validates a modifier chain for an input of dimension in and
// returns the dimension it produces.
func CheckChain(in value.Dim, mods []Modifier) (value.Dim, error) {
	dim := in
	for i, m := range mods {
		if m == nil {
			return dim, fmt.Errorf("%w: modifier %d is nil", ErrInvalidModifier, i)
		}
		s, ok := m.(Shaper)
		if !ok {
			continue
		}
		out, err := s.OutputDim(dim)
		if err != nil {
			return dim, fmt.Errorf("modifier %d (%s): %w", i, nameOf(m), err)
		}
		dim = out
	}
	return dim, nil
}

func nameOf(m Modifier) string {
	if n, ok := m.(Namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", m)
}

// arith returns the dimension arithmetic modifiers produce for in.
// Bool is promoted to Axis1D.
func arith(in value.Dim) value.Dim {
	if in == value.DimBool {
		return value.DimAxis1D
	}
	return in
}
