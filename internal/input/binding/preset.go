package binding

import (
	"github.com/dshills/actionflow/internal/input/device"
	"github.com/dshills/actionflow/internal/input/modifier"
)

// Presets expand a handful of inputs into the bindings needed to build a
// multi-axis value from digital or single-axis inputs.

// Bidirectional maps two inputs to the positive and negative X axis.
type Bidirectional struct {
	Positive device.Input
	Negative device.Input
}

// Bindings returns the positive binding followed by the negated one.
func (p Bidirectional) Bindings() []*Binding {
	return []*Binding{
		New(p.Positive),
		New(p.Negative).WithModifiers(modifier.NegateAll()),
	}
}

// Cardinal maps four inputs to the X and Y axes of a 2D value.
type Cardinal struct {
	North, East, South, West device.Input
}

// WASD returns a Cardinal over the W, A, S and D keys.
func WASD() Cardinal {
	return Cardinal{
		North: device.Key(device.KeyW),
		West:  device.Key(device.KeyA),
		South: device.Key(device.KeyS),
		East:  device.Key(device.KeyD),
	}
}

// ArrowKeys returns a Cardinal over the arrow keys.
func ArrowKeys() Cardinal {
	return Cardinal{
		North: device.Key(device.KeyArrowUp),
		West:  device.Key(device.KeyArrowLeft),
		South: device.Key(device.KeyArrowDown),
		East:  device.Key(device.KeyArrowRight),
	}
}

// DPad returns a Cardinal over the gamepad d-pad.
func DPad() Cardinal {
	return Cardinal{
		North: device.Button(device.GamepadDPadUp),
		West:  device.Button(device.GamepadDPadLeft),
		South: device.Button(device.GamepadDPadDown),
		East:  device.Button(device.GamepadDPadRight),
	}
}

// Bindings returns east, west, north and south bindings in that order.
func (p Cardinal) Bindings() []*Binding {
	x := Bidirectional{Positive: p.East, Negative: p.West}.Bindings()
	y := Bidirectional{Positive: p.North, Negative: p.South}.Bindings()
	for _, b := range y {
		b.WithModifiers(&modifier.SwizzleAxis{Order: modifier.YXZ})
	}
	return append(x, y...)
}

// Axial maps two single-axis inputs to the X and Y axes.
type Axial struct {
	X, Y device.Input
}

// LeftStick returns an Axial over the left gamepad stick.
func LeftStick() Axial {
	return Axial{X: device.Axis(device.LeftStickX), Y: device.Axis(device.LeftStickY)}
}

// RightStick returns an Axial over the right gamepad stick.
func RightStick() Axial {
	return Axial{X: device.Axis(device.RightStickX), Y: device.Axis(device.RightStickY)}
}

// Bindings returns the X binding followed by the swizzled Y binding.
func (p Axial) Bindings() []*Binding {
	return []*Binding{
		New(p.X),
		New(p.Y).WithModifiers(&modifier.SwizzleAxis{Order: modifier.YXZ}),
	}
}

// Spatial maps six inputs to a 3D value. Up and down drive Y, right and
// left drive X, and backward and forward drive Z.
type Spatial struct {
	Forward, Backward, Left, Right, Up, Down device.Input
}

// WASDAnd returns a Spatial over WASD with the given vertical keys.
func WASDAnd(up, down device.KeyCode) Spatial {
	return Spatial{
		Forward:  device.Key(device.KeyW),
		Backward: device.Key(device.KeyS),
		Left:     device.Key(device.KeyA),
		Right:    device.Key(device.KeyD),
		Up:       device.Key(up),
		Down:     device.Key(down),
	}
}

// Bindings returns the planar bindings followed by the depth bindings.
func (p Spatial) Bindings() []*Binding {
	xy := Cardinal{North: p.Up, East: p.Right, South: p.Down, West: p.Left}.Bindings()
	z := Bidirectional{Positive: p.Backward, Negative: p.Forward}.Bindings()
	for _, b := range z {
		b.WithModifiers(&modifier.SwizzleAxis{Order: modifier.ZYX})
	}
	return append(xy, z...)
}

// Ordinal maps eight inputs to the cardinal and diagonal directions of a
// 2D value.
type Ordinal struct {
	North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest device.Input
}

// HJKLYUBN returns an Ordinal over the roguelike movement keys.
func HJKLYUBN() Ordinal {
	return Ordinal{
		North:     device.Key(device.KeyK),
		NorthEast: device.Key(device.KeyU),
		East:      device.Key(device.KeyL),
		SouthEast: device.Key(device.KeyN),
		South:     device.Key(device.KeyJ),
		SouthWest: device.Key(device.KeyB),
		West:      device.Key(device.KeyH),
		NorthWest: device.Key(device.KeyY),
	}
}

// Bindings returns the cardinal bindings followed by the diagonals.
func (p Ordinal) Bindings() []*Binding {
	diagonal := func(in device.Input, negate *modifier.Negate) *Binding {
		b := New(in).WithModifiers(&modifier.SwizzleAxis{Order: modifier.XXZ})
		if negate != nil {
			b.WithModifiers(negate)
		}
		return b
	}
	return append(
		Cardinal{North: p.North, East: p.East, South: p.South, West: p.West}.Bindings(),
		diagonal(p.NorthEast, nil),
		diagonal(p.SouthEast, &modifier.Negate{Y: true}),
		diagonal(p.SouthWest, modifier.NegateAll()),
		diagonal(p.NorthWest, &modifier.Negate{X: true}),
	)
}
