package device

import (
	"sort"

	"github.com/dshills/actionflow/internal/input/value"
)

// Snapshot holds the state of every device for one tick.
//
// Keyboard and mouse buttons are digital. Mouse motion and wheel are
// accumulated deltas for the tick and are reset by EndTick. Gamepad buttons
// and axes are analog and tracked per gamepad.
//
// Values are sanitized on write, so readers never observe NaN or infinities.
type Snapshot struct {
	keys         map[KeyCode]bool
	mouseButtons map[MouseButton]bool
	motion       value.Vec3
	wheel        value.Vec3
	gamepads     map[GamepadID]*gamepadState
}

type gamepadState struct {
	buttons map[GamepadButton]float32
	axes    map[GamepadAxis]float32
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		keys:         make(map[KeyCode]bool),
		mouseButtons: make(map[MouseButton]bool),
		gamepads:     make(map[GamepadID]*gamepadState),
	}
}

// SetKey records whether a key is held.
func (s *Snapshot) SetKey(k KeyCode, pressed bool) {
	if pressed {
		s.keys[k] = true
	} else {
		delete(s.keys, k)
	}
}

// Key reports whether a key is held.
func (s *Snapshot) Key(k KeyCode) bool {
	return s.keys[k]
}

// PressedKeys returns the held keys in ascending order.
func (s *Snapshot) PressedKeys() []KeyCode {
	keys := make([]KeyCode, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// SetMouseButton records whether a mouse button is held.
func (s *Snapshot) SetMouseButton(b MouseButton, pressed bool) {
	if pressed {
		s.mouseButtons[b] = true
	} else {
		delete(s.mouseButtons, b)
	}
}

// MouseButton reports whether a mouse button is held.
func (s *Snapshot) MouseButton(b MouseButton) bool {
	return s.mouseButtons[b]
}

// AddMouseMotion accumulates a mouse motion delta.
func (s *Snapshot) AddMouseMotion(dx, dy float32) {
	s.motion = sanitizeVec(s.motion.Add(value.Vec3{X: dx, Y: dy}))
}

// AddMouseWheel accumulates a mouse wheel delta.
func (s *Snapshot) AddMouseWheel(dx, dy float32) {
	s.wheel = sanitizeVec(s.wheel.Add(value.Vec3{X: dx, Y: dy}))
}

// MouseMotion returns the accumulated motion for the tick.
func (s *Snapshot) MouseMotion() value.Value {
	return value.Axis2D(s.motion.X, s.motion.Y)
}

// MouseWheel returns the accumulated wheel scroll for the tick.
func (s *Snapshot) MouseWheel() value.Value {
	return value.Axis2D(s.wheel.X, s.wheel.Y)
}

// ConnectGamepad registers a gamepad so it is visible before any input.
func (s *Snapshot) ConnectGamepad(id GamepadID) {
	s.gamepad(id)
}

// DisconnectGamepad removes a gamepad and all of its state.
func (s *Snapshot) DisconnectGamepad(id GamepadID) {
	delete(s.gamepads, id)
}

// Gamepads returns the connected gamepads in ascending order.
func (s *Snapshot) Gamepads() []GamepadID {
	ids := make([]GamepadID, 0, len(s.gamepads))
	for id := range s.gamepads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SetGamepadButton records the analog value of a gamepad button.
func (s *Snapshot) SetGamepadButton(id GamepadID, b GamepadButton, v float32) {
	s.gamepad(id).buttons[b] = sanitize(v)
}

// SetGamepadAxis records the value of a gamepad axis.
func (s *Snapshot) SetGamepadAxis(id GamepadID, a GamepadAxis, v float32) {
	s.gamepad(id).axes[a] = sanitize(v)
}

// GamepadButton returns the value of a button on one gamepad.
func (s *Snapshot) GamepadButton(id GamepadID, b GamepadButton) (float32, bool) {
	g, ok := s.gamepads[id]
	if !ok {
		return 0, false
	}
	v, ok := g.buttons[b]
	return v, ok
}

// GamepadAxis returns the value of an axis on one gamepad.
func (s *Snapshot) GamepadAxis(id GamepadID, a GamepadAxis) (float32, bool) {
	g, ok := s.gamepads[id]
	if !ok {
		return 0, false
	}
	v, ok := g.axes[a]
	return v, ok
}

// EndTick resets the per-tick accumulated mouse deltas.
// Held buttons and gamepad values persist until changed.
func (s *Snapshot) EndTick() {
	s.motion = value.Vec3{}
	s.wheel = value.Vec3{}
}

// Reset clears all device state.
func (s *Snapshot) Reset() {
	clear(s.keys)
	clear(s.mouseButtons)
	clear(s.gamepads)
	s.EndTick()
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := NewSnapshot()
	for k := range s.keys {
		c.keys[k] = true
	}
	for b := range s.mouseButtons {
		c.mouseButtons[b] = true
	}
	c.motion = s.motion
	c.wheel = s.wheel
	for id, g := range s.gamepads {
		cg := c.gamepad(id)
		for b, v := range g.buttons {
			cg.buttons[b] = v
		}
		for a, v := range g.axes {
			cg.axes[a] = v
		}
	}
	return c
}

func (s *Snapshot) gamepad(id GamepadID) *gamepadState {
	g, ok := s.gamepads[id]
	if !ok {
		g = &gamepadState{
			buttons: make(map[GamepadButton]float32),
			axes:    make(map[GamepadAxis]float32),
		}
		s.gamepads[id] = g
	}
	return g
}

func sanitize(f float32) float32 {
	return value.Axis1D(f).Sanitize().AsAxis1D()
}

func sanitizeVec(v value.Vec3) value.Vec3 {
	return value.Axis3D(v.X, v.Y, v.Z).Sanitize().Vec()
}
