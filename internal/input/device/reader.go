package device

import "github.com/dshills/actionflow/internal/input/value"

// Sources configures which device sources are visible to actions.
// A disabled source reads as zero for every binding.
type Sources struct {
	Keyboard      bool
	MouseButtons  bool
	MouseMotion   bool
	MouseWheel    bool
	GamepadButton bool
	GamepadAxis   bool
}

// AllSources returns Sources with every source enabled.
func AllSources() Sources {
	return Sources{
		Keyboard:      true,
		MouseButtons:  true,
		MouseMotion:   true,
		MouseWheel:    true,
		GamepadButton: true,
		GamepadAxis:   true,
	}
}

func (s Sources) allows(k Kind) bool {
	switch k {
	case KindKeyboard:
		return s.Keyboard
	case KindMouseButton:
		return s.MouseButtons
	case KindMouseMotion:
		return s.MouseMotion
	case KindMouseWheel:
		return s.MouseWheel
	case KindGamepadButton:
		return s.GamepadButton
	case KindGamepadAxis:
		return s.GamepadAxis
	}
	return false
}

// gamepadInput is a gamepad input paired with the device selection that
// read it.
type gamepadInput struct {
	device GamepadDevice
	kind   Kind
	code   uint16
}

// ignoredInputs is a set of inputs that read as zero.
type ignoredInputs struct {
	keys         map[KeyCode]struct{}
	mods         ModKeys
	mouseButtons map[MouseButton]struct{}
	motion       bool
	wheel        bool
	gamepad      map[gamepadInput]struct{}
}

func newIgnoredInputs() ignoredInputs {
	return ignoredInputs{
		keys:         make(map[KeyCode]struct{}),
		mouseButtons: make(map[MouseButton]struct{}),
		gamepad:      make(map[gamepadInput]struct{}),
	}
}

// add marks an input as ignored. Keyboard and mouse inputs also mark their
// modifier keys, so other inputs sharing those modifiers are ignored too.
func (ig *ignoredInputs) add(in Input, device GamepadDevice) {
	switch in.Kind {
	case KindKeyboard:
		ig.keys[KeyCode(in.Code)] = struct{}{}
		ig.mods = ig.mods.With(in.Mods)
	case KindMouseButton:
		ig.mouseButtons[MouseButton(in.Code)] = struct{}{}
		ig.mods = ig.mods.With(in.Mods)
	case KindMouseMotion:
		ig.motion = true
		ig.mods = ig.mods.With(in.Mods)
	case KindMouseWheel:
		ig.wheel = true
		ig.mods = ig.mods.With(in.Mods)
	case KindGamepadButton, KindGamepadAxis:
		ig.gamepad[gamepadInput{device: device, kind: in.Kind, code: in.Code}] = struct{}{}
	}
}

func (ig *ignoredInputs) contains(in Input, device GamepadDevice) bool {
	switch in.Kind {
	case KindKeyboard:
		_, ok := ig.keys[KeyCode(in.Code)]
		return ok || ig.mods.Intersects(in.Mods)
	case KindMouseButton:
		_, ok := ig.mouseButtons[MouseButton(in.Code)]
		return ok || ig.mods.Intersects(in.Mods)
	case KindMouseMotion:
		return ig.motion || ig.mods.Intersects(in.Mods)
	case KindMouseWheel:
		return ig.wheel || ig.mods.Intersects(in.Mods)
	case KindGamepadButton, KindGamepadAxis:
		_, ok := ig.gamepad[gamepadInput{device: device, kind: in.Kind, code: in.Code}]
		return ok
	}
	return false
}

func (ig *ignoredInputs) len() int {
	n := len(ig.keys) + len(ig.mouseButtons) + len(ig.gamepad)
	if ig.motion {
		n++
	}
	if ig.wheel {
		n++
	}
	return n
}

func (ig *ignoredInputs) clear() {
	clear(ig.keys)
	clear(ig.mouseButtons)
	clear(ig.gamepad)
	ig.mods = ModNone
	ig.motion = false
	ig.wheel = false
}

type pendingInput struct {
	input  Input
	device GamepadDevice
}

// Reader reads binding values from a snapshot.
//
// It honours modifier requirements, the selected gamepad device, inputs
// consumed earlier in the tick, and pending inputs that must read zero once
// before they are usable again.
type Reader struct {
	snapshot *Snapshot
	sources  Sources
	device   GamepadDevice

	consumed ignoredInputs

	pending        []pendingInput
	pendingIgnored ignoredInputs

	// skipIgnore disables ignore checks while pending inputs are refreshed.
	skipIgnore bool

	// skipConsumed disables only the consumed check.
	skipConsumed bool
}

// NewReader creates a reader over an empty snapshot with all sources enabled.
func NewReader() *Reader {
	return &Reader{
		snapshot:       NewSnapshot(),
		sources:        AllSources(),
		consumed:       newIgnoredInputs(),
		pendingIgnored: newIgnoredInputs(),
	}
}

// SetSnapshot sets the snapshot values are read from.
func (r *Reader) SetSnapshot(s *Snapshot) {
	if s == nil {
		s = NewSnapshot()
	}
	r.snapshot = s
}

// Snapshot returns the current snapshot.
func (r *Reader) Snapshot() *Snapshot {
	return r.snapshot
}

// SetSources sets which device sources are visible.
func (r *Reader) SetSources(s Sources) {
	r.sources = s
}

// Sources returns the visible device sources.
func (r *Reader) Sources() Sources {
	return r.sources
}

// SetGamepad selects the gamepad device subsequent reads use.
func (r *Reader) SetGamepad(d GamepadDevice) {
	r.device = d
}

// Gamepad returns the selected gamepad device.
func (r *Reader) Gamepad() GamepadDevice {
	return r.device
}

// Value returns the current value of an input.
// Consumed and pending inputs read as zero.
func (r *Reader) Value(in Input) value.Value {
	zero := value.Zero(in.Dim())
	if in.IsNone() || !r.sources.allows(in.Kind) || !r.modsPressed(in.Mods) || r.ignored(in) {
		return zero
	}

	switch in.Kind {
	case KindKeyboard:
		return value.Bool(r.snapshot.Key(KeyCode(in.Code)))
	case KindMouseButton:
		return value.Bool(r.snapshot.MouseButton(MouseButton(in.Code)))
	case KindMouseMotion:
		return r.snapshot.MouseMotion()
	case KindMouseWheel:
		return r.snapshot.MouseWheel()
	case KindGamepadButton:
		return value.Axis1D(r.gamepadButton(GamepadButton(in.Code)))
	case KindGamepadAxis:
		return value.Axis1D(r.gamepadAxis(GamepadAxis(in.Code)))
	}
	return zero
}

// gamepadButton returns the first non-zero value across gamepads for the
// Any device.
func (r *Reader) gamepadButton(b GamepadButton) float32 {
	if r.device.IsNone() {
		return 0
	}
	if id, ok := r.device.ID(); ok {
		v, _ := r.snapshot.GamepadButton(id, b)
		return v
	}
	for _, id := range r.snapshot.Gamepads() {
		if v, _ := r.snapshot.GamepadButton(id, b); v != 0 {
			return v
		}
	}
	return 0
}

// gamepadAxis sums the axis across gamepads for the Any device.
func (r *Reader) gamepadAxis(a GamepadAxis) float32 {
	if r.device.IsNone() {
		return 0
	}
	if id, ok := r.device.ID(); ok {
		v, _ := r.snapshot.GamepadAxis(id, a)
		return v
	}
	var sum float32
	for _, id := range r.snapshot.Gamepads() {
		v, _ := r.snapshot.GamepadAxis(id, a)
		sum += v
	}
	return sanitize(sum)
}

func (r *Reader) modsPressed(mods ModKeys) bool {
	if mods.IsEmpty() {
		return true
	}
	if !r.sources.Keyboard {
		return false
	}
	return Pressed(r.snapshot).Has(mods)
}

// ValueIgnoringConsumed is like Value but reads inputs consumed earlier in
// the tick. Pending inputs still read as zero.
func (r *Reader) ValueIgnoringConsumed(in Input) value.Value {
	r.skipConsumed = true
	defer func() { r.skipConsumed = false }()
	return r.Value(in)
}

// Raw is like Value but ignores both consumed and pending inputs.
func (r *Reader) Raw(in Input) value.Value {
	r.skipIgnore = true
	defer func() { r.skipIgnore = false }()
	return r.Value(in)
}

func (r *Reader) ignored(in Input) bool {
	if r.skipIgnore {
		return false
	}
	if r.pendingIgnored.contains(in, r.device) {
		return true
	}
	return !r.skipConsumed && r.consumed.contains(in, r.device)
}

// Consume marks an input as consumed for the rest of the tick.
func (r *Reader) Consume(in Input) {
	r.consumed.add(in, r.device)
}

// IsConsumed reports whether an input was consumed this tick.
func (r *Reader) IsConsumed(in Input) bool {
	return r.consumed.contains(in, r.device)
}

// ConsumedCount returns the number of distinct inputs consumed this tick.
func (r *Reader) ConsumedCount() int {
	return r.consumed.len()
}

// ClearConsumed releases every consumed input. Called at the start of a tick.
func (r *Reader) ClearConsumed() {
	r.consumed.clear()
}

// AddPending ignores an input until it reads zero.
// The currently selected gamepad device is recorded with the input.
func (r *Reader) AddPending(in Input) {
	r.pending = append(r.pending, pendingInput{input: in, device: r.device})
	r.pendingIgnored.add(in, r.device)
}

// UpdatePending drops pending inputs that read zero and rebuilds the
// ignored set from those still held. Returns the inputs that were released.
func (r *Reader) UpdatePending() []Input {
	r.skipIgnore = true
	device := r.device
	defer func() {
		r.skipIgnore = false
		r.device = device
	}()

	var released []Input
	r.pendingIgnored.clear()
	kept := r.pending[:0]
	for _, p := range r.pending {
		r.device = p.device
		if r.Value(p.input).AsBool() {
			r.pendingIgnored.add(p.input, p.device)
			kept = append(kept, p)
		} else {
			released = append(released, p.input)
		}
	}
	r.pending = kept
	return released
}

// PendingCount returns the number of inputs waiting for reset.
func (r *Reader) PendingCount() int {
	return len(r.pending)
}
