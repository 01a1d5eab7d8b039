// Package device identifies raw device inputs and holds the per-tick input
// snapshot that actions read their binding values from.
package device

import (
	"fmt"

	"github.com/dshills/actionflow/internal/input/value"
)

// Kind identifies the device source of an Input.
type Kind uint8

const (
	// KindNone is an unset input that always reads zero.
	KindNone Kind = iota
	// KindKeyboard is a keyboard key.
	KindKeyboard
	// KindMouseButton is a mouse button.
	KindMouseButton
	// KindMouseMotion is accumulated mouse motion for the tick.
	KindMouseMotion
	// KindMouseWheel is accumulated mouse wheel scroll for the tick.
	KindMouseWheel
	// KindGamepadButton is a gamepad button, analog for triggers.
	KindGamepadButton
	// KindGamepadAxis is a gamepad stick or trigger axis.
	KindGamepadAxis
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindKeyboard:
		return "keyboard"
	case KindMouseButton:
		return "mouse_button"
	case KindMouseMotion:
		return "mouse_motion"
	case KindMouseWheel:
		return "mouse_wheel"
	case KindGamepadButton:
		return "gamepad_button"
	case KindGamepadAxis:
		return "gamepad_axis"
	default:
		return "none"
	}
}

// Dim returns the natural dimension of values read from this kind of input.
func (k Kind) Dim() value.Dim {
	switch k {
	case KindMouseMotion, KindMouseWheel:
		return value.DimAxis2D
	case KindGamepadButton, KindGamepadAxis:
		return value.DimAxis1D
	default:
		return value.DimBool
	}
}

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseLeft MouseButton = iota + 1
	MouseRight
	MouseMiddle
	MouseBack
	MouseForward
)

var mouseButtonNames = map[MouseButton]string{
	MouseLeft:    "Left",
	MouseRight:   "Right",
	MouseMiddle:  "Middle",
	MouseBack:    "Back",
	MouseForward: "Forward",
}

// String returns the button name.
func (b MouseButton) String() string {
	if n, ok := mouseButtonNames[b]; ok {
		return n
	}
	return fmt.Sprintf("Button%d", uint8(b))
}

// GamepadButton identifies a gamepad button by position.
type GamepadButton uint8

const (
	GamepadSouth GamepadButton = iota + 1
	GamepadEast
	GamepadNorth
	GamepadWest
	GamepadLeftTrigger
	GamepadLeftTrigger2
	GamepadRightTrigger
	GamepadRightTrigger2
	GamepadSelect
	GamepadStart
	GamepadMode
	GamepadLeftThumb
	GamepadRightThumb
	GamepadDPadUp
	GamepadDPadDown
	GamepadDPadLeft
	GamepadDPadRight
)

var gamepadButtonNames = map[GamepadButton]string{
	GamepadSouth:         "South",
	GamepadEast:          "East",
	GamepadNorth:         "North",
	GamepadWest:          "West",
	GamepadLeftTrigger:   "LeftTrigger",
	GamepadLeftTrigger2:  "LeftTrigger2",
	GamepadRightTrigger:  "RightTrigger",
	GamepadRightTrigger2: "RightTrigger2",
	GamepadSelect:        "Select",
	GamepadStart:         "Start",
	GamepadMode:          "Mode",
	GamepadLeftThumb:     "LeftThumb",
	GamepadRightThumb:    "RightThumb",
	GamepadDPadUp:        "DPadUp",
	GamepadDPadDown:      "DPadDown",
	GamepadDPadLeft:      "DPadLeft",
	GamepadDPadRight:     "DPadRight",
}

// String returns the button name.
func (b GamepadButton) String() string {
	if n, ok := gamepadButtonNames[b]; ok {
		return n
	}
	return fmt.Sprintf("Button%d", uint8(b))
}

// GamepadAxis identifies an analog gamepad axis.
type GamepadAxis uint8

const (
	LeftStickX GamepadAxis = iota + 1
	LeftStickY
	LeftZ
	RightStickX
	RightStickY
	RightZ
)

var gamepadAxisNames = map[GamepadAxis]string{
	LeftStickX:  "LeftStickX",
	LeftStickY:  "LeftStickY",
	LeftZ:       "LeftZ",
	RightStickX: "RightStickX",
	RightStickY: "RightStickY",
	RightZ:      "RightZ",
}

// String returns the axis name.
func (a GamepadAxis) String() string {
	if n, ok := gamepadAxisNames[a]; ok {
		return n
	}
	return fmt.Sprintf("Axis%d", uint8(a))
}

// Input identifies one raw device input together with the modifier keys
// that must be held for it to read non-zero.
// Input is comparable and can be used as a map key.
type Input struct {
	Kind Kind
	Code uint16
	Mods ModKeys
}

// Key returns a keyboard input.
func Key(k KeyCode) Input {
	return Input{Kind: KindKeyboard, Code: uint16(k)}
}

// Mouse returns a mouse button input.
func Mouse(b MouseButton) Input {
	return Input{Kind: KindMouseButton, Code: uint16(b)}
}

// MouseMotion returns the accumulated mouse motion input.
func MouseMotion() Input {
	return Input{Kind: KindMouseMotion}
}

// MouseWheel returns the accumulated mouse wheel input.
func MouseWheel() Input {
	return Input{Kind: KindMouseWheel}
}

// Button returns a gamepad button input.
func Button(b GamepadButton) Input {
	return Input{Kind: KindGamepadButton, Code: uint16(b)}
}

// Axis returns a gamepad axis input.
func Axis(a GamepadAxis) Input {
	return Input{Kind: KindGamepadAxis, Code: uint16(a)}
}

// WithMods returns a copy of the input requiring the given modifiers.
// Gamepad inputs do not support modifiers and are returned unchanged.
func (i Input) WithMods(mods ModKeys) Input {
	if !i.SupportsMods() {
		return i
	}
	i.Mods = mods
	return i
}

// WithoutMods returns a copy of the input with no modifier requirement.
func (i Input) WithoutMods() Input {
	i.Mods = ModNone
	return i
}

// SupportsMods reports whether the input accepts modifier requirements.
func (i Input) SupportsMods() bool {
	switch i.Kind {
	case KindKeyboard, KindMouseButton, KindMouseMotion, KindMouseWheel:
		return true
	}
	return false
}

// Dim returns the natural dimension of values read from the input.
func (i Input) Dim() value.Dim {
	return i.Kind.Dim()
}

// KeyCode returns the keyboard key, or KeyNone for non-keyboard inputs.
func (i Input) KeyCode() KeyCode {
	if i.Kind != KindKeyboard {
		return KeyNone
	}
	return KeyCode(i.Code)
}

// MouseButton returns the mouse button, or 0 for other inputs.
func (i Input) MouseButton() MouseButton {
	if i.Kind != KindMouseButton {
		return 0
	}
	return MouseButton(i.Code)
}

// GamepadButton returns the gamepad button, or 0 for other inputs.
func (i Input) GamepadButton() GamepadButton {
	if i.Kind != KindGamepadButton {
		return 0
	}
	return GamepadButton(i.Code)
}

// GamepadAxis returns the gamepad axis, or 0 for other inputs.
func (i Input) GamepadAxis() GamepadAxis {
	if i.Kind != KindGamepadAxis {
		return 0
	}
	return GamepadAxis(i.Code)
}

// IsNone reports whether the input is unset.
func (i Input) IsNone() bool {
	return i.Kind == KindNone
}

// String returns the canonical specification of the input.
func (i Input) String() string {
	return Format(i)
}

// GamepadID identifies a connected gamepad.
type GamepadID uint32

// GamepadDevice selects which gamepads a context reads from.
type GamepadDevice struct {
	mode gamepadMode
	id   GamepadID
}

type gamepadMode uint8

const (
	gamepadAny gamepadMode = iota
	gamepadSingle
	gamepadNone
)

// AnyGamepad reads from every connected gamepad.
func AnyGamepad() GamepadDevice {
	return GamepadDevice{mode: gamepadAny}
}

// SingleGamepad reads only from the given gamepad.
func SingleGamepad(id GamepadID) GamepadDevice {
	return GamepadDevice{mode: gamepadSingle, id: id}
}

// NoGamepad ignores gamepad input entirely.
func NoGamepad() GamepadDevice {
	return GamepadDevice{mode: gamepadNone}
}

// IsAny reports whether the device reads from every gamepad.
func (d GamepadDevice) IsAny() bool { return d.mode == gamepadAny }

// IsNone reports whether gamepad input is disabled.
func (d GamepadDevice) IsNone() bool { return d.mode == gamepadNone }

// ID returns the selected gamepad and true for a single-gamepad device.
func (d GamepadDevice) ID() (GamepadID, bool) {
	return d.id, d.mode == gamepadSingle
}

// String returns a string representation of the device selection.
func (d GamepadDevice) String() string {
	switch d.mode {
	case gamepadSingle:
		return fmt.Sprintf("gamepad(%d)", d.id)
	case gamepadNone:
		return "none"
	default:
		return "any"
	}
}
