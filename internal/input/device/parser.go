package device

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors
var (
	ErrEmptySpec   = errors.New("empty input specification")
	ErrInvalidSpec = errors.New("invalid input specification")
)

// Source prefixes used in input specifications.
const (
	prefixMouse       = "mouse:"
	prefixGamepad     = "gamepad:"
	prefixGamepadAxis = "gamepadaxis:"
	nameMouseMotion   = "mousemotion"
	nameMouseWheel    = "mousewheel"
)

// Parse parses an input specification string.
//
// Supported formats:
//   - Keys: "KeyW", "W", "Space", "ArrowUp", "F5"
//   - With modifiers: "Ctrl+KeyC", "Ctrl+Shift+KeyW", "Alt+Mouse:Left"
//   - Vim-style keys: "<C-s>", "<A-S-p>", "<Esc>"
//   - Mouse: "Mouse:Left", "MouseMotion", "MouseWheel"
//   - Gamepad: "Gamepad:South", "GamepadAxis:LeftStickX"
//
// Matching is case-insensitive. Gamepad inputs do not accept modifiers.
func Parse(spec string) (Input, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Input{}, ErrEmptySpec
	}

	if strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") {
		return parseVimStyle(spec[1 : len(spec)-1])
	}

	parts := strings.Split(spec, "+")
	var mods ModKeys
	for _, p := range parts[:len(parts)-1] {
		p = strings.TrimSpace(p)
		mod := ModFromName(p)
		if mod == ModNone {
			return Input{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidSpec, p, spec)
		}
		mods = mods.With(mod)
	}

	in, err := parseSource(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return Input{}, fmt.Errorf("%q: %w", spec, err)
	}
	if !mods.IsEmpty() && !in.SupportsMods() {
		return Input{}, fmt.Errorf("%w: %s input does not accept modifiers in %q", ErrInvalidSpec, in.Kind, spec)
	}
	return in.WithMods(mods), nil
}

// parseVimStyle parses notation like "C-s", "A-S-p" or "Esc".
func parseVimStyle(inner string) (Input, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return Input{}, ErrInvalidSpec
	}

	parts := strings.Split(inner, "-")
	var mods ModKeys
	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "c":
			mods = mods.With(ModCtrl)
		case "a", "m":
			mods = mods.With(ModAlt)
		case "s":
			mods = mods.With(ModShift)
		case "d":
			mods = mods.With(ModSuper)
		default:
			return Input{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
	}

	keyPart := parts[len(parts)-1]
	k := KeyFromName(keyPart)
	if k == KeyNone {
		return Input{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, keyPart)
	}
	return Key(k).WithMods(mods), nil
}

// parseSource parses the input part of a specification without modifiers.
func parseSource(s string) (Input, error) {
	if s == "" {
		return Input{}, ErrInvalidSpec
	}
	lower := strings.ToLower(s)

	switch {
	case lower == nameMouseMotion:
		return MouseMotion(), nil
	case lower == nameMouseWheel:
		return MouseWheel(), nil
	case strings.HasPrefix(lower, prefixMouse):
		name := s[len(prefixMouse):]
		for b, n := range mouseButtonNames {
			if strings.EqualFold(n, name) {
				return Mouse(b), nil
			}
		}
		return Input{}, fmt.Errorf("%w: unknown mouse button %q", ErrInvalidSpec, name)
	case strings.HasPrefix(lower, prefixGamepadAxis):
		name := s[len(prefixGamepadAxis):]
		for a, n := range gamepadAxisNames {
			if strings.EqualFold(n, name) {
				return Axis(a), nil
			}
		}
		return Input{}, fmt.Errorf("%w: unknown gamepad axis %q", ErrInvalidSpec, name)
	case strings.HasPrefix(lower, prefixGamepad):
		name := s[len(prefixGamepad):]
		for b, n := range gamepadButtonNames {
			if strings.EqualFold(n, name) {
				return Button(b), nil
			}
		}
		return Input{}, fmt.Errorf("%w: unknown gamepad button %q", ErrInvalidSpec, name)
	}

	if k := KeyFromName(s); k != KeyNone {
		return Key(k), nil
	}
	return Input{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, s)
}

// MustParse parses an input specification and panics on error.
// Use only for known-valid specs in initialization code.
func MustParse(spec string) Input {
	in, err := Parse(spec)
	if err != nil {
		panic("invalid input specification: " + spec + ": " + err.Error())
	}
	return in
}

// Format formats an input as a specification string.
// The result parses back to the same input.
func Format(i Input) string {
	var src string
	switch i.Kind {
	case KindKeyboard:
		src = KeyCode(i.Code).String()
	case KindMouseButton:
		src = "Mouse:" + MouseButton(i.Code).String()
	case KindMouseMotion:
		src = "MouseMotion"
	case KindMouseWheel:
		src = "MouseWheel"
	case KindGamepadButton:
		src = "Gamepad:" + GamepadButton(i.Code).String()
	case KindGamepadAxis:
		src = "GamepadAxis:" + GamepadAxis(i.Code).String()
	default:
		return "None"
	}

	if i.Mods.IsEmpty() {
		return src
	}
	return i.Mods.String() + "+" + src
}

// NormalizeSpec parses and re-formats a specification to its canonical form.
func NormalizeSpec(spec string) (string, error) {
	in, err := Parse(spec)
	if err != nil {
		return "", err
	}
	return Format(in), nil
}
