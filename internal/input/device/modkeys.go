package device

import (
	"math/bits"
	"strings"
)

// ModKeys is a set of keyboard modifiers required by a binding.
type ModKeys uint8

const (
	// ModNone indicates no modifiers.
	ModNone ModKeys = 0

	// ModCtrl indicates either Control key.
	ModCtrl ModKeys = 1 << iota

	// ModShift indicates either Shift key.
	ModShift

	// ModAlt indicates either Alt key (Option on macOS).
	ModAlt

	// ModSuper indicates either Super key (Cmd on macOS, Win on Windows).
	ModSuper
)

// allMods lists single modifiers in canonical formatting order.
var allMods = [...]ModKeys{ModCtrl, ModShift, ModAlt, ModSuper}

// Has returns true if m contains every modifier in mod.
func (m ModKeys) Has(mod ModKeys) bool {
	return m&mod == mod
}

// Intersects returns true if m and o share at least one modifier.
func (m ModKeys) Intersects(o ModKeys) bool {
	return m&o != 0
}

// With returns a new set with mod added.
func (m ModKeys) With(mod ModKeys) ModKeys {
	return m | mod
}

// Without returns a new set with mod removed.
func (m ModKeys) Without(mod ModKeys) ModKeys {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m ModKeys) IsEmpty() bool {
	return m == ModNone
}

// Count returns the number of modifiers in the set.
func (m ModKeys) Count() int {
	return bits.OnesCount8(uint8(m))
}

// Keys returns the left and right key codes for a single modifier.
func (m ModKeys) Keys() [2]KeyCode {
	switch m {
	case ModCtrl:
		return [2]KeyCode{KeyControlLeft, KeyControlRight}
	case ModShift:
		return [2]KeyCode{KeyShiftLeft, KeyShiftRight}
	case ModAlt:
		return [2]KeyCode{KeyAltLeft, KeyAltRight}
	case ModSuper:
		return [2]KeyCode{KeySuperLeft, KeySuperRight}
	}
	return [2]KeyCode{}
}

// Each calls fn for every single modifier in the set.
func (m ModKeys) Each(fn func(ModKeys)) {
	for _, mod := range allMods {
		if m.Has(mod) {
			fn(mod)
		}
	}
}

// Pressed returns the modifiers held in the snapshot.
func Pressed(s *Snapshot) ModKeys {
	var held ModKeys
	for _, mod := range allMods {
		for _, k := range mod.Keys() {
			if s.Key(k) {
				held = held.With(mod)
				break
			}
		}
	}
	return held
}

// ModFromKey returns the modifier a key belongs to, or ModNone.
func ModFromKey(k KeyCode) ModKeys {
	switch k {
	case KeyControlLeft, KeyControlRight:
		return ModCtrl
	case KeyShiftLeft, KeyShiftRight:
		return ModShift
	case KeyAltLeft, KeyAltRight:
		return ModAlt
	case KeySuperLeft, KeySuperRight:
		return ModSuper
	}
	return ModNone
}

// String returns a representation like "Ctrl+Shift".
func (m ModKeys) String() string {
	if m == ModNone {
		return ""
	}

	var parts []string
	m.Each(func(mod ModKeys) {
		parts = append(parts, modNames[mod])
	})
	return strings.Join(parts, "+")
}

var modNames = map[ModKeys]string{
	ModCtrl:  "Ctrl",
	ModShift: "Shift",
	ModAlt:   "Alt",
	ModSuper: "Super",
}

// modifierNameMap maps lowercase modifier names to ModKeys values.
var modifierNameMap = map[string]ModKeys{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"shift":   ModShift,
	"super":   ModSuper,
	"meta":    ModSuper,
	"cmd":     ModSuper,
	"command": ModSuper,
	"win":     ModSuper,
}

// ModFromName returns the modifier for a name (case-insensitive).
// Returns ModNone if the name is not recognized.
func ModFromName(name string) ModKeys {
	if m, ok := modifierNameMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m
	}
	return ModNone
}
