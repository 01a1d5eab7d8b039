package device

import "strings"

// KeyCode identifies a physical keyboard key by position.
type KeyCode uint16

const (
	// KeyNone represents no key.
	KeyNone KeyCode = iota

	// Letters
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ

	// Digits
	Digit0
	Digit1
	Digit2
	Digit3
	Digit4
	Digit5
	Digit6
	Digit7
	Digit8
	Digit9

	// Whitespace and editing keys
	KeySpace
	KeyEnter
	KeyEscape
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown

	// Arrow keys
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	// Modifier keys
	KeyShiftLeft
	KeyShiftRight
	KeyControlLeft
	KeyControlRight
	KeyAltLeft
	KeyAltRight
	KeySuperLeft
	KeySuperRight

	// Punctuation
	KeyMinus
	KeyEqual
	KeyComma
	KeyPeriod
	KeySlash
	KeySemicolon
	KeyQuote
	KeyBackquote
	KeyBracketLeft
	KeyBracketRight
	KeyBackslash

	keyCodeCount
)

var keyNames = [...]string{
	KeyNone: "None",
	KeyA:    "KeyA", KeyB: "KeyB", KeyC: "KeyC", KeyD: "KeyD", KeyE: "KeyE",
	KeyF: "KeyF", KeyG: "KeyG", KeyH: "KeyH", KeyI: "KeyI", KeyJ: "KeyJ",
	KeyK: "KeyK", KeyL: "KeyL", KeyM: "KeyM", KeyN: "KeyN", KeyO: "KeyO",
	KeyP: "KeyP", KeyQ: "KeyQ", KeyR: "KeyR", KeyS: "KeyS", KeyT: "KeyT",
	KeyU: "KeyU", KeyV: "KeyV", KeyW: "KeyW", KeyX: "KeyX", KeyY: "KeyY",
	KeyZ:   "KeyZ",
	Digit0: "Digit0", Digit1: "Digit1", Digit2: "Digit2", Digit3: "Digit3",
	Digit4: "Digit4", Digit5: "Digit5", Digit6: "Digit6", Digit7: "Digit7",
	Digit8: "Digit8", Digit9: "Digit9",
	KeySpace:     "Space",
	KeyEnter:     "Enter",
	KeyEscape:    "Escape",
	KeyTab:       "Tab",
	KeyBackspace: "Backspace",
	KeyDelete:    "Delete",
	KeyInsert:    "Insert",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
	KeyArrowUp:   "ArrowUp", KeyArrowDown: "ArrowDown",
	KeyArrowLeft: "ArrowLeft", KeyArrowRight: "ArrowRight",
	KeyF1: "F1", KeyF2: "F2", KeyF3: "F3", KeyF4: "F4", KeyF5: "F5", KeyF6: "F6",
	KeyF7: "F7", KeyF8: "F8", KeyF9: "F9", KeyF10: "F10", KeyF11: "F11", KeyF12: "F12",
	KeyShiftLeft:    "ShiftLeft",
	KeyShiftRight:   "ShiftRight",
	KeyControlLeft:  "ControlLeft",
	KeyControlRight: "ControlRight",
	KeyAltLeft:      "AltLeft",
	KeyAltRight:     "AltRight",
	KeySuperLeft:    "SuperLeft",
	KeySuperRight:   "SuperRight",
	KeyMinus:        "Minus",
	KeyEqual:        "Equal",
	KeyComma:        "Comma",
	KeyPeriod:       "Period",
	KeySlash:        "Slash",
	KeySemicolon:    "Semicolon",
	KeyQuote:        "Quote",
	KeyBackquote:    "Backquote",
	KeyBracketLeft:  "BracketLeft",
	KeyBracketRight: "BracketRight",
	KeyBackslash:    "Backslash",
}

// keyAliases maps lowercase alternate spellings to key codes.
var keyAliases = map[string]KeyCode{
	"esc":    KeyEscape,
	"return": KeyEnter,
	"cr":     KeyEnter,
	"bs":     KeyBackspace,
	"del":    KeyDelete,
	"ins":    KeyInsert,
	"pgup":   KeyPageUp,
	"pgdn":   KeyPageDown,
	"up":     KeyArrowUp,
	"down":   KeyArrowDown,
	"left":   KeyArrowLeft,
	"right":  KeyArrowRight,
	"shift":  KeyShiftLeft,
	"ctrl":   KeyControlLeft,
	"alt":    KeyAltLeft,
	"super":  KeySuperLeft,
}

// String returns the canonical name of the key.
func (k KeyCode) String() string {
	if int(k) < len(keyNames) && keyNames[k] != "" {
		return keyNames[k]
	}
	return "Unknown"
}

// Valid reports whether k names a real key.
func (k KeyCode) Valid() bool {
	return k > KeyNone && k < keyCodeCount
}

// IsModifier reports whether k is one of the modifier keys.
func (k KeyCode) IsModifier() bool {
	return k >= KeyShiftLeft && k <= KeySuperRight
}

// KeyFromName returns the key code for a name such as "KeyW", "w",
// "Space" or "esc". Matching is case-insensitive.
// Returns KeyNone if the name is not recognized.
func KeyFromName(name string) KeyCode {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return KeyNone
	}
	if k, ok := keyAliases[lower]; ok {
		return k
	}
	for i, n := range keyNames {
		if n != "" && strings.ToLower(n) == lower {
			return KeyCode(i)
		}
	}

	// Single letters and digits
	if len(lower) == 1 {
		c := lower[0]
		switch {
		case c >= 'a' && c <= 'z':
			return KeyA + KeyCode(c-'a')
		case c >= '0' && c <= '9':
			return Digit0 + KeyCode(c-'0')
		}
	}
	return KeyNone
}

// KeyFromRune maps a printable character to the key that produces it
// on a US layout. Returns KeyNone for unmapped runes.
func KeyFromRune(r rune) KeyCode {
	switch {
	case r >= 'a' && r <= 'z':
		return KeyA + KeyCode(r-'a')
	case r >= 'A' && r <= 'Z':
		return KeyA + KeyCode(r-'A')
	case r >= '0' && r <= '9':
		return Digit0 + KeyCode(r-'0')
	}
	switch r {
	case ' ':
		return KeySpace
	case '-', '_':
		return KeyMinus
	case '=', '+':
		return KeyEqual
	case ',', '<':
		return KeyComma
	case '.', '>':
		return KeyPeriod
	case '/', '?':
		return KeySlash
	case ';', ':':
		return KeySemicolon
	case '\'', '"':
		return KeyQuote
	case '`', '~':
		return KeyBackquote
	case '[', '{':
		return KeyBracketLeft
	case ']', '}':
		return KeyBracketRight
	case '\\', '|':
		return KeyBackslash
	}
	return KeyNone
}
