// Package terminal feeds terminal input into device snapshots and draws
// a scrolling event log, using tcell.
//
// Terminals report key presses but not key releases. Source treats a key
// as held for a hold window after its last press or auto-repeat, then
// releases it. Mouse buttons, motion and wheel are reported directly.
package terminal

import (
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/actionflow/internal/input/device"
)

// DefaultHold is how long a key stays held after its last event. It
// spans the typical auto-repeat delay so a held key does not flicker.
const DefaultHold = 500 * time.Millisecond

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithHold sets the hold window. Zero or negative uses DefaultHold.
func WithHold(d time.Duration) SourceOption {
	return func(s *Source) {
		if d > 0 {
			s.hold = d
		}
	}
}

// WithClock sets the time source used to stamp events.
func WithClock(now func() time.Time) SourceOption {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

// Source accumulates tcell events between ticks. Feed may be called from
// the event goroutine while Apply runs on the tick goroutine.
type Source struct {
	mu   sync.Mutex
	hold time.Duration
	now  func() time.Time

	keys    map[device.KeyCode]time.Time
	buttons map[device.MouseButton]bool

	lastX, lastY int
	havePos      bool
	motionX      float32
	motionY      float32
	wheelX       float32
	wheelY       float32
}

// NewSource creates an empty source.
func NewSource(opts ...SourceOption) *Source {
	s := &Source{
		hold:    DefaultHold,
		now:     time.Now,
		keys:    make(map[device.KeyCode]time.Time),
		buttons: make(map[device.MouseButton]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Feed records a tcell event. It returns false for events the source
// does not understand.
func (s *Source) Feed(ev tcell.Event) bool {
	switch e := ev.(type) {
	case *tcell.EventKey:
		key, mods := convertKey(e)
		if key == device.KeyNone {
			return false
		}
		s.press(key, mods)
		return true
	case *tcell.EventMouse:
		s.mouse(e)
		return true
	}
	return false
}

// PressKey marks key and the keys of mods as pressed now.
func (s *Source) PressKey(key device.KeyCode, mods device.ModKeys) {
	s.press(key, mods)
}

func (s *Source) press(key device.KeyCode, mods device.ModKeys) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := s.now()
	s.keys[key] = at
	mods.Each(func(m device.ModKeys) {
		s.keys[m.Keys()[0]] = at
	})
}

func (s *Source) mouse(e *tcell.EventMouse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, y := e.Position()
	if s.havePos {
		s.motionX += float32(x - s.lastX)
		s.motionY += float32(y - s.lastY)
	}
	s.lastX, s.lastY, s.havePos = x, y, true

	b := e.Buttons()
	s.buttons[device.MouseLeft] = b&tcell.Button1 != 0
	s.buttons[device.MouseRight] = b&tcell.Button2 != 0
	s.buttons[device.MouseMiddle] = b&tcell.Button3 != 0
	s.buttons[device.MouseBack] = b&tcell.Button4 != 0
	s.buttons[device.MouseForward] = b&tcell.Button5 != 0

	if b&tcell.WheelUp != 0 {
		s.wheelY++
	}
	if b&tcell.WheelDown != 0 {
		s.wheelY--
	}
	if b&tcell.WheelRight != 0 {
		s.wheelX++
	}
	if b&tcell.WheelLeft != 0 {
		s.wheelX--
	}
}

// Apply writes the current device state into snap and drops keys whose
// hold window has passed. Accumulated mouse deltas are moved into snap
// and reset.
func (s *Source) Apply(snap *device.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, at := range s.keys {
		if now.Sub(at) >= s.hold {
			delete(s.keys, key)
			snap.SetKey(key, false)
			continue
		}
		snap.SetKey(key, true)
	}
	for b, down := range s.buttons {
		snap.SetMouseButton(b, down)
	}
	if s.motionX != 0 || s.motionY != 0 {
		snap.AddMouseMotion(s.motionX, s.motionY)
	}
	if s.wheelX != 0 || s.wheelY != 0 {
		snap.AddMouseWheel(s.wheelX, s.wheelY)
	}
	s.motionX, s.motionY, s.wheelX, s.wheelY = 0, 0, 0, 0
}

// Held returns the keys currently considered held.
func (s *Source) Held() []device.KeyCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := device.NewSnapshot()
	for key := range s.keys {
		snap.SetKey(key, true)
	}
	return snap.PressedKeys()
}

// Release forgets every held key and button.
func (s *Source) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.keys)
	clear(s.buttons)
	s.motionX, s.motionY, s.wheelX, s.wheelY = 0, 0, 0, 0
}

// convertKey maps a tcell key event to a key code and the modifiers held
// with it.
func convertKey(e *tcell.EventKey) (device.KeyCode, device.ModKeys) {
	mods := convertMod(e.Modifiers())

	if e.Key() == tcell.KeyRune {
		r := e.Rune()
		if r >= 'A' && r <= 'Z' {
			mods = mods.With(device.ModShift)
		}
		return device.KeyFromRune(r), mods
	}

	switch e.Key() {
	case tcell.KeyTab:
		return device.KeyTab, mods
	case tcell.KeyEnter:
		return device.KeyEnter, mods
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return device.KeyBackspace, mods
	case tcell.KeyEscape:
		return device.KeyEscape, mods
	}

	// Control letters arrive as their own key codes, either the tcell
	// Ctrl range or the raw ASCII control characters.
	k := e.Key()
	switch {
	case k == tcell.KeyCtrlSpace || k == tcell.KeyNUL:
		return device.KeySpace, mods.With(device.ModCtrl)
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		return device.KeyA + device.KeyCode(k-tcell.KeyCtrlA), mods.With(device.ModCtrl)
	case k >= tcell.KeySOH && k <= tcell.KeySUB:
		return device.KeyA + device.KeyCode(k-tcell.KeySOH), mods.With(device.ModCtrl)
	}

	if code, ok := specialKeys[k]; ok {
		return code, mods
	}
	return device.KeyNone, mods
}

var specialKeys = map[tcell.Key]device.KeyCode{
	tcell.KeyDelete: device.KeyDelete,
	tcell.KeyInsert: device.KeyInsert,
	tcell.KeyHome:   device.KeyHome,
	tcell.KeyEnd:    device.KeyEnd,
	tcell.KeyPgUp:   device.KeyPageUp,
	tcell.KeyPgDn:   device.KeyPageDown,
	tcell.KeyUp:     device.KeyArrowUp,
	tcell.KeyDown:   device.KeyArrowDown,
	tcell.KeyLeft:   device.KeyArrowLeft,
	tcell.KeyRight:  device.KeyArrowRight,
	tcell.KeyF1:     device.KeyF1,
	tcell.KeyF2:     device.KeyF2,
	tcell.KeyF3:     device.KeyF3,
	tcell.KeyF4:     device.KeyF4,
	tcell.KeyF5:     device.KeyF5,
	tcell.KeyF6:     device.KeyF6,
	tcell.KeyF7:     device.KeyF7,
	tcell.KeyF8:     device.KeyF8,
	tcell.KeyF9:     device.KeyF9,
	tcell.KeyF10:    device.KeyF10,
	tcell.KeyF11:    device.KeyF11,
	tcell.KeyF12:    device.KeyF12,
}

func convertMod(m tcell.ModMask) device.ModKeys {
	var mods device.ModKeys
	if m&tcell.ModCtrl != 0 {
		mods = mods.With(device.ModCtrl)
	}
	if m&tcell.ModShift != 0 {
		mods = mods.With(device.ModShift)
	}
	if m&tcell.ModAlt != 0 {
		mods = mods.With(device.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		mods = mods.With(device.ModSuper)
	}
	return mods
}
