package input

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dshills/actionflow/internal/input/action"
	"github.com/dshills/actionflow/internal/input/binding"
	"github.com/dshills/actionflow/internal/input/condition"
	"github.com/dshills/actionflow/internal/input/device"
	"github.com/dshills/actionflow/internal/input/modifier"
	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
	"github.com/dshills/actionflow/internal/logging"
)

const tick = 16 * time.Millisecond

func keyAction(name string, k device.KeyCode) *action.Action {
	return action.New(name, value.DimBool).WithBindings(binding.New(device.Key(k)))
}

func TestConsumptionAcrossPriorities(t *testing.T) {
	low := NewContext("low", 0).WithActions(keyAction("low_jump", device.KeySpace))
	high := NewContext("high", 10).WithActions(keyAction("high_jump", device.KeySpace))

	s := NewScheduler(nil, nil)
	snap := device.NewSnapshot()
	snap.SetKey(device.KeySpace, true)

	rec := &Recorder{}
	// Registration order puts the low-priority context first.
	s.Update(snap, []*Context{low, high}, tick, rec)

	hi, _ := high.Action("high_jump")
	lo, _ := low.Action("low_jump")
	if hi.State() != state.Fired {
		t.Errorf("high State() = %v, want fired", hi.State())
	}
	if lo.State() != state.None || !lo.Value().IsZero() {
		t.Errorf("low = %v %v, want none with zero value", lo.State(), lo.Value())
	}

	events := rec.Events()
	if len(events) != 2 || events[0].Action != "high_jump" || events[0].Kind != state.Started {
		t.Fatalf("events = %v, want high_jump started then fired", events)
	}
	if events[0].Context != "high" || events[0].ContextID != high.ID {
		t.Errorf("event context = %s %v, want high %v", events[0].Context, events[0].ContextID, high.ID)
	}
}

func TestEqualPriorityKeepsRegistrationOrder(t *testing.T) {
	first := NewContext("first", 5).WithActions(keyAction("a", device.KeyE))
	second := NewContext("second", 5).WithActions(keyAction("b", device.KeyE))

	s := NewScheduler(nil, nil)
	snap := device.NewSnapshot()
	snap.SetKey(device.KeyE, true)
	s.Update(snap, []*Context{first, second}, tick, nil)

	a, _ := first.Action("a")
	b, _ := second.Action("b")
	if a.State() != state.Fired || b.State() != state.None {
		t.Errorf("states = %v, %v, want fired, none", a.State(), b.State())
	}
}

func TestModKeyOrderingWithinContext(t *testing.T) {
	// The plain action is registered first but Ctrl+C must win.
	c := NewContext("edit", 0).WithActions(
		action.New("c", value.DimBool).WithBindings(binding.MustParse("KeyC")),
		action.New("copy", value.DimBool).WithBindings(binding.MustParse("Ctrl+KeyC")),
	)

	s := NewScheduler(nil, nil)
	snap := device.NewSnapshot()
	snap.SetKey(device.KeyControlLeft, true)
	snap.SetKey(device.KeyC, true)

	rec := &Recorder{}
	s.Update(snap, []*Context{c}, tick, rec)

	if got := rec.Count("copy", state.FiredEvent); got != 1 {
		t.Errorf("copy fired %d times, want 1", got)
	}
	if got := len(rec.Kinds("c")); got != 0 {
		t.Errorf("c raised %d events, want 0", got)
	}

	names := []string{}
	for _, a := range c.Actions() {
		names = append(names, a.Name())
	}
	if strings.Join(names, ",") != "c,copy" {
		t.Errorf("Actions() = %v, want registration order", names)
	}
}

func TestEventsFollowModCountThenRegistration(t *testing.T) {
	c := NewContext("edit", 0).WithActions(
		keyAction("a", device.KeyA),
		action.New("save", value.DimBool).WithBindings(binding.MustParse("Alt+KeyS")),
		keyAction("b", device.KeyB),
		action.New("redo", value.DimBool).WithBindings(binding.MustParse("Ctrl+Shift+KeyZ")),
	)

	s := NewScheduler(nil, nil)
	snap := device.NewSnapshot()
	for _, k := range []device.KeyCode{device.KeyA, device.KeyB, device.KeyS, device.KeyZ, device.KeyAltLeft, device.KeyControlLeft, device.KeyShiftLeft} {
		snap.SetKey(k, true)
	}

	rec := &Recorder{}
	s.Update(snap, []*Context{c}, tick, rec)

	var order []string
	for _, ev := range rec.Events() {
		if ev.Kind == state.Started {
			order = append(order, ev.Action)
		}
	}
	if got := strings.Join(order, ","); got != "redo,save,a,b" {
		t.Errorf("event order = %s, want redo,save,a,b", got)
	}
}

func TestRequireResetLingers(t *testing.T) {
	s := requireReset()
	gameplay := NewContext("gameplay", 0).WithActions(
		action.New("fire", value.DimBool).WithSettings(s).WithBindings(binding.New(device.Key(device.KeySpace))),
	)
	menu := NewContext("menu", 0).WithActions(keyAction("confirm", device.KeySpace))

	sched := NewScheduler(nil, nil)
	snap := device.NewSnapshot()
	rec := &Recorder{}

	sched.Activate(gameplay)
	sched.Update(snap, []*Context{gameplay}, tick, rec)
	snap.SetKey(device.KeySpace, true)
	sched.Update(snap, []*Context{gameplay}, tick, rec)

	fire, _ := gameplay.Action("fire")
	if fire.State() != state.Fired {
		t.Fatalf("fire State() = %v, want fired", fire.State())
	}

	// Swap contexts while the key is held.
	sched.Remove(gameplay, rec)
	sched.Activate(menu)
	if sched.Lingering() != 1 {
		t.Fatalf("Lingering() = %d, want 1", sched.Lingering())
	}

	for i := 0; i < 3; i++ {
		sched.Update(snap, []*Context{menu}, tick, rec)
		if fire.State() != state.Fired || !fire.Value().AsBool() {
			t.Errorf("tick %d: lingering fire = %v %v, want fired true", i, fire.State(), fire.Value())
		}
		if got := len(rec.Kinds("confirm")); got != 0 {
			t.Errorf("tick %d: confirm raised %d events while input lingers", i, got)
		}
	}

	snap.SetKey(device.KeySpace, false)
	sched.Update(snap, []*Context{menu}, tick, rec)
	if sched.Lingering() != 0 {
		t.Errorf("Lingering() = %d after release, want 0", sched.Lingering())
	}
	kinds := rec.Kinds("fire")
	if kinds[len(kinds)-1] != state.Completed {
		t.Errorf("last fire event = %v, want completed", kinds[len(kinds)-1])
	}

	snap.SetKey(device.KeySpace, true)
	sched.Update(snap, []*Context{menu}, tick, rec)
	if rec.Count("confirm", state.Started) != 1 {
		t.Errorf("confirm did not start after release, events %v", rec.Kinds("confirm"))
	}
}

func TestRequireResetReaddContinues(t *testing.T) {
	s := requireReset()
	build := func() *Context {
		return NewContext("gameplay", 0).WithActions(
			action.New("fire", value.DimBool).WithSettings(s).WithBindings(binding.New(device.Key(device.KeySpace))),
		)
	}

	sched := NewScheduler(nil, nil)
	snap := device.NewSnapshot()
	rec := &Recorder{}

	first := build()
	sched.Activate(first)
	sched.Update(snap, []*Context{first}, tick, rec)
	snap.SetKey(device.KeySpace, true)
	sched.Update(snap, []*Context{first}, tick, rec)
	sched.Remove(first, rec)
	sched.Update(snap, nil, tick, rec)

	second := build()
	sched.Activate(second)
	if sched.Lingering() != 0 {
		t.Fatalf("Lingering() = %d after re-add, want 0", sched.Lingering())
	}
	sched.Update(snap, []*Context{second}, tick, rec)

	fire, _ := second.Action("fire")
	if fire.State() != state.Fired {
		t.Errorf("State() = %v, want fired", fire.State())
	}
	if got := rec.Count("fire", state.Started); got != 1 {
		t.Errorf("Started raised %d times, want 1", got)
	}
}

func TestRequireResetOnActivation(t *testing.T) {
	s := requireReset()
	c := NewContext("gameplay", 0).WithActions(
		action.New("fire", value.DimBool).WithSettings(s).WithBindings(binding.New(device.Key(device.KeySpace))),
	)

	sched := NewScheduler(nil, nil)
	snap := device.NewSnapshot()
	snap.SetKey(device.KeySpace, true)
	sched.Activate(c)

	fire, _ := c.Action("fire")
	sched.Update(snap, []*Context{c}, tick, nil)
	if fire.State() != state.None {
		t.Errorf("held at activation: State() = %v, want none", fire.State())
	}

	snap.SetKey(device.KeySpace, false)
	sched.Update(snap, []*Context{c}, tick, nil)
	snap.SetKey(device.KeySpace, true)
	sched.Update(snap, []*Context{c}, tick, nil)
	if fire.State() != state.Fired {
		t.Errorf("after reset: State() = %v, want fired", fire.State())
	}
}

func TestRemoveEmitsTerminalEvents(t *testing.T) {
	c := NewContext("c", 0).WithActions(keyAction("jump", device.KeySpace))
	sched := NewScheduler(nil, nil)
	snap := device.NewSnapshot()
	snap.SetKey(device.KeySpace, true)

	rec := &Recorder{}
	sched.Update(snap, []*Context{c}, tick, rec)
	rec.Reset()
	sched.Remove(c, rec)

	if kinds := rec.Kinds("jump"); len(kinds) != 1 || kinds[0] != state.Completed {
		t.Errorf("Remove events = %v, want [completed]", kinds)
	}
}

func TestRemoveIdleRequireResetPendsInputs(t *testing.T) {
	s := requireReset()
	// Press fires once, so the action is idle while the key stays held.
	gameplay := NewContext("gameplay", 0).WithActions(
		action.New("tap", value.DimBool).WithSettings(s).WithBindings(
			binding.New(device.Key(device.KeySpace)).WithConditions(condition.NewPress()),
		),
	)
	menu := NewContext("menu", 0).WithActions(keyAction("confirm", device.KeySpace))

	sched := NewScheduler(nil, nil)
	snap := device.NewSnapshot()
	sched.Activate(gameplay)
	sched.Update(snap, []*Context{gameplay}, tick, nil)
	snap.SetKey(device.KeySpace, true)
	sched.Update(snap, []*Context{gameplay}, tick, nil)
	sched.Update(snap, []*Context{gameplay}, tick, nil)

	sched.Remove(gameplay, nil)
	sched.Activate(menu)
	if sched.Lingering() != 0 || sched.Reader().PendingCount() != 1 {
		t.Fatalf("Lingering() = %d, PendingCount() = %d, want 0, 1", sched.Lingering(), sched.Reader().PendingCount())
	}

	confirm, _ := menu.Action("confirm")
	sched.Update(snap, []*Context{menu}, tick, nil)
	if confirm.State() != state.None {
		t.Errorf("pending input read by confirm: State() = %v", confirm.State())
	}
	snap.SetKey(device.KeySpace, false)
	sched.Update(snap, []*Context{menu}, tick, nil)
	snap.SetKey(device.KeySpace, true)
	sched.Update(snap, []*Context{menu}, tick, nil)
	if confirm.State() != state.Fired {
		t.Errorf("after release: confirm State() = %v, want fired", confirm.State())
	}
}

func TestPeersSeeCurrentTick(t *testing.T) {
	// aim is evaluated before fire, so fire's chord sees aim's value from
	// the same tick.
	c := NewContext("combat", 0).WithActions(
		keyAction("aim", device.KeyQ),
		action.New("fire", value.DimBool).
			WithBindings(binding.New(device.Key(device.KeyE))).
			WithConditions(condition.NewChord("aim")),
	)

	sched := NewScheduler(nil, nil)
	snap := device.NewSnapshot()
	snap.SetKey(device.KeyQ, true)
	snap.SetKey(device.KeyE, true)
	sched.Update(snap, []*Context{c}, tick, nil)

	fire, _ := c.Action("fire")
	if fire.State() != state.Fired {
		t.Errorf("fire State() = %v, want fired", fire.State())
	}
	if v, ok := sched.Lookup("aim"); !ok || v.State != state.Fired {
		t.Errorf("Lookup(aim) = %v, %v", v, ok)
	}
	if _, ok := sched.Lookup("missing"); ok {
		t.Error("Lookup(missing) found an action")
	}
}

func TestChordNeverExceedsOngoing(t *testing.T) {
	c := NewContext("combat", 0).WithActions(
		keyAction("a", device.KeyQ),
		keyAction("b", device.KeyW),
		action.New("combo", value.DimBool).
			WithBindings(binding.New(device.Key(device.KeyE))).
			WithConditions(condition.NewChord("a", "b")),
	)

	sched := NewScheduler(nil, nil)
	snap := device.NewSnapshot()
	snap.SetKey(device.KeyQ, true)
	snap.SetKey(device.KeyE, true)
	combo, _ := c.Action("combo")
	for i := 0; i < 10; i++ {
		sched.Update(snap, []*Context{c}, tick, nil)
		if combo.State() > state.Ongoing {
			t.Fatalf("tick %d: State() = %v, want at most ongoing", i, combo.State())
		}
	}
}

func TestMissingPeerWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: logging.LevelWarn, Output: &buf})
	c := NewContext("c", 0).WithActions(
		action.New("fire", value.DimBool).
			WithBindings(binding.New(device.Key(device.KeyE))).
			WithConditions(condition.NewBlockBy("menu")),
	)

	sched := NewScheduler(log, nil)
	snap := device.NewSnapshot()
	snap.SetKey(device.KeyE, true)
	for i := 0; i < 3; i++ {
		sched.Update(snap, []*Context{c}, tick, nil)
	}

	if n := strings.Count(buf.String(), `inactive action "menu"`); n != 1 {
		t.Errorf("warning logged %d times, want 1: %q", n, buf.String())
	}
	fire, _ := c.Action("fire")
	if fire.State() != state.Fired {
		t.Errorf("State() = %v, want fired (missing blocker never blocks)", fire.State())
	}
}

func TestGamepadSelection(t *testing.T) {
	p1 := NewContext("p1", 0).
		WithGamepad(device.SingleGamepad(1)).
		WithActions(action.New("jump", value.DimAxis1D).WithBindings(binding.New(device.Button(device.GamepadSouth))))
	p2 := NewContext("p2", 0).
		WithGamepad(device.SingleGamepad(2)).
		WithActions(action.New("jump2", value.DimAxis1D).WithBindings(binding.New(device.Button(device.GamepadSouth))))

	snap := device.NewSnapshot()
	snap.ConnectGamepad(1)
	snap.ConnectGamepad(2)
	snap.SetGamepadButton(1, device.GamepadSouth, 1)
	snap.SetGamepadButton(2, device.GamepadSouth, 1)

	sched := NewScheduler(nil, nil)
	sched.Update(snap, []*Context{p1, p2}, tick, nil)

	a, _ := p1.Action("jump")
	b, _ := p2.Action("jump2")
	if a.State() != state.Fired || b.State() != state.Fired {
		t.Errorf("states = %v, %v, want both fired (consumption is per gamepad)", a.State(), b.State())
	}
}

func TestDeadZoneThroughScheduler(t *testing.T) {
	dz := modifier.NewDeadZone(modifier.Axial)
	dz.Lower, dz.Upper = 0.2, 0.8
	c := NewContext("c", 0).WithActions(
		action.New("throttle", value.DimAxis1D).
			WithBindings(binding.New(device.Axis(device.RightZ)).WithModifiers(dz)),
	)

	tests := []struct {
		in      float32
		check   func(float32) bool
		explain string
	}{
		{0.5, func(v float32) bool { return v > 0 && v < 1 }, "strictly between 0 and 1"},
		{0.1, func(v float32) bool { return v == 0 }, "exactly 0"},
		{0.9, func(v float32) bool { return v == 1 }, "exactly 1"},
	}

	sched := NewScheduler(nil, nil)
	snap := device.NewSnapshot()
	snap.ConnectGamepad(0)
	throttle, _ := c.Action("throttle")
	for _, tt := range tests {
		snap.SetGamepadAxis(0, device.RightZ, tt.in)
		sched.Update(snap, []*Context{c}, tick, nil)
		if got := throttle.Value().AsAxis1D(); !tt.check(got) {
			t.Errorf("input %v = %v, want %s", tt.in, got, tt.explain)
		}
	}
}

func TestSchedulerMetrics(t *testing.T) {
	m := NewMetrics()
	c := NewContext("c", 0).WithActions(keyAction("jump", device.KeySpace), keyAction("duck", device.KeyC))
	jump, _ := c.Action("jump")
	jump.Mock(state.Fired, value.Bool(true), action.Updates(1))

	sched := NewScheduler(nil, m)
	snap := device.NewSnapshot()
	snap.SetKey(device.KeyC, true)
	sched.Update(snap, []*Context{c}, tick, nil)

	snapM := m.Snapshot()
	if snapM.Ticks != 1 || snapM.ActionsEvaluated != 2 || snapM.MockedUpdates != 1 {
		t.Errorf("metrics = %+v", snapM)
	}
	if snapM.ConsumedInputs != 1 {
		t.Errorf("ConsumedInputs = %d, want 1", snapM.ConsumedInputs)
	}
	if m.EventCount(state.Started) != 2 {
		t.Errorf("EventCount(started) = %d, want 2", m.EventCount(state.Started))
	}
	if sched.TickCount() != 1 || sched.Now() != tick {
		t.Errorf("TickCount() = %d, Now() = %v", sched.TickCount(), sched.Now())
	}
}

// requireReset returns the default settings with
// RequireReset enabled.
func requireReset() action.Settings {
	s := action.DefaultSettings()
	s.RequireReset = true
	return s
}
