package input

import (
	"errors"
	"testing"
	"time"

	"github.com/dshills/actionflow/internal/input/action"
	"github.com/dshills/actionflow/internal/input/binding"
	"github.com/dshills/actionflow/internal/input/condition"
	"github.com/dshills/actionflow/internal/input/device"
	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

func builder(name string, priority int, actions func() []*action.Action) Builder {
	return BuilderFunc{ContextName: name, Fn: func() (*Context, error) {
		return NewContext(name, priority).WithActions(actions()...), nil
	}}
}

func newTestHandler() *Handler {
	h := NewHandler(DefaultConfig())
	h.Register(builder("gameplay", 0, func() []*action.Action {
		return []*action.Action{keyAction("jump", device.KeySpace)}
	}))
	h.Register(builder("menu", 10, func() []*action.Action {
		return []*action.Action{keyAction("confirm", device.KeySpace)}
	}))
	return h
}

func TestHandlerActivationQueued(t *testing.T) {
	h := newTestHandler()
	if err := h.Activate("gameplay"); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if len(h.Active()) != 0 {
		t.Errorf("Active() = %v before Tick, want none", h.Active())
	}

	snap := device.NewSnapshot()
	h.Tick(snap, tick)
	if got := h.Active(); len(got) != 1 || got[0] != "gameplay" {
		t.Errorf("Active() = %v, want [gameplay]", got)
	}

	if err := h.Deactivate("gameplay"); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if len(h.Active()) != 1 {
		t.Error("Deactivate applied before Tick")
	}
	h.Tick(snap, tick)
	if len(h.Active()) != 0 {
		t.Errorf("Active() = %v after Tick, want none", h.Active())
	}
}

func TestHandlerErrors(t *testing.T) {
	h := newTestHandler()

	if err := h.Activate("missing"); !errors.Is(err, ErrUnknownContext) {
		t.Errorf("Activate(missing) = %v, want ErrUnknownContext", err)
	}
	if err := h.Deactivate("gameplay"); !errors.Is(err, ErrNotActive) {
		t.Errorf("Deactivate(inactive) = %v, want ErrNotActive", err)
	}
	if err := h.SetPriority("gameplay", 3); !errors.Is(err, ErrNotActive) {
		t.Errorf("SetPriority(inactive) = %v, want ErrNotActive", err)
	}

	if err := h.Activate("gameplay"); err != nil {
		t.Fatal(err)
	}
	// Still queued, but already counts as active.
	if err := h.Activate("gameplay"); !errors.Is(err, ErrAlreadyActive) {
		t.Errorf("second Activate = %v, want ErrAlreadyActive", err)
	}
}

func TestHandlerMissingReference(t *testing.T) {
	h := newTestHandler()
	h.Register(builder("combat", 0, func() []*action.Action {
		return []*action.Action{
			action.New("fire", value.DimBool).
				WithBindings(binding.New(device.Key(device.KeyE))).
				WithConditions(condition.NewChord("aim")),
		}
	}))
	h.Register(builder("aiming", 0, func() []*action.Action {
		return []*action.Action{keyAction("aim", device.KeyQ)}
	}))

	err := h.Activate("combat")
	if !errors.Is(err, ErrMissingReference) {
		t.Fatalf("Activate(combat) = %v, want ErrMissingReference", err)
	}
	var ce *ContextError
	if !errors.As(err, &ce) || ce.Context != "combat" {
		t.Errorf("error = %#v, want ContextError for combat", err)
	}

	// Queued activations count as upcoming.
	if err := h.Activate("aiming"); err != nil {
		t.Fatal(err)
	}
	if err := h.Activate("combat"); err != nil {
		t.Errorf("Activate(combat) after aiming = %v", err)
	}
}

func TestHandlerInvalidContext(t *testing.T) {
	h := NewHandler(DefaultConfig())
	h.Register(builder("broken", 0, func() []*action.Action {
		return []*action.Action{keyAction("a", device.KeyA), keyAction("a", device.KeyB)}
	}))
	if err := h.Activate("broken"); !errors.Is(err, ErrDuplicateAction) {
		t.Errorf("Activate(broken) = %v, want ErrDuplicateAction", err)
	}

	h.Register(BuilderFunc{ContextName: "failing", Fn: func() (*Context, error) {
		return nil, errors.New("boom")
	}})
	var ce *ContextError
	if err := h.Activate("failing"); !errors.As(err, &ce) || ce.Context != "failing" {
		t.Errorf("Activate(failing) = %v, want ContextError", err)
	}
}

func TestHandlerPriorityAndEvents(t *testing.T) {
	h := newTestHandler()
	rec := &Recorder{}
	h.Observers().Register(SinkObserver{Sink: rec})

	_ = h.Activate("gameplay")
	_ = h.Activate("menu")

	snap := device.NewSnapshot()
	snap.SetKey(device.KeySpace, true)
	h.Tick(snap, tick)

	if rec.Count("confirm", state.FiredEvent) != 1 || len(rec.Kinds("jump")) != 0 {
		t.Fatalf("events = %v, want only confirm", rec.Events())
	}

	if err := h.SetPriority("gameplay", 20); err != nil {
		t.Fatal(err)
	}
	snap.SetKey(device.KeySpace, false)
	h.Tick(snap, tick)
	rec.Reset()
	snap.SetKey(device.KeySpace, true)
	h.Tick(snap, tick)
	if rec.Count("jump", state.FiredEvent) != 1 || len(rec.Kinds("confirm")) != 0 {
		t.Errorf("events after SetPriority = %v, want only jump", rec.Events())
	}

	if c, ok := h.Context("gameplay"); !ok || c.Priority() != 20 {
		t.Error("Context(gameplay) priority was not updated to 20")
	}
}

func TestHandlerMockBetweenTicks(t *testing.T) {
	h := newTestHandler()
	_ = h.Activate("gameplay")
	snap := device.NewSnapshot()
	h.Tick(snap, tick)

	a, ok := h.Action("jump")
	if !ok {
		t.Fatal("Action(jump) not found")
	}
	a.Mock(state.Fired, value.Bool(true), action.Updates(2))

	for i := 0; i < 2; i++ {
		h.Tick(snap, tick)
		v, _ := h.View("jump")
		if v.State != state.Fired {
			t.Errorf("tick %d: State = %v, want fired", i, v.State)
		}
	}
	h.Tick(snap, tick)
	if v, _ := h.View("jump"); v.State != state.None {
		t.Errorf("after mock: State = %v, want none", v.State)
	}
	if _, ok := h.View("missing"); ok {
		t.Error("View(missing) found an action")
	}
}

func TestHandlerReload(t *testing.T) {
	h := newTestHandler()
	if err := h.Reload("gameplay"); err != nil {
		t.Errorf("Reload(inactive) = %v, want nil", err)
	}
	if err := h.Reload("missing"); !errors.Is(err, ErrUnknownContext) {
		t.Errorf("Reload(missing) = %v, want ErrUnknownContext", err)
	}

	_ = h.Activate("gameplay")
	snap := device.NewSnapshot()
	h.Tick(snap, tick)
	before, _ := h.Context("gameplay")

	if err := h.Reload("gameplay"); err != nil {
		t.Fatal(err)
	}
	h.Tick(snap, tick)
	after, ok := h.Context("gameplay")
	if !ok {
		t.Fatal("gameplay inactive after reload")
	}
	if after.ID == before.ID {
		t.Error("Reload kept the old instance")
	}
	if got := h.Active(); len(got) != 1 {
		t.Errorf("Active() = %v, want one context", got)
	}
}

func TestHandlerMaxDelta(t *testing.T) {
	h := NewHandler(DefaultConfig())
	h.Tick(device.NewSnapshot(), 5*time.Second)
	if got := h.Scheduler().Now(); got != 250*time.Millisecond {
		t.Errorf("Now() = %v, want 250ms", got)
	}
	if h.Registered("gameplay") {
		t.Error("Registered(gameplay) = true on an empty handler")
	}
}

func TestHandlerMetrics(t *testing.T) {
	h := newTestHandler()
	_ = h.Activate("gameplay")
	snap := device.NewSnapshot()
	snap.SetKey(device.KeySpace, true)
	h.Tick(snap, tick)
	h.Tick(snap, tick)

	m := h.Metrics().Snapshot()
	if m.Ticks != 2 || m.ActionsEvaluated != 2 {
		t.Errorf("Ticks = %d, ActionsEvaluated = %d, want 2, 2", m.Ticks, m.ActionsEvaluated)
	}
	if m.Events["started"] != 1 || m.Events["fired"] != 2 {
		t.Errorf("Events = %v", m.Events)
	}

	disabled := NewHandler(Config{})
	disabled.Tick(snap, tick)
	if disabled.Metrics().Ticks() != 0 {
		t.Error("disabled metrics recorded a tick")
	}
}
