package action

import (
	"errors"
	"testing"
	"time"

	"github.com/dshills/actionflow/internal/input/binding"
	"github.com/dshills/actionflow/internal/input/condition"
	"github.com/dshills/actionflow/internal/input/device"
	"github.com/dshills/actionflow/internal/input/modifier"
	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

const tick = 100 * time.Millisecond

type harness struct {
	snap   *device.Snapshot
	reader *device.Reader
	now    time.Duration
}

func newHarness() *harness {
	h := &harness{snap: device.NewSnapshot(), reader: device.NewReader()}
	h.reader.SetSnapshot(h.snap)
	return h
}

// step runs one tick for the actions in order, clearing consumption first.
func (h *harness) step(delta time.Duration, peers state.Peers, actions ...*Action) []state.Events {
	h.now += delta
	h.reader.ClearConsumed()
	t := state.Time{Delta: delta, Now: h.now}
	out := make([]state.Events, len(actions))
	for i, a := range actions {
		out[i] = a.Update(h.reader, peers, t)
	}
	return out
}

func TestKeyLifecycle(t *testing.T) {
	h := newHarness()
	jump := New("jump", value.DimBool).WithBindings(binding.New(device.Key(device.KeySpace)))

	tests := []struct {
		pressed    bool
		wantState  state.State
		wantEvents state.Events
	}{
		{false, state.None, state.NoEvents},
		{true, state.Fired, state.Started | state.FiredEvent},
		{true, state.Fired, state.FiredEvent},
		{false, state.None, state.Completed},
		{false, state.None, state.NoEvents},
	}

	for i, tt := range tests {
		h.snap.SetKey(device.KeySpace, tt.pressed)
		ev := h.step(tick, state.NoPeers, jump)[0]
		if jump.State() != tt.wantState {
			t.Errorf("tick %d: State() = %v, want %v", i, jump.State(), tt.wantState)
		}
		if ev != tt.wantEvents {
			t.Errorf("tick %d: events = %v, want %v", i, ev, tt.wantEvents)
		}
		if jump.Value().AsBool() != tt.pressed {
			t.Errorf("tick %d: Value() = %v, want %v", i, jump.Value(), tt.pressed)
		}
	}
}

func TestMaxAbsAccumulation(t *testing.T) {
	h := newHarness()
	h.snap.ConnectGamepad(0)
	h.snap.SetGamepadAxis(0, device.LeftStickX, 0.3)
	h.snap.SetGamepadAxis(0, device.RightStickX, -0.7)

	move := New("move", value.DimAxis1D).WithBindings(
		binding.New(device.Axis(device.LeftStickX)),
		binding.New(device.Axis(device.RightStickX)),
	)
	h.step(tick, state.NoPeers, move)

	if got := move.Value().AsAxis1D(); got != -0.7 {
		t.Errorf("Value() = %v, want -0.7", got)
	}
	if move.State() != state.Fired {
		t.Errorf("State() = %v, want fired", move.State())
	}
}

func TestCumulativeAccumulation(t *testing.T) {
	h := newHarness()
	move := New("move", value.DimAxis2D).
		WithSettings(Settings{Accumulation: Cumulative, ConsumeInput: true}).
		WithBindings(binding.WASD().Bindings()...)

	h.snap.SetKey(device.KeyW, true)
	h.snap.SetKey(device.KeyD, true)
	h.step(tick, state.NoPeers, move)
	if x, y := move.Value().AsAxis2D(); x != 1 || y != 1 {
		t.Errorf("W+D = (%v, %v), want (1, 1)", x, y)
	}

	h.snap.SetKey(device.KeyS, true)
	h.step(tick, state.NoPeers, move)
	if x, y := move.Value().AsAxis2D(); x != 1 || y != 0 {
		t.Errorf("W+S+D = (%v, %v), want (1, 0)", x, y)
	}
}

func TestCardinalMaxAbsDiagonal(t *testing.T) {
	h := newHarness()
	move := New("move", value.DimAxis2D).WithBindings(binding.ArrowKeys().Bindings()...)

	h.snap.SetKey(device.KeyArrowUp, true)
	h.snap.SetKey(device.KeyArrowLeft, true)
	h.step(tick, state.NoPeers, move)
	if x, y := move.Value().AsAxis2D(); x != -1 || y != 1 {
		t.Errorf("Up+Left = (%v, %v), want (-1, 1)", x, y)
	}
}

func TestHoldCanceledBeforeDuration(t *testing.T) {
	h := newHarness()
	charge := New("charge", value.DimBool).
		WithBindings(binding.New(device.Key(device.KeyE))).
		WithConditions(condition.NewHold(time.Second))

	h.snap.SetKey(device.KeyE, true)
	var got []state.State
	for i := 0; i < 3; i++ {
		h.step(330*time.Millisecond, state.NoPeers, charge)
		got = append(got, charge.State())
	}
	h.snap.SetKey(device.KeyE, false)
	ev := h.step(330*time.Millisecond, state.NoPeers, charge)[0]
	got = append(got, charge.State())

	want := []state.State{state.Ongoing, state.Ongoing, state.Ongoing, state.None}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tick %d: State() = %v, want %v", i, got[i], want[i])
		}
	}
	if ev != state.Canceled {
		t.Errorf("release events = %v, want canceled", ev)
	}
}

func TestHoldFiresAtDuration(t *testing.T) {
	h := newHarness()
	charge := New("charge", value.DimBool).
		WithBindings(binding.New(device.Key(device.KeyE))).
		WithConditions(condition.NewHold(time.Second))

	h.snap.SetKey(device.KeyE, true)
	var ev state.Events
	for i := 0; i < 4; i++ {
		ev = h.step(250*time.Millisecond, state.NoPeers, charge)[0]
	}
	if charge.State() != state.Fired {
		t.Fatalf("State() = %v, want fired", charge.State())
	}
	if ev != state.FiredEvent {
		t.Errorf("events = %v, want fired", ev)
	}
}

func TestConsumption(t *testing.T) {
	h := newHarness()
	first := New("first", value.DimBool).WithBindings(binding.New(device.Key(device.KeyF)))
	second := New("second", value.DimBool).WithBindings(binding.New(device.Key(device.KeyF)))
	observer := New("observer", value.DimBool).WithBindings(binding.New(device.Key(device.KeyF)).WithIgnoreConsumed())

	h.snap.SetKey(device.KeyF, true)
	h.step(tick, state.NoPeers, first, second, observer)

	if first.State() != state.Fired {
		t.Errorf("first State() = %v, want fired", first.State())
	}
	if second.State() != state.None || second.Value().AsBool() {
		t.Errorf("second = %v %v, want none with zero value", second.State(), second.Value())
	}
	if observer.State() != state.Fired {
		t.Errorf("observer State() = %v, want fired", observer.State())
	}
}

func TestNoConsumption(t *testing.T) {
	h := newHarness()
	s := DefaultSettings()
	s.ConsumeInput = false
	first := New("first", value.DimBool).WithSettings(s).WithBindings(binding.New(device.Key(device.KeyF)))
	second := New("second", value.DimBool).WithBindings(binding.New(device.Key(device.KeyF)))

	h.snap.SetKey(device.KeyF, true)
	h.step(tick, state.NoPeers, first, second)
	if second.State() != state.Fired {
		t.Errorf("second State() = %v, want fired", second.State())
	}
}

func TestNoneDoesNotConsume(t *testing.T) {
	h := newHarness()
	// Press returns None while held, so the second tick must leave the key
	// visible to later actions.
	tap := New("tap", value.DimBool).WithBindings(
		binding.New(device.Key(device.KeyQ)).WithConditions(condition.NewPress()),
	)
	hold := New("hold", value.DimBool).WithBindings(binding.New(device.Key(device.KeyQ)))

	h.snap.SetKey(device.KeyQ, true)
	h.step(tick, state.NoPeers, tap, hold)
	if hold.State() != state.None {
		t.Errorf("tick 1: hold State() = %v, want none", hold.State())
	}
	h.step(tick, state.NoPeers, tap, hold)
	if tap.State() != state.None {
		t.Errorf("tick 2: tap State() = %v, want none", tap.State())
	}
	if hold.State() != state.Fired {
		t.Errorf("tick 2: hold State() = %v, want fired", hold.State())
	}
}

func TestModKeyConsumption(t *testing.T) {
	h := newHarness()
	copyAction := New("copy", value.DimBool).WithBindings(binding.MustParse("Ctrl+KeyC"))
	plain := New("c", value.DimBool).WithBindings(binding.MustParse("KeyC"))

	h.snap.SetKey(device.KeyControlLeft, true)
	h.snap.SetKey(device.KeyC, true)
	h.step(tick, state.NoPeers, copyAction, plain)

	if copyAction.State() != state.Fired {
		t.Errorf("copy State() = %v, want fired", copyAction.State())
	}
	if plain.State() != state.None {
		t.Errorf("c State() = %v, want none", plain.State())
	}
	if copyAction.ModCount() != 1 || plain.ModCount() != 0 {
		t.Errorf("ModCount() = %d, %d, want 1, 0", copyAction.ModCount(), plain.ModCount())
	}
}

func TestRequireReset(t *testing.T) {
	h := newHarness()
	s := DefaultSettings()
	s.RequireReset = true
	jump := New("jump", value.DimBool).WithSettings(s).WithBindings(binding.New(device.Key(device.KeySpace)))
	other := New("other", value.DimBool).WithBindings(binding.New(device.Key(device.KeySpace)))
	jump.ArmReset()

	h.snap.SetKey(device.KeySpace, true)
	h.step(tick, state.NoPeers, jump, other)
	if jump.State() != state.None {
		t.Errorf("held on activation: State() = %v, want none", jump.State())
	}
	if other.State() != state.None {
		t.Errorf("held on activation: other State() = %v, want none (consumed)", other.State())
	}

	h.snap.SetKey(device.KeySpace, false)
	h.step(tick, state.NoPeers, jump, other)

	h.snap.SetKey(device.KeySpace, true)
	ev := h.step(tick, state.NoPeers, jump, other)[0]
	if jump.State() != state.Fired {
		t.Errorf("after reset: State() = %v, want fired", jump.State())
	}
	if ev != state.Started|state.FiredEvent {
		t.Errorf("after reset: events = %v, want started|fired", ev)
	}
}

func TestArmResetWithoutSetting(t *testing.T) {
	b := binding.New(device.Key(device.KeySpace))
	New("jump", value.DimBool).WithBindings(b).ArmReset()
	if b.WaitingForReset() {
		t.Error("ArmReset() armed a binding without RequireReset")
	}
}

func TestFiredToOngoingNeedsValue(t *testing.T) {
	h := newHarness()
	// Fires while held, otherwise reports Ongoing regardless of value.
	sticky := condition.Func(func(_ state.Peers, _ state.Time, v value.Value) state.State {
		if v.AsBool() {
			return state.Fired
		}
		return state.Ongoing
	})
	a := New("sticky", value.DimBool).WithBindings(binding.New(device.Key(device.KeyX))).WithConditions(sticky)

	h.snap.SetKey(device.KeyX, true)
	h.step(tick, state.NoPeers, a)
	if a.State() != state.Fired {
		t.Fatalf("State() = %v, want fired", a.State())
	}

	h.snap.SetKey(device.KeyX, false)
	ev := h.step(tick, state.NoPeers, a)[0]
	if a.State() != state.None {
		t.Errorf("State() = %v, want none", a.State())
	}
	if ev != state.Completed {
		t.Errorf("events = %v, want completed", ev)
	}
}

func TestChord(t *testing.T) {
	h := newHarness()
	fire := New("fire", value.DimBool).
		WithBindings(binding.New(device.Key(device.KeySpace))).
		WithConditions(condition.NewChord("aim", "crouch"))

	h.snap.SetKey(device.KeySpace, true)
	peers := state.PeerMap{
		"aim":    {Name: "aim", State: state.Fired},
		"crouch": {Name: "crouch", State: state.None},
	}
	for i := 0; i < 5; i++ {
		h.step(tick, peers, fire)
		if fire.State() > state.Ongoing {
			t.Fatalf("tick %d: State() = %v, want at most ongoing", i, fire.State())
		}
	}

	peers["crouch"] = state.View{Name: "crouch", State: state.Fired}
	h.step(tick, peers, fire)
	if fire.State() != state.Fired {
		t.Errorf("State() = %v, want fired", fire.State())
	}
}

func TestBlockBy(t *testing.T) {
	h := newHarness()
	walk := New("walk", value.DimBool).
		WithBindings(binding.New(device.Key(device.KeyW))).
		WithConditions(condition.NewBlockBy("menu"))

	h.snap.SetKey(device.KeyW, true)
	peers := state.PeerMap{"menu": {Name: "menu", State: state.Fired}}
	h.step(tick, peers, walk)
	if walk.State() != state.None || walk.Value().AsBool() {
		t.Errorf("blocked = %v %v, want none with zero value", walk.State(), walk.Value())
	}

	peers["menu"] = state.View{Name: "menu"}
	h.step(tick, peers, walk)
	if walk.State() != state.Fired {
		t.Errorf("unblocked State() = %v, want fired", walk.State())
	}
}

func TestBlockByEventsOnly(t *testing.T) {
	h := newHarness()
	block := condition.NewBlockBy("menu")
	block.EventsOnly = true
	walk := New("walk", value.DimBool).
		WithBindings(binding.New(device.Key(device.KeyW))).
		WithConditions(block)

	h.snap.SetKey(device.KeyW, true)
	peers := state.PeerMap{"menu": {Name: "menu", State: state.Fired}}
	ev := h.step(tick, peers, walk)[0]
	if walk.State() != state.Fired || !walk.Value().AsBool() {
		t.Errorf("events-blocked = %v %v, want fired with value", walk.State(), walk.Value())
	}
	if !ev.IsEmpty() {
		t.Errorf("events = %v, want none", ev)
	}
}

func TestMockUpdates(t *testing.T) {
	h := newHarness()
	jump := New("jump", value.DimBool).WithBindings(binding.New(device.Key(device.KeySpace)))
	jump.Mock(state.Fired, value.Bool(true), Updates(2))

	want := []state.State{state.Fired, state.Fired, state.None}
	for i, w := range want {
		h.step(tick, state.NoPeers, jump)
		if jump.State() != w {
			t.Errorf("tick %d: State() = %v, want %v", i, jump.State(), w)
		}
	}
	if jump.Mocked() {
		t.Error("Mocked() = true after span expired")
	}
}

func TestMockIgnoresBindings(t *testing.T) {
	h := newHarness()
	jump := New("jump", value.DimBool).WithBindings(binding.New(device.Key(device.KeySpace)))
	other := New("other", value.DimBool).WithBindings(binding.New(device.Key(device.KeySpace)))
	jump.Mock(state.None, value.Bool(false), Manual())

	h.snap.SetKey(device.KeySpace, true)
	for i := 0; i < 3; i++ {
		h.step(tick, state.NoPeers, jump, other)
	}
	if jump.State() != state.None {
		t.Errorf("State() = %v, want none", jump.State())
	}
	if other.State() != state.Fired {
		t.Errorf("other State() = %v, want fired (input not consumed)", other.State())
	}

	jump.ClearMock()
	h.step(tick, state.NoPeers, jump)
	if jump.State() != state.Fired {
		t.Errorf("after ClearMock State() = %v, want fired", jump.State())
	}
}

func TestMockDuration(t *testing.T) {
	h := newHarness()
	move := New("move", value.DimAxis2D)
	move.Mock(state.Fired, value.Axis2D(1, 0), For(250*time.Millisecond))

	want := []state.State{state.Fired, state.Fired, state.Fired, state.None}
	for i, w := range want {
		h.step(tick, state.NoPeers, move)
		if move.State() != w {
			t.Errorf("tick %d: State() = %v, want %v", i, move.State(), w)
		}
	}
}

func TestMockOnce(t *testing.T) {
	h := newHarness()
	a := New("a", value.DimAxis1D)
	a.MockOnce(state.Fired, value.Axis2D(0.5, 1))
	h.step(tick, state.NoPeers, a)
	if a.Value() != value.Axis1D(0.5) {
		t.Errorf("Value() = %v, want converted 0.5", a.Value())
	}
	h.step(tick, state.NoPeers, a)
	if a.State() != state.None {
		t.Errorf("State() = %v, want none", a.State())
	}
}

func TestTime(t *testing.T) {
	h := newHarness()
	a := New("a", value.DimBool).
		WithBindings(binding.New(device.Key(device.KeyA))).
		WithConditions(condition.NewHold(200 * time.Millisecond))

	h.snap.SetKey(device.KeyA, true)
	want := []Time{
		{0, 0},
		{tick, 0},
		{2 * tick, tick},
		{3 * tick, 2 * tick},
	}
	for i, w := range want {
		h.step(tick, state.NoPeers, a)
		if a.Time() != w {
			t.Errorf("tick %d: Time() = %+v, want %+v", i, a.Time(), w)
		}
	}

	h.snap.SetKey(device.KeyA, false)
	h.step(tick, state.NoPeers, a)
	h.step(tick, state.NoPeers, a)
	if a.Time() != (Time{}) {
		t.Errorf("after release Time() = %+v, want zero", a.Time())
	}
}

func TestDeactivate(t *testing.T) {
	tests := []struct {
		name string
		st   state.State
		want state.Events
	}{
		{"fired", state.Fired, state.Completed},
		{"ongoing", state.Ongoing, state.Canceled},
		{"none", state.None, state.NoEvents},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			a := New("a", value.DimAxis1D)
			a.MockOnce(tt.st, value.Axis1D(1))
			h.step(tick, state.NoPeers, a)

			if ev := a.Deactivate(); ev != tt.want {
				t.Errorf("Deactivate() = %v, want %v", ev, tt.want)
			}
			if a.State() != state.None || !a.Value().IsZero() {
				t.Errorf("after Deactivate = %v %v", a.State(), a.Value())
			}
		})
	}
}

func TestHeldAndPendInputs(t *testing.T) {
	h := newHarness()
	a := New("a", value.DimBool).WithBindings(binding.New(device.Key(device.KeyA)), binding.New(device.Key(device.KeyB)))
	other := New("other", value.DimBool).WithBindings(binding.New(device.Key(device.KeyA)))

	if a.Held(h.reader) {
		t.Error("Held() = true with nothing pressed")
	}
	h.snap.SetKey(device.KeyA, true)
	h.reader.Consume(device.Key(device.KeyA))
	if !a.Held(h.reader) {
		t.Error("Held() = false for a consumed but pressed key")
	}

	a.PendInputs(h.reader)
	if h.reader.PendingCount() != 1 {
		t.Errorf("PendingCount() = %d, want 1", h.reader.PendingCount())
	}
	h.step(tick, state.NoPeers, other)
	if other.State() != state.None {
		t.Errorf("pending input read by other: State() = %v", other.State())
	}
}

func TestAdopt(t *testing.T) {
	h := newHarness()
	s := DefaultSettings()
	s.RequireReset = true
	old := New("jump", value.DimBool).WithSettings(s).WithBindings(binding.New(device.Key(device.KeySpace)))
	h.snap.SetKey(device.KeySpace, true)
	h.step(tick, state.NoPeers, old)

	fresh := New("jump", value.DimBool).WithSettings(s).WithBindings(binding.New(device.Key(device.KeySpace)))
	fresh.ArmReset()
	fresh.Adopt(old)
	ev := h.step(tick, state.NoPeers, fresh)[0]
	if fresh.State() != state.Fired {
		t.Errorf("State() = %v, want fired", fresh.State())
	}
	if ev.Has(state.Started) {
		t.Errorf("events = %v, want no started", ev)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		a       *Action
		wantErr error
	}{
		{"ok", New("a", value.DimBool).WithBindings(binding.New(device.Key(device.KeyA))), nil},
		{"no name", New("", value.DimBool), ErrNoName},
		{"bad binding", New("a", value.DimBool).WithBindings(binding.New(device.Key(device.KeyA)), binding.New(device.Input{})), binding.ErrNoInput},
		{"bad modifier", New("a", value.DimAxis1D).WithModifiers(modifier.NewClamp(1, -1)), modifier.ErrInvalidModifier},
		{"bad condition", New("a", value.DimBool).WithConditions(condition.NewTap(0)), condition.ErrInvalidCondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	err := New("a", value.DimBool).WithBindings(binding.New(device.Key(device.KeyA)), binding.New(device.Input{})).Validate()
	var be *binding.Error
	if !errors.As(err, &be) {
		t.Fatalf("Validate() = %T, want *binding.Error", err)
	}
	if be.Action != "a" || be.Index != 1 {
		t.Errorf("binding.Error = %+v, want action a index 1", be)
	}
}

func TestReferences(t *testing.T) {
	a := New("a", value.DimAxis1D).
		WithBindings(binding.New(device.Key(device.KeyA)).WithConditions(condition.NewChord("b"))).
		WithModifiers(modifier.NewAccumulateBy("c")).
		WithConditions(condition.NewBlockBy("d"))

	got := a.References()
	want := []string{"b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("References() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("References()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseAccumulation(t *testing.T) {
	tests := []struct {
		in      string
		want    Accumulation
		wantErr bool
	}{
		{"", MaxAbs, false},
		{"max_abs", MaxAbs, false},
		{"Cumulative", Cumulative, false},
		{"median", MaxAbs, true},
	}
	for _, tt := range tests {
		got, err := ParseAccumulation(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAccumulation(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseAccumulation(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
