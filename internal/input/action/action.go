// Package action implements per-action evaluation: resolving bindings into
// a single value, running action-level modifiers and conditions, and
// driving the action state machine.
package action

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/actionflow/internal/input/binding"
	"github.com/dshills/actionflow/internal/input/condition"
	"github.com/dshills/actionflow/internal/input/device"
	"github.com/dshills/actionflow/internal/input/modifier"
	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// Errors returned by Validate.
var (
	ErrNoName        = errors.New("action has no name")
	ErrInvalidAction = errors.New("invalid action")
)

// Accumulation selects how bindings with the same state are combined.
type Accumulation uint8

const (
	// MaxAbs keeps, per axis, the value with the largest magnitude.
	MaxAbs Accumulation = iota
	// Cumulative sums the values.
	Cumulative
)

// String returns the accumulation name.
func (a Accumulation) String() string {
	switch a {
	case MaxAbs:
		return "max_abs"
	case Cumulative:
		return "cumulative"
	default:
		return "unknown"
	}
}

// ParseAccumulation parses an accumulation name.
func ParseAccumulation(s string) (Accumulation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "max_abs", "maxabs", "max":
		return MaxAbs, nil
	case "cumulative", "sum":
		return Cumulative, nil
	}
	return MaxAbs, fmt.Errorf("%w: unknown accumulation %q", ErrInvalidAction, s)
}

// Settings configures how an action resolves its bindings.
type Settings struct {
	// Accumulation combines bindings that reach the same state.
	Accumulation Accumulation

	// RequireReset makes bindings wait for their input to read zero after
	// the owning context is activated, and keeps a held action consuming
	// its inputs after its context is removed.
	RequireReset bool

	// ConsumeInput marks contributing inputs as consumed when the action
	// is not None, hiding them from actions evaluated later in the tick.
	ConsumeInput bool
}

// DefaultSettings returns MaxAbs accumulation with input consumption.
func DefaultSettings() Settings {
	return Settings{Accumulation: MaxAbs, ConsumeInput: true}
}

// Action is a named semantic action evaluated once per tick.
type Action struct {
	name     string
	dim      value.Dim
	settings Settings

	bindings   []*binding.Binding
	modifiers  modifier.Chain
	conditions []condition.Condition

	state  state.State
	value  value.Value
	events state.Events
	time   Time
	mock   mock

	consumeBuffer []device.Input
}

// New creates an action with the default settings and no bindings.
func New(name string, dim value.Dim) *Action {
	return &Action{
		name:     name,
		dim:      dim,
		settings: DefaultSettings(),
		value:    value.Zero(dim),
	}
}

// WithSettings replaces the action settings.
func (a *Action) WithSettings(s Settings) *Action {
	a.settings = s
	return a
}

// WithBindings appends bindings.
func (a *Action) WithBindings(bs ...*binding.Binding) *Action {
	a.bindings = append(a.bindings, bs...)
	return a
}

// WithModifiers appends action-level modifiers.
func (a *Action) WithModifiers(mods ...modifier.Modifier) *Action {
	a.modifiers = append(a.modifiers, mods...)
	return a
}

// WithConditions appends action-level conditions.
func (a *Action) WithConditions(conds ...condition.Condition) *Action {
	a.conditions = append(a.conditions, conds...)
	return a
}

// Name returns the action name.
func (a *Action) Name() string { return a.name }

// Dim returns the declared output dimension.
func (a *Action) Dim() value.Dim { return a.dim }

// Settings returns the action settings.
func (a *Action) Settings() Settings { return a.settings }

// Bindings returns the action's bindings.
func (a *Action) Bindings() []*binding.Binding { return a.bindings }

// Modifiers returns the action-level modifier chain.
func (a *Action) Modifiers() modifier.Chain { return a.modifiers }

// Conditions returns the action-level conditions.
func (a *Action) Conditions() []condition.Condition { return a.conditions }

// State returns the current state.
func (a *Action) State() state.State { return a.state }

// Value returns the current value in the declared dimension.
func (a *Action) Value() value.Value { return a.value }

// Events returns the events raised on the last update.
func (a *Action) Events() state.Events { return a.events }

// Time returns the action's timing data.
func (a *Action) Time() Time { return a.time }

// View returns a read-only snapshot of the action.
func (a *Action) View() state.View {
	return state.View{
		Name:    a.name,
		State:   a.state,
		Value:   a.value,
		Events:  a.events,
		Elapsed: a.time.Elapsed,
		Fired:   a.time.Fired,
	}
}

// Validate checks every binding and the action-level chains.
// Binding failures are returned as *binding.Error with the action name and
// binding index filled in.
func (a *Action) Validate() error {
	if a.name == "" {
		return ErrNoName
	}
	for i, b := range a.bindings {
		if b == nil {
			return &binding.Error{Action: a.name, Index: i, Err: binding.ErrNoInput}
		}
		if _, err := b.Validate(); err != nil {
			var be *binding.Error
			if errors.As(err, &be) {
				be.Action = a.name
				be.Index = i
				return be
			}
			return &binding.Error{Action: a.name, Index: i, Input: b.Input, Err: err}
		}
	}
	if _, err := modifier.CheckChain(a.dim, a.modifiers); err != nil {
		return fmt.Errorf("action %q: %w", a.name, err)
	}
	if err := condition.Check(a.conditions); err != nil {
		return fmt.Errorf("action %q: %w", a.name, err)
	}
	return nil
}

// References returns every action name read by this action's bindings,
// modifiers and conditions.
func (a *Action) References() []string {
	var refs []string
	for _, b := range a.bindings {
		refs = append(refs, b.References()...)
	}
	refs = append(refs, a.modifiers.References()...)
	return append(refs, condition.References(a.conditions)...)
}

// ModCount returns the largest number of modifier keys any binding
// requires. Actions with more modifier keys are evaluated first so that
// Ctrl+C takes precedence over C.
func (a *Action) ModCount() int {
	n := 0
	for _, b := range a.bindings {
		if c := b.ModCount(); c > n {
			n = c
		}
	}
	return n
}

// Update evaluates the action for one tick and returns the raised events.
func (a *Action) Update(r *device.Reader, peers state.Peers, t state.Time) state.Events {
	var next state.State
	var v value.Value
	eventsBlocked := false

	if a.mock.enabled {
		next, v = a.mock.state, a.mock.value.Convert(a.dim)
		a.mock.advance(t.Delta)
	} else {
		tr := a.resolve(r, peers, t)
		next = tr.state()
		v = tr.value.Convert(a.dim)
		if tr.blocked {
			v = value.Zero(a.dim)
		}
		eventsBlocked = tr.eventsBlocked
		if a.state == state.Fired && next == state.Ongoing && v.IsZero() {
			next = state.None
		}
	}
	return a.transition(next, v, t, eventsBlocked)
}

func (a *Action) resolve(r *device.Reader, peers state.Peers, t state.Time) tracker {
	tr := newTracker(value.Zero(a.dim))
	a.consumeBuffer = a.consumeBuffer[:0]

	for _, b := range a.bindings {
		var raw value.Value
		if b.IgnoreConsumed {
			raw = r.ValueIgnoringConsumed(b.Input)
		} else {
			raw = r.Value(b.Input)
		}

		if a.settings.RequireReset && b.WaitingForReset() {
			if raw.AsBool() {
				r.Consume(b.Input)
				continue
			}
			b.Reset()
		}

		cur := newTracker(raw)
		cur.applyModifiers(peers, t, b.Modifiers)
		cur.applyConditions(peers, t, b.Conditions)

		s := cur.state()
		if s == state.None {
			continue
		}
		switch prev := tr.state(); {
		case s == prev:
			tr.combine(cur, a.settings.Accumulation)
			a.consumeBuffer = append(a.consumeBuffer, b.Input)
		case s > prev:
			tr.overwrite(cur)
			a.consumeBuffer = append(a.consumeBuffer[:0], b.Input)
		}
	}

	tr.applyModifiers(peers, t, a.modifiers)
	tr.applyConditions(peers, t, a.conditions)

	if a.settings.ConsumeInput && tr.state() != state.None {
		for _, in := range a.consumeBuffer {
			r.Consume(in)
		}
	}
	a.consumeBuffer = a.consumeBuffer[:0]
	return tr
}

func (a *Action) transition(next state.State, v value.Value, t state.Time, eventsBlocked bool) state.Events {
	a.time.update(t.Delta, a.state)
	ev := state.NewEvents(a.state, next)
	if eventsBlocked {
		ev = state.NoEvents
	}
	a.events = ev
	a.state = next
	a.value = v
	return ev
}

// Deactivate moves the action to None with a zero value, as when its
// context is removed. Returns Completed or Canceled if the action was
// active.
func (a *Action) Deactivate() state.Events {
	return a.transition(state.None, value.Zero(a.dim), state.Time{}, false)
}

// ArmReset makes every binding wait for its input to read zero before it
// contributes. It has no effect unless RequireReset is set.
func (a *Action) ArmReset() {
	if !a.settings.RequireReset {
		return
	}
	for _, b := range a.bindings {
		b.WaitForReset()
	}
}

// Held reports whether any binding input reads non-zero, ignoring
// consumption and pending state.
func (a *Action) Held(r *device.Reader) bool {
	for _, b := range a.bindings {
		if r.Raw(b.Input).AsBool() {
			return true
		}
	}
	return false
}

// ConsumeAll marks every binding input as consumed.
func (a *Action) ConsumeAll(r *device.Reader) {
	for _, b := range a.bindings {
		r.Consume(b.Input)
	}
}

// PendInputs hides every held binding input from all actions until it
// reads zero.
func (a *Action) PendInputs(r *device.Reader) {
	for _, b := range a.bindings {
		if r.Raw(b.Input).AsBool() {
			r.AddPending(b.Input)
		}
	}
}

// Adopt continues the runtime state of prev, an earlier instance of the
// same action. Bindings do not wait for reset afterwards.
func (a *Action) Adopt(prev *Action) {
	a.state = prev.state
	a.value = prev.value.Convert(a.dim)
	a.time = prev.time
	a.mock = prev.mock
	for _, b := range a.bindings {
		b.Reset()
	}
}

// String returns the action name and dimension.
func (a *Action) String() string {
	return fmt.Sprintf("%s(%s)", a.name, a.dim)
}
