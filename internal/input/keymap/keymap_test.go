package keymap

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dshills/actionflow/internal/input"
	"github.com/dshills/actionflow/internal/input/device"
	"github.com/dshills/actionflow/internal/input/modifier"
	"github.com/dshills/actionflow/internal/input/state"
)

// describe renders a built context, including modifier and condition
// parameters, so contexts built from different sources can be compared.
func describe(c *input.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "context %s priority=%d gamepad=%s\n", c.Name, c.Priority(), c.Gamepad())
	for _, a := range c.Actions() {
		fmt.Fprintf(&b, "  action %s dim=%s settings=%+v\n", a.Name(), a.Dim(), a.Settings())
		for _, bd := range a.Bindings() {
			fmt.Fprintf(&b, "    binding %s ignore_consumed=%t\n", bd, bd.IgnoreConsumed)
			for _, m := range bd.Modifiers {
				fmt.Fprintf(&b, "      modifier %T%+v\n", m, m)
			}
			for _, cond := range bd.Conditions {
				fmt.Fprintf(&b, "      condition %T%+v\n", cond, cond)
			}
		}
		for _, m := range a.Modifiers() {
			fmt.Fprintf(&b, "    modifier %T%+v\n", m, m)
		}
		for _, cond := range a.Conditions() {
			fmt.Fprintf(&b, "    condition %T%+v\n", cond, cond)
		}
	}
	return b.String()
}

func TestKeymapBuilders(t *testing.T) {
	km := NewKeymap("test").
		WithPriority(10).
		WithSource("test-source").
		WithGamepad("2").
		Add(Action{Name: "jump", Bindings: []Binding{Bind("Space")}})

	if km.Priority != 10 {
		t.Errorf("Priority = %d, want %d", km.Priority, 10)
	}
	if km.Source != "test-source" {
		t.Errorf("Source = %q, want %q", km.Source, "test-source")
	}

	c, err := km.Build(nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if c.Name != "test" || c.Priority() != 10 {
		t.Errorf("context = %s/%d, want test/10", c.Name, c.Priority())
	}
	if id, ok := c.Gamepad().ID(); !ok || id != 2 {
		t.Errorf("Gamepad() = %v, want gamepad 2", c.Gamepad())
	}
	if _, ok := c.Action("jump"); !ok {
		t.Error("jump action missing")
	}
}

func TestBuildDefaultsAndSettings(t *testing.T) {
	off := false
	km := NewKeymap("k").Add(Action{
		Name:         "move",
		Dim:          "axis2d",
		Accumulation: "cumulative",
		RequireReset: true,
		ConsumeInput: &off,
		Bindings:     []Binding{BindPreset("WASD")},
	})
	c, err := km.Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := c.Action("move")
	s := a.Settings()
	if !s.RequireReset || s.ConsumeInput || s.Accumulation.String() != "cumulative" {
		t.Errorf("Settings() = %+v", s)
	}
	if len(a.Bindings()) != 4 {
		t.Errorf("wasd expanded to %d bindings, want 4", len(a.Bindings()))
	}

	plain, _ := NewKeymap("p").Add(Action{Name: "x", Bindings: []Binding{Bind("KeyX")}}).Build(nil)
	x, _ := plain.Action("x")
	if !x.Settings().ConsumeInput {
		t.Error("ConsumeInput should default to true")
	}
}

func TestBuildFreshInstances(t *testing.T) {
	km := NewKeymap("k").Add(Action{
		Name: "fire",
		Bindings: []Binding{
			BindPreset("arrows").WithConditions(NewSpec("hold", "duration", "1s")),
		},
	})
	first, err := km.Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := km.Build(nil)

	if first.ID == second.ID {
		t.Error("builds share a context ID")
	}
	a, _ := first.Action("fire")
	b, _ := second.Action("fire")
	if a == b || a.Bindings()[0].Conditions[0] == b.Bindings()[0].Conditions[0] {
		t.Error("builds share runtime state")
	}
	if a.Bindings()[0].Conditions[0] == a.Bindings()[1].Conditions[0] {
		t.Error("preset bindings share a condition instance")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		keymap  *Keymap
		want    error
		action  string
		binding int
	}{
		{
			name:    "empty name",
			keymap:  NewKeymap(""),
			want:    ErrInvalidKeymap,
			binding: -1,
		},
		{
			name:    "bad gamepad",
			keymap:  NewKeymap("k").WithGamepad("first"),
			want:    ErrInvalidKeymap,
			binding: -1,
		},
		{
			name: "duplicate action",
			keymap: NewKeymap("k").
				Add(Action{Name: "a"}).
				Add(Action{Name: "a"}),
			want:    input.ErrDuplicateAction,
			action:  "a",
			binding: -1,
		},
		{
			name: "input and preset",
			keymap: NewKeymap("k").Add(Action{Name: "a", Bindings: []Binding{
				{Input: "KeyA", Preset: "wasd"},
			}}),
			want:    ErrInvalidKeymap,
			action:  "a",
			binding: 0,
		},
		{
			name: "unknown preset",
			keymap: NewKeymap("k").Add(Action{Name: "a", Bindings: []Binding{
				Bind("KeyA"), BindPreset("numpad"),
			}}),
			want:    ErrInvalidKeymap,
			action:  "a",
			binding: 1,
		},
		{
			name: "bad input",
			keymap: NewKeymap("k").Add(Action{Name: "a", Bindings: []Binding{
				Bind("Hyper+KeyA"),
			}}),
			want:    device.ErrInvalidSpec,
			action:  "a",
			binding: 0,
		},
		{
			name: "unknown modifier",
			keymap: NewKeymap("k").Add(Action{Name: "a", Bindings: []Binding{
				Bind("KeyA").WithModifiers(NewSpec("wobble")),
			}}),
			want:    ErrUnknownType,
			action:  "a",
			binding: 0,
		},
		{
			name: "unknown param",
			keymap: NewKeymap("k").Add(Action{Name: "a", Conditions: []Spec{
				NewSpec("hold", "duraton", "1s"),
			}}),
			want:    ErrInvalidParams,
			action:  "a",
			binding: -1,
		},
		{
			name: "invalid modifier range",
			keymap: NewKeymap("k").Add(Action{Name: "a", Dim: "axis1d", Modifiers: []Spec{
				NewSpec("clamp", "min", 1, "max", -1),
			}}),
			want:    modifier.ErrInvalidModifier,
			action:  "a",
			binding: -1,
		},
		{
			name:    "bad dim",
			keymap:  NewKeymap("k").Add(Action{Name: "a", Dim: "axis4d"}),
			action:  "a",
			binding: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.keymap.Build(nil)
			if err == nil {
				t.Fatal("Build succeeded, want error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			var ke *Error
			if !errors.As(err, &ke) {
				t.Fatalf("error %T is not a keymap error", err)
			}
			if ke.Action != tt.action || ke.Binding != tt.binding {
				t.Errorf("location = %q/%d, want %q/%d", ke.Action, ke.Binding, tt.action, tt.binding)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	err := &Error{Keymap: "k", Source: "k.toml", Action: "jump", Binding: 2, Err: ErrInvalidKeymap}
	want := `keymap "k" (k.toml): action "jump": binding 2: invalid keymap`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrInvalidKeymap) {
		t.Error("Unwrap lost the cause")
	}
}

func TestClone(t *testing.T) {
	on := true
	km := NewKeymap("k").Add(Action{
		Name:         "a",
		ConsumeInput: &on,
		Bindings:     []Binding{Bind("KeyA").WithModifiers(NewSpec("scale", "factor", 2))},
	})
	clone := km.Clone()
	clone.Actions[0].Bindings[0].Modifiers[0].Params["factor"] = 3
	*clone.Actions[0].ConsumeInput = false
	clone.Actions[0].Name = "b"

	if km.Actions[0].Bindings[0].Modifiers[0].Params["factor"] != 2 {
		t.Error("Clone shares params")
	}
	if !*km.Actions[0].ConsumeInput || km.Actions[0].Name != "a" {
		t.Error("Clone shares action fields")
	}
}

func TestDefaults(t *testing.T) {
	r := NewRegistry(nil)
	if err := LoadDefaults(r); err != nil {
		t.Fatalf("LoadDefaults failed: %v", err)
	}
	if got := strings.Join(r.Names(), ","); got != "gameplay,menu" {
		t.Errorf("Names() = %q", got)
	}

	menu, err := DefaultMenuKeymap().Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	snap := device.NewSnapshot()
	snap.SetKey(device.KeyEnter, true)
	sched := input.NewScheduler(nil, nil)
	sched.Update(snap, []*input.Context{menu}, 0, nil)
	if v, _ := menu.View("confirm"); v.State != state.Fired {
		t.Errorf("confirm State = %v, want fired", v.State)
	}
}
