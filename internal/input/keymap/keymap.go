package keymap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/actionflow/internal/input"
	"github.com/dshills/actionflow/internal/input/action"
	"github.com/dshills/actionflow/internal/input/device"
	"github.com/dshills/actionflow/internal/input/value"
)

// ErrInvalidKeymap is returned for structurally invalid keymaps.
var ErrInvalidKeymap = errors.New("invalid keymap")

// Error describes a keymap that failed to build. Action and Binding
// locate the failing definition when known; Binding is -1 for errors
// outside a binding.
type Error struct {
	Keymap  string
	Source  string
	Action  string
	Binding int
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "keymap %q", e.Keymap)
	if e.Source != "" {
		fmt.Fprintf(&b, " (%s)", e.Source)
	}
	if e.Action != "" {
		fmt.Fprintf(&b, ": action %q", e.Action)
	}
	if e.Binding >= 0 {
		fmt.Fprintf(&b, ": binding %d", e.Binding)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Keymap is a declarative context definition. Each Build produces a fresh
// context with its own modifier and condition state.
type Keymap struct {
	// Name is the context name.
	Name string `json:"name" yaml:"name" toml:"name"`

	// Priority orders the context against other active contexts.
	// Higher priority wins. Default is 0.
	Priority int `json:"priority,omitempty" yaml:"priority,omitempty" toml:"priority,omitempty"`

	// Gamepad selects the gamepad bindings read: "any" (default), "none"
	// or a gamepad ID.
	Gamepad string `json:"gamepad,omitempty" yaml:"gamepad,omitempty" toml:"gamepad,omitempty"`

	// Actions are evaluated in this order, except that actions requiring
	// more modifier keys go first.
	Actions []Action `json:"actions" yaml:"actions" toml:"actions"`

	// Source indicates where this keymap was defined, such as "default"
	// or a file path.
	Source string `json:"-" yaml:"-" toml:"-"`
}

// Action defines one action of a keymap.
type Action struct {
	Name string `json:"name" yaml:"name" toml:"name"`

	// Dim is the output dimension: bool, axis1d, axis2d or axis3d.
	Dim string `json:"dim,omitempty" yaml:"dim,omitempty" toml:"dim,omitempty"`

	// Accumulation is max_abs (default) or cumulative.
	Accumulation string `json:"accumulation,omitempty" yaml:"accumulation,omitempty" toml:"accumulation,omitempty"`
	RequireReset bool   `json:"require_reset,omitempty" yaml:"require_reset,omitempty" toml:"require_reset,omitempty"`

	// ConsumeInput defaults to true when unset.
	ConsumeInput *bool `json:"consume_input,omitempty" yaml:"consume_input,omitempty" toml:"consume_input,omitempty"`

	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`

	Bindings   []Binding `json:"bindings,omitempty" yaml:"bindings,omitempty" toml:"bindings,omitempty"`
	Modifiers  []Spec    `json:"modifiers,omitempty" yaml:"modifiers,omitempty" toml:"modifiers,omitempty"`
	Conditions []Spec    `json:"conditions,omitempty" yaml:"conditions,omitempty" toml:"conditions,omitempty"`
}

// Spec names a modifier or condition type with its parameters.
type Spec struct {
	Type   string         `json:"type" yaml:"type" toml:"type"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
}

// NewSpec creates a Spec with optional parameters given as key/value pairs.
func NewSpec(typ string, params ...any) Spec {
	s := Spec{Type: typ}
	if len(params) > 0 {
		s.Params = make(map[string]any, len(params)/2)
		for i := 0; i+1 < len(params); i += 2 {
			if k, ok := params[i].(string); ok {
				s.Params[k] = params[i+1]
			}
		}
	}
	return s
}

// NewKeymap creates an empty keymap with the given name.
func NewKeymap(name string) *Keymap {
	return &Keymap{Name: name}
}

// WithPriority sets the priority for this keymap.
func (k *Keymap) WithPriority(priority int) *Keymap {
	k.Priority = priority
	return k
}

// WithSource sets the source for this keymap.
func (k *Keymap) WithSource(source string) *Keymap {
	k.Source = source
	return k
}

// WithGamepad sets the gamepad selection for this keymap.
func (k *Keymap) WithGamepad(gamepad string) *Keymap {
	k.Gamepad = gamepad
	return k
}

// Add appends an action definition.
func (k *Keymap) Add(a Action) *Keymap {
	k.Actions = append(k.Actions, a)
	return k
}

// Validate checks the keymap structure without building it.
func (k *Keymap) Validate() error {
	if k.Name == "" {
		return k.errorf("", -1, fmt.Errorf("%w: empty name", ErrInvalidKeymap))
	}
	if _, err := parseGamepad(k.Gamepad); err != nil {
		return k.errorf("", -1, err)
	}
	seen := make(map[string]struct{}, len(k.Actions))
	for i, a := range k.Actions {
		if a.Name == "" {
			return k.errorf("", -1, fmt.Errorf("%w: action %d has no name", ErrInvalidKeymap, i))
		}
		if _, dup := seen[a.Name]; dup {
			return k.errorf(a.Name, -1, fmt.Errorf("%w: %q", input.ErrDuplicateAction, a.Name))
		}
		seen[a.Name] = struct{}{}
		for j, b := range a.Bindings {
			if (b.Input == "") == (b.Preset == "") {
				return k.errorf(a.Name, j, fmt.Errorf("%w: binding needs exactly one of input or preset", ErrInvalidKeymap))
			}
		}
	}
	return nil
}

// Build creates a fresh context from the keymap using f to construct
// modifiers and conditions. A nil factory uses the built-in types only.
func (k *Keymap) Build(f *Factory) (*input.Context, error) {
	if f == nil {
		f = NewFactory()
	}
	if err := k.Validate(); err != nil {
		return nil, err
	}
	gamepad, _ := parseGamepad(k.Gamepad)

	actions := make([]*action.Action, 0, len(k.Actions))
	for _, def := range k.Actions {
		a, err := k.buildAction(f, def)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	c := input.NewContext(k.Name, k.Priority).WithGamepad(gamepad).WithActions(actions...)
	if err := c.Validate(); err != nil {
		return nil, k.errorf("", -1, err)
	}
	return c, nil
}

// Builder adapts the keymap to input.Builder so handlers can activate it
// by name.
func (k *Keymap) Builder(f *Factory) input.Builder {
	return input.BuilderFunc{
		ContextName: k.Name,
		Fn:          func() (*input.Context, error) { return k.Build(f) },
	}
}

func (k *Keymap) buildAction(f *Factory, def Action) (*action.Action, error) {
	dim := value.DimBool
	if def.Dim != "" {
		d, err := value.ParseDim(def.Dim)
		if err != nil {
			return nil, k.errorf(def.Name, -1, err)
		}
		dim = d
	}

	settings := action.DefaultSettings()
	acc, err := action.ParseAccumulation(def.Accumulation)
	if err != nil {
		return nil, k.errorf(def.Name, -1, err)
	}
	settings.Accumulation = acc
	settings.RequireReset = def.RequireReset
	if def.ConsumeInput != nil {
		settings.ConsumeInput = *def.ConsumeInput
	}

	a := action.New(def.Name, dim).WithSettings(settings)

	for j, bdef := range def.Bindings {
		bindings, err := bdef.build(f)
		if err != nil {
			return nil, k.errorf(def.Name, j, err)
		}
		a.WithBindings(bindings...)
	}

	mods, err := f.Modifiers(def.Modifiers)
	if err != nil {
		return nil, k.errorf(def.Name, -1, err)
	}
	conds, err := f.Conditions(def.Conditions)
	if err != nil {
		return nil, k.errorf(def.Name, -1, err)
	}
	a.WithModifiers(mods...).WithConditions(conds...)

	if err := a.Validate(); err != nil {
		return nil, k.errorf(def.Name, -1, err)
	}
	return a, nil
}

func (k *Keymap) errorf(actionName string, bindingIndex int, err error) error {
	return &Error{Keymap: k.Name, Source: k.Source, Action: actionName, Binding: bindingIndex, Err: err}
}

// Clone creates a deep copy of the keymap definition.
func (k *Keymap) Clone() *Keymap {
	clone := *k
	clone.Actions = make([]Action, len(k.Actions))
	for i, a := range k.Actions {
		c := a
		if a.ConsumeInput != nil {
			v := *a.ConsumeInput
			c.ConsumeInput = &v
		}
		c.Bindings = make([]Binding, len(a.Bindings))
		for j, b := range a.Bindings {
			nb := b
			nb.Modifiers = cloneSpecs(b.Modifiers)
			nb.Conditions = cloneSpecs(b.Conditions)
			c.Bindings[j] = nb
		}
		c.Modifiers = cloneSpecs(a.Modifiers)
		c.Conditions = cloneSpecs(a.Conditions)
		clone.Actions[i] = c
	}
	return &clone
}

func cloneSpecs(specs []Spec) []Spec {
	if specs == nil {
		return nil
	}
	out := make([]Spec, len(specs))
	for i, s := range specs {
		out[i] = Spec{Type: s.Type}
		if s.Params != nil {
			out[i].Params = make(map[string]any, len(s.Params))
			for k, v := range s.Params {
				out[i].Params[k] = v
			}
		}
	}
	return out
}

func parseGamepad(s string) (device.GamepadDevice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return device.AnyGamepad(), nil
	case "none":
		return device.NoGamepad(), nil
	}
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return device.AnyGamepad(), fmt.Errorf("%w: gamepad %q is not any, none or an ID", ErrInvalidKeymap, s)
	}
	return device.SingleGamepad(device.GamepadID(id)), nil
}
