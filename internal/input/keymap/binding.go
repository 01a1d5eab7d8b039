package keymap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/actionflow/internal/input/binding"
	"github.com/dshills/actionflow/internal/input/device"
)

// Binding defines one input of an action, or a preset that expands into
// several.
type Binding struct {
	// Input is an input specification such as "KeyW", "Ctrl+KeyC",
	// "Mouse:Left", "Gamepad:South" or "GamepadAxis:LeftStickX".
	Input string `json:"input,omitempty" yaml:"input,omitempty" toml:"input,omitempty"`

	// Preset names a multi-binding layout such as "wasd" or "left_stick".
	// Modifiers and conditions are added to every expanded binding.
	Preset string `json:"preset,omitempty" yaml:"preset,omitempty" toml:"preset,omitempty"`

	// IgnoreConsumed reads the input even when another action consumed it.
	IgnoreConsumed bool `json:"ignore_consumed,omitempty" yaml:"ignore_consumed,omitempty" toml:"ignore_consumed,omitempty"`

	Modifiers  []Spec `json:"modifiers,omitempty" yaml:"modifiers,omitempty" toml:"modifiers,omitempty"`
	Conditions []Spec `json:"conditions,omitempty" yaml:"conditions,omitempty" toml:"conditions,omitempty"`
}

// Bind creates a binding definition for an input specification.
func Bind(spec string) Binding {
	return Binding{Input: spec}
}

// BindPreset creates a binding definition for a preset.
func BindPreset(name string) Binding {
	return Binding{Preset: name}
}

// WithModifiers appends modifier specs.
func (b Binding) WithModifiers(specs ...Spec) Binding {
	b.Modifiers = append(b.Modifiers, specs...)
	return b
}

// WithConditions appends condition specs.
func (b Binding) WithConditions(specs ...Spec) Binding {
	b.Conditions = append(b.Conditions, specs...)
	return b
}

// WithIgnoreConsumed marks the binding to read consumed inputs.
func (b Binding) WithIgnoreConsumed() Binding {
	b.IgnoreConsumed = true
	return b
}

// build expands the definition into runtime bindings. Every binding gets
// its own modifier and condition instances.
func (b Binding) build(f *Factory) ([]*binding.Binding, error) {
	var out []*binding.Binding
	if b.Input != "" {
		rb, err := binding.Parse(b.Input)
		if err != nil {
			return nil, err
		}
		out = []*binding.Binding{rb}
	} else {
		preset, ok := presets[strings.ToLower(b.Preset)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown preset %q (known: %s)",
				ErrInvalidKeymap, b.Preset, strings.Join(PresetNames(), ", "))
		}
		out = preset()
	}

	for _, rb := range out {
		mods, err := f.Modifiers(b.Modifiers)
		if err != nil {
			return nil, err
		}
		conds, err := f.Conditions(b.Conditions)
		if err != nil {
			return nil, err
		}
		rb.WithModifiers(mods...).WithConditions(conds...)
		if b.IgnoreConsumed {
			rb.WithIgnoreConsumed()
		}
	}
	return out, nil
}

var presets = map[string]func() []*binding.Binding{
	"wasd":        func() []*binding.Binding { return binding.WASD().Bindings() },
	"arrows":      func() []*binding.Binding { return binding.ArrowKeys().Bindings() },
	"dpad":        func() []*binding.Binding { return binding.DPad().Bindings() },
	"left_stick":  func() []*binding.Binding { return binding.LeftStick().Bindings() },
	"right_stick": func() []*binding.Binding { return binding.RightStick().Bindings() },
	"hjklyubn":    func() []*binding.Binding { return binding.HJKLYUBN().Bindings() },
	"wasd_space_shift": func() []*binding.Binding {
		return binding.WASDAnd(device.KeySpace, device.KeyShiftLeft).Bindings()
	},
}

// PresetNames returns the known preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
