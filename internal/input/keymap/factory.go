package keymap

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/dshills/actionflow/internal/input/condition"
	"github.com/dshills/actionflow/internal/input/modifier"
	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// Factory errors.
var (
	ErrUnknownType   = errors.New("unknown type")
	ErrInvalidParams = errors.New("invalid parameters")
)

// ModifierConstructor builds a modifier from decoded spec parameters.
type ModifierConstructor func(params map[string]any) (modifier.Modifier, error)

// ConditionConstructor builds a condition from decoded spec parameters.
type ConditionConstructor func(params map[string]any) (condition.Condition, error)

// Factory builds modifiers and conditions from specs. Every call returns
// new instances. The built-in types are registered by NewFactory; others,
// such as scripted ones, can be added with RegisterModifier and
// RegisterCondition.
type Factory struct {
	mu         sync.RWMutex
	modifiers  map[string]ModifierConstructor
	conditions map[string]ConditionConstructor
	actuation  float32
}

// NewFactory creates a factory with the built-in types.
func NewFactory() *Factory {
	f := &Factory{
		modifiers:  make(map[string]ModifierConstructor),
		conditions: make(map[string]ConditionConstructor),
		actuation:  condition.DefaultActuation,
	}
	registerBuiltinModifiers(f)
	registerBuiltinConditions(f)
	return f
}

// SetActuation sets the actuation threshold used by built-in conditions
// whose spec has no actuation param. Values <= 0 restore the default.
func (f *Factory) SetActuation(a float32) {
	if a <= 0 {
		a = condition.DefaultActuation
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actuation = a
}

// Actuation returns the default actuation threshold.
func (f *Factory) Actuation() float32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.actuation
}

// RegisterModifier adds or replaces a modifier type.
func (f *Factory) RegisterModifier(typ string, fn ModifierConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modifiers[normalizeType(typ)] = fn
}

// RegisterCondition adds or replaces a condition type.
func (f *Factory) RegisterCondition(typ string, fn ConditionConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conditions[normalizeType(typ)] = fn
}

// ModifierTypes returns the registered modifier type names, sorted.
func (f *Factory) ModifierTypes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return sortedKeys(f.modifiers)
}

// ConditionTypes returns the registered condition type names, sorted.
func (f *Factory) ConditionTypes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return sortedKeys(f.conditions)
}

// Modifier builds one modifier.
func (f *Factory) Modifier(s Spec) (modifier.Modifier, error) {
	f.mu.RLock()
	fn, ok := f.modifiers[normalizeType(s.Type)]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: modifier %q", ErrUnknownType, s.Type)
	}
	m, err := fn(s.Params)
	if err != nil {
		return nil, fmt.Errorf("modifier %q: %w", s.Type, err)
	}
	return m, nil
}

// Condition builds one condition.
func (f *Factory) Condition(s Spec) (condition.Condition, error) {
	f.mu.RLock()
	fn, ok := f.conditions[normalizeType(s.Type)]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: condition %q", ErrUnknownType, s.Type)
	}
	c, err := fn(s.Params)
	if err != nil {
		return nil, fmt.Errorf("condition %q: %w", s.Type, err)
	}
	return c, nil
}

// Modifiers builds a modifier chain.
func (f *Factory) Modifiers(specs []Spec) (modifier.Chain, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	chain := make(modifier.Chain, 0, len(specs))
	for i, s := range specs {
		m, err := f.Modifier(s)
		if err != nil {
			return nil, fmt.Errorf("modifier %d: %w", i, err)
		}
		chain = append(chain, m)
	}
	return chain, nil
}

// Conditions builds a condition list.
func (f *Factory) Conditions(specs []Spec) ([]condition.Condition, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make([]condition.Condition, 0, len(specs))
	for i, s := range specs {
		c, err := f.Condition(s)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Decode decodes spec parameters into out, a pointer to a struct with
// mapstructure tags. Fields keep their current values when a parameter is
// absent, so out can be pre-filled with defaults. Unknown parameters are
// an error. Durations accept strings such as "250ms" or numbers of seconds.
func Decode(params map[string]any, out any) error {
	if len(params) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(durationHook, mapstructure.StringToSliceHookFunc(",")),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// durationHook converts strings and numbers of seconds to time.Duration.
func durationHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return time.ParseDuration(v)
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case float32:
		return time.Duration(float64(v) * float64(time.Second)), nil
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case uint64:
		return time.Duration(v) * time.Second, nil
	}
	return data, nil
}

func normalizeType(typ string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(typ)), "-", "_")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// vec accepts a single number or a list of up to three numbers.
type vec []float32

func (v vec) resolve(def float32) value.Vec3 {
	switch len(v) {
	case 0:
		return value.Splat(def)
	case 1:
		return value.Splat(v[0])
	}
	out := value.Splat(def)
	out.X = v[0]
	out.Y = v[1]
	if len(v) > 2 {
		out.Z = v[2]
	}
	return out
}

func decodeVec(params map[string]any, key string) (vec, error) {
	raw, ok := params[key]
	if !ok {
		return nil, nil
	}
	delete(params, key)
	var out vec
	switch raw.(type) {
	case []any, []float64, []float32, []int, []int64:
		if err := mapstructure.WeakDecode(raw, &out); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParams, key, err)
		}
	default:
		var f float32
		if err := mapstructure.WeakDecode(raw, &f); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParams, key, err)
		}
		out = vec{f}
	}
	if len(out) > 3 {
		return nil, fmt.Errorf("%w: %s has %d components, want at most 3", ErrInvalidParams, key, len(out))
	}
	return out, nil
}

func copyParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

func registerBuiltinModifiers(f *Factory) {
	f.RegisterModifier("scale", func(params map[string]any) (modifier.Modifier, error) {
		p := copyParams(params)
		factor, err := decodeVec(p, "factor")
		if err != nil {
			return nil, err
		}
		if err := Decode(p, &struct{}{}); err != nil {
			return nil, err
		}
		return &modifier.Scale{Factor: factor.resolve(1)}, nil
	})

	f.RegisterModifier("negate", func(params map[string]any) (modifier.Modifier, error) {
		p := struct {
			Axes string `mapstructure:"axes"`
		}{Axes: "xyz"}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		axes := strings.ToLower(p.Axes)
		if strings.Trim(axes, "xyz") != "" {
			return nil, fmt.Errorf("%w: axes %q must only contain x, y and z", ErrInvalidParams, p.Axes)
		}
		return &modifier.Negate{
			X: strings.Contains(axes, "x"),
			Y: strings.Contains(axes, "y"),
			Z: strings.Contains(axes, "z"),
		}, nil
	})

	f.RegisterModifier("clamp", func(params map[string]any) (modifier.Modifier, error) {
		p := copyParams(params)
		lo, err := decodeVec(p, "min")
		if err != nil {
			return nil, err
		}
		hi, err := decodeVec(p, "max")
		if err != nil {
			return nil, err
		}
		if err := Decode(p, &struct{}{}); err != nil {
			return nil, err
		}
		return &modifier.Clamp{Min: lo.resolve(-1), Max: hi.resolve(1)}, nil
	})

	f.RegisterModifier("delta_scale", func(params map[string]any) (modifier.Modifier, error) {
		if err := Decode(params, &struct{}{}); err != nil {
			return nil, err
		}
		return &modifier.DeltaScale{}, nil
	})

	f.RegisterModifier("exponential_curve", func(params map[string]any) (modifier.Modifier, error) {
		p := copyParams(params)
		exp, err := decodeVec(p, "exp")
		if err != nil {
			return nil, err
		}
		if err := Decode(p, &struct{}{}); err != nil {
			return nil, err
		}
		return &modifier.ExponentialCurve{Exp: exp.resolve(2)}, nil
	})

	f.RegisterModifier("dead_zone", func(params map[string]any) (modifier.Modifier, error) {
		p := struct {
			Kind  string  `mapstructure:"kind"`
			Lower float32 `mapstructure:"lower"`
			Upper float32 `mapstructure:"upper"`
		}{Kind: "radial", Lower: modifier.DefaultLowerThreshold, Upper: modifier.DefaultUpperThreshold}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		var kind modifier.DeadZoneKind
		switch strings.ToLower(p.Kind) {
		case "radial":
			kind = modifier.Radial
		case "axial":
			kind = modifier.Axial
		default:
			return nil, fmt.Errorf("%w: dead zone kind %q", ErrInvalidParams, p.Kind)
		}
		dz := modifier.NewDeadZone(kind)
		dz.Lower, dz.Upper = p.Lower, p.Upper
		return dz, nil
	})

	f.RegisterModifier("swizzle_axis", func(params map[string]any) (modifier.Modifier, error) {
		p := struct {
			Order string `mapstructure:"order"`
		}{Order: "YXZ"}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		order, err := modifier.ParseSwizzleOrder(p.Order)
		if err != nil {
			return nil, err
		}
		return &modifier.SwizzleAxis{Order: order}, nil
	})

	f.RegisterModifier("smooth_nudge", func(params map[string]any) (modifier.Modifier, error) {
		p := struct {
			DecayRate float32 `mapstructure:"decay_rate"`
		}{DecayRate: modifier.DefaultDecayRate}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		return modifier.NewSmoothNudge(p.DecayRate), nil
	})

	f.RegisterModifier("linear_step", func(params map[string]any) (modifier.Modifier, error) {
		p := struct {
			StepRate float32 `mapstructure:"step_rate"`
		}{StepRate: 0.1}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		return modifier.NewLinearStep(p.StepRate), nil
	})

	f.RegisterModifier("accumulate_by", func(params map[string]any) (modifier.Modifier, error) {
		p := struct {
			Action string `mapstructure:"action"`
		}{}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		if p.Action == "" {
			return nil, fmt.Errorf("%w: action is required", ErrInvalidParams)
		}
		return modifier.NewAccumulateBy(p.Action), nil
	})
}

type actuationParams struct {
	Actuation float32 `mapstructure:"actuation"`
}

func registerBuiltinConditions(f *Factory) {
	f.RegisterCondition("down", func(params map[string]any) (condition.Condition, error) {
		p := actuationParams{Actuation: f.Actuation()}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		return &condition.Down{Actuation: p.Actuation}, nil
	})

	f.RegisterCondition("press", func(params map[string]any) (condition.Condition, error) {
		p := actuationParams{Actuation: f.Actuation()}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		c := condition.NewPress()
		c.Actuation = p.Actuation
		return c, nil
	})

	f.RegisterCondition("release", func(params map[string]any) (condition.Condition, error) {
		p := actuationParams{Actuation: f.Actuation()}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		c := condition.NewRelease()
		c.Actuation = p.Actuation
		return c, nil
	})

	f.RegisterCondition("hold", func(params map[string]any) (condition.Condition, error) {
		p := struct {
			Duration  time.Duration `mapstructure:"duration"`
			OneShot   bool          `mapstructure:"one_shot"`
			Actuation float32       `mapstructure:"actuation"`
		}{Actuation: f.Actuation()}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		c := condition.NewHold(p.Duration)
		c.OneShot = p.OneShot
		c.Actuation = p.Actuation
		return c, nil
	})

	f.RegisterCondition("hold_and_release", func(params map[string]any) (condition.Condition, error) {
		p := struct {
			Duration  time.Duration `mapstructure:"duration"`
			Actuation float32       `mapstructure:"actuation"`
		}{Actuation: f.Actuation()}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		c := condition.NewHoldAndRelease(p.Duration)
		c.Actuation = p.Actuation
		return c, nil
	})

	f.RegisterCondition("tap", func(params map[string]any) (condition.Condition, error) {
		p := struct {
			Window    time.Duration `mapstructure:"window"`
			Actuation float32       `mapstructure:"actuation"`
		}{Window: 200 * time.Millisecond, Actuation: f.Actuation()}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		c := condition.NewTap(p.Window)
		c.Actuation = p.Actuation
		return c, nil
	})

	f.RegisterCondition("pulse", func(params map[string]any) (condition.Condition, error) {
		p := struct {
			Interval       time.Duration `mapstructure:"interval"`
			Limit          int           `mapstructure:"limit"`
			TriggerOnStart bool          `mapstructure:"trigger_on_start"`
			Actuation      float32       `mapstructure:"actuation"`
		}{TriggerOnStart: true, Actuation: f.Actuation()}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		c := condition.NewPulse(p.Interval)
		c.Limit = p.Limit
		c.TriggerOnStart = p.TriggerOnStart
		c.Actuation = p.Actuation
		return c, nil
	})

	f.RegisterCondition("chord", func(params map[string]any) (condition.Condition, error) {
		p := struct {
			Actions []string `mapstructure:"actions"`
		}{}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		return condition.NewChord(p.Actions...), nil
	})

	f.RegisterCondition("block_by", func(params map[string]any) (condition.Condition, error) {
		p := struct {
			Actions    []string `mapstructure:"actions"`
			EventsOnly bool     `mapstructure:"events_only"`
		}{}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		c := condition.NewBlockBy(p.Actions...)
		c.EventsOnly = p.EventsOnly
		return c, nil
	})

	f.RegisterCondition("combo", func(params map[string]any) (condition.Condition, error) {
		type step struct {
			Action  string        `mapstructure:"action"`
			Events  []string      `mapstructure:"events"`
			Timeout time.Duration `mapstructure:"timeout"`
		}
		p := struct {
			Steps   []step `mapstructure:"steps"`
			Cancels []step `mapstructure:"cancels"`
		}{}
		if err := Decode(params, &p); err != nil {
			return nil, err
		}

		c := condition.NewCombo()
		for _, s := range p.Steps {
			ev, err := parseEvents(s.Events)
			if err != nil {
				return nil, err
			}
			c.Steps = append(c.Steps, condition.ComboStep{Action: s.Action, Events: ev, Timeout: s.Timeout})
		}
		for _, s := range p.Cancels {
			if s.Timeout != 0 {
				return nil, fmt.Errorf("%w: cancel %q has a timeout", ErrInvalidParams, s.Action)
			}
			ev, err := parseEvents(s.Events)
			if err != nil {
				return nil, err
			}
			c.Cancels = append(c.Cancels, condition.CancelAction{Action: s.Action, Events: ev})
		}
		return c, nil
	})
}

// parseEvents combines event names such as "fired" or "started|fired".
func parseEvents(names []string) (state.Events, error) {
	var ev state.Events
	for _, n := range names {
		for _, part := range strings.Split(n, "|") {
			e, ok := state.ParseEvent(strings.TrimSpace(part))
			if !ok {
				return 0, fmt.Errorf("%w: unknown event %q", ErrInvalidParams, part)
			}
			ev |= e
		}
	}
	return ev, nil
}
