// Package binding associates raw device inputs with actions, each binding
// carrying its own modifier and condition chains.
package binding

import (
	"errors"
	"fmt"

	"github.com/dshills/actionflow/internal/input/condition"
	"github.com/dshills/actionflow/internal/input/device"
	"github.com/dshills/actionflow/internal/input/modifier"
	"github.com/dshills/actionflow/internal/input/value"
)

// ErrNoInput is returned for a binding without a device input.
var ErrNoInput = errors.New("binding has no input")

// Binding is one raw input feeding an action.
type Binding struct {
	// Input is the device input, including any required modifier keys.
	Input device.Input

	// Modifiers transform the raw value before conditions run.
	Modifiers modifier.Chain

	// Conditions gate this binding independently of the action.
	Conditions []condition.Condition

	// IgnoreConsumed makes the binding read its input even when a
	// higher-priority action consumed it this tick.
	IgnoreConsumed bool

	// firstActivation is set while a require-reset binding waits for its
	// input to read zero.
	firstActivation bool
}

// New creates a binding for an input.
func New(in device.Input) *Binding {
	return &Binding{Input: in}
}

// Parse creates a binding from an input specification such as "Ctrl+KeyC".
func Parse(spec string) (*Binding, error) {
	in, err := device.Parse(spec)
	if err != nil {
		return nil, err
	}
	return New(in), nil
}

// MustParse is like Parse but panics on error.
// Use only for known-valid specs in initialization code.
func MustParse(spec string) *Binding {
	b, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return b
}

// WithModifiers appends modifiers to the binding.
func (b *Binding) WithModifiers(mods ...modifier.Modifier) *Binding {
	b.Modifiers = append(b.Modifiers, mods...)
	return b
}

// WithConditions appends conditions to the binding.
func (b *Binding) WithConditions(conds ...condition.Condition) *Binding {
	b.Conditions = append(b.Conditions, conds...)
	return b
}

// WithIgnoreConsumed makes the binding read consumed inputs.
func (b *Binding) WithIgnoreConsumed() *Binding {
	b.IgnoreConsumed = true
	return b
}

// Validate checks the binding and returns the dimension its modifier chain
// produces from the input's natural dimension.
func (b *Binding) Validate() (value.Dim, error) {
	if b.Input.IsNone() {
		return value.DimBool, &Error{Input: b.Input, Err: ErrNoInput}
	}
	dim, err := modifier.CheckChain(b.Input.Dim(), b.Modifiers)
	if err != nil {
		return dim, &Error{Input: b.Input, Err: err}
	}
	if err := condition.Check(b.Conditions); err != nil {
		return dim, &Error{Input: b.Input, Err: err}
	}
	return dim, nil
}

// References returns the actions read by the binding's modifiers and
// conditions.
func (b *Binding) References() []string {
	return append(b.Modifiers.References(), condition.References(b.Conditions)...)
}

// ModCount returns the number of modifier keys the binding requires.
func (b *Binding) ModCount() int {
	return b.Input.Mods.Count()
}

// WaitForReset marks the binding to be ignored until its input reads zero.
func (b *Binding) WaitForReset() {
	b.firstActivation = true
}

// WaitingForReset reports whether the binding is waiting for its input to
// read zero.
func (b *Binding) WaitingForReset() bool {
	return b.firstActivation
}

// Reset clears the reset wait.
func (b *Binding) Reset() {
	b.firstActivation = false
}

// String returns the input specification.
func (b *Binding) String() string {
	return b.Input.String()
}

// Error describes an invalid binding.
type Error struct {
	Action string
	Index  int
	Input  device.Input
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("action %q binding %d (%s): %v", e.Action, e.Index, e.Input, e.Err)
	}
	return fmt.Sprintf("binding %s: %v", e.Input, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
