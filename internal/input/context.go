package input

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/dshills/actionflow/internal/input/action"
	"github.com/dshills/actionflow/internal/input/device"
	"github.com/dshills/actionflow/internal/input/state"
)

// Context errors.
var (
	ErrUnknownContext   = errors.New("unknown context")
	ErrAlreadyActive    = errors.New("context already active")
	ErrNotActive        = errors.New("context not active")
	ErrDuplicateAction  = errors.New("duplicate action")
	ErrMissingReference = errors.New("referenced action not found")
)

// ContextError describes a context that failed validation.
type ContextError struct {
	Context string
	Err     error
}

// Error implements the error interface.
func (e *ContextError) Error() string {
	return fmt.Sprintf("context %q: %v", e.Context, e.Err)
}

// Unwrap returns the underlying error.
func (e *ContextError) Unwrap() error {
	return e.Err
}

// Context is a named, prioritized collection of actions that are active
// together.
type Context struct {
	// Name identifies the context definition.
	Name string

	// ID identifies this instance. A context that is deactivated and built
	// again gets a new ID.
	ID uuid.UUID

	priority int
	gamepad  device.GamepadDevice

	actions []*action.Action
	byName  map[string]*action.Action

	// evalOrder is actions stable-sorted by descending modifier key count.
	evalOrder []*action.Action
}

// NewContext creates an empty context.
func NewContext(name string, priority int) *Context {
	return &Context{
		Name:     name,
		ID:       uuid.New(),
		priority: priority,
		byName:   make(map[string]*action.Action),
	}
}

// WithActions appends actions in registration order.
func (c *Context) WithActions(actions ...*action.Action) *Context {
	for _, a := range actions {
		c.actions = append(c.actions, a)
		if a != nil {
			if _, dup := c.byName[a.Name()]; !dup {
				c.byName[a.Name()] = a
			}
		}
	}
	c.evalOrder = nil
	return c
}

// WithGamepad selects the gamepad the context's bindings read.
func (c *Context) WithGamepad(d device.GamepadDevice) *Context {
	c.gamepad = d
	return c
}

// Priority returns the context priority. Higher priorities are evaluated
// first.
func (c *Context) Priority() int { return c.priority }

// SetPriority changes the priority. Prefer Handler.SetPriority for active
// contexts so the change lands on a tick boundary.
func (c *Context) SetPriority(p int) { c.priority = p }

// Gamepad returns the selected gamepad device.
func (c *Context) Gamepad() device.GamepadDevice { return c.gamepad }

// Actions returns the actions in registration order.
func (c *Context) Actions() []*action.Action { return c.actions }

// Action returns the action with the given name.
func (c *Context) Action(name string) (*action.Action, bool) {
	a, ok := c.byName[name]
	return a, ok
}

// Validate checks every action and rejects duplicate names.
func (c *Context) Validate() error {
	seen := make(map[string]struct{}, len(c.actions))
	for i, a := range c.actions {
		if a == nil {
			return &ContextError{Context: c.Name, Err: fmt.Errorf("action %d is nil", i)}
		}
		if _, dup := seen[a.Name()]; dup {
			return &ContextError{Context: c.Name, Err: fmt.Errorf("%w: %q", ErrDuplicateAction, a.Name())}
		}
		seen[a.Name()] = struct{}{}
		if err := a.Validate(); err != nil {
			return &ContextError{Context: c.Name, Err: err}
		}
	}
	return nil
}

// References returns the distinct action names read by the context's
// modifiers and conditions, in first-seen order.
func (c *Context) References() []string {
	seen := make(map[string]struct{})
	var refs []string
	for _, a := range c.actions {
		for _, r := range a.References() {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			refs = append(refs, r)
		}
	}
	return refs
}

// order returns the evaluation order, computing it on first use.
func (c *Context) order() []*action.Action {
	if c.evalOrder == nil {
		c.evalOrder = make([]*action.Action, len(c.actions))
		copy(c.evalOrder, c.actions)
		sort.SliceStable(c.evalOrder, func(i, j int) bool {
			return c.evalOrder[i].ModCount() > c.evalOrder[j].ModCount()
		})
	}
	return c.evalOrder
}

// activate prepares a freshly activated context.
func (c *Context) activate() {
	for _, a := range c.actions {
		a.ArmReset()
	}
}

// View returns a read-only view of the named action.
func (c *Context) View(name string) (state.View, bool) {
	a, ok := c.byName[name]
	if !ok {
		return state.View{}, false
	}
	return a.View(), true
}

// sortContexts returns contexts stable-sorted by descending priority.
func sortContexts(contexts []*Context) []*Context {
	sorted := make([]*Context, len(contexts))
	copy(sorted, contexts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].priority > sorted[j].priority
	})
	return sorted
}
