package input

import (
	"fmt"
	"sync"
	"time"

	"github.com/dshills/actionflow/internal/input/action"
	"github.com/dshills/actionflow/internal/input/device"
	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/logging"
)

// Config configures a Handler.
type Config struct {
	// Logger receives scheduler and handler logs. Defaults to a no-op logger.
	Logger *logging.Logger

	// MetricsEnabled enables metrics collection.
	MetricsEnabled bool

	// MaxDelta caps the delta passed to a single tick. Zero disables the cap.
	MaxDelta time.Duration
}

// DefaultConfig returns a configuration with metrics enabled and deltas
// capped at 250ms.
func DefaultConfig() Config {
	return Config{
		MetricsEnabled: true,
		MaxDelta:       250 * time.Millisecond,
	}
}

// Builder builds fresh context instances from a definition. Each
// activation builds a new instance so condition timers never carry over.
type Builder interface {
	Name() string
	Build() (*Context, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc struct {
	ContextName string
	Fn          func() (*Context, error)
}

// Name implements Builder.
func (b BuilderFunc) Name() string { return b.ContextName }

// Build implements Builder.
func (b BuilderFunc) Build() (*Context, error) { return b.Fn() }

type opKind uint8

const (
	opActivate opKind = iota
	opDeactivate
	opPriority
)

type op struct {
	kind     opKind
	name     string
	ctx      *Context
	priority int
}

// Handler owns a Scheduler, the registered context definitions and the
// active context list. Activation changes are queued and applied at the
// start of the next Tick.
//
// Registration and activation methods are safe for concurrent use. Tick
// must be called from a single goroutine.
type Handler struct {
	mu sync.Mutex

	config    Config
	log       *logging.Logger
	builders  map[string]Builder
	active    []*Context
	queued    []op
	scheduler *Scheduler
	observers *Observers
	metrics   *Metrics

	tickMu sync.Mutex
}

// NewHandler creates a handler.
func NewHandler(config Config) *Handler {
	log := config.Logger
	if log == nil {
		log = logging.Nop()
	}
	metrics := NewMetrics()
	metrics.SetEnabled(config.MetricsEnabled)

	return &Handler{
		config:    config,
		log:       log.WithComponent("input"),
		builders:  make(map[string]Builder),
		scheduler: NewScheduler(log, metrics),
		observers: NewObservers(),
		metrics:   metrics,
	}
}

// Register adds or replaces a context definition.
func (h *Handler) Register(b Builder) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.builders[b.Name()] = b
}

// Registered reports whether a definition exists for name.
func (h *Handler) Registered(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.builders[name]
	return ok
}

// Activate builds the named context and queues it for activation.
// Construction errors, including references to actions that will not be
// active, are returned immediately.
func (h *Handler) Activate(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.builders[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownContext, name)
	}
	c, err := b.Build()
	if err != nil {
		return &ContextError{Context: name, Err: err}
	}
	return h.queueActivateLocked(c)
}

// ActivateContext queues an already built context for activation.
func (h *Handler) ActivateContext(c *Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.queueActivateLocked(c)
}

func (h *Handler) queueActivateLocked(c *Context) error {
	if err := c.Validate(); err != nil {
		return err
	}

	upcoming := h.upcomingLocked()
	for _, a := range upcoming {
		if a.Name == c.Name {
			return fmt.Errorf("%w: %q", ErrAlreadyActive, c.Name)
		}
	}

	known := make(map[string]struct{})
	for _, u := range append(upcoming, c) {
		for _, a := range u.actions {
			known[a.Name()] = struct{}{}
		}
	}
	for _, ref := range c.References() {
		if _, ok := known[ref]; !ok {
			return &ContextError{Context: c.Name, Err: fmt.Errorf("%w: %q", ErrMissingReference, ref)}
		}
	}

	h.queued = append(h.queued, op{kind: opActivate, name: c.Name, ctx: c})
	return nil
}

// Deactivate queues the named context for removal.
func (h *Handler) Deactivate(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.willBeActiveLocked(name) {
		return fmt.Errorf("%w: %q", ErrNotActive, name)
	}
	h.queued = append(h.queued, op{kind: opDeactivate, name: name})
	return nil
}

// Reload rebuilds an active context from its definition. The new instance
// replaces the old one at the next tick; held require-reset actions carry
// their state across.
func (h *Handler) Reload(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.builders[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownContext, name)
	}
	if !h.willBeActiveLocked(name) {
		return nil
	}
	c, err := b.Build()
	if err != nil {
		return &ContextError{Context: name, Err: err}
	}
	if err := c.Validate(); err != nil {
		return err
	}
	h.queued = append(h.queued,
		op{kind: opDeactivate, name: name},
		op{kind: opActivate, name: name, ctx: c},
	)
	h.log.Info("context %q reloaded", name)
	return nil
}

// SetPriority queues a priority change for an active context.
func (h *Handler) SetPriority(name string, priority int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.willBeActiveLocked(name) {
		return fmt.Errorf("%w: %q", ErrNotActive, name)
	}
	h.queued = append(h.queued, op{kind: opPriority, name: name, priority: priority})
	return nil
}

// upcomingLocked returns the contexts that will be active once queued
// operations are applied.
func (h *Handler) upcomingLocked() []*Context {
	out := make([]*Context, len(h.active))
	copy(out, h.active)
	for _, o := range h.queued {
		switch o.kind {
		case opActivate:
			out = append(out, o.ctx)
		case opDeactivate:
			out = removeContext(out, o.name)
		}
	}
	return out
}

func (h *Handler) willBeActiveLocked(name string) bool {
	for _, c := range h.upcomingLocked() {
		if c.Name == name {
			return true
		}
	}
	return false
}

func removeContext(list []*Context, name string) []*Context {
	for i, c := range list {
		if c.Name == name {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// Tick applies queued activation changes and evaluates every active
// context against the snapshot. Events go to the registered observers.
func (h *Handler) Tick(snap *device.Snapshot, delta time.Duration) {
	h.tickMu.Lock()
	defer h.tickMu.Unlock()

	if h.config.MaxDelta > 0 && delta > h.config.MaxDelta {
		delta = h.config.MaxDelta
	}

	h.mu.Lock()
	ops := h.queued
	h.queued = nil
	h.mu.Unlock()

	h.apply(ops)

	h.mu.Lock()
	active := make([]*Context, len(h.active))
	copy(active, h.active)
	h.mu.Unlock()

	h.scheduler.Update(snap, active, delta, h.observers)
}

func (h *Handler) apply(ops []op) {
	for _, o := range ops {
		switch o.kind {
		case opActivate:
			h.mu.Lock()
			h.active = append(h.active, o.ctx)
			h.mu.Unlock()
			h.scheduler.Activate(o.ctx)
			h.log.Debug("context %q activated (priority %d)", o.name, o.ctx.priority)

		case opDeactivate:
			var removed *Context
			h.mu.Lock()
			for _, c := range h.active {
				if c.Name == o.name {
					removed = c
					break
				}
			}
			h.active = removeContext(h.active, o.name)
			h.mu.Unlock()
			if removed != nil {
				h.scheduler.Remove(removed, h.observers)
				h.log.Debug("context %q deactivated", o.name)
			}

		case opPriority:
			h.mu.Lock()
			for _, c := range h.active {
				if c.Name == o.name {
					c.priority = o.priority
				}
			}
			h.mu.Unlock()
		}
	}
}

// Active returns the names of active contexts in registration order.
func (h *Handler) Active() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, len(h.active))
	for i, c := range h.active {
		names[i] = c.Name
	}
	return names
}

// Context returns the active context with the given name.
func (h *Handler) Context(name string) (*Context, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.active {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Action returns the named action from the highest-priority active context
// that declares it. Use it to mock actions between ticks.
func (h *Handler) Action(name string) (*action.Action, bool) {
	h.mu.Lock()
	sorted := sortContexts(h.active)
	h.mu.Unlock()
	for _, c := range sorted {
		if a, ok := c.Action(name); ok {
			return a, true
		}
	}
	return nil, false
}

// View returns a read-only view of the named action.
func (h *Handler) View(name string) (state.View, bool) {
	a, ok := h.Action(name)
	if !ok {
		return state.View{}, false
	}
	return a.View(), true
}

// Observers returns the observer registry events are delivered to.
func (h *Handler) Observers() *Observers { return h.observers }

// Metrics returns the handler metrics.
func (h *Handler) Metrics() *Metrics { return h.metrics }

// Scheduler returns the underlying scheduler.
func (h *Handler) Scheduler() *Scheduler { return h.scheduler }
