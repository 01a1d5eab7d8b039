package input

import (
	"sort"
	"sync"

	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/logging"
)

// ObserverPriority orders observers. Lower values run first.
type ObserverPriority int

const (
	// ObserverPriorityHighest runs before all other observers.
	ObserverPriorityHighest ObserverPriority = -1000
	// ObserverPriorityHigh runs early.
	ObserverPriorityHigh ObserverPriority = -100
	// ObserverPriorityNormal is the default.
	ObserverPriorityNormal ObserverPriority = 0
	// ObserverPriorityLow runs late.
	ObserverPriorityLow ObserverPriority = 100
	// ObserverPriorityLowest runs after all other observers.
	ObserverPriorityLowest ObserverPriority = 1000
)

// Observer reacts to action events.
type Observer interface {
	// Observe handles an event. Returning true stops delivery to
	// observers with a lower priority.
	Observe(ev Event) bool
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event) bool

// Observe calls f.
func (f ObserverFunc) Observe(ev Event) bool { return f(ev) }

// ObserverID identifies a registered observer.
type ObserverID uint64

// ObserverRegistration holds metadata about a registered observer.
type ObserverRegistration struct {
	ID       ObserverID
	Name     string
	Priority ObserverPriority
	Observer Observer
}

// Observers is a prioritized observer registry. It implements Sink, so it
// can be handed to the scheduler directly.
type Observers struct {
	mu       sync.RWMutex
	regs     []ObserverRegistration
	nextID   ObserverID
	sorted   bool
	enabled  bool
	consumed uint64
}

// NewObservers creates an empty registry.
func NewObservers() *Observers {
	return &Observers{enabled: true, sorted: true}
}

// Register adds an observer with normal priority.
func (o *Observers) Register(obs Observer) ObserverID {
	return o.RegisterWithOptions(obs, "", ObserverPriorityNormal)
}

// RegisterFunc adds a function observer that never stops delivery.
func (o *Observers) RegisterFunc(name string, fn func(Event)) ObserverID {
	return o.RegisterWithOptions(ObserverFunc(func(ev Event) bool {
		fn(ev)
		return false
	}), name, ObserverPriorityNormal)
}

// RegisterWithOptions adds an observer with a name and priority.
// A non-empty name replaces any observer already registered under it.
func (o *Observers) RegisterWithOptions(obs Observer, name string, priority ObserverPriority) ObserverID {
	o.mu.Lock()
	defer o.mu.Unlock()

	if name != "" {
		o.removeLocked(func(r ObserverRegistration) bool { return r.Name == name })
	}

	o.nextID++
	o.regs = append(o.regs, ObserverRegistration{
		ID:       o.nextID,
		Name:     name,
		Priority: priority,
		Observer: obs,
	})
	o.sorted = false
	return o.nextID
}

// Unregister removes an observer by ID.
func (o *Observers) Unregister(id ObserverID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.removeLocked(func(r ObserverRegistration) bool { return r.ID == id })
}

// UnregisterByName removes an observer by name.
func (o *Observers) UnregisterByName(name string) bool {
	if name == "" {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.removeLocked(func(r ObserverRegistration) bool { return r.Name == name })
}

func (o *Observers) removeLocked(match func(ObserverRegistration) bool) bool {
	for i, r := range o.regs {
		if match(r) {
			o.regs = append(o.regs[:i], o.regs[i+1:]...)
			return true
		}
	}
	return false
}

// SetEnabled enables or disables delivery.
func (o *Observers) SetEnabled(enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enabled = enabled
}

// Count returns the number of registered observers.
func (o *Observers) Count() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.regs)
}

// List returns the registrations in delivery order.
func (o *Observers) List() []ObserverRegistration {
	o.mu.Lock()
	o.ensureSorted()
	out := make([]ObserverRegistration, len(o.regs))
	copy(out, o.regs)
	o.mu.Unlock()
	return out
}

// Consumed returns how many events were stopped by an observer.
func (o *Observers) Consumed() uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.consumed
}

func (o *Observers) ensureSorted() {
	if o.sorted {
		return
	}
	sort.SliceStable(o.regs, func(i, j int) bool {
		return o.regs[i].Priority < o.regs[j].Priority
	})
	o.sorted = true
}

// Emit delivers ev to observers in priority order. Observers run outside
// the registry lock, so they may register or unregister observers.
func (o *Observers) Emit(ev Event) {
	o.mu.Lock()
	if !o.enabled || len(o.regs) == 0 {
		o.mu.Unlock()
		return
	}
	o.ensureSorted()
	observers := make([]Observer, len(o.regs))
	for i := range o.regs {
		observers[i] = o.regs[i].Observer
	}
	o.mu.Unlock()

	for _, obs := range observers {
		if obs.Observe(ev) {
			o.mu.Lock()
			o.consumed++
			o.mu.Unlock()
			return
		}
	}
}

// Clear removes all observers.
func (o *Observers) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.regs = nil
	o.sorted = true
}

// SinkObserver forwards events to a Sink.
type SinkObserver struct {
	Sink Sink
}

// Observe implements Observer.
func (s SinkObserver) Observe(ev Event) bool {
	s.Sink.Emit(ev)
	return false
}

// LoggingObserver logs every event at debug level.
type LoggingObserver struct {
	Logger *logging.Logger
}

// Observe implements Observer.
func (l LoggingObserver) Observe(ev Event) bool {
	if l.Logger != nil {
		l.Logger.Debug("event %s", ev)
	}
	return false
}

// FilterObserver stops delivery of events matching a predicate.
type FilterObserver struct {
	// Block returns true to stop the event.
	Block func(Event) bool
}

// Observe implements Observer.
func (f FilterObserver) Observe(ev Event) bool {
	return f.Block != nil && f.Block(ev)
}

// KindFilter returns a FilterObserver that passes only the given kinds.
func KindFilter(kinds state.Events) FilterObserver {
	return FilterObserver{Block: func(ev Event) bool {
		return ev.Kind&kinds == 0
	}}
}
