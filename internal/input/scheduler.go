package input

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/actionflow/internal/input/action"
	"github.com/dshills/actionflow/internal/input/device"
	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/logging"
)

// lingering is an action kept alive after its context was removed because
// it requires reset and its input is still held.
type lingering struct {
	context   string
	contextID uuid.UUID
	gamepad   device.GamepadDevice
	action    *action.Action
}

// Scheduler evaluates contexts once per tick.
//
// It is not safe for concurrent use. All state it touches is owned by the
// tick currently executing.
type Scheduler struct {
	reader  *device.Reader
	log     *logging.Logger
	metrics *Metrics

	tick uint64
	now  time.Duration

	// index maps action names to the action peers see this tick.
	index map[string]*action.Action

	lingering []lingering
}

// NewScheduler creates a scheduler. A nil logger discards output and nil
// metrics disables collection.
func NewScheduler(log *logging.Logger, metrics *Metrics) *Scheduler {
	if log == nil {
		log = logging.Nop()
	}
	return &Scheduler{
		reader:  device.NewReader(),
		log:     log.WithComponent("scheduler"),
		metrics: metrics,
		index:   make(map[string]*action.Action),
	}
}

// Reader returns the reader used for evaluation.
func (s *Scheduler) Reader() *device.Reader { return s.reader }

// Now returns the total time advanced by Update.
func (s *Scheduler) Now() time.Duration { return s.now }

// TickCount returns the number of completed updates.
func (s *Scheduler) TickCount() uint64 { return s.tick }

// Lingering returns the number of actions still consuming input after their
// context was removed.
func (s *Scheduler) Lingering() int { return len(s.lingering) }

// Lookup implements state.Peers. Views reflect this tick's value for
// actions already evaluated and the previous tick's value otherwise.
func (s *Scheduler) Lookup(name string) (state.View, bool) {
	a, ok := s.index[name]
	if !ok {
		return state.View{}, false
	}
	return a.View(), true
}

// Update runs one tick over the active contexts, given in registration
// order, and emits events to sink as each action is updated. Within a
// context, actions run and emit in descending order of their binding
// mod-key count, ties keeping registration order.
func (s *Scheduler) Update(snap *device.Snapshot, contexts []*Context, delta time.Duration, sink Sink) {
	start := time.Now()
	if sink == nil {
		sink = Discard
	}
	if delta < 0 {
		delta = 0
	}
	s.tick++
	s.now += delta
	t := state.Time{Delta: delta, Now: s.now}

	s.reader.SetSnapshot(snap)
	s.reader.ClearConsumed()
	for _, in := range s.reader.UpdatePending() {
		s.log.Debug("pending input %s released", in)
	}

	sorted := sortContexts(contexts)
	s.buildIndex(sorted)
	s.checkReferences(sorted)

	s.updateLingering(t, sink)

	for _, c := range sorted {
		s.reader.SetGamepad(c.gamepad)
		for _, a := range c.order() {
			s.updateAction(a, c.Name, c.ID, t, sink)
		}
	}

	if s.metrics != nil {
		s.metrics.SetLingering(len(s.lingering))
		s.metrics.RecordTick(time.Since(start), s.reader.ConsumedCount())
	}
}

func (s *Scheduler) updateAction(a *action.Action, ctxName string, ctxID uuid.UUID, t state.Time, sink Sink) {
	mocked := a.Mocked()
	ev := a.Update(s.reader, s, t)
	if s.metrics != nil {
		s.metrics.RecordAction(mocked, ev)
	}
	s.emit(a, ctxName, ctxID, ev, sink)
}

func (s *Scheduler) emit(a *action.Action, ctxName string, ctxID uuid.UUID, ev state.Events, sink Sink) {
	if ev.IsEmpty() {
		return
	}
	view := a.View()
	ev.Each(func(kind state.Events) {
		sink.Emit(Event{
			Tick:      s.tick,
			Action:    view.Name,
			Context:   ctxName,
			ContextID: ctxID,
			Kind:      kind,
			State:     view.State,
			Value:     view.Value,
			Elapsed:   view.Elapsed,
			Fired:     view.Fired,
		})
	})
}

// updateLingering keeps removed require-reset actions alive until their
// inputs read zero. They run before every context so their inputs stay
// consumed.
func (s *Scheduler) updateLingering(t state.Time, sink Sink) {
	kept := s.lingering[:0]
	for _, l := range s.lingering {
		s.reader.SetGamepad(l.gamepad)
		if !l.action.Held(s.reader) {
			s.log.Debug("action %s/%s released after removal", l.context, l.action.Name())
			ev := l.action.Deactivate()
			if s.metrics != nil {
				s.metrics.RecordAction(false, ev)
			}
			s.emit(l.action, l.context, l.contextID, ev, sink)
			continue
		}
		s.updateAction(l.action, l.context, l.contextID, t, sink)
		l.action.ConsumeAll(s.reader)
		kept = append(kept, l)
	}
	for i := len(kept); i < len(s.lingering); i++ {
		s.lingering[i] = lingering{}
	}
	s.lingering = kept
}

func (s *Scheduler) buildIndex(sorted []*Context) {
	clear(s.index)
	for _, c := range sorted {
		for _, a := range c.actions {
			if _, ok := s.index[a.Name()]; !ok {
				s.index[a.Name()] = a
			}
		}
	}
	for _, l := range s.lingering {
		if _, ok := s.index[l.action.Name()]; !ok {
			s.index[l.action.Name()] = l.action
		}
	}
}

// checkReferences warns once per action and peer when a referenced action
// is not active. Missing peers read as not fired.
func (s *Scheduler) checkReferences(sorted []*Context) {
	if !s.log.Enabled(logging.LevelWarn) {
		return
	}
	for _, c := range sorted {
		for _, a := range c.actions {
			for _, ref := range a.References() {
				if _, ok := s.index[ref]; ok {
					continue
				}
				s.log.WarnOnce(c.Name+"/"+a.Name()+"->"+ref,
					"action %s/%s references inactive action %q", c.Name, a.Name(), ref)
			}
		}
	}
}

// Activate prepares a context that was just added to the active list.
// Actions continuing a lingering instance from an earlier activation of the
// same context adopt its state instead of waiting for reset.
func (s *Scheduler) Activate(c *Context) {
	c.activate()
	kept := s.lingering[:0]
	for _, l := range s.lingering {
		if l.context == c.Name {
			if a, ok := c.Action(l.action.Name()); ok {
				s.log.Debug("action %s/%s resumes lingering state", c.Name, a.Name())
				a.Adopt(l.action)
				continue
			}
		}
		kept = append(kept, l)
	}
	s.lingering = kept
}

// Remove deactivates a context that was just taken off the active list.
//
// Actions that require reset and are still held keep running until their
// inputs read zero. Require-reset actions that are idle but held mark their
// inputs pending instead. Every other action moves to None, emitting
// Completed or Canceled.
func (s *Scheduler) Remove(c *Context, sink Sink) {
	if sink == nil {
		sink = Discard
	}
	s.reader.SetGamepad(c.gamepad)
	for _, a := range c.actions {
		if a.Settings().RequireReset && a.Held(s.reader) {
			if a.State() != state.None {
				s.log.Debug("action %s/%s lingers after removal", c.Name, a.Name())
				s.lingering = append(s.lingering, lingering{
					context:   c.Name,
					contextID: c.ID,
					gamepad:   c.gamepad,
					action:    a,
				})
				continue
			}
			a.PendInputs(s.reader)
		}
		s.emit(a, c.Name, c.ID, a.Deactivate(), sink)
	}
}
