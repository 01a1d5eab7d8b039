package action

import (
	"github.com/dshills/actionflow/internal/input/condition"
	"github.com/dshills/actionflow/internal/input/modifier"
	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// tracker folds a value through modifiers and conditions and derives the
// resulting state.
type tracker struct {
	value value.Value

	foundExplicit     bool
	anyExplicitFired  bool
	foundImplicit     bool
	allImplicitsFired bool
	foundActive       bool
	blocked           bool
	eventsBlocked     bool
}

func newTracker(v value.Value) tracker {
	return tracker{value: v, allImplicitsFired: true}
}

func (t *tracker) applyModifiers(peers state.Peers, tm state.Time, mods modifier.Chain) {
	t.value = mods.Apply(peers, tm, t.value)
}

// applyConditions evaluates every condition, even after one blocks, so
// condition timers advance every tick.
func (t *tracker) applyConditions(peers state.Peers, tm state.Time, conds []condition.Condition) {
	for _, c := range conds {
		s := c.Evaluate(peers, tm, t.value)
		switch c.Kind() {
		case condition.Explicit:
			t.foundExplicit = true
			t.anyExplicitFired = t.anyExplicitFired || s == state.Fired
			t.foundActive = t.foundActive || s != state.None
		case condition.Implicit:
			t.foundImplicit = true
			t.allImplicitsFired = t.allImplicitsFired && s == state.Fired
			t.foundActive = t.foundActive || s != state.None
		case condition.Blocker:
			t.blocked = t.blocked || s == state.None
		case condition.EventsBlocker:
			t.eventsBlocked = t.eventsBlocked || s == state.None
		}
	}
}

func (t *tracker) state() state.State {
	if t.blocked {
		return state.None
	}
	if !t.foundExplicit && !t.foundImplicit {
		if t.value.AsBool() {
			return state.Fired
		}
		return state.None
	}
	if (!t.foundExplicit || t.anyExplicitFired) && t.allImplicitsFired {
		return state.Fired
	}
	if t.foundActive {
		return state.Ongoing
	}
	return state.None
}

// overwrite replaces t with o, keeping t's value dimension.
func (t *tracker) overwrite(o tracker) {
	dim := t.value.Dim()
	*t = o
	t.value = t.value.Convert(dim)
}

// combine merges o into t, keeping t's value dimension.
func (t *tracker) combine(o tracker, acc Accumulation) {
	a := t.value.Vec()
	b := o.value.Vec()
	var sum value.Vec3
	switch acc {
	case Cumulative:
		sum = a.Add(b)
	default:
		sum = value.Vec3{X: maxAbs(a.X, b.X), Y: maxAbs(a.Y, b.Y), Z: maxAbs(a.Z, b.Z)}
	}
	t.value = value.FromVec(t.value.Dim(), sum).Sanitize()

	t.foundExplicit = t.foundExplicit || o.foundExplicit
	t.anyExplicitFired = t.anyExplicitFired || o.anyExplicitFired
	t.foundImplicit = t.foundImplicit || o.foundImplicit
	t.allImplicitsFired = t.allImplicitsFired && o.allImplicitsFired
	t.foundActive = t.foundActive || o.foundActive
	t.blocked = t.blocked || o.blocked
	t.eventsBlocked = t.eventsBlocked || o.eventsBlocked
}

func maxAbs(a, b float32) float32 {
	if abs(a) < abs(b) {
		return b
	}
	return a
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
