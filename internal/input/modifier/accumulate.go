package modifier

import (
	"fmt"

	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
)

// AccumulateBy sums values across ticks while another action is Fired.
// When that action is not Fired, the running total restarts from the
// current value. An unknown action leaves values unchanged.
type AccumulateBy struct {
	Action string

	total value.Vec3
}

// NewAccumulateBy creates an AccumulateBy gated on the named action.
func NewAccumulateBy(action string) *AccumulateBy {
	return &AccumulateBy{Action: action}
}

func (m *AccumulateBy) Name() string { return "accumulate_by" }

// Transform implements Modifier.
func (m *AccumulateBy) Transform(peers state.Peers, _ state.Time, v value.Value) value.Value {
	peer, ok := peers.Lookup(m.Action)
	if !ok {
		return v
	}
	if peer.State == state.Fired {
		m.total = m.total.Add(v.Vec())
	} else {
		m.total = v.Vec()
	}
	return value.FromVec(arith(v.Dim()), m.total)
}

// OutputDim implements Shaper.
func (m *AccumulateBy) OutputDim(in value.Dim) (value.Dim, error) {
	if m.Action == "" {
		return in, fmt.Errorf("%w: accumulate_by needs an action", ErrInvalidModifier)
	}
	return arith(in), nil
}

// References implements state.Referencer.
func (m *AccumulateBy) References() []string {
	return []string{m.Action}
}
