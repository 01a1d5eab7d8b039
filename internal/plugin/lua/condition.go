package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/actionflow/internal/input/condition"
	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
	"github.com/dshills/actionflow/internal/logging"
)

// EvaluateFunc is the global a condition script must define.
const EvaluateFunc = "evaluate"

// ScriptCondition asks a script's evaluate function for the verdict.
type ScriptCondition struct {
	script *Script
	kind   condition.Kind
	state  *State
	log    *logging.Logger
}

// NewCondition loads script into a fresh state.
func NewCondition(script *Script, kind condition.Kind, log *logging.Logger, opts ...StateOption) (*ScriptCondition, error) {
	if log == nil {
		log = logging.Nop()
	}
	log = log.WithComponent("lua").WithField("script", script.Name())
	st := NewState(append([]StateOption{WithLogger(log)}, opts...)...)
	if err := st.Load(script); err != nil {
		st.Close()
		return nil, fmt.Errorf("loading %s: %w", script.Name(), err)
	}
	if !st.HasFunction(EvaluateFunc) {
		st.Close()
		return nil, fmt.Errorf("%w: %s does not define %s", ErrInvalidScript, script.Name(), EvaluateFunc)
	}
	return &ScriptCondition{script: script, kind: kind, state: st, log: log}, nil
}

// Kind implements condition.Condition.
func (c *ScriptCondition) Kind() condition.Kind { return c.kind }

// Evaluate calls the script. Errors and unknown verdicts yield None.
func (c *ScriptCondition) Evaluate(_ state.Peers, t state.Time, v value.Value) state.State {
	vec := v.Vec()
	results, err := c.state.Call(EvaluateFunc, 1,
		lua.LNumber(vec.X), lua.LNumber(vec.Y), lua.LNumber(vec.Z),
		lua.LNumber(t.DeltaSeconds()))
	if err != nil {
		c.log.Error("evaluate failed: %v", err)
		return state.None
	}

	verdict, ok := results[0].(lua.LString)
	if !ok {
		c.log.WarnOnce("lua:"+c.script.Name()+":verdict", "evaluate returned %s, want a state name", results[0].Type())
		return state.None
	}
	s, ok := state.ParseState(string(verdict))
	if !ok {
		c.log.WarnOnce("lua:"+c.script.Name()+":verdict", "evaluate returned unknown state %q", string(verdict))
		return state.None
	}
	return s
}

// Close releases the script state.
func (c *ScriptCondition) Close() error { return c.state.Close() }
