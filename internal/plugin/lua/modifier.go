package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/actionflow/internal/input/modifier"
	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/input/value"
	"github.com/dshills/actionflow/internal/logging"
)

// TransformFunc is the global a modifier script must define.
const TransformFunc = "transform"

// ScriptModifier runs a script's transform function on each value.
// The script declares the dimension it operates on; its output has that
// dimension.
type ScriptModifier struct {
	script *Script
	dim    value.Dim
	state  *State
	log    *logging.Logger
}

// NewModifier loads script into a fresh state. dim is the dimension the
// script reads and produces.
func NewModifier(script *Script, dim value.Dim, log *logging.Logger, opts ...StateOption) (*ScriptModifier, error) {
	if log == nil {
		log = logging.Nop()
	}
	log = log.WithComponent("lua").WithField("script", script.Name())
	st := NewState(append([]StateOption{WithLogger(log)}, opts...)...)
	if err := st.Load(script); err != nil {
		st.Close()
		return nil, fmt.Errorf("loading %s: %w", script.Name(), err)
	}
	if !st.HasFunction(TransformFunc) {
		st.Close()
		return nil, fmt.Errorf("%w: %s does not define %s", ErrInvalidScript, script.Name(), TransformFunc)
	}
	return &ScriptModifier{script: script, dim: dim, state: st, log: log}, nil
}

// Name implements modifier.Namer.
func (m *ScriptModifier) Name() string { return "lua:" + m.script.Name() }

// Dim returns the declared dimension.
func (m *ScriptModifier) Dim() value.Dim { return m.dim }

// OutputDim implements modifier.Shaper. The input must carry at least as
// many axes as the script declares.
func (m *ScriptModifier) OutputDim(in value.Dim) (value.Dim, error) {
	if in.Axes() < m.dim.Axes() {
		return in, fmt.Errorf("%w: script %s reads %s, input is %s", modifier.ErrInvalidModifier, m.script.Name(), m.dim, in)
	}
	return m.dim, nil
}

// Transform calls the script. On error the input value is returned.
func (m *ScriptModifier) Transform(_ state.Peers, t state.Time, v value.Value) value.Value {
	vec := v.Vec()
	results, err := m.state.Call(TransformFunc, 3,
		lua.LNumber(vec.X), lua.LNumber(vec.Y), lua.LNumber(vec.Z),
		lua.LString(m.dim.String()), lua.LNumber(t.DeltaSeconds()))
	if err != nil {
		m.log.Error("transform failed: %v", err)
		return v
	}

	out := vec
	for i, r := range results {
		n, ok := r.(lua.LNumber)
		if !ok {
			if r != lua.LNil {
				m.log.WarnOnce("lua:"+m.script.Name()+":result", "transform returned %s for axis %d, keeping input", r.Type(), i)
			}
			continue
		}
		switch i {
		case 0:
			out.X = float32(n)
		case 1:
			out.Y = float32(n)
		case 2:
			out.Z = float32(n)
		}
	}
	return value.FromVec(m.dim, out)
}

// Close releases the script state.
func (m *ScriptModifier) Close() error { return m.state.Close() }
