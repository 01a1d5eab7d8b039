package lua

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dshills/actionflow/internal/input/condition"
	"github.com/dshills/actionflow/internal/input/keymap"
	"github.com/dshills/actionflow/internal/input/modifier"
	"github.com/dshills/actionflow/internal/input/value"
	"github.com/dshills/actionflow/internal/logging"
)

// TypeName is the modifier and condition type registered by Register.
const TypeName = "lua"

type modifierParams struct {
	Script string        `mapstructure:"script"`
	File   string        `mapstructure:"file"`
	Budget time.Duration `mapstructure:"budget"`
	Dim    string        `mapstructure:"dim"`
}

type conditionParams struct {
	Script string        `mapstructure:"script"`
	File   string        `mapstructure:"file"`
	Budget time.Duration `mapstructure:"budget"`
	Kind   string        `mapstructure:"kind"`
}

// scriptCache compiles each file or inline source once.
type scriptCache struct {
	mu      sync.Mutex
	scripts map[string]*Script
}

func (c *scriptCache) get(source, file string) (*Script, error) {
	if (source == "") == (file == "") {
		return nil, fmt.Errorf("%w: exactly one of script or file is required", keymap.ErrInvalidParams)
	}
	key := "file:" + file
	if source != "" {
		key = "inline:" + source
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.scripts[key]; ok {
		return s, nil
	}

	var s *Script
	var err error
	if file != "" {
		s, err = CompileFile(file)
	} else {
		s, err = Compile("inline", source)
	}
	if err != nil {
		return nil, err
	}
	c.scripts[key] = s
	return s, nil
}

// Register adds the "lua" modifier and condition types to f.
//
// Modifier params: script (inline source) or file, dim (default axis1d)
// and budget. Condition params: script or file, kind (default explicit)
// and budget. Every built instance gets its own Lua state.
func Register(f *keymap.Factory, log *logging.Logger) {
	if log == nil {
		log = logging.Nop()
	}
	cache := &scriptCache{scripts: make(map[string]*Script)}

	f.RegisterModifier(TypeName, func(params map[string]any) (modifier.Modifier, error) {
		p := modifierParams{Dim: "axis1d"}
		if err := keymap.Decode(params, &p); err != nil {
			return nil, err
		}
		dim, err := value.ParseDim(p.Dim)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", keymap.ErrInvalidParams, err)
		}
		script, err := cache.get(p.Script, p.File)
		if err != nil {
			return nil, err
		}
		m, err := NewModifier(script, dim, log, budget(p.Budget)...)
		if err != nil {
			return nil, err
		}
		return m, nil
	})

	f.RegisterCondition(TypeName, func(params map[string]any) (condition.Condition, error) {
		var p conditionParams
		if err := keymap.Decode(params, &p); err != nil {
			return nil, err
		}
		kind, err := parseKind(p.Kind)
		if err != nil {
			return nil, err
		}
		script, err := cache.get(p.Script, p.File)
		if err != nil {
			return nil, err
		}
		c, err := NewCondition(script, kind, log, budget(p.Budget)...)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

func budget(d time.Duration) []StateOption {
	if d <= 0 {
		return nil
	}
	return []StateOption{WithBudget(d)}
}

func parseKind(s string) (condition.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "explicit":
		return condition.Explicit, nil
	case "implicit":
		return condition.Implicit, nil
	case "blocker":
		return condition.Blocker, nil
	case "events_blocker":
		return condition.EventsBlocker, nil
	}
	return condition.Explicit, fmt.Errorf("%w: unknown condition kind %q", keymap.ErrInvalidParams, s)
}
