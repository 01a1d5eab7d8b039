package lua

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/dshills/actionflow/internal/logging"
)

// Default limits for a script state.
const (
	DefaultBudget        = 5 * time.Millisecond
	DefaultCallStackSize = 64
	DefaultRegistrySize  = 1024
)

// Script is compiled Lua source. A Script is immutable and can be loaded
// into any number of states.
type Script struct {
	name  string
	proto *lua.FunctionProto
}

// Compile parses and compiles Lua source. name is used in error messages.
func Compile(name, source string) (*Script, error) {
	chunk, err := parse.Parse(strings.NewReader(source), name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	return &Script{name: name, proto: proto}, nil
}

// CompileFile compiles the Lua file at path.
func CompileFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening script: %w", err)
	}
	defer f.Close()

	chunk, err := parse.Parse(bufio.NewReader(f), path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	return &Script{name: path, proto: proto}, nil
}

// Name returns the script name.
func (s *Script) Name() string { return s.name }

// State wraps a sandboxed gopher-lua state.
//
// gopher-lua's LState is not goroutine-safe. The mutex serializes calls
// from Go; a State is normally owned by one modifier or condition and
// called from the tick goroutine only.
type State struct {
	L *lua.LState

	mu     sync.Mutex
	budget time.Duration
	log    *logging.Logger
	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithBudget sets the maximum wall time of a single call. Zero disables
// the budget.
func WithBudget(d time.Duration) StateOption {
	return func(s *State) {
		s.budget = d
	}
}

// WithLogger routes script print output to log.
func WithLogger(log *logging.Logger) StateOption {
	return func(s *State) {
		if log != nil {
			s.log = log
		}
	}
}

// NewState creates a sandboxed Lua state.
func NewState(opts ...StateOption) *State {
	s := &State{
		budget: DefaultBudget,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		CallStackSize:       DefaultCallStackSize,
		RegistrySize:        DefaultRegistrySize,
		IncludeGoStackTrace: false,
	})
	openSafeLibraries(L)
	installSandbox(L, s.log)
	s.L = L
	return s
}

// Load runs a compiled script's top-level chunk, defining its globals.
func (s *State) Load(script *Script) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	fn := s.L.NewFunctionFromProto(script.proto)
	s.L.Push(fn)
	return s.pcall(0, 0)
}

// DoString compiles and runs source.
func (s *State) DoString(source string) error {
	script, err := Compile("<string>", source)
	if err != nil {
		return err
	}
	return s.Load(script)
}

// HasFunction reports whether a global function named fn exists.
func (s *State) HasFunction(fn string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	return s.L.GetGlobal(fn).Type() == lua.LTFunction
}

// Call calls a global Lua function and returns exactly nret results,
// padding with nil.
func (s *State) Call(fn string, nret int, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	fnVal := s.L.GetGlobal(fn)
	if fnVal.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w: %q is not a function (got %s)", ErrInvalidScript, fn, fnVal.Type())
	}

	top := s.L.GetTop()
	s.L.Push(fnVal)
	for _, arg := range args {
		s.L.Push(arg)
	}
	if err := s.pcall(len(args), nret); err != nil {
		s.L.SetTop(top)
		return nil, err
	}

	results := make([]lua.LValue, nret)
	for i := 0; i < nret; i++ {
		results[i] = s.L.Get(top + i + 1)
	}
	s.L.SetTop(top)
	return results, nil
}

// pcall calls the function on the stack under the budget. The lock must
// be held.
func (s *State) pcall(nargs, nret int) (err error) {
	if s.budget > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), s.budget)
		defer cancel()
		s.L.SetContext(ctx)
		defer s.L.RemoveContext()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	if err := s.L.PCall(nargs, nret, nil); err != nil {
		var apiErr *lua.ApiError
		if errors.As(err, &apiErr) && strings.Contains(apiErr.Object.String(), context.DeadlineExceeded.Error()) {
			return fmt.Errorf("%w after %v", ErrExecutionTimeout, s.budget)
		}
		return err
	}
	return nil
}

// Close releases the Lua state. Later calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
