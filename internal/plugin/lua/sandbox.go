package lua

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/actionflow/internal/logging"
)

// safeModules can be required from scripts. They are opened by
// openSafeLibraries, so require returns the global table.
var safeModules = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// openSafeLibraries opens only the Lua libraries a script can use without
// touching the host. Each opener runs through Call so its module table
// does not stay on the stack.
func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
}

// installSandbox removes loaders that can reach the filesystem or compile
// new code and routes print to the logger. require only returns the
// already opened safe libraries.
func installSandbox(L *lua.LState, log *logging.Logger) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage"} {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		log.Debug("script: %s", strings.Join(parts, "\t"))
		return 0
	}))

	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !safeModules[name] {
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(L.GetGlobal(name))
		return 1
	}))
}
