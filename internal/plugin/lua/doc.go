// Package lua provides Lua-scripted modifiers and conditions for the
// input system.
//
// Scripts run in a sandboxed gopher-lua state with only the base, table,
// string and math libraries. Every call into a script runs under a time
// budget; a script that exceeds it is interrupted.
//
// # Modifiers
//
// A modifier script defines a global transform function receiving the
// value axes, the dimension name and the tick delta in seconds. It returns
// up to three numbers:
//
//	function transform(x, y, z, dim, dt)
//	    return -x, y * 2, z
//	end
//
// # Conditions
//
// A condition script defines a global evaluate function returning "none",
// "ongoing" or "fired":
//
//	local held = 0
//	function evaluate(x, y, z, dt)
//	    if x == 0 then held = 0 return "none" end
//	    held = held + dt
//	    if held >= 0.3 then return "fired" end
//	    return "ongoing"
//	end
//
// Each modifier or condition instance owns its own Lua state, so script
// locals such as held above are per binding.
//
// Errors raised while a script is evaluated are logged. A failing modifier
// passes its input through unchanged and a failing condition returns None.
//
// # Keymaps
//
// Register adds the "lua" modifier and condition types to a keymap
// factory:
//
//	[[actions.modifiers]]
//	type = "lua"
//	params = { file = "scripts/invert.lua", dim = "axis2d" }
package lua
