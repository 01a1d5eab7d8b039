// Package keymap provides declarative context definitions for the input
// handler.
//
// A Keymap names a context, its priority and its actions. Each action
// lists bindings, either a single input specification or a preset such as
// "wasd", plus modifier and condition specs. Specs are {type, params}
// pairs that a Factory turns into fresh modifier and condition instances,
// so every Build produces a context with its own timers.
//
// # File Formats
//
// Keymaps load from JSON, TOML or YAML, selected by file extension:
//
//	name = "gameplay"
//	priority = 0
//
//	[[actions]]
//	name = "jump"
//	[[actions.bindings]]
//	input = "Space"
//	[[actions.conditions]]
//	type = "press"
//
// Durations in params accept strings such as "250ms" or numbers of
// seconds. Unknown fields and params are errors.
//
// # Usage
//
//	registry := keymap.NewRegistry(keymap.NewFactory())
//	keymap.LoadDefaults(registry)
//	loader := keymap.NewLoader(log)
//	loader.AddSearchPath("keymaps")
//	loader.LoadAndRegister(registry)
//
//	registry.Install(handler)
//	handler.Activate("gameplay")
package keymap
