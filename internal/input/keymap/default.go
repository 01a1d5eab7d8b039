package keymap

// LoadDefaults registers the built-in keymaps.
func LoadDefaults(r *Registry) error {
	keymaps := []*Keymap{
		DefaultGameplayKeymap(),
		DefaultMenuKeymap(),
	}

	for _, km := range keymaps {
		if err := r.Register(km); err != nil {
			return err
		}
	}

	return nil
}

// DefaultGameplayKeymap returns movement, jump and attack bindings for
// keyboard and gamepad.
func DefaultGameplayKeymap() *Keymap {
	return &Keymap{
		Name:   "gameplay",
		Source: "default",
		Actions: []Action{
			{
				Name:         "move",
				Dim:          "axis2d",
				Accumulation: "cumulative",
				Description:  "Move",
				Bindings: []Binding{
					BindPreset("wasd"),
					BindPreset("arrows"),
					BindPreset("left_stick").WithModifiers(NewSpec("dead_zone", "kind", "radial")),
				},
				Modifiers: []Spec{NewSpec("clamp", "min", -1, "max", 1)},
			},
			{
				Name:        "jump",
				Description: "Jump",
				Bindings: []Binding{
					Bind("Space"),
					Bind("Gamepad:South"),
				},
				Conditions: []Spec{NewSpec("press")},
			},
			{
				Name:        "attack",
				Description: "Attack",
				Bindings: []Binding{
					Bind("KeyJ"),
					Bind("Gamepad:West"),
				},
				Conditions: []Spec{NewSpec("pulse", "interval", "250ms")},
			},
			{
				Name:        "charge",
				Description: "Charged attack",
				Bindings: []Binding{
					Bind("KeyK"),
				},
				Conditions: []Spec{NewSpec("hold_and_release", "duration", "1s")},
			},
			{
				Name:         "pause",
				Description:  "Open the menu",
				RequireReset: true,
				Bindings: []Binding{
					Bind("Escape"),
					Bind("Gamepad:Start"),
				},
				Conditions: []Spec{NewSpec("press")},
			},
		},
	}
}

// DefaultMenuKeymap returns menu navigation bindings. It has a higher
// priority so it shadows gameplay while open.
func DefaultMenuKeymap() *Keymap {
	return &Keymap{
		Name:     "menu",
		Priority: 10,
		Source:   "default",
		Actions: []Action{
			{
				Name:        "navigate",
				Dim:         "axis2d",
				Description: "Move the selection",
				Bindings: []Binding{
					BindPreset("arrows"),
					BindPreset("dpad"),
				},
				Conditions: []Spec{NewSpec("pulse", "interval", "200ms")},
			},
			{
				Name:        "confirm",
				Description: "Confirm the selection",
				Bindings: []Binding{
					Bind("Enter"),
					Bind("Space"),
					Bind("Gamepad:South"),
				},
				Conditions: []Spec{NewSpec("press")},
			},
			{
				Name:         "close",
				Description:  "Close the menu",
				RequireReset: true,
				Bindings: []Binding{
					Bind("Escape"),
					Bind("Gamepad:East"),
				},
				Conditions: []Spec{NewSpec("press")},
			},
		},
	}
}
