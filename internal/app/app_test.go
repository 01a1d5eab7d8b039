package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/actionflow/internal/config"
	"github.com/dshills/actionflow/internal/config/watcher"
	"github.com/dshills/actionflow/internal/input"
	"github.com/dshills/actionflow/internal/input/device"
	"github.com/dshills/actionflow/internal/input/state"
	"github.com/dshills/actionflow/internal/terminal"
)

const tick = 16 * time.Millisecond

// combatKeymap binds fire to key and halves its value with a script.
func combatKeymap(key string) string {
	return `
name: combat
priority: 5
actions:
  - name: fire
    dim: axis1d
    bindings:
      - input: ` + key + `
    modifiers:
      - type: lua
        params:
          script: |
            function transform(x, y, z, dim, dt)
              return x * 0.5, y, z
            end
`
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(dirs ...string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Input.KeymapPaths = dirs
	return cfg
}

func newTestApp(t *testing.T, opts Options) *Application {
	t.Helper()
	if opts.LogOutput == nil {
		opts.LogOutput = io.Discard
	}
	app, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(app.Shutdown)
	return app
}

// drain returns the events emitted so far.
func drain(app *Application) []input.Event {
	var events []input.Event
	for {
		select {
		case ev := <-app.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}

func find(events []input.Event, actionName string, kind state.Events) (input.Event, bool) {
	for _, ev := range events {
		if ev.Action == actionName && ev.Kind == kind {
			return ev, true
		}
	}
	return input.Event{}, false
}

func TestNewWithDefaults(t *testing.T) {
	app := newTestApp(t, Options{Config: testConfig()})

	app.Tick(tick)
	if got := app.Handler().Active(); len(got) != 1 || got[0] != "gameplay" {
		t.Fatalf("Active() = %v, want [gameplay]", got)
	}

	app.Source().PressKey(device.KeySpace, device.ModNone)
	app.Tick(tick)
	if _, ok := find(drain(app), "jump", state.FiredEvent); !ok {
		t.Error("Space should fire jump")
	}
	if app.Config().Input.TickRate != 60 {
		t.Errorf("TickRate = %d", app.Config().Input.TickRate)
	}
}

func TestNewLoadsKeymapDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "combat.yaml"), combatKeymap("KeyF"))
	writeFile(t, filepath.Join(dir, "broken.json"), "{")

	cfg := testConfig(dir, filepath.Join(dir, "missing"))
	cfg.Input.Defaults = false
	cfg.Input.Activate = []string{"combat"}
	app := newTestApp(t, Options{Config: cfg})

	if names := app.Registry().Names(); len(names) != 1 || names[0] != "combat" {
		t.Fatalf("Names() = %v, want [combat]", names)
	}

	app.Tick(tick)
	app.Source().PressKey(device.KeyF, device.ModNone)
	app.Tick(tick)
	ev, ok := find(drain(app), "fire", state.FiredEvent)
	if !ok {
		t.Fatal("F should fire")
	}
	if got := ev.Value.AsAxis1D(); got != 0.5 {
		t.Errorf("fire value = %v, want 0.5 from the script", got)
	}
}

func TestNewErrors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.yaml")
	writeFile(t, broken, "name: [")

	unknown := testConfig()
	unknown.Input.Activate = []string{"missing"}

	invalid := testConfig()
	invalid.Input.TickRate = 0

	tests := []struct {
		name      string
		opts      Options
		component string
	}{
		{"explicit broken file", Options{Config: testConfig(), KeymapFiles: []string{broken}}, "keymaps"},
		{"unknown context", Options{Config: unknown}, "contexts"},
		{"invalid config", Options{Config: invalid}, "config"},
		{"missing config file", Options{ConfigPath: filepath.Join(dir, "nope.toml")}, "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.LogOutput = io.Discard
			_, err := New(tt.opts)
			var ie *InitError
			if !errors.As(err, &ie) {
				t.Fatalf("New() error = %v, want *InitError", err)
			}
			if ie.Component != tt.component {
				t.Errorf("Component = %q, want %q", ie.Component, tt.component)
			}
		})
	}
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "combat.yaml")
	writeFile(t, path, combatKeymap("KeyF"))

	cfg := testConfig()
	cfg.Input.Activate = []string{"gameplay", "combat"}
	app := newTestApp(t, Options{Config: cfg, KeymapFiles: []string{path}})
	app.Tick(tick)

	writeFile(t, path, combatKeymap("KeyG"))
	if err := app.Reload(watcher.Event{Path: path, Op: watcher.OpWrite}); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	app.Tick(tick)

	app.Source().PressKey(device.KeyG, device.ModNone)
	app.Tick(tick)
	if _, ok := find(drain(app), "fire", state.FiredEvent); !ok {
		t.Error("G should fire after reload")
	}

	writeFile(t, path, "name: combat\nactions:\n  - name: fire\n    bindings:\n      - input: NotAKey\n")
	err := app.Reload(watcher.Event{Path: path, Op: watcher.OpWrite})
	var re *ReloadError
	if !errors.As(err, &re) || re.Keymap != "combat" {
		t.Fatalf("Reload(bad) error = %v, want ReloadError for combat", err)
	}
	if km := app.Registry().Get("combat"); km == nil || km.Actions[0].Bindings[0].Input != "KeyG" {
		t.Error("failed reload should keep the previous definition")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := app.Reload(watcher.Event{Path: path, Op: watcher.OpRemove}); err != nil {
		t.Errorf("Reload(removed) error = %v", err)
	}
	if app.Registry().Get("combat") == nil {
		t.Error("removed file should keep its keymap registered")
	}
}

func TestWatchReloadsKeymaps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "combat.yaml")
	writeFile(t, path, combatKeymap("KeyF"))

	cfg := testConfig(dir)
	cfg.Input.Watch = true
	app := newTestApp(t, Options{Config: cfg})

	writeFile(t, path, combatKeymap("KeyH"))
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if km := app.Registry().Get("combat"); km != nil && km.Actions[0].Bindings[0].Input == "KeyH" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("keymap change was not picked up")
}

func TestRunQuitsOnEscape(t *testing.T) {
	app := newTestApp(t, Options{Config: testConfig()})
	sim := tcell.NewSimulationScreen("UTF-8")
	screen := terminal.NewScreenWith(sim, "actionflow")

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background(), screen) }()

	timeout := time.After(3 * time.Second)
	for {
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
			if app.IsRunning() {
				t.Error("IsRunning() after Run returned")
			}
			return
		case <-time.After(20 * time.Millisecond):
			if app.IsRunning() {
				sim.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
			}
		case <-timeout:
			t.Fatal("Run did not quit")
		}
	}
}

func TestRunStopsOnShutdown(t *testing.T) {
	app := newTestApp(t, Options{Config: testConfig()})
	screen := terminal.NewScreenWith(tcell.NewSimulationScreen("UTF-8"), "")

	if err := app.Run(context.Background(), nil); !errors.Is(err, ErrNoScreen) {
		t.Errorf("Run(nil) = %v, want ErrNoScreen", err)
	}

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background(), screen) }()
	time.Sleep(50 * time.Millisecond)
	app.Shutdown()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after Shutdown")
	}
	app.Shutdown()
}

func TestIsKeymapFile(t *testing.T) {
	for path, want := range map[string]bool{
		"a.json": true, "a.toml": true, "a.yaml": true, "a.yml": true,
		"a.txt": false, "a": false,
	} {
		if got := isKeymapFile(path); got != want {
			t.Errorf("isKeymapFile(%q) = %v, want %v", path, got, want)
		}
	}
}
