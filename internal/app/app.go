// Package app wires configuration, keymaps, scripting, the input handler
// and the terminal into a running application.
package app

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/actionflow/internal/config"
	"github.com/dshills/actionflow/internal/config/watcher"
	"github.com/dshills/actionflow/internal/input"
	"github.com/dshills/actionflow/internal/input/device"
	"github.com/dshills/actionflow/internal/input/keymap"
	"github.com/dshills/actionflow/internal/logging"
	"github.com/dshills/actionflow/internal/plugin/lua"
	"github.com/dshills/actionflow/internal/terminal"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty uses defaults plus the
	// environment.
	ConfigPath string

	// Config replaces loading from ConfigPath when set.
	Config *config.Config

	// KeymapFiles are loaded after the search paths. Unlike files found in
	// search paths, a broken file here is a startup error.
	KeymapFiles []string

	// LogOutput receives log lines. Defaults to stderr.
	LogOutput io.Writer

	// EventBuffer is the size of the event channel. Defaults to 256.
	EventBuffer int
}

// Application owns the input handler and the components around it.
type Application struct {
	mu sync.Mutex

	opts Options
	cfg  *config.Config
	log  *logging.Logger

	factory  *keymap.Factory
	registry *keymap.Registry
	loader   *keymap.Loader
	handler  *input.Handler
	watcher  *watcher.Watcher

	source   *terminal.Source
	snapshot *device.Snapshot
	events   *input.ChanSink

	// files maps keymap file paths to the keymap name they define.
	files map[string]string

	running atomic.Bool
	done    chan struct{}
	once    sync.Once
}

// New creates an application and bootstraps every component.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:     opts,
		source:   terminal.NewSource(),
		snapshot: device.NewSnapshot(),
		files:    make(map[string]string),
		done:     make(chan struct{}),
	}
	if err := app.bootstrap(); err != nil {
		app.closeWatcher()
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Configuration
	cfg := app.opts.Config
	if cfg == nil {
		loaded, err := config.Load(app.opts.ConfigPath)
		if err != nil {
			return &InitError{Component: "config", Err: err}
		}
		cfg = loaded
	} else if err := cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.cfg = cfg

	// 2. Logging
	out := app.opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	app.log = logging.New(logging.Config{Level: cfg.Level(), Output: out, Prefix: "actionflow"})

	// 3. Factory with scripted modifiers and conditions
	app.factory = keymap.NewFactory()
	app.factory.SetActuation(cfg.Input.Actuation)
	lua.Register(app.factory, app.log)

	// 4. Keymaps
	app.registry = keymap.NewRegistry(app.factory)
	if cfg.Input.Defaults {
		if err := keymap.LoadDefaults(app.registry); err != nil {
			return &InitError{Component: "keymaps", Err: err}
		}
	}
	app.loader = keymap.NewLoader(app.log)
	for _, dir := range cfg.Input.KeymapPaths {
		if _, err := os.Stat(dir); err != nil {
			app.log.Debug("keymap path %s not found", dir)
			continue
		}
		app.loader.AddSearchPath(dir)
	}
	for _, path := range app.loader.Files() {
		if err := app.loadKeymap(path); err != nil {
			app.log.Warn("skipping keymap: %v", err)
		}
	}
	for _, path := range app.opts.KeymapFiles {
		if err := app.loadKeymap(path); err != nil {
			return &InitError{Component: "keymaps", Err: err}
		}
	}

	// 5. Input handler
	app.handler = input.NewHandler(input.Config{
		Logger:         app.log,
		MetricsEnabled: cfg.Input.MetricsEnabled,
		MaxDelta:       cfg.Input.MaxDelta,
	})
	app.registry.Install(app.handler)

	size := app.opts.EventBuffer
	if size <= 0 {
		size = 256
	}
	app.events = input.NewChanSink(size)
	observers := app.handler.Observers()
	observers.RegisterWithOptions(input.LoggingObserver{Logger: app.log.WithComponent("events")}, "log", input.ObserverPriorityLow)
	observers.RegisterWithOptions(input.SinkObserver{Sink: app.events}, "events", input.ObserverPriorityNormal)

	for _, name := range cfg.Input.Activate {
		if err := app.handler.Activate(name); err != nil {
			return &InitError{Component: "contexts", Err: err}
		}
	}

	// 6. Hot reload
	if cfg.Input.Watch {
		if err := app.startWatcher(); err != nil {
			return &InitError{Component: "watcher", Err: err}
		}
	}

	app.log.Info("ready: %d keymaps, active %v", len(app.registry.Names()), cfg.Input.Activate)
	return nil
}

// loadKeymap loads one file into the registry and remembers where it
// came from.
func (app *Application) loadKeymap(path string) error {
	km, err := app.loader.LoadFile(path)
	if err != nil {
		return err
	}
	if err := app.registry.Register(km); err != nil {
		return err
	}
	app.mu.Lock()
	app.files[absPath(path)] = km.Name
	app.mu.Unlock()
	app.log.Debug("loaded keymap %q from %s", km.Name, path)
	return nil
}

// Tick feeds pending terminal input into the snapshot and runs one
// handler tick.
func (app *Application) Tick(delta time.Duration) {
	app.source.Apply(app.snapshot)
	app.handler.Tick(app.snapshot, delta)
	app.snapshot.EndTick()
}

// Shutdown stops Run and releases the watcher.
func (app *Application) Shutdown() {
	app.once.Do(func() {
		close(app.done)
		app.closeWatcher()
		app.events.Close()
	})
}

func (app *Application) closeWatcher() {
	if app.watcher != nil {
		if err := app.watcher.Close(); err != nil {
			app.log.Warn("closing watcher: %v", err)
		}
	}
}

// Config returns the loaded configuration.
func (app *Application) Config() *config.Config { return app.cfg }

// Handler returns the input handler.
func (app *Application) Handler() *input.Handler { return app.handler }

// Registry returns the keymap registry.
func (app *Application) Registry() *keymap.Registry { return app.registry }

// Source returns the terminal input source.
func (app *Application) Source() *terminal.Source { return app.source }

// Events returns the channel of emitted input events.
func (app *Application) Events() <-chan input.Event { return app.events.Events() }

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger { return app.log }

// IsRunning reports whether Run is active.
func (app *Application) IsRunning() bool { return app.running.Load() }
