package app

import (
	"errors"
	"path/filepath"

	"github.com/dshills/actionflow/internal/config/watcher"
	"github.com/dshills/actionflow/internal/input/keymap"
)

// startWatcher watches the keymap search paths and explicit keymap files.
func (app *Application) startWatcher() error {
	w, err := watcher.New(
		watcher.WithFilter(isKeymapFile),
		watcher.WithLogger(app.log),
	)
	if err != nil {
		return err
	}
	app.watcher = w

	targets := append(app.loader.SearchPaths(), app.opts.KeymapFiles...)
	for _, path := range targets {
		if err := w.Watch(path); err != nil && !errors.Is(err, watcher.ErrAlreadyWatching) {
			return err
		}
	}
	w.OnChange(func(ev watcher.Event) {
		if err := app.Reload(ev); err != nil {
			app.log.Warn("%v", err)
		}
	})
	app.log.Info("watching %d keymap locations", len(w.WatchedPaths()))
	return nil
}

// Reload applies a keymap file change. A changed file is decoded and
// registered, then any active context built from it is rebuilt at the
// next tick. A removed file leaves its last definition registered.
// Errors leave the previous definition in effect.
func (app *Application) Reload(ev watcher.Event) error {
	path := absPath(ev.Path)

	app.mu.Lock()
	previous := app.files[path]
	app.mu.Unlock()

	if ev.Op.Gone() {
		if previous != "" {
			app.log.Info("keymap file %s removed; keeping %q", ev.Path, previous)
		}
		return nil
	}

	km, err := app.loader.LoadFile(ev.Path)
	if err != nil {
		return &ReloadError{Path: ev.Path, Keymap: previous, Err: err}
	}
	if _, err := km.Build(app.factory); err != nil {
		return &ReloadError{Path: ev.Path, Keymap: km.Name, Err: err}
	}
	if err := app.registry.Register(km); err != nil {
		return &ReloadError{Path: ev.Path, Keymap: km.Name, Err: err}
	}

	app.mu.Lock()
	app.files[path] = km.Name
	app.mu.Unlock()

	app.handler.Register(app.registry.Builder(km.Name))
	if err := app.handler.Reload(km.Name); err != nil {
		return &ReloadError{Path: ev.Path, Keymap: km.Name, Err: err}
	}
	if previous != "" && previous != km.Name {
		app.log.Info("keymap file %s now defines %q instead of %q", ev.Path, km.Name, previous)
	}
	app.log.Info("keymap %q loaded from %s", km.Name, ev.Path)
	return nil
}

func isKeymapFile(path string) bool {
	_, err := keymap.FormatFromPath(path)
	return err == nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
