package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates Run was called twice.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNoScreen indicates Run was called without a screen.
	ErrNoScreen = errors.New("no screen")
)

// InitError reports a component that failed during bootstrap.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// ReloadError reports a keymap file that could not be applied. The
// previously loaded definition stays in effect.
type ReloadError struct {
	Path   string
	Keymap string
	Err    error
}

func (e *ReloadError) Error() string {
	if e.Keymap != "" {
		return fmt.Sprintf("reload %s (%s): %v", e.Path, e.Keymap, e.Err)
	}
	return fmt.Sprintf("reload %s: %v", e.Path, e.Err)
}

func (e *ReloadError) Unwrap() error {
	return e.Err
}
