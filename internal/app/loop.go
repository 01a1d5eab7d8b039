package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/actionflow/internal/input"
	"github.com/dshills/actionflow/internal/terminal"
)

// Run initializes screen and runs the tick loop until ctx is done,
// Shutdown is called or the user quits with Escape or Ctrl+C. Emitted
// events are printed to the screen log.
func (app *Application) Run(ctx context.Context, screen *terminal.Screen) error {
	if screen == nil {
		return ErrNoScreen
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if err := screen.Init(); err != nil {
		return &InitError{Component: "screen", Err: err}
	}
	defer screen.Fini()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	terminalEvents := screen.Events(ctx)

	ticker := time.NewTicker(app.cfg.TickInterval())
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-app.done:
			return nil

		case ev, ok := <-terminalEvents:
			if !ok {
				return nil
			}
			if isQuit(ev) {
				return nil
			}
			app.source.Feed(ev)

		case now := <-ticker.C:
			app.Tick(now.Sub(last))
			last = now
			app.drainEvents(screen)
			screen.SetStatus(app.status())
			screen.Draw()
		}
	}
}

// drainEvents moves the events of the last tick into the screen log.
func (app *Application) drainEvents(screen *terminal.Screen) {
	for {
		select {
		case ev, ok := <-app.events.Events():
			if !ok {
				return
			}
			screen.Println(formatEvent(ev))
		default:
			return
		}
	}
}

func (app *Application) status() string {
	m := app.handler.Metrics().Snapshot()
	return fmt.Sprintf(" %v | tick %d | avg %v p99 %v | held %v | Esc quits",
		app.handler.Active(), m.Ticks, m.AvgTickLatency, m.P99TickLatency, app.source.Held())
}

func formatEvent(ev input.Event) string {
	return fmt.Sprintf("%6d %-10s %-12s %-9s %v", ev.Tick, ev.Context, ev.Action, ev.Kind, ev.Value)
}

func isQuit(ev tcell.Event) bool {
	k, ok := ev.(*tcell.EventKey)
	if !ok {
		return false
	}
	key := k.Key()
	return key == tcell.KeyEscape || key == tcell.KeyCtrlC || key == tcell.KeyETX
}
