package terminal

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Screen wraps a tcell screen with a scrolling log and a status line.
type Screen struct {
	screen tcell.Screen
	mu     sync.Mutex
	lines  []string
	status string
	title  string
}

// NewScreen creates a screen on the controlling terminal.
func NewScreen(title string) (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewScreenWith(s, title), nil
}

// NewScreenWith wraps an existing tcell screen, such as a simulation
// screen in tests.
func NewScreenWith(s tcell.Screen, title string) *Screen {
	return &Screen{screen: s, title: title}
}

// Init initializes the terminal and enables mouse reporting.
func (s *Screen) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.screen.Init(); err != nil {
		return err
	}
	s.screen.EnableMouse()
	s.screen.HideCursor()
	return nil
}

// Fini restores the terminal.
func (s *Screen) Fini() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.Fini()
}

// Events polls the terminal on its own goroutine until ctx is done or
// the screen is finalized. The channel is closed when polling stops.
func (s *Screen) Events(ctx context.Context) <-chan tcell.Event {
	ch := make(chan tcell.Event, 64)
	go func() {
		defer close(ch)
		for {
			ev := s.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// Println appends a line to the log.
func (s *Screen) Println(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
	// The log never needs more rows than a tall terminal.
	if len(s.lines) > 500 {
		s.lines = append(s.lines[:0], s.lines[len(s.lines)-500:]...)
	}
}

// SetStatus replaces the status line.
func (s *Screen) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Lines returns a copy of the log.
func (s *Screen) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

// Draw renders the title, the newest log lines and the status line.
func (s *Screen) Draw() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screen.Clear()
	width, height := s.screen.Size()
	if height <= 0 {
		return
	}
	titleStyle := tcell.StyleDefault.Bold(true)
	statusStyle := tcell.StyleDefault.Reverse(true)

	s.drawText(0, width, s.title, titleStyle)
	rows := max(height-2, 0)
	start := 0
	if len(s.lines) > rows {
		start = len(s.lines) - rows
	}
	for i, line := range s.lines[start:] {
		s.drawText(i+1, width, line, tcell.StyleDefault)
	}
	if height > 1 {
		s.drawText(height-1, width, s.status, statusStyle)
	}
	s.screen.Show()
}

func (s *Screen) drawText(y, width int, text string, style tcell.Style) {
	x := 0
	for _, r := range text {
		if x >= width {
			return
		}
		s.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
