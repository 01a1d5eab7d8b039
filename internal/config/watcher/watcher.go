// Package watcher reports changes to configuration and keymap files.
//
// A Watcher wraps fsnotify. Directories are watched for any file that
// passes the filter; single files are watched through their parent
// directory. Bursts of events on one path within the debounce delay are
// coalesced into a single Event delivered to every registered Handler.
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/actionflow/internal/logging"
)

// Errors returned by Watcher.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrPathNotExist    = errors.New("path does not exist")
	ErrAlreadyWatching = errors.New("path is already being watched")
	ErrNotWatching     = errors.New("path is not being watched")
)

// DefaultDebounce is the coalescing delay when none is configured.
const DefaultDebounce = 100 * time.Millisecond

// Op is a set of file operations.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
)

// String returns the operation name. Combined operations print as
// "MULTI".
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	case 0:
		return "NONE"
	default:
		return "MULTI"
	}
}

// Has reports whether op includes o.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Gone reports whether the last known state of the file is absent.
func (op Op) Gone() bool {
	return op.Has(OpRemove) || op.Has(OpRename)
}

// Event is a coalesced change to one file.
type Event struct {
	// Path is the absolute path of the file.
	Path string
	// Op holds every operation seen during the debounce window.
	Op Op
	// Time is when the last operation was seen.
	Time time.Time
}

// Handler is called for each debounced event. Handlers run on a timer
// goroutine.
type Handler func(Event)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the coalescing delay. Zero or negative uses
// DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithFilter restricts events to paths for which keep returns true.
func WithFilter(keep func(path string) bool) Option {
	return func(w *Watcher) { w.filter = keep }
}

// WithLogger sets the logger for fsnotify errors and handler panics.
func WithLogger(log *logging.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// Watcher delivers debounced file change events.
type Watcher struct {
	mu sync.RWMutex

	fsw      *fsnotify.Watcher
	debounce time.Duration
	filter   func(string) bool
	log      *logging.Logger

	// dirs are directories registered with fsnotify, counted by the
	// number of watched entries that need them.
	dirs map[string]int
	// paths are the watched entries: directories and single files.
	paths map[string]bool

	handlers []Handler

	pendingMu sync.Mutex
	pending   map[string]*pendingEvent

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

type pendingEvent struct {
	event Event
	timer *time.Timer
}

// New creates a watcher and starts its event loop.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: DefaultDebounce,
		log:      logging.Nop(),
		dirs:     make(map[string]int),
		paths:    make(map[string]bool),
		pending:  make(map[string]*pendingEvent),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.WithComponent("watcher")

	w.closedWg.Add(1)
	go w.processLoop()
	return w, nil
}

// Watch starts watching a directory or a single file.
func (w *Watcher) Watch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if w.paths[absPath] {
		return ErrAlreadyWatching
	}

	dir := absPath
	if !info.IsDir() {
		dir = filepath.Dir(absPath)
	}
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.paths[absPath] = true
	return nil
}

// Unwatch stops watching a path previously passed to Watch.
func (w *Watcher) Unwatch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if !w.paths[absPath] {
		return ErrNotWatching
	}
	delete(w.paths, absPath)

	dir := absPath
	if _, registered := w.dirs[absPath]; !registered {
		dir = filepath.Dir(absPath)
	}
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		// The directory may already be gone; fsnotify drops it then.
		_ = w.fsw.Remove(dir)
	}
	return nil
}

// IsWatching reports whether path was passed to Watch.
func (w *Watcher) IsWatching(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.paths[absPath]
}

// WatchedPaths returns the watched entries.
func (w *Watcher) WatchedPaths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	paths := make([]string, 0, len(w.paths))
	for p := range w.paths {
		paths = append(paths, p)
	}
	return paths
}

// OnChange registers a handler for debounced events.
func (w *Watcher) OnChange(h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Flush delivers every pending event immediately.
func (w *Watcher) Flush() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path, p := range w.pending {
		p.timer.Stop()
		paths = append(paths, path)
	}
	w.pendingMu.Unlock()

	for _, path := range paths {
		w.fire(path)
	}
}

// Close stops the watcher. Pending events are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.pendingMu.Lock()
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.pendingMu.Unlock()

	err := w.fsw.Close()
	w.closedWg.Wait()
	return err
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("fsnotify: %v", err)
		}
	}
}

func (w *Watcher) handleFSEvent(ev fsnotify.Event) {
	op := convertOp(ev.Op)
	if op == 0 {
		return
	}
	path := filepath.Clean(ev.Name)
	if !w.wanted(path) {
		return
	}
	w.queue(Event{Path: path, Op: op, Time: time.Now()})
}

// wanted reports whether path is a watched file or a file inside a
// watched directory that passes the filter.
func (w *Watcher) wanted(path string) bool {
	w.mu.RLock()
	direct := w.paths[path]
	inDir := w.paths[filepath.Dir(path)]
	w.mu.RUnlock()
	if !direct && !inDir {
		return false
	}
	if direct {
		return true
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return false
	}
	return w.filter == nil || w.filter(path)
}

// queue coalesces ev with any pending event for the same path and
// restarts its timer.
func (w *Watcher) queue(ev Event) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if p, ok := w.pending[ev.Path]; ok {
		p.event.Op |= ev.Op
		// A file recreated after removal is present again.
		if ev.Op.Has(OpCreate) || ev.Op.Has(OpWrite) {
			p.event.Op &^= OpRemove | OpRename
		}
		p.event.Time = ev.Time
		p.timer.Reset(w.debounce)
		return
	}
	path := ev.Path
	w.pending[path] = &pendingEvent{
		event: ev,
		timer: time.AfterFunc(w.debounce, func() { w.fire(path) }),
	}
}

func (w *Watcher) fire(path string) {
	w.pendingMu.Lock()
	p, ok := w.pending[path]
	if ok {
		delete(w.pending, path)
	}
	w.pendingMu.Unlock()
	if !ok {
		return
	}

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return
	}
	handlers := make([]Handler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.RUnlock()

	for _, h := range handlers {
		w.call(h, p.event)
	}
}

func (w *Watcher) call(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("handler panic for %s: %v", ev.Path, r)
		}
	}()
	h(ev)
}

func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	return op
}
