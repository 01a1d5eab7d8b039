package keymap

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/actionflow/internal/input"
)

// Registry manages keymaps by name and installs them into handlers.
type Registry struct {
	mu sync.RWMutex

	// keymaps holds all registered keymaps by name.
	keymaps map[string]*Keymap

	// order records registration order for stable listing.
	order []string

	factory *Factory
}

// NewRegistry creates a registry that builds keymaps with f. A nil factory
// uses the built-in types only.
func NewRegistry(f *Factory) *Registry {
	if f == nil {
		f = NewFactory()
	}
	return &Registry{
		keymaps: make(map[string]*Keymap),
		factory: f,
	}
}

// Factory returns the factory used to build keymaps.
func (r *Registry) Factory() *Factory { return r.factory }

// Register adds a keymap to the registry after checking that it builds.
// If a keymap with the same name already exists, it is replaced.
func (r *Registry) Register(km *Keymap) error {
	if km == nil {
		return fmt.Errorf("cannot register nil keymap")
	}
	if _, err := km.Build(r.factory); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.keymaps[km.Name]; !exists {
		r.order = append(r.order, km.Name)
	}
	r.keymaps[km.Name] = km
	return nil
}

// Unregister removes a keymap from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keymaps[name]; !ok {
		return
	}
	delete(r.keymaps, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns a keymap by name.
func (r *Registry) Get(name string) *Keymap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keymaps[name]
}

// Names returns keymap names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Keymaps returns all keymaps sorted by descending priority, then
// registration order.
func (r *Registry) Keymaps() []*Keymap {
	r.mu.RLock()
	result := make([]*Keymap, 0, len(r.order))
	for _, n := range r.order {
		result = append(result, r.keymaps[n])
	}
	r.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority > result[j].Priority
	})
	return result
}

// Builder returns an input.Builder for the named keymap. The builder
// reads the registry on every build, so re-registering a keymap changes
// what the next activation or reload produces.
func (r *Registry) Builder(name string) input.Builder {
	return input.BuilderFunc{
		ContextName: name,
		Fn: func() (*input.Context, error) {
			km := r.Get(name)
			if km == nil {
				return nil, fmt.Errorf("%w: %q", input.ErrUnknownContext, name)
			}
			return km.Build(r.factory)
		},
	}
}

// Install registers every keymap with the handler.
func (r *Registry) Install(h *input.Handler) {
	for _, n := range r.Names() {
		h.Register(r.Builder(n))
	}
}
