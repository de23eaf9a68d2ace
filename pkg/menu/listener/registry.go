package listener

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/small-frappuccino/discordmenu/pkg/ims"
	"github.com/small-frappuccino/discordmenu/pkg/menu"
)

var (
	ErrMissingMenuType   = errors.New("listener: state has no menu type")
	ErrInvalidMenuType   = errors.New("listener: unknown menu type")
	ErrModuleNotLoaded   = errors.New("listener: module not loaded")
	ErrDuplicateMenuType = errors.New("listener: menu type already registered")
)

// Entry is a registered menu type.
type Entry struct {
	Menuable menu.Menuable
	// Transitions holds the child functions used by cascade. It defaults to
	// the menu's own transitions.
	Transitions menu.Transitions
	// Module names the module that supplies transition context. Empty means
	// the menu needs none.
	Module string
}

func (e Entry) transitions() menu.Transitions {
	if len(e.Transitions) > 0 {
		return e.Transitions
	}
	if e.Menuable == nil || e.Menuable.Menu() == nil {
		return nil
	}
	return e.Menuable.Menu().Transitions
}

// Registry maps menu type discriminators to menus. It is filled at startup
// and read concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	names   map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
		names:   make(map[string]struct{}),
	}
}

// Register adds a menu type.
func (r *Registry) Register(menuType string, e Entry) error {
	if menuType == "" {
		return fmt.Errorf("register menu: %w", ErrMissingMenuType)
	}
	if e.Menuable == nil || e.Menuable.Menu() == nil {
		return fmt.Errorf("register menu %q: nil menu", menuType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[menuType]; ok {
		return fmt.Errorf("register menu %q: %w", menuType, ErrDuplicateMenuType)
	}
	r.entries[menuType] = e
	for _, n := range e.Menuable.Menu().Transitions.Names() {
		r.names[n] = struct{}{}
	}
	for _, n := range e.Transitions.Names() {
		r.names[n] = struct{}{}
	}
	return nil
}

// MustRegister is Register for startup code.
func (r *Registry) MustRegister(menuType string, e Entry) {
	if err := r.Register(menuType, e); err != nil {
		panic(err)
	}
}

// Lookup resolves the entry for a decoded state.
func (r *Registry) Lookup(state ims.State) (Entry, error) {
	menuType := state.String("menu_type")
	if menuType == "" {
		return Entry{}, ErrMissingMenuType
	}
	r.mu.RLock()
	e, ok := r.entries[menuType]
	r.mu.RUnlock()
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrInvalidMenuType, menuType)
	}
	return e, nil
}

// Knows reports whether any registered menu reacts to the emoji name.
func (r *Registry) Knows(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[name]
	return ok
}

// Types lists registered menu types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
