package models

import (
	"fmt"
	"sync"
)

// Registry holds the validated, named model entries loaded from the
// initialization payload. Immutable after Load returns — there is no
// Add/Remove; a config change restarts the server.
//
// The registry also exclusively owns the per-model adapter instances built
// on top of those entries: callers never construct an adapter themselves,
// they borrow the one cached instance through AdapterFor. This matters for
// the local-inference kind in particular, whose single-queue-per-model
// worker goroutine must be shared across every request against that model
// rather than rebuilt per call.
type Registry struct {
	entries map[string]*Entry
	order   []string

	adaptersMu sync.Mutex
	adapters   map[string]any
}

// Load validates every entry and builds a Registry. Returns the first
// validation error or a duplicate-name error encountered, with no partial
// registry on failure.
func Load(entries []Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]*Entry, len(entries)), adapters: make(map[string]any)}
	for i := range entries {
		e := entries[i]
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.entries[e.Name]; exists {
			return nil, fmt.Errorf("duplicate model name %q", e.Name)
		}
		r.entries[e.Name] = &e
		r.order = append(r.order, e.Name)
	}
	return r, nil
}

// Get returns the named entry, or false if no model by that name was
// loaded.
func (r *Registry) Get(name string) (*Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Names enumerates loaded model names in load order, for diagnostics.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of loaded models.
func (r *Registry) Len() int { return len(r.entries) }

// AdapterFactory builds the adapter value for a model entry. Callers pass
// their own constructor (e.g. transformer.New) so this package never needs
// to import the adapter package.
type AdapterFactory func(entry *Entry) (any, error)

// AdapterFor returns the cached adapter for name, building and caching one
// via factory on first use. Later calls for the same name ignore factory
// and return the instance already cached — this is what makes the local
// adapter's per-model worker goroutine and queue persist across requests
// instead of being rebuilt (and its state lost) on every call.
func (r *Registry) AdapterFor(name string, factory AdapterFactory) (any, error) {
	entry, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("model %q is not loaded", name)
	}

	r.adaptersMu.Lock()
	defer r.adaptersMu.Unlock()
	if a, ok := r.adapters[name]; ok {
		return a, nil
	}
	a, err := factory(entry)
	if err != nil {
		return nil, err
	}
	r.adapters[name] = a
	return a, nil
}
