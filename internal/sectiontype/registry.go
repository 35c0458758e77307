// Package sectiontype is the process-wide table of known section types: the
// renderer each one maps to and the fields it expects.
package sectiontype

import (
	"sort"
	"strings"
	"sync"
)

// Category groups types by the shape of their payload.
type Category string

const (
	// Legacy types carry "data" as an array of {name, value}.
	Legacy Category = "legacy"
	// Flat types carry top-level fields such as steps, comparisonItems or stat*.
	Flat Category = "flat"
	// Nested types carry "data" as an object, usually with an "items" array.
	Nested Category = "nested"
)

// Categories lists every category in prompt order.
func Categories() []Category { return []Category{Legacy, Flat, Nested} }

// Definition describes one section type.
type Definition struct {
	Name            string
	Category        Category
	Renderer        string
	Description     string
	RequiredFields  []string
	OptionalFields  []string
	ForbiddenFields []string
	// MinItems is the smallest useful number of data points or entries.
	MinItems int
	// Example is a complete sample section used for few-shot prompting.
	Example map[string]any
}

// Registry maps type names to definitions. Registration is last-write-wins and
// safe for concurrent use with lookups.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Definition)}
}

// Register adds or replaces d. Names are case-insensitive; empty names are ignored.
func (r *Registry) Register(defs ...Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range defs {
		key := normalize(d.Name)
		if key == "" {
			continue
		}
		d.Name = key
		r.types[key] = d
	}
}

// Get returns the definition for name. Unknown names report false and callers
// render a fallback.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.types[normalize(name)]
	return d, ok
}

// TypeNames returns all registered names, sorted.
func (r *Registry) TypeNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for name := range r.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ByCategory returns the definitions in c, sorted by name.
func (r *Registry) ByCategory(c Category) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Definition
	for _, d := range r.types {
		if d.Category == c {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var (
	defaultRegistry = NewRegistry()
	defaultsOnce    sync.Once
)

// Default returns the process-wide registry with the builtin types loaded.
func Default() *Registry {
	RegisterDefaults()
	return defaultRegistry
}

// RegisterDefaults loads the builtin types into the process-wide registry. It
// runs once; later calls are no-ops.
func RegisterDefaults() {
	defaultsOnce.Do(func() {
		defaultRegistry.Register(Builtins()...)
	})
}

// Register adds definitions to the process-wide registry.
func Register(defs ...Definition) { Default().Register(defs...) }

// Get looks name up in the process-wide registry.
func Get(name string) (Definition, bool) { return Default().Get(name) }

// TypeNames lists the process-wide registry.
func TypeNames() []string { return Default().TypeNames() }
