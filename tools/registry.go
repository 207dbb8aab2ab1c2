package tools

import (
	"fmt"
	"sync"
)

// Entry binds a Spec to its executable handler.
type Entry struct {
	Spec    Spec
	Handler Handler
}

// Registry holds the callable tool set. It is built once at startup,
// frozen, and from then on shared read-only by every orchestration run.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	// order keeps registration order so Specs() is stable across calls
	order  []string
	frozen bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Register adds a Spec bound to a handler. Registration fails with
// DuplicateToolError when the name is taken, and always fails once the
// registry has been frozen.
func (r *Registry) Register(spec Spec, handler Handler) error {
	if spec.Name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if handler == nil {
		return fmt.Errorf("tool %q handler is nil", spec.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("registry is frozen, cannot register tool %q", spec.Name)
	}
	if _, exists := r.entries[spec.Name]; exists {
		return DuplicateToolError{Name: spec.Name}
	}
	r.entries[spec.Name] = Entry{Spec: spec, Handler: handler}
	r.order = append(r.order, spec.Name)
	return nil
}

// Resolve returns the entry for a tool name, or UnknownToolError.
func (r *Registry) Resolve(name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, exists := r.entries[name]
	if !exists {
		return Entry{}, UnknownToolError{Name: name}
	}
	return entry, nil
}

// Specs returns the declared tool specs in registration order.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.entries[name].Spec)
	}
	return specs
}

// Freeze makes the registry immutable. Orchestration runs only start
// against a frozen registry, so concurrent readers never race a writer.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
