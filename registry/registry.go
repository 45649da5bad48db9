// Package registry holds the host-owned mapping of command name to
// handler. Insertion order is preserved for listing; names are unique.
package registry

import (
	"context"

	"github.com/plugsh/plugsh/handler"
)

// Registry maps command names to handlers. It is exclusively owned by one
// host value and mutated only on the dispatching goroutine, so it needs
// no locking.
type Registry struct {
	handlers map[string]*handler.Handler
	order    []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{handlers: make(map[string]*handler.Handler)}
}

// Register inserts a handler keyed by its name. It returns false when the
// name is already taken; ownership of the rejected handler stays with the
// caller, which is still responsible for destroying it.
func (r *Registry) Register(h *handler.Handler) bool {
	if h == nil {
		return false
	}
	if _, exists := r.handlers[h.Name()]; exists {
		return false
	}
	r.handlers[h.Name()] = h
	r.order = append(r.order, h.Name())
	return true
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (*handler.Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Names lists registered command names in insertion order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len reports the number of registered commands.
func (r *Registry) Len() int {
	return len(r.handlers)
}

// Clear removes every handler, running each destroy trampoline exactly
// once. It is the unload path: after Clear returns no dispatch can reach
// a handler sourced from the departing module.
func (r *Registry) Clear(ctx context.Context) {
	for _, name := range r.order {
		r.handlers[name].Destroy(ctx)
	}
	r.handlers = make(map[string]*handler.Handler)
	r.order = nil
}
