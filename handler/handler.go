// Package handler implements the command handler value: one registrable
// action and the state it captured, packaged so it can cross the module
// boundary as a unit.
//
// A handler pairs an invoke trampoline with a destroy trampoline. The two
// are always generated together for one concrete captured-state
// representation; neither is ever substituted independently of the other.
// Handlers move between containers by pointer and are never shallow
// copied - a second copy would mean a second destroyer for one captured
// state.
package handler

import (
	"context"
	"fmt"
	"io"
	"os"
)

// CommandFunc is the callable an extension registers: it receives the
// tokenized arguments and reports success or failure.
type CommandFunc func(args []string) error

// InvokeFunc is an invoke trampoline: it carries the arguments across the
// boundary, runs the captured callable, and reports its boolean result.
type InvokeFunc func(ctx context.Context, args []string) (bool, error)

// DestroyFunc is a destroy trampoline: it reclaims the captured state its
// matched InvokeFunc closes over.
type DestroyFunc func(ctx context.Context) error

// Handler is one registered command. Its four fields - name, captured
// state, invoke trampoline, destroy trampoline - travel as a unit.
type Handler struct {
	name      string
	invoke    InvokeFunc
	destroy   DestroyFunc
	diag      io.Writer
	destroyed bool
}

// Option configures a Handler at construction.
type Option func(*Handler)

// WithDiagnostics sets the writer invocation failures are printed to.
// The boundary protocol carries no structured error payload; failures
// degrade to a boolean plus a locally printed diagnostic.
func WithDiagnostics(w io.Writer) Option {
	return func(h *Handler) {
		h.diag = w
	}
}

// WithDestroy sets a teardown function for state the callable captured.
// It runs as part of the handler's destroy trampoline, exactly once.
func WithDestroy(fn func()) Option {
	return func(h *Handler) {
		inner := h.destroy
		h.destroy = func(ctx context.Context) error {
			fn()
			return inner(ctx)
		}
	}
}

// New builds a handler around a native callable. The callable and
// whatever it closes over become the captured state; the invoke and
// destroy trampolines generated here are the only code that ever touches
// it.
func New(name string, fn CommandFunc, opts ...Option) *Handler {
	invoke := func(ctx context.Context, args []string) (bool, error) {
		if err := fn(args); err != nil {
			return false, err
		}
		return true, nil
	}
	destroy := func(ctx context.Context) error { return nil }
	return FromTrampolines(name, invoke, destroy, opts...)
}

// FromTrampolines builds a handler from an already matched trampoline
// pair. This is the constructor the boundary binding uses: the pair must
// have been generated together for one captured-state representation.
func FromTrampolines(name string, invoke InvokeFunc, destroy DestroyFunc, opts ...Option) *Handler {
	h := &Handler{
		name:    name,
		invoke:  invoke,
		destroy: destroy,
		diag:    os.Stdout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns the command name.
func (h *Handler) Name() string {
	return h.name
}

// Call invokes the handler with the given arguments. No fault propagates
// past the trampoline boundary: errors and panics alike degrade to false
// plus a diagnostic on the handler's diagnostic writer.
func (h *Handler) Call(ctx context.Context, args []string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(h.diag, "ERROR: command %q panicked: %v\n", h.name, r)
			ok = false
		}
	}()

	if h.destroyed {
		fmt.Fprintf(h.diag, "ERROR: command %q invoked after destruction\n", h.name)
		return false
	}

	ok, err := h.invoke(ctx, args)
	if err != nil {
		fmt.Fprintf(h.diag, "ERROR: %v\n", err)
		return false
	}
	return ok
}

// Destroy runs the destroy trampoline. It fires exactly once over the
// handler's lifetime no matter how often Destroy is called or between how
// many containers the handler moved.
func (h *Handler) Destroy(ctx context.Context) {
	if h.destroyed {
		return
	}
	h.destroyed = true
	if err := h.destroy(ctx); err != nil {
		fmt.Fprintf(h.diag, "ERROR: destroying command %q: %v\n", h.name, err)
	}
}

// Destroyed reports whether the destroy trampoline has run.
func (h *Handler) Destroyed() bool {
	return h.destroyed
}
