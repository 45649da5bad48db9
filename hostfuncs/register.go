package hostfuncs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/plugsh/plugsh/domain/entities"
	"github.com/plugsh/plugsh/domain/errors"
	"github.com/plugsh/plugsh/domain/ports"
	"github.com/plugsh/plugsh/internal/abi"
	"github.com/plugsh/plugsh/internal/handle"
	"github.com/plugsh/plugsh/registry"
)

// RegisterFunc is the boundary signature of the registration callback a
// module invokes once per handler during its registration call. It
// returns 1 when the command was accepted and 0 when it was rejected.
type RegisterFunc func(ctx context.Context, ctxToken, namePtr, nameLen, state, invokeFn, destroyFn uint32) uint32

// RegistrationContext is the concrete host state an opaque context token
// resolves to. Modules only ever see the token; this type never crosses
// the boundary.
type RegistrationContext struct {
	Module      ports.Module
	Registry    *registry.Registry
	Diagnostics io.Writer
}

// Registrar owns the token table behind the opaque context argument and
// produces the registration callback loaders expose to modules.
type Registrar struct {
	handles    *handle.Table
	logger     *slog.Logger
	middleware []Middleware
}

// RegistrarOption configures a Registrar.
type RegistrarOption func(*Registrar)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RegistrarOption {
	return func(r *Registrar) {
		r.logger = logger
	}
}

// WithMiddleware wraps the registration callback. Middleware executes in
// FIFO order (first added wraps outermost).
func WithMiddleware(mw ...Middleware) RegistrarOption {
	return func(r *Registrar) {
		r.middleware = append(r.middleware, mw...)
	}
}

// NewRegistrar creates a Registrar with the given options.
func NewRegistrar(opts ...RegistrarOption) *Registrar {
	r := &Registrar{
		handles: handle.NewTable(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BindContext inserts a registration context into the token table for the
// duration of one registration call. The release function removes it;
// after release the token dangles into nothing and resolves to no value.
func (r *Registrar) BindContext(rc *RegistrationContext) (token uint32, release func()) {
	token = r.handles.Insert(rc)
	return token, func() { r.handles.Remove(token) }
}

// Func returns the registration callback with the registrar's middleware
// applied.
func (r *Registrar) Func() RegisterFunc {
	fn := r.registerCommand
	for i := len(r.middleware) - 1; i >= 0; i-- {
		fn = r.middleware[i](fn)
	}
	return fn
}

// registerCommand is the host side of the registration protocol. It
// recovers the concrete host state from the opaque token, assumes
// ownership of the name buffer, binds the descriptor's trampoline pair
// and inserts the handler into the registry. On any rejection the
// handler's captured state is destroyed here - ownership of a rejected
// handler reverts to the rejecting side.
func (r *Registrar) registerCommand(ctx context.Context, ctxToken, namePtr, nameLen, state, invokeFn, destroyFn uint32) uint32 {
	rc, ok := handle.Resolve[*RegistrationContext](r.handles, ctxToken)
	if !ok {
		r.logger.Warn("register_command called with unknown context token", "token", ctxToken)
		return 0
	}
	diag := rc.Diagnostics
	if diag == nil {
		diag = os.Stdout
	}

	mod := rc.Module
	alloc, err := newModuleAllocator(mod)
	if err != nil {
		fmt.Fprintf(diag, "ERROR: %v\n", err)
		return 0
	}

	// The name is an owned string: copy it out, then free the module's
	// buffer exactly once.
	name, err := abi.TakeString(ctx, mod.Memory(), alloc, abi.String{Ptr: namePtr, Len: nameLen})
	if err != nil {
		fmt.Fprintf(diag, "ERROR: %v\n", &errors.RegistrationError{Reason: fmt.Sprintf("unreadable name: %v", err)})
		dropState(ctx, mod, destroyFn, state)
		return 0
	}

	desc := entities.HandlerDescriptor{
		Name:      name,
		State:     state,
		InvokeFn:  invokeFn,
		DestroyFn: destroyFn,
	}
	if err := desc.Validate(); err != nil {
		fmt.Fprintf(diag, "ERROR: %v\n", err)
		dropState(ctx, mod, destroyFn, state)
		return 0
	}

	h, err := bindHandler(mod, desc, diag)
	if err != nil {
		fmt.Fprintf(diag, "ERROR: binding command %q: %v\n", name, err)
		dropState(ctx, mod, destroyFn, state)
		return 0
	}

	if !rc.Registry.Register(h) {
		fmt.Fprintf(diag, "ERROR: %v\n", &errors.RegistrationError{Name: name, Reason: "already registered"})
		h.Destroy(ctx)
		return 0
	}

	r.logger.Debug("command registered", "name", name, "module", mod.Path())
	return 1
}

// dropState releases a handler's captured state when rejection happens
// before a trampoline pair could be bound. Best effort: without the
// dispatch exports there is nothing left to call.
func dropState(ctx context.Context, mod ports.Module, destroyFn, state uint32) {
	if destroyFn == entities.NilFunc {
		return
	}
	drop, err := mod.Resolve(entities.DropDispatchExport)
	if err != nil {
		return
	}
	_, _ = drop.Call(ctx, uint64(destroyFn), uint64(state))
}
