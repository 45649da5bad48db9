package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/plugsh/plugsh/domain/entities"
	"github.com/plugsh/plugsh/domain/errors"
	"github.com/plugsh/plugsh/domain/ports"
	"github.com/plugsh/plugsh/handler"
	"github.com/plugsh/plugsh/hostfuncs"
	"github.com/plugsh/plugsh/internal/abi"
	"github.com/plugsh/plugsh/internal/handle"
)

// invokeEntry and destroyEntry are the two function-table entry kinds. An
// invoke/destroy pair is generated together for one captured state and
// dispatched only through the module's plugsh_call and plugsh_drop
// entry points.
type (
	invokeEntry  func(state uint32, args []string) uint32
	destroyEntry func(state uint32)
)

// command is a declared but not yet registered command.
type command struct {
	name string
	fn   handler.CommandFunc
}

// Module is an in-process extension module. Factories populate it with
// commands and an optional prompt before the host runs the registration
// protocol against it.
type Module struct {
	path     string
	out      io.Writer
	register hostfuncs.RegisterFunc

	mem    *arena
	funcs  []any // function table; index 0 is the null reference
	states *handle.Table

	commands []command
	prompt   func(w io.Writer)

	closed       bool
	destroyCount int
}

func newModule(path string, register hostfuncs.RegisterFunc, out io.Writer) *Module {
	return &Module{
		path:     path,
		out:      out,
		register: register,
		mem:      newArena(),
		funcs:    []any{nil},
		states:   handle.NewTable(),
	}
}

// Command declares a command the module will register. The callable and
// whatever it closes over become the module-side captured state.
func (m *Module) Command(name string, fn handler.CommandFunc) *Module {
	m.commands = append(m.commands, command{name: name, fn: fn})
	return m
}

// Prompt declares the module's custom prompt. The function prints its own
// prompt text to w.
func (m *Module) Prompt(fn func(w io.Writer)) *Module {
	m.prompt = fn
	return m
}

// Out is the writer the module's command output goes to.
func (m *Module) Out() io.Writer {
	return m.out
}

// Path implements ports.Module.
func (m *Module) Path() string {
	return m.path
}

// Memory implements ports.Module.
func (m *Module) Memory() abi.Memory {
	return m.mem
}

// Close implements ports.Module. Closing invalidates every entry point:
// subsequent calls through previously resolved functions fail.
func (m *Module) Close(_ context.Context) error {
	m.closed = true
	return nil
}

// Resolve implements ports.Module.
func (m *Module) Resolve(name string) (ports.Function, error) {
	switch name {
	case entities.AllocateExport:
		return m.goFunc(1, func(ctx context.Context, p []uint64) (uint64, error) {
			ptr, err := m.mem.Allocate(ctx, uint32(p[0]))
			return uint64(ptr), err
		}), nil
	case entities.DeallocateExport:
		return m.goFunc(2, func(ctx context.Context, p []uint64) (uint64, error) {
			return 0, m.mem.Deallocate(ctx, uint32(p[0]), uint32(p[1]))
		}), nil
	case entities.CallDispatchExport:
		return m.goFunc(4, m.dispatchCall), nil
	case entities.DropDispatchExport:
		return m.goFunc(2, m.dispatchDrop), nil
	case entities.RegisterEntryPoint:
		return m.goFunc(1, m.registerCommands), nil
	case entities.PromptEntryPoint:
		if m.prompt == nil {
			return nil, &errors.SymbolError{Symbol: name, Path: m.path}
		}
		return m.goFunc(0, func(context.Context, []uint64) (uint64, error) {
			m.prompt(m.out)
			return 0, nil
		}), nil
	default:
		return nil, &errors.SymbolError{Symbol: name, Path: m.path}
	}
}

// goFunc wraps an entry point with the checks a real runtime performs at
// call time: the module must still be open and the parameter count must
// match.
func (m *Module) goFunc(arity int, fn func(ctx context.Context, params []uint64) (uint64, error)) ports.Function {
	return funcAdapter(func(ctx context.Context, params ...uint64) ([]uint64, error) {
		if m.closed {
			return nil, fmt.Errorf("module %q is closed", m.path)
		}
		if len(params) != arity {
			return nil, fmt.Errorf("module %q: expected %d params, got %d", m.path, arity, len(params))
		}
		res, err := fn(ctx, params)
		if err != nil {
			return nil, err
		}
		return []uint64{res}, nil
	})
}

type funcAdapter func(ctx context.Context, params ...uint64) ([]uint64, error)

func (f funcAdapter) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	return f(ctx, params...)
}

// registerCommands is the module's registration entry point. For each
// declared command it materializes the captured state, generates the
// matched invoke/destroy table entries, places the owned name in module
// memory and hands the four-field record to the host's callback.
func (m *Module) registerCommands(ctx context.Context, params []uint64) (uint64, error) {
	ctxToken := uint32(params[0])
	for _, c := range m.commands {
		state := m.states.Insert(c.fn)

		invokeFn := m.addFunc(invokeEntry(func(state uint32, args []string) uint32 {
			fn, ok := handle.Resolve[handler.CommandFunc](m.states, state)
			if !ok {
				fmt.Fprintf(m.out, "ERROR: stale state token %d\n", state)
				return 0
			}
			if err := fn(args); err != nil {
				fmt.Fprintf(m.out, "ERROR: %v\n", err)
				return 0
			}
			return 1
		}))
		destroyFn := m.addFunc(destroyEntry(func(state uint32) {
			if _, ok := m.states.Remove(state); ok {
				m.destroyCount++
			}
		}))

		name, err := abi.NewString(ctx, m.mem, m.mem, c.name)
		if err != nil {
			return 0, err
		}
		accepted := m.register(ctx, ctxToken, name.Ptr, name.Len, state, invokeFn, destroyFn)
		if accepted == 0 {
			fmt.Fprintf(m.out, "couldn't register command %q\n", c.name)
		}
	}
	return 0, nil
}

func (m *Module) addFunc(entry any) uint32 {
	m.funcs = append(m.funcs, entry)
	return uint32(len(m.funcs) - 1)
}

// dispatchCall bridges an invoke function-table index into its concrete
// entry: plugsh_call(fn, state, vec_ptr, vec_len) -> bool.
func (m *Module) dispatchCall(ctx context.Context, params []uint64) (uint64, error) {
	fn, state := uint32(params[0]), uint32(params[1])
	entry, err := m.tableEntry(fn)
	if err != nil {
		return 0, err
	}
	invoke, ok := entry.(invokeEntry)
	if !ok {
		return 0, fmt.Errorf("module %q: function %d is not an invoke entry", m.path, fn)
	}
	args, err := abi.ReadArgs(m.mem, abi.Vec{Ptr: uint32(params[2]), Len: uint32(params[3])})
	if err != nil {
		return 0, err
	}
	return uint64(invoke(state, args)), nil
}

// dispatchDrop bridges a destroy function-table index into its concrete
// entry: plugsh_drop(fn, state).
func (m *Module) dispatchDrop(_ context.Context, params []uint64) (uint64, error) {
	fn, state := uint32(params[0]), uint32(params[1])
	entry, err := m.tableEntry(fn)
	if err != nil {
		return 0, err
	}
	destroy, ok := entry.(destroyEntry)
	if !ok {
		return 0, fmt.Errorf("module %q: function %d is not a destroy entry", m.path, fn)
	}
	destroy(state)
	return 0, nil
}

func (m *Module) tableEntry(fn uint32) (any, error) {
	if fn == entities.NilFunc || fn >= uint32(len(m.funcs)) {
		return nil, fmt.Errorf("module %q: function index %d out of table range", m.path, fn)
	}
	return m.funcs[fn], nil
}

// DestroyCount reports how many captured states have been destroyed.
func (m *Module) DestroyCount() int {
	return m.destroyCount
}

// LiveStates reports captured states not yet destroyed.
func (m *Module) LiveStates() int {
	return m.states.Len()
}

// LiveAllocations reports module memory allocations not yet released.
func (m *Module) LiveAllocations() int {
	return m.mem.live()
}
