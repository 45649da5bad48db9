package ports

import (
	"context"

	"github.com/plugsh/plugsh/internal/abi"
)

// Function is a resolved entry point. Call performs no signature checking:
// passing the wrong number of parameters is the caller's mistake and is
// reported by the underlying runtime at call time, not by the loader.
type Function interface {
	Call(ctx context.Context, params ...uint64) ([]uint64, error)
}

// Module is an open extension module. After Close succeeds, every
// Function resolved from it is invalid and must not be invoked.
type Module interface {
	// Path is the path the module was loaded from.
	Path() string

	// Resolve looks up a named entry point by exact string, returning a
	// SymbolError when it is absent.
	Resolve(name string) (Function, error)

	// Memory exposes the module's memory for boundary value transfer.
	Memory() abi.Memory

	// Close releases the module.
	Close(ctx context.Context) error
}

// ModuleLoader opens modules by path, translating platform loader
// failures into LoadErrors.
type ModuleLoader interface {
	Load(ctx context.Context, path string) (Module, error)
}

// PromptFunc renders a custom command-line prompt. It is sourced from a
// loaded module and is invalid the instant that module unloads.
type PromptFunc func(ctx context.Context) error
