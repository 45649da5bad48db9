// Package errors provides domain-specific error types for the host.
// All error types support unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"
)

// LoadError reports that a module could not be opened: the path was
// invalid, the file was not a loadable module, or instantiation failed.
// The wrapped error carries the platform runtime's diagnostic text.
type LoadError struct {
	Err  error
	Path string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load module %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// SymbolError reports that a named entry point was absent from an open
// module.
type SymbolError struct {
	Symbol string
	Path   string
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("module %q: entry point %q not found", e.Path, e.Symbol)
}

// UnloadError reports that releasing a module failed. The host's registry
// and prompt are already cleared by the time this surfaces, so no dangling
// dispatch is possible.
type UnloadError struct {
	Err  error
	Path string
}

func (e *UnloadError) Error() string {
	return fmt.Sprintf("cannot unload module %q: %v", e.Path, e.Err)
}

func (e *UnloadError) Unwrap() error {
	return e.Err
}

// RegistrationError reports a command registration the host refused.
// Registration failures are non-fatal: the module stays loaded and its
// accepted commands remain usable.
type RegistrationError struct {
	Name   string
	Reason string
}

func (e *RegistrationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("command registration rejected: %s", e.Reason)
	}
	return fmt.Sprintf("command %q registration rejected: %s", e.Name, e.Reason)
}

// IsLoadError reports whether err is or wraps a LoadError.
func IsLoadError(err error) bool {
	var e *LoadError
	return stdErrors.As(err, &e)
}

// IsSymbolError reports whether err is or wraps a SymbolError.
func IsSymbolError(err error) bool {
	var e *SymbolError
	return stdErrors.As(err, &e)
}

// IsUnloadError reports whether err is or wraps an UnloadError.
func IsUnloadError(err error) bool {
	var e *UnloadError
	return stdErrors.As(err, &e)
}
