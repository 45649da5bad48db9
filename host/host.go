package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/plugsh/plugsh/domain/entities"
	domerrors "github.com/plugsh/plugsh/domain/errors"
	"github.com/plugsh/plugsh/domain/ports"
	"github.com/plugsh/plugsh/hostfuncs"
	"github.com/plugsh/plugsh/registry"
)

// LoadPlugin opens the module at path and runs the registration protocol
// against it.
//
// Only one module may be active: a second load while one is loaded prints
// a user-facing message and returns nil - a product limitation, not an
// error. A module missing the required registration entry point is fatal
// to that load: the module is closed again, the SymbolError is returned,
// and the host state is unchanged. A missing prompt entry point degrades
// silently to the default prompt.
func (h *Host) LoadPlugin(ctx context.Context, path string) error {
	if h.module != nil {
		fmt.Fprintln(h.out, "plugin already loaded, multiple plugins are not supported yet")
		return nil
	}

	if h.loader == nil {
		return &domerrors.LoadError{Path: path, Err: errors.New("host has no module loader configured")}
	}

	mod, err := h.loader.Load(ctx, path)
	if err != nil {
		return err
	}

	register, err := mod.Resolve(entities.RegisterEntryPoint)
	if err != nil {
		// The module opened but cannot participate in the protocol.
		// Close it here rather than leaving cleanup to the caller.
		_ = mod.Close(ctx)
		return err
	}

	var prompt ports.PromptFunc
	if pf, err := mod.Resolve(entities.PromptEntryPoint); err == nil {
		prompt = func(ctx context.Context) error {
			_, err := pf.Call(ctx)
			return err
		}
	}

	rc := &hostfuncs.RegistrationContext{
		Module:      mod,
		Registry:    h.registry,
		Diagnostics: h.out,
	}
	token, release := h.registrar.BindContext(rc)
	defer release()

	if _, err := register.Call(ctx, uint64(token)); err != nil {
		// Partial registrations are invalidated along with the module.
		h.registry.Clear(ctx)
		_ = mod.Close(ctx)
		return fmt.Errorf("module %q registration call failed: %w", path, err)
	}

	h.module = mod
	h.path = path
	h.prompt = prompt
	h.moduleID = uuid.NewString()
	h.logger.Info("plugin loaded",
		"path", path,
		"module_id", h.moduleID,
		"commands", len(h.registry.Names()))
	return nil
}

// UnloadAll releases the loaded module. The registry and prompt are
// cleared strictly before the module itself is released, so a failing
// release can never leave a dangling dispatch path. With nothing loaded
// it prints an informational message.
func (h *Host) UnloadAll(ctx context.Context) error {
	if h.module == nil {
		fmt.Fprintln(h.out, "no plugins loaded yet")
		return nil
	}

	mod, path, moduleID := h.module, h.path, h.moduleID
	h.registry.Clear(ctx)
	h.prompt = nil
	h.module = nil
	h.path = ""
	h.moduleID = ""

	if err := mod.Close(ctx); err != nil {
		return err
	}

	fmt.Fprintf(h.out, "unloaded plugin %q\n", path)
	h.logger.Info("plugin unloaded", "path", path, "module_id", moduleID)
	return nil
}

// Dispatch runs the command registered under name. It reports whether the
// name was known; the handler's own result is printed through its
// diagnostic writer, never surfaced as an error.
func (h *Host) Dispatch(ctx context.Context, name string, args []string) bool {
	hdl, ok := h.registry.Lookup(name)
	if !ok {
		return false
	}
	hdl.Call(ctx, args)
	return true
}

// Loaded reports whether a module is active.
func (h *Host) Loaded() bool {
	return h.module != nil
}

// Path returns the path of the loaded module, or "".
func (h *Host) Path() string {
	return h.path
}

// Commands lists plugin-registered command names in registration order.
func (h *Host) Commands() []string {
	return h.registry.Names()
}

// Prompt returns the loaded module's custom prompt, or nil when the
// default prompt applies.
func (h *Host) Prompt() ports.PromptFunc {
	return h.prompt
}

// Registry exposes the host's command registry.
func (h *Host) Registry() *registry.Registry {
	return h.registry
}
