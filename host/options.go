package host

import (
	"io"
	"log/slog"
	"os"

	"github.com/plugsh/plugsh/domain/ports"
	"github.com/plugsh/plugsh/hostfuncs"
	"github.com/plugsh/plugsh/registry"
)

// Host is the single owner of the loaded module, its prompt and its
// registry. It is mutated only on the dispatching goroutine.
type Host struct {
	loader    ports.ModuleLoader
	registrar *hostfuncs.Registrar
	registry  *registry.Registry
	logger    *slog.Logger
	out       io.Writer

	module   ports.Module
	path     string
	moduleID string
	prompt   ports.PromptFunc
}

// Option defines a functional option for configuring the Host.
type Option func(*Host)

// WithLoader sets the module loader.
func WithLoader(l ports.ModuleLoader) Option {
	return func(h *Host) {
		h.loader = l
	}
}

// WithRegistrar sets the registrar whose callback loaded modules invoke.
// It must be the same registrar whose Func() the host's loaders were
// built with: context tokens minted by one registrar never resolve in
// another, so a mismatched pair rejects every registration.
func WithRegistrar(r *hostfuncs.Registrar) Option {
	return func(h *Host) {
		h.registrar = r
	}
}

// WithOutput sets the writer for user-facing messages.
func WithOutput(w io.Writer) Option {
	return func(h *Host) {
		h.out = w
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// New creates a Host with the given options. Hosts whose loader hands a
// registration callback to modules must be given that callback's
// registrar via WithRegistrar; the registrar New creates on its own is
// reachable by no loader and only suits loaders that never register.
func New(opts ...Option) *Host {
	h := &Host{
		registry: registry.New(),
		logger:   slog.Default(),
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.registrar == nil {
		h.registrar = hostfuncs.NewRegistrar(hostfuncs.WithLogger(h.logger))
	}
	return h
}
