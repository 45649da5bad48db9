package builtin

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/plugsh/plugsh/domain/errors"
	"github.com/plugsh/plugsh/domain/ports"
	"github.com/plugsh/plugsh/hostfuncs"
)

// Scheme is the path scheme builtin modules load under, as in
// "builtin:counter".
const Scheme = "builtin"

// Factory populates a fresh module instance with its commands and prompt.
// It runs on every load, so state a factory captures per invocation is
// scoped to that one module instance.
type Factory func(m *Module)

// loaderConfig holds configuration for the Loader.
type loaderConfig struct {
	register hostfuncs.RegisterFunc
	out      io.Writer
}

// Option configures the Loader.
type Option func(*loaderConfig)

// WithRegisterFunc sets the registration callback handed to modules.
func WithRegisterFunc(fn hostfuncs.RegisterFunc) Option {
	return func(c *loaderConfig) {
		c.register = fn
	}
}

// WithOutput sets the writer module output and prompts go to.
func WithOutput(w io.Writer) Option {
	return func(c *loaderConfig) {
		c.out = w
	}
}

// Loader opens builtin modules by "builtin:<name>" path. It implements
// ports.ModuleLoader.
type Loader struct {
	config    loaderConfig
	factories map[string]Factory
}

// NewLoader creates a Loader with the given options.
func NewLoader(opts ...Option) (*Loader, error) {
	cfg := loaderConfig{out: os.Stdout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.register == nil {
		return nil, fmt.Errorf("builtin: a registration callback is required")
	}
	return &Loader{config: cfg, factories: make(map[string]Factory)}, nil
}

// Register adds an extension factory under a name.
func (l *Loader) Register(name string, f Factory) error {
	if _, exists := l.factories[name]; exists {
		return fmt.Errorf("builtin: extension %q already registered", name)
	}
	l.factories[name] = f
	return nil
}

// Load implements ports.ModuleLoader.
func (l *Loader) Load(_ context.Context, path string) (ports.Module, error) {
	name, ok := strings.CutPrefix(path, Scheme+":")
	if !ok {
		return nil, &errors.LoadError{Path: path, Err: fmt.Errorf("not a %s: path", Scheme)}
	}
	factory, ok := l.factories[name]
	if !ok {
		return nil, &errors.LoadError{Path: path, Err: fmt.Errorf("no builtin extension named %q", name)}
	}

	m := newModule(path, l.config.register, l.config.out)
	factory(m)
	return m, nil
}
