package wazero

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/plugsh/plugsh/domain/entities"
	"github.com/plugsh/plugsh/domain/errors"
	"github.com/plugsh/plugsh/domain/ports"
	"github.com/plugsh/plugsh/hostfuncs"
	"github.com/plugsh/plugsh/internal/abi"
)

// loaderConfig holds configuration for the Loader.
type loaderConfig struct {
	register   hostfuncs.RegisterFunc
	hostModule string
	logger     *slog.Logger
	stdout     io.Writer
	stderr     io.Writer
}

func defaultLoaderConfig() loaderConfig {
	return loaderConfig{
		hostModule: entities.HostModuleName,
		logger:     slog.Default(),
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
}

// Option configures the Loader.
type Option func(*loaderConfig)

// WithRegisterFunc sets the registration callback exported to guests.
func WithRegisterFunc(fn hostfuncs.RegisterFunc) Option {
	return func(c *loaderConfig) {
		c.register = fn
	}
}

// WithHostModuleName overrides the host module name guests import from.
func WithHostModuleName(name string) Option {
	return func(c *loaderConfig) {
		c.hostModule = name
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *loaderConfig) {
		c.logger = logger
	}
}

// WithStdio sets the writers wired to guest stdout and stderr. Guest
// prompt and command output arrive through these.
func WithStdio(stdout, stderr io.Writer) Option {
	return func(c *loaderConfig) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// Loader opens WebAssembly modules by path. It implements
// ports.ModuleLoader.
type Loader struct {
	runtime wazero.Runtime
	config  loaderConfig
}

// NewLoader creates the runtime, instantiates WASI and exports the host
// module with the registration callback.
func NewLoader(ctx context.Context, opts ...Option) (*Loader, error) {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.register == nil {
		return nil, fmt.Errorf("wazero: a registration callback is required")
	}

	rt := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	builder := rt.NewHostModuleBuilder(cfg.hostModule)
	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, _ api.Module, ctxToken, namePtr, nameLen, state, invokeFn, destroyFn uint32) uint32 {
			return cfg.register(ctx, ctxToken, namePtr, nameLen, state, invokeFn, destroyFn)
		}).
		Export(entities.RegisterCommandFunc)
	if _, err := builder.Instantiate(ctx); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("wazero: exporting host module: %w", err)
	}

	return &Loader{runtime: rt, config: cfg}, nil
}

// Load reads and instantiates the module at path. Both the read and the
// instantiation failure paths carry the underlying diagnostic text in a
// LoadError.
func (l *Loader) Load(ctx context.Context, path string) (ports.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.LoadError{Path: path, Err: err}
	}

	cfg := wazero.NewModuleConfig().
		WithStdout(l.config.stdout).
		WithStderr(l.config.stderr).
		WithName(path)
	mod, err := l.runtime.InstantiateWithConfig(ctx, data, cfg)
	if err != nil {
		return nil, &errors.LoadError{Path: path, Err: err}
	}

	l.config.logger.Debug("module instantiated", "path", path)
	return &wasmModule{mod: mod, path: path}, nil
}

// Close releases the runtime and with it any module still open.
func (l *Loader) Close(ctx context.Context) error {
	return l.runtime.Close(ctx)
}

// wasmModule adapts an instantiated wazero module to ports.Module.
type wasmModule struct {
	mod  api.Module
	path string
}

func (m *wasmModule) Path() string {
	return m.path
}

func (m *wasmModule) Resolve(name string) (ports.Function, error) {
	f := m.mod.ExportedFunction(name)
	if f == nil {
		return nil, &errors.SymbolError{Symbol: name, Path: m.path}
	}
	return f, nil
}

func (m *wasmModule) Memory() abi.Memory {
	if mem := m.mod.Memory(); mem != nil {
		return mem
	}
	return noMemory{}
}

func (m *wasmModule) Close(ctx context.Context) error {
	if err := m.mod.Close(ctx); err != nil {
		return &errors.UnloadError{Path: m.path, Err: err}
	}
	return nil
}

// noMemory stands in for modules that export no memory; every access is
// out of range.
type noMemory struct{}

func (noMemory) Read(uint32, uint32) ([]byte, bool) { return nil, false }
func (noMemory) Write(uint32, []byte) bool          { return false }
