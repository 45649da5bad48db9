package host_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plugsh/plugsh/domain/entities"
	domerrors "github.com/plugsh/plugsh/domain/errors"
	"github.com/plugsh/plugsh/domain/ports"
	"github.com/plugsh/plugsh/examples/counter"
	"github.com/plugsh/plugsh/handler"
	"github.com/plugsh/plugsh/host"
	"github.com/plugsh/plugsh/hostfuncs"
	"github.com/plugsh/plugsh/infrastructure/builtin"
	"github.com/plugsh/plugsh/internal/abi"
)

// newCounterHost wires a host to the builtin loader with the counter
// extension registered, all output going to the returned buffer.
func newCounterHost(t *testing.T) (*host.Host, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer

	registrar := hostfuncs.NewRegistrar()
	loader, err := builtin.NewLoader(
		builtin.WithRegisterFunc(registrar.Func()),
		builtin.WithOutput(&out),
	)
	require.NoError(t, err)
	require.NoError(t, loader.Register(counter.Name, counter.Extension()))

	h := host.New(
		host.WithLoader(loader),
		host.WithRegistrar(registrar),
		host.WithOutput(&out),
	)
	return h, &out
}

func TestLoadAndDispatch(t *testing.T) {
	ctx := context.Background()
	h, out := newCounterHost(t)

	require.NoError(t, h.LoadPlugin(ctx, "builtin:counter"))
	assert.True(t, h.Loaded())
	assert.Equal(t, "builtin:counter", h.Path())
	assert.Equal(t, []string{"reset-counter", "count"}, h.Commands())

	assert.True(t, h.Dispatch(ctx, "count", []string{"a", "b", "c"}))
	assert.Contains(t, out.String(), "you provided 3 arguments")

	assert.False(t, h.Dispatch(ctx, "no-such-command", nil))
}

func TestCustomPromptAdvancesAndResets(t *testing.T) {
	ctx := context.Background()
	h, out := newCounterHost(t)

	require.NoError(t, h.LoadPlugin(ctx, "builtin:counter"))
	prompt := h.Prompt()
	require.NotNil(t, prompt)

	require.NoError(t, prompt(ctx))
	require.NoError(t, prompt(ctx))
	assert.Contains(t, out.String(), "0 $ ")
	assert.Contains(t, out.String(), "1 $ ")

	require.True(t, h.Dispatch(ctx, "reset-counter", nil))
	out.Reset()
	require.NoError(t, prompt(ctx))
	assert.Equal(t, "0 $ ", out.String())
}

func TestSecondLoadIsRefused(t *testing.T) {
	ctx := context.Background()
	h, out := newCounterHost(t)

	require.NoError(t, h.LoadPlugin(ctx, "builtin:counter"))
	require.NoError(t, h.LoadPlugin(ctx, "builtin:counter"))
	assert.Contains(t, out.String(), "plugin already loaded, multiple plugins are not supported yet")
	assert.Equal(t, "builtin:counter", h.Path())
}

func TestUnloadClearsEverything(t *testing.T) {
	ctx := context.Background()
	h, out := newCounterHost(t)

	require.NoError(t, h.LoadPlugin(ctx, "builtin:counter"))
	require.NoError(t, h.UnloadAll(ctx))

	assert.Contains(t, out.String(), `unloaded plugin "builtin:counter"`)
	assert.False(t, h.Loaded())
	assert.Empty(t, h.Commands())
	assert.Nil(t, h.Prompt())
	assert.False(t, h.Dispatch(ctx, "count", nil))
}

func TestUnloadWithNothingLoaded(t *testing.T) {
	ctx := context.Background()
	h, out := newCounterHost(t)

	require.NoError(t, h.UnloadAll(ctx))
	assert.Contains(t, out.String(), "no plugins loaded yet")
}

func TestFailedLoadLeavesHostUsable(t *testing.T) {
	ctx := context.Background()
	h, _ := newCounterHost(t)

	err := h.LoadPlugin(ctx, "builtin:missing")
	assert.True(t, domerrors.IsLoadError(err))
	assert.False(t, h.Loaded())

	require.NoError(t, h.LoadPlugin(ctx, "builtin:counter"))
	assert.True(t, h.Loaded())
}

func TestNilLoaderIsLoadError(t *testing.T) {
	h := host.New(host.WithOutput(&bytes.Buffer{}))
	err := h.LoadPlugin(context.Background(), "whatever.wasm")
	assert.True(t, domerrors.IsLoadError(err))
}

// fakeModule implements ports.Module with a configurable export table so
// protocol failure modes can be exercised without a real module.
type fakeModule struct {
	path     string
	exports  map[string]ports.Function
	closed   bool
	closeErr error
}

func (m *fakeModule) Path() string { return m.path }

func (m *fakeModule) Resolve(name string) (ports.Function, error) {
	fn, ok := m.exports[name]
	if !ok {
		return nil, &domerrors.SymbolError{Symbol: name, Path: m.path}
	}
	return fn, nil
}

func (m *fakeModule) Memory() abi.Memory { return nil }

func (m *fakeModule) Close(context.Context) error {
	m.closed = true
	return m.closeErr
}

type fakeFunc func(ctx context.Context, params ...uint64) ([]uint64, error)

func (f fakeFunc) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	return f(ctx, params...)
}

type fakeLoader struct {
	mod   *fakeModule
	paths []string
}

func (l *fakeLoader) Load(_ context.Context, path string) (ports.Module, error) {
	l.paths = append(l.paths, path)
	if l.mod == nil {
		return nil, &domerrors.LoadError{Path: path, Err: errors.New("no module")}
	}
	return l.mod, nil
}

func TestMissingRegisterEntryPointIsFatalToLoad(t *testing.T) {
	ctx := context.Background()
	mod := &fakeModule{path: "hollow.wasm", exports: map[string]ports.Function{}}
	h := host.New(
		host.WithLoader(&fakeLoader{mod: mod}),
		host.WithOutput(&bytes.Buffer{}),
	)

	err := h.LoadPlugin(ctx, "hollow.wasm")
	assert.True(t, domerrors.IsSymbolError(err))
	assert.False(t, h.Loaded())
	assert.True(t, mod.closed, "an unusable module must be closed on the spot")
}

func TestFailedRegistrationCallRollsBack(t *testing.T) {
	ctx := context.Background()
	mod := &fakeModule{
		path: "broken.wasm",
		exports: map[string]ports.Function{
			entities.RegisterEntryPoint: fakeFunc(func(context.Context, ...uint64) ([]uint64, error) {
				return nil, fmt.Errorf("trap")
			}),
		},
	}
	h := host.New(
		host.WithLoader(&fakeLoader{mod: mod}),
		host.WithOutput(&bytes.Buffer{}),
	)

	err := h.LoadPlugin(ctx, "broken.wasm")
	assert.ErrorContains(t, err, "registration call failed")
	assert.False(t, h.Loaded())
	assert.True(t, mod.closed)
	assert.Empty(t, h.Commands())
}

func TestFailingUnloadStillClearsDispatch(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer

	mod := &fakeModule{
		path:     "sticky.wasm",
		exports:  map[string]ports.Function{},
		closeErr: &domerrors.UnloadError{Path: "sticky.wasm", Err: errors.New("release failed")},
	}
	h := host.New(
		host.WithLoader(&fakeLoader{mod: mod}),
		host.WithOutput(&out),
	)
	mod.exports[entities.RegisterEntryPoint] = fakeFunc(func(context.Context, ...uint64) ([]uint64, error) {
		h.Registry().Register(handler.New("stuck", func([]string) error { return nil },
			handler.WithDiagnostics(&out)))
		return []uint64{0}, nil
	})
	mod.exports[entities.PromptEntryPoint] = fakeFunc(func(context.Context, ...uint64) ([]uint64, error) {
		return []uint64{0}, nil
	})

	require.NoError(t, h.LoadPlugin(ctx, "sticky.wasm"))
	require.True(t, h.Dispatch(ctx, "stuck", nil))
	require.NotNil(t, h.Prompt())

	err := h.UnloadAll(ctx)
	assert.True(t, domerrors.IsUnloadError(err))
	assert.True(t, mod.closed)

	// The release failed, yet nothing from the module stays reachable.
	assert.False(t, h.Loaded())
	assert.Empty(t, h.Commands())
	assert.Nil(t, h.Prompt())
	assert.False(t, h.Dispatch(ctx, "stuck", nil))
	assert.NotContains(t, out.String(), "unloaded plugin")
}

func TestSchemeLoaderRouting(t *testing.T) {
	ctx := context.Background()
	fallback := &fakeLoader{}
	routed := &fakeLoader{}

	l := host.NewSchemeLoader(fallback).Route("builtin", routed)

	_, _ = l.Load(ctx, "builtin:counter")
	_, _ = l.Load(ctx, "plugin.wasm")
	_, _ = l.Load(ctx, "other:thing")

	assert.Equal(t, []string{"builtin:counter"}, routed.paths)
	assert.Equal(t, []string{"plugin.wasm", "other:thing"}, fallback.paths)
}
