package host

import (
	"context"
	"strings"

	"github.com/plugsh/plugsh/domain/ports"
)

// SchemeLoader routes load requests to loaders by path scheme prefix
// ("builtin:" and friends); paths without a known scheme go to the
// fallback loader.
type SchemeLoader struct {
	schemes  map[string]ports.ModuleLoader
	fallback ports.ModuleLoader
}

// NewSchemeLoader creates a SchemeLoader. Scheme keys are given without
// the trailing colon.
func NewSchemeLoader(fallback ports.ModuleLoader) *SchemeLoader {
	return &SchemeLoader{
		schemes:  make(map[string]ports.ModuleLoader),
		fallback: fallback,
	}
}

// Route registers a loader for a scheme.
func (l *SchemeLoader) Route(scheme string, loader ports.ModuleLoader) *SchemeLoader {
	l.schemes[scheme] = loader
	return l
}

// Load implements ports.ModuleLoader.
func (l *SchemeLoader) Load(ctx context.Context, path string) (ports.Module, error) {
	if scheme, _, ok := strings.Cut(path, ":"); ok {
		if loader, known := l.schemes[scheme]; known {
			return loader.Load(ctx, path)
		}
	}
	return l.fallback.Load(ctx, path)
}
