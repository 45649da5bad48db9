package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plugsh/plugsh/domain/errors"
)

func TestLoadError(t *testing.T) {
	cause := stderrors.New("no such file or directory")
	err := &errors.LoadError{Path: "/tmp/missing.wasm", Err: cause}

	assert.Contains(t, err.Error(), "/tmp/missing.wasm")
	assert.Contains(t, err.Error(), "no such file")
	assert.ErrorIs(t, err, cause)
	assert.True(t, errors.IsLoadError(err))
	assert.True(t, errors.IsLoadError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, errors.IsSymbolError(err))
}

func TestSymbolError(t *testing.T) {
	err := &errors.SymbolError{Symbol: "plugsh_register", Path: "mod.wasm"}

	assert.Contains(t, err.Error(), "plugsh_register")
	assert.Contains(t, err.Error(), "mod.wasm")
	assert.True(t, errors.IsSymbolError(err))
	assert.False(t, errors.IsLoadError(err))
}

func TestUnloadError(t *testing.T) {
	cause := stderrors.New("release failed")
	err := &errors.UnloadError{Path: "mod.wasm", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.True(t, errors.IsUnloadError(err))
}

func TestRegistrationError(t *testing.T) {
	err := &errors.RegistrationError{Name: "count", Reason: "duplicate name"}
	assert.Contains(t, err.Error(), `"count"`)
	assert.Contains(t, err.Error(), "duplicate name")

	anon := &errors.RegistrationError{Reason: "unreadable name"}
	assert.Contains(t, anon.Error(), "unreadable name")
}
