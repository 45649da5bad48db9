package abi_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plugsh/plugsh/internal/abi"
)

// fakeMemory is a flat buffer with tracked allocations, mimicking a
// module's linear memory. Offset 0 is the null pointer.
type fakeMemory struct {
	buf    []byte
	allocs map[uint32]uint32
	frees  int
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{buf: make([]byte, 1), allocs: make(map[uint32]uint32)}
}

func (m *fakeMemory) Allocate(_ context.Context, size uint32) (uint32, error) {
	if size == 0 {
		return 0, nil
	}
	ptr := uint32(len(m.buf))
	m.buf = append(m.buf, make([]byte, size)...)
	m.allocs[ptr] = size
	return ptr, nil
}

func (m *fakeMemory) Deallocate(_ context.Context, ptr, _ uint32) error {
	if ptr == 0 {
		return nil
	}
	delete(m.allocs, ptr)
	m.frees++
	return nil
}

func (m *fakeMemory) Read(ptr, size uint32) ([]byte, bool) {
	if uint64(ptr)+uint64(size) > uint64(len(m.buf)) {
		return nil, false
	}
	return m.buf[ptr : ptr+size], true
}

func (m *fakeMemory) Write(ptr uint32, data []byte) bool {
	if uint64(ptr)+uint64(len(data)) > uint64(len(m.buf)) {
		return false
	}
	copy(m.buf[ptr:], data)
	return true
}

func TestOwnedStringRoundTrip(t *testing.T) {
	tests := []string{
		"",
		"a",
		"reset-counter",
		"text with spaces",
		"unicode: héllo wörld 東京",
	}

	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			ctx := context.Background()
			mem := newFakeMemory()

			s, err := abi.NewString(ctx, mem, mem, text)
			require.NoError(t, err)

			got, err := abi.TakeString(ctx, mem, mem, s)
			require.NoError(t, err)
			assert.Equal(t, text, got)
			assert.Empty(t, mem.allocs, "owned buffer must be released")
		})
	}
}

func TestNewStringEmptyNeedsNoAllocation(t *testing.T) {
	ctx := context.Background()
	mem := newFakeMemory()

	s, err := abi.NewString(ctx, mem, mem, "")
	require.NoError(t, err)
	assert.Equal(t, abi.String{}, s)
	assert.Empty(t, mem.allocs)
}

func TestTakeStringFreesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	mem := newFakeMemory()

	s, err := abi.NewString(ctx, mem, mem, "hello")
	require.NoError(t, err)

	_, err = abi.TakeString(ctx, mem, mem, s)
	require.NoError(t, err)
	assert.Equal(t, 1, mem.frees)
}

func TestReadStringOutOfRange(t *testing.T) {
	mem := newFakeMemory()

	_, err := abi.ReadString(mem, abi.String{Ptr: 1000, Len: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestWriteArgsReadArgsRoundTrip(t *testing.T) {
	tests := [][]string{
		nil,
		{"a"},
		{"a", "b", "c"},
		{"", "middle empty", ""},
	}

	for _, args := range tests {
		ctx := context.Background()
		mem := newFakeMemory()

		vec, release, err := abi.WriteArgs(ctx, mem, mem, args)
		require.NoError(t, err)

		got, err := abi.ReadArgs(mem, vec)
		require.NoError(t, err)
		assert.Equal(t, len(args), len(got))
		for i := range args {
			assert.Equal(t, args[i], got[i])
		}

		require.NoError(t, release(ctx))
		assert.Empty(t, mem.allocs, "borrowed views must not outlive the call")
	}
}

func TestWriteArgsReleaseIsComplete(t *testing.T) {
	ctx := context.Background()
	mem := newFakeMemory()

	_, release, err := abi.WriteArgs(ctx, mem, mem, []string{"one", "two", "three"})
	require.NoError(t, err)
	require.NotEmpty(t, mem.allocs)

	require.NoError(t, release(ctx))
	assert.Empty(t, mem.allocs)
}

func TestReadArgsOutOfRange(t *testing.T) {
	mem := newFakeMemory()

	_, err := abi.ReadArgs(mem, abi.Vec{Ptr: 500, Len: 3})
	require.Error(t, err)
}
