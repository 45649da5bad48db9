package builtin

import "context"

// arena is a builtin module's memory: a flat byte buffer addressed by
// 32-bit offsets. Offset 0 is reserved so it can serve as the null
// pointer. Allocation is bump-only; deallocation just drops the liveness
// record, and doing it twice is a no-op.
type arena struct {
	buf    []byte
	allocs map[uint32]uint32 // ptr -> size of live allocations
}

func newArena() *arena {
	return &arena{
		buf:    make([]byte, 1),
		allocs: make(map[uint32]uint32),
	}
}

func (a *arena) Allocate(_ context.Context, size uint32) (uint32, error) {
	if size == 0 {
		return 0, nil
	}
	ptr := uint32(len(a.buf))
	a.buf = append(a.buf, make([]byte, size)...)
	a.allocs[ptr] = size
	return ptr, nil
}

func (a *arena) Deallocate(_ context.Context, ptr, _ uint32) error {
	delete(a.allocs, ptr)
	return nil
}

func (a *arena) Read(ptr, size uint32) ([]byte, bool) {
	if uint64(ptr)+uint64(size) > uint64(len(a.buf)) {
		return nil, false
	}
	return a.buf[ptr : ptr+size], true
}

func (a *arena) Write(ptr uint32, data []byte) bool {
	if uint64(ptr)+uint64(len(data)) > uint64(len(a.buf)) {
		return false
	}
	copy(a.buf[ptr:], data)
	return true
}

// live reports the number of allocations not yet released. Anything left
// after a call completes is a leaked buffer.
func (a *arena) live() int {
	return len(a.allocs)
}
