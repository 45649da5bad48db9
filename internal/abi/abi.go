// Package abi defines the boundary-stable value representations shared by
// the host and loaded modules: pointer+length words addressing module
// memory, owned strings released exactly once through the producing
// module's deallocator, and borrowed string vectors that are valid only
// for the duration of the call that constructed them.
//
// Every representation is plain data. There is no implicit lifecycle: the
// side that allocates a buffer is named explicitly, and release happens
// through the Allocator of the module that owns the memory.
package abi

import (
	"context"
	"encoding/binary"
	"fmt"
)

// Memory is the subset of a module's linear memory the host touches.
// Read returns false when the range is out of bounds; implementations may
// return a view, so callers copy before the producing call returns.
type Memory interface {
	Read(ptr, size uint32) ([]byte, bool)
	Write(ptr uint32, data []byte) bool
}

// Allocator reserves and releases buffers inside a module's memory.
// Allocate(0) returns the null pointer; Deallocate of the null pointer is
// a no-op.
type Allocator interface {
	Allocate(ctx context.Context, size uint32) (uint32, error)
	Deallocate(ctx context.Context, ptr, size uint32) error
}

// String is a pointer+length byte range in module memory containing valid
// text. Whether it is owned or borrowed is a property of the call that
// produced it, not of the value itself.
type String struct {
	Ptr uint32
	Len uint32
}

// Vec is a pointer+count range of packed String pairs in module memory.
type Vec struct {
	Ptr uint32
	Len uint32
}

// stringSize is the packed byte width of one String element: two
// little-endian uint32 words, pointer first.
const stringSize = 8

// NewString allocates module memory, copies text into it, and returns the
// owning String. The empty string needs no allocation and is represented
// as the null range.
func NewString(ctx context.Context, alloc Allocator, mem Memory, text string) (String, error) {
	if len(text) == 0 {
		return String{}, nil
	}
	size := uint32(len(text))
	ptr, err := alloc.Allocate(ctx, size)
	if err != nil {
		return String{}, fmt.Errorf("abi: allocating %d bytes: %w", size, err)
	}
	if !mem.Write(ptr, []byte(text)) {
		return String{}, fmt.Errorf("abi: write of %d bytes at 0x%x out of range", size, ptr)
	}
	return String{Ptr: ptr, Len: size}, nil
}

// ReadString copies the text out of a borrowed String. The copy is what
// lets the caller keep the result after the producing call returns.
func ReadString(mem Memory, s String) (string, error) {
	if s.Len == 0 {
		return "", nil
	}
	data, ok := mem.Read(s.Ptr, s.Len)
	if !ok {
		return "", fmt.Errorf("abi: read of %d bytes at 0x%x out of range", s.Len, s.Ptr)
	}
	return string(data), nil
}

// TakeString assumes ownership of s: it copies the text out, then releases
// the buffer through the producing module's allocator. The buffer is freed
// exactly once; the returned Go string is host memory.
func TakeString(ctx context.Context, mem Memory, alloc Allocator, s String) (string, error) {
	text, err := ReadString(mem, s)
	if err != nil {
		return "", err
	}
	if err := ReleaseString(ctx, alloc, s); err != nil {
		return "", err
	}
	return text, nil
}

// ReleaseString frees an owned String without reading it.
func ReleaseString(ctx context.Context, alloc Allocator, s String) error {
	if s.Len == 0 {
		return nil
	}
	return alloc.Deallocate(ctx, s.Ptr, s.Len)
}

// WriteArgs builds a borrowed vector of strings in module memory: one
// buffer per argument plus a packed array of pointer+length pairs. The
// returned release function frees every buffer and must run before the
// call that received the vector is considered finished - nothing in the
// module may retain the views past that point.
func WriteArgs(ctx context.Context, alloc Allocator, mem Memory, args []string) (Vec, func(context.Context) error, error) {
	elems := make([]String, len(args))
	release := func(ctx context.Context) error {
		var firstErr error
		for _, e := range elems {
			if err := ReleaseString(ctx, alloc, e); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	for i, arg := range args {
		s, err := NewString(ctx, alloc, mem, arg)
		if err != nil {
			_ = release(ctx)
			return Vec{}, nil, err
		}
		elems[i] = s
	}

	if len(elems) == 0 {
		return Vec{}, func(context.Context) error { return nil }, nil
	}

	packed := make([]byte, len(elems)*stringSize)
	for i, e := range elems {
		binary.LittleEndian.PutUint32(packed[i*stringSize:], e.Ptr)
		binary.LittleEndian.PutUint32(packed[i*stringSize+4:], e.Len)
	}
	vecPtr, err := alloc.Allocate(ctx, uint32(len(packed)))
	if err != nil {
		_ = release(ctx)
		return Vec{}, nil, fmt.Errorf("abi: allocating argument vector: %w", err)
	}
	if !mem.Write(vecPtr, packed) {
		_ = release(ctx)
		return Vec{}, nil, fmt.Errorf("abi: write of argument vector at 0x%x out of range", vecPtr)
	}

	vec := Vec{Ptr: vecPtr, Len: uint32(len(elems))}
	releaseAll := func(ctx context.Context) error {
		err := alloc.Deallocate(ctx, vecPtr, uint32(len(packed)))
		if rerr := release(ctx); rerr != nil && err == nil {
			err = rerr
		}
		return err
	}
	return vec, releaseAll, nil
}

// ReadArgs decodes a borrowed argument vector into host strings. Used on
// the receiving side of a call; the copies outlive the views, the views do
// not outlive the call.
func ReadArgs(mem Memory, v Vec) ([]string, error) {
	if v.Len == 0 {
		return nil, nil
	}
	packed, ok := mem.Read(v.Ptr, v.Len*stringSize)
	if !ok {
		return nil, fmt.Errorf("abi: read of argument vector at 0x%x out of range", v.Ptr)
	}
	args := make([]string, v.Len)
	for i := range args {
		s := String{
			Ptr: binary.LittleEndian.Uint32(packed[i*stringSize:]),
			Len: binary.LittleEndian.Uint32(packed[i*stringSize+4:]),
		}
		text, err := ReadString(mem, s)
		if err != nil {
			return nil, fmt.Errorf("abi: argument %d: %w", i, err)
		}
		args[i] = text
	}
	return args, nil
}
