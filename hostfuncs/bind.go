package hostfuncs

import (
	"context"
	"fmt"
	"io"

	"github.com/plugsh/plugsh/domain/entities"
	"github.com/plugsh/plugsh/domain/ports"
	"github.com/plugsh/plugsh/handler"
	"github.com/plugsh/plugsh/internal/abi"
)

// moduleAllocator adapts a module's allocate/deallocate exports to the
// abi.Allocator interface.
type moduleAllocator struct {
	alloc   ports.Function
	dealloc ports.Function
}

func newModuleAllocator(mod ports.Module) (*moduleAllocator, error) {
	alloc, err := mod.Resolve(entities.AllocateExport)
	if err != nil {
		return nil, err
	}
	dealloc, err := mod.Resolve(entities.DeallocateExport)
	if err != nil {
		return nil, err
	}
	return &moduleAllocator{alloc: alloc, dealloc: dealloc}, nil
}

func (a *moduleAllocator) Allocate(ctx context.Context, size uint32) (uint32, error) {
	if size == 0 {
		return 0, nil
	}
	results, err := a.alloc.Call(ctx, uint64(size))
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("%s returned no results", entities.AllocateExport)
	}
	return uint32(results[0]), nil
}

func (a *moduleAllocator) Deallocate(ctx context.Context, ptr, size uint32) error {
	if ptr == 0 {
		return nil
	}
	_, err := a.dealloc.Call(ctx, uint64(ptr), uint64(size))
	return err
}

// bindHandler turns a validated descriptor into a host-side handler whose
// trampolines dispatch into mod. Invoke and destroy are built together
// here, bound to the same state token and dispatch exports; they exist
// only as this matched pair.
func bindHandler(mod ports.Module, desc entities.HandlerDescriptor, diag io.Writer) (*handler.Handler, error) {
	alloc, err := newModuleAllocator(mod)
	if err != nil {
		return nil, err
	}
	call, err := mod.Resolve(entities.CallDispatchExport)
	if err != nil {
		return nil, err
	}
	drop, err := mod.Resolve(entities.DropDispatchExport)
	if err != nil {
		return nil, err
	}
	mem := mod.Memory()

	invoke := func(ctx context.Context, args []string) (bool, error) {
		// The argument vector is borrowed: it is built for this one call
		// and released before the call is considered finished.
		vec, release, err := abi.WriteArgs(ctx, alloc, mem, args)
		if err != nil {
			return false, err
		}
		defer func() { _ = release(ctx) }()

		results, err := call.Call(ctx,
			uint64(desc.InvokeFn), uint64(desc.State),
			uint64(vec.Ptr), uint64(vec.Len))
		if err != nil {
			return false, err
		}
		if len(results) == 0 {
			return false, fmt.Errorf("%s returned no results", entities.CallDispatchExport)
		}
		return results[0] != 0, nil
	}

	destroy := func(ctx context.Context) error {
		_, err := drop.Call(ctx, uint64(desc.DestroyFn), uint64(desc.State))
		return err
	}

	return handler.FromTrampolines(desc.Name, invoke, destroy, handler.WithDiagnostics(diag)), nil
}
