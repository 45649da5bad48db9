// Package entities defines the names and record shapes of the module
// boundary protocol. These are the ABI contract: both sides of the
// boundary must agree on them bit for bit, so they change only with
// extreme care.
package entities

// Entry points the host resolves from a loaded module by exact name.
const (
	// RegisterEntryPoint is the required one-time registration call:
	// plugsh_register(ctx u32). A module missing it cannot contribute
	// commands and is not considered loadable.
	RegisterEntryPoint = "plugsh_register"

	// PromptEntryPoint is the optional prompt override:
	// plugsh_prompt(), no arguments, no results. It prints its own
	// prompt text.
	PromptEntryPoint = "plugsh_prompt"

	// AllocateExport and DeallocateExport are the module's memory
	// management exports: allocate(size u32) -> ptr u32 and
	// deallocate(ptr u32, len u32).
	AllocateExport   = "allocate"
	DeallocateExport = "deallocate"

	// CallDispatchExport and DropDispatchExport bridge function-table
	// indices back into concrete module functions:
	// plugsh_call(fn u32, state u32, vec_ptr u32, vec_len u32) -> u32 and
	// plugsh_drop(fn u32, state u32). A handler's invoke and destroy
	// indices are only ever dispatched through these two.
	CallDispatchExport = "plugsh_call"
	DropDispatchExport = "plugsh_drop"
)

// Host-side names a module imports.
const (
	// HostModuleName is the import namespace of the host's functions.
	HostModuleName = "plugsh_host"

	// RegisterCommandFunc is the registration callback a module invokes
	// during its registration call:
	// register_command(ctx u32, name_ptr u32, name_len u32, state u32,
	// invoke_fn u32, destroy_fn u32) -> u32, returning 1 when the command
	// was accepted and 0 when it was rejected.
	RegisterCommandFunc = "register_command"
)

// NilFunc is the null function reference. Table index 0 is reserved and
// never names a live invoke or destroy function.
const NilFunc uint32 = 0

// HandlerDescriptor is the four-field record describing one command
// handler as it crosses the boundary: the owned name, the opaque
// captured-state token, and the invoke/destroy function-table indices.
// Invoke and destroy are generated together for one concrete captured
// state; the record travels as a unit and is never partially copied.
type HandlerDescriptor struct {
	Name      string `validate:"required,max=128"`
	State     uint32
	InvokeFn  uint32 `validate:"required"`
	DestroyFn uint32 `validate:"required"`
}
