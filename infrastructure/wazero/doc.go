// Package wazero implements the dynamic module loader over the wazero
// WebAssembly runtime.
//
// It bridges the boundary protocol onto real loadable modules: loading a
// module is instantiation with immediate, local resolution of its
// imports; resolving an entry point is an exported-function lookup by
// exact name with no signature checking; unloading closes the module
// instance, which invalidates every function resolved from it. The host's
// registration callback is exported to guests under the fixed host module
// name before any module is loaded.
package wazero
