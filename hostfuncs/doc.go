// Package hostfuncs provides pure Go implementations of the host
// functions a module can invoke. They have no WASM runtime dependencies:
// any loader adapter that can surface raw boundary words can expose them.
package hostfuncs
