// Package builtin implements the module ports for extensions compiled
// into the host binary.
//
// A builtin module is a mini-guest: it owns a byte arena standing in for
// linear memory, a function table whose indices are what cross the
// boundary, and the same fixed entry points a loadable module exports.
// Registration, dispatch and teardown therefore exercise the boundary
// protocol bit for bit, which is also what makes the protocol testable
// without a module toolchain.
package builtin
