// Package host owns the module lifecycle: at most one loaded module, its
// custom prompt and its command registry. It governs load/unload
// transitions and command dispatch, leaving the line loop and its text
// formatting to the shell.
package host
