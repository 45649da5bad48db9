// Package ports defines interfaces for infrastructure operations.
// These ports enable dependency inversion - the host state machine depends
// on abstractions, and the loader adapters implement these interfaces.
package ports
