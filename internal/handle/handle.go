// Package handle maps opaque uint32 tokens to host-owned values. Tokens
// are what cross the module boundary in place of pointers: extension code
// only ever sees the integer, and only the host resolves it back to the
// concrete value.
package handle

import "sync"

// Nil is the reserved null token. Insert never returns it.
const Nil uint32 = 0

// Table is a token table. The zero value is not usable; call NewTable.
type Table struct {
	mu   sync.Mutex
	next uint32
	vals map[uint32]any
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{vals: make(map[uint32]any)}
}

// Insert stores v and returns its token. A nil v occupies its token like
// any other value.
func (t *Table) Insert(v any) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	for {
		t.next++
		if t.next == Nil {
			continue
		}
		if _, taken := t.vals[t.next]; !taken {
			break
		}
	}
	t.vals[t.next] = v
	return t.next
}

// Get returns the value for a token.
func (t *Table) Get(token uint32) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.vals[token]
	return v, ok
}

// Remove deletes a token and returns the value it held. Removing an
// unknown token is a no-op, which makes release paths idempotent.
func (t *Table) Remove(token uint32) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.vals[token]
	if ok {
		delete(t.vals, token)
	}
	return v, ok
}

// Len reports the number of live tokens.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.vals)
}

// Resolve fetches a token and downcasts it to T. It returns false when
// the token is unknown or holds a different concrete type.
func Resolve[T any](t *Table, token uint32) (T, bool) {
	var zero T
	v, ok := t.Get(token)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
