package labels

import (
	"maps"
	"sync"
	"sync/atomic"
)

// Map is the live category table. Reads are lock-free against an immutable
// snapshot; writers swap in a modified copy.
type Map struct {
	mu      sync.Mutex
	current atomic.Pointer[map[Category]Descriptor]
}

// NewMap returns a Map seeded with Default.
func NewMap() *Map {
	m := &Map{}
	m.Reset()
	return m
}

// Get returns the descriptor for c. The boolean is false when the category
// is suppressed and should not be emitted as a token.
func (m *Map) Get(c Category) (Descriptor, bool) {
	d, ok := (*m.current.Load())[c]
	return d, ok
}

// Extend merges an update into the table. A nil entry removes the category.
// Categories absent from the update keep their current mapping.
func (m *Map) Extend(u Update) {
	if len(u) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := maps.Clone(*m.current.Load())
	for c, d := range u {
		if d == nil {
			delete(next, c)
			continue
		}
		next[c] = *d
	}
	m.current.Store(&next)
}

// Reset restores the built-in table.
func (m *Map) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	table := Default()
	m.current.Store(&table)
}

// Snapshot returns a copy of the current table.
func (m *Map) Snapshot() map[Category]Descriptor {
	return maps.Clone(*m.current.Load())
}
