// Package pending provides a two-slot FIFO for values waiting on a result.
// When a value leaves the buffer without being handed back to the caller,
// the buffer passes it to a release hook so the owner can cancel it.
package pending

// Buffer holds at most two values in arrival order. The zero value is a
// usable empty buffer that silently discards released values.
type Buffer[T any] struct {
	older   *T
	newer   *T
	release func(T)
}

// New creates a Buffer that hands every evicted or discarded value to release.
func New[T any](release func(T)) Buffer[T] {
	return Buffer[T]{release: release}
}

// Len reports how many values are held.
func (b *Buffer[T]) Len() int {
	switch {
	case b.newer != nil:
		return 2
	case b.older != nil:
		return 1
	default:
		return 0
	}
}

// Push appends v as the newest value. When the buffer is full the oldest
// value is evicted and released.
func (b *Buffer[T]) Push(v T) {
	switch {
	case b.older == nil:
		b.older = &v
	case b.newer == nil:
		b.newer = &v
	default:
		evicted := *b.older
		b.older, b.newer = b.newer, &v
		b.drop(evicted)
	}
}

// TakeOlder removes and returns the older value only when two are held,
// leaving the newer one in place.
func (b *Buffer[T]) TakeOlder() (T, bool) {
	var zero T
	if b.newer == nil {
		return zero, false
	}
	v := *b.older
	b.older, b.newer = b.newer, nil
	return v, true
}

// TakeNewest removes and returns the most recently pushed value, releases
// the other one if present, and leaves the buffer empty.
func (b *Buffer[T]) TakeNewest() (T, bool) {
	var zero T
	older, newer := b.older, b.newer
	b.older, b.newer = nil, nil

	switch {
	case newer != nil:
		b.drop(*older)
		return *newer, true
	case older != nil:
		return *older, true
	default:
		return zero, false
	}
}

// Remove drops the first held value matching fn without releasing it and
// reports whether one was found. A remaining newer value becomes the older.
func (b *Buffer[T]) Remove(fn func(T) bool) bool {
	switch {
	case b.older != nil && fn(*b.older):
		b.older, b.newer = b.newer, nil
		return true
	case b.newer != nil && fn(*b.newer):
		b.newer = nil
		return true
	default:
		return false
	}
}

// Clear releases every held value, oldest first.
func (b *Buffer[T]) Clear() {
	older, newer := b.older, b.newer
	b.older, b.newer = nil, nil
	if older != nil {
		b.drop(*older)
	}
	if newer != nil {
		b.drop(*newer)
	}
}

func (b *Buffer[T]) drop(v T) {
	if b.release != nil {
		b.release(v)
	}
}
