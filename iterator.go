package spheretree

import "github.com/mitre/spheretree/internal/engine"

// ConcurrentModificationError reports that the tree changed while a
// strict Iterator was still in use.
type ConcurrentModificationError = engine.ConcurrentModificationError

// Iterator walks a tree's leaves one DataPage at a time, with
// concurrent-mutation detection unless it was built permissive.
type Iterator[K any, V any] struct {
	inner *engine.Iterator[K, V]
}

// HasNext reports whether any pages remain.
func (it *Iterator[K, V]) HasNext() bool {
	return it.inner.HasNext()
}

// Next returns the next page's tuples. Panics if HasNext is false, or
// if mutation detection is enabled and the tree changed underneath
// this Iterator.
func (it *Iterator[K, V]) Next() []Tuple[K, V] {
	page := it.inner.Next()
	out := make([]Tuple[K, V], len(page.Tuples))
	for i, t := range page.Tuples {
		out[i] = Tuple[K, V]{ID: t.ID, Key: t.Key, Value: t.Value}
	}
	return out
}
