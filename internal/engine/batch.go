package engine

import "github.com/mitre/spheretree/id"

// Batch is a collection of tuples that will be folded into a single
// Transaction. Keeping them together lets the engine amortize the
// tree-descent reads a naive tuple-at-a-time insert would repeat.
type Batch[K any, V any] struct {
	ID     id.Identifier
	Tuples []Tuple[K, V]
}

// NewBatch stamps a fresh batch id over these tuples.
func NewBatch[K any, V any](tuples []Tuple[K, V]) Batch[K, V] {
	return Batch[K, V]{ID: id.New(), Tuples: tuples}
}

func (b Batch[K, V]) Size() int {
	return len(b.Tuples)
}

// EntryIDs returns the ids of every tuple in this batch, letting the
// diffTracker tell "create" and "move" tuple ops apart up front.
func (b Batch[K, V]) EntryIDs() []id.Identifier {
	out := make([]id.Identifier, len(b.Tuples))
	for i, t := range b.Tuples {
		out[i] = t.ID
	}
	return out
}
