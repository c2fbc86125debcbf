// Package engine implements the tree engine: the ball-tree shape over
// a DataStore, the batch-to-transaction compiler, incremental
// repacking, and the two query algorithms. It is kept unexported at
// the package-privacy boundary the way the source keeps its internal
// engine type separate from its public façade — callers use the root
// package's Tree[K,V] instead.
package engine

import "github.com/mitre/spheretree/id"

// Tuple is one (key, value) pair of user data, the unit the engine
// moves between batches, leaves, and repacks.
type Tuple[K any, V any] struct {
	ID    id.Identifier
	Key   K
	Value V
}

// Less orders tuples by id, matching the source's id-based natural
// order for tuples within a DataPage.
func (t Tuple[K, V]) Less(other Tuple[K, V]) bool {
	return t.ID.Less(other.ID)
}
