package engine

import "github.com/mitre/spheretree/id"

// Iterator walks a tree's leaves one DataPage at a time, using an
// explicit stack (never recursion) so depth cannot overflow the call
// stack. By default it detects concurrent modification: if the tree's
// last transaction id changes out from under it, Next panics rather
// than silently returning stale or inconsistent pages.
type Iterator[K any, V any] struct {
	tree            *view[K, V]
	expectedTxID    id.Identifier
	hasExpectedTxID bool
	preventMutation bool

	nodesToTraverse []NodeHeader[K]
}

// ConcurrentModificationError reports that the tree changed while an
// Iterator built with mutation detection enabled was still in use.
type ConcurrentModificationError struct{}

func (ConcurrentModificationError) Error() string {
	return "engine: tree was modified during iteration"
}

// NewIterator builds a strict Iterator over tree: any transaction
// applied to the backing store before iteration finishes causes Next
// to panic with a *ConcurrentModificationError.
func NewIterator[K any, V any](tree *view[K, V]) *Iterator[K, V] {
	return newIterator(tree, true)
}

// NewPermissiveIterator builds an Iterator that tolerates concurrent
// mutation: it simply keeps walking whatever node graph it already
// has staged, which may mix pre- and post-mutation state.
func NewPermissiveIterator[K any, V any](tree *view[K, V]) *Iterator[K, V] {
	return newIterator(tree, false)
}

func newIterator[K any, V any](tree *view[K, V], preventMutation bool) *Iterator[K, V] {
	txID, hasTxID := tree.LastTransactionID()
	it := &Iterator[K, V]{
		tree:            tree,
		expectedTxID:    txID,
		hasExpectedTxID: hasTxID,
		preventMutation: preventMutation,
	}
	if !tree.Empty() {
		it.nodesToTraverse = append(it.nodesToTraverse, tree.RootNode())
	}
	return it
}

// HasNext reports whether any pages remain.
func (it *Iterator[K, V]) HasNext() bool {
	return len(it.nodesToTraverse) > 0
}

// Next returns the next DataPage. Panics if HasNext is false, or if
// mutation detection is enabled and the tree changed underneath this
// Iterator.
func (it *Iterator[K, V]) Next() DataPage[K, V] {
	it.detectMutation()
	return it.findNextPage()
}

func (it *Iterator[K, V]) findNextPage() DataPage[K, V] {
	for {
		n := len(it.nodesToTraverse)
		top := it.nodesToTraverse[n-1]
		it.nodesToTraverse = it.nodesToTraverse[:n-1]

		if top.IsLeafNode() {
			page, ok := it.tree.DataPageAt(top.ID)
			if !ok {
				return DataPage[K, V]{ID: top.ID}
			}
			return page
		}

		for _, childID := range top.ChildIDs {
			if child, ok := it.tree.NodeAt(childID); ok {
				it.nodesToTraverse = append(it.nodesToTraverse, child)
			}
		}

		if len(it.nodesToTraverse) == 0 {
			panic("engine: iterator stack should never empty out on an inner node")
		}
	}
}

func (it *Iterator[K, V]) detectMutation() {
	if !it.preventMutation {
		return
	}
	curTxID, hasCurTxID := it.tree.LastTransactionID()
	if hasCurTxID != it.hasExpectedTxID || curTxID != it.expectedTxID {
		panic(&ConcurrentModificationError{})
	}
}
