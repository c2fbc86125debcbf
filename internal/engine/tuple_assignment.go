package engine

import "github.com/mitre/spheretree/id"

// tupleAssignment pins a tuple to a page id: either a CREATE (the
// tuple is new to the tree) or a MOVE (the tuple already existed and
// is being relocated by a split or repack). Which case applies is
// decided by whether the tuple's id is in the staging diffTracker's
// new-tuple set, not by anything on this type.
type tupleAssignment[K any, V any] struct {
	tuple  Tuple[K, V]
	pageID id.Identifier
}

func assignTuple[K any, V any](tuple Tuple[K, V], pageID id.Identifier) tupleAssignment[K, V] {
	return tupleAssignment[K, V]{tuple: tuple, pageID: pageID}
}

func (a tupleAssignment[K, V]) tupleID() id.Identifier {
	return a.tuple.ID
}

func (a tupleAssignment[K, V]) hasPageID(pageID id.Identifier) bool {
	return a.pageID == pageID
}

// opsToAssignments converts the CREATE/MOVE tupleOps straight out of a
// batch compile into tupleAssignments.
func opsToAssignments[K any, V any](ops []tupleOp[K, V]) []tupleAssignment[K, V] {
	out := make([]tupleAssignment[K, V], len(ops))
	for i, op := range ops {
		out[i] = assignTuple(op.tuple, op.pageID())
	}
	return out
}
