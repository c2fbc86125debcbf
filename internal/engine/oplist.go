package engine

// opList is a list of treeOps gradually reduced until it is trivial to
// turn into staged NodeHeaders and tuple assignments.
type opList[K any, V any] struct {
	ops []treeOp[K, V]
}

func newOpList[K any, V any](ops []treeOp[K, V]) *opList[K, V] {
	return &opList[K, V]{ops: ops}
}

// isSeedingTreeForFirstTime reports whether any op in this list is a
// createRootOp. When the tree is empty, EVERY op for a batch wants to
// build the root, so this is all-or-nothing.
func (l *opList[K, V]) isSeedingTreeForFirstTime() bool {
	for _, op := range l.ops {
		if _, ok := op.(createRootOp[K, V]); ok {
			return true
		}
	}
	return false
}

// extractSeedTuples returns the tuples wanting to seed the root. Panics
// if the list contains anything but createRootOps — a logic error, not
// a user-facing condition.
func (l *opList[K, V]) extractSeedTuples() []Tuple[K, V] {
	out := make([]Tuple[K, V], 0, len(l.ops))
	for _, op := range l.ops {
		cr, ok := op.(createRootOp[K, V])
		if !ok {
			panic("engine: extractSeedTuples called on a non-seeding opList")
		}
		out = append(out, cr.tuple)
	}
	return out
}

func justNodeOps[K any, V any](ops []treeOp[K, V]) []nodeOp[K, V] {
	out := make([]nodeOp[K, V], 0, len(ops))
	for _, op := range ops {
		if n, ok := op.(nodeOp[K, V]); ok {
			out = append(out, n)
		}
	}
	return out
}

func justTupleOps[K any, V any](ops []treeOp[K, V]) []tupleOp[K, V] {
	out := make([]tupleOp[K, V], 0, len(ops))
	for _, op := range ops {
		if t, ok := op.(tupleOp[K, V]); ok {
			out = append(out, t)
		}
	}
	return out
}

// compactNodeOps groups ops by target node id and reduces each group to
// one op, preserving per-node insertion order of first appearance (a
// deterministic, not merely "some", iteration order — see the split
// propagation order note in DESIGN.md).
func compactNodeOps[K any, V any](ops []nodeOp[K, V]) []nodeOp[K, V] {
	type idKey = [16]byte
	order := make([]idKey, 0, len(ops))
	groups := make(map[idKey][]nodeOp[K, V])
	for _, op := range ops {
		key := idKey(op.node.ID)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], op)
	}
	out := make([]nodeOp[K, V], 0, len(order))
	for _, key := range order {
		out = append(out, reduceNodeOps(groups[key]))
	}
	return out
}

// resultingHeaders reduces this list's nodeOps and applies each
// reduced op to its target, producing the post-image headers.
func (l *opList[K, V]) resultingHeaders() []NodeHeader[K] {
	compacted := compactNodeOps(justNodeOps(l.ops))
	out := make([]NodeHeader[K], len(compacted))
	for i, op := range compacted {
		out[i] = op.resultingHeader()
	}
	return out
}

// tupleAssignments returns the CREATE/MOVE assignments this list's
// tupleOps describe.
func (l *opList[K, V]) tupleAssignments() []tupleAssignment[K, V] {
	return opsToAssignments(justTupleOps(l.ops))
}
