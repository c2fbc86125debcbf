package engine

import "github.com/mitre/spheretree/id"

// treeOp is an uncompacted, reducible operation needed to change the
// state of a tree. A batch of tuples lowers to many treeOps, which get
// reduced down to the handful of NodeHeader writes and tuple
// assignments a Transaction actually needs — intermediate tree states
// are never themselves written.
type treeOp[K any, V any] interface {
	isTreeOp()
}

// createRootOp builds the very first root + leaf pair around this
// tuple. Only emitted when the tree is currently empty.
type createRootOp[K any, V any] struct {
	tuple Tuple[K, V]
}

func (createRootOp[K, V]) isTreeOp() {}

// nodeOp indicates a NodeHeader will change: its radius may rise, it
// may gain children, or (for a leaf) its tuple count may rise. Several
// nodeOps targeting the same node reduce to one via combineNodeOps.
type nodeOp[K any, V any] struct {
	node        NodeHeader[K]
	newRadius   float64
	newChildren []id.Identifier
	newTuples   int
}

func (nodeOp[K, V]) isTreeOp() {}

func increaseRadiusOp[K any, V any](node NodeHeader[K], newRadius float64) nodeOp[K, V] {
	return nodeOp[K, V]{node: node, newRadius: newRadius}
}

func incrementTupleCountOp[K any, V any](node NodeHeader[K]) nodeOp[K, V] {
	if !node.IsLeafNode() {
		panic("engine: incrementTupleCountOp requires a leaf node")
	}
	return nodeOp[K, V]{node: node, newTuples: 1}
}

// resultingHeader applies this (already-reduced) op to its target
// node and returns the post-image header.
func (op nodeOp[K, V]) resultingHeader() NodeHeader[K] {
	radius := op.node.Radius
	if op.newRadius > radius {
		radius = op.newRadius
	}
	n := op.node
	n.Radius = radius
	if n.IsLeafNode() {
		n.TupleCount += op.newTuples
	} else {
		children := make([]id.Identifier, len(n.ChildIDs), len(n.ChildIDs)+len(op.newChildren))
		copy(children, n.ChildIDs)
		children = append(children, op.newChildren...)
		n.ChildIDs = children
	}
	return n
}

// combineNodeOps merges two ops targeting the same node: radius takes
// the max, child lists concatenate, tuple-count deltas add.
func combineNodeOps[K any, V any](a, b nodeOp[K, V]) nodeOp[K, V] {
	if a.node.ID != b.node.ID {
		panic("engine: combineNodeOps called on ops for different nodes")
	}
	radius := a.newRadius
	if b.newRadius > radius {
		radius = b.newRadius
	}
	children := make([]id.Identifier, 0, len(a.newChildren)+len(b.newChildren))
	children = append(children, a.newChildren...)
	children = append(children, b.newChildren...)
	return nodeOp[K, V]{
		node:        a.node,
		newRadius:   radius,
		newChildren: children,
		newTuples:   a.newTuples + b.newTuples,
	}
}

// reduceNodeOps folds a non-empty slice of same-target ops into one.
func reduceNodeOps[K any, V any](ops []nodeOp[K, V]) nodeOp[K, V] {
	out := ops[0]
	for _, op := range ops[1:] {
		out = combineNodeOps(out, op)
	}
	return out
}

// tupleOp assigns a tuple to a leaf — used for both the CREATE and the
// MOVE case; which one it is gets decided later by whether the tuple's
// id is in the batch's new-tuple set.
type tupleOp[K any, V any] struct {
	node  NodeHeader[K]
	tuple Tuple[K, V]
}

func (tupleOp[K, V]) isTreeOp() {}

func (op tupleOp[K, V]) pageID() id.Identifier {
	return op.node.ID
}
