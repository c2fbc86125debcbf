package engine

import (
	"github.com/mitre/spheretree/id"
	"github.com/mitre/spheretree/store"
)

// view is the engine's read path over the committed (non-staged) tree
// state. It is intentionally unexported: its "inspect everything"
// methods (AllNodes, LeafNodes, Tuples, ...) are only safe to call
// against small trees — they exist so Stats and the test suite can
// reason about a tree's shape, not for production queries.
type view[K any, V any] struct {
	backend store.DataStore
	serde   serdePair[K, V]
	config  Config[K]
}

func newView[K any, V any](backend store.DataStore, serde serdePair[K, V], config Config[K]) *view[K, V] {
	return &view[K, V]{backend: backend, serde: serde, config: config}
}

// LastTransactionID returns the id of the most recently applied
// transaction, and false if the backend is empty.
func (v *view[K, V]) LastTransactionID() (id.Identifier, bool) {
	return v.backend.LastTransactionID()
}

// RootID returns the current root node id, and false if empty.
func (v *view[K, V]) RootID() (id.Identifier, bool) {
	return v.backend.RootID()
}

// RootNode returns the current root header. Panics if the tree is
// empty — callers must check emptiness (via RootID) first.
func (v *view[K, V]) RootNode() NodeHeader[K] {
	rootID, ok := v.RootID()
	if !ok {
		panic("engine: RootNode called on an empty tree")
	}
	node, ok := v.NodeAt(rootID)
	if !ok {
		panic("engine: root id does not resolve to a node")
	}
	return node
}

// NodeAt returns the deserialized node header for nodeID.
func (v *view[K, V]) NodeAt(nodeID id.Identifier) (NodeHeader[K], bool) {
	raw, ok := v.backend.NodeAt(nodeID)
	if !ok {
		return NodeHeader[K]{}, false
	}
	node, err := v.serde.deserializeHeader(raw)
	if err != nil {
		panic("engine: corrupt node header: " + err.Error())
	}
	return node, true
}

// DataPageAt returns the deserialized page for pageID.
func (v *view[K, V]) DataPageAt(pageID id.Identifier) (DataPage[K, V], bool) {
	raw, ok := v.backend.DataPageAt(pageID)
	if !ok {
		return DataPage[K, V]{}, false
	}
	page, err := v.serde.deserializePage(raw)
	if err != nil {
		panic("engine: corrupt data page: " + err.Error())
	}
	return page, true
}

// NodesBelow returns the direct children of nodeID, skipping any that
// fail to resolve. Returns nil for a leaf.
func (v *view[K, V]) NodesBelow(nodeID id.Identifier) []NodeHeader[K] {
	node, ok := v.NodeAt(nodeID)
	if !ok || node.IsLeafNode() {
		return nil
	}
	out := make([]NodeHeader[K], 0, len(node.ChildIDs))
	for _, childID := range node.ChildIDs {
		if child, ok := v.NodeAt(childID); ok {
			out = append(out, child)
		}
	}
	return out
}

// AllNodes walks the whole tree breadth-first and returns every
// distinct node. Exists for tests and for Stats; never call this
// against a tree sized for production use.
func (v *view[K, V]) AllNodes() []NodeHeader[K] {
	rootID, ok := v.RootID()
	if !ok {
		return nil
	}

	seen := make(map[id.Identifier]struct{})
	order := make([]id.Identifier, 0)
	byID := make(map[id.Identifier]NodeHeader[K])

	queue := []id.Identifier{rootID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if _, already := seen[current]; already {
			continue
		}
		node, ok := v.NodeAt(current)
		if !ok {
			continue
		}
		seen[current] = struct{}{}
		order = append(order, current)
		byID[current] = node

		if node.IsInnerNode() {
			queue = append(queue, node.ChildIDs...)
		}
	}

	out := make([]NodeHeader[K], len(order))
	for i, nodeID := range order {
		out[i] = byID[nodeID]
	}
	return out
}

// AllDataPages returns every leaf's page. See AllNodes' caveat.
func (v *view[K, V]) AllDataPages() []DataPage[K, V] {
	nodes := v.AllNodes()
	out := make([]DataPage[K, V], 0, len(nodes))
	for _, n := range nodes {
		if !n.IsLeafNode() {
			continue
		}
		if page, ok := v.DataPageAt(n.ID); ok {
			out = append(out, page)
		}
	}
	return out
}

// Tuples returns every tuple stored in the tree. See AllNodes' caveat.
func (v *view[K, V]) Tuples() []Tuple[K, V] {
	var out []Tuple[K, V]
	for _, page := range v.AllDataPages() {
		out = append(out, page.Tuples...)
	}
	return out
}

// InnerNodes returns every inner node. See AllNodes' caveat.
func (v *view[K, V]) InnerNodes() []NodeHeader[K] {
	var out []NodeHeader[K]
	for _, n := range v.AllNodes() {
		if n.IsInnerNode() {
			out = append(out, n)
		}
	}
	return out
}

// LeafNodes returns every leaf node. See AllNodes' caveat.
func (v *view[K, V]) LeafNodes() []NodeHeader[K] {
	var out []NodeHeader[K]
	for _, n := range v.AllNodes() {
		if n.IsLeafNode() {
			out = append(out, n)
		}
	}
	return out
}

// Empty reports whether the backend has no root yet.
func (v *view[K, V]) Empty() bool {
	_, ok := v.RootID()
	return !ok
}
