package engine

import (
	"sort"

	"github.com/mitre/spheretree/id"
)

// diffTracker helps mutate a tree using bug-free Transactions. It
// holds a fixed view of the tree's committed state while numerous
// updates to NodeHeaders and tuple assignments accumulate, then
// exports everything as one Transaction, the way a git commit diffs a
// working tree against a fixed parent commit.
type diffTracker[K any, V any] struct {
	tree *view[K, V]

	lastTransactionID id.Identifier
	hasLastTxID       bool

	nodeUpdates      map[id.Identifier]NodeHeader[K]
	nodeUpdateOrder  []id.Identifier
	tupleAssignments map[id.Identifier]tupleAssignment[K, V]
	tupleOrder       []id.Identifier

	deletedPages []id.Identifier
	deletedNodes []id.Identifier

	idsOfNewNodes  map[id.Identifier]struct{}
	idsOfNewTuples map[id.Identifier]struct{}
	idsOfRepackSeeds map[id.Identifier]struct{}

	built bool
}

func newDiffTracker[K any, V any](tree *view[K, V]) *diffTracker[K, V] {
	lastTxID, hasLastTxID := tree.LastTransactionID()
	return &diffTracker[K, V]{
		tree:              tree,
		lastTransactionID: lastTxID,
		hasLastTxID:       hasLastTxID,
		nodeUpdates:       make(map[id.Identifier]NodeHeader[K]),
		tupleAssignments:  make(map[id.Identifier]tupleAssignment[K, V]),
		idsOfNewNodes:     make(map[id.Identifier]struct{}),
		idsOfNewTuples:    make(map[id.Identifier]struct{}),
		idsOfRepackSeeds:  make(map[id.Identifier]struct{}),
	}
}

func (t *diffTracker[K, V]) setIDsOfNewTuples(ids []id.Identifier) {
	for _, tid := range ids {
		t.idsOfNewTuples[tid] = struct{}{}
	}
}

// registerNewNode marks nodeID as a CREATE rather than an UPDATE when
// the transaction is finally assembled.
func (t *diffTracker[K, V]) registerNewNode(nodeID id.Identifier) {
	t.idsOfNewNodes[nodeID] = struct{}{}
}

// registerRepackSeed remembers that pageID's leaf just split, a good
// hint for where to start a repack.
func (t *diffTracker[K, V]) registerRepackSeed(pageID id.Identifier) {
	t.idsOfRepackSeeds[pageID] = struct{}{}
}

func (t *diffTracker[K, V]) repackSeeds() []id.Identifier {
	out := make([]id.Identifier, 0, len(t.idsOfRepackSeeds))
	for pid := range t.idsOfRepackSeeds {
		out = append(out, pid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func (t *diffTracker[K, V]) putNode(node NodeHeader[K]) {
	if _, exists := t.nodeUpdates[node.ID]; !exists {
		t.nodeUpdateOrder = append(t.nodeUpdateOrder, node.ID)
	}
	t.nodeUpdates[node.ID] = node
}

func (t *diffTracker[K, V]) putAllNodes(nodes []NodeHeader[K]) {
	for _, n := range nodes {
		t.putNode(n)
	}
}

func (t *diffTracker[K, V]) deleteNode(nodeID id.Identifier) {
	t.deletedNodes = append(t.deletedNodes, nodeID)
	if _, staged := t.nodeUpdates[nodeID]; staged {
		delete(t.nodeUpdates, nodeID)
		for i, queued := range t.nodeUpdateOrder {
			if queued == nodeID {
				t.nodeUpdateOrder = append(t.nodeUpdateOrder[:i], t.nodeUpdateOrder[i+1:]...)
				break
			}
		}
	}
}

func (t *diffTracker[K, V]) putTupleAssignment(ta tupleAssignment[K, V]) {
	tid := ta.tupleID()
	if _, exists := t.tupleAssignments[tid]; !exists {
		t.tupleOrder = append(t.tupleOrder, tid)
	}
	t.tupleAssignments[tid] = ta
}

func (t *diffTracker[K, V]) putAllTuples(assignments []tupleAssignment[K, V]) {
	for _, ta := range assignments {
		t.putTupleAssignment(ta)
	}
}

func (t *diffTracker[K, V]) deletePage(pageID id.Identifier) {
	t.deletedPages = append(t.deletedPages, pageID)
}

func (t *diffTracker[K, V]) createdTuples() []tupleAssignment[K, V] {
	var out []tupleAssignment[K, V]
	for _, tid := range t.tupleOrder {
		if _, isNew := t.idsOfNewTuples[tid]; isNew {
			out = append(out, t.tupleAssignments[tid])
		}
	}
	return out
}

func (t *diffTracker[K, V]) updatedTuples() []tupleAssignment[K, V] {
	var out []tupleAssignment[K, V]
	for _, tid := range t.tupleOrder {
		if _, isNew := t.idsOfNewTuples[tid]; !isNew {
			out = append(out, t.tupleAssignments[tid])
		}
	}
	return out
}

// asTransaction freezes this tracker's accumulated edits into a
// Transaction. May only be called once.
func (t *diffTracker[K, V]) asTransaction() Transaction[K, V] {
	if t.built {
		panic("engine: this diffTracker's Transaction was already built")
	}
	t.built = true

	var createdNodes, updatedNodes []NodeHeader[K]
	for _, nodeID := range t.nodeUpdateOrder {
		node := t.nodeUpdates[nodeID]
		if _, isNew := t.idsOfNewNodes[nodeID]; isNew {
			createdNodes = append(createdNodes, node)
		} else {
			updatedNodes = append(updatedNodes, node)
		}
	}

	return NewTransaction(
		t.lastTransactionID,
		t.hasLastTxID,
		createdNodes,
		updatedNodes,
		t.createdTuples(),
		t.updatedTuples(),
		t.deletedPages,
		t.deletedNodes,
	)
}

// curNodeAt returns the most up-to-date edition of a node: whatever
// was staged via putNode, else the committed state.
func (t *diffTracker[K, V]) curNodeAt(nodeID id.Identifier) (NodeHeader[K], bool) {
	if node, ok := t.nodeUpdates[nodeID]; ok {
		return node, true
	}
	return t.tree.NodeAt(nodeID)
}

// curDataPageAt builds the current view of a page: tuples staged for
// it this transaction, merged with whatever was already committed
// (unless the page was deleted this transaction, in which case prior
// contents are ignored — they were moved elsewhere by a split).
func (t *diffTracker[K, V]) curDataPageAt(pageID id.Identifier) DataPage[K, V] {
	var staged []Tuple[K, V]
	for _, tid := range t.tupleOrder {
		ta := t.tupleAssignments[tid]
		if ta.hasPageID(pageID) {
			staged = append(staged, ta.tuple)
		}
	}
	page := DataPage[K, V]{ID: pageID, Tuples: staged}

	for _, deleted := range t.deletedPages {
		if deleted == pageID {
			return page
		}
	}

	if priors, ok := t.tree.DataPageAt(pageID); ok {
		return mergePages(page, priors)
	}
	return page
}

// findOneSplittableNode returns an arbitrary staged node that
// exceeds its configured bound. Panics if none does — a logic error
// to call this when hasSplittableHeader is false.
func (t *diffTracker[K, V]) findOneSplittableNode(branchingFactor, maxTuplesPerPage int) NodeHeader[K] {
	for _, nodeID := range t.nodeUpdateOrder {
		node := t.nodeUpdates[nodeID]
		if node.IsSplittable(branchingFactor, maxTuplesPerPage) {
			log.Debug().Stringer("node", node.ID).Bool("leaf", node.IsLeafNode()).Msg("splitting overgrown node")
			return node
		}
	}
	panic("engine: findOneSplittableNode called with no splittable node staged")
}

func (t *diffTracker[K, V]) hasSplittableHeader(branchingFactor, maxTuplesPerPage int) bool {
	for _, nodeID := range t.nodeUpdateOrder {
		if t.nodeUpdates[nodeID].IsSplittable(branchingFactor, maxTuplesPerPage) {
			return true
		}
	}
	return false
}

// basicOpsFor lowers one tuple into the elementary treeOps needed to
// insert it: a createRootOp if the tree is still empty, else a
// tupleOp plus a tuple-count bump for its target leaf, plus a
// radius-increase op for every ancestor whose sphere must grow to
// keep containing it.
func (t *diffTracker[K, V]) basicOpsFor(distance func(a, b K) float64, tuple Tuple[K, V]) []treeOp[K, V] {
	path := t.pathToLeafFor(distance, tuple.Key)

	if len(path) == 0 {
		return []treeOp[K, V]{createRootOp[K, V]{tuple: tuple}}
	}

	var ops []treeOp[K, V]
	for _, step := range path {
		if step.increasesRadius() {
			ops = append(ops, increaseRadiusOp[K, V](step.node, step.distance))
		}
	}

	leaf := path[len(path)-1].node
	ops = append(ops, tupleOp[K, V]{node: leaf, tuple: tuple})
	ops = append(ops, incrementTupleCountOp[K, V](leaf))

	return ops
}

// basicOpsForBatch lowers every tuple in a batch independently; the
// resulting ops are reduced later, once, by the caller.
func (t *diffTracker[K, V]) basicOpsForBatch(distance func(a, b K) float64, tuples []Tuple[K, V]) *opList[K, V] {
	var ops []treeOp[K, V]
	for _, tuple := range tuples {
		ops = append(ops, t.basicOpsFor(distance, tuple)...)
	}
	return newOpList(ops)
}

// pathToLeafFor computes the descent from the root to whichever leaf
// is currently closest to key, given the staged (not yet committed)
// tree state. Returns nil if the tree is still empty.
func (t *diffTracker[K, V]) pathToLeafFor(distance func(a, b K) float64, key K) []distBtw[K] {
	curNode, ok := t.curRootNode()
	if !ok {
		return nil
	}

	path := []distBtw[K]{measureDistBtw(distance, curNode, key)}

	nextLevel := t.nodesBelow(curNode.ID)
	for len(nextLevel) > 0 {
		best := chooseClosest(distance, nextLevel, key)
		path = append(path, best)
		nextLevel = t.nodesBelow(best.node.ID)
	}

	return path
}

func (t *diffTracker[K, V]) nodesBelow(nodeID id.Identifier) []NodeHeader[K] {
	node, ok := t.curNodeAt(nodeID)
	if !ok || node.IsLeafNode() {
		return nil
	}
	out := make([]NodeHeader[K], 0, len(node.ChildIDs))
	for _, childID := range node.ChildIDs {
		if child, ok := t.curNodeAt(childID); ok {
			out = append(out, child)
		}
	}
	return out
}

// curRootNode returns the staged root if one has been put, else the
// committed root. Returns false only if the tree is entirely empty.
func (t *diffTracker[K, V]) curRootNode() (NodeHeader[K], bool) {
	for _, nodeID := range t.nodeUpdateOrder {
		node := t.nodeUpdates[nodeID]
		if node.IsRoot() {
			return node, true
		}
	}
	if t.tree.Empty() {
		return NodeHeader[K]{}, false
	}
	return t.tree.RootNode(), true
}

// leafNodes walks the staged tree breadth-first from its current root
// and returns every distinct leaf.
func (t *diffTracker[K, V]) leafNodes() []NodeHeader[K] {
	root, ok := t.curRootNode()
	if !ok {
		return nil
	}

	seen := make(map[id.Identifier]struct{})
	byID := make(map[id.Identifier]NodeHeader[K])
	order := make([]id.Identifier, 0)

	queue := []id.Identifier{root.ID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, already := seen[current]; already {
			continue
		}
		node, ok := t.curNodeAt(current)
		if !ok {
			continue
		}
		seen[current] = struct{}{}
		byID[current] = node
		order = append(order, current)
		for _, below := range t.nodesBelow(current) {
			queue = append(queue, below.ID)
		}
	}

	var out []NodeHeader[K]
	for _, nodeID := range order {
		if n := byID[nodeID]; n.IsLeafNode() {
			out = append(out, n)
		}
	}
	return out
}

func (t *diffTracker[K, V]) numLeafNodes() int {
	return len(t.leafNodes())
}

// oldestLeafNode returns the leaf with the lexicographically smallest
// id, which — since ids are time-sortable — is the oldest leaf,
// following the spec's "rebuild the longest-neglected pages first"
// repacking policy.
func (t *diffTracker[K, V]) oldestLeafNode() id.Identifier {
	leaves := t.leafNodes()
	if len(leaves) == 0 {
		panic("engine: oldestLeafNode called on a tree with no leaves")
	}
	oldest := leaves[0].ID
	for _, leaf := range leaves[1:] {
		if leaf.ID.Less(oldest) {
			oldest = leaf.ID
		}
	}
	return oldest
}
