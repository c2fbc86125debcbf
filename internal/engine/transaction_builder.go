package engine

import (
	"math"
	"sort"

	"github.com/mitre/spheretree/id"
	"github.com/mitre/spheretree/metric"
)

// transactionBuilder knows how a tree must change to ingest a batch of
// tuples (or, with no batch at all, to fully repack itself). It lowers
// a batch into elementary treeOps via its diffTracker, then folds any
// resulting split/repack work back into the same staged transaction.
type transactionBuilder[K any, V any] struct {
	batch         *Batch[K, V]
	config        Config[K]
	repackingMode RepackingMode
	diff          *diffTracker[K, V]
	distance      func(a, b K) float64
	split         *splitter[K, V]
}

// newTransactionBuilder prepares a builder that will insert batch's
// tuples into tree. Pass a nil batch to build a full-tree repack
// instead.
func newTransactionBuilder[K any, V any](tree *view[K, V], config Config[K], selector CenterSelector[K], batch *Batch[K, V]) *transactionBuilder[K, V] {
	verified := metric.Verify[K](config.Distance.Distance)
	return &transactionBuilder[K, V]{
		batch:         batch,
		config:        config,
		repackingMode: config.RepackingMode,
		diff:          newDiffTracker(tree),
		distance:      verified,
		split:         newSplitter[K, V](verified, selector),
	}
}

// ComputeTransaction lowers the pending batch (or drives a full
// repack, if there is none) into a single Transaction. May only be
// called once per builder.
func (b *transactionBuilder[K, V]) ComputeTransaction() Transaction[K, V] {
	if b.batch == nil {
		return b.repackTree()
	}

	b.diff.setIDsOfNewTuples(b.batch.EntryIDs())

	ops := b.diff.basicOpsForBatch(b.distance, b.batch.Tuples)
	return b.asTreeTransaction(ops)
}

func (b *transactionBuilder[K, V]) asTreeTransaction(ops *opList[K, V]) Transaction[K, V] {
	if ops.isSeedingTreeForFirstTime() {
		return b.initialTransactionForRootNode(ops)
	}

	b.diff.putAllNodes(ops.resultingHeaders())
	b.diff.putAllTuples(ops.tupleAssignments())

	b.splitNodes(true)

	b.repack(b.findBestRepacks())
	b.rebuildOldestLeaves(b.numLeavesToRebuild())

	return b.diff.asTransaction()
}

// initialTransactionForRootNode builds the very first root/leaf pair
// around a brand-new tree's seed tuples.
func (b *transactionBuilder[K, V]) initialTransactionForRootNode(ops *opList[K, V]) Transaction[K, V] {
	seeds := ops.extractSeedTuples()

	center := seeds[0].Key
	keys := make([]K, len(seeds))
	for i, t := range seeds {
		keys[i] = t.Key
	}
	radius := computeRadius(b.distance, center, keys)

	rootID := id.New()
	leafID := id.New()

	b.diff.registerNewNode(rootID)
	b.diff.registerNewNode(leafID)

	rootNode := NewInnerNodeHeader(rootID, id.Zero, false, center, radius, []id.Identifier{leafID})
	leafNode := NewLeafNodeHeader(leafID, rootID, true, center, radius, len(seeds))

	b.diff.putNode(rootNode)
	b.diff.putNode(leafNode)

	for _, tuple := range seeds {
		b.diff.putTupleAssignment(assignTuple(tuple, leafID))
	}

	b.splitNodes(false)

	return b.diff.asTransaction()
}

// repackTree rebuilds every leaf but the two newest, used to fully
// rebalance a tree with no incoming batch.
func (b *transactionBuilder[K, V]) repackTree() Transaction[K, V] {
	n := b.diff.numLeafNodes()
	for i := 2; i < n; i++ {
		b.rebuildOldestLeaf()
	}
	return b.diff.asTransaction()
}

// repack removes every tuple from leavesToRepack and reinserts them as
// if freshly added, then trims any leaf that regroups its parent's
// child list after ending up with zero tuples.
func (b *transactionBuilder[K, V]) repack(leavesToRepack []id.Identifier) {
	if len(leavesToRepack) == 0 {
		return
	}

	var tuplesToRepack []Tuple[K, V]
	for _, leafID := range leavesToRepack {
		page := b.diff.curDataPageAt(leafID)
		tuplesToRepack = append(tuplesToRepack, page.Tuples...)
	}

	for _, leafID := range leavesToRepack {
		leaf, ok := b.diff.curNodeAt(leafID)
		if !ok {
			continue
		}
		b.diff.putNode(leaf.ZeroRadiusZeroTupleCopy())
	}

	var rawOps []treeOp[K, V]
	for _, tuple := range tuplesToRepack {
		rawOps = append(rawOps, b.diff.basicOpsFor(b.distance, tuple)...)
	}
	ops := newOpList(rawOps)

	for _, leafID := range leavesToRepack {
		b.diff.deletePage(leafID)
	}

	resultingHeaders := ops.resultingHeaders()
	b.diff.putAllNodes(resultingHeaders)
	b.diff.putAllTuples(ops.tupleAssignments())

	b.splitNodes(false)

	regrown := make(map[id.Identifier]struct{}, len(resultingHeaders))
	for _, h := range resultingHeaders {
		regrown[h.ID] = struct{}{}
	}

	var deletedLeaves []id.Identifier
	for _, leafID := range leavesToRepack {
		if _, stillAlive := regrown[leafID]; !stillAlive {
			deletedLeaves = append(deletedLeaves, leafID)
		}
	}
	sort.Slice(deletedLeaves, func(i, j int) bool { return deletedLeaves[i].Less(deletedLeaves[j]) })

	for _, deletedID := range deletedLeaves {
		deleteMe, ok := b.diff.curNodeAt(deletedID)
		if !ok {
			continue
		}
		b.removeNodeFromTree(deleteMe)
	}
}

// numLeavesToRebuild computes how many of the oldest leaves should be
// rebuilt as part of ingesting the current batch.
func (b *transactionBuilder[K, V]) numLeavesToRebuild() int {
	switch b.repackingMode {
	case RepackingIncrementalLN:
		return int(math.Log(float64(b.diff.numLeafNodes()))) + 1
	default:
		return 0
	}
}

func (b *transactionBuilder[K, V]) rebuildOldestLeaves(n int) {
	for i := 0; i < n; i++ {
		b.rebuildOldestLeaf()
	}
}

// rebuildOldestLeaf replaces the oldest leaf with a freshly-id'd leaf
// carrying the same center, then reinserts its tuples as if new. The
// original center is deliberately preserved: it was chosen carefully
// when the leaf split into existence, there's no reason to discard it.
func (b *transactionBuilder[K, V]) rebuildOldestLeaf() {
	root, ok := b.diff.curRootNode()
	if !ok || root.NumChildren() < 3 {
		return
	}

	oldestLeaf := b.diff.oldestLeafNode()
	newLeafID := id.New()

	tuplesToRepack := b.diff.curDataPageAt(oldestLeaf).Tuples

	oldestLeafHeader, _ := b.diff.curNodeAt(oldestLeaf)
	parent, _ := b.diff.curNodeAt(oldestLeafHeader.ParentID)

	newLeaf := NewLeafNodeHeader(newLeafID, parent.ID, true, oldestLeafHeader.Center, 0, 0)
	updatedParent := parent.ReplaceChild(oldestLeaf, newLeafID)

	b.diff.deletePage(oldestLeaf)
	b.diff.deleteNode(oldestLeaf)
	b.diff.putNode(newLeaf)
	b.diff.putNode(updatedParent)

	var rawOps []treeOp[K, V]
	for _, tuple := range tuplesToRepack {
		rawOps = append(rawOps, b.diff.basicOpsFor(b.distance, tuple)...)
	}
	ops := newOpList(rawOps)

	resultingHeaders := ops.resultingHeaders()
	b.diff.putAllNodes(resultingHeaders)
	b.diff.putAllTuples(ops.tupleAssignments())

	grewBack := false
	for _, h := range resultingHeaders {
		if h.HasID(newLeafID) {
			grewBack = true
			break
		}
	}
	if !grewBack {
		b.removeNodeFromTree(newLeaf)
	}

	b.splitNodes(false)
}

// removeNodeFromTree deletes deleteMe and, recursively, any ancestor
// left with zero children as a result — but never removes the root.
func (b *transactionBuilder[K, V]) removeNodeFromTree(deleteMe NodeHeader[K]) {
	log.Debug().Stringer("node", deleteMe.ID).Msg("deleting node")
	b.diff.deleteNode(deleteMe.ID)

	parent, ok := b.diff.curNodeAt(deleteMe.ParentID)
	if !ok {
		return
	}
	smallerParent := parent.RemoveChild(deleteMe.ID)

	if smallerParent.NumChildren() == 0 {
		b.removeNodeFromTree(smallerParent)
	} else {
		b.diff.putNode(smallerParent)
	}
}

// findBestRepacks returns the leaves that should be repacked this
// transaction: always whichever leaves just came into being from a
// split, since a fresh split's leaves always introduce page overlap.
func (b *transactionBuilder[K, V]) findBestRepacks() []id.Identifier {
	return b.diff.repackSeeds()
}

// splitNodes drains the staged tree of every splittable node, pushing
// the root down a level when it overflows and otherwise splitting
// leaves or inner nodes in place. splitLeavesQuickly is true only when
// the caller knows the resulting leaves will be immediately repacked.
func (b *transactionBuilder[K, V]) splitNodes(splitLeavesQuickly bool) {
	for {
		bf, mt := b.bounds()
		if !b.diff.hasSplittableHeader(bf, mt) {
			return
		}

		nodeToSplit := b.diff.findOneSplittableNode(bf, mt)

		if nodeToSplit.IsRoot() {
			b.pushDownRoot(nodeToSplit)
			continue
		}

		if nodeToSplit.IsLeafNode() {
			b.splitLeaf(nodeToSplit, splitLeavesQuickly)
		} else {
			b.splitInner(nodeToSplit)
		}
	}
}

func (b *transactionBuilder[K, V]) bounds() (branchingFactor, maxTuplesPerPage int) {
	return b.config.BranchingFactor, b.config.MaxTuplesPerPage
}

func (b *transactionBuilder[K, V]) pushDownRoot(curRoot NodeHeader[K]) {
	newRootID := id.New()
	newRoot := NewInnerNodeHeader(newRootID, id.Zero, false, curRoot.Center, curRoot.Radius, []id.Identifier{curRoot.ID})

	b.diff.registerNewNode(newRootID)

	updatedOldRoot := curRoot.WithParent(newRootID)

	b.diff.putNode(newRoot)
	b.diff.putNode(updatedOldRoot)

	log.Debug().Stringer("newRoot", newRootID).Stringer("pushedDown", curRoot.ID).Msg("growing tree one level")
}

// splitLeaf turns an over-sized leaf into two leaves at the same
// level. splitQuickly skips the distance-based assignment entirely
// when the caller already knows these leaves will be repacked.
func (b *transactionBuilder[K, V]) splitLeaf(nodeToSplit NodeHeader[K], splitQuickly bool) {
	combined := b.diff.curDataPageAt(nodeToSplit.ID)
	b.diff.deletePage(nodeToSplit.ID)

	var result splitResult[K, V]
	if splitQuickly {
		result = b.split.quickSplit(combined)
	} else {
		result = b.split.carefulSplit(combined)
	}

	newLeafID := id.New()
	b.diff.registerNewNode(newLeafID)

	b.diff.registerRepackSeed(nodeToSplit.ID)
	b.diff.registerRepackSeed(newLeafID)

	parentID := nodeToSplit.ParentID
	oldParent, _ := b.diff.curNodeAt(parentID)
	newParent := oldParent.AddChild(newLeafID)
	b.diff.putNode(newParent)

	leftLeaf := NewLeafNodeHeader(nodeToSplit.ID, parentID, true, result.left.center, result.left.radius, len(result.left.tuples))
	rightLeaf := NewLeafNodeHeader(newLeafID, parentID, true, result.right.center, result.right.radius, len(result.right.tuples))

	b.diff.putNode(leftLeaf)
	b.diff.putNode(rightLeaf)

	for _, tuple := range result.left.tuples {
		b.diff.putTupleAssignment(assignTuple(tuple, leftLeaf.ID))
	}
	for _, tuple := range result.right.tuples {
		b.diff.putTupleAssignment(assignTuple(tuple, rightLeaf.ID))
	}

	log.Debug().
		Bool("quick", splitQuickly).
		Stringer("left", leftLeaf.ID).
		Stringer("right", rightLeaf.ID).
		Int("leftSize", len(result.left.tuples)).
		Int("rightSize", len(result.right.tuples)).
		Msg("split leaf")
}

// splitInner turns an over-sized inner node into two inner nodes at
// the same level, dividing its children between them by nearest
// center.
func (b *transactionBuilder[K, V]) splitInner(nodeToSplit NodeHeader[K]) {
	children := make([]NodeHeader[K], 0, len(nodeToSplit.ChildIDs))
	for _, childID := range nodeToSplit.ChildIDs {
		child, ok := b.diff.curNodeAt(childID)
		if !ok {
			panic("engine: inner node split found a missing child")
		}
		children = append(children, child)
	}

	centerKeys := make([]K, len(children))
	for i, c := range children {
		centerKeys[i] = c.Center
	}
	centers := b.split.splitKeys(centerKeys)

	list1, list2 := divideByNearestCenter(b.distance, centers[0], centers[1], children)
	if len(list1) == 0 || len(list2) == 0 {
		panic("engine: inner node split produced an empty side")
	}

	radius1 := estimateInnerNodeRadius(b.distance, centers[0], list1)
	radius2 := estimateInnerNodeRadius(b.distance, centers[1], list2)

	childIDs1 := make([]id.Identifier, len(list1))
	for i, c := range list1 {
		childIDs1[i] = c.ID
	}
	childIDs2 := make([]id.Identifier, len(list2))
	for i, c := range list2 {
		childIDs2[i] = c.ID
	}

	replacement := NewInnerNodeHeader(nodeToSplit.ID, nodeToSplit.ParentID, nodeToSplit.HasParent, centers[0], radius1, childIDs1)
	siblingID := id.New()
	sibling := NewInnerNodeHeader(siblingID, nodeToSplit.ParentID, nodeToSplit.HasParent, centers[1], radius2, childIDs2)

	b.diff.registerNewNode(siblingID)

	existingParent, _ := b.diff.curNodeAt(nodeToSplit.ParentID)
	updatedParent := existingParent.AddChild(siblingID)

	for _, node := range list1 {
		b.diff.putNode(node)
	}
	for _, node := range list2 {
		b.diff.putNode(node.WithParent(siblingID))
	}

	b.diff.putNode(replacement)
	b.diff.putNode(sibling)
	b.diff.putNode(updatedParent)

	log.Debug().
		Stringer("replacement", replacement.ID).
		Stringer("sibling", sibling.ID).
		Int("replacementChildren", replacement.NumChildren()).
		Int("siblingChildren", sibling.NumChildren()).
		Msg("split inner node")
}

// divideByNearestCenter splits children into two groups by which of
// key1/key2 is closer, alternating a tiebreaker when distances are
// exactly equal so ties don't all pile onto one side.
func divideByNearestCenter[K any](distance func(a, b K) float64, key1, key2 K, children []NodeHeader[K]) (list1, list2 []NodeHeader[K]) {
	tieBreaker := false
	for _, child := range children {
		d1 := distance(key1, child.Center)
		d2 := distance(key2, child.Center)

		switch {
		case d1 == d2:
			if tieBreaker {
				list1 = append(list1, child)
			} else {
				list2 = append(list2, child)
			}
			tieBreaker = !tieBreaker
		case d1 < d2:
			list1 = append(list1, child)
		default:
			list2 = append(list2, child)
		}
	}
	return list1, list2
}
