package engine

import (
	"fmt"
	"strings"

	"github.com/mitre/spheretree/id"
)

// Transaction is a typed changeset that moves a tree from one valid
// state to the next, once applied. Building one verifies the
// created/updated node lists don't collide and that at most one
// incoming NodeHeader claims to be the new root.
type Transaction[K any, V any] struct {
	ExpectedTreeID id.Identifier
	HasExpected    bool
	TransactionID  id.Identifier

	CreatedNodes []NodeHeader[K]
	UpdatedNodes []NodeHeader[K]

	CreatedTuples []tupleAssignment[K, V]
	UpdatedTuples []tupleAssignment[K, V]

	DeletedPages       []id.Identifier
	DeletedNodeHeaders []id.Identifier

	NewRootID  id.Identifier
	HasNewRoot bool
}

// NewTransaction assembles a Transaction, stamping it with a fresh id
// and deriving HasNewRoot/NewRootID from whichever created/updated
// node (if any) claims to be the root. Panics if a NodeHeader appears
// in both createdNodes and updatedNodes, or if more than one node
// claims to be root.
func NewTransaction[K any, V any](
	expectedTreeID id.Identifier,
	hasExpected bool,
	createdNodes []NodeHeader[K],
	updatedNodes []NodeHeader[K],
	createdTuples []tupleAssignment[K, V],
	updatedTuples []tupleAssignment[K, V],
	deletedPages []id.Identifier,
	deletedNodeHeaders []id.Identifier,
) Transaction[K, V] {
	verifyDistinctNodeIDs(createdNodes, updatedNodes)
	rootID, hasRoot := findNewRoot(createdNodes, updatedNodes)

	return Transaction[K, V]{
		ExpectedTreeID:     expectedTreeID,
		HasExpected:        hasExpected,
		TransactionID:      id.New(),
		CreatedNodes:       createdNodes,
		UpdatedNodes:       updatedNodes,
		CreatedTuples:      createdTuples,
		UpdatedTuples:      updatedTuples,
		DeletedPages:       deletedPages,
		DeletedNodeHeaders: deletedNodeHeaders,
		NewRootID:          rootID,
		HasNewRoot:         hasRoot,
	}
}

func verifyDistinctNodeIDs[K any](created, updated []NodeHeader[K]) {
	seen := make(map[id.Identifier]struct{}, len(created)+len(updated))
	for _, n := range created {
		seen[n.ID] = struct{}{}
	}
	for _, n := range updated {
		if _, ok := seen[n.ID]; ok {
			panic("engine: NodeHeader cannot be created AND updated in the same transaction")
		}
		seen[n.ID] = struct{}{}
	}
	if len(seen) != len(created)+len(updated) {
		panic("engine: NodeHeader cannot be created AND updated in the same transaction")
	}
}

func findNewRoot[K any](created, updated []NodeHeader[K]) (id.Identifier, bool) {
	var root id.Identifier
	found := false
	check := func(n NodeHeader[K]) {
		if !n.IsRoot() {
			return
		}
		if found {
			panic("engine: cannot add multiple root nodes in one transaction")
		}
		root = n.ID
		found = true
	}
	for _, n := range created {
		check(n)
	}
	for _, n := range updated {
		check(n)
	}
	return root, found
}

// Describe renders a human-readable summary of what this transaction
// will do, for trace-level logging.
func (t Transaction[K, V]) Describe() string {
	var b strings.Builder
	b.WriteString("this transaction will:\n")

	for _, ta := range t.CreatedTuples {
		fmt.Fprintf(&b, "  create the tuple: %s in %s\n", ta.tupleID(), ta.pageID)
	}
	for _, ta := range t.UpdatedTuples {
		fmt.Fprintf(&b, "  move the tuple: %s to %s\n", ta.tupleID(), ta.pageID)
	}
	for _, n := range t.CreatedNodes {
		fmt.Fprintf(&b, "  create the node: %s\n", n.ID)
	}
	for _, n := range t.UpdatedNodes {
		fmt.Fprintf(&b, "  update the node: %s\n", n.ID)
	}
	for _, d := range t.DeletedNodeHeaders {
		fmt.Fprintf(&b, "  delete the node at: %s\n", d)
	}

	return b.String()
}
