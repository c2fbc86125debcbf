// Package store defines the byte-level DataStore contract the tree
// engine persists through, plus a reference in-memory backend.
package store

import "github.com/mitre/spheretree/id"

// NodeHeader is the raw, codec-agnostic form of a tree node: center is
// opaque bytes, and exactly one of ChildIDs / TupleCount carries
// meaning depending on whether the node is inner or a leaf, as recorded
// by the IsLeaf field. The sum-type presence is enforced by construction
// in internal/engine — the backend only needs to store and return these
// bytes faithfully.
type NodeHeader struct {
	ID         id.Identifier
	ParentID   id.Identifier // Zero iff this is the root
	HasParent  bool
	Center     []byte
	Radius     float64
	ChildIDs   []id.Identifier // non-nil only for inner nodes
	TupleCount int32           // meaningful only for leaves
	IsLeaf     bool
}

// Tuple is the raw, codec-agnostic form of one (key, value) pair
// assigned to a page.
type Tuple struct {
	ID     id.Identifier
	PageID id.Identifier
	Key    []byte
	Value  []byte
	HasVal bool
}

// DataPage is the raw tuple set attached to one leaf.
type DataPage struct {
	ID     id.Identifier
	Tuples []Tuple
}

// Transaction is an atomic changeset produced by the engine's
// TransactionBuilder and applied by a DataStore in one step.
type Transaction struct {
	ExpectedTreeID id.Identifier
	HasExpected    bool // false only for the very first transaction against an empty store
	TransactionID  id.Identifier

	CreatedNodes []NodeHeader
	UpdatedNodes []NodeHeader

	CreatedTuples []Tuple
	UpdatedTuples []Tuple

	DeletedPages        []id.Identifier
	DeletedNodeHeaders  []id.Identifier

	NewRootID    id.Identifier
	HasNewRoot   bool
}

// DataStore is the byte-level persistence contract the tree engine
// consumes. Implementations need not be transactional at the storage
// level, but must guarantee no reader ever observes a partially-applied
// transaction.
type DataStore interface {
	// LastTransactionID returns the id of the most recently applied
	// transaction, and false if the store is empty.
	LastTransactionID() (id.Identifier, bool)

	// RootID returns the current root node id, and false if the
	// store is empty.
	RootID() (id.Identifier, bool)

	// NodeAt returns the node header for id, and false if absent.
	NodeAt(nodeID id.Identifier) (NodeHeader, bool)

	// DataPageAt returns the page for id, and false if the leaf has
	// no tuples (an empty page is represented as absent, never as a
	// DataPage with a nil Tuples slice).
	DataPageAt(pageID id.Identifier) (DataPage, bool)

	// ApplyTransaction applies tx atomically in the fixed order:
	// insert transaction id; delete pages; delete node headers; write
	// created tuples; write updated tuples; write created node
	// headers; write updated node headers; update root if a new root
	// is present. Returns an *errs.TreeError of kind
	// ConcurrentModification if tx.ExpectedTreeID does not match the
	// store's current LastTransactionID.
	ApplyTransaction(tx Transaction) error
}
