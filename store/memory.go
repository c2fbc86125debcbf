package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/mitre/spheretree/errs"
	"github.com/mitre/spheretree/id"
)

// MemoryStore is the reference in-memory DataStore backend: a map of
// node id to NodeHeader, a map of page id to the tuples assigned to it,
// and the last-applied transaction id, all guarded by a single mutex —
// the "monitor on applyTransaction" the concurrency model calls for.
type MemoryStore struct {
	mu sync.RWMutex

	nodes map[id.Identifier]NodeHeader
	pages map[id.Identifier][]Tuple

	lastTxID    id.Identifier
	hasLastTxID bool

	rootID    id.Identifier
	hasRootID bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: make(map[id.Identifier]NodeHeader),
		pages: make(map[id.Identifier][]Tuple),
	}
}

func (s *MemoryStore) LastTransactionID() (id.Identifier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTxID, s.hasLastTxID
}

func (s *MemoryStore) RootID() (id.Identifier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rootID, s.hasRootID
}

func (s *MemoryStore) NodeAt(nodeID id.Identifier) (NodeHeader, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[nodeID]
	return n, ok
}

func (s *MemoryStore) DataPageAt(pageID id.Identifier) (DataPage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tuples, ok := s.pages[pageID]
	if !ok || len(tuples) == 0 {
		return DataPage{}, false
	}
	out := make([]Tuple, len(tuples))
	copy(out, tuples)
	return DataPage{ID: pageID, Tuples: out}, true
}

// AllNodeIDs returns every node id currently stored, for test
// harnesses that verify structural invariants by walking the whole
// backend rather than just what's reachable from the root.
func (s *MemoryStore) AllNodeIDs() []id.Identifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.Identifier, 0, len(s.nodes))
	for k := range s.nodes {
		out = append(out, k)
	}
	return out
}

// AllPageIDs returns every page id currently holding at least one
// tuple.
func (s *MemoryStore) AllPageIDs() []id.Identifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.Identifier, 0, len(s.pages))
	for k, tuples := range s.pages {
		if len(tuples) > 0 {
			out = append(out, k)
		}
	}
	return out
}

func (s *MemoryStore) ApplyTransaction(tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.HasExpected != s.hasLastTxID || (s.hasLastTxID && tx.ExpectedTreeID != s.lastTxID) {
		return errs.New(errs.ConcurrentModification,
			fmt.Sprintf("expected tree id does not match backend: store has %v (present=%v), tx expected %v (present=%v)",
				s.lastTxID, s.hasLastTxID, tx.ExpectedTreeID, tx.HasExpected))
	}

	s.lastTxID = tx.TransactionID
	s.hasLastTxID = true

	for _, pageID := range tx.DeletedPages {
		delete(s.pages, pageID)
	}
	for _, nodeID := range tx.DeletedNodeHeaders {
		delete(s.nodes, nodeID)
	}
	for _, t := range tx.CreatedTuples {
		s.pages[t.PageID] = append(s.pages[t.PageID], t)
	}
	for _, t := range tx.UpdatedTuples {
		s.pages[t.PageID] = append(s.pages[t.PageID], t)
	}
	for _, n := range tx.CreatedNodes {
		s.nodes[n.ID] = n
	}
	for _, n := range tx.UpdatedNodes {
		s.nodes[n.ID] = n
	}
	if tx.HasNewRoot {
		s.rootID = tx.NewRootID
		s.hasRootID = true
	}

	return nil
}

// snapshot is the gob-serializable projection of MemoryStore's state,
// used by Snapshot/Restore to persist an in-memory store across process
// restarts — the same role the teacher's Save/Load pair plays for its
// indexes.
type snapshot struct {
	Nodes       map[id.Identifier]NodeHeader
	Pages       map[id.Identifier][]Tuple
	LastTxID    id.Identifier
	HasLastTxID bool
	RootID      id.Identifier
	HasRootID   bool
}

// Snapshot serializes the entire store to a gob-encoded byte slice.
func (s *MemoryStore) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		Nodes:       s.nodes,
		Pages:       s.pages,
		LastTxID:    s.lastTxID,
		HasLastTxID: s.hasLastTxID,
		RootID:      s.rootID,
		HasRootID:   s.hasRootID,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, errs.Wrap(errs.Backend, "store: snapshot encode failed", err)
	}
	return buf.Bytes(), nil
}

// Restore replaces the store's contents with a previously captured
// Snapshot.
func (s *MemoryStore) Restore(data []byte) error {
	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return errs.Wrap(errs.Backend, "store: restore decode failed", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Nodes == nil {
		snap.Nodes = make(map[id.Identifier]NodeHeader)
	}
	if snap.Pages == nil {
		snap.Pages = make(map[id.Identifier][]Tuple)
	}
	s.nodes = snap.Nodes
	s.pages = snap.Pages
	s.lastTxID = snap.LastTxID
	s.hasLastTxID = snap.HasLastTxID
	s.rootID = snap.RootID
	s.hasRootID = snap.HasRootID
	return nil
}

var _ DataStore = (*MemoryStore)(nil)
