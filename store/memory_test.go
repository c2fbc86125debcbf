package store

import (
	"testing"

	"github.com/mitre/spheretree/id"
)

func TestEmptyStoreHasNoRoot(t *testing.T) {
	s := NewMemoryStore()
	if _, ok := s.RootID(); ok {
		t.Errorf("expected no root in empty store")
	}
	if _, ok := s.LastTransactionID(); ok {
		t.Errorf("expected no last transaction id in empty store")
	}
}

func TestApplyTransactionFirstCommit(t *testing.T) {
	s := NewMemoryStore()
	root := id.New()
	leaf := id.New()
	tx := Transaction{
		HasExpected:   false,
		TransactionID: id.New(),
		CreatedNodes: []NodeHeader{
			{ID: root, HasParent: false, Center: []byte("c"), ChildIDs: []id.Identifier{leaf}},
			{ID: leaf, HasParent: true, ParentID: root, IsLeaf: true, Center: []byte("c")},
		},
		NewRootID:  root,
		HasNewRoot: true,
	}
	if err := s.ApplyTransaction(tx); err != nil {
		t.Fatalf("ApplyTransaction: %v", err)
	}
	gotRoot, ok := s.RootID()
	if !ok || gotRoot != root {
		t.Errorf("got root %v, ok=%v; want %v", gotRoot, ok, root)
	}
	if _, ok := s.NodeAt(leaf); !ok {
		t.Errorf("expected leaf node to be stored")
	}
}

func TestApplyTransactionRejectsStaleExpected(t *testing.T) {
	s := NewMemoryStore()
	tx1 := Transaction{HasExpected: false, TransactionID: id.New()}
	if err := s.ApplyTransaction(tx1); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	tx2 := Transaction{HasExpected: false, TransactionID: id.New()}
	err := s.ApplyTransaction(tx2)
	if err == nil {
		t.Fatalf("expected concurrent-modification error")
	}
}

func TestDataPageAtAbsentForEmpty(t *testing.T) {
	s := NewMemoryStore()
	if _, ok := s.DataPageAt(id.New()); ok {
		t.Errorf("expected absent page for unknown id")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	root := id.New()
	leaf := id.New()
	tuple := id.New()
	tx := Transaction{
		HasExpected:   false,
		TransactionID: id.New(),
		CreatedNodes: []NodeHeader{
			{ID: root, HasParent: false, Center: []byte("c"), ChildIDs: []id.Identifier{leaf}},
			{ID: leaf, HasParent: true, ParentID: root, IsLeaf: true, Center: []byte("c"), TupleCount: 1},
		},
		CreatedTuples: []Tuple{
			{ID: tuple, PageID: leaf, Key: []byte("k"), Value: []byte("v"), HasVal: true},
		},
		NewRootID:  root,
		HasNewRoot: true,
	}
	if err := s.ApplyTransaction(tx); err != nil {
		t.Fatalf("ApplyTransaction: %v", err)
	}

	data, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	restored := NewMemoryStore()
	if err := restored.Restore(data); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	gotRoot, ok := restored.RootID()
	if !ok || gotRoot != root {
		t.Errorf("got root %v ok=%v, want %v", gotRoot, ok, root)
	}
	page, ok := restored.DataPageAt(leaf)
	if !ok || len(page.Tuples) != 1 {
		t.Fatalf("expected restored page with 1 tuple, got %v ok=%v", page, ok)
	}
}
