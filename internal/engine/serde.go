package engine

import (
	"github.com/mitre/spheretree/codec"
	"github.com/mitre/spheretree/id"
	"github.com/mitre/spheretree/store"
)

// serdePair bridges the engine's typed structures to and from the
// store package's raw byte-level structures. It is the only place
// codecs get invoked.
type serdePair[K any, V any] struct {
	keyCodec   codec.Codec[K]
	valueCodec codec.Codec[V]
}

func newSerdePair[K any, V any](keyCodec codec.Codec[K], valueCodec codec.Codec[V]) serdePair[K, V] {
	return serdePair[K, V]{keyCodec: keyCodec, valueCodec: valueCodec}
}

func (s serdePair[K, V]) serializeTuple(t Tuple[K, V]) (store.Tuple, error) {
	key, err := s.keyCodec.ToBytes(t.Key)
	if err != nil {
		return store.Tuple{}, err
	}
	value, err := s.valueCodec.ToBytes(t.Value)
	if err != nil {
		return store.Tuple{}, err
	}
	return store.Tuple{ID: t.ID, Key: key, Value: value, HasVal: true}, nil
}

func (s serdePair[K, V]) deserializeTuple(raw store.Tuple) (Tuple[K, V], error) {
	key, err := s.keyCodec.FromBytes(raw.Key)
	if err != nil {
		return Tuple[K, V]{}, err
	}
	value, err := s.valueCodec.FromBytes(raw.Value)
	if err != nil {
		return Tuple[K, V]{}, err
	}
	return Tuple[K, V]{ID: raw.ID, Key: key, Value: value}, nil
}

func (s serdePair[K, V]) serializePage(pageID id.Identifier, tuples []Tuple[K, V]) (store.DataPage, error) {
	rawTuples := make([]store.Tuple, len(tuples))
	for i, t := range tuples {
		raw, err := s.serializeTuple(t)
		if err != nil {
			return store.DataPage{}, err
		}
		raw.PageID = pageID
		rawTuples[i] = raw
	}
	return store.DataPage{ID: pageID, Tuples: rawTuples}, nil
}

func (s serdePair[K, V]) deserializePage(raw store.DataPage) (DataPage[K, V], error) {
	tuples := make([]Tuple[K, V], len(raw.Tuples))
	for i, rt := range raw.Tuples {
		t, err := s.deserializeTuple(rt)
		if err != nil {
			return DataPage[K, V]{}, err
		}
		tuples[i] = t
	}
	return DataPage[K, V]{ID: raw.ID, Tuples: tuples}, nil
}

func (s serdePair[K, V]) serializeHeader(n NodeHeader[K]) (store.NodeHeader, error) {
	center, err := s.keyCodec.ToBytes(n.Center)
	if err != nil {
		return store.NodeHeader{}, err
	}
	return store.NodeHeader{
		ID:         n.ID,
		ParentID:   n.ParentID,
		HasParent:  n.HasParent,
		Center:     center,
		Radius:     n.Radius,
		ChildIDs:   n.ChildIDs,
		TupleCount: int32(n.TupleCount),
		IsLeaf:     n.IsLeafNode(),
	}, nil
}

func (s serdePair[K, V]) deserializeHeader(raw store.NodeHeader) (NodeHeader[K], error) {
	center, err := s.keyCodec.FromBytes(raw.Center)
	if err != nil {
		return NodeHeader[K]{}, err
	}
	if raw.IsLeaf {
		h := NewLeafNodeHeader(raw.ID, raw.ParentID, raw.HasParent, center, raw.Radius, int(raw.TupleCount))
		return h, nil
	}
	h := NewInnerNodeHeader(raw.ID, raw.ParentID, raw.HasParent, center, raw.Radius, raw.ChildIDs)
	return h, nil
}

func (s serdePair[K, V]) serializeHeaders(nodes []NodeHeader[K]) ([]store.NodeHeader, error) {
	out := make([]store.NodeHeader, len(nodes))
	for i, n := range nodes {
		raw, err := s.serializeHeader(n)
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}

func (s serdePair[K, V]) serializeAssignment(a tupleAssignment[K, V]) (store.Tuple, error) {
	raw, err := s.serializeTuple(a.tuple)
	if err != nil {
		return store.Tuple{}, err
	}
	raw.PageID = a.pageID
	return raw, nil
}

func (s serdePair[K, V]) serializeAssignments(assignments []tupleAssignment[K, V]) ([]store.Tuple, error) {
	out := make([]store.Tuple, len(assignments))
	for i, a := range assignments {
		raw, err := s.serializeAssignment(a)
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}

// serializeTransaction converts a typed Transaction into the raw
// store.Transaction a DataStore persists.
func (s serdePair[K, V]) serializeTransaction(tx Transaction[K, V]) (store.Transaction, error) {
	createdNodes, err := s.serializeHeaders(tx.CreatedNodes)
	if err != nil {
		return store.Transaction{}, err
	}
	updatedNodes, err := s.serializeHeaders(tx.UpdatedNodes)
	if err != nil {
		return store.Transaction{}, err
	}
	createdTuples, err := s.serializeAssignments(tx.CreatedTuples)
	if err != nil {
		return store.Transaction{}, err
	}
	updatedTuples, err := s.serializeAssignments(tx.UpdatedTuples)
	if err != nil {
		return store.Transaction{}, err
	}

	return store.Transaction{
		ExpectedTreeID:     tx.ExpectedTreeID,
		HasExpected:        tx.HasExpected,
		TransactionID:      tx.TransactionID,
		CreatedNodes:       createdNodes,
		UpdatedNodes:       updatedNodes,
		CreatedTuples:      createdTuples,
		UpdatedTuples:      updatedTuples,
		DeletedPages:       tx.DeletedPages,
		DeletedNodeHeaders: tx.DeletedNodeHeaders,
		NewRootID:          tx.NewRootID,
		HasNewRoot:         tx.HasNewRoot,
	}, nil
}
