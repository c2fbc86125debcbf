package engine

import (
	"github.com/mitre/spheretree/codec"
	"github.com/mitre/spheretree/errs"
	"github.com/mitre/spheretree/store"
)

// Engine is the package-private tree engine the root façade wraps. It
// owns the committed-state view, the center-selection policy, and the
// serde pair, and exposes exactly the operations the façade's Tree
// needs: batch ingest, full repack, search, iteration, and stats.
type Engine[K any, V any] struct {
	backend  store.DataStore
	serde    serdePair[K, V]
	config   Config[K]
	selector CenterSelector[K]
}

// New builds an Engine over backend, decoding/encoding keys and values
// with the given codecs according to config. seed feeds the default
// CenterSelector's random source.
func New[K any, V any](backend store.DataStore, keyCodec codec.Codec[K], valueCodec codec.Codec[V], config Config[K], seed int64) *Engine[K, V] {
	return &Engine[K, V]{
		backend:  backend,
		serde:    newSerdePair[K, V](keyCodec, valueCodec),
		config:   config,
		selector: NewCenterSelector[K](seed),
	}
}

func (e *Engine[K, V]) view() *view[K, V] {
	return newView[K, V](e.backend, e.serde, e.config)
}

// AddBatch folds batch's tuples into the tree and applies the
// resulting transaction to the backend. Fails with
// errs.ConcurrentModification if the backend changed since the batch's
// builder snapshotted it.
func (e *Engine[K, V]) AddBatch(batch Batch[K, V]) error {
	builder := newTransactionBuilder[K, V](e.view(), e.config, e.selector, &batch)
	tx := builder.ComputeTransaction()
	return e.commit(tx)
}

// RepackTree rebuilds every leaf but the two newest, fully rebalancing
// the tree without ingesting new data.
func (e *Engine[K, V]) RepackTree() error {
	builder := newTransactionBuilder[K, V](e.view(), e.config, e.selector, nil)
	tx := builder.ComputeTransaction()
	return e.commit(tx)
}

func (e *Engine[K, V]) commit(tx Transaction[K, V]) error {
	raw, err := e.serde.serializeTransaction(tx)
	if err != nil {
		return errs.Wrap(errs.Backend, "engine: failed to serialize transaction", err)
	}
	if err := e.backend.ApplyTransaction(raw); err != nil {
		return err
	}
	return nil
}

// Searcher returns a Searcher bound to the engine's current committed
// state.
func (e *Engine[K, V]) Searcher() *Searcher[K, V] {
	return newSearcher[K, V](e.view(), e.config.Distance.Distance)
}

// Iterator returns a depth-first iterator over every DataPage.
// preventMutation controls whether Next panics on concurrent
// modification (strict) or silently tolerates it (permissive).
func (e *Engine[K, V]) Iterator(preventMutation bool) *Iterator[K, V] {
	if preventMutation {
		return NewIterator[K, V](e.view())
	}
	return NewPermissiveIterator[K, V](e.view())
}

// Stats walks the tree once and summarizes its size and shape.
func (e *Engine[K, V]) Stats() Stats {
	return computeStats[K, V](e.view())
}

// DistanceMetricExecutionCount reports how many times the configured
// distance metric has been invoked so far.
func (e *Engine[K, V]) DistanceMetricExecutionCount() int64 {
	return e.config.Distance.Count()
}

// Empty reports whether the tree holds no tuples yet.
func (e *Engine[K, V]) Empty() bool {
	return e.view().Empty()
}
