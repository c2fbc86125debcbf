package spheretree

import (
	"fmt"

	"github.com/schollz/progressbar/v3"

	"github.com/mitre/spheretree/internal/engine"
	"github.com/mitre/spheretree/metric"
)

// Tree is the durable, metric-space similarity index façade: the
// public surface a caller drives (add data, search, inspect shape),
// backed by a private engine that owns the actual ball-tree logic.
type Tree[K any, V any] struct {
	engine        *engine.Engine[K, V]
	readWriteMode ReadWriteMode
}

// NewTree builds a Tree from opts. WithDistanceMetric, WithKeyCodec,
// and WithValueCodec are required; every other option has a default
// (see WithBranchingFactor, WithMaxTuplesPerPage, WithRepackingMode,
// WithReadWriteMode, WithDataStore, WithSeed).
func NewTree[K any, V any](opts ...Option[K, V]) (*Tree[K, V], error) {
	c := defaultConfig[K, V]()
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	log.Info().
		Int("branchingFactor", c.branchingFactor).
		Int("maxTuplesPerPage", c.maxTuplesPerPage).
		Stringer("repackingMode", c.repackingMode).
		Stringer("readWriteMode", c.readWriteMode).
		Msg("spheretree: configuring tree")

	counting := metric.NewCounting(c.distance)
	engineConfig := engine.Config[K]{
		BranchingFactor:  c.branchingFactor,
		MaxTuplesPerPage: c.maxTuplesPerPage,
		RepackingMode:    engine.RepackingMode(c.repackingMode),
		Distance:         counting,
	}

	return &Tree[K, V]{
		engine:        engine.New[K, V](c.dataStore, c.keyCodec, c.valueCodec, engineConfig, c.seed),
		readWriteMode: c.readWriteMode,
	}, nil
}

func (t *Tree[K, V]) requireWritable() error {
	if t.readWriteMode == ReadOnly {
		return modeViolationErrf("spheretree: tree is configured READ_ONLY")
	}
	return nil
}

func (t *Tree[K, V]) requireReadable() error {
	if t.readWriteMode == WriteOnly {
		return modeViolationErrf("spheretree: tree is configured WRITE_ONLY")
	}
	return nil
}

// AddBatch folds batch's tuples into the tree as one atomic
// transaction. Fails with a ConcurrentModification-kind error if
// another writer committed since this Tree last observed the backend.
func (t *Tree[K, V]) AddBatch(batch Batch[K, V]) error {
	if err := t.requireWritable(); err != nil {
		return err
	}
	log.Info().Int("size", batch.Size()).Msg("spheretree: adding batch")
	return t.engine.AddBatch(batch.inner)
}

// AddBatches adds every batch in order, stopping at the first error.
// When given more than one batch it reports progress, since bulk loads
// are the long-running case a caller benefits from watching.
func (t *Tree[K, V]) AddBatches(batches []Batch[K, V]) error {
	if err := t.requireWritable(); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if len(batches) > 1 {
		bar = progressbar.NewOptions(len(batches),
			progressbar.OptionSetDescription("adding batches"),
			progressbar.OptionOnCompletion(func() { fmt.Print("\n") }),
		)
	}

	for _, batch := range batches {
		if err := t.AddBatch(batch); err != nil {
			return err
		}
		if bar != nil {
			if err := bar.Add(1); err != nil {
				return err
			}
		}
	}
	return nil
}

// RepackTree fully rebalances the tree by rebuilding every leaf but
// the two newest. Shows an indeterminate progress spinner while the
// repack runs, since a full repack walks every leaf in the tree.
func (t *Tree[K, V]) RepackTree() error {
	if err := t.requireWritable(); err != nil {
		return err
	}

	statsBefore := t.engine.Stats()
	log.Info().Int("leafNodes", statsBefore.NumLeafNodes).Msg("spheretree: repacking tree")

	// Repacking is one atomic transaction computed and applied in a
	// single call, so there is no per-leaf progress to report; a
	// spinner (unknown length) still gives a caller feedback that the
	// rebuild is underway, the way the teacher's bulk operations do.
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("repacking"),
		progressbar.OptionOnCompletion(func() { fmt.Print("\n") }),
	)
	defer bar.Finish()

	return t.engine.RepackTree()
}

// Closest is a kNN search for the single nearest tuple.
func (t *Tree[K, V]) Closest(probe K) (SearchResults[K, V], error) {
	return t.KNNSearch(probe, 1)
}

// KNNSearch returns the k tuples nearest probe, ordered by ascending
// distance.
func (t *Tree[K, V]) KNNSearch(probe K, k int) (SearchResults[K, V], error) {
	if err := t.requireReadable(); err != nil {
		return SearchResults[K, V]{}, err
	}
	if k < 1 {
		return SearchResults[K, V]{}, misuseErrf("spheretree: k must be at least 1, got %d", k)
	}
	results := t.engine.Searcher().GetNClosest(probe, k)
	return newSearchResults(results), nil
}

// RangeSearch returns every tuple within radius of probe, ordered by
// ascending distance.
func (t *Tree[K, V]) RangeSearch(probe K, radius float64) (SearchResults[K, V], error) {
	if err := t.requireReadable(); err != nil {
		return SearchResults[K, V]{}, err
	}
	if radius <= 0 {
		return SearchResults[K, V]{}, misuseErrf("spheretree: radius must be strictly positive, got %v", radius)
	}
	results := t.engine.Searcher().GetAllWithinRange(probe, radius)
	return newSearchResults(results), nil
}

// Stats walks the tree once and summarizes its size and shape.
func (t *Tree[K, V]) Stats() (Stats, error) {
	if err := t.requireReadable(); err != nil {
		return Stats{}, err
	}
	return Stats(t.engine.Stats()), nil
}

// Iterator returns an Iterator over every DataPage in the tree.
// preventMutation=true (the strict default most callers want) panics
// on Next if the tree changed underneath the iterator; false tolerates
// it.
func (t *Tree[K, V]) Iterator(preventMutation bool) (*Iterator[K, V], error) {
	if err := t.requireReadable(); err != nil {
		return nil, err
	}
	return &Iterator[K, V]{inner: t.engine.Iterator(preventMutation)}, nil
}

// DistanceMetricExecutionCount reports how many times the configured
// distance metric has been invoked so far.
func (t *Tree[K, V]) DistanceMetricExecutionCount() int64 {
	return t.engine.DistanceMetricExecutionCount()
}

// Empty reports whether the tree holds no tuples yet.
func (t *Tree[K, V]) Empty() bool {
	return t.engine.Empty()
}
