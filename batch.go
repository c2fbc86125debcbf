package spheretree

import (
	"sync"

	"github.com/mitre/spheretree/codec"
	"github.com/mitre/spheretree/id"
	"github.com/mitre/spheretree/internal/engine"
)

// Tuple is one (key, value) pair of user data.
type Tuple[K any, V any] struct {
	ID    id.Identifier
	Key   K
	Value V
}

// NewTuple stamps a fresh id onto (key, value).
func NewTuple[K any, V any](key K, value V) Tuple[K, V] {
	return Tuple[K, V]{ID: id.New(), Key: key, Value: value}
}

func (t Tuple[K, V]) toEngine() engine.Tuple[K, V] {
	return engine.Tuple[K, V]{ID: t.ID, Key: t.Key, Value: t.Value}
}

// Batch is a collection of tuples that will become a single atomic
// Transaction when added to a Tree.
type Batch[K any, V any] struct {
	inner engine.Batch[K, V]
}

// NewBatch stamps a fresh batch id over tuples.
func NewBatch[K any, V any](tuples []Tuple[K, V]) Batch[K, V] {
	converted := make([]engine.Tuple[K, V], len(tuples))
	for i, t := range tuples {
		converted[i] = t.toEngine()
	}
	return Batch[K, V]{inner: engine.NewBatch(converted)}
}

// ID returns the batch's id, capturing its creation time.
func (b Batch[K, V]) ID() id.Identifier { return b.inner.ID }

// Size returns the number of tuples in the batch.
func (b Batch[K, V]) Size() int { return b.inner.Size() }

// BatchAccumulator buffers incoming tuples for later bulk commit,
// turning many single-tuple adds into one efficient batch write.
type BatchAccumulator[K any, V any] struct {
	mu    sync.Mutex
	queue []Tuple[K, V]
}

// NewBatchAccumulator returns an empty accumulator.
func NewBatchAccumulator[K any, V any]() *BatchAccumulator[K, V] {
	return &BatchAccumulator[K, V]{}
}

// Add appends tuple to the accumulator's queue.
func (a *BatchAccumulator[K, V]) Add(tuple Tuple[K, V]) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queue = append(a.queue, tuple)
}

// CurrentSize reports how many tuples are queued.
func (a *BatchAccumulator[K, V]) CurrentSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

// Drain atomically moves every queued tuple into a fresh Batch and
// clears the queue.
func (a *BatchAccumulator[K, V]) Drain() Batch[K, V] {
	a.mu.Lock()
	defer a.mu.Unlock()
	drained := a.queue
	a.queue = nil
	return NewBatch(drained)
}

// Batchify splits tuples into batches of at most batchSize, preserving
// order.
func Batchify[K any, V any](tuples []Tuple[K, V], batchSize int) []Batch[K, V] {
	if batchSize < 1 {
		panic("spheretree: batchSize must be at least 1")
	}
	var out []Batch[K, V]
	for i := 0; i < len(tuples); i += batchSize {
		end := i + batchSize
		if end > len(tuples) {
			end = len(tuples)
		}
		out = append(out, NewBatch(tuples[i:end]))
	}
	return out
}

// BatchifyMap converts a map into batches, pairing each key with its
// value as a fresh Tuple. Iteration order over a Go map is randomized,
// so callers who need reproducible batch contents should use Batchify
// with an explicitly ordered slice instead.
func BatchifyMap[K comparable, V any](data map[K]V, batchSize int) []Batch[K, V] {
	tuples := make([]Tuple[K, V], 0, len(data))
	for k, v := range data {
		tuples = append(tuples, NewTuple(k, v))
	}
	return Batchify(tuples, batchSize)
}

// BatchifyKeysValues zips parallel keys/values slices into batches. The
// two slices must be the same length.
func BatchifyKeysValues[K any, V any](keys []K, values []V, batchSize int) []Batch[K, V] {
	if len(keys) != len(values) {
		panic("spheretree: keys and values must be the same length")
	}
	tuples := make([]Tuple[K, V], len(keys))
	for i := range keys {
		tuples[i] = NewTuple(keys[i], values[i])
	}
	return Batchify(tuples, batchSize)
}

// BatchifyKeys splits keys into batches of Tuple[K, codec.Void], for
// trees used as sets rather than maps.
func BatchifyKeys[K any](keys []K, batchSize int) []Batch[K, codec.Void] {
	tuples := make([]Tuple[K, codec.Void], len(keys))
	for i, k := range keys {
		tuples[i] = NewTuple(k, codec.Void{})
	}
	return Batchify(tuples, batchSize)
}
