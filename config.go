package spheretree

import (
	"github.com/mitre/spheretree/codec"
	"github.com/mitre/spheretree/metric"
	"github.com/mitre/spheretree/store"
)

// ReadWriteMode restricts which operations a Tree permits, enforced by
// the façade rather than the engine.
type ReadWriteMode int

const (
	ReadAndWrite ReadWriteMode = iota
	ReadOnly
	WriteOnly
)

func (m ReadWriteMode) String() string {
	switch m {
	case ReadOnly:
		return "READ_ONLY"
	case WriteOnly:
		return "WRITE_ONLY"
	default:
		return "READ_AND_WRITE"
	}
}

// RepackingMode controls how many DataPages are proactively rebuilt as
// the tree grows, mirroring the engine's internal policy of the same
// name — redeclared here so callers outside this module can name it.
type RepackingMode int

const (
	// RepackingNone performs no proactive repacking.
	RepackingNone RepackingMode = iota
	// RepackingIncrementalLN repacks floor(ln(leafCount))+1 of the
	// oldest leaves per batch.
	RepackingIncrementalLN
)

func (m RepackingMode) String() string {
	switch m {
	case RepackingIncrementalLN:
		return "INCREMENTAL_LN"
	default:
		return "NONE"
	}
}

// config is the fully-resolved set of options a Tree is built from.
type config[K any, V any] struct {
	branchingFactor  int
	maxTuplesPerPage int
	repackingMode    RepackingMode
	readWriteMode    ReadWriteMode
	distance         metric.Distance[K]
	keyCodec         codec.Codec[K]
	valueCodec       codec.Codec[V]
	dataStore        store.DataStore
	seed             int64
}

func defaultConfig[K any, V any]() config[K, V] {
	return config[K, V]{
		branchingFactor:  64,
		maxTuplesPerPage: 50,
		repackingMode:    RepackingNone,
		readWriteMode:    ReadAndWrite,
		dataStore:        store.NewMemoryStore(),
		seed:             metric.Seed(),
	}
}

// Option configures a Tree at construction time.
type Option[K any, V any] func(*config[K, V])

// WithBranchingFactor sets the maximum number of children an inner
// node may hold before it is split. Must be at least 2.
func WithBranchingFactor[K any, V any](n int) Option[K, V] {
	return func(c *config[K, V]) { c.branchingFactor = n }
}

// WithMaxTuplesPerPage sets the maximum number of tuples a leaf may
// hold before it is split. Must be at least 5.
func WithMaxTuplesPerPage[K any, V any](n int) Option[K, V] {
	return func(c *config[K, V]) { c.maxTuplesPerPage = n }
}

// WithRepackingMode selects the incremental rebalancing policy applied
// after every batch.
func WithRepackingMode[K any, V any](mode RepackingMode) Option[K, V] {
	return func(c *config[K, V]) { c.repackingMode = mode }
}

// WithReadWriteMode restricts which of the Tree's operations are
// permitted.
func WithReadWriteMode[K any, V any](mode ReadWriteMode) Option[K, V] {
	return func(c *config[K, V]) { c.readWriteMode = mode }
}

// WithDistanceMetric supplies the metric the tree organizes itself
// around. Required; without one NewTree returns a misuse error.
func WithDistanceMetric[K any, V any](d metric.Distance[K]) Option[K, V] {
	return func(c *config[K, V]) { c.distance = d }
}

// WithKeyCodec supplies the codec converting K to and from the bytes
// the DataStore persists. Required.
func WithKeyCodec[K any, V any](c2 codec.Codec[K]) Option[K, V] {
	return func(c *config[K, V]) { c.keyCodec = c2 }
}

// WithValueCodec supplies the codec converting V to and from the bytes
// the DataStore persists. Required.
func WithValueCodec[K any, V any](c2 codec.Codec[V]) Option[K, V] {
	return func(c *config[K, V]) { c.valueCodec = c2 }
}

// WithDataStore supplies the byte-level backend. Defaults to a fresh
// store.MemoryStore when omitted.
func WithDataStore[K any, V any](ds store.DataStore) Option[K, V] {
	return func(c *config[K, V]) { c.dataStore = ds }
}

// WithSeed fixes the Splitter's center-selection RNG seed, overriding
// the SPHERETREE_SEED / wall-clock default, for reproducible builds.
func WithSeed[K any, V any](seed int64) Option[K, V] {
	return func(c *config[K, V]) { c.seed = seed }
}

func (c config[K, V]) validate() error {
	if c.branchingFactor < 2 {
		return misuseErrf("branching_factor must be >= 2, got %d", c.branchingFactor)
	}
	if c.maxTuplesPerPage < 5 {
		return misuseErrf("max_tuples_per_page must be >= 5, got %d", c.maxTuplesPerPage)
	}
	if c.distance == nil {
		return misuseErrf("a distance metric is required (WithDistanceMetric)")
	}
	if c.keyCodec == nil {
		return misuseErrf("a key codec is required (WithKeyCodec)")
	}
	if c.valueCodec == nil {
		return misuseErrf("a value codec is required (WithValueCodec)")
	}
	if c.dataStore == nil {
		return misuseErrf("a data store is required (WithDataStore)")
	}
	return nil
}
