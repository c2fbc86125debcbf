package engine

import "github.com/mitre/spheretree/metric"

// RepackingMode controls how many DataPages are proactively rebuilt as
// the tree grows.
type RepackingMode int

const (
	// RepackingNone performs no proactive repacking; best when the
	// distance metric is expensive.
	RepackingNone RepackingMode = iota
	// RepackingIncrementalLN repacks floor(ln(leafCount))+1 of the
	// oldest leaves per batch; best for trees that will see heavy
	// read traffic.
	RepackingIncrementalLN
)

func (m RepackingMode) String() string {
	switch m {
	case RepackingNone:
		return "NONE"
	case RepackingIncrementalLN:
		return "INCREMENTAL_LN"
	default:
		return "unknown"
	}
}

// Config is the subset of tree configuration the engine needs to
// enforce shape invariants and drive splitting/repacking. The façade's
// Config (root package) owns codecs, the DataStore, and read/write
// mode; it builds one of these for the engine.
type Config[K any] struct {
	BranchingFactor  int
	MaxTuplesPerPage int
	RepackingMode    RepackingMode
	Distance         *metric.Counting[K]
}
