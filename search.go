package spheretree

import (
	"github.com/mitre/spheretree/id"
	"github.com/mitre/spheretree/internal/engine"
)

// SearchResult is one (tuple, distance-to-probe) pair returned by a
// search.
type SearchResult[K any, V any] struct {
	Tuple    Tuple[K, V]
	Distance float64
}

func (r SearchResult[K, V]) Key() K            { return r.Tuple.Key }
func (r SearchResult[K, V]) Value() V          { return r.Tuple.Value }
func (r SearchResult[K, V]) ID() id.Identifier { return r.Tuple.ID }

// SearchResults is the sorted (nearest-first) output of a Tree search.
type SearchResults[K any, V any] struct {
	searchKey K
	results   []SearchResult[K, V]
}

func newSearchResults[K any, V any](r engine.SearchResults[K, V]) SearchResults[K, V] {
	out := make([]SearchResult[K, V], r.Size())
	for i, er := range r.Results() {
		out[i] = SearchResult[K, V]{
			Tuple:    Tuple[K, V]{ID: er.Tuple.ID, Key: er.Tuple.Key, Value: er.Tuple.Value},
			Distance: er.Distance,
		}
	}
	return SearchResults[K, V]{searchKey: r.SearchKey(), results: out}
}

func (r SearchResults[K, V]) SearchKey() K  { return r.searchKey }
func (r SearchResults[K, V]) IsEmpty() bool { return len(r.results) == 0 }
func (r SearchResults[K, V]) Size() int     { return len(r.results) }

// Results returns every result, nearest first.
func (r SearchResults[K, V]) Results() []SearchResult[K, V] {
	return r.results
}

// Result cherry-picks the i-th closest result (0 = nearest).
func (r SearchResults[K, V]) Result(i int) SearchResult[K, V] {
	return r.results[i]
}

func (r SearchResults[K, V]) Tuples() []Tuple[K, V] {
	out := make([]Tuple[K, V], len(r.results))
	for i, res := range r.results {
		out[i] = res.Tuple
	}
	return out
}

func (r SearchResults[K, V]) Keys() []K {
	out := make([]K, len(r.results))
	for i, res := range r.results {
		out[i] = res.Key()
	}
	return out
}

func (r SearchResults[K, V]) Values() []V {
	out := make([]V, len(r.results))
	for i, res := range r.results {
		out[i] = res.Value()
	}
	return out
}

func (r SearchResults[K, V]) Distances() []float64 {
	out := make([]float64, len(r.results))
	for i, res := range r.results {
		out[i] = res.Distance
	}
	return out
}
