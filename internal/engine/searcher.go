package engine

import (
	"container/heap"
	"math"
	"sort"

	"github.com/mitre/spheretree/id"
)

// SearchResult is one (tuple, distance-to-search-key) pair returned by
// a Searcher.
type SearchResult[K any, V any] struct {
	Tuple    Tuple[K, V]
	Distance float64
}

func (r SearchResult[K, V]) Key() K            { return r.Tuple.Key }
func (r SearchResult[K, V]) Value() V          { return r.Tuple.Value }
func (r SearchResult[K, V]) ID() id.Identifier { return r.Tuple.ID }

// resultHeap is a bounded max-heap on distance: its root is always the
// current worst (furthest) result, so a kNN search can evict it in
// O(log n) the moment a better candidate arrives.
type resultHeap[K any, V any] []SearchResult[K, V]

func (h resultHeap[K, V]) Len() int            { return len(h) }
func (h resultHeap[K, V]) Less(i, j int) bool  { return h[i].Distance > h[j].Distance }
func (h resultHeap[K, V]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap[K, V]) Push(x any)         { *h = append(*h, x.(SearchResult[K, V])) }
func (h *resultHeap[K, V]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// SearchResults is the sorted (nearest-first) output of a search.
type SearchResults[K any, V any] struct {
	searchKey K
	results   []SearchResult[K, V]
}

func newSearchResults[K any, V any](searchKey K, unsorted []SearchResult[K, V]) SearchResults[K, V] {
	sorted := make([]SearchResult[K, V], len(unsorted))
	copy(sorted, unsorted)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Distance < sorted[j].Distance })
	return SearchResults[K, V]{searchKey: searchKey, results: sorted}
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

type searchKind int

const (
	kNearestNeighbors searchKind = iota
	rangeSearch
)

// search is a one-shot, explicit-stack tree descent that collects the
// tuples nearest the search key (kNN) or within a fixed radius
// (range). It never recurses, so it cannot overflow the call stack
// regardless of tree depth.
type search[K any, V any] struct {
	kind          searchKind
	searchKey     K
	maxNumResults int
	fixedRadius   float64

	tree     *view[K, V]
	distance func(a, b K) float64

	queue resultHeap[K, V]
	done  bool
}

func newKNNSearch[K any, V any](searchKey K, k int, tree *view[K, V], distance func(a, b K) float64) *search[K, V] {
	return &search[K, V]{
		kind:          kNearestNeighbors,
		searchKey:     searchKey,
		maxNumResults: k,
		fixedRadius:   math.Inf(1),
		tree:          tree,
		distance:      distance,
	}
}

func newRangeSearch[K any, V any](searchKey K, radius float64, tree *view[K, V], distance func(a, b K) float64) *search[K, V] {
	return &search[K, V]{
		kind:          rangeSearch,
		searchKey:     searchKey,
		maxNumResults: math.MaxInt,
		fixedRadius:   radius,
		tree:          tree,
		distance:      distance,
	}
}

// executeQuery runs the search exactly once; later calls are no-ops.
func (s *search[K, V]) executeQuery() {
	if s.done {
		return
	}

	if s.tree.Empty() {
		s.done = true
		return
	}
	root := s.tree.RootNode()

	stack := []NodeHeader[K]{root}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !s.overlapsWith(current) {
			continue
		}

		if current.IsLeafNode() {
			page, ok := s.tree.DataPageAt(current.ID)
			if ok {
				s.ingestLeafTuples(page.Tuples)
			}
			continue
		}

		children := s.tree.NodesBelow(current.ID)
		sort.Slice(children, func(i, j int) bool {
			// Worst (furthest) first, so it gets pushed first and
			// popped last — the closest child is explored first.
			return s.distance(s.searchKey, children[i].Center) > s.distance(s.searchKey, children[j].Center)
		})
		stack = append(stack, children...)
	}

	s.done = true
}

func (s *search[K, V]) ingestLeafTuples(tuples []Tuple[K, V]) {
	for _, tuple := range tuples {
		d := s.distance(s.searchKey, tuple.Key)
		if d > s.radius() {
			continue
		}
		heap.Push(&s.queue, SearchResult[K, V]{Tuple: tuple, Distance: d})
		for s.queue.Len() > s.maxNumResults {
			heap.Pop(&s.queue)
		}
	}
}

func (s *search[K, V]) overlapsWith(node NodeHeader[K]) bool {
	d := s.distance(node.Center, s.searchKey)
	overlap := node.Radius + s.radius() - d
	return overlap >= 0
}

// radius is the distance a candidate must beat to be worth exploring
// further: infinite until kNN has found k results, the worst result's
// distance once it has, or the fixed range radius for a range search.
func (s *search[K, V]) radius() float64 {
	if s.kind == kNearestNeighbors {
		if s.queue.Len() < s.maxNumResults {
			return math.Inf(1)
		}
		return s.queue[0].Distance
	}
	return s.fixedRadius
}

func (s *search[K, V]) results() SearchResults[K, V] {
	return newSearchResults(s.searchKey, []SearchResult[K, V](s.queue))
}

// Searcher is the convenient, package-internal launch point for tree
// searches.
type Searcher[K any, V any] struct {
	tree     *view[K, V]
	distance func(a, b K) float64
}

func newSearcher[K any, V any](tree *view[K, V], distance func(a, b K) float64) *Searcher[K, V] {
	return &Searcher[K, V]{tree: tree, distance: distance}
}

// GetClosest is a kNN search with k=1.
func (s *Searcher[K, V]) GetClosest(searchKey K) SearchResults[K, V] {
	return s.GetNClosest(searchKey, 1)
}

// GetNClosest runs a kNN search for the k tuples nearest searchKey.
func (s *Searcher[K, V]) GetNClosest(searchKey K, k int) SearchResults[K, V] {
	if k < 1 {
		panic("engine: k must be at least 1")
	}
	q := newKNNSearch(searchKey, k, s.tree, s.distance)
	q.executeQuery()
	return q.results()
}

// GetAllWithinRange runs a range search for every tuple within range
// of searchKey.
func (s *Searcher[K, V]) GetAllWithinRange(searchKey K, searchRadius float64) SearchResults[K, V] {
	if searchRadius <= 0 {
		panic("engine: range must be strictly positive")
	}
	q := newRangeSearch(searchKey, searchRadius, s.tree, s.distance)
	q.executeQuery()
	return q.results()
}
