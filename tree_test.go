package spheretree

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/mitre/spheretree/codec"
	"github.com/mitre/spheretree/errs"
)

func euclidean2D(a, b []float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return math.Sqrt(dx*dx + dy*dy)
}

func randomPoint(rng *rand.Rand) []float64 {
	return []float64{rng.Float64() * 100, rng.Float64() * 100}
}

func newTestTree(t *testing.T, opts ...Option[[]float64, string]) *Tree[[]float64, string] {
	t.Helper()
	base := []Option[[]float64, string]{
		WithDistanceMetric[[]float64, string](euclidean2D),
		WithKeyCodec[[]float64, string](codec.Float64VectorCodec{}),
		WithValueCodec[[]float64, string](codec.StringCodec{}),
	}
	tree, err := NewTree(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	return tree
}

func tuplesOf(points []([]float64)) []Tuple[[]float64, string] {
	out := make([]Tuple[[]float64, string], len(points))
	for i, p := range points {
		out[i] = NewTuple(p, "")
	}
	return out
}

// S1: never-split root.
func TestNeverSplitRoot(t *testing.T) {
	tree := newTestTree(t, WithMaxTuplesPerPage[[]float64, string](64))

	rng := rand.New(rand.NewSource(1))
	var points [][]float64
	for i := 0; i < 10; i++ {
		points = append(points, randomPoint(rng))
	}

	if err := tree.AddBatch(NewBatch(tuplesOf(points))); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	stats, err := tree.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.NumInnerNodes != 1 || stats.NumLeafNodes != 1 || stats.NumTuples != 10 {
		t.Errorf("got %+v, want {inner:1 leaf:1 tuples:10}", stats)
	}
}

// S2: leaf split.
func TestLeafSplit(t *testing.T) {
	tree := newTestTree(t, WithMaxTuplesPerPage[[]float64, string](8))

	rng := rand.New(rand.NewSource(2))
	var points [][]float64
	for i := 0; i < 9; i++ {
		points = append(points, randomPoint(rng))
	}

	if err := tree.AddBatch(NewBatch(tuplesOf(points))); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	stats, err := tree.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.NumInnerNodes != 1 || stats.NumLeafNodes != 2 || stats.NumTuples != 9 {
		t.Errorf("got %+v, want {inner:1 leaf:2 tuples:9}", stats)
	}
}

// S3: inner split.
func TestInnerSplit(t *testing.T) {
	tree := newTestTree(t,
		WithMaxTuplesPerPage[[]float64, string](5),
		WithBranchingFactor[[]float64, string](3),
	)

	rng := rand.New(rand.NewSource(3))
	var points [][]float64
	for i := 0; i < 19; i++ {
		points = append(points, randomPoint(rng))
	}

	if err := tree.AddBatch(NewBatch(tuplesOf(points))); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	stats, err := tree.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.NumTuples != 19 {
		t.Fatalf("got %d tuples, want 19", stats.NumTuples)
	}
	if stats.NumInnerNodes < 2 {
		t.Errorf("expected at least one inner split (NumInnerNodes >= 2), got %+v", stats)
	}
}

// S6: kNN correctness against a brute-force scan.
func TestKNNMatchesBruteForce(t *testing.T) {
	tree := newTestTree(t, WithMaxTuplesPerPage[[]float64, string](50))

	rng := rand.New(rand.NewSource(6))
	var points [][]float64
	for i := 0; i < 1000; i++ {
		points = append(points, randomPoint(rng))
	}
	if err := tree.AddBatch(NewBatch(tuplesOf(points))); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	for i := 0; i < 10; i++ {
		probe := randomPoint(rng)

		wantDistances := make([]float64, len(points))
		for j, p := range points {
			wantDistances[j] = euclidean2D(probe, p)
		}
		sort.Float64s(wantDistances)

		got, err := tree.KNNSearch(probe, 4)
		if err != nil {
			t.Fatalf("KNNSearch: %v", err)
		}
		if got.Size() != 4 {
			t.Fatalf("got %d results, want 4", got.Size())
		}
		for k, d := range got.Distances() {
			if math.Abs(d-wantDistances[k]) > 1e-9 {
				t.Errorf("probe %d result %d: got distance %v, want %v", i, k, d, wantDistances[k])
			}
		}
	}
}

// S7: concurrent modification detection.
func TestIteratorDetectsConcurrentModification(t *testing.T) {
	tree := newTestTree(t, WithMaxTuplesPerPage[[]float64, string](5))

	rng := rand.New(rand.NewSource(7))
	var points [][]float64
	for i := 0; i < 20; i++ {
		points = append(points, randomPoint(rng))
	}
	if err := tree.AddBatch(NewBatch(tuplesOf(points))); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	it, err := tree.Iterator(true)
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	if !it.HasNext() {
		t.Fatalf("expected at least one page")
	}
	it.Next()

	if err := tree.AddBatch(NewBatch(tuplesOf([][]float64{randomPoint(rng)}))); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic on concurrent modification")
		}
		if _, ok := r.(*ConcurrentModificationError); !ok {
			t.Fatalf("got panic %T, want *ConcurrentModificationError", r)
		}
	}()
	it.Next()
}

func TestNewTreeRejectsBadConfig(t *testing.T) {
	_, err := NewTree(
		WithDistanceMetric[[]float64, string](euclidean2D),
		WithKeyCodec[[]float64, string](codec.Float64VectorCodec{}),
		WithValueCodec[[]float64, string](codec.StringCodec{}),
		WithBranchingFactor[[]float64, string](1),
	)
	if err == nil {
		t.Fatalf("expected error for branching_factor < 2")
	}
	var treeErr *errs.TreeError
	if !errors.As(err, &treeErr) || treeErr.Kind != errs.Misuse {
		t.Errorf("got %v, want a misuse TreeError", err)
	}
}

func TestNewTreeRequiresDistanceMetric(t *testing.T) {
	_, err := NewTree(
		WithKeyCodec[[]float64, string](codec.Float64VectorCodec{}),
		WithValueCodec[[]float64, string](codec.StringCodec{}),
	)
	if err == nil {
		t.Fatalf("expected error for missing distance metric")
	}
}

func TestReadOnlyTreeRejectsWrites(t *testing.T) {
	tree := newTestTree(t, WithReadWriteMode[[]float64, string](ReadOnly))

	err := tree.AddBatch(NewBatch([]Tuple[[]float64, string]{NewTuple([]float64{1, 2}, "x")}))
	if err == nil {
		t.Fatalf("expected error adding to a READ_ONLY tree")
	}
	var treeErr *errs.TreeError
	if !errors.As(err, &treeErr) || treeErr.Kind != errs.ModeViolation {
		t.Errorf("got %v, want a mode-violation TreeError", err)
	}
}

func TestWriteOnlyTreeRejectsSearch(t *testing.T) {
	tree := newTestTree(t, WithReadWriteMode[[]float64, string](WriteOnly))

	if err := tree.AddBatch(NewBatch([]Tuple[[]float64, string]{NewTuple([]float64{1, 2}, "x")})); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	_, err := tree.KNNSearch([]float64{1, 2}, 1)
	if err == nil {
		t.Fatalf("expected error searching a WRITE_ONLY tree")
	}
}

func TestBatchifyHelpers(t *testing.T) {
	keys := []string{"a", "b", "c", "d", "e"}
	values := []int{1, 2, 3, 4, 5}

	batches := BatchifyKeysValues(keys, values, 2)
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	total := 0
	for _, b := range batches {
		total += b.Size()
	}
	if total != 5 {
		t.Errorf("got %d total tuples across batches, want 5", total)
	}
}

func TestBatchAccumulatorDrain(t *testing.T) {
	acc := NewBatchAccumulator[string, int]()
	acc.Add(NewTuple("a", 1))
	acc.Add(NewTuple("b", 2))

	if got := acc.CurrentSize(); got != 2 {
		t.Fatalf("got %d queued, want 2", got)
	}

	batch := acc.Drain()
	if batch.Size() != 2 {
		t.Errorf("got %d tuples in drained batch, want 2", batch.Size())
	}
	if got := acc.CurrentSize(); got != 0 {
		t.Errorf("expected empty queue after drain, got %d", got)
	}
}
