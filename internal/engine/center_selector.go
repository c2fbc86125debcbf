package engine

import "math/rand"

// CenterSelector picks the keys used as center points when a node is
// split into two. It returns exactly two keys drawn from keys.
type CenterSelector[K any] interface {
	SelectCenterPoints(keys []K, distance func(a, b K) float64) [2]K
}

// maxOfRandomSamples draws sqrt(len(keys)) random (unordered, distinct
// index) pairs and keeps whichever pair is farthest apart under
// distance. The resulting pair tends to produce two child spheres
// whose volumes overlap as little as possible.
type maxOfRandomSamples[K any] struct {
	rng *rand.Rand
}

// NewCenterSelector returns the default CenterSelector, seeded from the
// given source so repeated runs are reproducible via SPHERETREE_SEED.
func NewCenterSelector[K any](seed int64) CenterSelector[K] {
	return &maxOfRandomSamples[K]{rng: rand.New(rand.NewSource(seed))}
}

func (s *maxOfRandomSamples[K]) SelectCenterPoints(keys []K, distance func(a, b K) float64) [2]K {
	if len(keys) < 2 {
		panic("engine: SelectCenterPoints requires at least 2 keys")
	}

	numPairsToDraw := isqrt(len(keys))

	best := s.randomPair(keys)
	bestDistance := distance(best[0], best[1])
	numPairsToDraw--

	for i := 0; i < numPairsToDraw; i++ {
		pair := s.randomPair(keys)
		d := distance(pair[0], pair[1])
		if d > bestDistance {
			best = pair
			bestDistance = d
		}
	}

	return best
}

func (s *maxOfRandomSamples[K]) randomPair(keys []K) [2]K {
	n := len(keys)
	i1 := s.rng.Intn(n)
	i2 := s.rng.Intn(n)
	for i1 == i2 {
		i2 = s.rng.Intn(n)
	}
	return [2]K{keys[i1], keys[i2]}
}

func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	x := 1
	for x*x <= n {
		x++
	}
	return x - 1
}
