package engine

import "math"

// stub carries enough information to build a NodeHeader and DataPage
// for one side of a split.
type stub[K any, V any] struct {
	center K
	tuples []Tuple[K, V]
	radius float64
}

// splitResult is the two stubs produced by dividing one overflowing
// DataPage's tuples between two new centers.
type splitResult[K any, V any] struct {
	left, right stub[K, V]
}

// splitter selects center points and partitions an overflowing leaf's
// tuples between them.
type splitter[K any, V any] struct {
	distance       func(a, b K) float64
	centerSelector CenterSelector[K]
}

func newSplitter[K any, V any](distance func(a, b K) float64, selector CenterSelector[K]) *splitter[K, V] {
	return &splitter[K, V]{distance: distance, centerSelector: selector}
}

// splitKeys exposes just the center-selection step, for inner-node
// splits where there's no DataPage to partition.
func (s *splitter[K, V]) splitKeys(keys []K) [2]K {
	return s.centerSelector.SelectCenterPoints(keys, s.distance)
}

// carefulSplit divides an overflowing page's tuples by nearest-center,
// computing a tight radius for each side. More costly than
// quickSplit, but the result is immediately tree-legal.
func (s *splitter[K, V]) carefulSplit(overflowing DataPage[K, V]) splitResult[K, V] {
	centers := s.centerSelector.SelectCenterPoints(overflowing.Keys(), s.distance)

	type distInfo struct {
		tuple     Tuple[K, V]
		leftDist  float64
		rightDist float64
	}

	infos := make([]distInfo, len(overflowing.Tuples))
	for i, t := range overflowing.Tuples {
		infos[i] = distInfo{
			tuple:     t,
			leftDist:  s.distance(centers[0], t.Key),
			rightDist: s.distance(centers[1], t.Key),
		}
	}

	var leftTuples, rightTuples []Tuple[K, V]
	var leftRadius, rightRadius float64
	tieBreaker := false

	for _, info := range infos {
		switch {
		case info.leftDist == info.rightDist:
			if tieBreaker {
				leftTuples = append(leftTuples, info.tuple)
				leftRadius = math.Max(leftRadius, info.leftDist)
			} else {
				rightTuples = append(rightTuples, info.tuple)
				rightRadius = math.Max(rightRadius, info.rightDist)
			}
			tieBreaker = !tieBreaker
		case info.leftDist < info.rightDist:
			leftTuples = append(leftTuples, info.tuple)
			leftRadius = math.Max(leftRadius, info.leftDist)
		default:
			rightTuples = append(rightTuples, info.tuple)
			rightRadius = math.Max(rightRadius, info.rightDist)
		}
	}

	return splitResult[K, V]{
		left:  stub[K, V]{center: centers[0], tuples: leftTuples, radius: leftRadius},
		right: stub[K, V]{center: centers[1], tuples: rightTuples, radius: rightRadius},
	}
}

// quickSplit alternates tuples between two new centers without
// measuring distances at all. Only safe to use when the result will
// be repacked immediately afterward (the radii are left at zero, and
// the assignment is not nearest-center), since it temporarily
// violates the "every tuple belongs to its nearest leaf" invariant.
func (s *splitter[K, V]) quickSplit(overflowing DataPage[K, V]) splitResult[K, V] {
	centers := s.centerSelector.SelectCenterPoints(overflowing.Keys(), s.distance)

	var leftTuples, rightTuples []Tuple[K, V]
	tieBreaker := false

	for _, t := range overflowing.Tuples {
		if tieBreaker {
			leftTuples = append(leftTuples, t)
		} else {
			rightTuples = append(rightTuples, t)
		}
		tieBreaker = !tieBreaker
	}

	return splitResult[K, V]{
		left:  stub[K, V]{center: centers[0], tuples: leftTuples, radius: 0},
		right: stub[K, V]{center: centers[1], tuples: rightTuples, radius: 0},
	}
}
