package engine

import "math"

// computeRadius returns the radius of the smallest sphere centered at
// center that contains every key in otherKeys.
func computeRadius[K any](distance func(a, b K) float64, center K, otherKeys []K) float64 {
	radius := 0.0
	for _, k := range otherKeys {
		radius = math.Max(radius, distance(k, center))
	}
	return radius
}

// estimateInnerNodeRadius upper-bounds the radius a new inner node
// would need, given its center and its would-be children, without
// touching any tuple in those children's subtrees. This very likely
// overestimates the true radius, but leaf radii are always exact, so
// the overestimate is confined to inner nodes.
func estimateInnerNodeRadius[K any](distance func(a, b K) float64, center K, children []NodeHeader[K]) float64 {
	radius := 0.0
	for _, child := range children {
		centerToCenter := distance(center, child.Center)
		radius = math.Max(radius, centerToCenter+child.Radius)
	}
	return radius
}
