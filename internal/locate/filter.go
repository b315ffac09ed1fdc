package locate

import "math"

// FilterObservations drops pairs whose distance is outside (0, maxDistance)
// or whose position has a non-finite coordinate. Surviving pairs keep their
// order; the third return value holds their indices in the input.
// An empty result means insufficient data, not an error.
func FilterObservations(positions []Vec, distances []float64, maxDistance float64) ([]Vec, []float64, []int) {
	if !(maxDistance > 0) {
		maxDistance = DefaultMaxDistance
	}
	n := len(positions)
	if len(distances) < n {
		n = len(distances)
	}

	var (
		keptPos  []Vec
		keptDist []float64
		keptIdx  []int
	)
	for i := 0; i < n; i++ {
		d := distances[i]
		if math.IsNaN(d) || d <= 0 || d >= maxDistance {
			continue
		}
		if len(positions[i]) == 0 || !positions[i].Finite() {
			continue
		}
		keptPos = append(keptPos, positions[i])
		keptDist = append(keptDist, d)
		keptIdx = append(keptIdx, i)
	}
	return keptPos, keptDist, keptIdx
}
