package locate

import "math"

// EstimateAccuracy returns the mean absolute range residual of point against
// the inlier observations. When that figure is undefined or above
// MaxPlausibleAccuracy it falls back to the smallest plausible self-reported
// scan accuracy. The boolean is false when neither source yields a value, in
// which case UnknownAccuracy is returned.
func EstimateAccuracy(point Vec, positions []Vec, distances []float64, scanAccuracies []float64) (float64, bool) {
	if mean, ok := meanResidual(point, positions, distances); ok && mean <= MaxPlausibleAccuracy {
		return mean, true
	}

	best := math.Inf(1)
	for _, a := range scanAccuracies {
		if math.IsNaN(a) || a < 0 || a >= MaxScanAccuracy {
			continue
		}
		best = math.Min(best, a)
	}
	if !math.IsInf(best, 1) {
		return best, true
	}
	return UnknownAccuracy, false
}

func meanResidual(point Vec, positions []Vec, distances []float64) (float64, bool) {
	if len(positions) == 0 || len(positions) != len(distances) || len(point) == 0 || !point.Finite() {
		return 0, false
	}
	var sum float64
	for i, p := range positions {
		if len(p) != len(point) {
			return 0, false
		}
		sum += math.Abs(point.Distance(p) - distances[i])
	}
	mean := sum / float64(len(positions))
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0, false
	}
	return mean, true
}
