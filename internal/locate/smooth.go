package locate

import "math"

// Smooth blends a fresh estimate with the previously stored one:
// alpha*next + (1-alpha)*prev, componentwise over next's dimension.
// A missing or partially unset prior returns next unchanged.
func Smooth(prev, next Vec, alpha float64) Vec {
	if len(prev) < len(next) || !prev[:len(next)].Finite() {
		return next.Clone()
	}
	if math.IsNaN(alpha) {
		alpha = DefaultSmoothingAlpha
	}
	alpha = math.Max(0, math.Min(1, alpha))

	out := make(Vec, len(next))
	for i := range next {
		out[i] = prev[i] + alpha*(next[i]-prev[i])
	}
	return out
}
