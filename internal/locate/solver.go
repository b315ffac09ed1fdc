package locate

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// dampingLambda keeps the normal equations full rank when an observer
	// sits on top of the current estimate.
	dampingLambda = 1e-9
	rankTolerance = 1e-9
	maxHalvings   = 30
)

// Solve finds the point p minimising sum_i w_i * huber(|p - pos_i| - dist_i)
// by iteratively reweighted Gauss-Newton, starting at the weighted centroid
// of the observers. Positions must share a dimension (2 or 3) and at least
// dim+1 of them must span that dimension.
//
// weights may be nil; mismatched or non-positive weights are replaced by the
// default from cfg.Weighting.
func Solve(positions []Vec, distances []float64, weights []float64, cfg SolverConfig) Result {
	cfg = cfg.withDefaults()

	k := len(positions)
	if k == 0 || k != len(distances) {
		return Result{Status: InsufficientData}
	}
	dim := len(positions[0])
	if dim == 0 {
		return Result{Status: Degenerate}
	}
	for _, p := range positions {
		if len(p) != dim || !p.Finite() {
			return Result{Status: Degenerate}
		}
	}
	if k < dim+1 {
		return Result{Status: InsufficientData}
	}
	if affineRank(positions) < dim {
		return Result{Status: Degenerate}
	}

	w := resolveWeights(distances, weights, cfg.Weighting)
	x := weightedCentroid(positions, w)
	cost := huberCost(x, positions, distances, w, cfg.HuberScale)

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		step, ok := gaussNewtonStep(x, positions, distances, w, cfg.HuberScale)
		if !ok {
			if iter == 0 {
				return Result{Status: Degenerate}
			}
			break
		}

		// Backtrack until the robust cost does not increase.
		t := 1.0
		accepted := false
		next := make(Vec, dim)
		var nextCost float64
		for h := 0; h < maxHalvings; h++ {
			floats.AddScaledTo(next, x, t, step)
			nextCost = huberCost(next, positions, distances, w, cfg.HuberScale)
			if nextCost <= cost {
				accepted = true
				break
			}
			t /= 2
		}
		if !accepted {
			break
		}

		moved := t * floats.Norm(step, 2)
		x, cost = next, nextCost
		if moved < cfg.Tolerance {
			break
		}
	}

	if !x.Finite() {
		return Result{Status: Degenerate}
	}

	inliers := make([]int, k)
	for i := range inliers {
		inliers[i] = i
	}
	return Result{Status: Solved, Point: x, Inliers: inliers}
}

// gaussNewtonStep solves the damped, Huber-reweighted linearisation around x
// as a least-squares problem with a QR factorisation.
func gaussNewtonStep(x Vec, positions []Vec, distances, weights []float64, delta float64) (Vec, bool) {
	k, dim := len(positions), len(x)
	a := mat.NewDense(k+dim, dim, nil)
	b := mat.NewVecDense(k+dim, nil)

	diff := make([]float64, dim)
	for i, p := range positions {
		floats.SubTo(diff, x, p)
		r := floats.Norm(diff, 2)
		if r < 1e-12 {
			continue
		}
		res := r - distances[i]
		sw := math.Sqrt(weights[i] * huberWeight(res, delta))
		for j := 0; j < dim; j++ {
			a.Set(i, j, sw*diff[j]/r)
		}
		b.SetVec(i, -sw*res)
	}
	damp := math.Sqrt(dampingLambda)
	for j := 0; j < dim; j++ {
		a.Set(k+j, j, damp)
	}

	var qr mat.QR
	qr.Factorize(a)
	var dx mat.VecDense
	if err := qr.SolveVecTo(&dx, false, b); err != nil {
		return nil, false
	}

	step := make(Vec, dim)
	for j := range step {
		step[j] = dx.AtVec(j)
	}
	if !step.Finite() {
		return nil, false
	}
	return step, true
}

func huberWeight(res, delta float64) float64 {
	a := math.Abs(res)
	if a <= delta {
		return 1
	}
	return delta / a
}

func huberLoss(res, delta float64) float64 {
	a := math.Abs(res)
	if a <= delta {
		return 0.5 * res * res
	}
	return delta * (a - 0.5*delta)
}

func huberCost(x Vec, positions []Vec, distances, weights []float64, delta float64) float64 {
	var sum float64
	for i, p := range positions {
		sum += weights[i] * huberLoss(x.Distance(p)-distances[i], delta)
	}
	return sum
}

func resolveWeights(distances, weights []float64, mode Weighting) []float64 {
	if len(weights) == len(distances) {
		valid := true
		for _, w := range weights {
			if !(w > 0) || math.IsInf(w, 0) {
				valid = false
				break
			}
		}
		if valid {
			return weights
		}
	}

	out := make([]float64, len(distances))
	for i, d := range distances {
		switch mode {
		case Uniform:
			out[i] = 1
		default:
			out[i] = 1 / math.Max(d, 1)
		}
	}
	return out
}

// affineRank is the rank of the observer positions after removing their mean.
// Coincident observers give 0, collinear ones 1, coplanar ones 2.
func affineRank(positions []Vec) int {
	k, dim := len(positions), len(positions[0])
	mean := make([]float64, dim)
	for _, p := range positions {
		floats.Add(mean, p)
	}
	floats.Scale(1/float64(k), mean)

	m := mat.NewDense(k, dim, nil)
	for i, p := range positions {
		for j := 0; j < dim; j++ {
			m.Set(i, j, p[j]-mean[j])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDNone) {
		return 0
	}
	values := svd.Values(nil)
	if len(values) == 0 || values[0] < 1e-12 {
		return 0
	}
	rank := 0
	for _, s := range values {
		if s > rankTolerance*values[0] {
			rank++
		}
	}
	return rank
}
