package locate

import (
	"math"
	"math/rand/v2"
)

// Rand is the sampling source used by RobustSolve. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// NewRand returns a deterministic source for reproducible sampling.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type candidate struct {
	point        Vec
	inliers      []int
	meanResidual float64
}

// better orders candidates by inlier count, then by mean inlier residual.
func (c candidate) better(o *candidate) bool {
	if o == nil {
		return true
	}
	if len(c.inliers) != len(o.inliers) {
		return len(c.inliers) > len(o.inliers)
	}
	return c.meanResidual < o.meanResidual
}

// RobustSolve runs RANSAC over Solve: it repeatedly fits random minimal
// subsets, scores each candidate against every observation, and refits on
// the winning inlier set. A nil rng uses the process-wide generator.
//
// Too few observations yield InsufficientData; if no iteration produced a
// candidate with at least one inlier the result is Degenerate.
func RobustSolve(positions []Vec, distances, weights []float64, rc RansacConfig, sc SolverConfig, rng Rand) Result {
	n := len(positions)
	if n == 0 || n != len(distances) {
		return Result{Status: InsufficientData}
	}
	dim := len(positions[0])
	rc = rc.withDefaults(dim)
	if n < rc.MinInliers {
		return Result{Status: InsufficientData}
	}
	if rng == nil {
		rng = globalRand{}
	}
	w := resolveWeights(distances, weights, sc.Weighting)

	m := rc.MinInliers
	idx := make([]int, n)
	subPos := make([]Vec, m)
	subDist := make([]float64, m)
	subW := make([]float64, m)

	var best *candidate
	for iter := 0; iter < rc.Iterations; iter++ {
		for i := range idx {
			idx[i] = i
		}
		for i := 0; i < m; i++ {
			j := i + rng.IntN(n-i)
			idx[i], idx[j] = idx[j], idx[i]
		}
		for i := 0; i < m; i++ {
			subPos[i] = positions[idx[i]]
			subDist[i] = distances[idx[i]]
			subW[i] = w[idx[i]]
		}

		res := Solve(subPos, subDist, subW, sc)
		if !res.OK() {
			continue
		}

		c := score(res.Point, positions, distances, rc.Threshold)
		if len(c.inliers) == 0 {
			continue
		}
		if c.better(best) {
			best = &c
		}
	}

	if best == nil {
		return Result{Status: Degenerate}
	}

	point := best.point
	if len(best.inliers) >= dim+1 {
		inPos := make([]Vec, len(best.inliers))
		inDist := make([]float64, len(best.inliers))
		inW := make([]float64, len(best.inliers))
		for i, j := range best.inliers {
			inPos[i], inDist[i], inW[i] = positions[j], distances[j], w[j]
		}
		if refit := Solve(inPos, inDist, inW, sc); refit.OK() {
			point = refit.Point
		}
	}

	return Result{Status: Solved, Point: point, Inliers: best.inliers}
}

func score(point Vec, positions []Vec, distances []float64, threshold float64) candidate {
	c := candidate{point: point}
	var sum float64
	for i, p := range positions {
		r := math.Abs(point.Distance(p) - distances[i])
		if r < threshold {
			c.inliers = append(c.inliers, i)
			sum += r
		}
	}
	if len(c.inliers) > 0 {
		c.meanResidual = sum / float64(len(c.inliers))
	}
	return c
}
