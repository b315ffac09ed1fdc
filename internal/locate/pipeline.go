package locate

import "math"

// Sample is one stored observation of an anchor joined to the observing
// scan's local position.
type Sample struct {
	Position     Vec // x, y, z of the scan
	RSSI         float64
	ScanAccuracy *float64 // self-reported accuracy of the scan, if any
}

// Estimate is the outcome of one pass of the per-anchor pipeline.
type Estimate struct {
	Status Status
	Dim    int // 3, or 2 for the planar fallback; 0 when unsolved
	Raw    Vec // solver output before smoothing
	Point  Vec // smoothed position, len Dim
	// Inliers index into the samples passed to Estimate.
	Inliers       []int
	Accuracy      float64
	AccuracyKnown bool
	Usable        int // samples that survived filtering
}

// Unset returns a prior with every coordinate unset.
func Unset() Vec { return Vec{math.NaN(), math.NaN(), math.NaN()} }

// Estimate runs distance model, filter, robust solve (3D, else 2D), smoothing
// against prior and accuracy estimation. prior is a 3-vector whose unset
// coordinates are NaN; in the 2D tier only its x and y are blended.
func (p Params) Estimate(samples []Sample, prior Vec, rng Rand) Estimate {
	positions := make([]Vec, len(samples))
	distances := make([]float64, len(samples))
	for i, s := range samples {
		positions[i] = s.Position
		distances[i] = EstimateDistance(s.RSSI, p.TxPowerDBm, p.PathLossExponent)
	}

	pos, dist, kept := FilterObservations(positions, distances, p.MaxDistance)
	out := Estimate{Status: InsufficientData, Usable: len(pos)}

	var (
		res Result
		dim int
	)
	min3D := p.MinPoints3D
	if min3D <= 0 {
		min3D = 4
	}
	if len(pos) >= min3D && homogeneous(pos, 3) {
		res, dim = RobustSolve(pos, dist, nil, p.Ransac, p.Solver, rng), 3
	}
	if !res.OK() && len(pos) >= p.MinPoints2D() && homogeneous(pos, 2) {
		rc := p.Ransac
		rc.MinInliers = p.MinPoints2D()
		flat := project(pos, 2)
		if planar := RobustSolve(flat, dist, nil, rc, p.Solver, rng); planar.OK() || dim == 0 {
			res, dim, pos = planar, 2, flat
		}
	}
	if !res.OK() {
		if dim != 0 {
			out.Status = res.Status
		}
		return out
	}

	out.Status = Solved
	out.Dim = dim
	out.Raw = res.Point

	var prev Vec
	if len(prior) >= dim {
		prev = prior[:dim]
	}
	out.Point = Smooth(prev, res.Point, p.SmoothingAlpha)

	inPos := make([]Vec, len(res.Inliers))
	inDist := make([]float64, len(res.Inliers))
	var scanAcc []float64
	out.Inliers = make([]int, len(res.Inliers))
	for i, j := range res.Inliers {
		inPos[i], inDist[i] = pos[j], dist[j]
		out.Inliers[i] = kept[j]
		if a := samples[kept[j]].ScanAccuracy; a != nil {
			scanAcc = append(scanAcc, *a)
		}
	}
	out.Accuracy, out.AccuracyKnown = EstimateAccuracy(out.Point, inPos, inDist, scanAcc)
	return out
}

// homogeneous reports whether every position has at least dim coordinates.
func homogeneous(positions []Vec, dim int) bool {
	for _, p := range positions {
		if len(p) < dim {
			return false
		}
	}
	return true
}
