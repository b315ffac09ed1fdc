package locate

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Vec is a position in a building's local planar frame, 2D or 3D, in meters.
type Vec []float64

// Finite reports whether every coordinate is a finite number.
func (v Vec) Finite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Clone returns a copy of v.
func (v Vec) Clone() Vec {
	if v == nil {
		return nil
	}
	out := make(Vec, len(v))
	copy(out, v)
	return out
}

// Distance is the Euclidean distance between v and u, which must share a dimension.
func (v Vec) Distance(u Vec) float64 {
	return floats.Distance(v, u, 2)
}

func weightedCentroid(positions []Vec, weights []float64) Vec {
	dim := len(positions[0])
	c := make(Vec, dim)
	var total float64
	for i, p := range positions {
		floats.AddScaled(c, weights[i], p)
		total += weights[i]
	}
	if total <= 0 {
		for _, p := range positions {
			floats.Add(c, p)
		}
		total = float64(len(positions))
	}
	floats.Scale(1/total, c)
	return c
}

func project(positions []Vec, dim int) []Vec {
	out := make([]Vec, len(positions))
	for i, p := range positions {
		out[i] = p[:dim].Clone()
	}
	return out
}
