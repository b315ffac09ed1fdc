package spatial

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

const onEdgeTolerance = 1e-9

// Polygon is a closed ring of vertices in a building's local frame. The
// closing edge from the last vertex back to the first is implicit.
type Polygon []r2.Point

// Contains reports whether p lies inside the polygon or on its boundary,
// using ray casting.
func (poly Polygon) Contains(p r2.Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}

	inside := false
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		if onSegment(p, a, b) {
			return true
		}
		if (a.Y > p.Y) != (b.Y > p.Y) {
			xCross := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(p, a, b r2.Point) bool {
	d := b.Sub(a)
	if math.Abs(d.Cross(p.Sub(a))) >= onEdgeTolerance {
		return false
	}
	dot := p.Sub(a).Dot(d)
	return dot >= 0 && dot <= d.Dot(d)
}

// Area returns the absolute shoelace area.
func (poly Polygon) Area() float64 {
	return math.Abs(poly.signedArea())
}

func (poly Polygon) signedArea() float64 {
	var sum float64
	n := len(poly)
	for i := 0; i < n; i++ {
		sum += poly[i].Cross(poly[(i+1)%n])
	}
	return sum / 2
}

// Centroid returns the area centroid. Degenerate rings (zero area) fall back
// to the vertex mean; a two-vertex ring yields its midpoint.
func (poly Polygon) Centroid() r2.Point {
	n := len(poly)
	switch n {
	case 0:
		return r2.Point{}
	case 1:
		return poly[0]
	case 2:
		return poly[0].Add(poly[1]).Mul(0.5)
	}

	area := poly.signedArea()
	if math.Abs(area) < onEdgeTolerance {
		var sum r2.Point
		for _, v := range poly {
			sum = sum.Add(v)
		}
		return sum.Mul(1 / float64(n))
	}

	var c r2.Point
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		c = c.Add(a.Add(b).Mul(a.Cross(b)))
	}
	return c.Mul(1 / (6 * area))
}

// Nearest returns the point on the polygon boundary closest to p and its
// distance from p.
func (poly Polygon) Nearest(p r2.Point) (r2.Point, float64) {
	if len(poly) == 0 {
		return r2.Point{}, math.Inf(1)
	}

	best, bestDist := poly[0], math.Inf(1)
	n := len(poly)
	for i := 0; i < n; i++ {
		q := closestOnSegment(p, poly[i], poly[(i+1)%n])
		if d := q.Sub(p).Norm(); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best, bestDist
}

func closestOnSegment(p, a, b r2.Point) r2.Point {
	d := b.Sub(a)
	l2 := d.Dot(d)
	if l2 == 0 {
		return a
	}
	t := p.Sub(a).Dot(d) / l2
	t = math.Max(0, math.Min(1, t))
	return a.Add(d.Mul(t))
}

// PathLength returns the total length of a polyline in 3D.
func PathLength(path []r3.Vector) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += path[i].Sub(path[i-1]).Norm()
	}
	return total
}
