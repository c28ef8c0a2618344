// Package geom provides the vector and segment primitives shared by the
// routing core and the document model. Vectors are gonum spatial/r3
// values; all coordinates and distances are millimeters.
package geom

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Segment is a finite straight run between two points. Segments are
// immutable values: operations return new segments rather than mutating
// in place.
type Segment struct {
	Start r3.Vec `json:"start"`
	End   r3.Vec `json:"end"`
}

// Delta returns the vector from Start to End.
func (s Segment) Delta() r3.Vec {
	return r3.Sub(s.End, s.Start)
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return r3.Norm(s.Delta())
}

// Dir returns the unit direction from Start to End. Callers must reject
// zero-length segments first; Dir of a degenerate segment is NaN.
func (s Segment) Dir() r3.Vec {
	return r3.Unit(s.Delta())
}

// Midpoint returns the point halfway between Start and End.
func (s Segment) Midpoint() r3.Vec {
	return r3.Scale(0.5, r3.Add(s.Start, s.End))
}

// HasEndpoint reports whether p coincides with either endpoint within tol.
func (s Segment) HasEndpoint(p r3.Vec, tol float64) bool {
	return VecEqual(s.Start, p, tol) || VecEqual(s.End, p, tol)
}

// OtherEnd returns the endpoint of s that is not p. The second return is
// false when p matches neither endpoint within tol.
func (s Segment) OtherEnd(p r3.Vec, tol float64) (r3.Vec, bool) {
	switch {
	case VecEqual(s.Start, p, tol):
		return s.End, true
	case VecEqual(s.End, p, tol):
		return s.Start, true
	}
	return r3.Vec{}, false
}

func (s Segment) String() string {
	return fmt.Sprintf("(%.3g,%.3g,%.3g)->(%.3g,%.3g,%.3g)",
		s.Start.X, s.Start.Y, s.Start.Z, s.End.X, s.End.Y, s.End.Z)
}

// VecEqual reports whether two points are within tol of each other.
func VecEqual(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b r3.Vec) r3.Vec {
	return r3.Scale(0.5, r3.Add(a, b))
}

// PerpToLine returns the component of (p - origin) perpendicular to the
// line through origin with unit direction dir.
func PerpToLine(p, origin, dir r3.Vec) r3.Vec {
	v := r3.Sub(p, origin)
	return r3.Sub(v, r3.Scale(r3.Dot(v, dir), dir))
}

// ProjectOntoLine returns the foot of the perpendicular from p onto the
// infinite line through origin with unit direction dir.
func ProjectOntoLine(p, origin, dir r3.Vec) r3.Vec {
	v := r3.Sub(p, origin)
	return r3.Add(origin, r3.Scale(r3.Dot(v, dir), dir))
}

// DistToLine returns the distance from p to the infinite line through
// origin with unit direction dir.
func DistToLine(p, origin, dir r3.Vec) float64 {
	return r3.Norm(PerpToLine(p, origin, dir))
}

// minDenom bounds the closest-point denominator away from zero. Below it
// the two lines are numerically parallel and the 2x2 system is singular.
const minDenom = 1e-12

// ClosestPointsOnLines solves for the points of nearest approach between
// the infinite lines (o1, d1) and (o2, d2). Directions need not be unit
// length. The solve is the classical two-line closest-point system
//
//	[ d1.d1  -d1.d2 ] [s]   [ w.d1 ]
//	[ d1.d2  -d2.d2 ] [t] = [ w.d2 ]   with w = o2 - o1,
//
// eliminated by Cramer's rule. ok is false when the denominator
// d1.d1*d2.d2 - (d1.d2)^2 underflows, which means the lines are parallel
// and the system has no unique solution.
func ClosestPointsOnLines(o1, d1, o2, d2 r3.Vec) (p1, p2 r3.Vec, ok bool) {
	w := r3.Sub(o2, o1)
	a := r3.Dot(d1, d1)
	b := r3.Dot(d1, d2)
	c := r3.Dot(d2, d2)
	d := r3.Dot(w, d1)
	e := r3.Dot(w, d2)

	denom := a*c - b*b
	if denom < minDenom {
		return r3.Vec{}, r3.Vec{}, false
	}

	s := (d*c - b*e) / denom
	t := (d*b - a*e) / denom

	p1 = r3.Add(o1, r3.Scale(s, d1))
	p2 = r3.Add(o2, r3.Scale(t, d2))
	return p1, p2, true
}
