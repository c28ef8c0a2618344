package route

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/raceway/pkg/geom"
)

// Relationship is the geometric relationship between two infinite lines.
type Relationship int

const (
	Parallel     Relationship = iota // directions within angular tolerance of ±each other
	Intersecting                     // non-parallel, nearest approach within distance tolerance
	Skew                             // non-parallel, nearest approach beyond distance tolerance
)

func (r Relationship) String() string {
	switch r {
	case Parallel:
		return "parallel"
	case Intersecting:
		return "intersecting"
	case Skew:
		return "skew"
	default:
		return "unknown"
	}
}

// Classification is the result of analyzing a pair of runs. It describes
// the infinite lines through the segments; nothing is clamped to the
// finite extents, matching the free-end extension semantics downstream.
type Classification struct {
	Relationship Relationship `json:"relationship"`

	// Offset is the perpendicular separation for Parallel, the minimum
	// distance between the infinite lines for Skew, and ~0 for
	// Intersecting.
	Offset float64 `json:"offset"`

	// ClosestOnA and ClosestOnB are the points of nearest approach on
	// each infinite line. They coincide within tolerance when
	// Intersecting. For Parallel pairs, where every point pair at the
	// offset distance is equally near, ClosestOnA is a's start and
	// ClosestOnB its projection onto b's line.
	ClosestOnA r3.Vec `json:"closest_on_a"`
	ClosestOnB r3.Vec `json:"closest_on_b"`

	// Unit directions of the two runs, cached for the strategies.
	DirA r3.Vec `json:"dir_a"`
	DirB r3.Vec `json:"dir_b"`
}

// Analyze classifies the relationship between two runs. It fails with
// ErrDegenerateSegment if either run is shorter than the distance
// tolerance, and with ErrNumericallyUnstable if the closest-point solve
// denominator underflows despite the parallel guard.
//
// Boundary ties classify as the no-offset case: an offset exactly at the
// distance tolerance is Intersecting, favoring the simpler joint.
func Analyze(a, b geom.Segment, tol Tolerance) (Classification, error) {
	tol = tol.normalized()

	if a.Length() < tol.Distance {
		return Classification{}, fmt.Errorf("run a %v: %w", a, ErrDegenerateSegment)
	}
	if b.Length() < tol.Distance {
		return Classification{}, fmt.Errorf("run b %v: %w", b, ErrDegenerateSegment)
	}

	dirA := a.Dir()
	dirB := b.Dir()

	// |cross| of two unit vectors is sin of the angle between them, so
	// this catches both parallel and anti-parallel pairs.
	crossMag := r3.Norm(r3.Cross(dirA, dirB))
	if crossMag < tol.Angular {
		// Any point pair works for the offset because the lines are
		// parallel; the perpendicular component is point-independent.
		offset := r3.Norm(geom.PerpToLine(b.Start, a.Start, dirA))
		return Classification{
			Relationship: Parallel,
			Offset:       offset,
			ClosestOnA:   a.Start,
			ClosestOnB:   geom.ProjectOntoLine(a.Start, b.Start, dirB),
			DirA:         dirA,
			DirB:         dirB,
		}, nil
	}

	pA, pB, ok := geom.ClosestPointsOnLines(a.Start, dirA, b.Start, dirB)
	if !ok {
		return Classification{}, fmt.Errorf("runs %v and %v: %w", a, b, ErrNumericallyUnstable)
	}

	offset := r3.Norm(r3.Sub(pA, pB))
	rel := Skew
	if offset <= tol.Distance {
		rel = Intersecting
	}

	return Classification{
		Relationship: rel,
		Offset:       offset,
		ClosestOnA:   pA,
		ClosestOnB:   pB,
		DirA:         dirA,
		DirB:         dirB,
	}, nil
}
