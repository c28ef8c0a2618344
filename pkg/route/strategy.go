package route

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/raceway/pkg/geom"
)

// StrategyKind enumerates the connection strategies. The set is closed;
// SelectStrategy matches it exhaustively, so an unhandled classification
// cannot slip through at runtime.
type StrategyKind int

const (
	DirectJoin     StrategyKind = iota // intersecting or collinear: trim both runs to one joint
	ParallelOffset                     // parallel with offset: perpendicular jog between the lines
	SkewKick                           // skew: two-bend kick across the nearest approach
)

func (k StrategyKind) String() string {
	switch k {
	case DirectJoin:
		return "direct-join"
	case ParallelOffset:
		return "parallel-offset"
	case SkewKick:
		return "skew-kick"
	default:
		return "unknown"
	}
}

// SegmentRole names which planned segment an end reference belongs to.
type SegmentRole int

const (
	RoleRunA   SegmentRole = iota // the first input run, post-trim
	RoleRunB                      // the second input run, post-trim
	RoleBridge                    // the intermediate jog/kick run
)

func (r SegmentRole) String() string {
	switch r {
	case RoleRunA:
		return "run-a"
	case RoleRunB:
		return "run-b"
	case RoleBridge:
		return "bridge"
	default:
		return "unknown"
	}
}

// EndSide selects an end of a planned segment.
type EndSide int

const (
	SideStart EndSide = iota
	SideEnd
)

func (s EndSide) String() string {
	if s == SideStart {
		return "start"
	}
	return "end"
}

// EndRef identifies one end of one planned segment.
type EndRef struct {
	Role SegmentRole `json:"role"`
	Side EndSide     `json:"side"`
}

// JointPoint is a location where two segment ends must be fitted
// together, consumed by the document's fitting builder.
type JointPoint struct {
	At r3.Vec `json:"at"`
	A  EndRef `json:"a"`
	B  EndRef `json:"b"`
}

// Plan is the computed connecting geometry. Planned runs are oriented
// fixed end -> joint end, so every joint reference into RunA or RunB
// points at SideEnd. Intermediates holds the bridge run when the
// strategy needs one; Joints is ordered from the A side to the B side.
type Plan struct {
	RunA          geom.Segment   `json:"run_a"`
	RunB          geom.Segment   `json:"run_b"`
	Intermediates []geom.Segment `json:"intermediates,omitempty"`
	Joints        []JointPoint   `json:"joints"`
}

// CanApply reports whether the strategy handles the classification.
// Collinear parallel pairs (offset within tolerance) route to DirectJoin,
// not ParallelOffset: there is no gap to jog across.
func (k StrategyKind) CanApply(c Classification, tol Tolerance) bool {
	tol = tol.normalized()
	switch k {
	case DirectJoin:
		return c.Relationship == Intersecting ||
			(c.Relationship == Parallel && c.Offset <= tol.Distance)
	case ParallelOffset:
		return c.Relationship == Parallel && c.Offset > tol.Distance
	case SkewKick:
		return c.Relationship == Skew
	default:
		return false
	}
}

// PlanConnection computes the connecting geometry for a classified pair.
// freeA and freeB are the open endpoints eligible for the new joint; each
// must coincide with an endpoint of its run. Fails with
// ErrInapplicableStrategy when CanApply is false.
func PlanConnection(k StrategyKind, a, b geom.Segment, c Classification, freeA, freeB r3.Vec, tol Tolerance) (Plan, error) {
	tol = tol.normalized()
	if !k.CanApply(c, tol) {
		return Plan{}, fmt.Errorf("%s with %s classification: %w", k, c.Relationship, ErrInapplicableStrategy)
	}

	switch k {
	case DirectJoin:
		return planDirectJoin(a, b, c, freeA, freeB, tol)
	case ParallelOffset:
		return planParallelOffset(a, b, c, freeA, freeB, tol)
	case SkewKick:
		return planSkewKick(a, b, c, freeA, freeB, tol)
	default:
		return Plan{}, fmt.Errorf("strategy %d: %w", int(k), ErrInapplicableStrategy)
	}
}

// planDirectJoin trims both runs to a single shared joint. For
// intersecting pairs the joint is the nearest-approach point (the two
// closest points coincide within tolerance; their midpoint is used for
// symmetry). For collinear pairs it is the midpoint between the two free
// ends on the common line.
//
// The retained end of each run is whichever endpoint lies farther from
// the joint. Exact equidistance is surfaced as ErrAmbiguousEndpoint.
func planDirectJoin(a, b geom.Segment, c Classification, freeA, freeB r3.Vec, tol Tolerance) (Plan, error) {
	if !a.HasEndpoint(freeA, tol.Distance) {
		return Plan{}, fmt.Errorf("run a %v free end (%.3g,%.3g,%.3g): %w", a, freeA.X, freeA.Y, freeA.Z, ErrFreeEndMismatch)
	}
	if !b.HasEndpoint(freeB, tol.Distance) {
		return Plan{}, fmt.Errorf("run b %v free end (%.3g,%.3g,%.3g): %w", b, freeB.X, freeB.Y, freeB.Z, ErrFreeEndMismatch)
	}

	var joint r3.Vec
	if c.Relationship == Intersecting {
		joint = geom.Midpoint(c.ClosestOnA, c.ClosestOnB)
	} else {
		joint = geom.Midpoint(freeA, freeB)
	}

	fixedA, err := retainedEnd(a, joint, tol)
	if err != nil {
		return Plan{}, fmt.Errorf("run a %v: %w", a, err)
	}
	fixedB, err := retainedEnd(b, joint, tol)
	if err != nil {
		return Plan{}, fmt.Errorf("run b %v: %w", b, err)
	}

	return Plan{
		RunA: geom.Segment{Start: fixedA, End: joint},
		RunB: geom.Segment{Start: fixedB, End: joint},
		Joints: []JointPoint{{
			At: joint,
			A:  EndRef{Role: RoleRunA, Side: SideEnd},
			B:  EndRef{Role: RoleRunB, Side: SideEnd},
		}},
	}, nil
}

// planParallelOffset projects b's free end onto a's infinite line and
// bridges the two lines with a perpendicular jog from the projection to
// the free end. Run a's free end moves to the projection (trim or
// extension along its own line); run b keeps its geometry.
func planParallelOffset(a, b geom.Segment, c Classification, freeA, freeB r3.Vec, tol Tolerance) (Plan, error) {
	fixedA, ok := a.OtherEnd(freeA, tol.Distance)
	if !ok {
		return Plan{}, fmt.Errorf("run a %v free end (%.3g,%.3g,%.3g): %w", a, freeA.X, freeA.Y, freeA.Z, ErrFreeEndMismatch)
	}
	fixedB, ok := b.OtherEnd(freeB, tol.Distance)
	if !ok {
		return Plan{}, fmt.Errorf("run b %v free end (%.3g,%.3g,%.3g): %w", b, freeB.X, freeB.Y, freeB.Z, ErrFreeEndMismatch)
	}

	foot := geom.ProjectOntoLine(freeB, a.Start, c.DirA)
	jog := geom.Segment{Start: foot, End: freeB}

	return Plan{
		RunA:          geom.Segment{Start: fixedA, End: foot},
		RunB:          geom.Segment{Start: fixedB, End: freeB},
		Intermediates: []geom.Segment{jog},
		Joints: []JointPoint{
			{
				At: foot,
				A:  EndRef{Role: RoleRunA, Side: SideEnd},
				B:  EndRef{Role: RoleBridge, Side: SideStart},
			},
			{
				At: freeB,
				A:  EndRef{Role: RoleBridge, Side: SideEnd},
				B:  EndRef{Role: RoleRunB, Side: SideEnd},
			},
		},
	}, nil
}

// planSkewKick bridges the nearest approach between the two lines with a
// kick run between the closest points, trimming each run's free end to
// its respective closest point.
func planSkewKick(a, b geom.Segment, c Classification, freeA, freeB r3.Vec, tol Tolerance) (Plan, error) {
	fixedA, ok := a.OtherEnd(freeA, tol.Distance)
	if !ok {
		return Plan{}, fmt.Errorf("run a %v free end (%.3g,%.3g,%.3g): %w", a, freeA.X, freeA.Y, freeA.Z, ErrFreeEndMismatch)
	}
	fixedB, ok := b.OtherEnd(freeB, tol.Distance)
	if !ok {
		return Plan{}, fmt.Errorf("run b %v free end (%.3g,%.3g,%.3g): %w", b, freeB.X, freeB.Y, freeB.Z, ErrFreeEndMismatch)
	}

	kick := geom.Segment{Start: c.ClosestOnA, End: c.ClosestOnB}

	return Plan{
		RunA:          geom.Segment{Start: fixedA, End: c.ClosestOnA},
		RunB:          geom.Segment{Start: fixedB, End: c.ClosestOnB},
		Intermediates: []geom.Segment{kick},
		Joints: []JointPoint{
			{
				At: c.ClosestOnA,
				A:  EndRef{Role: RoleRunA, Side: SideEnd},
				B:  EndRef{Role: RoleBridge, Side: SideStart},
			},
			{
				At: c.ClosestOnB,
				A:  EndRef{Role: RoleBridge, Side: SideEnd},
				B:  EndRef{Role: RoleRunB, Side: SideEnd},
			},
		},
	}, nil
}

// retainedEnd picks the endpoint of s farther from the joint. The nearer
// endpoint is the one the joint replaces. Equidistant endpoints cannot be
// resolved and are reported, never guessed.
func retainedEnd(s geom.Segment, joint r3.Vec, tol Tolerance) (r3.Vec, error) {
	ds := r3.Norm(r3.Sub(s.Start, joint))
	de := r3.Norm(r3.Sub(s.End, joint))
	if math.Abs(ds-de) < tol.Distance {
		return r3.Vec{}, ErrAmbiguousEndpoint
	}
	if ds > de {
		return s.Start, nil
	}
	return s.End, nil
}
