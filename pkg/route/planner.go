package route

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/raceway/pkg/geom"
)

// Outcome bundles the full result of a connect operation: the
// classification, the strategy chosen for it, and the plan the strategy
// produced. Strategy is carried for diagnostics and tests.
type Outcome struct {
	Classification Classification `json:"classification"`
	Strategy       StrategyKind   `json:"strategy"`
	Plan           Plan           `json:"plan"`
}

// SelectStrategy maps a classification to its strategy. The case split
// is total and non-overlapping over Relationship:
//
//	Intersecting                 -> DirectJoin
//	Parallel, offset > tolerance -> ParallelOffset
//	Parallel, offset <= tolerance-> DirectJoin (collinear)
//	Skew                         -> SkewKick
func SelectStrategy(c Classification, tol Tolerance) StrategyKind {
	tol = tol.normalized()
	switch c.Relationship {
	case Intersecting:
		return DirectJoin
	case Parallel:
		if c.Offset <= tol.Distance {
			return DirectJoin
		}
		return ParallelOffset
	case Skew:
		return SkewKick
	}
	// Relationship is a closed enum produced only by Analyze.
	panic(fmt.Sprintf("route: unknown relationship %d", int(c.Relationship)))
}

// Connect analyzes the pair, selects the matching strategy, and plans the
// connection. freeA and freeB are the open endpoints supplied by the
// caller; the host knows which end is structurally unconnected, which
// geometry alone cannot tell. Connect is pure: it mutates nothing and
// returns a plan for the caller to apply.
func Connect(a, b geom.Segment, freeA, freeB r3.Vec, tol Tolerance) (Outcome, error) {
	tol = tol.normalized()

	if !a.HasEndpoint(freeA, tol.Distance) {
		return Outcome{}, fmt.Errorf("run a %v free end (%.3g,%.3g,%.3g): %w", a, freeA.X, freeA.Y, freeA.Z, ErrFreeEndMismatch)
	}
	if !b.HasEndpoint(freeB, tol.Distance) {
		return Outcome{}, fmt.Errorf("run b %v free end (%.3g,%.3g,%.3g): %w", b, freeB.X, freeB.Y, freeB.Z, ErrFreeEndMismatch)
	}

	c, err := Analyze(a, b, tol)
	if err != nil {
		return Outcome{}, err
	}

	k := SelectStrategy(c, tol)
	p, err := PlanConnection(k, a, b, c, freeA, freeB, tol)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{Classification: c, Strategy: k, Plan: p}, nil
}
