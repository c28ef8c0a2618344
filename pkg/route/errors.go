package route

import "errors"

// All routing failures are returned as wrapped sentinel errors; the core
// never panics on bad geometry and never partially applies anything.
var (
	// ErrDegenerateSegment reports a run whose length is below the
	// distance tolerance. There is no direction to analyze.
	ErrDegenerateSegment = errors.New("degenerate segment")

	// ErrNumericallyUnstable reports that the closest-point solve
	// denominator underflowed even though the parallel check passed.
	ErrNumericallyUnstable = errors.New("closest-point solve numerically unstable")

	// ErrAmbiguousEndpoint reports that both endpoints of a run are
	// equidistant from the computed joint, so the retained end cannot be
	// chosen.
	ErrAmbiguousEndpoint = errors.New("ambiguous endpoint: both ends equidistant from joint")

	// ErrInapplicableStrategy reports a strategy invoked with a
	// classification it cannot handle. Connect never returns this; it
	// indicates a direct PlanConnection call with mismatched inputs.
	ErrInapplicableStrategy = errors.New("strategy not applicable to classification")

	// ErrFreeEndMismatch reports a free-end point that is not an endpoint
	// of its run.
	ErrFreeEndMismatch = errors.New("free end is not an endpoint of the segment")
)
