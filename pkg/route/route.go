// Package route implements the conduit routing core. Given two straight
// runs it classifies their geometric relationship (parallel with offset,
// intersecting, or skew) and plans the connecting geometry: a direct
// joint, a perpendicular offset jog, or a two-bend kick bridging the gap.
//
// The package is pure. It reads segment endpoints and returns a Plan
// describing trimmed runs, intermediate runs, and joint points; applying
// the plan to a document is the caller's job (see pkg/model). Every
// function is deterministic and safe for concurrent use.
package route

// Default tolerances, in millimeters and unitless sine respectively.
// Distance governs point coincidence and offset classification; Angular
// bounds |cross(dirA, dirB)| of the unit directions, which is sin of the
// angle between the runs.
const (
	DefaultDistanceTolerance = 1e-3
	DefaultAngularTolerance  = 1e-6
)

// Tolerance carries the numeric tolerances used by the analyzer and the
// strategies. The zero value means "use defaults".
type Tolerance struct {
	Distance float64 // coincidence / offset tolerance in mm
	Angular  float64 // parallelism bound on |cross| of unit directions
}

// DefaultTolerance returns the package defaults.
func DefaultTolerance() Tolerance {
	return Tolerance{
		Distance: DefaultDistanceTolerance,
		Angular:  DefaultAngularTolerance,
	}
}

// normalized replaces zero or negative fields with the defaults.
func (t Tolerance) normalized() Tolerance {
	if t.Distance <= 0 {
		t.Distance = DefaultDistanceTolerance
	}
	if t.Angular <= 0 {
		t.Angular = DefaultAngularTolerance
	}
	return t
}
