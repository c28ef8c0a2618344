package model

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/raceway/pkg/geom"
	"github.com/chazu/raceway/pkg/route"
)

// validateGeometry runs Tier 2 geometric checks: degenerate runs,
// non-positive diameters, fittings whose location drifted away from the
// conduit ends they join, and coincident duplicate runs.
func validateGeometry(d *Document) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	tol := d.Defaults.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	// Deterministic ordering for stable findings.
	conduits := d.Conduits()
	sort.Slice(conduits, func(i, j int) bool { return conduits[i].ID < conduits[j].ID })

	for _, n := range conduits {
		cd, ok := n.Data.(ConduitData)
		if !ok {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("conduit node has unexpected data type %T", n.Data),
				Severity: SeverityError,
			})
			continue
		}
		if cd.Run.Length() < tol {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("degenerate run: length %.6g mm is below tolerance %.6g mm", cd.Run.Length(), tol),
				Severity: SeverityError,
			})
		}
		if cd.Diameter <= 0 {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("non-positive diameter %.6g mm", cd.Diameter),
				Severity: SeverityError,
			})
		}
	}

	// Fittings must sit on both conduit ends they join. The plan applier
	// produces exact coincidence; drift means a run was edited without
	// re-routing its fittings.
	for _, n := range d.Fittings() {
		fd, ok := n.Data.(FittingData)
		if !ok {
			continue
		}
		for _, c := range []struct {
			side string
			ref  ConnectorRef
		}{{"a", fd.A}, {"b", fd.B}} {
			side, ref := c.side, c.ref
			p, ok := d.ConnectorPoint(ref)
			if !ok {
				continue // dangling reference; reported by Tier 1
			}
			if !geom.VecEqual(p, fd.Location, tol) {
				errs = append(errs, ValidationError{
					NodeID: n.ID,
					Message: fmt.Sprintf("fitting location is %.6g mm from connector %s (%s of %s)",
						r3.Norm(r3.Sub(p, fd.Location)), side, ref.End, ref.Conduit.Short()),
					Severity: SeverityError,
				})
			}
		}
	}

	// Coincident duplicate runs: parallel pairs on the same line with
	// overlapping extents. Advisory; overlapping raceway is legal but
	// usually a scripting mistake.
	for i := 0; i < len(conduits); i++ {
		for j := i + 1; j < len(conduits); j++ {
			ci, iok := conduits[i].Data.(ConduitData)
			cj, jok := conduits[j].Data.(ConduitData)
			if !iok || !jok {
				continue
			}
			c, err := route.Analyze(ci.Run, cj.Run, d.Tolerance())
			if err != nil {
				continue // degenerate runs already reported above
			}
			if c.Relationship != route.Parallel || c.Offset > tol {
				continue
			}
			if extentsOverlap(ci.Run, cj.Run, tol) {
				warnings = append(warnings, ValidationWarning{
					NodeID: conduits[j].ID,
					Message: fmt.Sprintf("run %q overlaps collinear run %q",
						nameOrShort(conduits[j]), nameOrShort(conduits[i])),
				})
			}
		}
	}

	return errs, warnings
}

// tradeDesignators are the standard metric conduit designators (outside
// diameter class in mm).
var tradeDesignators = []float64{16, 20, 25, 32, 40, 50, 63}

// validateTrade runs Tier 3 advisory checks: run diameters that do not
// match a standard metric trade designator.
func validateTrade(d *Document) []ValidationWarning {
	var warnings []ValidationWarning

	conduits := d.Conduits()
	sort.Slice(conduits, func(i, j int) bool { return conduits[i].ID < conduits[j].ID })

	for _, n := range conduits {
		cd, ok := n.Data.(ConduitData)
		if !ok || cd.Diameter <= 0 {
			continue
		}
		if !isStandardDesignator(cd.Diameter) {
			warnings = append(warnings, ValidationWarning{
				NodeID: n.ID,
				Message: fmt.Sprintf("run %q diameter %.6g mm is not a standard metric designator",
					nameOrShort(n), cd.Diameter),
			})
		}
	}

	return warnings
}

func isStandardDesignator(diameter float64) bool {
	for _, t := range tradeDesignators {
		if math.Abs(diameter-t) <= 0.5 {
			return true
		}
	}
	return false
}

// extentsOverlap reports whether two collinear runs share an interior
// parameter range along their common line. Runs that merely touch at a
// coupling point do not overlap.
func extentsOverlap(a, b geom.Segment, tol float64) bool {
	dir := a.Dir()
	t0 := 0.0
	t1 := a.Length()
	u0 := r3.Dot(r3.Sub(b.Start, a.Start), dir)
	u1 := r3.Dot(r3.Sub(b.End, a.Start), dir)
	if u0 > u1 {
		u0, u1 = u1, u0
	}
	return u1 > t0+tol && u0 < t1-tol
}

func nameOrShort(n *Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}
