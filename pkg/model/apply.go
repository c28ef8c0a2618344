package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/raceway/pkg/geom"
	"github.com/chazu/raceway/pkg/route"
)

// ErrAlreadyConnected reports that a fitting already joins the two runs.
// ApplyConnection returns it with the original document so a repeated
// connect is a no-op rather than a duplicate fitting.
var ErrAlreadyConnected = errors.New("model: runs are already connected")

// ErrNotAConduit reports a connection target that is not a conduit node.
var ErrNotAConduit = errors.New("model: connection target is not a conduit")

// Connected reports whether a fitting already joins the two conduits.
func (d *Document) Connected(aID, bID NodeID) bool {
	for _, n := range d.Fittings() {
		fd, ok := n.Data.(FittingData)
		if !ok {
			continue
		}
		if (fd.A.Conduit == aID && fd.B.Conduit == bID) ||
			(fd.A.Conduit == bID && fd.B.Conduit == aID) {
			return true
		}
	}
	return false
}

// ApplyConnection runs the routing planner for two conduit runs and
// commits the resulting plan: the two runs are trimmed, any bridge run
// is inserted, and one fitting node is created per joint point.
//
// The apply is all-or-nothing. It builds a new document, validates it,
// and returns the original document untouched alongside the error on any
// failure. On success the returned document carries a bumped version.
func ApplyConnection(d *Document, aID, bID NodeID, freeA, freeB End) (*Document, route.Outcome, error) {
	a, b := d.Get(aID), d.Get(bID)
	if a == nil || a.Kind != NodeConduit {
		return d, route.Outcome{}, fmt.Errorf("%w: %s", ErrNotAConduit, aID.Short())
	}
	if b == nil || b.Kind != NodeConduit {
		return d, route.Outcome{}, fmt.Errorf("%w: %s", ErrNotAConduit, bID.Short())
	}
	if !ValidEnds[freeA] || !ValidEnds[freeB] {
		return d, route.Outcome{}, fmt.Errorf("model: invalid free end selector %q/%q", freeA, freeB)
	}

	// Idempotent connector lookup: a second connect of the same pair
	// must not stack another fitting between them.
	if d.Connected(aID, bID) {
		return d, route.Outcome{}, fmt.Errorf("%s and %s: %w", nameOrShort(a), nameOrShort(b), ErrAlreadyConnected)
	}

	ad := a.Data.(ConduitData)
	bd := b.Data.(ConduitData)

	freeAPoint := freeEndPoint(ad.Run, freeA)
	freeBPoint := freeEndPoint(bd.Run, freeB)

	out, err := route.Connect(ad.Run, bd.Run, freeAPoint, freeBPoint, d.Tolerance())
	if err != nil {
		return d, route.Outcome{}, err
	}

	next := d.clone()
	next.Nodes[aID] = replaceRun(a, out.Plan.RunA)
	next.Nodes[bID] = replaceRun(b, out.Plan.RunB)

	base := fmt.Sprintf("%s+%s", nameOrShort(a), nameOrShort(b))

	// Insert the bridge run, if the strategy produced one. The bridge
	// inherits the narrower of the two diameters so the jog never
	// oversizes its couplings.
	var bridgeID NodeID
	if len(out.Plan.Intermediates) > 0 {
		bridgeName := fmt.Sprintf("%s-%s", base, bridgeSuffix(out.Strategy))
		bridgeID = NewNodeID("conduit/" + bridgeName)
		bridgeData := ConduitData{
			Run:      out.Plan.Intermediates[0],
			Diameter: minDiameter(ad.Diameter, bd.Diameter),
			Trade:    ad.Trade,
		}
		bridge := &Node{
			ID:          bridgeID,
			Kind:        NodeConduit,
			Name:        bridgeName,
			ContentHash: HashData(bridgeData),
			Data:        bridgeData,
		}
		next.AddNode(bridge)
		next.AddRoot(bridgeID)
	}

	kind := fittingKindFor(out.Strategy, out.Classification.Relationship)
	for i, jp := range out.Plan.Joints {
		fittingName := fmt.Sprintf("%s-%s-%d", base, kind, i+1)
		fittingData := FittingData{
			Kind:     kind,
			A:        connectorFor(jp.A, aID, bID, bridgeID),
			B:        connectorFor(jp.B, aID, bID, bridgeID),
			Location: jp.At,
		}
		fitting := &Node{
			ID:          NewNodeID("fitting/" + fittingName),
			Kind:        NodeFitting,
			Name:        fittingName,
			ContentHash: HashData(fittingData),
			Data:        fittingData,
		}
		next.AddNode(fitting)
		next.AddRoot(fitting.ID)
	}

	// Commit gate: a plan that produces an invalid document is rolled
	// back entirely by returning the original.
	if errs := Validate(next); len(errs) > 0 {
		return d, route.Outcome{}, fmt.Errorf("model: connection produced invalid document: %v", errs[0])
	}
	if errs, _ := validateGeometry(next); len(errs) > 0 {
		return d, route.Outcome{}, fmt.Errorf("model: connection produced invalid geometry: %v", errs[0])
	}

	next.Version = d.Version + 1
	return next, out, nil
}

// replaceRun returns a copy of a conduit node with updated run geometry
// and a recomputed content hash. The node ID stays stable.
func replaceRun(n *Node, run geom.Segment) *Node {
	cd := n.Data.(ConduitData)
	cd.Run = run
	next := *n
	next.Data = cd
	next.ContentHash = HashData(cd)
	return &next
}

// connectorFor resolves a planned end reference to a document connector.
// Planned runs are oriented fixed -> joint, so references into the two
// input runs always land on their end endpoint.
func connectorFor(ref route.EndRef, aID, bID, bridgeID NodeID) ConnectorRef {
	var conduit NodeID
	switch ref.Role {
	case route.RoleRunA:
		conduit = aID
	case route.RoleRunB:
		conduit = bID
	case route.RoleBridge:
		conduit = bridgeID
	}
	end := EndEnd
	if ref.Side == route.SideStart {
		end = EndStart
	}
	return ConnectorRef{Conduit: conduit, End: end}
}

// fittingKindFor maps the chosen strategy to the fitting hardware it
// implies: a straight coupling for collinear runs, an elbow for a direct
// angle joint or the bends of an offset jog, and kick bends for skew.
func fittingKindFor(k route.StrategyKind, rel route.Relationship) FittingKind {
	switch k {
	case route.DirectJoin:
		if rel == route.Parallel {
			return FittingCoupling
		}
		return FittingElbow
	case route.ParallelOffset:
		return FittingElbow
	case route.SkewKick:
		return FittingKick
	default:
		return FittingCoupling
	}
}

func bridgeSuffix(k route.StrategyKind) string {
	if k == route.ParallelOffset {
		return "jog"
	}
	return "kick"
}

func minDiameter(a, b float64) float64 {
	if a <= b {
		return a
	}
	return b
}

// freeEndPoint resolves an end selector against a run segment directly.
// Callers validate the selector with ValidEnds first.
func freeEndPoint(s geom.Segment, e End) r3.Vec {
	if e == EndStart {
		return s.Start
	}
	return s.End
}
