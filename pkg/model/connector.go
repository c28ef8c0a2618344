package model

import "gonum.org/v1/gonum/spatial/r3"

// End selects one endpoint of a conduit run.
type End string

const (
	EndStart End = "start"
	EndEnd   End = "end"
)

// ValidEnds is the set of accepted End values.
var ValidEnds = map[End]bool{
	EndStart: true,
	EndEnd:   true,
}

// ConnectorRef identifies the open end of a conduit where a fitting
// attaches. It is a lookup key into the document, not geometry: the
// actual point comes from the referenced conduit's current run.
type ConnectorRef struct {
	Conduit NodeID `json:"conduit"`
	End     End    `json:"end"`
}

// ConnectorPoint resolves a connector reference to its current location.
// The second return is false when the reference is dangling or does not
// name a conduit.
func (d *Document) ConnectorPoint(ref ConnectorRef) (r3.Vec, bool) {
	n := d.Get(ref.Conduit)
	if n == nil || n.Kind != NodeConduit {
		return r3.Vec{}, false
	}
	cd, ok := n.Data.(ConduitData)
	if !ok {
		return r3.Vec{}, false
	}
	switch ref.End {
	case EndStart:
		return cd.Run.Start, true
	case EndEnd:
		return cd.Run.End, true
	}
	return r3.Vec{}, false
}
