package model

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/raceway/pkg/geom"
)

// ---------------------------------------------------------------------------
// Trade designation
// ---------------------------------------------------------------------------

// TradeSpec describes the conduit trade designation. Advisory only.
type TradeSpec struct {
	Standard string `json:"standard,omitempty"` // e.g. "EMT", "RMC", "PVC"
	Size     string `json:"size,omitempty"`     // metric designator, e.g. "20"
	Notes    string `json:"notes,omitempty"`
}

// ---------------------------------------------------------------------------
// Conduit
// ---------------------------------------------------------------------------

// ConduitData represents a straight conduit run. Run carries absolute
// world coordinates; there is no per-node transform.
type ConduitData struct {
	Run      geom.Segment `json:"run"`
	Diameter float64      `json:"diameter"` // outside diameter in mm
	Trade    TradeSpec    `json:"trade"`
}

func (ConduitData) nodeData() {}

// ---------------------------------------------------------------------------
// Fitting
// ---------------------------------------------------------------------------

// FittingKind enumerates conduit fitting types.
type FittingKind int

const (
	FittingCoupling FittingKind = iota // straight coupling, collinear runs
	FittingElbow                       // single bend at an angle
	FittingKick                        // bend of a two-bend kick across skew runs
)

func (k FittingKind) String() string {
	switch k {
	case FittingCoupling:
		return "coupling"
	case FittingElbow:
		return "elbow"
	case FittingKick:
		return "kick"
	default:
		return "unknown"
	}
}

// FittingData joins two conduit ends at a location. Fittings are
// metadata in the document; their solid geometry is produced by the
// kernel at tessellation time.
type FittingData struct {
	Kind     FittingKind  `json:"kind"`
	A        ConnectorRef `json:"a"`
	B        ConnectorRef `json:"b"`
	Location r3.Vec       `json:"location"`
}

func (FittingData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData represents a logical grouping (circuit, riser bank).
// Created by the (assembly ...) Lisp form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
