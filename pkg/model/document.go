package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/chazu/raceway/pkg/route"
)

// Default document settings.
const (
	DefaultTolerance = route.DefaultDistanceTolerance // coincidence tolerance mm
	DefaultAngular   = route.DefaultAngularTolerance  // parallelism tolerance
	DefaultDiameter  = 20.0                           // EMT-20 class outside diameter mm
)

// Defaults contains document-wide default settings.
type Defaults struct {
	Tolerance float64 `json:"tolerance"` // coincidence tolerance mm
	Angular   float64 `json:"angular"`   // parallelism tolerance (sin of angle)
	Diameter  float64 `json:"diameter"`  // default run outside diameter mm
	Units     string  `json:"units"`     // "mm" (only option for MVP)
}

// Document is the top-level data structure produced by Lisp evaluation.
// It is never mutated in place; each evaluation, and each applied
// connection, produces a new document.
type Document struct {
	ID        string            `json:"id"` // evaluation identity
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
	Defaults  Defaults          `json:"defaults"`
	Version   uint64            `json:"version"`
}

// New creates an empty Document with the built-in default settings.
func New() *Document {
	return NewWith(Defaults{})
}

// NewWith creates an empty Document seeded with the given defaults.
// Zero-valued fields fall back to the built-in values, so callers only
// set what they override.
func NewWith(def Defaults) *Document {
	if def.Tolerance <= 0 {
		def.Tolerance = DefaultTolerance
	}
	if def.Angular <= 0 {
		def.Angular = DefaultAngular
	}
	if def.Diameter <= 0 {
		def.Diameter = DefaultDiameter
	}
	if def.Units == "" {
		def.Units = "mm"
	}
	return &Document{
		ID:        uuid.NewString(),
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
		Defaults:  def,
	}
}

// Tolerance returns the document defaults as a routing tolerance.
func (d *Document) Tolerance() route.Tolerance {
	return route.Tolerance{
		Distance: d.Defaults.Tolerance,
		Angular:  d.Defaults.Angular,
	}
}

// AddNode adds a node to the document. It does not check for duplicates.
func (d *Document) AddNode(n *Node) {
	d.Nodes[n.ID] = n
	if n.Name != "" {
		d.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root of the document.
func (d *Document) AddRoot(id NodeID) {
	d.Roots = append(d.Roots, id)
}

// Lookup returns the node with the given user-assigned name, or nil.
func (d *Document) Lookup(name string) *Node {
	id, ok := d.NameIndex[name]
	if !ok {
		return nil
	}
	return d.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (d *Document) MustLookup(name string) *Node {
	n := d.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("model: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (d *Document) Get(id NodeID) *Node {
	return d.Nodes[id]
}

// Conduits returns all conduit nodes in the document.
func (d *Document) Conduits() []*Node {
	var runs []*Node
	for _, n := range d.Nodes {
		if n.Kind == NodeConduit {
			runs = append(runs, n)
		}
	}
	return runs
}

// Fittings returns all fitting nodes in the document.
func (d *Document) Fittings() []*Node {
	var fittings []*Node
	for _, n := range d.Nodes {
		if n.Kind == NodeFitting {
			fittings = append(fittings, n)
		}
	}
	return fittings
}

// Children returns the child nodes of the given node.
func (d *Document) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := d.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of nodes.
func (d *Document) NodeCount() int {
	return len(d.Nodes)
}

// clone returns a copy with fresh maps and slices. Node pointers are
// shared with the original; callers must replace nodes, never mutate
// them through the clone.
func (d *Document) clone() *Document {
	next := &Document{
		ID:        d.ID,
		Nodes:     make(map[NodeID]*Node, len(d.Nodes)),
		Roots:     append([]NodeID(nil), d.Roots...),
		NameIndex: make(map[string]NodeID, len(d.NameIndex)),
		Defaults:  d.Defaults,
		Version:   d.Version,
	}
	for id, n := range d.Nodes {
		next.Nodes[id] = n
	}
	for name, id := range d.NameIndex {
		next.NameIndex[name] = id
	}
	return next
}
