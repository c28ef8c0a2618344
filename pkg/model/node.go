package model

// NodeKind enumerates the types of nodes in the conduit document.
type NodeKind int

const (
	NodeConduit NodeKind = iota // straight conduit run
	NodeFitting                 // joint between two conduit ends
	NodeGroup                   // logical grouping (circuit, riser bank)
)

func (k NodeKind) String() string {
	switch k {
	case NodeConduit:
		return "conduit"
	case NodeFitting:
		return "fitting"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// SourceRef points back at the Lisp expression that created a node.
type SourceRef struct {
	Line int    `json:"line,omitempty"`
	Expr string `json:"expr,omitempty"`
}

// Node is the fundamental element of the document.
type Node struct {
	ID          NodeID      `json:"id"`
	Kind        NodeKind    `json:"kind"`
	Name        string      `json:"name,omitempty"`
	Source      SourceRef   `json:"source"`
	ContentHash ContentHash `json:"content_hash"`
	Children    []NodeID    `json:"children,omitempty"`
	Data        NodeData    `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
