package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// NodeID is a content-addressed identifier for document nodes. The ID is
// assigned at creation and stays stable when a node's geometry is later
// replaced; ContentHash tracks the current payload.
type NodeID string

// ZeroID is the empty NodeID.
const ZeroID NodeID = ""

// NewNodeID derives a NodeID from a creation path such as a node name or
// "fitting/riser+branch-1".
func NewNodeID(path string) NodeID {
	sum := sha256.Sum256([]byte(path))
	return NodeID(hex.EncodeToString(sum[:]))
}

// IsZero reports whether the ID is unset.
func (id NodeID) IsZero() bool {
	return id == ZeroID
}

// Short returns an abbreviated form for log and error messages.
func (id NodeID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// ContentHash fingerprints a node's payload.
type ContentHash string

// HashData computes the content hash of a node payload.
func HashData(data NodeData) ContentHash {
	raw, err := json.Marshal(data)
	if err != nil {
		// Payload types are plain structs of floats and strings; this
		// cannot fail for data built by this package.
		raw = []byte(fmt.Sprintf("%#v", data))
	}
	sum := sha256.Sum256(raw)
	return ContentHash(hex.EncodeToString(sum[:]))
}
