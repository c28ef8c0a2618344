// Package model defines the conduit document for Raceway.
// The document is an immutable DAG of conduit runs, fittings, and
// groups; each evaluation or applied connection produces a new document
// rather than mutating in place.
package model
