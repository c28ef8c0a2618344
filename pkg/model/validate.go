package model

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks the
// document or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks the document
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if document-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Validate runs all Tier 1 structural validation checks on the document
// and returns a slice of validation errors. An empty slice means the
// document is structurally valid. Read-only; never mutates the document.
func Validate(d *Document) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(d)...)
	errs = append(errs, validateReferences(d)...)
	errs = append(errs, validateNames(d)...)
	errs = append(errs, validateRoots(d)...)
	errs = append(errs, validateConnectorEnds(d)...)
	errs = append(errs, validateFittingParts(d)...)
	return errs
}

// ValidateAll runs all validation tiers (structural, geometric, trade)
// and returns a ValidationResult with separated errors and warnings.
func ValidateAll(d *Document) ValidationResult {
	// Tier 1: structural validation.
	tier1 := Validate(d)

	// Tier 2: geometric validation.
	tier2Errs, tier2Warnings := validateGeometry(d)

	// Tier 3: trade-size warnings.
	tier3Warnings := validateTrade(d)

	// Separate Tier 1 findings into errors and warnings.
	var result ValidationResult
	for _, e := range tier1 {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{
				NodeID:  e.NodeID,
				Message: e.Message,
			})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	result.Errors = append(result.Errors, tier2Errs...)
	result.Warnings = append(result.Warnings, tier2Warnings...)
	result.Warnings = append(result.Warnings, tier3Warnings...)

	return result
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) =
// fully explored. A gray node reached during traversal is a cycle.
func validateDAG(d *Document) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int) // default zero = white
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray

		node, ok := d.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}

		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}

		color[id] = black
		return false
	}

	// Start DFS from every node to catch disconnected components.
	for id := range d.Nodes {
		if color[id] == white {
			if visit(id) {
				// One cycle error is sufficient; stop early.
				break
			}
		}
	}

	return errs
}

// validateReferences checks that every NodeID referenced anywhere in the
// document points to a node that actually exists.
func validateReferences(d *Document) []ValidationError {
	var errs []ValidationError

	for _, node := range d.Nodes {
		for _, childID := range node.Children {
			if _, ok := d.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}

		if fd, ok := node.Data.(FittingData); ok {
			if !fd.A.Conduit.IsZero() {
				if _, ok := d.Nodes[fd.A.Conduit]; !ok {
					errs = append(errs, ValidationError{
						NodeID:   node.ID,
						Message:  fmt.Sprintf("fitting connector a reference %s does not exist", fd.A.Conduit.Short()),
						Severity: SeverityError,
					})
				}
			}
			if !fd.B.Conduit.IsZero() {
				if _, ok := d.Nodes[fd.B.Conduit]; !ok {
					errs = append(errs, ValidationError{
						NodeID:   node.ID,
						Message:  fmt.Sprintf("fitting connector b reference %s does not exist", fd.B.Conduit.Short()),
						Severity: SeverityError,
					})
				}
			}
		}
	}

	return errs
}

// validateNames checks that the NameIndex is injective (no two nodes
// share the same name) and that every entry points to an existing node.
func validateNames(d *Document) []ValidationError {
	var errs []ValidationError

	for name, id := range d.NameIndex {
		if _, ok := d.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	for id, node := range d.Nodes {
		if node.Name != "" {
			nameToNodes[node.Name] = append(nameToNodes[node.Name], id)
		}
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateRoots checks that every root ID references an existing node
// and warns about orphan nodes (nodes unreachable from any root).
func validateRoots(d *Document) []ValidationError {
	var errs []ValidationError

	for _, rid := range d.Roots {
		if _, ok := d.Nodes[rid]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
		}
	}

	if len(d.Nodes) == 0 {
		return errs
	}

	// Orphan detection: BFS from all roots through Children edges and
	// fitting connector references.
	reachable := make(map[NodeID]bool)
	queue := make([]NodeID, 0, len(d.Roots))
	for _, rid := range d.Roots {
		if _, ok := d.Nodes[rid]; ok {
			if !reachable[rid] {
				reachable[rid] = true
				queue = append(queue, rid)
			}
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := d.Nodes[current]
		if node == nil {
			continue
		}

		for _, childID := range node.Children {
			if !reachable[childID] {
				reachable[childID] = true
				queue = append(queue, childID)
			}
		}

		if fd, ok := node.Data.(FittingData); ok {
			if !fd.A.Conduit.IsZero() && !reachable[fd.A.Conduit] {
				reachable[fd.A.Conduit] = true
				queue = append(queue, fd.A.Conduit)
			}
			if !fd.B.Conduit.IsZero() && !reachable[fd.B.Conduit] {
				reachable[fd.B.Conduit] = true
				queue = append(queue, fd.B.Conduit)
			}
		}
	}

	for id, node := range d.Nodes {
		if !reachable[id] {
			name := node.Name
			if name == "" {
				name = id.Short()
			}
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("node %q is not reachable from any root (orphan)", name),
				Severity: SeverityWarning,
			})
		}
	}

	return errs
}

// validateConnectorEnds checks that every End used in FittingData is a
// valid end selector (start/end).
func validateConnectorEnds(d *Document) []ValidationError {
	var errs []ValidationError

	for _, node := range d.Nodes {
		if fd, ok := node.Data.(FittingData); ok {
			if !ValidEnds[fd.A.End] {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("invalid connector end a %q", fd.A.End),
					Severity: SeverityError,
				})
			}
			if !ValidEnds[fd.B.End] {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("invalid connector end b %q", fd.B.End),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}

// validateFittingParts checks that fitting nodes reference conduit nodes
// on both sides and that a fitting does not join a conduit end to the
// same conduit's same end (self-fitting).
func validateFittingParts(d *Document) []ValidationError {
	var errs []ValidationError

	for _, node := range d.Nodes {
		fd, ok := node.Data.(FittingData)
		if !ok {
			continue
		}

		// Self-fitting check. Joining the two ends of one short run is
		// equally meaningless, so same conduit on both sides is an error.
		if fd.A.Conduit == fd.B.Conduit {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  "fitting references the same conduit for both connectors (self-fitting)",
				Severity: SeverityError,
			})
		}

		if a, ok := d.Nodes[fd.A.Conduit]; ok {
			if a.Kind != NodeConduit {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("fitting connector a %s is %s, not conduit", fd.A.Conduit.Short(), a.Kind),
					Severity: SeverityError,
				})
			}
		}

		if b, ok := d.Nodes[fd.B.Conduit]; ok {
			if b.Kind != NodeConduit {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("fitting connector b %s is %s, not conduit", fd.B.Conduit.Short(), b.Kind),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}
