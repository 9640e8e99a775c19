package graph

import "fmt"

// Minimum segment counts accepted by the polygonal kernel.
const (
	MinSphereSegments   = 4
	MinCylinderSegments = 3
)

// ---------------------------------------------------------------------------
// Tier 2: Geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

// validateGeometry runs all Tier 2 geometric checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateGeometry(g *Graph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	errs = append(errs, validateDimensions(g)...)
	errs = append(errs, validateSegments(g)...)

	arityErrs, arityWarnings := validateArity(g)
	errs = append(errs, arityErrs...)
	warnings = append(warnings, arityWarnings...)

	warnings = append(warnings, validateIdentityTransforms(g)...)

	return errs, warnings
}

func positive(id NodeID, what string, v float64) []ValidationError {
	if v > 0 {
		return nil
	}
	return []ValidationError{{
		NodeID:   id,
		Message:  fmt.Sprintf("%s is %.4f, must be positive", what, v),
		Severity: SeverityError,
	}}
}

// validateDimensions checks that every primitive has positive extents.
func validateDimensions(g *Graph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Nodes {
		switch d := node.Data.(type) {
		case BoxData:
			errs = append(errs, positive(node.ID, "box dimension X", d.Size.X)...)
			errs = append(errs, positive(node.ID, "box dimension Y", d.Size.Y)...)
			errs = append(errs, positive(node.ID, "box dimension Z", d.Size.Z)...)
		case SphereData:
			errs = append(errs, positive(node.ID, "sphere radius", d.Radius)...)
		case CylinderData:
			errs = append(errs, positive(node.ID, "cylinder radius", d.Radius)...)
			errs = append(errs, positive(node.ID, "cylinder height", d.Height)...)
		}
	}

	return errs
}

// validateSegments checks explicit segment hints. Zero means the default.
func validateSegments(g *Graph) []ValidationError {
	var errs []ValidationError

	check := func(id NodeID, what string, n, least int) {
		if n != 0 && n < least {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("%s segments is %d, need at least %d", what, n, least),
				Severity: SeverityError,
			})
		}
	}
	for _, node := range g.Nodes {
		switch d := node.Data.(type) {
		case SphereData:
			check(node.ID, "sphere", d.Segments, MinSphereSegments)
		case CylinderData:
			check(node.ID, "cylinder", d.Segments, MinCylinderSegments)
		}
	}

	return errs
}

// validateArity checks child counts per kind: primitives are leaves,
// transforms wrap exactly one child and booleans combine at least two.
// An empty group is only a warning.
func validateArity(g *Graph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	for _, node := range g.Nodes {
		n := len(node.Children)
		var msg string
		switch node.Kind {
		case NodePrimitive:
			if n != 0 {
				msg = fmt.Sprintf("primitive has %d children, want none", n)
			}
		case NodeTransform:
			if n != 1 {
				msg = fmt.Sprintf("transform has %d children, want exactly 1", n)
			}
		case NodeBoolean:
			if n < 2 {
				op := "boolean"
				if d, ok := node.Data.(BooleanData); ok {
					op = d.Op.String()
				}
				msg = fmt.Sprintf("%s has %d operands, need at least 2", op, n)
			}
		case NodeGroup:
			if n == 0 {
				warnings = append(warnings, ValidationWarning{
					NodeID:  node.ID,
					Message: fmt.Sprintf("group %q is empty", node.Label()),
				})
			}
		}
		if msg != "" {
			errs = append(errs, ValidationError{NodeID: node.ID, Message: msg, Severity: SeverityError})
		}
	}

	return errs, warnings
}

// validateIdentityTransforms warns about transforms that move nothing.
func validateIdentityTransforms(g *Graph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, node := range g.Nodes {
		td, ok := node.Data.(TransformData)
		if !ok || !td.IsIdentity() {
			continue
		}
		warnings = append(warnings, ValidationWarning{
			NodeID:  node.ID,
			Message: "transform has no translation or rotation",
		})
	}

	return warnings
}
