package graph

import v3 "github.com/deadsy/sdfx/vec/v3"

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// PrimitiveKind distinguishes between primitive shapes.
type PrimitiveKind int

const (
	PrimBox      PrimitiveKind = iota // axis-aligned box, min corner at the origin
	PrimSphere                        // sphere centered at the origin
	PrimCylinder                      // cylinder centered on the z axis
)

func (k PrimitiveKind) String() string {
	switch k {
	case PrimBox:
		return "box"
	case PrimSphere:
		return "sphere"
	case PrimCylinder:
		return "cylinder"
	default:
		return "unknown"
	}
}

// BoxData is an axis-aligned box spanning [0, Size].
type BoxData struct {
	Size v3.Vec `json:"size"`
}

func (BoxData) nodeData() {}

// SphereData is a sphere of Radius. Segments is the tessellation hint for
// polygonal kernels; zero uses the graph default.
type SphereData struct {
	Radius   float64 `json:"radius"`
	Segments int     `json:"segments,omitempty"`
}

func (SphereData) nodeData() {}

// CylinderData is a cylinder along z spanning [-Height/2, Height/2].
type CylinderData struct {
	Height   float64 `json:"height"`
	Radius   float64 `json:"radius"`
	Segments int     `json:"segments,omitempty"`
}

func (CylinderData) nodeData() {}

// Primitive returns the shape kind of a primitive payload.
func Primitive(d NodeData) (PrimitiveKind, bool) {
	switch d.(type) {
	case BoxData:
		return PrimBox, true
	case SphereData:
		return PrimSphere, true
	case CylinderData:
		return PrimCylinder, true
	}
	return 0, false
}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData moves its single child. Rotation is applied first, as
// Euler angles in degrees about x, then y, then z; Translation second.
// Created by the (translate ...) and (rotate ...) Lisp forms.
type TransformData struct {
	Translation *v3.Vec `json:"translation,omitempty"`
	Rotation    *v3.Vec `json:"rotation,omitempty"`
}

func (TransformData) nodeData() {}

// IsIdentity reports whether the transform moves nothing.
func (t TransformData) IsIdentity() bool {
	zero := v3.Vec{}
	return (t.Translation == nil || *t.Translation == zero) &&
		(t.Rotation == nil || *t.Rotation == zero)
}

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// BooleanOp enumerates CSG operations.
type BooleanOp int

const (
	OpUnion BooleanOp = iota
	OpDifference
	OpIntersection
)

func (op BooleanOp) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpDifference:
		return "difference"
	case OpIntersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// BooleanData combines its children left to right: the first child is the
// accumulator and each following child is folded into it with Op.
type BooleanData struct {
	Op BooleanOp `json:"op"`
}

func (BooleanData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData collects independent parts. At the top of a scene each child is
// meshed separately; inside a boolean a group behaves as a union.
// Created by the (scene ...) Lisp form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
