// Package kernel defines the abstract solid modeling kernel interface.
// Implementations (bsp, sdfx) provide primitives and boolean operations
// behind this interface so the scene graph can be evaluated by either
// backend without change.
package kernel

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Solid is an opaque handle to a kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)

	// Contains reports whether p lies strictly inside the solid.
	Contains(p v3.Vec) bool
}

// Kernel is the abstract solid modeling interface.
//
// Box has its minimum corner at the origin. Sphere is centered on the
// origin and Cylinder is centered on the origin along the z axis.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) (Solid, error)
	Sphere(radius float64, segments int) (Solid, error)
	Cylinder(height, radius float64, segments int) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
