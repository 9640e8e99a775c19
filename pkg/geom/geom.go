// Package geom provides the vertex types and exact geometric predicates
// shared by the triangulation and mesh packages. Positions use the sdfx
// vector types so values pass straight into the sdfx kernel.
package geom

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vertex2 is an immutable 2D position with a stable identifier. The ID is
// the index of the point in the caller's input.
type Vertex2 struct {
	ID  int
	Pos v2.Vec
}

func (v Vertex2) String() string {
	return fmt.Sprintf("#%d(%g, %g)", v.ID, v.Pos.X, v.Pos.Y)
}

// Vertex3 is an immutable 3D position with a stable identifier.
type Vertex3 struct {
	ID  int
	Pos v3.Vec
}

func (v Vertex3) String() string {
	return fmt.Sprintf("#%d(%g, %g, %g)", v.ID, v.Pos.X, v.Pos.Y, v.Pos.Z)
}

// Less orders positions lexicographically by (x, y).
func Less(a, b v2.Vec) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// Newell returns the unnormalized Newell normal of a closed loop. Its length
// is twice the loop's area and it points along the CCW side.
func Newell(loop []v3.Vec) v3.Vec {
	var n v3.Vec
	for i := range loop {
		a, b := loop[i], loop[(i+1)%len(loop)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}
