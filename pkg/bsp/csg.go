package bsp

import (
	"github.com/chazu/kerf/pkg/logging"
)

// Union returns the boundary of the solid covered by a or b: the parts of
// a outside b and the parts of b outside a. Faces shared by both operands
// with the same orientation are kept once.
func Union(a, b *Tree) []Polygon {
	if a.IsEmpty() {
		return b.Polygons()
	}
	if b.IsEmpty() {
		return a.Polygons()
	}
	x, y := a.clone(), b.clone()
	x.clipTo(y)
	y.clipTo(x)
	y.invert()
	y.clipTo(x)
	y.invert()
	x.insert(y.Polygons())
	return result("union", x)
}

// Intersection returns the boundary of the solid covered by both a and b:
// the parts of a inside b and the parts of b inside a.
func Intersection(a, b *Tree) []Polygon {
	if a.IsEmpty() || b.IsEmpty() {
		return nil
	}
	x, y := a.clone(), b.clone()
	x.invert()
	y.clipTo(x)
	y.invert()
	x.clipTo(y)
	y.clipTo(x)
	x.insert(y.Polygons())
	x.invert()
	return result("intersection", x)
}

// Difference returns the boundary of a with b removed: the parts of a
// outside b and, inverted, the parts of b inside a.
func Difference(a, b *Tree) []Polygon {
	if a.IsEmpty() {
		return nil
	}
	if b.IsEmpty() {
		return a.Polygons()
	}
	x, y := a.clone(), b.clone()
	x.invert()
	x.clipTo(y)
	y.clipTo(x)
	y.invert()
	y.clipTo(x)
	y.invert()
	x.insert(y.Polygons())
	x.invert()
	return result("difference", x)
}

func result(op string, t *Tree) []Polygon {
	out := t.Polygons()
	logging.Logger().Debug("bsp: csg", "op", op, "fragments", len(out), "nodes", t.NodeCount())
	return out
}
