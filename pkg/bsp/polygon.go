package bsp

import (
	"math"

	"github.com/chazu/kerf/pkg/geom"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Polygon is a planar convex or concave loop. Vertices wind counter-clockwise
// seen from the front of Plane. Tag is carried unchanged through splits and
// CSG so callers can trace fragments back to their source faces.
type Polygon struct {
	Vertices []v3.Vec
	Plane    Plane
	Tag      int
}

// NewPolygon returns a polygon over a copy of verts with its plane derived
// from the Newell normal. A degenerate loop gets a zero plane; Build rejects
// it.
func NewPolygon(verts []v3.Vec, tag int) Polygon {
	p := Polygon{Vertices: append([]v3.Vec(nil), verts...), Tag: tag}
	if len(verts) == 0 {
		return p
	}
	n := geom.Newell(verts)
	if n.Length() == 0 {
		return p
	}
	n = n.Normalize()
	var c v3.Vec
	for _, v := range verts {
		c = c.Add(v)
	}
	c = c.DivScalar(float64(len(verts)))
	p.Plane = Plane{Normal: n, W: n.Dot(c)}
	return p
}

// Flip reverses the winding and the plane.
func (p Polygon) Flip() Polygon {
	return Polygon{Vertices: lo.Reverse(p.clone().Vertices), Plane: p.Plane.Flip(), Tag: p.Tag}
}

// Area returns the polygon's area.
func (p Polygon) Area() float64 {
	return geom.Newell(p.Vertices).Length() / 2
}

func (p Polygon) clone() Polygon {
	p.Vertices = append([]v3.Vec(nil), p.Vertices...)
	return p
}

// validate reports why p cannot enter a tree, wrapping ErrDegeneratePolygon.
func (p Polygon) validate(eps float64) error {
	if len(p.Vertices) < 3 {
		return errors.Wrapf(ErrDegeneratePolygon, "%d vertices", len(p.Vertices))
	}
	n := geom.Newell(p.Vertices)
	if n.Length() <= eps {
		return errors.Wrapf(ErrDegeneratePolygon, "zero area (normal length %g)", n.Length())
	}
	plane := NewPolygon(p.Vertices, 0).Plane
	for i, v := range p.Vertices {
		if d := plane.Distance(v); d > eps || d < -eps {
			return errors.Wrapf(ErrDegeneratePolygon, "non-planar: vertex %d is %g from the plane", i, d)
		}
	}
	// The stored plane must agree with the vertices: unit normal, same
	// orientation as the winding, every vertex on it.
	if l := p.Plane.Normal.Length(); math.Abs(l-1) > 1e-9 {
		return errors.Wrapf(ErrDegeneratePolygon, "plane normal has length %g", l)
	}
	if p.Plane.Normal.Dot(n) <= 0 {
		return errors.Wrapf(ErrDegeneratePolygon, "plane normal %v opposes the winding", p.Plane.Normal)
	}
	for i, v := range p.Vertices {
		if d := p.Plane.Distance(v); d > eps || d < -eps {
			return errors.Wrapf(ErrDegeneratePolygon, "vertex %d is %g from the stored plane", i, d)
		}
	}
	if i, j, ok := selfIntersection(p.Vertices, n); ok {
		return errors.Wrapf(ErrDegeneratePolygon, "self-intersecting: edges %d and %d cross", i, j)
	}
	return nil
}

// selfIntersection looks for two non-adjacent edges that properly cross
// once the loop is projected along the dominant axis of its normal.
func selfIntersection(loop []v3.Vec, n v3.Vec) (int, int, bool) {
	proj := project(loop, n)
	m := len(proj)
	for i := 0; i < m; i++ {
		a, b := proj[i], proj[(i+1)%m]
		for j := i + 2; j < m; j++ {
			if i == 0 && j == m-1 {
				continue
			}
			c, d := proj[j], proj[(j+1)%m]
			if properCross(a, b, c, d) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func properCross(a, b, c, d v2.Vec) bool {
	o1 := geom.Orient2D(a, b, c)
	o2 := geom.Orient2D(a, b, d)
	o3 := geom.Orient2D(c, d, a)
	o4 := geom.Orient2D(c, d, b)
	return o1*o2 < 0 && o3*o4 < 0
}

func project(loop []v3.Vec, n v3.Vec) []v2.Vec {
	a := n.Abs()
	return lo.Map(loop, func(v v3.Vec, _ int) v2.Vec {
		switch {
		case a.X >= a.Y && a.X >= a.Z:
			return v2.Vec{X: v.Y, Y: v.Z}
		case a.Y >= a.Z:
			return v2.Vec{X: v.Z, Y: v.X}
		}
		return v2.Vec{X: v.X, Y: v.Y}
	})
}
