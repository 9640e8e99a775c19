package bsp

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Side classifies a vertex or polygon against a plane. A polygon's side is
// the bitwise OR of its vertex sides, so Spanning == Front|Back.
type Side int

const (
	Coplanar Side = 0
	Front    Side = 1
	Back     Side = 2
	Spanning Side = 3
)

func (s Side) String() string {
	switch s {
	case Coplanar:
		return "coplanar"
	case Front:
		return "front"
	case Back:
		return "back"
	case Spanning:
		return "spanning"
	}
	return "unknown"
}

// Plane is the oriented plane n·p = W with unit normal n. Front is the side
// the normal points to.
type Plane struct {
	Normal v3.Vec
	W      float64
}

// PlaneFromPoints returns the plane through a, b and c, oriented so that
// they are counter-clockwise seen from the front. ok is false when the
// points are collinear.
func PlaneFromPoints(a, b, c v3.Vec) (p Plane, ok bool) {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Length() == 0 {
		return Plane{}, false
	}
	n = n.Normalize()
	return Plane{Normal: n, W: n.Dot(a)}, true
}

// Distance returns the signed distance of v from the plane.
func (p Plane) Distance(v v3.Vec) float64 {
	return p.Normal.Dot(v) - p.W
}

// Flip returns the plane with the opposite orientation.
func (p Plane) Flip() Plane {
	return Plane{Normal: p.Normal.Neg(), W: -p.W}
}

// Classify returns the side of v with tolerance eps.
func (p Plane) Classify(v v3.Vec, eps float64) Side {
	switch d := p.Distance(v); {
	case d < -eps:
		return Back
	case d > eps:
		return Front
	}
	return Coplanar
}

// split sorts poly into one of the four output lists, cutting spanning
// polygons in two. Fragments keep the source polygon's plane, winding and
// tag; a fragment with fewer than three vertices is dropped.
func (p Plane) split(poly Polygon, eps float64, aligned, opposed, front, back *[]Polygon) {
	sides := make([]Side, len(poly.Vertices))
	var whole Side
	for i, v := range poly.Vertices {
		sides[i] = p.Classify(v, eps)
		whole |= sides[i]
	}

	switch whole {
	case Coplanar:
		if p.Normal.Dot(poly.Plane.Normal) > 0 {
			*aligned = append(*aligned, poly)
		} else {
			*opposed = append(*opposed, poly)
		}
	case Front:
		*front = append(*front, poly)
	case Back:
		*back = append(*back, poly)
	case Spanning:
		var f, b []v3.Vec
		n := len(poly.Vertices)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			si, sj := sides[i], sides[j]
			vi, vj := poly.Vertices[i], poly.Vertices[j]
			if si != Back {
				f = append(f, vi)
			}
			if si != Front {
				b = append(b, vi)
			}
			if si|sj == Spanning {
				t := (p.W - p.Normal.Dot(vi)) / p.Normal.Dot(vj.Sub(vi))
				v := vi.Add(vj.Sub(vi).MulScalar(t))
				f = append(f, v)
				b = append(b, v)
			}
		}
		if len(f) >= 3 {
			*front = append(*front, Polygon{Vertices: f, Plane: poly.Plane, Tag: poly.Tag})
		}
		if len(b) >= 3 {
			*back = append(*back, Polygon{Vertices: b, Plane: poly.Plane, Tag: poly.Tag})
		}
	}
}
