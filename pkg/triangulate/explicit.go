package triangulate

import (
	"github.com/chazu/kerf/pkg/geom"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/pkg/errors"
)

// FromTriangles builds a Triangulation from an explicit list of vertex
// index triples. Clockwise triples are reoriented; flat ones are rejected.
// The result must cover the convex hull of points exactly, which is checked
// with Validate.
func FromTriangles(points []v2.Vec, tris [][3]int, opts Options) (*Triangulation, error) {
	verts, _, err := checkPoints(points)
	if err != nil {
		return nil, err
	}
	t := &Triangulation{verts: verts, opts: opts}

	type halfEdge struct{ tri, slot int }
	owner := make(map[[2]int]halfEdge, 3*len(tris))

	for i, v := range tris {
		for _, x := range v {
			if x < 0 || x >= len(points) {
				return nil, errors.Wrapf(ErrInvalidTriangulation, "triangle %d references vertex %d", i, x)
			}
		}
		switch geom.Orient2D(points[v[0]], points[v[1]], points[v[2]]) {
		case 0:
			return nil, errors.Wrapf(ErrInvalidTriangulation, "triangle %d %v is flat", i, v)
		case -1:
			v[1], v[2] = v[2], v[1]
		}
		idx := t.alloc(newTriangle(v[0], v[1], v[2]))
		for s := 0; s < 3; s++ {
			key := [2]int{v[s], v[(s+1)%3]}
			if _, dup := owner[key]; dup {
				return nil, errors.Wrapf(ErrInvalidTriangulation, "edge %d->%d is used twice in the same direction", key[0], key[1])
			}
			owner[key] = halfEdge{tri: idx, slot: s}
		}
	}

	for key, h := range owner {
		if twin, ok := owner[[2]int{key[1], key[0]}]; ok {
			t.tris[h.tri].N[h.slot] = twin.tri
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
