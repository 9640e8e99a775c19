package triangulate

import (
	"math"

	"github.com/chazu/kerf/pkg/geom"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"
)

// Edge is an undirected edge A < B. Left is the triangle on the left of the
// directed edge A->B and Right the one on its right; either is -1 on the
// boundary.
type Edge struct {
	A, B        int
	Left, Right int
}

// IsBoundary reports whether the edge borders only one triangle.
func (e Edge) IsBoundary() bool {
	return e.Left < 0 || e.Right < 0
}

// NumVertices returns the number of input points.
func (t *Triangulation) NumVertices() int { return len(t.verts) }

// NumTriangles returns the number of live triangles.
func (t *Triangulation) NumTriangles() int { return len(t.tris) - len(t.free) }

// NumEdges returns the number of distinct edges.
func (t *Triangulation) NumEdges() int { return len(t.Edges()) }

// FlipCount returns the number of flips MakeDelaunay performed to produce t.
func (t *Triangulation) FlipCount() int { return t.flips }

// Passes returns the number of flip passes MakeDelaunay ran to produce t.
func (t *Triangulation) Passes() int { return t.passes }

// Vertex returns vertex v.
func (t *Triangulation) Vertex(v int) geom.Vertex2 { return t.verts[v] }

// Vertices returns a copy of the vertex list. Index equals ID.
func (t *Triangulation) Vertices() []geom.Vertex2 {
	out := make([]geom.Vertex2, len(t.verts))
	copy(out, t.verts)
	return out
}

// Triangles returns the live triangles compacted to indices 0..n-1, with
// neighbor links renumbered to match.
func (t *Triangulation) Triangles() []Triangle {
	remap := make([]int, len(t.tris))
	n := 0
	for i := range t.tris {
		remap[i] = -1
		if t.alive[i] {
			remap[i] = n
			n++
		}
	}
	out := make([]Triangle, 0, n)
	for i, tri := range t.tris {
		if !t.alive[i] {
			continue
		}
		for s := 0; s < 3; s++ {
			if tri.N[s] >= 0 {
				tri.N[s] = remap[tri.N[s]]
			}
		}
		out = append(out, tri)
	}
	return out
}

// Edges returns every edge once, ordered by the arena scan.
func (t *Triangulation) Edges() []Edge {
	var out []Edge
	for i, tri := range t.tris {
		if !t.alive[i] {
			continue
		}
		for s := 0; s < 3; s++ {
			n := tri.N[s]
			if n >= 0 && n < i {
				continue
			}
			x, y := tri.V[s], tri.V[(s+1)%3]
			if x < y {
				out = append(out, Edge{A: x, B: y, Left: i, Right: n})
			} else {
				out = append(out, Edge{A: y, B: x, Left: n, Right: i})
			}
		}
	}
	return out
}

// HasEdge reports whether a and b are joined by an edge.
func (t *Triangulation) HasEdge(a, b int) bool {
	for i, tri := range t.tris {
		if t.alive[i] && (tri.slot(a, b) >= 0 || tri.slot(b, a) >= 0) {
			return true
		}
	}
	return false
}

// IsDelaunay reports whether every interior edge is locally Delaunay, which
// for a triangulation implies no vertex lies strictly inside any
// triangle's circumcircle.
func (t *Triangulation) IsDelaunay() bool {
	for i := range t.tris {
		if !t.alive[i] {
			continue
		}
		for s := 0; s < 3; s++ {
			a, b, c, d, j := t.quad(i, s)
			if j < 0 {
				continue
			}
			if geom.InCircle(t.pos(a), t.pos(b), t.pos(c), t.pos(d)) > 0 {
				return false
			}
		}
	}
	return true
}

// Validate checks that t is a planar subdivision of the convex hull of its
// points: triangles are strictly counter-clockwise, neighbor links are
// symmetric, every vertex is used, the boundary is one convex loop and
// V - E + F = 1. The returned error wraps ErrInvalidTriangulation.
func (t *Triangulation) Validate() error {
	used := make([]bool, len(t.verts))
	bnext := make(map[int]int)

	for i, tri := range t.tris {
		if !t.alive[i] {
			continue
		}
		for _, v := range tri.V {
			if v < 0 || v >= len(t.verts) {
				return errors.Wrapf(ErrInvalidTriangulation, "triangle %d references vertex %d", i, v)
			}
			used[v] = true
		}
		if geom.Orient2D(t.pos(tri.V[0]), t.pos(tri.V[1]), t.pos(tri.V[2])) <= 0 {
			return errors.Wrapf(ErrInvalidTriangulation, "triangle %d %v is not counter-clockwise", i, tri.V)
		}
		for s := 0; s < 3; s++ {
			x, y := tri.V[s], tri.V[(s+1)%3]
			n := tri.N[s]
			if n < 0 {
				if _, dup := bnext[x]; dup {
					return errors.Wrapf(ErrInvalidTriangulation, "vertex %d starts two boundary edges", x)
				}
				bnext[x] = y
				continue
			}
			if n >= len(t.tris) || !t.alive[n] {
				return errors.Wrapf(ErrInvalidTriangulation, "triangle %d links to dead triangle %d", i, n)
			}
			back := t.tris[n].slot(y, x)
			if back < 0 || t.tris[n].N[back] != i {
				return errors.Wrapf(ErrInvalidTriangulation, "triangles %d and %d disagree on edge %d-%d", i, n, x, y)
			}
		}
	}

	for v, ok := range used {
		if !ok {
			return errors.Wrapf(ErrInvalidTriangulation, "vertex %d is not used", v)
		}
	}

	// The boundary must be a single loop turning left (or straight) at every
	// corner.
	var start int
	for v := range bnext {
		start = v
		break
	}
	steps := 0
	prev, cur := -1, start
	for {
		nxt, ok := bnext[cur]
		if !ok {
			return errors.Wrapf(ErrInvalidTriangulation, "boundary is open at vertex %d", cur)
		}
		if prev >= 0 && geom.Orient2D(t.pos(prev), t.pos(cur), t.pos(nxt)) < 0 {
			return errors.Wrapf(ErrInvalidTriangulation, "boundary is not convex at vertex %d", cur)
		}
		steps++
		prev, cur = cur, nxt
		if cur == start || steps > len(bnext) {
			break
		}
	}
	if steps != len(bnext) || cur != start {
		return errors.Wrapf(ErrInvalidTriangulation, "boundary has %d edges but its loop through %d has %d", len(bnext), start, steps)
	}
	if len(bnext) > 0 && geom.Orient2D(t.pos(prev), t.pos(start), t.pos(bnext[start])) < 0 {
		return errors.Wrapf(ErrInvalidTriangulation, "boundary is not convex at vertex %d", start)
	}

	v, e, f := len(t.verts), t.NumEdges(), t.NumTriangles()
	if v-e+f != 1 {
		return errors.Wrapf(ErrInvalidTriangulation, "euler characteristic V-E+F = %d-%d+%d != 1", v, e, f)
	}
	return nil
}

// triBox adapts a triangle's bounding box to the R-tree.
type triBox struct {
	idx  int
	rect rtreego.Rect
}

func (b *triBox) Bounds() rtreego.Rect { return b.rect }

func (t *Triangulation) locator() *rtreego.Rtree {
	t.locOnce.Do(func() {
		var objs []rtreego.Spatial
		for i, tri := range t.tris {
			if !t.alive[i] {
				continue
			}
			a, b, c := t.pos(tri.V[0]), t.pos(tri.V[1]), t.pos(tri.V[2])
			lo := rtreego.Point{math.Min(a.X, math.Min(b.X, c.X)), math.Min(a.Y, math.Min(b.Y, c.Y))}
			hi := rtreego.Point{math.Max(a.X, math.Max(b.X, c.X)), math.Max(a.Y, math.Max(b.Y, c.Y))}
			r, err := rtreego.NewRectFromPoints(lo, hi)
			if err != nil {
				panic(errors.Wrap(err, "triangulate: locator"))
			}
			objs = append(objs, &triBox{idx: i, rect: r})
		}
		t.loc = rtreego.NewTree(2, 4, 16, objs...)
	})
	return t.loc
}

// Locate returns the arena index of a triangle containing p, boundary
// included, or -1 when p lies outside the hull. When p is on an edge or
// vertex the lowest matching index wins.
func (t *Triangulation) Locate(p v2.Vec) int {
	tol := math.Max(1e-12, 1e-9*math.Max(math.Abs(p.X), math.Abs(p.Y)))
	best := -1
	for _, obj := range t.locator().SearchIntersect(rtreego.Point{p.X, p.Y}.ToRect(tol)) {
		i := obj.(*triBox).idx
		if best >= 0 && i > best {
			continue
		}
		tri := t.tris[i]
		a, b, c := t.pos(tri.V[0]), t.pos(tri.V[1]), t.pos(tri.V[2])
		if geom.Orient2D(a, b, p) >= 0 && geom.Orient2D(b, c, p) >= 0 && geom.Orient2D(c, a, p) >= 0 {
			best = i
		}
	}
	return best
}
