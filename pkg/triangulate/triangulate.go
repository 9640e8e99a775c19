// Package triangulate builds 2D triangulations of point sets and upgrades
// them to Delaunay triangulations by edge flipping.
//
// Triangles live in an arena addressed by stable integer indices. A flip
// releases two indices and allocates two replacements, rewiring neighbor
// links by index. A Triangulation is never mutated after it is returned:
// MakeDelaunay works on a copy.
package triangulate

import (
	"math"
	"slices"
	"sync"

	"github.com/chazu/kerf/pkg/config"
	"github.com/chazu/kerf/pkg/geom"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"
)

var (
	// ErrDegenerateInput is returned when the points admit no triangulation:
	// fewer than three points, duplicates, non-finite coordinates, or all
	// points collinear.
	ErrDegenerateInput = errors.New("triangulate: degenerate input")

	// ErrInvalidTriangulation is returned when an explicit triangle list is
	// not a planar subdivision of the convex hull of its points.
	ErrInvalidTriangulation = errors.New("triangulate: invalid triangulation")
)

// Options configure triangulation.
type Options struct {
	// MaxFlipPasses bounds the number of full flip passes MakeDelaunay runs.
	// Zero runs until a pass performs no flips.
	MaxFlipPasses int
}

// OptionsFrom maps the shared configuration onto triangulation options.
func OptionsFrom(c config.Config) Options {
	return Options{MaxFlipPasses: c.MaxFlipPasses}
}

// Triangle is a counter-clockwise triple of vertex indices. N[i] is the
// triangle across edge (V[i], V[(i+1)%3]), or -1 on the boundary.
type Triangle struct {
	V [3]int
	N [3]int
}

// slot returns i such that edge i runs a->b, or -1.
func (t *Triangle) slot(a, b int) int {
	for i := 0; i < 3; i++ {
		if t.V[i] == a && t.V[(i+1)%3] == b {
			return i
		}
	}
	return -1
}

// Has reports whether v is a corner of t.
func (t Triangle) Has(v int) bool {
	return t.V[0] == v || t.V[1] == v || t.V[2] == v
}

// Triangulation is a planar subdivision of the convex hull of a point set.
type Triangulation struct {
	verts []geom.Vertex2
	tris  []Triangle
	alive []bool
	free  []int
	opts  Options

	flips  int
	passes int

	locOnce sync.Once
	loc     *rtreego.Rtree
}

// alloc stores tri in a free slot and returns its index.
func (t *Triangulation) alloc(tri Triangle) int {
	if n := len(t.free); n > 0 {
		i := t.free[n-1]
		t.free = t.free[:n-1]
		t.tris[i] = tri
		t.alive[i] = true
		return i
	}
	t.tris = append(t.tris, tri)
	t.alive = append(t.alive, true)
	return len(t.tris) - 1
}

func (t *Triangulation) release(i int) {
	t.alive[i] = false
	t.tris[i] = Triangle{V: [3]int{-1, -1, -1}, N: [3]int{-1, -1, -1}}
	t.free = append(t.free, i)
}

func (t *Triangulation) pos(v int) v2.Vec {
	return t.verts[v].Pos
}

// join links slot sa of triangle a with slot sb of triangle b.
func (t *Triangulation) join(a, sa, b, sb int) {
	t.tris[a].N[sa] = b
	t.tris[b].N[sb] = a
}

// attach links slot sa of triangle a to b, which must hold the reversed edge.
func (t *Triangulation) attach(a, sa, b int) {
	x, y := t.tris[a].V[sa], t.tris[a].V[(sa+1)%3]
	sb := t.tris[b].slot(y, x)
	if sb < 0 {
		panic(errors.Errorf("triangulate: triangle %d has no edge %d->%d", b, y, x))
	}
	t.join(a, sa, b, sb)
}

// relink points the slot of triangle n holding edge x->y at to.
func (t *Triangulation) relink(n, x, y, to int) {
	if n < 0 {
		return
	}
	s := t.tris[n].slot(x, y)
	if s < 0 {
		panic(errors.Errorf("triangulate: triangle %d has no edge %d->%d", n, x, y))
	}
	t.tris[n].N[s] = to
}

func newTriangle(a, b, c int) Triangle {
	return Triangle{V: [3]int{a, b, c}, N: [3]int{-1, -1, -1}}
}

// checkPoints wraps the points as vertices and rejects inputs no
// triangulation can be built from.
func checkPoints(points []v2.Vec) ([]geom.Vertex2, []int, error) {
	if len(points) < 3 {
		return nil, nil, errors.Wrapf(ErrDegenerateInput, "need at least 3 points, got %d", len(points))
	}
	verts := make([]geom.Vertex2, len(points))
	for i, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, nil, errors.Wrapf(ErrDegenerateInput, "point %d is not finite", i)
		}
		verts[i] = geom.Vertex2{ID: i, Pos: p}
	}

	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		switch {
		case geom.Less(points[a], points[b]):
			return -1
		case geom.Less(points[b], points[a]):
			return 1
		}
		return a - b
	})
	for i := 1; i < len(order); i++ {
		if points[order[i-1]] == points[order[i]] {
			return nil, nil, errors.Wrapf(ErrDegenerateInput, "points %d and %d coincide", order[i-1], order[i])
		}
	}
	return verts, order, nil
}

// Triangulate returns a triangulation of the convex hull of points. The
// result is valid but in general not Delaunay; pass it to MakeDelaunay.
// Vertex IDs are the indices into points.
//
// The triangulation is built by a lexicographic sweep: points are sorted by
// (x, y) and each one is connected to every hull edge it strictly sees.
func Triangulate(points []v2.Vec, opts Options) (*Triangulation, error) {
	verts, order, err := checkPoints(points)
	if err != nil {
		return nil, err
	}

	k := 2
	for k < len(order) && geom.Orient2D(points[order[0]], points[order[1]], points[order[k]]) == 0 {
		k++
	}
	if k == len(order) {
		return nil, errors.Wrapf(ErrDegenerateInput, "all %d points are collinear", len(points))
	}

	t := &Triangulation{verts: verts, opts: opts}
	s := &sweep{
		t:       t,
		next:    make([]int, len(points)),
		prev:    make([]int, len(points)),
		hullTri: make([]int, len(points)),
	}
	s.seed(order[:k], order[k])
	for i := k + 1; i < len(order); i++ {
		if err := s.insert(order[i-1], order[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// sweep holds the counter-clockwise convex hull during construction.
// hullTri[v] is the triangle owning hull edge v->next[v].
type sweep struct {
	t       *Triangulation
	next    []int
	prev    []int
	hullTri []int
}

func (s *sweep) link(v, w, tri int) {
	s.next[v] = w
	s.prev[w] = v
	s.hullTri[v] = tri
}

// seed fans the collinear run to p, the first point off its line.
func (s *sweep) seed(run []int, p int) {
	t := s.t
	ccw := geom.Orient2D(t.pos(run[0]), t.pos(run[1]), t.pos(p)) > 0

	fan := make([]int, 0, len(run)-1)
	for i := 0; i+1 < len(run); i++ {
		a, b := run[i], run[i+1]
		if !ccw {
			a, b = b, a
		}
		fan = append(fan, t.alloc(newTriangle(a, b, p)))
	}
	// Consecutive fan triangles share the edge from run[i+1] to p.
	for i := 1; i < len(fan); i++ {
		if ccw {
			t.join(fan[i-1], 1, fan[i], 2)
		} else {
			t.join(fan[i-1], 2, fan[i], 1)
		}
	}

	last := len(run) - 1
	if ccw {
		for i := 0; i < last; i++ {
			s.link(run[i], run[i+1], fan[i])
		}
		s.link(run[last], p, fan[last-1])
		s.link(p, run[0], fan[0])
		return
	}
	s.link(run[0], p, fan[0])
	s.link(p, run[last], fan[last-1])
	for i := last; i > 0; i-- {
		s.link(run[i], run[i-1], fan[i-1])
	}
}

// insert connects p to the hull edges it sees. q is the previously inserted
// point; it is the lexicographic maximum of the hull, so the visible chain
// always contains an edge incident to q.
func (s *sweep) insert(q, p int) error {
	t := s.t
	pp := t.pos(p)

	var fwd []int
	b := q
	for {
		w := s.next[b]
		if geom.Orient2D(t.pos(b), t.pos(w), pp) >= 0 {
			break
		}
		tri := t.alloc(newTriangle(w, b, p))
		t.attach(tri, 0, s.hullTri[b])
		if n := len(fwd); n > 0 {
			t.join(fwd[n-1], 2, tri, 1)
		}
		fwd = append(fwd, tri)
		b = w
	}

	var bwd []int
	a := q
	for {
		u := s.prev[a]
		if geom.Orient2D(t.pos(u), t.pos(a), pp) >= 0 {
			break
		}
		tri := t.alloc(newTriangle(a, u, p))
		t.attach(tri, 0, s.hullTri[u])
		if n := len(bwd); n > 0 {
			t.join(bwd[n-1], 1, tri, 2)
		}
		bwd = append(bwd, tri)
		a = u
	}

	switch {
	case len(fwd) == 0 && len(bwd) == 0:
		return errors.Wrapf(ErrDegenerateInput, "point %d sees no hull edge", p)
	case len(fwd) > 0 && len(bwd) > 0:
		t.join(fwd[0], 1, bwd[0], 2)
	}

	if n := len(bwd); n > 0 {
		s.link(a, p, bwd[n-1])
	} else {
		s.link(a, p, fwd[0])
	}
	if n := len(fwd); n > 0 {
		s.link(p, b, fwd[n-1])
	} else {
		s.link(p, b, bwd[0])
	}
	return nil
}
