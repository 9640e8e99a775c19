package triangulate

import (
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/logging"
)

// MakeDelaunay returns a Delaunay triangulation of the same point set. The
// argument is not modified.
//
// Non-locally-Delaunay interior edges are flipped in full passes over the
// arena until a pass performs no flip. Every flip strictly lowers the
// lifted-paraboloid volume, or, for co-circular quadrilaterals, replaces the
// diagonal with the one whose (min ID, max ID) key is lexicographically
// smaller, so the loop terminates and co-circular input resolves to the same
// diagonals on every run.
func MakeDelaunay(t *Triangulation) *Triangulation {
	d := t.clone()
	log := logging.Logger()

	for {
		n := d.flipPass()
		d.passes++
		d.flips += n
		log.Debug("triangulate: flip pass", "pass", d.passes, "flips", n)
		if n == 0 {
			break
		}
		if d.opts.MaxFlipPasses > 0 && d.passes >= d.opts.MaxFlipPasses {
			log.Warn("triangulate: flip pass limit reached", "passes", d.passes, "flips", d.flips)
			break
		}
	}
	return d
}

func (t *Triangulation) flipPass() int {
	flips := 0
	for i := range t.tris {
		if !t.alive[i] {
			continue
		}
		for s := 0; s < 3; s++ {
			if !t.shouldFlip(i, s) {
				continue
			}
			t.flip(i, s)
			flips++
			if !t.alive[i] {
				break
			}
			// Slot i now holds a replacement triangle; rescan it.
			s = -1
		}
	}
	return flips
}

// quad returns the corners of the quadrilateral around edge s of triangle i:
// the edge a->b, the apex c of i and the apex d of the neighbor j.
func (t *Triangulation) quad(i, s int) (a, b, c, d, j int) {
	tri := &t.tris[i]
	j = tri.N[s]
	a, b, c = tri.V[s], tri.V[(s+1)%3], tri.V[(s+2)%3]
	if j < 0 {
		return a, b, c, -1, -1
	}
	nb := &t.tris[j]
	d = nb.V[(nb.slot(b, a)+2)%3]
	return a, b, c, d, j
}

// shouldFlip reports whether edge s of triangle i is an interior edge that
// fails the local Delaunay test and can be flipped.
func (t *Triangulation) shouldFlip(i, s int) bool {
	a, b, c, d, j := t.quad(i, s)
	if j < 0 {
		return false
	}
	pa, pb, pc, pd := t.pos(a), t.pos(b), t.pos(c), t.pos(d)

	// The new diagonal c-d must separate a from b strictly, or one of the
	// replacement triangles would be inverted or flat.
	if geom.Orient2D(pc, pd, pa)*geom.Orient2D(pc, pd, pb) >= 0 {
		return false
	}

	switch geom.InCircle(pa, pb, pc, pd) {
	case 1:
		return true
	case 0:
		return t.edgeKeyLess(c, d, a, b)
	}
	return false
}

// edgeKeyLess orders undirected edges by their (min ID, max ID) key.
func (t *Triangulation) edgeKeyLess(a, b, c, d int) bool {
	a, b = t.verts[a].ID, t.verts[b].ID
	c, d = t.verts[c].ID, t.verts[d].ID
	if a > b {
		a, b = b, a
	}
	if c > d {
		c, d = d, c
	}
	if a != c {
		return a < c
	}
	return b < d
}

// flip replaces edge a-b, shared by (a,b,c) and (b,a,d), with c-d. Both
// arena slots are released and two triangles (c,a,d) and (d,b,c) are
// allocated in their place.
func (t *Triangulation) flip(i, s int) {
	a, b, c, d, j := t.quad(i, s)
	ti, tj := t.tris[i], t.tris[j]
	sj := tj.slot(b, a)

	nbc := ti.N[(s+1)%3]
	nca := ti.N[(s+2)%3]
	nad := tj.N[(sj+1)%3]
	ndb := tj.N[(sj+2)%3]

	t.release(i)
	t.release(j)
	t1 := t.alloc(newTriangle(c, a, d))
	t2 := t.alloc(newTriangle(d, b, c))
	t.tris[t1].N = [3]int{nca, nad, t2}
	t.tris[t2].N = [3]int{ndb, nbc, t1}

	t.relink(nca, a, c, t1)
	t.relink(nad, d, a, t1)
	t.relink(ndb, b, d, t2)
	t.relink(nbc, c, b, t2)
}

// clone deep-copies the arena. Flip statistics are reset.
func (t *Triangulation) clone() *Triangulation {
	c := &Triangulation{
		verts: t.verts,
		tris:  make([]Triangle, len(t.tris)),
		alive: make([]bool, len(t.alive)),
		free:  make([]int, len(t.free)),
		opts:  t.opts,
	}
	copy(c.tris, t.tris)
	copy(c.alive, t.alive)
	copy(c.free, t.free)
	return c
}
