package mesh

import (
	"slices"

	"github.com/chazu/kerf/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
)

// HalfEdge is one directed side of an edge. Twin is -1 on a boundary.
type HalfEdge struct {
	Origin int
	Twin   int
	Next   int
	Prev   int
	Face   int
}

// HEDS is a half-edge data structure built from an IFS. The half-edges of
// face f are stored contiguously in loop order starting at FaceEdge(f).
type HEDS struct {
	verts    []geom.Vertex3
	edges    []HalfEdge
	faceEdge []int
	vertEdge []int
}

// BuildHEDS derives a half-edge structure from m. Each undirected edge must
// be used by at most two faces and, when shared, traversed in opposite
// directions; otherwise ErrNonManifold is returned.
func BuildHEDS(m *IFS) (*HEDS, error) {
	h := &HEDS{
		verts:    append([]geom.Vertex3(nil), m.verts...),
		faceEdge: make([]int, len(m.faces)),
		vertEdge: make([]int, len(m.verts)),
	}
	for i := range h.vertEdge {
		h.vertEdge[i] = -1
	}

	directed := make(map[[2]int]int)
	for f, loop := range m.faces {
		base := len(h.edges)
		h.faceEdge[f] = base
		n := len(loop)
		for i, v := range loop {
			e := base + i
			key := [2]int{v, loop[(i+1)%n]}
			if prev, ok := directed[key]; ok {
				return nil, errors.Wrapf(ErrNonManifold,
					"edge %d->%d traversed in the same direction by faces %d and %d",
					key[0], key[1], h.edges[prev].Face, f)
			}
			directed[key] = e
			h.edges = append(h.edges, HalfEdge{
				Origin: v,
				Twin:   -1,
				Next:   base + (i+1)%n,
				Prev:   base + (i+n-1)%n,
				Face:   f,
			})
			if h.vertEdge[v] < 0 {
				h.vertEdge[v] = e
			}
		}
	}

	// A directed edge appears at most once, so each undirected edge has at
	// most two half-edges and the twin lookup cannot find a third face.
	for key, e := range directed {
		if t, ok := directed[[2]int{key[1], key[0]}]; ok {
			h.edges[e].Twin = t
		}
	}

	// Prefer a boundary half-edge as a vertex's representative so that the
	// outgoing walk can start at one end of the fan.
	for e := range h.edges {
		if h.edges[e].Twin < 0 {
			h.vertEdge[h.edges[e].Origin] = e
		}
	}
	return h, nil
}

// NumVertices returns the vertex count.
func (h *HEDS) NumVertices() int { return len(h.verts) }

// NumFaces returns the face count.
func (h *HEDS) NumFaces() int { return len(h.faceEdge) }

// NumHalfEdges returns the half-edge count.
func (h *HEDS) NumHalfEdges() int { return len(h.edges) }

// NumEdges returns the number of undirected edges.
func (h *HEDS) NumEdges() int {
	n := 0
	for e, he := range h.edges {
		if he.Twin < 0 || e < he.Twin {
			n++
		}
	}
	return n
}

// Vertex returns vertex v.
func (h *HEDS) Vertex(v int) geom.Vertex3 { return h.verts[v] }

// HalfEdge returns half-edge e.
func (h *HEDS) HalfEdge(e int) HalfEdge { return h.edges[e] }

// FaceEdge returns the first half-edge of face f.
func (h *HEDS) FaceEdge(f int) int { return h.faceEdge[f] }

// VertexEdge returns an outgoing half-edge of v, or -1 for an unused vertex.
// Boundary vertices report their boundary half-edge.
func (h *HEDS) VertexEdge(v int) int { return h.vertEdge[v] }

// Dest returns the destination vertex of half-edge e.
func (h *HEDS) Dest(e int) int { return h.edges[h.edges[e].Next].Origin }

// FaceLoop returns the vertex loop of face f in its original order.
func (h *HEDS) FaceLoop(f int) []int {
	var out []int
	start := h.faceEdge[f]
	for e := start; ; {
		out = append(out, h.edges[e].Origin)
		e = h.edges[e].Next
		if e == start {
			break
		}
	}
	return out
}

// FacePositions returns the positions of face f's loop.
func (h *HEDS) FacePositions(f int) []v3.Vec {
	loop := h.FaceLoop(f)
	out := make([]v3.Vec, len(loop))
	for i, v := range loop {
		out[i] = h.verts[v].Pos
	}
	return out
}

// Outgoing returns the half-edges leaving v. On an interior vertex they are
// in rotational order; on a boundary vertex the walk starts at the boundary
// half-edge and continues until the fan is exhausted in both directions.
func (h *HEDS) Outgoing(v int) []int {
	start := h.vertEdge[v]
	if start < 0 {
		return nil
	}
	var out []int
	seen := make(map[int]bool)
	// Rotate with twin(prev(e)): the next outgoing edge around v.
	for e := start; e >= 0 && !seen[e]; {
		seen[e] = true
		out = append(out, e)
		t := h.edges[h.edges[e].Prev].Twin
		if t < 0 {
			break
		}
		e = t
	}
	// Rotate the other way with next(twin(e)) to pick up the remaining
	// fan of a vertex with more than one boundary gap.
	for e := start; ; {
		t := h.edges[e].Twin
		if t < 0 {
			break
		}
		e = h.edges[t].Next
		if seen[e] {
			break
		}
		seen[e] = true
		out = append(out, e)
	}
	// Non-manifold vertices (two fans touching at a point) are not reachable
	// by rotation; sweep for any stragglers.
	for e, he := range h.edges {
		if he.Origin == v && !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// VertexNeighbors returns the vertices sharing an edge with v, without
// duplicates.
func (h *HEDS) VertexNeighbors(v int) []int {
	var out []int
	add := func(u int) {
		if !slices.Contains(out, u) {
			out = append(out, u)
		}
	}
	for _, e := range h.Outgoing(v) {
		add(h.Dest(e))
		// The incoming edge of the same face covers a boundary neighbor
		// that has no outgoing half-edge back to v.
		add(h.edges[h.edges[e].Prev].Origin)
	}
	return out
}

// FacesAroundVertex returns the faces incident on v.
func (h *HEDS) FacesAroundVertex(v int) []int {
	var out []int
	for _, e := range h.Outgoing(v) {
		if f := h.edges[e].Face; !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// FaceNeighbors returns the faces sharing an edge with f.
func (h *HEDS) FaceNeighbors(f int) []int {
	var out []int
	start := h.faceEdge[f]
	for e := start; ; {
		if t := h.edges[e].Twin; t >= 0 {
			if g := h.edges[t].Face; g != f && !slices.Contains(out, g) {
				out = append(out, g)
			}
		}
		e = h.edges[e].Next
		if e == start {
			break
		}
	}
	return out
}

// BoundaryLoops returns the boundary as closed loops of half-edges. Each
// loop follows boundary half-edges head to tail.
func (h *HEDS) BoundaryLoops() [][]int {
	// Map each boundary origin to its outgoing boundary half-edges.
	from := make(map[int][]int)
	for e, he := range h.edges {
		if he.Twin < 0 {
			from[he.Origin] = append(from[he.Origin], e)
		}
	}
	used := make(map[int]bool)
	var loops [][]int
	for e, he := range h.edges {
		if he.Twin >= 0 || used[e] {
			continue
		}
		var loop []int
		for cur := e; cur >= 0 && !used[cur]; {
			used[cur] = true
			loop = append(loop, cur)
			next := -1
			for _, c := range from[h.Dest(cur)] {
				if !used[c] {
					next = c
					break
				}
			}
			cur = next
		}
		loops = append(loops, loop)
	}
	return loops
}

// IsClosed reports whether every half-edge has a twin.
func (h *HEDS) IsClosed() bool {
	for _, he := range h.edges {
		if he.Twin < 0 {
			return false
		}
	}
	return true
}

// EulerCharacteristic returns V - E + F over the vertices used by faces.
func (h *HEDS) EulerCharacteristic() int {
	used := 0
	for _, e := range h.vertEdge {
		if e >= 0 {
			used++
		}
	}
	return used - h.NumEdges() + h.NumFaces()
}
