// Package mesh provides the indexed face set (IFS) and half-edge (HEDS)
// representations of polygonal meshes.
//
// An IFS is a vertex array plus faces given as loops of vertex indices; it
// stores no adjacency, so adjacency queries scan the faces. A HEDS is
// derived from an IFS and answers adjacency queries in time proportional to
// the answer. Both are immutable once built.
package mesh

import (
	"github.com/chazu/kerf/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var (
	// ErrInvalidFace is returned by BuildIFS for a face with an out-of-range
	// index or fewer than three distinct vertices.
	ErrInvalidFace = errors.New("mesh: invalid face")

	// ErrNonManifold is returned by BuildHEDS when an edge is shared by more
	// than two faces, or by two faces traversing it in the same direction.
	ErrNonManifold = errors.New("mesh: non-manifold edge")
)

// IFS is an indexed face set.
type IFS struct {
	verts []geom.Vertex3
	faces [][]int
}

// BuildIFS validates and stores vertices and faces. Face loops are copied.
// A vertex may appear at most once in a loop; every face must name at least
// three distinct in-range vertices.
func BuildIFS(vertices []v3.Vec, faces [][]int) (*IFS, error) {
	m := &IFS{
		verts: make([]geom.Vertex3, len(vertices)),
		faces: make([][]int, len(faces)),
	}
	for i, p := range vertices {
		m.verts[i] = geom.Vertex3{ID: i, Pos: p}
	}
	for f, loop := range faces {
		for _, v := range loop {
			if v < 0 || v >= len(vertices) {
				return nil, errors.Wrapf(ErrInvalidFace, "face %d references vertex %d of %d", f, v, len(vertices))
			}
		}
		if n := len(lo.Uniq(loop)); n < 3 {
			return nil, errors.Wrapf(ErrInvalidFace, "face %d has %d distinct vertices", f, n)
		}
		if dup := lo.FindDuplicates(loop); len(dup) > 0 {
			return nil, errors.Wrapf(ErrInvalidFace, "face %d repeats vertex %d", f, dup[0])
		}
		m.faces[f] = append([]int(nil), loop...)
	}
	return m, nil
}

// NumVertices returns the vertex count.
func (m *IFS) NumVertices() int { return len(m.verts) }

// NumFaces returns the face count.
func (m *IFS) NumFaces() int { return len(m.faces) }

// Vertex returns vertex v.
func (m *IFS) Vertex(v int) geom.Vertex3 { return m.verts[v] }

// Vertices returns a copy of the vertex list.
func (m *IFS) Vertices() []geom.Vertex3 {
	return append([]geom.Vertex3(nil), m.verts...)
}

// Face returns a copy of face f's vertex loop.
func (m *IFS) Face(f int) []int {
	return append([]int(nil), m.faces[f]...)
}

// FacePositions returns the positions of face f's loop.
func (m *IFS) FacePositions(f int) []v3.Vec {
	return lo.Map(m.faces[f], func(v int, _ int) v3.Vec { return m.verts[v].Pos })
}

// FacesAroundVertex returns the faces using vertex v, in face order.
func (m *IFS) FacesAroundVertex(v int) []int {
	var out []int
	for f, loop := range m.faces {
		if lo.Contains(loop, v) {
			out = append(out, f)
		}
	}
	return out
}

// AdjacentFaces returns the faces sharing at least one edge with face f.
func (m *IFS) AdjacentFaces(f int) []int {
	edges := make(map[[2]int]bool)
	for _, e := range loopEdges(m.faces[f]) {
		edges[undirected(e)] = true
	}
	var out []int
	for g, loop := range m.faces {
		if g == f {
			continue
		}
		if lo.SomeBy(loopEdges(loop), func(e [2]int) bool { return edges[undirected(e)] }) {
			out = append(out, g)
		}
	}
	return out
}

// Bounds returns the bounding box corners of the vertices.
func (m *IFS) Bounds() (min, max v3.Vec) {
	if len(m.verts) == 0 {
		return v3.Vec{}, v3.Vec{}
	}
	min, max = m.verts[0].Pos, m.verts[0].Pos
	for _, v := range m.verts[1:] {
		min = min.Min(v.Pos)
		max = max.Max(v.Pos)
	}
	return min, max
}

func loopEdges(loop []int) [][2]int {
	out := make([][2]int, len(loop))
	for i := range loop {
		out[i] = [2]int{loop[i], loop[(i+1)%len(loop)]}
	}
	return out
}

func undirected(e [2]int) [2]int {
	if e[0] > e[1] {
		return [2]int{e[1], e[0]}
	}
	return e
}
