package bsp

import (
	"math"

	"github.com/chazu/kerf/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// cubeFaces lists each face's corners by index bits (x=1, y=2, z=4),
// counter-clockwise from outside.
var cubeFaces = [6][4]int{
	{0, 4, 6, 2}, // -x
	{1, 3, 7, 5}, // +x
	{0, 1, 5, 4}, // -y
	{2, 6, 7, 3}, // +y
	{0, 2, 3, 1}, // -z
	{4, 5, 7, 6}, // +z
}

// Cube returns the six faces of the axis-aligned box center ± radius. Faces
// are tagged 0..5 in the order -x, +x, -y, +y, -z, +z.
func Cube(center, radius v3.Vec) []Polygon {
	polys := make([]Polygon, 0, len(cubeFaces))
	for f, face := range cubeFaces {
		verts := make([]v3.Vec, len(face))
		for k, i := range face {
			verts[k] = v3.Vec{
				X: center.X + radius.X*bit(i&1),
				Y: center.Y + radius.Y*bit(i&2),
				Z: center.Z + radius.Z*bit(i&4),
			}
		}
		polys = append(polys, NewPolygon(verts, f))
	}
	return polys
}

func bit(v int) float64 {
	if v != 0 {
		return 1
	}
	return -1
}

// Sphere returns a UV sphere with slices around the y axis and stacks from
// pole to pole. The caps are triangles, every other face a quad.
func Sphere(center v3.Vec, radius float64, slices, stacks int) []Polygon {
	vertex := func(theta, phi float64) v3.Vec {
		theta *= 2 * math.Pi
		phi *= math.Pi
		dir := v3.Vec{
			X: math.Cos(theta) * math.Sin(phi),
			Y: math.Cos(phi),
			Z: math.Sin(theta) * math.Sin(phi),
		}
		return center.Add(dir.MulScalar(radius))
	}

	var polys []Polygon
	for i := 0; i < slices; i++ {
		t0, t1 := float64(i)/float64(slices), float64(i+1)/float64(slices)
		for j := 0; j < stacks; j++ {
			p0, p1 := float64(j)/float64(stacks), float64(j+1)/float64(stacks)
			verts := []v3.Vec{vertex(t0, p0)}
			if j > 0 {
				verts = append(verts, vertex(t1, p0))
			}
			if j < stacks-1 {
				verts = append(verts, vertex(t1, p1))
			}
			verts = append(verts, vertex(t0, p1))
			polys = append(polys, NewPolygon(verts, len(polys)))
		}
	}
	return polys
}

// Cylinder returns a cylinder of the given radius from start to end, with
// slices triangles on each cap and slices quads around the side.
func Cylinder(start, end v3.Vec, radius float64, slices int) []Polygon {
	ray := end.Sub(start)
	axisZ := ray.Normalize()
	ref := v3.Vec{Y: 1}
	if math.Abs(axisZ.Y) > 0.5 {
		ref = v3.Vec{X: 1}
	}
	axisX := ref.Cross(axisZ).Normalize()
	axisY := axisX.Cross(axisZ).Normalize()

	point := func(stack, slice float64) v3.Vec {
		angle := slice * 2 * math.Pi
		out := axisX.MulScalar(math.Cos(angle)).Add(axisY.MulScalar(math.Sin(angle)))
		return start.Add(ray.MulScalar(stack)).Add(out.MulScalar(radius))
	}

	var polys []Polygon
	for i := 0; i < slices; i++ {
		t0, t1 := float64(i)/float64(slices), float64(i+1)/float64(slices)
		polys = append(polys,
			NewPolygon([]v3.Vec{start, point(0, t0), point(0, t1)}, len(polys)),
			NewPolygon([]v3.Vec{point(0, t1), point(0, t0), point(1, t0), point(1, t1)}, len(polys)+1),
			NewPolygon([]v3.Vec{end, point(1, t1), point(1, t0)}, len(polys)+2),
		)
	}
	return polys
}

// FromIFS returns one polygon per face of m, tagged with the face index.
func FromIFS(m *mesh.IFS) []Polygon {
	polys := make([]Polygon, m.NumFaces())
	for f := range polys {
		polys[f] = NewPolygon(m.FacePositions(f), f)
	}
	return polys
}

// ToIFS welds polys into an indexed face set, merging vertices within tol.
func ToIFS(polys []Polygon, tol float64) (*mesh.IFS, error) {
	loops := make([][]v3.Vec, len(polys))
	for i, p := range polys {
		loops[i] = p.Vertices
	}
	return mesh.FromLoops(loops, tol)
}

// Clean drops fragments with area at most eps and collapses consecutive
// vertices closer than eps. It is never applied implicitly.
func Clean(polys []Polygon, eps float64) []Polygon {
	var out []Polygon
	for _, p := range polys {
		var verts []v3.Vec
		for _, v := range p.Vertices {
			if len(verts) > 0 && v.Sub(verts[len(verts)-1]).Length() < eps {
				continue
			}
			verts = append(verts, v)
		}
		for len(verts) > 1 && verts[0].Sub(verts[len(verts)-1]).Length() < eps {
			verts = verts[:len(verts)-1]
		}
		if len(verts) < 3 {
			continue
		}
		q := Polygon{Vertices: verts, Plane: p.Plane, Tag: p.Tag}
		if q.Area() <= eps {
			continue
		}
		out = append(out, q)
	}
	return out
}
