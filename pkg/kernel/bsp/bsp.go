// Package bsp implements the kernel.Kernel interface with polygonal
// boolean operations on BSP trees.
package bsp

import (
	"fmt"

	bsptree "github.com/chazu/kerf/pkg/bsp"
	"github.com/chazu/kerf/pkg/config"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/sdfx"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*BSPKernel)(nil)

// bspSolid wraps a BSP tree to implement kernel.Solid.
type bspSolid struct {
	t *bsptree.Tree
}

// BoundingBox returns the axis-aligned bounding box.
func (s *bspSolid) BoundingBox() (min, max [3]float64) {
	bb := s.t.Bounds()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Contains reports whether p classifies as inside the tree.
func (s *bspSolid) Contains(p v3.Vec) bool {
	return s.t.Contains(p)
}

// Tree returns the underlying BSP tree.
func (s *bspSolid) Tree() *bsptree.Tree { return s.t }

// BSPKernel implements kernel.Kernel using BSP trees.
type BSPKernel struct {
	opts bsptree.Options
}

// New returns a BSPKernel using the epsilon and splitter of cfg.
func New(cfg config.Config) (*BSPKernel, error) {
	opts := bsptree.OptionsFrom(cfg)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("bsp kernel: %w", err)
	}
	return &BSPKernel{opts: opts}, nil
}

func unwrap(s kernel.Solid) *bsptree.Tree {
	return s.(*bspSolid).t
}

// assemble builds a solid from CSG output. The options were validated in
// New, so Assemble cannot fail.
func (k *BSPKernel) assemble(polys []bsptree.Polygon) kernel.Solid {
	t, err := bsptree.Assemble(polys, k.opts)
	if err != nil {
		panic(fmt.Sprintf("bsp.Assemble: %v", err))
	}
	return &bspSolid{t: t}
}

func (k *BSPKernel) build(what string, polys []bsptree.Polygon) (kernel.Solid, error) {
	t, err := bsptree.Build(polys, k.opts)
	if err != nil {
		return nil, fmt.Errorf("bsp kernel: %s: %w", what, err)
	}
	return &bspSolid{t: t}, nil
}

// Box creates a box with the given dimensions and its minimum corner at the
// origin.
func (k *BSPKernel) Box(x, y, z float64) (kernel.Solid, error) {
	if x <= 0 || y <= 0 || z <= 0 {
		return nil, fmt.Errorf("bsp kernel: box %gx%gx%g: dimensions must be positive", x, y, z)
	}
	half := v3.Vec{X: x / 2, Y: y / 2, Z: z / 2}
	return k.build("box", bsptree.Cube(half, half))
}

// Sphere creates a UV sphere centered on the origin with segments slices
// and segments/2 stacks.
func (k *BSPKernel) Sphere(radius float64, segments int) (kernel.Solid, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("bsp kernel: sphere r=%g: radius must be positive", radius)
	}
	if segments < 4 {
		return nil, fmt.Errorf("bsp kernel: sphere: need at least 4 segments, got %d", segments)
	}
	return k.build("sphere", bsptree.Sphere(v3.Vec{}, radius, segments, segments/2))
}

// Cylinder creates a z-axis cylinder centered on the origin.
func (k *BSPKernel) Cylinder(height, radius float64, segments int) (kernel.Solid, error) {
	if height <= 0 || radius <= 0 {
		return nil, fmt.Errorf("bsp kernel: cylinder h=%g r=%g: dimensions must be positive", height, radius)
	}
	if segments < 3 {
		return nil, fmt.Errorf("bsp kernel: cylinder: need at least 3 segments, got %d", segments)
	}
	start, end := v3.Vec{Z: -height / 2}, v3.Vec{Z: height / 2}
	return k.build("cylinder", bsptree.Cylinder(start, end, radius, segments))
}

// Union returns the union of two solids.
func (k *BSPKernel) Union(a, b kernel.Solid) kernel.Solid {
	return k.assemble(bsptree.Union(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *BSPKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return k.assemble(bsptree.Difference(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *BSPKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return k.assemble(bsptree.Intersection(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *BSPKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return k.transform(s, sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z}))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes,
// matching the sdfx kernel.
func (k *BSPKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return k.transform(s, sdfx.RotationMatrix(x, y, z))
}

func (k *BSPKernel) transform(s kernel.Solid, m sdf.M44) kernel.Solid {
	polys := unwrap(s).Polygons()
	for i, p := range polys {
		verts := make([]v3.Vec, len(p.Vertices))
		for j, v := range p.Vertices {
			verts[j] = m.MulPosition(v)
		}
		// The plane moves with the vertices.
		origin := m.MulPosition(v3.Vec{})
		n := m.MulPosition(p.Plane.Normal).Sub(origin).Normalize()
		q := m.MulPosition(p.Plane.Normal.MulScalar(p.Plane.W))
		polys[i] = bsptree.Polygon{Vertices: verts, Plane: bsptree.Plane{Normal: n, W: n.Dot(q)}, Tag: p.Tag}
	}
	return k.assemble(polys)
}

// ToMesh fans every polygon into triangles. CSG fragments are convex, so
// the fan is exact.
func (k *BSPKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	var tris [][3]v3.Vec
	for _, p := range unwrap(s).Polygons() {
		for i := 2; i < len(p.Vertices); i++ {
			tris = append(tris, [3]v3.Vec{p.Vertices[0], p.Vertices[i-1], p.Vertices[i]})
		}
	}
	return kernel.NewMesh(tris), nil
}
