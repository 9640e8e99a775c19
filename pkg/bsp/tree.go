package bsp

import (
	"context"
	"log/slog"

	"github.com/chazu/kerf/pkg/logging"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
)

// Node is one partitioning plane. Aligned holds the polygons lying in the
// plane and facing the same way, Opposed those facing the other way. A nil
// Front child is an outside leaf and a nil Back child an inside leaf.
type Node struct {
	Plane   Plane
	Front   *Node
	Back    *Node
	Aligned []Polygon
	Opposed []Polygon
}

// Tree is a BSP tree over the boundary of a solid. The zero Tree is empty
// and contains nothing.
type Tree struct {
	root *Node
	opts Options
}

// Classification of a point against a solid.
type Classification int

const (
	Outside Classification = iota
	Inside
	Boundary
)

func (c Classification) String() string {
	switch c {
	case Outside:
		return "outside"
	case Inside:
		return "inside"
	case Boundary:
		return "boundary"
	}
	return "unknown"
}

// Build validates polys and builds a tree over copies of them.
func Build(polys []Polygon, opts Options) (*Tree, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	for i, p := range polys {
		if err := p.validate(opts.Epsilon); err != nil {
			return nil, errors.WithMessagef(err, "polygon %d", i)
		}
	}
	return assemble(polys, opts), nil
}

// Assemble builds a tree without validating polys. It is meant for
// polygons already produced by CSG or Build, whose fragments can be thinner
// than Epsilon.
func Assemble(polys []Polygon, opts Options) (*Tree, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return assemble(polys, opts), nil
}

func assemble(polys []Polygon, opts Options) *Tree {
	t := &Tree{opts: opts}
	t.insert(clonePolygons(polys))
	if log := logging.Logger(); log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("bsp: built tree", "polygons", len(polys), "nodes", t.NodeCount(), "depth", t.Depth())
	}
	return t
}

// Options returns the options the tree was built with.
func (t *Tree) Options() Options { return t.opts }

// Root returns the root node, or nil for an empty tree. The node graph must
// not be modified.
func (t *Tree) Root() *Node { return t.root }

// IsEmpty reports whether the tree has no polygons.
func (t *Tree) IsEmpty() bool { return t.root == nil }

type insertItem struct {
	slot  **Node
	polys []Polygon
}

// insert adds polys to the tree, creating nodes for the non-empty sides
// only.
func (t *Tree) insert(polys []Polygon) {
	if len(polys) == 0 {
		return
	}
	eps := t.opts.Epsilon
	split := t.opts.splitter()
	stack := []insertItem{{slot: &t.root, polys: polys}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := *it.slot
		rest := it.polys
		if n == nil {
			s := split.Choose(rest, eps)
			n = &Node{Plane: rest[s].Plane, Aligned: []Polygon{rest[s]}}
			*it.slot = n
			rest = append(append([]Polygon(nil), rest[:s]...), rest[s+1:]...)
		}

		var front, back []Polygon
		for _, p := range rest {
			n.Plane.split(p, eps, &n.Aligned, &n.Opposed, &front, &back)
		}
		if len(front) > 0 {
			stack = append(stack, insertItem{slot: &n.Front, polys: front})
		}
		if len(back) > 0 {
			stack = append(stack, insertItem{slot: &n.Back, polys: back})
		}
	}
}

// walk calls fn on every node, parents before children.
func (t *Tree) walk(fn func(*Node)) {
	if t.root == nil {
		return
	}
	stack := []*Node{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(n)
		if n.Back != nil {
			stack = append(stack, n.Back)
		}
		if n.Front != nil {
			stack = append(stack, n.Front)
		}
	}
}

// Polygons returns copies of every polygon in the tree.
func (t *Tree) Polygons() []Polygon {
	var out []Polygon
	t.walk(func(n *Node) {
		for _, p := range n.Aligned {
			out = append(out, p.clone())
		}
		for _, p := range n.Opposed {
			out = append(out, p.clone())
		}
	})
	return out
}

// NodeCount returns the number of nodes.
func (t *Tree) NodeCount() int {
	c := 0
	t.walk(func(*Node) { c++ })
	return c
}

// Depth returns the number of nodes on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if t.root == nil {
		return 0
	}
	type item struct {
		n     *Node
		depth int
	}
	deepest := 0
	stack := []item{{t.root, 1}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.depth > deepest {
			deepest = it.depth
		}
		if it.n.Front != nil {
			stack = append(stack, item{it.n.Front, it.depth + 1})
		}
		if it.n.Back != nil {
			stack = append(stack, item{it.n.Back, it.depth + 1})
		}
	}
	return deepest
}

// Bounds returns the bounding box of the tree's polygons. An empty tree has
// the zero box.
func (t *Tree) Bounds() sdf.Box3 {
	var box sdf.Box3
	first := true
	t.walk(func(n *Node) {
		for _, list := range [][]Polygon{n.Aligned, n.Opposed} {
			for _, p := range list {
				for _, v := range p.Vertices {
					if first {
						box = sdf.Box3{Min: v, Max: v}
						first = false
						continue
					}
					box = box.Include(v)
				}
			}
		}
	})
	return box
}

// Classify locates p against the solid. Points within Epsilon of a boundary
// plane follow both sides of it; when the sides disagree p is on the
// boundary.
func (t *Tree) Classify(p v3.Vec) Classification {
	if t.root == nil {
		return Outside
	}
	eps := t.opts.Epsilon
	seen := [3]bool{}
	stack := []*Node{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		side := n.Plane.Classify(p, eps)
		if side != Back {
			if n.Front == nil {
				seen[Outside] = true
			} else {
				stack = append(stack, n.Front)
			}
		}
		if side != Front {
			if n.Back == nil {
				seen[Inside] = true
			} else {
				stack = append(stack, n.Back)
			}
		}
		if seen[Outside] && seen[Inside] {
			return Boundary
		}
	}
	if seen[Inside] {
		return Inside
	}
	return Outside
}

// Contains reports whether p is strictly inside the solid.
func (t *Tree) Contains(p v3.Vec) bool {
	return t.Classify(p) == Inside
}

// Inverse returns the complement of the solid.
func (t *Tree) Inverse() *Tree {
	c := t.clone()
	c.invert()
	return c
}

func (t *Tree) clone() *Tree {
	c := &Tree{opts: t.opts}
	if t.root == nil {
		return c
	}
	type item struct {
		src  *Node
		slot **Node
	}
	stack := []item{{t.root, &c.root}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &Node{
			Plane:   it.src.Plane,
			Aligned: clonePolygons(it.src.Aligned),
			Opposed: clonePolygons(it.src.Opposed),
		}
		*it.slot = n
		if it.src.Front != nil {
			stack = append(stack, item{it.src.Front, &n.Front})
		}
		if it.src.Back != nil {
			stack = append(stack, item{it.src.Back, &n.Back})
		}
	}
	return c
}

// invert turns the solid inside out in place. Flipping both a node's plane
// and its polygons keeps Aligned and Opposed valid.
func (t *Tree) invert() {
	t.walk(func(n *Node) {
		n.Plane = n.Plane.Flip()
		for i := range n.Aligned {
			n.Aligned[i] = n.Aligned[i].Flip()
		}
		for i := range n.Opposed {
			n.Opposed[i] = n.Opposed[i].Flip()
		}
		n.Front, n.Back = n.Back, n.Front
	})
}

// clipPolygons removes the parts of polys inside the solid. Coplanar
// polygons follow their orientation: aligned ones go front, opposed back.
func (t *Tree) clipPolygons(polys []Polygon) []Polygon {
	if t.root == nil {
		return polys
	}
	type item struct {
		n     *Node
		polys []Polygon
	}
	eps := t.opts.Epsilon
	var out []Polygon
	stack := []item{{t.root, polys}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		var front, back []Polygon
		for _, p := range it.polys {
			it.n.Plane.split(p, eps, &front, &back, &front, &back)
		}
		if it.n.Front != nil {
			if len(front) > 0 {
				stack = append(stack, item{it.n.Front, front})
			}
		} else {
			out = append(out, front...)
		}
		if it.n.Back != nil && len(back) > 0 {
			stack = append(stack, item{it.n.Back, back})
		}
	}
	return out
}

// clipTo removes from t every polygon part inside other.
func (t *Tree) clipTo(other *Tree) {
	t.walk(func(n *Node) {
		n.Aligned = other.clipPolygons(n.Aligned)
		n.Opposed = other.clipPolygons(n.Opposed)
	})
}

func clonePolygons(polys []Polygon) []Polygon {
	out := make([]Polygon, len(polys))
	for i, p := range polys {
		out[i] = p.clone()
	}
	return out
}
