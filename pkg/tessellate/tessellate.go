// Package tessellate walks a scene graph and produces triangle meshes
// using a geometry kernel. One mesh is produced per part.
//
// A part is any node reached from a root through groups only. Transforms
// wrapping a group are carried down onto each of the group's parts, so a
// translated scene still yields one mesh per part. Everything else under a
// part (booleans, nested transforms, groups inside booleans) is evaluated
// to a single solid.
package tessellate

import (
	"context"
	"fmt"
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/logging"
)

// part is one mesh to produce: a node plus the transforms inherited from
// enclosing groups, outermost first.
type part struct {
	node    *graph.Node
	inherit []graph.TransformData
}

// Tessellate walks the graph roots and produces one triangle mesh per
// part using the provided geometry kernel. Parts are meshed concurrently on
// up to workers goroutines; the result order follows the roots and, within
// a root, the group child order. The tessellator is read-only and never
// mutates the graph.
func Tessellate(ctx context.Context, g *graph.Graph, k kernel.Kernel, workers int) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}

	var parts []part
	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		collected, err := collectParts(g, root, nil, map[graph.NodeID]bool{})
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", rootID.Short(), err)
		}
		parts = append(parts, collected...)
	}

	meshes := make([]*kernel.Mesh, len(parts))
	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i, p := range parts {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := meshPart(g, k, p)
			if err != nil {
				return err
			}
			meshes[i] = m
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logging.Logger().DebugContext(ctx, "tessellated scene",
		"roots", len(g.Roots), "parts", len(parts),
		"triangles", lo.SumBy(meshes, func(m *kernel.Mesh) int { return m.TriangleCount() }))

	return meshes, nil
}

// collectParts splits n into parts. Groups fan out; a transform whose child
// is a group passes itself down; anything else is a part.
func collectParts(g *graph.Graph, n *graph.Node, inherit []graph.TransformData, onPath map[graph.NodeID]bool) ([]part, error) {
	if onPath[n.ID] {
		return nil, fmt.Errorf("cycle through node %s", n.Label())
	}
	onPath[n.ID] = true
	defer delete(onPath, n.ID)

	switch n.Kind {
	case graph.NodeGroup:
		var parts []part
		for _, child := range g.Children(n) {
			collected, err := collectParts(g, child, inherit, onPath)
			if err != nil {
				return nil, err
			}
			parts = append(parts, collected...)
		}
		return parts, nil

	case graph.NodeTransform:
		children := g.Children(n)
		if len(children) == 1 && children[0].Kind == graph.NodeGroup {
			td, ok := n.Data.(graph.TransformData)
			if !ok {
				return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
			}
			return collectParts(g, children[0], append(slices.Clone(inherit), td), onPath)
		}
	}

	return []part{{node: n, inherit: inherit}}, nil
}

// meshPart evaluates one part and meshes it.
func meshPart(g *graph.Graph, k kernel.Kernel, p part) (*kernel.Mesh, error) {
	ev := &evaluator{g: g, k: k, memo: make(map[graph.NodeID]kernel.Solid), onPath: make(map[graph.NodeID]bool)}
	solid, err := ev.eval(p.node)
	if err != nil {
		return nil, fmt.Errorf("tessellate: part %s: %w", p.node.Label(), err)
	}

	for i := len(p.inherit) - 1; i >= 0; i-- {
		solid = applyTransform(k, solid, p.inherit[i])
	}

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for node %s: %w", p.node.ID.Short(), err)
	}
	mesh.PartName = partName(g, p.node)
	return mesh, nil
}

// partName prefers the node's own name, then the first named node below a
// chain of unnamed transforms, then the short ID.
func partName(g *graph.Graph, n *graph.Node) string {
	for cur := n; cur != nil; {
		if cur.Name != "" {
			return cur.Name
		}
		if cur.Kind != graph.NodeTransform || len(cur.Children) != 1 {
			break
		}
		cur = g.Get(cur.Children[0])
	}
	return n.ID.Short()
}

// evaluator turns a node into a kernel solid. Shared subgraphs are
// evaluated once per part.
type evaluator struct {
	g      *graph.Graph
	k      kernel.Kernel
	memo   map[graph.NodeID]kernel.Solid
	onPath map[graph.NodeID]bool
}

func (ev *evaluator) eval(n *graph.Node) (kernel.Solid, error) {
	if s, ok := ev.memo[n.ID]; ok {
		return s, nil
	}
	if ev.onPath[n.ID] {
		return nil, fmt.Errorf("cycle through node %s", n.Label())
	}
	ev.onPath[n.ID] = true
	defer delete(ev.onPath, n.ID)

	var (
		s   kernel.Solid
		err error
	)
	switch n.Kind {
	case graph.NodePrimitive:
		s, err = ev.primitive(n)
	case graph.NodeTransform:
		s, err = ev.transform(n)
	case graph.NodeBoolean:
		s, err = ev.boolean(n)
	case graph.NodeGroup:
		s, err = ev.fold(n, graph.OpUnion)
	default:
		err = fmt.Errorf("unknown node kind: %v", n.Kind)
	}
	if err != nil {
		return nil, err
	}
	ev.memo[n.ID] = s
	return s, nil
}

// primitive creates geometry for a primitive node.
func (ev *evaluator) primitive(n *graph.Node) (kernel.Solid, error) {
	switch data := n.Data.(type) {
	case graph.BoxData:
		return ev.k.Box(data.Size.X, data.Size.Y, data.Size.Z)
	case graph.SphereData:
		return ev.k.Sphere(data.Radius, ev.g.Segments(data.Segments))
	case graph.CylinderData:
		return ev.k.Cylinder(data.Height, data.Radius, ev.g.Segments(data.Segments))
	}
	return nil, fmt.Errorf("primitive node %s has unsupported data type %T", n.ID.Short(), n.Data)
}

func (ev *evaluator) transform(n *graph.Node) (kernel.Solid, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	children := ev.g.Children(n)
	if len(children) != 1 {
		return nil, fmt.Errorf("transform node %s has %d children, want 1", n.ID.Short(), len(children))
	}
	s, err := ev.eval(children[0])
	if err != nil {
		return nil, err
	}
	return applyTransform(ev.k, s, td), nil
}

func (ev *evaluator) boolean(n *graph.Node) (kernel.Solid, error) {
	bd, ok := n.Data.(graph.BooleanData)
	if !ok {
		return nil, fmt.Errorf("boolean node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	if len(n.Children) < 2 {
		return nil, fmt.Errorf("%s node %s has %d operands, need at least 2", bd.Op, n.ID.Short(), len(n.Children))
	}
	return ev.fold(n, bd.Op)
}

// fold combines the children of n left to right.
func (ev *evaluator) fold(n *graph.Node, op graph.BooleanOp) (kernel.Solid, error) {
	children := ev.g.Children(n)
	if len(children) == 0 {
		return nil, fmt.Errorf("%s node %s has no operands", n.Kind, n.ID.Short())
	}
	acc, err := ev.eval(children[0])
	if err != nil {
		return nil, err
	}
	for _, child := range children[1:] {
		s, err := ev.eval(child)
		if err != nil {
			return nil, err
		}
		switch op {
		case graph.OpUnion:
			acc = ev.k.Union(acc, s)
		case graph.OpDifference:
			acc = ev.k.Difference(acc, s)
		case graph.OpIntersection:
			acc = ev.k.Intersection(acc, s)
		default:
			return nil, fmt.Errorf("unknown boolean op %v", op)
		}
	}
	return acc, nil
}

// applyTransform rotates first, then translates.
func applyTransform(k kernel.Kernel, s kernel.Solid, td graph.TransformData) kernel.Solid {
	if td.Rotation != nil && *td.Rotation != (v3.Vec{}) {
		r := *td.Rotation
		s = k.Rotate(s, r.X, r.Y, r.Z)
	}
	if td.Translation != nil && *td.Translation != (v3.Vec{}) {
		t := *td.Translation
		s = k.Translate(s, t.X, t.Y, t.Z)
	}
	return s
}
