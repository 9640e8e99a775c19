package graph

import (
	"fmt"

	"github.com/samber/lo"
)

// DefaultSegments is the default tessellation hint for curved primitives.
const DefaultSegments = 32

// GlobalDefaults contains graph-wide default settings.
type GlobalDefaults struct {
	Segments int `json:"segments"` // used when a primitive leaves Segments at zero
}

// Graph is the top-level immutable data structure produced by Lisp evaluation.
// It is never mutated in place; each evaluation produces a new graph.
type Graph struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
	Defaults  GlobalDefaults    `json:"defaults"`
	Version   uint64            `json:"version"`
}

// New creates an empty Graph with default settings.
func New() *Graph {
	return &Graph{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
		Defaults:  GlobalDefaults{Segments: DefaultSegments},
	}
}

// AddNode adds a node to the graph. It does not check for duplicates.
func (g *Graph) AddNode(n *Node) {
	g.Nodes[n.ID] = n
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root of the graph. Adding the same root
// twice is a no-op.
func (g *Graph) AddRoot(id NodeID) {
	if lo.Contains(g.Roots, id) {
		return
	}
	g.Roots = append(g.Roots, id)
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *Graph) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (g *Graph) MustLookup(name string) *Node {
	n := g.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("graph: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (g *Graph) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// Primitives returns all primitive nodes in the graph.
func (g *Graph) Primitives() []*Node {
	return g.ofKind(NodePrimitive)
}

// Booleans returns all boolean nodes in the graph.
func (g *Graph) Booleans() []*Node {
	return g.ofKind(NodeBoolean)
}

func (g *Graph) ofKind(k NodeKind) []*Node {
	return lo.Filter(lo.Values(g.Nodes), func(n *Node, _ int) bool {
		return n.Kind == k
	})
}

// Children returns the child nodes of the given node.
func (g *Graph) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// Referenced reports whether any node lists id as a child.
func (g *Graph) Referenced(id NodeID) bool {
	return lo.SomeBy(lo.Values(g.Nodes), func(n *Node) bool {
		return lo.Contains(n.Children, id)
	})
}

// Segments returns n's segment hint, or the graph default for zero.
func (g *Graph) Segments(n int) int {
	if n > 0 {
		return n
	}
	if g.Defaults.Segments > 0 {
		return g.Defaults.Segments
	}
	return DefaultSegments
}

// NodeCount returns the total number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}
