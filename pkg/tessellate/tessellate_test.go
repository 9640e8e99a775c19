package tessellate_test

import (
	"context"
	"errors"
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/kerf/pkg/config"
	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/bsp"
	"github.com/chazu/kerf/pkg/kernel/sdfx"
	"github.com/chazu/kerf/pkg/tessellate"
)

const workers = 4

// newKernel returns a fresh polygonal kernel for testing.
func newKernel(t *testing.T) kernel.Kernel {
	t.Helper()
	k, err := bsp.New(config.Default())
	if err != nil {
		t.Fatalf("bsp.New: %v", err)
	}
	return k
}

// makeBox creates a box primitive node with the given name and dimensions.
func makeBox(name string, x, y, z float64) *graph.Node {
	return &graph.Node{
		ID:   graph.NewNodeID("solid/" + name),
		Kind: graph.NodePrimitive,
		Name: name,
		Data: graph.BoxData{Size: v3.Vec{X: x, Y: y, Z: z}},
	}
}

// makeTranslate creates a transform node with a translation.
func makeTranslate(name string, tx, ty, tz float64, child graph.NodeID) *graph.Node {
	t := v3.Vec{X: tx, Y: ty, Z: tz}
	return &graph.Node{
		ID:       graph.NewNodeID("translate/" + name),
		Kind:     graph.NodeTransform,
		Children: []graph.NodeID{child},
		Data:     graph.TransformData{Translation: &t},
	}
}

// makeGroup creates a group node with children.
func makeGroup(name string, children ...graph.NodeID) *graph.Node {
	return &graph.Node{
		ID:       graph.NewNodeID("scene/" + name),
		Kind:     graph.NodeGroup,
		Name:     name,
		Children: children,
		Data:     graph.GroupData{Description: name},
	}
}

// makeBoolean creates a boolean node over children.
func makeBoolean(name string, op graph.BooleanOp, children ...graph.NodeID) *graph.Node {
	return &graph.Node{
		ID:       graph.NewNodeID(op.String() + "/" + name),
		Kind:     graph.NodeBoolean,
		Name:     name,
		Children: children,
		Data:     graph.BooleanData{Op: op},
	}
}

func add(g *graph.Graph, nodes ...*graph.Node) {
	for _, n := range nodes {
		g.AddNode(n)
	}
}

// bounds returns the vertex bounding box of a mesh.
func bounds(m *kernel.Mesh) (lo, hi v3.Vec) {
	lo = v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi = lo.Neg()
	for i := 0; i < m.VertexCount(); i++ {
		p := v3.Vec{X: float64(m.Vertices[i*3]), Y: float64(m.Vertices[i*3+1]), Z: float64(m.Vertices[i*3+2])}
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return lo, hi
}

func near(a, b v3.Vec) bool {
	return a.Sub(b).Length() < 1e-4
}

func TestSingleBox(t *testing.T) {
	k := newKernel(t)
	g := graph.New()

	box := makeBox("shelf", 600, 300, 18)
	g.AddNode(box)
	g.AddRoot(box.ID)

	meshes, err := tessellate.Tessellate(context.Background(), g, k, workers)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	m := meshes[0]
	if m.PartName != "shelf" {
		t.Errorf("expected PartName %q, got %q", "shelf", m.PartName)
	}
	if got := m.TriangleCount(); got != 12 {
		t.Errorf("TriangleCount() = %d, want 12", got)
	}
	lo, hi := bounds(m)
	if !near(lo, v3.Vec{}) || !near(hi, v3.Vec{X: 600, Y: 300, Z: 18}) {
		t.Errorf("bounds = %v..%v, want origin..(600,300,18)", lo, hi)
	}
}

func TestRootOrder(t *testing.T) {
	k := newKernel(t)
	g := graph.New()

	side := makeBox("side-panel", 400, 300, 18)
	top := makeBox("top-panel", 600, 300, 18)
	add(g, side, top)
	g.AddRoot(side.ID)
	g.AddRoot(top.ID)

	meshes, err := tessellate.Tessellate(context.Background(), g, k, 1)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}
	if meshes[0].PartName != "side-panel" || meshes[1].PartName != "top-panel" {
		t.Errorf("part order = %q, %q, want side-panel, top-panel", meshes[0].PartName, meshes[1].PartName)
	}
}

func TestPartWithTransform(t *testing.T) {
	k := newKernel(t)
	g := graph.New()

	box := makeBox("shelf", 100, 50, 10)
	place := makeTranslate("shelf", 200, 100, 50, box.ID)
	add(g, box, place)
	g.AddRoot(place.ID)

	meshes, err := tessellate.Tessellate(context.Background(), g, k, workers)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	m := meshes[0]
	if m.PartName != "shelf" {
		t.Errorf("expected PartName %q, got %q", "shelf", m.PartName)
	}
	lo, hi := bounds(m)
	if !near(lo, v3.Vec{X: 200, Y: 100, Z: 50}) || !near(hi, v3.Vec{X: 300, Y: 150, Z: 60}) {
		t.Errorf("bounds = %v..%v, want (200,100,50)..(300,150,60)", lo, hi)
	}
}

func TestScene(t *testing.T) {
	k := newKernel(t)
	g := graph.New()

	left := makeBox("left-side", 18, 300, 400)
	right := makeBox("right-side", 18, 300, 400)
	top := makeBox("top", 600, 300, 18)
	placeLeft := makeTranslate("left", 0, 0, 0, left.ID)
	placeRight := makeTranslate("right", 582, 0, 0, right.ID)
	placeTop := makeTranslate("top", 0, 0, 400, top.ID)
	scene := makeGroup("bookshelf", placeLeft.ID, placeRight.ID, placeTop.ID)
	add(g, left, right, top, placeLeft, placeRight, placeTop, scene)
	g.AddRoot(scene.ID)

	meshes, err := tessellate.Tessellate(context.Background(), g, k, workers)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 3 {
		t.Fatalf("expected 3 meshes, got %d", len(meshes))
	}
	for i, want := range []string{"left-side", "right-side", "top"} {
		if meshes[i].PartName != want {
			t.Errorf("meshes[%d].PartName = %q, want %q", i, meshes[i].PartName, want)
		}
		if meshes[i].IsEmpty() {
			t.Errorf("mesh %q should not be empty", want)
		}
	}
	lo, _ := bounds(meshes[1])
	if !near(lo, v3.Vec{X: 582}) {
		t.Errorf("right-side min = %v, want (582,0,0)", lo)
	}
}

func TestTranslatedGroup(t *testing.T) {
	k := newKernel(t)
	g := graph.New()

	a := makeBox("a", 1, 1, 1)
	b := makeBox("b", 2, 2, 2)
	inner := makeGroup("pair", a.ID, b.ID)
	move := makeTranslate("pair", 10, 0, 0, inner.ID)
	add(g, a, b, inner, move)
	g.AddRoot(move.ID)

	meshes, err := tessellate.Tessellate(context.Background(), g, k, workers)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}
	for i, wantHi := range []v3.Vec{{X: 11, Y: 1, Z: 1}, {X: 12, Y: 2, Z: 2}} {
		lo, hi := bounds(meshes[i])
		if !near(lo, v3.Vec{X: 10}) || !near(hi, wantHi) {
			t.Errorf("meshes[%d] bounds = %v..%v, want (10,0,0)..%v", i, lo, hi, wantHi)
		}
	}
}

func TestBooleanPart(t *testing.T) {
	k := newKernel(t)
	g := graph.New()

	plate := makeBox("plate", 4, 4, 1)
	cutter := makeBox("cutter", 2, 2, 3)
	place := makeTranslate("cutter", 1, 1, -1, cutter.ID)
	drilled := makeBoolean("drilled", graph.OpDifference, plate.ID, place.ID)
	add(g, plate, cutter, place, drilled)
	g.AddRoot(drilled.ID)

	meshes, err := tessellate.Tessellate(context.Background(), g, k, workers)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	m := meshes[0]
	if m.PartName != "drilled" {
		t.Errorf("PartName = %q, want drilled", m.PartName)
	}
	lo, hi := bounds(m)
	if !near(lo, v3.Vec{}) || !near(hi, v3.Vec{X: 4, Y: 4, Z: 1}) {
		t.Errorf("bounds = %v..%v, want origin..(4,4,1)", lo, hi)
	}
	// A square hole adds inner walls, so the plate has more than a box's
	// twelve triangles.
	if m.TriangleCount() <= 12 {
		t.Errorf("TriangleCount() = %d, want more than 12", m.TriangleCount())
	}
}

func TestSharedSubgraph(t *testing.T) {
	k := newKernel(t)
	g := graph.New()

	cube := makeBox("cube", 1, 1, 1)
	left := makeTranslate("left", -3, 0, 0, cube.ID)
	right := makeTranslate("right", 3, 0, 0, cube.ID)
	pair := makeBoolean("pair", graph.OpUnion, left.ID, right.ID)
	add(g, cube, left, right, pair)
	g.AddRoot(pair.ID)

	meshes, err := tessellate.Tessellate(context.Background(), g, k, workers)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	lo, hi := bounds(meshes[0])
	if !near(lo, v3.Vec{X: -3}) || !near(hi, v3.Vec{X: 4, Y: 1, Z: 1}) {
		t.Errorf("bounds = %v..%v, want (-3,0,0)..(4,1,1)", lo, hi)
	}
	if got := meshes[0].TriangleCount(); got != 24 {
		t.Errorf("TriangleCount() = %d, want 24 for two disjoint cubes", got)
	}
}

func TestEmptyGraph(t *testing.T) {
	k := newKernel(t)

	meshes, err := tessellate.Tessellate(context.Background(), graph.New(), k, workers)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 0 {
		t.Fatalf("expected 0 meshes, got %d", len(meshes))
	}

	meshes, err = tessellate.Tessellate(context.Background(), nil, k, workers)
	if err != nil || meshes != nil {
		t.Errorf("Tessellate(nil) = %v, %v, want nil, nil", meshes, err)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *graph.Graph) graph.NodeID
	}{
		{"zero box", func(g *graph.Graph) graph.NodeID {
			b := makeBox("flat", 1, 0, 1)
			g.AddNode(b)
			return b.ID
		}},
		{"single operand", func(g *graph.Graph) graph.NodeID {
			b := makeBox("only", 1, 1, 1)
			u := makeBoolean("lonely", graph.OpUnion, b.ID)
			add(g, b, u)
			return u.ID
		}},
		{"cycle", func(g *graph.Graph) graph.NodeID {
			b := makeBox("base", 1, 1, 1)
			u := makeBoolean("loop", graph.OpUnion, b.ID, graph.NewNodeID("union/loop"))
			add(g, b, u)
			return u.ID
		}},
		{"group cycle", func(g *graph.Graph) graph.NodeID {
			s := makeGroup("self", graph.NewNodeID("scene/self"))
			g.AddNode(s)
			return s.ID
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New()
			g.AddRoot(tt.build(g))
			if _, err := tessellate.Tessellate(context.Background(), g, newKernel(t), workers); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestCanceledContext(t *testing.T) {
	g := graph.New()
	box := makeBox("shelf", 1, 1, 1)
	g.AddNode(box)
	g.AddRoot(box.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tessellate.Tessellate(ctx, g, newKernel(t), workers)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Tessellate(canceled) error = %v, want context.Canceled", err)
	}
}

func TestSdfxKernel(t *testing.T) {
	k := sdfx.New(64)
	g := graph.New()

	box := makeBox("shelf", 100, 50, 10)
	place := makeTranslate("shelf", 200, 100, 50, box.ID)
	add(g, box, place)
	g.AddRoot(place.ID)

	meshes, err := tessellate.Tessellate(context.Background(), g, k, workers)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 || meshes[0].IsEmpty() {
		t.Fatalf("expected 1 non-empty mesh, got %d", len(meshes))
	}

	// The box spans (200,100,50)-(300,150,60); its centroid is near
	// (250, 125, 55). Marching cubes is approximate.
	m := meshes[0]
	var cx, cy, cz float64
	n := m.VertexCount()
	for i := 0; i < n; i++ {
		cx += float64(m.Vertices[i*3])
		cy += float64(m.Vertices[i*3+1])
		cz += float64(m.Vertices[i*3+2])
	}
	cx /= float64(n)
	cy /= float64(n)
	cz /= float64(n)

	const tol = 20.0
	if math.Abs(cx-250) > tol {
		t.Errorf("centroid X = %.1f, expected near 250", cx)
	}
	if math.Abs(cy-125) > tol {
		t.Errorf("centroid Y = %.1f, expected near 125", cy)
	}
	if math.Abs(cz-55) > tol {
		t.Errorf("centroid Z = %.1f, expected near 55", cz)
	}
}
