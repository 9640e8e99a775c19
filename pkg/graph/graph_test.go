package graph

import (
	"encoding/json"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestNewGraph(t *testing.T) {
	g := New()
	if g.Nodes == nil {
		t.Fatal("Nodes map should be initialized")
	}
	if g.NameIndex == nil {
		t.Fatal("NameIndex map should be initialized")
	}
	if g.Defaults.Segments != DefaultSegments {
		t.Errorf("default segments = %d, want %d", g.Defaults.Segments, DefaultSegments)
	}
	if g.NodeCount() != 0 {
		t.Errorf("empty graph should have 0 nodes, got %d", g.NodeCount())
	}
}

func TestAddNodeAndLookup(t *testing.T) {
	g := New()

	id := NewNodeID("solid/plate")
	node := &Node{
		ID:   id,
		Kind: NodePrimitive,
		Name: "plate",
		Data: BoxData{Size: v3.Vec{X: 100, Y: 60, Z: 5}},
	}
	g.AddNode(node)
	g.AddRoot(id)
	g.AddRoot(id)

	if g.NodeCount() != 1 {
		t.Errorf("node count = %d, want 1", g.NodeCount())
	}

	found := g.Lookup("plate")
	if found == nil {
		t.Fatal("Lookup('plate') returned nil")
	}
	if found.ID != id {
		t.Errorf("lookup returned wrong node")
	}

	must := g.MustLookup("plate")
	if must.ID != id {
		t.Errorf("MustLookup returned wrong node")
	}

	if g.Lookup("nonexistent") != nil {
		t.Error("Lookup should return nil for missing name")
	}

	got := g.Get(id)
	if got == nil || got.Name != "plate" {
		t.Errorf("Get by ID failed")
	}

	if len(g.Roots) != 1 || g.Roots[0] != id {
		t.Errorf("roots = %v, want [%s]", g.Roots, id.Short())
	}
}

func TestMustLookupPanics(t *testing.T) {
	g := New()
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustLookup should panic on missing name")
		}
	}()
	g.MustLookup("missing")
}

func TestPrimitivesAndBooleans(t *testing.T) {
	g := New()

	plateID := NewNodeID("solid/plate")
	holeID := NewNodeID("solid/hole")
	cutID := NewNodeID("difference/cut")

	g.AddNode(&Node{
		ID: plateID, Kind: NodePrimitive, Name: "plate",
		Data: BoxData{Size: v3.Vec{X: 100, Y: 60, Z: 5}},
	})
	g.AddNode(&Node{
		ID: holeID, Kind: NodePrimitive, Name: "hole",
		Data: CylinderData{Height: 20, Radius: 4},
	})
	g.AddNode(&Node{
		ID: cutID, Kind: NodeBoolean,
		Children: []NodeID{plateID, holeID},
		Data:     BooleanData{Op: OpDifference},
	})

	if n := len(g.Primitives()); n != 2 {
		t.Errorf("Primitives() count = %d, want 2", n)
	}
	if n := len(g.Booleans()); n != 1 {
		t.Errorf("Booleans() count = %d, want 1", n)
	}
	if !g.Referenced(holeID) {
		t.Error("hole should be referenced by the difference")
	}
	if g.Referenced(cutID) {
		t.Error("difference should not be referenced")
	}
}

func TestChildren(t *testing.T) {
	g := New()

	childID := NewNodeID("solid/ball")
	parentID := NewNodeID("scene/main")

	g.AddNode(&Node{
		ID: childID, Kind: NodePrimitive, Name: "ball",
		Data: SphereData{Radius: 10},
	})
	g.AddNode(&Node{
		ID: parentID, Kind: NodeGroup, Name: "main",
		Children: []NodeID{childID, NewNodeID("missing")},
		Data:     GroupData{},
	})

	parent := g.Get(parentID)
	children := g.Children(parent)
	if len(children) != 1 {
		t.Fatalf("Children count = %d, want 1", len(children))
	}
	if children[0].Name != "ball" {
		t.Errorf("child name = %q, want %q", children[0].Name, "ball")
	}
}

func TestSegments(t *testing.T) {
	g := New()
	tests := []struct {
		in, want int
	}{
		{0, DefaultSegments},
		{-3, DefaultSegments},
		{12, 12},
	}
	for _, tt := range tests {
		if got := g.Segments(tt.in); got != tt.want {
			t.Errorf("Segments(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}

	g.Defaults.Segments = 8
	if got := g.Segments(0); got != 8 {
		t.Errorf("Segments(0) with default 8 = %d, want 8", got)
	}
}

func TestNodeIDDeterministic(t *testing.T) {
	a := NewNodeID("solid/plate")
	b := NewNodeID("solid/plate")
	if a != b {
		t.Error("same path should produce same NodeID")
	}

	c := NewNodeID("solid/hole")
	if a == c {
		t.Error("different paths should produce different NodeIDs")
	}
}

func TestNodeIDZero(t *testing.T) {
	var id NodeID
	if !id.IsZero() {
		t.Error("zero-value NodeID should be zero")
	}
	if id != ZeroID {
		t.Error("zero-value NodeID should equal ZeroID")
	}
	id = NewNodeID("something")
	if id.IsZero() {
		t.Error("non-zero NodeID should not be zero")
	}
}

func TestNodeIDText(t *testing.T) {
	id := NewNodeID("solid/plate")
	if len(id.Short()) != 12 { // 6 bytes = 12 hex chars
		t.Errorf("Short() len = %d, want 12", len(id.Short()))
	}
	if len(id.String()) != 36 {
		t.Errorf("String() = %q, want canonical uuid form", id.String())
	}

	data, err := json.Marshal(map[NodeID]string{id: "plate"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[NodeID]string
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back[id] != "plate" {
		t.Errorf("round trip lost key %s: %v", id.Short(), back)
	}
}

func TestNodeLabel(t *testing.T) {
	id := NewNodeID("anon")
	n := &Node{ID: id}
	if n.Label() != id.Short() {
		t.Errorf("Label() = %q, want %q", n.Label(), id.Short())
	}
	n.Name = "named"
	if n.Label() != "named" {
		t.Errorf("Label() = %q, want %q", n.Label(), "named")
	}
}

func TestTransformIdentity(t *testing.T) {
	zero := v3.Vec{}
	move := v3.Vec{X: 1}
	tests := []struct {
		name string
		td   TransformData
		want bool
	}{
		{"empty", TransformData{}, true},
		{"zero vectors", TransformData{Translation: &zero, Rotation: &zero}, true},
		{"translated", TransformData{Translation: &move}, false},
		{"rotated", TransformData{Rotation: &move}, false},
	}
	for _, tt := range tests {
		if got := tt.td.IsIdentity(); got != tt.want {
			t.Errorf("%s: IsIdentity() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPrimitiveKind(t *testing.T) {
	tests := []struct {
		data NodeData
		want PrimitiveKind
		ok   bool
	}{
		{BoxData{}, PrimBox, true},
		{SphereData{}, PrimSphere, true},
		{CylinderData{}, PrimCylinder, true},
		{GroupData{}, 0, false},
	}
	for _, tt := range tests {
		got, ok := Primitive(tt.data)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Primitive(%T) = %v, %v, want %v, %v", tt.data, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNodeDataInterface(t *testing.T) {
	// Verify all concrete types implement NodeData at compile time.
	var _ NodeData = BoxData{}
	var _ NodeData = SphereData{}
	var _ NodeData = CylinderData{}
	var _ NodeData = TransformData{}
	var _ NodeData = BooleanData{}
	var _ NodeData = GroupData{}
}

func TestStringers(t *testing.T) {
	if NodePrimitive.String() != "primitive" {
		t.Errorf("NodePrimitive.String() = %q", NodePrimitive.String())
	}
	if NodeBoolean.String() != "boolean" {
		t.Errorf("NodeBoolean.String() = %q", NodeBoolean.String())
	}
	if OpDifference.String() != "difference" {
		t.Errorf("OpDifference.String() = %q", OpDifference.String())
	}
	if PrimCylinder.String() != "cylinder" {
		t.Errorf("PrimCylinder.String() = %q", PrimCylinder.String())
	}
	if SeverityWarning.String() != "warning" {
		t.Errorf("SeverityWarning.String() = %q", SeverityWarning.String())
	}
}
