package engine

import (
	"fmt"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/kerf/pkg/graph"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(solid %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			// Keyword at end with no value: treat as flag with nil.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// number reads a numeric argument from a keyword or, failing that, from
// positional slot pos. ok is false when neither is present.
func (a kwArgs) number(key string, pos int) (v float64, ok bool, err error) {
	s, found := a.kw[key]
	if !found && pos >= 0 && pos < len(a.positional) {
		s, found = a.positional[pos], true
	}
	if !found {
		return 0, false, nil
	}
	v, err = toFloat64(s)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", key, err)
	}
	return v, true, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		if strings.HasPrefix(str.S, kwPrefix) {
			return "", fmt.Errorf("expected string, got keyword :%s", str.S[len(kwPrefix):])
		}
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toNodeRef extracts a NodeID from a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (graph.NodeID, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref.id, nil
	}
	return graph.ZeroID, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a v3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// nodeRefs flattens solids, lists and arrays of solids into IDs.
func nodeRefs(args []zygo.Sexp) ([]graph.NodeID, error) {
	var ids []graph.NodeID
	for i, a := range args {
		if ref, ok := a.(*sexpNodeRef); ok {
			ids = append(ids, ref.id)
			continue
		}
		items, err := sexpListToSlice(a)
		if err != nil {
			return nil, fmt.Errorf("operand %d: expected solid, got %T (%s)", i+1, a, a.SexpString(nil))
		}
		nested, err := nodeRefs(items)
		if err != nil {
			return nil, fmt.Errorf("operand %d: %w", i+1, err)
		}
		ids = append(ids, nested...)
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Graph builder
// ---------------------------------------------------------------------------

// builder accumulates the graph for one evaluation. Anonymous node IDs are
// numbered per evaluation, so the same source always yields the same IDs.
type builder struct {
	g     *graph.Graph
	seq   int
	named []graph.NodeID // defsolid order
}

func newBuilder() *builder {
	return &builder{g: graph.New()}
}

// add inserts an anonymous node and returns a reference to it.
func (b *builder) add(kind graph.NodeKind, prefix string, data graph.NodeData, children ...graph.NodeID) *sexpNodeRef {
	b.seq++
	id := graph.NewNodeID(fmt.Sprintf("%s/_anon_%d", prefix, b.seq))
	b.g.AddNode(&graph.Node{ID: id, Kind: kind, Children: children, Data: data})
	return &sexpNodeRef{id: id}
}

// finish picks roots when the source declared no scene: every named solid
// that nothing else references, in definition order.
func (b *builder) finish() *graph.Graph {
	if len(b.g.Roots) == 0 {
		for _, id := range b.named {
			if !b.g.Referenced(id) {
				b.g.AddRoot(id)
			}
		}
	}
	return b.g
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

type builtin = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// prefixed adds the builtin's name to every error it returns.
func prefixed(fn builtin) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		out, err := fn(env, name, args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		return out, nil
	}
}

// registerBuiltins installs all kerf DSL builtins into a zygomys environment.
// The builtins populate the builder's graph during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	for name, fn := range map[string]builtin{
		"vec3":         b.vec3,
		"box":          b.box,
		"sphere":       b.sphere,
		"cylinder":     b.cylinder,
		"defsolid":     b.defsolid,
		"solid":        b.solid,
		"union":        b.boolean(graph.OpUnion),
		"difference":   b.boolean(graph.OpDifference),
		"intersection": b.boolean(graph.OpIntersection),
		"translate":    b.translate,
		"rotate":       b.rotate,
		"scene":        b.scene,
	} {
		env.AddFunction(name, prefixed(fn))
	}
}

// (vec3 1 2 3)
func (b *builder) vec3(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("requires exactly 3 arguments, got %d", len(args))
	}
	var xyz [3]float64
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%c: %w", "xyz"[i], err)
		}
		xyz[i] = f
	}
	return &sexpVec3{vec: v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
}

// (box 100 60 5), (box :size (vec3 100 60 5)) or (box :x 100 :y 60 :z 5)
func (b *builder) box(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	var size v3.Vec
	if v, ok := pa.kw["size"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("size: %w", err)
		}
		size = vec
	} else {
		dims := [3]*float64{&size.X, &size.Y, &size.Z}
		for i, key := range []string{"x", "y", "z"} {
			f, ok, err := pa.number(key, i)
			if err != nil {
				return zygo.SexpNull, err
			}
			if !ok {
				return zygo.SexpNull, fmt.Errorf("missing dimension %s", key)
			}
			*dims[i] = f
		}
	}
	return b.add(graph.NodePrimitive, "box", graph.BoxData{Size: size}), nil
}

// segments reads the optional :segments keyword.
func segments(pa kwArgs) (int, error) {
	v, ok := pa.kw["segments"]
	if !ok {
		return 0, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("segments: %w", err)
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("segments: expected integer, got %g", f)
	}
	return int(f), nil
}

// (sphere 10) or (sphere :radius 10 :segments 16)
func (b *builder) sphere(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	r, ok, err := pa.number("radius", 0)
	if err != nil {
		return zygo.SexpNull, err
	}
	if !ok {
		return zygo.SexpNull, fmt.Errorf("missing radius")
	}
	n, err := segments(pa)
	if err != nil {
		return zygo.SexpNull, err
	}
	return b.add(graph.NodePrimitive, "sphere", graph.SphereData{Radius: r, Segments: n}), nil
}

// (cylinder 20 4) or (cylinder :height 20 :radius 4 :segments 24)
func (b *builder) cylinder(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	h, ok, err := pa.number("height", 0)
	if err != nil {
		return zygo.SexpNull, err
	}
	if !ok {
		return zygo.SexpNull, fmt.Errorf("missing height")
	}
	r, ok, err := pa.number("radius", 1)
	if err != nil {
		return zygo.SexpNull, err
	}
	if !ok {
		return zygo.SexpNull, fmt.Errorf("missing radius")
	}
	n, err := segments(pa)
	if err != nil {
		return zygo.SexpNull, err
	}
	return b.add(graph.NodePrimitive, "cylinder", graph.CylinderData{Height: h, Radius: r, Segments: n}), nil
}

// (defsolid "name" expr) names the solid built by expr.
func (b *builder) defsolid(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("requires a name and a body expression")
	}
	solidName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("name: %w", err)
	}
	if solidName == "" {
		return zygo.SexpNull, fmt.Errorf("name must not be empty")
	}
	if b.g.Lookup(solidName) != nil {
		return zygo.SexpNull, fmt.Errorf("a solid named %q already exists", solidName)
	}
	id, err := toNodeRef(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("body: %w", err)
	}
	n := b.g.Get(id)
	if n.Name != "" {
		return zygo.SexpNull, fmt.Errorf("body is already named %q; use (solid %q)", n.Name, n.Name)
	}
	n.Name = solidName
	b.g.NameIndex[solidName] = id
	b.named = append(b.named, id)
	return &sexpNodeRef{id: id, name: solidName}, nil
}

// (solid "name")
func (b *builder) solid(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("requires a name argument")
	}
	solidName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("name: %w", err)
	}
	n := b.g.Lookup(solidName)
	if n == nil {
		return zygo.SexpNull, fmt.Errorf("no solid named %q", solidName)
	}
	return &sexpNodeRef{id: n.ID, name: solidName}, nil
}

// (union a b ...), (difference a b ...), (intersection a b ...)
// Operands may be solids or lists of solids.
func (b *builder) boolean(op graph.BooleanOp) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		ids, err := nodeRefs(args)
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(ids) < 2 {
			return zygo.SexpNull, fmt.Errorf("requires at least 2 solids, got %d", len(ids))
		}
		return b.add(graph.NodeBoolean, op.String(), graph.BooleanData{Op: op}, ids...), nil
	}
}

// motion reads a vector from the second positional argument, the :by
// keyword, or :x/:y/:z components.
func motion(pa kwArgs) (v3.Vec, error) {
	if len(pa.positional) > 2 {
		return v3.Vec{}, fmt.Errorf("expected a solid and one vector, got %d arguments", len(pa.positional))
	}
	if len(pa.positional) == 2 {
		return toVec3(pa.positional[1])
	}
	if v, ok := pa.kw["by"]; ok {
		return toVec3(v)
	}
	var out v3.Vec
	comps := [3]*float64{&out.X, &out.Y, &out.Z}
	for i, key := range []string{"x", "y", "z"} {
		f, _, err := pa.number(key, -1)
		if err != nil {
			return v3.Vec{}, err
		}
		*comps[i] = f
	}
	return out, nil
}

func (b *builder) transform(args []zygo.Sexp, prefix string, set func(*graph.TransformData, v3.Vec)) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) < 1 {
		return zygo.SexpNull, fmt.Errorf("requires a solid as first argument")
	}
	child, err := toNodeRef(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, err
	}
	v, err := motion(pa)
	if err != nil {
		return zygo.SexpNull, err
	}
	var td graph.TransformData
	set(&td, v)
	return b.add(graph.NodeTransform, prefix, td, child), nil
}

// (translate s (vec3 1 2 3)) or (translate s :x 1 :z 3)
func (b *builder) translate(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	return b.transform(args, "translate", func(td *graph.TransformData, v v3.Vec) { td.Translation = &v })
}

// (rotate s (vec3 0 0 45)) or (rotate s :z 45), in degrees.
func (b *builder) rotate(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	return b.transform(args, "rotate", func(td *graph.TransformData, v v3.Vec) { td.Rotation = &v })
}

// (scene "name" s1 s2 ...) declares a root whose children mesh separately.
func (b *builder) scene(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) < 1 {
		return zygo.SexpNull, fmt.Errorf("requires a name argument")
	}
	sceneName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("name: %w", err)
	}
	if b.g.Lookup(sceneName) != nil {
		return zygo.SexpNull, fmt.Errorf("name %q is already taken", sceneName)
	}
	children, err := nodeRefs(args[1:])
	if err != nil {
		return zygo.SexpNull, err
	}

	id := graph.NewNodeID("scene/" + sceneName)
	b.g.AddNode(&graph.Node{
		ID:       id,
		Kind:     graph.NodeGroup,
		Name:     sceneName,
		Children: children,
		Data:     graph.GroupData{},
	})
	b.g.AddRoot(id)
	return &sexpNodeRef{id: id, name: sceneName}, nil
}
