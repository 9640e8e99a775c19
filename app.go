package kerf

import (
	"context"
	"fmt"

	"github.com/chazu/kerf/pkg/config"
	"github.com/chazu/kerf/pkg/engine"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/bsp"
	"github.com/chazu/kerf/pkg/logging"
	"github.com/chazu/kerf/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App runs the DSL pipeline: source to scene graph to per-part meshes.
type App struct {
	engine  *engine.Engine
	kernel  kernel.Kernel
	workers int
}

// MeshData is the JSON-serializable mesh format handed to viewers.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable evaluation error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
	NodeID  string `json:"nodeId,omitempty"`
}

// EvalResult is the full result of one Evaluate call. The slices are never
// nil.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates an App with the default configuration and the BSP kernel.
func NewApp() *App {
	a, err := NewAppWithConfig(config.Default(), nil)
	if err != nil {
		panic(fmt.Sprintf("kerf: default configuration rejected: %v", err))
	}
	return a
}

// NewAppWithConfig creates an App from cfg. A nil k selects the BSP kernel
// built from cfg.
func NewAppWithConfig(cfg config.Config, k kernel.Kernel) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if k == nil {
		bk, err := bsp.New(cfg)
		if err != nil {
			return nil, err
		}
		k = bk
	}
	return &App{
		engine:  engine.NewEngineWithConfig(cfg),
		kernel:  k,
		workers: cfg.Workers,
	}, nil
}

// Evaluate takes Lisp source and returns mesh data plus errors.
func (a *App) Evaluate(source string) EvalResult {
	return a.EvaluateContext(context.Background(), source)
}

// EvaluateContext is Evaluate with a context bounding tessellation.
func (a *App) EvaluateContext(ctx context.Context, source string) EvalResult {
	log := logging.Logger()
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Evaluate and validate.
	er := a.engine.EvaluateAll(source)
	for _, w := range er.Warnings {
		d := EvalErrorData{Line: w.Line, Col: w.Col, Message: w.Message}
		if !w.NodeID.IsZero() {
			d.NodeID = w.NodeID.String()
		}
		result.Warnings = append(result.Warnings, d)
	}
	if len(er.Errors) > 0 {
		for _, e := range er.Errors {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		log.Debug("evaluate rejected", "errors", len(er.Errors))
		return result
	}

	meshes, err := tessellate.Tessellate(ctx, er.Graph, a.kernel, a.workers)
	if err != nil {
		log.Error("tessellate failed", "err", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return result
}
