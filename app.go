package main

import (
	"context"

	"github.com/chazu/raceway/pkg/config"
	"github.com/chazu/raceway/pkg/engine"
	"github.com/chazu/raceway/pkg/kernel"
	"github.com/chazu/raceway/pkg/kernel/manifold"
	"github.com/chazu/raceway/pkg/kernel/sdfx"
	"github.com/chazu/raceway/pkg/log"
	"github.com/chazu/raceway/pkg/model"
	"github.com/chazu/raceway/pkg/route"
	"github.com/chazu/raceway/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to runs.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx    context.Context
	cfg    config.Config
	engine *engine.Engine
	kernel kernel.Kernel

	// doc is the most recently evaluated document, used by the
	// connection preview binding.
	doc *model.Document
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// ConnectPreview describes what a connect of two runs would do, without
// applying it. Returned by the PreviewConnect binding so the frontend
// can show the routing before the user commits it to the script.
type ConnectPreview struct {
	Relationship string  `json:"relationship"`
	Strategy     string  `json:"strategy"`
	Offset       float64 `json:"offset"`
	Joints       int     `json:"joints"`
	Error        string  `json:"error,omitempty"`
}

// NewApp creates a new App from the default config path.
func NewApp() *App {
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		log.Warnf("config load failed, using defaults: %v", err)
	}
	if err := log.Init(cfg.Debug); err != nil {
		log.Errorf("log init: %v", err)
	}

	return &App{
		cfg:    cfg,
		engine: engine.NewEngineWith(cfg.DocumentDefaults()),
		kernel: newKernel(cfg),
	}
}

// newKernel selects the geometry backend from config, falling back to
// sdfx when the manifold backend is not compiled in.
func newKernel(cfg config.Config) kernel.Kernel {
	if cfg.Kernel == "manifold" {
		k, err := manifold.New()
		if err == nil {
			return k
		}
		log.Warnf("manifold kernel unavailable (%v), falling back to sdfx", err)
	}
	return sdfx.New()
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	log.Infof("raceway started (kernel=%s)", a.cfg.Kernel)
}

// Evaluate takes Lisp source and returns mesh data + errors.
// This is the primary binding called by the frontend editor.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a document.
	r, err := a.engine.EvaluateFull(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Errorf("evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	for _, w := range r.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Line:    w.Line,
			Col:     w.Col,
			Message: w.Message,
		})
	}

	// Step 2: Validate all tiers. Blocking findings stop rendering;
	// advisory findings are passed through.
	vr := model.ValidateAll(r.Document)
	for _, w := range vr.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.Message})
	}
	if len(vr.Errors) > 0 {
		for _, e := range vr.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Message: e.Error()})
		}
		return result
	}

	a.doc = r.Document

	// Step 3: Tessellate the document into triangle meshes.
	meshes, err := tessellate.Tessellate(r.Document, a.kernel)
	if err != nil {
		log.Errorf("tessellate error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	// Step 4: Convert kernel meshes to the frontend MeshData format.
	for i, m := range meshes {
		color := colorPalette[i%len(colorPalette)]
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    color,
		})
	}

	return result
}

// PreviewConnect runs the routing planner for two named runs of the last
// evaluated document without applying anything. freeA and freeB are
// "start" or "end".
func (a *App) PreviewConnect(runA, runB, freeA, freeB string) ConnectPreview {
	if a.doc == nil {
		return ConnectPreview{Error: "no document evaluated yet"}
	}

	na := a.doc.Lookup(runA)
	nb := a.doc.Lookup(runB)
	if na == nil || nb == nil {
		return ConnectPreview{Error: "no such run"}
	}
	ca, aok := na.Data.(model.ConduitData)
	cb, bok := nb.Data.(model.ConduitData)
	if !aok || !bok {
		return ConnectPreview{Error: "not a conduit run"}
	}

	fa, ok := a.doc.ConnectorPoint(model.ConnectorRef{Conduit: na.ID, End: model.End(freeA)})
	if !ok {
		return ConnectPreview{Error: "invalid free end for run a"}
	}
	fb, ok := a.doc.ConnectorPoint(model.ConnectorRef{Conduit: nb.ID, End: model.End(freeB)})
	if !ok {
		return ConnectPreview{Error: "invalid free end for run b"}
	}

	out, err := route.Connect(ca.Run, cb.Run, fa, fb, a.doc.Tolerance())
	if err != nil {
		return ConnectPreview{Error: err.Error()}
	}

	return ConnectPreview{
		Relationship: out.Classification.Relationship.String(),
		Strategy:     out.Strategy.String(),
		Offset:       out.Classification.Offset,
		Joints:       len(out.Plan.Joints),
	}
}
