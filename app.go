package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/mortar/pkg/element"
	"github.com/chazu/mortar/pkg/engine"
	"github.com/chazu/mortar/pkg/process"
	"github.com/chazu/mortar/pkg/rooms"
	"github.com/chazu/mortar/pkg/scene"
	"github.com/chazu/mortar/pkg/world"
)

// maxPipelineIterations bounds the fixpoint loop: stacking can raise a level
// height, which shifts the elevations above it, so the pipeline reruns until
// no processor emits a patch.
const maxPipelineIterations = 8

// App is the Wails backend. It exposes methods to the frontend via bindings
// and holds the current scene between calls.
type App struct {
	ctx      context.Context
	engine   *engine.Engine
	registry *element.Registry
	pipeline *process.Pipeline

	mu    sync.Mutex
	scene *scene.Scene
}

// NewApp wires the engine, the builtin element catalog and the processor
// pipeline together.
func NewApp() *App {
	reg, err := element.Builtin(scene.NewDefaults())
	if err != nil {
		log.Fatalf("element catalog: %v", err)
	}
	return &App{
		engine:   engine.NewEngine(),
		registry: reg,
		pipeline: process.NewPipeline(
			process.LevelHeightProcessor{},
			process.LevelElevationProcessor{},
			process.VerticalStackingProcessor{},
			rooms.NewProcessor(),
		),
	}
}

// startup is called by Wails on app startup. The context is saved so Wails
// runtime methods can be called later.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// ---------------------------------------------------------------------------
// Frontend DTOs
// ---------------------------------------------------------------------------

// NodeSummary is the JSON-serializable tree entry sent to the frontend.
type NodeSummary struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Name     string   `json:"name,omitempty"`
	ParentID string   `json:"parentId,omitempty"`
	LevelID  string   `json:"levelId,omitempty"`
	Path     []string `json:"path"`
	Visible  bool     `json:"visible"`
	Opacity  float64  `json:"opacity"`
}

// BoundsData carries an element's derived bounds in meters.
type BoundsData struct {
	NodeID  string       `json:"nodeId"`
	Min     [2]float64   `json:"min"`
	Max     [2]float64   `json:"max"`
	Corners [][2]float64 `json:"corners"`
	MinY    float64      `json:"minY"`
	MaxY    float64      `json:"maxY"`
}

// FootprintData carries an element's ground outline in meters.
type FootprintData struct {
	NodeID string       `json:"nodeId"`
	Points [][2]float64 `json:"points"`
	Area   float64      `json:"area"`
}

// LevelMetric carries a level's computed vertical extent.
type LevelMetric struct {
	NodeID    string   `json:"nodeId"`
	Index     int      `json:"index"`
	Height    *float64 `json:"height,omitempty"`
	Elevation *float64 `json:"elevation,omitempty"`
}

// WallSideData reports which side of a wall faces an enclosed room.
type WallSideData struct {
	NodeID string `json:"nodeId"`
	Side   string `json:"side"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// WarningData is a JSON-serializable pipeline warning.
type WarningData struct {
	NodeID  string `json:"nodeId,omitempty"`
	Message string `json:"message"`
}

// EvalResult is the full recomputed model state returned to the frontend.
type EvalResult struct {
	Nodes      []NodeSummary   `json:"nodes"`
	Bounds     []BoundsData    `json:"bounds"`
	Footprints []FootprintData `json:"footprints"`
	Levels     []LevelMetric   `json:"levels"`
	WallSides  []WallSideData  `json:"wallSides"`
	Errors     []EvalErrorData `json:"errors"`
	Warnings   []WarningData   `json:"warnings"`
}

func emptyResult() EvalResult {
	return EvalResult{
		Nodes:      []NodeSummary{},
		Bounds:     []BoundsData{},
		Footprints: []FootprintData{},
		Levels:     []LevelMetric{},
		WallSides:  []WallSideData{},
		Errors:     []EvalErrorData{},
		Warnings:   []WarningData{},
	}
}

func fatalResult(err error) EvalResult {
	r := emptyResult()
	r.Errors = append(r.Errors, EvalErrorData{Message: err.Error()})
	return r
}

// ---------------------------------------------------------------------------
// Bindings
// ---------------------------------------------------------------------------

// Evaluate runs a building script and returns the recomputed model state.
// This is the primary binding called by the frontend console.
func (a *App) Evaluate(source string) EvalResult {
	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		log.Printf("Evaluate fatal error: %v", err)
		return fatalResult(err)
	}
	if len(evalErrs) > 0 {
		r := emptyResult()
		for _, e := range evalErrs {
			r.Errors = append(r.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return r
	}
	return a.install(s)
}

// LoadScene replaces the current scene with a previously exported one.
func (a *App) LoadScene(data string) EvalResult {
	s, err := scene.DecodeScene([]byte(data))
	if err != nil {
		log.Printf("LoadScene error: %v", err)
		return fatalResult(fmt.Errorf("load failed: %w", err))
	}
	return a.install(s)
}

// ExportScene serializes the current scene to JSON.
func (a *App) ExportScene() (string, error) {
	a.mu.Lock()
	s := a.scene
	a.mu.Unlock()
	if s == nil {
		return "", fmt.Errorf("no scene loaded")
	}
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Recompute reruns the pipeline and derived systems on the current scene.
func (a *App) Recompute() EvalResult {
	a.mu.Lock()
	s := a.scene
	a.mu.Unlock()
	if s == nil {
		return fatalResult(fmt.Errorf("no scene loaded"))
	}
	return a.install(s)
}

// install runs the processor pipeline to a fixed point, rebuilds the derived
// world, stores the settled scene and maps everything to frontend DTOs.
func (a *App) install(s *scene.Scene) EvalResult {
	a.registry.ExtendHierarchy(s.Rules())

	settled, warnings, err := a.pipeline.RunToFixpoint(s, maxPipelineIterations)
	if err != nil {
		log.Printf("pipeline error: %v", err)
		return fatalResult(err)
	}

	a.mu.Lock()
	a.scene = settled
	a.mu.Unlock()

	return a.snapshot(settled, warnings)
}

func (a *App) snapshot(s *scene.Scene, warnings []process.Warning) EvalResult {
	r := emptyResult()
	for _, w := range warnings {
		r.Warnings = append(r.Warnings, WarningData{NodeID: string(w.NodeID), Message: w.Message})
	}

	ix := scene.BuildIndex(s)
	w := world.Build(s, a.registry)
	world.RunGeometry(w)

	s.Traverse(func(n *scene.Node, depth int) bool {
		entry := ix.Get(n.ID)
		if entry == nil {
			return true
		}
		r.Nodes = append(r.Nodes, NodeSummary{
			ID:       string(n.ID),
			Kind:     n.Kind.String(),
			Name:     n.Name,
			ParentID: string(n.ParentID),
			LevelID:  string(entry.LevelID),
			Path:     idStrings(entry.Path),
			Visible:  n.Visible,
			Opacity:  n.Opacity,
		})

		switch n.Kind {
		case scene.KindLevel:
			if data, ok := n.Data.(scene.LevelData); ok {
				r.Levels = append(r.Levels, LevelMetric{
					NodeID:    string(n.ID),
					Index:     data.Index,
					Height:    data.Height,
					Elevation: data.Elevation,
				})
			}
		case scene.KindWall:
			if data, ok := n.Data.(scene.WallData); ok && data.InteriorSide != scene.SideUnknown {
				r.WallSides = append(r.WallSides, WallSideData{
					NodeID: string(n.ID),
					Side:   string(data.InteriorSide),
				})
			}
		}

		we := w.Entry(n.ID)
		if we == nil {
			return true
		}
		if we.HasComponent(world.CompBounds) {
			b := world.CompBounds.Get(we)
			corners := b.OBB.Corners()
			r.Bounds = append(r.Bounds, BoundsData{
				NodeID:  string(n.ID),
				Min:     [2]float64{b.AABB.Min.X, b.AABB.Min.Y},
				Max:     [2]float64{b.AABB.Max.X, b.AABB.Max.Y},
				Corners: vecPairs(corners[:]),
				MinY:    b.MinY,
				MaxY:    b.MaxY,
			})
		}
		if we.HasComponent(world.CompFootprint) {
			f := world.CompFootprint.Get(we)
			r.Footprints = append(r.Footprints, FootprintData{
				NodeID: string(n.ID),
				Points: vecPairs(f.Polygon.Points),
				Area:   f.Area,
			})
		}
		return true
	})
	return r
}

func idStrings(ids []scene.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func vecPairs(vs []v2.Vec) [][2]float64 {
	out := make([][2]float64, 0, len(vs))
	for _, v := range vs {
		out = append(out, [2]float64{v.X, v.Y})
	}
	return out
}
