package element

import (
	"fmt"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/mortar/pkg/geom"
	"github.com/chazu/mortar/pkg/scene"
)

// Strategy names accepted by element specs.
const (
	StrategyOrientedRect = "orientedRectFromSize"
	StrategyRectFromSize = "rectFromSize"
	StrategyPolygon      = "polygon"
)

// Placement is the transform input handed to strategies: the element's grid
// position, rotation and size, plus its vertical offset in meters. It is also
// the data behind the derived world's transform component.
type Placement struct {
	Position  scene.GridPoint
	Rotation  float64
	Size      scene.Size
	Elevation float64
}

// PlacementOf extracts a Placement from a node's grid item.
func PlacementOf(g scene.GridItem) Placement {
	return Placement{
		Position:  g.Position,
		Rotation:  g.Rotation,
		Size:      g.Size,
		Elevation: g.Elevation,
	}
}

// Rect returns the placement's oriented rectangle in grid units.
func (p Placement) Rect() geom.OrientedRect {
	return geom.NewOrientedRect(
		v2.Vec{X: p.Position.X, Y: p.Position.Z},
		v2.Vec{X: p.Size.W, Y: p.Size.D},
		p.Rotation,
	)
}

// BoundsFunc computes an element's oriented bounds in grid units.
// ok = false means degenerate geometry: no result, by design not an error.
type BoundsFunc func(p Placement) (geom.OrientedRect, bool)

// FootprintFunc computes an element's ground polygon in grid units.
type FootprintFunc func(p Placement) (geom.Polygon, bool)

var boundsStrategies = map[string]func(Spec) BoundsFunc{
	StrategyOrientedRect: func(Spec) BoundsFunc {
		return func(p Placement) (geom.OrientedRect, bool) {
			r := p.Rect()
			return r, !r.Degenerate()
		}
	},
}

var footprintStrategies = map[string]func(Spec) FootprintFunc{
	StrategyRectFromSize: func(Spec) FootprintFunc {
		return func(p Placement) (geom.Polygon, bool) {
			r := p.Rect()
			if r.Degenerate() {
				return geom.Polygon{}, false
			}
			return geom.RectPolygon(r), true
		}
	},
	StrategyPolygon: func(spec Spec) FootprintFunc {
		local := geom.Polygon{Points: make([]v2.Vec, len(spec.FootprintPoints))}
		for i, pt := range spec.FootprintPoints {
			local.Points[i] = v2.Vec{X: pt.X, Y: pt.Z}
		}
		return func(p Placement) (geom.Polygon, bool) {
			if !local.Valid() {
				return geom.Polygon{}, false
			}
			center := v2.Vec{X: p.Position.X, Y: p.Position.Z}
			return local.Transform(center, p.Rotation), true
		}
	},
}

// Bundle is the component payload produced for one node by a definition.
// The derived world maps it onto entity components.
type Bundle struct {
	Placement  *Placement
	Snap       *SnapSpec
	Attachment *AttachmentSpec
	Sockets    []SocketSpec
	Surfaces   []SurfaceSpec
}

// Definition is the derived, executable form of a Spec.
type Definition struct {
	Spec             Spec
	Create           func(n *scene.Node) Bundle
	ComputeBounds    BoundsFunc
	ComputeFootprint FootprintFunc
}

// Registry maps element kinds to definitions. It is explicit state injected
// into world building and validation, never a hidden package singleton, so
// tests can build isolated instances.
type Registry struct {
	defs  map[string]*Definition
	specs map[string]Spec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:  make(map[string]*Definition),
		specs: make(map[string]Spec),
	}
}

// Register validates the spec, derives its definition and stores both.
// On validation failure nothing is registered.
func (r *Registry) Register(spec Spec) error {
	if err := spec.validate(); err != nil {
		return err
	}
	if _, exists := r.defs[spec.Kind]; exists {
		return &SpecValidationError{Kind: spec.Kind, Field: "kind", Reason: "already registered"}
	}

	def := &Definition{Spec: spec}
	def.Create = func(n *scene.Node) Bundle {
		b := Bundle{
			Snap:       spec.Snap,
			Attachment: spec.Attachment,
			Sockets:    spec.Sockets,
			Surfaces:   spec.Surfaces,
		}
		if item, ok := scene.ItemOf(n); ok {
			p := PlacementOf(item)
			if p.Size.W == 0 && p.Size.D == 0 {
				p.Size = spec.DefaultSize
			}
			if p.Rotation == 0 && spec.DefaultRotation != 0 {
				p.Rotation = spec.DefaultRotation
			}
			b.Placement = &p
		}
		return b
	}
	if spec.BoundsStrategy != "" {
		def.ComputeBounds = boundsStrategies[spec.BoundsStrategy](spec)
	}
	if spec.FootprintStrategy != "" {
		def.ComputeFootprint = footprintStrategies[spec.FootprintStrategy](spec)
	}

	r.defs[spec.Kind] = def
	r.specs[spec.Kind] = spec
	return nil
}

// Definition returns the derived definition for a kind.
func (r *Registry) Definition(kind string) (*Definition, bool) {
	d, ok := r.defs[kind]
	return d, ok
}

// Spec returns the raw registered spec for a kind.
func (r *Registry) Spec(kind string) (Spec, bool) {
	s, ok := r.specs[kind]
	return s, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.defs))
	for k := range r.defs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ExtendHierarchy widens the scene hierarchy rules with every registered
// spec's LegalParents, so custom catalog kinds declare legality without
// edits to the core table.
func (r *Registry) ExtendHierarchy(rules *scene.HierarchyRules) {
	for kind, spec := range r.specs {
		if len(spec.LegalParents) == 0 {
			continue
		}
		parents := make(map[scene.NodeKind]bool, len(spec.LegalParents))
		for _, name := range spec.LegalParents {
			if k, ok := scene.ParseKind(name); ok {
				parents[k] = true
			}
		}
		k := kind
		rules.Extend(func(child, parent *scene.Node) bool {
			return scene.ElementKindOf(child) == k && parents[parent.Kind]
		})
	}
}

// Builtin returns a registry pre-loaded with the standard building catalog,
// sized from the scene defaults.
func Builtin(d scene.Defaults) (*Registry, error) {
	r := NewRegistry()
	specs := []Spec{
		{
			SchemaVersion: SchemaVersion, Kind: "wall", Label: "Wall",
			DefaultSize: scene.Size{W: 2, D: d.WallThickness}, Height: d.WallHeight,
			BoundsStrategy: StrategyOrientedRect, FootprintStrategy: StrategyRectFromSize,
			Snap: &SnapSpec{Grid: 0.5},
		},
		{
			SchemaVersion: SchemaVersion, Kind: "slab", Label: "Floor slab",
			DefaultSize: scene.Size{W: 8, D: 8}, Height: d.SlabThickness,
			BoundsStrategy: StrategyOrientedRect, FootprintStrategy: StrategyRectFromSize,
		},
		{
			SchemaVersion: SchemaVersion, Kind: "column", Label: "Column",
			DefaultSize: scene.Size{W: 0.6, D: 0.6}, Height: d.WallHeight,
			BoundsStrategy: StrategyOrientedRect, FootprintStrategy: StrategyRectFromSize,
			Snap: &SnapSpec{Grid: 0.5, RotationStep: 0},
		},
		{
			SchemaVersion: SchemaVersion, Kind: "roof", Label: "Roof",
			DefaultSize: scene.Size{W: 8, D: 8}, Height: d.RoofThickness,
			BoundsStrategy: StrategyOrientedRect, FootprintStrategy: StrategyRectFromSize,
		},
		{
			SchemaVersion: SchemaVersion, Kind: "door", Label: "Door",
			DefaultSize: scene.Size{W: 1.8, D: d.WallThickness}, Height: d.DoorHeight,
			BoundsStrategy: StrategyOrientedRect, FootprintStrategy: StrategyRectFromSize,
			Attachment: &AttachmentSpec{HostKinds: []string{"wall"}, Anchor: "centerline"},
		},
		{
			SchemaVersion: SchemaVersion, Kind: "window", Label: "Window",
			DefaultSize: scene.Size{W: 2, D: d.WallThickness}, Height: d.WindowHeight,
			BoundsStrategy: StrategyOrientedRect, FootprintStrategy: StrategyRectFromSize,
			Attachment: &AttachmentSpec{HostKinds: []string{"wall"}, Anchor: "centerline"},
		},
		{
			SchemaVersion: SchemaVersion, Kind: "item", Label: "Generic item",
			DefaultSize: scene.Size{W: 1, D: 1}, Height: 1,
			BoundsStrategy: StrategyOrientedRect, FootprintStrategy: StrategyRectFromSize,
			Snap: &SnapSpec{Grid: 0.25, ToWalls: true, ToItems: true},
		},
	}
	for _, spec := range specs {
		if err := r.Register(spec); err != nil {
			return nil, fmt.Errorf("element: builtin catalog: %w", err)
		}
	}
	return r, nil
}
