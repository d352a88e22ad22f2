// Package world is the ephemeral entity-component layer derived from a scene
// snapshot. Entities are node ids, components are typed per-entity records in
// a donburi world; the whole structure is disposable and rebuilt after edits,
// never a source of truth.
package world

import (
	"github.com/deadsy/sdfx/sdf"
	"github.com/yohamta/donburi"

	"github.com/chazu/mortar/pkg/element"
	"github.com/chazu/mortar/pkg/geom"
	"github.com/chazu/mortar/pkg/scene"
)

// ElementTag identifies the node and element-spec kind behind an entity.
type ElementTag struct {
	NodeID scene.NodeID
	Kind   string // element-spec kind, "" when no spec is registered
}

// Visibility mirrors the node's display state.
type Visibility struct {
	Visible bool
	Opacity float64
}

// Hierarchy records the entity's place in the scene tree.
type Hierarchy struct {
	ParentID scene.NodeID
	LevelID  scene.NodeID
}

// Bounds is the derived bounding geometry in meters: an axis-aligned box
// over the rotated corners plus the oriented box itself, with the vertical
// extent from the element's offset and intrinsic height.
type Bounds struct {
	AABB sdf.Box2
	OBB  geom.OrientedRect
	MinY float64
	MaxY float64
}

// Footprint is the derived ground polygon in meters.
type Footprint struct {
	Polygon geom.Polygon
	Area    float64
}

// Sockets and Surfaces wrap the spec-declared slices into component records.
type Sockets struct{ Sockets []element.SocketSpec }
type Surfaces struct{ Surfaces []element.SurfaceSpec }

// Component types. Declaring them as package variables is the donburi idiom;
// the stores they key live inside each World instance.
var (
	CompTag        = donburi.NewComponentType[ElementTag]()
	CompTransform  = donburi.NewComponentType[element.Placement]()
	CompVisibility = donburi.NewComponentType[Visibility]()
	CompHierarchy  = donburi.NewComponentType[Hierarchy]()
	CompBounds     = donburi.NewComponentType[Bounds]()
	CompFootprint  = donburi.NewComponentType[Footprint]()
	CompSnap       = donburi.NewComponentType[element.SnapSpec]()
	CompAttachment = donburi.NewComponentType[element.AttachmentSpec]()
	CompSockets    = donburi.NewComponentType[Sockets]()
	CompSurfaces   = donburi.NewComponentType[Surfaces]()
)
