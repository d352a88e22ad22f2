package world

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/component"

	"github.com/chazu/mortar/pkg/element"
	"github.com/chazu/mortar/pkg/scene"
)

// World is one derived entity-component snapshot.
type World struct {
	ECS      donburi.World
	Defaults scene.Defaults

	registry *element.Registry
	entities map[scene.NodeID]donburi.Entity
}

// Build creates a world from a scene snapshot and an element registry: one
// entity per node under every level (the level included). Nodes without a
// registered element kind (levels, groups) simply receive no element
// components; that is not an error.
func Build(s *scene.Scene, reg *element.Registry) *World {
	w := &World{
		ECS:      donburi.NewWorld(),
		Defaults: s.Defaults,
		registry: reg,
		entities: make(map[scene.NodeID]donburi.Entity),
	}
	for _, level := range s.Levels() {
		levelID := level.ID
		scene.TraverseFrom(level, func(n *scene.Node, _ int) bool {
			w.addNode(n, levelID)
			return true
		})
	}
	return w
}

func (w *World) addNode(n *scene.Node, levelID scene.NodeID) {
	kind := ""
	var bundle element.Bundle
	var def *element.Definition
	if d, ok := w.registry.Definition(scene.ElementKindOf(n)); ok {
		def = d
		kind = d.Spec.Kind
		bundle = d.Create(n)
	}

	types := []component.IComponentType{CompTag, CompVisibility, CompHierarchy}
	if bundle.Placement != nil {
		types = append(types, CompTransform)
		if def.ComputeBounds != nil {
			types = append(types, CompBounds)
		}
		if def.ComputeFootprint != nil {
			types = append(types, CompFootprint)
		}
	}
	if bundle.Snap != nil {
		types = append(types, CompSnap)
	}
	if bundle.Attachment != nil {
		types = append(types, CompAttachment)
	}
	if len(bundle.Sockets) > 0 {
		types = append(types, CompSockets)
	}
	if len(bundle.Surfaces) > 0 {
		types = append(types, CompSurfaces)
	}

	entity := w.ECS.Create(types...)
	entry := w.ECS.Entry(entity)
	CompTag.SetValue(entry, ElementTag{NodeID: n.ID, Kind: kind})
	CompVisibility.SetValue(entry, Visibility{Visible: n.Visible, Opacity: n.Opacity})
	CompHierarchy.SetValue(entry, Hierarchy{ParentID: n.ParentID, LevelID: levelID})
	if bundle.Placement != nil {
		CompTransform.SetValue(entry, *bundle.Placement)
	}
	if bundle.Snap != nil {
		CompSnap.SetValue(entry, *bundle.Snap)
	}
	if bundle.Attachment != nil {
		CompAttachment.SetValue(entry, *bundle.Attachment)
	}
	if len(bundle.Sockets) > 0 {
		CompSockets.SetValue(entry, Sockets{Sockets: bundle.Sockets})
	}
	if len(bundle.Surfaces) > 0 {
		CompSurfaces.SetValue(entry, Surfaces{Surfaces: bundle.Surfaces})
	}
	w.entities[n.ID] = entity
}

// Registry returns the element registry the world was built with.
func (w *World) Registry() *element.Registry { return w.registry }

// Entity returns the entity backing a node id.
func (w *World) Entity(id scene.NodeID) (donburi.Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// Entry returns the donburi entry for a node id, or nil.
func (w *World) Entry(id scene.NodeID) *donburi.Entry {
	e, ok := w.entities[id]
	if !ok {
		return nil
	}
	return w.ECS.Entry(e)
}

// Len returns the number of entities.
func (w *World) Len() int { return len(w.entities) }
