package world

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
)

// elementQuery selects entities holding both a transform and an element tag —
// the qualifying set for every geometry system.
var elementQuery = donburi.NewQuery(filter.Contains(CompTransform, CompTag))

// BoundsSystem computes the Bounds component for every qualifying entity by
// invoking the registered bounds strategy of its element kind. Degenerate
// geometry yields no component value, a valid absence.
type BoundsSystem struct{}

// Run executes the pass and returns how many bounds were computed.
func (BoundsSystem) Run(w *World) int {
	count := 0
	elementQuery.Each(w.ECS, func(entry *donburi.Entry) {
		tag := CompTag.Get(entry)
		def, ok := w.registry.Definition(tag.Kind)
		if !ok || def.ComputeBounds == nil {
			return
		}
		p := *CompTransform.Get(entry)
		rect, ok := def.ComputeBounds(p)
		if !ok {
			return
		}
		m := rect.Scale(w.Defaults.GridUnit)
		CompBounds.SetValue(entry, Bounds{
			AABB: m.AABB(),
			OBB:  m,
			MinY: p.Elevation,
			MaxY: p.Elevation + def.Spec.Height,
		})
		count++
	})
	return count
}

// FootprintSystem computes the Footprint component for every qualifying
// entity via its registered footprint strategy.
type FootprintSystem struct{}

// Run executes the pass and returns how many footprints were computed.
func (FootprintSystem) Run(w *World) int {
	count := 0
	elementQuery.Each(w.ECS, func(entry *donburi.Entry) {
		tag := CompTag.Get(entry)
		def, ok := w.registry.Definition(tag.Kind)
		if !ok || def.ComputeFootprint == nil {
			return
		}
		p := *CompTransform.Get(entry)
		poly, ok := def.ComputeFootprint(p)
		if !ok {
			return
		}
		m := poly.Scale(w.Defaults.GridUnit)
		CompFootprint.SetValue(entry, Footprint{Polygon: m, Area: m.Area()})
		count++
	})
	return count
}

// RunGeometry runs both geometry systems. Their relative order is free; both
// only require transforms to already exist in the world.
func RunGeometry(w *World) (bounds, footprints int) {
	return BoundsSystem{}.Run(w), FootprintSystem{}.Run(w)
}
