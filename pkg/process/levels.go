package process

import "github.com/chazu/mortar/pkg/scene"

// intrinsicHeight returns the standing height contribution of one element
// kind, in meters. Kinds without a vertical presence contribute nothing.
func intrinsicHeight(kind scene.NodeKind, d scene.Defaults) (float64, bool) {
	switch kind {
	case scene.KindWall, scene.KindColumn:
		return d.WallHeight, true
	case scene.KindSlab:
		return d.SlabThickness, true
	case scene.KindDoor:
		return d.DoorHeight, true
	case scene.KindWindow:
		return d.WindowHeight, true
	case scene.KindRoof:
		return d.RoofThickness, true
	}
	return 0, false
}

// LevelHeightProcessor derives each level's height: the maximum of
// (intrinsic kind height + the element's own elevation offset) over every
// descendant, nested groups included, floored at the minimum level height.
type LevelHeightProcessor struct{}

func (LevelHeightProcessor) Name() string { return "level-height" }

func (LevelHeightProcessor) Kinds() []scene.NodeKind {
	return []scene.NodeKind{scene.KindLevel}
}

func (LevelHeightProcessor) Process(s *scene.Scene, ix *scene.Index) ([]Patch, []Warning, error) {
	var patches []Patch
	for _, level := range s.Levels() {
		height := s.Defaults.MinLevelHeight
		scene.TraverseFrom(level, func(n *scene.Node, depth int) bool {
			if depth == 0 {
				return true
			}
			h, ok := intrinsicHeight(n.Kind, s.Defaults)
			if !ok {
				return true
			}
			if item, ok := scene.ItemOf(n); ok {
				h += item.Elevation
			}
			if h > height {
				height = h
			}
			return true
		})

		// A decoded level may carry no payload; there is nowhere to store
		// the result, so it is skipped rather than patched forever.
		data, ok := level.Data.(scene.LevelData)
		if !ok {
			continue
		}
		if data.Height != nil && floatEq(*data.Height, height) {
			continue
		}
		h := height
		patches = append(patches, Patch{NodeID: level.ID, Updates: Updates{Height: &h}})
	}
	return patches, nil, nil
}

// LevelElevationProcessor derives each level's base elevation as the running
// sum of the heights below it: elevation[i] = Σ height[0..i-1], with level 0
// at elevation 0. It must run after LevelHeightProcessor; a level whose
// height is not yet computed counts as the minimum level height.
type LevelElevationProcessor struct{}

func (LevelElevationProcessor) Name() string { return "level-elevation" }

func (LevelElevationProcessor) Kinds() []scene.NodeKind {
	return []scene.NodeKind{scene.KindLevel}
}

func (LevelElevationProcessor) Process(s *scene.Scene, ix *scene.Index) ([]Patch, []Warning, error) {
	var patches []Patch
	sum := 0.0
	for _, level := range s.Levels() {
		data, ok := level.Data.(scene.LevelData)
		if !ok {
			// Payload-less level: unwritable, but it still occupies a
			// storey in the stack.
			sum += s.Defaults.MinLevelHeight
			continue
		}
		elev := sum
		if data.Elevation == nil || !floatEq(*data.Elevation, elev) {
			e := elev
			patches = append(patches, Patch{NodeID: level.ID, Updates: Updates{Elevation: &e}})
		}
		if data.Height != nil {
			sum += *data.Height
		} else {
			sum += s.Defaults.MinLevelHeight
		}
	}
	return patches, nil, nil
}

// VerticalStackingProcessor assigns per-element vertical offsets within each
// level: floor-anchored kinds sit on the slab when the level has one (or at
// 0 otherwise), the roof sits on top of the walls. Wall-hosted kinds (doors,
// windows) keep their authored offsets.
type VerticalStackingProcessor struct{}

func (VerticalStackingProcessor) Name() string { return "vertical-stacking" }

func (VerticalStackingProcessor) Kinds() []scene.NodeKind {
	return []scene.NodeKind{scene.KindWall, scene.KindColumn, scene.KindItem, scene.KindSlab, scene.KindRoof}
}

func (VerticalStackingProcessor) Process(s *scene.Scene, ix *scene.Index) ([]Patch, []Warning, error) {
	var patches []Patch
	for _, level := range s.Levels() {
		hasSlab := false
		scene.TraverseFrom(level, func(n *scene.Node, depth int) bool {
			if depth > 0 && n.Kind == scene.KindSlab {
				hasSlab = true
				return false
			}
			return true
		})
		floor := 0.0
		if hasSlab {
			floor = s.Defaults.SlabThickness
		}
		ceiling := floor + s.Defaults.WallHeight

		scene.TraverseFrom(level, func(n *scene.Node, depth int) bool {
			if depth == 0 {
				return true
			}
			item, ok := scene.ItemOf(n)
			if !ok {
				return true
			}
			var want float64
			switch n.Kind {
			case scene.KindWall, scene.KindColumn:
				want = floor
			case scene.KindItem:
				// Items with an authored elevation (shelf contents,
				// wall fixtures) keep it.
				if item.Elevation != 0 {
					return true
				}
				want = floor
			case scene.KindRoof:
				want = ceiling
			case scene.KindSlab:
				want = 0
			default:
				return true
			}
			if floatEq(item.Elevation, want) {
				return true
			}
			w := want
			patches = append(patches, Patch{NodeID: n.ID, Updates: Updates{ElevationOffset: &w}})
			return true
		})
	}
	return patches, nil, nil
}
