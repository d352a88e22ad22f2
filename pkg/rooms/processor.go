package rooms

import (
	"fmt"

	"github.com/chazu/mortar/pkg/process"
	"github.com/chazu/mortar/pkg/scene"
)

// Processor runs room detection per level and updates each wall's
// room-facing side. Detection failures on one level (such as an oversized
// occupancy grid) degrade to warnings so the rest of the pipeline proceeds.
type Processor struct {
	Options Options
}

func NewProcessor() *Processor { return &Processor{} }

func (p *Processor) Name() string { return "room-detection" }

func (p *Processor) Kinds() []scene.NodeKind {
	return []scene.NodeKind{scene.KindWall}
}

func (p *Processor) Process(s *scene.Scene, ix *scene.Index) ([]process.Patch, []process.Warning, error) {
	var patches []process.Patch
	var warnings []process.Warning

	for _, level := range s.Levels() {
		walls := CollectWalls(level, s.Defaults)
		res, err := Detect(walls, s.Defaults, p.Options)
		if err != nil {
			warnings = append(warnings, process.Warning{
				NodeID:  level.ID,
				Message: fmt.Sprintf("room detection skipped: %v", err),
			})
			continue
		}
		for _, id := range res.Skipped {
			warnings = append(warnings, process.Warning{
				NodeID:  id,
				Message: "zero-length wall excluded from room detection",
			})
		}
		for id, side := range res.Sides {
			n := s.FindByID(id)
			if n == nil {
				continue
			}
			data, ok := n.Data.(scene.WallData)
			if !ok || data.InteriorSide == side {
				continue
			}
			v := side
			patches = append(patches, process.Patch{
				NodeID:  id,
				Updates: process.Updates{InteriorSide: &v},
			})
		}
	}
	return patches, warnings, nil
}
