// Package process runs ordered, pure per-node computation passes over a
// scene snapshot. Each processor reads the tree and emits patches; the
// pipeline applies them through the same primitives user edits use, so
// derived properties never bypass the scene's mutation discipline.
package process

import (
	"fmt"
	"math"

	"github.com/chazu/mortar/pkg/scene"
)

// Updates is the set of derived fields a patch may assign. Nil fields are
// left untouched.
type Updates struct {
	Height          *float64        // level height, meters
	Elevation       *float64        // level elevation, meters
	ElevationOffset *float64        // element vertical offset, meters
	InteriorSide    *scene.WallSide // wall room-facing side
}

// Patch assigns derived values to one node.
type Patch struct {
	NodeID  scene.NodeID
	Updates Updates
}

// Warning is a non-fatal finding produced while processing (degenerate
// geometry, skipped levels).
type Warning struct {
	NodeID  scene.NodeID
	Message string
}

// Processor is one pure pass. Process must not mutate its inputs and must be
// idempotent on a fixed snapshot: once its patches are applied, a second run
// over the result emits none. Kinds declares the node kinds the pass rewrites;
// the pipeline skips a processor when the tree holds none of them.
type Processor interface {
	Name() string
	Kinds() []scene.NodeKind
	Process(s *scene.Scene, ix *scene.Index) ([]Patch, []Warning, error)
}

// Apply writes the patches into the scene via UpdateNode, returning the new
// snapshot. Unknown ids fail with *scene.NodeNotFoundError.
func Apply(s *scene.Scene, patches []Patch) (*scene.Scene, error) {
	cur := s
	for _, p := range patches {
		next, ok := cur.UpdateNode(p.NodeID, func(n *scene.Node) {
			applyUpdates(n, p.Updates)
		})
		if !ok {
			return nil, &scene.NodeNotFoundError{ID: p.NodeID}
		}
		cur = next
	}
	return cur, nil
}

func applyUpdates(n *scene.Node, u Updates) {
	if u.Height != nil || u.Elevation != nil {
		if d, ok := n.Data.(scene.LevelData); ok {
			if u.Height != nil {
				h := *u.Height
				d.Height = &h
			}
			if u.Elevation != nil {
				e := *u.Elevation
				d.Elevation = &e
			}
			n.Data = d
		}
	}
	if u.ElevationOffset != nil {
		if item, ok := scene.ItemOf(n); ok {
			item.Elevation = *u.ElevationOffset
			scene.WithItem(n, item)
		}
	}
	if u.InteriorSide != nil {
		if d, ok := n.Data.(scene.WallData); ok {
			d.InteriorSide = *u.InteriorSide
			n.Data = d
		}
	}
}

// Pipeline is an ordered sequence of processors.
type Pipeline struct {
	Processors []Processor
}

// NewPipeline builds a pipeline; order matters (height before elevation).
func NewPipeline(procs ...Processor) *Pipeline {
	return &Pipeline{Processors: procs}
}

// Run executes a single ordered pass, applying each processor's patches
// before the next processor sees the tree. It returns the new snapshot, the
// total patch count (0 means the tree was already a fixed point) and any
// warnings gathered along the way.
func (p *Pipeline) Run(s *scene.Scene) (*scene.Scene, int, []Warning, error) {
	cur := s
	total := 0
	var warnings []Warning
	for _, proc := range p.Processors {
		ix := scene.BuildIndex(cur)
		if !anyOfKinds(ix, proc.Kinds()) {
			continue
		}
		patches, warns, err := proc.Process(cur, ix)
		if err != nil {
			return nil, 0, warnings, fmt.Errorf("process: %s: %w", proc.Name(), err)
		}
		warnings = append(warnings, warns...)
		next, err := Apply(cur, patches)
		if err != nil {
			return nil, 0, warnings, fmt.Errorf("process: %s: %w", proc.Name(), err)
		}
		cur = next
		total += len(patches)
	}
	return cur, total, warnings, nil
}

// RunToFixpoint repeats Run until a pass emits no patches, up to maxIter
// passes. Stage interactions (stacking feeding back into height) settle in
// two passes on well-formed trees. Only the settled pass's warnings are
// returned; earlier passes repeat the same findings.
func (p *Pipeline) RunToFixpoint(s *scene.Scene, maxIter int) (*scene.Scene, []Warning, error) {
	cur := s
	var warnings []Warning
	for i := 0; i < maxIter; i++ {
		next, n, warns, err := p.Run(cur)
		warnings = warns
		if err != nil {
			return nil, warnings, err
		}
		cur = next
		if n == 0 {
			return cur, warnings, nil
		}
	}
	return nil, warnings, fmt.Errorf("process: no fixed point after %d passes", maxIter)
}

// anyOfKinds reports whether the indexed tree holds at least one node of the
// declared kinds. An empty declaration qualifies unconditionally.
func anyOfKinds(ix *scene.Index, kinds []scene.NodeKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if len(ix.ByKind(k)) > 0 {
			return true
		}
	}
	return false
}

// floatEq compares derived measures with a tolerance well below authoring
// precision.
func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
