package rooms

import (
	"fmt"
	"math"

	"github.com/chazu/mortar/pkg/scene"
)

// DefaultResolution is the occupancy cell edge in grid units.
const DefaultResolution = 0.1

// DefaultMaxCells caps the grid allocation. The cap is a documented
// limitation: oversized levels fail detection instead of being degraded
// automatically.
const DefaultMaxCells = 4_000_000

const zeroLengthEps = 1e-9

// WallSeg is one wall centerline handed to detection, in grid units.
type WallSeg struct {
	ID        scene.NodeID
	Start     scene.GridPoint
	End       scene.GridPoint
	Thickness float64
}

// Options tunes a detection pass. Zero values take the defaults.
type Options struct {
	Resolution       float64
	DefaultThickness float64
	MaxCells         int
}

func (o Options) withDefaults(d scene.Defaults) Options {
	if o.Resolution <= 0 {
		o.Resolution = DefaultResolution
	}
	if o.DefaultThickness <= 0 {
		o.DefaultThickness = d.WallThickness
	}
	if o.MaxCells <= 0 {
		o.MaxCells = DefaultMaxCells
	}
	return o
}

// Result is the outcome of one detection pass over a level's walls.
type Result struct {
	RoomCount int
	Sides     map[scene.NodeID]scene.WallSide
	Skipped   []scene.NodeID // degenerate walls left unclassified
}

// CollectWalls gathers the wall segments of a level, descending into nested
// groups. Thickness falls back to the scene default.
func CollectWalls(level *scene.Node, d scene.Defaults) []WallSeg {
	var segs []WallSeg
	scene.TraverseFrom(level, func(n *scene.Node, depth int) bool {
		if n.Kind != scene.KindWall {
			return true
		}
		data, ok := n.Data.(scene.WallData)
		if !ok {
			return true
		}
		thickness := data.Thickness
		if thickness <= 0 {
			thickness = d.WallThickness
		}
		segs = append(segs, WallSeg{
			ID:        n.ID,
			Start:     data.Start,
			End:       data.End,
			Thickness: thickness,
		})
		return true
	})
	return segs
}

// Detect rasterizes the walls onto an occupancy grid, flood-fills the
// exterior, labels enclosed rooms, and classifies each wall's room-facing
// side. A wall-less level yields an empty result, not an error; zero-length
// walls are skipped and reported in Result.Skipped.
func Detect(walls []WallSeg, d scene.Defaults, opts Options) (*Result, error) {
	opts = opts.withDefaults(d)
	res := &Result{Sides: make(map[scene.NodeID]scene.WallSide)}

	var usable []WallSeg
	minX, minZ := math.Inf(1), math.Inf(1)
	maxX, maxZ := math.Inf(-1), math.Inf(-1)
	for _, w := range walls {
		if segLength(w) < zeroLengthEps {
			res.Skipped = append(res.Skipped, w.ID)
			continue
		}
		usable = append(usable, w)
		minX = math.Min(minX, math.Min(w.Start.X, w.End.X))
		maxX = math.Max(maxX, math.Max(w.Start.X, w.End.X))
		minZ = math.Min(minZ, math.Min(w.Start.Z, w.End.Z))
		maxZ = math.Max(maxZ, math.Max(w.Start.Z, w.End.Z))
	}
	if len(usable) == 0 {
		return res, nil
	}

	// Pad the extent so a ring of EMPTY border cells always exists: the
	// exterior fill seeds from the border.
	step := opts.Resolution
	maxThickness := 0.0
	for _, w := range usable {
		maxThickness = math.Max(maxThickness, w.Thickness)
	}
	pad := maxThickness/2 + 2*step
	minX, minZ = minX-pad, minZ-pad
	maxX, maxZ = maxX+pad, maxZ+pad

	w := int(math.Ceil((maxX-minX)/step)) + 1
	h := int(math.Ceil((maxZ-minZ)/step)) + 1
	if w*h > opts.MaxCells {
		return nil, fmt.Errorf("rooms: occupancy grid %d×%d exceeds the %d-cell cap; reduce the level extent or coarsen the resolution", w, h, opts.MaxCells)
	}
	grid := NewGrid(minX, minZ, w, h, step)

	for _, wall := range usable {
		grid.rasterizeSegment(wall.Start.X, wall.Start.Z, wall.End.X, wall.End.Z, wall.Thickness/2)
	}
	grid.markExterior()
	res.RoomCount = grid.labelRooms()

	for _, wall := range usable {
		res.Sides[wall.ID] = classifySides(grid, wall)
	}
	return res, nil
}

func segLength(w WallSeg) float64 {
	return math.Hypot(w.End.X-w.Start.X, w.End.Z-w.Start.Z)
}

// sampleCount is how many probe points are taken along each side of a wall.
const sampleCount = 9

// classifySides probes cells offset to either side of the wall's centerline.
// Front is the side toward the centerline direction rotated clockwise on the
// plan (start→end with +X east and +Z south); the convention is arbitrary but
// fixed, and pinned down by the closed-room tests.
func classifySides(g *Grid, w WallSeg) scene.WallSide {
	length := segLength(w)
	dirX := (w.End.X - w.Start.X) / length
	dirZ := (w.End.Z - w.Start.Z) / length
	// Front normal: rotate direction by -90° in the x/z plane.
	nx, nz := dirZ, -dirX
	offset := w.Thickness/2 + 1.5*g.Res

	front, back := false, false
	for i := 0; i < sampleCount; i++ {
		t := (float64(i) + 0.5) / sampleCount
		px := w.Start.X + dirX*length*t
		pz := w.Start.Z + dirZ*length*t
		if probeRoom(g, px+nx*offset, pz+nz*offset) {
			front = true
		}
		if probeRoom(g, px-nx*offset, pz-nz*offset) {
			back = true
		}
	}

	switch {
	case front && back:
		return scene.SideBoth
	case front:
		return scene.SideFront
	case back:
		return scene.SideBack
	default:
		return scene.SideNeither
	}
}

func probeRoom(g *Grid, x, z float64) bool {
	ix, iz := g.CellAt(x, z)
	return g.At(ix, iz) > 0
}
