// Package rooms infers enclosed interior spaces from raw wall geometry. It
// rasterizes a level's walls onto a dense occupancy grid, labels the exterior
// and each enclosed region by flood fill, and derives the room-facing side of
// every wall.
package rooms

import "math"

// Cell states. Room regions use positive ids starting at 1.
const (
	CellEmpty    int32 = 0
	CellWall     int32 = -1
	CellExterior int32 = -2
)

// Grid is a dense occupancy raster over a bounding rectangle of the level, at
// fixed resolution. It exists for one detection pass and is discarded once
// wall sides are derived; memory is O(area / resolution²).
type Grid struct {
	MinX, MinZ float64 // world position of cell (0,0)'s corner, grid units
	W, H       int
	Res        float64 // cell edge, grid units
	cells      []int32 // row-major, index = iz*W + ix
}

// NewGrid allocates an all-EMPTY grid covering [minX,minX+w*res) × [minZ,...).
func NewGrid(minX, minZ float64, w, h int, res float64) *Grid {
	return &Grid{
		MinX: minX, MinZ: minZ,
		W: w, H: h, Res: res,
		cells: make([]int32, w*h),
	}
}

// At returns the state of cell (ix, iz); out-of-range reads are EXTERIOR.
func (g *Grid) At(ix, iz int) int32 {
	if ix < 0 || iz < 0 || ix >= g.W || iz >= g.H {
		return CellExterior
	}
	return g.cells[iz*g.W+ix]
}

func (g *Grid) set(ix, iz int, v int32) {
	g.cells[iz*g.W+ix] = v
}

// CellAt maps a world point to cell coordinates. The point may be outside
// the raster; callers check bounds via At.
func (g *Grid) CellAt(x, z float64) (int, int) {
	return int(math.Floor((x - g.MinX) / g.Res)), int(math.Floor((z - g.MinZ) / g.Res))
}

// center returns the world coordinates of a cell's midpoint.
func (g *Grid) center(ix, iz int) (float64, float64) {
	return g.MinX + (float64(ix)+0.5)*g.Res, g.MinZ + (float64(iz)+0.5)*g.Res
}

// floodFrom labels the 4-connected EMPTY region reachable from the seed,
// using an explicit BFS queue. It reports how many cells were labeled;
// 0 when the seed is not EMPTY.
func (g *Grid) floodFrom(ix, iz int, label int32) int {
	if g.At(ix, iz) != CellEmpty {
		return 0
	}
	type cell struct{ x, z int }
	queue := []cell{{ix, iz}}
	g.set(ix, iz, label)
	count := 1
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, d := range [4]cell{{c.x - 1, c.z}, {c.x + 1, c.z}, {c.x, c.z - 1}, {c.x, c.z + 1}} {
			if d.x < 0 || d.z < 0 || d.x >= g.W || d.z >= g.H {
				continue
			}
			if g.cells[d.z*g.W+d.x] != CellEmpty {
				continue
			}
			g.set(d.x, d.z, label)
			queue = append(queue, d)
			count++
		}
	}
	return count
}

// markExterior flood-fills EXTERIOR from every EMPTY border cell. The fill
// runs through EMPTY cells only and never crosses WALL.
func (g *Grid) markExterior() {
	for ix := 0; ix < g.W; ix++ {
		g.floodFrom(ix, 0, CellExterior)
		g.floodFrom(ix, g.H-1, CellExterior)
	}
	for iz := 0; iz < g.H; iz++ {
		g.floodFrom(0, iz, CellExterior)
		g.floodFrom(g.W-1, iz, CellExterior)
	}
}

// labelRooms assigns a fresh positive id to every remaining EMPTY connected
// component and returns the number of rooms found.
func (g *Grid) labelRooms() int {
	next := int32(1)
	for iz := 0; iz < g.H; iz++ {
		for ix := 0; ix < g.W; ix++ {
			if g.cells[iz*g.W+ix] == CellEmpty {
				g.floodFrom(ix, iz, next)
				next++
			}
		}
	}
	return int(next - 1)
}

// rasterizeSegment marks every cell whose center lies within halfWidth of
// the segment as WALL.
func (g *Grid) rasterizeSegment(x0, z0, x1, z1, halfWidth float64) {
	// Only the segment's padded bounding box needs scanning.
	pad := halfWidth + g.Res
	minIX, minIZ := g.CellAt(math.Min(x0, x1)-pad, math.Min(z0, z1)-pad)
	maxIX, maxIZ := g.CellAt(math.Max(x0, x1)+pad, math.Max(z0, z1)+pad)
	minIX, minIZ = clamp(minIX, 0, g.W-1), clamp(minIZ, 0, g.H-1)
	maxIX, maxIZ = clamp(maxIX, 0, g.W-1), clamp(maxIZ, 0, g.H-1)

	// A wall thinner than a cell must still close the region it bounds.
	// The floor is res*0.75: above res*√2/2, so the marked band stays
	// 4-connected on diagonal centerlines too, with no corner-touching
	// gaps for the exterior fill to leak through.
	reach := math.Max(halfWidth, g.Res*0.75)
	for iz := minIZ; iz <= maxIZ; iz++ {
		for ix := minIX; ix <= maxIX; ix++ {
			cx, cz := g.center(ix, iz)
			if distPointSegment(cx, cz, x0, z0, x1, z1) <= reach {
				g.set(ix, iz, CellWall)
			}
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// distPointSegment returns the distance from point p to segment ab.
func distPointSegment(px, pz, ax, az, bx, bz float64) float64 {
	abx, abz := bx-ax, bz-az
	apx, apz := px-ax, pz-az
	lenSq := abx*abx + abz*abz
	if lenSq == 0 {
		return math.Hypot(apx, apz)
	}
	t := (apx*abx + apz*abz) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(ax+t*abx), pz-(az+t*abz))
}
