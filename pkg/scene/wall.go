package scene

import "math"

// NewWall builds a wall node from its centerline endpoints, in grid units.
// Thickness 0 falls back to the scene default at detection time.
func NewWall(start, end GridPoint, thickness float64) *Node {
	d := WallData{
		Start:     start,
		End:       end,
		Thickness: thickness,
	}
	d.GridItem = placementFromEndpoints(start, end, thickness)
	return NewNode(KindWall, d)
}

// SyncEndpoints recomputes Start/End from the wall's placement, restoring the
// invariant after a position/rotation/size edit.
func (d WallData) SyncEndpoints() WallData {
	half := d.Size.W / 2
	dx := math.Cos(d.Rotation) * half
	dz := -math.Sin(d.Rotation) * half
	d.Start = GridPoint{X: d.Position.X - dx, Z: d.Position.Z - dz}
	d.End = GridPoint{X: d.Position.X + dx, Z: d.Position.Z + dz}
	return d
}

// SyncPlacement recomputes the placement from Start/End, the inverse of
// SyncEndpoints.
func (d WallData) SyncPlacement() WallData {
	d.GridItem = placementFromEndpoints(d.Start, d.End, d.Thickness)
	return d
}

// Length returns the centerline length in grid units.
func (d WallData) Length() float64 {
	dx := d.End.X - d.Start.X
	dz := d.End.Z - d.Start.Z
	return math.Hypot(dx, dz)
}

func placementFromEndpoints(start, end GridPoint, thickness float64) GridItem {
	dx := end.X - start.X
	dz := end.Z - start.Z
	return GridItem{
		Position: GridPoint{X: (start.X + end.X) / 2, Z: (start.Z + end.Z) / 2},
		// Rotation is counter-clockwise from +X; +Z points south, hence the sign.
		Rotation: math.Atan2(-dz, dx),
		Size:     Size{W: math.Hypot(dx, dz), D: thickness},
	}
}
