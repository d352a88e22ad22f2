// Package geom provides the 2D ground-plane math behind bounds and footprint
// strategies, built on the sdfx vector and box types.
package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Epsilon bounds the coordinate error accepted by geometric comparisons.
const Epsilon = 1e-9

// OrientedRect is a rectangle with a center, half-extents and a rotation in
// radians, counter-clockwise from +X.
type OrientedRect struct {
	Center   v2.Vec
	Half     v2.Vec
	Rotation float64
}

// NewOrientedRect builds the rectangle from a full size.
func NewOrientedRect(center v2.Vec, size v2.Vec, rotation float64) OrientedRect {
	return OrientedRect{Center: center, Half: size.MulScalar(0.5), Rotation: rotation}
}

// Corners returns the rectangle's corners in counter-clockwise order,
// rotating the local corners about the center.
func (r OrientedRect) Corners() [4]v2.Vec {
	m := sdf.Rotate2d(r.Rotation)
	local := [4]v2.Vec{
		{X: -r.Half.X, Y: -r.Half.Y},
		{X: r.Half.X, Y: -r.Half.Y},
		{X: r.Half.X, Y: r.Half.Y},
		{X: -r.Half.X, Y: r.Half.Y},
	}
	var out [4]v2.Vec
	for i, c := range local {
		out[i] = m.MulPosition(c).Add(r.Center)
	}
	return out
}

// AABB returns the axis-aligned box covering the rotated corners.
func (r OrientedRect) AABB() sdf.Box2 {
	corners := r.Corners()
	box := sdf.Box2{Min: corners[0], Max: corners[0]}
	for _, c := range corners[1:] {
		box.Min = box.Min.Min(c)
		box.Max = box.Max.Max(c)
	}
	return box
}

// Scale returns the rectangle with all lengths multiplied by k
// (e.g. grid units to meters).
func (r OrientedRect) Scale(k float64) OrientedRect {
	return OrientedRect{
		Center:   r.Center.MulScalar(k),
		Half:     r.Half.MulScalar(k),
		Rotation: r.Rotation,
	}
}

// Degenerate reports whether the rectangle has no usable area.
func (r OrientedRect) Degenerate() bool {
	return r.Half.X < Epsilon || r.Half.Y < Epsilon
}

// Polygon is an ordered 2D ring on the ground plane.
type Polygon struct {
	Points []v2.Vec
}

// Valid reports whether the polygon has enough points to enclose area.
func (p Polygon) Valid() bool { return len(p.Points) >= 3 }

// Area returns the enclosed area via the shoelace formula, independent of
// winding direction.
func (p Polygon) Area() float64 {
	if !p.Valid() {
		return 0
	}
	sum := 0.0
	for i, a := range p.Points {
		b := p.Points[(i+1)%len(p.Points)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(sum) / 2
}

// Scale returns the polygon with all coordinates multiplied by k.
func (p Polygon) Scale(k float64) Polygon {
	out := Polygon{Points: make([]v2.Vec, len(p.Points))}
	for i, pt := range p.Points {
		out.Points[i] = pt.MulScalar(k)
	}
	return out
}

// Transform rotates the polygon by rotation radians about the origin and
// translates it by center.
func (p Polygon) Transform(center v2.Vec, rotation float64) Polygon {
	m := sdf.Rotate2d(rotation)
	out := Polygon{Points: make([]v2.Vec, len(p.Points))}
	for i, pt := range p.Points {
		out.Points[i] = m.MulPosition(pt).Add(center)
	}
	return out
}

// RectPolygon returns the oriented rectangle's outline as a polygon.
func RectPolygon(r OrientedRect) Polygon {
	corners := r.Corners()
	return Polygon{Points: corners[:]}
}
