package geometry

import "gonum.org/v1/gonum/spatial/r2"

// Rect is an axis-aligned rectangle.
type Rect struct {
	Min, Max Point
}

// RectWH returns the rectangle at the origin with the given size.
func RectWH(w, h float64) Rect {
	return Rect{Max: Pt(w, h)}
}

// ClampPoint moves p to the nearest point inside r shrunk by margin on every side.
// If the shrunk rectangle is empty the center of r is returned.
func (r Rect) ClampPoint(p Point, margin float64) Point {
	minX, maxX := r.Min.X+margin, r.Max.X-margin
	minY, maxY := r.Min.Y+margin, r.Max.Y-margin
	if minX > maxX || minY > maxY {
		return r2.Scale(0.5, r2.Add(r.Min, r.Max))
	}
	return Pt(Clamp(p.X, minX, maxX), Clamp(p.Y, minY, maxY))
}

// RotatedRect is a rectangle of Size centered on Center and rotated by
// Rotation degrees about it.
type RotatedRect struct {
	Center   Point
	Size     Size
	Rotation float64
}

// local maps p into the rectangle's unrotated frame, relative to its center.
func (rr RotatedRect) local(p Point) Point {
	rot := r2.NewRotation(-Radians(rr.Rotation), rr.Center)
	return r2.Sub(rot.Rotate(p), rr.Center)
}

// Contains reports whether p lies inside the rectangle, optionally grown by pad.
func (rr RotatedRect) Contains(p Point, pad float64) bool {
	l := rr.local(p)
	hw := rr.Size.Width/2 + pad
	hh := rr.Size.Height/2 + pad
	return l.X >= -hw && l.X <= hw && l.Y >= -hh && l.Y <= hh
}

// Corner returns the display-space position of corner c.
func (rr RotatedRect) Corner(c Corner) Point {
	hw, hh := rr.Size.Width/2, rr.Size.Height/2
	var off Point
	switch c {
	case CornerNW:
		off = Pt(-hw, -hh)
	case CornerNE:
		off = Pt(hw, -hh)
	case CornerSW:
		off = Pt(-hw, hh)
	default:
		off = Pt(hw, hh)
	}
	return rr.toWorld(off)
}

// RotateHandle returns the position of the rotation grip, dist above the top edge.
func (rr RotatedRect) RotateHandle(dist float64) Point {
	return rr.toWorld(Pt(0, -rr.Size.Height/2-dist))
}

func (rr RotatedRect) toWorld(off Point) Point {
	rot := r2.NewRotation(Radians(rr.Rotation), rr.Center)
	return rot.Rotate(r2.Add(rr.Center, off))
}
