// Package geometry provides the pure math behind interactive layer transforms:
// angles, corner-drag size deltas, text bounds estimation and rotated rectangles.
//
// All values are in display space (pixels of the rendered base image) and
// angles are in degrees, clockwise-positive because the y axis points down.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a position or displacement in display space.
type Point = r2.Vec

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// AngleBetween returns the angle in degrees of the vector from center to p.
func AngleBetween(center, p Point) float64 {
	d := r2.Sub(p, center)
	return math.Atan2(d.Y, d.X) * 180 / math.Pi
}

// NormalizeAngle folds deg into the half-open interval (-180, 180].
func NormalizeAngle(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	for deg > 180 {
		deg -= 360
	}
	for deg <= -180 {
		deg += 360
	}
	return deg
}

// RoundAngle rounds deg to a whole degree and normalizes the result.
func RoundAngle(deg float64) float64 {
	return NormalizeAngle(math.Round(deg))
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}
