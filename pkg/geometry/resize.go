package geometry

import "strings"

// Corner identifies a resize handle.
type Corner int

const (
	CornerSE Corner = iota
	CornerNW
	CornerNE
	CornerSW
)

// Resize sensitivities. A raw corner delta is divided by these before being
// added to the initial size.
const (
	ElementSensitivity = 2.0
	OverlaySensitivity = 1.5
	TextResizeDamping  = 3.0
)

// ParseCorner maps a handle tag to a Corner. Anything unrecognized is treated
// as the south-east handle.
func ParseCorner(s string) Corner {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nw":
		return CornerNW
	case "ne":
		return CornerNE
	case "sw":
		return CornerSW
	default:
		return CornerSE
	}
}

func (c Corner) String() string {
	switch c {
	case CornerNW:
		return "nw"
	case CornerNE:
		return "ne"
	case CornerSW:
		return "sw"
	default:
		return "se"
	}
}

// CornerSizeDelta converts the pointer displacement since the start of a
// resize gesture into a signed size change for the given corner.
func CornerSizeDelta(d Point, c Corner, sensitivity float64) float64 {
	if sensitivity <= 0 {
		sensitivity = 1
	}
	var delta float64
	switch c {
	case CornerNW:
		delta = -(d.X + d.Y)
	case CornerNE:
		delta = d.X - d.Y
	case CornerSW:
		delta = -d.X + d.Y
	default:
		delta = d.X + d.Y
	}
	return delta / sensitivity
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
