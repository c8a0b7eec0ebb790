// Package transform turns pointer gestures into layer edits. A Controller
// runs at most one interaction at a time: dragging, resizing or rotating one
// layer, drawing one stroke, or reordering one layer tag.
package transform

import (
	"github.com/xob0t/IconStencil/pkg/geometry"
	"github.com/xob0t/IconStencil/pkg/scene"
)

// Mode is the active interaction.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeResizing
	ModeRotating
	ModeDrawing
	ModeReordering
)

func (m Mode) String() string {
	switch m {
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	case ModeRotating:
		return "rotating"
	case ModeDrawing:
		return "drawing"
	case ModeReordering:
		return "reordering"
	default:
		return "idle"
	}
}

// Interaction is the state of the active gesture. Which fields are
// meaningful depends on Mode:
//
//	Dragging:   Target, DragOffset
//	Resizing:   Target, Corner, InitialSize, InitialPointer
//	Rotating:   Target, AngleOffset, Center
//	Reordering: ReorderFrom, ReorderOver
type Interaction struct {
	Mode   Mode
	Target scene.Target

	DragOffset geometry.Point

	Corner         geometry.Corner
	InitialSize    float64
	InitialPointer geometry.Point

	AngleOffset float64
	Center      geometry.Point

	ReorderFrom int
	ReorderOver int
}

var idle = Interaction{Mode: ModeIdle, Target: scene.NoTarget, ReorderFrom: -1, ReorderOver: -1}

// Active reports whether a gesture is in progress.
func (i Interaction) Active() bool { return i.Mode != ModeIdle }

// HitKind says what part of the canvas a pointer-down landed on.
type HitKind int

const (
	HitNone HitKind = iota
	HitBody
	HitCorner
	HitRotate
	HitBackground
	HitSurface
)

// Hit identifies the element under a pointer-down: a layer body, one of its
// handles, the empty background, or the drawing surface.
type Hit struct {
	Kind   HitKind
	Target scene.Target
	Corner geometry.Corner
}

// BodyHit returns a hit on the body of t.
func BodyHit(t scene.Target) Hit { return Hit{Kind: HitBody, Target: t} }

// CornerHit returns a hit on corner handle c of t.
func CornerHit(t scene.Target, c geometry.Corner) Hit {
	return Hit{Kind: HitCorner, Target: t, Corner: c}
}

// RotateHit returns a hit on the rotation handle of t.
func RotateHit(t scene.Target) Hit { return Hit{Kind: HitRotate, Target: t} }

// BackgroundHit is a hit on empty canvas.
var BackgroundHit = Hit{Kind: HitBackground, Target: scene.NoTarget}

// SurfaceHit is a hit on the drawing surface.
var SurfaceHit = Hit{Kind: HitSurface, Target: scene.NoTarget}
