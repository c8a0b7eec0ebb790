package transform

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/xob0t/IconStencil/pkg/geometry"
	"github.com/xob0t/IconStencil/pkg/logging"
	"github.com/xob0t/IconStencil/pkg/scene"
)

// StrokeSink receives freehand strokes while draw mode is on.
type StrokeSink interface {
	BeginStroke(p geometry.Point) error
	ExtendStroke(p geometry.Point) error
	EndStroke() error
}

// Controller is the pointer state machine over a scene. It is not safe for
// concurrent use.
type Controller struct {
	scene *scene.Scene
	sink  StrokeSink

	drawMode    bool
	clamp       *geometry.Rect
	clampMargin float64

	state Interaction
}

// NewController returns an idle controller editing s. sink may be nil, in
// which case draw mode accepts no strokes.
func NewController(s *scene.Scene, sink StrokeSink) *Controller {
	return &Controller{scene: s, sink: sink, state: idle}
}

// State returns the active interaction.
func (c *Controller) State() Interaction { return c.state }

// DrawMode reports whether pointer input goes to the drawing surface.
func (c *Controller) DrawMode() bool { return c.drawMode }

// SetDrawMode switches between layer editing and drawing. Any gesture in
// progress is finished first.
func (c *Controller) SetDrawMode(on bool) {
	if on == c.drawMode {
		return
	}
	c.Cancel()
	c.drawMode = on
}

// SetClamp restricts dragged centers to r shrunk by margin. A nil r allows
// free placement, including off-canvas.
func (c *Controller) SetClamp(r *geometry.Rect, margin float64) {
	c.clamp = r
	c.clampMargin = margin
}

// PointerDown starts the gesture for h at p and reports whether the event was
// consumed. Any previous gesture is abandoned. In draw mode every hit goes
// to the drawing surface.
func (c *Controller) PointerDown(h Hit, p geometry.Point) bool {
	c.Cancel()

	if c.drawMode {
		return c.beginStroke(p)
	}

	switch h.Kind {
	case HitBackground, HitSurface:
		c.scene.ClickBackground()
		return true
	case HitBody:
		return c.beginDrag(h.Target, p)
	case HitCorner:
		return c.beginResize(h.Target, h.Corner, p)
	case HitRotate:
		return c.beginRotate(h.Target, p)
	}
	return false
}

func (c *Controller) beginStroke(p geometry.Point) bool {
	if c.sink == nil {
		return false
	}
	if err := c.sink.BeginStroke(p); err != nil {
		logging.Logger().Debug("stroke ignored", "err", err)
		return false
	}
	c.state = idle
	c.state.Mode = ModeDrawing
	return true
}

func (c *Controller) beginDrag(t scene.Target, p geometry.Point) bool {
	center, ok := c.scene.Center(t)
	if !ok || !c.scene.Exists(t) {
		return false
	}
	c.scene.Select(t)
	c.state = idle
	c.state.Mode = ModeDragging
	c.state.Target = t
	c.state.DragOffset = r2.Sub(p, center)
	logging.Logger().Debug("drag start", "target", t.String())
	return true
}

func (c *Controller) beginResize(t scene.Target, corner geometry.Corner, p geometry.Point) bool {
	if !c.scene.Exists(t) {
		return false
	}
	var size float64
	switch t.Kind {
	case scene.KindText:
		size = c.scene.Text.FontSize
	case scene.KindEmoji:
		size = c.scene.Emoji.Size
	case scene.KindOverlay:
		o, _ := c.scene.Overlays.At(t.Index)
		size = o.Width
	}
	c.scene.Select(t)
	c.state = idle
	c.state.Mode = ModeResizing
	c.state.Target = t
	c.state.Corner = corner
	c.state.InitialSize = size
	c.state.InitialPointer = p
	logging.Logger().Debug("resize start", "target", t.String(), "corner", corner.String(), "size", size)
	return true
}

func (c *Controller) beginRotate(t scene.Target, p geometry.Point) bool {
	center, ok := c.scene.Center(t)
	if !ok || !c.scene.Exists(t) {
		return false
	}
	c.scene.Select(t)
	c.state = idle
	c.state.Mode = ModeRotating
	c.state.Target = t
	c.state.Center = center
	c.state.AngleOffset = geometry.AngleBetween(center, p) - c.scene.Rotation(t)
	logging.Logger().Debug("rotate start", "target", t.String(), "offset", c.state.AngleOffset)
	return true
}

// PointerMove applies pointer motion to the active gesture and reports
// whether anything changed.
func (c *Controller) PointerMove(p geometry.Point) bool {
	st := c.state
	switch st.Mode {
	case ModeDrawing:
		if err := c.sink.ExtendStroke(p); err != nil {
			logging.Logger().Warn("extend stroke", "err", err)
		}
		return true
	case ModeDragging:
		center := r2.Sub(p, st.DragOffset)
		if c.clamp != nil {
			center = c.clamp.ClampPoint(center, c.clampMargin)
		}
		c.scene.SetCenter(st.Target, center)
		return true
	case ModeResizing:
		c.resize(st, p)
		return true
	case ModeRotating:
		raw := geometry.AngleBetween(st.Center, p) - st.AngleOffset
		c.scene.SetRotation(st.Target, geometry.RoundAngle(raw))
		return true
	}
	return false
}

func (c *Controller) resize(st Interaction, p geometry.Point) {
	d := r2.Sub(p, st.InitialPointer)
	switch st.Target.Kind {
	case scene.KindText:
		delta := geometry.CornerSizeDelta(d, st.Corner, geometry.ElementSensitivity) / geometry.TextResizeDamping
		c.scene.Text.FontSize = geometry.Clamp(st.InitialSize+delta, scene.MinFontSize, scene.MaxFontSize)
	case scene.KindEmoji:
		delta := geometry.CornerSizeDelta(d, st.Corner, geometry.ElementSensitivity)
		c.scene.Emoji.Size = geometry.Clamp(st.InitialSize+delta, scene.MinEmojiSize, scene.MaxEmojiSize)
	case scene.KindOverlay:
		o, ok := c.scene.Overlays.At(st.Target.Index)
		if !ok {
			return
		}
		delta := geometry.CornerSizeDelta(d, st.Corner, geometry.OverlaySensitivity)
		o.SetWidth(geometry.Clamp(st.InitialSize+delta, scene.MinOverlayWidth, scene.MaxOverlayWidth))
	}
}

// PointerUp commits the active gesture and returns to idle. The selection
// is kept so handles stay visible.
func (c *Controller) PointerUp() bool {
	st := c.state
	c.state = idle
	switch st.Mode {
	case ModeIdle:
		return false
	case ModeDrawing:
		if err := c.sink.EndStroke(); err != nil {
			logging.Logger().Warn("end stroke", "err", err)
		}
	case ModeReordering:
		if st.ReorderOver >= 0 {
			if err := c.scene.Order.Move(st.ReorderFrom, st.ReorderOver); err != nil {
				logging.Logger().Warn("reorder layers", "err", err)
				return false
			}
		}
	}
	logging.Logger().Debug("gesture end", "mode", st.Mode.String(), "target", st.Target.String())
	return true
}

// Cancel abandons the active gesture. An open stroke is still committed so
// the drawing history matches the surface.
func (c *Controller) Cancel() {
	if c.state.Mode == ModeDrawing && c.sink != nil {
		if err := c.sink.EndStroke(); err != nil {
			logging.Logger().Warn("end stroke", "err", err)
		}
	}
	c.state = idle
}

// Wheel resizes text or emoji by one step per tick: scrolling down shrinks,
// scrolling up grows. It does not touch the active gesture.
func (c *Controller) Wheel(t scene.Target, deltaY float64) bool {
	if c.drawMode || deltaY == 0 || !c.scene.Exists(t) {
		return false
	}
	step := scene.WheelStep
	if deltaY > 0 {
		step = -step
	}
	switch t.Kind {
	case scene.KindText:
		c.scene.Text.FontSize = geometry.Clamp(c.scene.Text.FontSize+step, scene.MinFontSize, scene.MaxFontSize)
	case scene.KindEmoji:
		c.scene.Emoji.Size = geometry.Clamp(c.scene.Emoji.Size+step, scene.MinEmojiSize, scene.MaxEmojiSize)
	default:
		return false
	}
	return true
}

// BeginReorder starts dragging the layer tag at index from.
func (c *Controller) BeginReorder(from int) bool {
	if from < 0 || from >= len(c.scene.Order.Layers()) {
		return false
	}
	c.Cancel()
	c.state.Mode = ModeReordering
	c.state.ReorderFrom = from
	c.state.ReorderOver = -1
	return true
}

// ReorderOver records the slot the dragged tag is currently over.
func (c *Controller) ReorderOver(i int) {
	if c.state.Mode != ModeReordering {
		return
	}
	if i < 0 || i >= len(c.scene.Order.Layers()) {
		i = -1
	}
	c.state.ReorderOver = i
}
