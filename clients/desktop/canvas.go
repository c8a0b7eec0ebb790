// Package desktop is the fyne front end: an editing canvas over an
// editor.Session and the window around it.
package desktop

import (
	"context"
	"image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/gogpu/gg"

	"github.com/xob0t/IconStencil/pkg/editor"
	"github.com/xob0t/IconStencil/pkg/geometry"
	"github.com/xob0t/IconStencil/pkg/logging"
	"github.com/xob0t/IconStencil/pkg/render"
	"github.com/xob0t/IconStencil/pkg/transform"
)

const selectionColor = "#3b82f6"

// Canvas shows the session preview and forwards mouse input to it. Widget
// coordinates are display coordinates.
type Canvas struct {
	widget.BaseWidget

	session  *editor.Session
	renderer *render.Renderer
	img      *fynecanvas.Image
	dirty    chan struct{}
	pressed  bool

	// OnChange runs after every edit made through the canvas.
	OnChange func()
}

// NewCanvas returns a canvas for s. Previews are rendered with r on a
// background goroutine.
func NewCanvas(s *editor.Session, r *render.Renderer) *Canvas {
	c := &Canvas{
		session:  s,
		renderer: r,
		img:      fynecanvas.NewImageFromImage(image.NewNRGBA(image.Rect(0, 0, 1, 1))),
		dirty:    make(chan struct{}, 1),
	}
	c.img.FillMode = fynecanvas.ImageFillOriginal
	c.img.ScaleMode = fynecanvas.ImageScalePixels
	c.ExtendBaseWidget(c)
	s.OnChange(c.Redraw)
	go c.redrawLoop()
	return c
}

// CreateRenderer implements fyne.Widget.
func (c *Canvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.img)
}

// MinSize is the display size of the base image.
func (c *Canvas) MinSize() fyne.Size {
	w, h := c.session.DisplaySize()
	return fyne.NewSize(float32(w), float32(h))
}

// Redraw schedules a new preview. Calls coalesce.
func (c *Canvas) Redraw() {
	select {
	case c.dirty <- struct{}{}:
	default:
	}
}

func (c *Canvas) changed() {
	c.Redraw()
	if c.OnChange != nil {
		c.OnChange()
	}
}

func (c *Canvas) redrawLoop() {
	for range c.dirty {
		img, err := c.session.Preview(context.Background(), c.renderer)
		if err != nil {
			logging.Logger().Debug("preview", "err", err)
			continue
		}
		c.img.Image = c.decorate(img)
		c.img.Refresh()
	}
}

// decorate draws the selection frame and its handles over the preview.
func (c *Canvas) decorate(img *image.NRGBA) image.Image {
	sel := c.session.Selected()
	if sel.IsNone() || c.session.DrawMode() {
		return img
	}
	f, ok := c.session.Frame(sel)
	if !ok {
		return img
	}

	dc := gg.NewContextForImage(img)
	dc.SetHexColor(selectionColor)
	dc.SetLineWidth(2)
	dc.SetDash(6, 4)
	corners := []geometry.Corner{geometry.CornerNW, geometry.CornerNE, geometry.CornerSE, geometry.CornerSW}
	for i, k := range corners {
		p := f.Corner(k)
		if i == 0 {
			dc.MoveTo(p.X, p.Y)
		} else {
			dc.LineTo(p.X, p.Y)
		}
	}
	dc.ClosePath()
	if err := dc.Stroke(); err != nil {
		return img
	}

	dc.SetDash()
	for _, k := range corners {
		p := f.Corner(k)
		dc.DrawCircle(p.X, p.Y, transform.HandleRadius/2)
	}
	h := f.RotateHandle(transform.RotateHandleDistance)
	dc.DrawCircle(h.X, h.Y, transform.HandleRadius/2)
	if err := dc.Fill(); err != nil {
		logging.Logger().Debug("draw handles", "err", err)
	}
	return dc.Image()
}

func pt(p fyne.Position) geometry.Point {
	return geometry.Pt(float64(p.X), float64(p.Y))
}

// MouseDown implements desktop.Mouseable.
func (c *Canvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	c.pressed = true
	if c.session.PointerDown(pt(ev.Position)) {
		c.changed()
	}
}

// MouseUp implements desktop.Mouseable.
func (c *Canvas) MouseUp(ev *desktop.MouseEvent) {
	c.release()
}

// Dragged implements fyne.Draggable.
func (c *Canvas) Dragged(ev *fyne.DragEvent) {
	if !c.pressed {
		return
	}
	if c.session.PointerMove(pt(ev.Position)) {
		c.Redraw()
	}
}

// DragEnd implements fyne.Draggable.
func (c *Canvas) DragEnd() {
	c.release()
}

func (c *Canvas) release() {
	if !c.pressed {
		return
	}
	c.pressed = false
	if c.session.PointerUp() {
		c.changed()
	}
}

// Cancel abandons the gesture in progress, leaving the element where the
// last move put it.
func (c *Canvas) Cancel() {
	c.pressed = false
	c.session.CancelGesture()
	c.changed()
}

// Scrolled implements fyne.Scrollable. Scrolling up grows the text or
// emoji under the pointer.
func (c *Canvas) Scrolled(ev *fyne.ScrollEvent) {
	if c.session.Wheel(pt(ev.Position), -float64(ev.Scrolled.DY)) {
		c.changed()
	}
}
