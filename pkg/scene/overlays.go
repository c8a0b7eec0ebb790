package scene

import (
	"fmt"
	"image"
	"slices"

	"github.com/google/uuid"

	"github.com/xob0t/IconStencil/pkg/geometry"
)

// Overlays is the ordered collection of overlay images. Later entries draw
// above earlier ones within the overlay layer.
type Overlays struct {
	items []*Overlay
}

// Add places src as a new overlay. Its initial size fits within
// DefaultOverlayMaxSide on the longer side, preserving aspect ratio.
func (c *Overlays) Add(src image.Image) *Overlay {
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	if w <= 0 || h <= 0 {
		w, h = DefaultOverlayMaxSide, DefaultOverlayMaxSide
	}
	if w > h {
		h = DefaultOverlayMaxSide * h / w
		w = DefaultOverlayMaxSide
	} else {
		w = DefaultOverlayMaxSide * w / h
		h = DefaultOverlayMaxSide
	}

	o := &Overlay{
		ID:             uuid.NewString(),
		Source:         src,
		Display:        src,
		Position:       DefaultOverlayPosition,
		Width:          w,
		Height:         h,
		OriginalWidth:  b.Dx(),
		OriginalHeight: b.Dy(),
		Opacity:        DefaultOverlayOpacity,
	}
	c.items = append(c.items, o)
	return o
}

// Remove deletes overlay i.
func (c *Overlays) Remove(i int) error {
	if i < 0 || i >= len(c.items) {
		return fmt.Errorf("remove overlay %d: %w", i, ErrIndexOutOfRange)
	}
	c.items = slices.Delete(c.items, i, i+1)
	return nil
}

// At returns overlay i.
func (c *Overlays) At(i int) (*Overlay, bool) {
	if i < 0 || i >= len(c.items) {
		return nil, false
	}
	return c.items[i], true
}

// IndexOf returns the index of the overlay with id, or -1.
func (c *Overlays) IndexOf(id string) int {
	for i, o := range c.items {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// Len returns the number of overlays.
func (c *Overlays) Len() int { return len(c.items) }

// All returns the overlays in draw order. The slice is a copy; the overlays
// are shared.
func (c *Overlays) All() []*Overlay {
	out := make([]*Overlay, len(c.items))
	copy(out, c.items)
	return out
}

// OverlayPatch is a partial update applied by Update. Nil fields are left unchanged.
type OverlayPatch struct {
	Position       *geometry.Point
	Width          *float64
	Opacity        *float64
	Rotation       *float64
	FlipHorizontal *bool
}

// Update applies p to overlay i. Width changes keep the aspect ratio and are
// clamped to the overlay size limits; opacity is clamped to [0, 1].
func (c *Overlays) Update(i int, p OverlayPatch) error {
	o, ok := c.At(i)
	if !ok {
		return fmt.Errorf("update overlay %d: %w", i, ErrIndexOutOfRange)
	}
	if p.Position != nil {
		o.Position = *p.Position
	}
	if p.Width != nil {
		o.SetWidth(geometry.Clamp(*p.Width, MinOverlayWidth, MaxOverlayWidth))
	}
	if p.Opacity != nil {
		o.Opacity = geometry.Clamp(*p.Opacity, 0, 1)
	}
	if p.Rotation != nil {
		o.Rotation = geometry.NormalizeAngle(*p.Rotation)
	}
	if p.FlipHorizontal != nil {
		o.FlipHorizontal = *p.FlipHorizontal
	}
	return nil
}
