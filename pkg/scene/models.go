// models.go - Positioned layer types: text, emoji and overlay images.
// All positions are center anchors in display space.
package scene

import (
	"fmt"
	"image"
	"strings"

	"github.com/xob0t/IconStencil/pkg/geometry"
)

// Size limits.
const (
	MinFontSize     = 12.0
	MaxFontSize     = 200.0
	MinEmojiSize    = 20.0
	MaxEmojiSize    = 500.0
	MinOverlayWidth = 20.0
	MaxOverlayWidth = 500.0

	WheelStep = 5.0
)

// Defaults used when a layer is first placed.
var (
	DefaultTextPosition    = geometry.Pt(260, 100)
	DefaultEmojiPosition   = geometry.Pt(260, 180)
	DefaultOverlayPosition = geometry.Pt(200, 150)
)

const (
	DefaultFontSize       = 48.0
	DefaultTextColor      = "#ffffff"
	DefaultEmojiSize      = 164.0
	DefaultOverlayMaxSide = 150.0
	DefaultOverlayOpacity = 1.0
)

// Text is the placed text layer.
type Text struct {
	Content  string
	Position geometry.Point
	FontSize float64
	Color    string
	Rotation float64
}

// NewText returns a text layer with default placement.
func NewText(content string) *Text {
	return &Text{
		Content:  content,
		Position: DefaultTextPosition,
		FontSize: DefaultFontSize,
		Color:    DefaultTextColor,
	}
}

// Bounds estimates the rendered size of the text.
func (t *Text) Bounds() geometry.Size {
	return geometry.EstimateTextBounds(t.Content, t.FontSize, geometry.TextWrapWidth)
}

// Emoji is the single placed emoji. It renders square.
type Emoji struct {
	Char           string
	Position       geometry.Point
	Size           float64
	Rotation       float64
	FlipHorizontal bool
}

// NewEmoji returns an emoji layer with default placement.
func NewEmoji(char string) *Emoji {
	return &Emoji{
		Char:     char,
		Position: DefaultEmojiPosition,
		Size:     DefaultEmojiSize,
	}
}

// Bounds returns the square size of the emoji.
func (e *Emoji) Bounds() geometry.Size {
	return geometry.Size{Width: e.Size, Height: e.Size}
}

// Code returns the codepoint identifier of the emoji ("1f600",
// "1f468-200d-1f4bb"). Variation selector 16 is dropped, matching the naming
// of the twemoji asset set.
func (e *Emoji) Code() string {
	return EmojiCode(e.Char)
}

// EmojiCode returns the codepoint identifier of s.
func EmojiCode(s string) string {
	parts := make([]string, 0, 4)
	for _, r := range s {
		if r == 0xFE0F {
			continue
		}
		parts = append(parts, fmt.Sprintf("%x", r))
	}
	return strings.Join(parts, "-")
}

// Overlay is an uploaded bitmap placed on the canvas.
type Overlay struct {
	ID string
	// Source is the uploaded bitmap. Display is what the preview draws: the
	// source itself, or its background-removed variant.
	Source  image.Image
	Display image.Image

	Position       geometry.Point
	Width          float64
	Height         float64
	OriginalWidth  int
	OriginalHeight int

	Opacity          float64
	Rotation         float64
	FlipHorizontal   bool
	RemoveBackground bool
}

// Bounds returns the display size of the overlay.
func (o *Overlay) Bounds() geometry.Size {
	return geometry.Size{Width: o.Width, Height: o.Height}
}

// AspectRatio returns height/width, preferring the original upload
// dimensions and falling back to the current size.
func (o *Overlay) AspectRatio() float64 {
	if o.OriginalWidth > 0 && o.OriginalHeight > 0 {
		return float64(o.OriginalHeight) / float64(o.OriginalWidth)
	}
	if o.Width > 0 && o.Height > 0 {
		return o.Height / o.Width
	}
	return 1
}

// SetWidth sets the width and derives the height from the aspect ratio.
func (o *Overlay) SetWidth(w float64) {
	ratio := o.AspectRatio()
	o.Width = w
	o.Height = w * ratio
}

// Image returns the bitmap the preview should draw.
func (o *Overlay) Image() image.Image {
	if o.Display != nil {
		return o.Display
	}
	return o.Source
}
