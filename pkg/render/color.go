// color.go - Hex color parsing and solid image creation.
package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// ParseHexColor converts "#rrggbb" (or "#rgb") to an opaque color.
func ParseHexColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// HexColorOr parses hex and returns fallback on any error.
func HexColorOr(hex string, fallback color.NRGBA) color.NRGBA {
	c, err := ParseHexColor(hex)
	if err != nil {
		return fallback
	}
	return c
}

// NewSolidImage creates a uniform solid-color image.
func NewSolidImage(w, h int, c color.Color) *image.NRGBA {
	return imaging.New(w, h, c)
}
