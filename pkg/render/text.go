// text.go - Multi-line text sprites and rotated placement.
package render

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Layout constants shared with the editor's text bounds estimate.
const (
	LineHeightRatio = 1.2
	textPadding     = 50
)

// textSprite draws text onto a transparent canvas, one centered line per
// newline, with textPadding on every side.
func (r *Renderer) textSprite(text string, size float64, col color.Color) (*image.NRGBA, error) {
	face, err := r.fonts.GetFace(size, text)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	lines := strings.Split(text, "\n")
	lineHeight := size * LineHeightRatio

	widths := make([]int, len(lines))
	maxWidth := 0
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			line = " "
		}
		widths[i] = font.MeasureString(face, line).Ceil()
		maxWidth = max(maxWidth, widths[i])
	}
	if maxWidth == 0 {
		maxWidth = int(size)
	}
	totalHeight := max(int(float64(len(lines))*lineHeight), int(lineHeight))

	img := image.NewNRGBA(image.Rect(0, 0, maxWidth+2*textPadding, totalHeight+2*textPadding))
	ascent := face.Metrics().Ascent.Ceil()
	// Center the ascent+descent box inside each line slot.
	extra := (int(lineHeight) - face.Metrics().Height.Ceil()) / 2
	drawer := &font.Drawer{Dst: img, Src: image.NewUniform(col), Face: face}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		x := textPadding + (maxWidth-widths[i])/2
		y := textPadding + int(float64(i)*lineHeight) + extra + ascent
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(line)
	}
	return img, nil
}

// transformSprite flips then rotates img clockwise by deg, expanding the
// canvas to fit.
func transformSprite(img image.Image, deg float64, flip bool) *image.NRGBA {
	out := imaging.Clone(img)
	if flip {
		out = imaging.FlipH(out)
	}
	if deg != 0 && !math.IsNaN(deg) {
		out = imaging.Rotate(out, -deg, color.Transparent)
	}
	return out
}

// pasteCentered composites sprite onto dst centered on (cx, cy), clipping
// whatever falls outside dst.
func pasteCentered(dst *image.NRGBA, sprite image.Image, cx, cy int, opacity float64) *image.NRGBA {
	b := sprite.Bounds()
	pt := image.Pt(cx-b.Dx()/2, cy-b.Dy()/2)
	return imaging.Overlay(dst, sprite, pt, opacity)
}
