// Package bgremove cuts a uniform background out of an image.
//
// The background color is sampled from the image border and every pixel
// connected to the border whose color lies within a tolerance of it is made
// transparent. This suits stickers and product shots on flat backdrops; it
// is the preview used while editing and the fallback used when rendering.
package bgremove

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultTolerance is the CIE76 distance (in Lab units scaled to 0..1) under
// which a pixel counts as background.
const DefaultTolerance = 0.12

// Remove returns a copy of img with the border-connected background made
// transparent. It checks ctx between rows and returns ctx.Err() if cancelled.
func Remove(ctx context.Context, img image.Image, tolerance float64) (*image.NRGBA, error) {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	if w == 0 || h == 0 {
		return out, nil
	}

	key, ok := borderColor(out)
	if !ok {
		return out, nil
	}

	visited := make([]bool, w*h)
	stack := make([]int, 0, 2*(w+h))
	push := func(x, y int) {
		i := y*w + x
		if visited[i] {
			return
		}
		visited[i] = true
		if isBackground(out.NRGBAAt(x, y), key, tolerance) {
			stack = append(stack, i)
		}
	}
	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}

	processed := 0
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		out.SetNRGBA(x, y, color.NRGBA{})

		if processed++; processed%w == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}
	return out, nil
}

// borderColor returns the most common opaque color along the border. If the
// border is already transparent there is nothing to key out.
func borderColor(img *image.NRGBA) (colorful.Color, bool) {
	b := img.Bounds()
	counts := make(map[color.NRGBA]int)
	add := func(x, y int) {
		c := img.NRGBAAt(x, y)
		if c.A < 128 {
			return
		}
		// Quantize so near-identical border pixels vote together.
		c.R, c.G, c.B, c.A = c.R&0xf8, c.G&0xf8, c.B&0xf8, 255
		counts[c]++
	}
	for x := b.Min.X; x < b.Max.X; x++ {
		add(x, b.Min.Y)
		add(x, b.Max.Y-1)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		add(b.Min.X, y)
		add(b.Max.X-1, y)
	}

	var best color.NRGBA
	n := 0
	for c, k := range counts {
		if k > n {
			best, n = c, k
		}
	}
	if n == 0 {
		return colorful.Color{}, false
	}
	kc, _ := colorful.MakeColor(best)
	return kc, true
}

func isBackground(c color.NRGBA, key colorful.Color, tolerance float64) bool {
	if c.A == 0 {
		return true
	}
	pc, ok := colorful.MakeColor(color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
	if !ok {
		return false
	}
	return pc.DistanceLab(key) <= tolerance
}
