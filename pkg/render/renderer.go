// renderer.go - Compositing engine for render requests.
// Draws the base image, then text, emoji and overlays in the requested layer
// order, then the freehand drawing stretched over everything.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/xob0t/IconStencil/pkg/bgremove"
	"github.com/xob0t/IconStencil/pkg/logging"
	"github.com/xob0t/IconStencil/pkg/scene"
	"github.com/xob0t/IconStencil/pkg/submission"
)

// ErrNoBaseImage means neither the request nor the renderer has a base image.
var ErrNoBaseImage = errors.New("no base image")

// Options configures a Renderer.
type Options struct {
	FontPath    string
	CJKFontPath string
	// Emoji supplies emoji artwork. When nil, or when lookup fails, the
	// emoji is drawn as a font glyph.
	Emoji EmojiSource
	// BackgroundTolerance is passed to bgremove.Remove for overlays that
	// request background removal.
	BackgroundTolerance float64
	// DefaultBase is used for requests without a base image.
	DefaultBase image.Image
}

// Renderer handles image composition from submissions.
type Renderer struct {
	fonts       *FontManager
	emoji       EmojiSource
	tolerance   float64
	defaultBase image.Image
}

// NewRenderer creates a renderer.
func NewRenderer(opts Options) (*Renderer, error) {
	fm, err := NewFontManager(opts.FontPath, opts.CJKFontPath)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		fonts:       fm,
		emoji:       opts.Emoji,
		tolerance:   opts.BackgroundTolerance,
		defaultBase: opts.DefaultBase,
	}, nil
}

// DefaultBase returns the configured default base image, or nil.
func (r *Renderer) DefaultBase() image.Image { return r.defaultBase }

// Render composites a onto its base image. A layer that fails to draw is
// logged and skipped; only a missing base image or cancellation fails the
// whole render.
func (r *Renderer) Render(ctx context.Context, a *submission.Assets) (*image.NRGBA, error) {
	base := a.Base
	if base == nil {
		base = r.defaultBase
	}
	if base == nil {
		return nil, ErrNoBaseImage
	}
	dst := imaging.Clone(base)

	order := scene.DefaultOrder()
	if len(a.LayerOrder) > 0 {
		var err error
		if order, err = scene.ParseOrder(a.LayerOrder); err != nil {
			logging.Logger().Warn("layer order rejected, using default", "order", a.LayerOrder, "err", err)
		}
	}

	log := logging.Logger()
	for _, st := range MergeLayers(a, order) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var (
			out *image.NRGBA
			err error
		)
		switch st.Layer {
		case scene.LayerText:
			out, err = r.drawText(dst, a.Text)
		case scene.LayerEmoji:
			out, err = r.drawEmoji(ctx, dst, a.Emoji)
		case scene.LayerOverlay:
			out, err = r.drawOverlay(ctx, dst, a.Overlays[st.Index], a.OverlayImages[st.Index])
		case scene.LayerDrawing:
			out = imaging.Overlay(dst, imaging.Resize(a.Drawing, dst.Bounds().Dx(), dst.Bounds().Dy(), imaging.Lanczos), image.Pt(0, 0), 1)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if err != nil {
			log.Warn("layer skipped", "layer", st.Layer, "index", st.Index, "err", err)
			continue
		}
		dst = out
	}

	log.Info("render complete", "width", dst.Bounds().Dx(), "height", dst.Bounds().Dy())
	return dst, nil
}

func (r *Renderer) drawText(dst *image.NRGBA, t *submission.Text) (*image.NRGBA, error) {
	size := float64(t.FontSize)
	if size <= 0 {
		size = submission.DefaultFontSize
	}
	col := HexColorOr(t.Color, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	sprite, err := r.textSprite(t.Content, size, col)
	if err != nil {
		return nil, fmt.Errorf("text: %w", err)
	}
	return pasteCentered(dst, transformSprite(sprite, t.Rotation, false), t.X, t.Y, 1), nil
}

func (r *Renderer) drawEmoji(ctx context.Context, dst *image.NRGBA, e *submission.Emoji) (*image.NRGBA, error) {
	size := e.Size
	if size <= 0 {
		size = submission.DefaultEmojiSize
	}
	code := e.Code
	if code == "" {
		code = scene.EmojiCode(e.Char)
	}

	var sprite *image.NRGBA
	if r.emoji != nil {
		art, err := r.emoji.Emoji(ctx, code)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil {
			sprite = prepareEmoji(art, size)
		} else {
			logging.Logger().Warn("emoji artwork unavailable, drawing glyph", "code", code, "err", err)
		}
	}
	if sprite == nil {
		if e.Char == "" {
			return nil, fmt.Errorf("emoji %s: no artwork and no character", code)
		}
		var err error
		sprite, err = r.textSprite(e.Char, float64(size), color.White)
		if err != nil {
			return nil, fmt.Errorf("emoji glyph: %w", err)
		}
	}
	return pasteCentered(dst, transformSprite(sprite, e.Rotation, e.FlipHorizontal), e.X, e.Y, 1), nil
}

func (r *Renderer) drawOverlay(ctx context.Context, dst *image.NRGBA, o submission.Overlay, img image.Image) (*image.NRGBA, error) {
	if o.Width <= 0 || o.Height <= 0 {
		return nil, fmt.Errorf("overlay size %dx%d", o.Width, o.Height)
	}
	if o.RemoveBackground {
		keyed, err := bgremove.Remove(ctx, img, r.tolerance)
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			logging.Logger().Warn("background removal failed, using original", "err", err)
		default:
			img = keyed
		}
	}
	sprite := imaging.Resize(img, o.Width, o.Height, imaging.Lanczos)
	return pasteCentered(dst, transformSprite(sprite, o.Rotation, o.FlipHorizontal), o.X, o.Y, o.Opacity), nil
}
