package editor

import (
	"context"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/xob0t/IconStencil/pkg/render"
	"github.com/xob0t/IconStencil/pkg/submission"
)

// Preview renders the session at display size with r. Overlays use their
// preview bitmaps, so background removal is not recomputed.
func (s *Session) Preview(ctx context.Context, r *render.Renderer) (*image.NRGBA, error) {
	drawn := s.surface.HasDrawing()
	var drawing image.Image
	if drawn {
		drawing = s.surface.Image()
	}

	s.mu.Lock()
	a := &submission.Assets{Submission: &submission.Submission{LayerOrder: s.scene.Order.Strings()}, Drawing: drawing}
	if s.base != nil {
		a.Base = s.base
		if b := s.base.Bounds(); s.displayW > 0 && s.displayH > 0 && (b.Dx() != s.displayW || b.Dy() != s.displayH) {
			a.Base = imaging.Resize(s.base, s.displayW, s.displayH, imaging.Lanczos)
		}
	}
	px := func(v float64) int { return int(math.Round(v)) }
	if s.scene.HasText() {
		t := s.scene.Text
		a.Text = &submission.Text{
			Content: t.Content, X: px(t.Position.X), Y: px(t.Position.Y),
			FontSize: px(t.FontSize), Color: t.Color, Rotation: t.Rotation,
		}
	}
	if s.scene.HasEmoji() {
		e := s.scene.Emoji
		a.Emoji = &submission.Emoji{
			Char: e.Char, Code: e.Code(), X: px(e.Position.X), Y: px(e.Position.Y),
			Size: px(e.Size), Rotation: e.Rotation, FlipHorizontal: e.FlipHorizontal,
		}
	}
	for _, o := range s.scene.Overlays.All() {
		a.Overlays = append(a.Overlays, submission.Overlay{
			X: px(o.Position.X), Y: px(o.Position.Y),
			Width: px(o.Width), Height: px(o.Height),
			Opacity: o.Opacity, Rotation: o.Rotation, FlipHorizontal: o.FlipHorizontal,
		})
		a.OverlayImages = append(a.OverlayImages, o.Image())
	}
	s.mu.Unlock()

	return r.Render(ctx, a)
}
