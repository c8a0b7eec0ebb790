package editor

import (
	"github.com/xob0t/IconStencil/pkg/bgremove"
	"github.com/xob0t/IconStencil/pkg/config"
	"github.com/xob0t/IconStencil/pkg/drawing"
	"github.com/xob0t/IconStencil/pkg/geometry"
	"github.com/xob0t/IconStencil/pkg/scene"
)

// Options configures a Session.
type Options struct {
	TextPosition  geometry.Point
	EmojiPosition geometry.Point
	FontSize      float64
	TextColor     string
	EmojiSize     float64

	DrawingColor     string
	DrawingThickness float64
	HistoryLimit     int

	// ClampToCanvas keeps dragged centers inside the displayed image.
	ClampToCanvas bool
	// OverlayInitialMax is the longer side of a newly added overlay.
	OverlayInitialMax float64
	// BackgroundTolerance is used for background-removal previews.
	BackgroundTolerance float64
}

// DefaultOptions returns the stock editor settings.
func DefaultOptions() Options {
	return Options{
		TextPosition:        scene.DefaultTextPosition,
		EmojiPosition:       scene.DefaultEmojiPosition,
		FontSize:            scene.DefaultFontSize,
		TextColor:           scene.DefaultTextColor,
		EmojiSize:           scene.DefaultEmojiSize,
		DrawingColor:        drawing.DefaultColor,
		DrawingThickness:    drawing.DefaultThickness,
		HistoryLimit:        drawing.DefaultHistoryLimit,
		OverlayInitialMax:   scene.DefaultOverlayMaxSide,
		BackgroundTolerance: bgremove.DefaultTolerance,
	}
}

// OptionsFromConfig maps a loaded configuration onto Options.
func OptionsFromConfig(c *config.Config) Options {
	e := c.Editor
	return Options{
		TextPosition:        geometry.Pt(e.TextPosition[0], e.TextPosition[1]),
		EmojiPosition:       geometry.Pt(e.EmojiPosition[0], e.EmojiPosition[1]),
		FontSize:            e.FontSize,
		TextColor:           e.TextColor,
		EmojiSize:           e.EmojiSize,
		DrawingColor:        e.DrawingColor,
		DrawingThickness:    e.DrawingThickness,
		HistoryLimit:        e.HistoryLimit,
		ClampToCanvas:       e.ClampToCanvas,
		OverlayInitialMax:   e.OverlayInitialMax,
		BackgroundTolerance: c.Render.BackgroundTolerance,
	}
}
