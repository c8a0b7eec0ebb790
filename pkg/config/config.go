// Package config loads IconStencil settings from a JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/xob0t/IconStencil/pkg/bgremove"
	"github.com/xob0t/IconStencil/pkg/drawing"
	"github.com/xob0t/IconStencil/pkg/output"
	"github.com/xob0t/IconStencil/pkg/render"
	"github.com/xob0t/IconStencil/pkg/scene"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Server configures the HTTP backend.
type Server struct {
	Addr           string   `json:"addr"`
	OutputDir      string   `json:"output_dir"`
	MaxUploadMB    int      `json:"max_upload_mb"`
	DefaultImage   string   `json:"default_image"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// Render configures the compositor.
type Render struct {
	FontPath            string  `json:"font_path"`
	CJKFontPath         string  `json:"cjk_font_path"`
	EmojiDir            string  `json:"emoji_dir"`
	EmojiURLTemplate    string  `json:"emoji_url_template"`
	JPEGQuality         int     `json:"jpeg_quality"`
	OutputFormat        string  `json:"output_format"`
	BackgroundTolerance float64 `json:"background_tolerance"`
}

// Editor configures the interactive session.
type Editor struct {
	TextPosition      [2]float64 `json:"text_position"`
	EmojiPosition     [2]float64 `json:"emoji_position"`
	FontSize          float64    `json:"font_size"`
	TextColor         string     `json:"text_color"`
	EmojiSize         float64    `json:"emoji_size"`
	DrawingColor      string     `json:"drawing_color"`
	DrawingThickness  float64    `json:"drawing_thickness"`
	HistoryLimit      int        `json:"history_limit"`
	ClampToCanvas     bool       `json:"clamp_to_canvas"`
	OverlayInitialMax float64    `json:"overlay_initial_max"`
}

// Config is the root configuration.
type Config struct {
	Server Server `json:"server"`
	Render Render `json:"render"`
	Editor Editor `json:"editor"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:           ":8000",
			OutputDir:      "output",
			MaxUploadMB:    32,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Render: Render{
			EmojiURLTemplate:    render.DefaultEmojiURL,
			JPEGQuality:         output.DefaultQuality,
			OutputFormat:        string(output.JPEG),
			BackgroundTolerance: bgremove.DefaultTolerance,
		},
		Editor: Editor{
			TextPosition:      [2]float64{scene.DefaultTextPosition.X, scene.DefaultTextPosition.Y},
			EmojiPosition:     [2]float64{scene.DefaultEmojiPosition.X, scene.DefaultEmojiPosition.Y},
			FontSize:          scene.DefaultFontSize,
			TextColor:         scene.DefaultTextColor,
			EmojiSize:         scene.DefaultEmojiSize,
			DrawingColor:      drawing.DefaultColor,
			DrawingThickness:  drawing.DefaultThickness,
			HistoryLimit:      drawing.DefaultHistoryLimit,
			OverlayInitialMax: scene.DefaultOverlayMaxSide,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes c to path as indented JSON, creating parent directories.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Validate reports every out-of-range value.
func (c *Config) Validate() error {
	var problems []string
	bad := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	if c.Server.Addr == "" {
		bad("server.addr is empty")
	}
	if c.Server.OutputDir == "" {
		bad("server.output_dir is empty")
	}
	if c.Server.MaxUploadMB < 1 {
		bad("server.max_upload_mb %d < 1", c.Server.MaxUploadMB)
	}
	if q := c.Render.JPEGQuality; q < 1 || q > 100 {
		bad("render.jpeg_quality %d outside 1..100", q)
	}
	if _, err := output.ParseFormat(c.Render.OutputFormat); err != nil {
		bad("render.output_format: %v", err)
	}
	if t := c.Render.BackgroundTolerance; t < 0 || t > 1 {
		bad("render.background_tolerance %g outside 0..1", t)
	}
	if s := c.Editor.FontSize; s < scene.MinFontSize || s > scene.MaxFontSize {
		bad("editor.font_size %g outside %g..%g", s, scene.MinFontSize, scene.MaxFontSize)
	}
	if s := c.Editor.EmojiSize; s < scene.MinEmojiSize || s > scene.MaxEmojiSize {
		bad("editor.emoji_size %g outside %g..%g", s, scene.MinEmojiSize, scene.MaxEmojiSize)
	}
	if _, err := colorful.Hex(c.Editor.TextColor); err != nil {
		bad("editor.text_color %q is not a hex color", c.Editor.TextColor)
	}
	if _, err := colorful.Hex(c.Editor.DrawingColor); err != nil {
		bad("editor.drawing_color %q is not a hex color", c.Editor.DrawingColor)
	}
	if t := c.Editor.DrawingThickness; t < drawing.MinThickness || t > drawing.MaxThickness {
		bad("editor.drawing_thickness %g outside %g..%g", t, drawing.MinThickness, drawing.MaxThickness)
	}
	if c.Editor.HistoryLimit < 0 {
		bad("editor.history_limit %d < 0", c.Editor.HistoryLimit)
	}
	if c.Editor.OverlayInitialMax <= 0 {
		bad("editor.overlay_initial_max %g <= 0", c.Editor.OverlayInitialMax)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}
