// composition.go - Composition files for offline rendering and example generation.
package submission

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"
)

// Composition is the on-disk form of a Submission: images are referenced by
// path instead of being embedded.
type Composition struct {
	BaseImage  string             `json:"base_image,omitempty"`
	Drawing    string             `json:"drawing,omitempty"`
	Text       *Text              `json:"text,omitempty"`
	Emoji      *Emoji             `json:"emoji,omitempty"`
	Overlays   []CompositionLayer `json:"overlays,omitempty"`
	LayerOrder []string           `json:"layer_order,omitempty"`
}

// CompositionLayer is an overlay read from a file.
type CompositionLayer struct {
	Path             string   `json:"path"`
	X                int      `json:"x"`
	Y                int      `json:"y"`
	Width            int      `json:"width"`
	Height           int      `json:"height"`
	Opacity          *float64 `json:"opacity,omitempty"`
	Rotation         float64  `json:"rotation,omitempty"`
	RemoveBackground bool     `json:"removeBackground,omitempty"`
	FlipHorizontal   bool     `json:"flipHorizontal,omitempty"`
}

// ParseCompositionFile reads a composition JSON file and loads every image it
// references. Relative paths resolve against the file's directory.
func ParseCompositionFile(path string) (*Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var c Composition
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c.Load(filepath.Dir(path))
}

// Load reads the images referenced by c relative to dir.
func (c *Composition) Load(dir string) (*Submission, error) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}

	s := &Submission{LayerOrder: c.LayerOrder}
	if c.Text != nil {
		t := *c.Text
		t.Content = norm.NFC.String(t.Content)
		if t.Color == "" {
			t.Color = DefaultColor
		}
		if t.FontSize == 0 {
			t.FontSize = DefaultFontSize
		}
		s.Text = &t
	}
	if c.Emoji != nil {
		e := *c.Emoji
		if e.Size == 0 {
			e.Size = DefaultEmojiSize
		}
		s.Emoji = &e
	}

	var err error
	if c.BaseImage != "" {
		p := resolve(c.BaseImage)
		if s.BaseImage, err = os.ReadFile(p); err != nil {
			return nil, fmt.Errorf("read base image: %w", err)
		}
		s.BaseImageName = filepath.Base(p)
	}
	if c.Drawing != "" {
		if s.Drawing, err = os.ReadFile(resolve(c.Drawing)); err != nil {
			return nil, fmt.Errorf("read drawing: %w", err)
		}
	}

	for i, l := range c.Overlays {
		data, err := os.ReadFile(resolve(l.Path))
		if err != nil {
			return nil, fmt.Errorf("read overlay %d: %w", i, err)
		}
		opacity := 1.0
		if l.Opacity != nil {
			opacity = *l.Opacity
		}
		s.Overlays = append(s.Overlays, Overlay{
			Data:             EncodeDataURL(http.DetectContentType(data), data),
			X:                l.X,
			Y:                l.Y,
			Width:            l.Width,
			Height:           l.Height,
			Opacity:          opacity,
			Rotation:         l.Rotation,
			RemoveBackground: l.RemoveBackground,
			FlipHorizontal:   l.FlipHorizontal,
		})
	}
	return s, nil
}

// ExampleJSON returns a sample composition for iconstencil init.
func ExampleJSON() string {
	return `{
  "base_image": "base.jpg",
  "text": {
    "content": "Hello",
    "x": 260,
    "y": 100,
    "font_size": 48,
    "color": "#ffffff",
    "rotation": 0
  },
  "emoji": {
    "char": "😺",
    "code": "1f63a",
    "x": 260,
    "y": 180,
    "size": 164,
    "rotation": -15,
    "flip_horizontal": false
  },
  "overlays": [],
  "layer_order": ["text", "emoji", "overlay"]
}
`
}
