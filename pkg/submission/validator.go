// validator.go - Check a Submission before rendering.
package submission

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/xob0t/IconStencil/pkg/scene"
)

// ErrEmpty means the request has nothing to draw on the base image.
var ErrEmpty = errors.New("specify text, an emoji, a drawing or an overlay image")

// HasContent reports whether s carries text, an emoji, a drawing or overlays.
func (s *Submission) HasContent() bool {
	return (s.Text != nil && s.Text.Content != "") ||
		(s.Emoji != nil && (s.Emoji.Char != "" || s.Emoji.Code != "")) ||
		len(s.Drawing) > 0 ||
		len(s.Overlays) > 0
}

// Validate returns ErrEmpty for a request with no content. Anything else odd
// is reported as a warning; rendering degrades around it.
func (s *Submission) Validate() ([]string, error) {
	if s == nil || !s.HasContent() {
		return nil, ErrEmpty
	}

	var warnings []string
	if len(s.LayerOrder) > 0 {
		if _, err := scene.ParseOrder(s.LayerOrder); err != nil {
			warnings = append(warnings, fmt.Sprintf("layer order %v: %v, using default", s.LayerOrder, err))
		}
	}
	if t := s.Text; t != nil {
		if _, err := colorful.Hex(t.Color); err != nil {
			warnings = append(warnings, fmt.Sprintf("text color %q is not #rrggbb, using %s", t.Color, DefaultColor))
		}
		if t.FontSize <= 0 {
			warnings = append(warnings, fmt.Sprintf("font size %d, using %d", t.FontSize, DefaultFontSize))
		}
	}
	if e := s.Emoji; e != nil && e.Size <= 0 {
		warnings = append(warnings, fmt.Sprintf("emoji size %d, using %d", e.Size, DefaultEmojiSize))
	}
	for i, o := range s.Overlays {
		if o.Width <= 0 || o.Height <= 0 {
			warnings = append(warnings, fmt.Sprintf("overlay %d has size %dx%d and will be skipped", i, o.Width, o.Height))
		}
		if o.Data == "" {
			warnings = append(warnings, fmt.Sprintf("overlay %d has no image data and will be skipped", i))
		}
	}
	return warnings, nil
}
