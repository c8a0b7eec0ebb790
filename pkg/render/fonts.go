// fonts.go - Font management with custom TTF support and embedded fallback font.
// Uses golang.org/x/image/font for OpenType rendering. Defaults to Go Regular
// when no custom font is configured or loading it fails. An optional CJK font
// is used for text containing East Asian wide characters.
package render

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/text/width"

	"github.com/xob0t/IconStencil/pkg/logging"
)

// FontManager handles font loading with fallback.
type FontManager struct {
	primary *opentype.Font
	cjk     *opentype.Font
}

// NewFontManager creates a font manager. An empty or unreadable primary path
// falls back to the embedded Go font; an empty or unreadable cjkPath leaves
// wide text on the primary font.
func NewFontManager(primaryPath, cjkPath string) (*FontManager, error) {
	primary, err := loadFont(primaryPath)
	if err != nil {
		logging.Logger().Warn("could not load custom font, using default", "path", primaryPath, "err", err)
		primary = nil
	}
	if primary == nil {
		primary, err = opentype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font: %w", err)
		}
	}

	cjk, err := loadFont(cjkPath)
	if err != nil {
		logging.Logger().Warn("could not load CJK font", "path", cjkPath, "err", err)
		cjk = nil
	}

	return &FontManager{primary: primary, cjk: cjk}, nil
}

func loadFont(path string) (*opentype.Font, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

// HasCJK reports whether a CJK font is loaded.
func (fm *FontManager) HasCJK() bool { return fm.cjk != nil }

// GetFace returns a face at size pixels suited to text.
func (fm *FontManager) GetFace(size float64, text string) (font.Face, error) {
	f := fm.primary
	if fm.cjk != nil && IsWide(text) {
		f = fm.cjk
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

// IsWide reports whether text contains East Asian wide or fullwidth runes.
func IsWide(text string) bool {
	for _, r := range text {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			return true
		}
	}
	return false
}
