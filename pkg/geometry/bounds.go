package geometry

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Text bounds heuristic constants.
const (
	TextWrapWidth   = 400.0
	GlyphWidthRatio = 0.6
	LineHeightRatio = 1.2
)

// Size is a width/height pair.
type Size struct {
	Width  float64
	Height float64
}

// EstimateTextBounds approximates the rendered size of text at fontSize,
// wrapping at maxWidth. Each glyph is assumed to be 0.6 × fontSize wide and
// each line 1.2 × fontSize tall. Explicit newlines start a new line; each such
// line wraps independently. A non-positive maxWidth uses TextWrapWidth.
func EstimateTextBounds(text string, fontSize, maxWidth float64) Size {
	if maxWidth <= 0 {
		maxWidth = TextWrapWidth
	}
	charWidth := fontSize * GlyphWidthRatio
	lineHeight := fontSize * LineHeightRatio

	var width float64
	lines := 0
	for _, line := range strings.Split(text, "\n") {
		total := float64(utf8.RuneCountInString(line)) * charWidth
		if total <= maxWidth {
			width = math.Max(width, total)
			lines++
			continue
		}
		width = maxWidth
		lines += int(math.Ceil(total / maxWidth))
	}

	return Size{
		Width:  math.Max(width, fontSize),
		Height: lineHeight * float64(lines),
	}
}
