// decode.go - Parse multipart /generate requests into a Submission.
package submission

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Backend defaults for fields a request omits or garbles.
const (
	DefaultX         = 260
	DefaultY         = 143
	DefaultFontSize  = 48
	DefaultEmojiSize = 164
	DefaultColor     = "#ffffff"
)

// Parse reads a multipart request body. maxMemory bounds the part of the
// form held in memory; larger files spill to disk as with ParseMultipartForm.
// Returns warnings for fields that fell back to defaults.
func Parse(r *http.Request, maxMemory int64) (*Submission, []string, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, nil, fmt.Errorf("parse multipart form: %w", err)
	}
	return FromForm(r.MultipartForm)
}

// FromForm builds a Submission from an already parsed multipart form.
func FromForm(form *multipart.Form) (*Submission, []string, error) {
	if form == nil {
		return nil, nil, fmt.Errorf("no multipart form")
	}
	var warnings []string
	value := func(k string) string {
		if v := form.Value[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	intField := func(k string, def int) int {
		n, ok := ParseIntDefault(value(k), def)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("invalid %s %q, using %d", k, value(k), def))
		}
		return n
	}
	floatField := func(k string, def float64) float64 {
		f, ok := ParseFloatDefault(value(k), def)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("invalid %s %q, using %g", k, value(k), def))
		}
		return f
	}

	s := &Submission{}

	if text := norm.NFC.String(value(FieldText)); text != "" {
		color := value(FieldTextColor)
		if color == "" {
			color = DefaultColor
		}
		s.Text = &Text{
			Content:  text,
			X:        intField(FieldTextX, DefaultX),
			Y:        intField(FieldTextY, DefaultY),
			FontSize: intField(FieldFontSize, DefaultFontSize),
			Color:    color,
			Rotation: floatField(FieldTextRotation, 0),
		}
	}

	char, code := value(FieldEmoji), value(FieldEmojiCode)
	if char != "" || code != "" {
		s.Emoji = &Emoji{
			Char:           char,
			Code:           strings.ToLower(code),
			X:              intField(FieldEmojiX, DefaultX),
			Y:              intField(FieldEmojiY, DefaultY),
			Size:           intField(FieldEmojiSize, DefaultEmojiSize),
			Rotation:       floatField(FieldEmojiRotation, 0),
			FlipHorizontal: ParseBool(value(FieldEmojiFlipHorizontal)),
		}
	}

	if raw := value(FieldOverlays); raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.Overlays); err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid %s ignored: %v", FieldOverlays, err))
			s.Overlays = nil
		}
	}

	s.LayerOrder = DefaultLayerOrder
	if raw := value(FieldLayerOrder); raw != "" {
		var order []string
		if err := json.Unmarshal([]byte(raw), &order); err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid %s, using default", FieldLayerOrder))
		} else {
			s.LayerOrder = order
		}
	}

	var err error
	if s.BaseImage, s.BaseImageName, err = readFile(form, FieldBaseImage); err != nil {
		return nil, warnings, err
	}
	if s.Drawing, _, err = readFile(form, FieldDrawing); err != nil {
		return nil, warnings, err
	}
	return s, warnings, nil
}

// UnmarshalJSON defaults a missing opacity to fully opaque and accepts
// fractional coordinates by rounding.
func (o *Overlay) UnmarshalJSON(data []byte) error {
	var raw struct {
		Data             string   `json:"data"`
		X                float64  `json:"x"`
		Y                float64  `json:"y"`
		Width            float64  `json:"width"`
		Height           float64  `json:"height"`
		Opacity          *float64 `json:"opacity"`
		Rotation         float64  `json:"rotation"`
		RemoveBackground bool     `json:"removeBackground"`
		FlipHorizontal   bool     `json:"flipHorizontal"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	opacity := 1.0
	if raw.Opacity != nil {
		opacity = math.Max(0, math.Min(1, *raw.Opacity))
	}
	*o = Overlay{
		Data:             raw.Data,
		X:                int(math.Round(raw.X)),
		Y:                int(math.Round(raw.Y)),
		Width:            int(math.Round(raw.Width)),
		Height:           int(math.Round(raw.Height)),
		Opacity:          opacity,
		Rotation:         raw.Rotation,
		RemoveBackground: raw.RemoveBackground,
		FlipHorizontal:   raw.FlipHorizontal,
	}
	return nil
}

func readFile(form *multipart.Form, field string) ([]byte, string, error) {
	files := form.File[field]
	if len(files) == 0 {
		return nil, "", nil
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", field, err)
	}
	return data, fh.Filename, nil
}

// ParseIntDefault parses s as an integer, rounding a decimal value. Empty
// input yields def with ok true; unparseable input yields def with ok false.
func ParseIntDefault(s string, def int) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def, false
	}
	return int(math.Round(f)), true
}

// ParseFloatDefault is ParseIntDefault for floats.
func ParseFloatDefault(s string, def float64) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def, false
	}
	return f, true
}

// ParseBool accepts the usual form spellings of true; anything else is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "on", "yes", "y":
		return true
	}
	return false
}
