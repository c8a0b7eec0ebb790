package submission

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestEncodeParseRequest(t *testing.T) {
	in := &Submission{
		Text:  &Text{Content: "ねこ", X: 520, Y: 200, FontSize: 96, Color: "#ff00ff", Rotation: -45},
		Emoji: &Emoji{Char: "😺", Code: "1f63a", X: 100, Y: 120, Size: 328, Rotation: 90, FlipHorizontal: true},
		Overlays: []Overlay{{
			Data: EncodeDataURL("image/png", pngBytes(t, 2, 2)), X: 10, Y: 20, Width: 30, Height: 40,
			Opacity: 0.5, Rotation: 15, RemoveBackground: true,
		}},
		LayerOrder:    []string{"overlay", "text", "emoji"},
		BaseImage:     pngBytes(t, 4, 4),
		BaseImageName: "cat.png",
		Drawing:       pngBytes(t, 4, 4),
	}
	body, ctype, err := in.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	req := httptest.NewRequest("POST", "/generate", bytes.NewReader(body))
	req.Header.Set("Content-Type", ctype)
	out, warnings, err := Parse(req, 1<<20)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if *out.Text != *in.Text {
		t.Errorf("text = %+v, want %+v", *out.Text, *in.Text)
	}
	if *out.Emoji != *in.Emoji {
		t.Errorf("emoji = %+v, want %+v", *out.Emoji, *in.Emoji)
	}
	if len(out.Overlays) != 1 || out.Overlays[0] != in.Overlays[0] {
		t.Errorf("overlays = %+v", out.Overlays)
	}
	if strings.Join(out.LayerOrder, ",") != "overlay,text,emoji" {
		t.Errorf("layer order = %v", out.LayerOrder)
	}
	if !bytes.Equal(out.BaseImage, in.BaseImage) || out.BaseImageName != "cat.png" {
		t.Errorf("base image not carried (%d bytes, %q)", len(out.BaseImage), out.BaseImageName)
	}
	if !bytes.Equal(out.Drawing, in.Drawing) {
		t.Error("drawing not carried")
	}
}

func TestFromFormFallbacks(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		FieldText:       "hi",
		FieldTextX:      "abc",
		FieldTextY:      "99.6",
		FieldFontSize:   "",
		FieldLayerOrder: "not json",
		FieldOverlays:   "[{\"data\":\"x\",\"x\":1.4,\"y\":2,\"width\":3,\"height\":4}]",
	} {
		mw.WriteField(k, v)
	}
	mw.Close()

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	s, warnings, err := FromForm(form)
	if err != nil {
		t.Fatal(err)
	}
	if s.Text.X != DefaultX || s.Text.Y != 100 || s.Text.FontSize != DefaultFontSize || s.Text.Color != DefaultColor {
		t.Errorf("text = %+v", *s.Text)
	}
	if len(warnings) != 2 {
		t.Errorf("warnings = %v, want text_x and layer_order", warnings)
	}
	if strings.Join(s.LayerOrder, ",") != "text,emoji,overlay" {
		t.Errorf("layer order = %v", s.LayerOrder)
	}
	if len(s.Overlays) != 1 || s.Overlays[0].X != 1 || s.Overlays[0].Opacity != 1 {
		t.Errorf("overlays = %+v", s.Overlays)
	}
	if s.Emoji != nil {
		t.Error("emoji present without emoji fields")
	}
}

func TestParseIntDefault(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"", 7, true},
		{"42", 42, true},
		{" -3 ", -3, true},
		{"2.5", 3, true},
		{"NaN", 7, false},
		{"twelve", 7, false},
	}
	for _, tt := range tests {
		got, ok := ParseIntDefault(tt.in, 7)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseIntDefault(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "True", "1", "on", "yes"} {
		if !ParseBool(s) {
			t.Errorf("ParseBool(%q) = false", s)
		}
	}
	for _, s := range []string{"", "false", "0", "nope"} {
		if ParseBool(s) {
			t.Errorf("ParseBool(%q) = true", s)
		}
	}
}

func TestDecodeDataURL(t *testing.T) {
	data, mime, err := DecodeDataURL("data:image/png;base64,aGVsbG8=")
	if err != nil || string(data) != "hello" || mime != "image/png" {
		t.Errorf("got %q %q %v", data, mime, err)
	}
	if data, _, err := DecodeDataURL("aGVsbG8"); err != nil || string(data) != "hello" {
		t.Errorf("unpadded bare payload: %q %v", data, err)
	}
	if _, _, err := DecodeDataURL("data:text/plain,hello"); err == nil {
		t.Error("non-base64 data url accepted")
	}
	if _, _, err := DecodeDataURL("data:image/png;base64"); err == nil {
		t.Error("data url without payload accepted")
	}
}

func TestValidate(t *testing.T) {
	if _, err := (&Submission{}).Validate(); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty submission: err = %v, want ErrEmpty", err)
	}
	if _, err := (&Submission{Drawing: []byte{1}}).Validate(); err != nil {
		t.Errorf("drawing-only submission: %v", err)
	}

	s := &Submission{
		Text:       &Text{Content: "x", Color: "red", FontSize: 10},
		Overlays:   []Overlay{{Data: "d", Width: 0, Height: 5}},
		LayerOrder: []string{"text", "text", "emoji"},
	}
	warnings, err := s.Validate()
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 3 {
		t.Errorf("warnings = %v, want order, color and overlay size", warnings)
	}
}

func TestDecodeAssets(t *testing.T) {
	s := &Submission{
		BaseImage: pngBytes(t, 8, 6),
		Drawing:   []byte("garbage"),
		Overlays: []Overlay{
			{Data: EncodeDataURL("image/png", pngBytes(t, 3, 3)), Width: 3, Height: 3, Opacity: 1},
			{Data: "data:image/png;base64,AAAA", Width: 3, Height: 3, Opacity: 1},
		},
	}
	a, warnings, err := s.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if a.Base.Bounds().Dx() != 8 {
		t.Errorf("base width = %d", a.Base.Bounds().Dx())
	}
	if a.Drawing != nil {
		t.Error("garbage drawing decoded")
	}
	if a.OverlayImages[0] == nil || a.OverlayImages[1] != nil {
		t.Errorf("overlay images = %v", a.OverlayImages)
	}
	if len(warnings) != 2 {
		t.Errorf("warnings = %v", warnings)
	}

	if _, _, err := (&Submission{BaseImage: []byte("nope")}).Decode(); err == nil {
		t.Error("broken base image accepted")
	}
}

func TestParseCompositionFile(t *testing.T) {
	dir := t.TempDir()
	overlay := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	overlay.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	png.Encode(&buf, overlay)
	os.WriteFile(filepath.Join(dir, "sticker.png"), buf.Bytes(), 0o644)
	os.WriteFile(filepath.Join(dir, "base.jpg"), []byte("base"), 0o644)
	os.WriteFile(filepath.Join(dir, "c.json"), []byte(`{
  "base_image": "base.jpg",
  "text": {"content": "hi", "x": 1, "y": 2},
  "overlays": [{"path": "sticker.png", "x": 5, "y": 6, "width": 2, "height": 2}]
}`), 0o644)

	s, err := ParseCompositionFile(filepath.Join(dir, "c.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(s.BaseImage) != "base" || s.BaseImageName != "base.jpg" {
		t.Errorf("base image = %q %q", s.BaseImage, s.BaseImageName)
	}
	if s.Text.FontSize != DefaultFontSize || s.Text.Color != DefaultColor {
		t.Errorf("text defaults not applied: %+v", *s.Text)
	}
	if len(s.Overlays) != 1 || !strings.HasPrefix(s.Overlays[0].Data, "data:image/png;base64,") || s.Overlays[0].Opacity != 1 {
		t.Errorf("overlay = %+v", s.Overlays)
	}
	if _, err := DecodeImageDataURL(s.Overlays[0].Data); err != nil {
		t.Errorf("overlay data does not decode: %v", err)
	}

	if _, err := ParseCompositionFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestExampleJSONParses(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "base.jpg"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "c.json"), []byte(ExampleJSON()), 0o644)
	s, err := ParseCompositionFile(filepath.Join(dir, "c.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Validate(); err != nil {
		t.Errorf("example does not validate: %v", err)
	}
}
