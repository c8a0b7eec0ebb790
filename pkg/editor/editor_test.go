package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/xob0t/IconStencil/pkg/geometry"
	"github.com/xob0t/IconStencil/pkg/render"
	"github.com/xob0t/IconStencil/pkg/scene"
	"github.com/xob0t/IconStencil/pkg/submission"
	"github.com/xob0t/IconStencil/pkg/transform"
)

var (
	black = color.NRGBA{A: 255}
	red   = color.NRGBA{R: 255, A: 255}
)

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// newSession returns a session over a black w×h base shown at dw×dh.
func newSession(t *testing.T, opts Options, w, h, dw, dh int) *Session {
	t.Helper()
	base := imaging.New(w, h, black)
	s := New(opts)
	s.SetBaseImage(base, pngBytes(t, base), "base.png")
	if dw != w || dh != h {
		s.SetDisplaySize(dw, dh)
	}
	return s
}

func sticker() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(6, 6, 14, 14), image.NewUniform(red), image.Point{}, draw.Src)
	return img
}

func TestSubmissionScalesToNaturalSize(t *testing.T) {
	s := newSession(t, DefaultOptions(), 1040, 520, 520, 260)
	if got := s.ImageScale(); got != 2 {
		t.Fatalf("ImageScale = %v, want 2", got)
	}
	s.SetText("Hi")
	s.SelectEmoji("😀")

	sub, err := s.Submission()
	if err != nil {
		t.Fatalf("Submission: %v", err)
	}
	if sub.Text == nil || sub.Text.X != 520 || sub.Text.Y != 200 || sub.Text.FontSize != 96 {
		t.Errorf("text = %+v", sub.Text)
	}
	if sub.Emoji == nil || sub.Emoji.X != 520 || sub.Emoji.Y != 360 || sub.Emoji.Size != 328 {
		t.Errorf("emoji = %+v", sub.Emoji)
	}
	if sub.Emoji.Code != "1f600" {
		t.Errorf("emoji code = %q", sub.Emoji.Code)
	}
	if strings.Join(sub.LayerOrder, ",") != "text,emoji,overlay" {
		t.Errorf("layer order = %v", sub.LayerOrder)
	}
	if sub.BaseImageName != "base.png" || len(sub.BaseImage) == 0 {
		t.Errorf("base image not carried: %q %d bytes", sub.BaseImageName, len(sub.BaseImage))
	}
	if sub.Drawing != nil {
		t.Error("drawing sent without strokes")
	}
}

func TestSubmissionEmpty(t *testing.T) {
	s := newSession(t, DefaultOptions(), 100, 100, 100, 100)
	if _, err := s.Submission(); !errors.Is(err, submission.ErrEmpty) {
		t.Errorf("err = %v, want ErrEmpty", err)
	}
	s.SetText("x")
	s.ClearText()
	if _, err := s.Submission(); !errors.Is(err, submission.ErrEmpty) {
		t.Errorf("after ClearText err = %v, want ErrEmpty", err)
	}
}

func TestDrawingOnlySubmission(t *testing.T) {
	s := newSession(t, DefaultOptions(), 100, 60, 100, 60)
	s.SetDrawMode(true)
	if !s.PointerDown(geometry.Pt(10, 10)) {
		t.Fatal("pointer down not consumed in draw mode")
	}
	s.PointerMove(geometry.Pt(50, 30))
	s.PointerUp()

	sub, err := s.Submission()
	if err != nil {
		t.Fatalf("Submission: %v", err)
	}
	if len(sub.Drawing) == 0 || sub.Text != nil || sub.Emoji != nil {
		t.Errorf("submission = %+v", sub)
	}
	st := s.State()
	if !st.CanUndo || st.CanRedo || !st.DrawMode {
		t.Errorf("state = %+v", st)
	}
	if !s.Undo() || !s.State().CanRedo {
		t.Error("undo did not step back")
	}
}

func TestNewBaseImageResetsDrawing(t *testing.T) {
	s := newSession(t, DefaultOptions(), 100, 60, 100, 60)
	s.SetDrawMode(true)
	s.PointerDown(geometry.Pt(10, 10))
	s.PointerMove(geometry.Pt(50, 30))
	s.PointerUp()

	s.SetBaseImage(imaging.New(80, 80, black), nil, "")
	if s.Surface().HasDrawing() || s.State().CanUndo {
		t.Error("drawing history survived a new base image")
	}
	if w, h := s.DisplaySize(); w != 100 || h != 100 {
		t.Errorf("display size = %dx%d, want 100x100", w, h)
	}
	if w, h := s.Surface().Size(); w != 100 || h != 100 {
		t.Errorf("surface size = %dx%d, want 100x100", w, h)
	}
	if got := s.ImageScale(); got != 0.8 {
		t.Errorf("ImageScale = %v, want 0.8", got)
	}
}

func TestBaseImageSwapKeepsDisplayWidth(t *testing.T) {
	s := newSession(t, DefaultOptions(), 1040, 520, 520, 260)
	s.SetBaseImage(imaging.New(300, 600, black), nil, "")
	if w, h := s.DisplaySize(); w != 520 || h != 1040 {
		t.Errorf("display size = %dx%d, want 520x1040", w, h)
	}
	s.SetDisplaySize(130, 260)
	if got := s.ImageScale(); math.Abs(got-300.0/130) > 1e-9 {
		t.Errorf("ImageScale = %v", got)
	}
}

func TestHistoryUnboundedByDefault(t *testing.T) {
	s := newSession(t, DefaultOptions(), 100, 60, 100, 60)
	s.SetDrawMode(true)
	const strokes = 60
	for i := range strokes {
		y := float64(i%60) + 0.5
		s.PointerDownHit(transform.SurfaceHit, geometry.Pt(5, y))
		s.PointerMove(geometry.Pt(95, y))
		s.PointerUp()
	}
	if n, i := s.Surface().HistoryState(); i != strokes || n != i+1 {
		t.Fatalf("after %d strokes len=%d index=%d, want %d/%d", strokes, n, i, strokes+1, strokes)
	}

	undone := 0
	for s.Undo() {
		undone++
	}
	if undone != strokes {
		t.Errorf("undo steps = %d, want %d", undone, strokes)
	}
	if _, _, _, a := s.Surface().Image().At(50, 0).RGBA(); a != 0 {
		t.Error("first stroke survived undoing everything")
	}
}

func TestRemoveOverlayKeepsDataAligned(t *testing.T) {
	s := newSession(t, DefaultOptions(), 100, 100, 100, 100)
	var ids []string
	for i, c := range []color.NRGBA{red, black, {G: 255, A: 255}} {
		id, err := s.AddOverlay(pngBytes(t, imaging.New(10+i, 10, c)), "image/png")
		if err != nil {
			t.Fatalf("AddOverlay: %v", err)
		}
		ids = append(ids, id)
	}
	s.Select(scene.OverlayTarget(2))
	if err := s.RemoveOverlay(0); err != nil {
		t.Fatalf("RemoveOverlay: %v", err)
	}
	if err := s.RemoveOverlay(5); !errors.Is(err, scene.ErrIndexOutOfRange) {
		t.Errorf("RemoveOverlay(5) err = %v", err)
	}

	st := s.State()
	if st.Selected != "overlay#1" {
		t.Errorf("selected = %q, want overlay#1", st.Selected)
	}
	if len(st.Overlays) != 2 || st.Overlays[0].ID != ids[1] || st.Overlays[1].ID != ids[2] {
		t.Fatalf("overlays = %+v", st.Overlays)
	}

	sub, err := s.Submission()
	if err != nil {
		t.Fatal(err)
	}
	img, err := submission.DecodeImageDataURL(sub.Overlays[1].Data)
	if err != nil {
		t.Fatalf("decode overlay data: %v", err)
	}
	if img.Bounds().Dx() != 12 {
		t.Errorf("overlay 1 data width = %d, want 12", img.Bounds().Dx())
	}
}

func TestOverlayInitialMax(t *testing.T) {
	opts := DefaultOptions()
	opts.OverlayInitialMax = 100
	s := newSession(t, opts, 100, 100, 100, 100)
	s.AddOverlayImage(imaging.New(400, 200, red), "")

	st := s.State()
	if o := st.Overlays[0]; o.Width != 100 || o.Height != 50 {
		t.Errorf("overlay size = %vx%v, want 100x50", o.Width, o.Height)
	}
}

func TestOverlayBackgroundRemovalPreview(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, DefaultOptions(), 100, 100, 100, 100)
	s.AddOverlayImage(sticker(), "")

	if err := <-s.SetOverlayRemoveBackground(ctx, 0, true); err != nil {
		t.Fatalf("remove background: %v", err)
	}
	s.View(func(sc *scene.Scene) {
		o, _ := sc.Overlays.At(0)
		keyed, ok := o.Display.(*image.NRGBA)
		if !ok || !o.RemoveBackground {
			t.Fatalf("display = %T, flag = %v", o.Display, o.RemoveBackground)
		}
		if a := keyed.NRGBAAt(0, 0).A; a != 0 {
			t.Errorf("keyed corner alpha = %d", a)
		}
	})

	// Submissions carry the original upload with the flag set.
	sub, err := s.Submission()
	if err != nil {
		t.Fatal(err)
	}
	img, err := submission.DecodeImageDataURL(sub.Overlays[0].Data)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a == 0 || !sub.Overlays[0].RemoveBackground {
		t.Error("submission should carry the unkeyed upload")
	}

	if err := <-s.SetOverlayRemoveBackground(ctx, 0, false); err != nil {
		t.Fatal(err)
	}
	s.View(func(sc *scene.Scene) {
		o, _ := sc.Overlays.At(0)
		if o.Display != o.Source {
			t.Error("turning removal off should restore the source")
		}
	})
}

func TestOverlayBackgroundRemovalSuperseded(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, DefaultOptions(), 100, 100, 100, 100)
	s.AddOverlayImage(sticker(), "")

	on := s.SetOverlayRemoveBackground(ctx, 0, true)
	off := s.SetOverlayRemoveBackground(ctx, 0, false)
	if err := <-off; err != nil {
		t.Fatal(err)
	}
	if err := <-on; err != nil && !errors.Is(err, ErrSuperseded) {
		t.Fatalf("on err = %v", err)
	}
	s.View(func(sc *scene.Scene) {
		o, _ := sc.Overlays.At(0)
		if o.RemoveBackground {
			t.Error("flag should be off")
		}
	})

	on = s.SetOverlayRemoveBackground(ctx, 0, true)
	if err := s.RemoveOverlay(0); err != nil {
		t.Fatal(err)
	}
	if err := <-on; err != nil && !errors.Is(err, ErrSuperseded) {
		t.Fatalf("on err after remove = %v", err)
	}
	if n := len(s.State().Overlays); n != 0 {
		t.Errorf("overlays = %d, want 0", n)
	}

	if err := <-s.SetOverlayRemoveBackground(ctx, 3, true); !errors.Is(err, scene.ErrIndexOutOfRange) {
		t.Errorf("missing overlay err = %v", err)
	}
}

func TestLoadBaseImage(t *testing.T) {
	ctx := context.Background()
	s := New(DefaultOptions())

	if err := <-s.LoadBaseImage(ctx, []byte("not an image"), "junk.txt"); err == nil {
		t.Error("undecodable base accepted")
	}

	if err := <-s.LoadBaseImage(ctx, pngBytes(t, imaging.New(64, 32, black)), "a.png"); err != nil {
		t.Fatalf("LoadBaseImage: %v", err)
	}
	if w, h := s.DisplaySize(); w != 64 || h != 32 {
		t.Errorf("display size = %dx%d", w, h)
	}

	pending := s.LoadBaseImage(ctx, pngBytes(t, imaging.New(10, 10, black)), "stale.png")
	s.SetBaseImage(imaging.New(128, 64, black), nil, "")
	if err := <-pending; err != nil && !errors.Is(err, ErrSuperseded) {
		t.Fatalf("pending err = %v", err)
	}
	if got := s.ImageScale(); got != 2 {
		t.Errorf("ImageScale = %v, want 2 from the newest base", got)
	}
}

func TestPointerDragScaled(t *testing.T) {
	s := newSession(t, DefaultOptions(), 1040, 520, 520, 260)
	s.SelectEmoji("😀")

	if !s.PointerDown(geometry.Pt(260, 180)) {
		t.Fatal("emoji not hit")
	}
	if st := s.State(); st.Mode != "dragging" || st.Selected != "emoji" {
		t.Errorf("state = %s/%s", st.Mode, st.Selected)
	}
	s.PointerMove(geometry.Pt(270, 190))
	s.PointerUp()

	sub, err := s.Submission()
	if err != nil {
		t.Fatal(err)
	}
	if sub.Emoji.X != 540 || sub.Emoji.Y != 380 {
		t.Errorf("emoji at %d,%d, want 540,380", sub.Emoji.X, sub.Emoji.Y)
	}
}

func TestDragClampedToCanvas(t *testing.T) {
	opts := DefaultOptions()
	opts.ClampToCanvas = true
	s := newSession(t, opts, 300, 300, 300, 300)
	s.SelectEmoji("😀")

	s.PointerDown(geometry.Pt(260, 180))
	s.PointerMove(geometry.Pt(400, 500))
	s.PointerUp()

	st := s.State()
	if st.Emoji.X != 300 || st.Emoji.Y != 300 {
		t.Errorf("emoji at %v,%v, want clamped to 300,300", st.Emoji.X, st.Emoji.Y)
	}
}

func TestWheelUnderPointer(t *testing.T) {
	s := newSession(t, DefaultOptions(), 520, 400, 520, 400)
	s.SetText("Hello")
	if !s.Wheel(scene.DefaultTextPosition, -1) {
		t.Fatal("wheel over text ignored")
	}
	if got := s.State().Text.FontSize; got != scene.DefaultFontSize+scene.WheelStep {
		t.Errorf("font size = %v", got)
	}
	if s.Wheel(geometry.Pt(5, 5), -1) {
		t.Error("wheel over background consumed")
	}
}

func TestMoveLayerChangesZ(t *testing.T) {
	s := New(DefaultOptions())
	if err := s.MoveLayer(0, 2); err != nil {
		t.Fatal(err)
	}
	st := s.State()
	if strings.Join(st.LayerOrder, ",") != "emoji,overlay,text" {
		t.Errorf("order = %v", st.LayerOrder)
	}
	if st.ZIndex["text"] <= st.ZIndex["overlay"] || st.ZIndex["drawing"] <= st.ZIndex["text"] {
		t.Errorf("z = %v", st.ZIndex)
	}

	s.BeginReorder(2)
	s.ReorderOver(0)
	s.PointerUp()
	if got := strings.Join(s.State().LayerOrder, ","); got != "text,emoji,overlay" {
		t.Errorf("order after drag = %s", got)
	}
}

func TestPreviewRendersDisplaySpace(t *testing.T) {
	r, err := render.NewRenderer(render.Options{})
	if err != nil {
		t.Fatal(err)
	}
	s := newSession(t, DefaultOptions(), 100, 100, 50, 50)
	s.AddOverlayImage(imaging.New(20, 20, red), "")
	pos, w := geometry.Pt(25, 25), 20.0
	if err := s.UpdateOverlay(0, scene.OverlayPatch{Position: &pos, Width: &w}); err != nil {
		t.Fatal(err)
	}

	out, err := s.Preview(context.Background(), r)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Fatalf("preview size = %v", b)
	}
	if c := out.NRGBAAt(25, 25); c != red {
		t.Errorf("center = %+v, want red", c)
	}
	if c := out.NRGBAAt(2, 2); c != black {
		t.Errorf("corner = %+v, want black", c)
	}
}

func TestSubmit(t *testing.T) {
	var got *submission.Submission
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, _, err := submission.Parse(r, 1<<20)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		got = sub
		json.NewEncoder(w).Encode(submission.Response{
			Success: true, OutputPath: "output/icon.jpg", DownloadURL: "/download/icon.jpg",
		})
	}))
	defer srv.Close()

	s := newSession(t, DefaultOptions(), 100, 100, 100, 100)
	s.SetText("Hi")
	resp, err := s.Submit(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !resp.Success || resp.DownloadURL != "/download/icon.jpg" {
		t.Errorf("response = %+v", resp)
	}
	if got == nil || got.Text == nil || got.Text.Content != "Hi" || got.Text.X != 260 {
		t.Errorf("backend saw %+v", got)
	}
}

func TestSubmitErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(submission.ErrorResponse{Detail: "No content to render"})
	}))
	defer srv.Close()

	s := newSession(t, DefaultOptions(), 100, 100, 100, 100)
	s.SelectEmoji("😀")
	_, err := s.Submit(context.Background(), srv.Client(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "No content to render") {
		t.Errorf("err = %v, want backend detail", err)
	}

	empty := New(DefaultOptions())
	if _, err := empty.Submit(context.Background(), srv.Client(), srv.URL); !errors.Is(err, submission.ErrEmpty) {
		t.Errorf("empty session err = %v, want ErrEmpty before any request", err)
	}
}

func TestStateBrush(t *testing.T) {
	s := New(DefaultOptions())
	if err := s.SetBrush("#00ff00", 12); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(s.State())
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Color     string  `json:"brushColor"`
		Thickness float64 `json:"brushThickness"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Color != "#00ff00" || got.Thickness != 12 {
		t.Errorf("brush = %+v", got)
	}
}
