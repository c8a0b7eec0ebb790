package transform

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/xob0t/IconStencil/pkg/geometry"
	"github.com/xob0t/IconStencil/pkg/scene"
)

type fakeSink struct {
	begins, extends, ends int
	fail                  error
}

func (f *fakeSink) BeginStroke(geometry.Point) error {
	if f.fail != nil {
		return f.fail
	}
	f.begins++
	return nil
}

func (f *fakeSink) ExtendStroke(geometry.Point) error { f.extends++; return nil }
func (f *fakeSink) EndStroke() error                  { f.ends++; return nil }

func newScene() *scene.Scene {
	s := scene.New()
	s.SetText("hi")
	s.SetEmoji("😀")
	return s
}

func TestDragEmojiThenRotate(t *testing.T) {
	s := newScene()
	c := NewController(s, nil)

	if !c.PointerDown(BodyHit(scene.EmojiTarget()), geometry.Pt(260, 180)) {
		t.Fatal("drag not started")
	}
	c.PointerMove(geometry.Pt(300, 200))
	c.PointerUp()

	if s.Emoji.Position != geometry.Pt(300, 200) {
		t.Errorf("emoji center = %v, want (300, 200)", s.Emoji.Position)
	}
	if s.Emoji.Rotation != 0 {
		t.Errorf("rotation changed by drag: %v", s.Emoji.Rotation)
	}
	if s.Selected() != scene.EmojiTarget() {
		t.Errorf("selection after drag = %v", s.Selected())
	}

	c.PointerDown(RotateHit(scene.EmojiTarget()), geometry.Pt(400, 200))
	c.PointerMove(geometry.Pt(300, 300))
	c.PointerUp()
	if s.Emoji.Rotation != 90 {
		t.Errorf("rotation = %v, want 90", s.Emoji.Rotation)
	}
}

func TestDragKeepsGrabOffset(t *testing.T) {
	s := newScene()
	c := NewController(s, nil)
	c.PointerDown(BodyHit(scene.TextTarget()), geometry.Pt(270, 110))
	c.PointerMove(geometry.Pt(-30, 20))
	if s.Text.Position != geometry.Pt(-40, 10) {
		t.Errorf("text center = %v, want (-40, 10) unclamped", s.Text.Position)
	}
}

func TestDragClamped(t *testing.T) {
	s := newScene()
	c := NewController(s, nil)
	r := geometry.RectWH(400, 300)
	c.SetClamp(&r, 20)
	c.PointerDown(BodyHit(scene.TextTarget()), geometry.Pt(260, 100))
	c.PointerMove(geometry.Pt(-100, 1000))
	if s.Text.Position != geometry.Pt(20, 280) {
		t.Errorf("clamped center = %v, want (20, 280)", s.Text.Position)
	}
}

func TestRotationNormalized(t *testing.T) {
	s := newScene()
	s.Emoji.Rotation = 170
	c := NewController(s, nil)
	center := s.Emoji.Position
	c.PointerDown(RotateHit(scene.EmojiTarget()), geometry.Pt(center.X+100, center.Y))
	// Sweep the pointer 20 degrees further clockwise: 170 + 20 = 190 -> -170.
	a := geometry.Radians(20)
	c.PointerMove(geometry.Pt(center.X+100*math.Cos(a), center.Y+100*math.Sin(a)))
	if s.Emoji.Rotation != -170 {
		t.Errorf("rotation = %v, want -170", s.Emoji.Rotation)
	}
}

func TestResizeStartCancelsDrag(t *testing.T) {
	s := newScene()
	c := NewController(s, nil)
	c.PointerDown(BodyHit(scene.TextTarget()), geometry.Pt(260, 100))
	c.PointerDown(CornerHit(scene.EmojiTarget(), geometry.CornerSE), geometry.Pt(342, 262))

	if got := c.State(); got.Mode != ModeResizing || got.Target != scene.EmojiTarget() {
		t.Fatalf("state = %+v, want resizing emoji", got)
	}
	c.PointerMove(geometry.Pt(362, 282))
	if s.Text.Position != scene.DefaultTextPosition {
		t.Errorf("text moved after drag was cancelled: %v", s.Text.Position)
	}
	if s.Emoji.Size != scene.DefaultEmojiSize+20 {
		t.Errorf("emoji size = %v, want %v", s.Emoji.Size, scene.DefaultEmojiSize+20)
	}
}

func TestResizeText(t *testing.T) {
	s := newScene()
	c := NewController(s, nil)
	c.PointerDown(CornerHit(scene.TextTarget(), geometry.CornerNW), geometry.Pt(200, 50))
	c.PointerMove(geometry.Pt(170, 20))
	if s.Text.FontSize != 58 {
		t.Errorf("font size = %v, want 48 + 60/2/3 = 58", s.Text.FontSize)
	}
	c.PointerMove(geometry.Pt(2000, 2000))
	if s.Text.FontSize != scene.MinFontSize {
		t.Errorf("font size = %v, want clamp to %v", s.Text.FontSize, scene.MinFontSize)
	}
}

func TestResizeOverlayKeepsAspect(t *testing.T) {
	s := scene.New()
	s.AddOverlay(image.NewRGBA(image.Rect(0, 0, 200, 100)))
	corners := []geometry.Corner{geometry.CornerNW, geometry.CornerNE, geometry.CornerSW, geometry.CornerSE}
	moves := []geometry.Point{geometry.Pt(37, -11), geometry.Pt(-80, 45), geometry.Pt(400, 400), geometry.Pt(-400, -400)}

	c := NewController(s, nil)
	for _, corner := range corners {
		for _, m := range moves {
			start := geometry.Pt(100, 100)
			c.PointerDown(CornerHit(scene.OverlayTarget(0), corner), start)
			c.PointerMove(geometry.Pt(start.X+m.X, start.Y+m.Y))
			c.PointerUp()
			o, _ := s.Overlays.At(0)
			if math.Abs(o.Height-o.Width/2) > 1e-9 {
				t.Errorf("corner %v move %v: %vx%v breaks 2:1 aspect", corner, m, o.Width, o.Height)
			}
			if o.Width < scene.MinOverlayWidth || o.Width > scene.MaxOverlayWidth {
				t.Errorf("width %v out of range", o.Width)
			}
		}
	}
}

func TestResizeOverlaySensitivity(t *testing.T) {
	s := scene.New()
	s.AddOverlay(image.NewRGBA(image.Rect(0, 0, 150, 150)))
	c := NewController(s, nil)
	c.PointerDown(CornerHit(scene.OverlayTarget(0), geometry.CornerSE), geometry.Pt(0, 0))
	c.PointerMove(geometry.Pt(15, 15))
	o, _ := s.Overlays.At(0)
	if o.Width != 170 {
		t.Errorf("width = %v, want 150 + 30/1.5 = 170", o.Width)
	}
}

func TestWheel(t *testing.T) {
	s := newScene()
	c := NewController(s, nil)
	c.Wheel(scene.TextTarget(), 120)
	if s.Text.FontSize != scene.DefaultFontSize-5 {
		t.Errorf("font size = %v after wheel down", s.Text.FontSize)
	}
	c.Wheel(scene.EmojiTarget(), -3)
	if s.Emoji.Size != scene.DefaultEmojiSize+5 {
		t.Errorf("emoji size = %v after wheel up", s.Emoji.Size)
	}
	s.AddOverlay(image.NewRGBA(image.Rect(0, 0, 10, 10)))
	if c.Wheel(scene.OverlayTarget(0), 1) {
		t.Error("wheel should not resize overlays")
	}
	s.Emoji.Size = scene.MaxEmojiSize
	c.Wheel(scene.EmojiTarget(), -1)
	if s.Emoji.Size != scene.MaxEmojiSize {
		t.Errorf("emoji size = %v, want clamp", s.Emoji.Size)
	}
}

func TestBackgroundClick(t *testing.T) {
	s := newScene()
	s.AddOverlay(image.NewRGBA(image.Rect(0, 0, 10, 10)))
	c := NewController(s, nil)

	c.PointerDown(BodyHit(scene.OverlayTarget(0)), geometry.Pt(200, 150))
	c.PointerUp()
	c.PointerDown(BackgroundHit, geometry.Pt(5, 5))
	if !s.Selected().IsNone() {
		t.Errorf("overlay still selected: %v", s.Selected())
	}

	c.PointerDown(BodyHit(scene.EmojiTarget()), geometry.Pt(260, 180))
	c.PointerUp()
	c.PointerDown(BackgroundHit, geometry.Pt(5, 5))
	if s.Selected() != scene.EmojiTarget() {
		t.Errorf("emoji deselected by background click")
	}
}

func TestMissingTargetIgnored(t *testing.T) {
	s := scene.New()
	c := NewController(s, nil)
	if c.PointerDown(BodyHit(scene.TextTarget()), geometry.Pt(0, 0)) {
		t.Error("drag started on empty text layer")
	}
	if c.PointerDown(CornerHit(scene.OverlayTarget(3), geometry.CornerSE), geometry.Pt(0, 0)) {
		t.Error("resize started on missing overlay")
	}
	if c.State().Active() {
		t.Errorf("state = %v, want idle", c.State().Mode)
	}
}

func TestDrawModeRoutesToSink(t *testing.T) {
	s := newScene()
	sink := &fakeSink{}
	c := NewController(s, sink)
	c.SetDrawMode(true)

	if !c.PointerDown(BodyHit(scene.EmojiTarget()), geometry.Pt(260, 180)) {
		t.Fatal("stroke not started")
	}
	c.PointerMove(geometry.Pt(270, 190))
	c.PointerMove(geometry.Pt(280, 200))
	c.PointerUp()

	if sink.begins != 1 || sink.extends != 2 || sink.ends != 1 {
		t.Errorf("sink calls = %+v", sink)
	}
	if s.Emoji.Position != scene.DefaultEmojiPosition {
		t.Error("layer moved while in draw mode")
	}
	if c.Wheel(scene.EmojiTarget(), 1) {
		t.Error("wheel accepted in draw mode")
	}
}

func TestDrawModeSinkNotReady(t *testing.T) {
	sink := &fakeSink{fail: errors.New("not ready")}
	c := NewController(newScene(), sink)
	c.SetDrawMode(true)
	if c.PointerDown(SurfaceHit, geometry.Pt(1, 1)) {
		t.Error("stroke started on unready surface")
	}
	if c.State().Active() {
		t.Error("controller left idle")
	}
}

func TestLeavingDrawModeEndsStroke(t *testing.T) {
	sink := &fakeSink{}
	c := NewController(newScene(), sink)
	c.SetDrawMode(true)
	c.PointerDown(SurfaceHit, geometry.Pt(1, 1))
	c.SetDrawMode(false)
	if sink.ends != 1 {
		t.Errorf("EndStroke calls = %d, want 1", sink.ends)
	}
	if c.State().Active() {
		t.Error("controller still active")
	}
}

func TestReorder(t *testing.T) {
	s := newScene()
	c := NewController(s, nil)
	if !c.BeginReorder(0) {
		t.Fatal("reorder not started")
	}
	c.ReorderOver(2)
	c.PointerUp()
	got := s.Order.Strings()
	want := []string{"emoji", "overlay", "text"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	c.BeginReorder(1)
	c.ReorderOver(9)
	c.PointerUp()
	if s.Order.Strings()[1] != "overlay" {
		t.Errorf("drop outside slots changed order: %v", s.Order.Strings())
	}
}

func TestHitTest(t *testing.T) {
	s := newScene()

	if h := HitTest(s, geometry.Pt(260, 180)); h.Kind != HitBody || h.Target != scene.EmojiTarget() {
		t.Errorf("hit at emoji center = %+v", h)
	}
	// Text and emoji overlap here; emoji is above text in the default order.
	if h := HitTest(s, geometry.Pt(260, 110)); h.Target != scene.EmojiTarget() {
		t.Errorf("overlap hit = %+v, want emoji", h)
	}
	_ = s.Order.Move(0, 2)
	if h := HitTest(s, geometry.Pt(260, 110)); h.Target != scene.TextTarget() {
		t.Errorf("overlap hit after reorder = %+v, want text", h)
	}
	if h := HitTest(s, geometry.Pt(5, 5)); h.Kind != HitBackground {
		t.Errorf("empty hit = %+v", h)
	}

	s.Select(scene.EmojiTarget())
	if h := HitTest(s, geometry.Pt(342, 262)); h.Kind != HitCorner || h.Corner != geometry.CornerSE {
		t.Errorf("corner hit = %+v", h)
	}
	if h := HitTest(s, geometry.Pt(260, 68)); h.Kind != HitRotate {
		t.Errorf("rotate handle hit = %+v", h)
	}
}

func TestHitTestOverlaysTopmostFirst(t *testing.T) {
	s := scene.New()
	s.AddOverlay(image.NewRGBA(image.Rect(0, 0, 100, 100)))
	s.AddOverlay(image.NewRGBA(image.Rect(0, 0, 100, 100)))
	if h := HitTest(s, scene.DefaultOverlayPosition); h.Target != scene.OverlayTarget(1) {
		t.Errorf("hit = %+v, want overlay#1", h)
	}
}
