// Package editor is the interactive editing session behind every front end:
// it owns the scene, the drawing surface and the pointer controller, and turns
// the session into a render request.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/text/unicode/norm"

	"github.com/xob0t/IconStencil/pkg/bgremove"
	"github.com/xob0t/IconStencil/pkg/drawing"
	"github.com/xob0t/IconStencil/pkg/geometry"
	"github.com/xob0t/IconStencil/pkg/logging"
	"github.com/xob0t/IconStencil/pkg/render"
	"github.com/xob0t/IconStencil/pkg/scene"
	"github.com/xob0t/IconStencil/pkg/submission"
	"github.com/xob0t/IconStencil/pkg/transform"
)

// ErrSuperseded is returned by asynchronous operations whose result was
// discarded because a newer request replaced them.
var ErrSuperseded = errors.New("superseded by a newer request")

// Session is one editing session. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	opts    Options
	scene   *scene.Scene
	surface *drawing.Surface
	ctrl    *transform.Controller

	base     image.Image
	baseData []byte
	baseName string
	baseGen  uint64

	displayW, displayH int

	// overlayData holds the encoded upload of each overlay by ID.
	overlayData map[string]string
	// bgSeq is bumped on every background-removal toggle per overlay.
	bgSeq map[string]uint64

	onChange func()
}

// New returns an empty session.
func New(opts Options) *Session {
	surface := drawing.NewSurface(opts.HistoryLimit)
	if err := surface.SetColor(opts.DrawingColor); err != nil {
		logging.Logger().Warn("drawing color rejected, using default", "color", opts.DrawingColor, "err", err)
	}
	surface.SetThickness(opts.DrawingThickness)

	sc := scene.New()
	sc.Text.Position = opts.TextPosition
	sc.Text.FontSize = opts.FontSize
	sc.Text.Color = opts.TextColor
	sc.Emoji.Position = opts.EmojiPosition
	sc.Emoji.Size = opts.EmojiSize

	return &Session{
		opts:        opts,
		scene:       sc,
		surface:     surface,
		ctrl:        transform.NewController(sc, surface),
		overlayData: make(map[string]string),
		bgSeq:       make(map[string]uint64),
	}
}

// OnChange registers fn to run after asynchronous work changes the session.
// fn runs without the session lock held.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Session) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Surface returns the drawing surface.
func (s *Session) Surface() *drawing.Surface { return s.surface }

// View runs fn with the scene while holding the session lock. fn must not
// call back into the session.
func (s *Session) View(fn func(sc *scene.Scene)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.scene)
}

// SetBaseImage installs img as the base image. data is the encoded upload
// sent with render requests; nil marks the backend's default image. The
// drawing surface is cleared. Any pending LoadBaseImage is superseded.
//
// The display keeps its width and takes the new image's aspect ratio, or
// the natural size when none was set. Clients that lay the image out
// differently follow up with SetDisplaySize.
func (s *Session) SetBaseImage(img image.Image, data []byte, name string) {
	s.mu.Lock()
	s.baseGen++
	s.setBaseLocked(img, data, name)
	s.mu.Unlock()
}

func (s *Session) setBaseLocked(img image.Image, data []byte, name string) {
	s.base = img
	s.baseData = data
	s.baseName = name
	b := img.Bounds()
	switch {
	case s.displayW <= 0 || s.displayH <= 0 || b.Dx() <= 0:
		s.displayW, s.displayH = b.Dx(), b.Dy()
	default:
		s.displayH = max(1, int(math.Round(float64(s.displayW*b.Dy())/float64(b.Dx()))))
	}
	s.ctrl.Cancel()
	s.surface.Resize(s.displayW, s.displayH, false)
	s.updateClampLocked()
	logging.Logger().Info("base image set", "name", name,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
}

// LoadBaseImage decodes data in the background and installs it. The
// returned channel yields the outcome once; ErrSuperseded means a later
// base image replaced this one before decoding finished.
func (s *Session) LoadBaseImage(ctx context.Context, data []byte, name string) <-chan error {
	done := make(chan error, 1)
	s.mu.Lock()
	s.baseGen++
	gen := s.baseGen
	s.mu.Unlock()

	go func() {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			done <- fmt.Errorf("decode base image %q: %w", name, err)
			return
		}
		if err := ctx.Err(); err != nil {
			done <- err
			return
		}
		s.mu.Lock()
		if gen != s.baseGen {
			s.mu.Unlock()
			done <- ErrSuperseded
			return
		}
		s.setBaseLocked(img, data, name)
		s.mu.Unlock()
		s.notify()
		done <- nil
	}()
	return done
}

// SetDisplaySize records the on-screen size of the base image. The drawing
// surface follows it, keeping its content and history.
func (s *Session) SetDisplaySize(w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displayW, s.displayH = w, h
	s.ctrl.Cancel()
	s.surface.Resize(w, h, true)
	s.updateClampLocked()
}

// DisplaySize returns the on-screen size of the base image.
func (s *Session) DisplaySize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayW, s.displayH
}

func (s *Session) updateClampLocked() {
	if !s.opts.ClampToCanvas || s.displayW <= 0 || s.displayH <= 0 {
		s.ctrl.SetClamp(nil, 0)
		return
	}
	r := geometry.RectWH(float64(s.displayW), float64(s.displayH))
	s.ctrl.SetClamp(&r, 0)
}

// ImageScale returns natural width over displayed width, the factor that
// maps display coordinates to base-image pixels. It is 1 until both are known.
func (s *Session) ImageScale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imageScaleLocked()
}

func (s *Session) imageScaleLocked() float64 {
	if s.base == nil || s.displayW <= 0 {
		return 1
	}
	return float64(s.base.Bounds().Dx()) / float64(s.displayW)
}

// SetText replaces the text content, normalized to NFC.
func (s *Session) SetText(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene.SetText(norm.NFC.String(content))
}

// SetTextColor sets the text color.
func (s *Session) SetTextColor(hex string) error {
	if _, err := render.ParseHexColor(hex); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene.Text.Color = hex
	return nil
}

// SetFontSize sets the font size, clamped to the text limits.
func (s *Session) SetFontSize(size float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene.Text.FontSize = geometry.Clamp(size, scene.MinFontSize, scene.MaxFontSize)
}

// SelectEmoji places char as the emoji, replacing any previous one.
func (s *Session) SelectEmoji(char string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene.SetEmoji(char)
}

// ClearText removes the text.
func (s *Session) ClearText() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene.ClearText()
}

// ClearEmoji removes the emoji.
func (s *Session) ClearEmoji() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene.ClearEmoji()
}

// ToggleEmojiFlip mirrors the emoji horizontally.
func (s *Session) ToggleEmojiFlip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene.Emoji.FlipHorizontal = !s.scene.Emoji.FlipHorizontal
}

// AddOverlay decodes data and adds it as an overlay. It returns the new
// overlay's ID.
func (s *Session) AddOverlay(data []byte, mime string) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode overlay: %w", err)
	}
	if mime == "" {
		mime = "image/png"
	}
	return s.AddOverlayImage(img, submission.EncodeDataURL(mime, data)), nil
}

// AddOverlayImage adds img as an overlay. dataURL is the upload sent with
// render requests; when empty img is encoded as PNG.
func (s *Session) AddOverlayImage(img image.Image, dataURL string) string {
	if dataURL == "" {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			logging.Logger().Warn("encode overlay", "err", err)
		}
		dataURL = submission.EncodeDataURL("image/png", buf.Bytes())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, o := s.scene.AddOverlay(img)
	if m := s.opts.OverlayInitialMax; m > 0 && m != scene.DefaultOverlayMaxSide {
		o.SetWidth(o.Width * m / math.Max(o.Width, o.Height))
	}
	s.overlayData[o.ID] = dataURL
	return o.ID
}

// RemoveOverlay deletes overlay i. The selection shifts to keep pointing at
// the same overlay.
func (s *Session) RemoveOverlay(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.scene.Overlays.At(i)
	if !ok {
		return fmt.Errorf("remove overlay %d: %w", i, scene.ErrIndexOutOfRange)
	}
	id := o.ID
	s.ctrl.Cancel()
	if err := s.scene.RemoveOverlay(i); err != nil {
		return err
	}
	delete(s.overlayData, id)
	delete(s.bgSeq, id)
	return nil
}

// UpdateOverlay applies a partial update to overlay i.
func (s *Session) UpdateOverlay(i int, p scene.OverlayPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.Overlays.Update(i, p)
}

// SetOverlayRemoveBackground toggles background removal on overlay i.
// Turning it on computes the preview in the background; the returned channel
// yields the outcome once. A result is dropped (ErrSuperseded) if the overlay
// was removed or toggled again meanwhile.
func (s *Session) SetOverlayRemoveBackground(ctx context.Context, i int, on bool) <-chan error {
	done := make(chan error, 1)

	s.mu.Lock()
	o, ok := s.scene.Overlays.At(i)
	if !ok {
		s.mu.Unlock()
		done <- fmt.Errorf("overlay %d: %w", i, scene.ErrIndexOutOfRange)
		return done
	}
	id, src, tol := o.ID, o.Source, s.opts.BackgroundTolerance
	s.bgSeq[id]++
	seq := s.bgSeq[id]
	o.RemoveBackground = on
	if !on {
		o.Display = o.Source
		s.mu.Unlock()
		done <- nil
		return done
	}
	s.mu.Unlock()

	go func() {
		keyed, err := bgremove.Remove(ctx, src, tol)
		if err != nil {
			done <- fmt.Errorf("background removal: %w", err)
			return
		}
		s.mu.Lock()
		j := s.scene.Overlays.IndexOf(id)
		if j < 0 || s.bgSeq[id] != seq {
			s.mu.Unlock()
			done <- ErrSuperseded
			return
		}
		cur, _ := s.scene.Overlays.At(j)
		cur.Display = keyed
		s.mu.Unlock()
		s.notify()
		done <- nil
	}()
	return done
}

// SetDrawMode switches pointer input between layer editing and drawing.
func (s *Session) SetDrawMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.SetDrawMode(on)
	s.surface.SetDrawMode(on)
}

// DrawMode reports whether draw mode is on.
func (s *Session) DrawMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.DrawMode()
}

// SetBrush sets the brush color and thickness.
func (s *Session) SetBrush(hex string, thickness float64) error {
	if err := s.surface.SetColor(hex); err != nil {
		return err
	}
	s.surface.SetThickness(thickness)
	return nil
}

// ClearDrawing blanks the surface as an undoable step.
func (s *Session) ClearDrawing() error {
	s.mu.Lock()
	s.ctrl.Cancel()
	s.mu.Unlock()
	return s.surface.Clear()
}

// Undo steps the drawing back.
func (s *Session) Undo() bool {
	s.mu.Lock()
	s.ctrl.Cancel()
	s.mu.Unlock()
	return s.surface.Undo()
}

// Redo steps the drawing forward.
func (s *Session) Redo() bool {
	s.mu.Lock()
	s.ctrl.Cancel()
	s.mu.Unlock()
	return s.surface.Redo()
}

// MoveLayer moves the layer tag at from to to.
func (s *Session) MoveLayer(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.Order.Move(from, to)
}

// BeginReorder starts a drag of the layer tag at from.
func (s *Session) BeginReorder(from int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.BeginReorder(from)
}

// ReorderOver records the slot the dragged tag is over.
func (s *Session) ReorderOver(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.ReorderOver(i)
}

// Select makes t the only selection.
func (s *Session) Select(t scene.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene.Select(t)
}

// Selected returns the current selection.
func (s *Session) Selected() scene.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.Selected()
}

// PointerDown hit-tests p against the scene and starts the matching gesture.
func (s *Session) PointerDown(p geometry.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.PointerDown(transform.HitTest(s.scene, p), p)
}

// PointerDownHit starts the gesture for a hit the client resolved itself.
func (s *Session) PointerDownHit(h transform.Hit, p geometry.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.PointerDown(h, p)
}

// PointerMove forwards pointer motion to the active gesture.
func (s *Session) PointerMove(p geometry.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.PointerMove(p)
}

// PointerUp ends the active gesture.
func (s *Session) PointerUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.PointerUp()
}

// Wheel resizes the text or emoji under p.
func (s *Session) Wheel(p geometry.Point, deltaY float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := transform.HitTest(s.scene, p)
	if h.Kind != transform.HitBody {
		return false
	}
	return s.ctrl.Wheel(h.Target, deltaY)
}

// WheelTarget resizes t directly.
func (s *Session) WheelTarget(t scene.Target, deltaY float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Wheel(t, deltaY)
}

// CancelGesture abandons the active gesture.
func (s *Session) CancelGesture() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.Cancel()
}
