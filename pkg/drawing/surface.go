// Package drawing implements the freehand drawing surface: a raster sized to
// the displayed base image, round-capped strokes, and snapshot-based
// undo/redo that survives resizes when asked to.
package drawing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"

	"github.com/gogpu/gg"
	"github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"

	"github.com/xob0t/IconStencil/pkg/geometry"
	"github.com/xob0t/IconStencil/pkg/logging"
)

// Brush defaults and limits.
const (
	DefaultColor     = "#ff0000"
	DefaultThickness = 5.0
	MinThickness     = 1.0
	MaxThickness     = 50.0

	// DefaultHistoryLimit keeps every snapshot.
	DefaultHistoryLimit = 0
)

var (
	// ErrNotReady is returned while the surface has zero area.
	ErrNotReady = errors.New("drawing surface not ready")
	// ErrDrawModeOff is returned when a stroke starts outside draw mode.
	ErrDrawModeOff = errors.New("draw mode is off")
	// ErrRestorePending is returned when a stroke or clear starts while an
	// undo or redo is still repainting the surface.
	ErrRestorePending = errors.New("history restore pending")
)

// Surface is the drawing raster and its history. All methods are safe for
// concurrent use.
type Surface struct {
	mu sync.Mutex

	dc      *gg.Context
	width   int
	height  int
	history *History

	drawMode  bool
	color     string
	thickness float64

	stroking bool
	last     geometry.Point
	baseline Snapshot

	generation  uint64
	restoreSeq  uint64
	restoring   bool
	ready       chan struct{}
	readyClosed bool
}

// NewSurface returns an unsized surface with the default brush. historyLimit
// caps the number of snapshots kept (0 keeps all).
func NewSurface(historyLimit int) *Surface {
	return &Surface{
		history:   NewHistory(historyLimit),
		color:     DefaultColor,
		thickness: DefaultThickness,
		ready:     make(chan struct{}),
	}
}

// Ready returns a channel closed once the surface has non-zero area. If the
// surface is later resized to zero, a fresh channel is handed out.
func (s *Surface) Ready() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// WaitReady blocks until the surface is sized or ctx is done.
func (s *Surface) WaitReady(ctx context.Context) error {
	select {
	case <-s.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Size returns the surface dimensions in display pixels.
func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Resize reinitialises the surface at w×h. With preserveHistory the current
// content is scaled onto the new raster and history is kept; otherwise the
// surface starts blank with an empty history. A zero area leaves the surface
// unready.
func (s *Surface) Resize(w, h int, preserveHistory bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logging.Logger()
	pending := s.restoring
	s.stroking = false
	s.restoring = false
	s.generation++

	if w <= 0 || h <= 0 {
		s.dc = nil
		s.width, s.height = 0, 0
		if !preserveHistory {
			s.history.Reset()
		}
		if s.readyClosed {
			s.ready = make(chan struct{})
			s.readyClosed = false
		}
		log.Debug("drawing surface has zero area", "width", w, "height", h)
		return
	}

	var prev image.Image
	// A pending undo or redo has already moved the index; the raster is stale.
	if preserveHistory && s.dc != nil && !pending {
		prev = s.dc.Image()
	}

	if prev != nil {
		s.dc = gg.NewContextForImage(scaleTo(prev, w, h))
	} else {
		s.dc = gg.NewContext(w, h)
		if !preserveHistory {
			s.history.Reset()
		} else if snap, ok := s.history.Current(); ok {
			if img, err := decodeSnapshot(snap); err == nil {
				s.dc = gg.NewContextForImage(scaleTo(img, w, h))
			} else {
				log.Warn("restore snapshot after resize", "err", err)
			}
		}
	}
	s.width, s.height = w, h

	if !s.readyClosed {
		close(s.ready)
		s.readyClosed = true
	}
	log.Info("drawing surface sized", "width", w, "height", h,
		"preserve", preserveHistory, "history", s.history.Len())
}

// SetDrawMode enables or disables stroke input. Turning it off finishes any
// stroke in progress.
func (s *Surface) SetDrawMode(on bool) {
	s.mu.Lock()
	stroking := s.stroking
	s.drawMode = on
	s.mu.Unlock()
	if !on && stroking {
		_ = s.EndStroke()
	}
}

// DrawMode reports whether stroke input is enabled.
func (s *Surface) DrawMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawMode
}

// SetColor sets the brush color for the next stroke.
func (s *Surface) SetColor(hex string) error {
	c, err := colorful.Hex(hex)
	if err != nil {
		return fmt.Errorf("brush color %q: %w", hex, err)
	}
	s.mu.Lock()
	s.color = c.Hex()
	s.mu.Unlock()
	return nil
}

// SetThickness sets the brush width for the next stroke.
func (s *Surface) SetThickness(t float64) {
	s.mu.Lock()
	s.thickness = geometry.Clamp(t, MinThickness, MaxThickness)
	s.mu.Unlock()
}

// Brush returns the current brush color and thickness.
func (s *Surface) Brush() (string, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.color, s.thickness
}

// BeginStroke opens a stroke at p with the current brush.
func (s *Surface) BeginStroke(p geometry.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case !s.drawMode:
		return ErrDrawModeOff
	case s.dc == nil:
		return ErrNotReady
	case s.restoring:
		return ErrRestorePending
	}

	s.baseline = nil
	if s.history.Len() == 0 {
		snap, err := encodeImage(s.dc.Image())
		if err != nil {
			logging.Logger().Warn("capture drawing baseline", "err", err)
		}
		s.baseline = snap
	}

	s.dc.ClearPath()
	s.dc.SetHexColor(s.color)
	s.dc.SetLineWidth(s.thickness)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.SetLineJoin(gg.LineJoinRound)
	s.stroking = true
	s.last = p
	return nil
}

// ExtendStroke draws a segment from the previous point to p.
func (s *Surface) ExtendStroke(p geometry.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stroking || s.dc == nil {
		return nil
	}
	s.dc.MoveTo(s.last.X, s.last.Y)
	s.dc.LineTo(p.X, p.Y)
	err := s.dc.Stroke()
	s.last = p
	if err != nil {
		return fmt.Errorf("stroke segment: %w", err)
	}
	return nil
}

// EndStroke closes the stroke and commits a snapshot. The first stroke of a
// session commits a blank baseline together with the result.
func (s *Surface) EndStroke() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stroking {
		return nil
	}
	s.stroking = false
	if s.dc == nil {
		return nil
	}
	s.dc.ClearPath()

	snap, err := encodeImage(s.dc.Image())
	if err != nil {
		logging.Logger().Warn("snapshot after stroke; history not saved", "err", err)
		return fmt.Errorf("snapshot: %w", err)
	}
	if s.history.Len() == 0 && s.baseline != nil {
		s.history.CommitFirst(s.baseline, snap)
	} else {
		s.history.Commit(snap)
	}
	s.baseline = nil
	logging.Logger().Debug("stroke committed", "index", s.history.Index(), "len", s.history.Len())
	return nil
}

// Stroking reports whether a stroke is open.
func (s *Surface) Stroking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stroking
}

// Clear wipes the surface and commits the blank result, so clearing can be undone.
func (s *Surface) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.dc == nil:
		return ErrNotReady
	case s.restoring:
		return ErrRestorePending
	}
	s.stroking = false
	s.dc.Clear()
	snap, err := encodeImage(s.dc.Image())
	if err != nil {
		logging.Logger().Warn("snapshot after clear; history not saved", "err", err)
		return fmt.Errorf("snapshot: %w", err)
	}
	s.history.Commit(snap)
	return nil
}

// Undo steps back one snapshot and repaints. It reports whether anything changed.
func (s *Surface) Undo() bool {
	return s.restore((*History).Undo)
}

// Redo steps forward one snapshot and repaints. It reports whether anything changed.
func (s *Surface) Redo() bool {
	return s.restore((*History).Redo)
}

// restore moves the history index and repaints from the new snapshot. The
// snapshot is decoded without holding the lock; strokes are rejected until
// the repaint lands. A repaint is dropped if the surface was reinitialised or
// a later restore superseded it meanwhile.
func (s *Surface) restore(step func(*History) (Snapshot, bool)) bool {
	s.mu.Lock()
	if s.dc == nil || s.stroking {
		s.mu.Unlock()
		return false
	}
	snap, ok := step(s.history)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.restoreSeq++
	seq, gen := s.restoreSeq, s.generation
	s.restoring = true
	s.mu.Unlock()

	img, err := decodeSnapshot(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.restoreSeq || gen != s.generation || s.dc == nil {
		return true
	}
	s.restoring = false
	if err != nil {
		logging.Logger().Warn("decode history snapshot", "err", err)
		return true
	}
	s.dc = gg.NewContextForImage(scaleTo(img, s.width, s.height))
	return true
}

// CanUndo reports whether Undo would change anything.
func (s *Surface) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (s *Surface) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// HistoryState returns the history length and current index.
func (s *Surface) HistoryState() (length, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len(), s.history.Index()
}

// HasDrawing reports whether at least one stroke has been committed.
func (s *Surface) HasDrawing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len() > 1
}

// Image returns a copy of the surface content, or nil when unsized.
func (s *Surface) Image() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil {
		return nil
	}
	return s.dc.Image()
}

// EncodePNG writes the surface content as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil {
		return ErrNotReady
	}
	return s.dc.EncodePNG(w)
}

func encodeImage(img image.Image) (Snapshot, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var decodeSnapshot = func(s Snapshot) (image.Image, error) {
	return png.Decode(bytes.NewReader(s))
}

// scaleTo returns img resampled to w×h. Images already at that size are returned as is.
func scaleTo(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
