package transform

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/xob0t/IconStencil/pkg/geometry"
	"github.com/xob0t/IconStencil/pkg/scene"
)

// Handle geometry used by HitTest.
const (
	HandleRadius         = 10.0
	RotateHandleDistance = 30.0
)

var handleCorners = []geometry.Corner{geometry.CornerNW, geometry.CornerNE, geometry.CornerSW, geometry.CornerSE}

// HitTest finds what lies under p for front ends without their own hit
// regions. Handles of the selected layer win, then layer bodies from the
// top of the z-order down. Anything else is background.
func HitTest(s *scene.Scene, p geometry.Point) Hit {
	if sel := s.Selected(); !sel.IsNone() {
		if f, ok := s.Frame(sel); ok {
			if near(f.RotateHandle(RotateHandleDistance), p) {
				return RotateHit(sel)
			}
			for _, c := range handleCorners {
				if near(f.Corner(c), p) {
					return CornerHit(sel, c)
				}
			}
		}
	}

	layers := s.Order.Layers()
	for i := len(layers) - 1; i >= 0; i-- {
		for _, t := range targetsOf(s, layers[i]) {
			if f, ok := s.Frame(t); ok && f.Contains(p, 0) {
				return BodyHit(t)
			}
		}
	}
	return BackgroundHit
}

// targetsOf lists the existing targets in layer l, topmost first.
func targetsOf(s *scene.Scene, l scene.Layer) []scene.Target {
	switch l {
	case scene.LayerText:
		if s.HasText() {
			return []scene.Target{scene.TextTarget()}
		}
	case scene.LayerEmoji:
		if s.HasEmoji() {
			return []scene.Target{scene.EmojiTarget()}
		}
	case scene.LayerOverlay:
		n := s.Overlays.Len()
		out := make([]scene.Target, 0, n)
		for i := n - 1; i >= 0; i-- {
			out = append(out, scene.OverlayTarget(i))
		}
		return out
	}
	return nil
}

func near(a, b geometry.Point) bool {
	return r2.Norm(r2.Sub(a, b)) <= HandleRadius
}
