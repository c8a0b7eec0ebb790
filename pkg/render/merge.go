// merge.go - Merge a submission's layers into z-ordered draw steps.
package render

import (
	"sort"

	"github.com/xob0t/IconStencil/pkg/scene"
	"github.com/xob0t/IconStencil/pkg/submission"
)

// Step is one layer to draw. Index is the overlay index for overlay steps
// and -1 otherwise.
type Step struct {
	Layer scene.Layer
	Index int
	Z     int
}

// MergeLayers returns the draw steps for a in ascending z-order. Layers with
// no content are skipped. Overlays keep their list order within the overlay
// layer and the drawing always comes last.
func MergeLayers(a *submission.Assets, order scene.Order) []Step {
	var steps []Step

	if a.Text != nil && a.Text.Content != "" {
		steps = append(steps, Step{Layer: scene.LayerText, Index: -1, Z: order.ZIndex(scene.LayerText)})
	}
	if a.Emoji != nil && (a.Emoji.Char != "" || a.Emoji.Code != "") {
		steps = append(steps, Step{Layer: scene.LayerEmoji, Index: -1, Z: order.ZIndex(scene.LayerEmoji)})
	}
	z := order.ZIndex(scene.LayerOverlay)
	for i := range a.Overlays {
		if i < len(a.OverlayImages) && a.OverlayImages[i] != nil {
			steps = append(steps, Step{Layer: scene.LayerOverlay, Index: i, Z: z})
		}
	}
	if a.Drawing != nil {
		steps = append(steps, Step{Layer: scene.LayerDrawing, Index: -1, Z: scene.DrawingZ})
	}

	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Z < steps[j].Z })
	return steps
}
