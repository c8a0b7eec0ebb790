package desktop

import (
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/xob0t/IconStencil/pkg/editor"
)

// layerRow is one entry of the layer list. Dragging it vertically moves the
// layer to the row it is released over; the arrow buttons move it one slot.
type layerRow struct {
	widget.BaseWidget

	session *editor.Session
	index   int
	label   *widget.Label
	up      *widget.Button
	down    *widget.Button

	dragging bool
	onChange func()
}

func newLayerRow(s *editor.Session, onChange func()) *layerRow {
	r := &layerRow{
		session:  s,
		label:    widget.NewLabel("layer"),
		onChange: onChange,
	}
	r.up = widget.NewButton("▲", func() { r.move(r.index + 1) })
	r.down = widget.NewButton("▼", func() { r.move(r.index - 1) })
	r.ExtendBaseWidget(r)
	return r
}

// bind points the row at layer i of order.
func (r *layerRow) bind(i int, order []string) {
	r.index = i
	r.label.SetText(order[i])
}

func (r *layerRow) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewHBox(r.label, r.up, r.down))
}

func (r *layerRow) move(to int) {
	if err := r.session.MoveLayer(r.index, to); err != nil {
		return
	}
	r.changed()
}

// Dragged implements fyne.Draggable. The slot under the pointer is counted
// in row heights from this row.
func (r *layerRow) Dragged(ev *fyne.DragEvent) {
	if !r.dragging {
		if !r.session.BeginReorder(r.index) {
			return
		}
		r.dragging = true
	}
	h := r.Size().Height
	if h <= 0 {
		return
	}
	r.session.ReorderOver(r.index + int(math.Floor(float64(ev.Position.Y/h))))
}

// DragEnd implements fyne.Draggable.
func (r *layerRow) DragEnd() {
	if !r.dragging {
		return
	}
	r.dragging = false
	if r.session.PointerUp() {
		r.changed()
	}
}

func (r *layerRow) changed() {
	if r.onChange != nil {
		r.onChange()
	}
}
