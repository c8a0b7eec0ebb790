package desktop

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/xob0t/IconStencil/pkg/editor"
	"github.com/xob0t/IconStencil/pkg/logging"
	"github.com/xob0t/IconStencil/pkg/output"
	"github.com/xob0t/IconStencil/pkg/render"
)

// MaxDisplaySide bounds the on-screen size of the base image.
const MaxDisplaySide = 520

// Options configures the editor window.
type Options struct {
	Editor editor.Options
	// BackendURL is the generate endpoint. When empty icons are rendered
	// locally and written to Store.
	BackendURL string
	Store      *output.Store
	Base       image.Image
}

// Editor is the main window.
type Editor struct {
	win     fyne.Window
	session *editor.Session
	canvas  *Canvas
	opts    Options

	layers  *widget.List
	history *widget.Label
}

// NewEditor builds the editor window on a.
func NewEditor(a fyne.App, r *render.Renderer, opts Options) *Editor {
	e := &Editor{
		win:     a.NewWindow("IconStencil"),
		session: editor.New(opts.Editor),
		opts:    opts,
	}
	e.canvas = NewCanvas(e.session, r)
	e.canvas.OnChange = e.refreshControls
	if opts.Base != nil {
		e.setBase(opts.Base, nil, "")
	}

	e.win.SetContent(container.NewBorder(e.toolbar(), nil, nil, e.sidebar(),
		container.NewCenter(e.canvas)))
	e.win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			e.canvas.Cancel()
		}
	})
	e.win.Resize(fyne.NewSize(900, 640))
	return e
}

// ShowAndRun shows the window and runs the app loop.
func (e *Editor) ShowAndRun() { e.win.ShowAndRun() }

func (e *Editor) setBase(img image.Image, data []byte, name string) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if m := max(w, h); m > MaxDisplaySide {
		w, h = w*MaxDisplaySide/m, h*MaxDisplaySide/m
	}
	e.session.SetBaseImage(img, data, name)
	e.session.SetDisplaySize(w, h)
	e.canvas.Refresh()
	e.canvas.Redraw()
}

func (e *Editor) toolbar() fyne.CanvasObject {
	open := widget.NewButton("Base image…", func() { e.openImage(e.loadBase) })

	text := widget.NewEntry()
	text.SetPlaceHolder("Text")
	text.OnChanged = func(s string) {
		e.session.SetText(s)
		e.canvas.Redraw()
	}

	color := widget.NewEntry()
	color.SetText(e.opts.Editor.TextColor)
	color.OnSubmitted = func(s string) {
		if err := e.session.SetTextColor(s); err != nil {
			dialog.ShowError(err, e.win)
			return
		}
		e.canvas.Redraw()
	}

	emoji := widget.NewEntry()
	emoji.SetPlaceHolder("Emoji")
	emoji.OnChanged = func(s string) {
		if s == "" {
			e.session.ClearEmoji()
		} else {
			e.session.SelectEmoji(s)
		}
		e.canvas.Redraw()
	}
	flip := widget.NewButton("Flip", func() {
		e.session.ToggleEmojiFlip()
		e.canvas.Redraw()
	})

	overlay := widget.NewButton("Overlay…", func() { e.openImage(e.addOverlay) })
	generate := widget.NewButton("Generate", e.generate)
	generate.Importance = widget.HighImportance

	return container.NewHBox(open, text, color, emoji, flip, overlay, generate)
}

func (e *Editor) sidebar() fyne.CanvasObject {
	draw := widget.NewCheck("Draw", func(on bool) {
		e.session.SetDrawMode(on)
		e.canvas.Redraw()
	})
	brush := widget.NewEntry()
	brush.SetText(e.opts.Editor.DrawingColor)
	thickness := widget.NewSlider(1, 50)
	thickness.SetValue(e.opts.Editor.DrawingThickness)
	applyBrush := func() {
		if err := e.session.SetBrush(brush.Text, thickness.Value); err != nil {
			dialog.ShowError(err, e.win)
		}
	}
	brush.OnSubmitted = func(string) { applyBrush() }
	thickness.OnChanged = func(float64) { applyBrush() }

	undo := widget.NewButton("Undo", func() {
		e.session.Undo()
		e.refreshControls()
		e.canvas.Redraw()
	})
	redo := widget.NewButton("Redo", func() {
		e.session.Redo()
		e.refreshControls()
		e.canvas.Redraw()
	})
	clearBtn := widget.NewButton("Clear", func() {
		if err := e.session.ClearDrawing(); err != nil {
			logging.Logger().Debug("clear drawing", "err", err)
		}
		e.refreshControls()
		e.canvas.Redraw()
	})
	e.history = widget.NewLabel("")

	e.layers = widget.NewList(
		func() int { return len(e.session.State().LayerOrder) },
		func() fyne.CanvasObject { return newLayerRow(e.session, e.layersChanged) },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			o.(*layerRow).bind(id, e.session.State().LayerOrder)
		},
	)

	e.refreshControls()
	return container.NewBorder(
		container.NewVBox(draw, brush, thickness, container.NewHBox(undo, redo, clearBtn), e.history,
			widget.NewLabel("Layers (top last)")),
		nil, nil, nil, e.layers)
}

func (e *Editor) layersChanged() {
	e.layers.Refresh()
	e.canvas.Redraw()
}

func (e *Editor) refreshControls() {
	if e.history == nil {
		return
	}
	st := e.session.State()
	e.history.SetText(fmt.Sprintf("undo %v · redo %v", st.CanUndo, st.CanRedo))
}

func (e *Editor) openImage(then func(data []byte, name string)) {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			dialog.ShowError(err, e.win)
			return
		}
		then(data, rc.URI().Name())
	}, e.win)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}))
	d.Show()
}

func (e *Editor) loadBase(data []byte, name string) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		dialog.ShowError(fmt.Errorf("decode %s: %w", name, err), e.win)
		return
	}
	e.setBase(img, data, name)
}

func (e *Editor) addOverlay(data []byte, name string) {
	if _, err := e.session.AddOverlay(data, http.DetectContentType(data)); err != nil {
		dialog.ShowError(err, e.win)
		return
	}
	e.canvas.Redraw()
}

func (e *Editor) generate() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	go func() {
		defer cancel()
		msg, err := e.produce(ctx)
		if err != nil {
			dialog.ShowError(err, e.win)
			return
		}
		dialog.ShowInformation("Icon generated", msg, e.win)
	}()
}

// produce posts to the backend, or renders locally when none is set.
func (e *Editor) produce(ctx context.Context) (string, error) {
	if e.opts.BackendURL != "" {
		resp, err := e.session.Submit(ctx, nil, e.opts.BackendURL)
		if err != nil {
			return "", err
		}
		return resp.OutputPath, nil
	}

	sub, err := e.session.Submission()
	if err != nil {
		return "", err
	}
	assets, warnings, err := sub.Decode()
	if err != nil {
		return "", err
	}
	for _, w := range warnings {
		logging.Logger().Warn("submission", "msg", w)
	}
	img, err := e.canvas.renderer.Render(ctx, assets)
	if err != nil {
		return "", err
	}
	_, path, err := e.opts.Store.Save(img)
	return path, err
}
