//go:build js && wasm

// IconStencil WASM - In-browser editing session.
// Compiled with: GOOS=js GOARCH=wasm go build -o iconstencil.wasm ./clients/wasm/
//
// The page keeps only DOM state; every edit goes through one editor.Session
// and the page redraws from goState().
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"syscall/js"
	"time"

	"github.com/disintegration/imaging"

	"github.com/xob0t/IconStencil/pkg/editor"
	"github.com/xob0t/IconStencil/pkg/geometry"
	"github.com/xob0t/IconStencil/pkg/logging"
	"github.com/xob0t/IconStencil/pkg/render"
	"github.com/xob0t/IconStencil/pkg/scene"
	"github.com/xob0t/IconStencil/pkg/transform"
)

var (
	session  = editor.New(editor.DefaultOptions())
	renderer *render.Renderer
)

func main() {
	logging.SetLogger(slog.New(slog.NewTextHandler(consoleWriter{}, nil)))

	r, err := render.NewRenderer(render.Options{
		Emoji: render.NewHTTPSource(render.DefaultEmojiURL, http.DefaultClient),
	})
	if err != nil {
		fmt.Println("IconStencil WASM: renderer:", err)
	}
	renderer = r

	session.OnChange(func() {
		if cb := js.Global().Get("onIconStencilChange"); cb.Type() == js.TypeFunction {
			cb.Invoke()
		}
	})

	funcs := map[string]func(js.Value, []js.Value) any{
		"goSetBaseImage":               setBaseImage,
		"goSetDisplaySize":             setDisplaySize,
		"goPointerDown":                pointerDown,
		"goPointerDownHit":             pointerDownHit,
		"goPointerMove":                pointerMove,
		"goPointerUp":                  pointerUp,
		"goWheel":                      wheel,
		"goSelect":                     selectTarget,
		"goUndo":                       undo,
		"goRedo":                       redo,
		"goClearDrawing":               clearDrawing,
		"goSetDrawMode":                setDrawMode,
		"goSetBrush":                   setBrush,
		"goSetText":                    setText,
		"goSetTextColor":               setTextColor,
		"goSelectEmoji":                selectEmoji,
		"goClearEmoji":                 clearEmoji,
		"goToggleEmojiFlip":            toggleEmojiFlip,
		"goAddOverlay":                 addOverlay,
		"goRemoveOverlay":              removeOverlay,
		"goUpdateOverlay":              updateOverlay,
		"goSetOverlayRemoveBackground": setOverlayRemoveBackground,
		"goMoveLayer":                  moveLayer,
		"goBeginReorder":               beginReorder,
		"goReorderOver":                reorderOver,
		"goWheelTarget":                wheelTarget,
		"goCancelGesture":              cancelGesture,
		"goState":                      state,
		"goSubmission":                 submissionBody,
		"goPreview":                    preview,
	}
	for name, fn := range funcs {
		js.Global().Set(name, js.FuncOf(fn))
	}
	js.Global().Set("goReady", js.ValueOf(true))
	fmt.Println("IconStencil WASM loaded")

	select {}
}

// consoleWriter sends log lines to the browser console.
type consoleWriter struct{}

func (consoleWriter) Write(p []byte) (int, error) {
	js.Global().Get("console").Call("log", string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

func errValue(err error) any {
	return js.ValueOf("error: " + err.Error())
}

func point(args []js.Value, i int) geometry.Point {
	return geometry.Pt(args[i].Float(), args[i+1].Float())
}

func decodeB64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return data, nil
}

// target maps ("text"|"emoji"|"overlay", index) to a scene target.
func target(kind string, index int) scene.Target {
	switch kind {
	case "text":
		return scene.TextTarget()
	case "emoji":
		return scene.EmojiTarget()
	case "overlay":
		return scene.OverlayTarget(index)
	default:
		return scene.NoTarget
	}
}

// goSetBaseImage(base64Data, name) - decode and install the base image.
// Returns a Promise that settles once the image is installed.
func setBaseImage(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("error: need base64Data, name")
	}
	data, err := decodeB64(args[0].String())
	if err != nil {
		return errValue(err)
	}
	done := session.LoadBaseImage(context.Background(), data, args[1].String())
	return promise(func() (any, error) {
		if err := <-done; err != nil {
			return nil, err
		}
		return "ok", nil
	})
}

// goSetDisplaySize(width, height) - the rendered size of the base image element.
func setDisplaySize(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("error: need width, height")
	}
	session.SetDisplaySize(args[0].Int(), args[1].Int())
	return js.ValueOf("ok")
}

// goPointerDown(x, y) - hit-test and start a gesture.
func pointerDown(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(session.PointerDown(point(args, 0)))
}

// goPointerDownHit(hit, kind, index, corner, x, y) - start a gesture on an
// element the page hit-tested itself. hit is body, corner, rotate,
// background or surface.
func pointerDownHit(this js.Value, args []js.Value) any {
	if len(args) < 6 {
		return js.ValueOf(false)
	}
	t := target(args[1].String(), args[2].Int())
	var h transform.Hit
	switch args[0].String() {
	case "body":
		h = transform.BodyHit(t)
	case "corner":
		h = transform.CornerHit(t, geometry.ParseCorner(args[3].String()))
	case "rotate":
		h = transform.RotateHit(t)
	case "surface":
		h = transform.SurfaceHit
	default:
		h = transform.BackgroundHit
	}
	return js.ValueOf(session.PointerDownHit(h, point(args, 4)))
}

// goPointerMove(x, y)
func pointerMove(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(session.PointerMove(point(args, 0)))
}

// goPointerUp()
func pointerUp(this js.Value, args []js.Value) any {
	return js.ValueOf(session.PointerUp())
}

// goWheel(x, y, deltaY)
func wheel(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return js.ValueOf(false)
	}
	return js.ValueOf(session.Wheel(point(args, 0), args[2].Float()))
}

// goWheelTarget(kind, index, deltaY) - wheel over an element the page
// hit-tested itself.
func wheelTarget(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return js.ValueOf(false)
	}
	return js.ValueOf(session.WheelTarget(target(args[0].String(), args[1].Int()), args[2].Float()))
}

// goCancelGesture() - pointercancel or Escape.
func cancelGesture(this js.Value, args []js.Value) any {
	session.CancelGesture()
	return js.ValueOf("ok")
}

// goSelect(kind, index)
func selectTarget(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("error: need kind, index")
	}
	session.Select(target(args[0].String(), args[1].Int()))
	return js.ValueOf("ok")
}

func undo(this js.Value, args []js.Value) any { return js.ValueOf(session.Undo()) }

func redo(this js.Value, args []js.Value) any { return js.ValueOf(session.Redo()) }

func clearDrawing(this js.Value, args []js.Value) any {
	if err := session.ClearDrawing(); err != nil {
		return errValue(err)
	}
	return js.ValueOf("ok")
}

// readyTimeout bounds how long enabling draw mode waits for the base image
// to be laid out.
const readyTimeout = 5 * time.Second

// goSetDrawMode(on) - returns a Promise. Turning draw mode on waits until
// the drawing surface has been sized by goSetDisplaySize.
func setDrawMode(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need on")
	}
	on := args[0].Bool()
	return promise(func() (any, error) {
		if on {
			ctx, cancel := context.WithTimeout(context.Background(), readyTimeout)
			defer cancel()
			if err := session.Surface().WaitReady(ctx); err != nil {
				return nil, fmt.Errorf("drawing surface not ready: %w", err)
			}
		}
		session.SetDrawMode(on)
		return "ok", nil
	})
}

// goSetBrush(color, thickness)
func setBrush(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("error: need color, thickness")
	}
	if err := session.SetBrush(args[0].String(), args[1].Float()); err != nil {
		return errValue(err)
	}
	return js.ValueOf("ok")
}

// goSetText(content)
func setText(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need content")
	}
	session.SetText(args[0].String())
	return js.ValueOf("ok")
}

// goSetTextColor(hex)
func setTextColor(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need color")
	}
	if err := session.SetTextColor(args[0].String()); err != nil {
		return errValue(err)
	}
	return js.ValueOf("ok")
}

// goSelectEmoji(char)
func selectEmoji(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need char")
	}
	session.SelectEmoji(args[0].String())
	return js.ValueOf("ok")
}

func clearEmoji(this js.Value, args []js.Value) any {
	session.ClearEmoji()
	return js.ValueOf("ok")
}

func toggleEmojiFlip(this js.Value, args []js.Value) any {
	session.ToggleEmojiFlip()
	return js.ValueOf("ok")
}

// goAddOverlay(base64Data, mime) - returns the new overlay id.
func addOverlay(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("error: need base64Data, mime")
	}
	data, err := decodeB64(args[0].String())
	if err != nil {
		return errValue(err)
	}
	id, err := session.AddOverlay(data, args[1].String())
	if err != nil {
		return errValue(err)
	}
	return js.ValueOf(id)
}

// goRemoveOverlay(index)
func removeOverlay(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need index")
	}
	if err := session.RemoveOverlay(args[0].Int()); err != nil {
		return errValue(err)
	}
	return js.ValueOf("ok")
}

type overlayPatch struct {
	X              *float64 `json:"x"`
	Y              *float64 `json:"y"`
	Width          *float64 `json:"width"`
	Opacity        *float64 `json:"opacity"`
	Rotation       *float64 `json:"rotation"`
	FlipHorizontal *bool    `json:"flipHorizontal"`
}

// goUpdateOverlay(index, patchJSON) - partial update; x and y must come together.
func updateOverlay(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("error: need index, patchJSON")
	}
	var p overlayPatch
	if err := json.Unmarshal([]byte(args[1].String()), &p); err != nil {
		return errValue(err)
	}
	patch := scene.OverlayPatch{
		Width:          p.Width,
		Opacity:        p.Opacity,
		Rotation:       p.Rotation,
		FlipHorizontal: p.FlipHorizontal,
	}
	if p.X != nil && p.Y != nil {
		pos := geometry.Pt(*p.X, *p.Y)
		patch.Position = &pos
	}
	if err := session.UpdateOverlay(args[0].Int(), patch); err != nil {
		return errValue(err)
	}
	return js.ValueOf("ok")
}

// goSetOverlayRemoveBackground(index, on) - the preview is computed in the
// background; onIconStencilChange fires when it lands.
func setOverlayRemoveBackground(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("error: need index, on")
	}
	done := session.SetOverlayRemoveBackground(context.Background(), args[0].Int(), args[1].Bool())
	go func() {
		if err := <-done; err != nil {
			logging.Logger().Warn("background removal", "err", err)
		}
	}()
	return js.ValueOf("ok")
}

// goMoveLayer(from, to)
func moveLayer(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("error: need from, to")
	}
	if err := session.MoveLayer(args[0].Int(), args[1].Int()); err != nil {
		return errValue(err)
	}
	return js.ValueOf("ok")
}

// goBeginReorder(from) - start dragging a layer tag; goPointerUp drops it.
func beginReorder(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(session.BeginReorder(args[0].Int()))
}

// goReorderOver(index) - the slot under the dragged tag, or -1 outside the list.
func reorderOver(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need index")
	}
	session.ReorderOver(args[0].Int())
	return js.ValueOf("ok")
}

// goState() - session snapshot as JSON.
func state(this js.Value, args []js.Value) any {
	data, err := json.Marshal(session.State())
	if err != nil {
		return errValue(err)
	}
	return js.ValueOf(string(data))
}

// goSubmission() - JSON {contentType, body} where body is the base64
// multipart request for POST /generate.
func submissionBody(this js.Value, args []js.Value) any {
	sub, err := session.Submission()
	if err != nil {
		return errValue(err)
	}
	body, contentType, err := sub.Encode()
	if err != nil {
		return errValue(err)
	}
	out, _ := json.Marshal(map[string]string{
		"contentType": contentType,
		"body":        base64.StdEncoding.EncodeToString(body),
	})
	return js.ValueOf(string(out))
}

// goPreview() - render the session at display size. Returns a Promise of a
// base64 PNG; emoji artwork may be fetched, which needs the event loop.
func preview(this js.Value, args []js.Value) any {
	return promise(func() (any, error) {
		if renderer == nil {
			return nil, fmt.Errorf("renderer unavailable")
		}
		img, err := session.Preview(context.Background(), renderer)
		if err != nil {
			return nil, err
		}
		return encodePNG(img), nil
	})
}

// promise runs fn on a goroutine and settles a JS Promise with its result.
func promise(fn func() (any, error)) js.Value {
	var handler js.Func
	handler = js.FuncOf(func(this js.Value, args []js.Value) any {
		resolve, reject := args[0], args[1]
		go func() {
			defer handler.Release()
			v, err := fn()
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(v)
		}()
		return nil
	})
	return js.Global().Get("Promise").New(handler)
}

func encodePNG(img image.Image) string {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
