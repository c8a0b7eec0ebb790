package editor

import (
	"github.com/xob0t/IconStencil/pkg/geometry"
	"github.com/xob0t/IconStencil/pkg/scene"
)

// LayerState is the render-relevant state of one positioned layer in
// display space.
type LayerState struct {
	ID       string  `json:"id,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	Flip     bool    `json:"flip,omitempty"`
	Opacity  float64 `json:"opacity,omitempty"`
	// Content is the text or emoji character.
	Content  string  `json:"content,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Color    string  `json:"color,omitempty"`

	RemoveBackground bool `json:"removeBackground,omitempty"`
}

// State is a snapshot of the session for front ends that redraw from data.
type State struct {
	DisplayWidth  int     `json:"displayWidth"`
	DisplayHeight int     `json:"displayHeight"`
	ImageScale    float64 `json:"imageScale"`

	Text     *LayerState  `json:"text,omitempty"`
	Emoji    *LayerState  `json:"emoji,omitempty"`
	Overlays []LayerState `json:"overlays"`

	LayerOrder []string       `json:"layerOrder"`
	ZIndex     map[string]int `json:"zIndex"`
	Selected   string         `json:"selected"`
	Mode       string         `json:"mode"`
	DrawMode   bool           `json:"drawMode"`

	CanUndo        bool    `json:"canUndo"`
	CanRedo        bool    `json:"canRedo"`
	BrushColor     string  `json:"brushColor"`
	BrushThickness float64 `json:"brushThickness"`
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	brush, thickness := s.surface.Brush()
	st := State{
		CanUndo:        s.surface.CanUndo(),
		CanRedo:        s.surface.CanRedo(),
		BrushColor:     brush,
		BrushThickness: thickness,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st.DisplayWidth, st.DisplayHeight = s.displayW, s.displayH
	st.ImageScale = s.imageScaleLocked()
	st.LayerOrder = s.scene.Order.Strings()
	st.ZIndex = make(map[string]int, len(st.LayerOrder)+2)
	for _, l := range s.scene.Order.Stack() {
		st.ZIndex[string(l)] = s.scene.Order.ZIndex(l)
	}
	st.Selected = s.scene.Selected().String()
	st.Mode = s.ctrl.State().Mode.String()
	st.DrawMode = s.ctrl.DrawMode()

	if s.scene.HasText() {
		t := s.scene.Text
		b := t.Bounds()
		st.Text = &LayerState{
			X: t.Position.X, Y: t.Position.Y, Width: b.Width, Height: b.Height,
			Rotation: t.Rotation, Content: t.Content, FontSize: t.FontSize, Color: t.Color,
		}
	}
	if s.scene.HasEmoji() {
		e := s.scene.Emoji
		st.Emoji = &LayerState{
			X: e.Position.X, Y: e.Position.Y, Width: e.Size, Height: e.Size,
			Rotation: e.Rotation, Flip: e.FlipHorizontal, Content: e.Char,
		}
	}
	st.Overlays = make([]LayerState, 0, s.scene.Overlays.Len())
	for _, o := range s.scene.Overlays.All() {
		st.Overlays = append(st.Overlays, LayerState{
			ID: o.ID, X: o.Position.X, Y: o.Position.Y, Width: o.Width, Height: o.Height,
			Rotation: o.Rotation, Flip: o.FlipHorizontal, Opacity: o.Opacity,
			RemoveBackground: o.RemoveBackground,
		})
	}
	return st
}

// Frame returns the selection frame of t in display space.
func (s *Session) Frame(t scene.Target) (geometry.RotatedRect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.Frame(t)
}
