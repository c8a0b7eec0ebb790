// Package scene holds the editable composition: the text, emoji and overlay
// layers, their z-order, and which one is selected.
//
// A Scene is not safe for concurrent use; callers serialize access.
package scene

import (
	"image"

	"github.com/xob0t/IconStencil/pkg/geometry"
)

// Scene is the set of transformable layers over a base image.
type Scene struct {
	Text     *Text
	Emoji    *Emoji
	Overlays Overlays
	Order    Order

	selected Target
}

// New returns an empty scene with default placements and layer order.
func New() *Scene {
	return &Scene{
		Text:     NewText(""),
		Emoji:    NewEmoji(""),
		Order:    DefaultOrder(),
		selected: NoTarget,
	}
}

// HasText reports whether the text layer has content.
func (s *Scene) HasText() bool { return s.Text.Content != "" }

// HasEmoji reports whether an emoji is placed.
func (s *Scene) HasEmoji() bool { return s.Emoji.Char != "" }

// HasContent reports whether anything would be rendered over the base image.
// drawn reports whether the drawing surface holds committed strokes.
func (s *Scene) HasContent(drawn bool) bool {
	return s.HasText() || s.HasEmoji() || drawn || s.Overlays.Len() > 0
}

// Selected returns the current selection.
func (s *Scene) Selected() Target { return s.selected }

// Select makes t the only selected layer. Selecting a target that does not
// exist clears the selection.
func (s *Scene) Select(t Target) {
	if !s.Exists(t) {
		s.selected = NoTarget
		return
	}
	s.selected = t
}

// ClickBackground handles a click on empty canvas. It clears an overlay
// selection; a selected text or emoji stays selected.
func (s *Scene) ClickBackground() {
	if s.selected.Kind == KindOverlay {
		s.selected = NoTarget
	}
}

// SetText replaces the text content. Position, size and color persist.
func (s *Scene) SetText(content string) {
	s.Text.Content = content
	if content == "" && s.selected.Kind == KindText {
		s.selected = NoTarget
	}
}

// SetEmoji places char as the emoji, replacing any previous one. The text
// layer is untouched.
func (s *Scene) SetEmoji(char string) {
	s.Emoji.Char = char
	if char == "" && s.selected.Kind == KindEmoji {
		s.selected = NoTarget
	}
}

// ClearText removes the text content.
func (s *Scene) ClearText() { s.SetText("") }

// ClearEmoji removes the emoji.
func (s *Scene) ClearEmoji() { s.SetEmoji("") }

// AddOverlay adds src as a new overlay and returns its index.
func (s *Scene) AddOverlay(src image.Image) (int, *Overlay) {
	o := s.Overlays.Add(src)
	return s.Overlays.Len() - 1, o
}

// RemoveOverlay deletes overlay i and shifts the selection so it keeps
// pointing at the same overlay. Removing the selected overlay clears it.
func (s *Scene) RemoveOverlay(i int) error {
	if err := s.Overlays.Remove(i); err != nil {
		return err
	}
	if s.selected.Kind != KindOverlay {
		return nil
	}
	switch {
	case s.selected.Index == i:
		s.selected = NoTarget
	case s.selected.Index > i:
		s.selected.Index--
	}
	return nil
}

// Exists reports whether t names a layer that currently has content.
func (s *Scene) Exists(t Target) bool {
	switch t.Kind {
	case KindText:
		return s.HasText()
	case KindEmoji:
		return s.HasEmoji()
	case KindOverlay:
		_, ok := s.Overlays.At(t.Index)
		return ok
	}
	return false
}

// Center returns the center anchor of t.
func (s *Scene) Center(t Target) (geometry.Point, bool) {
	switch t.Kind {
	case KindText:
		return s.Text.Position, true
	case KindEmoji:
		return s.Emoji.Position, true
	case KindOverlay:
		if o, ok := s.Overlays.At(t.Index); ok {
			return o.Position, true
		}
	}
	return geometry.Point{}, false
}

// SetCenter moves t so its center is at p.
func (s *Scene) SetCenter(t Target, p geometry.Point) {
	switch t.Kind {
	case KindText:
		s.Text.Position = p
	case KindEmoji:
		s.Emoji.Position = p
	case KindOverlay:
		if o, ok := s.Overlays.At(t.Index); ok {
			o.Position = p
		}
	}
}

// Rotation returns the rotation of t in degrees.
func (s *Scene) Rotation(t Target) float64 {
	switch t.Kind {
	case KindText:
		return s.Text.Rotation
	case KindEmoji:
		return s.Emoji.Rotation
	case KindOverlay:
		if o, ok := s.Overlays.At(t.Index); ok {
			return o.Rotation
		}
	}
	return 0
}

// SetRotation sets the rotation of t, normalized into (-180, 180].
func (s *Scene) SetRotation(t Target, deg float64) {
	deg = geometry.NormalizeAngle(deg)
	switch t.Kind {
	case KindText:
		s.Text.Rotation = deg
	case KindEmoji:
		s.Emoji.Rotation = deg
	case KindOverlay:
		if o, ok := s.Overlays.At(t.Index); ok {
			o.Rotation = deg
		}
	}
}

// Bounds returns the unrotated size of t.
func (s *Scene) Bounds(t Target) (geometry.Size, bool) {
	switch t.Kind {
	case KindText:
		return s.Text.Bounds(), true
	case KindEmoji:
		return s.Emoji.Bounds(), true
	case KindOverlay:
		if o, ok := s.Overlays.At(t.Index); ok {
			return o.Bounds(), true
		}
	}
	return geometry.Size{}, false
}

// Frame returns the rotated rectangle occupied by t.
func (s *Scene) Frame(t Target) (geometry.RotatedRect, bool) {
	c, ok := s.Center(t)
	if !ok {
		return geometry.RotatedRect{}, false
	}
	size, _ := s.Bounds(t)
	return geometry.RotatedRect{Center: c, Size: size, Rotation: s.Rotation(t)}, true
}

// LayerOf returns the layer tag t belongs to.
func LayerOf(t Target) Layer {
	switch t.Kind {
	case KindText:
		return LayerText
	case KindEmoji:
		return LayerEmoji
	case KindOverlay:
		return LayerOverlay
	}
	return LayerBase
}
