// order.go - Layer z-order. The base image is always at the bottom and the
// freehand drawing always on top; only text, emoji and overlays are reorderable.
package scene

import (
	"errors"
	"fmt"
)

// Layer is a layer-type tag.
type Layer string

const (
	LayerBase    Layer = "base"
	LayerText    Layer = "text"
	LayerEmoji   Layer = "emoji"
	LayerOverlay Layer = "overlay"
	LayerDrawing Layer = "drawing"
)

// Z-index constants. Reorderable layers sit at LayerZBase + index.
const (
	BaseZ      = 0
	LayerZBase = 10
	DrawingZ   = 1000
)

var (
	ErrInvalidOrder    = errors.New("invalid layer order")
	ErrIndexOutOfRange = errors.New("index out of range")
	reorderableLayers  = [3]Layer{LayerText, LayerEmoji, LayerOverlay}
)

// Order is a permutation of the reorderable layer tags.
type Order struct {
	layers [3]Layer
}

// DefaultOrder returns [text, emoji, overlay].
func DefaultOrder() Order {
	return Order{layers: reorderableLayers}
}

// ParseOrder builds an Order from tag names. The input must name text, emoji
// and overlay exactly once each. On error the default order is returned along
// with the error so callers can degrade gracefully.
func ParseOrder(tags []string) (Order, error) {
	if len(tags) != len(reorderableLayers) {
		return DefaultOrder(), fmt.Errorf("%w: want 3 tags, got %d", ErrInvalidOrder, len(tags))
	}
	var o Order
	seen := make(map[Layer]bool, 3)
	for i, tag := range tags {
		l := Layer(tag)
		if !isReorderable(l) {
			return DefaultOrder(), fmt.Errorf("%w: unknown tag %q", ErrInvalidOrder, tag)
		}
		if seen[l] {
			return DefaultOrder(), fmt.Errorf("%w: duplicate tag %q", ErrInvalidOrder, tag)
		}
		seen[l] = true
		o.layers[i] = l
	}
	return o, nil
}

func isReorderable(l Layer) bool {
	for _, r := range reorderableLayers {
		if r == l {
			return true
		}
	}
	return false
}

// Layers returns the tags bottom to top.
func (o Order) Layers() []Layer {
	out := make([]Layer, len(o.layers))
	copy(out, o.layers[:])
	return out
}

// Strings returns the tags as strings, bottom to top.
func (o Order) Strings() []string {
	out := make([]string, len(o.layers))
	for i, l := range o.layers {
		out[i] = string(l)
	}
	return out
}

// IndexOf returns the position of l, or -1 if l is not reorderable.
func (o Order) IndexOf(l Layer) int {
	for i, x := range o.layers {
		if x == l {
			return i
		}
	}
	return -1
}

// Move removes the tag at from and inserts it at to.
func (o *Order) Move(from, to int) error {
	n := len(o.layers)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("move %d -> %d: %w", from, to, ErrIndexOutOfRange)
	}
	if from == to {
		return nil
	}
	tag := o.layers[from]
	rest := make([]Layer, 0, n)
	for i, l := range o.layers {
		if i != from {
			rest = append(rest, l)
		}
	}
	out := make([]Layer, 0, n)
	out = append(out, rest[:to]...)
	out = append(out, tag)
	out = append(out, rest[to:]...)
	copy(o.layers[:], out)
	return nil
}

// ZIndex returns the stacking index of l. The base image and drawing have
// fixed indices below and above every reorderable layer.
func (o Order) ZIndex(l Layer) int {
	switch l {
	case LayerBase:
		return BaseZ
	case LayerDrawing:
		return DrawingZ
	}
	if i := o.IndexOf(l); i >= 0 {
		return LayerZBase + i
	}
	return BaseZ
}

// Stack returns every layer bottom to top, including base and drawing.
func (o Order) Stack() []Layer {
	out := make([]Layer, 0, len(o.layers)+2)
	out = append(out, LayerBase)
	out = append(out, o.layers[:]...)
	return append(out, LayerDrawing)
}
