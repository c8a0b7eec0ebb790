package scene

import "fmt"

// TargetKind discriminates Target.
type TargetKind int

const (
	KindNone TargetKind = iota
	KindText
	KindEmoji
	KindOverlay
)

// Target names one transformable layer. Index is only meaningful for overlays.
type Target struct {
	Kind  TargetKind
	Index int
}

// NoTarget is the empty selection.
var NoTarget = Target{Kind: KindNone, Index: -1}

// TextTarget returns the target for the text layer.
func TextTarget() Target { return Target{Kind: KindText, Index: -1} }

// EmojiTarget returns the target for the emoji layer.
func EmojiTarget() Target { return Target{Kind: KindEmoji, Index: -1} }

// OverlayTarget returns the target for overlay i.
func OverlayTarget(i int) Target { return Target{Kind: KindOverlay, Index: i} }

// IsNone reports whether t is the empty target.
func (t Target) IsNone() bool { return t.Kind == KindNone }

func (t Target) String() string {
	switch t.Kind {
	case KindText:
		return "text"
	case KindEmoji:
		return "emoji"
	case KindOverlay:
		return fmt.Sprintf("overlay#%d", t.Index)
	default:
		return "none"
	}
}
