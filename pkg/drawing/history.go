package drawing

// Snapshot is a PNG-encoded capture of the whole drawing surface.
type Snapshot []byte

// History is a linear undo/redo list of snapshots with a current index.
// While non-empty, 0 <= Index() < Len(). Every mutation updates the list and
// the index together.
type History struct {
	snaps []Snapshot
	index int
	limit int
}

// NewHistory returns an empty history. A positive limit caps the number of
// snapshots kept; the oldest strokes are discarded first, but the blank
// baseline at index 0 is always kept.
func NewHistory(limit int) *History {
	return &History{index: -1, limit: limit}
}

// Len returns the number of snapshots.
func (h *History) Len() int { return len(h.snaps) }

// Index returns the current position, or -1 when empty.
func (h *History) Index() int { return h.index }

// CanUndo reports whether Undo would move the index.
func (h *History) CanUndo() bool { return h.index > 0 }

// CanRedo reports whether Redo would move the index.
func (h *History) CanRedo() bool { return h.index >= 0 && h.index < len(h.snaps)-1 }

// Commit discards any redoable snapshots after the current index, appends s
// and makes it current.
func (h *History) Commit(s Snapshot) {
	h.snaps = append(h.snaps[:h.index+1], s)
	h.index = len(h.snaps) - 1
	h.trim()
}

// CommitFirst records the first stroke of a session: the blank baseline and
// the stroked result are appended together so the stroke can be undone.
// On a non-empty history it behaves like Commit(s).
func (h *History) CommitFirst(baseline, s Snapshot) {
	if len(h.snaps) == 0 {
		h.snaps = append(h.snaps, baseline)
		h.index = 0
	}
	h.Commit(s)
}

func (h *History) trim() {
	limit := max(h.limit, 2)
	if h.limit <= 0 || len(h.snaps) <= limit {
		return
	}
	drop := len(h.snaps) - limit
	h.snaps = append(h.snaps[:1], h.snaps[1+drop:]...)
	h.index -= drop
	if h.index < 0 {
		h.index = 0
	}
}

// Undo steps back one snapshot and returns the new current one.
func (h *History) Undo() (Snapshot, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.index--
	return h.snaps[h.index], true
}

// Redo steps forward one snapshot and returns the new current one.
func (h *History) Redo() (Snapshot, bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.index++
	return h.snaps[h.index], true
}

// Current returns the snapshot at the current index.
func (h *History) Current() (Snapshot, bool) {
	if h.index < 0 {
		return nil, false
	}
	return h.snaps[h.index], true
}

// Reset empties the history.
func (h *History) Reset() {
	h.snaps = nil
	h.index = -1
}
