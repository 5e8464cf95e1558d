// Package history is an undo/redo log over immutable snapshots.
//
// Continuous edits (pointer moves during a drag) are committed with coalesce
// set. They replace a single pending snapshot on top of the cursor instead of
// growing the log, so a whole gesture becomes one step once the closing
// discrete commit lands. Undo from the middle of a gesture drops the pending
// snapshot and returns to the state before the gesture.
//
// History does no locking. Callers that share one across goroutines guard it
// together with whatever owns the snapshots.
package history

// History is a cursor into a never-empty sequence of snapshots.
type History[T any] struct {
	seq        []T
	cursor     int
	pending    T
	hasPending bool
	limit      int
}

// New starts a history whose only entry is initial.
func New[T any](initial T) *History[T] {
	return &History[T]{seq: []T{initial}}
}

// SetLimit caps the number of committed snapshots kept. Older entries are
// dropped first, but never the current one. Zero or less means unbounded.
func (h *History[T]) SetLimit(limit int) {
	h.limit = limit
	h.prune()
}

// Commit records a new snapshot. A discrete commit truncates any redo branch,
// appends s and advances the cursor. A coalesced commit only replaces the
// pending snapshot.
func (h *History[T]) Commit(s T, coalesce bool) {
	if coalesce {
		h.pending = s
		h.hasPending = true
		return
	}
	h.clearPending()
	h.seq = append(h.seq[:h.cursor+1:h.cursor+1], s)
	h.cursor++
	h.prune()
}

// Current returns the pending snapshot if a gesture is in progress, else the
// snapshot at the cursor.
func (h *History[T]) Current() T {
	if h.hasPending {
		return h.pending
	}
	return h.seq[h.cursor]
}

// Undo moves the cursor back one entry. It saturates at the first entry.
func (h *History[T]) Undo() bool {
	h.clearPending()
	if h.cursor == 0 {
		return false
	}
	h.cursor--
	return true
}

// Redo moves the cursor forward one entry. It saturates at the last entry.
func (h *History[T]) Redo() bool {
	h.clearPending()
	if h.cursor == len(h.seq)-1 {
		return false
	}
	h.cursor++
	return true
}

// CanUndo reports whether Undo would move the cursor.
func (h *History[T]) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether Redo would move the cursor.
func (h *History[T]) CanRedo() bool { return h.cursor < len(h.seq)-1 }

// Len is the number of committed snapshots.
func (h *History[T]) Len() int { return len(h.seq) }

// Cursor is the index of the current committed snapshot.
func (h *History[T]) Cursor() int { return h.cursor }

// Pending reports whether a coalesced snapshot is waiting for its closing
// discrete commit.
func (h *History[T]) Pending() bool { return h.hasPending }

// Discard drops the pending snapshot, if any, and reports whether there was
// one.
func (h *History[T]) Discard() bool {
	had := h.hasPending
	h.clearPending()
	return had
}

// Reset throws the log away and starts again from s.
func (h *History[T]) Reset(s T) {
	h.clearPending()
	h.seq = []T{s}
	h.cursor = 0
}

func (h *History[T]) clearPending() {
	var zero T
	h.pending = zero
	h.hasPending = false
}

func (h *History[T]) prune() {
	if h.limit <= 0 || len(h.seq) <= h.limit {
		return
	}
	// Never drop the snapshot under the cursor. After undos the log may stay
	// over the limit until the next commit truncates the redo branch.
	drop := min(len(h.seq)-h.limit, h.cursor)
	if drop == 0 {
		return
	}
	h.seq = append([]T(nil), h.seq[drop:]...)
	h.cursor -= drop
}
