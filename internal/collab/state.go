package collab

import (
	"slices"
	"sync"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/geometry"
)

// BoardState holds the authoritative element list of a room. Every accepted
// update replaces the whole list (last write wins) and bumps the sequence.
type BoardState struct {
	mu       sync.RWMutex
	elements []document.Element
	seq      int64
	savedSeq int64
}

// NewBoardState wraps elements loaded from the store. The state starts clean.
func NewBoardState(elements []document.Element) *BoardState {
	if elements == nil {
		elements = []document.Element{}
	}
	return &BoardState{elements: elements}
}

// Snapshot returns a copy of the element list and its sequence number.
func (bs *BoardState) Snapshot() ([]document.Element, int64) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return slices.Clone(bs.elements), bs.seq
}

// Replace validates elements and installs them as the new content. The
// stored form is returned along with the new sequence number.
func (bs *BoardState) Replace(elements []document.Element) ([]document.Element, int64, error) {
	stored, err := geometry.Canonicalize(elements)
	if err != nil {
		return nil, 0, err
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.elements = stored
	bs.seq++
	return slices.Clone(stored), bs.seq, nil
}

// Reset installs content that is already persisted, leaving the state clean.
func (bs *BoardState) Reset(elements []document.Element) int64 {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.elements = slices.Clone(elements)
	bs.seq++
	bs.savedSeq = bs.seq
	return bs.seq
}

// Dirty reports whether the state holds updates the store has not seen.
func (bs *BoardState) Dirty() bool {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.seq != bs.savedSeq
}

// MarkSaved records that the content at seq reached the store. A later
// update keeps the state dirty.
func (bs *BoardState) MarkSaved(seq int64) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if seq > bs.savedSeq {
		bs.savedSeq = seq
	}
}
