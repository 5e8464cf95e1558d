package engine

import (
	"slices"
	"sync"
	"time"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/geometry"
)

// Collection is the ordered element list of a board. It is used as an
// immutable value: every mutation returns a new Collection and leaves the
// receiver untouched, so history snapshots can share it freely.
type Collection []document.Element

// Index returns the position of the element with the given id, or -1.
func (c Collection) Index(id int64) int {
	return slices.IndexFunc(c, func(e document.Element) bool { return e.ID == id })
}

// Get looks up an element by id.
func (c Collection) Get(id int64) (document.Element, bool) {
	i := c.Index(id)
	if i < 0 {
		return document.Element{}, false
	}
	return c[i], true
}

// Add appends e, on top of every existing element.
func (c Collection) Add(e document.Element) Collection {
	out := make(Collection, len(c), len(c)+1)
	copy(out, c)
	return append(out, e)
}

// Replace swaps in e for the element with the same id. An unknown id leaves
// the collection unchanged.
func (c Collection) Replace(e document.Element) Collection {
	i := c.Index(e.ID)
	if i < 0 {
		return c
	}
	out := slices.Clone(c)
	out[i] = e
	return out
}

// Update merges patch into the element with the given id. Freehand bounds
// are recomputed after the merge. An unknown id leaves the collection
// unchanged.
func (c Collection) Update(id int64, patch document.Patch) Collection {
	e, ok := c.Get(id)
	if !ok {
		return c
	}
	return c.Replace(geometry.SyncBounds(patch.Apply(e)))
}

// Remove drops the element with the given id.
func (c Collection) Remove(id int64) Collection {
	i := c.Index(id)
	if i < 0 {
		return c
	}
	out := make(Collection, 0, len(c)-1)
	out = append(out, c[:i]...)
	return append(out, c[i+1:]...)
}

// Clear returns an empty collection.
func (c Collection) Clear() Collection {
	return Collection{}
}

// Elements returns the collection as a plain slice for serialization. Freehand
// anchors are refreshed from their points on the way out.
func (c Collection) Elements() []document.Element {
	out := make([]document.Element, len(c))
	for i, e := range c {
		out[i] = geometry.SyncBounds(e)
	}
	return out
}

// NewElement builds a degenerate element of the given kind at p: both anchors
// sit on the click point.
func NewElement(kind document.Kind, id int64, p document.Point) (document.Element, error) {
	e := document.Element{ID: id, Kind: kind, X1: p.X, Y1: p.Y, X2: p.X, Y2: p.Y}
	switch kind {
	case document.KindRectangle, document.KindEllipse, document.KindLine, document.KindArrow:
	case document.KindFreehand:
		e.Points = []document.Point{p}
	case document.KindText:
		e.FontSize = document.DefaultFontSize
	default:
		return document.Element{}, &document.UnknownKindError{Kind: kind, Op: "create element"}
	}
	return e, nil
}

// IDSource hands out element ids.
type IDSource interface {
	NextID() int64
}

// ClockIDs issues millisecond timestamps, bumped past the last id handed out
// so two elements created in the same millisecond stay distinct.
type ClockIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewClockIDs returns an id source backed by the wall clock.
func NewClockIDs() *ClockIDs {
	return &ClockIDs{now: time.Now}
}

// Observe makes sure later ids are larger than id. Call it for every element
// of a loaded board.
func (c *ClockIDs) Observe(id int64) {
	c.mu.Lock()
	c.last = max(c.last, id)
	c.mu.Unlock()
}

func (c *ClockIDs) NextID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.now().UnixMilli()
	if id <= c.last {
		id = c.last + 1
	}
	c.last = id
	return id
}
