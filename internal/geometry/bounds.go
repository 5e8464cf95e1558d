// Package geometry holds the pure per-element functions the editor is built
// on: bounds, normalization, hit testing, resize handles and cursors.
//
// Functions dispatch exhaustively over document.Kind. An unrecognised kind is
// a programming error and panics with *document.UnknownKindError.
package geometry

import "github.com/sketchboard/sketchboard/backend-go/internal/document"

// Bounds is an axis-aligned box in editor space, always in min/max form.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Contains reports whether p lies inside or on the edge of b.
func (b Bounds) Contains(p document.Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Union returns the smallest box containing both boxes. Zero-area boxes
// still count: a horizontal line has no height but occupies space.
func (b Bounds) Union(other Bounds) Bounds {
	return Bounds{
		MinX: min(b.MinX, other.MinX),
		MinY: min(b.MinY, other.MinY),
		MaxX: max(b.MaxX, other.MaxX),
		MaxY: max(b.MaxY, other.MaxY),
	}
}

// Expand grows the box by margin on every side.
func (b Bounds) Expand(margin float64) Bounds {
	return Bounds{MinX: b.MinX - margin, MinY: b.MinY - margin, MaxX: b.MaxX + margin, MaxY: b.MaxY + margin}
}

// Center returns the center point of the box.
func (b Bounds) Center() document.Point {
	return document.Point{X: b.MinX + b.Width()/2, Y: b.MinY + b.Height()/2}
}

func boundsOfAnchors(e document.Element) Bounds {
	return Bounds{
		MinX: min(e.X1, e.X2),
		MinY: min(e.Y1, e.Y2),
		MaxX: max(e.X1, e.X2),
		MaxY: max(e.Y1, e.Y2),
	}
}

// PointsBounds folds over a point cloud. It reports false for an empty cloud.
func PointsBounds(points []document.Point) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b := Bounds{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		b.MinX = min(b.MinX, p.X)
		b.MinY = min(b.MinY, p.Y)
		b.MaxX = max(b.MaxX, p.X)
		b.MaxY = max(b.MaxY, p.Y)
	}
	return b, true
}

// EffectiveBounds returns the element's box. For freehand strokes the box is
// always recomputed from the points; the cached anchors are not trusted.
func EffectiveBounds(e document.Element) Bounds {
	switch e.Kind {
	case document.KindRectangle, document.KindEllipse, document.KindLine, document.KindArrow, document.KindText:
		return boundsOfAnchors(e)
	case document.KindFreehand:
		if b, ok := PointsBounds(e.Points); ok {
			return b
		}
		return boundsOfAnchors(e)
	default:
		panic(&document.UnknownKindError{Kind: e.Kind, Op: "effective bounds"})
	}
}

// BoundsOf returns the union of the effective bounds of every element. It
// reports false for an empty list.
func BoundsOf(elements []document.Element) (Bounds, bool) {
	if len(elements) == 0 {
		return Bounds{}, false
	}
	b := EffectiveBounds(elements[0])
	for _, e := range elements[1:] {
		b = b.Union(EffectiveBounds(e))
	}
	return b, true
}

// Normalize rewrites rectangle and ellipse anchors into min/max form and is
// the identity for every other kind.
func Normalize(e document.Element) document.Element {
	switch e.Kind {
	case document.KindRectangle, document.KindEllipse:
		b := boundsOfAnchors(e)
		e.X1, e.Y1, e.X2, e.Y2 = b.MinX, b.MinY, b.MaxX, b.MaxY
		return e
	case document.KindLine, document.KindArrow, document.KindFreehand, document.KindText:
		return e
	default:
		panic(&document.UnknownKindError{Kind: e.Kind, Op: "normalize"})
	}
}

// SyncBounds makes a freehand stroke's anchors equal the bounds of its
// points. Other kinds are returned unchanged.
func SyncBounds(e document.Element) document.Element {
	if e.Kind != document.KindFreehand {
		return e
	}
	if b, ok := PointsBounds(e.Points); ok {
		e.X1, e.Y1, e.X2, e.Y2 = b.MinX, b.MinY, b.MaxX, b.MaxY
	}
	return e
}

// Translate moves an element by (dx, dy). Freehand points are copied into a
// fresh slice so earlier snapshots keep their own points.
func Translate(e document.Element, dx, dy float64) document.Element {
	switch e.Kind {
	case document.KindRectangle, document.KindEllipse, document.KindLine, document.KindArrow, document.KindText:
		e.X1 += dx
		e.Y1 += dy
		e.X2 += dx
		e.Y2 += dy
		return e
	case document.KindFreehand:
		moved := make([]document.Point, len(e.Points))
		for i, p := range e.Points {
			moved[i] = document.Point{X: p.X + dx, Y: p.Y + dy}
		}
		e.Points = moved
		if len(moved) == 0 {
			e.X1 += dx
			e.Y1 += dy
			e.X2 += dx
			e.Y2 += dy
			return e
		}
		return SyncBounds(e)
	default:
		panic(&document.UnknownKindError{Kind: e.Kind, Op: "translate"})
	}
}

// Canonicalize validates an inbound element list and returns a copy in stored
// form: boxes normalized and freehand anchors synced to their points.
func Canonicalize(elements []document.Element) ([]document.Element, error) {
	if err := document.ValidateElements(elements); err != nil {
		return nil, err
	}
	out := make([]document.Element, len(elements))
	for i, e := range elements {
		out[i] = SyncBounds(Normalize(e))
	}
	return out, nil
}
