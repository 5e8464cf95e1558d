package geometry

import (
	"math"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
)

// Handle names the part of an element under a point.
type Handle string

const (
	HandleNone        Handle = ""
	HandleTopLeft     Handle = "tl"
	HandleTopRight    Handle = "tr"
	HandleBottomLeft  Handle = "bl"
	HandleBottomRight Handle = "br"
	HandleStart       Handle = "start"
	HandleEnd         Handle = "end"
	HandleInside      Handle = "inside"
)

// IsResize reports whether h is a corner or endpoint handle.
func (h Handle) IsResize() bool {
	switch h {
	case HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight, HandleStart, HandleEnd:
		return true
	}
	return false
}

// Tolerances are in editor units, compared before zoom is applied.
const (
	HandleTolerance   = 5.0
	SegmentTolerance  = 1.0
	FreehandTolerance = 5.0
)

func near(p, target document.Point) bool {
	return math.Abs(p.X-target.X) < HandleTolerance && math.Abs(p.Y-target.Y) < HandleTolerance
}

func distance(a, b document.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// onSegment is the triangle-inequality slack test: p is accepted when the
// detour a->p->b is less than eps longer than a->b. Near-colinear points just
// past an endpoint can pass as well.
func onSegment(a, b, p document.Point, eps float64) bool {
	return math.Abs(distance(a, b)-(distance(a, p)+distance(b, p))) < eps
}

// HitTest returns the handle of e under p, HandleInside for a body hit, or
// HandleNone. Corner and endpoint handles take priority over body hits.
func HitTest(p document.Point, e document.Element) Handle {
	switch e.Kind {
	case document.KindRectangle, document.KindEllipse:
		b := EffectiveBounds(e)
		switch {
		case near(p, document.Point{X: b.MinX, Y: b.MinY}):
			return HandleTopLeft
		case near(p, document.Point{X: b.MaxX, Y: b.MinY}):
			return HandleTopRight
		case near(p, document.Point{X: b.MinX, Y: b.MaxY}):
			return HandleBottomLeft
		case near(p, document.Point{X: b.MaxX, Y: b.MaxY}):
			return HandleBottomRight
		case b.Contains(p):
			return HandleInside
		}
		return HandleNone

	case document.KindLine, document.KindArrow:
		start := document.Point{X: e.X1, Y: e.Y1}
		end := document.Point{X: e.X2, Y: e.Y2}
		switch {
		case near(p, start):
			return HandleStart
		case near(p, end):
			return HandleEnd
		case onSegment(start, end, p, SegmentTolerance):
			return HandleInside
		}
		return HandleNone

	case document.KindFreehand:
		for i := 1; i < len(e.Points); i++ {
			if onSegment(e.Points[i-1], e.Points[i], p, FreehandTolerance) {
				return HandleInside
			}
		}
		return HandleNone

	case document.KindText:
		if EffectiveBounds(e).Contains(p) {
			return HandleInside
		}
		return HandleNone

	default:
		panic(&document.UnknownKindError{Kind: e.Kind, Op: "hit test"})
	}
}

// ElementAtPosition scans elements from last to first and returns the index
// of the first one hit, with its handle. The index is -1 when nothing is hit.
func ElementAtPosition(p document.Point, elements []document.Element) (int, Handle) {
	for i := len(elements) - 1; i >= 0; i-- {
		if h := HitTest(p, elements[i]); h != HandleNone {
			return i, h
		}
	}
	return -1, HandleNone
}
