package engine

import (
	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/geometry"
)

const (
	MinZoom       = 0.1
	MaxZoom       = 20.0
	WheelZoomStep = 0.99
	DefaultViewW  = 1280
	DefaultViewH  = 720
)

// Viewport is the pan/zoom state of the canvas. Pan is in editor units; the
// zoom scales around the center of the visible area.
type Viewport struct {
	PanX   float64 `json:"panX"`
	PanY   float64 `json:"panY"`
	Zoom   float64 `json:"zoom"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewViewport returns an unpanned, unzoomed viewport of the given size.
func NewViewport(width, height float64) Viewport {
	return Viewport{Zoom: 1, Width: width, Height: height}
}

// Matrix maps editor space to screen space:
// screen = (editor + pan) * zoom - ((W*zoom - W)/2, (H*zoom - H)/2).
func (v Viewport) Matrix() Matrix2D {
	offX := (v.Width*v.Zoom - v.Width) / 2
	offY := (v.Height*v.Zoom - v.Height) / 2
	return Translate(v.PanX*v.Zoom-offX, v.PanY*v.Zoom-offY).Multiply(Scale(v.Zoom, v.Zoom))
}

// EditorToScreen converts an editor-space point to screen pixels.
func (v Viewport) EditorToScreen(p document.Point) document.Point {
	x, y := v.Matrix().TransformPoint(p.X, p.Y)
	return document.Point{X: x, Y: y}
}

// ScreenToEditor converts a pointer position to editor space.
func (v Viewport) ScreenToEditor(p document.Point) document.Point {
	x, y := v.Matrix().Invert().TransformPoint(p.X, p.Y)
	return document.Point{X: x, Y: y}
}

// Visible returns the editor-space box currently on screen.
func (v Viewport) Visible() geometry.Bounds {
	return v.Matrix().Invert().TransformBounds(geometry.Bounds{MaxX: v.Width, MaxY: v.Height})
}

// PanBy shifts the view by (dx, dy) editor units.
func (v Viewport) PanBy(dx, dy float64) Viewport {
	v.PanX += dx
	v.PanY += dy
	return v
}

// SetZoom sets the zoom factor, clamped to [MinZoom, MaxZoom].
func (v Viewport) SetZoom(zoom float64) Viewport {
	v.Zoom = min(max(zoom, MinZoom), MaxZoom)
	return v
}

// Wheel applies one wheel notch: a negative deltaY zooms in.
func (v Viewport) Wheel(deltaY float64) Viewport {
	if deltaY < 0 {
		return v.SetZoom(v.Zoom / WheelZoomStep)
	}
	return v.SetZoom(v.Zoom * WheelZoomStep)
}

// Resize updates the size of the visible area.
func (v Viewport) Resize(width, height float64) Viewport {
	v.Width = width
	v.Height = height
	return v
}
