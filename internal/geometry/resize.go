package geometry

import "github.com/sketchboard/sketchboard/backend-go/internal/document"

// ApplyResize returns the fields that dragging handle h to p changes. The
// caller merges the patch. Unknown handles yield an empty patch.
func ApplyResize(p document.Point, h Handle, e document.Element) document.Patch {
	switch h {
	case HandleTopLeft, HandleStart:
		return document.Patch{X1: document.F(p.X), Y1: document.F(p.Y)}
	case HandleTopRight:
		return document.Patch{Y1: document.F(p.Y), X2: document.F(p.X)}
	case HandleBottomLeft:
		return document.Patch{X1: document.F(p.X), Y2: document.F(p.Y)}
	case HandleBottomRight, HandleEnd:
		return document.Patch{X2: document.F(p.X), Y2: document.F(p.Y)}
	default:
		return document.Patch{}
	}
}
