package geometry

// Cursor is a CSS cursor token shown while hovering.
type Cursor string

const (
	CursorDefault    Cursor = "default"
	CursorMove       Cursor = "move"
	CursorPointer    Cursor = "pointer"
	CursorResizeNWSE Cursor = "nwse-resize"
	CursorResizeNESW Cursor = "nesw-resize"
)

// CursorForHandle maps a handle to its hover cursor.
func CursorForHandle(h Handle) Cursor {
	switch h {
	case HandleTopLeft, HandleBottomRight:
		return CursorResizeNWSE
	case HandleTopRight, HandleBottomLeft:
		return CursorResizeNESW
	case HandleStart, HandleEnd:
		return CursorPointer
	default:
		return CursorMove
	}
}
