package engine

import (
	"errors"
	"fmt"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
)

var ErrUnknownTool = errors.New("unknown tool")

// Tool is the active toolbar tool. Every drawing tool shares its name with
// the element kind it creates.
type Tool string

const (
	ToolSelection Tool = "SELECTION"
	ToolRectangle Tool = Tool(document.KindRectangle)
	ToolEllipse   Tool = Tool(document.KindEllipse)
	ToolLine      Tool = Tool(document.KindLine)
	ToolArrow     Tool = Tool(document.KindArrow)
	ToolPencil    Tool = Tool(document.KindFreehand)
	ToolText      Tool = Tool(document.KindText)
)

// ParseTool validates a tool name received from a client.
func ParseTool(name string) (Tool, error) {
	t := Tool(name)
	if t == ToolSelection || document.Kind(t).Valid() {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
}

// Kind returns the element kind a drawing tool creates. It reports false for
// the selection tool.
func (t Tool) Kind() (document.Kind, bool) {
	k := document.Kind(t)
	return k, k.Valid()
}
