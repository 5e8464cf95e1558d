package engine

import (
	"encoding/json"
	"math"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/geometry"
)

// Draw ops understood by the browser canvas and by the render package.
const (
	OpRectangle = "rectangle"
	OpEllipse   = "ellipse"
	OpLine      = "line"
	OpArrow     = "arrow"
	OpPath      = "path"
	OpText      = "text"
	OpSelection = "selection"
)

const (
	ArrowHeadLength  = 20.0
	ArrowHeadAngle   = math.Pi / 6
	SelectionMargin  = 4.0
	SelectionColor   = "#0d89ec"
	InkColor         = "#000000"
	DefaultLineWidth = 1.0
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// Commands are emitted in painter's order. Seed is the element id, so a
// sketchy renderer jitters the same way on every redraw.
type DrawCommand struct {
	Op          string           `json:"op"`
	ElementID   int64            `json:"elementId,omitempty"`
	Seed        int64            `json:"seed,omitempty"`
	X           float64          `json:"x"`
	Y           float64          `json:"y"`
	Width       float64          `json:"width,omitempty"`
	Height      float64          `json:"height,omitempty"`
	Points      []document.Point `json:"points,omitempty"` // polyline for line, arrow shaft and path
	Head        []document.Point `json:"head,omitempty"`   // arrow head: left barb, tip, right barb
	Text        string           `json:"text,omitempty"`
	FontSize    float64          `json:"fontSize,omitempty"`
	Stroke      string           `json:"stroke,omitempty"`
	StrokeWidth float64          `json:"strokeWidth,omitempty"`
}

// CompileDrawCommands turns an element list into draw commands, adding the
// selection overlay after the selected element. Unknown kinds are an error.
func CompileDrawCommands(elements []document.Element, selectedID int64) ([]DrawCommand, error) {
	commands := make([]DrawCommand, 0, len(elements)+1)
	for _, e := range elements {
		cmd, err := compileElement(e)
		if err != nil {
			return nil, err
		}
		if cmd.Op != "" {
			commands = append(commands, cmd)
		}
		if selectedID != 0 && e.ID == selectedID {
			commands = append(commands, selectionCommand(e))
		}
	}
	return commands, nil
}

func compileElement(e document.Element) (DrawCommand, error) {
	cmd := DrawCommand{
		ElementID:   e.ID,
		Seed:        e.ID,
		Stroke:      InkColor,
		StrokeWidth: DefaultLineWidth,
	}

	switch e.Kind {
	case document.KindRectangle, document.KindEllipse:
		b := geometry.EffectiveBounds(e)
		cmd.Op = OpRectangle
		if e.Kind == document.KindEllipse {
			cmd.Op = OpEllipse
		}
		cmd.X, cmd.Y = b.MinX, b.MinY
		cmd.Width, cmd.Height = b.Width(), b.Height()

	case document.KindLine:
		cmd.Op = OpLine
		cmd.X, cmd.Y = e.X1, e.Y1
		cmd.Points = []document.Point{{X: e.X1, Y: e.Y1}, {X: e.X2, Y: e.Y2}}

	case document.KindArrow:
		cmd.Op = OpArrow
		cmd.X, cmd.Y = e.X1, e.Y1
		cmd.Points = []document.Point{{X: e.X1, Y: e.Y1}, {X: e.X2, Y: e.Y2}}
		cmd.Head = ArrowHead(e.X1, e.Y1, e.X2, e.Y2)

	case document.KindFreehand:
		if len(e.Points) == 0 {
			return DrawCommand{}, nil
		}
		cmd.Op = OpPath
		cmd.X, cmd.Y = e.Points[0].X, e.Points[0].Y
		cmd.Points = e.Points

	case document.KindText:
		if e.Text == "" {
			return DrawCommand{}, nil
		}
		cmd.Op = OpText
		cmd.X, cmd.Y = e.X1, e.Y1
		cmd.Text = e.Text
		cmd.FontSize = e.FontSize
		cmd.StrokeWidth = 0

	default:
		return DrawCommand{}, &document.UnknownKindError{Kind: e.Kind, Op: "compile draw command"}
	}
	return cmd, nil
}

// ArrowHead returns the two barbs and tip of an arrow from (x1,y1) to
// (x2,y2), ordered left barb, tip, right barb.
func ArrowHead(x1, y1, x2, y2 float64) []document.Point {
	angle := math.Atan2(y2-y1, x2-x1)
	return []document.Point{
		{X: x2 - ArrowHeadLength*math.Cos(angle-ArrowHeadAngle), Y: y2 - ArrowHeadLength*math.Sin(angle-ArrowHeadAngle)},
		{X: x2, Y: y2},
		{X: x2 - ArrowHeadLength*math.Cos(angle+ArrowHeadAngle), Y: y2 - ArrowHeadLength*math.Sin(angle+ArrowHeadAngle)},
	}
}

func selectionCommand(e document.Element) DrawCommand {
	b := geometry.EffectiveBounds(e).Expand(SelectionMargin)
	return DrawCommand{
		Op:          OpSelection,
		ElementID:   e.ID,
		X:           b.MinX,
		Y:           b.MinY,
		Width:       b.Width(),
		Height:      b.Height(),
		Stroke:      SelectionColor,
		StrokeWidth: DefaultLineWidth,
	}
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// BoundsToJSON serializes a box to JSON in x/y/width/height form.
func BoundsToJSON(b geometry.Bounds) string {
	data, _ := json.Marshal(map[string]float64{
		"x":      b.MinX,
		"y":      b.MinY,
		"width":  b.Width(),
		"height": b.Height(),
	})
	return string(data)
}
