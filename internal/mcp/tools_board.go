package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/engine"
	"github.com/sketchboard/sketchboard/backend-go/internal/geometry"
)

func (s *Server) registerBoardTools() {
	s.mcp.AddTool(mcp.NewTool("list_boards",
		mcp.WithDescription("List the boards the user owns or collaborates on, most recently updated first"),
	), s.handleListBoards)

	s.mcp.AddTool(mcp.NewTool("list_elements",
		mcp.WithDescription("List the elements of a board in painting order"),
		mcp.WithString("boardId", mcp.Description("Board ID"), mcp.Required()),
	), s.handleListElements)

	s.mcp.AddTool(mcp.NewTool("board_bounds",
		mcp.WithDescription("Bounding box of everything drawn on a board"),
		mcp.WithString("boardId", mcp.Description("Board ID"), mcp.Required()),
	), s.handleBoardBounds)
}

func (s *Server) registerElementTools() {
	s.mcp.AddTool(mcp.NewTool("add_element",
		mcp.WithDescription("Add an element on top of a board. Boxes and segments use both anchors; pencil strokes take points; text takes text and fontSize and is sized from the first anchor."),
		mcp.WithString("boardId", mcp.Description("Board ID"), mcp.Required()),
		mcp.WithString("kind", mcp.Description("Element kind: rectangle, ellipse, line, arrow, pencil, text"), mcp.Required()),
		mcp.WithNumber("x1", mcp.Description("First anchor X"), mcp.Required()),
		mcp.WithNumber("y1", mcp.Description("First anchor Y"), mcp.Required()),
		mcp.WithNumber("x2", mcp.Description("Second anchor X (optional for text and pencil)")),
		mcp.WithNumber("y2", mcp.Description("Second anchor Y (optional for text and pencil)")),
		mcp.WithString("points", mcp.Description("Pencil points as a JSON array of {x, y}")),
		mcp.WithString("text", mcp.Description("Text content")),
		mcp.WithNumber("fontSize", mcp.Description("Font size for text (default 24)")),
	), s.handleAddElement)

	s.mcp.AddTool(mcp.NewTool("move_element",
		mcp.WithDescription("Move an element by an offset"),
		mcp.WithString("boardId", mcp.Description("Board ID"), mcp.Required()),
		mcp.WithNumber("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithNumber("dx", mcp.Description("Horizontal offset"), mcp.Required()),
		mcp.WithNumber("dy", mcp.Description("Vertical offset"), mcp.Required()),
	), s.handleMoveElement)

	s.mcp.AddTool(mcp.NewTool("delete_element",
		mcp.WithDescription("Remove an element from a board"),
		mcp.WithString("boardId", mcp.Description("Board ID"), mcp.Required()),
		mcp.WithNumber("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteElement)

	s.mcp.AddTool(mcp.NewTool("clear_board",
		mcp.WithDescription("Remove every element from a board"),
		mcp.WithString("boardId", mcp.Description("Board ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleClearBoard)
}

func (s *Server) handleListBoards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boards, err := s.boards.List(ctx, s.userID)
	if err != nil {
		return nil, err
	}
	return jsonResult(boards)
}

func (s *Server) loadBoard(ctx context.Context, args map[string]any) (*document.Board, error) {
	boardID, err := stringArg(args, "boardId")
	if err != nil {
		return nil, err
	}
	b, err := s.boards.Get(ctx, boardID, s.userID)
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", boardID, err)
	}
	for _, e := range b.Elements {
		s.ids.Observe(e.ID)
	}
	return b, nil
}

func (s *Server) save(ctx context.Context, b *document.Board, elements engine.Collection) ([]document.Element, error) {
	stored, err := s.boards.UpdateElements(ctx, b.ID, s.userID, elements.Elements())
	if err != nil {
		return nil, fmt.Errorf("save board %s: %w", b.ID, err)
	}
	return stored, nil
}

func (s *Server) handleListElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.loadBoard(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return jsonResult(b.Elements)
}

func (s *Server) handleBoardBounds(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.loadBoard(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	bounds, ok := geometry.BoundsOf(b.Elements)
	if !ok {
		return textResult("Board is empty"), nil
	}
	return textResult(engine.BoundsToJSON(bounds)), nil
}

// parseKind accepts the wire names and the lower-case tool names, plus
// "freehand" for pencil strokes.
func parseKind(s string) (document.Kind, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "FREEHAND" {
		s = string(document.KindFreehand)
	}
	k := document.Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", document.ErrUnknownKind, s)
	}
	return k, nil
}

// buildElement turns add_element arguments into an element with a fresh id.
func (s *Server) buildElement(args map[string]any) (document.Element, error) {
	kindArg, err := stringArg(args, "kind")
	if err != nil {
		return document.Element{}, err
	}
	kind, err := parseKind(kindArg)
	if err != nil {
		return document.Element{}, err
	}
	x1, err := numberArg(args, "x1")
	if err != nil {
		return document.Element{}, err
	}
	y1, err := numberArg(args, "y1")
	if err != nil {
		return document.Element{}, err
	}

	e, err := engine.NewElement(kind, s.ids.NextID(), document.Point{X: x1, Y: y1})
	if err != nil {
		return document.Element{}, err
	}

	switch kind {
	case document.KindRectangle, document.KindEllipse, document.KindLine, document.KindArrow:
		if e.X2, err = numberArg(args, "x2"); err != nil {
			return document.Element{}, err
		}
		if e.Y2, err = numberArg(args, "y2"); err != nil {
			return document.Element{}, err
		}
	case document.KindFreehand:
		if raw, ok := args["points"].(string); ok && raw != "" {
			var points []document.Point
			if err := json.Unmarshal([]byte(raw), &points); err != nil {
				return document.Element{}, fmt.Errorf("parse points: %w", err)
			}
			if len(points) > 0 {
				e.Points = points
			}
		}
	case document.KindText:
		e.Text, _ = args["text"].(string)
		if e.FontSize, err = optionalNumber(args, "fontSize", document.DefaultFontSize); err != nil {
			return document.Element{}, err
		}
		w, h := s.measure.MeasureText(e.Text, e.FontSize)
		e.X2, e.Y2 = e.X1+w, e.Y1+h
	}
	return e, nil
}

func (s *Server) handleAddElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.loadBoard(ctx, args)
	if err != nil {
		return nil, err
	}
	e, err := s.buildElement(args)
	if err != nil {
		return nil, err
	}

	stored, err := s.save(ctx, b, engine.Collection(b.Elements).Add(e))
	if err != nil {
		return nil, err
	}
	return jsonResult(stored[len(stored)-1])
}

func (s *Server) handleMoveElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.loadBoard(ctx, args)
	if err != nil {
		return nil, err
	}
	id, err := elementIDArg(args)
	if err != nil {
		return nil, err
	}
	dx, err := numberArg(args, "dx")
	if err != nil {
		return nil, err
	}
	dy, err := numberArg(args, "dy")
	if err != nil {
		return nil, err
	}

	elements := engine.Collection(b.Elements)
	e, ok := elements.Get(id)
	if !ok {
		return nil, fmt.Errorf("element %d not found", id)
	}
	moved := geometry.Translate(e, dx, dy)
	if _, err := s.save(ctx, b, elements.Replace(moved)); err != nil {
		return nil, err
	}
	return jsonResult(moved)
}

func (s *Server) handleDeleteElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.loadBoard(ctx, args)
	if err != nil {
		return nil, err
	}
	id, err := elementIDArg(args)
	if err != nil {
		return nil, err
	}

	elements := engine.Collection(b.Elements)
	if elements.Index(id) < 0 {
		return nil, fmt.Errorf("element %d not found", id)
	}
	if _, err := s.save(ctx, b, elements.Remove(id)); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Element %d deleted", id)), nil
}

func (s *Server) handleClearBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.loadBoard(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	if _, err := s.save(ctx, b, engine.Collection(b.Elements).Clear()); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Cleared %d elements", len(b.Elements))), nil
}
