package engine

import (
	"slices"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/geometry"
)

// Action is what the pointer is currently doing.
type Action string

const (
	ActionNone     Action = "none"
	ActionDrawing  Action = "drawing"
	ActionMoving   Action = "moving"
	ActionResizing Action = "resizing"
	ActionWriting  Action = "writing"
	ActionPanning  Action = "panning"
)

// State is the ephemeral interaction state. It is never persisted.
type State struct {
	Tool   Tool            `json:"tool"`
	Action Action          `json:"action"`
	Anchor document.Point  `json:"anchor"`
	Handle geometry.Handle `json:"handle,omitempty"`

	// Selected is the id of the selected element, 0 when nothing is.
	Selected int64 `json:"selected,omitempty"`

	// Changed is set once the current gesture has produced a coalesced
	// commit, so a click without a drag leaves no history entry.
	Changed bool `json:"changed,omitempty"`

	// Fresh marks a text element created by the current writing session.
	Fresh bool `json:"fresh,omitempty"`
}

// NewState returns the idle state with the selection tool active.
func NewState() State {
	return State{Tool: ToolSelection, Action: ActionNone}
}

type EventType string

const (
	EventPointerDown EventType = "pointerdown"
	EventPointerMove EventType = "pointermove"
	EventPointerUp   EventType = "pointerup"
	EventDoubleClick EventType = "dblclick"
	EventTextCommit  EventType = "textcommit"
)

// Button follows the DOM MouseEvent.button numbering.
type Button int

const (
	ButtonPrimary Button = 0
	ButtonMiddle  Button = 1
)

// Event is one input event, already converted to editor space.
type Event struct {
	Type   EventType      `json:"type"`
	Point  document.Point `json:"point"`
	Button Button         `json:"button"`
	Text   string         `json:"text,omitempty"`
}

// Effect is an instruction the controller hands back to its host.
type Effect interface {
	effect()
}

// Commit pushes a new collection into history.
type Commit struct {
	Elements Collection
	Coalesce bool
}

// Discard drops the pending coalesced snapshot.
type Discard struct{}

// PanBy shifts the view offset, in editor units.
type PanBy struct {
	DX, DY float64
}

// SetCursor changes the hover cursor.
type SetCursor struct {
	Cursor geometry.Cursor
}

func (Commit) effect()    {}
func (Discard) effect()   {}
func (PanBy) effect()     {}
func (SetCursor) effect() {}

// TextMeasurer reports the rendered size of a text run.
type TextMeasurer interface {
	MeasureText(text string, fontSize float64) (width, height float64)
}

// ApproxMeasurer estimates text size without a font: every rune advances
// 0.6 of the font size and the line height equals the font size.
type ApproxMeasurer struct{}

func (ApproxMeasurer) MeasureText(text string, fontSize float64) (float64, float64) {
	return float64(len([]rune(text))) * fontSize * 0.6, fontSize
}

// Controller is the interaction state machine. It holds no state of its own;
// Transition maps (state, elements, event) to the next state and the effects
// the host must apply.
type Controller struct {
	IDs     IDSource
	Measure TextMeasurer
}

// NewController returns a controller with the given collaborators. A nil
// measurer falls back to ApproxMeasurer.
func NewController(ids IDSource, measure TextMeasurer) *Controller {
	if measure == nil {
		measure = ApproxMeasurer{}
	}
	return &Controller{IDs: ids, Measure: measure}
}

// Transition processes one event. Events are expected to be in editor space
// and finite; validation is the host's job.
func (c *Controller) Transition(s State, elements Collection, ev Event) (State, []Effect) {
	switch ev.Type {
	case EventPointerDown:
		return c.pointerDown(s, elements, ev)
	case EventPointerMove:
		return c.pointerMove(s, elements, ev)
	case EventPointerUp:
		return c.pointerUp(s, elements)
	case EventDoubleClick:
		return c.doubleClick(s, elements, ev)
	case EventTextCommit:
		return c.textCommit(s, elements, ev)
	}
	return s, nil
}

func (c *Controller) pointerDown(s State, elements Collection, ev Event) (State, []Effect) {
	if s.Action == ActionWriting {
		return s, nil
	}
	p := ev.Point

	if ev.Button == ButtonMiddle {
		s.Action = ActionPanning
		s.Anchor = p
		return s, nil
	}

	kind, drawing := s.Tool.Kind()
	if !drawing {
		i, h := geometry.ElementAtPosition(p, elements)
		if i < 0 {
			s.Selected = 0
			s.Action = ActionNone
			return s, nil
		}
		s.Selected = elements[i].ID
		s.Anchor = p
		s.Changed = false
		if h.IsResize() {
			s.Action = ActionResizing
			s.Handle = h
		} else {
			s.Action = ActionMoving
			s.Handle = geometry.HandleNone
		}
		return s, nil
	}

	e, err := NewElement(kind, c.IDs.NextID(), p)
	if err != nil {
		panic(err)
	}
	s.Selected = e.ID
	s.Anchor = p
	s.Changed = true
	s.Action = ActionDrawing
	if kind == document.KindText {
		s.Action = ActionWriting
		s.Fresh = true
	}
	return s, []Effect{Commit{Elements: elements.Add(e), Coalesce: true}}
}

func (c *Controller) pointerMove(s State, elements Collection, ev Event) (State, []Effect) {
	p := ev.Point

	switch s.Action {
	case ActionPanning:
		// The anchor stays put in editor space: once the view shifts, the
		// pointer maps back onto it and the next delta is only the residue.
		return s, []Effect{PanBy{DX: p.X - s.Anchor.X, DY: p.Y - s.Anchor.Y}}

	case ActionDrawing:
		e, ok := elements.Get(s.Selected)
		if !ok {
			return s, nil
		}
		patch := document.Patch{X2: document.F(p.X), Y2: document.F(p.Y)}
		if e.Kind == document.KindFreehand {
			patch.Points = append(slices.Clip(e.Points), p)
		}
		s.Changed = true
		return s, []Effect{Commit{Elements: elements.Update(e.ID, patch), Coalesce: true}}

	case ActionMoving:
		e, ok := elements.Get(s.Selected)
		if !ok {
			return s, nil
		}
		moved := geometry.Translate(e, p.X-s.Anchor.X, p.Y-s.Anchor.Y)
		s.Anchor = p
		s.Changed = true
		return s, []Effect{Commit{Elements: elements.Replace(moved), Coalesce: true}}

	case ActionResizing:
		e, ok := elements.Get(s.Selected)
		if !ok {
			return s, nil
		}
		patch := geometry.ApplyResize(p, s.Handle, e)
		if patch.IsZero() {
			return s, nil
		}
		s.Changed = true
		return s, []Effect{Commit{Elements: elements.Update(e.ID, patch), Coalesce: true}}

	case ActionNone:
		if s.Tool != ToolSelection {
			return s, nil
		}
		cursor := geometry.CursorDefault
		if i, h := geometry.ElementAtPosition(p, elements); i >= 0 {
			cursor = geometry.CursorForHandle(h)
		}
		return s, []Effect{SetCursor{Cursor: cursor}}
	}
	return s, nil
}

func (c *Controller) pointerUp(s State, elements Collection) (State, []Effect) {
	var effects []Effect

	switch s.Action {
	case ActionWriting:
		return s, nil
	case ActionDrawing, ActionMoving, ActionResizing:
		if e, ok := elements.Get(s.Selected); ok && s.Changed {
			effects = append(effects, Commit{Elements: elements.Replace(geometry.Normalize(e)), Coalesce: false})
		}
	}

	s.Action = ActionNone
	s.Handle = geometry.HandleNone
	s.Changed = false
	return s, effects
}

func (c *Controller) doubleClick(s State, elements Collection, ev Event) (State, []Effect) {
	if s.Action == ActionWriting {
		return s, nil
	}
	i, _ := geometry.ElementAtPosition(ev.Point, elements)
	if i < 0 || elements[i].Kind != document.KindText {
		return s, nil
	}
	s.Action = ActionWriting
	s.Selected = elements[i].ID
	s.Handle = geometry.HandleNone
	s.Fresh = false
	return s, nil
}

func (c *Controller) textCommit(s State, elements Collection, ev Event) (State, []Effect) {
	if s.Action != ActionWriting {
		return s, nil
	}
	var effects []Effect

	e, ok := elements.Get(s.Selected)
	switch {
	case !ok || e.Kind != document.KindText:
		if s.Fresh {
			effects = append(effects, Discard{})
		}
	case ev.Text == "" && s.Fresh:
		// The element was never committed, so dropping the pending snapshot
		// removes it without an undo step. Only an element that already
		// existed gets a removal step that undo restores.
		effects = append(effects, Discard{})
	case ev.Text == "":
		effects = append(effects, Commit{Elements: elements.Remove(e.ID), Coalesce: false})
	default:
		w, h := c.Measure.MeasureText(ev.Text, e.FontSize)
		patch := document.Patch{
			Text: document.S(ev.Text),
			X2:   document.F(e.X1 + w),
			Y2:   document.F(e.Y1 + h),
		}
		effects = append(effects, Commit{Elements: elements.Update(e.ID, patch), Coalesce: false})
	}

	s.Action = ActionNone
	s.Selected = 0
	s.Fresh = false
	s.Changed = false
	return s, effects
}
