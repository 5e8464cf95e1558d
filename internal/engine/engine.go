package engine

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/geometry"
	"github.com/sketchboard/sketchboard/backend-go/internal/history"
)

// Engine owns the element history, the interaction state and the viewport
// of one open board. It processes commands from the frontend and returns
// query results.
//
// All methods lock a single mutex, so (collection, history cursor) is always
// read and written as one unit.
type Engine struct {
	mu sync.Mutex

	history *history.History[Collection]
	state   State
	view    Viewport
	cursor  geometry.Cursor

	ids  *ClockIDs
	ctrl *Controller

	// revision counts changes to the visible collection.
	revision uint64
}

// NewEngine creates an engine with an empty board.
func NewEngine() *Engine {
	ids := NewClockIDs()
	return &Engine{
		history: history.New(Collection{}),
		state:   NewState(),
		view:    NewViewport(DefaultViewW, DefaultViewH),
		cursor:  geometry.CursorDefault,
		ids:     ids,
		ctrl:    NewController(ids, nil),
	}
}

// SetTextMeasurer replaces the text measurer used when a text edit is
// committed.
func (e *Engine) SetTextMeasurer(m TextMeasurer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if m == nil {
		m = ApproxMeasurer{}
	}
	e.ctrl.Measure = m
}

// SetHistoryLimit caps the number of undo steps kept.
func (e *Engine) SetHistoryLimit(limit int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.SetLimit(limit)
}

// --- Commands (frontend → backend) ---

// LoadElements replaces the board with the given JSON element list and
// starts a fresh history.
func (e *Engine) LoadElements(jsonData string) error {
	elements, err := decodeElements(jsonData)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.load(elements)
	return nil
}

// LoadSampleBoard loads the built-in sample board.
func (e *Engine) LoadSampleBoard() {
	b := document.NewSampleBoard("", "")

	e.mu.Lock()
	defer e.mu.Unlock()
	e.load(b.Elements)
}

func (e *Engine) load(elements []document.Element) {
	c := make(Collection, len(elements))
	for i, el := range elements {
		c[i] = geometry.SyncBounds(el)
		e.ids.Observe(el.ID)
	}
	e.history.Reset(c)
	tool := e.state.Tool
	e.state = NewState()
	e.state.Tool = tool
	e.cursor = geometry.CursorDefault
	e.revision++
}

// UpdateElements applies a list received from another client. The list
// becomes a new undo step; interaction state is kept where it still applies.
func (e *Engine) UpdateElements(jsonData string) error {
	elements, err := decodeElements(jsonData)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	c := make(Collection, len(elements))
	for i, el := range elements {
		c[i] = geometry.SyncBounds(el)
		e.ids.Observe(el.ID)
	}
	e.history.Commit(c, false)
	e.reconcile()
	e.revision++
	return nil
}

func decodeElements(jsonData string) ([]document.Element, error) {
	var elements []document.Element
	if err := json.Unmarshal([]byte(jsonData), &elements); err != nil {
		return nil, fmt.Errorf("decode elements: %w", err)
	}
	if err := document.ValidateElements(elements); err != nil {
		return nil, fmt.Errorf("validate elements: %w", err)
	}
	return elements, nil
}

// SetTool switches the active tool. Switching while writing text is
// ignored until the text is committed.
func (e *Engine) SetTool(name string) error {
	t, err := ParseTool(name)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Action == ActionWriting {
		return nil
	}
	e.state.Tool = t
	if t != ToolSelection {
		e.state.Selected = 0
	}
	return nil
}

// Dispatch runs one input event. The event point is in screen pixels and is
// converted to editor space with the current viewport.
func (e *Engine) Dispatch(ev Event) error {
	if !document.Finite(ev.Point.X) || !document.Finite(ev.Point.Y) {
		return fmt.Errorf("%s at (%v, %v): %w", ev.Type, ev.Point.X, ev.Point.Y, document.ErrInvalidCoordinate)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	ev.Point = e.view.ScreenToEditor(ev.Point)
	next, effects := e.ctrl.Transition(e.state, e.history.Current(), ev)
	e.state = next
	e.apply(effects)
	return nil
}

// PointerDown is Dispatch for a pointer press.
func (e *Engine) PointerDown(x, y float64, button int) error {
	return e.Dispatch(Event{Type: EventPointerDown, Point: document.Point{X: x, Y: y}, Button: Button(button)})
}

// PointerMove is Dispatch for a pointer move.
func (e *Engine) PointerMove(x, y float64) error {
	return e.Dispatch(Event{Type: EventPointerMove, Point: document.Point{X: x, Y: y}})
}

// PointerUp is Dispatch for a pointer release.
func (e *Engine) PointerUp(x, y float64) error {
	return e.Dispatch(Event{Type: EventPointerUp, Point: document.Point{X: x, Y: y}})
}

// DoubleClick is Dispatch for a double click.
func (e *Engine) DoubleClick(x, y float64) error {
	return e.Dispatch(Event{Type: EventDoubleClick, Point: document.Point{X: x, Y: y}})
}

// CommitText ends the current writing session with the given text.
func (e *Engine) CommitText(text string) error {
	return e.Dispatch(Event{Type: EventTextCommit, Text: text})
}

func (e *Engine) apply(effects []Effect) {
	for _, eff := range effects {
		switch eff := eff.(type) {
		case Commit:
			e.history.Commit(eff.Elements, eff.Coalesce)
			e.revision++
		case Discard:
			if e.history.Discard() {
				e.revision++
			}
		case PanBy:
			e.view = e.view.PanBy(eff.DX, eff.DY)
		case SetCursor:
			e.cursor = eff.Cursor
		}
	}
}

// Undo steps back one history entry.
func (e *Engine) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	pending := e.history.Pending()
	moved := e.history.Undo()
	if moved || pending {
		e.reconcile()
		e.revision++
	}
	return moved
}

// Redo steps forward one history entry.
func (e *Engine) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	pending := e.history.Pending()
	moved := e.history.Redo()
	if moved || pending {
		e.reconcile()
		e.revision++
	}
	return moved
}

// Clear removes every element as one undo step.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Commit(e.history.Current().Clear(), false)
	e.reconcile()
	e.revision++
}

// reconcile drops a selection that no longer exists after the collection
// was replaced underneath the controller.
func (e *Engine) reconcile() {
	if e.state.Selected == 0 {
		return
	}
	if _, ok := e.history.Current().Get(e.state.Selected); ok {
		return
	}
	e.state.Selected = 0
	e.state.Fresh = false
	if e.state.Action == ActionWriting {
		e.state.Action = ActionNone
	}
}

// Wheel zooms by one wheel notch.
func (e *Engine) Wheel(deltaY float64) {
	if !document.Finite(deltaY) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view = e.view.Wheel(deltaY)
}

// SetZoom sets the zoom factor, clamped to the supported range.
func (e *Engine) SetZoom(zoom float64) {
	if !document.Finite(zoom) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view = e.view.SetZoom(zoom)
}

// Resize tells the engine the canvas size in pixels.
func (e *Engine) Resize(width, height float64) {
	if !document.Finite(width) || !document.Finite(height) || width <= 0 || height <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view = e.view.Resize(width, height)
}

// --- Queries (frontend ← backend) ---

// Render compiles the current elements and selection into draw commands,
// serialized as JSON.
func (e *Engine) Render() (string, error) {
	e.mu.Lock()
	elements := e.history.Current().Elements()
	selected := e.state.Selected
	e.mu.Unlock()

	commands, err := CompileDrawCommands(elements, selected)
	if err != nil {
		return "[]", err
	}
	return DrawCommandsToJSON(commands)
}

// Elements returns a copy of the current element list.
func (e *Engine) Elements() []document.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Current().Elements()
}

// GetElements returns the current element list as JSON.
func (e *Engine) GetElements() string {
	data, _ := json.Marshal(e.Elements())
	return string(data)
}

// Selected returns the selected element id, 0 for none.
func (e *Engine) Selected() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Selected
}

// State returns a copy of the interaction state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Viewport returns the current viewport.
func (e *Engine) Viewport() Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// Revision increases every time the visible element list changes.
func (e *Engine) Revision() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revision
}

// CanUndo reports whether Undo would change anything.
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// GetState returns the interaction and history state as JSON.
func (e *Engine) GetState() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	data, _ := json.Marshal(map[string]interface{}{
		"tool":      e.state.Tool,
		"action":    e.state.Action,
		"selected":  e.state.Selected,
		"cursor":    e.cursor,
		"canUndo":   e.history.CanUndo(),
		"canRedo":   e.history.CanRedo(),
		"revision":  e.revision,
		"viewport":  e.view,
		"transform": e.view.Matrix().ToSlice(),
	})
	return string(data)
}

// GetEditingText returns the element being written, as JSON, or "{}".
// The frontend positions its text input from it.
func (e *Engine) GetEditingText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Action != ActionWriting {
		return "{}"
	}
	el, ok := e.history.Current().Get(e.state.Selected)
	if !ok {
		return "{}"
	}
	screen := e.view.EditorToScreen(document.Point{X: el.X1, Y: el.Y1})
	data, _ := json.Marshal(map[string]interface{}{
		"element":  el,
		"screenX":  screen.X,
		"screenY":  screen.Y,
		"fontSize": el.FontSize * e.view.Zoom,
	})
	return string(data)
}

// HitTest returns the id of the topmost element under a screen point, or 0.
func (e *Engine) HitTest(x, y float64) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.history.Current()
	i, _ := geometry.ElementAtPosition(e.view.ScreenToEditor(document.Point{X: x, Y: y}), c)
	if i < 0 {
		return 0
	}
	return c[i].ID
}

// GetSelectionBounds returns the bounds of the selected element as JSON.
func (e *Engine) GetSelectionBounds() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	el, ok := e.history.Current().Get(e.state.Selected)
	if !ok {
		return BoundsToJSON(geometry.Bounds{})
	}
	return BoundsToJSON(geometry.EffectiveBounds(el))
}

// GetContentBounds returns the union of every element's bounds as JSON, or
// the visible area when the board is empty.
func (e *Engine) GetContentBounds() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := geometry.BoundsOf(e.history.Current()); ok {
		return BoundsToJSON(b)
	}
	return BoundsToJSON(e.view.Visible())
}
