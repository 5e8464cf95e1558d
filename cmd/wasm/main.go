//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/sketchboard/sketchboard/backend-go/internal/engine"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine()

	// Create the engine API object
	sketchEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	sketchEngine.Set("loadElements", js.FuncOf(loadElements))
	sketchEngine.Set("updateElements", js.FuncOf(updateElements))
	sketchEngine.Set("loadSampleBoard", js.FuncOf(loadSampleBoard))
	sketchEngine.Set("setTool", js.FuncOf(setTool))
	sketchEngine.Set("pointerDown", js.FuncOf(pointerDown))
	sketchEngine.Set("pointerMove", js.FuncOf(pointerMove))
	sketchEngine.Set("pointerUp", js.FuncOf(pointerUp))
	sketchEngine.Set("doubleClick", js.FuncOf(doubleClick))
	sketchEngine.Set("commitText", js.FuncOf(commitText))
	sketchEngine.Set("undo", js.FuncOf(undo))
	sketchEngine.Set("redo", js.FuncOf(redo))
	sketchEngine.Set("clear", js.FuncOf(clear))
	sketchEngine.Set("wheel", js.FuncOf(wheel))
	sketchEngine.Set("setZoom", js.FuncOf(setZoom))
	sketchEngine.Set("resize", js.FuncOf(resize))
	sketchEngine.Set("setHistoryLimit", js.FuncOf(setHistoryLimit))

	// --- Queries (frontend ← backend) ---
	sketchEngine.Set("render", js.FuncOf(render))
	sketchEngine.Set("hitTest", js.FuncOf(hitTest))
	sketchEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	sketchEngine.Set("getContentBounds", js.FuncOf(getContentBounds))
	sketchEngine.Set("getElements", js.FuncOf(getElements))
	sketchEngine.Set("getState", js.FuncOf(getState))
	sketchEngine.Set("getEditingText", js.FuncOf(getEditingText))
	sketchEngine.Set("getRevision", js.FuncOf(getRevision))

	// Register on global scope
	js.Global().Set("sketchEngine", sketchEngine)

	// Signal that WASM is ready
	js.Global().Set("sketchWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) js.Value {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func okResult() js.Value {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// point reads (x, y) from the first two arguments.
func point(args []js.Value) (float64, float64, bool) {
	if len(args) < 2 {
		return 0, 0, false
	}
	return args[0].Float(), args[1].Float(), true
}

// --- Command Handlers ---

func loadElements(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing elements JSON"})
	}
	if err := eng.LoadElements(args[0].String()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func updateElements(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing elements JSON"})
	}
	if err := eng.UpdateElements(args[0].String()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func loadSampleBoard(this js.Value, args []js.Value) interface{} {
	eng.LoadSampleBoard()
	return okResult()
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	if err := eng.SetTool(args[0].String()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		return nil
	}
	button := 0
	if len(args) > 2 {
		button = args[2].Int()
	}
	if err := eng.PointerDown(x, y, button); err != nil {
		return errorResult(err)
	}
	return nil
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		return nil
	}
	if err := eng.PointerMove(x, y); err != nil {
		return errorResult(err)
	}
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		return nil
	}
	if err := eng.PointerUp(x, y); err != nil {
		return errorResult(err)
	}
	return nil
}

func doubleClick(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		return nil
	}
	if err := eng.DoubleClick(x, y); err != nil {
		return errorResult(err)
	}
	return nil
}

func commitText(this js.Value, args []js.Value) interface{} {
	text := ""
	if len(args) > 0 && args[0].Type() == js.TypeString {
		text = args[0].String()
	}
	if err := eng.CommitText(text); err != nil {
		return errorResult(err)
	}
	return nil
}

func undo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Redo())
}

func clear(this js.Value, args []js.Value) interface{} {
	eng.Clear()
	return nil
}

func wheel(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.Wheel(args[0].Float())
	return nil
}

func setZoom(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetZoom(args[0].Float())
	return nil
}

func resize(this js.Value, args []js.Value) interface{} {
	w, h, ok := point(args)
	if !ok {
		return nil
	}
	eng.Resize(w, h)
	return nil
}

func setHistoryLimit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetHistoryLimit(args[0].Int())
	return nil
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	out, err := eng.Render()
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(out)
}

func hitTest(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		return js.ValueOf(0)
	}
	return js.ValueOf(float64(eng.HitTest(x, y)))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelectionBounds())
}

func getContentBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetContentBounds())
}

func getElements(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetElements())
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetState())
}

func getEditingText(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetEditingText())
}

func getRevision(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(float64(eng.Revision()))
}
