package geometry

import (
	"errors"
	"testing"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
)

func rect(id int64, x1, y1, x2, y2 float64) document.Element {
	return document.Element{ID: id, Kind: document.KindRectangle, X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func pt(x, y float64) document.Point { return document.Point{X: x, Y: y} }

func TestNormalizeIdempotent(t *testing.T) {
	tests := []document.Element{
		rect(1, 10, 10, 0, 0),
		rect(1, 0, 10, 10, 0),
		rect(1, -5, 3, 7, -9),
		{ID: 2, Kind: document.KindEllipse, X1: 40, Y1: 2, X2: 4, Y2: 20},
		{ID: 3, Kind: document.KindEllipse, X1: 1, Y1: 1, X2: 1, Y2: 1},
	}
	for _, e := range tests {
		once := Normalize(e)
		if once.X1 > once.X2 || once.Y1 > once.Y2 {
			t.Errorf("Normalize(%+v) = %+v, want min/max form", e, once)
		}
		if twice := Normalize(once); twice.X1 != once.X1 || twice.Y1 != once.Y1 || twice.X2 != once.X2 || twice.Y2 != once.Y2 {
			t.Errorf("Normalize not idempotent: %+v then %+v", once, twice)
		}
	}
}

func TestNormalizeLeavesSegmentsAlone(t *testing.T) {
	line := document.Element{ID: 1, Kind: document.KindLine, X1: 10, Y1: 10, X2: 0, Y2: 0}
	if got := Normalize(line); got.X1 != 10 || got.X2 != 0 {
		t.Fatalf("Normalize changed a line: %+v", got)
	}
}

func TestFreehandBounds(t *testing.T) {
	e := document.Element{ID: 1, Kind: document.KindFreehand}
	for _, p := range []document.Point{pt(0, 0), pt(4, 0), pt(4, 3)} {
		e.Points = append(e.Points, p)
		e = SyncBounds(e)
	}

	want := Bounds{MinX: 0, MinY: 0, MaxX: 4, MaxY: 3}
	if got := EffectiveBounds(e); got != want {
		t.Fatalf("EffectiveBounds = %+v, want %+v", got, want)
	}
	if e.X1 != 0 || e.Y1 != 0 || e.X2 != 4 || e.Y2 != 3 {
		t.Fatalf("cached anchors = (%v,%v,%v,%v), want (0,0,4,3)", e.X1, e.Y1, e.X2, e.Y2)
	}
}

func TestFreehandBoundsIgnoreStaleCache(t *testing.T) {
	e := document.Element{
		ID: 1, Kind: document.KindFreehand,
		X1: 100, Y1: 100, X2: 200, Y2: 200,
		Points: []document.Point{pt(1, 2), pt(3, -4)},
	}
	want := Bounds{MinX: 1, MinY: -4, MaxX: 3, MaxY: 2}
	if got := EffectiveBounds(e); got != want {
		t.Fatalf("EffectiveBounds = %+v, want %+v", got, want)
	}
}

func TestFreehandSinglePoint(t *testing.T) {
	e := document.Element{ID: 1, Kind: document.KindFreehand, Points: []document.Point{pt(7, 8)}}
	b := EffectiveBounds(e)
	if b.Width() != 0 || b.Height() != 0 || b.MinX != 7 || b.MinY != 8 {
		t.Fatalf("EffectiveBounds = %+v, want zero-area box at (7,8)", b)
	}
	if h := HitTest(pt(7, 8), e); h != HandleNone {
		t.Fatalf("HitTest on single point stroke = %q, want none", h)
	}
}

func TestHitTest(t *testing.T) {
	box := rect(1, 0, 0, 100, 100)
	line := document.Element{ID: 2, Kind: document.KindLine, X1: 0, Y1: 0, X2: 100, Y2: 0}
	stroke := document.Element{
		ID: 3, Kind: document.KindFreehand,
		Points: []document.Point{pt(0, 0), pt(50, 0), pt(50, 50)},
	}
	text := document.Element{ID: 4, Kind: document.KindText, X1: 10, Y1: 10, X2: 60, Y2: 34, Text: "hi", FontSize: 24}

	tests := []struct {
		name string
		p    document.Point
		e    document.Element
		want Handle
	}{
		{"corner beats inside", pt(99, 99), box, HandleBottomRight},
		{"top left", pt(1, -2), box, HandleTopLeft},
		{"top right", pt(102, 3), box, HandleTopRight},
		{"bottom left", pt(-3, 98), box, HandleBottomLeft},
		{"inside", pt(50, 50), box, HandleInside},
		{"outside", pt(150, 50), box, HandleNone},
		{"unsorted box", pt(50, 50), rect(1, 100, 100, 0, 0), HandleInside},
		{"line start", pt(2, 2), line, HandleStart},
		{"line end", pt(98, 1), line, HandleEnd},
		{"on line", pt(50, 0.2), line, HandleInside},
		{"off line", pt(50, 20), line, HandleNone},
		{"on stroke", pt(50, 25), stroke, HandleInside},
		{"off stroke", pt(20, 30), stroke, HandleNone},
		{"text body", pt(30, 20), text, HandleInside},
		{"text corner has no handle", pt(10, 10), text, HandleInside},
		{"off text", pt(70, 20), text, HandleNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HitTest(tt.p, tt.e); got != tt.want {
				t.Errorf("HitTest(%v) = %q, want %q", tt.p, got, tt.want)
			}
		})
	}
}

func TestElementAtPositionPrefersLatest(t *testing.T) {
	elements := []document.Element{rect(1, 0, 0, 100, 100), rect(2, 0, 0, 100, 100)}

	i, h := ElementAtPosition(pt(50, 50), elements)
	if i != 1 || h != HandleInside {
		t.Fatalf("ElementAtPosition = (%d, %q), want (1, inside)", i, h)
	}
	if i, _ := ElementAtPosition(pt(500, 500), elements); i != -1 {
		t.Fatalf("ElementAtPosition on empty space = %d, want -1", i)
	}
}

func TestCursorForHandle(t *testing.T) {
	tests := map[Handle]Cursor{
		HandleTopLeft:     CursorResizeNWSE,
		HandleBottomRight: CursorResizeNWSE,
		HandleTopRight:    CursorResizeNESW,
		HandleBottomLeft:  CursorResizeNESW,
		HandleStart:       CursorPointer,
		HandleEnd:         CursorPointer,
		HandleInside:      CursorMove,
		HandleNone:        CursorMove,
	}
	for h, want := range tests {
		if got := CursorForHandle(h); got != want {
			t.Errorf("CursorForHandle(%q) = %q, want %q", h, got, want)
		}
	}
}

func TestApplyResize(t *testing.T) {
	e := rect(1, 0, 0, 100, 100)
	p := pt(120, -10)

	tr := ApplyResize(p, HandleTopRight, e)
	if tr.X1 != nil || tr.Y2 != nil {
		t.Fatalf("tr patch touched unrelated fields: %+v", tr)
	}
	if got := tr.Apply(e); got.X1 != 0 || got.Y1 != -10 || got.X2 != 120 || got.Y2 != 100 {
		t.Fatalf("tr resize = %+v", got)
	}

	bl := ApplyResize(p, HandleBottomLeft, e).Apply(e)
	if bl.X1 != 120 || bl.Y1 != 0 || bl.X2 != 100 || bl.Y2 != -10 {
		t.Fatalf("bl resize = %+v", bl)
	}

	for _, h := range []Handle{HandleTopLeft, HandleStart} {
		if got := ApplyResize(p, h, e).Apply(e); got.X1 != 120 || got.Y1 != -10 || got.X2 != 100 {
			t.Errorf("%s resize = %+v", h, got)
		}
	}
	for _, h := range []Handle{HandleBottomRight, HandleEnd} {
		if got := ApplyResize(p, h, e).Apply(e); got.X2 != 120 || got.Y2 != -10 || got.X1 != 0 {
			t.Errorf("%s resize = %+v", h, got)
		}
	}
	if patch := ApplyResize(p, HandleInside, e); !patch.IsZero() {
		t.Fatalf("inside resize = %+v, want empty patch", patch)
	}
}

func TestTranslateCopiesPoints(t *testing.T) {
	orig := document.Element{ID: 1, Kind: document.KindFreehand, Points: []document.Point{pt(0, 0), pt(2, 2)}}
	moved := Translate(orig, 10, 5)

	if orig.Points[0] != pt(0, 0) {
		t.Fatalf("Translate wrote through the original points: %+v", orig.Points)
	}
	if moved.X1 != 10 || moved.Y1 != 5 || moved.X2 != 12 || moved.Y2 != 7 {
		t.Fatalf("moved bounds = (%v,%v,%v,%v)", moved.X1, moved.Y1, moved.X2, moved.Y2)
	}
}

func TestBoundsOf(t *testing.T) {
	if _, ok := BoundsOf(nil); ok {
		t.Fatal("BoundsOf(nil) reported bounds")
	}
	b, ok := BoundsOf([]document.Element{
		rect(1, 0, 0, 10, 10),
		{ID: 2, Kind: document.KindLine, X1: 50, Y1: 5, X2: 20, Y2: 5},
	})
	if !ok || b != (Bounds{MinX: 0, MinY: 0, MaxX: 50, MaxY: 10}) {
		t.Fatalf("BoundsOf = %+v, %v", b, ok)
	}
}

func TestUnknownKindPanics(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, document.ErrUnknownKind) {
			t.Fatalf("recovered %v, want ErrUnknownKind", r)
		}
	}()
	HitTest(pt(0, 0), document.Element{ID: 1, Kind: "TRIANGLE"})
}

func TestCanonicalize(t *testing.T) {
	in := []document.Element{
		rect(1, 10, 10, 0, 0),
		{ID: 2, Kind: document.KindFreehand, Points: []document.Point{pt(3, 4), pt(-1, 2)}},
	}
	out, err := Canonicalize(in)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if out[0].X1 != 0 || out[0].X2 != 10 {
		t.Errorf("rectangle not normalized: %+v", out[0])
	}
	if out[1].X1 != -1 || out[1].Y1 != 2 || out[1].X2 != 3 || out[1].Y2 != 4 {
		t.Errorf("freehand anchors not synced: %+v", out[1])
	}
	if in[0].X1 != 10 {
		t.Error("input was modified")
	}

	dup := []document.Element{rect(1, 0, 0, 1, 1), rect(1, 2, 2, 3, 3)}
	if _, err := Canonicalize(dup); !errors.Is(err, document.ErrDuplicateID) {
		t.Errorf("duplicate ids: err = %v", err)
	}
}
