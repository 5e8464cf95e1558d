package render

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/gogpu/gg"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/engine"
)

const (
	// Roughness is the largest jitter, in editor units, applied to a stroke
	// end point.
	Roughness = 1.5
	// Bowing scales how far a sketched line bends away from straight.
	Bowing = 0.02

	ellipseSegments = 36
	seedStream      = 0x5eed
)

// sketcher draws draw commands with a hand-drawn look. m maps editor space
// to canvas pixels.
type sketcher struct {
	dc    *gg.Context
	m     engine.Matrix2D
	scale float64
	fonts *Fonts
}

func newSketcher(dc *gg.Context, m engine.Matrix2D, fonts *Fonts) *sketcher {
	return &sketcher{dc: dc, m: m, scale: math.Sqrt(math.Abs(m.Determinant())), fonts: fonts}
}

// jitter returns the generator for a command. The same seed always produces
// the same strokes.
func jitter(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), seedStream))
}

func (s *sketcher) Draw(commands []engine.DrawCommand) error {
	for _, cmd := range commands {
		if err := s.draw(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (s *sketcher) draw(cmd engine.DrawCommand) error {
	rng := jitter(cmd.Seed)
	s.dc.ClearPath()
	s.dc.SetHexColor(cmd.Stroke)
	s.dc.SetLineWidth(cmd.StrokeWidth * s.scale)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.SetLineJoin(gg.LineJoinRound)

	switch cmd.Op {
	case engine.OpRectangle:
		corners := rectCorners(cmd)
		for i := range corners {
			s.line(rng, corners[i], corners[(i+1)%len(corners)])
		}

	case engine.OpEllipse:
		s.ellipse(rng, cmd.X+cmd.Width/2, cmd.Y+cmd.Height/2, cmd.Width/2, cmd.Height/2)

	case engine.OpLine:
		s.line(rng, cmd.Points[0], cmd.Points[1])

	case engine.OpArrow:
		s.line(rng, cmd.Points[0], cmd.Points[1])
		s.line(rng, cmd.Head[0], cmd.Head[1])
		s.line(rng, cmd.Head[2], cmd.Head[1])

	case engine.OpPath:
		s.path(rng, cmd.Points)

	case engine.OpText:
		return s.text(cmd)

	case engine.OpSelection:
		corners := rectCorners(cmd)
		s.moveTo(corners[0])
		for _, p := range corners[1:] {
			s.lineTo(p)
		}
		s.dc.ClosePath()

	default:
		return fmt.Errorf("render: unknown draw op %q", cmd.Op)
	}
	return s.dc.Stroke()
}

func rectCorners(cmd engine.DrawCommand) []document.Point {
	return []document.Point{
		{X: cmd.X, Y: cmd.Y},
		{X: cmd.X + cmd.Width, Y: cmd.Y},
		{X: cmd.X + cmd.Width, Y: cmd.Y + cmd.Height},
		{X: cmd.X, Y: cmd.Y + cmd.Height},
	}
}

func (s *sketcher) moveTo(p document.Point) {
	x, y := s.m.TransformPoint(p.X, p.Y)
	s.dc.MoveTo(x, y)
}

func (s *sketcher) lineTo(p document.Point) {
	x, y := s.m.TransformPoint(p.X, p.Y)
	s.dc.LineTo(x, y)
}

func (s *sketcher) quadTo(c, p document.Point) {
	cx, cy := s.m.TransformPoint(c.X, c.Y)
	x, y := s.m.TransformPoint(p.X, p.Y)
	s.dc.QuadraticTo(cx, cy, x, y)
}

func offset(rng *rand.Rand, limit float64) float64 {
	return (rng.Float64()*2 - 1) * limit
}

// line strokes a to b twice, each pass with jittered ends and a slight bow.
// Jitter shrinks on short segments so small shapes stay legible.
func (s *sketcher) line(rng *rand.Rand, a, b document.Point) {
	length := math.Hypot(b.X-a.X, b.Y-a.Y)
	limit := math.Min(Roughness, length/10)
	bow := length * Bowing

	for pass := range 2 {
		spread := limit * float64(pass+1) / 2
		start := document.Point{X: a.X + offset(rng, spread), Y: a.Y + offset(rng, spread)}
		end := document.Point{X: b.X + offset(rng, spread), Y: b.Y + offset(rng, spread)}
		mid := document.Point{
			X: (start.X+end.X)/2 + offset(rng, bow+spread),
			Y: (start.Y+end.Y)/2 + offset(rng, bow+spread),
		}
		s.moveTo(start)
		s.quadTo(mid, end)
	}
}

func (s *sketcher) ellipse(rng *rand.Rand, cx, cy, rx, ry float64) {
	limit := math.Min(Roughness, math.Min(rx, ry)/10)
	for range 2 {
		start := rng.Float64() * 2 * math.Pi
		jrx := rx + offset(rng, limit)
		jry := ry + offset(rng, limit)
		// A little past a full turn so the stroke overlaps where it began.
		steps := ellipseSegments + 2
		for i := 0; i <= steps; i++ {
			a := start + 2*math.Pi*float64(i)/ellipseSegments
			p := document.Point{
				X: cx + jrx*math.Cos(a) + offset(rng, limit/3),
				Y: cy + jry*math.Sin(a) + offset(rng, limit/3),
			}
			if i == 0 {
				s.moveTo(p)
			} else {
				s.lineTo(p)
			}
		}
	}
}

func (s *sketcher) path(rng *rand.Rand, points []document.Point) {
	if len(points) == 1 {
		x, y := s.m.TransformPoint(points[0].X, points[0].Y)
		s.dc.DrawPoint(x, y, s.scale)
		return
	}
	limit := Roughness / 3
	for i, p := range points {
		p = document.Point{X: p.X + offset(rng, limit), Y: p.Y + offset(rng, limit)}
		if i == 0 {
			s.moveTo(p)
		} else {
			s.lineTo(p)
		}
	}
}

// text draws at the element's top-left corner. gg places text in pixel
// space, so the position and size are transformed here.
func (s *sketcher) text(cmd engine.DrawCommand) error {
	if s.fonts == nil {
		return nil
	}
	face := s.fonts.Face(cmd.FontSize * s.scale)
	x, y := s.m.TransformPoint(cmd.X, cmd.Y)
	s.dc.SetFont(face)
	s.dc.DrawString(cmd.Text, x, y+face.Metrics().Ascent)
	return nil
}
