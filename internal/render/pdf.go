package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/engine"
)

// PDF writes the export crop of a board as a single vector page sized to
// the crop, one point per editor unit. Strokes are drawn straight.
func (r *Renderer) PDF(w io.Writer, elements []document.Element, viewW, viewH float64) error {
	if err := checkKinds(elements, "pdf"); err != nil {
		return err
	}
	commands, err := engine.CompileDrawCommands(elements, 0)
	if err != nil {
		return err
	}
	crop := Crop(elements, viewW, viewH)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: crop.Width(), Ht: crop.Height()},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	dx, dy := -crop.MinX, -crop.MinY
	for _, cmd := range commands {
		red, green, blue := hexRGB(cmd.Stroke)
		pdf.SetDrawColor(red, green, blue)
		pdf.SetLineWidth(cmd.StrokeWidth)

		switch cmd.Op {
		case engine.OpRectangle:
			pdf.Rect(cmd.X+dx, cmd.Y+dy, cmd.Width, cmd.Height, "D")
		case engine.OpEllipse:
			pdf.Ellipse(cmd.X+cmd.Width/2+dx, cmd.Y+cmd.Height/2+dy, cmd.Width/2, cmd.Height/2, 0, "D")
		case engine.OpLine:
			pdf.Line(cmd.Points[0].X+dx, cmd.Points[0].Y+dy, cmd.Points[1].X+dx, cmd.Points[1].Y+dy)
		case engine.OpArrow:
			pdf.Line(cmd.Points[0].X+dx, cmd.Points[0].Y+dy, cmd.Points[1].X+dx, cmd.Points[1].Y+dy)
			pdf.MoveTo(cmd.Head[0].X+dx, cmd.Head[0].Y+dy)
			pdf.LineTo(cmd.Head[1].X+dx, cmd.Head[1].Y+dy)
			pdf.LineTo(cmd.Head[2].X+dx, cmd.Head[2].Y+dy)
			pdf.DrawPath("D")
		case engine.OpPath:
			pdf.MoveTo(cmd.Points[0].X+dx, cmd.Points[0].Y+dy)
			for _, p := range cmd.Points[1:] {
				pdf.LineTo(p.X+dx, p.Y+dy)
			}
			pdf.DrawPath("D")
		case engine.OpText:
			red, green, blue := hexRGB(cmd.Stroke)
			pdf.SetTextColor(red, green, blue)
			pdf.SetFont("Helvetica", "", cmd.FontSize)
			// Text takes a baseline; the element stores its top edge.
			pdf.Text(cmd.X+dx, cmd.Y+dy+cmd.FontSize*0.8, tr(cmd.Text))
		default:
			return fmt.Errorf("render pdf: unknown draw op %q", cmd.Op)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// hexRGB parses a #rrggbb color. Malformed input yields black.
func hexRGB(hex string) (int, int, int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
