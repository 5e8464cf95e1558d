// Package render rasterizes boards: PNG exports, thumbnails, PDF exports
// and views of the editor canvas.
package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"math"

	"github.com/gogpu/gg"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/engine"
	"github.com/sketchboard/sketchboard/backend-go/internal/geometry"
)

const (
	ExportPadding    = 20.0
	ThumbnailWidth   = 200
	ThumbnailHeight  = 150
	ThumbnailQuality = 80
	// MaxExportSide caps either side of a raster export, in pixels.
	MaxExportSide = 8192
)

// Renderer turns element lists into images.
type Renderer struct {
	fonts *Fonts
}

// NewRenderer returns a renderer drawing text with fonts. A nil fonts skips
// text.
func NewRenderer(fonts *Fonts) *Renderer {
	return &Renderer{fonts: fonts}
}

// Crop returns the exported region: the union of effective bounds grown by
// ExportPadding. An empty board exports a viewW x viewH area from the origin.
func Crop(elements []document.Element, viewW, viewH float64) geometry.Bounds {
	b, ok := geometry.BoundsOf(elements)
	if !ok {
		b = geometry.Bounds{MaxX: viewW, MaxY: viewH}
	}
	return b.Expand(ExportPadding)
}

func pixelSize(v float64) int {
	return max(1, min(MaxExportSide, int(math.Ceil(v))))
}

// Canvas draws elements onto a new white canvas of w x h pixels through m,
// which maps editor space to pixels. The selected element gets its overlay.
func (r *Renderer) Canvas(elements []document.Element, selectedID int64, m engine.Matrix2D, w, h int) (*gg.Context, error) {
	commands, err := engine.CompileDrawCommands(elements, selectedID)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(w, h)
	dc.ClearWithColor(gg.White)
	if err := newSketcher(dc, m, r.fonts).Draw(commands); err != nil {
		return nil, fmt.Errorf("draw board: %w", err)
	}
	return dc, nil
}

// checkKinds returns the error Crop would otherwise panic with.
func checkKinds(elements []document.Element, op string) error {
	for _, e := range elements {
		if !e.Kind.Valid() {
			return &document.UnknownKindError{Kind: e.Kind, Op: op}
		}
	}
	return nil
}

// ExportCanvas draws the export crop of a board at 1:1 scale.
func (r *Renderer) ExportCanvas(elements []document.Element, viewW, viewH float64) (*gg.Context, error) {
	if err := checkKinds(elements, "export canvas"); err != nil {
		return nil, err
	}
	crop := Crop(elements, viewW, viewH)
	m := engine.Translate(-crop.MinX, -crop.MinY)
	return r.Canvas(elements, 0, m, pixelSize(crop.Width()), pixelSize(crop.Height()))
}

// PNG writes the export crop of a board as PNG.
func (r *Renderer) PNG(w io.Writer, elements []document.Element, viewW, viewH float64) error {
	dc, err := r.ExportCanvas(elements, viewW, viewH)
	if err != nil {
		return err
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// View writes what the editor shows through a viewport, selection included.
func (r *Renderer) View(w io.Writer, elements []document.Element, selectedID int64, v engine.Viewport) error {
	dc, err := r.Canvas(elements, selectedID, v.Matrix(), pixelSize(v.Width), pixelSize(v.Height))
	if err != nil {
		return err
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// ThumbnailTransform fits the export crop into the thumbnail, keeping its
// aspect ratio and centering it.
func ThumbnailTransform(crop geometry.Bounds) engine.Matrix2D {
	scale := math.Min(ThumbnailWidth/crop.Width(), ThumbnailHeight/crop.Height())
	offX := (ThumbnailWidth - crop.Width()*scale) / 2
	offY := (ThumbnailHeight - crop.Height()*scale) / 2
	return engine.Translate(offX, offY).
		Multiply(engine.Scale(scale, scale)).
		Multiply(engine.Translate(-crop.MinX, -crop.MinY))
}

// Thumbnail writes a JPEG dashboard preview of a board.
func (r *Renderer) Thumbnail(w io.Writer, elements []document.Element) error {
	if err := checkKinds(elements, "thumbnail"); err != nil {
		return err
	}
	crop := Crop(elements, engine.DefaultViewW, engine.DefaultViewH)
	dc, err := r.Canvas(elements, 0, ThumbnailTransform(crop), ThumbnailWidth, ThumbnailHeight)
	if err != nil {
		return err
	}
	if err := dc.EncodeJPEG(w, ThumbnailQuality); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return nil
}

// ThumbnailDataURL returns the thumbnail as a data URL, the form stored in
// Board.Thumbnail.
func (r *Renderer) ThumbnailDataURL(elements []document.Element) (string, error) {
	var buf bytes.Buffer
	if err := r.Thumbnail(&buf, elements); err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
