package render

import (
	"fmt"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// Fonts hands out cached faces of one font source. It satisfies
// engine.TextMeasurer so editor text boxes match exported text.
type Fonts struct {
	source *text.FontSource

	mu    sync.Mutex
	faces map[float64]text.Face
}

// LoadFonts reads a TTF/OTF file. An empty path selects the bundled Go
// Regular font.
func LoadFonts(path string) (*Fonts, error) {
	var (
		source *text.FontSource
		err    error
	)
	if path == "" {
		source, err = text.NewFontSource(goregular.TTF)
	} else {
		source, err = text.NewFontSourceFromFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load font %q: %w", path, err)
	}
	return &Fonts{source: source, faces: make(map[float64]text.Face)}, nil
}

// Face returns the face for a size in pixels.
func (f *Fonts) Face(size float64) text.Face {
	f.mu.Lock()
	defer f.mu.Unlock()
	face, ok := f.faces[size]
	if !ok {
		face = f.source.Face(size)
		f.faces[size] = face
	}
	return face
}

// MeasureText returns the advance of s and the font size as its height.
func (f *Fonts) MeasureText(s string, fontSize float64) (float64, float64) {
	if s == "" {
		return 0, fontSize
	}
	return f.Face(fontSize).Advance(s), fontSize
}
