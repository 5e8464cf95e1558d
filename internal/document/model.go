package document

import (
	"encoding/json"
	"time"
)

// Kind is the discriminant of an Element. The values double as the names of
// the drawing tools that create them.
type Kind string

const (
	KindRectangle Kind = "RECTANGLE"
	KindEllipse   Kind = "ELLIPSE"
	KindLine      Kind = "LINE"
	KindArrow     Kind = "ARROW"
	KindFreehand  Kind = "PENCIL"
	KindText      Kind = "TEXT"
)

// Kinds lists every element variant in declaration order.
var Kinds = []Kind{KindRectangle, KindEllipse, KindLine, KindArrow, KindFreehand, KindText}

// Valid reports whether k names a known element variant.
func (k Kind) Valid() bool {
	switch k {
	case KindRectangle, KindEllipse, KindLine, KindArrow, KindFreehand, KindText:
		return true
	}
	return false
}

// IsBox reports whether the variant is drawn from a bounding box and must be
// normalized on commit.
func (k Kind) IsBox() bool {
	return k == KindRectangle || k == KindEllipse
}

// IsSegment reports whether the variant is a two-point segment.
func (k Kind) IsSegment() bool {
	return k == KindLine || k == KindArrow
}

// DefaultFontSize is the font size of a freshly created text element.
const DefaultFontSize = 24

// Point is a position in editor space (before pan and zoom).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Element is one drawable shape. Kind selects which of the optional fields
// are meaningful:
//
//   - Rectangle, Ellipse, Line, Arrow: only the anchors.
//   - Freehand: Points, with the anchors caching the point cloud's bounds.
//   - Text: Text and FontSize.
//
// Elements are values. Code that changes an element builds a new one and
// never writes through a Points slice it did not allocate.
type Element struct {
	ID       int64   `json:"id"`
	Kind     Kind    `json:"kind"`
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	X2       float64 `json:"x2"`
	Y2       float64 `json:"y2"`
	Points   []Point `json:"points,omitempty"`
	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
}

// UnmarshalJSON accepts both the current "kind" discriminant and the legacy
// "type" key written by older clients.
func (e *Element) UnmarshalJSON(data []byte) error {
	type plain Element
	var aux struct {
		plain
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Element(aux.plain)
	if e.Kind == "" {
		e.Kind = aux.Type
	}
	return nil
}

// Board is the persisted unit: an ordered element list plus dashboard
// metadata.
type Board struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Thumbnail     string    `json:"thumbnail"`
	Elements      []Element `json:"elements"`
	OwnerID       string    `json:"ownerId"`
	OwnerEmail    string    `json:"ownerEmail"`
	Collaborators []string  `json:"collaborators"`
	IsPublic      bool      `json:"isPublic"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BoardMetadata is the dashboard listing view of a board.
type BoardMetadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Thumbnail    string    `json:"thumbnail"`
	OwnerID      string    `json:"ownerId"`
	OwnerEmail   string    `json:"ownerEmail"`
	IsPublic     bool      `json:"isPublic"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	ElementCount int       `json:"elementCount"`
}

// Metadata returns the listing view of b.
func (b *Board) Metadata() BoardMetadata {
	return BoardMetadata{
		ID:           b.ID,
		Name:         b.Name,
		Description:  b.Description,
		Thumbnail:    b.Thumbnail,
		OwnerID:      b.OwnerID,
		OwnerEmail:   b.OwnerEmail,
		IsPublic:     b.IsPublic,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
		ElementCount: len(b.Elements),
	}
}

// NewEmptyBoard creates an empty board for a new dashboard entry.
func NewEmptyBoard(boardID, name, description, ownerID, ownerEmail string) *Board {
	now := time.Now().UTC()
	return &Board{
		ID:            boardID,
		Name:          name,
		Description:   description,
		Elements:      []Element{},
		OwnerID:       ownerID,
		OwnerEmail:    ownerEmail,
		Collaborators: []string{},
		IsPublic:      false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
