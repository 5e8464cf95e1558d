package document

import "github.com/sketchboard/sketchboard/backend-go/internal/typeid"

// NewSampleBoard returns a small board exercising every element variant.
func NewSampleBoard(ownerID, ownerEmail string) *Board {
	b := NewEmptyBoard(typeid.NewBoardID(), "Sample board", "One of everything", ownerID, ownerEmail)

	// Ids are fixed so the sketch jitter of the sample never changes.
	b.Elements = []Element{
		{ID: 1, Kind: KindRectangle, X1: 80, Y1: 80, X2: 280, Y2: 200},
		{ID: 2, Kind: KindEllipse, X1: 340, Y1: 80, X2: 520, Y2: 220},
		{ID: 3, Kind: KindLine, X1: 80, Y1: 280, X2: 280, Y2: 340},
		{ID: 4, Kind: KindArrow, X1: 340, Y1: 300, X2: 520, Y2: 300},
		{
			ID: 5, Kind: KindFreehand, X1: 80, Y1: 380, X2: 200, Y2: 430,
			Points: []Point{{X: 80, Y: 400}, {X: 110, Y: 380}, {X: 150, Y: 430}, {X: 200, Y: 390}},
		},
		{ID: 6, Kind: KindText, X1: 340, Y1: 380, X2: 460, Y2: 404, Text: "Hello", FontSize: DefaultFontSize},
	}
	return b
}
