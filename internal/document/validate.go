package document

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidCoordinate = errors.New("coordinate is not a finite number")
	ErrUnknownKind       = errors.New("unknown element kind")
	ErrDuplicateID       = errors.New("duplicate element id")
	ErrInvalidElement    = errors.New("invalid element")
)

// UnknownKindError is raised by code that dispatches over Kind and meets a
// variant it does not handle. It wraps ErrUnknownKind.
type UnknownKindError struct {
	Kind Kind
	Op   string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("%s: element kind %q not recognised", e.Op, e.Kind)
}

func (e *UnknownKindError) Unwrap() error { return ErrUnknownKind }

// Finite reports whether v is neither NaN nor an infinity.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidatePoint rejects non-finite coordinates.
func ValidatePoint(p Point) error {
	if !Finite(p.X) || !Finite(p.Y) {
		return fmt.Errorf("point (%v, %v): %w", p.X, p.Y, ErrInvalidCoordinate)
	}
	return nil
}

// Validate checks a single element received at a trust boundary.
func Validate(e Element) error {
	if !e.Kind.Valid() {
		return fmt.Errorf("element %d: %w: %q", e.ID, ErrUnknownKind, e.Kind)
	}
	if e.ID <= 0 {
		return fmt.Errorf("element id %d: %w", e.ID, ErrInvalidElement)
	}
	for _, v := range [...]float64{e.X1, e.Y1, e.X2, e.Y2} {
		if !Finite(v) {
			return fmt.Errorf("element %d: %w", e.ID, ErrInvalidCoordinate)
		}
	}

	switch e.Kind {
	case KindFreehand:
		if len(e.Points) == 0 {
			return fmt.Errorf("element %d: freehand stroke without points: %w", e.ID, ErrInvalidElement)
		}
		for _, p := range e.Points {
			if err := ValidatePoint(p); err != nil {
				return fmt.Errorf("element %d: %w", e.ID, err)
			}
		}
	case KindText:
		if !Finite(e.FontSize) || e.FontSize <= 0 {
			return fmt.Errorf("element %d: font size %v: %w", e.ID, e.FontSize, ErrInvalidElement)
		}
	}
	return nil
}

// ValidateElements checks every element and the uniqueness of ids.
func ValidateElements(elements []Element) error {
	seen := make(map[int64]struct{}, len(elements))
	for _, e := range elements {
		if err := Validate(e); err != nil {
			return err
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("element %d: %w", e.ID, ErrDuplicateID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}
