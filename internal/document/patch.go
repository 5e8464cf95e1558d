package document

import "slices"

// Patch is a partial field update for an Element. Nil fields are left
// unchanged. Id and Kind cannot be patched.
type Patch struct {
	X1     *float64 `json:"x1,omitempty"`
	Y1     *float64 `json:"y1,omitempty"`
	X2     *float64 `json:"x2,omitempty"`
	Y2     *float64 `json:"y2,omitempty"`
	Points []Point  `json:"points,omitempty"`
	Text   *string  `json:"text,omitempty"`
}

// F returns a pointer to v, for building patches inline.
func F(v float64) *float64 { return &v }

// S returns a pointer to s.
func S(s string) *string { return &s }

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.X1 == nil && p.Y1 == nil && p.X2 == nil && p.Y2 == nil && p.Points == nil && p.Text == nil
}

// Apply returns a copy of e with the patch merged in. The returned element
// owns its Points slice.
func (p Patch) Apply(e Element) Element {
	out := e
	if p.X1 != nil {
		out.X1 = *p.X1
	}
	if p.Y1 != nil {
		out.Y1 = *p.Y1
	}
	if p.X2 != nil {
		out.X2 = *p.X2
	}
	if p.Y2 != nil {
		out.Y2 = *p.Y2
	}
	if p.Points != nil {
		out.Points = slices.Clone(p.Points)
	}
	if p.Text != nil {
		out.Text = *p.Text
	}
	return out
}

// Validate rejects non-finite values in the patch.
func (p Patch) Validate() error {
	for _, v := range [...]*float64{p.X1, p.Y1, p.X2, p.Y2} {
		if v != nil && !Finite(*v) {
			return ErrInvalidCoordinate
		}
	}
	for _, pt := range p.Points {
		if err := ValidatePoint(pt); err != nil {
			return err
		}
	}
	return nil
}
