package tree

// Rect is an axis-aligned rectangle in canvas coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Intersects reports whether two rectangles overlap. Touching edges count
// as an intersection so nodes on the viewport boundary are still fetched.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Viewport is the visible rectangular region of the canvas plus the zoom
// scalar, supplied continuously by the presentation layer. It is a
// read-only input to the enrichment controller.
type Viewport struct {
	Rect
	Zoom float64 `json:"zoom"`
}

// ExpandedBy grows the viewport rectangle by the given fraction on every
// side, pre-fetching just-offscreen nodes.
func (v Viewport) ExpandedBy(fraction float64) Rect {
	dx := v.Width * fraction
	dy := v.Height * fraction
	return Rect{
		X:      v.X - dx,
		Y:      v.Y - dy,
		Width:  v.Width + 2*dx,
		Height: v.Height + 2*dy,
	}
}
