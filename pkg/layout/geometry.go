package layout

import "math"

// Point is a planar location in chart coordinates. The depth axis grows
// downward in vertical orientation (rightward in horizontal orientation).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical span of the rectangle.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// union grows r to include other.
func (r Rect) union(other Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, other.MinX),
		MinY: math.Min(r.MinY, other.MinY),
		MaxX: math.Max(r.MaxX, other.MaxX),
		MaxY: math.Max(r.MaxY, other.MaxY),
	}
}

// overlaps reports whether two rectangles share interior area.
// Touching edges do not count as overlap.
func (r Rect) overlaps(other Rect) bool {
	return r.MinX < other.MaxX && other.MinX < r.MaxX &&
		r.MinY < other.MaxY && other.MinY < r.MaxY
}

// transpose swaps the axes, converting between vertical and horizontal
// orientation coordinates.
func (p Point) transpose() Point { return Point{X: p.Y, Y: p.X} }
