// Package geometry provides basic geometric types used throughout the application.
package geometry

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRectInt creates a new RectInt.
func NewRectInt(x, y, width, height int) RectInt {
	return RectInt{X: x, Y: y, Width: width, Height: height}
}

// Right returns the exclusive right edge coordinate.
func (r RectInt) Right() int {
	return r.X + r.Width
}

// Bottom returns the exclusive bottom edge coordinate.
func (r RectInt) Bottom() int {
	return r.Y + r.Height
}

// Area returns the rectangle area in pixels.
func (r RectInt) Area() int {
	return r.Width * r.Height
}

// CenterX returns the horizontal center coordinate.
func (r RectInt) CenterX() int {
	return r.X + r.Width/2
}

// CenterY returns the vertical center coordinate.
func (r RectInt) CenterY() int {
	return r.Y + r.Height/2
}

// VerticalOverlap returns the length of the overlap of the two rectangles'
// vertical spans, or 0 if the spans are disjoint.
func (r RectInt) VerticalOverlap(other RectInt) int {
	top := max(r.Y, other.Y)
	bottom := min(r.Bottom(), other.Bottom())
	if bottom <= top {
		return 0
	}
	return bottom - top
}

// HorizontalOverlap returns the length of the overlap of the two rectangles'
// horizontal spans, or 0 if the spans are disjoint.
func (r RectInt) HorizontalOverlap(other RectInt) int {
	left := max(r.X, other.X)
	right := min(r.Right(), other.Right())
	if right <= left {
		return 0
	}
	return right - left
}

// Union returns the smallest rectangle containing both rectangles.
func (r RectInt) Union(other RectInt) RectInt {
	x := min(r.X, other.X)
	y := min(r.Y, other.Y)
	right := max(r.Right(), other.Right())
	bottom := max(r.Bottom(), other.Bottom())
	return RectInt{X: x, Y: y, Width: right - x, Height: bottom - y}
}
