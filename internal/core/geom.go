// Package core provides fundamental types and utilities shared by the simulation,
// the transport and the terminal client. It has no external dependencies to keep
// game logic pure and testable.
package core

// Box is an axis-aligned bounding box in field (pixel) coordinates.
type Box struct {
	X, Y float64 // Top-left corner
	W, H float64
}

// CenteredBox builds a box horizontally centered on cx with its top edge at top.
// Players, bullets and enemies all anchor their hitboxes this way.
func CenteredBox(cx, top, w, h float64) Box {
	return Box{X: cx - w/2, Y: top, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (b Box) Right() float64 {
	return b.X + b.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (b Box) Bottom() float64 {
	return b.Y + b.H
}

// Intersects reports whether two boxes overlap. Touching edges do not count.
func (b Box) Intersects(other Box) bool {
	return b.X < other.Right() && b.Right() > other.X &&
		b.Y < other.Bottom() && b.Bottom() > other.Y
}

// Rect is an integer rectangle in screen cells, used by the terminal renderer.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Contains returns true if the point (x, y) is inside this rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Clamp restricts a value to be within [lo, hi].
func Clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// ClampF restricts a float64 value to be within [lo, hi].
func ClampF(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
