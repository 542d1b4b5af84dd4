package surface

import (
	"fmt"
	"image"
	"math"
)

// Point is a position in slide coordinates (pixels, unscaled).
type Point struct {
	X, Y float64
}

// Rect is an axis aligned box in slide coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Empty reports whether the box has no area. NaN sizes count as empty.
func (r Rect) Empty() bool {
	return !(r.W > 0) || !(r.H > 0)
}

// Area returns box area, zero for empty boxes.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.W * r.H
}

// Contains reports whether p lies inside the box, right and bottom edges excluded.
func (r Rect) Contains(p Point) bool {
	if r.Empty() {
		return false
	}
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Image converts box to integer image rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.W)), int(math.Ceil(r.Y+r.H)),
	)
}

// Inset shrinks box by d on every side.
func (r Rect) Inset(d float64) Rect {
	r.X, r.Y = r.X+d, r.Y+d
	r.W, r.H = max(0, r.W-2*d), max(0, r.H-2*d)
	return r
}

func (r Rect) String() string {
	return fmt.Sprintf("[%.0f,%.0f %.0fx%.0f]", r.X, r.Y, r.W, r.H)
}

// Geometry describes target surface size.
type Geometry struct {
	Width  int
	Height int
}

// Valid reports whether geometry can be rendered.
func (g Geometry) Valid() bool {
	return g.Width > 0 && g.Height > 0
}

// Bounds returns full surface box.
func (g Geometry) Bounds() Rect {
	return Rect{W: float64(g.Width), H: float64(g.Height)}
}
