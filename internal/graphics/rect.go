package graphics

import "fmt"

// Rect is a rectangle in texels with a top-left origin.
type Rect struct {
	X, Y, W, H uint32
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d, %d, %d, %d]", r.X, r.Y, r.W, r.H)
}

// Contains reports whether inner fits entirely inside r: its top-left
// corner is not above or left of r's, and its bottom-right corner is not
// below or right of r's.
func (r Rect) Contains(inner Rect) bool {
	return inner.X >= r.X && inner.Y >= r.Y &&
		uint64(inner.X)+uint64(inner.W) <= uint64(r.X)+uint64(r.W) &&
		uint64(inner.Y)+uint64(inner.H) <= uint64(r.Y)+uint64(r.H)
}

// Offset translates r by the position of origin.
func (r Rect) Offset(origin Rect) Rect {
	return Rect{X: r.X + origin.X, Y: r.Y + origin.Y, W: r.W, H: r.H}
}

func (r Rect) area() int { return int(r.W) * int(r.H) }
