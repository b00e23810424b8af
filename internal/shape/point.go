package shape

import "fmt"

// Point is a single location. In geo contexts X is the longitude and Y the
// latitude, both in degrees.
type Point struct {
	x, y float64
}

func newPoint(x, y float64) Point { return Point{x: x, y: y} }

// X returns the x coordinate (longitude for geo).
func (p Point) X() float64 { return p.x }

// Y returns the y coordinate (latitude for geo).
func (p Point) Y() float64 { return p.y }

// Equal reports whether both coordinates match exactly.
func (p Point) Equal(o Point) bool { return p.x == o.x && p.y == o.y }

func (p Point) String() string {
	return fmt.Sprintf("Pt(x=%v,y=%v)", p.x, p.y)
}

// BoundingBox returns the degenerate rectangle at the point.
func (p Point) BoundingBox() Rectangle { return newRect(p.x, p.x, p.y, p.y) }

// HasArea is always false.
func (p Point) HasArea() bool { return false }

// Center returns the point itself.
func (p Point) Center() Point { return p }

// Area is always zero.
func (p Point) Area(*Context) float64 { return 0 }

// Relate returns Contains for an equal point and Disjoint for any other
// point. Larger shapes decide the relation and it is transposed.
func (p Point) Relate(other Shape, ctx *Context) Relation {
	if o, ok := value(other).(Point); ok {
		if p.Equal(o) {
			return Contains
		}
		return Disjoint
	}
	return other.Relate(p, ctx).Transpose()
}

func (Point) isShape() {}
