// Package shape is the geometry model: points, axis-aligned rectangles that
// may cross the dateline, circles and collections of shapes, together with
// the relation algebra between them and the distance calculators.
//
// Shapes are immutable values. They are created through a *Context, which
// validates coordinates against the context's world bounds and remembers
// whether coordinates are planar or geographic (degrees on a sphere).
//
// Go Learning Note (Sealed Interfaces):
// Shape has an unexported method, so only types in this package can satisfy
// it. That turns the interface into a closed sum type: a type switch over
// Point, Rectangle, Circle and Collection is exhaustive, and Relate can do
// double dispatch without reflection or an open-ended registry.
package shape

// Shape is implemented by Point, Rectangle, Circle and Collection only.
type Shape interface {
	// BoundingBox is the smallest rectangle holding the shape. For geo shapes
	// it may cross the dateline.
	BoundingBox() Rectangle
	// HasArea is false for points and for degenerate rectangles and circles.
	HasArea() bool
	// Center is the centre of the shape, or of its bounding box for
	// collections.
	Center() Point
	// Area uses the context's calculator, in square degrees for geo contexts.
	Area(ctx *Context) float64
	// Relate classifies how the receiver relates to other.
	Relate(other Shape, ctx *Context) Relation

	isShape()
}

// value turns pointers to shapes into plain values so the type switches in
// Relate only have to list the value types.
func value(s Shape) Shape {
	switch v := s.(type) {
	case *Point:
		return *v
	case *Rectangle:
		return *v
	case *Circle:
		return *v
	case *Collection:
		return *v
	default:
		return s
	}
}
