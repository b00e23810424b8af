package shape

import (
	"fmt"
	"math"

	"spatialprefix/internal/distance"
)

// Circle is the set of points within Radius of Center, measured with the
// context's calculator. Geo radii are arc degrees. The bounding box is
// computed once by the context that made the circle.
type Circle struct {
	center Point
	radius float64
	bbox   Rectangle
}

// Center returns the centre point.
func (c Circle) Center() Point { return c.center }

// Radius returns the radius in the context's distance units.
func (c Circle) Radius() float64 { return c.radius }

// Equal reports whether centre and radius match exactly.
func (c Circle) Equal(o Circle) bool { return c.center.Equal(o.center) && c.radius == o.radius }

func (c Circle) String() string {
	return fmt.Sprintf("Circle(%v, d=%v)", c.center, c.radius)
}

// BoundingBox returns the precomputed box. On a sphere it widens towards the
// poles and spans every longitude when the circle reaches a pole.
func (c Circle) BoundingBox() Rectangle { return c.bbox }

// HasArea is false for a zero radius.
func (c Circle) HasArea() bool { return c.radius > 0 }

// Area uses the context's calculator.
func (c Circle) Area(ctx *Context) float64 { return ctx.calc.AreaOfCircle(c) }

// Relate handles points, rectangles and circles; collections decide and the
// answer is transposed.
func (c Circle) Relate(other Shape, ctx *Context) Relation {
	switch o := value(other).(type) {
	case Point:
		if ctx.exact.WithinDistance(c.center, o.x, o.y, c.radius) {
			return Contains
		}
		return Disjoint
	case Rectangle:
		return c.relateRect(o, ctx)
	case Circle:
		return c.relateCircle(o, ctx)
	default:
		return other.Relate(c, ctx).Transpose()
	}
}

func (Circle) isShape() {}

func (c Circle) relateRect(r Rectangle, ctx *Context) Relation {
	switch r.relateRect(c.bbox, ctx.geo) {
	case Disjoint:
		return Disjoint
	case Contains:
		// the rectangle holds the whole bounding box
		return Within
	}

	calc := ctx.exact
	if calc.DistanceToRectangle(c.center, r) > c.radius {
		return Disjoint
	}
	if c.farthestDistance(r, ctx) <= c.radius {
		return Contains
	}
	return Intersects
}

// farthestDistance returns the largest distance from the centre to any point
// of the rectangle.
func (c Circle) farthestDistance(r Rectangle, ctx *Context) float64 {
	calc := ctx.exact
	candidates := []Point{
		newPoint(r.minX, r.minY), newPoint(r.minX, r.maxY),
		newPoint(r.maxX, r.minY), newPoint(r.maxX, r.maxY),
	}
	if ctx.geo {
		candidates = append(candidates, sphereFarPoints(c.center, r)...)
	}
	var far float64
	for _, p := range candidates {
		far = math.Max(far, calc.Distance(c.center, p))
	}
	return far
}

// sphereFarPoints returns the points other than the corners where the
// distance from center to r can peak: on the parallels at the centre's
// antimeridian, in the interior of the bounding meridians, and the antipode.
func sphereFarPoints(center Point, r Rectangle) []Point {
	var pts []Point
	anti := distance.NormLonDEG(center.x + 180)
	antiLat := -center.y
	if r.containsPoint(anti, r.minY, true) {
		pts = append(pts, newPoint(anti, r.minY), newPoint(anti, r.maxY))
		if antiLat >= r.minY && antiLat <= r.maxY {
			pts = append(pts, newPoint(anti, antiLat))
		}
	}

	// along a meridian more than 90 degrees away the distance peaks at
	// atan(sin(latC) / (cos(latC) cos(dLon)))
	latC := distance.ToRadians(center.y)
	for _, lon := range []float64{r.minX, r.maxX} {
		cosDLon := math.Cos(distance.ToRadians(lon - center.x))
		b := math.Cos(latC) * cosDLon
		if b >= 0 {
			continue
		}
		lat := distance.ToDegrees(math.Atan(math.Sin(latC) / b))
		if lat > r.minY && lat < r.maxY {
			pts = append(pts, newPoint(lon, lat))
		}
	}
	return pts
}

func (c Circle) relateCircle(o Circle, ctx *Context) Relation {
	d := ctx.exact.Distance(c.center, o.center)
	switch {
	case d > c.radius+o.radius:
		return Disjoint
	case d+o.radius <= c.radius:
		return Contains
	case d+c.radius <= o.radius:
		return Within
	default:
		return Intersects
	}
}
