package shape

import (
	"math"

	"github.com/cockroachdb/errors"

	"spatialprefix/internal/distance"
)

// Calculator measures distances and derives distance based geometry. Planar
// calculators work in coordinate units. Geodesic calculators treat
// coordinates as degrees on a sphere and return distances in arc degrees.
type Calculator interface {
	// Name identifies the formula, e.g. "haversine".
	Name() string
	// Geo reports whether the calculator works on a sphere.
	Geo() bool

	Distance(from, to Point) float64
	DistanceXY(from Point, x, y float64) float64
	// WithinDistance reports whether (x, y) lies within dist of from.
	WithinDistance(from Point, x, y, dist float64) bool
	// DistanceToRectangle is the shortest distance from the point to any
	// point of the rectangle, zero when the point is inside.
	DistanceToRectangle(from Point, r Rectangle) float64

	// PointOnBearing moves distDeg from the start point in the direction of
	// bearingDeg, clockwise from north.
	PointOnBearing(from Point, distDeg, bearingDeg float64, ctx *Context) (Point, error)
	// CalcBoxByDistFromPt is the bounding box of the circle of radius
	// distDeg around from.
	CalcBoxByDistFromPt(from Point, distDeg float64, ctx *Context) (Rectangle, error)

	AreaOfRectangle(r Rectangle) float64
	AreaOfCircle(c Circle) float64

	// DistanceToDegrees converts kilometers to arc degrees.
	DistanceToDegrees(km float64) (float64, error)
	// DegreesToDistance converts arc degrees to kilometers.
	DegreesToDistance(deg float64) (float64, error)
}

// CartesianCalculator is the Euclidean calculator for planar contexts.
type CartesianCalculator struct {
	squared bool
}

// NewCartesianCalculator returns a Euclidean calculator. In squared mode
// Distance returns squared distances, which sort the same way and skip the
// square root; WithinDistance squares its threshold so radius tests are
// unaffected.
func NewCartesianCalculator(squared bool) *CartesianCalculator {
	return &CartesianCalculator{squared: squared}
}

// Name returns "cartesian" or "cartesian^2".
func (c *CartesianCalculator) Name() string {
	if c.squared {
		return "cartesian^2"
	}
	return "cartesian"
}

// Geo is always false.
func (c *CartesianCalculator) Geo() bool { return false }

// Squared reports whether distances are returned squared.
func (c *CartesianCalculator) Squared() bool { return c.squared }

func (c *CartesianCalculator) Distance(from, to Point) float64 {
	return c.DistanceXY(from, to.x, to.y)
}

func (c *CartesianCalculator) DistanceXY(from Point, x, y float64) float64 {
	d2 := distance.DistSquaredCartesian(from.x, from.y, x, y)
	if c.squared {
		return d2
	}
	return math.Sqrt(d2)
}

func (c *CartesianCalculator) WithinDistance(from Point, x, y, dist float64) bool {
	d2 := distance.DistSquaredCartesian(from.x, from.y, x, y)
	return d2 <= dist*dist
}

func (c *CartesianCalculator) DistanceToRectangle(from Point, r Rectangle) float64 {
	dx := math.Max(0, math.Max(r.minX-from.x, from.x-r.maxX))
	dy := math.Max(0, math.Max(r.minY-from.y, from.y-r.maxY))
	if c.squared {
		return dx*dx + dy*dy
	}
	return math.Hypot(dx, dy)
}

// PointOnBearing fails with ErrInvalidShape when the result leaves the world
// bounds.
func (c *CartesianCalculator) PointOnBearing(from Point, distDeg, bearingDeg float64, ctx *Context) (Point, error) {
	if distDeg == 0 {
		return from, nil
	}
	sin, cos := math.Sincos(distance.ToRadians(bearingDeg))
	return ctx.MakePoint(from.x+distDeg*sin, from.y+distDeg*cos)
}

// CalcBoxByDistFromPt clips the box to the world bounds.
func (c *CartesianCalculator) CalcBoxByDistFromPt(from Point, distDeg float64, ctx *Context) (Rectangle, error) {
	if distDeg < 0 || math.IsNaN(distDeg) {
		return Rectangle{}, errors.Wrapf(ErrInvalidShape, "distance %v", distDeg)
	}
	w := ctx.world
	return newRect(
		math.Max(from.x-distDeg, w.minX),
		math.Min(from.x+distDeg, w.maxX),
		math.Max(from.y-distDeg, w.minY),
		math.Min(from.y+distDeg, w.maxY),
	), nil
}

func (c *CartesianCalculator) AreaOfRectangle(r Rectangle) float64 {
	return r.Width() * r.Height()
}

func (c *CartesianCalculator) AreaOfCircle(circle Circle) float64 {
	return math.Pi * circle.radius * circle.radius
}

// DistanceToDegrees is not defined for planar coordinates.
func (c *CartesianCalculator) DistanceToDegrees(float64) (float64, error) {
	return 0, errors.Wrap(ErrUnsupportedOperation, "cartesian distances have no degree equivalent")
}

// DegreesToDistance is not defined for planar coordinates.
func (c *CartesianCalculator) DegreesToDistance(float64) (float64, error) {
	return 0, errors.Wrap(ErrUnsupportedOperation, "cartesian distances have no degree equivalent")
}
