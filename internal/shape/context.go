package shape

import (
	"math"

	"github.com/cockroachdb/errors"

	"spatialprefix/internal/distance"
)

// Bounds are the world bounds of a context.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// GeoBounds are the only bounds a geo context accepts.
var GeoBounds = Bounds{MinX: -180, MaxX: 180, MinY: -90, MaxY: 90}

// ContextOptions configure NewContext. The zero value is a planar context
// over the full float64 range with the cartesian calculator.
type ContextOptions struct {
	Geo bool
	// WorldBounds defaults to GeoBounds for geo and to +/-math.MaxFloat64
	// for planar contexts.
	WorldBounds *Bounds
	// Calculator defaults to haversine for geo and cartesian for planar.
	// Its Geo() must match Geo.
	Calculator Calculator
	// NormWrapLongitude wraps out of range geo x values into [-180, 180]
	// instead of rejecting them.
	NormWrapLongitude bool
}

// Context holds the immutable settings shared by every shape of a process:
// geo or planar coordinates, the world bounds and the distance calculator.
// It is the only way to build validated shapes. A Context is safe for
// concurrent use.
type Context struct {
	geo         bool
	world       Rectangle
	calc        Calculator
	exact       Calculator
	normWrapLon bool
}

// NewContext validates the options and builds a context.
func NewContext(opts ContextOptions) (*Context, error) {
	ctx := &Context{geo: opts.Geo, normWrapLon: opts.NormWrapLongitude}

	bounds := Bounds{MinX: -math.MaxFloat64, MaxX: math.MaxFloat64, MinY: -math.MaxFloat64, MaxY: math.MaxFloat64}
	if opts.Geo {
		bounds = GeoBounds
	}
	if opts.WorldBounds != nil {
		b := *opts.WorldBounds
		if opts.Geo && b != GeoBounds {
			return nil, errors.Wrapf(ErrUnsupportedOperation, "geo contexts use fixed world bounds, got %+v", b)
		}
		if anyNaN(b.MinX, b.MaxX, b.MinY, b.MaxY) || b.MinX > b.MaxX || b.MinY > b.MaxY {
			return nil, errors.Wrapf(ErrInvalidShape, "world bounds %+v", b)
		}
		bounds = b
	}
	ctx.world = newRect(bounds.MinX, bounds.MaxX, bounds.MinY, bounds.MaxY)

	calc := opts.Calculator
	if calc == nil {
		if opts.Geo {
			calc = NewHaversineCalculator()
		} else {
			calc = NewCartesianCalculator(false)
		}
	}
	if calc.Geo() != opts.Geo {
		return nil, errors.Wrapf(ErrUnsupportedOperation, "calculator %s does not fit a geo=%v context", calc.Name(), opts.Geo)
	}
	ctx.calc = calc
	ctx.exact = calc
	if cc, ok := calc.(*CartesianCalculator); ok && cc.squared {
		// relations compare real distances with radii
		ctx.exact = NewCartesianCalculator(false)
	}
	return ctx, nil
}

// NewGeoContext returns a geo context with the haversine calculator.
func NewGeoContext() *Context {
	ctx, err := NewContext(ContextOptions{Geo: true})
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "default geo context"))
	}
	return ctx
}

// IsGeo reports whether coordinates are degrees on a sphere.
func (c *Context) IsGeo() bool { return c.geo }

// WorldBounds returns the world rectangle.
func (c *Context) WorldBounds() Rectangle { return c.world }

// Calculator returns the configured calculator.
func (c *Context) Calculator() Calculator { return c.calc }

// NormWrapLongitude reports whether out of range longitudes are wrapped.
func (c *Context) NormWrapLongitude() bool { return c.normWrapLon }

// Distance is the true (never squared) distance between two points.
func (c *Context) Distance(from, to Point) float64 { return c.exact.Distance(from, to) }

// DistanceXY is the true distance from a point to (x, y).
func (c *Context) DistanceXY(from Point, x, y float64) float64 { return c.exact.DistanceXY(from, x, y) }

// DistanceToRectangle is the true distance from a point to a rectangle.
func (c *Context) DistanceToRectangle(from Point, r Rectangle) float64 {
	return c.exact.DistanceToRectangle(from, r)
}

// MakePoint validates and returns a point.
func (c *Context) MakePoint(x, y float64) (Point, error) {
	x, err := c.verifyX(x)
	if err != nil {
		return Point{}, err
	}
	if err := c.verifyY(y); err != nil {
		return Point{}, err
	}
	return newPoint(x, y), nil
}

// MakeRectangle validates and returns a rectangle. In geo contexts
// minX > maxX makes a rectangle that crosses the dateline; an edge on the
// dateline itself is moved to the side that avoids crossing.
func (c *Context) MakeRectangle(minX, maxX, minY, maxY float64) (Rectangle, error) {
	minX, err := c.verifyX(minX)
	if err != nil {
		return Rectangle{}, err
	}
	if maxX, err = c.verifyX(maxX); err != nil {
		return Rectangle{}, err
	}
	if err := c.verifyY(minY); err != nil {
		return Rectangle{}, err
	}
	if err := c.verifyY(maxY); err != nil {
		return Rectangle{}, err
	}
	if minY > maxY {
		return Rectangle{}, errors.Wrapf(ErrInvalidShape, "minY %v > maxY %v", minY, maxY)
	}
	if c.geo {
		return geoRect(minX, maxX, minY, maxY), nil
	}
	if minX > maxX {
		return Rectangle{}, errors.Wrapf(ErrInvalidShape, "minX %v > maxX %v", minX, maxX)
	}
	return newRect(minX, maxX, minY, maxY), nil
}

// MustMakeRectangle is MakeRectangle for coordinates known to be valid. It
// panics otherwise.
func (c *Context) MustMakeRectangle(minX, maxX, minY, maxY float64) Rectangle {
	r, err := c.MakeRectangle(minX, maxX, minY, maxY)
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "rectangle"))
	}
	return r
}

// MakeCircle validates the radius and computes the bounding box. Geo radii
// are arc degrees and may not exceed 180.
func (c *Context) MakeCircle(center Point, radius float64) (Circle, error) {
	if _, err := c.MakePoint(center.x, center.y); err != nil {
		return Circle{}, err
	}
	if math.IsNaN(radius) || radius < 0 {
		return Circle{}, errors.Wrapf(ErrInvalidShape, "radius %v", radius)
	}
	if c.geo && radius > 180 {
		return Circle{}, errors.Wrapf(ErrInvalidShape, "radius %v exceeds 180 degrees", radius)
	}
	bbox, err := c.calc.CalcBoxByDistFromPt(center, radius, c)
	if err != nil {
		return Circle{}, err
	}
	return Circle{center: center, radius: radius, bbox: bbox}, nil
}

// MakeCircleXY is MakeCircle with the centre given as coordinates.
func (c *Context) MakeCircleXY(x, y, radius float64) (Circle, error) {
	p, err := c.MakePoint(x, y)
	if err != nil {
		return Circle{}, err
	}
	return c.MakeCircle(p, radius)
}

// MakeCollection returns a collection of at least one shape. Pointers to
// shapes are stored as values.
func (c *Context) MakeCollection(shapes ...Shape) (Collection, error) {
	if len(shapes) == 0 {
		return Collection{}, errors.Wrap(ErrInvalidShape, "empty collection")
	}
	members := make([]Shape, len(shapes))
	boxes := make([]Rectangle, len(shapes))
	for i, s := range shapes {
		if s == nil {
			return Collection{}, errors.Wrapf(ErrInvalidShape, "collection member %d is nil", i)
		}
		members[i] = value(s)
		boxes[i] = members[i].BoundingBox()
	}
	return Collection{shapes: members, bbox: unionBoxes(boxes, c.geo)}, nil
}

func (c *Context) verifyX(x float64) (float64, error) {
	if math.IsNaN(x) {
		return 0, errors.Wrap(ErrInvalidShape, "x is NaN")
	}
	if c.geo && c.normWrapLon {
		x = distance.NormLonDEG(x)
	}
	if x < c.world.minX || x > c.world.maxX {
		return 0, errors.Wrapf(ErrInvalidShape, "x %v out of bounds [%v, %v]", x, c.world.minX, c.world.maxX)
	}
	return x, nil
}

func (c *Context) verifyY(y float64) error {
	if math.IsNaN(y) {
		return errors.Wrap(ErrInvalidShape, "y is NaN")
	}
	if y < c.world.minY || y > c.world.maxY {
		return errors.Wrapf(ErrInvalidShape, "y %v out of bounds [%v, %v]", y, c.world.minY, c.world.maxY)
	}
	return nil
}

func anyNaN(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
