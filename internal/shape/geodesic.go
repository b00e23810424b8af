package shape

import (
	"math"

	"github.com/cockroachdb/errors"

	"spatialprefix/internal/distance"
)

// earthRadiusDeg is the radius of the sphere measured in degrees, so areas
// come out in square degrees.
var earthRadiusDeg = distance.ToDegrees(1)

// GeodesicCalculator measures great-circle distances on a sphere. The
// haversine, law of cosines and Vincenty calculators differ only in the
// central angle formula.
type GeodesicCalculator struct {
	name    string
	formula func(lat1, lon1, lat2, lon2 float64) float64
}

// NewHaversineCalculator returns the default geo calculator. It is
// numerically stable at every distance.
func NewHaversineCalculator() *GeodesicCalculator {
	return &GeodesicCalculator{name: "haversine", formula: distance.DistHaversineRAD}
}

// NewLawOfCosinesCalculator is cheaper than haversine but loses precision
// for tiny and for nearly antipodal distances.
func NewLawOfCosinesCalculator() *GeodesicCalculator {
	return &GeodesicCalculator{name: "lawOfCosines", formula: distance.DistLawOfCosinesRAD}
}

// NewVincentyCalculator uses the sphere case of the Vincenty formula.
func NewVincentyCalculator() *GeodesicCalculator {
	return &GeodesicCalculator{name: "vincentySphere", formula: distance.DistVincentyRAD}
}

// CalculatorByName returns the calculator for one of "haversine",
// "lawOfCosines", "vincentySphere", "cartesian" or "cartesian^2".
func CalculatorByName(name string) (Calculator, error) {
	switch name {
	case "haversine", "":
		return NewHaversineCalculator(), nil
	case "lawOfCosines":
		return NewLawOfCosinesCalculator(), nil
	case "vincentySphere", "vincenty":
		return NewVincentyCalculator(), nil
	case "cartesian":
		return NewCartesianCalculator(false), nil
	case "cartesian^2":
		return NewCartesianCalculator(true), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedOperation, "unknown distance calculator %q", name)
	}
}

// Name returns the formula name.
func (g *GeodesicCalculator) Name() string { return g.name }

// Geo is always true.
func (g *GeodesicCalculator) Geo() bool { return true }

func (g *GeodesicCalculator) Distance(from, to Point) float64 {
	return g.DistanceXY(from, to.x, to.y)
}

func (g *GeodesicCalculator) DistanceXY(from Point, x, y float64) float64 {
	rad := g.formula(
		distance.ToRadians(from.y), distance.ToRadians(from.x),
		distance.ToRadians(y), distance.ToRadians(x),
	)
	return distance.ToDegrees(rad)
}

func (g *GeodesicCalculator) WithinDistance(from Point, x, y, dist float64) bool {
	return g.DistanceXY(from, x, y) <= dist
}

func (g *GeodesicCalculator) DistanceToRectangle(from Point, r Rectangle) float64 {
	if r.containsPoint(from.x, from.y, true) {
		return 0
	}
	rad := distance.PointRectDistRAD(
		distance.ToRadians(from.y), distance.ToRadians(from.x),
		distance.ToRadians(r.minY), distance.ToRadians(r.minX),
		distance.ToRadians(r.maxY), distance.ToRadians(r.maxX),
	)
	return distance.ToDegrees(rad)
}

// PointOnBearing always lands on the sphere, so it never fails for valid
// input.
func (g *GeodesicCalculator) PointOnBearing(from Point, distDeg, bearingDeg float64, ctx *Context) (Point, error) {
	if math.IsNaN(distDeg) || math.IsNaN(bearingDeg) {
		return Point{}, errors.Wrapf(ErrInvalidShape, "distance %v bearing %v", distDeg, bearingDeg)
	}
	if distDeg == 0 {
		return from, nil
	}
	lat, lon := distance.PointOnBearingRAD(
		distance.ToRadians(from.y), distance.ToRadians(from.x),
		distance.ToRadians(distDeg), distance.ToRadians(bearingDeg),
	)
	return newPoint(
		distance.NormLonDEG(distance.ToDegrees(lon)),
		math.Max(-90, math.Min(90, distance.ToDegrees(lat))),
	), nil
}

func (g *GeodesicCalculator) CalcBoxByDistFromPt(from Point, distDeg float64, ctx *Context) (Rectangle, error) {
	if distDeg < 0 || math.IsNaN(distDeg) {
		return Rectangle{}, errors.Wrapf(ErrInvalidShape, "distance %v", distDeg)
	}
	minX, maxX, minY, maxY := distance.CalcBoxByDistFromPtDEG(from.y, from.x, distDeg)
	return geoRect(minX, maxX, minY, maxY), nil
}

// AreaOfRectangle is the area of the spherical zone slice in square degrees.
func (g *GeodesicCalculator) AreaOfRectangle(r Rectangle) float64 {
	lat1 := distance.ToRadians(r.minY)
	lat2 := distance.ToRadians(r.maxY)
	return (math.Pi / 180) * earthRadiusDeg * earthRadiusDeg * math.Abs(math.Sin(lat1)-math.Sin(lat2)) * r.Width()
}

// AreaOfCircle is the area of the spherical cap in square degrees.
func (g *GeodesicCalculator) AreaOfCircle(c Circle) float64 {
	return 2 * math.Pi * earthRadiusDeg * earthRadiusDeg * (1 - math.Cos(distance.ToRadians(c.radius)))
}

// DistanceToDegrees converts kilometers on the mean earth sphere.
func (g *GeodesicCalculator) DistanceToDegrees(km float64) (float64, error) {
	return distance.KmToDegrees(km), nil
}

// DegreesToDistance converts to kilometers on the mean earth sphere.
func (g *GeodesicCalculator) DegreesToDistance(deg float64) (float64, error) {
	return distance.DegreesToKm(deg), nil
}

// geoRect builds a rectangle, keeping an edge that lies on the dateline from
// turning a normal rectangle into one that crosses it.
func geoRect(minX, maxX, minY, maxY float64) Rectangle {
	if minX != maxX {
		if minX == 180 {
			minX = -180
		} else if maxX == -180 {
			maxX = 180
		}
	}
	return newRect(minX, maxX, minY, maxY)
}
