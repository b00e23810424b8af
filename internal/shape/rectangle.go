package shape

import (
	"fmt"

	"spatialprefix/internal/distance"
)

// Rectangle is an axis-aligned box. MinY <= MaxY always holds. In geo
// contexts MinX > MaxX means the rectangle crosses the dateline, running
// east from MinX through 180 to MaxX.
type Rectangle struct {
	minX, maxX, minY, maxY float64
}

func newRect(minX, maxX, minY, maxY float64) Rectangle {
	return Rectangle{minX: minX, maxX: maxX, minY: minY, maxY: maxY}
}

// MinX returns the western edge.
func (r Rectangle) MinX() float64 { return r.minX }

// MaxX returns the eastern edge.
func (r Rectangle) MaxX() float64 { return r.maxX }

// MinY returns the southern edge.
func (r Rectangle) MinY() float64 { return r.minY }

// MaxY returns the northern edge.
func (r Rectangle) MaxY() float64 { return r.maxY }

// Width is MaxX-MinX, taken modulo 360 when the rectangle crosses the
// dateline.
func (r Rectangle) Width() float64 {
	w := r.maxX - r.minX
	if w < 0 {
		w += 360
	}
	return w
}

// Height is MaxY-MinY.
func (r Rectangle) Height() float64 { return r.maxY - r.minY }

// CrossesDateline reports whether the rectangle wraps around 180 degrees.
func (r Rectangle) CrossesDateline() bool { return r.minX > r.maxX }

// Equal reports whether all four edges match exactly.
func (r Rectangle) Equal(o Rectangle) bool {
	return r.minX == o.minX && r.maxX == o.maxX && r.minY == o.minY && r.maxY == o.maxY
}

func (r Rectangle) String() string {
	return fmt.Sprintf("Rect(minX=%v,maxX=%v,minY=%v,maxY=%v)", r.minX, r.maxX, r.minY, r.maxY)
}

// BoundingBox returns the rectangle itself.
func (r Rectangle) BoundingBox() Rectangle { return r }

// HasArea is false for rectangles that are a point or a line.
func (r Rectangle) HasArea() bool { return r.Width() > 0 && r.Height() > 0 }

// Center returns the middle of the rectangle, normalizing the longitude of
// rectangles that cross the dateline.
func (r Rectangle) Center() Point {
	y := (r.minY + r.maxY) / 2
	if !r.CrossesDateline() {
		return newPoint((r.minX+r.maxX)/2, y)
	}
	return newPoint(distance.NormLonDEG(r.minX+r.Width()/2), y)
}

// Area uses the context's calculator.
func (r Rectangle) Area(ctx *Context) float64 { return ctx.calc.AreaOfRectangle(r) }

// ContainsXY reports whether the point lies inside or on the edge of the
// rectangle.
func (r Rectangle) ContainsXY(x, y float64) bool {
	if y < r.minY || y > r.maxY {
		return false
	}
	if r.CrossesDateline() {
		// outside the gap between maxX and minX
		return !(x < r.minX && x > r.maxX)
	}
	return x >= r.minX && x <= r.maxX
}

// Intersects reports whether the rectangles share at least one point.
func (r Rectangle) Intersects(o Rectangle, ctx *Context) bool {
	return r.relateRect(o, ctx.geo).Intersects()
}

// Union returns the smallest rectangle covering both. In geo contexts the
// result may cross the dateline when that gives a narrower box.
func (r Rectangle) Union(o Rectangle, ctx *Context) Rectangle {
	return unionBoxes([]Rectangle{r, o}, ctx.geo)
}

// Relate handles points and rectangles itself; circles and collections
// decide and the answer is transposed.
func (r Rectangle) Relate(other Shape, ctx *Context) Relation {
	switch o := value(other).(type) {
	case Point:
		if r.containsPoint(o.x, o.y, ctx.geo) {
			return Contains
		}
		return Disjoint
	case Rectangle:
		return r.relateRect(o, ctx.geo)
	default:
		return other.Relate(r, ctx).Transpose()
	}
}

func (Rectangle) isShape() {}

func (r Rectangle) xRange(geo bool) axisRange {
	return axisRange{min: r.minX, max: r.maxX, wraps: geo && r.CrossesDateline()}
}

func (r Rectangle) containsPoint(x, y float64, geo bool) bool {
	if y < r.minY || y > r.maxY {
		return false
	}
	if !geo {
		return x >= r.minX && x <= r.maxX
	}
	// the rotated comparison treats -180 and 180 as the same meridian
	return relateLonRanges(r.xRange(true), axisRange{min: x, max: x}) != Disjoint
}

// relateRect compares both axes independently. Agreeing axes decide the
// result; an axis whose bounds match exactly defers to the other axis.
func (r Rectangle) relateRect(o Rectangle, geo bool) Relation {
	yRel := relateIntervals(r.minY, r.maxY, o.minY, o.maxY)
	if yRel == Disjoint {
		return Disjoint
	}
	var xRel Relation
	if geo {
		xRel = relateLonRanges(r.xRange(true), o.xRange(true))
	} else {
		xRel = relateIntervals(r.minX, r.maxX, o.minX, o.maxX)
	}
	if xRel == Disjoint {
		return Disjoint
	}
	if xRel == yRel {
		return xRel
	}
	if r.minY == o.minY && r.maxY == o.maxY {
		return xRel
	}
	if r.minX == o.minX && r.maxX == o.maxX || geo && r.Width() >= 360 && o.Width() >= 360 {
		return yRel
	}
	return Intersects
}
