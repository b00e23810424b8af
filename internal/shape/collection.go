package shape

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Collection is an ordered list of shapes of any kind. Its bounding box is
// the union of the members' boxes.
type Collection struct {
	shapes []Shape
	bbox   Rectangle
}

// Len returns the number of members.
func (c Collection) Len() int { return len(c.shapes) }

// At returns the i-th member.
func (c Collection) At(i int) Shape { return c.shapes[i] }

// Shapes returns a copy of the members.
func (c Collection) Shapes() []Shape {
	out := make([]Shape, len(c.shapes))
	copy(out, c.shapes)
	return out
}

func (c Collection) String() string {
	parts := make([]string, len(c.shapes))
	for i, s := range c.shapes {
		parts[i] = fmt.Sprint(s)
	}
	return "Collection(" + strings.Join(parts, ", ") + ")"
}

// BoundingBox returns the union of the members' bounding boxes.
func (c Collection) BoundingBox() Rectangle { return c.bbox }

// HasArea reports whether any member has area.
func (c Collection) HasArea() bool {
	for _, s := range c.shapes {
		if s.HasArea() {
			return true
		}
	}
	return false
}

// Center returns the centre of the bounding box.
func (c Collection) Center() Point { return c.bbox.Center() }

// Area sums the members' areas. Overlapping members are counted twice.
func (c Collection) Area(ctx *Context) float64 {
	var sum float64
	for _, s := range c.shapes {
		sum += s.Area(ctx)
	}
	return sum
}

// Relate checks the bounding box first, which settles Disjoint and Within.
// Otherwise the members' relations are combined in order, stopping at the
// first member that contains the other shape.
func (c Collection) Relate(other Shape, ctx *Context) Relation {
	other = value(other)
	bboxRel := c.bbox.Relate(other, ctx)
	if bboxRel == Disjoint || bboxRel == Within {
		return bboxRel
	}

	var rel Relation
	for i, s := range c.shapes {
		next := s.Relate(other, ctx)
		if next == Contains {
			return Contains
		}
		if i == 0 {
			rel = next
		} else {
			rel = rel.Combine(next)
		}
	}
	return rel
}

func (Collection) isShape() {}

// unionBoxes returns the smallest rectangle covering all boxes. In geo mode
// the longitudes are treated as arcs on a circle: the result spans everything
// except the widest longitude gap that no box touches.
func unionBoxes(boxes []Rectangle, geo bool) Rectangle {
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, b := range boxes {
		minY = math.Min(minY, b.minY)
		maxY = math.Max(maxY, b.maxY)
	}
	if !geo {
		minX, maxX := math.Inf(1), math.Inf(-1)
		for _, b := range boxes {
			minX = math.Min(minX, b.minX)
			maxX = math.Max(maxX, b.maxX)
		}
		return newRect(minX, maxX, minY, maxY)
	}
	minX, maxX := unionLongitudes(boxes)
	return newRect(minX, maxX, minY, maxY)
}

type arc struct{ start, end float64 }

func unionLongitudes(boxes []Rectangle) (minX, maxX float64) {
	// split dateline crossings so every arc lies within [-180, 180]
	arcs := make([]arc, 0, len(boxes)+1)
	for _, b := range boxes {
		if b.Width() >= 360 {
			return -180, 180
		}
		if b.CrossesDateline() {
			arcs = append(arcs, arc{b.minX, 180}, arc{-180, b.maxX})
		} else {
			arcs = append(arcs, arc{b.minX, b.maxX})
		}
	}
	sort.Slice(arcs, func(i, j int) bool { return arcs[i].start < arcs[j].start })

	merged := []arc{arcs[0]}
	for _, a := range arcs[1:] {
		last := &merged[len(merged)-1]
		if a.start <= last.end {
			last.end = math.Max(last.end, a.end)
			continue
		}
		merged = append(merged, a)
	}

	// the gap around the dateline keeps the result from crossing it, so it
	// wins ties
	n := len(merged)
	bestGap := (merged[0].start + 180) + (180 - merged[n-1].end)
	minX, maxX = merged[0].start, merged[n-1].end
	for i := 1; i < n; i++ {
		if gap := merged[i].start - merged[i-1].end; gap > bestGap {
			bestGap = gap
			minX, maxX = merged[i].start, merged[i-1].end
		}
	}
	if bestGap <= 0 {
		return -180, 180
	}
	return minX, maxX
}
