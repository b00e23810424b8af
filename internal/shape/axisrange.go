package shape

// axisRange is one axis of a rectangle. wraps is only ever set for geo
// longitudes with min > max, which run east from min through 180 to max.
type axisRange struct {
	min, max float64
	wraps    bool
}

func (a axisRange) width() float64 {
	w := a.max - a.min
	if a.wraps {
		w += 360
	}
	return w
}

// relateIntervals classifies the interval [extMin, extMax] from the point of
// view of [min, max]. Equal intervals are Contains.
func relateIntervals(min, max, extMin, extMax float64) Relation {
	if extMin > max || extMax < min {
		return Disjoint
	}
	if extMin >= min && extMax <= max {
		return Contains
	}
	if extMin <= min && extMax >= max {
		return Within
	}
	return Intersects
}

// relateLonRanges classifies ext against r on the longitude circle. Both
// ranges are unrolled so max = min + width, then the one lying entirely west
// of the other is rotated by 360 so the two can be compared as plain
// intervals.
func relateLonRanges(r, ext axisRange) Relation {
	rw, extW := r.width(), ext.width()
	switch {
	case rw >= 360:
		return Contains
	case extW >= 360:
		return Within
	}

	min, max := r.min, r.min+rw
	extMin, extMax := ext.min, ext.min+extW
	if max < extMin {
		min += 360
		max += 360
	} else if extMax < min {
		extMin += 360
		extMax += 360
	}
	return relateIntervals(min, max, extMin, extMax)
}
