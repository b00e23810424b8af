// Package distance holds the raw spherical and planar math behind the shape
// calculators: great-circle formulas in radians, bearings, bounding-box
// deltas and the conversions between arc degrees and kilometers.
//
// Everything here works on plain float64 coordinates so it can be used
// without a shape.Context. Latitude/longitude arguments ending in RAD are in
// radians; DEG means degrees.
//
// Go Learning Note (Package-level Functions):
// Go has no static methods. Stateless math like this is written as plain
// exported functions in a small package, which keeps call sites short
// (distance.DistHaversineRAD(...)) and makes the functions trivial to test.
package distance

import "math"

const (
	// EarthMeanRadiusKm is the mean earth radius (IUGG) used to convert
	// between arc distance and kilometers.
	EarthMeanRadiusKm = 6371.0087714
	// EarthEquatorialRadiusKm is the WGS84 equatorial radius.
	EarthEquatorialRadiusKm = 6378.1370

	// DegToKm is the length in km of one arc degree on the mean sphere.
	DegToKm = EarthMeanRadiusKm * math.Pi / 180
	// KmToDeg is the number of arc degrees spanned by one km.
	KmToDeg = 1 / DegToKm
)

// ToRadians converts degrees to radians.
func ToRadians(deg float64) float64 { return deg * (math.Pi / 180) }

// ToDegrees converts radians to degrees.
func ToDegrees(rad float64) float64 { return rad * (180 / math.Pi) }

// DistHaversineRAD returns the central angle between two points using the
// haversine formula. It is numerically well conditioned at every distance.
func DistHaversineRAD(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}
	hsinY := math.Sin((lat1 - lat2) * 0.5)
	hsinX := math.Sin((lon1 - lon2) * 0.5)
	h := hsinY*hsinY + math.Cos(lat1)*math.Cos(lat2)*hsinX*hsinX
	if h > 1 {
		h = 1
	}
	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DistLawOfCosinesRAD returns the central angle using the spherical law of
// cosines. Cheaper than haversine but loses precision for very small and
// nearly antipodal distances.
func DistLawOfCosinesRAD(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}
	cosB := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(lon2-lon1)
	// rounding can push the cosine just outside [-1, 1]
	if cosB <= -1 {
		return math.Pi
	}
	if cosB >= 1 {
		return 0
	}
	return math.Acos(cosB)
}

// DistVincentyRAD returns the central angle using the special case of the
// Vincenty formula for a sphere. It is accurate at all distances, including
// antipodal points.
func DistVincentyRAD(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}
	sinLat1, cosLat1 := math.Sincos(lat1)
	sinLat2, cosLat2 := math.Sincos(lat2)
	sinDLon, cosDLon := math.Sincos(lon2 - lon1)

	a := cosLat2 * sinDLon
	b := cosLat1*sinLat2 - sinLat1*cosLat2*cosDLon
	c := sinLat1*sinLat2 + cosLat1*cosLat2*cosDLon
	return math.Atan2(math.Sqrt(a*a+b*b), c)
}

// DistCartesian is the Euclidean distance between two planar points.
func DistCartesian(x1, y1, x2, y2 float64) float64 {
	return math.Sqrt(DistSquaredCartesian(x1, y1, x2, y2))
}

// DistSquaredCartesian is the squared Euclidean distance. It preserves the
// ordering of DistCartesian, so it is enough for sorting and radius tests.
func DistSquaredCartesian(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx + dy*dy
}

// Dist2Degrees converts a distance measured on a sphere of the given radius
// into arc degrees.
func Dist2Degrees(dist, radius float64) float64 {
	return ToDegrees(dist / radius)
}

// Degrees2Dist converts arc degrees into a distance on a sphere of the given
// radius.
func Degrees2Dist(deg, radius float64) float64 {
	return ToRadians(deg) * radius
}

// KmToDegrees converts kilometers on the mean earth sphere to arc degrees.
func KmToDegrees(km float64) float64 { return Dist2Degrees(km, EarthMeanRadiusKm) }

// DegreesToKm converts arc degrees to kilometers on the mean earth sphere.
func DegreesToKm(deg float64) float64 { return Degrees2Dist(deg, EarthMeanRadiusKm) }

// HaversineKm is the great-circle distance in kilometers between two
// latitude/longitude pairs given in degrees.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := DistHaversineRAD(ToRadians(lat1), ToRadians(lon1), ToRadians(lat2), ToRadians(lon2))
	return rad * EarthMeanRadiusKm
}

// PointOnBearingRAD returns the point reached by travelling distRAD along a
// great circle from the start point with the initial bearing (clockwise from
// north). The returned longitude is normalized to [-PI, PI].
func PointOnBearingRAD(startLat, startLon, distRAD, bearingRAD float64) (lat, lon float64) {
	sinAngDist, cosAngDist := math.Sincos(distRAD)
	sinStartLat, cosStartLat := math.Sincos(startLat)

	sinLat2 := sinStartLat*cosAngDist + cosStartLat*sinAngDist*math.Cos(bearingRAD)
	lat = math.Asin(sinLat2)
	lon = startLon + math.Atan2(math.Sin(bearingRAD)*sinAngDist*cosStartLat, cosAngDist-sinStartLat*sinLat2)

	if lon > math.Pi {
		lon -= 2 * math.Pi
	} else if lon < -math.Pi {
		lon += 2 * math.Pi
	}
	return lat, lon
}

// NormLonDEG wraps a longitude into [-180, 180].
func NormLonDEG(lonDeg float64) float64 {
	if lonDeg >= -180 && lonDeg <= 180 {
		return lonDeg
	}
	off := math.Mod(lonDeg+180, 360)
	if off < 0 {
		return 180 + off
	}
	if off == 0 && lonDeg > 0 {
		return 180
	}
	return -180 + off
}

// NormLatDEG folds a latitude back into [-90, 90] as if travelling over the
// pole.
func NormLatDEG(latDeg float64) float64 {
	if latDeg >= -90 && latDeg <= 90 {
		return latDeg
	}
	off := math.Abs(math.Mod(latDeg+90, 360))
	if off <= 180 {
		return off - 90
	}
	return 360 - off - 90
}

// CalcBoxDeltaLonDEG returns the longitude half-width of the bounding box of
// a circle of radius distDEG centred at latitude lat. It returns 90 when the
// formula is undefined, which only happens when the circle reaches a pole.
func CalcBoxDeltaLonDEG(lat, distDEG float64) float64 {
	if distDEG == 0 {
		return 0
	}
	latRad := ToRadians(lat)
	distRad := ToRadians(distDEG)
	result := math.Asin(math.Sin(distRad) / math.Cos(latRad))
	if math.IsNaN(result) {
		return 90
	}
	return ToDegrees(result)
}

// CalcBoxByDistFromPtDEG returns the bounding box (in degrees) of a
// spherical circle. When the circle encloses a pole the box spans every
// longitude; minX > maxX in the result means the box crosses the dateline.
func CalcBoxByDistFromPtDEG(lat, lon, distDEG float64) (minX, maxX, minY, maxY float64) {
	switch {
	case distDEG == 0:
		return lon, lon, lat, lat
	case distDEG >= 180:
		return -180, 180, -90, 90
	}

	maxY = lat + distDEG
	minY = lat - distDEG
	if maxY >= 90 || minY <= -90 {
		// touches a pole: every longitude is covered
		minX, maxX = -180, 180
		if maxY <= 90 && minY >= -90 {
			// reaches a pole exactly without passing it: 180 degrees suffice
			minX = NormLonDEG(lon - 90)
			maxX = NormLonDEG(lon + 90)
		}
		maxY = math.Min(maxY, 90)
		minY = math.Max(minY, -90)
		return minX, maxX, minY, maxY
	}

	delta := CalcBoxDeltaLonDEG(lat, distDEG)
	return NormLonDEG(lon - delta), NormLonDEG(lon + delta), minY, maxY
}

// lonWithinRAD reports whether lon lies in [west, east], where west > east
// means the range crosses the antimeridian.
func lonWithinRAD(lon, west, east float64) bool {
	if west <= east {
		return west <= lon && lon <= east
	}
	return lon >= west || lon <= east
}

// PointRectDistRAD is the minimum great-circle angle from point q to the
// latitude/longitude rectangle [latLo, latHi] x [lonLo, lonHi]. lonLo > lonHi
// means the rectangle crosses the antimeridian.
//
// Algorithm from Schubert, Zimek & Kriegel (2013), "Geodetic Distance
// Queries on R-Trees for Indexing Geographic Data".
func PointRectDistRAD(latQ, lonQ, latLo, lonLo, latHi, lonHi float64) float64 {
	const (
		twoPi  = 2 * math.Pi
		halfPi = math.Pi / 2
	)

	if latLo == latHi && lonLo == lonHi {
		return DistHaversineRAD(latQ, lonQ, latLo, lonLo)
	}

	if lonWithinRAD(lonQ, lonLo, lonHi) {
		// between the bounding meridians: north, south or inside
		switch {
		case latQ < latLo:
			return latLo - latQ
		case latQ > latHi:
			return latQ - latHi
		default:
			return 0
		}
	}

	// pick the closer of the two bounding meridians
	dLonE := lonLo - lonQ
	dLonW := lonQ - lonHi
	if dLonE < 0 {
		dLonE += twoPi
	}
	if dLonW < 0 {
		dLonW += twoPi
	}
	dLon, lonEdge := dLonE, lonLo
	if dLonW < dLonE {
		dLon, lonEdge = dLonW, lonHi
	}

	sinDLon, cosDLon := math.Sincos(dLon)
	tanLatQ := math.Tan(latQ)

	if dLon >= halfPi {
		// in one of the corner regions; the centre line decides which
		mid := (latHi + latLo) / 2
		if tanLatQ >= math.Tan(mid)*cosDLon {
			return DistHaversineRAD(latQ, lonQ, latHi, lonEdge)
		}
		return DistHaversineRAD(latQ, lonQ, latLo, lonEdge)
	}
	if tanLatQ >= math.Tan(latHi)*cosDLon {
		return DistHaversineRAD(latQ, lonQ, latHi, lonEdge)
	}
	if tanLatQ <= math.Tan(latLo)*cosDLon {
		return DistHaversineRAD(latQ, lonQ, latLo, lonEdge)
	}
	// cross-track distance to the meridian
	return math.Asin(math.Cos(latQ) * sinDLon)
}
