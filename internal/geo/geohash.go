// Package geo implements the geohash codec: encoding latitude/longitude pairs
// into base-32 strings, decoding them back to cells, and the cell size tables
// used to pick a precision from an acceptable error distance.
//
// Go Learning Note (What is a Geohash?):
// A geohash is a way to encode a latitude/longitude pair into a short string.
// The key property is that nearby locations share a common prefix. For example,
// two points 100m apart might both start with "9q8yyk", while a point 10km away
// might start with "9q8yz". This lets you use string prefix matching for fast
// proximity searches instead of computing distances between all pairs.
//
// Precision determines the cell size:
//
//	1 → ~5000 km    4 → ~39 km     7 → ~153 m    10 → ~1.2 m
//	2 → ~1250 km    5 → ~5 km      8 → ~19 m     11 → ~15 cm
//	3 → ~156 km     6 → ~1.2 km    9 → ~2.4 m    12 → ~1.9 cm
//
// Beyond 12 characters the cells shrink below floating point noise for most
// inputs; 24 is accepted for symmetry with the geohash prefix grid.
//
// Decode is lenient: characters outside the base-32 alphabet are skipped, so
// "ezs42!" decodes like "ezs42". Callers holding untrusted input use
// DecodeBoundary or Valid, which reject such hashes with ErrInvalidHash.
package geo

import (
	"strings"

	"github.com/cockroachdb/errors"

	"spatialprefix/internal/distance"
)

// base32 is the geohash character set (32 characters). Note that 'a', 'i',
// 'l', and 'o' are excluded to avoid confusion with digits 0/1.
const (
	base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

	// MaxPrecision is the longest geohash this package produces.
	MaxPrecision = 24
	// DefaultPrecision is used by EncodeLatLon and by Encode when the
	// requested precision is not positive.
	DefaultPrecision = 12
)

// ErrInvalidHash is returned for empty strings, strings longer than
// MaxPrecision and strings with characters outside the alphabet.
var ErrInvalidHash = errors.New("invalid geohash")

var (
	base32Map = map[byte]int{}

	// cell sizes in degrees indexed by hash length; index 0 is the world
	hashLenToLatHeight [MaxPrecision + 1]float64
	hashLenToLonWidth  [MaxPrecision + 1]float64
)

// init() runs automatically when the package is first imported, before main().
//
// Go Learning Note (init() Functions):
// Every Go package can have one or more init() functions. They run once, in
// dependency order, when the program starts. Common uses: building lookup tables,
// registering plugins, and validating configuration. Here we pre-compute a
// reverse lookup map from base32 characters to their index positions, and the
// cell size of every hash length. Each character adds 5 bits; odd lengths
// spend 3 of them on longitude, even lengths 3 on latitude.
func init() {
	for i := 0; i < len(base32); i++ {
		base32Map[base32[i]] = i
	}

	hashLenToLatHeight[0] = 180
	hashLenToLonWidth[0] = 360
	even := false
	for i := 1; i <= MaxPrecision; i++ {
		if even {
			hashLenToLatHeight[i] = hashLenToLatHeight[i-1] / 8
			hashLenToLonWidth[i] = hashLenToLonWidth[i-1] / 4
		} else {
			hashLenToLatHeight[i] = hashLenToLatHeight[i-1] / 4
			hashLenToLonWidth[i] = hashLenToLonWidth[i-1] / 8
		}
		even = !even
	}
}

// Box is the cell a geohash denotes.
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Center returns the middle of the cell.
func (b Box) Center() (lat, lon float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLon + b.MaxLon) / 2
}

// Encode converts latitude and longitude to a geohash string with given precision.
// Precision above MaxPrecision is capped; zero or negative precision means
// DefaultPrecision.
//
// Algorithm overview (binary interleaving):
//  1. Start with the full range: lat [-90, 90], lon [-180, 180]
//  2. Alternate between longitude (even bits) and latitude (odd bits)
//  3. For each step, bisect the range and set bit=1 if value >= midpoint
//  4. Every 5 bits are encoded as one base32 character
//
// Go Learning Note (strings.Builder):
// strings.Builder is the idiomatic way to efficiently build strings in Go.
// It minimizes memory allocations by using an internal byte buffer. Never
// build strings with repeated concatenation (s += "x") in a loop; that creates
// a new string (and allocation) each iteration because Go strings are immutable.
func Encode(lat, lon float64, precision int) string {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	if precision > MaxPrecision {
		precision = MaxPrecision
	}

	minLat, maxLat := -90.0, 90.0
	minLon, maxLon := -180.0, 180.0

	var hash strings.Builder
	hash.Grow(precision)
	isEven := true
	bit := 0
	ch := 0

	for hash.Len() < precision {
		if isEven {
			mid := (minLon + maxLon) / 2
			if lon >= mid {
				ch |= 1 << (4 - bit)
				minLon = mid
			} else {
				maxLon = mid
			}
		} else {
			mid := (minLat + maxLat) / 2
			if lat >= mid {
				ch |= 1 << (4 - bit)
				minLat = mid
			} else {
				maxLat = mid
			}
		}
		isEven = !isEven
		bit++
		if bit == 5 {
			hash.WriteByte(base32[ch])
			bit = 0
			ch = 0
		}
	}

	return hash.String()
}

// EncodeLatLon encodes with DefaultPrecision.
func EncodeLatLon(lat, lon float64) string {
	return Encode(lat, lon, DefaultPrecision)
}

// Decode converts a geohash string back to the center latitude and longitude
// of the encoded cell. The result is within half a cell of every point that
// encodes to hash. Characters outside the alphabet are skipped; use
// DecodeBoundary to reject them.
//
// Go Learning Note (Named Return Values):
// The signature `(lat, lon float64)` uses named return values. This serves as
// documentation (the caller knows which float64 is latitude vs longitude) and
// allows a bare `return` statement at the end.
func Decode(hash string) (lat, lon float64) {
	box, _ := decodeBox(hash, false)
	lat, lon = box.Center()
	return
}

// DecodeBoundary returns the cell of a valid geohash.
func DecodeBoundary(hash string) (Box, error) {
	if hash == "" {
		return Box{}, errors.Wrap(ErrInvalidHash, "empty hash")
	}
	if len(hash) > MaxPrecision {
		return Box{}, errors.Wrapf(ErrInvalidHash, "%q is longer than %d characters", hash, MaxPrecision)
	}
	return decodeBox(hash, true)
}

// decodeBox recovers the bounding box by replaying the binary subdivision.
func decodeBox(hash string, strict bool) (Box, error) {
	box := Box{MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180}
	isEven := true

	for i := 0; i < len(hash); i++ {
		cd, ok := base32Map[hash[i]]
		if !ok {
			if strict {
				return Box{}, errors.Wrapf(ErrInvalidHash, "%q has invalid character %q at %d", hash, hash[i], i)
			}
			continue
		}
		for j := 4; j >= 0; j-- {
			bit := (cd >> j) & 1
			if isEven {
				mid := (box.MinLon + box.MaxLon) / 2
				if bit == 1 {
					box.MinLon = mid
				} else {
					box.MaxLon = mid
				}
			} else {
				mid := (box.MinLat + box.MaxLat) / 2
				if bit == 1 {
					box.MinLat = mid
				} else {
					box.MaxLat = mid
				}
			}
			isEven = !isEven
		}
	}
	return box, nil
}

// Valid reports whether hash is a non-empty geohash of at most MaxPrecision
// characters from the alphabet.
func Valid(hash string) bool {
	_, err := DecodeBoundary(hash)
	return err == nil
}

// DecodeError returns the maximum distance in degrees between a decoded
// centre and any point of its cell.
func DecodeError(hashLen int) (latErr, lonErr float64) {
	lat, lon := LookupDegreesSizeForHashLen(hashLen)
	return lat / 2, lon / 2
}

// LookupDegreesSizeForHashLen returns the cell height and width in degrees
// for a hash of the given length, clamped to [0, MaxPrecision].
func LookupDegreesSizeForHashLen(hashLen int) (latDeg, lonDeg float64) {
	if hashLen < 0 {
		hashLen = 0
	}
	if hashLen > MaxPrecision {
		hashLen = MaxPrecision
	}
	return hashLenToLatHeight[hashLen], hashLenToLonWidth[hashLen]
}

// LookupHashLenForWidthHeight returns the shortest hash length whose cells
// are smaller than lonErr wide and latErr high, or MaxPrecision when no
// length is fine enough.
func LookupHashLenForWidthHeight(lonErr, latErr float64) int {
	for n := 1; n < MaxPrecision; n++ {
		if hashLenToLatHeight[n] < latErr && hashLenToLonWidth[n] < lonErr {
			return n
		}
	}
	return MaxPrecision
}

// SubHashes returns the 32 child cells of hash in alphabet order.
func SubHashes(hash string) []string {
	subs := make([]string, len(base32))
	for i := 0; i < len(base32); i++ {
		subs[i] = hash + string(base32[i])
	}
	return subs
}

// Neighbor returns the geohash of the adjacent cell in the specified direction
// ("n", "s", "e", "w"), at the same length. Longitude wraps around the
// dateline; there is no cell beyond a pole, so hash itself is returned there.
// Invalid hashes and unknown directions give "".
func Neighbor(hash string, direction string) string {
	hash = strings.ToLower(hash)
	box, err := DecodeBoundary(hash)
	if err != nil {
		return ""
	}

	lat, lon := box.Center()
	height := box.MaxLat - box.MinLat
	width := box.MaxLon - box.MinLon
	switch direction {
	case "n":
		lat += height
	case "s":
		lat -= height
	case "e":
		lon += width
	case "w":
		lon -= width
	default:
		return ""
	}
	if lat > 90 || lat < -90 {
		return hash
	}
	return Encode(lat, distance.NormLonDEG(lon), len(hash))
}

// AllNeighbors returns all 8 neighboring geohashes plus the center (9 total),
// a 3x3 block of cells around hash. Diagonal neighbors (NE, NW, SE, SW) are
// computed by chaining two Neighbor calls.
func AllNeighbors(hash string) []string {
	return []string{
		hash,
		Neighbor(hash, "n"),
		Neighbor(hash, "s"),
		Neighbor(hash, "e"),
		Neighbor(hash, "w"),
		Neighbor(Neighbor(hash, "n"), "e"),
		Neighbor(Neighbor(hash, "n"), "w"),
		Neighbor(Neighbor(hash, "s"), "e"),
		Neighbor(Neighbor(hash, "s"), "w"),
	}
}
