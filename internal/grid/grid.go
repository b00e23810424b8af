// Package grid decomposes shapes into hierarchical cells named by prefix
// strings. A token is the path from the world cell down to a cell, one
// character per level; a token's cell always lies inside the cells of its
// prefixes. Indexing a shape with Read yields the tokens to store in a term
// dictionary, and the filter package walks the same cells at query time.
//
// Two grids are provided: QuadGrid splits every cell into four quadrants
// named A (top-left), B (top-right), C (bottom-left) and D (bottom-right);
// GeohashGrid uses the 32 geohash children of each cell.
package grid

import (
	"math"
	"strings"

	"github.com/cockroachdb/errors"

	"spatialprefix/internal/shape"
)

// Token suffixes written by Read.
const (
	// CoverMarker marks a cell that lies entirely inside the shape.
	CoverMarker = '*'
	// DepthLimitedMarker marks a cell where decomposition stopped at the
	// maximum level without proving containment.
	DepthLimitedMarker = '-'
)

// ErrInvalidToken is returned for tokens with characters outside the grid
// alphabet or longer than the grid's maximum level.
var ErrInvalidToken = errors.New("invalid grid token")

// Grid is a hierarchy of cells over a context's world bounds. Implementations
// are immutable and safe for concurrent use.
type Grid interface {
	// Name is "quad" or "geohash".
	Name() string
	Context() *shape.Context
	Options() Options
	// MaxLevels is the deepest level; the world cell is level 0.
	MaxLevels() int

	WorldNode() Node
	// Node rebuilds the cell of a token. A trailing marker is ignored.
	Node(token string) (Node, error)
	// NodeForPoint returns the cell at level holding p.
	NodeForPoint(p shape.Point, level int) Node
	// SubNodes returns the children of n in token order, or nil at
	// MaxLevels.
	SubNodes(n Node) []Node

	// CellSize returns the width and height of cells at level.
	CellSize(level int) (w, h float64)
	// LevelForDistance returns the first level whose cells are smaller than
	// dist in both dimensions, or MaxLevels.
	LevelForDistance(dist float64) int
	// BBoxLevel is the first level whose cells are smaller than the shape's
	// bounding box in either dimension, or MaxLevels.
	BBoxLevel(s shape.Shape) int

	// Read decomposes s into tokens.
	Read(s shape.Shape) *MatchInfo
	// Nodes returns the cells at level that intersect s.
	Nodes(s shape.Shape, level int) []Node
}

// Options control how deep Read decomposes a shape. Zero fields take the
// grid's defaults; a negative resolution means none.
type Options struct {
	// MaxLevels caps the depth of the grid.
	MaxLevels int
	// MinResolution is the least depth Read goes to.
	MinResolution int
	// ExtraResolution is how many levels past BBoxLevel Read goes.
	ExtraResolution int
}

// Node is one grid cell. The rectangle is derived from the token.
type Node struct {
	token string
	level int
	rect  shape.Rectangle
}

// Token returns the cell path without any marker.
func (n Node) Token() string { return n.token }

// Level is the token length; the world cell is level 0.
func (n Node) Level() int { return n.level }

// Rect returns the cell rectangle.
func (n Node) Rect() shape.Rectangle { return n.rect }

// Center returns the centre of the cell.
func (n Node) Center() shape.Point { return n.rect.Center() }

func (n Node) String() string {
	if n.token == "" {
		return "<world>"
	}
	return n.token
}

// StripMarker removes a trailing cover or depth-limited marker.
func StripMarker(token string) string {
	if IsCover(token) || IsDepthLimited(token) {
		return token[:len(token)-1]
	}
	return token
}

// IsCover reports whether the token carries the cover marker.
func IsCover(token string) bool {
	return strings.HasSuffix(token, string(CoverMarker))
}

// IsDepthLimited reports whether the token carries the depth-limited marker.
func IsDepthLimited(token string) bool {
	return strings.HasSuffix(token, string(DepthLimitedMarker))
}

// IsLeaf reports whether the token carries either marker.
func IsLeaf(token string) bool {
	return IsCover(token) || IsDepthLimited(token)
}

// DistErrFromPct turns a distance error percentage into an absolute
// distance: pct of the distance from the centre of the shape's bounding box
// to a corner. The corner on the pole side of the centre is used, since on a
// sphere it is the nearer one. Points and a zero percentage give 0.
func DistErrFromPct(s shape.Shape, pct float64, ctx *shape.Context) (float64, error) {
	if pct < 0 || pct > 0.5 || math.IsNaN(pct) {
		return 0, errors.Newf("distance error percentage %v must be in [0, 0.5]", pct)
	}
	if _, ok := s.(shape.Point); ok || pct == 0 {
		return 0, nil
	}
	bbox := s.BoundingBox()
	ctr := bbox.Center()
	y := bbox.MinY()
	if ctr.Y() >= 0 {
		y = bbox.MaxY()
	}
	return ctx.DistanceXY(ctr, bbox.MaxX(), y) * pct, nil
}

func clampLevel(level, maxLevels int) int {
	if level < 1 {
		return 1
	}
	if level > maxLevels {
		return maxLevels
	}
	return level
}
