package grid

import (
	"github.com/cockroachdb/errors"

	"spatialprefix/internal/geo"
	"spatialprefix/internal/shape"
)

// DefaultGeohashMaxLevels is used when Options.MaxLevels is zero. Level 11
// cells are about 15cm by 15cm.
const DefaultGeohashMaxLevels = 11

// GeohashGrid uses geohash cells, so level n tokens are geohashes of length
// n. It only works with geo contexts.
type GeohashGrid struct {
	ctx  *shape.Context
	opts Options
}

// DefaultGeohashOptions are the options NewGeohashGrid fills in for zero
// fields. Each level has 32 times as many cells as the one above, so fewer
// extra levels are needed than for a quad grid.
func DefaultGeohashOptions() Options {
	return Options{MaxLevels: DefaultGeohashMaxLevels, MinResolution: 2, ExtraResolution: 2}
}

// NewGeohashGrid builds a geohash grid. Zero option fields take the
// defaults.
func NewGeohashGrid(ctx *shape.Context, opts Options) (*GeohashGrid, error) {
	if !ctx.IsGeo() {
		return nil, errors.Wrap(shape.ErrUnsupportedOperation, "geohash grid needs a geo context")
	}
	opts = withDefaults(opts, DefaultGeohashOptions())
	if opts.MaxLevels > geo.MaxPrecision {
		return nil, errors.Newf("geohash grid supports at most %d levels, got %d", geo.MaxPrecision, opts.MaxLevels)
	}
	return &GeohashGrid{ctx: ctx, opts: opts}, nil
}

func (g *GeohashGrid) Name() string { return "geohash" }

func (g *GeohashGrid) Context() *shape.Context { return g.ctx }

func (g *GeohashGrid) Options() Options { return g.opts }

func (g *GeohashGrid) MaxLevels() int { return g.opts.MaxLevels }

func (g *GeohashGrid) WorldNode() Node { return Node{level: 0, rect: g.ctx.WorldBounds()} }

func (g *GeohashGrid) Read(s shape.Shape) *MatchInfo { return readShape(g, s) }

func (g *GeohashGrid) BBoxLevel(s shape.Shape) int { return bboxLevel(g, s) }

func (g *GeohashGrid) Nodes(s shape.Shape, level int) []Node { return nodesAtLevel(g, s, level) }

func (g *GeohashGrid) CellSize(level int) (w, h float64) {
	lat, lon := geo.LookupDegreesSizeForHashLen(min(level, g.opts.MaxLevels))
	return lon, lat
}

func (g *GeohashGrid) LevelForDistance(dist float64) int {
	if dist == 0 {
		return g.opts.MaxLevels
	}
	return clampLevel(geo.LookupHashLenForWidthHeight(dist, dist), g.opts.MaxLevels)
}

func (g *GeohashGrid) Node(token string) (Node, error) {
	token = StripMarker(token)
	if token == "" {
		return g.WorldNode(), nil
	}
	if len(token) > g.opts.MaxLevels {
		return Node{}, errors.Wrapf(ErrInvalidToken, "%q is deeper than %d levels", token, g.opts.MaxLevels)
	}
	box, err := geo.DecodeBoundary(token)
	if err != nil {
		return Node{}, errors.Mark(err, ErrInvalidToken)
	}
	return g.node(token, box), nil
}

func (g *GeohashGrid) NodeForPoint(p shape.Point, level int) Node {
	level = min(level, g.opts.MaxLevels)
	if level <= 0 {
		return g.WorldNode()
	}
	hash := geo.Encode(p.Y(), p.X(), level)
	box, _ := geo.DecodeBoundary(hash)
	return g.node(hash, box)
}

func (g *GeohashGrid) SubNodes(n Node) []Node {
	if n.level >= g.opts.MaxLevels {
		return nil
	}
	subs := geo.SubHashes(n.token)
	nodes := make([]Node, len(subs))
	for i, hash := range subs {
		box, _ := geo.DecodeBoundary(hash)
		nodes[i] = g.node(hash, box)
	}
	return nodes
}

func (g *GeohashGrid) node(hash string, box geo.Box) Node {
	return Node{
		token: hash,
		level: len(hash),
		rect:  g.ctx.MustMakeRectangle(box.MinLon, box.MaxLon, box.MinLat, box.MaxLat),
	}
}
