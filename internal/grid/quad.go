package grid

import (
	"math"

	"github.com/cockroachdb/errors"

	"spatialprefix/internal/shape"
)

const (
	// QuadMaxLevelsLimit is the deepest quad grid supported; 4^30 cells
	// still fit an int.
	QuadMaxLevelsLimit = 30
	// DefaultQuadMaxLevels is used when Options.MaxLevels is zero.
	DefaultQuadMaxLevels = 12
)

const quadAlphabet = "ABCD"

// QuadGrid halves the cell width and height at every level.
type QuadGrid struct {
	ctx  *shape.Context
	opts Options

	world shape.Rectangle
	// per level, index 0 is the world
	levelW []float64
	levelH []float64
	levelS []int
	levelN []int
}

// DefaultQuadOptions are the options NewQuadGrid fills in for zero fields.
func DefaultQuadOptions() Options {
	return Options{MaxLevels: DefaultQuadMaxLevels, MinResolution: 4, ExtraResolution: 4}
}

// NewQuadGrid builds a quad grid over the context's world bounds, which
// must be finite. Zero option fields take the defaults.
func NewQuadGrid(ctx *shape.Context, opts Options) (*QuadGrid, error) {
	opts = withDefaults(opts, DefaultQuadOptions())
	if opts.MaxLevels > QuadMaxLevelsLimit {
		return nil, errors.Newf("quad grid supports at most %d levels, got %d", QuadMaxLevelsLimit, opts.MaxLevels)
	}
	world := ctx.WorldBounds()
	w, h := world.Width(), world.Height()
	if math.IsInf(w, 0) || math.IsInf(h, 0) || w <= 0 || h <= 0 {
		return nil, errors.Newf("quad grid needs finite world bounds with area, got %v", world)
	}

	g := &QuadGrid{
		ctx:    ctx,
		opts:   opts,
		world:  world,
		levelW: make([]float64, opts.MaxLevels+1),
		levelH: make([]float64, opts.MaxLevels+1),
		levelS: make([]int, opts.MaxLevels+1),
		levelN: make([]int, opts.MaxLevels+1),
	}
	g.levelW[0], g.levelH[0], g.levelS[0], g.levelN[0] = w, h, 1, 1
	for i := 1; i <= opts.MaxLevels; i++ {
		g.levelW[i] = g.levelW[i-1] / 2
		g.levelH[i] = g.levelH[i-1] / 2
		g.levelS[i] = g.levelS[i-1] * 2
		g.levelN[i] = g.levelN[i-1] * 4
	}
	return g, nil
}

func withDefaults(opts, defaults Options) Options {
	if opts.MaxLevels <= 0 {
		opts.MaxLevels = defaults.MaxLevels
	}
	opts.MinResolution = resolution(opts.MinResolution, defaults.MinResolution)
	opts.ExtraResolution = resolution(opts.ExtraResolution, defaults.ExtraResolution)
	return opts
}

// resolution maps zero to the default and negative values to none.
func resolution(v, def int) int {
	switch {
	case v == 0:
		return def
	case v < 0:
		return 0
	}
	return v
}

func (g *QuadGrid) Name() string { return "quad" }

func (g *QuadGrid) Context() *shape.Context { return g.ctx }

func (g *QuadGrid) Options() Options { return g.opts }

func (g *QuadGrid) MaxLevels() int { return g.opts.MaxLevels }

func (g *QuadGrid) WorldNode() Node { return Node{level: 0, rect: g.world} }

func (g *QuadGrid) Read(s shape.Shape) *MatchInfo { return readShape(g, s) }

func (g *QuadGrid) BBoxLevel(s shape.Shape) int { return bboxLevel(g, s) }

func (g *QuadGrid) Nodes(s shape.Shape, level int) []Node { return nodesAtLevel(g, s, level) }

// CellSize returns the cell width and height at level.
func (g *QuadGrid) CellSize(level int) (w, h float64) {
	level = min(max(level, 0), g.opts.MaxLevels)
	return g.levelW[level], g.levelH[level]
}

// CellCount returns the number of cells at level and how many there are
// along each side.
func (g *QuadGrid) CellCount(level int) (cells, side int) {
	level = min(max(level, 0), g.opts.MaxLevels)
	return g.levelN[level], g.levelS[level]
}

func (g *QuadGrid) LevelForDistance(dist float64) int {
	if dist == 0 {
		return g.opts.MaxLevels
	}
	for level := 1; level < g.opts.MaxLevels; level++ {
		if dist > g.levelW[level] && dist > g.levelH[level] {
			return level
		}
	}
	return g.opts.MaxLevels
}

func (g *QuadGrid) Node(token string) (Node, error) {
	token = StripMarker(token)
	if len(token) > g.opts.MaxLevels {
		return Node{}, errors.Wrapf(ErrInvalidToken, "%q is deeper than %d levels", token, g.opts.MaxLevels)
	}
	n := g.WorldNode()
	for i := 0; i < len(token); i++ {
		q := quadIndex(token[i])
		if q < 0 {
			return Node{}, errors.Wrapf(ErrInvalidToken, "%q has invalid character %q", token, token[i])
		}
		n = g.child(n, q)
	}
	return n, nil
}

func (g *QuadGrid) NodeForPoint(p shape.Point, level int) Node {
	level = min(max(level, 0), g.opts.MaxLevels)
	n := g.WorldNode()
	for n.level < level {
		r := n.rect
		xmid := (r.MinX() + r.MaxX()) / 2
		ymid := (r.MinY() + r.MaxY()) / 2
		q := 0
		if p.X() >= xmid {
			q++
		}
		if p.Y() < ymid {
			q += 2
		}
		n = g.child(n, q)
	}
	return n
}

func (g *QuadGrid) SubNodes(n Node) []Node {
	if n.level >= g.opts.MaxLevels {
		return nil
	}
	return []Node{g.child(n, 0), g.child(n, 1), g.child(n, 2), g.child(n, 3)}
}

// child returns quadrant q of n in Z-order: 0 top-left, 1 top-right,
// 2 bottom-left, 3 bottom-right.
func (g *QuadGrid) child(n Node, q int) Node {
	r := n.rect
	xmid := (r.MinX() + r.MaxX()) / 2
	ymid := (r.MinY() + r.MaxY()) / 2
	minX, maxX := r.MinX(), xmid
	if q&1 == 1 {
		minX, maxX = xmid, r.MaxX()
	}
	minY, maxY := ymid, r.MaxY()
	if q&2 == 2 {
		minY, maxY = r.MinY(), ymid
	}
	return Node{
		token: n.token + quadAlphabet[q:q+1],
		level: n.level + 1,
		rect:  g.ctx.MustMakeRectangle(minX, maxX, minY, maxY),
	}
}

func quadIndex(c byte) int {
	if c < 'A' || c > 'D' {
		return -1
	}
	return int(c - 'A')
}
