package index

import (
	"github.com/cockroachdb/errors"

	"spatialprefix/internal/config"
	"spatialprefix/internal/distance"
	"spatialprefix/internal/filter"
	"spatialprefix/internal/geo"
	"spatialprefix/internal/grid"
	"spatialprefix/internal/shape"
)

// BuildContext creates the spatial context described by cfg.
func BuildContext(cfg config.SpatialConfig) (*shape.Context, error) {
	opts := shape.ContextOptions{
		Geo:               cfg.Geo,
		NormWrapLongitude: cfg.NormWrapLongitude,
	}
	if cfg.DistCalc != "" {
		calc, err := shape.CalculatorByName(cfg.DistCalc)
		if err != nil {
			return nil, err
		}
		opts.Calculator = calc
	}
	b, err := config.ParseBounds(cfg.WorldBounds)
	if err != nil {
		return nil, err
	}
	if b != nil {
		opts.WorldBounds = &shape.Bounds{MinX: b[0], MaxX: b[1], MinY: b[2], MaxY: b[3]}
	}
	return shape.NewContext(opts)
}

// BuildGrid creates the grid described by cfg over ctx. When MaxDistErrKm
// is set, MaxLevels becomes the first level whose cells are smaller than
// that distance.
func BuildGrid(ctx *shape.Context, cfg config.GridConfig) (grid.Grid, error) {
	opts := grid.Options{
		MaxLevels:       cfg.MaxLevels,
		MinResolution:   explicit(cfg.MinResolution),
		ExtraResolution: explicit(cfg.ExtraResolution),
	}

	var build func(grid.Options) (grid.Grid, error)
	limit := 0
	switch cfg.Type {
	case "", "quad":
		build = func(o grid.Options) (grid.Grid, error) { return grid.NewQuadGrid(ctx, o) }
		limit = grid.QuadMaxLevelsLimit
	case "geohash":
		build = func(o grid.Options) (grid.Grid, error) { return grid.NewGeohashGrid(ctx, o) }
		limit = geo.MaxPrecision
	default:
		return nil, errors.Newf("unknown grid type %q", cfg.Type)
	}

	if cfg.MaxDistErrKm > 0 {
		if !ctx.IsGeo() {
			return nil, errors.Wrap(shape.ErrUnsupportedOperation, "max distance error in km needs a geo context")
		}
		deepest, err := build(grid.Options{MaxLevels: limit})
		if err != nil {
			return nil, err
		}
		opts.MaxLevels = deepest.LevelForDistance(distance.KmToDegrees(cfg.MaxDistErrKm))
	}
	return build(opts)
}

// explicit turns a configured zero into the grid's "none", since config
// values are never unset.
func explicit(resolution int) int {
	if resolution == 0 {
		return -1
	}
	return resolution
}

// FilterOptions maps the filter settings of cfg.
func FilterOptions(cfg config.FilterConfig) filter.Options {
	return filter.Options{ScanLevels: cfg.ScanLevels, DistErrPct: cfg.DistErrPct}
}
