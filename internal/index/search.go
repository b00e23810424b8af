package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"spatialprefix/internal/cache"
	"spatialprefix/internal/distance"
	"spatialprefix/internal/filter"
	"spatialprefix/internal/metrics"
	"spatialprefix/internal/shape"
	"spatialprefix/internal/shapeio"
)

// Operation is the relation a document must have to the query shape.
type Operation string

const (
	// OpIntersects matches documents sharing any point with the query.
	OpIntersects Operation = "intersects"
	// OpWithin matches documents lying inside the query.
	OpWithin Operation = "within"
	// OpContains matches documents enclosing the query.
	OpContains Operation = "contains"
	// OpDisjoint is recognised but not served: a token filter cannot
	// enumerate what it does not match.
	OpDisjoint Operation = "disjoint"
)

// ParseOperation accepts the operation names case-insensitively; empty means
// OpIntersects.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(s)); op {
	case "":
		return OpIntersects, nil
	case OpIntersects, OpWithin, OpContains:
		return op, nil
	case OpDisjoint:
		return "", errors.Wrapf(shape.ErrUnsupportedOperation, "operation %q", s)
	}
	return "", errors.Newf("unknown operation %q", s)
}

// Strategy selects how candidates are found.
type Strategy string

const (
	// StrategyPrefix walks the grid tokens with the prefix filter.
	StrategyPrefix Strategy = "prefix"
	// StrategyRtree searches bounding boxes in the R-tree.
	StrategyRtree Strategy = "rtree"
)

// ParseStrategy accepts the strategy names; empty means StrategyPrefix.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(s)); st {
	case "":
		return StrategyPrefix, nil
	case StrategyPrefix, StrategyRtree:
		return st, nil
	}
	return "", errors.Newf("unknown strategy %q", s)
}

// SearchRequest describes one search. A zero Limit returns every match.
type SearchRequest struct {
	Shape    shape.Shape
	Op       Operation
	Strategy Strategy
	Limit    int
}

// SearchResult lists matching ids in order.
type SearchResult struct {
	IDs        []string      `json:"ids"`
	Total      int           `json:"total"`
	Candidates int           `json:"candidates"`
	Strategy   Strategy      `json:"strategy"`
	Op         Operation     `json:"op"`
	Generation uint64        `json:"generation"`
	Filter     *filter.Stats `json:"filter_stats,omitempty"`
	CacheTier  string        `json:"cache_tier,omitempty"`
}

// Search finds the documents related to req.Shape by req.Op.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if req.Shape == nil {
		return nil, errors.Wrap(shape.ErrInvalidShape, "missing query shape")
	}
	if req.Op == "" {
		req.Op = OpIntersects
	}
	if req.Strategy == "" {
		req.Strategy = StrategyPrefix
	}
	if req.Op == OpDisjoint {
		return nil, errors.Wrapf(shape.ErrUnsupportedOperation, "operation %q", req.Op)
	}
	start := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	key, cacheable := s.cacheKey(req)
	if cacheable {
		var hit SearchResult
		if tier, ok := s.cache.Get(ctx, key, &hit); ok {
			hit.CacheTier = tier
			return &hit, nil
		}
	}

	res := &SearchResult{Strategy: req.Strategy, Op: req.Op, Generation: s.gen}
	var candidates []string
	switch req.Strategy {
	case StrategyPrefix:
		fr, err := s.flt.QueryContext(ctx, s.snapshot(), req.Shape)
		if err != nil {
			return nil, err
		}
		candidates = fr.Docs
		res.Filter = &fr.Stats
		observeFilter(fr.Stats)
	case StrategyRtree:
		candidates = s.rtreeCandidates(req.Shape)
	default:
		return nil, errors.Newf("unknown strategy %q", req.Strategy)
	}
	res.Candidates = len(candidates)

	ids := make([]string, 0, len(candidates))
	for _, id := range candidates {
		doc, ok := s.docs[id]
		if !ok {
			return nil, errors.AssertionFailedf("candidate %q is not indexed", id)
		}
		if matches(req.Op, doc.Shape, req.Shape, s.ctx) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	res.Total = len(ids)
	if req.Limit > 0 && len(ids) > req.Limit {
		ids = ids[:req.Limit]
	}
	res.IDs = ids

	strategy := string(req.Strategy)
	metrics.SearchesTotal.WithLabelValues(strategy, string(req.Op)).Inc()
	metrics.CandidatesTotal.WithLabelValues(strategy).Add(float64(res.Candidates))
	metrics.SearchDurationMs.WithLabelValues(strategy).Observe(float64(time.Since(start).Microseconds()) / 1000)

	if cacheable {
		if err := s.cache.Set(ctx, key, res); err != nil {
			s.log.Warn("search_cache_set_failed", "err", err)
		}
	}
	return res, nil
}

// matches reports whether doc relates to query by op.
func matches(op Operation, doc, query shape.Shape, ctx *shape.Context) bool {
	switch op {
	case OpWithin:
		return query.Relate(doc, ctx) == shape.Contains
	case OpContains:
		return doc.Relate(query, ctx) == shape.Contains
	default:
		return doc.Relate(query, ctx) != shape.Disjoint
	}
}

func (s *Service) cacheKey(req SearchRequest) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	text, err := shapeio.ToWKT(req.Shape)
	if err != nil {
		return "", false
	}
	return cache.Key(s.gen, fmt.Sprintf("%s|%s|%d|%s", req.Strategy, req.Op, req.Limit, text)), true
}

func observeFilter(st filter.Stats) {
	metrics.FilterWork.WithLabelValues("seeks").Add(float64(st.Seeks))
	metrics.FilterWork.WithLabelValues("short_circuits").Add(float64(st.ShortCircuits))
	metrics.FilterWork.WithLabelValues("bulk_accepts").Add(float64(st.BulkAccepts))
	metrics.FilterWork.WithLabelValues("scanned_terms").Add(float64(st.ScannedTerms))
	metrics.FilterWork.WithLabelValues("geometry_tests").Add(float64(st.GeometryTests))
	metrics.FilterWork.WithLabelValues("subdivisions").Add(float64(st.Subdivisions))
}

// Hit is a document found by Nearby.
type Hit struct {
	ID string `json:"id"`
	// Distance is measured from the query point to the document's centre,
	// in the context's units (degrees for geo).
	Distance   float64 `json:"distance"`
	DistanceKm float64 `json:"distance_km,omitempty"`
}

// Nearby returns the documents within radius of p, nearest centre first.
// A zero limit returns every match.
func (s *Service) Nearby(ctx context.Context, p shape.Point, radius float64, limit int) ([]Hit, error) {
	circle, err := s.ctx.MakeCircle(p, radius)
	if err != nil {
		return nil, err
	}
	res, err := s.Search(ctx, SearchRequest{Shape: circle, Op: OpIntersects})
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	hits := make([]Hit, 0, len(res.IDs))
	for _, id := range res.IDs {
		doc, ok := s.docs[id]
		if !ok {
			// deleted since the search
			continue
		}
		d := s.ctx.Distance(p, doc.Shape.Center())
		h := Hit{ID: id, Distance: d}
		if s.ctx.IsGeo() {
			h.DistanceKm = distance.DegreesToKm(d)
		}
		hits = append(hits, h)
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
