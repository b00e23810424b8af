package index

import (
	"context"
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"spatialprefix/internal/cache"
	"spatialprefix/internal/config"
	"spatialprefix/internal/distance"
	"spatialprefix/internal/filter"
	"spatialprefix/internal/grid"
	"spatialprefix/internal/shape"
	"spatialprefix/internal/shapeio"
	"spatialprefix/internal/store"
)

func newService(t testing.TB, opts Options) *Service {
	t.Helper()
	g, err := grid.NewQuadGrid(shape.NewGeoContext(), grid.Options{MaxLevels: 10})
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(g, opts)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func mustPoint(t testing.TB, s *Service, x, y float64) shape.Point {
	t.Helper()
	p, err := s.Context().MakePoint(x, y)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func mustPut(t testing.TB, s *Service, id string, sh shape.Shape) {
	t.Helper()
	if _, err := s.Put(context.Background(), id, sh); err != nil {
		t.Fatalf("Put(%s) failed: %v", id, err)
	}
}

func TestService_Put(t *testing.T) {
	s := newService(t, Options{})

	doc, err := s.Put(context.Background(), "doc-1", mustPoint(t, s, -122.4194, 37.7749))
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID != "doc-1" {
		t.Errorf("Expected doc-1, got %s", doc.ID)
	}
	if len(doc.Tokens) == 0 {
		t.Error("Expected tokens to be set")
	}
	if s.Terms() != len(doc.Tokens) {
		t.Errorf("Expected %d terms, got %d", len(doc.Tokens), s.Terms())
	}

	if _, err := s.Put(context.Background(), "", mustPoint(t, s, 0, 0)); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID, got %v", err)
	}
	if _, err := s.Put(context.Background(), "x", nil); !errors.Is(err, shape.ErrInvalidShape) {
		t.Errorf("Expected ErrInvalidShape, got %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	s := newService(t, Options{})
	mustPut(t, s, "doc-1", mustPoint(t, s, 1, 1))

	if s.Count() != 1 {
		t.Errorf("Expected count 1, got %d", s.Count())
	}
	if err := s.Delete(context.Background(), "doc-1"); err != nil {
		t.Fatal(err)
	}
	if s.Count() != 0 {
		t.Errorf("Expected count 0 after removal, got %d", s.Count())
	}
	if s.Terms() != 0 {
		t.Errorf("Expected an empty dictionary, got %d terms", s.Terms())
	}
	if _, err := s.Get("doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(context.Background(), "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestService_PutReplacesShape(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()

	mustPut(t, s, "doc-1", mustPoint(t, s, -122.4194, 37.7749))
	gen := s.Generation()
	mustPut(t, s, "doc-1", mustPoint(t, s, -74.0060, 40.7128))

	if s.Generation() <= gen {
		t.Error("Generation should grow on every write")
	}
	if s.Count() != 1 {
		t.Errorf("Expected count 1, got %d", s.Count())
	}

	sf := s.Context().MustMakeRectangle(-123, -122, 37, 38)
	for _, st := range []Strategy{StrategyPrefix, StrategyRtree} {
		res, err := s.Search(ctx, SearchRequest{Shape: sf, Strategy: st})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.IDs) != 0 {
			t.Errorf("%s: the old position still matches: %v", st, res.IDs)
		}
	}
}

func TestService_SearchOperations(t *testing.T) {
	s := newService(t, Options{})
	sctx := s.Context()

	mustPut(t, s, "big", sctx.MustMakeRectangle(0, 10, 0, 10))
	mustPut(t, s, "inner-point", mustPoint(t, s, 5, 5))
	mustPut(t, s, "small", sctx.MustMakeRectangle(2, 3, 2, 3))
	mustPut(t, s, "far", mustPoint(t, s, 100, -40))

	query := sctx.MustMakeRectangle(1, 4, 1, 4)
	tests := []struct {
		op   Operation
		want []string
	}{
		{OpIntersects, []string{"big", "small"}},
		{OpWithin, []string{"small"}},
		{OpContains, []string{"big"}},
	}
	for _, st := range []Strategy{StrategyPrefix, StrategyRtree} {
		for _, tt := range tests {
			t.Run(fmt.Sprintf("%s/%s", st, tt.op), func(t *testing.T) {
				res, err := s.Search(context.Background(), SearchRequest{Shape: query, Op: tt.op, Strategy: st})
				if err != nil {
					t.Fatal(err)
				}
				if !reflect.DeepEqual(res.IDs, tt.want) {
					t.Errorf("Search() = %v, expected %v", res.IDs, tt.want)
				}
				if res.Candidates < len(tt.want) {
					t.Errorf("Expected at least %d candidates, got %d", len(tt.want), res.Candidates)
				}
				if (st == StrategyPrefix) != (res.Filter != nil) {
					t.Errorf("filter stats should be reported for the prefix strategy only")
				}
			})
		}
	}

	_, err := s.Search(context.Background(), SearchRequest{Shape: query, Op: OpDisjoint})
	if !errors.Is(err, shape.ErrUnsupportedOperation) {
		t.Errorf("Expected ErrUnsupportedOperation for disjoint, got %v", err)
	}
	_, err = s.Search(context.Background(), SearchRequest{})
	if !errors.Is(err, shape.ErrInvalidShape) {
		t.Errorf("Expected ErrInvalidShape without a shape, got %v", err)
	}
}

func TestService_SearchLimit(t *testing.T) {
	s := newService(t, Options{})
	for i := 0; i < 5; i++ {
		mustPut(t, s, fmt.Sprintf("doc-%d", i), mustPoint(t, s, float64(i), 0))
	}
	res, err := s.Search(context.Background(), SearchRequest{
		Shape: s.Context().MustMakeRectangle(-1, 10, -1, 1),
		Limit: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.IDs, []string{"doc-0", "doc-1"}) {
		t.Errorf("Expected the first two ids, got %v", res.IDs)
	}
	if res.Total != 5 {
		t.Errorf("Expected total 5, got %d", res.Total)
	}
}

func TestService_Dateline(t *testing.T) {
	s := newService(t, Options{})
	sctx := s.Context()
	mustPut(t, s, "pacific", sctx.MustMakeRectangle(170, -170, -10, 10))

	for _, st := range []Strategy{StrategyPrefix, StrategyRtree} {
		for _, q := range []shape.Shape{mustPoint(t, s, 179, 0), mustPoint(t, s, -175, 5), sctx.MustMakeRectangle(-172, -160, -1, 1)} {
			res, err := s.Search(context.Background(), SearchRequest{Shape: q, Strategy: st})
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(res.IDs, []string{"pacific"}) {
				t.Errorf("%s: query %v found %v", st, q, res.IDs)
			}
		}
	}
}

func TestService_StrategiesAgree(t *testing.T) {
	s := newService(t, Options{})
	sctx := s.Context()
	rng := rand.New(rand.NewSource(11))

	randomShape := func() shape.Shape {
		x := rng.Float64()*340 - 170
		y := rng.Float64()*160 - 80
		switch rng.Intn(3) {
		case 0:
			return mustPoint(t, s, x, y)
		case 1:
			return sctx.MustMakeRectangle(x, x+rng.Float64()*10, y, y+rng.Float64()*10)
		default:
			c, err := sctx.MakeCircleXY(x, y, rng.Float64()*5)
			if err != nil {
				t.Fatal(err)
			}
			return c
		}
	}
	for i := 0; i < 200; i++ {
		mustPut(t, s, fmt.Sprintf("doc-%03d", i), randomShape())
	}

	for i := 0; i < 50; i++ {
		q := randomShape()
		for _, op := range []Operation{OpIntersects, OpWithin, OpContains} {
			p, err := s.Search(context.Background(), SearchRequest{Shape: q, Op: op, Strategy: StrategyPrefix})
			if err != nil {
				t.Fatal(err)
			}
			r, err := s.Search(context.Background(), SearchRequest{Shape: q, Op: op, Strategy: StrategyRtree})
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(p.IDs, r.IDs) {
				t.Errorf("%s %v: prefix %v, rtree %v", op, q, p.IDs, r.IDs)
			}
		}
	}
}

func TestService_Nearby(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()

	mustPut(t, s, "doc-1", mustPoint(t, s, -122.4194, 37.7749))
	mustPut(t, s, "doc-2", mustPoint(t, s, -122.4194, 37.7789))
	mustPut(t, s, "doc-3", mustPoint(t, s, -122.4194, 37.7839))
	// about 55km north
	mustPut(t, s, "doc-4", mustPoint(t, s, -122.4194, 38.2749))

	center := mustPoint(t, s, -122.4194, 37.7749)
	nearby, err := s.Nearby(ctx, center, distance.KmToDegrees(5), 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(nearby) != 3 {
		t.Fatalf("Expected 3 nearby documents, got %d", len(nearby))
	}
	for i := 1; i < len(nearby); i++ {
		if nearby[i].Distance < nearby[i-1].Distance {
			t.Error("Results should be sorted by distance")
		}
	}
	if nearby[0].ID != "doc-1" {
		t.Errorf("Expected doc-1 to be closest, got %s", nearby[0].ID)
	}
	if d := nearby[2].DistanceKm; d < 0.9 || d > 1.1 {
		t.Errorf("Expected doc-3 about 1km away, got %v", d)
	}

	limited, err := s.Nearby(ctx, center, distance.KmToDegrees(5), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].ID != "doc-1" {
		t.Errorf("Expected only doc-1, got %v", limited)
	}

	if _, err := s.Nearby(ctx, center, -1, 0); !errors.Is(err, shape.ErrInvalidShape) {
		t.Errorf("Expected ErrInvalidShape for a negative radius, got %v", err)
	}
}

func TestService_ResultCache(t *testing.T) {
	s := newService(t, Options{Cache: cache.NewResultCache(16, time.Minute, nil, "")})
	ctx := context.Background()
	mustPut(t, s, "doc-1", mustPoint(t, s, 1, 1))
	req := SearchRequest{Shape: s.Context().MustMakeRectangle(0, 2, 0, 2)}

	first, err := s.Search(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheTier != "" {
		t.Errorf("First search should miss, got tier %q", first.CacheTier)
	}
	second, err := s.Search(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if second.CacheTier != cache.TierLocal || !reflect.DeepEqual(second.IDs, first.IDs) {
		t.Errorf("Expected a local hit with %v, got %q %v", first.IDs, second.CacheTier, second.IDs)
	}

	mustPut(t, s, "doc-2", mustPoint(t, s, 1.5, 1.5))
	third, err := s.Search(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheTier != "" || len(third.IDs) != 2 {
		t.Errorf("A write should invalidate cached results, got %q %v", third.CacheTier, third.IDs)
	}
}

// memStore is an in-memory DocumentStore.
type memStore struct {
	mu   sync.Mutex
	docs map[string][]byte
	fail error
}

func newMemStore() *memStore { return &memStore{docs: map[string][]byte{}} }

func (m *memStore) Save(_ context.Context, id string, geojson []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.docs[id] = geojson
	return nil
}

func (m *memStore) Delete(_ context.Context, ids ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.docs[id]; ok {
			delete(m.docs, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) LoadAll(_ context.Context, fn func(store.Record) error) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	sort.Strings(ids)
	for _, id := range ids {
		if err := fn(store.Record{ID: id, GeoJSON: m.docs[id]}); err != nil {
			return err
		}
	}
	return nil
}

func TestService_StoreRoundTrip(t *testing.T) {
	st := newMemStore()
	s := newService(t, Options{Store: st})
	ctx := context.Background()

	circle, err := s.Context().MakeCircleXY(10, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	mustPut(t, s, "circle", circle)
	mustPut(t, s, "point", mustPoint(t, s, 3, 4))
	mustPut(t, s, "gone", mustPoint(t, s, 5, 5))
	if err := s.Delete(ctx, "gone"); err != nil {
		t.Fatal(err)
	}
	st.docs["broken"] = []byte(`{"type":"Point","coordinates":[500,0]}`)

	reloaded := newService(t, Options{Store: st})
	n, err := reloaded.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Expected 2 documents loaded, got %d", n)
	}
	if !reflect.DeepEqual(reloaded.IDs(), []string{"circle", "point"}) {
		t.Errorf("Unexpected ids %v", reloaded.IDs())
	}
	doc, err := reloaded.Get("circle")
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := doc.Shape.(shape.Circle); !ok || !got.Equal(circle) {
		t.Errorf("Expected %v, got %v", circle, doc.Shape)
	}

	st.fail = errors.New("disk full")
	if _, err := s.Put(ctx, "late", mustPoint(t, s, 0, 0)); err == nil {
		t.Error("Expected the store error")
	}
	if _, err := s.Get("late"); !errors.Is(err, ErrNotFound) {
		t.Error("A document the store rejected must not be indexed")
	}
}

func TestService_ConcurrentWritesMatchStore(t *testing.T) {
	st := newMemStore()
	s := newService(t, Options{Store: st})
	ctx := context.Background()

	for round := 0; round < 50; round++ {
		mustPut(t, s, "doc", mustPoint(t, s, 0, 0))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if i%2 == 0 {
					_ = s.Delete(ctx, "doc")
					return
				}
				p, err := s.Context().MakePoint(float64(i), float64(round))
				if err != nil {
					t.Error(err)
					return
				}
				if _, err := s.Put(ctx, "doc", p); err != nil {
					t.Error(err)
				}
			}(i)
		}
		wg.Wait()

		st.mu.Lock()
		stored, inStore := st.docs["doc"]
		st.mu.Unlock()
		doc, err := s.Get("doc")
		inIndex := err == nil
		if inStore != inIndex {
			t.Fatalf("round %d: store has doc = %v, index has doc = %v", round, inStore, inIndex)
		}
		if !inIndex {
			continue
		}
		got, err := shapeio.FromGeoJSON(s.Context(), stored)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, doc.Shape) {
			t.Fatalf("round %d: store holds %v, index holds %v", round, got, doc.Shape)
		}
	}
}

func TestService_StoreCircleCollection(t *testing.T) {
	st := newMemStore()
	s := newService(t, Options{Store: st})
	ctx := context.Background()

	circle, err := s.Context().MakeCircleXY(10, 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	coll, err := s.Context().MakeCollection(circle, mustPoint(t, s, -20, 5))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(ctx, "mixed", coll); err != nil {
		t.Fatalf("Put of a collection holding a circle failed: %v", err)
	}

	reloaded := newService(t, Options{Store: st})
	if _, err := reloaded.Load(ctx); err != nil {
		t.Fatal(err)
	}
	doc, err := reloaded.Get("mixed")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(doc.Shape, coll) {
		t.Errorf("Expected %v, got %v", coll, doc.Shape)
	}
}

func TestParseOperationAndStrategy(t *testing.T) {
	ops := []struct {
		in      string
		want    Operation
		wantErr bool
	}{
		{"", OpIntersects, false},
		{"INTERSECTS", OpIntersects, false},
		{"within", OpWithin, false},
		{"contains", OpContains, false},
		{"disjoint", "", true},
		{"overlaps", "", true},
	}
	for _, tt := range ops {
		got, err := ParseOperation(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOperation(%q) = %q, %v", tt.in, got, err)
		}
	}

	if st, err := ParseStrategy(""); err != nil || st != StrategyPrefix {
		t.Errorf("ParseStrategy(\"\") = %q, %v", st, err)
	}
	if st, err := ParseStrategy("rtree"); err != nil || st != StrategyRtree {
		t.Errorf("ParseStrategy(rtree) = %q, %v", st, err)
	}
	if _, err := ParseStrategy("kd"); err == nil {
		t.Error("Expected an error for an unknown strategy")
	}
}

func TestBuildFromConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()

	ctx, err := BuildContext(cfg.Spatial)
	if err != nil {
		t.Fatal(err)
	}
	if !ctx.IsGeo() || ctx.Calculator().Name() != "haversine" {
		t.Errorf("Expected a haversine geo context, got %s", ctx.Calculator().Name())
	}
	g, err := BuildGrid(ctx, cfg.Grid)
	if err != nil {
		t.Fatal(err)
	}
	if g.Name() != "quad" || g.MaxLevels() != 12 {
		t.Errorf("Expected a 12 level quad grid, got %s/%d", g.Name(), g.MaxLevels())
	}
	if opts := g.Options(); opts.MinResolution != 4 || opts.ExtraResolution != 4 {
		t.Errorf("Expected the configured resolutions, got %+v", opts)
	}

	g, err = BuildGrid(ctx, config.GridConfig{Type: "quad", MaxLevels: 8, MinResolution: 2})
	if err != nil {
		t.Fatal(err)
	}
	if opts := g.Options(); opts.MinResolution != 2 || opts.ExtraResolution != 0 {
		t.Errorf("A configured zero must mean no extra resolution, got %+v", opts)
	}

	g, err = BuildGrid(ctx, config.GridConfig{Type: "quad", MaxDistErrKm: 1})
	if err != nil {
		t.Fatal(err)
	}
	if g.MaxLevels() != 16 {
		t.Errorf("Expected 16 levels for 1km cells, got %d", g.MaxLevels())
	}

	g, err = BuildGrid(ctx, config.GridConfig{Type: "geohash", MaxLevels: 6})
	if err != nil {
		t.Fatal(err)
	}
	if g.Name() != "geohash" || g.MaxLevels() != 6 {
		t.Errorf("Expected a 6 level geohash grid, got %s/%d", g.Name(), g.MaxLevels())
	}

	if _, err := BuildGrid(ctx, config.GridConfig{Type: "hex"}); err == nil {
		t.Error("Expected an error for an unknown grid type")
	}

	planar, err := BuildContext(config.SpatialConfig{DistCalc: "cartesian^2", WorldBounds: "0,1000,0,500"})
	if err != nil {
		t.Fatal(err)
	}
	if planar.IsGeo() || planar.WorldBounds().MaxX() != 1000 {
		t.Errorf("Expected a bounded planar context, got %v", planar.WorldBounds())
	}
	if _, err := BuildGrid(planar, config.GridConfig{Type: "geohash"}); !errors.Is(err, shape.ErrUnsupportedOperation) {
		t.Errorf("Expected ErrUnsupportedOperation for a planar geohash grid, got %v", err)
	}
	if _, err := BuildContext(config.SpatialConfig{Geo: true, DistCalc: "cartesian"}); err == nil {
		t.Error("Expected an error for a planar calculator in a geo context")
	}

	if opts := FilterOptions(cfg.Filter); opts != (filter.Options{ScanLevels: 4, DistErrPct: 0.025}) {
		t.Errorf("Unexpected filter options %+v", opts)
	}
}

func BenchmarkSearch(b *testing.B) {
	s := newService(b, Options{})
	for i := 0; i < 1000; i++ {
		lat := 37.0 + float64(i%100)*0.01
		lon := -122.0 + float64(i/100)*0.01
		mustPut(b, s, fmt.Sprintf("doc-%d", i), mustPoint(b, s, lon, lat))
	}
	center := mustPoint(b, s, -122.0, 37.5)
	radius := distance.KmToDegrees(5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Nearby(context.Background(), center, radius, 0); err != nil {
			b.Fatal(err)
		}
	}
}
