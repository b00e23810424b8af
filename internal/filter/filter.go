// Package filter finds candidate documents for a query shape by walking
// grid cells against a sorted term dictionary built from grid tokens.
//
// The walk visits cells in token order, so the dictionary cursor only ever
// moves forward. A cell whose range the cursor has already passed is skipped
// without a seek. Cells the query contains, or cells at the query's detail
// level, accept every document below them at once. Near the bottom of the
// grid the filter stops subdividing and scans the remaining terms instead,
// testing each leaf cell against the query.
//
// Results are candidates: documents indexed with depth-limited tokens may lie
// slightly outside the query.
package filter

import (
	"context"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"spatialprefix/internal/grid"
	"spatialprefix/internal/shape"
)

// SeekStatus is the outcome of TermsEnum.SeekCeil.
type SeekStatus int

const (
	// SeekFound means the cursor is on the requested term.
	SeekFound SeekStatus = iota
	// SeekNotFound means the cursor is on the first term after it.
	SeekNotFound
	// SeekEnd means no term is greater or equal; the cursor is exhausted.
	SeekEnd
)

// TermDictionary is a read-only, lexically ordered map from token to the
// documents indexed with it. It must not change while a query runs.
type TermDictionary interface {
	Terms() TermsEnum
}

// TermsEnum is a forward cursor over a TermDictionary. A new enum is not
// positioned; Term and Docs are only valid after a seek or Next that did not
// report the end.
type TermsEnum interface {
	// SeekCeil moves to the first term >= term.
	SeekCeil(term string) SeekStatus
	// Next advances to the following term, reporting false at the end.
	Next() bool
	Term() string
	Docs() []string
}

// DefaultScanLevels is how many levels above the grid's bottom the filter
// switches from subdividing to scanning.
const DefaultScanLevels = 4

// DefaultDistErrPct is the query precision used when none is configured.
const DefaultDistErrPct = 0.025

// Filter is immutable and safe for concurrent use.
type Filter struct {
	grid       grid.Grid
	scanLevels int
	distErrPct float64
}

// Options configure New.
type Options struct {
	// ScanLevels is the number of levels above MaxLevels at which the filter
	// scans terms instead of subdividing. Zero means DefaultScanLevels; a
	// negative value disables scanning.
	ScanLevels int
	// DistErrPct sets the query's detail level as a fraction of its size;
	// see grid.DistErrFromPct. Zero means DefaultDistErrPct.
	DistErrPct float64
}

// New builds a filter over g.
func New(g grid.Grid, opts Options) (*Filter, error) {
	if opts.ScanLevels == 0 {
		opts.ScanLevels = DefaultScanLevels
	}
	if opts.DistErrPct == 0 {
		opts.DistErrPct = DefaultDistErrPct
	}
	if opts.DistErrPct < 0 || opts.DistErrPct > 0.5 {
		return nil, errors.Newf("distance error percentage %v must be in [0, 0.5]", opts.DistErrPct)
	}
	return &Filter{grid: g, scanLevels: opts.ScanLevels, distErrPct: opts.DistErrPct}, nil
}

// Grid returns the grid the filter walks.
func (f *Filter) Grid() grid.Grid { return f.grid }

// Stats count the work done by one query.
type Stats struct {
	Seeks         int `json:"seeks"`
	ShortCircuits int `json:"short_circuits"`
	BulkAccepts   int `json:"bulk_accepts"`
	ScannedTerms  int `json:"scanned_terms"`
	GeometryTests int `json:"geometry_tests"`
	Subdivisions  int `json:"subdivisions"`
}

// Result holds the candidate documents of a query, sorted and without
// duplicates.
type Result struct {
	Docs        []string `json:"docs"`
	DetailLevel int      `json:"detail_level"`
	Stats       Stats    `json:"stats"`
}

// Query runs QueryContext without cancellation.
func (f *Filter) Query(dict TermDictionary, query shape.Shape) (*Result, error) {
	return f.QueryContext(context.Background(), dict, query)
}

type queued struct {
	node grid.Node
	rel  shape.Relation
}

// QueryContext walks the grid for query. ctx is checked between cells; the
// walk itself never blocks.
func (f *Filter) QueryContext(ctx context.Context, dict TermDictionary, query shape.Shape) (*Result, error) {
	g := f.grid
	sctx := g.Context()

	distErr, err := grid.DistErrFromPct(query, f.distErrPct, sctx)
	if err != nil {
		return nil, err
	}
	detail := g.LevelForDistance(distErr)
	scanLevel := g.MaxLevels() - f.scanLevels
	if f.scanLevels < 0 {
		scanLevel = g.MaxLevels() + 1
	}

	w := walker{
		f:      f,
		query:  query,
		sctx:   sctx,
		detail: detail,
		enum:   dict.Terms(),
		docs:   make(map[string]struct{}),
	}

	w.queue = w.children(g.WorldNode())
	for len(w.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "spatial filter")
		}
		next := w.queue[0]
		w.queue = w.queue[1:]
		if !w.visit(next, scanLevel) {
			break
		}
	}

	res := &Result{Docs: make([]string, 0, len(w.docs)), DetailLevel: detail, Stats: w.stats}
	for id := range w.docs {
		res.Docs = append(res.Docs, id)
	}
	sort.Strings(res.Docs)
	return res, nil
}

type walker struct {
	f      *Filter
	query  shape.Shape
	sctx   *shape.Context
	detail int

	enum       TermsEnum
	positioned bool

	queue []queued
	docs  map[string]struct{}
	stats Stats
}

// visit processes one cell and reports whether the walk should go on.
func (w *walker) visit(q queued, scanLevel int) bool {
	token := q.node.Token()

	// the cursor is already past every term under this cell
	if w.positioned {
		cur := w.enum.Term()
		if cur > token && !strings.HasPrefix(cur, token) {
			w.stats.ShortCircuits++
			return true
		}
	}

	w.stats.Seeks++
	switch w.enum.SeekCeil(token) {
	case SeekEnd:
		return false
	case SeekNotFound:
		// every indexed cell has its plain token, so nothing is below here
		w.positioned = true
		return true
	}
	w.positioned = true

	if q.rel == shape.Contains || q.node.Level() >= w.detail {
		w.stats.BulkAccepts++
		w.accept(w.enum.Docs())
		return true
	}

	// leaf terms of this cell sort right after its plain token
	for {
		if !w.enum.Next() {
			return false
		}
		term := w.enum.Term()
		if term != token+string(grid.CoverMarker) && term != token+string(grid.DepthLimitedMarker) {
			break
		}
		w.accept(w.enum.Docs())
	}

	if q.node.Level() >= scanLevel {
		return w.scan(token)
	}

	w.stats.Subdivisions++
	w.queue = append(w.children(q.node), w.queue...)
	return true
}

// scan walks the terms under prefix from the current cursor position and
// tests the cell of every leaf or detail level term against the query.
func (w *walker) scan(prefix string) bool {
	for {
		term := w.enum.Term()
		if !strings.HasPrefix(term, prefix) {
			return true
		}
		w.stats.ScannedTerms++

		plain := grid.StripMarker(term)
		leaf := grid.IsLeaf(term)
		if len(plain) == w.detail && !leaf || len(plain) < w.detail && leaf {
			w.testCell(plain)
		}
		if len(plain) > w.detail || len(plain) == w.detail && !leaf {
			// the plain detail level term already holds every document
			// below it
			w.stats.Seeks++
			if w.enum.SeekCeil(plain[:w.detail]+skipSuffix) == SeekEnd {
				return false
			}
			continue
		}

		if !w.enum.Next() {
			return false
		}
	}
}

// skipSuffix sorts after every grid alphabet character and marker.
const skipSuffix = "\x7f"

// testCell accepts the current term's documents when its cell intersects
// the query.
func (w *walker) testCell(token string) {
	n, err := w.f.grid.Node(token)
	if err != nil {
		return
	}
	w.stats.GeometryTests++
	if w.query.Relate(n.Rect(), w.sctx) != shape.Disjoint {
		w.accept(w.enum.Docs())
	}
}

func (w *walker) children(n grid.Node) []queued {
	subs := w.f.grid.SubNodes(n)
	out := make([]queued, 0, len(subs))
	for _, c := range subs {
		rel := w.query.Relate(c.Rect(), w.sctx)
		if rel == shape.Disjoint {
			continue
		}
		out = append(out, queued{node: c, rel: rel})
	}
	return out
}

func (w *walker) accept(ids []string) {
	for _, id := range ids {
		w.docs[id] = struct{}{}
	}
}
