// Package index is the document index behind the HTTP API. Documents are
// shapes under string ids. Each one is decomposed into grid tokens stored in
// a term dictionary, and its bounding box is kept in an R-tree. A search
// finds candidates through either structure and then checks every
// candidate's exact relation to the query.
//
// Go Learning Note (sync.RWMutex):
// Searches vastly outnumber writes, so the service takes a read lock for
// searches and an exclusive lock only while a document is added or removed.
// Many searches proceed in parallel; a write waits for them to drain.
package index

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dhconnelly/rtreego"

	"spatialprefix/internal/cache"
	"spatialprefix/internal/filter"
	"spatialprefix/internal/grid"
	"spatialprefix/internal/logger"
	"spatialprefix/internal/metrics"
	"spatialprefix/internal/shape"
	"spatialprefix/internal/shapeio"
	"spatialprefix/internal/store"
	"spatialprefix/internal/termdict"
)

var (
	// ErrNotFound is returned for unknown document ids.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidID is returned for empty document ids.
	ErrInvalidID = errors.New("invalid document id")
)

// DocumentStore persists documents. *store.Store implements it.
type DocumentStore interface {
	Save(ctx context.Context, id string, geojson []byte) error
	Delete(ctx context.Context, ids ...string) (int64, error)
	LoadAll(ctx context.Context, fn func(store.Record) error) error
}

// Document is an indexed shape.
type Document struct {
	ID        string
	Shape     shape.Shape
	Tokens    []string
	UpdatedAt time.Time

	entries []*rtreeEntry
}

// Options configure New. Everything but Filter is optional.
type Options struct {
	Filter filter.Options
	Cache  *cache.ResultCache
	Store  DocumentStore
	Logger *slog.Logger
}

// Service is safe for concurrent use.
type Service struct {
	// writeMu orders writes so the store and the index apply them in the
	// same sequence. It is taken before mu.
	writeMu sync.Mutex

	mu    sync.RWMutex
	ctx   *shape.Context
	grid  grid.Grid
	flt   *filter.Filter
	dict  *termdict.Dictionary
	docs  map[string]*Document
	rtree *rtreego.Rtree
	gen   uint64

	snapMu sync.Mutex
	snap   *termdict.Snapshot

	cache *cache.ResultCache
	store DocumentStore
	log   *slog.Logger
}

// New builds an empty index over g.
func New(g grid.Grid, opts Options) (*Service, error) {
	f, err := filter.New(g, opts.Filter)
	if err != nil {
		return nil, err
	}
	l := opts.Logger
	if l == nil {
		l = logger.L()
	}
	return &Service{
		ctx:   g.Context(),
		grid:  g,
		flt:   f,
		dict:  termdict.New(),
		docs:  make(map[string]*Document),
		rtree: newRtree(),
		cache: opts.Cache,
		store: opts.Store,
		log:   l,
	}, nil
}

// Context returns the spatial context shapes must be built with.
func (s *Service) Context() *shape.Context { return s.ctx }

// Grid returns the grid documents are decomposed with.
func (s *Service) Grid() grid.Grid { return s.grid }

// Generation increases with every write.
func (s *Service) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Count returns the number of documents.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Terms returns the number of distinct tokens in the dictionary.
func (s *Service) Terms() int { return s.dict.Len() }

// Put indexes sh under id, replacing any previous shape. When a store is
// configured the document is persisted first.
func (s *Service) Put(ctx context.Context, id string, sh shape.Shape) (*Document, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	if sh == nil {
		return nil, errors.Wrap(shape.ErrInvalidShape, "nil shape")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.store != nil {
		body, err := shapeio.ToGeoJSON(sh)
		if err != nil {
			return nil, errors.Wrapf(err, "encode document %s", id)
		}
		if err := s.store.Save(ctx, id, body); err != nil {
			return nil, err
		}
	}
	doc := s.index(id, sh)
	metrics.IndexOpsTotal.WithLabelValues("put").Inc()
	s.log.Debug("document_indexed", "id", id, "tokens", len(doc.Tokens))
	return doc, nil
}

func (s *Service) index(id string, sh shape.Shape) *Document {
	info := s.grid.Read(sh)
	doc := &Document{ID: id, Shape: sh, Tokens: info.Tokens, UpdatedAt: time.Now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.docs[id]; ok {
		s.dict.Remove(id, old.Tokens)
		s.rtreeDelete(old)
	}
	s.dict.Add(id, doc.Tokens)
	s.rtreeInsert(doc)
	s.docs[id] = doc
	s.gen++

	metrics.TokensPerDocument.Observe(float64(len(doc.Tokens)))
	metrics.DocumentsIndexed.Set(float64(len(s.docs)))
	metrics.TermsIndexed.Set(float64(s.dict.Len()))
	return doc
}

// Get returns the document stored under id.
func (s *Service) Get(id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%q", id)
	}
	return doc, nil
}

// Delete removes the document stored under id.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	_, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return errors.Wrapf(ErrNotFound, "%q", id)
	}
	if s.store != nil {
		if _, err := s.store.Delete(ctx, id); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docs[id]
	s.dict.Remove(id, doc.Tokens)
	s.rtreeDelete(doc)
	delete(s.docs, id)
	s.gen++

	metrics.IndexOpsTotal.WithLabelValues("delete").Inc()
	metrics.DocumentsIndexed.Set(float64(len(s.docs)))
	metrics.TermsIndexed.Set(float64(s.dict.Len()))
	s.log.Debug("document_deleted", "id", id)
	return nil
}

// IDs returns every document id in order.
func (s *Service) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Load indexes every document of the configured store. Documents that no
// longer parse are logged and skipped.
func (s *Service) Load(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	n, skipped := 0, 0
	err := s.store.LoadAll(ctx, func(r store.Record) error {
		sh, err := shapeio.FromGeoJSON(s.ctx, r.GeoJSON)
		if err != nil {
			skipped++
			s.log.Warn("document_load_skipped", "id", r.ID, "err", err)
			return nil
		}
		s.index(r.ID, sh)
		n++
		return nil
	})
	if err != nil {
		return n, errors.Wrap(err, "load index")
	}
	metrics.IndexOpsTotal.WithLabelValues("load").Add(float64(n))
	s.log.Info("index_loaded", "documents", n, "skipped", skipped, "terms", s.dict.Len())
	return n, nil
}

// snapshot returns a dictionary snapshot for the current generation,
// reusing the previous one while nothing was written. Callers hold s.mu.
func (s *Service) snapshot() *termdict.Snapshot {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	if s.snap == nil || s.snap.Generation() != s.dict.Generation() {
		s.snap = s.dict.Snapshot()
	}
	return s.snap
}
