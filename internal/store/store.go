// Package store persists indexed documents in PostgreSQL so the in-memory
// index can be rebuilt when the server starts. Shapes are stored as GeoJSON
// text; the grid tokens are always recomputed.
package store

import (
	"context"
	"database/sql"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"

	"spatialprefix/internal/logger"
)

// Config describes the connection. An empty Host disables the store.
type Config struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN renders cfg as a postgres:// URL.
func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	return u.String()
}

// Record is one stored document.
type Record struct {
	ID        string
	GeoJSON   []byte
	UpdatedAt time.Time
}

// Store is the document table access layer.
type Store struct {
	db *sql.DB
}

// Open connects with cfg and sizes the pool. It does not ping.
func Open(cfg Config) (*Store, error) {
	db, err := openDSN(cfg.DSN())
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	return &Store{db: db}, nil
}

// AttachDB wraps an existing pool.
func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the documents table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS spatial_documents (
			id TEXT PRIMARY KEY,
			geojson TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_spatial_documents_updated ON spatial_documents(updated_at)`,
	}
	for i, stmt := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "schema statement %d", i)
		}
	}
	logger.L().Debug("schema_done")
	return nil
}

// Save inserts or replaces a document.
func (s *Store) Save(ctx context.Context, id string, geojson []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO spatial_documents(id, geojson, updated_at) VALUES($1, $2, now())
		 ON CONFLICT (id) DO UPDATE SET geojson = EXCLUDED.geojson, updated_at = EXCLUDED.updated_at`,
		id, string(geojson))
	return errors.Wrapf(err, "save document %s", id)
}

// Delete removes documents by id. Missing ids are ignored.
func (s *Store) Delete(ctx context.Context, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM spatial_documents WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "delete documents")
	}
	return res.RowsAffected()
}

// LoadAll streams every document to fn in id order, stopping at the first
// error fn returns.
func (s *Store) LoadAll(ctx context.Context, fn func(Record) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, geojson, updated_at FROM spatial_documents ORDER BY id`)
	if err != nil {
		return errors.Wrap(err, "load documents")
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var r Record
		var body string
		if err := rows.Scan(&r.ID, &body, &r.UpdatedAt); err != nil {
			return errors.Wrap(err, "scan document")
		}
		r.GeoJSON = []byte(body)
		if err := fn(r); err != nil {
			return err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "load documents")
	}
	logger.L().Debug("documents_loaded", "count", n)
	return nil
}

// IsUnavailable reports whether err means the database could not be
// reached, as opposed to a rejected statement.
func IsUnavailable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 08 is connection exceptions
		return pqErr.Code.Class() == "08"
	}
	return err != nil
}

func openDSN(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	return db, errors.Wrap(err, "open postgres")
}
