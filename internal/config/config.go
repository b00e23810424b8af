// Package config centralizes all application configuration into typed structs.
//
// Go Learning Note (Configuration Management):
// Defaults live in NewDefaultConfig as plain struct literals. Load then reads
// an optional .env file with github.com/joho/godotenv and lets environment
// variables override individual fields. Keeping the result in typed structs
// (not raw strings or maps) gives compile-time safety everywhere the config
// is consumed.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// Config is the top-level configuration container.
type Config struct {
	Server   ServerConfig
	Spatial  SpatialConfig
	Grid     GridConfig
	Filter   FilterConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Postgres PostgresConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxBodyBytes caps request bodies carrying shapes.
	MaxBodyBytes int64
}

// SpatialConfig selects the coordinate model.
type SpatialConfig struct {
	// Geo chooses longitude/latitude degrees on a sphere; false means a
	// flat plane.
	Geo bool
	// DistCalc names the distance calculator: haversine, lawOfCosines,
	// vincentySphere, cartesian or cartesian^2. Empty picks haversine for
	// geo and cartesian otherwise.
	DistCalc string
	// WorldBounds is "minX,maxX,minY,maxY" for planar contexts. Empty means
	// unbounded.
	WorldBounds string
	// NormWrapLongitude wraps out-of-range longitudes instead of rejecting
	// them.
	NormWrapLongitude bool
}

// GridConfig controls the prefix grid.
type GridConfig struct {
	// Type is "quad" or "geohash".
	Type      string
	MaxLevels int
	// MaxDistErrKm, when positive, picks MaxLevels as the first level whose
	// cells are smaller than this distance. Geo only.
	MaxDistErrKm    float64
	// MinResolution and ExtraResolution bound how deep shapes are
	// decomposed; zero means none.
	MinResolution   int
	ExtraResolution int
}

// FilterConfig tunes the candidate filter.
type FilterConfig struct {
	ScanLevels int
	DistErrPct float64
}

// CacheConfig sizes the search result cache. LocalSize 0 disables it.
type CacheConfig struct {
	LocalSize int
	TTL       time.Duration
}

// RedisConfig enables the shared cache tier when Host is set.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Prefix   string
}

// Addr returns host:port, or "" when Redis is disabled.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

// PostgresConfig enables document persistence when Host is set.
type PostgresConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// NewDefaultConfig returns a Config populated with sensible defaults: a geo
// context with haversine distances over a 12 level quad grid, an in-process
// cache and no external services.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		Spatial: SpatialConfig{
			Geo: true,
		},
		Grid: GridConfig{
			Type:            "quad",
			MaxLevels:       12,
			MinResolution:   4,
			ExtraResolution: 4,
		},
		Filter: FilterConfig{
			ScanLevels: 4,
			DistErrPct: 0.025,
		},
		Cache: CacheConfig{
			LocalSize: 1024,
			TTL:       5 * time.Minute,
		},
		Redis: RedisConfig{
			Port:   "6379",
			Prefix: "spatialprefix",
		},
		Postgres: PostgresConfig{
			Port:         "5432",
			User:         "postgres",
			Database:     "spatialprefix",
			SSLMode:      "disable",
			MaxOpenConns: 20,
			MaxIdleConns: 10,
		},
	}
}

// Load returns the defaults overridden by the given .env files (missing
// files are ignored) and then by the process environment.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// godotenv.Load never overrides variables that are already set
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "read %s", f)
		}
	}
	cfg := NewDefaultConfig()
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envReader collects the first parse error so applyEnv reads linearly.
type envReader struct {
	get func(string) string
	err error
}

func (r *envReader) str(key string, dst *string) {
	if v := r.get(key); v != "" {
		*dst = v
	}
}

func (r *envReader) integer(key string, dst *int) {
	v := r.get(key)
	if v == "" || r.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.err = errors.Wrapf(err, "%s", key)
		return
	}
	*dst = n
}

func (r *envReader) int64(key string, dst *int64) {
	v := r.get(key)
	if v == "" || r.err != nil {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.err = errors.Wrapf(err, "%s", key)
		return
	}
	*dst = n
}

func (r *envReader) float(key string, dst *float64) {
	v := r.get(key)
	if v == "" || r.err != nil {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.err = errors.Wrapf(err, "%s", key)
		return
	}
	*dst = f
}

func (r *envReader) boolean(key string, dst *bool) {
	v := r.get(key)
	if v == "" || r.err != nil {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.err = errors.Wrapf(err, "%s", key)
		return
	}
	*dst = b
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v := r.get(key)
	if v == "" || r.err != nil {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.err = errors.Wrapf(err, "%s", key)
		return
	}
	*dst = d
}

func (c *Config) applyEnv(get func(string) string) error {
	r := &envReader{get: get}

	if p := get("SERVER_PORT"); p != "" {
		if !strings.Contains(p, ":") {
			p = ":" + p
		}
		c.Server.Port = p
	}
	r.duration("SERVER_READ_TIMEOUT", &c.Server.ReadTimeout)
	r.duration("SERVER_WRITE_TIMEOUT", &c.Server.WriteTimeout)
	r.int64("SERVER_MAX_BODY_BYTES", &c.Server.MaxBodyBytes)

	r.boolean("SPATIAL_GEO", &c.Spatial.Geo)
	r.str("SPATIAL_DIST_CALC", &c.Spatial.DistCalc)
	r.str("SPATIAL_WORLD_BOUNDS", &c.Spatial.WorldBounds)
	r.boolean("SPATIAL_NORM_WRAP_LONGITUDE", &c.Spatial.NormWrapLongitude)

	r.str("GRID_TYPE", &c.Grid.Type)
	r.integer("GRID_MAX_LEVELS", &c.Grid.MaxLevels)
	r.float("GRID_MAX_DIST_ERR_KM", &c.Grid.MaxDistErrKm)
	r.integer("GRID_MIN_RESOLUTION", &c.Grid.MinResolution)
	r.integer("GRID_EXTRA_RESOLUTION", &c.Grid.ExtraResolution)

	r.integer("FILTER_SCAN_LEVELS", &c.Filter.ScanLevels)
	r.float("FILTER_DIST_ERR_PCT", &c.Filter.DistErrPct)

	r.integer("CACHE_LOCAL_SIZE", &c.Cache.LocalSize)
	r.duration("CACHE_TTL", &c.Cache.TTL)

	r.str("REDIS_HOST", &c.Redis.Host)
	r.str("REDIS_PORT", &c.Redis.Port)
	r.str("REDIS_PASS", &c.Redis.Password)
	r.integer("REDIS_DB", &c.Redis.DB)
	r.str("REDIS_PREFIX", &c.Redis.Prefix)

	r.str("PG_HOST", &c.Postgres.Host)
	r.str("PG_PORT", &c.Postgres.Port)
	r.str("PG_USER", &c.Postgres.User)
	r.str("PG_PASSWORD", &c.Postgres.Password)
	r.str("PG_DB", &c.Postgres.Database)
	r.str("PG_SSLMODE", &c.Postgres.SSLMode)
	r.integer("PG_MAX_OPEN_CONNS", &c.Postgres.MaxOpenConns)
	r.integer("PG_MAX_IDLE_CONNS", &c.Postgres.MaxIdleConns)

	return r.err
}

// Validate rejects settings no component could start with.
func (c *Config) Validate() error {
	switch c.Grid.Type {
	case "quad", "geohash":
	default:
		return errors.Newf("grid type %q must be quad or geohash", c.Grid.Type)
	}
	if c.Grid.Type == "geohash" && !c.Spatial.Geo {
		return errors.New("the geohash grid needs a geo context")
	}
	if c.Grid.MaxLevels < 1 && c.Grid.MaxDistErrKm <= 0 {
		return errors.Newf("grid max levels %d must be positive", c.Grid.MaxLevels)
	}
	if c.Grid.MinResolution < 0 || c.Grid.ExtraResolution < 0 {
		return errors.Newf("grid resolutions %d and %d must not be negative", c.Grid.MinResolution, c.Grid.ExtraResolution)
	}
	if c.Grid.MaxDistErrKm > 0 && !c.Spatial.Geo {
		return errors.New("GRID_MAX_DIST_ERR_KM needs a geo context")
	}
	if c.Filter.DistErrPct < 0 || c.Filter.DistErrPct > 0.5 {
		return errors.Newf("filter distance error percentage %v must be in [0, 0.5]", c.Filter.DistErrPct)
	}
	if c.Cache.LocalSize < 0 {
		return errors.Newf("cache size %d must not be negative", c.Cache.LocalSize)
	}
	if _, err := ParseBounds(c.Spatial.WorldBounds); err != nil {
		return err
	}
	return nil
}

// ParseBounds parses "minX,maxX,minY,maxY". An empty string gives nil.
func ParseBounds(s string) (*[4]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, errors.Newf("world bounds %q must be minX,maxX,minY,maxY", s)
	}
	var b [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "world bounds %q", s)
		}
		b[i] = v
	}
	return &b, nil
}
