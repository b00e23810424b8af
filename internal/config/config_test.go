package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.True(t, cfg.Spatial.Geo)
	assert.Empty(t, cfg.Spatial.DistCalc)
	assert.Equal(t, "quad", cfg.Grid.Type)
	assert.Equal(t, 12, cfg.Grid.MaxLevels)
	assert.Equal(t, 4, cfg.Filter.ScanLevels)
	assert.Equal(t, "", cfg.Redis.Addr(), "redis is off by default")
	assert.NoError(t, cfg.Validate())
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestApplyEnv(t *testing.T) {
	cfg := NewDefaultConfig()
	err := cfg.applyEnv(envMap(map[string]string{
		"SERVER_PORT":           "9090",
		"SERVER_READ_TIMEOUT":   "3s",
		"SPATIAL_GEO":           "false",
		"SPATIAL_DIST_CALC":     "cartesian",
		"SPATIAL_WORLD_BOUNDS":  "0,1000,0,500",
		"GRID_MAX_LEVELS":       "9",
		"GRID_EXTRA_RESOLUTION": "0",
		"FILTER_SCAN_LEVELS":    "-1",
		"FILTER_DIST_ERR_PCT":   "0.1",
		"CACHE_TTL":             "1m",
		"REDIS_HOST":            "cache",
		"PG_HOST":               "db",
		"PG_MAX_OPEN_CONNS":     "5",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.False(t, cfg.Spatial.Geo)
	assert.Equal(t, "cartesian", cfg.Spatial.DistCalc)
	assert.Equal(t, 9, cfg.Grid.MaxLevels)
	assert.Equal(t, 0, cfg.Grid.ExtraResolution)
	assert.Equal(t, 4, cfg.Grid.MinResolution)
	assert.Equal(t, -1, cfg.Filter.ScanLevels)
	assert.Equal(t, 0.1, cfg.Filter.DistErrPct)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
	assert.Equal(t, "db", cfg.Postgres.Host)
	assert.Equal(t, 5, cfg.Postgres.MaxOpenConns)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvParseErrors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"GRID_MAX_LEVELS", "many"},
		{"SPATIAL_GEO", "perhaps"},
		{"CACHE_TTL", "forever"},
		{"FILTER_DIST_ERR_PCT", "1/40"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := NewDefaultConfig()
			err := cfg.applyEnv(envMap(map[string]string{tt.key: tt.value}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown grid", func(c *Config) { c.Grid.Type = "hex" }},
		{"planar geohash", func(c *Config) {
			c.Grid.Type = "geohash"
			c.Spatial.Geo = false
		}},
		{"no levels", func(c *Config) { c.Grid.MaxLevels = 0 }},
		{"planar dist err", func(c *Config) {
			c.Spatial.Geo = false
			c.Grid.MaxDistErrKm = 1
		}},
		{"pct too large", func(c *Config) { c.Filter.DistErrPct = 0.7 }},
		{"negative cache", func(c *Config) { c.Cache.LocalSize = -1 }},
		{"negative extra resolution", func(c *Config) { c.Grid.ExtraResolution = -1 }},
		{"bad bounds", func(c *Config) { c.Spatial.WorldBounds = "0,1,2" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseBounds(t *testing.T) {
	b, err := ParseBounds("")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = ParseBounds(" -10, 10 ,0,5")
	require.NoError(t, err)
	assert.Equal(t, &[4]float64{-10, 10, 0, 5}, b)

	_, err = ParseBounds("a,b,c,d")
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("GRID_TYPE=geohash\nGRID_MAX_LEVELS=7\n"), 0o600))
	t.Setenv("GRID_MAX_LEVELS", "8")
	// godotenv.Load sets variables in the process; register them for cleanup
	t.Setenv("GRID_TYPE", "")
	os.Unsetenv("GRID_TYPE")

	cfg, err := Load(file, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "geohash", cfg.Grid.Type)
	assert.Equal(t, 8, cfg.Grid.MaxLevels, "the environment wins over the file")
}
