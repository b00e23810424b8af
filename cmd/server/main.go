package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"spatialprefix/internal/api"
	"spatialprefix/internal/cache"
	"spatialprefix/internal/config"
	"spatialprefix/internal/index"
	"spatialprefix/internal/logger"
	"spatialprefix/internal/store"
)

func main() {
	cfg, err := config.Load(".env")
	l := logger.Setup()
	if err != nil {
		l.Error("config_invalid", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		l.Error("server_failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	l := logger.L()

	// Build the spatial context and grid
	sctx, err := index.BuildContext(cfg.Spatial)
	if err != nil {
		return err
	}
	g, err := index.BuildGrid(sctx, cfg.Grid)
	if err != nil {
		return err
	}

	opts := index.Options{Filter: index.FilterOptions(cfg.Filter), Logger: l}

	// Optional result cache, shared through Redis when configured
	if cfg.Cache.LocalSize > 0 {
		rc := cache.OpenRedis(cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if rc != nil {
			defer rc.Close()
		}
		opts.Cache = cache.NewResultCache(cfg.Cache.LocalSize, cfg.Cache.TTL, rc, cfg.Redis.Prefix)
	}

	// Optional Postgres persistence
	var st *store.Store
	if cfg.Postgres.Host != "" {
		pg := cfg.Postgres
		st, err = store.Open(store.Config{
			Host:         pg.Host,
			Port:         pg.Port,
			User:         pg.User,
			Password:     pg.Password,
			Database:     pg.Database,
			SSLMode:      pg.SSLMode,
			MaxOpenConns: pg.MaxOpenConns,
			MaxIdleConns: pg.MaxIdleConns,
		})
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
		opts.Store = st
	}

	svc, err := index.New(g, opts)
	if err != nil {
		return err
	}
	if _, err := svc.Load(ctx); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), logger.GinAccess(l))
	api.NewRouter(svc, cfg.Server.MaxBodyBytes).Setup(engine)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("server_starting",
			"addr", srv.Addr,
			"grid", g.Name(),
			"max_levels", g.MaxLevels(),
			"geo", sctx.IsGeo(),
			"calculator", sctx.Calculator().Name(),
			"documents", svc.Count(),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	l.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
