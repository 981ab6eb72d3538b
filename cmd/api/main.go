package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/fieldops/internal/auth"
	"github.com/geocoder89/fieldops/internal/config"
	"github.com/geocoder89/fieldops/internal/db"
	httpx "github.com/geocoder89/fieldops/internal/http"
	"github.com/geocoder89/fieldops/internal/http/middlewares"
	"github.com/geocoder89/fieldops/internal/observability"
	"github.com/geocoder89/fieldops/internal/redisclient"
	"github.com/geocoder89/fieldops/internal/repo"
	"github.com/geocoder89/fieldops/internal/repo/postgres"
	"github.com/geocoder89/fieldops/internal/repo/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "apply database migrations and exit")
	flag.Parse()

	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	tracing := false
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, cfg.OTLPEndpoint)
		if err != nil {
			log.Warn("tracing disabled", "err", err)
		} else {
			tracing = true
			defer func() {
				ctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdownTracer(ctx)
			}()
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	store, err := openStore(ctx, cfg, prom, *migrateOnly)
	if err != nil {
		log.Error("database setup failed", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	if *migrateOnly {
		log.Info("migrations applied", "driver", cfg.DBDriver)
		return
	}

	if err := seed(ctx, cfg, store); err != nil {
		log.Error("seeding failed", "err", err)
		os.Exit(1)
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	authSvc := auth.NewService(store, tokens)

	limiter, closeLimiter := authLimiter(ctx, cfg)
	defer closeLimiter()

	// set up routers with their dependencies
	router := httpx.NewRouter(httpx.Deps{
		Env:                cfg.Env,
		Store:              store,
		Auth:               authSvc,
		Tokens:             tokens,
		Prom:               prom,
		Gatherer:           reg,
		AuthLimiter:        limiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MaxBodyBytes:       cfg.MaxBodyBytes,
		Tracing:            tracing,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "driver", cfg.DBDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openStore(ctx context.Context, cfg config.Config, prom *observability.Prom, forceMigrate bool) (repo.Store, error) {
	runMigrations := cfg.DBMigrate || forceMigrate

	switch cfg.DBDriver {
	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if runMigrations {
			if err := db.MigrateSQLite(sqlDB); err != nil {
				_ = sqlDB.Close()
				return nil, err
			}
		}
		return sqlite.New(sqlDB, prom), nil

	default:
		if runMigrations {
			if err := db.MigratePostgres(cfg.DBURL); err != nil {
				return nil, err
			}
		}
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, err
		}
		return postgres.New(pool, prom), nil
	}
}

func seed(ctx context.Context, cfg config.Config, store repo.Store) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.EnsureAdminUser(ctx, store, cfg); err != nil {
		return err
	}

	if cfg.DBSeed {
		if err := db.SeedClients(ctx, store); err != nil {
			return err
		}
		slog.Info("default clients seeded", "count", len(db.DefaultClients))
	}

	return nil
}

// authLimiter prefers a Redis-backed limiter so replicas share one budget,
// and falls back to an in-process one when Redis is unset or unreachable.
func authLimiter(ctx context.Context, cfg config.Config) (middlewares.Limiter, func()) {
	if cfg.AuthRateLimit <= 0 {
		return nil, func() {}
	}

	memory := middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow())

	if cfg.RedisAddr == "" {
		return memory, func() {}
	}

	rc := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rc.Ping(pingCtx); err != nil {
		slog.Warn("redis unreachable, using in-process rate limiter", "addr", cfg.RedisAddr, "err", err)
		_ = rc.Close()
		return memory, func() {}
	}

	slog.Info("redis rate limiter enabled", "addr", cfg.RedisAddr)
	return middlewares.NewRedisLimiter(rc.Raw(), cfg.AuthRateLimit, cfg.AuthRateWindow()), func() { _ = rc.Close() }
}
