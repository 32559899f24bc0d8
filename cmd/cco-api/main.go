package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/ccoapp/cco-api/pkg/api"
	"github.com/ccoapp/cco-api/pkg/config"
	"github.com/ccoapp/cco-api/pkg/observability"
	"github.com/ccoapp/cco-api/pkg/users"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.InfoLevel, os.Stderr).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *observability.Logger) error {
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(nil)
	}

	var (
		db          *sql.DB
		redisClient *redis.Client
	)

	var store users.Store
	switch cfg.Storage.Type {
	case "postgres":
		var err error
		db, err = sql.Open("postgres", cfg.Storage.PostgresURL)
		if err != nil {
			return err
		}
		if err := db.Ping(); err != nil {
			return err
		}
		store = users.NewPostgresStore(db)
		log.Info("connected to postgres")
	default:
		store = users.NewMemoryStore()
		log.Info("using in-memory store")
	}

	if metrics != nil {
		store = users.NewInstrumentedStore(store, metrics, cfg.Storage.Type)
	}

	if cfg.Storage.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		cached, err := users.NewCachedStore(store, redisClient, metrics, cfg.Storage.CacheTTL)
		if err != nil {
			return err
		}
		store = cached
		log.WithField("addr", cfg.Storage.RedisAddr).Info("redis cache enabled")
	}
	defer store.Close()

	resolver, err := users.NewTokenResolver(store, []byte(cfg.Auth.TokenSecret))
	if err != nil {
		return err
	}

	svc := users.NewService(store, log, cfg.Auth.InvitationTTL)

	server, err := api.NewServer(svc, resolver, log, api.Options{
		ExemptRoutes: cfg.Auth.ExemptRoutes,
		Metrics:      metrics,
	})
	if err != nil {
		return err
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Scheduler.InvitationCleanupSchedule, func() {
		purged, err := svc.PurgeExpiredInvitations(context.Background())
		if err != nil {
			log.WithError(err).Error("invitation cleanup failed")
			return
		}
		if purged > 0 {
			log.WithField("count", purged).Info("purged expired invitations")
		}
	})
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux(db, redisClient, metrics),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", apiServer.Addr).Info("starting API server")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.WithField("addr", healthServer.Addr).Info("starting health server")
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("API server shutdown failed")
		}
		return healthServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// healthMux serves the probe and metrics endpoints on the health port.
func healthMux(db *sql.DB, redisClient *redis.Client, metrics *observability.Metrics) http.Handler {
	checker := observability.NewHealthChecker(db, redisClient)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", checker.Liveness)
	mux.HandleFunc("/readyz", checker.Readiness)
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}
	return mux
}
