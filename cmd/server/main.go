package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/neexbeast/weather-archive/internal/api"
	"github.com/neexbeast/weather-archive/internal/cache"
	"github.com/neexbeast/weather-archive/internal/config"
	"github.com/neexbeast/weather-archive/internal/logging"
	"github.com/neexbeast/weather-archive/internal/metrics"
	"github.com/neexbeast/weather-archive/internal/openmeteo"
	"github.com/neexbeast/weather-archive/internal/storage"
	"github.com/neexbeast/weather-archive/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

// responseCache is what the archive client and the health check need from a cache.
type responseCache interface {
	openmeteo.ResponseCache
	api.Pinger
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	m := metrics.New()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	responses, closeCache, err := openCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	// Wire dependencies.
	files := storage.NewInstrumented(store, m)
	client := openmeteo.NewArchiveClient(cfg.Upstream(), responses, log.Named("openmeteo"), m)
	service := weather.NewService(client, files)
	handlers := api.NewHandlers(service, files, log.Named("api"))

	router := api.NewRouter(handlers, api.RouterDeps{
		Storage:        store,
		Cache:          responses,
		Metrics:        m,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Log:            log.Named("http"),
	})

	// The upstream may take several retried attempts, so the write timeout
	// leaves room for the full backoff schedule.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", zap.Any("recover", r))
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("storage_backend", cfg.StorageBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// openStore builds the configured object store backend.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Store, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		repo, pool, err := storage.OpenPostgres(ctx, cfg.DatabaseURL, cfg.MigrationsDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		log.Info("migrations applied", zap.String("dir", cfg.MigrationsDir))
		return repo, pool.Close, nil
	default:
		gcsStore, err := storage.NewGCSStore(ctx, cfg.GCSBucketName)
		if err != nil {
			return nil, nil, fmt.Errorf("opening gcs store: %w", err)
		}
		log.Info("using gcs bucket", zap.String("bucket", cfg.GCSBucketName))
		return gcsStore, func() { _ = gcsStore.Close() }, nil
	}
}

// openCache connects to Redis when configured, otherwise keeps responses in process.
func openCache(ctx context.Context, cfg *config.Config, log *zap.Logger) (responseCache, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, caching upstream responses in memory")
		return cache.NewMemory(), func() {}, nil
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return cache.NewCache(redisClient), func() { _ = redisClient.Close() }, nil
}
