package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/embedworks/vidembed/internal/api/handler"
	"github.com/embedworks/vidembed/internal/api/middleware"
	"github.com/embedworks/vidembed/internal/config"
	"github.com/embedworks/vidembed/internal/infrastructure/cache"
	"github.com/embedworks/vidembed/internal/infrastructure/oembed"
	"github.com/embedworks/vidembed/internal/infrastructure/postgres"
	"github.com/embedworks/vidembed/internal/infrastructure/queue"
	"github.com/embedworks/vidembed/internal/infrastructure/storage"
	"github.com/embedworks/vidembed/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := postgres.Migrate(cfg.Database.DSN()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("database migrations applied")

	// Initialize infrastructure clients
	pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.DSN()))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()
	logger.Info("connected to PostgreSQL")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis")

	queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:       cfg.MinIO.Endpoint,
		PublicEndpoint: cfg.MinIO.PublicEndpoint,
		AccessKey:      cfg.MinIO.AccessKey,
		SecretKey:      cfg.MinIO.SecretKey,
		Bucket:         cfg.MinIO.Bucket,
		UseSSL:         cfg.MinIO.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %w", err)
	}
	logger.Info("connected to MinIO")

	// Initialize services
	settings := cfg.Embed.Settings()

	embedStore := postgres.NewEmbedStore(pgClient.Pool())
	embedCache := cache.NewRedisEmbedCache(redisClient)
	fetcher := oembed.NewClient(oembed.ClientConfig{
		Timeout:   cfg.Oembed.Timeout,
		UserAgent: cfg.Oembed.UserAgent,
	}, settings)

	embedSvc := usecase.NewEmbedService(
		embedStore,
		fetcher,
		queueClient,
		storageClient,
		settings,
		usecase.EmbedServiceConfig{ThumbnailURLExpiry: cfg.Embed.ThumbnailURLExpiry},
	)
	cachedSvc := usecase.NewCachedEmbedService(
		embedSvc,
		embedCache,
		usecase.CachedEmbedServiceConfig{CacheTTL: cfg.Embed.HotCacheTTL},
	)
	formatSvc := usecase.NewFormatService(cachedSvc, settings)

	h := handler.NewEmbedHandler(cachedSvc, formatSvc)

	ready := handler.Readiness(map[string]func(context.Context) error{
		"postgres": pgClient.Ping,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
		"minio": storageClient.Ping,
	})

	r := setupRouter(logger, h, ready)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupRouter(logger *slog.Logger, h *handler.EmbedHandler, ready http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get("/health", handler.Health)
	r.Get("/ready", ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/format", h.Format)

		r.Route("/embeds", func(r chi.Router) {
			r.Get("/", h.List)
			r.Delete("/", h.DeleteAll)
			r.Get("/count", h.Count)
			r.Delete("/{videoID}", h.DeleteOne)
			r.Post("/{videoID}/refresh", h.Refresh)
			r.Get("/{videoID}/thumbnail", h.Thumbnail)
		})
	})

	return r
}
