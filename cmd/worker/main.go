package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/embedworks/vidembed/internal/config"
	"github.com/embedworks/vidembed/internal/domain/repository"
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

	// Initialize infrastructure clients
	pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.DSN()))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()
	logger.Info("connected to PostgreSQL")

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

	queueCfg := queue.DefaultClientConfig(cfg.RabbitMQ.URL())
	queueCfg.Prefetch = cfg.Worker.Prefetch
	queueCfg.MaxRetries = cfg.Worker.MaxRetries

	queueClient, err := queue.NewClient(ctx, queueCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	// Initialize Redis client for hot layer eviction
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

	// Initialize repository and service
	settings := cfg.Embed.Settings()

	embedStore := postgres.NewEmbedStore(pgClient.Pool())
	embedCache := cache.NewRedisEmbedCache(redisClient)
	fetcher := oembed.NewClient(oembed.ClientConfig{
		Timeout:   cfg.Oembed.Timeout,
		UserAgent: cfg.Oembed.UserAgent,
	}, settings)

	refreshSvc := usecase.NewRefreshService(embedStore, embedCache, fetcher, storageClient, settings)

	// Setup signal handling for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// WaitGroup to track in-flight tasks
	var wg sync.WaitGroup

	// Start consuming messages in a goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting worker, consuming refresh tasks")
		err := queueClient.ConsumeRefreshTasks(ctx, func(task repository.RefreshTask) error {
			wg.Add(1)
			defer wg.Done()

			logger.Info("processing task",
				slog.String("task_id", task.TaskID.String()),
				slog.String("video_id", task.VideoID),
				slog.Int("retry_count", task.RetryCount),
			)

			if err := refreshSvc.ProcessTask(ctx, task); err != nil {
				logger.Error("task processing failed",
					slog.String("task_id", task.TaskID.String()),
					slog.String("video_id", task.VideoID),
					slog.Int("retry_count", task.RetryCount),
					slog.String("error", err.Error()),
				)
				return err
			}

			logger.Info("task completed successfully",
				slog.String("task_id", task.TaskID.String()),
				slog.String("video_id", task.VideoID),
			)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	// Cancel the main context to stop consuming new messages
	cancel()

	// Wait for in-flight tasks to complete (or timeout)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all in-flight tasks completed")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, some tasks may not have completed")
	}

	logger.Info("worker stopped")
	return nil
}
