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

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/config"
	handler "github.com/Harsh-BH/chroma/internal/delivery/http"
	"github.com/Harsh-BH/chroma/internal/notify"
	amqpnotify "github.com/Harsh-BH/chroma/internal/notify/amqp"
	"github.com/Harsh-BH/chroma/internal/pool"
	"github.com/Harsh-BH/chroma/internal/remote"
	"github.com/Harsh-BH/chroma/internal/repository"
	"github.com/Harsh-BH/chroma/internal/repository/memory"
	"github.com/Harsh-BH/chroma/internal/repository/postgres"
	redisrepo "github.com/Harsh-BH/chroma/internal/repository/redis"
	"github.com/Harsh-BH/chroma/internal/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting colorization relay")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	gin.SetMode(cfg.Server.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Colorization service client
	client, err := remote.NewClient(cfg.Colorizer.BaseURL, cfg.Colorizer.HTTPTimeout, logger)
	if err != nil {
		logger.Fatal("Invalid colorization service URL", zap.Error(err))
	}

	// Job store: PostgreSQL when configured, in-memory otherwise
	var jobRepo repository.JobRepository
	if cfg.Database.URL != "" {
		dbPool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer dbPool.Close()
		if err := dbPool.Ping(ctx); err != nil {
			logger.Fatal("Failed to ping PostgreSQL", zap.Error(err))
		}
		if err := postgres.EnsureSchema(ctx, dbPool); err != nil {
			logger.Fatal("Failed to prepare schema", zap.Error(err))
		}
		jobRepo = postgres.NewPostgresJobRepository(dbPool)
		logger.Info("Connected to PostgreSQL")
	} else {
		jobRepo = memory.NewJobStore()
		logger.Info("Using in-memory job store")
	}

	// Poll lock: Redis when configured, in-process otherwise
	var pollLock repository.PollLock
	if cfg.Redis.URL != "" {
		redisOpts, err := goredis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Fatal("Invalid Redis URL", zap.Error(err))
		}
		redisClient := goredis.NewClient(redisOpts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		// The lock must outlive the longest possible poll.
		pollLock = redisrepo.NewRedisPollLock(redisClient, cfg.PollBudget()+time.Minute)
		logger.Info("Connected to Redis")
	} else {
		pollLock = memory.NewPollLock()
	}

	// Error event sinks
	sinks := []notify.Sink{notify.NewLogSink(logger)}
	if cfg.RabbitMQ.URL != "" {
		pub, err := amqpnotify.NewPublisher(cfg.RabbitMQ.URL, logger)
		if err != nil {
			logger.Fatal("Failed to initialize RabbitMQ publisher", zap.Error(err))
		}
		defer pub.Close()
		sinks = append(sinks, pub)
		logger.Info("Connected to RabbitMQ")
	}
	reporter := notify.NewReporter(notify.Multi(sinks...), logger)

	// Initialize use cases
	colorizeUC := usecase.NewColorizeUsecase(
		usecase.NewSubmitJobUsecase(client, logger),
		usecase.NewPollJobUsecase(client, pollLock, usecase.SleepContext, logger),
		reporter,
		client.BaseURL(),
		logger,
	)
	getJobUC := usecase.NewGetJobUsecase(jobRepo, client.BaseURL(), logger)
	downloadUC := usecase.NewDownloadUsecase(client, reporter, logger)
	infoUC := usecase.NewServiceInfoUsecase(client, logger)

	// Start worker pool
	workerPool := pool.NewWorkerPool(
		cfg.Worker.PoolSize,
		cfg.Worker.QueueSize,
		colorizeUC,
		jobRepo,
		usecase.PollOptions{MaxAttempts: cfg.Poll.MaxAttempts, Interval: cfg.Poll.Interval},
		logger,
	)
	workerPool.Start(ctx)

	router := handler.NewRouter(ctx, handler.RouterDeps{
		ColorizeUC:    colorizeUC,
		GetJobUC:      getJobUC,
		DownloadUC:    downloadUC,
		ServiceInfoUC: infoUC,
		Repo:          jobRepo,
		Queue:         workerPool,
		Reporter:      reporter,
		UploadPolicy: usecase.UploadPolicy{
			MaxBytes:          cfg.Upload.MaxBytes,
			AllowedExtensions: cfg.Upload.AllowedExtensions,
		},
		RateLimit: cfg.Server.RateLimit,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Relay listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("colorizer", client.BaseURL()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down relay...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// In-flight and queued jobs end TIMED_OUT once the pool context is cancelled.
	cancel()
	workerPool.Stop()

	logger.Info("Relay stopped")
}
