package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/delivery/http/middleware"
	"github.com/Harsh-BH/chroma/internal/notify"
	"github.com/Harsh-BH/chroma/internal/repository"
	"github.com/Harsh-BH/chroma/internal/usecase"
)

// multipartOverhead is headroom for form boundaries and headers on top of
// the raw file size limit.
const multipartOverhead = 1 << 20

// RouterDeps holds everything the relay routes need.
type RouterDeps struct {
	ColorizeUC    *usecase.ColorizeUsecase
	GetJobUC      *usecase.GetJobUsecase
	DownloadUC    *usecase.DownloadUsecase
	ServiceInfoUC *usecase.ServiceInfoUsecase
	Repo          repository.JobRepository
	Queue         JobQueue
	Reporter      *notify.Reporter
	UploadPolicy  usecase.UploadPolicy
	RateLimit     int
	Logger        *zap.Logger
}

// NewRouter creates and configures the Gin router with all routes and middleware.
// ctx bounds background goroutines owned by middleware.
func NewRouter(ctx context.Context, deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(deps.Logger))

	// Metrics endpoint (no rate limiting)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		serviceHandler := NewServiceHandler(deps.ServiceInfoUC, deps.Logger)
		v1.GET("/health", serviceHandler.Health)
		v1.GET("/models", serviceHandler.Models)

		jobHandler := NewJobHandler(
			deps.ColorizeUC,
			deps.GetJobUC,
			deps.DownloadUC,
			deps.Repo,
			deps.Queue,
			deps.Reporter,
			deps.UploadPolicy,
			deps.Logger,
		)
		v1.POST("/jobs",
			middleware.RateLimiter(ctx, deps.RateLimit),
			middleware.BodySizeLimit(deps.UploadPolicy.MaxBytes+multipartOverhead),
			jobHandler.Submit,
		)
		v1.GET("/jobs/:id", jobHandler.GetByID)
		v1.GET("/jobs/:id/download", jobHandler.Download)

		wsHandler := NewWebSocketHandler(deps.GetJobUC, deps.Logger)
		v1.GET("/jobs/:id/stream", wsHandler.Stream)
	}

	return router
}
