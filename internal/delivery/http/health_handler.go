package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/usecase"
)

// ServiceHandler reports relay health and proxies the remote model catalogue.
type ServiceHandler struct {
	infoUC *usecase.ServiceInfoUsecase
	logger *zap.Logger
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(infoUC *usecase.ServiceInfoUsecase, logger *zap.Logger) *ServiceHandler {
	return &ServiceHandler{infoUC: infoUC, logger: logger}
}

// Health handles GET /api/v1/health
func (h *ServiceHandler) Health(c *gin.Context) {
	health, err := h.infoUC.Health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "degraded",
			"colorizer": gin.H{"status": "unreachable"},
			"error":     err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"colorizer": health,
	})
}

// Models handles GET /api/v1/models
func (h *ServiceHandler) Models(c *gin.Context) {
	models, err := h.infoUC.Models(c.Request.Context())
	if err != nil {
		h.logger.Warn("Model catalogue unavailable", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Colorization service unavailable"})
		return
	}
	c.JSON(http.StatusOK, models)
}
