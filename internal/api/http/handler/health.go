package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HealthService interface {
	IsOK(ctx context.Context) (bool, error)
}

type HealthHandler struct {
	BaseHandler

	log *zap.Logger
	svc HealthService
}

func NewHealthHandler(log *zap.Logger, svc HealthService) *HealthHandler {
	return &HealthHandler{
		BaseHandler: BaseHandler{},
		log:         log,
		svc:         svc,
	}
}

// Ping answers "pong" without touching any dependency.
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, ResponseWithMessage{
		Status:  StatusSuccess,
		Message: "pong",
	})
}

// Health reports whether the reminder store answers.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	if _, err := h.svc.IsOK(ctx); err != nil {
		h.log.Warn("Health check failed", zap.Error(err))

		c.JSON(http.StatusServiceUnavailable, ResponseWithMessage{
			Status:  StatusErr,
			Message: err.Error(),
		})

		return
	}

	c.JSON(http.StatusOK, ResponseWithMessage{
		Status:  StatusOK,
		Message: "reminder store is reachable",
	})
}
