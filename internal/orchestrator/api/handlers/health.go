package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/proof-of-inference/avs-backend/pkg/logging"
)

const (
	serviceName    = "poi-avs-orchestrator"
	serviceVersion = "0.1.0"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	logger logging.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(logger logging.Logger) *HealthHandler {
	return &HealthHandler{
		logger: logger,
	}
}

// Check handles health check requests
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"version":   serviceVersion,
		"timestamp": time.Now().UTC(),
	})
}
