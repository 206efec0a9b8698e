package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/proof-of-inference/avs-backend/pkg/logging"
)

// MetricsHandler exposes prometheus metrics
type MetricsHandler struct {
	logger  logging.Logger
	handler gin.HandlerFunc
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(logger logging.Logger) *MetricsHandler {
	return &MetricsHandler{
		logger:  logger,
		handler: gin.WrapH(promhttp.Handler()),
	}
}

// Metrics serves the prometheus metrics endpoint
func (h *MetricsHandler) Metrics(c *gin.Context) {
	h.handler(c)
}
