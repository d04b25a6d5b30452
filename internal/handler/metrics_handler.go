package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/models"
)

type loadStatusReader interface {
	Status() models.LoadStatus
}

type cachePinger interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics http.Handler
	loader  loadStatusReader
	cache   cachePinger
}

// NewMetricsHandler constructs a metrics handler. metrics and cache may be nil.
func NewMetricsHandler(metrics http.Handler, loader loadStatusReader, cache cachePinger) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, loader: loader, cache: cache}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 503 until the data set has been loaded. An unreachable cache only degrades
// recap latency, so it is reported without failing the probe.
func (h *MetricsHandler) Ready(c *gin.Context) {
	body := gin.H{"status": "ready", "cache": h.cacheState(c.Request.Context())}
	if h.loader == nil {
		c.JSON(http.StatusOK, body)
		return
	}
	status := h.loader.Status()
	if status.LoadedAt.IsZero() {
		body["status"] = "loading"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["source"] = status.Source
	body["loaded_at"] = status.LoadedAt
	c.JSON(http.StatusOK, body)
}

func (h *MetricsHandler) cacheState(ctx context.Context) string {
	if h.cache == nil || !h.cache.Enabled() {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := h.cache.Ping(ctx); err != nil {
		return "down"
	}
	return "up"
}
