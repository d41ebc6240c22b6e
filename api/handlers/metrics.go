package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/driftwatch/driftwatch/internal/source"
	"github.com/driftwatch/driftwatch/pkg/config"
	"github.com/gin-gonic/gin"
)

type MetricsHandler struct {
	source source.Source
	config *config.SourceConfig
}

func NewMetricsHandler(src source.Source, cfg *config.SourceConfig) *MetricsHandler {
	return &MetricsHandler{
		source: src,
		config: cfg,
	}
}

// ListPairs returns every host/metric pair the source knows about.
func (h *MetricsHandler) ListPairs(c *gin.Context) {
	pairs, err := h.source.Pairs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pairs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  pairs,
		"count": len(pairs),
	})
}

// GetWindow returns the recent samples for one pair, the same view the
// predictor sees.
func (h *MetricsHandler) GetWindow(c *gin.Context) {
	host := c.Query("host")
	metric := c.Query("metric")
	if host == "" || metric == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "host and metric are required"})
		return
	}

	lookback := h.defaultLookback()
	if lookbackStr := c.Query("lookback"); lookbackStr != "" {
		parsed, err := strconv.Atoi(lookbackStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lookback must be a positive integer"})
			return
		}
		lookback = parsed
	}

	window, err := h.source.Window(c.Request.Context(), host, metric, lookback)
	if err != nil {
		if errors.Is(err, source.ErrPairNotFound) || errors.Is(err, source.ErrNoSamples) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown host/metric pair"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load window"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"host":    window.Host,
		"metric":  window.Metric,
		"samples": window.Samples,
		"count":   len(window.Samples),
	})
}

func (h *MetricsHandler) defaultLookback() int {
	if h.config != nil && h.config.Lookback > 0 {
		return h.config.Lookback
	}
	return 10
}
