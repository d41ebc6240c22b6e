package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/driftwatch/driftwatch/internal/predictor"
	"github.com/driftwatch/driftwatch/internal/runner"
	"github.com/driftwatch/driftwatch/internal/source"
	"github.com/driftwatch/driftwatch/pkg/config"
	"github.com/driftwatch/driftwatch/pkg/database/queries"
	"github.com/driftwatch/driftwatch/pkg/models"
	"github.com/driftwatch/driftwatch/pkg/validation"
	"github.com/gin-gonic/gin"
)

// PredictionRunner is the slice of the runner the API needs.
type PredictionRunner interface {
	RunPair(ctx context.Context, host, metric string) (*models.PredictionRecord, error)
	RunOnce(ctx context.Context) (*runner.Summary, error)
}

type PredictionHandler struct {
	repo   *queries.PredictionRepository
	runner PredictionRunner
	config *config.APIConfig
}

func NewPredictionHandler(repo *queries.PredictionRepository, run PredictionRunner, cfg *config.APIConfig) *PredictionHandler {
	return &PredictionHandler{
		repo:   repo,
		runner: run,
		config: cfg,
	}
}

func (h *PredictionHandler) getDefaultLimit() int {
	if h.config != nil && h.config.DefaultLimit > 0 {
		return h.config.DefaultLimit
	}
	return 100
}

func (h *PredictionHandler) getMaxLimit() int {
	if h.config != nil && h.config.MaxLimit > 0 {
		return h.config.MaxLimit
	}
	return 1000
}

// List returns recent predictions, newest first, optionally filtered by
// host, metric, or source.
func (h *PredictionHandler) List(c *gin.Context) {
	limit := h.parseLimit(c, h.getDefaultLimit())
	filter := queries.ListFilter{
		Host:   c.Query("host"),
		Metric: c.Query("metric"),
	}

	if src := c.Query("source"); src != "" {
		if src != string(models.SourceModel) && src != string(models.SourceFallback) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "source must be model or fallback"})
			return
		}
		filter.Source = models.RecordSource(src)
	}

	records, err := h.repo.ListRecent(c.Request.Context(), limit, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch predictions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  records,
		"count": len(records),
	})
}

// Latest returns the newest prediction for one host/metric pair.
func (h *PredictionHandler) Latest(c *gin.Context) {
	host := c.Query("host")
	metric := c.Query("metric")
	if host == "" || metric == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "host and metric are required"})
		return
	}

	record, err := h.repo.Latest(c.Request.Context(), host, metric)
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no prediction for this pair"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch prediction"})
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *PredictionHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prediction id"})
		return
	}

	record, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "prediction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch prediction"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// Stats reports how many stored predictions came from the model versus
// the fallback heuristics.
func (h *PredictionHandler) Stats(c *gin.Context) {
	counts, err := h.repo.CountBySource(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stats"})
		return
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	c.JSON(http.StatusOK, gin.H{
		"total":    total,
		"model":    counts[models.SourceModel],
		"fallback": counts[models.SourceFallback],
	})
}

type predictRequest struct {
	Host   string `json:"host" binding:"required"`
	Metric string `json:"metric" binding:"required"`
}

// Predict runs one on-demand prediction for a pair and returns the stored
// record. The record may come from the fallback path; the source field
// says which.
func (h *PredictionHandler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "host and metric are required"})
		return
	}

	if err := validation.ValidateHostName(req.Host); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidateMetricName(req.Metric); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.runner.RunPair(c.Request.Context(), req.Host, req.Metric)
	if err != nil {
		switch {
		case errors.Is(err, source.ErrPairNotFound), errors.Is(err, source.ErrNoSamples):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown host/metric pair"})
		case errors.Is(err, predictor.ErrInsufficientData):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "not enough samples to predict"})
		case errors.Is(err, config.ErrThresholdNotConfigured):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no threshold configured for metric"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, record)
}

// RunCycle triggers a full prediction cycle over every known pair.
func (h *PredictionHandler) RunCycle(c *gin.Context) {
	summary, err := h.runner.RunOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cycle failed"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *PredictionHandler) parseLimit(c *gin.Context, defaultLimit int) int {
	maxLimit := h.getMaxLimit()
	limit := defaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
			if limit > maxLimit {
				limit = maxLimit
			}
		}
	}
	return limit
}
