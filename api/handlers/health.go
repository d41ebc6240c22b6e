package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/driftwatch/driftwatch/internal/llm"
	"github.com/driftwatch/driftwatch/internal/source"
	"github.com/driftwatch/driftwatch/pkg/database"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	db     *database.DB
	model  llm.Client
	source source.Source
}

func NewHealthHandler(db *database.DB, model llm.Client, src source.Source) *HealthHandler {
	return &HealthHandler{db: db, model: model, source: src}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health reports every dependency. A dead model endpoint degrades the
// status but does not flip it to unhealthy; predictions keep flowing via
// the fallback path.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	status := "healthy"

	if err := h.db.HealthCheck(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		checks["database"] = "healthy"
	}

	if err := h.source.HealthCheck(ctx); err != nil {
		checks["source"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		checks["source"] = "healthy"
	}

	if err := h.model.HealthCheck(ctx); err != nil {
		checks["model"] = "unreachable: " + err.Error()
		if status == "healthy" {
			status = "degraded"
		}
	} else {
		checks["model"] = "healthy"
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// Ready requires a reachable database with migrations applied.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:    "not ready",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	exists, err := h.db.TableExists(ctx, "predictions")
	if err != nil || !exists {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:    "not ready",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    map[string]string{"predictions_table": "missing"},
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
