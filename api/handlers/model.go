package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/driftwatch/driftwatch/internal/llm"
	"github.com/driftwatch/driftwatch/pkg/config"
	"github.com/gin-gonic/gin"
)

type ModelHandler struct {
	client *llm.ResilientClient
	config *config.ModelConfig
}

func NewModelHandler(client *llm.ResilientClient, cfg *config.ModelConfig) *ModelHandler {
	return &ModelHandler{client: client, config: cfg}
}

// Status reports the model endpoint, its reachability, and the circuit
// breaker state guarding it.
func (h *ModelHandler) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	reachable := true
	var checkErr string
	if err := h.client.HealthCheck(ctx); err != nil {
		reachable = false
		checkErr = err.Error()
	}

	resp := gin.H{
		"endpoint":  h.config.Endpoint,
		"model":     h.config.Name,
		"reachable": reachable,
		"circuit":   h.client.CircuitState().String(),
	}
	if checkErr != "" {
		resp["error"] = checkErr
	}

	c.JSON(http.StatusOK, resp)
}

// ResetCircuit closes the breaker so the next prediction attempts the
// model again immediately.
func (h *ModelHandler) ResetCircuit(c *gin.Context) {
	h.client.ResetCircuit()
	c.JSON(http.StatusOK, gin.H{"circuit": h.client.CircuitState().String()})
}
