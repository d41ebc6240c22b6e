package predictor

import (
	"context"
	"fmt"
	"time"

	"github.com/driftwatch/driftwatch/internal/llm"
	"github.com/driftwatch/driftwatch/internal/logger"
	"github.com/driftwatch/driftwatch/pkg/models"
)

// Requester turns a metric window plus threshold into a validated
// prediction record, tolerating an unreliable free-text collaborator. It
// never writes to the store itself.
type Requester struct {
	client llm.Client
	now    func() time.Time
}

type Config struct {
	Client llm.Client

	// Now overrides the clock; tests use it to pin record timestamps.
	Now func() time.Time
}

func New(cfg Config) *Requester {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Requester{
		client: cfg.Client,
		now:    now,
	}
}

// RequestPrediction runs the full request cycle: validate the window,
// prompt the model, parse and validate the reply. Transport and parse
// failures degrade to a deterministic local fallback record; only a window
// unfit for prediction is surfaced as an error, before any model call.
func (r *Requester) RequestPrediction(ctx context.Context, window *models.MetricWindow, threshold models.Threshold) (*models.PredictionRecord, error) {
	if window == nil {
		return nil, fmt.Errorf("%w: nil window", ErrInsufficientData)
	}
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientData, err)
	}

	prompt := BuildPrompt(window, threshold)

	raw, err := r.client.Complete(ctx, prompt)
	if err != nil {
		logger.WithPair(window.Host, window.Metric).Warnf(
			"Model call failed, using local fallback: %v", err)
		return fallbackRecord(window, threshold, r.now()), nil
	}

	reply, err := ParseReply(raw)
	if err != nil {
		logger.WithPair(window.Host, window.Metric).Warnf(
			"Model reply rejected, using local fallback: %v", err)
		return fallbackRecord(window, threshold, r.now()), nil
	}

	record := r.buildRecord(window, reply)
	if err := record.Validate(); err != nil {
		logger.WithPair(window.Host, window.Metric).Warnf(
			"Model record invalid, using local fallback: %v", err)
		return fallbackRecord(window, threshold, r.now()), nil
	}

	return record, nil
}

// buildRecord combines the model reply with window-derived ground truth.
// Host, metric and the current value come from the window; the model only
// supplies the forward-looking fields.
func (r *Requester) buildRecord(window *models.MetricWindow, reply *ModelReply) *models.PredictionRecord {
	now := r.now()
	return &models.PredictionRecord{
		Timestamp:            now,
		Host:                 window.Host,
		Metric:               window.Metric,
		CurrentValue:         window.Latest().Value,
		PredictedValue:       reply.PredictedValue,
		TimeToReachThreshold: reply.TimeToReachThreshold,
		Status:               reply.Status,
		Trend:                reply.Trend,
		AnomalyDetected:      reply.AnomalyDetected,
		Explanation:          reply.Explanation,
		Recommendation:       reply.Recommendation,
		SuggestedThreshold:   reply.SuggestedThreshold,
		Source:               models.SourceModel,
		CreatedAt:            now,
	}
}
