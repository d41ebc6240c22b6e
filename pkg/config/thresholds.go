package config

import (
	"errors"
	"fmt"

	"github.com/driftwatch/driftwatch/pkg/models"
)

// ErrThresholdNotConfigured means a metric has no breach condition, so
// its pairs cannot be predicted.
var ErrThresholdNotConfigured = errors.New("no threshold configured for metric")

// Threshold resolves the configured breach condition for a metric.
func (p PredictorConfig) Threshold(metric string) (models.Threshold, error) {
	tc, ok := p.Thresholds[metric]
	if !ok {
		return models.Threshold{}, fmt.Errorf("%w: %q", ErrThresholdNotConfigured, metric)
	}

	direction, err := models.ParseThresholdDirection(tc.Direction)
	if err != nil {
		return models.Threshold{}, fmt.Errorf("threshold for metric %q: %w", metric, err)
	}

	return models.Threshold{
		Metric:    metric,
		Value:     tc.Value,
		Direction: direction,
	}, nil
}
