package predictor

import (
	"fmt"
	"math"
	"time"

	"github.com/driftwatch/driftwatch/pkg/models"
)

const (
	// FallbackExplanation is the fixed message on every heuristic record;
	// callers and tests key off it verbatim.
	FallbackExplanation = "Prediction unavailable: model output could not be used."

	FallbackRecommendation = "Check model service connectivity and output format."

	// anomalyZScoreCutoff flags the latest sample as anomalous when it
	// sits this many standard deviations from the window mean.
	anomalyZScoreCutoff = 3.0

	// stableSlopeRatio bounds the per-step slope, relative to the latest
	// value, below which the trend counts as stable.
	stableSlopeRatio = 0.005
)

// fallbackRecord builds a displayable prediction from local heuristics when
// the model path fails: linear trend over the window, distance to the
// threshold, and a z-score anomaly rule. Deterministic for a given window.
func fallbackRecord(window *models.MetricWindow, threshold models.Threshold, now time.Time) *models.PredictionRecord {
	values := window.Values()
	latest := window.Latest().Value
	slope := linearSlope(values)

	return &models.PredictionRecord{
		Timestamp:            now,
		Host:                 window.Host,
		Metric:               window.Metric,
		CurrentValue:         latest,
		PredictedValue:       latest + slope,
		TimeToReachThreshold: estimateTimeToThreshold(latest, slope, threshold, window.Interval()),
		Status:               localStatus(latest, threshold),
		Trend:                localTrend(slope, latest),
		AnomalyDetected:      zScore(values) >= anomalyZScoreCutoff,
		Explanation:          FallbackExplanation,
		Recommendation:       FallbackRecommendation,
		SuggestedThreshold:   nil,
		Source:               models.SourceFallback,
		CreatedAt:            now,
	}
}

// linearSlope fits a least-squares line over the values and returns the
// change per sample step.
func linearSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func localTrend(slope, latest float64) models.Trend {
	band := stableSlopeRatio * math.Max(math.Abs(latest), 1)
	switch {
	case slope > band:
		return models.TrendIncreasing
	case slope < -band:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

func localStatus(latest float64, threshold models.Threshold) models.PredictionStatus {
	if threshold.Breached(latest) {
		return models.StatusCritical
	}

	// Within a tenth of the threshold magnitude counts as near-breach.
	margin := 0.1 * math.Abs(threshold.Value)
	if threshold.Distance(latest) <= margin {
		return models.StatusWarning
	}

	return models.StatusOK
}

// estimateTimeToThreshold extrapolates the fitted line to the breach
// boundary. "N/A" when the metric is not moving toward the threshold.
func estimateTimeToThreshold(latest, slope float64, threshold models.Threshold, interval time.Duration) string {
	if threshold.Breached(latest) {
		return "already breached"
	}
	if slope == 0 || interval <= 0 {
		return "N/A"
	}

	gap := threshold.Value - latest
	steps := gap / slope
	if steps <= 0 {
		// Moving away from the threshold.
		return "N/A"
	}

	eta := time.Duration(steps * float64(interval)).Round(time.Minute)
	if eta <= 0 {
		eta = interval
	}
	return fmt.Sprintf("~%s", eta)
}

// zScore measures how far the latest value sits from the mean of the rest
// of the window, in standard deviations.
func zScore(values []float64) float64 {
	if len(values) < 3 {
		return 0
	}

	history := values[:len(values)-1]
	latest := values[len(values)-1]

	var sum float64
	for _, v := range history {
		sum += v
	}
	mean := sum / float64(len(history))

	var varSum float64
	for _, v := range history {
		d := v - mean
		varSum += d * d
	}
	stddev := math.Sqrt(varSum / float64(len(history)))
	if stddev == 0 {
		return 0
	}

	return math.Abs(latest-mean) / stddev
}
