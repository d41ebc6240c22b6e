package predictor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/driftwatch/driftwatch/pkg/models"
)

func TestLinearSlope(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"perfect line", []float64{10, 20, 30, 40}, 10},
		{"flat", []float64{5, 5, 5, 5}, 0},
		{"descending", []float64{40, 30, 20, 10}, -10},
		{"single value", []float64{7}, 0},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, linearSlope(tt.values), 1e-9)
		})
	}
}

func TestLocalTrend(t *testing.T) {
	tests := []struct {
		name     string
		slope    float64
		latest   float64
		expected models.Trend
	}{
		{"clear climb", 2.0, 50, models.TrendIncreasing},
		{"clear drop", -2.0, 50, models.TrendDecreasing},
		{"tiny wiggle is stable", 0.1, 50, models.TrendStable},
		{"zero slope", 0, 50, models.TrendStable},
		{"small value uses unit band", 0.004, 0.1, models.TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, localTrend(tt.slope, tt.latest))
		})
	}
}

func TestLocalStatus(t *testing.T) {
	above := models.Threshold{Metric: "cpu_usage", Value: 90, Direction: models.DirectionAbove}
	below := models.Threshold{Metric: "free_mem", Value: 10, Direction: models.DirectionBelow}

	tests := []struct {
		name      string
		latest    float64
		threshold models.Threshold
		expected  models.PredictionStatus
	}{
		{"well under threshold", 50, above, models.StatusOK},
		{"near threshold", 85, above, models.StatusWarning},
		{"at threshold", 90, above, models.StatusCritical},
		{"over threshold", 95, above, models.StatusCritical},
		{"comfortably above floor", 30, below, models.StatusOK},
		{"close to floor", 10.5, below, models.StatusWarning},
		{"under floor", 8, below, models.StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, localStatus(tt.latest, tt.threshold))
		})
	}
}

func TestEstimateTimeToThreshold(t *testing.T) {
	above := models.Threshold{Metric: "cpu_usage", Value: 90, Direction: models.DirectionAbove}

	tests := []struct {
		name     string
		latest   float64
		slope    float64
		interval time.Duration
		expected string
	}{
		{"already breached", 95, 1, 5 * time.Minute, "already breached"},
		{"flat never reaches", 50, 0, 5 * time.Minute, "N/A"},
		{"moving away", 50, -2, 5 * time.Minute, "N/A"},
		{"ten steps out", 70, 2, 5 * time.Minute, "~50m0s"},
		{"one step out", 88, 2, 5 * time.Minute, "~5m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := estimateTimeToThreshold(tt.latest, tt.slope, above, tt.interval)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestZScore(t *testing.T) {
	// Latest value far outside a tight history is anomalous.
	spiky := []float64{50, 51, 49, 50, 51, 49, 50, 51, 49, 95}
	assert.GreaterOrEqual(t, zScore(spiky), anomalyZScoreCutoff)

	quiet := []float64{50, 51, 49, 50, 52, 50}
	assert.Less(t, zScore(quiet), anomalyZScoreCutoff)

	// Too short or flat histories never flag.
	assert.Zero(t, zScore([]float64{50, 51}))
	assert.Zero(t, zScore([]float64{50, 50, 50}))
}

func TestFallbackRecord_IsValidAndDeterministic(t *testing.T) {
	window := risingWindow("host-10", "cpu_usage",
		[]float64{60, 65, 70, 75, 80}, 5*time.Minute)
	threshold := cpuThreshold(90)
	now := fixedNow()

	first := fallbackRecord(window, threshold, now)
	second := fallbackRecord(window, threshold, now)

	assert.NoError(t, first.Validate())
	assert.Equal(t, first, second)

	assert.Equal(t, models.SourceFallback, first.Source)
	assert.Equal(t, 80.0, first.CurrentValue)
	assert.Equal(t, 85.0, first.PredictedValue)
	assert.Equal(t, models.TrendIncreasing, first.Trend)
	assert.Equal(t, models.StatusOK, first.Status)
	assert.Equal(t, "~10m0s", first.TimeToReachThreshold)
	assert.Equal(t, FallbackExplanation, first.Explanation)
	assert.Equal(t, FallbackRecommendation, first.Recommendation)
	assert.Nil(t, first.SuggestedThreshold)
}
