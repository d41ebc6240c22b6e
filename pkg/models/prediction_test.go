package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validRecord() *PredictionRecord {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	return &PredictionRecord{
		Timestamp:            now,
		Host:                 "host-01",
		Metric:               "cpu_usage",
		CurrentValue:         72.5,
		PredictedValue:       81.0,
		TimeToReachThreshold: "~25m0s",
		Status:               StatusWarning,
		Trend:                TrendIncreasing,
		Explanation:          "steady climb over the window",
		Source:               SourceModel,
		CreatedAt:            now,
	}
}

func TestPredictionRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *PredictionRecord)
		wantErr bool
	}{
		{"valid record", func(r *PredictionRecord) {}, false},
		{"fallback source", func(r *PredictionRecord) { r.Source = SourceFallback }, false},
		{"missing host", func(r *PredictionRecord) { r.Host = "" }, true},
		{"missing metric", func(r *PredictionRecord) { r.Metric = "" }, true},
		{"zero timestamp", func(r *PredictionRecord) { r.Timestamp = time.Time{} }, true},
		{"invalid status", func(r *PredictionRecord) { r.Status = "okay" }, true},
		{"invalid trend", func(r *PredictionRecord) { r.Trend = "rising" }, true},
		{"invalid source", func(r *PredictionRecord) { r.Source = "heuristic" }, true},
		{"empty source", func(r *PredictionRecord) { r.Source = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(r)

			err := r.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPredictionRecord_IsFallback(t *testing.T) {
	r := validRecord()
	assert.False(t, r.IsFallback())

	r.Source = SourceFallback
	assert.True(t, r.IsFallback())
}

func TestParsePredictionStatus(t *testing.T) {
	for _, s := range []string{"ok", "warning", "critical"} {
		status, err := ParsePredictionStatus(s)
		assert.NoError(t, err)
		assert.Equal(t, PredictionStatus(s), status)
	}

	_, err := ParsePredictionStatus("OK")
	assert.Error(t, err)
}

func TestParseTrend(t *testing.T) {
	for _, s := range []string{"increasing", "decreasing", "stable"} {
		trend, err := ParseTrend(s)
		assert.NoError(t, err)
		assert.Equal(t, Trend(s), trend)
	}

	_, err := ParseTrend("flat")
	assert.Error(t, err)
}
