package predictor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwatch/driftwatch/pkg/models"
)

// stubClient returns a canned reply or error and counts calls.
type stubClient struct {
	reply string
	err   error
	calls int
}

func (s *stubClient) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubClient) HealthCheck(ctx context.Context) error { return nil }
func (s *stubClient) Close() error                          { return nil }

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func risingWindow(host, metric string, values []float64, interval time.Duration) *models.MetricWindow {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	samples := make([]models.MetricSample, len(values))
	for i, v := range values {
		samples[i] = models.MetricSample{
			Timestamp: start.Add(time.Duration(i) * interval),
			Host:      host,
			Metric:    metric,
			Value:     v,
		}
	}
	return models.NewMetricWindow(host, metric, samples)
}

func cpuThreshold(value float64) models.Threshold {
	return models.Threshold{Metric: "cpu_usage", Value: value, Direction: models.DirectionAbove}
}

func TestRequestPrediction_ValidReply(t *testing.T) {
	client := &stubClient{reply: `{
		"host": "host-01",
		"metric": "cpu_usage",
		"current_value": 95,
		"predicted_value": 97.5,
		"time_to_reach_threshold": "already breached",
		"status": "warning",
		"trend": "increasing",
		"anomaly_detected": false,
		"explanation": "steady climb over the window",
		"recommendation": "investigate the workload",
		"suggested_threshold": null
	}`}

	window := risingWindow("host-01", "cpu_usage",
		[]float64{40, 46, 52, 58, 64, 70, 76, 82, 88, 95}, 5*time.Minute)

	r := New(Config{Client: client, Now: fixedNow})
	record, err := r.RequestPrediction(context.Background(), window, cpuThreshold(90))
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "host-01", record.Host)
	assert.Equal(t, "cpu_usage", record.Metric)
	assert.Equal(t, 95.0, record.CurrentValue)
	assert.Equal(t, 97.5, record.PredictedValue)
	assert.Equal(t, "already breached", record.TimeToReachThreshold)
	assert.Equal(t, models.StatusWarning, record.Status)
	assert.Equal(t, models.TrendIncreasing, record.Trend)
	assert.False(t, record.AnomalyDetected)
	assert.Equal(t, models.SourceModel, record.Source)
	assert.Nil(t, record.SuggestedThreshold)
	assert.Equal(t, fixedNow(), record.Timestamp)
}

func TestRequestPrediction_TransportFailureFallsBack(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}

	window := risingWindow("host-02", "cpu_usage",
		[]float64{50, 55, 60, 65, 70}, 5*time.Minute)

	r := New(Config{Client: client, Now: fixedNow})
	record, err := r.RequestPrediction(context.Background(), window, cpuThreshold(90))
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.True(t, record.IsFallback())
	assert.Equal(t, models.SourceFallback, record.Source)
	assert.Equal(t, FallbackExplanation, record.Explanation)
	assert.Equal(t, 70.0, record.CurrentValue)
	assert.Equal(t, models.TrendIncreasing, record.Trend)
	assert.False(t, record.AnomalyDetected)
	assert.Nil(t, record.SuggestedThreshold)
}

func TestRequestPrediction_UnparsableReplyFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"plain prose", "I cannot answer that."},
		{"malformed json", `{"predicted_value": 80, "status":`},
		{"missing required field", `{"predicted_value": 80, "status": "ok"}`},
		{"invalid status enum", `{
			"predicted_value": 80,
			"time_to_reach_threshold": "N/A",
			"status": "fine",
			"trend": "stable",
			"anomaly_detected": false,
			"suggested_threshold": null
		}`},
		{"invalid trend enum", `{
			"predicted_value": 80,
			"time_to_reach_threshold": "N/A",
			"status": "ok",
			"trend": "sideways",
			"anomaly_detected": false,
			"suggested_threshold": null
		}`},
		{"mistyped anomaly flag", `{
			"predicted_value": 80,
			"time_to_reach_threshold": "N/A",
			"status": "ok",
			"trend": "stable",
			"anomaly_detected": "no",
			"suggested_threshold": null
		}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{reply: tt.reply}
			window := risingWindow("host-03", "cpu_usage",
				[]float64{50, 51, 52, 51, 50}, 5*time.Minute)

			r := New(Config{Client: client, Now: fixedNow})
			record, err := r.RequestPrediction(context.Background(), window, cpuThreshold(90))
			require.NoError(t, err)
			require.NotNil(t, record)

			assert.True(t, record.IsFallback())
			assert.Equal(t, FallbackExplanation, record.Explanation)
		})
	}
}

func TestRequestPrediction_InsufficientData(t *testing.T) {
	tests := []struct {
		name   string
		window *models.MetricWindow
	}{
		{"nil window", nil},
		{"empty window", models.NewMetricWindow("host-04", "cpu_usage", nil)},
		{"single sample", risingWindow("host-04", "cpu_usage", []float64{50}, 5*time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{reply: "{}"}

			r := New(Config{Client: client, Now: fixedNow})
			record, err := r.RequestPrediction(context.Background(), tt.window, cpuThreshold(90))

			assert.Nil(t, record)
			assert.ErrorIs(t, err, ErrInsufficientData)
			// No model call, no record: the window is rejected up front.
			assert.Equal(t, 0, client.calls)
		})
	}
}

func TestRequestPrediction_ProseAroundJSON(t *testing.T) {
	client := &stubClient{reply: fmt.Sprintf(
		"Sure! Here is my analysis:\n%s\nLet me know if you need more.",
		`{
			"predicted_value": 72.5,
			"time_to_reach_threshold": "~2h",
			"status": "ok",
			"trend": "stable",
			"anomaly_detected": false,
			"explanation": "values hover around 70",
			"recommendation": "",
			"suggested_threshold": 85
		}`)}

	window := risingWindow("host-05", "cpu_usage",
		[]float64{70, 71, 70, 69, 70, 71}, 5*time.Minute)

	r := New(Config{Client: client, Now: fixedNow})
	record, err := r.RequestPrediction(context.Background(), window, cpuThreshold(90))
	require.NoError(t, err)

	assert.Equal(t, models.SourceModel, record.Source)
	assert.Equal(t, 72.5, record.PredictedValue)
	require.NotNil(t, record.SuggestedThreshold)
	assert.Equal(t, 85.0, *record.SuggestedThreshold)
}

func TestRequestPrediction_WindowOwnsGroundTruth(t *testing.T) {
	// The model claims a different host and current value; the record must
	// carry the window's.
	client := &stubClient{reply: `{
		"host": "some-other-host",
		"metric": "disk_used",
		"current_value": 1,
		"predicted_value": 66,
		"time_to_reach_threshold": "N/A",
		"status": "ok",
		"trend": "stable",
		"anomaly_detected": false,
		"suggested_threshold": null
	}`}

	window := risingWindow("host-06", "cpu_usage",
		[]float64{60, 61, 62, 63}, 5*time.Minute)

	r := New(Config{Client: client, Now: fixedNow})
	record, err := r.RequestPrediction(context.Background(), window, cpuThreshold(90))
	require.NoError(t, err)

	assert.Equal(t, "host-06", record.Host)
	assert.Equal(t, "cpu_usage", record.Metric)
	assert.Equal(t, 63.0, record.CurrentValue)
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	window := risingWindow("host-07", "cpu_usage",
		[]float64{40, 50, 60}, 5*time.Minute)
	threshold := cpuThreshold(90)

	first := BuildPrompt(window, threshold)
	second := BuildPrompt(window, threshold)
	assert.Equal(t, first, second)

	assert.Contains(t, first, "Host: host-07")
	assert.Contains(t, first, "Metric: cpu_usage")
	assert.Contains(t, first, "Threshold: 90 (alert when above)")
	assert.Contains(t, first, "2025-03-01T10:00:00Z 40")
	assert.Contains(t, first, "2025-03-01T10:10:00Z 60")
}
