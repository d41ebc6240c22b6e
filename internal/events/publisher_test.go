package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwatch/driftwatch/pkg/models"
)

func testRecord(status models.PredictionStatus, src models.RecordSource) *models.PredictionRecord {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	return &models.PredictionRecord{
		Timestamp: now,
		Host:      "host-01",
		Metric:    "cpu_usage",
		Status:    status,
		Trend:     models.TrendIncreasing,
		Source:    src,
		CreatedAt: now,
	}
}

func TestPublisher_PredictionStoredSeverity(t *testing.T) {
	tests := []struct {
		name         string
		status       models.PredictionStatus
		wantSeverity models.EventSeverity
		wantAlert    bool
	}{
		{"ok stays info", models.StatusOK, models.SeverityInfo, false},
		{"warning escalates", models.StatusWarning, models.SeverityWarning, true},
		{"critical escalates", models.StatusCritical, models.SeverityCritical, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewEventBus(8)
			defer bus.Close()

			stored := bus.Subscribe(models.EventTypePredictionStored)
			alerts := bus.Subscribe(models.EventTypeAlert)

			NewPublisher(bus).PredictionStored(testRecord(tt.status, models.SourceModel))

			got := drain(stored)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantSeverity, got[0].Severity)

			alertEvents := drain(alerts)
			if tt.wantAlert {
				require.Len(t, alertEvents, 1)
				assert.Equal(t, tt.wantSeverity, alertEvents[0].Severity)
				assert.Equal(t, "host-01", alertEvents[0].Host)
			} else {
				assert.Empty(t, alertEvents)
			}
		})
	}
}

func TestPublisher_FallbackUsed(t *testing.T) {
	bus := NewEventBus(8)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeFallbackUsed)

	NewPublisher(bus).FallbackUsed(testRecord(models.StatusOK, models.SourceFallback))

	got := drain(ch)
	require.Len(t, got, 1)
	assert.Equal(t, models.SeverityWarning, got[0].Severity)
	assert.Equal(t, "cpu_usage", got[0].Metric)
}

func TestPublisher_ModelUnreachableHasNoHost(t *testing.T) {
	bus := NewEventBus(8)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeModelUnreachable)

	NewPublisher(bus).ModelUnreachable(errors.New("connection refused"))

	got := drain(ch)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Host)
	assert.Equal(t, models.SeverityWarning, got[0].Severity)
}

func TestPublisher_WithTraceID(t *testing.T) {
	bus := NewEventBus(8)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeError)

	NewPublisher(bus).WithTraceID("trace-123").
		Error("host-01", "cpu_usage", "boom", errors.New("boom"))

	got := drain(ch)
	require.Len(t, got, 1)
	assert.Equal(t, "trace-123", got[0].TraceID)
	assert.Equal(t, models.SeverityCritical, got[0].Severity)
}
