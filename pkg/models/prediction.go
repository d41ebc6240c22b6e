package models

import (
	"fmt"
	"time"
)

// PredictionStatus is the predicted alert condition for a host/metric pair.
type PredictionStatus string

const (
	StatusOK       PredictionStatus = "ok"
	StatusWarning  PredictionStatus = "warning"
	StatusCritical PredictionStatus = "critical"
)

func ParsePredictionStatus(s string) (PredictionStatus, error) {
	switch PredictionStatus(s) {
	case StatusOK, StatusWarning, StatusCritical:
		return PredictionStatus(s), nil
	default:
		return "", fmt.Errorf("invalid prediction status: %q", s)
	}
}

// Trend describes the direction of recent metric movement.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

func ParseTrend(s string) (Trend, error) {
	switch Trend(s) {
	case TrendIncreasing, TrendDecreasing, TrendStable:
		return Trend(s), nil
	default:
		return "", fmt.Errorf("invalid trend: %q", s)
	}
}

// RecordSource tags which path produced a prediction record.
type RecordSource string

const (
	SourceModel    RecordSource = "model"
	SourceFallback RecordSource = "fallback"
)

// PredictionRecord is the unit persisted and displayed. Records are
// append-only: created once after validation, never updated or deleted.
type PredictionRecord struct {
	ID                   int64            `json:"id,omitempty"`
	Timestamp            time.Time        `json:"timestamp"`
	Host                 string           `json:"host"`
	Metric               string           `json:"metric"`
	CurrentValue         float64          `json:"current_value"`
	PredictedValue       float64          `json:"predicted_value"`
	TimeToReachThreshold string           `json:"time_to_reach_threshold"`
	Status               PredictionStatus `json:"status"`
	Trend                Trend            `json:"trend"`
	AnomalyDetected      bool             `json:"anomaly_detected"`
	Explanation          string           `json:"explanation"`
	Recommendation       string           `json:"recommendation"`
	SuggestedThreshold   *float64         `json:"suggested_threshold"`
	Source               RecordSource     `json:"source"`
	CreatedAt            time.Time        `json:"created_at"`
}

// Validate checks that every non-free-text field is present and well typed.
// An invalid record must never reach the store.
func (r *PredictionRecord) Validate() error {
	if r.Host == "" {
		return fmt.Errorf("prediction record missing host")
	}
	if r.Metric == "" {
		return fmt.Errorf("prediction record missing metric")
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("prediction record missing timestamp")
	}
	if _, err := ParsePredictionStatus(string(r.Status)); err != nil {
		return err
	}
	if _, err := ParseTrend(string(r.Trend)); err != nil {
		return err
	}
	switch r.Source {
	case SourceModel, SourceFallback:
	default:
		return fmt.Errorf("invalid record source: %q", r.Source)
	}
	return nil
}

func (r *PredictionRecord) IsFallback() bool {
	return r.Source == SourceFallback
}
