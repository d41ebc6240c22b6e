package models

import "fmt"

type ThresholdDirection string

const (
	DirectionAbove ThresholdDirection = "above"
	DirectionBelow ThresholdDirection = "below"
)

func ParseThresholdDirection(s string) (ThresholdDirection, error) {
	switch ThresholdDirection(s) {
	case DirectionAbove, DirectionBelow:
		return ThresholdDirection(s), nil
	default:
		return "", fmt.Errorf("invalid threshold direction: %q", s)
	}
}

// Threshold is a metric-specific breach value plus the direction that
// counts as an alert condition.
type Threshold struct {
	Metric    string             `json:"metric"`
	Value     float64            `json:"value"`
	Direction ThresholdDirection `json:"direction"`
}

// Breached reports whether a value is on the alerting side of the threshold.
func (t Threshold) Breached(value float64) bool {
	if t.Direction == DirectionBelow {
		return value <= t.Value
	}
	return value >= t.Value
}

// Distance returns how far a value is from the breach boundary, positive
// when still on the safe side.
func (t Threshold) Distance(value float64) float64 {
	if t.Direction == DirectionBelow {
		return value - t.Value
	}
	return t.Value - value
}
