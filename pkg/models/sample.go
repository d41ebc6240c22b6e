package models

import (
	"errors"
	"time"
)

var (
	ErrEmptyWindow     = errors.New("metric window is empty")
	ErrMixedWindow     = errors.New("metric window mixes hosts or metrics")
	ErrUnorderedWindow = errors.New("metric window samples are not ascending by time")
	ErrWindowTooShort  = errors.New("metric window has too few samples")
)

// MetricSample is a single observation for one host/metric pair.
// Samples are immutable once produced.
type MetricSample struct {
	Timestamp time.Time `json:"timestamp"`
	Host      string    `json:"host"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Anomaly   bool      `json:"anomaly,omitempty"`
}

// MetricWindow is a bounded, time-ordered slice of samples for a single
// host/metric pair. It is the unit of input to a prediction request.
type MetricWindow struct {
	Host    string         `json:"host"`
	Metric  string         `json:"metric"`
	Samples []MetricSample `json:"samples"`
}

func NewMetricWindow(host, metric string, samples []MetricSample) *MetricWindow {
	return &MetricWindow{
		Host:    host,
		Metric:  metric,
		Samples: samples,
	}
}

// Validate checks the window invariants: non-empty, at least two samples
// (a single point carries no trend), one host/metric pair, ascending order.
func (w *MetricWindow) Validate() error {
	if len(w.Samples) == 0 {
		return ErrEmptyWindow
	}
	if len(w.Samples) < 2 {
		return ErrWindowTooShort
	}

	for i, s := range w.Samples {
		if s.Host != w.Host || s.Metric != w.Metric {
			return ErrMixedWindow
		}
		if i > 0 && s.Timestamp.Before(w.Samples[i-1].Timestamp) {
			return ErrUnorderedWindow
		}
	}

	return nil
}

func (w *MetricWindow) Len() int {
	return len(w.Samples)
}

// Latest returns the most recent sample. Callers must validate first.
func (w *MetricWindow) Latest() MetricSample {
	return w.Samples[len(w.Samples)-1]
}

// Values returns the sample values in time order.
func (w *MetricWindow) Values() []float64 {
	values := make([]float64, len(w.Samples))
	for i, s := range w.Samples {
		values[i] = s.Value
	}
	return values
}

// Interval estimates the sampling interval as the mean gap between samples.
func (w *MetricWindow) Interval() time.Duration {
	if len(w.Samples) < 2 {
		return 0
	}
	span := w.Samples[len(w.Samples)-1].Timestamp.Sub(w.Samples[0].Timestamp)
	return span / time.Duration(len(w.Samples)-1)
}
