package source

import (
	"context"
	"errors"

	"github.com/driftwatch/driftwatch/pkg/models"
)

var (
	ErrPairNotFound      = errors.New("host/metric pair not found")
	ErrNoSamples         = errors.New("no samples available for pair")
	ErrSourceUnavailable = errors.New("metric source unavailable")
)

// Pair identifies one host/metric series.
type Pair struct {
	Host   string `json:"host"`
	Metric string `json:"metric"`
}

// Source supplies bounded, ascending metric windows per host/metric pair.
type Source interface {
	// Pairs enumerates every host/metric series the source knows about.
	Pairs(ctx context.Context) ([]Pair, error)

	// Window returns up to lookback most recent samples for a pair,
	// ordered ascending by timestamp.
	Window(ctx context.Context, host, metric string, lookback int) (*models.MetricWindow, error)

	// HealthCheck verifies the source can serve data.
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the source.
	Close() error
}
