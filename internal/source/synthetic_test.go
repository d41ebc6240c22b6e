package source

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Deterministic(t *testing.T) {
	cfg := GeneratorConfig{
		Seed:        42,
		Hosts:       2,
		Samples:     50,
		Interval:    5 * time.Minute,
		AnomalyRate: 0.05,
	}

	first := NewGenerator(cfg)
	second := NewGenerator(cfg)

	for _, host := range first.Hosts() {
		for _, profile := range first.Profiles() {
			assert.Equal(t,
				first.Series(host, profile),
				second.Series(host, profile),
				"series for %s/%s must be reproducible", host, profile.Name)
		}
	}
}

func TestGenerator_SeedChangesOutput(t *testing.T) {
	base := GeneratorConfig{Hosts: 1, Samples: 50, Interval: 5 * time.Minute}

	a := NewGenerator(base)
	base.Seed = 7
	b := NewGenerator(base)

	profile := a.Profiles()[0]
	assert.NotEqual(t, a.Series("host-01", profile), b.Series("host-01", profile))
}

func TestGenerator_SeriesShape(t *testing.T) {
	g := NewGenerator(GeneratorConfig{
		Seed:     1,
		Hosts:    1,
		Samples:  20,
		Interval: time.Minute,
		Start:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	profile := MetricProfile{Name: "cpu_usage", Base: 30, Noise: 8, Min: 0, Max: 100}
	series := g.Series("host-01", profile)
	require.Len(t, series, 20)

	for i, s := range series {
		assert.Equal(t, "host-01", s.Host)
		assert.Equal(t, "cpu_usage", s.Metric)
		assert.GreaterOrEqual(t, s.Value, 0.0)
		assert.LessOrEqual(t, s.Value, 100.0)
		expected := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute)
		assert.Equal(t, expected, s.Timestamp)
	}
}

func TestGenerator_AnomalySpikes(t *testing.T) {
	// A high anomaly rate must produce flagged samples, all in the top
	// decile of the profile range.
	g := NewGenerator(GeneratorConfig{
		Seed:        3,
		Hosts:       1,
		Samples:     500,
		Interval:    time.Minute,
		AnomalyRate: 0.2,
	})

	profile := MetricProfile{Name: "cpu_usage", Base: 30, Noise: 8, Min: 0, Max: 100}
	series := g.Series("host-01", profile)

	var anomalies int
	for _, s := range series {
		if s.Anomaly {
			anomalies++
			assert.GreaterOrEqual(t, s.Value, 90.0)
		}
	}
	assert.Greater(t, anomalies, 0)
}

func TestSyntheticSource_PairsAndWindows(t *testing.T) {
	src := NewSyntheticSource(GeneratorConfig{
		Seed:     42,
		Hosts:    2,
		Samples:  30,
		Interval: 5 * time.Minute,
	})
	ctx := context.Background()

	pairs, err := src.Pairs(ctx)
	require.NoError(t, err)
	// 2 hosts x 3 default profiles, sorted by host then metric.
	require.Len(t, pairs, 6)
	assert.Equal(t, Pair{Host: "host-01", Metric: "cpu_usage"}, pairs[0])
	assert.Equal(t, Pair{Host: "host-02", Metric: "net_in"}, pairs[5])

	window, err := src.Window(ctx, "host-01", "cpu_usage", 10)
	require.NoError(t, err)
	assert.Len(t, window.Samples, 10)
	assert.NoError(t, window.Validate())

	// The window is the tail of the series.
	full, err := src.Window(ctx, "host-01", "cpu_usage", 0)
	require.NoError(t, err)
	assert.Len(t, full.Samples, 30)
	assert.Equal(t, full.Samples[20:], window.Samples)
}

func TestSyntheticSource_UnknownPair(t *testing.T) {
	src := NewSyntheticSource(GeneratorConfig{Seed: 42, Hosts: 1, Samples: 10})

	_, err := src.Window(context.Background(), "no-such-host", "cpu_usage", 10)
	assert.ErrorIs(t, err, ErrPairNotFound)

	_, err = src.Window(context.Background(), "host-01", "no_such_metric", 10)
	assert.ErrorIs(t, err, ErrPairNotFound)
}

func TestWriteCSV_Deterministic(t *testing.T) {
	cfg := GeneratorConfig{
		Seed:        42,
		Hosts:       2,
		Samples:     20,
		Interval:    5 * time.Minute,
		AnomalyRate: 0.05,
	}

	var first, second bytes.Buffer

	rowsA, anomaliesA, err := WriteCSV(&first, NewGenerator(cfg))
	require.NoError(t, err)
	rowsB, anomaliesB, err := WriteCSV(&second, NewGenerator(cfg))
	require.NoError(t, err)

	assert.Equal(t, rowsA, rowsB)
	assert.Equal(t, anomaliesA, anomaliesB)
	assert.Equal(t, first.Bytes(), second.Bytes())
	assert.Equal(t, 2*3*20, rowsA)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.01, round2(1.006))
	assert.Equal(t, 72.35, round2(72.349))
	// Negative values round to the nearest cent instead of truncating
	// toward zero.
	assert.Equal(t, -1.24, round2(-1.238))
	assert.Equal(t, -0.5, round2(-0.496))
}
