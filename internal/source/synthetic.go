package source

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/driftwatch/driftwatch/pkg/models"
)

// MetricProfile shapes one synthetic series: a base level, gaussian noise,
// a slow per-sample drift and clamping bounds.
type MetricProfile struct {
	Name  string
	Base  float64
	Noise float64
	Drift float64
	Min   float64
	Max   float64
}

// DefaultProfiles mirrors the usual monitoring-export metrics: CPU and disk
// percentages plus network byte rates.
func DefaultProfiles() []MetricProfile {
	return []MetricProfile{
		{Name: "cpu_usage", Base: 30, Noise: 8, Drift: 0, Min: 0, Max: 100},
		{Name: "disk_used", Base: 60, Noise: 1.5, Drift: 0.03, Min: 0, Max: 100},
		{Name: "net_in", Base: 200000, Noise: 50000, Drift: 0, Min: 0, Max: 800000},
	}
}

type GeneratorConfig struct {
	Seed        int64
	Hosts       int
	Samples     int
	Interval    time.Duration
	AnomalyRate float64
	Start       time.Time
	Profiles    []MetricProfile
}

// Generator produces reproducible synthetic series: the same seed and
// parameters always yield identical samples. Each series gets its own rng
// derived from the seed and the pair name, so series are independent of
// generation order.
type Generator struct {
	cfg GeneratorConfig
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.Hosts <= 0 {
		cfg.Hosts = 3
	}
	if cfg.Samples <= 0 {
		cfg.Samples = 288
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if len(cfg.Profiles) == 0 {
		cfg.Profiles = DefaultProfiles()
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	return &Generator{cfg: cfg}
}

func (g *Generator) Hosts() []string {
	hosts := make([]string, g.cfg.Hosts)
	for i := range hosts {
		hosts[i] = fmt.Sprintf("host-%02d", i+1)
	}
	return hosts
}

func (g *Generator) Profiles() []MetricProfile {
	return g.cfg.Profiles
}

// Series generates the full sample series for one host/metric pair.
func (g *Generator) Series(host string, profile MetricProfile) []models.MetricSample {
	rng := rand.New(rand.NewSource(g.seriesSeed(host, profile.Name)))

	samples := make([]models.MetricSample, g.cfg.Samples)
	ts := g.cfg.Start

	for i := 0; i < g.cfg.Samples; i++ {
		anomaly := rng.Float64() < g.cfg.AnomalyRate

		var value float64
		if anomaly {
			// Anomalies spike into the top decile of the profile range.
			span := profile.Max - profile.Min
			value = profile.Min + span*0.9 + rng.Float64()*span*0.1
		} else {
			value = profile.Base + profile.Drift*float64(i) + rng.NormFloat64()*profile.Noise
		}

		value = clamp(value, profile.Min, profile.Max)

		samples[i] = models.MetricSample{
			Timestamp: ts,
			Host:      host,
			Metric:    profile.Name,
			Value:     round2(value),
			Anomaly:   anomaly,
		}
		ts = ts.Add(g.cfg.Interval)
	}

	return samples
}

// seriesSeed mixes the configured seed with the pair name so every series
// is deterministic on its own.
func (g *Generator) seriesSeed(host, metric string) int64 {
	h := fnv.New64a()
	h.Write([]byte(host))
	h.Write([]byte{0})
	h.Write([]byte(metric))
	return g.cfg.Seed ^ int64(h.Sum64())
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SyntheticSource serves windows from generated series. Series are built
// once at construction; reads are concurrency-safe because the data is
// never mutated afterwards.
type SyntheticSource struct {
	generator *Generator
	series    map[Pair][]models.MetricSample
	pairs     []Pair
}

func NewSyntheticSource(cfg GeneratorConfig) *SyntheticSource {
	g := NewGenerator(cfg)

	series := make(map[Pair][]models.MetricSample)
	var pairs []Pair
	for _, host := range g.Hosts() {
		for _, profile := range g.Profiles() {
			pair := Pair{Host: host, Metric: profile.Name}
			series[pair] = g.Series(host, profile)
			pairs = append(pairs, pair)
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Host != pairs[j].Host {
			return pairs[i].Host < pairs[j].Host
		}
		return pairs[i].Metric < pairs[j].Metric
	})

	return &SyntheticSource{
		generator: g,
		series:    series,
		pairs:     pairs,
	}
}

func (s *SyntheticSource) Pairs(ctx context.Context) ([]Pair, error) {
	out := make([]Pair, len(s.pairs))
	copy(out, s.pairs)
	return out, nil
}

func (s *SyntheticSource) Window(ctx context.Context, host, metric string, lookback int) (*models.MetricWindow, error) {
	samples, ok := s.series[Pair{Host: host, Metric: metric}]
	if !ok {
		return nil, ErrPairNotFound
	}
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	if lookback > 0 && len(samples) > lookback {
		samples = samples[len(samples)-lookback:]
	}

	window := make([]models.MetricSample, len(samples))
	copy(window, samples)

	return models.NewMetricWindow(host, metric, window), nil
}

func (s *SyntheticSource) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *SyntheticSource) Close() error {
	return nil
}
