package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/driftwatch/driftwatch/internal/logger"
	"github.com/driftwatch/driftwatch/internal/source"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	out := flag.String("out", "metrics.csv", "output file path")
	seed := flag.Int64("seed", 42, "rng seed; same seed gives identical output")
	hosts := flag.Int("hosts", 20, "number of hosts")
	samples := flag.Int("samples", 288, "samples per host/metric series")
	interval := flag.Duration("interval", 5*time.Minute, "sample interval")
	anomalyRate := flag.Float64("anomaly-rate", 0.01, "chance of an anomaly spike per sample")
	start := flag.String("start", "", "series start time (RFC 3339, default 2025-01-01T00:00:00Z)")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger.Setup(*logLevel, "development")

	cfg := source.GeneratorConfig{
		Seed:        *seed,
		Hosts:       *hosts,
		Samples:     *samples,
		Interval:    *interval,
		AnomalyRate: *anomalyRate,
	}
	if *start != "" {
		parsed, err := time.Parse(time.RFC3339, *start)
		if err != nil {
			return fmt.Errorf("invalid start time: %w", err)
		}
		cfg.Start = parsed
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	gen := source.NewGenerator(cfg)
	rows, anomalies, err := source.WriteCSV(f, gen)
	if err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}

	logger.Infof("Wrote %d samples to %s", rows, *out)
	logger.Infof("Injected %d anomalies", len(anomalies))
	for _, a := range anomalies {
		logger.Debugf("anomaly: %s %s %s %.2f",
			a.Timestamp.UTC().Format(time.RFC3339), a.Host, a.Metric, a.Value)
	}

	return nil
}
