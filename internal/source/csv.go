package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/driftwatch/driftwatch/internal/logger"
	"github.com/driftwatch/driftwatch/pkg/models"
)

// CSVHeader is the canonical column layout of the synthetic data file,
// the exchange format between the generator and the predictor.
var CSVHeader = []string{"timestamp", "host", "metric", "value", "anomaly"}

// CSVSource loads a flat metric file and serves windows grouped by
// host/metric pair. Malformed rows are skipped and counted, never fatal.
type CSVSource struct {
	path        string
	series      map[Pair][]models.MetricSample
	pairs       []Pair
	skippedRows int
}

func NewCSVSource(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()

	s := &CSVSource{
		path:   path,
		series: make(map[Pair][]models.MetricSample),
	}

	if err := s.load(f); err != nil {
		return nil, err
	}

	for pair, samples := range s.series {
		sort.Slice(samples, func(i, j int) bool {
			return samples[i].Timestamp.Before(samples[j].Timestamp)
		})
		s.series[pair] = samples
		s.pairs = append(s.pairs, pair)
	}

	sort.Slice(s.pairs, func(i, j int) bool {
		if s.pairs[i].Host != s.pairs[j].Host {
			return s.pairs[i].Host < s.pairs[j].Host
		}
		return s.pairs[i].Metric < s.pairs[j].Metric
	})

	logger.Infof("Loaded %d series from %s (%d malformed rows skipped)",
		len(s.pairs), path, s.skippedRows)

	return s, nil
}

func (s *CSVSource) load(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // row width is validated per record

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("%w: failed to read header: %v", ErrSourceUnavailable, err)
	}
	if len(header) < len(CSVHeader) {
		return fmt.Errorf("%w: unexpected header %v", ErrSourceUnavailable, header)
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.skippedRows++
			continue
		}

		sample, ok := s.parseRow(row)
		if !ok {
			s.skippedRows++
			continue
		}

		pair := Pair{Host: sample.Host, Metric: sample.Metric}
		s.series[pair] = append(s.series[pair], sample)
	}

	return nil
}

func (s *CSVSource) parseRow(row []string) (models.MetricSample, bool) {
	if len(row) < len(CSVHeader) {
		return models.MetricSample{}, false
	}

	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return models.MetricSample{}, false
	}

	host, metric := row[1], row[2]
	if host == "" || metric == "" {
		return models.MetricSample{}, false
	}

	value, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return models.MetricSample{}, false
	}

	anomaly, err := strconv.Atoi(row[4])
	if err != nil {
		return models.MetricSample{}, false
	}

	return models.MetricSample{
		Timestamp: ts,
		Host:      host,
		Metric:    metric,
		Value:     value,
		Anomaly:   anomaly != 0,
	}, true
}

// SkippedRows reports how many malformed rows were dropped during load.
func (s *CSVSource) SkippedRows() int {
	return s.skippedRows
}

func (s *CSVSource) Pairs(ctx context.Context) ([]Pair, error) {
	out := make([]Pair, len(s.pairs))
	copy(out, s.pairs)
	return out, nil
}

func (s *CSVSource) Window(ctx context.Context, host, metric string, lookback int) (*models.MetricWindow, error) {
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

func (s *CSVSource) HealthCheck(ctx context.Context) error {
	if len(s.pairs) == 0 {
		return ErrNoSamples
	}
	return nil
}

func (s *CSVSource) Close() error {
	return nil
}
