package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/driftwatch/driftwatch/internal/events"
	"github.com/driftwatch/driftwatch/internal/logger"
	"github.com/driftwatch/driftwatch/internal/predictor"
	"github.com/driftwatch/driftwatch/internal/source"
	"github.com/driftwatch/driftwatch/pkg/models"
)

// ErrStoreFailed marks an append that did not reach the store. Unlike a
// model failure it is not absorbed; the cycle counts it separately and
// on-demand callers see it.
var ErrStoreFailed = errors.New("failed to store prediction")

// Store is the slice of the prediction repository the runner writes to.
type Store interface {
	Insert(ctx context.Context, rec *models.PredictionRecord) (int64, error)
}

// Requester produces one prediction record from a window.
type Requester interface {
	RequestPrediction(ctx context.Context, window *models.MetricWindow, threshold models.Threshold) (*models.PredictionRecord, error)
}

// ThresholdFunc resolves the alert threshold for a metric. An error means
// the metric is not configured and its pairs are skipped.
type ThresholdFunc func(metric string) (models.Threshold, error)

type Config struct {
	Source     source.Source
	Requester  Requester
	Store      Store
	Publisher  *events.Publisher
	Thresholds ThresholdFunc
	Lookback   int
	Interval   time.Duration
}

// Runner drives the prediction cycle: every interval it walks the source's
// host/metric pairs, requests a prediction for each, and appends the
// result to the store.
type Runner struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// Summary counts the outcomes of one cycle.
type Summary struct {
	Pairs     int `json:"pairs"`
	Predicted int `json:"predicted"`
	Fallbacks int `json:"fallbacks"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func New(cfg Config) *Runner {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}

	r.running = true
	r.wg.Add(1)
	go r.run()

	logger.Info("Prediction runner started")
	return nil
}

func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()

	logger.Info("Prediction runner stopped")
}

func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	// Run immediately on start
	r.runCycle()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.runCycle()
		}
	}
}

func (r *Runner) runCycle() {
	ctx, cancel := context.WithTimeout(r.ctx, r.config.Interval)
	defer cancel()

	summary, err := r.RunOnce(ctx)
	if err != nil {
		logger.Errorf("Prediction cycle failed: %v", err)
		return
	}

	logger.Infof("Prediction cycle complete: %d pairs, %d predicted, %d fallbacks, %d skipped, %d failed",
		summary.Pairs, summary.Predicted, summary.Fallbacks, summary.Skipped, summary.Failed)
}

// RunOnce walks every known pair and predicts each one. A pair that cannot
// be predicted is skipped, never blocks the rest of the cycle; only a
// failure to enumerate pairs aborts the cycle.
func (r *Runner) RunOnce(ctx context.Context) (*Summary, error) {
	pairs, err := r.config.Source.Pairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairs: %w", err)
	}

	summary := &Summary{Pairs: len(pairs)}

	for _, pair := range pairs {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		record, err := r.RunPair(ctx, pair.Host, pair.Metric)
		switch {
		case errors.Is(err, ErrStoreFailed):
			summary.Failed++
		case err != nil:
			summary.Skipped++
		case record.IsFallback():
			summary.Fallbacks++
		default:
			summary.Predicted++
		}
	}

	return summary, nil
}

// RunPair predicts a single host/metric pair and appends the record. The
// dashboard's on-demand endpoint calls this directly.
func (r *Runner) RunPair(ctx context.Context, host, metric string) (*models.PredictionRecord, error) {
	log := logger.WithPair(host, metric)

	threshold, err := r.config.Thresholds(metric)
	if err != nil {
		log.Debugf("No threshold configured, skipping: %v", err)
		return nil, err
	}

	window, err := r.config.Source.Window(ctx, host, metric, r.config.Lookback)
	if err != nil {
		log.Warnf("Failed to load window: %v", err)
		r.config.Publisher.Error(host, metric, "Failed to load metric window", err)
		return nil, err
	}
	r.config.Publisher.WindowLoaded(window)

	record, err := r.config.Requester.RequestPrediction(ctx, window, threshold)
	if err != nil {
		if errors.Is(err, predictor.ErrInsufficientData) {
			log.Warnf("Window too thin to predict: %v", err)
		} else {
			log.Errorf("Prediction failed: %v", err)
			r.config.Publisher.Error(host, metric, "Prediction failed", err)
		}
		return nil, err
	}

	if _, err := r.config.Store.Insert(ctx, record); err != nil {
		log.Errorf("Failed to store prediction: %v", err)
		r.config.Publisher.Error(host, metric, "Failed to store prediction", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	if record.IsFallback() {
		r.config.Publisher.FallbackUsed(record)
	}
	r.config.Publisher.PredictionStored(record)

	return record, nil
}
