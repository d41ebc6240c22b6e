package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/driftwatch/driftwatch/pkg/database"
	"github.com/driftwatch/driftwatch/pkg/models"
)

var (
	ErrNotFound = errors.New("prediction not found")

	// ErrStoreFailure wraps any database error on the write path. Unlike a
	// failed model call, a failed append is surfaced to the caller.
	ErrStoreFailure = errors.New("prediction store failure")
)

// storedTimeLayout is a fixed-width RFC 3339 variant. Nanoseconds are
// zero-padded so the text columns sort chronologically.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// PredictionRepository is the append-only interface to the predictions
// table. Records are inserted and read back, never updated or deleted.
type PredictionRepository struct {
	db *database.DB

	// mu serializes appends so at most one insert is in flight.
	mu sync.Mutex
}

func NewPredictionRepository(db *database.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// ListFilter narrows ListRecent. Zero-value fields match everything.
type ListFilter struct {
	Host   string
	Metric string
	Source models.RecordSource
}

// Insert appends one record and returns its assigned id. The record is
// written whole or not at all.
func (r *PredictionRepository) Insert(ctx context.Context, rec *models.PredictionRecord) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO predictions (
			timestamp, host, metric, current_value, predicted_value,
			time_to_reach_threshold, status, trend, anomaly_detected,
			explanation, recommendation, suggested_threshold, source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		formatTime(rec.Timestamp),
		rec.Host,
		rec.Metric,
		formatFloat(rec.CurrentValue),
		formatFloat(rec.PredictedValue),
		rec.TimeToReachThreshold,
		string(rec.Status),
		string(rec.Trend),
		boolToInt(rec.AnomalyDetected),
		rec.Explanation,
		rec.Recommendation,
		formatOptionalFloat(rec.SuggestedThreshold),
		string(rec.Source),
		formatTime(rec.CreatedAt),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	rec.ID = id
	return id, nil
}

// ListRecent returns up to limit records matching the filter, newest
// first.
func (r *PredictionRepository) ListRecent(ctx context.Context, limit int, filter ListFilter) ([]models.PredictionRecord, error) {
	query := `
		SELECT id, timestamp, host, metric, current_value, predicted_value,
		       time_to_reach_threshold, status, trend, anomaly_detected,
		       explanation, recommendation, suggested_threshold, source, created_at
		FROM predictions
		WHERE ($1 = '' OR host = $1)
		  AND ($2 = '' OR metric = $2)
		  AND ($3 = '' OR source = $3)
		ORDER BY timestamp DESC, id DESC
		LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, filter.Host, filter.Metric, string(filter.Source), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	var records []models.PredictionRecord
	for rows.Next() {
		rec, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate predictions: %w", err)
	}

	return records, nil
}

// GetByID returns one record or ErrNotFound.
func (r *PredictionRepository) GetByID(ctx context.Context, id int64) (*models.PredictionRecord, error) {
	query := `
		SELECT id, timestamp, host, metric, current_value, predicted_value,
		       time_to_reach_threshold, status, trend, anomaly_detected,
		       explanation, recommendation, suggested_threshold, source, created_at
		FROM predictions
		WHERE id = $1`

	rec, err := scanPrediction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Latest returns the newest record for a host/metric pair, or ErrNotFound
// when the pair has never been predicted.
func (r *PredictionRepository) Latest(ctx context.Context, host, metric string) (*models.PredictionRecord, error) {
	query := `
		SELECT id, timestamp, host, metric, current_value, predicted_value,
		       time_to_reach_threshold, status, trend, anomaly_detected,
		       explanation, recommendation, suggested_threshold, source, created_at
		FROM predictions
		WHERE host = $1 AND metric = $2
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`

	rec, err := scanPrediction(r.db.QueryRowContext(ctx, query, host, metric))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// CountBySource reports how many records came from the model versus the
// local fallback. The dashboard uses it as a degradation signal.
func (r *PredictionRepository) CountBySource(ctx context.Context) (map[models.RecordSource]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM predictions GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to count predictions: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.RecordSource]int64)
	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.RecordSource(source)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counts: %w", err)
	}

	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrediction(row rowScanner) (*models.PredictionRecord, error) {
	var (
		rec            models.PredictionRecord
		timestamp      string
		currentValue   string
		predictedValue string
		anomaly        int
		suggested      sql.NullString
		createdAt      string
	)

	err := row.Scan(
		&rec.ID,
		&timestamp,
		&rec.Host,
		&rec.Metric,
		&currentValue,
		&predictedValue,
		&rec.TimeToReachThreshold,
		&rec.Status,
		&rec.Trend,
		&anomaly,
		&rec.Explanation,
		&rec.Recommendation,
		&suggested,
		&rec.Source,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan prediction: %w", err)
	}

	if rec.Timestamp, err = parseTime(timestamp); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if rec.CurrentValue, err = parseFloat(currentValue); err != nil {
		return nil, err
	}
	if rec.PredictedValue, err = parseFloat(predictedValue); err != nil {
		return nil, err
	}
	rec.AnomalyDetected = anomaly != 0
	if suggested.Valid {
		v, err := parseFloat(suggested.String)
		if err != nil {
			return nil, err
		}
		rec.SuggestedThreshold = &v
	}

	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(storedTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}

// formatFloat uses the shortest decimal form that parses back to the same
// float64, so stored values round-trip exactly.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse stored value %q: %w", s, err)
	}
	return v, nil
}

func formatOptionalFloat(v *float64) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatFloat(*v), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
