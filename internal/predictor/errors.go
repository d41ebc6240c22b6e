package predictor

import "errors"

var (
	// ErrInsufficientData rejects windows too short to carry a trend.
	// It is surfaced to the caller; no model call is made and no record
	// is produced.
	ErrInsufficientData = errors.New("insufficient data to predict a trend")

	// ErrParse marks a model reply that could not be mapped to a valid
	// prediction record. It is recovered internally via the fallback path.
	ErrParse = errors.New("model response could not be parsed")
)
