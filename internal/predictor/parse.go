package predictor

import (
	"fmt"

	"github.com/driftwatch/driftwatch/pkg/models"
	"github.com/tidwall/gjson"
)

// ModelReply holds the fields extracted from a model response. Only the
// free-text fields may be empty; everything else must be present and well
// typed or the reply is rejected as a whole.
type ModelReply struct {
	PredictedValue       float64
	TimeToReachThreshold string
	Status               models.PredictionStatus
	Trend                models.Trend
	AnomalyDetected      bool
	Explanation          string
	Recommendation       string
	SuggestedThreshold   *float64
}

// ParseReply maps a raw model response to a typed reply. It is a pure
// function, independent of transport. It tolerates prose around the
// structured block and multiple blocks in one reply (the first
// syntactically valid object wins), but it never fabricates missing
// fields: any required field that is absent, mistyped, or outside its
// enumeration rejects the reply.
func ParseReply(raw string) (*ModelReply, error) {
	block, ok := extractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object found in reply", ErrParse)
	}

	reply := &ModelReply{}

	predicted := gjson.Get(block, "predicted_value")
	if predicted.Type != gjson.Number {
		return nil, fmt.Errorf("%w: predicted_value missing or not a number", ErrParse)
	}
	reply.PredictedValue = predicted.Float()

	ttr := gjson.Get(block, "time_to_reach_threshold")
	if ttr.Type != gjson.String {
		return nil, fmt.Errorf("%w: time_to_reach_threshold missing or not a string", ErrParse)
	}
	reply.TimeToReachThreshold = ttr.String()

	status := gjson.Get(block, "status")
	if status.Type != gjson.String {
		return nil, fmt.Errorf("%w: status missing or not a string", ErrParse)
	}
	parsedStatus, err := models.ParsePredictionStatus(status.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	reply.Status = parsedStatus

	trend := gjson.Get(block, "trend")
	if trend.Type != gjson.String {
		return nil, fmt.Errorf("%w: trend missing or not a string", ErrParse)
	}
	parsedTrend, err := models.ParseTrend(trend.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	reply.Trend = parsedTrend

	anomaly := gjson.Get(block, "anomaly_detected")
	if !anomaly.IsBool() {
		return nil, fmt.Errorf("%w: anomaly_detected missing or not a boolean", ErrParse)
	}
	reply.AnomalyDetected = anomaly.Bool()

	suggested := gjson.Get(block, "suggested_threshold")
	switch suggested.Type {
	case gjson.Number:
		v := suggested.Float()
		reply.SuggestedThreshold = &v
	case gjson.Null:
		// explicit null is fine
	default:
		return nil, fmt.Errorf("%w: suggested_threshold missing or not a number", ErrParse)
	}

	// Free text: absent is acceptable, nothing to validate.
	reply.Explanation = gjson.Get(block, "explanation").String()
	reply.Recommendation = gjson.Get(block, "recommendation").String()

	return reply, nil
}

// extractJSONObject scans the reply for the first syntactically valid JSON
// object, skipping any surrounding prose. Brace depth is tracked outside
// string literals so nested objects stay intact.
func extractJSONObject(raw string) (string, bool) {
	for start := 0; start < len(raw); start++ {
		if raw[start] != '{' {
			continue
		}

		end, ok := matchBraces(raw, start)
		if !ok {
			continue
		}

		candidate := raw[start : end+1]
		if gjson.Valid(candidate) {
			return candidate, true
		}

		// Invalid block: resume the scan after its opening brace so an
		// inner or later object can still match.
	}

	return "", false
}

func matchBraces(raw string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return 0, false
}
