package predictor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/driftwatch/driftwatch/pkg/models"
)

// BuildPrompt renders the prediction request for one metric window. The
// layout is the de-facto wire contract with the model: it must stay stable
// across calls so stub-based tests can assert on it.
func BuildPrompt(window *models.MetricWindow, threshold models.Threshold) string {
	var b strings.Builder

	b.WriteString("You are an infrastructure monitoring assistant. ")
	b.WriteString("Analyze the recent samples for one host metric and predict ")
	b.WriteString("whether it will breach its alert threshold in the near future.\n\n")

	fmt.Fprintf(&b, "Host: %s\n", window.Host)
	fmt.Fprintf(&b, "Metric: %s\n", window.Metric)
	fmt.Fprintf(&b, "Threshold: %s (alert when %s)\n\n",
		formatValue(threshold.Value), threshold.Direction)

	b.WriteString("Recent samples (oldest first):\n")
	for _, s := range window.Samples {
		fmt.Fprintf(&b, "%s %s\n", s.Timestamp.UTC().Format(time.RFC3339), formatValue(s.Value))
	}

	b.WriteString("\nRespond with a single JSON object and nothing else, using exactly these fields:\n")
	b.WriteString(`{
  "host": "<host name>",
  "metric": "<metric name>",
  "current_value": <number>,
  "predicted_value": <number>,
  "time_to_reach_threshold": "<duration estimate, or N/A>",
  "status": "<ok | warning | critical>",
  "trend": "<increasing | decreasing | stable>",
  "anomaly_detected": <true | false>,
  "explanation": "<short explanation>",
  "recommendation": "<action if needed>",
  "suggested_threshold": <number or null>
}
`)

	return b.String()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
