package source

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/driftwatch/driftwatch/pkg/models"
)

// WriteCSV streams a generator's full output in the canonical file format.
// Output is deterministic for a given generator config, byte for byte.
func WriteCSV(w io.Writer, g *Generator) (rows int, anomalies []models.MetricSample, err error) {
	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeader); err != nil {
		return 0, nil, err
	}

	for _, host := range g.Hosts() {
		for _, profile := range g.Profiles() {
			for _, sample := range g.Series(host, profile) {
				flag := "0"
				if sample.Anomaly {
					flag = "1"
					anomalies = append(anomalies, sample)
				}

				record := []string{
					sample.Timestamp.UTC().Format(time.RFC3339),
					sample.Host,
					sample.Metric,
					strconv.FormatFloat(sample.Value, 'f', -1, 64),
					flag,
				}
				if err := writer.Write(record); err != nil {
					return rows, anomalies, err
				}
				rows++
			}
		}
	}

	writer.Flush()
	return rows, anomalies, writer.Error()
}
