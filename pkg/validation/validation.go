package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	// ErrInvalidInput indicates the input failed validation
	ErrInvalidInput = errors.New("invalid input")

	// Host names: alphanumeric with hyphens/underscores/dots, 1-100 chars
	hostNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,99}$`)

	// Metric names: lowercase identifiers like cpu_usage or net_in
	metricNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)
)

// SanitizeString removes potentially dangerous characters and trims whitespace
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters except newline and tab
	var builder strings.Builder
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// ValidateHostName checks if a host name is valid
func ValidateHostName(name string) error {
	name = SanitizeString(name)

	if name == "" {
		return errors.New("host name cannot be empty")
	}

	if len(name) > 100 {
		return errors.New("host name must not exceed 100 characters")
	}

	if !hostNameRegex.MatchString(name) {
		return errors.New("host name must start with an alphanumeric and contain only letters, numbers, dots, hyphens, and underscores")
	}

	return nil
}

// ValidateMetricName checks if a metric name is valid
func ValidateMetricName(name string) error {
	name = SanitizeString(name)

	if name == "" {
		return errors.New("metric name cannot be empty")
	}

	if !metricNameRegex.MatchString(name) {
		return errors.New("metric name must be a lowercase identifier like cpu_usage")
	}

	return nil
}
