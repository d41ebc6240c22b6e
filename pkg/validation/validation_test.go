package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "host-01", SanitizeString("  host-01  "))
	assert.Equal(t, "host01", SanitizeString("host\x0001"))
	assert.Equal(t, "a\nb\tc", SanitizeString("a\nb\tc"))
	assert.Equal(t, "ab", SanitizeString("a\x1bb"))
}

func TestValidateHostName(t *testing.T) {
	valid := []string{"host-01", "web.example.com", "db_replica", "h", "9front"}
	for _, name := range valid {
		assert.NoError(t, ValidateHostName(name), name)
	}

	invalid := []string{"", "-leading-dash", ".leading-dot", "has space", strings.Repeat("a", 101)}
	for _, name := range invalid {
		assert.Error(t, ValidateHostName(name), name)
	}
}

func TestValidateMetricName(t *testing.T) {
	valid := []string{"cpu_usage", "net_in", "disk_used", "load1"}
	for _, name := range valid {
		assert.NoError(t, ValidateMetricName(name), name)
	}

	invalid := []string{"", "CPU_Usage", "_leading", "1metric", "has-dash", "has space"}
	for _, name := range invalid {
		assert.Error(t, ValidateMetricName(name), name)
	}
}
