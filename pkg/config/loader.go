package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/driftwatch")
	}

	// Environment variable settings
	v.SetEnvPrefix("DRIFTWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "driftwatch")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "driftwatch")
	v.SetDefault("database.user", "admin")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.ssl_mode", "disable")

	// Model endpoint defaults
	v.SetDefault("model.endpoint", "http://localhost:11434")
	v.SetDefault("model.name", "llama3.2")
	v.SetDefault("model.timeout", "120s")
	v.SetDefault("model.temperature", 0.3)
	v.SetDefault("model.top_p", 0.9)
	v.SetDefault("model.retry_attempts", 2)
	v.SetDefault("model.retry_delay", "1s")
	v.SetDefault("model.circuit_breaker.max_failures", 5)
	v.SetDefault("model.circuit_breaker.timeout", "30s")

	// Source defaults
	v.SetDefault("source.type", "synthetic")
	v.SetDefault("source.path", "data/metrics.csv")
	v.SetDefault("source.lookback", 10)
	v.SetDefault("source.synthetic.seed", 42)
	v.SetDefault("source.synthetic.hosts", 3)
	v.SetDefault("source.synthetic.samples", 288)
	v.SetDefault("source.synthetic.interval", "5m")
	v.SetDefault("source.synthetic.anomaly_rate", 0.01)

	// Predictor defaults
	v.SetDefault("predictor.interval", "0s")
	v.SetDefault("predictor.thresholds.cpu_usage.value", 90.0)
	v.SetDefault("predictor.thresholds.cpu_usage.direction", "above")
	v.SetDefault("predictor.thresholds.disk_used.value", 85.0)
	v.SetDefault("predictor.thresholds.disk_used.direction", "above")
	v.SetDefault("predictor.thresholds.net_in.value", 500000.0)
	v.SetDefault("predictor.thresholds.net_in.direction", "above")

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.default_limit", 100)
	v.SetDefault("api.max_limit", 1000)

	// WebSocket defaults
	v.SetDefault("websocket.max_connections", 100)
	v.SetDefault("websocket.ping_interval", "30s")

	// Events defaults
	v.SetDefault("events.buffer_size", 100)
}
