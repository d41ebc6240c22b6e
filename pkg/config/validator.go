package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, errors.New("database.port must be between 1 and 65535"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Database.MaxConnections <= 0 {
		errs = append(errs, errors.New("database.max_connections must be positive"))
	}

	// Model endpoint validation
	if c.Model.Endpoint == "" {
		errs = append(errs, errors.New("model.endpoint is required"))
	}
	if c.Model.Name == "" {
		errs = append(errs, errors.New("model.name is required"))
	}
	if c.Model.Timeout <= 0 {
		errs = append(errs, errors.New("model.timeout must be positive"))
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		errs = append(errs, errors.New("model.temperature must be between 0 and 2"))
	}

	// Source validation
	validSources := map[string]bool{"csv": true, "synthetic": true}
	if !validSources[c.Source.Type] {
		errs = append(errs, errors.New("source.type must be one of: csv, synthetic"))
	}
	if c.Source.Type == "csv" && c.Source.Path == "" {
		errs = append(errs, errors.New("source.path is required for csv source"))
	}
	if c.Source.Lookback < 2 {
		errs = append(errs, errors.New("source.lookback must be at least 2"))
	}
	if c.Source.Type == "synthetic" {
		if c.Source.Synthetic.Hosts <= 0 {
			errs = append(errs, errors.New("source.synthetic.hosts must be positive"))
		}
		if c.Source.Synthetic.Samples <= 0 {
			errs = append(errs, errors.New("source.synthetic.samples must be positive"))
		}
		if c.Source.Synthetic.Interval <= 0 {
			errs = append(errs, errors.New("source.synthetic.interval must be positive"))
		}
		if c.Source.Synthetic.AnomalyRate < 0 || c.Source.Synthetic.AnomalyRate > 1 {
			errs = append(errs, errors.New("source.synthetic.anomaly_rate must be between 0 and 1"))
		}
	}

	// Threshold validation
	if len(c.Predictor.Thresholds) == 0 {
		errs = append(errs, errors.New("predictor.thresholds must configure at least one metric"))
	}
	for metric, t := range c.Predictor.Thresholds {
		if t.Direction != "above" && t.Direction != "below" {
			errs = append(errs, fmt.Errorf("predictor.thresholds.%s.direction must be above or below", metric))
		}
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
