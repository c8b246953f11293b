package config

import "fmt"

// MonitoringConfig enables error reporting to Sentry.
type MonitoringConfig struct {
	SentryDSN        string  `json:"sentry_dsn"`
	Environment      string  `json:"environment"`
	Release          string  `json:"release"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
}

func (c *MonitoringConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
}

func (c MonitoringConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("monitoring: traces sample rate must be in [0,1], got %v", c.TracesSampleRate)
	}
	return nil
}
