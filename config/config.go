package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/fleetload/core/metrics"
)

// EnvPrefix selects the environment variables that override file values.
// K_BUS__PUMPS=3 sets bus.pumps.
const EnvPrefix = "K_"

type Config struct {
	Simulation SimulationConfig `json:"simulation"`
	Calendar   CalendarConfig   `json:"calendar"`
	Bus        BusConfig        `json:"bus"`
	EV         EVConfig         `json:"ev"`
	Scenarios  ScenariosConfig  `json:"scenarios"`
	Metrics    metrics.Config   `json:"metrics"`
	Logging    LoggingConfig    `json:"logging"`
	Monitoring MonitoringConfig `json:"monitoring"`
}

// Load reads the file at path, applies environment overrides, then sets
// defaults and validates every section. An empty path loads defaults and
// environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset values of every section.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.Bus.SetDefaults()
	c.EV.SetDefaults()
	c.Scenarios.SetDefaults()
	c.Logging.SetDefaults()
	c.Monitoring.SetDefaults()
}

// Validate checks every section and reports all problems at once.
func (c Config) Validate() error {
	return errors.Join(
		c.Simulation.Validate(),
		c.Calendar.Validate(),
		c.Bus.Validate(),
		c.EV.Validate(),
		c.Scenarios.Validate(),
		c.Logging.Validate(),
		c.Monitoring.Validate(),
	)
}
