package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/fleetload/core/calendar"
)

// SimulationConfig holds settings shared by every command.
type SimulationConfig struct {
	Seed      uint64 `json:"seed"`
	OutputDir string `json:"output_dir"`
	// ProgressBuffer sizes the progress bus subscriber queue.
	ProgressBuffer int          `json:"progress_buffer"`
	Ledger         LedgerConfig `json:"ledger"`
	// Charts enables the HTML load charts written next to the CSV tables.
	Charts *bool `json:"charts"`
}

// LedgerConfig selects where per-agent energy balances are kept.
type LedgerConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `json:"backend"`
	// Path defaults to ledger.db in the output directory.
	Path string `json:"path"`
	// Keep preserves the records of previous runs in a sqlite ledger.
	Keep bool `json:"keep"`
}

func (c *SimulationConfig) SetDefaults() {
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	if c.ProgressBuffer <= 0 {
		c.ProgressBuffer = 64
	}
	if c.Charts == nil {
		on := true
		c.Charts = &on
	}
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = "memory"
	}
}

func (c SimulationConfig) Validate() error {
	switch c.Ledger.Backend {
	case "memory", "sqlite":
		return nil
	default:
		return fmt.Errorf("simulation: unknown ledger backend %q", c.Ledger.Backend)
	}
}

// CalendarConfig selects the holidays treated as Sundays.
type CalendarConfig struct {
	// Region is "" (no built-in holidays) or "pf".
	Region        string   `json:"region"`
	ExtraHolidays []string `json:"extra_holidays"`
}

func (c CalendarConfig) Validate() error {
	_, err := c.Build()
	return err
}

// Build returns the configured calendar.
func (c CalendarConfig) Build() (*calendar.Calendar, error) {
	extra := make([]time.Time, 0, len(c.ExtraHolidays))
	for _, s := range c.ExtraHolidays {
		d, err := calendar.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("calendar: %w", err)
		}
		extra = append(extra, d)
	}
	cal, err := calendar.New(c.Region, extra)
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	return cal, nil
}

// parseOptionalDate returns fallback for an empty string.
func parseOptionalDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	return calendar.ParseDate(s)
}

// parseOptionalClock returns fallback for an empty string.
func parseOptionalClock(s string, fallback calendar.Clock) (calendar.Clock, error) {
	if s == "" {
		return fallback, nil
	}
	return calendar.ParseClock(s)
}
