package config

import (
	"fmt"
	"runtime"

	"github.com/kilianp07/fleetload/core/scenario"
)

// ScenariosConfig selects the scenario catalog and how it is run.
type ScenariosConfig struct {
	// Catalog is a YAML catalog path; empty selects the built-in catalog.
	Catalog     string   `json:"catalog"`
	Names       []string `json:"names"`
	Parallelism int      `json:"parallelism"`
	// Redistribute exports location tables after work load re-sharing
	// instead of the raw per-substation tables.
	Redistribute *bool `json:"redistribute"`
}

func (c *ScenariosConfig) SetDefaults() {
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.GOMAXPROCS(0)
	}
	if c.Redistribute == nil {
		v := true
		c.Redistribute = &v
	}
}

func (c ScenariosConfig) Validate() error {
	if c.Parallelism < 0 {
		return fmt.Errorf("scenarios: parallelism must be >= 0, got %d", c.Parallelism)
	}
	return nil
}

// LoadCatalog returns the configured catalog and checks that every selected
// scenario exists.
func (c ScenariosConfig) LoadCatalog() (*scenario.Catalog, error) {
	cat := scenario.DefaultCatalog()
	if c.Catalog != "" {
		var err error
		if cat, err = scenario.LoadCatalog(c.Catalog); err != nil {
			return nil, fmt.Errorf("scenarios: %w", err)
		}
	}
	for _, n := range c.Names {
		if _, ok := cat.Scenario(n); !ok {
			return nil, fmt.Errorf("scenarios: unknown scenario %q", n)
		}
	}
	return cat, nil
}
