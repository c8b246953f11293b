// Package scenario runs the EV simulation for every substation of a set of
// fleet scenarios and re-shares workplace charging between substations.
package scenario

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/fleetload/core/ev"
	"github.com/kilianp07/fleetload/core/model"
)

//go:embed tahiti.yaml
var tahiti []byte

// VehicleType is a fleet class; Key is the name used in scenario fleets.
type VehicleType struct {
	Name        string  `yaml:"name"`
	Key         string  `yaml:"key"`
	Column      string  `yaml:"column"`
	BatteryKWh  float64 `yaml:"battery_kwh"`
	Consumption float64 `yaml:"consumption_kwh_per_km"`
}

// Substation is a grid connection point with its own driving pattern.
type Substation struct {
	Name    string             `yaml:"name"`
	Weekday model.Distribution `yaml:"weekday"`
	Weekend model.Distribution `yaml:"weekend"`
	// WorkShare is the fraction of the scenario's workplace charging energy
	// drawn at this substation; nil leaves its work load untouched.
	WorkShare *float64 `yaml:"work_share"`
}

// Scenario maps substation names to vehicle counts by type key.
type Scenario struct {
	Name   string                    `yaml:"name"`
	Fleets map[string]map[string]int `yaml:"fleets"`
}

// Catalog is the set of scenarios to study.
type Catalog struct {
	VehicleTypes []VehicleType `yaml:"vehicle_types"`
	Substations  []Substation  `yaml:"substations"`
	Scenarios    []Scenario    `yaml:"scenarios"`
}

// DefaultCatalog returns the built-in Tahiti catalog.
func DefaultCatalog() *Catalog {
	c, err := DecodeCatalog(bytes.NewReader(tahiti))
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := DecodeCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// DecodeCatalog parses and validates a YAML catalog.
func DecodeCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks names and references.
func (c *Catalog) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{model.ErrInvalidParams}, args...)...))
	}
	if len(c.VehicleTypes) == 0 {
		bad("catalog has no vehicle types")
	}
	keys := map[string]bool{}
	for _, vt := range c.VehicleTypes {
		k := vt.key()
		if keys[k] {
			bad("duplicate vehicle type %q", k)
		}
		keys[k] = true
	}
	subs := map[string]bool{}
	var shares float64
	for _, s := range c.Substations {
		if s.Name == "" || subs[s.Name] {
			bad("substation name %q is empty or duplicated", s.Name)
		}
		subs[s.Name] = true
		if s.WorkShare != nil {
			if *s.WorkShare < 0 {
				bad("substation %s work share must be >= 0", s.Name)
			}
			shares += *s.WorkShare
		}
	}
	if shares > 1+1e-9 {
		bad("work shares sum to %v, above 1", shares)
	}
	names := map[string]bool{}
	for _, sc := range c.Scenarios {
		if sc.Name == "" || names[sc.Name] {
			bad("scenario name %q is empty or duplicated", sc.Name)
		}
		names[sc.Name] = true
		for sub, counts := range sc.Fleets {
			if !subs[sub] {
				bad("scenario %s: unknown substation %q", sc.Name, sub)
			}
			for k, n := range counts {
				if !keys[k] {
					bad("scenario %s/%s: unknown vehicle type %q", sc.Name, sub, k)
				}
				if n < 0 {
					bad("scenario %s/%s: negative count for %s", sc.Name, sub, k)
				}
			}
		}
	}
	return errors.Join(errs...)
}

func (vt VehicleType) key() string {
	if vt.Key != "" {
		return vt.Key
	}
	return vt.Name
}

// Scenario returns the scenario called name.
func (c *Catalog) Scenario(name string) (Scenario, bool) {
	for _, s := range c.Scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// Params returns base with the fleet and distances of one substation in a
// scenario. Substations absent from the scenario get an empty fleet.
func (c *Catalog) Params(base ev.Params, sc Scenario, sub Substation) ev.Params {
	p := base
	p.VehicleTypes = make([]ev.VehicleType, len(c.VehicleTypes))
	counts := sc.Fleets[sub.Name]
	for i, vt := range c.VehicleTypes {
		p.VehicleTypes[i] = ev.VehicleType{
			Name:                vt.Name,
			Column:              vt.Column,
			Count:               counts[vt.key()],
			BatteryKWh:          vt.BatteryKWh,
			ConsumptionKWhPerKm: vt.Consumption,
		}
	}
	p.WeekdayDistance = sub.Weekday
	p.WeekendDistance = sub.Weekend
	return p
}

// WorkShares returns the configured work shares by substation.
func (c *Catalog) WorkShares() map[string]float64 {
	out := map[string]float64{}
	for _, s := range c.Substations {
		if s.WorkShare != nil {
			out[s.Name] = *s.WorkShare
		}
	}
	return out
}
