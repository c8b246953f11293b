package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/fleetload/core/bus"
	"github.com/kilianp07/fleetload/core/calendar"
	"github.com/kilianp07/fleetload/core/model"
)

// BusConfig is the raw hydrogen bus section. Numeric fields are pointers:
// nil takes the default of bus.DefaultParams, an explicit value (zero
// included) is validated as given.
type BusConfig struct {
	WeekdayBuses  *int               `json:"weekday_buses"`
	WeekdayTrips  *int               `json:"weekday_trips"`
	SaturdayBuses *int               `json:"saturday_buses"`
	SaturdayTrips *int               `json:"saturday_trips"`
	KmPerTrip     *int               `json:"km_per_trip"`
	EnergyPerKm   model.Distribution `json:"energy_per_km"`
	FuelCapacity  *float64           `json:"fuel_capacity_kg"`
	FlowRate      *float64           `json:"flow_rate_kg_min"`
	Pumps         *int               `json:"pumps"`
	TimeStep      *time.Duration     `json:"time_step"`
	// GapSteps is the pump rest in time steps, at least 1.
	GapSteps         *int           `json:"gap_steps"`
	FirstDeparture   string         `json:"first_departure"`
	LastArrival      string         `json:"last_arrival"`
	ChargingDelay    *time.Duration `json:"charging_delay"`
	StartDate        string         `json:"start_date"`
	Days             *int           `json:"days"`
	EnergyDensity    *float64       `json:"energy_density"`
	ProductionEnergy float64        `json:"production_energy"`
}

// SetDefaults applies bus.DefaultParams to unset fields.
func (c *BusConfig) SetDefaults() {
	d := bus.DefaultParams()
	setDefault(&c.WeekdayBuses, d.WeekdayBuses)
	setDefault(&c.WeekdayTrips, d.WeekdayTrips)
	setDefault(&c.SaturdayBuses, d.SaturdayBuses)
	setDefault(&c.SaturdayTrips, d.SaturdayTrips)
	setDefault(&c.KmPerTrip, d.KmPerTrip)
	if c.EnergyPerKm == (model.Distribution{}) {
		c.EnergyPerKm = d.EnergyPerKm
	}
	setDefault(&c.FuelCapacity, d.FuelCapacity)
	setDefault(&c.FlowRate, d.FlowRate)
	setDefault(&c.Pumps, d.Pumps)
	setDefault(&c.TimeStep, d.TimeStep)
	setDefault(&c.GapSteps, d.GapSteps)
	setString(&c.FirstDeparture, d.FirstDeparture.String())
	setString(&c.LastArrival, d.LastArrival.String())
	setDefault(&c.ChargingDelay, d.ChargingDelay)
	setString(&c.StartDate, d.StartDate.Format(time.DateOnly))
	setDefault(&c.Days, d.Days)
	setDefault(&c.EnergyDensity, d.EnergyDensity)
}

// Validate converts the section and validates the resulting parameters.
func (c BusConfig) Validate() error {
	_, err := c.Params(calendar.Default())
	return err
}

// Params converts the section into validated bus parameters.
func (c BusConfig) Params(cal *calendar.Calendar) (bus.Params, error) {
	p := bus.DefaultParams()
	var err error
	if p.FirstDeparture, err = parseOptionalClock(c.FirstDeparture, p.FirstDeparture); err != nil {
		return bus.Params{}, fmt.Errorf("bus.first_departure: %w", err)
	}
	if p.LastArrival, err = parseOptionalClock(c.LastArrival, p.LastArrival); err != nil {
		return bus.Params{}, fmt.Errorf("bus.last_arrival: %w", err)
	}
	if p.StartDate, err = parseOptionalDate(c.StartDate, p.StartDate); err != nil {
		return bus.Params{}, fmt.Errorf("bus.start_date: %w", err)
	}
	override(&p.WeekdayBuses, c.WeekdayBuses)
	override(&p.WeekdayTrips, c.WeekdayTrips)
	override(&p.SaturdayBuses, c.SaturdayBuses)
	override(&p.SaturdayTrips, c.SaturdayTrips)
	override(&p.KmPerTrip, c.KmPerTrip)
	if c.EnergyPerKm != (model.Distribution{}) {
		p.EnergyPerKm = c.EnergyPerKm
	}
	override(&p.FuelCapacity, c.FuelCapacity)
	override(&p.FlowRate, c.FlowRate)
	override(&p.Pumps, c.Pumps)
	override(&p.TimeStep, c.TimeStep)
	override(&p.GapSteps, c.GapSteps)
	override(&p.ChargingDelay, c.ChargingDelay)
	override(&p.Days, c.Days)
	override(&p.EnergyDensity, c.EnergyDensity)
	p.ProductionEnergy = c.ProductionEnergy
	if cal != nil {
		p.Calendar = cal
	}
	if err := p.Validate(); err != nil {
		return bus.Params{}, err
	}
	return p, nil
}

// setDefault points an unset field at d.
func setDefault[T any](v **T, d T) {
	if *v == nil {
		*v = &d
	}
}

// override copies an explicitly set field onto dst.
func override[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setInt(v *int, d int) {
	if *v == 0 {
		*v = d
	}
}

func setFloat(v *float64, d float64) {
	if *v == 0 {
		*v = d
	}
}

func setDuration(v *time.Duration, d time.Duration) {
	if *v == 0 {
		*v = d
	}
}

func setString(v *string, d string) {
	if *v == "" {
		*v = d
	}
}

func overrideInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func overrideFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

func overrideDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
