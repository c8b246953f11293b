// Package bus simulates the overnight refuelling of a hydrogen bus fleet
// sharing a small pool of pumps.
package bus

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/fleetload/core/calendar"
	"github.com/kilianp07/fleetload/core/model"
)

// Default physical constants.
const (
	// DefaultEnergyDensity is the lower heating value of hydrogen in kWh/kg.
	DefaultEnergyDensity = 33.33
	DefaultChargingDelay = time.Hour
	Category             = "H2_Bus"
)

// Params is the validated configuration of a bus run. Build it once and pass
// it by value; nothing mutates it during a run.
type Params struct {
	WeekdayBuses  int
	WeekdayTrips  int
	SaturdayBuses int
	SaturdayTrips int
	KmPerTrip     int
	// EnergyPerKm is the per-km consumption in kWh.
	EnergyPerKm model.Distribution
	// FuelCapacity is the tank size in kg.
	FuelCapacity float64
	// FlowRate is the pump flow in kg/min.
	FlowRate float64
	Pumps    int
	TimeStep time.Duration
	// GapSteps is the number of time steps a pump rests after each service.
	GapSteps       int
	FirstDeparture calendar.Clock
	LastArrival    calendar.Clock
	// ChargingDelay separates the last arrival from the opening of the pumps.
	ChargingDelay time.Duration
	StartDate     time.Time
	Days          int
	EnergyDensity float64
	// ProductionEnergy is the on-site production energy in kWh/kg; zero
	// disables the production load.
	ProductionEnergy float64
	Calendar         *calendar.Calendar
}

// DefaultParams returns the reference parameter set of a ten bus line.
func DefaultParams() Params {
	return Params{
		WeekdayBuses:   10,
		WeekdayTrips:   80,
		SaturdayBuses:  5,
		SaturdayTrips:  40,
		KmPerTrip:      10,
		EnergyPerKm:    model.Distribution{Mean: 1.5, Std: 0.3},
		FuelCapacity:   50,
		FlowRate:       4.5,
		Pumps:          2,
		TimeStep:       15 * time.Minute,
		GapSteps:       2,
		FirstDeparture: calendar.MustClock("06:00"),
		LastArrival:    calendar.MustClock("22:00"),
		ChargingDelay:  DefaultChargingDelay,
		StartDate:      time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
		Days:           7,
		EnergyDensity:  DefaultEnergyDensity,
		Calendar:       calendar.Default(),
	}
}

// Validate checks the parameters before any simulation step.
func (p Params) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{model.ErrInvalidParams}, args...)...))
	}
	if p.WeekdayBuses < 1 {
		bad("weekday fleet must be >= 1, got %d", p.WeekdayBuses)
	}
	if p.SaturdayBuses < 0 {
		bad("saturday fleet must be >= 0, got %d", p.SaturdayBuses)
	}
	if p.WeekdayTrips < 0 || p.SaturdayTrips < 0 {
		bad("trip counts must be >= 0, got %d/%d", p.WeekdayTrips, p.SaturdayTrips)
	}
	if p.SaturdayBuses == 0 && p.SaturdayTrips > 0 {
		bad("%d saturday trips with no saturday fleet", p.SaturdayTrips)
	}
	if p.KmPerTrip < 0 {
		bad("km per trip must be >= 0, got %d", p.KmPerTrip)
	}
	if p.EnergyPerKm.Mean < 0 {
		bad("energy per km mean must be >= 0, got %v", p.EnergyPerKm.Mean)
	}
	if err := p.EnergyPerKm.Validate("energy per km"); err != nil {
		errs = append(errs, err)
	}
	if p.FuelCapacity <= 0 {
		bad("fuel capacity must be > 0, got %v", p.FuelCapacity)
	}
	if p.FlowRate <= 0 {
		bad("flow rate must be > 0, got %v", p.FlowRate)
	}
	if p.Pumps < 1 {
		bad("at least one pump is required, got %d", p.Pumps)
	}
	switch {
	case p.TimeStep <= 0:
		bad("time step must be > 0, got %s", p.TimeStep)
	case p.TimeStep%time.Minute != 0 || (24*time.Hour)%p.TimeStep != 0:
		bad("time step %s must be whole minutes dividing 24h", p.TimeStep)
	}
	if p.GapSteps < 1 {
		bad("pump gap multiplier must be >= 1, got %d", p.GapSteps)
	}
	if p.ChargingDelay < 0 {
		bad("charging delay must be >= 0, got %s", p.ChargingDelay)
	}
	if p.EnergyDensity <= 0 {
		bad("energy density must be > 0, got %v", p.EnergyDensity)
	}
	if p.ProductionEnergy < 0 {
		bad("production energy must be >= 0, got %v", p.ProductionEnergy)
	}
	if p.Days < 1 {
		bad("days must be >= 1, got %d", p.Days)
	}
	if p.StartDate.IsZero() {
		bad("start date is required")
	}
	if len(errs) == 0 {
		from, _ := p.DayBounds(p.StartDate)
		ws, we := p.Window(p.StartDate)
		if !we.After(ws) {
			bad("charging window [%s, %s) is empty", ws.Format("15:04"), we.Format("Jan 2 15:04"))
		}
		if ws.Before(from) {
			bad("charging window opens at %s before first departure %s", ws.Format("15:04"), p.FirstDeparture)
		}
	}
	return errors.Join(errs...)
}

// Gap is the minimum time between two services of the same pump.
func (p Params) Gap() time.Duration { return time.Duration(p.GapSteps) * p.TimeStep }

// Fleet returns the number of buses and trips operated on a day type.
func (p Params) Fleet(d calendar.DayType) (buses, trips int) {
	switch d {
	case calendar.Weekday:
		return p.WeekdayBuses, p.WeekdayTrips
	case calendar.Saturday:
		return p.SaturdayBuses, p.SaturdayTrips
	default:
		return 0, 0
	}
}

// DayBounds returns the rows of a simulated day: from the first departure of
// date up to, excluding, the first departure of the next day.
func (p Params) DayBounds(date time.Time) (from, to time.Time) {
	return p.FirstDeparture.On(date), p.FirstDeparture.On(calendar.NextDay(date))
}

// Window returns the charging window of date in absolute time. It opens
// ChargingDelay after the last arrival and closes at the next day's first
// departure, so it usually spans midnight.
func (p Params) Window(date time.Time) (start, end time.Time) {
	return p.LastArrival.On(date).Add(p.ChargingDelay), p.FirstDeparture.On(calendar.NextDay(date))
}

func (p Params) calendar() *calendar.Calendar {
	if p.Calendar == nil {
		return calendar.Default()
	}
	return p.Calendar
}

func (p Params) stepHours() float64 { return p.TimeStep.Hours() }
