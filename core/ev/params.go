// Package ev simulates the charging demand of a mixed electric vehicle fleet.
// Vehicles keep their battery state from day to day; each day they drive and
// then open charging sessions at home or at work.
package ev

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kilianp07/fleetload/core/calendar"
	"github.com/kilianp07/fleetload/core/model"
)

// Location is where a charging behavior takes place.
type Location string

const (
	Home Location = "Home"
	Work Location = "Work"
)

// LoadColumn returns the aggregate column of the location, e.g. Home_Load.
func (l Location) LoadColumn() string { return string(l) + model.CategorySuffix }

// Range is a closed interval used for uniform draws.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// VehicleType describes one class of the fleet.
type VehicleType struct {
	Name string
	// Column overrides the load column name; defaults to <Name>_Load.
	Column              string
	Count               int
	BatteryKWh          float64
	ConsumptionKWhPerKm float64
}

// LoadColumn returns the aggregate column of the type.
func (v VehicleType) LoadColumn() string {
	if v.Column != "" {
		return v.Column
	}
	return sanitize(v.Name) + model.CategorySuffix
}

func sanitize(s string) string { return strings.ReplaceAll(strings.TrimSpace(s), " ", "_") }

// Behavior is a charging opportunity at a location.
type Behavior struct {
	Location Location
	PowerKW  float64
	Strategy string
}

// Timing gives arrival and departure times at a location. Arrival means are
// hours after midnight; departure is a clock time plus a normal offset.
type Timing struct {
	WeekdayArrival model.Distribution
	WeekendArrival model.Distribution
	Departure      calendar.Clock
	// DepartureStd is in hours.
	DepartureStd float64
	// NextDay places the departure on the day after arrival.
	NextDay bool
	// WeekendExtra is added to weekend departures.
	WeekendExtra Range
}

// SecondarySession is a rare extra session such as a midday top-up. Cron is a
// five field cron expression giving the nominal start and the days it may
// happen on.
type SecondarySession struct {
	Name           string
	Cron           string
	Location       Location
	Probability    float64
	StartJitterStd float64 // hours
	Duration       time.Duration
	// LatestEnd caps the session end on the same day; nil for no cap.
	LatestEnd *calendar.Clock
}

// Params is the validated configuration of an EV run.
type Params struct {
	VehicleTypes    []VehicleType
	WeekdayDistance model.Distribution
	WeekendDistance model.Distribution
	Behaviors       []Behavior
	HomeTiming      Timing
	WorkTiming      Timing

	WorkChargingProbability float64
	Randomness              float64
	PowerJitter             float64
	// ArrivalSkew is added to arrivals: Late with probability one half,
	// Early otherwise. Hours.
	ArrivalSkewLate   float64
	ArrivalSkewEarly  float64
	StartDelayWeekday Range
	StartDelayWeekend Range
	// SoC gate: below LowSoC and up to HighSoC the vehicle always charges,
	// above HighSoC it charges with HighSoCProbability.
	LowSoC             float64
	HighSoC            float64
	HighSoCProbability float64

	SessionStep       time.Duration
	ResampleInterval  time.Duration
	InitialSoC        Range
	StabilizationDays int
	Secondary         []SecondarySession

	StartDate time.Time
	Days      int
	Calendar  *calendar.Calendar
}

// DefaultVehicleTypes returns the four classes of the island fleet.
func DefaultVehicleTypes() []VehicleType {
	return []VehicleType{
		{Name: "EV", Column: "BEV_Load", Count: 50, BatteryKWh: 60, ConsumptionKWhPerKm: 0.18},
		{Name: "PHEV", Count: 20, BatteryKWh: 15, ConsumptionKWhPerKm: 0.2},
		{Name: "LDV", Count: 10, BatteryKWh: 75, ConsumptionKWhPerKm: 0.25},
		{Name: "Two Wheeler", Count: 20, BatteryKWh: 4, ConsumptionKWhPerKm: 0.05},
	}
}

// DefaultSecondary returns the midday and evening work sessions.
func DefaultSecondary() []SecondarySession {
	latest := calendar.MustClock("20:00")
	return []SecondarySession{
		{Name: "midday", Cron: "30 11 * * 1-5", Location: Work, Probability: 0.02, StartJitterStd: 0.5, Duration: 2 * time.Hour},
		{Name: "evening", Cron: "30 13 * * 1-5", Location: Work, Probability: 0.01, StartJitterStd: 1, Duration: 90 * time.Minute, LatestEnd: &latest},
	}
}

// DefaultParams returns the reference parameters.
func DefaultParams() Params {
	return Params{
		VehicleTypes:    DefaultVehicleTypes(),
		WeekdayDistance: model.Distribution{Mean: 40, Std: 10},
		WeekendDistance: model.Distribution{Mean: 30, Std: 15},
		Behaviors: []Behavior{
			{Location: Home, PowerKW: 7.4, Strategy: "Immediate"},
			{Location: Work, PowerKW: 11, Strategy: "Delayed"},
		},
		HomeTiming: Timing{
			WeekdayArrival: model.Distribution{Mean: 17.5, Std: 1.5},
			WeekendArrival: model.Distribution{Mean: 16, Std: 3},
			Departure:      calendar.MustClock("07:00"),
			DepartureStd:   0.5,
			NextDay:        true,
			WeekendExtra:   Range{Min: 0, Max: 2},
		},
		WorkTiming: Timing{
			WeekdayArrival: model.Distribution{Mean: 7.5, Std: 1.5},
			WeekendArrival: model.Distribution{Mean: 7.5, Std: 1.5},
			Departure:      calendar.MustClock("17:00"),
			DepartureStd:   0.5,
		},
		WorkChargingProbability: 0.5,
		Randomness:              0.1,
		PowerJitter:             0.1,
		ArrivalSkewLate:         2,
		ArrivalSkewEarly:        -1,
		StartDelayWeekday:       Range{Min: -1.5, Max: 1.5},
		StartDelayWeekend:       Range{Min: -1.5, Max: 2.0},
		LowSoC:                  0.2,
		HighSoC:                 0.7,
		HighSoCProbability:      0.3,
		SessionStep:             10 * time.Minute,
		ResampleInterval:        10 * time.Minute,
		InitialSoC:              Range{Min: 0.4, Max: 0.6},
		StabilizationDays:       3,
		Secondary:               DefaultSecondary(),
		StartDate:               time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
		Days:                    7,
		Calendar:                calendar.Default(),
	}
}

// Validate checks the parameters before any simulation step.
func (p Params) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{model.ErrInvalidParams}, args...)...))
	}
	fleet := 0
	// vehicle ids and load columns are derived from the sanitized name
	names := map[string]string{}
	columns := map[string]string{}
	for _, vt := range p.VehicleTypes {
		id, col := sanitize(vt.Name), vt.LoadColumn()
		dupID := id != "" && names[id] != ""
		switch {
		case id == "":
			bad("vehicle type without a name")
		case dupID:
			bad("vehicle types %q and %q share the id prefix %q", names[id], vt.Name, id)
		default:
			names[id] = vt.Name
		}
		switch {
		case col == model.TotalLoad:
			bad("%s load column %q is reserved", vt.Name, col)
		case columns[col] != "":
			if !dupID {
				bad("vehicle types %q and %q share the load column %q", columns[col], vt.Name, col)
			}
		default:
			columns[col] = vt.Name
		}
		if vt.Count < 0 {
			bad("%s count must be >= 0, got %d", vt.Name, vt.Count)
		}
		if vt.BatteryKWh <= 0 {
			bad("%s battery must be > 0, got %v", vt.Name, vt.BatteryKWh)
		}
		if vt.ConsumptionKWhPerKm < 0 {
			bad("%s consumption must be >= 0, got %v", vt.Name, vt.ConsumptionKWhPerKm)
		}
		fleet += vt.Count
	}
	if fleet < 1 {
		bad("fleet is empty")
	}
	if err := p.WeekdayDistance.Validate("weekday distance"); err != nil {
		errs = append(errs, err)
	}
	if err := p.WeekendDistance.Validate("weekend distance"); err != nil {
		errs = append(errs, err)
	}
	if len(p.Behaviors) == 0 {
		bad("at least one charging behavior is required")
	}
	seen := map[Location]bool{}
	for _, b := range p.Behaviors {
		if b.Location != Home && b.Location != Work {
			bad("unknown charging location %q", b.Location)
		}
		if seen[b.Location] {
			bad("duplicate charging behavior for %s", b.Location)
		}
		seen[b.Location] = true
		if b.PowerKW <= 0 {
			bad("%s power must be > 0, got %v", b.Location, b.PowerKW)
		}
	}
	for _, loc := range []Location{Home, Work} {
		tm := p.timing(loc)
		if tm.WeekdayArrival.Std < 0 || tm.WeekendArrival.Std < 0 || tm.DepartureStd < 0 {
			bad("%s timing std must be >= 0", loc)
		}
		if tm.WeekendExtra.Min > tm.WeekendExtra.Max {
			bad("%s weekend departure range is reversed", loc)
		}
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"work charging probability", p.WorkChargingProbability},
		{"high soc probability", p.HighSoCProbability},
		{"low soc", p.LowSoC},
		{"high soc", p.HighSoC},
	} {
		if f.v < 0 || f.v > 1 {
			bad("%s must be in [0,1], got %v", f.name, f.v)
		}
	}
	if p.LowSoC > p.HighSoC {
		bad("low soc %v above high soc %v", p.LowSoC, p.HighSoC)
	}
	if p.Randomness < 0 {
		bad("randomness must be >= 0, got %v", p.Randomness)
	}
	if p.PowerJitter < 0 || p.PowerJitter >= 1 {
		bad("power jitter must be in [0,1), got %v", p.PowerJitter)
	}
	if p.StartDelayWeekday.Min > p.StartDelayWeekday.Max || p.StartDelayWeekend.Min > p.StartDelayWeekend.Max {
		bad("start delay ranges must not be reversed")
	}
	if p.SessionStep <= 0 {
		bad("session step must be > 0, got %s", p.SessionStep)
	}
	if p.ResampleInterval <= 0 {
		bad("resample interval must be > 0, got %s", p.ResampleInterval)
	}
	if p.InitialSoC.Min < 0 || p.InitialSoC.Max > 1 || p.InitialSoC.Min > p.InitialSoC.Max {
		bad("initial soc range [%v,%v] must lie in [0,1]", p.InitialSoC.Min, p.InitialSoC.Max)
	}
	if p.StabilizationDays < 0 {
		bad("stabilization days must be >= 0, got %d", p.StabilizationDays)
	}
	for _, s := range p.Secondary {
		if _, err := cron.ParseStandard(s.Cron); err != nil {
			bad("secondary session %s: %v", s.Name, err)
		}
		if !seen[s.Location] {
			bad("secondary session %s at %s has no charging behavior", s.Name, s.Location)
		}
		if s.Probability < 0 || s.Probability > 1 {
			bad("secondary session %s probability must be in [0,1], got %v", s.Name, s.Probability)
		}
		if s.StartJitterStd < 0 {
			bad("secondary session %s jitter must be >= 0", s.Name)
		}
		if s.Duration <= 0 {
			bad("secondary session %s duration must be > 0", s.Name)
		}
	}
	if p.Days < 1 {
		bad("days must be >= 1, got %d", p.Days)
	}
	if p.StartDate.IsZero() {
		bad("start date is required")
	}
	return errors.Join(errs...)
}

// FleetSize returns the total number of vehicles.
func (p Params) FleetSize() int {
	n := 0
	for _, vt := range p.VehicleTypes {
		n += vt.Count
	}
	return n
}

// CategoryColumns returns the per type load columns in type order.
func (p Params) CategoryColumns() []string {
	out := make([]string, len(p.VehicleTypes))
	for i, vt := range p.VehicleTypes {
		out[i] = vt.LoadColumn()
	}
	return out
}

// LocationColumns returns the per location load columns, Home first.
func (p Params) LocationColumns() []string {
	return []string{Home.LoadColumn(), Work.LoadColumn()}
}

func (p Params) timing(l Location) Timing {
	if l == Home {
		return p.HomeTiming
	}
	return p.WorkTiming
}

func (p Params) calendar() *calendar.Calendar {
	if p.Calendar == nil {
		return calendar.Default()
	}
	return p.Calendar
}
