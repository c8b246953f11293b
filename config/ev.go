package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/fleetload/core/calendar"
	"github.com/kilianp07/fleetload/core/ev"
	"github.com/kilianp07/fleetload/core/model"
)

// VehicleTypeConfig describes one vehicle class of the EV fleet.
type VehicleTypeConfig struct {
	Name        string  `json:"name"`
	Column      string  `json:"column"`
	Count       int     `json:"count"`
	BatteryKWh  float64 `json:"battery_kwh"`
	Consumption float64 `json:"consumption_kwh_per_km"`
}

// SecondaryConfig describes an optional extra charging session.
type SecondaryConfig struct {
	Name           string        `json:"name"`
	Cron           string        `json:"cron"`
	Location       string        `json:"location"`
	Probability    float64       `json:"probability"`
	StartJitterStd float64       `json:"start_jitter_std"`
	Duration       time.Duration `json:"duration"`
	LatestEnd      string        `json:"latest_end"`
}

// EVConfig is the raw EV fleet section. Unset values take the defaults of
// ev.DefaultParams; pointer fields distinguish an explicit zero.
type EVConfig struct {
	VehicleTypes            []VehicleTypeConfig `json:"vehicle_types"`
	WeekdayDistance         model.Distribution  `json:"weekday_distance"`
	WeekendDistance         model.Distribution  `json:"weekend_distance"`
	HomePowerKW             float64             `json:"home_power_kw"`
	WorkPowerKW             float64             `json:"work_power_kw"`
	HomeDeparture           string              `json:"home_departure"`
	WorkDeparture           string              `json:"work_departure"`
	WorkChargingProbability *float64            `json:"work_charging_probability"`
	Randomness              *float64            `json:"randomness"`
	PowerJitter             *float64            `json:"power_jitter"`
	LowSoC                  *float64            `json:"low_soc"`
	HighSoC                 *float64            `json:"high_soc"`
	HighSoCProbability      *float64            `json:"high_soc_probability"`
	StabilizationDays       *int                `json:"stabilization_days"`
	SessionStep             time.Duration       `json:"session_step"`
	ResampleInterval        time.Duration       `json:"resample_interval"`
	// Secondary replaces the default secondary sessions when set; an empty
	// list keeps them. Set DisableSecondary to run without any.
	Secondary        []SecondaryConfig `json:"secondary"`
	DisableSecondary bool              `json:"disable_secondary"`
	StartDate        string            `json:"start_date"`
	Days             int               `json:"days"`
}

// SetDefaults applies ev.DefaultParams to unset fields.
func (c *EVConfig) SetDefaults() {
	d := ev.DefaultParams()
	if len(c.VehicleTypes) == 0 {
		for _, vt := range d.VehicleTypes {
			c.VehicleTypes = append(c.VehicleTypes, VehicleTypeConfig{
				Name: vt.Name, Column: vt.Column, Count: vt.Count,
				BatteryKWh: vt.BatteryKWh, Consumption: vt.ConsumptionKWhPerKm,
			})
		}
	}
	if c.WeekdayDistance == (model.Distribution{}) {
		c.WeekdayDistance = d.WeekdayDistance
	}
	if c.WeekendDistance == (model.Distribution{}) {
		c.WeekendDistance = d.WeekendDistance
	}
	setFloat(&c.HomePowerKW, behaviorPower(d, ev.Home))
	setFloat(&c.WorkPowerKW, behaviorPower(d, ev.Work))
	setString(&c.HomeDeparture, d.HomeTiming.Departure.String())
	setString(&c.WorkDeparture, d.WorkTiming.Departure.String())
	setDefault(&c.WorkChargingProbability, d.WorkChargingProbability)
	setDefault(&c.Randomness, d.Randomness)
	setDefault(&c.PowerJitter, d.PowerJitter)
	setDefault(&c.LowSoC, d.LowSoC)
	setDefault(&c.HighSoC, d.HighSoC)
	setDefault(&c.HighSoCProbability, d.HighSoCProbability)
	if c.StabilizationDays == nil {
		n := d.StabilizationDays
		c.StabilizationDays = &n
	}
	setDuration(&c.SessionStep, d.SessionStep)
	setDuration(&c.ResampleInterval, d.ResampleInterval)
	setString(&c.StartDate, d.StartDate.Format(time.DateOnly))
	setInt(&c.Days, d.Days)
}

// Validate converts the section and validates the resulting parameters.
func (c EVConfig) Validate() error {
	_, err := c.Params(calendar.Default())
	return err
}

// Params converts the section into validated EV parameters.
func (c EVConfig) Params(cal *calendar.Calendar) (ev.Params, error) {
	p := ev.DefaultParams()
	var err error
	if p.HomeTiming.Departure, err = parseOptionalClock(c.HomeDeparture, p.HomeTiming.Departure); err != nil {
		return ev.Params{}, fmt.Errorf("ev.home_departure: %w", err)
	}
	if p.WorkTiming.Departure, err = parseOptionalClock(c.WorkDeparture, p.WorkTiming.Departure); err != nil {
		return ev.Params{}, fmt.Errorf("ev.work_departure: %w", err)
	}
	if p.StartDate, err = parseOptionalDate(c.StartDate, p.StartDate); err != nil {
		return ev.Params{}, fmt.Errorf("ev.start_date: %w", err)
	}
	if len(c.VehicleTypes) > 0 {
		p.VehicleTypes = make([]ev.VehicleType, 0, len(c.VehicleTypes))
		for _, vt := range c.VehicleTypes {
			p.VehicleTypes = append(p.VehicleTypes, ev.VehicleType{
				Name:                vt.Name,
				Column:              vt.Column,
				Count:               vt.Count,
				BatteryKWh:          vt.BatteryKWh,
				ConsumptionKWhPerKm: vt.Consumption,
			})
		}
	}
	if c.WeekdayDistance != (model.Distribution{}) {
		p.WeekdayDistance = c.WeekdayDistance
	}
	if c.WeekendDistance != (model.Distribution{}) {
		p.WeekendDistance = c.WeekendDistance
	}
	for i := range p.Behaviors {
		switch p.Behaviors[i].Location {
		case ev.Home:
			overrideFloat(&p.Behaviors[i].PowerKW, c.HomePowerKW)
		case ev.Work:
			overrideFloat(&p.Behaviors[i].PowerKW, c.WorkPowerKW)
		}
	}
	override(&p.WorkChargingProbability, c.WorkChargingProbability)
	override(&p.Randomness, c.Randomness)
	override(&p.PowerJitter, c.PowerJitter)
	override(&p.LowSoC, c.LowSoC)
	override(&p.HighSoC, c.HighSoC)
	override(&p.HighSoCProbability, c.HighSoCProbability)
	if c.StabilizationDays != nil {
		p.StabilizationDays = *c.StabilizationDays
	}
	overrideDuration(&p.SessionStep, c.SessionStep)
	overrideDuration(&p.ResampleInterval, c.ResampleInterval)
	overrideInt(&p.Days, c.Days)
	switch {
	case c.DisableSecondary:
		p.Secondary = nil
	case len(c.Secondary) > 0:
		if p.Secondary, err = secondarySessions(c.Secondary); err != nil {
			return ev.Params{}, err
		}
	}
	if cal != nil {
		p.Calendar = cal
	}
	if err := p.Validate(); err != nil {
		return ev.Params{}, err
	}
	return p, nil
}

func secondarySessions(cfgs []SecondaryConfig) ([]ev.SecondarySession, error) {
	out := make([]ev.SecondarySession, 0, len(cfgs))
	for _, s := range cfgs {
		sess := ev.SecondarySession{
			Name:           s.Name,
			Cron:           s.Cron,
			Location:       ev.Location(s.Location),
			Probability:    s.Probability,
			StartJitterStd: s.StartJitterStd,
			Duration:       s.Duration,
		}
		if sess.Location == "" {
			sess.Location = ev.Work
		}
		if s.LatestEnd != "" {
			c, err := calendar.ParseClock(s.LatestEnd)
			if err != nil {
				return nil, fmt.Errorf("ev.secondary %s: %w", s.Name, err)
			}
			sess.LatestEnd = &c
		}
		out = append(out, sess)
	}
	return out, nil
}

func behaviorPower(p ev.Params, loc ev.Location) float64 {
	for _, b := range p.Behaviors {
		if b.Location == loc {
			return b.PowerKW
		}
	}
	return 0
}
