package ev

import (
	"fmt"
	"time"

	"github.com/kilianp07/fleetload/core/calendar"
	"github.com/kilianp07/fleetload/core/model"
	"github.com/kilianp07/fleetload/internal/stochastic"
)

// PrimarySession names the daily session of a behavior.
const PrimarySession = "primary"

// Event is one charging sub-interval of a vehicle.
type Event struct {
	VehicleID string
	Type      string
	Column    string
	Location  Location
	Session   string
	Time      time.Time
	Duration  time.Duration
	PowerKW   float64
	EnergyKWh float64
}

// End returns the end of the sub-interval.
func (e Event) End() time.Time { return e.Time.Add(e.Duration) }

// Session is a contiguous charging period of one vehicle.
type Session struct {
	VehicleID string
	Location  Location
	Kind      string
	Start     time.Time
	End       time.Time
	Events    []Event
}

// EnergyKWh returns the energy delivered by the session.
func (s Session) EnergyKWh() float64 {
	var e float64
	for _, ev := range s.Events {
		e += ev.EnergyKWh
	}
	return e
}

// Vehicle is an electric vehicle whose battery persists across days.
type Vehicle struct {
	id    string
	vtype VehicleType
	m     *Model
	store *model.EnergyStore
	rng   *stochastic.Sampler
}

// NewVehicle returns a vehicle with an initial state of charge drawn
// uniformly from the model's InitialSoC range.
func NewVehicle(id string, vt VehicleType, m *Model, rng *stochastic.Sampler) *Vehicle {
	init := m.params.InitialSoC
	store, err := model.NewEnergyStore(vt.BatteryKWh, rng.Uniform(init.Min, init.Max)*vt.BatteryKWh)
	if err != nil {
		// Params are validated by NewModel.
		panic(err)
	}
	return &Vehicle{id: id, vtype: vt, m: m, store: store, rng: rng}
}

// NewFleet builds every vehicle of m, type by type. Ids are <Type>_<n>.
func NewFleet(m *Model, rng *stochastic.Sampler) []*Vehicle {
	fleet := make([]*Vehicle, 0, m.params.FleetSize())
	for _, vt := range m.params.VehicleTypes {
		for i := 0; i < vt.Count; i++ {
			fleet = append(fleet, NewVehicle(fmt.Sprintf("%s_%d", sanitize(vt.Name), i+1), vt, m, rng))
		}
	}
	return fleet
}

func (v *Vehicle) ID() string                { return v.id }
func (v *Vehicle) Category() string          { return v.vtype.Name }
func (v *Vehicle) Store() *model.EnergyStore { return v.store }

// Drive draws the daily distance, clamped at zero, and depletes the battery
// by distance × consumption × seasonal factor. It returns the kWh drawn.
func (v *Vehicle) Drive(day calendar.DayType, date time.Time) float64 {
	d := v.m.params.WeekdayDistance
	if day.IsWeekend() {
		d = v.m.params.WeekendDistance
	}
	km := v.rng.NonNegNormal(d.Mean, d.Std)
	kwh := km * v.vtype.ConsumptionKWhPerKm * calendar.SeasonalFactor(date.Month())
	v.store.Deplete(kwh)
	return kwh
}

// NeedsReplenishment reports whether the battery is below capacity.
func (v *Vehicle) NeedsReplenishment() bool { return !v.store.Full() }

// Replenish charges at the home power for dt and returns the kWh stored.
func (v *Vehicle) Replenish(dt time.Duration) float64 {
	return v.store.Add(v.m.homePower * dt.Hours())
}

// Charge opens the day's charging sessions, behavior by behavior.
func (v *Vehicle) Charge(date time.Time, day calendar.DayType) []Session {
	p := v.m.params
	date = calendar.DayStart(date)
	weekend := day.IsWeekend()
	var out []Session
	for _, b := range p.Behaviors {
		if b.Location == Work {
			prob := p.WorkChargingProbability
			if weekend {
				prob /= 3
			}
			if !v.rng.Chance(prob) {
				continue
			}
		}
		arrival, departure := v.presence(b.Location, date, weekend)
		delay := p.StartDelayWeekday
		if weekend {
			delay = p.StartDelayWeekend
		}
		start := arrival.Add(calendar.Hours(v.rng.Uniform(delay.Min, delay.Max)))
		end := departure
		if full := start.Add(calendar.Hours(v.store.Deficit() / b.PowerKW)); full.Before(end) {
			end = full
		}
		if v.wantsCharge() {
			if s, ok := v.session(b, PrimarySession, start, end); ok {
				out = append(out, s)
			}
		}
		if day != calendar.Weekday {
			continue
		}
		for _, sec := range v.m.secondary {
			if sec.Location != b.Location {
				continue
			}
			nominal, ok := sec.occursOn(date)
			if !ok || !v.rng.Chance(sec.Probability) {
				continue
			}
			s := nominal.Add(calendar.Hours(v.rng.Normal(0, sec.StartJitterStd)))
			e := s.Add(sec.Duration)
			if sec.LatestEnd != nil {
				if latest := sec.LatestEnd.On(date); latest.Before(e) {
					e = latest
				}
			}
			if sess, ok := v.session(b, sec.Name, s, e); ok {
				out = append(out, sess)
			}
		}
	}
	return out
}

// presence draws arrival and departure at a location.
func (v *Vehicle) presence(loc Location, date time.Time, weekend bool) (time.Time, time.Time) {
	p := v.m.params
	tm := p.timing(loc)
	dist := tm.WeekdayArrival
	if weekend {
		dist = tm.WeekendArrival
	}
	skew := p.ArrivalSkewEarly
	if v.rng.Float64() > 0.5 {
		skew = p.ArrivalSkewLate
	}
	arrival := date.Add(calendar.Hours(v.rng.Normal(dist.Mean, dist.Std) + skew))

	depDay := date
	if tm.NextDay {
		depDay = calendar.NextDay(date)
	}
	departure := tm.Departure.On(depDay).Add(calendar.Hours(v.rng.Normal(0, tm.DepartureStd)))
	if weekend && tm.WeekendExtra != (Range{}) {
		departure = departure.Add(calendar.Hours(v.rng.Uniform(tm.WeekendExtra.Min, tm.WeekendExtra.Max)))
	}
	return arrival, departure
}

func (v *Vehicle) wantsCharge() bool {
	p := v.m.params
	soc := v.store.Fraction()
	switch {
	case soc < p.LowSoC:
		return true
	case soc > p.HighSoC:
		return v.rng.Chance(p.HighSoCProbability)
	default:
		return true
	}
}

// session charges from start to end in sub-steps. Each sub-step draws its
// own power jitter; the session stops early once the battery is full. An
// end at or before start yields no session.
func (v *Vehicle) session(b Behavior, kind string, start, end time.Time) (Session, bool) {
	if !end.After(start) {
		return Session{}, false
	}
	p := v.m.params
	s := Session{VehicleID: v.id, Location: b.Location, Kind: kind, Start: start}
	for t := start; t.Before(end) && !v.store.Full(); t = t.Add(p.SessionStep) {
		dt := p.SessionStep
		if rem := end.Sub(t); rem < dt {
			dt = rem
		}
		power := b.PowerKW * (1 + v.rng.Uniform(-p.PowerJitter, p.PowerJitter)*p.Randomness)
		kwh := v.store.Add(power * dt.Hours())
		if kwh <= 0 {
			break
		}
		s.Events = append(s.Events, Event{
			VehicleID: v.id,
			Type:      v.vtype.Name,
			Column:    v.vtype.LoadColumn(),
			Location:  b.Location,
			Session:   kind,
			Time:      t,
			Duration:  dt,
			PowerKW:   kwh / dt.Hours(),
			EnergyKWh: kwh,
		})
	}
	if len(s.Events) == 0 {
		return Session{}, false
	}
	s.End = s.Events[len(s.Events)-1].End()
	return s, true
}

var _ model.Agent = (*Vehicle)(nil)
