package ev

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kilianp07/fleetload/core/calendar"
)

// Model is a validated Params with its secondary session schedules parsed.
// It is shared read-only by every vehicle of a run.
type Model struct {
	params    Params
	secondary []secondary
	homePower float64
}

type secondary struct {
	SecondarySession
	schedule cron.Schedule
}

// occursOn returns the nominal start of the session on date, if the schedule
// fires that day.
func (s secondary) occursOn(date time.Time) (time.Time, bool) {
	day := calendar.DayStart(date)
	next := s.schedule.Next(day.Add(-time.Second))
	return next, next.Before(calendar.NextDay(day))
}

// NewModel validates p.
func NewModel(p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m := &Model{params: p, homePower: p.Behaviors[0].PowerKW}
	for _, b := range p.Behaviors {
		if b.Location == Home {
			m.homePower = b.PowerKW
		}
	}
	for _, s := range p.Secondary {
		sched, err := cron.ParseStandard(s.Cron)
		if err != nil {
			return nil, fmt.Errorf("secondary session %s: %w", s.Name, err)
		}
		m.secondary = append(m.secondary, secondary{SecondarySession: s, schedule: sched})
	}
	return m, nil
}

// Params returns the parameters the model was built from.
func (m *Model) Params() Params { return m.params }
