// Package calendar classifies simulated days and converts clock times into
// absolute timestamps. Windows that cross midnight are always expressed as
// absolute times, never as time-of-day pairs.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// DayType is the operating profile of a calendar day.
type DayType int

const (
	Weekday DayType = iota
	Saturday
	SundayHoliday
)

func (d DayType) String() string {
	switch d {
	case Weekday:
		return "Weekday"
	case Saturday:
		return "Saturday"
	case SundayHoliday:
		return "Sunday/Holiday"
	default:
		return fmt.Sprintf("DayType(%d)", int(d))
	}
}

// IsWeekend reports whether the day uses the weekend profile.
func (d DayType) IsWeekend() bool { return d != Weekday }

// Calendar classifies dates using day of week and a holiday set.
type Calendar struct {
	region string
	extra  map[civil]struct{}

	mu       sync.Mutex
	byRegion map[int]map[civil]struct{}
}

type civil struct {
	y int
	m time.Month
	d int
}

func civilOf(t time.Time) civil {
	y, m, d := t.Date()
	return civil{y, m, d}
}

// New returns a Calendar. region selects a built-in holiday set ("" for
// none, "pf" for French Polynesia); extra adds individual dates.
func New(region string, extra []time.Time) (*Calendar, error) {
	region = strings.ToLower(strings.TrimSpace(region))
	switch region {
	case "", "pf":
	default:
		return nil, fmt.Errorf("unknown holiday region %q", region)
	}
	c := &Calendar{region: region, extra: make(map[civil]struct{}, len(extra)), byRegion: map[int]map[civil]struct{}{}}
	for _, d := range extra {
		c.extra[civilOf(d)] = struct{}{}
	}
	return c, nil
}

// Default returns a calendar without holidays.
func Default() *Calendar {
	c, _ := New("", nil)
	return c
}

// IsHoliday reports whether date is a configured or regional holiday.
func (c *Calendar) IsHoliday(date time.Time) bool {
	k := civilOf(date)
	if _, ok := c.extra[k]; ok {
		return true
	}
	if c.region == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.byRegion[k.y]
	if !ok {
		set = make(map[civil]struct{})
		for _, h := range PolynesiaHolidays(k.y) {
			set[civilOf(h)] = struct{}{}
		}
		c.byRegion[k.y] = set
	}
	_, ok = set[k]
	return ok
}

// Classify returns the day type of date.
func (c *Calendar) Classify(date time.Time) DayType {
	switch {
	case date.Weekday() == time.Sunday || c.IsHoliday(date):
		return SundayHoliday
	case date.Weekday() == time.Saturday:
		return Saturday
	default:
		return Weekday
	}
}

// PolynesiaHolidays returns the public holidays of French Polynesia for year,
// sorted by date.
func PolynesiaHolidays(year int) []time.Time {
	d := func(m time.Month, day int) time.Time { return time.Date(year, m, day, 0, 0, 0, 0, time.UTC) }
	easter := Easter(year)
	out := []time.Time{
		d(time.January, 1),
		d(time.March, 5), // arrival of the Gospel
		easter.AddDate(0, 0, -2),
		easter.AddDate(0, 0, 1),
		d(time.May, 1),
		d(time.May, 8),
		easter.AddDate(0, 0, 39),
		easter.AddDate(0, 0, 50),
		d(time.June, 29), // autonomy day
		d(time.July, 14),
		d(time.August, 15),
		d(time.November, 1),
		d(time.November, 11),
		d(time.December, 25),
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Easter returns Easter Sunday of the Gregorian calendar.
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// SeasonalFactor is the temperature multiplier applied to EV consumption.
func SeasonalFactor(m time.Month) float64 {
	switch m {
	case time.December, time.January, time.February, time.March:
		return 1.15
	case time.June, time.July:
		return 0.85
	default:
		return 1.0
	}
}
