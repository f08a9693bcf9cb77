package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/samber/mo"

	"github.com/cyp0633/libschedule/internal/xcal"
	"github.com/cyp0633/libschedule/schedule"
	"github.com/cyp0633/libschedule/temporal"
)

// Engine names
const (
	EngineDefault         = "default"
	EngineHighPerformance = "high-performance"
	EngineLowMemory       = "low-memory"
	EngineDisabledCache   = "disabled-cache"
)

var engines = map[string]schedule.EngineConfig{
	EngineDefault:         schedule.DefaultEngineConfig,
	EngineHighPerformance: schedule.HighPerformanceConfig,
	EngineLowMemory:       schedule.LowMemoryConfig,
	EngineDisabledCache:   schedule.DisabledCacheConfig,
}

// EngineConfig returns the engine preset named by c.Engine
func (c *Config) EngineConfig() (schedule.EngineConfig, error) {
	name := c.Engine
	if name == "" {
		name = EngineDefault
	}
	config, ok := engines[name]
	if !ok {
		return schedule.EngineConfig{}, fmt.Errorf("unknown engine %q", c.Engine)
	}
	return config, nil
}

var quarterMonthNames = map[string]int{
	"first":  1,
	"second": 2,
	"third":  3,
	"last":   3,
}

// Event converts the file form into a schedule event
func (e EventConfig) Event() (schedule.Event, error) {
	ev := schedule.Event{ID: e.ID, Title: e.Title, Count: e.Count}

	var err error
	if ev.Start, err = optionalDate(e.Start); err != nil {
		return ev, fmt.Errorf("start: %w", err)
	}
	if ev.End, err = optionalDate(e.End); err != nil {
		return ev, fmt.Errorf("end: %w", err)
	}
	if e.FirstDayOfWeek != "" {
		if ev.FirstDayOfWeek, err = temporal.ParseWeekday(e.FirstDayOfWeek); err != nil {
			return ev, fmt.Errorf("first_day_of_week: %w", err)
		}
	}

	if r := e.YearRange; r != nil {
		yr := schedule.YearRange{StartMonth: time.Month(r.StartMonth), EndMonth: time.Month(r.EndMonth)}
		if r.StartDay > 0 {
			yr.StartDay = mo.Some(r.StartDay)
		}
		if r.EndDay > 0 {
			yr.EndDay = mo.Some(r.EndDay)
		}
		ev.YearRange = mo.Some(yr)
	}

	kind, err := schedule.ParseFrequencyKind(e.Frequency)
	if err != nil {
		return ev, err
	}

	days, err := e.weekdays()
	if err != nil {
		return ev, err
	}
	positions, err := e.positions()
	if err != nil {
		return ev, err
	}

	switch kind {
	case schedule.KindOneTime:
		date, err := optionalDate(e.Date)
		if err != nil {
			return ev, fmt.Errorf("date: %w", err)
		}
		ev.Frequency = schedule.OneTime{Date: date}
	case schedule.KindDaily:
		ev.Frequency = schedule.Daily{Interval: e.Interval}
	case schedule.KindWeekly:
		ev.Frequency = schedule.Weekly{Days: days, Interval: e.Interval}
	case schedule.KindMonthly:
		ev.Frequency = schedule.Monthly{Interval: e.Interval, DayOfMonth: e.DayOfMonth, Positions: positions, Days: days}
	case schedule.KindQuarterly:
		months, err := e.quarterMonths()
		if err != nil {
			return ev, err
		}
		ev.Frequency = schedule.Quarterly{
			Quarters:       schedule.QuartersOf(e.Quarters...),
			MonthPositions: months,
			Positions:      positions,
			Days:           days,
		}
	case schedule.KindYearly:
		yearly := schedule.Yearly{Interval: e.Interval}
		if a := e.Anniversary; a != nil {
			yearly.Anniversary = mo.Some(schedule.AnniversaryDate{Month: time.Month(a.Month), Day: a.Day})
		}
		ev.Frequency = yearly
	}

	return ev, nil
}

// ExcludedDates parses the per-event excluded dates
func (e EventConfig) ExcludedDates() ([]time.Time, error) {
	dates := make([]time.Time, 0, len(e.Excluded))
	for _, s := range e.Excluded {
		d, err := parseDate(s)
		if err != nil {
			return nil, fmt.Errorf("excluded: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func (e EventConfig) weekdays() (schedule.Weekdays, error) {
	var days []time.Weekday
	for _, s := range e.Days {
		d, err := temporal.ParseWeekday(s)
		if err != nil {
			return 0, fmt.Errorf("days: %w", err)
		}
		days = append(days, d)
	}
	return schedule.WeekdaysOf(days...), nil
}

func (e EventConfig) positions() (schedule.MonthlyPositions, error) {
	var positions []temporal.Position
	for _, s := range e.Positions {
		p, err := temporal.ParsePosition(s)
		if err != nil {
			return 0, fmt.Errorf("positions: %w", err)
		}
		positions = append(positions, p)
	}
	return schedule.PositionsOf(positions...), nil
}

func (e EventConfig) quarterMonths() (schedule.QuarterMonths, error) {
	var months []int
	for _, s := range e.QuarterMonths {
		m, ok := quarterMonthNames[strings.ToLower(strings.TrimSpace(s))]
		if !ok {
			return 0, fmt.Errorf("quarter_months: unknown month position %q", s)
		}
		months = append(months, m)
	}
	return schedule.QuarterMonthsOf(months...), nil
}

// Expression converts the holiday into a temporal expression
func (h HolidayConfig) Expression() (temporal.Expression, error) {
	if h.Date != "" {
		d, err := parseDate(h.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday %s: %w", h.Name, err)
		}
		return temporal.DateExact{Date: d}, nil
	}

	if h.Month < 1 || h.Month > 12 {
		return nil, fmt.Errorf("holiday %s: invalid month %d", h.Name, h.Month)
	}
	month := time.Month(h.Month)

	if h.Weekday == "" {
		if h.Day < 1 || h.Day > 31 {
			return nil, fmt.Errorf("holiday %s: invalid day %d", h.Name, h.Day)
		}
		return temporal.FixedHoliday{Month: month, Day: h.Day}, nil
	}

	day, err := temporal.ParseWeekday(h.Weekday)
	if err != nil {
		return nil, fmt.Errorf("holiday %s: %w", h.Name, err)
	}
	pos, err := temporal.ParsePosition(h.Position)
	if err != nil || pos == temporal.AnyWeek {
		return nil, fmt.Errorf("holiday %s: floating holidays need a week position, got %q", h.Name, h.Position)
	}
	return temporal.FloatingHoliday{Month: month, Day: day, Position: pos}, nil
}

// Exclusions builds the shared holiday union from Holidays and
// HolidayCalendars. baseDir resolves relative calendar paths.
func (c *Config) Exclusions(baseDir string) (temporal.Union, error) {
	out := make(temporal.Union, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		expr, err := h.Expression()
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}

	for _, path := range c.HolidayCalendars {
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		cal, err := readCalendar(path)
		if err != nil {
			return nil, err
		}
		exclusions, err := schedule.ExclusionsFromCalendar(cal)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, exclusions...)
	}

	return out, nil
}

func readCalendar(path string) (*ical.Calendar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cal *ical.Calendar
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".xcs":
		cal, err = xcal.Read(f)
	default:
		cal, err = ical.NewDecoder(f).Decode()
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return cal, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return temporal.Day(d), nil
}

func optionalDate(s string) (mo.Option[time.Time], error) {
	if strings.TrimSpace(s) == "" {
		return mo.None[time.Time](), nil
	}
	d, err := parseDate(s)
	if err != nil {
		return mo.None[time.Time](), err
	}
	return mo.Some(d), nil
}
