package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/cyp0633/libschedule/temporal"
)

const productID = "-//libschedule//NONSGML v1.0//EN"

// rruleDays maps time.Weekday to rrule weekdays
var rruleDays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ToRRule describes the event as an RFC 5545 recurrence rule. One-time
// events, year ranges and month days above 28 have no exact RRULE form and
// yield ErrNotExpressible.
func ToRRule(e Event) (*rrule.ROption, error) {
	if _, ok := e.YearRange.Get(); ok {
		return nil, fmt.Errorf("%w: year range", ErrNotExpressible)
	}

	opt := &rrule.ROption{Interval: e.Interval(), Wkst: rruleDays[e.FirstDayOfWeek]}
	if start, ok := e.Start.Get(); ok {
		opt.Dtstart = temporal.Day(start)
	}
	if end, ok := e.End.Get(); ok {
		opt.Until = temporal.Day(end)
	}
	opt.Count = max(e.Count, 0)

	switch f := e.Frequency.(type) {
	case OneTime:
		return nil, fmt.Errorf("%w: one-time event", ErrNotExpressible)
	case Daily:
		opt.Freq = rrule.DAILY
	case Weekly:
		if f.Days == 0 {
			return nil, fmt.Errorf("%w: weekly event without days", ErrNotExpressible)
		}
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = rruleWeekdays(f.Days, temporal.AnyWeek)
	case Monthly:
		opt.Freq = rrule.MONTHLY
		if f.DayOfMonth > 0 {
			// shorter months clamp to their last day, which BYMONTHDAY cannot say
			if f.DayOfMonth > 28 {
				return nil, fmt.Errorf("%w: day %d of month", ErrNotExpressible, f.DayOfMonth)
			}
			opt.Bymonthday = []int{f.DayOfMonth}
			break
		}
		if f.Days == 0 || f.Positions == 0 {
			return nil, fmt.Errorf("%w: monthly event without days", ErrNotExpressible)
		}
		for pos := range f.Positions.Each() {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays(f.Days, pos)...)
		}
	case Quarterly:
		if f.Days == 0 || f.Positions == 0 || f.Quarters == 0 || f.MonthPositions == 0 {
			return nil, fmt.Errorf("%w: quarterly event without days", ErrNotExpressible)
		}
		// each quarter/month pair is a separate month, so the weeks are counted per month
		opt.Freq = rrule.MONTHLY
		matrix := temporal.QuarterMonthMatrix()
		for q := range f.Quarters.Each() {
			for m := range f.MonthPositions.Each() {
				opt.Bymonth = append(opt.Bymonth, matrix[q-1][m-1]+1)
			}
		}
		for pos := range f.Positions.Each() {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays(f.Days, pos)...)
		}
	case Yearly:
		ann, ok := f.Anniversary.Get()
		if !ok {
			return nil, ErrMissingAnniversary
		}
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(ann.Month)}
		opt.Bymonthday = []int{ann.Day}
		// the interval counts from the first anniversary, not from the start date
		if start, ok := e.Start.Get(); ok {
			opt.Dtstart = temporal.Date(anchorYear(temporal.Day(start), ann), ann.Month, ann.Day)
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownFrequency, e.Frequency)
	}

	if opt.Interval == 1 {
		opt.Interval = 0
	}
	return opt, nil
}

func rruleWeekdays(days Weekdays, pos temporal.Position) []rrule.Weekday {
	var out []rrule.Weekday
	for d := range days.Each() {
		wd := rruleDays[d]
		if pos != temporal.AnyWeek {
			wd = wd.Nth(int(pos))
		}
		out = append(out, wd)
	}
	return out
}

// EventComponent renders the event as a master VEVENT carrying its RRULE.
func EventComponent(e Event) (*ical.Component, error) {
	comp := ical.NewComponent(ical.CompEvent)
	uid := e.ID
	if uid == "" {
		uid = uuid.NewString()
	}
	comp.Props.SetText(ical.PropUID, uid)
	comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	if e.Title != "" {
		comp.Props.SetText(ical.PropSummary, e.Title)
	}

	if f, ok := e.Frequency.(OneTime); ok {
		date, ok := f.Date.Get()
		if !ok {
			return nil, fmt.Errorf("%w: one-time event without a date", ErrNotExpressible)
		}
		comp.Props.SetDate(ical.PropDateTimeStart, temporal.Day(date))
		return comp, nil
	}

	opt, err := ToRRule(e)
	if err != nil {
		return nil, err
	}
	if opt.Dtstart.IsZero() {
		return nil, fmt.Errorf("%w: recurring event without a start date", ErrNotExpressible)
	}
	comp.Props.SetDate(ical.PropDateTimeStart, opt.Dtstart)

	// UNTIL must have the same value type as DTSTART
	until := opt.Until
	opt.Until = time.Time{}
	rule := opt.RRuleString()
	if !until.IsZero() {
		rule += ";UNTIL=" + until.Format(rrule.DateFormat)
	}
	// set directly, SetText would escape the commas
	prop := ical.NewProp(ical.PropRecurrenceRule)
	prop.Value = rule
	comp.Props.Set(prop)

	return comp, nil
}

// NewCalendar returns an empty VCALENDAR carrying PRODID and VERSION
func NewCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	return cal
}

// ToCalendar renders every occurrence in r as an all-day VEVENT
func ToCalendar(s *Schedule, r DateRange) *ical.Calendar {
	cal := NewCalendar()

	stamp := time.Now().UTC()
	title := s.event.Title
	if title == "" {
		title = s.event.Kind().String()
	}
	for d := range s.Occurrences(r) {
		comp := ical.NewComponent(ical.CompEvent)
		comp.Props.SetText(ical.PropUID, uuid.NewString())
		comp.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		comp.Props.SetText(ical.PropSummary, title)
		comp.Props.SetDate(ical.PropDateTimeStart, d)
		comp.Props.SetDate(ical.PropDateTimeEnd, d.AddDate(0, 0, 1))
		cal.Children = append(cal.Children, comp)
	}
	return cal
}

// ExclusionsFromCalendar turns the VEVENTs of a holiday calendar into
// exclusion expressions. Yearly rules on a fixed day or on the nth weekday of
// a month become FixedHoliday and FloatingHoliday; anything else excludes
// just its start date. EXDATEs remove single years from a holiday.
func ExclusionsFromCalendar(cal *ical.Calendar) (temporal.Union, error) {
	var out temporal.Union
	for _, ev := range cal.Events() {
		start, err := ev.Props.DateTime(ical.PropDateTimeStart, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("holiday %s: %w", summaryOf(ev.Component), err)
		}
		if start.IsZero() {
			continue
		}
		start = temporal.Day(start)

		var expr temporal.Expression = temporal.DateExact{Date: start}
		if prop := ev.Props.Get(ical.PropRecurrenceRule); prop != nil && prop.Value != "" {
			if holiday, ok := holidayFromRule(prop.Value, start); ok {
				expr = holiday
			}
		}

		var exdates []time.Time
		for _, prop := range ev.Props[ical.PropExceptionDates] {
			exdates = append(exdates, exceptionDates(prop)...)
		}
		if len(exdates) > 0 {
			skip := make(temporal.Union, 0, len(exdates))
			for _, d := range exdates {
				skip = append(skip, temporal.DateExact{Date: d})
			}
			expr = temporal.Difference{Include: expr, Exclude: skip}
		}

		out = append(out, expr)
	}
	return out, nil
}

func summaryOf(comp *ical.Component) string {
	if p := comp.Props.Get(ical.PropSummary); p != nil {
		return p.Value
	}
	if p := comp.Props.Get(ical.PropUID); p != nil {
		return p.Value
	}
	return "(unnamed)"
}

// holidayFromRule recognises yearly holiday rules
func holidayFromRule(value string, start time.Time) (temporal.Expression, bool) {
	opt, err := rrule.StrToROption(value)
	if err != nil || opt.Freq != rrule.YEARLY || len(opt.Bymonth) > 1 {
		return nil, false
	}
	if opt.Interval > 1 || opt.Count > 0 || !opt.Until.IsZero() {
		return nil, false
	}
	if len(opt.Bymonth) == 0 {
		if len(opt.Bymonthday) > 0 || len(opt.Byweekday) > 0 {
			return nil, false
		}
		// FREQ=YEARLY alone repeats DTSTART
		return temporal.FixedHoliday{Month: start.Month(), Day: start.Day()}, true
	}
	month := time.Month(opt.Bymonth[0])

	if len(opt.Bymonthday) == 0 && len(opt.Byweekday) == 0 {
		return temporal.FixedHoliday{Month: month, Day: start.Day()}, true
	}
	if len(opt.Bymonthday) == 1 && len(opt.Byweekday) == 0 && opt.Bymonthday[0] > 0 {
		return temporal.FixedHoliday{Month: month, Day: opt.Bymonthday[0]}, true
	}

	if len(opt.Bymonthday) == 0 && len(opt.Byweekday) == 1 {
		wd := opt.Byweekday[0]
		n := wd.N()
		if n == 0 && len(opt.Bysetpos) == 1 {
			n = opt.Bysetpos[0]
		}
		if (n >= 1 && n <= 4) || n == -1 {
			day := time.Weekday((wd.Day() + 1) % 7)
			return temporal.FloatingHoliday{Month: month, Day: day, Position: temporal.Position(n)}, true
		}
	}
	return nil, false
}

// exceptionDates reads each comma-separated value of an EXDATE as a day,
// letting go-ical resolve VALUE and TZID. Unparseable values are skipped.
func exceptionDates(prop ical.Prop) []time.Time {
	var days []time.Time
	for _, v := range strings.Split(prop.Value, ",") {
		single := prop
		single.Value = strings.TrimSpace(v)
		if single.Value == "" {
			continue
		}
		t, err := single.DateTime(time.UTC)
		if err != nil && prop.Params.Get(ical.ParamValue) == "" {
			// all-day exceptions often arrive without VALUE=DATE
			bare := ical.NewProp(prop.Name)
			bare.SetValueType(ical.ValueDate)
			bare.Value = single.Value
			t, err = bare.DateTime(time.UTC)
		}
		if err == nil {
			days = append(days, temporal.Day(t))
		}
	}
	return days
}
