// Package schedule turns an Event configuration into a Schedule that answers
// occurrence queries: whether a date is an occurrence, which dates in a
// range are occurrences, and the next, previous or last occurrence.
package schedule

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"

	"github.com/cyp0633/libschedule/temporal"
)

// Schedule answers occurrence queries for one Event. It is immutable after
// New and safe for concurrent use.
type Schedule struct {
	id         string
	event      Event
	expr       temporal.Expression // frequency union and year range
	exclusions temporal.Union
	limits     DateRange
	window     int

	config    EngineConfig
	cache     *OccurrenceCache
	ownsCache bool
	logger    *slog.Logger
}

// Option represents a configuration option for a Schedule
type Option func(*Schedule)

// WithExcludedDates excludes individual dates
func WithExcludedDates(dates []time.Time) Option {
	return func(s *Schedule) {
		if len(dates) == 0 {
			return
		}
		exact := make(temporal.Union, 0, len(dates))
		for _, d := range dates {
			exact = append(exact, temporal.DateExact{Date: temporal.Day(d)})
		}
		s.addExclusion(exact)
	}
}

// WithExclusions excludes every date matched by expr, e.g. a union of holidays
func WithExclusions(expr temporal.Expression) Option {
	return func(s *Schedule) {
		if expr != nil {
			s.addExclusion(expr)
		}
	}
}

// WithConfig sets the engine configuration
func WithConfig(config EngineConfig) Option {
	return func(s *Schedule) {
		s.config = config
	}
}

// WithCache shares an existing cache. The schedule does not close it.
func WithCache(cache *OccurrenceCache) Option {
	return func(s *Schedule) {
		s.cache = cache
	}
}

// WithLogger sets the logger for the schedule
func WithLogger(logger *slog.Logger) Option {
	return func(s *Schedule) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func (s *Schedule) addExclusion(expr temporal.Expression) {
	s.exclusions = append(s.exclusions, expr)
}

// New compiles an event into a Schedule
func New(event Event, opts ...Option) (*Schedule, error) {
	s := &Schedule{
		id:     uuid.NewString(),
		event:  event,
		config: DefaultEngineConfig,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	expr, err := baseExpression(event)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", event, err)
	}
	s.expr = expr
	s.limits = event.limits()
	s.window = WindowDays(event.Kind(), event.Interval())

	if s.cache == nil && s.config.CacheEnabled {
		s.cache = NewOccurrenceCache(s.config.CacheConfig)
		s.ownsCache = true
	}

	s.logger.Debug("schedule compiled",
		"schedule", s.id,
		"event", event.String(),
		"limits", s.limits.String(),
		"window_days", s.window,
		"cache", s.cache != nil)

	return s, nil
}

// MustNew is like New but panics on a configuration error
func MustNew(event Event, opts ...Option) *Schedule {
	s, err := New(event, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Close releases the schedule's own cache, if it created one
func (s *Schedule) Close() {
	if s.ownsCache {
		s.cache.Close()
	}
}

// ID identifies the schedule in cache keys and logs
func (s *Schedule) ID() string { return s.id }

// Event returns the configuration the schedule was built from
func (s *Schedule) Event() Event { return s.event }

// Expression returns the compiled expression including exclusions
func (s *Schedule) Expression() temporal.Expression {
	return temporal.Difference{Include: s.expr, Exclude: s.exclusions}
}

func (s *Schedule) includes(d time.Time) bool {
	if !s.limits.Contains(d) || !s.expr.Includes(d) {
		return false
	}
	return !s.exclusions.Includes(d)
}

// IsOccurring reports whether the event occurs on date. Only the Start and
// End limits apply; Count is not considered.
func (s *Schedule) IsOccurring(date time.Time) bool {
	return s.includes(temporal.Day(date))
}

// Occurrences yields every occurrence in r in ascending order. The sequence
// is lazy and can be iterated more than once.
func (s *Schedule) Occurrences(r DateRange) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		clamped, err := r.Clamp(s.limits)
		if err != nil {
			return
		}
		for d := range clamped.Each() {
			if s.includes(d) && !yield(d) {
				return
			}
		}
	}
}

// OccurrenceSlice collects Occurrences(r)
func (s *Schedule) OccurrenceSlice(r DateRange) []time.Time {
	var out []time.Time
	for d := range s.Occurrences(r) {
		out = append(out, d)
	}
	return out
}

// NextOccurrence returns the first occurrence after date. The event must
// have an end date.
func (s *Schedule) NextOccurrence(date time.Time) (mo.Option[time.Time], error) {
	if s.event.End.IsAbsent() {
		return mo.None[time.Time](), ErrMissingEnd
	}
	return s.next(temporal.Day(date), s.limits), nil
}

// NextOccurrenceIn returns the first occurrence after date inside r. Nothing
// is found when r is inverted or lies outside the event's limits.
func (s *Schedule) NextOccurrenceIn(date time.Time, r DateRange) mo.Option[time.Time] {
	bound, err := r.Clamp(s.limits)
	if err != nil {
		return mo.None[time.Time]()
	}
	return s.next(temporal.Day(date), bound)
}

// PreviousOccurrence returns the last occurrence before date. The event must
// have a start date.
func (s *Schedule) PreviousOccurrence(date time.Time) (mo.Option[time.Time], error) {
	if s.event.Start.IsAbsent() {
		return mo.None[time.Time](), ErrMissingStart
	}
	return s.previous(temporal.Day(date), s.limits), nil
}

// PreviousOccurrenceIn returns the last occurrence before date inside r.
func (s *Schedule) PreviousOccurrenceIn(date time.Time, r DateRange) mo.Option[time.Time] {
	bound, err := r.Clamp(s.limits)
	if err != nil {
		return mo.None[time.Time]()
	}
	return s.previous(temporal.Day(date), bound)
}

func (s *Schedule) next(date time.Time, bound DateRange) mo.Option[time.Time] {
	if bound.Inverted() || !date.Before(bound.End) {
		return mo.None[time.Time]()
	}
	return s.cached("next", func() mo.Option[time.Time] {
		from := temporal.AddDays(date, 1)
		if from.Before(bound.Start) {
			from = bound.Start
		}
		return s.scanForward(DateRange{Start: from, End: bound.End})
	}, date, bound.Start, bound.End)
}

func (s *Schedule) previous(date time.Time, bound DateRange) mo.Option[time.Time] {
	if bound.Inverted() || !date.After(bound.Start) {
		return mo.None[time.Time]()
	}
	return s.cached("previous", func() mo.Option[time.Time] {
		to := temporal.AddDays(date, -1)
		if to.After(bound.End) {
			to = bound.End
		}
		return s.scanBackward(DateRange{Start: bound.Start, End: to})
	}, date, bound.Start, bound.End)
}

// GetLastOccurrenceDate returns the date of the final occurrence. The event
// needs a start date and an end date or occurrence count. With a count, the
// count-th occurrence is returned unless it falls after the end date.
func (s *Schedule) GetLastOccurrenceDate() (mo.Option[time.Time], error) {
	start, ok := s.event.Start.Get()
	if !ok || (s.event.End.IsAbsent() && s.event.Count <= 0) {
		return mo.None[time.Time](), ErrMissingLimit
	}
	start = temporal.Day(start)
	if s.limits.Inverted() {
		return mo.None[time.Time](), nil
	}

	return s.cached("last", func() mo.Option[time.Time] {
		if n := s.event.Count; n > 0 {
			window := DateRange{Start: start, End: horizon(s.event, start, n)}
			if end, ok := s.event.End.Get(); ok && window.End.After(temporal.Day(end)) {
				window.End = temporal.Day(end)
			}
			if nth, found := NthOccurrence(temporal.ExpressionFunc(s.includes), window, n).Get(); found {
				return mo.Some(nth)
			}
			if s.event.End.IsAbsent() {
				return mo.None[time.Time]()
			}
		}
		return s.scanBackward(s.limits)
	}), nil
}

func (s *Schedule) cached(op string, compute func() mo.Option[time.Time], dates ...time.Time) mo.Option[time.Time] {
	if s.cache == nil {
		return compute()
	}
	if result, ok := s.cache.Get(op, s.id, dates...); ok {
		s.logger.Debug("occurrence cache hit", "schedule", s.id, "operation", op)
		return result
	}
	result := compute()
	s.cache.Set(op, s.id, result, dates...)
	return result
}

// CountParallel counts the occurrences in r, splitting long ranges across up
// to workers goroutines.
func (s *Schedule) CountParallel(ctx context.Context, r DateRange, workers int) (int, error) {
	clamped, err := r.Clamp(s.limits)
	if err != nil {
		return 0, nil
	}
	days := temporal.DaysBetween(clamped.Start, clamped.End) + 1
	if workers < 2 || days < s.config.ParallelThresholdDays {
		return s.count(ctx, clamped)
	}

	chunk := (days + workers - 1) / workers
	counts := make([]int, workers)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		from := temporal.AddDays(clamped.Start, i*chunk)
		if from.After(clamped.End) {
			break
		}
		to := temporal.AddDays(from, chunk-1)
		if to.After(clamped.End) {
			to = clamped.End
		}
		g.Go(func() error {
			n, err := s.count(ctx, DateRange{Start: from, End: to})
			counts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

func (s *Schedule) count(ctx context.Context, r DateRange) (int, error) {
	n := 0
	i := 0
	for d := range r.Each() {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		i++
		if s.includes(d) {
			n++
		}
	}
	return n, nil
}
