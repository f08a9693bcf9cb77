// Command schedwidget loads schedule definitions from a YAML file and prints
// their occurrences, searches or exports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/emersion/go-ical"
	"github.com/samber/mo"

	"github.com/cyp0633/libschedule/internal/config"
	"github.com/cyp0633/libschedule/internal/xcal"
	"github.com/cyp0633/libschedule/schedule"
	"github.com/cyp0633/libschedule/store/memory"
	"github.com/cyp0633/libschedule/temporal"
)

const (
	formatText = "text"
	formatICS  = "ics"
	formatXCal = "xcal"
)

// flagConfig holds the parsed command line
type flagConfig struct {
	configPath string
	from       string
	to         string
	event      string
	next       string
	prev       string
	last       bool
	count      bool
	rules      bool
	format     string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, time.Now()))
}

func parseFlags(args []string, stderr io.Writer) (flagConfig, error) {
	var cfg flagConfig

	fs := flag.NewFlagSet("schedwidget", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.configPath, "config", "schedules.yaml", "Path to the schedule definition file")
	fs.StringVar(&cfg.from, "from", "", "First day of the range, YYYY-MM-DD (default today)")
	fs.StringVar(&cfg.to, "to", "", "Last day of the range, YYYY-MM-DD (default one month after -from)")
	fs.StringVar(&cfg.event, "event", "", "Only events whose ID matches or whose title contains this text")
	fs.StringVar(&cfg.next, "next", "", "Print the next occurrence after this date instead of listing")
	fs.StringVar(&cfg.prev, "prev", "", "Print the previous occurrence before this date instead of listing")
	fs.BoolVar(&cfg.last, "last", false, "Print the last occurrence of each event instead of listing")
	fs.BoolVar(&cfg.count, "count", false, "Print the number of occurrences in the range instead of listing")
	fs.BoolVar(&cfg.rules, "rules", false, "Export recurring events as RRULEs instead of expanded occurrences")
	fs.StringVar(&cfg.format, "format", formatText, "Output format: text, ics or xcal")
	fs.StringVar(&cfg.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.format = strings.ToLower(cfg.format)
	switch cfg.format {
	case formatText, formatICS, formatXCal:
	default:
		return cfg, fmt.Errorf("unknown format %q", cfg.format)
	}
	return cfg, nil
}

// newLogger builds a text logger on w. Unrecognised levels fall back to info.
func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
	}))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, now time.Time) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	logger := newLogger(flags.logLevel, stderr)

	if err := execute(ctx, flags, stdout, logger, now); err != nil {
		logger.Error("schedwidget failed", "error", err)
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, flags flagConfig, stdout io.Writer, logger *slog.Logger, now time.Time) error {
	r, err := dateRange(flags.from, flags.to, now)
	if err != nil {
		return err
	}

	store, err := loadStore(ctx, flags.configPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ids := store.Find(ctx, flags.event)
	if len(ids) == 0 {
		return fmt.Errorf("no events match %q", flags.event)
	}

	schedules := make([]*schedule.Schedule, 0, len(ids))
	for _, id := range ids {
		s, err := store.Get(ctx, id)
		if err != nil {
			return err
		}
		schedules = append(schedules, s)
	}

	switch flags.format {
	case formatICS:
		return ical.NewEncoder(stdout).Encode(buildCalendar(schedules, r, flags.rules, logger))
	case formatXCal:
		return xcal.Write(stdout, buildCalendar(schedules, r, flags.rules, logger))
	}

	for _, s := range schedules {
		if err := printSchedule(ctx, stdout, s, flags, r); err != nil {
			return err
		}
	}
	return nil
}

func loadStore(ctx context.Context, path string, logger *slog.Logger) (*memory.Store, error) {
	conf, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	engine, err := conf.EngineConfig()
	if err != nil {
		return nil, err
	}
	holidays, err := conf.Exclusions(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("holidays: %w", err)
	}

	logger.Info("definitions loaded",
		"config_path", path,
		"engine", conf.Engine,
		"events", len(conf.Events),
		"holidays", len(holidays))

	store := memory.New(
		memory.WithLogger(logger),
		memory.WithEngineConfig(engine),
		memory.WithHolidays(holidays),
	)

	for i, ec := range conf.Events {
		event, err := ec.Event()
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("event %d (%s): %w", i+1, ec.Title, err)
		}
		excluded, err := ec.ExcludedDates()
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("event %d (%s): %w", i+1, ec.Title, err)
		}
		if _, err := store.Add(ctx, memory.Definition{Event: event, Excluded: excluded, UseHolidays: ec.UseHolidays}); err != nil {
			store.Close()
			return nil, fmt.Errorf("event %d (%s): %w", i+1, ec.Title, err)
		}
	}

	return store, nil
}

func dateRange(from, to string, now time.Time) (schedule.DateRange, error) {
	start := temporal.Day(now)
	if from != "" {
		d, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return schedule.DateRange{}, fmt.Errorf("-from: %w", err)
		}
		start = temporal.Day(d)
	}

	end := temporal.AddMonths(start, 1)
	if to != "" {
		d, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return schedule.DateRange{}, fmt.Errorf("-to: %w", err)
		}
		end = temporal.Day(d)
	}

	if end.Before(start) {
		return schedule.DateRange{}, fmt.Errorf("-to %s is before -from %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return schedule.NewDateRange(start, end), nil
}

func title(s *schedule.Schedule) string {
	e := s.Event()
	name := e.Title
	if name == "" {
		name = e.ID
	}
	return fmt.Sprintf("%s (%s)", name, e.Kind())
}

func formatOption(o mo.Option[time.Time]) string {
	if d, ok := o.Get(); ok {
		return d.Format(time.DateOnly)
	}
	return "none"
}

func printSchedule(ctx context.Context, w io.Writer, s *schedule.Schedule, flags flagConfig, r schedule.DateRange) error {
	fmt.Fprintln(w, title(s))

	switch {
	case flags.next != "":
		d, err := time.Parse(time.DateOnly, flags.next)
		if err != nil {
			return fmt.Errorf("-next: %w", err)
		}
		next, err := s.NextOccurrence(d)
		if err != nil {
			fmt.Fprintf(w, "  next after %s: %v\n", flags.next, err)
			return nil
		}
		fmt.Fprintf(w, "  next after %s: %s\n", flags.next, formatOption(next))

	case flags.prev != "":
		d, err := time.Parse(time.DateOnly, flags.prev)
		if err != nil {
			return fmt.Errorf("-prev: %w", err)
		}
		prev, err := s.PreviousOccurrence(d)
		if err != nil {
			fmt.Fprintf(w, "  previous before %s: %v\n", flags.prev, err)
			return nil
		}
		fmt.Fprintf(w, "  previous before %s: %s\n", flags.prev, formatOption(prev))

	case flags.last:
		last, err := s.GetLastOccurrenceDate()
		if err != nil {
			fmt.Fprintf(w, "  last: %v\n", err)
			return nil
		}
		fmt.Fprintf(w, "  last: %s\n", formatOption(last))

	case flags.count:
		n, err := s.CountParallel(ctx, r, runtime.NumCPU())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %d occurrences in %s\n", n, r)

	default:
		n := 0
		for d := range s.Occurrences(r) {
			fmt.Fprintf(w, "  %s %s\n", d.Format(time.DateOnly), d.Weekday().String()[:3])
			n++
		}
		if n == 0 {
			fmt.Fprintf(w, "  no occurrences in %s\n", r)
		}
	}
	return nil
}

// buildCalendar merges the selected schedules into one calendar, either as
// expanded all-day occurrences or, with rules set, as recurring master events
func buildCalendar(schedules []*schedule.Schedule, r schedule.DateRange, rules bool, logger *slog.Logger) *ical.Calendar {
	cal := schedule.NewCalendar()
	for _, s := range schedules {
		if rules {
			comp, err := schedule.EventComponent(s.Event())
			if err == nil {
				cal.Children = append(cal.Children, comp)
				continue
			}
			logger.Warn("exporting expanded occurrences",
				"event", s.Event().String(),
				"reason", err)
		}
		cal.Children = append(cal.Children, schedule.ToCalendar(s, r).Children...)
	}
	return cal
}
