// Package config loads and saves YAML schedule definition files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the layout of every date in a definition file
const DateLayout = time.DateOnly

// AnniversaryConfig is the month and day of a yearly event
type AnniversaryConfig struct {
	Month int `yaml:"month"`
	Day   int `yaml:"day"`
}

// YearRangeConfig limits an event to part of each year. Zero days cover the
// whole start or end month.
type YearRangeConfig struct {
	StartMonth int `yaml:"start_month"`
	EndMonth   int `yaml:"end_month"`
	StartDay   int `yaml:"start_day,omitempty"`
	EndDay     int `yaml:"end_day,omitempty"`
}

// HolidayConfig describes one shared exclusion. Set Date for a single day,
// Month and Day for a fixed yearly holiday, or Month, Weekday and Position
// for a floating one.
type HolidayConfig struct {
	Name     string `yaml:"name,omitempty"`
	Date     string `yaml:"date,omitempty"`
	Month    int    `yaml:"month,omitempty"`
	Day      int    `yaml:"day,omitempty"`
	Weekday  string `yaml:"weekday,omitempty"`
	Position string `yaml:"position,omitempty"`
}

// EventConfig is the file form of a schedule event
type EventConfig struct {
	ID    string `yaml:"id,omitempty"`
	Title string `yaml:"title"`

	// Frequency is one of one-time, daily, weekly, monthly, quarterly, yearly
	Frequency string `yaml:"frequency"`
	Interval  int    `yaml:"interval,omitempty"`

	Days          []string `yaml:"days,omitempty"`
	Positions     []string `yaml:"positions,omitempty"`
	DayOfMonth    int      `yaml:"day_of_month,omitempty"`
	Quarters      []int    `yaml:"quarters,omitempty"`
	QuarterMonths []string `yaml:"quarter_months,omitempty"`

	Anniversary *AnniversaryConfig `yaml:"anniversary,omitempty"`
	YearRange   *YearRangeConfig   `yaml:"year_range,omitempty"`

	Start string `yaml:"start,omitempty"`
	End   string `yaml:"end,omitempty"`
	// Date is the day of a one-time event
	Date  string `yaml:"date,omitempty"`
	Count int    `yaml:"count,omitempty"`

	FirstDayOfWeek string `yaml:"first_day_of_week,omitempty"`

	Excluded    []string `yaml:"excluded,omitempty"`
	UseHolidays bool     `yaml:"use_holidays,omitempty"`
}

// Config is the top-level definition file
type Config struct {
	// Engine selects the search tuning: default, high-performance,
	// low-memory or disabled-cache
	Engine string `yaml:"engine,omitempty"`

	// HolidayCalendars lists iCalendar (.ics) or xCal (.xml) files whose
	// events are added to Holidays. Relative paths resolve against the
	// directory of the definition file.
	HolidayCalendars []string `yaml:"holiday_calendars,omitempty"`

	Holidays []HolidayConfig `yaml:"holidays"`
	Events   []EventConfig   `yaml:"events"`
}

// DefaultConfig returns the sample definitions written on first run
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineDefault,
		Holidays: []HolidayConfig{
			{Name: "Independence Day", Month: 7, Day: 4},
			{Name: "Labor Day", Month: 9, Weekday: "monday", Position: "first"},
		},
		Events: []EventConfig{
			{
				Title:     "Street cleaning",
				Frequency: "monthly",
				Interval:  1,
				Days:      []string{"monday"},
				Positions: []string{"first", "third"},
				YearRange: &YearRangeConfig{StartMonth: 4, EndMonth: 10},
			},
			{
				Title:          "Recycling",
				Frequency:      "weekly",
				Interval:       2,
				Days:           []string{"thursday"},
				Start:          "2024-01-04",
				FirstDayOfWeek: "sunday",
				UseHolidays:    true,
			},
		},
	}
}

// Normalize fills in missing values so that hand-written files with omitted
// fields behave like saved ones.
func (c *Config) Normalize() {
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	if c.Engine == "" {
		c.Engine = EngineDefault
	}
	if c.Holidays == nil {
		c.Holidays = []HolidayConfig{}
	}
	if c.Events == nil {
		c.Events = []EventConfig{}
	}

	for i := range c.Events {
		e := &c.Events[i]
		e.Frequency = strings.ToLower(strings.TrimSpace(e.Frequency))
		if e.Interval < 1 {
			e.Interval = 1
		}
		if e.FirstDayOfWeek == "" {
			e.FirstDayOfWeek = "sunday"
		}
		e.FirstDayOfWeek = strings.ToLower(e.FirstDayOfWeek)
		for j, d := range e.Days {
			e.Days[j] = strings.ToLower(strings.TrimSpace(d))
		}
		for j, p := range e.Positions {
			e.Positions[j] = strings.ToLower(strings.TrimSpace(p))
		}
	}

	for i := range c.Holidays {
		h := &c.Holidays[i]
		h.Weekday = strings.ToLower(strings.TrimSpace(h.Weekday))
		h.Position = strings.ToLower(strings.TrimSpace(h.Position))
	}
}

// Load reads a definition file. A missing file is created with the sample
// definitions, which are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically through a temp file in the same
// directory.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".schedwidget-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save
func (c *Config) Save(path string) error {
	return Save(path, c)
}
