// Package memory keeps compiled schedules in memory, keyed by event ID.
package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cyp0633/libschedule/schedule"
	"github.com/cyp0633/libschedule/temporal"
)

var (
	// ErrNotFound is returned when no schedule has the requested ID
	ErrNotFound = errors.New("schedule not found")
	// ErrAlreadyExists is returned when adding an ID that is already stored
	ErrAlreadyExists = errors.New("schedule already exists")
)

// Definition is a stored event together with its exclusions
type Definition struct {
	Event    schedule.Event
	Excluded []time.Time
	// UseHolidays applies the store-wide holiday expression
	UseHolidays bool
}

type entry struct {
	def      Definition
	schedule *schedule.Schedule
}

// Store implements an in-memory schedule store
type Store struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	order    []string
	holidays temporal.Expression
	config   schedule.EngineConfig
	cache    *schedule.OccurrenceCache
	logger   *slog.Logger
}

// New creates a new in-memory schedule store
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		config:  schedule.DefaultEngineConfig,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	// one cache shared by every schedule in the store
	if s.config.CacheEnabled {
		s.cache = schedule.NewOccurrenceCache(s.config.CacheConfig)
	}

	return s
}

// Option represents a configuration option for the Store
type Option func(*Store)

// WithLogger sets the logger for the store and its schedules
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEngineConfig sets the engine configuration of every schedule
func WithEngineConfig(config schedule.EngineConfig) Option {
	return func(s *Store) {
		s.config = config
	}
}

// WithHolidays sets the expression excluded from definitions with UseHolidays
func WithHolidays(holidays temporal.Expression) Option {
	return func(s *Store) {
		s.holidays = holidays
	}
}

func (s *Store) compile(def Definition) (*schedule.Schedule, error) {
	opts := []schedule.Option{
		schedule.WithConfig(s.config),
		schedule.WithExcludedDates(def.Excluded),
		schedule.WithLogger(s.logger),
	}
	if def.UseHolidays && s.holidays != nil {
		opts = append(opts, schedule.WithExclusions(s.holidays))
	}
	if s.cache != nil {
		opts = append(opts, schedule.WithCache(s.cache))
	}
	return schedule.New(def.Event, opts...)
}

// Add compiles and stores a definition, assigning a random ID when the event
// has none. It returns the ID.
func (s *Store) Add(_ context.Context, def Definition) (string, error) {
	if def.Event.ID == "" {
		def.Event.ID = uuid.NewString()
	}
	id := def.Event.ID

	compiled, err := s.compile(def)
	if err != nil {
		s.logger.Warn("failed to add schedule: invalid definition",
			"id", id,
			"title", def.Event.Title,
			"error", err)
		return "", fmt.Errorf("add %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; exists {
		compiled.Close()
		s.logger.Warn("failed to add schedule: already exists",
			"id", id)
		return "", fmt.Errorf("%w: %s", ErrAlreadyExists, id)
	}

	s.entries[id] = &entry{def: def, schedule: compiled}
	s.order = append(s.order, id)

	s.logger.Info("schedule added",
		"id", id,
		"title", def.Event.Title,
		"kind", def.Event.Kind())

	return id, nil
}

// Get returns the compiled schedule for id
func (s *Store) Get(_ context.Context, id string) (*schedule.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.schedule, nil
}

// Definition returns the stored definition for id
func (s *Store) Definition(_ context.Context, id string) (Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.def, nil
}

// Update replaces the definition stored under def.Event.ID
func (s *Store) Update(_ context.Context, def Definition) error {
	id := def.Event.ID

	compiled, err := s.compile(def)
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		compiled.Close()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.schedule.Close()
	e.def = def
	e.schedule = compiled

	s.logger.Info("schedule updated",
		"id", id)

	return nil
}

// Delete removes the schedule stored under id
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.schedule.Close()
	delete(s.entries, id)
	s.order = slices.DeleteFunc(s.order, func(other string) bool { return other == id })

	s.logger.Info("schedule deleted",
		"id", id)

	return nil
}

// List returns the stored IDs in insertion order
func (s *Store) List(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.order)
}

// Find returns the IDs whose ID equals query or whose title contains it,
// ignoring case, in insertion order. An empty query matches everything.
func (s *Store) Find(ctx context.Context, query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.List(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, id := range s.order {
		title := strings.ToLower(s.entries[id].def.Event.Title)
		if strings.ToLower(id) == query || strings.Contains(title, query) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len reports the number of stored schedules
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// CacheStats reports the shared cache statistics; ok is false when caching
// is disabled
func (s *Store) CacheStats() (stats schedule.CacheStats, ok bool) {
	if s.cache == nil {
		return schedule.CacheStats{}, false
	}
	return s.cache.Stats(), true
}

// Close releases every schedule and the shared cache
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		e.schedule.Close()
	}
	if s.cache != nil {
		s.cache.Close()
	}
}
