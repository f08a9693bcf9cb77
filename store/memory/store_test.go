package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyp0633/libschedule/schedule"
	"github.com/cyp0633/libschedule/temporal"
)

func date(y int, m time.Month, d int) time.Time { return temporal.Date(y, m, d) }

func weekdays(id, title string) Definition {
	return Definition{
		Event: schedule.Event{
			ID:        id,
			Title:     title,
			Frequency: schedule.EveryWeekday(),
			Start:     mo.Some(date(2024, 1, 1)),
			End:       mo.Some(date(2024, 12, 31)),
		},
	}
}

func TestStore_AddGet(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	id, err := s.Add(ctx, weekdays("standup", "Daily standup"))
	require.NoError(t, err)
	assert.Equal(t, "standup", id)

	sched, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, sched.IsOccurring(date(2024, 7, 4)))

	def, err := s.Definition(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Daily standup", def.Event.Title)

	_, err = s.Add(ctx, weekdays("standup", "Duplicate"))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Definition(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_AddAssignsID(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	id, err := s.Add(ctx, weekdays("", "Anonymous"))
	require.NoError(t, err)
	assert.Len(t, id, 36)

	sched, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, sched.Event().ID)
}

func TestStore_AddInvalid(t *testing.T) {
	s := New()
	defer s.Close()

	_, err := s.Add(context.Background(), Definition{Event: schedule.Event{ID: "bad", Frequency: schedule.Yearly{}}})
	assert.ErrorIs(t, err, schedule.ErrMissingAnniversary)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Exclusions(t *testing.T) {
	ctx := context.Background()
	holidays := temporal.Union{temporal.FixedHoliday{Month: time.July, Day: 4}}
	s := New(WithHolidays(holidays))
	defer s.Close()

	plain := weekdays("plain", "Plain")
	withHolidays := weekdays("holidays", "With holidays")
	withHolidays.UseHolidays = true
	withHolidays.Excluded = []time.Time{date(2024, 7, 5)}

	for _, def := range []Definition{plain, withHolidays} {
		_, err := s.Add(ctx, def)
		require.NoError(t, err)
	}

	p, err := s.Get(ctx, "plain")
	require.NoError(t, err)
	h, err := s.Get(ctx, "holidays")
	require.NoError(t, err)

	assert.True(t, p.IsOccurring(date(2024, 7, 4)))
	assert.False(t, h.IsOccurring(date(2024, 7, 4)))
	assert.False(t, h.IsOccurring(date(2024, 7, 5)))

	next, err := h.NextOccurrence(date(2024, 7, 3))
	require.NoError(t, err)
	assert.Equal(t, mo.Some(date(2024, 7, 8)), next)
}

func TestStore_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	_, err := s.Add(ctx, weekdays("a", "First"))
	require.NoError(t, err)
	_, err = s.Add(ctx, weekdays("b", "Second"))
	require.NoError(t, err)
	_, err = s.Add(ctx, weekdays("c", "Third"))
	require.NoError(t, err)

	updated := weekdays("b", "Second, weekends")
	updated.Event.Frequency = schedule.Weekly{Days: schedule.Weekend}
	require.NoError(t, s.Update(ctx, updated))

	sched, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, sched.IsOccurring(date(2024, 7, 6)))
	assert.False(t, sched.IsOccurring(date(2024, 7, 4)))

	assert.ErrorIs(t, s.Update(ctx, weekdays("zzz", "Missing")), ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, Definition{Event: schedule.Event{ID: "b", Frequency: schedule.Daily{Interval: 2}}}), schedule.ErrIntervalRequiresStart)

	require.NoError(t, s.Delete(ctx, "a"))
	assert.ErrorIs(t, s.Delete(ctx, "a"), ErrNotFound)
	assert.Equal(t, []string{"b", "c"}, s.List(ctx))
	assert.Equal(t, 2, s.Len())
}

func TestStore_Find(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	for _, def := range []Definition{
		weekdays("trash", "Trash pickup"),
		weekdays("recycling", "Recycling pickup"),
		weekdays("standup", "Standup"),
	} {
		_, err := s.Add(ctx, def)
		require.NoError(t, err)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"trash", "recycling", "standup"}},
		{"pickup", []string{"trash", "recycling"}},
		{"STANDUP", []string{"standup"}},
		{"trash", []string{"trash"}},
		{"meeting", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Find(ctx, tt.query))
		})
	}
}

func TestStore_SharedCache(t *testing.T) {
	ctx := context.Background()
	s := New(WithEngineConfig(schedule.HighPerformanceConfig))
	defer s.Close()

	for i := 0; i < 3; i++ {
		_, err := s.Add(ctx, weekdays(fmt.Sprintf("s%d", i), "Cached"))
		require.NoError(t, err)
	}

	for _, id := range s.List(ctx) {
		sched, err := s.Get(ctx, id)
		require.NoError(t, err)
		_, err = sched.NextOccurrence(date(2024, 3, 1))
		require.NoError(t, err)
	}

	stats, ok := s.CacheStats()
	require.True(t, ok)
	assert.Equal(t, 3, stats.TotalEntries)

	_, ok = New().CacheStats()
	assert.False(t, ok)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				id, err := s.Add(ctx, weekdays(fmt.Sprintf("%d-%d", g, i), "Concurrent"))
				if !assert.NoError(t, err) {
					return
				}
				_, err = s.Get(ctx, id)
				assert.NoError(t, err)
				s.Find(ctx, "concurrent")
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 200, s.Len())
	assert.Len(t, s.List(ctx), 200)
}
