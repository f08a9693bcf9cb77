package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyp0633/libschedule/schedule"
	"github.com/cyp0633/libschedule/temporal"
)

const testConfig = `
holidays:
  - {name: Independence Day, month: 7, day: 4}
events:
  - id: trash
    title: Trash
    frequency: weekly
    days: [tuesday, thursday]
    start: 2024-01-01
    end: 2024-12-31
  - id: recycling
    title: Recycling
    frequency: weekly
    days: [tuesday, thursday]
    start: 2024-01-01
    end: 2024-12-31
    use_holidays: true
  - id: payday
    title: Payday
    frequency: monthly
    day_of_month: 31
`

var fixedNow = time.Date(2024, 7, 1, 15, 30, 0, 0, time.UTC)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"-config", path}, args...), &stdout, &stderr, fixedNow)
	return code, stdout.String(), stderr.String()
}

func TestRun_List(t *testing.T) {
	code, out, _ := runCLI(t, "-event", "tr", "-from", "2024-07-01", "-to", "2024-07-07")
	require.Equal(t, 0, code)
	assert.Equal(t, "Trash (weekly)\n  2024-07-02 Tue\n  2024-07-04 Thu\n", out)

	code, out, _ = runCLI(t, "-event", "recycling", "-from", "2024-07-01", "-to", "2024-07-07")
	require.Equal(t, 0, code)
	assert.Equal(t, "Recycling (weekly)\n  2024-07-02 Tue\n", out)
}

func TestRun_DefaultRange(t *testing.T) {
	code, out, _ := runCLI(t, "-event", "payday")
	require.Equal(t, 0, code)
	assert.Equal(t, "Payday (monthly)\n  2024-07-31 Wed\n", out)

	code, out, _ = runCLI(t, "-event", "payday", "-from", "2024-02-01", "-to", "2024-02-29")
	require.Equal(t, 0, code)
	assert.Equal(t, "Payday (monthly)\n  2024-02-29 Thu\n", out)
}

func TestRun_Searches(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "next",
			args: []string{"-event", "recycling", "-next", "2024-07-02"},
			want: "Recycling (weekly)\n  next after 2024-07-02: 2024-07-09\n",
		},
		{
			name: "previous",
			args: []string{"-event", "trash", "-prev", "2024-07-04"},
			want: "Trash (weekly)\n  previous before 2024-07-04: 2024-07-02\n",
		},
		{
			name: "last",
			args: []string{"-event", "trash", "-last"},
			want: "Trash (weekly)\n  last: 2024-12-31\n",
		},
		{
			name: "count",
			args: []string{"-event", "trash", "-count", "-from", "2024-01-01", "-to", "2024-12-31"},
			want: "Trash (weekly)\n  105 occurrences in 2024-01-01..2024-12-31\n",
		},
		{
			name: "next without end",
			args: []string{"-event", "payday", "-next", "2024-07-01"},
			want: "Payday (monthly)\n  next after 2024-07-01: " + schedule.ErrMissingEnd.Error() + "\n",
		},
		{
			name: "last without limits",
			args: []string{"-event", "payday", "-last"},
			want: "Payday (monthly)\n  last: " + schedule.ErrMissingLimit.Error() + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, _ := runCLI(t, tt.args...)
			require.Equal(t, 0, code)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRun_ExportICS(t *testing.T) {
	code, out, _ := runCLI(t, "-event", "trash", "-format", "ics", "-from", "2024-07-01", "-to", "2024-07-14")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Equal(t, 4, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "SUMMARY:Trash")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240702")
}

func TestRun_ExportRules(t *testing.T) {
	code, out, stderr := runCLI(t, "-format", "xcal", "-rules", "-from", "2024-07-01", "-to", "2024-07-31", "-log-level", "warn")
	require.Equal(t, 0, code)
	assert.Contains(t, out, `<icalendar xmlns="urn:ietf:params:xml:ns:icalendar-2.0">`)
	assert.Equal(t, 2, strings.Count(out, "<freq>WEEKLY</freq>"))

	// day 31 has no RRULE form, so payday is expanded instead
	assert.Contains(t, out, "<date>2024-07-31</date>")
	assert.Contains(t, stderr, "exporting expanded occurrences")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"unknown flag", []string{"-bogus"}, 2},
		{"unknown format", []string{"-format", "pdf"}, 2},
		{"no match", []string{"-event", "laundry"}, 1},
		{"bad from", []string{"-from", "July"}, 1},
		{"inverted range", []string{"-from", "2024-07-10", "-to", "2024-07-01"}, 1},
		{"bad next", []string{"-next", "soon"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, tt.code, code)
			assert.NotEmpty(t, stderr)
		})
	}

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run(context.Background(), []string{"-h"}, &stdout, &stderr, fixedNow))
}

func TestRun_InvalidDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events:\n  - {title: Broken, frequency: yearly}\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", path}, &stdout, &stderr, fixedNow)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), schedule.ErrMissingAnniversary.Error())
}

func TestDateRange(t *testing.T) {
	r, err := dateRange("", "", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, schedule.NewDateRange(temporal.Date(2024, 7, 1), temporal.Date(2024, 8, 1)), r)

	r, err = dateRange("2024-01-15", "", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, temporal.Date(2024, 2, 15), r.End)

	_, err = dateRange("", "2024-13-01", fixedNow)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		level string
		min   slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(tt.level, &bytes.Buffer{})
			assert.True(t, logger.Enabled(ctx, tt.min))
			assert.False(t, logger.Enabled(ctx, tt.min-1))
		})
	}
}
