package model

import (
	"testing"
	"time"

	"fieldexpense/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriodMonthly(t *testing.T) {
	p, err := ParsePeriod("2026-01")
	require.NoError(t, err)

	assert.Equal(t, PeriodMonthly, p.Kind)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), p.End)
}

func TestParsePeriodWeekly(t *testing.T) {
	// ISO week 1 of 2026 starts Monday 2025-12-29 (Jan 4 2026 is a Sunday).
	p, err := ParsePeriod("2026-W01")
	require.NoError(t, err)

	assert.Equal(t, PeriodWeekly, p.Kind)
	assert.Equal(t, time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), p.End)
	assert.Equal(t, time.Monday, p.Start.Weekday())
}

func TestParsePeriodBiweekly(t *testing.T) {
	p, err := ParsePeriod("2026-B02")
	require.NoError(t, err)

	w3, err := ParsePeriod("2026-W03")
	require.NoError(t, err)

	// Block 2 covers ISO weeks 3 and 4.
	assert.Equal(t, PeriodBiweekly, p.Kind)
	assert.Equal(t, w3.Start, p.Start)
	assert.Equal(t, w3.Start.AddDate(0, 0, 14), p.End)
}

func TestParsePeriodMalformed(t *testing.T) {
	cases := []string{
		"",
		"2026",
		"2026-13",
		"2026-00",
		"2026-W00",
		"2026-W54",
		"2026-B00",
		"2026-B28",
		"2026-1",
		"26-01",
		"2026/01",
		"January 2026",
	}
	for _, raw := range cases {
		t.Run(raw, func(t *testing.T) {
			_, err := ParsePeriod(raw)
			require.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		})
	}
}

func TestPeriodContainsHalfOpen(t *testing.T) {
	p, err := ParsePeriod("2026-01")
	require.NoError(t, err)

	assert.True(t, p.Contains(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)), "end is exclusive")
	assert.False(t, p.Contains(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
}

func TestPeriodsCovering(t *testing.T) {
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) // Monday of ISO week 2
	assert.Equal(t, []string{"2026-01", "2026-W02", "2026-B01"}, PeriodsCovering(date))

	// Around New Year the ISO week-year diverges from the calendar year.
	date = time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"2025-12", "2026-W01", "2026-B01"}, PeriodsCovering(date))

	// Every derived identifier parses and its window contains the date.
	for _, raw := range PeriodsCovering(date) {
		p, err := ParsePeriod(raw)
		require.NoError(t, err)
		assert.True(t, p.Contains(date), raw)
	}
}

func TestPeriodFor(t *testing.T) {
	assert.Equal(t, "2026-01", PeriodFor(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-12", PeriodFor(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))
}
