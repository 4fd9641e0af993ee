package timemodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func collectExpansion(p RecurrencePattern, window Interval) []Interval {
	var out []Interval
	for iv := range p.Expand(window) {
		out = append(out, iv)
	}
	return out
}

func TestRecurrencePattern_Expand(t *testing.T) {
	t.Parallel()

	// 2025-03-03 is a Monday.
	monday := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	lifetime := Between(monday, monday.AddDate(0, 0, 14))

	t.Run("respects weekday selections", func(t *testing.T) {
		t.Parallel()

		pattern := RecurrencePattern{
			Days:     []DayPattern{{Weekdays: Weekdays(time.Monday, time.Wednesday)}},
			Time:     &TimeOfDay{Offset: 9 * time.Hour, Length: 8 * time.Hour},
			Lifetime: lifetime,
		}

		got := collectExpansion(pattern, lifetime)
		// The final Monday's window starts after the lifetime ends at
		// midnight, so it is clipped away.
		require.Len(t, got, 4)
		for _, iv := range got {
			wd := iv.Start.Weekday()
			require.Contains(t, []time.Weekday{time.Monday, time.Wednesday}, wd)
			require.Equal(t, 9, iv.Start.Hour())
			d, ok := iv.Duration()
			require.True(t, ok)
			require.Equal(t, 8*time.Hour, d)
		}
	})

	t.Run("clips to the query window", func(t *testing.T) {
		t.Parallel()

		pattern := RecurrencePattern{
			Days:     []DayPattern{{Weekdays: EveryWeekday}},
			Time:     &TimeOfDay{Offset: 9 * time.Hour, Length: time.Hour},
			Lifetime: lifetime,
		}
		window := Between(monday.AddDate(0, 0, 3), monday.AddDate(0, 0, 5))

		got := collectExpansion(pattern, window)
		require.Len(t, got, 2)
		for _, iv := range got {
			require.True(t, window.Contains(iv), "occurrence %s escapes window", iv)
		}
	})

	t.Run("filters by month", func(t *testing.T) {
		t.Parallel()

		span := Between(
			time.Date(2025, time.March, 28, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC),
		)
		pattern := RecurrencePattern{
			Days:     []DayPattern{{Months: Months(time.April)}},
			Time:     &TimeOfDay{Offset: 12 * time.Hour, Length: time.Hour},
			Lifetime: span,
		}

		got := collectExpansion(pattern, span)
		require.Len(t, got, 2, "April 1st and 2nd only")
		for _, iv := range got {
			require.Equal(t, time.April, iv.Start.Month())
		}
	})

	t.Run("is restartable", func(t *testing.T) {
		t.Parallel()

		pattern := RecurrencePattern{
			Days:     []DayPattern{{Weekdays: Weekdays(time.Friday)}},
			Lifetime: lifetime,
		}

		first := collectExpansion(pattern, lifetime)
		second := collectExpansion(pattern, lifetime)
		require.Equal(t, first, second)
		require.NotEmpty(t, first)
	})

	t.Run("early break stops the sequence", func(t *testing.T) {
		t.Parallel()

		pattern := RecurrencePattern{
			Days:     []DayPattern{{Weekdays: EveryWeekday}},
			Lifetime: lifetime,
		}

		count := 0
		for range pattern.Expand(lifetime) {
			count++
			if count == 3 {
				break
			}
		}
		require.Equal(t, 3, count)
	})

	t.Run("empty intersection yields nothing", func(t *testing.T) {
		t.Parallel()

		pattern := RecurrencePattern{Lifetime: lifetime}
		window := Between(monday.AddDate(0, 1, 0), monday.AddDate(0, 1, 7))
		require.Empty(t, collectExpansion(pattern, window))
	})
}

func TestRecurrencePattern_Validate(t *testing.T) {
	t.Parallel()

	monday := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

	require.NoError(t, RecurrencePattern{Lifetime: Between(monday, monday.AddDate(0, 0, 7))}.Validate())

	err := RecurrencePattern{Lifetime: Since(monday)}.Validate()
	require.ErrorIs(t, err, ErrUnboundedLifetime)

	err = RecurrencePattern{Lifetime: Between(monday.AddDate(0, 0, 7), monday)}.Validate()
	require.ErrorIs(t, err, ErrReversedInterval)

	err = RecurrencePattern{
		Lifetime: Between(monday, monday.AddDate(0, 0, 7)),
		Time:     &TimeOfDay{Offset: 20 * time.Hour, Length: 8 * time.Hour},
	}.Validate()
	require.ErrorIs(t, err, ErrInvalidTimeOfDay)
}

func TestBitsets(t *testing.T) {
	t.Parallel()

	wd := Weekdays(time.Monday, time.Friday)
	require.True(t, wd.Has(time.Monday))
	require.True(t, wd.Has(time.Friday))
	require.False(t, wd.Has(time.Sunday))
	require.False(t, wd.IsEmpty())
	require.True(t, WeekdaySet(0).IsEmpty())
	require.Equal(t, "Mon,Fri", wd.String())

	ms := Months(time.January, time.December)
	require.True(t, ms.Has(time.January))
	require.True(t, ms.Has(time.December))
	require.False(t, ms.Has(time.June))
	require.True(t, MonthSet(0).IsEmpty())
	require.Equal(t, "Jan,Dec", ms.String())
}
