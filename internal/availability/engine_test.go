package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/shift-planner/internal/roster"
	"github.com/example/shift-planner/internal/timemodel"
)

var anchor = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC) // a Monday

func hours(h int) time.Time {
	return anchor.Add(time.Duration(h) * time.Hour)
}

func ruleUser(rules ...roster.Rule) *roster.User {
	return &roster.User{ID: "u", Rules: rules}
}

func include(pref float64, start, end time.Time) roster.Rule {
	return roster.Rule{
		Include:    []timemodel.Interval{timemodel.Between(start, end)},
		Preference: pref,
	}
}

func TestEngine_IsAvailable(t *testing.T) {
	t.Parallel()
	engine := NewEngine()

	t.Run("fully covered by a positive rule", func(t *testing.T) {
		t.Parallel()
		u := ruleUser(include(0.5, hours(9), hours(17)))
		require.True(t, engine.IsAvailable(u, timemodel.Between(hours(10), hours(12))))
	})

	t.Run("no coverage at all", func(t *testing.T) {
		t.Parallel()
		u := ruleUser(include(0.5, hours(9), hours(17)))
		require.False(t, engine.IsAvailable(u, timemodel.Between(hours(18), hours(20))))
	})

	t.Run("partial coverage is not availability", func(t *testing.T) {
		t.Parallel()
		u := ruleUser(include(0.5, hours(9), hours(11)))
		require.False(t, engine.IsAvailable(u, timemodel.Between(hours(10), hours(12))))
	})

	t.Run("later negative rule overrides earlier positive", func(t *testing.T) {
		t.Parallel()
		u := ruleUser(
			include(0.5, hours(9), hours(17)),
			include(-0.5, hours(12), hours(13)),
		)
		require.False(t, engine.IsAvailable(u, timemodel.Between(hours(11), hours(14))))
		require.True(t, engine.IsAvailable(u, timemodel.Between(hours(9), hours(11))))
	})

	t.Run("later positive rule overrides earlier negative", func(t *testing.T) {
		t.Parallel()
		u := ruleUser(
			include(-1, hours(9), hours(17)),
			include(0.25, hours(9), hours(17)),
		)
		require.True(t, engine.IsAvailable(u, timemodel.Between(hours(10), hours(16))))
	})

	t.Run("zero-duration negative rule blocks its instant", func(t *testing.T) {
		t.Parallel()
		u := ruleUser(
			include(0.5, hours(9), hours(17)),
			include(-1, hours(12), hours(12)),
		)
		require.False(t, engine.IsAvailable(u, timemodel.Between(hours(10), hours(13))),
			"a single blocked instant poisons the whole span")
		require.False(t, engine.IsAvailable(u, timemodel.At(hours(12))))
		require.True(t, engine.IsAvailable(u, timemodel.Between(hours(13), hours(16))))
	})

	t.Run("zero-duration instant", func(t *testing.T) {
		t.Parallel()
		u := ruleUser(include(0, hours(9), hours(17)))
		require.True(t, engine.IsAvailable(u, timemodel.At(hours(17))), "closed interval includes its end")
		require.False(t, engine.IsAvailable(u, timemodel.At(hours(18))))
	})

	t.Run("unbounded query is never available", func(t *testing.T) {
		t.Parallel()
		u := ruleUser(include(1, hours(0), hours(1000)))
		require.False(t, engine.IsAvailable(u, timemodel.Since(hours(1))))
	})

	t.Run("recurring rule covers pattern days", func(t *testing.T) {
		t.Parallel()
		u := ruleUser(roster.Rule{
			Preference: 0.5,
			Pattern: &timemodel.RecurrencePattern{
				Days:     []timemodel.DayPattern{{Weekdays: timemodel.Weekdays(time.Monday)}},
				Time:     &timemodel.TimeOfDay{Offset: 9 * time.Hour, Length: 8 * time.Hour},
				Lifetime: timemodel.Between(anchor, anchor.AddDate(0, 0, 28)),
			},
		})
		require.True(t, engine.IsAvailable(u, timemodel.Between(hours(9), hours(12))), "Monday shift")
		nextMonday := anchor.AddDate(0, 0, 7)
		require.True(t, engine.IsAvailable(u, timemodel.Between(nextMonday.Add(9*time.Hour), nextMonday.Add(17*time.Hour))))
		tuesday := anchor.AddDate(0, 0, 1)
		require.False(t, engine.IsAvailable(u, timemodel.Between(tuesday.Add(9*time.Hour), tuesday.Add(12*time.Hour))))
	})
}

func TestEngine_Score(t *testing.T) {
	t.Parallel()
	engine := NewEngine()

	t.Run("single rule scores its preference", func(t *testing.T) {
		t.Parallel()
		u := ruleUser(include(0.5, hours(9), hours(17)))
		require.InDelta(t, 0.5, engine.Score(u, timemodel.Between(hours(10), hours(12))), 1e-9)
	})

	t.Run("override splits the weighted average", func(t *testing.T) {
		t.Parallel()
		u := ruleUser(
			include(1, hours(9), hours(17)),
			include(0, hours(12), hours(13)),
		)
		// Three of four hours at 1.0, one hour at 0.0.
		require.InDelta(t, 0.75, engine.Score(u, timemodel.Between(hours(10), hours(14))), 1e-9)
	})

	t.Run("uncovered stretches count as zero", func(t *testing.T) {
		t.Parallel()
		u := ruleUser(include(1, hours(9), hours(10)))
		// One of two hours covered at 1.0.
		require.InDelta(t, 0.5, engine.Score(u, timemodel.Between(hours(9), hours(11))), 1e-9)
	})

	t.Run("score is independent of the hard gate", func(t *testing.T) {
		t.Parallel()
		u := ruleUser(include(-0.5, hours(9), hours(17)))
		require.False(t, engine.IsAvailable(u, timemodel.Between(hours(10), hours(12))))
		require.InDelta(t, -0.5, engine.Score(u, timemodel.Between(hours(10), hours(12))), 1e-9)
	})

	t.Run("no coverage scores zero", func(t *testing.T) {
		t.Parallel()
		u := ruleUser()
		require.Zero(t, engine.Score(u, timemodel.Between(hours(9), hours(10))))
	})
}
