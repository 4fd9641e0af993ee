package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/shift-planner/internal/roster"
	"github.com/example/shift-planner/internal/scheduler"
	"github.com/example/shift-planner/internal/testfixtures"
	"github.com/example/shift-planner/internal/timemodel"
)

// swapCalendar is a two-slot setup where the greedy pass lands in a local
// optimum that a single swap escapes. The slots overlap, so each user can
// hold only one of them.
//
//	greedy:  early=u1 (0.75), late=u2 (0.70)  total 1.45
//	swapped: early=u2 (0.70), late=u1 (1.00)  total 1.70
func swapCalendar() (scheduler.Calendar, []roster.User) {
	ref := testfixtures.ReferenceTime()

	cal := scheduler.Calendar{Slots: []scheduler.Slot{
		{ID: "early", Name: "early", Start: ref, Duration: time.Hour, MinStaff: 1},
		{ID: "late", Name: "late", Start: ref.Add(30 * time.Minute), Duration: time.Hour, MinStaff: 1},
	}}

	u1 := roster.User{
		ID:   "u1",
		Name: "u1",
		Rules: []roster.Rule{
			{Name: "base", Include: []timemodel.Interval{timemodel.Between(ref.Add(-time.Hour), ref.Add(3 * time.Hour))}, Preference: 0.4},
			{Name: "boost", Include: []timemodel.Interval{timemodel.Between(ref.Add(25 * time.Minute), ref.Add(95 * time.Minute))}, Preference: 1.0},
		},
	}
	u2 := roster.User{
		ID:   "u2",
		Name: "u2",
		Rules: []roster.Rule{
			{Name: "base", Include: []timemodel.Interval{timemodel.Between(ref.Add(-time.Hour), ref.Add(3 * time.Hour))}, Preference: 0.7},
		},
	}
	return cal, []roster.User{u1, u2}
}

func TestRefinement(t *testing.T) {
	t.Parallel()

	t.Run("zero budget skips refinement", func(t *testing.T) {
		t.Parallel()
		cal, users := swapCalendar()

		result, err := newAllocator().Run(context.Background(), cal, users, scheduler.Budget{})
		require.NoError(t, err)
		require.Zero(t, result.RefinementSteps)
		require.InDelta(t, 1.45, result.Score, 1e-9)
		require.Equal(t, []roster.UserID{"u1"}, entryFor(t, result, "early").UserIDs)
	})

	t.Run("a single swap escapes the greedy local optimum", func(t *testing.T) {
		t.Parallel()
		cal, users := swapCalendar()

		result, err := newAllocator().Run(context.Background(), cal, users, scheduler.Budget{MaxIterations: 10})
		require.NoError(t, err)
		require.Equal(t, 1, result.RefinementSteps)
		require.InDelta(t, 1.7, result.Score, 1e-9)
		require.Equal(t, []roster.UserID{"u2"}, entryFor(t, result, "early").UserIDs)
		require.Equal(t, []roster.UserID{"u1"}, entryFor(t, result, "late").UserIDs)
		require.Empty(t, result.Violations)
	})

	t.Run("a time limit alone enables refinement", func(t *testing.T) {
		t.Parallel()
		cal, users := swapCalendar()

		result, err := newAllocator().Run(context.Background(), cal, users, scheduler.Budget{TimeLimit: 5 * time.Second})
		require.NoError(t, err)
		require.Equal(t, 1, result.RefinementSteps)
		require.InDelta(t, 1.7, result.Score, 1e-9)
	})

	t.Run("parallel evaluation matches serial", func(t *testing.T) {
		t.Parallel()
		cal, users := swapCalendar()

		serial, err := newAllocator().Run(context.Background(), cal, users, scheduler.Budget{MaxIterations: 10})
		require.NoError(t, err)
		parallel, err := newAllocator().Run(context.Background(), cal, users, scheduler.Budget{MaxIterations: 10, Parallelism: 4})
		require.NoError(t, err)

		require.Equal(t, serial.Entries, parallel.Entries)
		require.Equal(t, serial.Score, parallel.Score)
		require.Equal(t, serial.RefinementSteps, parallel.RefinementSteps)
	})

	t.Run("cancellation keeps the constructed schedule", func(t *testing.T) {
		t.Parallel()
		cal, users := swapCalendar()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := newAllocator().Run(ctx, cal, users, scheduler.Budget{MaxIterations: 100})
		require.NoError(t, err)
		require.Zero(t, result.RefinementSteps)
		require.Len(t, result.Entries, 2)
		require.Equal(t, []roster.UserID{"u1"}, entryFor(t, result, "early").UserIDs)
	})

	t.Run("a swap that reunites a mandatory pair clears the diagnostic", func(t *testing.T) {
		t.Parallel()
		ref := testfixtures.ReferenceTime()

		// Two overlapping slots. u1 is the only strong candidate for the
		// early slot, so construction strands them there while their
		// mandatory partner u2 (ineligible for the early slot) lands in the
		// late one. The improving swap moves u1 next to u2.
		cal := scheduler.Calendar{Slots: []scheduler.Slot{
			{ID: "early", Name: "early", Start: ref, Duration: time.Hour, MinStaff: 1},
			{ID: "late", Name: "late", Start: ref.Add(30 * time.Minute), Duration: time.Hour, MinStaff: 2},
		}}

		u1 := roster.User{
			ID: "u1",
			Rules: []roster.Rule{
				{Name: "base", Include: []timemodel.Interval{timemodel.Between(ref.Add(-time.Hour), ref.Add(3 * time.Hour))}, Preference: 0.4},
				{Name: "boost", Include: []timemodel.Interval{timemodel.Between(ref.Add(25 * time.Minute), ref.Add(95 * time.Minute))}, Preference: 1.0},
			},
			Affinities: map[roster.UserID]roster.Affinity{"u2": roster.AlwaysTogether()},
		}
		u2 := roster.User{
			ID: "u2",
			Rules: []roster.Rule{
				{Name: "base", Include: []timemodel.Interval{timemodel.Between(ref.Add(15 * time.Minute), ref.Add(3 * time.Hour))}},
			},
		}
		u3 := roster.User{
			ID: "u3",
			Rules: []roster.Rule{
				{Name: "base", Include: []timemodel.Interval{timemodel.Between(ref.Add(-time.Hour), ref.Add(3 * time.Hour))}},
			},
		}
		users := []roster.User{u1, u2, u3}

		unrefined, err := newAllocator().Run(context.Background(), cal, users, scheduler.Budget{})
		require.NoError(t, err)
		require.Equal(t, []roster.UserID{"u1"}, entryFor(t, unrefined, "early").UserIDs)
		require.Contains(t, violationKinds(unrefined), scheduler.ViolationHardAffinity,
			"construction strands u1 away from u2")

		refined, err := newAllocator().Run(context.Background(), cal, users, scheduler.Budget{MaxIterations: 10})
		require.NoError(t, err)
		require.Equal(t, 1, refined.RefinementSteps)
		require.Equal(t, []roster.UserID{"u3"}, entryFor(t, refined, "early").UserIDs)
		require.Equal(t, []roster.UserID{"u1", "u2"}, entryFor(t, refined, "late").UserIDs)
		require.NotContains(t, violationKinds(refined), scheduler.ViolationHardAffinity,
			"diagnostics describe the refined schedule")
	})

	t.Run("stops when no swap improves", func(t *testing.T) {
		t.Parallel()
		cal := scheduler.Calendar{Slots: []scheduler.Slot{testfixtures.HourSlot("only", 0, 1)}}
		users := []roster.User{prefUser("u1", 0.5)}

		result, err := newAllocator().Run(context.Background(), cal, users, scheduler.Budget{MaxIterations: 50})
		require.NoError(t, err)
		require.Zero(t, result.RefinementSteps)
	})
}
