package testfixtures

import (
	"time"

	"github.com/example/shift-planner/internal/roster"
	"github.com/example/shift-planner/internal/scheduler"
	"github.com/example/shift-planner/internal/taskgraph"
	"github.com/example/shift-planner/internal/timemodel"
)

// AvailableUser returns a user available over the given interval with the
// given preference weight.
func AvailableUser(id string, start, end time.Time, pref float64) roster.User {
	return roster.User{
		ID:   roster.UserID(id),
		Name: id,
		Rules: []roster.Rule{
			{Name: "base", Include: []timemodel.Interval{timemodel.Between(start, end)}, Preference: pref},
		},
	}
}

// AlwaysAvailableUser returns a user available for a week starting at
// ReferenceTime with neutral preference.
func AlwaysAvailableUser(id string) roster.User {
	ref := ReferenceTime()
	return AvailableUser(id, ref.Add(-24*time.Hour), ref.Add(14*24*time.Hour), 0)
}

// HourSlot returns a one-hour slot starting the given number of hours after
// ReferenceTime.
func HourSlot(id string, hoursAfter int, minStaff int) scheduler.Slot {
	return scheduler.Slot{
		ID:       scheduler.SlotID(id),
		Name:     id,
		Start:    ReferenceTime().Add(time.Duration(hoursAfter) * time.Hour),
		Duration: time.Hour,
		MinStaff: minStaff,
	}
}

// SimpleTask returns a task with optional prerequisites and no deadline.
func SimpleTask(id string, awaiting ...string) taskgraph.Task {
	deps := make([]taskgraph.TaskID, len(awaiting))
	for i, a := range awaiting {
		deps[i] = taskgraph.TaskID(a)
	}
	return taskgraph.Task{ID: taskgraph.TaskID(id), Title: id, Awaiting: deps}
}

// DeadlineTask returns a task due the given number of hours after
// ReferenceTime.
func DeadlineTask(id string, hoursAfter int, awaiting ...string) taskgraph.Task {
	task := SimpleTask(id, awaiting...)
	deadline := ReferenceTime().Add(time.Duration(hoursAfter) * time.Hour)
	task.Deadline = &deadline
	return task
}
