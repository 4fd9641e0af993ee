// Package scheduler assigns users and tasks to calendar slots under hard
// constraints (availability, staffing, double-booking, sentinel affinities,
// prerequisite order) while maximizing aggregate soft preference.
package scheduler

import (
	"time"

	"github.com/example/shift-planner/internal/taskgraph"
	"github.com/example/shift-planner/internal/timemodel"
)

// SlotID uniquely identifies a slot.
type SlotID string

// Slot is a fixed, non-recurring allocation unit. Recurrence, if desired, is
// expressed by the caller instantiating multiple slots.
type Slot struct {
	ID       SlotID
	Name     string
	Start    time.Time
	Duration time.Duration
	// MinStaff is the staffing minimum; zero means the default of one.
	MinStaff int
}

// End returns the slot's implicit end instant.
func (s Slot) End() time.Time {
	return s.Start.Add(s.Duration)
}

// Interval returns the slot's closed time interval.
func (s Slot) Interval() timemodel.Interval {
	return timemodel.Between(s.Start, s.End())
}

// RequiredStaff returns the effective staffing minimum.
func (s Slot) RequiredStaff() int {
	if s.MinStaff <= 0 {
		return 1
	}
	return s.MinStaff
}

// Overlaps reports whether two slots share any instant, bounds included.
func (s Slot) Overlaps(other Slot) bool {
	return !s.End().Before(other.Start) && !other.End().Before(s.Start)
}

// Calendar is the immutable input snapshot for one scheduling run.
type Calendar struct {
	Slots []Slot
	Tasks []taskgraph.Task
}
