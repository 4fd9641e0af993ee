package scheduler

import (
	"time"

	"github.com/example/shift-planner/internal/roster"
	"github.com/example/shift-planner/internal/taskgraph"
)

// ViolationKind classifies an unmet constraint recorded during a run.
type ViolationKind string

const (
	// ViolationUnderstaffed marks a slot filled below its staffing minimum.
	ViolationUnderstaffed ViolationKind = "understaffed"
	// ViolationOverdueTask marks a task placed in a slot starting after its
	// deadline.
	ViolationOverdueTask ViolationKind = "overdue_task"
	// ViolationDependencyUnmet marks a task whose prerequisites never landed
	// in an earlier-or-equal slot.
	ViolationDependencyUnmet ViolationKind = "dependency_unmet"
	// ViolationHardAffinity marks a broken always/never-together constraint.
	ViolationHardAffinity ViolationKind = "hard_affinity"
	// ViolationDoubleBooking marks a user assigned to two overlapping slots.
	// The allocator never produces one; the kind exists for callers replaying
	// externally fixed assignments.
	ViolationDoubleBooking ViolationKind = "double_booking"
	// ViolationSkillShortfall marks a task placed without its skill
	// requirements jointly covered by the slot's assigned users.
	ViolationSkillShortfall ViolationKind = "skill_shortfall"
	// ViolationTaskUnplaced marks a task no slot could accommodate.
	ViolationTaskUnplaced ViolationKind = "task_unplaced"
)

// Violation is one itemized diagnostic attached to a result. Infeasibility
// never aborts a run; it degrades into violations.
type Violation struct {
	Kind    ViolationKind    `json:"kind"`
	SlotID  SlotID           `json:"slot_id,omitempty"`
	TaskID  taskgraph.TaskID `json:"task_id,omitempty"`
	UserIDs []roster.UserID  `json:"user_ids,omitempty"`
	Detail  string           `json:"detail,omitempty"`
}

// Entry is one slot with its assigned tasks and users.
type Entry struct {
	Slot    Slot               `json:"slot"`
	TaskIDs []taskgraph.TaskID `json:"task_ids"`
	UserIDs []roster.UserID    `json:"user_ids"`
}

// Result is the immutable outcome of one scheduling run: pure data with no
// references back into the engine, safe to serialize.
type Result struct {
	Entries    []Entry     `json:"entries"`
	Violations []Violation `json:"violations,omitempty"`
	// Score is the aggregate soft preference of the final assignment.
	Score float64 `json:"score"`
	// RefinementSteps counts the improving swaps committed by local search.
	RefinementSteps int `json:"refinement_steps"`
	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`
}
