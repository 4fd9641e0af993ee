// Package taskgraph models units of work and the partial order induced by
// their prerequisite edges.
package taskgraph

import (
	"time"

	"github.com/example/shift-planner/internal/roster"
)

// TaskID uniquely identifies a task.
type TaskID string

// Task is an immutable unit of work.
//
// Awaiting lists the tasks that must be scheduled strictly before this task
// may be considered schedulable. Skills, when present, require the users
// assigned alongside the task to jointly reach the given proficiency per
// skill (each person contributing at most 1.0).
type Task struct {
	ID       TaskID
	Title    string
	Desc     string
	Deadline *time.Time
	Awaiting []TaskID
	Skills   map[roster.SkillID]float64
}
