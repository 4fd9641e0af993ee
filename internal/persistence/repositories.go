// Package persistence defines the storage contract the planner consumes: a
// read-mostly query service over user, task, and slot records with
// field-range and string-pattern filtering. The scheduling engine itself
// never touches storage; it receives snapshots loaded through these
// interfaces.
package persistence

import (
	"context"

	"github.com/example/shift-planner/internal/roster"
	"github.com/example/shift-planner/internal/scheduler"
	"github.com/example/shift-planner/internal/taskgraph"
)

// UserRepository stores roster records.
type UserRepository interface {
	PutUser(ctx context.Context, user roster.User) error
	GetUser(ctx context.Context, id roster.UserID) (roster.User, error)
	DeleteUser(ctx context.Context, id roster.UserID) error
	ListUsers(ctx context.Context, filter UserFilter) ([]roster.User, error)
}

// TaskRepository stores task records.
type TaskRepository interface {
	PutTask(ctx context.Context, task taskgraph.Task) error
	GetTask(ctx context.Context, id taskgraph.TaskID) (taskgraph.Task, error)
	DeleteTask(ctx context.Context, id taskgraph.TaskID) error
	ListTasks(ctx context.Context, filter TaskFilter) ([]taskgraph.Task, error)
}

// SlotRepository stores slot records.
type SlotRepository interface {
	PutSlot(ctx context.Context, slot scheduler.Slot) error
	GetSlot(ctx context.Context, id scheduler.SlotID) (scheduler.Slot, error)
	DeleteSlot(ctx context.Context, id scheduler.SlotID) error
	ListSlots(ctx context.Context, filter SlotFilter) ([]scheduler.Slot, error)
}
