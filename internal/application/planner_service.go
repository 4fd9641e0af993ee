// Package application orchestrates the planner: it loads a snapshot through
// the persistence repositories, validates it, runs the scheduling engine, and
// returns the pure-data result.
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/example/shift-planner/internal/logging"
	"github.com/example/shift-planner/internal/persistence"
	"github.com/example/shift-planner/internal/roster"
	"github.com/example/shift-planner/internal/scheduler"
	"github.com/example/shift-planner/internal/taskgraph"
)

// PlannerService wires the repositories to the scheduling engine.
type PlannerService struct {
	users       persistence.UserRepository
	tasks       persistence.TaskRepository
	slots       persistence.SlotRepository
	allocator   *scheduler.Allocator
	idGenerator func() string
	now         func() time.Time
}

// NewPlannerService builds a service. A nil allocator gets a default engine;
// nil id generator and clock get production defaults.
func NewPlannerService(users persistence.UserRepository, tasks persistence.TaskRepository, slots persistence.SlotRepository, allocator *scheduler.Allocator, idGenerator func() string, now func() time.Time) *PlannerService {
	if allocator == nil {
		allocator = scheduler.NewAllocator(nil)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &PlannerService{
		users:       users,
		tasks:       tasks,
		slots:       slots,
		allocator:   allocator,
		idGenerator: idGenerator,
		now:         now,
	}
}

// PlanParams selects the snapshot and bounds the search.
type PlanParams struct {
	// Window narrows the slots considered by start time. It merges into the
	// slot filter when the filter leaves the range open.
	Window     persistence.TimeRange
	UserFilter persistence.UserFilter
	TaskFilter persistence.TaskFilter
	SlotFilter persistence.SlotFilter
	Budget     scheduler.Budget
}

// Plan loads users, tasks, and slots matching the filters and runs one
// scheduling pass over the snapshot.
func (s *PlannerService) Plan(ctx context.Context, params PlanParams) (scheduler.Result, error) {
	if s == nil {
		return scheduler.Result{}, fmt.Errorf("application: PlannerService is nil")
	}
	logger := logging.FromContext(ctx)

	slotFilter := params.SlotFilter
	if slotFilter.StartWithin.After == nil {
		slotFilter.StartWithin.After = params.Window.After
	}
	if slotFilter.StartWithin.Before == nil {
		slotFilter.StartWithin.Before = params.Window.Before
	}

	users, err := s.users.ListUsers(ctx, params.UserFilter)
	if err != nil {
		return scheduler.Result{}, fmt.Errorf("application: load users: %w", err)
	}
	tasks, err := s.tasks.ListTasks(ctx, params.TaskFilter)
	if err != nil {
		return scheduler.Result{}, fmt.Errorf("application: load tasks: %w", err)
	}
	slots, err := s.slots.ListSlots(ctx, slotFilter)
	if err != nil {
		return scheduler.Result{}, fmt.Errorf("application: load slots: %w", err)
	}

	logger.Debug("planning snapshot loaded",
		"users", len(users), "tasks", len(tasks), "slots", len(slots))

	result, err := s.allocator.Run(ctx, scheduler.Calendar{Slots: slots, Tasks: tasks}, users, params.Budget)
	if err != nil {
		return scheduler.Result{}, err
	}

	logger.Info("plan computed",
		"slots", len(result.Entries),
		"violations", len(result.Violations),
		"score", result.Score,
		"refinement_steps", result.RefinementSteps,
		"elapsed", result.Elapsed)
	return result, nil
}

// CreateUser stores a user, assigning an id when none is provided.
func (s *PlannerService) CreateUser(ctx context.Context, user roster.User) (roster.User, error) {
	if user.ID == "" {
		user.ID = roster.UserID(s.idGenerator())
	}
	if err := roster.ValidateUsers([]roster.User{user}); err != nil {
		return roster.User{}, err
	}
	if err := s.users.PutUser(ctx, user); err != nil {
		return roster.User{}, fmt.Errorf("application: create user: %w", err)
	}
	return user, nil
}

// CreateTask stores a task, assigning an id when none is provided.
func (s *PlannerService) CreateTask(ctx context.Context, task taskgraph.Task) (taskgraph.Task, error) {
	if task.ID == "" {
		task.ID = taskgraph.TaskID(s.idGenerator())
	}
	if err := s.tasks.PutTask(ctx, task); err != nil {
		return taskgraph.Task{}, fmt.Errorf("application: create task: %w", err)
	}
	return task, nil
}

// CreateSlot stores a slot, assigning an id when none is provided.
func (s *PlannerService) CreateSlot(ctx context.Context, slot scheduler.Slot) (scheduler.Slot, error) {
	if slot.ID == "" {
		slot.ID = scheduler.SlotID(s.idGenerator())
	}
	if slot.Duration <= 0 {
		return scheduler.Slot{}, fmt.Errorf("application: slot duration must be positive")
	}
	if err := s.slots.PutSlot(ctx, slot); err != nil {
		return scheduler.Slot{}, fmt.Errorf("application: create slot: %w", err)
	}
	return slot, nil
}
