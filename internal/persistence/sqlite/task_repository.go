package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/shift-planner/internal/persistence"
	"github.com/example/shift-planner/internal/roster"
	"github.com/example/shift-planner/internal/taskgraph"
)

// PutTask upserts a task with its prerequisite edges and skill requirements.
func (s *Store) PutTask(ctx context.Context, task taskgraph.Task) error {
	if task.ID == "" {
		return fmt.Errorf("sqlite: task id is required")
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var deadline any
		if task.Deadline != nil {
			deadline = formatTime(*task.Deadline)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (id, title, description, deadline) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET title = excluded.title,
				description = excluded.description, deadline = excluded.deadline`,
			string(task.ID), task.Title, task.Desc, deadline,
		); err != nil {
			return fmt.Errorf("sqlite: put task %s: %w", task.ID, err)
		}
		for _, table := range []string{"task_awaiting", "task_skills"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE task_id = ?", string(task.ID)); err != nil {
				return fmt.Errorf("sqlite: clear %s for %s: %w", table, task.ID, err)
			}
		}
		for _, dep := range task.Awaiting {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO task_awaiting (task_id, awaits_id) VALUES (?, ?)`,
				string(task.ID), string(dep),
			); err != nil {
				return fmt.Errorf("sqlite: put edge %s->%s: %w", task.ID, dep, err)
			}
		}
		for _, skill := range sortedSkillIDs(task.Skills) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO task_skills (task_id, skill_id, required) VALUES (?, ?, ?)`,
				string(task.ID), string(skill), task.Skills[skill],
			); err != nil {
				return fmt.Errorf("sqlite: put skill %s for %s: %w", skill, task.ID, err)
			}
		}
		return nil
	})
}

// GetTask loads one task.
func (s *Store) GetTask(ctx context.Context, id taskgraph.TaskID) (taskgraph.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, deadline FROM tasks WHERE id = ?`, string(id))
	task, err := scanTask(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return taskgraph.Task{}, persistence.ErrNotFound
		}
		return taskgraph.Task{}, fmt.Errorf("sqlite: get task %s: %w", id, err)
	}
	if err := s.loadTaskChildren(ctx, &task); err != nil {
		return taskgraph.Task{}, err
	}
	return task, nil
}

// DeleteTask removes a task; edges cascade.
func (s *Store) DeleteTask(ctx context.Context, id taskgraph.TaskID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("sqlite: delete task %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListTasks returns tasks matching the filter, ordered by id.
func (s *Store) ListTasks(ctx context.Context, filter persistence.TaskFilter) ([]taskgraph.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, deadline FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tasks: %w", err)
	}
	defer rows.Close()

	openRange := filter.DeadlineWithin.After == nil && filter.DeadlineWithin.Before == nil
	var tasks []taskgraph.Task
	for rows.Next() {
		task, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan task: %w", err)
		}
		if filter.Title != nil {
			ok, err := filter.Title.Matches(task.Title)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		if task.Deadline == nil {
			if !openRange {
				continue
			}
		} else if !filter.DeadlineWithin.Contains(*task.Deadline) {
			continue
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list tasks: %w", err)
	}

	for i := range tasks {
		if err := s.loadTaskChildren(ctx, &tasks[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func scanTask(scan func(dest ...any) error) (taskgraph.Task, error) {
	var task taskgraph.Task
	var rawID string
	var deadline sql.NullString
	if err := scan(&rawID, &task.Title, &task.Desc, &deadline); err != nil {
		return taskgraph.Task{}, err
	}
	task.ID = taskgraph.TaskID(rawID)
	if deadline.Valid {
		t, err := parseTime(deadline.String)
		if err != nil {
			return taskgraph.Task{}, err
		}
		task.Deadline = &t
	}
	return task, nil
}

func (s *Store) loadTaskChildren(ctx context.Context, task *taskgraph.Task) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT awaits_id FROM task_awaiting WHERE task_id = ? ORDER BY awaits_id`, string(task.ID))
	if err != nil {
		return fmt.Errorf("sqlite: load edges for %s: %w", task.ID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var dep string
		if err := rows.Scan(&dep); err != nil {
			return fmt.Errorf("sqlite: scan edge for %s: %w", task.ID, err)
		}
		task.Awaiting = append(task.Awaiting, taskgraph.TaskID(dep))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: load edges for %s: %w", task.ID, err)
	}

	skillRows, err := s.db.QueryContext(ctx,
		`SELECT skill_id, required FROM task_skills WHERE task_id = ?`, string(task.ID))
	if err != nil {
		return fmt.Errorf("sqlite: load skills for %s: %w", task.ID, err)
	}
	defer skillRows.Close()
	for skillRows.Next() {
		var skill string
		var required float64
		if err := skillRows.Scan(&skill, &required); err != nil {
			return fmt.Errorf("sqlite: scan skill for %s: %w", task.ID, err)
		}
		if task.Skills == nil {
			task.Skills = make(map[roster.SkillID]float64)
		}
		task.Skills[roster.SkillID(skill)] = required
	}
	return skillRows.Err()
}
