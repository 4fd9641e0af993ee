package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/shift-planner/internal/persistence"
	"github.com/example/shift-planner/internal/scheduler"
)

// PutSlot upserts a slot.
func (s *Store) PutSlot(ctx context.Context, slot scheduler.Slot) error {
	if slot.ID == "" {
		return fmt.Errorf("sqlite: slot id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO slots (id, name, start, duration_seconds, min_staff) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, start = excluded.start,
			duration_seconds = excluded.duration_seconds, min_staff = excluded.min_staff`,
		string(slot.ID), slot.Name, formatTime(slot.Start), int64(slot.Duration/time.Second), slot.MinStaff,
	)
	if err != nil {
		return fmt.Errorf("sqlite: put slot %s: %w", slot.ID, err)
	}
	return nil
}

// GetSlot loads one slot.
func (s *Store) GetSlot(ctx context.Context, id scheduler.SlotID) (scheduler.Slot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, start, duration_seconds, min_staff FROM slots WHERE id = ?`, string(id))
	slot, err := scanSlot(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return scheduler.Slot{}, persistence.ErrNotFound
		}
		return scheduler.Slot{}, fmt.Errorf("sqlite: get slot %s: %w", id, err)
	}
	return slot, nil
}

// DeleteSlot removes a slot.
func (s *Store) DeleteSlot(ctx context.Context, id scheduler.SlotID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("sqlite: delete slot %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListSlots returns slots matching the filter, ordered by start then id.
func (s *Store) ListSlots(ctx context.Context, filter persistence.SlotFilter) ([]scheduler.Slot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, start, duration_seconds, min_staff FROM slots ORDER BY start, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list slots: %w", err)
	}
	defer rows.Close()

	var slots []scheduler.Slot
	for rows.Next() {
		slot, err := scanSlot(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan slot: %w", err)
		}
		if filter.Name != nil {
			ok, err := filter.Name.Matches(slot.Name)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		if !filter.StartWithin.Contains(slot.Start) {
			continue
		}
		if !filter.MinStaff.Contains(slot.RequiredStaff()) {
			continue
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list slots: %w", err)
	}
	return slots, nil
}

func scanSlot(scan func(dest ...any) error) (scheduler.Slot, error) {
	var slot scheduler.Slot
	var rawID, start string
	var seconds int64
	if err := scan(&rawID, &slot.Name, &start, &seconds, &slot.MinStaff); err != nil {
		return scheduler.Slot{}, err
	}
	slot.ID = scheduler.SlotID(rawID)
	t, err := parseTime(start)
	if err != nil {
		return scheduler.Slot{}, err
	}
	slot.Start = t
	slot.Duration = time.Duration(seconds) * time.Second
	return slot, nil
}
