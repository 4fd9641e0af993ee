package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/example/shift-planner/internal/persistence"
	"github.com/example/shift-planner/internal/roster"
	"github.com/example/shift-planner/internal/timemodel"
)

// PutUser upserts a user and its rules, affinities, and skills atomically.
func (s *Store) PutUser(ctx context.Context, user roster.User) error {
	if user.ID == "" {
		return fmt.Errorf("sqlite: user id is required")
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, name) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
			string(user.ID), user.Name,
		); err != nil {
			return fmt.Errorf("sqlite: put user %s: %w", user.ID, err)
		}
		for _, table := range []string{"user_rules", "user_affinities", "user_skills"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = ?", string(user.ID)); err != nil {
				return fmt.Errorf("sqlite: clear %s for %s: %w", table, user.ID, err)
			}
		}

		for i, rule := range user.Rules {
			include, err := json.Marshal(rule.Include)
			if err != nil {
				return fmt.Errorf("sqlite: encode rule intervals: %w", err)
			}
			var pattern any
			if rule.Pattern != nil {
				raw, err := json.Marshal(rule.Pattern)
				if err != nil {
					return fmt.Errorf("sqlite: encode rule pattern: %w", err)
				}
				pattern = string(raw)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_rules (user_id, position, name, preference, include_json, pattern_json)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				string(user.ID), i, rule.Name, rule.Preference, string(include), pattern,
			); err != nil {
				return fmt.Errorf("sqlite: put rule %d for %s: %w", i, user.ID, err)
			}
		}

		for _, other := range sortedUserIDs(user.Affinities) {
			aff := user.Affinities[other]
			kind := aff.Kind
			if kind == "" {
				kind = roster.AffinityWeight
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_affinities (user_id, other_id, kind, weight) VALUES (?, ?, ?, ?)`,
				string(user.ID), string(other), string(kind), aff.Weight,
			); err != nil {
				return fmt.Errorf("sqlite: put affinity %s->%s: %w", user.ID, other, err)
			}
		}

		for _, skill := range sortedSkillIDs(user.Skills) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_skills (user_id, skill_id, proficiency) VALUES (?, ?, ?)`,
				string(user.ID), string(skill), user.Skills[skill],
			); err != nil {
				return fmt.Errorf("sqlite: put skill %s for %s: %w", skill, user.ID, err)
			}
		}
		return nil
	})
}

// GetUser loads one user with all nested records.
func (s *Store) GetUser(ctx context.Context, id roster.UserID) (roster.User, error) {
	var user roster.User
	row := s.db.QueryRowContext(ctx, `SELECT id, name FROM users WHERE id = ?`, string(id))
	var rawID string
	if err := row.Scan(&rawID, &user.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return roster.User{}, persistence.ErrNotFound
		}
		return roster.User{}, fmt.Errorf("sqlite: get user %s: %w", id, err)
	}
	user.ID = roster.UserID(rawID)
	if err := s.loadUserChildren(ctx, &user); err != nil {
		return roster.User{}, err
	}
	return user, nil
}

// DeleteUser removes a user; child rows cascade.
func (s *Store) DeleteUser(ctx context.Context, id roster.UserID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("sqlite: delete user %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListUsers returns users matching the filter, ordered by id.
func (s *Store) ListUsers(ctx context.Context, filter persistence.UserFilter) ([]roster.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list users: %w", err)
	}
	defer rows.Close()

	var users []roster.User
	for rows.Next() {
		var user roster.User
		var rawID string
		if err := rows.Scan(&rawID, &user.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scan user: %w", err)
		}
		user.ID = roster.UserID(rawID)
		if filter.Name != nil {
			ok, err := filter.Name.Matches(user.Name)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list users: %w", err)
	}

	for i := range users {
		if err := s.loadUserChildren(ctx, &users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (s *Store) loadUserChildren(ctx context.Context, user *roster.User) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, preference, include_json, pattern_json FROM user_rules WHERE user_id = ? ORDER BY position`,
		string(user.ID))
	if err != nil {
		return fmt.Errorf("sqlite: load rules for %s: %w", user.ID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var rule roster.Rule
		var include string
		var pattern sql.NullString
		if err := rows.Scan(&rule.Name, &rule.Preference, &include, &pattern); err != nil {
			return fmt.Errorf("sqlite: scan rule for %s: %w", user.ID, err)
		}
		if err := json.Unmarshal([]byte(include), &rule.Include); err != nil {
			return fmt.Errorf("sqlite: decode rule intervals for %s: %w", user.ID, err)
		}
		if pattern.Valid {
			var p timemodel.RecurrencePattern
			if err := json.Unmarshal([]byte(pattern.String), &p); err != nil {
				return fmt.Errorf("sqlite: decode rule pattern for %s: %w", user.ID, err)
			}
			rule.Pattern = &p
		}
		user.Rules = append(user.Rules, rule)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: load rules for %s: %w", user.ID, err)
	}

	affRows, err := s.db.QueryContext(ctx,
		`SELECT other_id, kind, weight FROM user_affinities WHERE user_id = ?`, string(user.ID))
	if err != nil {
		return fmt.Errorf("sqlite: load affinities for %s: %w", user.ID, err)
	}
	defer affRows.Close()
	for affRows.Next() {
		var other, kind string
		var weight float64
		if err := affRows.Scan(&other, &kind, &weight); err != nil {
			return fmt.Errorf("sqlite: scan affinity for %s: %w", user.ID, err)
		}
		if user.Affinities == nil {
			user.Affinities = make(map[roster.UserID]roster.Affinity)
		}
		user.Affinities[roster.UserID(other)] = roster.Affinity{Kind: roster.AffinityKind(kind), Weight: weight}
	}
	if err := affRows.Err(); err != nil {
		return fmt.Errorf("sqlite: load affinities for %s: %w", user.ID, err)
	}

	skillRows, err := s.db.QueryContext(ctx,
		`SELECT skill_id, proficiency FROM user_skills WHERE user_id = ?`, string(user.ID))
	if err != nil {
		return fmt.Errorf("sqlite: load skills for %s: %w", user.ID, err)
	}
	defer skillRows.Close()
	for skillRows.Next() {
		var skill string
		var prof float64
		if err := skillRows.Scan(&skill, &prof); err != nil {
			return fmt.Errorf("sqlite: scan skill for %s: %w", user.ID, err)
		}
		if user.Skills == nil {
			user.Skills = make(map[roster.SkillID]float64)
		}
		user.Skills[roster.SkillID(skill)] = prof
	}
	return skillRows.Err()
}

func sortedUserIDs(m map[roster.UserID]roster.Affinity) []roster.UserID {
	out := make([]roster.UserID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedSkillIDs(m map[roster.SkillID]float64) []roster.SkillID {
	out := make([]roster.SkillID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
