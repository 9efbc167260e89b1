package training

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/myrjola/trainingplan/internal/errors"
)

// sqliteGoalRepository stores goals and their milestones.
type sqliteGoalRepository struct {
	baseRepository
}

const goalColumns = `id, category, title, description, start_value, current_value, target_value, unit, deadline,
	status, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (Goal, error) {
	var (
		g         Goal
		deadline  sql.NullString
		createdAt string
	)
	if err := row.Scan(&g.ID, &g.Category, &g.Title, &g.Description, &g.StartValue, &g.CurrentValue,
		&g.TargetValue, &g.Unit, &deadline, &g.Status, &createdAt); err != nil {
		return Goal{}, err //nolint:wrapcheck // callers decide between not found and persistence errors.
	}
	var err error
	if g.Deadline, err = parseNullDate(deadline); err != nil {
		return Goal{}, err
	}
	if g.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return Goal{}, err
	}
	return g, nil
}

// Create inserts g and returns its ID.
func (r *sqliteGoalRepository) Create(ctx context.Context, tx *sql.Tx, g Goal) (int, error) {
	var id int
	err := tx.QueryRowContext(ctx, `
		INSERT INTO goals (category, title, description, start_value, current_value, target_value, unit, deadline,
		                   status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		g.Category, g.Title, g.Description, g.StartValue, g.CurrentValue, g.TargetValue, g.Unit,
		formatNullDate(g.Deadline), g.Status, formatTimestamp(g.CreatedAt), formatTimestamp(g.CreatedAt),
	).Scan(&id)
	if err != nil {
		return 0, persistenceError("insert goal", err)
	}
	return id, nil
}

// Get retrieves a goal by ID.
func (r *sqliteGoalRepository) Get(ctx context.Context, q querier, id int) (Goal, error) {
	g, err := scanGoal(q.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Goal{}, errorf(ErrNotFound, "goal %d", id)
	}
	if err != nil {
		return Goal{}, persistenceError("query goal", err)
	}
	return g, nil
}

// List returns goals ordered by ID, optionally restricted to statuses.
func (r *sqliteGoalRepository) List(ctx context.Context, statuses ...GoalStatus) (_ []Goal, err error) {
	query := `SELECT ` + goalColumns + ` FROM goals`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + placeholders(len(statuses)) + `)`
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	rows, err := r.db.ReadOnly.QueryContext(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, persistenceError("query goals", err)
	}
	defer closeRows(rows, &err)

	goals := []Goal{}
	for rows.Next() {
		var g Goal
		if g, err = scanGoal(rows); err != nil {
			return nil, persistenceError("scan goal", err)
		}
		goals = append(goals, g)
	}
	if err = rows.Err(); err != nil {
		return nil, persistenceError("rows error", err)
	}
	return goals, nil
}

// Save writes the mutable fields of g.
func (r *sqliteGoalRepository) Save(ctx context.Context, tx *sql.Tx, g Goal) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE goals
		SET title = ?, description = ?, start_value = ?, current_value = ?, target_value = ?, unit = ?,
		    deadline = ?, status = ?, updated_at = STRFTIME('%Y-%m-%dT%H:%M:%fZ')
		WHERE id = ?`,
		g.Title, g.Description, g.StartValue, g.CurrentValue, g.TargetValue, g.Unit, formatNullDate(g.Deadline),
		g.Status, g.ID)
	if err != nil {
		return persistenceError("update goal", err)
	}
	return rowsAffected(result, errorf(ErrNotFound, "goal %d", g.ID))
}

// Delete removes a goal and, through the foreign key, its milestones.
func (r *sqliteGoalRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ReadWrite.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return persistenceError("delete goal", err)
	}
	return rowsAffected(result, errorf(ErrNotFound, "goal %d", id))
}

// Update loads the goal and its milestones inside one transaction, applies updateFn, and saves both when it reports
// a change.
func (r *sqliteGoalRepository) Update(
	ctx context.Context,
	id int,
	updateFn func(g *Goal, milestones *[]Milestone) (bool, error),
) error {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		g, err := r.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		milestones, err := r.Milestones(ctx, tx, id)
		if err != nil {
			return err
		}
		updated, err := updateFn(&g, &milestones)
		if err != nil || !updated {
			return err
		}
		if err = r.Save(ctx, tx, g); err != nil {
			return err
		}
		return r.ReplaceMilestones(ctx, tx, id, milestones)
	})
	if err != nil {
		return fmt.Errorf("update goal %d: %w", id, err)
	}
	return nil
}

// Milestones returns the milestones of a goal in order.
func (r *sqliteGoalRepository) Milestones(ctx context.Context, q querier, goalID int) (_ []Milestone, err error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, goal_id, order_index, target_value, description, target_date, achieved_date, status
		FROM milestones
		WHERE goal_id = ?
		ORDER BY order_index`, goalID)
	if err != nil {
		return nil, persistenceError("query milestones", err)
	}
	defer closeRows(rows, &err)

	milestones := []Milestone{}
	for rows.Next() {
		var (
			m                    Milestone
			targetDate, achieved sql.NullString
		)
		if err = rows.Scan(&m.ID, &m.GoalID, &m.OrderIndex, &m.TargetValue, &m.Description, &targetDate, &achieved,
			&m.Status); err != nil {
			return nil, persistenceError("scan milestone", err)
		}
		if m.TargetDate, err = parseNullDate(targetDate); err != nil {
			return nil, err
		}
		if m.AchievedDate, err = parseNullDate(achieved); err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	if err = rows.Err(); err != nil {
		return nil, persistenceError("rows error", err)
	}
	return milestones, nil
}

// ReplaceMilestones replaces every milestone of a goal. Milestones with an ID keep it.
func (r *sqliteGoalRepository) ReplaceMilestones(
	ctx context.Context,
	tx *sql.Tx,
	goalID int,
	milestones []Milestone,
) error {
	for i, m := range milestones {
		if m.OrderIndex != i+1 {
			return errorf(ErrConflict, "milestone order index %d at position %d of goal %d", m.OrderIndex, i+1, goalID)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM milestones WHERE goal_id = ?`, goalID); err != nil {
		return persistenceError("delete milestones", err)
	}
	for _, m := range milestones {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO milestones (id, goal_id, order_index, target_value, description, target_date, achieved_date,
			                        status)
			VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, goalID, m.OrderIndex, m.TargetValue, m.Description, formatNullDate(m.TargetDate),
			formatNullDate(m.AchievedDate), m.Status)
		if err != nil {
			return persistenceError("insert milestone", err)
		}
	}
	return nil
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	b := make([]byte, 0, 2*n-1) //nolint:mnd // "?," per value.
	for i := range n {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}
