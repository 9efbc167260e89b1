package training

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/myrjola/trainingplan/internal/errors"
)

// sqlitePlanRepository stores weekly plans, their justifications, and completed plan days.
//
// Plan days are stored as a JSON array on the plan row because they are always read and written together.
type sqlitePlanRepository struct {
	baseRepository
}

const planColumns = `id, week_start, status, phase, week_in_phase, total_weeks_in_phase, weekly_load_target,
	weekly_load_actual, unbalanced, calendar_degraded, goal_ids, days, warnings, version, created_at, updated_at`

func scanPlan(row rowScanner) (WeeklyTrainingPlan, error) {
	var (
		p                               WeeklyTrainingPlan
		weekStart, createdAt, updatedAt string
		goalIDs, days, warnings         string
		actual                          sql.NullInt64
	)
	if err := row.Scan(&p.ID, &weekStart, &p.Status, &p.Phase.Phase, &p.Phase.WeekInPhase,
		&p.Phase.TotalWeeksInPhase, &p.WeeklyLoadTarget, &actual, &p.Unbalanced, &p.CalendarDegraded, &goalIDs, &days,
		&warnings, &p.Version, &createdAt, &updatedAt); err != nil {
		return WeeklyTrainingPlan{}, err //nolint:wrapcheck // callers decide between not found and persistence errors.
	}
	var err error
	if p.WeekStart, err = parseDate(weekStart); err != nil {
		return WeeklyTrainingPlan{}, err
	}
	if p.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return WeeklyTrainingPlan{}, err
	}
	if p.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return WeeklyTrainingPlan{}, err
	}
	if actual.Valid {
		v := int(actual.Int64)
		p.WeeklyLoadActual = &v
	}
	if err = unmarshalJSON(goalIDs, &p.GoalIDs); err != nil {
		return WeeklyTrainingPlan{}, err
	}
	if err = unmarshalJSON(days, &p.Days); err != nil {
		return WeeklyTrainingPlan{}, err
	}
	if err = unmarshalJSON(warnings, &p.Warnings); err != nil {
		return WeeklyTrainingPlan{}, err
	}
	return p, nil
}

// Get retrieves the plan of the week starting on weekStart.
func (r *sqlitePlanRepository) Get(ctx context.Context, q querier, weekStart time.Time) (WeeklyTrainingPlan, error) {
	p, err := scanPlan(q.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM weekly_plans WHERE week_start = ?`, formatDate(weekStart)))
	if errors.Is(err, sql.ErrNoRows) {
		return WeeklyTrainingPlan{}, errorf(ErrNotFound, "plan for week %s", formatDate(weekStart))
	}
	if err != nil {
		return WeeklyTrainingPlan{}, persistenceError("query plan", err)
	}
	return p, nil
}

// Insert stores a new plan.
func (r *sqlitePlanRepository) Insert(ctx context.Context, tx *sql.Tx, p WeeklyTrainingPlan) error {
	goalIDs, days, warnings, err := planJSON(p)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO weekly_plans (id, week_start, status, phase, week_in_phase, total_weeks_in_phase,
		                          weekly_load_target, weekly_load_actual, unbalanced, calendar_degraded, goal_ids,
		                          days, warnings, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, formatDate(p.WeekStart), p.Status, p.Phase.Phase, p.Phase.WeekInPhase, p.Phase.TotalWeeksInPhase,
		p.WeeklyLoadTarget, nullInt(p.WeeklyLoadActual), p.Unbalanced, p.CalendarDegraded, goalIDs, days, warnings,
		p.Version, formatTimestamp(p.CreatedAt), formatTimestamp(p.UpdatedAt))
	if err != nil {
		return persistenceError("insert plan", err)
	}
	return nil
}

// Delete removes a plan if it still has version. Justifications and completions cascade.
func (r *sqlitePlanRepository) Delete(ctx context.Context, tx *sql.Tx, id string, version int) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM weekly_plans WHERE id = ? AND version = ?`, id, version)
	if err != nil {
		return persistenceError("delete plan", err)
	}
	return rowsAffected(result, errorf(ErrConflict, "plan %s changed concurrently", id))
}

// save writes the mutable fields of p if the stored version still equals p.Version.
func (r *sqlitePlanRepository) save(ctx context.Context, tx *sql.Tx, p WeeklyTrainingPlan) error {
	_, _, warnings, err := planJSON(p)
	if err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `
		UPDATE weekly_plans
		SET status = ?, weekly_load_actual = ?, warnings = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		p.Status, nullInt(p.WeeklyLoadActual), warnings, formatTimestamp(p.UpdatedAt), p.ID, p.Version)
	if err != nil {
		return persistenceError("update plan", err)
	}
	return rowsAffected(result, errorf(ErrConflict, "plan %s changed concurrently", p.ID))
}

// Update loads the plan of weekStart inside a transaction, applies updateFn, and saves the plan when it reports a
// change. updateFn may use tx for related writes. The saved plan is returned.
func (r *sqlitePlanRepository) Update(
	ctx context.Context,
	weekStart time.Time,
	updateFn func(tx *sql.Tx, p *WeeklyTrainingPlan) (bool, error),
) (WeeklyTrainingPlan, error) {
	var plan WeeklyTrainingPlan
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		if plan, err = r.Get(ctx, tx, weekStart); err != nil {
			return err
		}
		updated, err := updateFn(tx, &plan)
		if err != nil || !updated {
			return err
		}
		if err = r.save(ctx, tx, plan); err != nil {
			return err
		}
		plan.Version++
		return nil
	})
	if err != nil {
		return WeeklyTrainingPlan{}, fmt.Errorf("update plan %s: %w", formatDate(weekStart), err)
	}
	return plan, nil
}

// InsertJustifications stores the justifications of a plan's days.
func (r *sqlitePlanRepository) InsertJustifications(
	ctx context.Context,
	tx *sql.Tx,
	justifications []WorkoutJustification,
) error {
	for _, j := range justifications {
		goalIDs, err := marshalJSON(nonNil(j.GoalIDs))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO workout_justifications (day_id, plan_id, day_date, brief, detailed, goal_ids, calendar_note,
			                                    periodization_note)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			j.DayID, j.PlanID, formatDate(j.Date), j.Brief, j.Detailed, goalIDs, j.CalendarNote, j.PeriodizationNote)
		if err != nil {
			return persistenceError("insert justification", err)
		}
	}
	return nil
}

// Justification retrieves the justification of a plan day.
func (r *sqlitePlanRepository) Justification(ctx context.Context, dayID string) (WorkoutJustification, error) {
	var (
		j             WorkoutJustification
		date, goalIDs string
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT day_id, plan_id, day_date, brief, detailed, goal_ids, calendar_note, periodization_note
		FROM workout_justifications
		WHERE day_id = ?`, dayID).Scan(&j.DayID, &j.PlanID, &date, &j.Brief, &j.Detailed, &goalIDs, &j.CalendarNote,
		&j.PeriodizationNote)
	if errors.Is(err, sql.ErrNoRows) {
		return WorkoutJustification{}, errorf(ErrNotFound, "justification for day %s", dayID)
	}
	if err != nil {
		return WorkoutJustification{}, persistenceError("query justification", err)
	}
	if j.Date, err = parseDate(date); err != nil {
		return WorkoutJustification{}, err
	}
	if err = unmarshalJSON(goalIDs, &j.GoalIDs); err != nil {
		return WorkoutJustification{}, err
	}
	return j, nil
}

// MarkDayCompleted records that a plan day had a logged session. It reports whether this is the first log of the day.
func (r *sqlitePlanRepository) MarkDayCompleted(
	ctx context.Context,
	tx *sql.Tx,
	planID, dayID string,
	date time.Time,
) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO plan_day_completions (plan_id, day_id, completed_on)
		VALUES (?, ?, ?)
		ON CONFLICT (plan_id, day_id) DO NOTHING`, planID, dayID, formatDate(date))
	if err != nil {
		return false, persistenceError("insert plan day completion", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, persistenceError("rows affected", err)
	}
	return n > 0, nil
}

func planJSON(p WeeklyTrainingPlan) (string, string, string, error) {
	goalIDs, err := marshalJSON(nonNil(p.GoalIDs))
	if err != nil {
		return "", "", "", err
	}
	days, err := marshalJSON(nonNil(p.Days))
	if err != nil {
		return "", "", "", err
	}
	warnings, err := marshalJSON(nonNil(p.Warnings))
	if err != nil {
		return "", "", "", err
	}
	return goalIDs, days, warnings, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{Int64: 0, Valid: false}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
