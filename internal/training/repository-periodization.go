package training

import (
	"context"
	"database/sql"

	"github.com/myrjola/trainingplan/internal/errors"
)

// sqlitePeriodizationRepository stores the singleton periodization state with compare-and-swap writes.
type sqlitePeriodizationRepository struct {
	baseRepository
}

// Get returns the stored state. ok is false when no plan has been generated yet.
func (r *sqlitePeriodizationRepository) Get(ctx context.Context) (_ PeriodizationState, ok bool, _ error) {
	var (
		s                      PeriodizationState
		cycleStart, weekStart  string
		nextDeload, lastDeload sql.NullString
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT cycle_start_date, current_phase, week_in_phase, total_weeks_in_phase, week_start, next_deload_date,
		       last_deload_date, consecutive_training_weeks, version
		FROM periodization_state
		WHERE id = 1`).Scan(&cycleStart, &s.CurrentPhase, &s.WeekInPhase, &s.TotalWeeksInPhase, &weekStart,
		&nextDeload, &lastDeload, &s.ConsecutiveTrainingWeeks, &s.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return PeriodizationState{}, false, nil
	}
	if err != nil {
		return PeriodizationState{}, false, persistenceError("query periodization state", err)
	}
	if s.CycleStartDate, err = parseDate(cycleStart); err != nil {
		return PeriodizationState{}, false, err
	}
	if s.WeekStart, err = parseDate(weekStart); err != nil {
		return PeriodizationState{}, false, err
	}
	if s.NextDeloadDate, err = parseNullDate(nextDeload); err != nil {
		return PeriodizationState{}, false, err
	}
	if s.LastDeloadDate, err = parseNullDate(lastDeload); err != nil {
		return PeriodizationState{}, false, err
	}
	return s, true, nil
}

// Save writes s if the stored version still equals s.Version and returns the new version. A zero version inserts the
// first state. A lost race is reported as ErrConflict.
func (r *sqlitePeriodizationRepository) Save(ctx context.Context, tx *sql.Tx, s PeriodizationState) (int, error) {
	var (
		result sql.Result
		err    error
	)
	args := []any{
		formatDate(s.CycleStartDate), s.CurrentPhase, s.WeekInPhase, s.TotalWeeksInPhase, formatDate(s.WeekStart),
		formatNullDate(s.NextDeloadDate), formatNullDate(s.LastDeloadDate), s.ConsecutiveTrainingWeeks,
	}
	if s.Version == 0 {
		result, err = tx.ExecContext(ctx, `
			INSERT INTO periodization_state (id, cycle_start_date, current_phase, week_in_phase, total_weeks_in_phase,
			                                 week_start, next_deload_date, last_deload_date,
			                                 consecutive_training_weeks, version)
			VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, 1)
			ON CONFLICT (id) DO NOTHING`, args...)
	} else {
		result, err = tx.ExecContext(ctx, `
			UPDATE periodization_state
			SET cycle_start_date = ?, current_phase = ?, week_in_phase = ?, total_weeks_in_phase = ?,
			    week_start = ?, next_deload_date = ?, last_deload_date = ?, consecutive_training_weeks = ?,
			    version = version + 1
			WHERE id = 1 AND version = ?`, append(args, s.Version)...)
	}
	if err != nil {
		return 0, persistenceError("save periodization state", err)
	}
	if err = rowsAffected(result, errorf(ErrConflict, "periodization state changed concurrently")); err != nil {
		return 0, err
	}
	return s.Version + 1, nil
}
