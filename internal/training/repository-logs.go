package training

import (
	"context"
	"database/sql"
)

// sqliteLogRepository appends exercise logs. The schema rejects updates and deletes.
type sqliteLogRepository struct {
	baseRepository
}

// Append inserts l and returns its ID.
func (r *sqliteLogRepository) Append(ctx context.Context, tx *sql.Tx, l ExerciseLog) (int, error) {
	var id int
	err := tx.QueryRowContext(ctx, `
		INSERT INTO exercise_logs (exercise_id, logged_on, reps, weight_kg, rpe)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		l.ExerciseID, formatDate(l.Date), l.Reps, l.WeightKg, l.RPE).Scan(&id)
	if err != nil {
		return 0, persistenceError("insert exercise log", err)
	}
	return id, nil
}

// Recent returns up to limit of the latest logs of an exercise, oldest first.
func (r *sqliteLogRepository) Recent(ctx context.Context, exerciseID int, limit int) ([]ExerciseLog, error) {
	return r.query(ctx, `
		SELECT id, exercise_id, logged_on, reps, weight_kg, rpe
		FROM (SELECT *
		      FROM exercise_logs
		      WHERE exercise_id = ?
		      ORDER BY logged_on DESC, id DESC
		      LIMIT ?)
		ORDER BY logged_on, id`, exerciseID, limit)
}

// RecentByExercise returns up to limit of the latest logs of every exercise, oldest first.
func (r *sqliteLogRepository) RecentByExercise(ctx context.Context, limit int) (map[int][]ExerciseLog, error) {
	logs, err := r.query(ctx, `
		SELECT id, exercise_id, logged_on, reps, weight_kg, rpe
		FROM (SELECT *, ROW_NUMBER() OVER (PARTITION BY exercise_id ORDER BY logged_on DESC, id DESC) AS rn
		      FROM exercise_logs)
		WHERE rn <= ?
		ORDER BY exercise_id, logged_on, id`, limit)
	if err != nil {
		return nil, err
	}
	byExercise := make(map[int][]ExerciseLog)
	for _, l := range logs {
		byExercise[l.ExerciseID] = append(byExercise[l.ExerciseID], l)
	}
	return byExercise, nil
}

func (r *sqliteLogRepository) query(ctx context.Context, query string, args ...any) (_ []ExerciseLog, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistenceError("query exercise logs", err)
	}
	defer closeRows(rows, &err)

	logs := []ExerciseLog{}
	for rows.Next() {
		var (
			l    ExerciseLog
			date string
		)
		if err = rows.Scan(&l.ID, &l.ExerciseID, &date, &l.Reps, &l.WeightKg, &l.RPE); err != nil {
			return nil, persistenceError("scan exercise log", err)
		}
		if l.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	if err = rows.Err(); err != nil {
		return nil, persistenceError("rows error", err)
	}
	return logs, nil
}
