package training

import (
	"context"
	"database/sql"
	"time"
)

// sqliteActivityRepository caches the activities read from the Calendar Service.
type sqliteActivityRepository struct {
	baseRepository
}

// Upsert stores activities keyed by their calendar source ID.
func (r *sqliteActivityRepository) Upsert(ctx context.Context, tx *sql.Tx, activities []ExternalActivity) error {
	for _, a := range activities {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO external_activities (source_id, activity_date, activity_type, name, intensity,
			                                 duration_minutes, load_score, recurring, day_of_week)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (source_id) DO UPDATE SET
				activity_date = excluded.activity_date,
				activity_type = excluded.activity_type,
				name = excluded.name,
				intensity = excluded.intensity,
				duration_minutes = excluded.duration_minutes,
				load_score = excluded.load_score,
				recurring = excluded.recurring,
				day_of_week = excluded.day_of_week,
				synced_at = STRFTIME('%Y-%m-%dT%H:%M:%fZ')`,
			a.SourceID, formatDate(a.Date), a.Type, a.Name, a.Intensity, a.DurationMinutes, a.LoadScore, a.Recurring,
			int(a.DayOfWeek))
		if err != nil {
			return persistenceError("upsert external activity", err)
		}
	}
	return nil
}

// Between lists cached activities dated from from up to and including to.
func (r *sqliteActivityRepository) Between(ctx context.Context, from, to time.Time) (_ []ExternalActivity, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT source_id, activity_date, activity_type, name, intensity, duration_minutes, load_score, recurring,
		       day_of_week
		FROM external_activities
		WHERE activity_date BETWEEN ? AND ?
		ORDER BY activity_date, source_id`, formatDate(from), formatDate(to))
	if err != nil {
		return nil, persistenceError("query external activities", err)
	}
	defer closeRows(rows, &err)

	activities := []ExternalActivity{}
	for rows.Next() {
		var (
			a       ExternalActivity
			date    string
			weekday int
		)
		if err = rows.Scan(&a.SourceID, &date, &a.Type, &a.Name, &a.Intensity, &a.DurationMinutes, &a.LoadScore,
			&a.Recurring, &weekday); err != nil {
			return nil, persistenceError("scan external activity", err)
		}
		if a.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		a.DayOfWeek = time.Weekday(weekday)
		activities = append(activities, a)
	}
	if err = rows.Err(); err != nil {
		return nil, persistenceError("rows error", err)
	}
	return activities, nil
}
