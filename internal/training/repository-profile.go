package training

import (
	"context"
	"time"
)

// sqliteProfileRepository implements the singleton training profile.
type sqliteProfileRepository struct {
	baseRepository
}

// Get retrieves the profile. The fixtures guarantee that the row exists.
func (r *sqliteProfileRepository) Get(ctx context.Context) (Profile, error) {
	var (
		p                                 Profile
		equipment, exclusions, weekdayStr string
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT fitness_level, equipment, exclusions, training_days, recovery_window_hours
		FROM profile
		WHERE id = 1`).Scan(&p.FitnessLevel, &equipment, &exclusions, &weekdayStr, &p.RecoveryWindowHours)
	if err != nil {
		return Profile{}, persistenceError("query profile", err)
	}
	if err = unmarshalJSON(equipment, &p.Equipment); err != nil {
		return Profile{}, err
	}
	if err = unmarshalJSON(exclusions, &p.Exclusions); err != nil {
		return Profile{}, err
	}
	var weekdays []int
	if err = unmarshalJSON(weekdayStr, &weekdays); err != nil {
		return Profile{}, err
	}
	p.TrainingDays = make([]time.Weekday, len(weekdays))
	for i, d := range weekdays {
		p.TrainingDays[i] = time.Weekday(d)
	}
	return p, nil
}

// Save overwrites the profile.
func (r *sqliteProfileRepository) Save(ctx context.Context, p Profile) error {
	equipment, err := marshalJSON(nonNil(p.Equipment))
	if err != nil {
		return err
	}
	exclusions, err := marshalJSON(nonNil(p.Exclusions))
	if err != nil {
		return err
	}
	weekdays := make([]int, len(p.TrainingDays))
	for i, d := range p.TrainingDays {
		weekdays[i] = int(d)
	}
	days, err := marshalJSON(weekdays)
	if err != nil {
		return err
	}
	_, err = r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO profile (id, fitness_level, equipment, exclusions, training_days, recovery_window_hours)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			fitness_level = excluded.fitness_level,
			equipment = excluded.equipment,
			exclusions = excluded.exclusions,
			training_days = excluded.training_days,
			recovery_window_hours = excluded.recovery_window_hours,
			updated_at = STRFTIME('%Y-%m-%dT%H:%M:%fZ')`,
		p.FitnessLevel, equipment, exclusions, days, p.RecoveryWindowHours)
	if err != nil {
		return persistenceError("save profile", err)
	}
	return nil
}

// nonNil keeps JSON columns as arrays instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
