package training

import (
	"context"
	"database/sql"

	"github.com/myrjola/trainingplan/internal/errors"
)

// sqliteExerciseRepository reads the exercise catalog. The catalog is maintained through fixtures.sql.
type sqliteExerciseRepository struct {
	baseRepository
}

const exerciseColumns = `id, name, pattern, difficulty, equipment, tags, body_areas, coaching_markdown`

func scanExercise(row rowScanner) (Exercise, error) {
	var (
		ex                         Exercise
		equipment, tags, bodyAreas string
	)
	if err := row.Scan(&ex.ID, &ex.Name, &ex.Pattern, &ex.Difficulty, &equipment, &tags, &bodyAreas,
		&ex.CoachingMarkdown); err != nil {
		return Exercise{}, err //nolint:wrapcheck // callers decide between not found and persistence errors.
	}
	if err := unmarshalJSON(equipment, &ex.Equipment); err != nil {
		return Exercise{}, err
	}
	if err := unmarshalJSON(tags, &ex.Tags); err != nil {
		return Exercise{}, err
	}
	if err := unmarshalJSON(bodyAreas, &ex.BodyAreas); err != nil {
		return Exercise{}, err
	}
	return ex, nil
}

// Get retrieves a single exercise by ID.
func (r *sqliteExerciseRepository) Get(ctx context.Context, id int) (Exercise, error) {
	ex, err := scanExercise(r.db.ReadOnly.QueryRowContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Exercise{}, errorf(ErrNotFound, "exercise %d", id)
	}
	if err != nil {
		return Exercise{}, persistenceError("query exercise", err)
	}
	return ex, nil
}

// List returns the whole catalog ordered by ID.
func (r *sqliteExerciseRepository) List(ctx context.Context) (_ []Exercise, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `SELECT `+exerciseColumns+` FROM exercises ORDER BY id`)
	if err != nil {
		return nil, persistenceError("query exercises", err)
	}
	defer closeRows(rows, &err)

	exercises := []Exercise{}
	for rows.Next() {
		var ex Exercise
		if ex, err = scanExercise(rows); err != nil {
			return nil, persistenceError("scan exercise", err)
		}
		exercises = append(exercises, ex)
	}
	if err = rows.Err(); err != nil {
		return nil, persistenceError("rows error", err)
	}
	return exercises, nil
}
