package training

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/trainingplan/internal/errors"
	"github.com/myrjola/trainingplan/internal/sqlite"
)

const (
	timestampFormat = "2006-01-02T15:04:05.000Z"
	dateFormat      = time.DateOnly
)

// querier is implemented by *sql.DB and *sql.Tx so that reads can join a write transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type baseRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newBaseRepository(db *sqlite.Database, logger *slog.Logger) baseRepository {
	return baseRepository{db: db, logger: logger}
}

// repository groups the repositories used by Service.
type repository struct {
	goals         *sqliteGoalRepository
	profile       *sqliteProfileRepository
	exercises     *sqliteExerciseRepository
	logs          *sqliteLogRepository
	plans         *sqlitePlanRepository
	periodization *sqlitePeriodizationRepository
	activities    *sqliteActivityRepository
}

type repositoryFactory struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newRepositoryFactory(db *sqlite.Database, logger *slog.Logger) *repositoryFactory {
	return &repositoryFactory{db: db, logger: logger}
}

func (f *repositoryFactory) newRepository() *repository {
	base := newBaseRepository(f.db, f.logger)
	return &repository{
		goals:         &sqliteGoalRepository{baseRepository: base},
		profile:       &sqliteProfileRepository{baseRepository: base},
		exercises:     &sqliteExerciseRepository{baseRepository: base},
		logs:          &sqliteLogRepository{baseRepository: base},
		plans:         &sqlitePlanRepository{baseRepository: base},
		periodization: &sqlitePeriodizationRepository{baseRepository: base},
		activities:    &sqliteActivityRepository{baseRepository: base},
	}
}

// persistenceError wraps a database failure with ErrPersistence.
func persistenceError(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, msg, err)
}

// closeRows joins the close error of rows into err.
func closeRows(rows *sql.Rows, err *error) {
	if closeErr := rows.Close(); closeErr != nil {
		*err = errors.Join(*err, persistenceError("close rows", closeErr))
	}
}

// rowsAffected returns an ErrConflict or ErrNotFound built from notMatched when result changed no rows.
func rowsAffected(result sql.Result, notMatched error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return persistenceError("rows affected", err)
	}
	if n == 0 {
		return notMatched
	}
	return nil
}

func formatDate(t time.Time) string {
	return t.Format(dateFormat)
}

func formatNullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{String: "", Valid: false}
	}
	return sql.NullString{String: formatDate(*t), Valid: true}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, persistenceError("parse date", err)
	}
	return t, nil
}

// parseNullDate parses a nullable date column.
func parseNullDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil //nolint:nilnil // nil time is expected when the column is NULL.
	}
	t, err := parseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampFormat, s)
	if err != nil {
		return time.Time{}, persistenceError("parse timestamp", err)
	}
	return t, nil
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", persistenceError("marshal json column", err)
	}
	return string(b), nil
}

func unmarshalJSON(s string, v any) error {
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return persistenceError("unmarshal json column", err)
	}
	return nil
}
