package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/myrjola/trainingplan/internal/errors"
)

// migrateTo brings the live schema in line with schemaDefinition.
//
// The target schema is created in a scratch in-memory database that is attached as schemaTarget. Tables, triggers,
// and indexes are then diffed against it by name. Changed tables go through the 12-step procedure from
// https://www.sqlite.org/lang_altertable.html#otheralter so that rows in common columns survive.
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) (err error) {
	start := time.Now()

	detach, err := db.attachSchemaTarget(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach schema target: %w", err)
	}
	defer detach()

	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, fmt.Errorf("re-enable foreign keys: %w", fkErr))
		}
	}()

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		if err = db.migrateTables(ctx, tx); err != nil {
			return fmt.Errorf("migrate tables: %w", err)
		}
		for _, typ := range []schemaType{schemaTypeTrigger, schemaTypeIndex} {
			if err = db.migrateEntities(ctx, tx, typ); err != nil {
				return fmt.Errorf("migrate %ss: %w", typ, err)
			}
		}
		if _, err = tx.ExecContext(ctx, "PRAGMA foreign_key_check"); err != nil {
			return fmt.Errorf("foreign key check: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

func (db *Database) attachSchemaTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	name := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	target, err := sql.Open("sqlite3", name)
	if err != nil {
		return nil, fmt.Errorf("open schema target: %w", err)
	}
	// The attached copy keeps the shared cache alive once target is closed.
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close schema target", errors.SlogError(closeErr))
		}
	}()
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("create target schema: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", name); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach schema target", errors.SlogError(detachErr))
		}
	}, nil
}

type schemaType string

const (
	schemaTypeTable   schemaType = "table"
	schemaTypeTrigger schemaType = "trigger"
	schemaTypeIndex   schemaType = "index"
)

type schemaEntity struct {
	name    string
	liveSQL string
	newSQL  string
}

// schemaDiff lists entities of one type that only exist live, only exist in the target, or differ.
type schemaDiff struct {
	deleted []schemaEntity
	created []schemaEntity
	changed []schemaEntity
}

// The table rename in step 7 quotes the table name, so quotes are ignored when comparing.
const diffQuery = `
SELECT COALESCE(live.name, target.name), COALESCE(live.sql, ''), COALESCE(target.sql, '')
FROM (SELECT name, sql FROM main.sqlite_schema WHERE type = :type AND name NOT LIKE 'sqlite_%') AS live
         FULL OUTER JOIN
     (SELECT name, sql FROM schemaTarget.sqlite_schema WHERE type = :type AND name NOT LIKE 'sqlite_%') AS target
     ON live.name = target.name
WHERE live.name IS NULL
   OR target.name IS NULL
   OR REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')
ORDER BY 1`

func (db *Database) diff(ctx context.Context, tx *sql.Tx, typ schemaType) (_ schemaDiff, err error) {
	rows, err := tx.QueryContext(ctx, diffQuery, sql.Named("type", string(typ)))
	if err != nil {
		return schemaDiff{}, fmt.Errorf("query diff: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var d schemaDiff
	for rows.Next() {
		var e schemaEntity
		if err = rows.Scan(&e.name, &e.liveSQL, &e.newSQL); err != nil {
			return schemaDiff{}, fmt.Errorf("scan diff: %w", err)
		}
		switch {
		case e.newSQL == "":
			d.deleted = append(d.deleted, e)
		case e.liveSQL == "":
			d.created = append(d.created, e)
		default:
			d.changed = append(d.changed, e)
		}
	}
	if err = rows.Err(); err != nil {
		return schemaDiff{}, fmt.Errorf("rows: %w", err)
	}
	return d, nil
}

func (db *Database) exec(ctx context.Context, tx *sql.Tx, msg string, query string) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, msg, slog.String("query", query))
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return nil
}

func (db *Database) migrateTables(ctx context.Context, tx *sql.Tx) error {
	d, err := db.diff(ctx, tx, schemaTypeTable)
	if err != nil {
		return err
	}
	for _, t := range d.deleted {
		if err = db.exec(ctx, tx, "drop table", "DROP TABLE "+t.name); err != nil {
			return err
		}
	}
	for _, t := range d.created {
		if err = db.exec(ctx, tx, "create table", t.newSQL); err != nil {
			return err
		}
	}
	for _, t := range d.changed {
		if err = db.rebuildTable(ctx, tx, t); err != nil {
			return fmt.Errorf("rebuild %s: %w", t.name, err)
		}
	}
	return nil
}

// rebuildTable creates the new definition under a temporary name, copies common columns, and swaps it in.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, t schemaEntity) error {
	tempName := t.name + "_migration_temp"
	if err := db.exec(ctx, tx, "create temporary table",
		strings.Replace(t.newSQL, t.name, tempName, 1)); err != nil {
		return err
	}

	columns, err := db.commonColumns(ctx, tx, t.name)
	if err != nil {
		return err
	}
	common := strings.Join(columns, ", ")
	steps := []struct{ msg, query string }{
		{"copy rows", fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", tempName, common, common, t.name)},
		{"drop old table", "DROP TABLE " + t.name},
		{"rename table", fmt.Sprintf("ALTER TABLE %s RENAME TO %s", tempName, t.name)},
	}
	for _, step := range steps {
		if err = db.exec(ctx, tx, step.msg, step.query); err != nil {
			return err
		}
	}
	return nil
}

func (db *Database) commonColumns(ctx context.Context, tx *sql.Tx, table string) (_ []string, err error) {
	// Columns are quoted because some of them may be SQLite keywords.
	rows, err := tx.QueryContext(ctx, `SELECT '"' || target.name || '"'
FROM PRAGMA_TABLE_INFO(:table_name) AS live
         JOIN PRAGMA_TABLE_INFO(:table_name, 'schemaTarget') AS target ON target.name = live.name`,
		sql.Named("table_name", table))
	if err != nil {
		return nil, fmt.Errorf("query common columns: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	var columns []string
	for rows.Next() {
		var c string
		if err = rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return columns, nil
}

// migrateEntities recreates triggers or indexes. They hold no data, so changed ones are dropped and created again.
func (db *Database) migrateEntities(ctx context.Context, tx *sql.Tx, typ schemaType) error {
	d, err := db.diff(ctx, tx, typ)
	if err != nil {
		return err
	}
	keyword := strings.ToUpper(string(typ))
	for _, e := range append(d.deleted, d.changed...) {
		// Dropping a table in migrateTables also drops its triggers and indexes.
		if err = db.exec(ctx, tx, "drop "+string(typ), fmt.Sprintf("DROP %s IF EXISTS %s", keyword, e.name)); err != nil {
			return err
		}
	}
	for _, e := range append(d.created, d.changed...) {
		if err = db.exec(ctx, tx, "create "+string(typ), e.newSQL); err != nil {
			return err
		}
	}
	return nil
}
