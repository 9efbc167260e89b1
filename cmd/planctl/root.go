package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/trainingplan/internal/calendar"
	"github.com/myrjola/trainingplan/internal/errors"
	"github.com/myrjola/trainingplan/internal/logging"
	"github.com/myrjola/trainingplan/internal/sqlite"
	"github.com/myrjola/trainingplan/internal/training"
	"github.com/spf13/cobra"
)

const calendarTimeout = 3 * time.Second

type cli struct {
	dbPath         string
	activitiesFile string
	jsonOutput     bool
	verbose        bool
	now            func() time.Time
}

func newRootCmd(lookupEnv func(string) (string, bool), now func() time.Time) *cobra.Command {
	c := &cli{now: now}

	defaultDB, ok := lookupEnv("TRAININGPLAN_SQLITE_URL")
	if !ok {
		defaultDB = "./trainingplan.sqlite3"
	}
	defaultActivities, _ := lookupEnv("TRAININGPLAN_ACTIVITIES_FILE")

	root := &cobra.Command{
		Use:           "planctl",
		Short:         "planctl builds adaptive weekly training plans from your goals and calendar",
		Long:          "planctl manages fitness goals and generates weekly training plans around your scheduled activities.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.dbPath, "db", defaultDB, "Path to SQLite database")
	root.PersistentFlags().StringVar(&c.activitiesFile, "activities", defaultActivities,
		"JSON file of scheduled activities used as the calendar")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "Print results as JSON")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		c.goalCmd(),
		c.planCmd(),
		c.logCmd(),
		c.progressCmd(),
		c.profileCmd(),
		c.exercisesCmd(),
		c.periodizationCmd(),
	)
	return root
}

// withService opens the database, wires the activities calendar when configured, and runs fn.
func (c *cli) withService(cmd *cobra.Command, fn func(context.Context, *training.Service) error) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(cmd.ErrOrStderr(), logging.Options{Level: level, Observe: nil})

	var cal training.Calendar
	if c.activitiesFile != "" {
		f, err := os.Open(c.activitiesFile)
		if err != nil {
			return fmt.Errorf("open activities file: %w", err)
		}
		static, err := calendar.LoadStatic(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("load activities file %s: %w", c.activitiesFile, err)
		}
		cal = static
	}

	db, err := sqlite.NewDatabase(ctx, c.dbPath, logger)
	if err != nil {
		return fmt.Errorf("open database %s: %w", c.dbPath, err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close db", errors.SlogError(closeErr))
		}
	}()

	svc := training.NewService(db, logger, training.ServiceConfig{
		Calendar:        cal,
		CalendarTimeout: calendarTimeout,
		Metrics:         nil,
		Now:             c.now,
	})
	return fn(ctx, svc)
}

// printJSON writes v as indented JSON when --json is set and reports whether it did.
func (c *cli) printJSON(cmd *cobra.Command, v any) (bool, error) {
	if !c.jsonOutput {
		return false, nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return true, fmt.Errorf("encode json: %w", err)
	}
	return true, nil
}
