package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/myrjola/trainingplan/internal/calendar"
	"github.com/myrjola/trainingplan/internal/envstruct"
	"github.com/myrjola/trainingplan/internal/errors"
	"github.com/myrjola/trainingplan/internal/flightrecorder"
	"github.com/myrjola/trainingplan/internal/logging"
	"github.com/myrjola/trainingplan/internal/metrics"
	"github.com/myrjola/trainingplan/internal/sqlite"
	"github.com/myrjola/trainingplan/internal/training"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type application struct {
	logger   *slog.Logger
	service  *training.Service
	metrics  *metrics.Manager
	registry *prometheus.Registry
	// flightRecorder is nil unless a traces directory is configured.
	flightRecorder *flightrecorder.Recorder
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"TRAININGPLAN_ADDR" envDefault:"localhost:8082"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"TRAININGPLAN_SQLITE_URL" envDefault:"./trainingplan.sqlite3"`
	// CalendarID is the Google calendar to read activities from. Empty disables the Google calendar.
	CalendarID string `env:"TRAININGPLAN_CALENDAR_ID" envDefault:""`
	// GoogleCredentials is the path to the service-account JSON key of the Google calendar.
	GoogleCredentials string `env:"TRAININGPLAN_GOOGLE_CREDENTIALS" envDefault:""`
	// ActivitiesFile is a JSON file of activities used instead of the Google calendar.
	ActivitiesFile string `env:"TRAININGPLAN_ACTIVITIES_FILE" envDefault:""`
	// CalendarTimeout bounds every calendar call.
	CalendarTimeout time.Duration `env:"TRAININGPLAN_CALENDAR_TIMEOUT" envDefault:"3s"`
	// PregenerateSpec is the cron spec, with seconds, of next week's draft generation. Empty disables it.
	PregenerateSpec string `env:"TRAININGPLAN_PREGENERATE_SPEC" envDefault:"0 0 20 * * 0"`
	// Metrics exposes the prometheus metrics at /metrics.
	Metrics bool `env:"TRAININGPLAN_METRICS" envDefault:"true"`
	// TracesDirectory receives execution traces of timed out requests. Empty disables the flight recorder.
	TracesDirectory string `env:"TRAININGPLAN_TRACES_DIRECTORY" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	cal, err := newCalendar(ctx, cfg, logger)
	if err != nil {
		return errors.Wrap(err, "configure calendar")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewManager("trainingplan", "web", registry)

	app := application{
		logger: logger,
		service: training.NewService(db, logger, training.ServiceConfig{
			Calendar:        cal,
			CalendarTimeout: cfg.CalendarTimeout,
			Metrics:         m,
			Now:             nil,
		}),
		metrics:        m,
		registry:       registry,
		flightRecorder: nil,
	}

	if cfg.TracesDirectory != "" {
		if app.flightRecorder, err = flightrecorder.New(flightrecorder.Config{
			Logger:          logger,
			MinAge:          0,
			MaxBytes:        0,
			Cooldown:        0,
			TracesDirectory: cfg.TracesDirectory,
		}); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = app.flightRecorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer app.flightRecorder.Stop(context.WithoutCancel(ctx))
	}

	if cfg.PregenerateSpec != "" {
		var stop func()
		if stop, err = app.schedulePregeneration(ctx, cfg.PregenerateSpec); err != nil {
			return errors.Wrap(err, "schedule pregeneration", slog.String("spec", cfg.PregenerateSpec))
		}
		defer stop()
	}

	if err = app.serve(ctx, cfg.Addr, app.routes(cfg.Metrics)); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

// newCalendar returns the Google calendar when configured, otherwise the activities file, otherwise nil.
func newCalendar(ctx context.Context, cfg config, logger *slog.Logger) (training.Calendar, error) {
	switch {
	case cfg.CalendarID != "":
		credentials, err := os.ReadFile(cfg.GoogleCredentials)
		if err != nil {
			return nil, errors.Wrap(err, "read google credentials", slog.String("path", cfg.GoogleCredentials))
		}
		g, err := calendar.NewGoogle(ctx, credentials, cfg.CalendarID, logger)
		if err != nil {
			return nil, errors.Wrap(err, "new google calendar")
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "using google calendar", slog.String("calendar_id", cfg.CalendarID))
		return g, nil
	case cfg.ActivitiesFile != "":
		f, err := os.Open(cfg.ActivitiesFile)
		if err != nil {
			return nil, errors.Wrap(err, "open activities file")
		}
		defer func() {
			_ = f.Close()
		}()
		s, err := calendar.LoadStatic(f)
		if err != nil {
			return nil, errors.Wrap(err, "load activities file", slog.String("path", cfg.ActivitiesFile))
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "using activities file", slog.String("path", cfg.ActivitiesFile))
		return s, nil
	default:
		logger.LogAttrs(ctx, slog.LevelInfo, "no calendar configured, plans assume no external activities")
		return nil, nil
	}
}

func main() {
	ctx := context.Background()
	logger := logging.New(os.Stdout, logging.Options{Level: slog.LevelDebug, Observe: nil})
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
