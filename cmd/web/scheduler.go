package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/myrjola/trainingplan/internal/errors"
	"github.com/myrjola/trainingplan/internal/training"
	"github.com/robfig/cron"
)

// schedulePregeneration drafts next week's plan on every tick of the cron spec. Runs are serialized. The returned
// stop function waits for a running generation to finish, and ticks queued behind it are dropped.
func (app *application) schedulePregeneration(ctx context.Context, spec string) (func(), error) {
	c := cron.NewWithLocation(time.UTC)
	c.ErrorLog = slog.NewLogLogger(app.logger.Handler(), slog.LevelError)

	var (
		mu      sync.Mutex
		stopped bool
	)
	err := c.AddFunc(spec, func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		app.pregenerate(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "add cron job")
	}
	c.Start()
	app.logger.LogAttrs(ctx, slog.LevelInfo, "scheduled pregeneration", slog.String("spec", spec))

	return func() {
		c.Stop()
		mu.Lock()
		stopped = true
		mu.Unlock()
	}, nil
}

func (app *application) pregenerate(ctx context.Context) {
	start := time.Now()
	plan, err := app.service.PregenerateNextWeek(ctx)
	switch {
	case errors.Is(err, training.ErrConflict):
		app.logger.LogAttrs(ctx, slog.LevelInfo, "next week already has a committed plan", errors.SlogError(err))
	case err != nil:
		app.metrics.ScheduledGenerationFailed()
		app.logger.LogAttrs(ctx, slog.LevelError, "pregenerate next week", errors.SlogError(err))
	default:
		app.logger.LogAttrs(ctx, slog.LevelInfo, "pregenerated next week",
			slog.String("week_start", plan.WeekStart.Format(time.DateOnly)),
			slog.Int("version", plan.Version),
			slog.Duration("duration", time.Since(start)))
	}
}
