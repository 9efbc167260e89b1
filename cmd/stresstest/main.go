// Command stresstest runs concurrent goal and plan scenarios against a server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/myrjola/trainingplan/internal/e2etest"
	"github.com/myrjola/trainingplan/internal/logging"
	"github.com/myrjola/trainingplan/internal/testhelpers"
	"github.com/myrjola/trainingplan/internal/training"
	"golang.org/x/sync/errgroup"
)

const (
	scenarioTimeout         = 30 * time.Second
	maxConcurrentOperations = 20
	defaultScenarios        = 50
	successRateThreshold    = 95.0
	percentageMultiplier    = 100
	expectedArgsCount       = 2
	pushUpExerciseID        = 1
)

// Scenario creates a goal, records progress, generates this week's plan, logs an exercise, and deletes the goal.
// A plan that is already committed counts as success.
func Scenario(ctx context.Context, client *e2etest.Client, index int, week time.Time) error {
	var detail training.GoalDetail
	if err := client.Post(ctx, "/api/goals", map[string]any{
		"title":        fmt.Sprintf("Stress goal %d", index),
		"description":  "Do more push-ups",
		"start_value":  10,
		"target_value": 30,
		"unit":         "reps",
	}, &detail); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	goalPath := "/api/goals/" + strconv.Itoa(detail.Goal.ID)
	defer func() {
		_ = client.JSON(context.WithoutCancel(ctx), http.MethodDelete, goalPath, nil, nil)
	}()

	if err := client.Post(ctx, goalPath+"/progress", map[string]any{"value": 10 + index%20}, &detail); err != nil {
		return fmt.Errorf("log goal progress: %w", err)
	}

	plan := "/api/plans/" + week.Format(time.DateOnly)
	err := client.Post(ctx, plan+"/generate", nil, nil)
	if err != nil && e2etest.StatusCode(err) != http.StatusConflict {
		return fmt.Errorf("generate plan: %w", err)
	}
	if err = client.Get(ctx, plan, nil); err != nil {
		return fmt.Errorf("get plan: %w", err)
	}

	if err = client.Post(ctx, fmt.Sprintf("/api/exercises/%d/logs", pushUpExerciseID), map[string]any{
		"reps": 8 + index%8, "weight_kg": 0, "rpe": 7, //nolint:mnd // 8-15 reps.
	}, nil); err != nil {
		return fmt.Errorf("log exercise: %w", err)
	}
	if err = client.Get(ctx, fmt.Sprintf("/api/exercises/%d/progression", pushUpExerciseID), nil); err != nil {
		return fmt.Errorf("suggest progression: %w", err)
	}
	return nil
}

// RunLoadTest runs scenarios concurrently and fails when too many of them fail.
func RunLoadTest(ctx context.Context, client *e2etest.Client, scenarios int, logger *slog.Logger) error {
	logger.LogAttrs(ctx, slog.LevelInfo, "Starting load test", slog.Int("scenarios", scenarios))

	var successCount, failureCount atomic.Int64
	week := mondayOf(time.Now())

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	for i := range scenarios {
		g.Go(func() error {
			scenarioCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
			defer cancel()

			if err := Scenario(scenarioCtx, client, i, week); err != nil {
				failureCount.Add(1)
				logger.LogAttrs(scenarioCtx, slog.LevelWarn, "Scenario failed",
					slog.Int("scenario", i), slog.Any("error", err))
				return nil
			}
			successCount.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load test failed: %w", err)
	}

	successRate := float64(successCount.Load()) / float64(scenarios) * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("failed", failureCount.Load()),
		slog.Float64("success_rate", successRate))
	if successRate < successRateThreshold {
		return fmt.Errorf("load test failed: success rate %.1f%% below threshold", successRate)
	}
	return nil
}

func mondayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7)) //nolint:mnd // days since Monday.
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != expectedArgsCount {
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
		url      = "https://" + hostname
	)
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	client := e2etest.NewClient(url)

	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}
	if err := RunLoadTest(ctx, client, defaultScenarios, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed successfully 🙌",
		slog.Duration("total_duration", time.Since(start)),
		slog.Int("scenarios", defaultScenarios))
}
