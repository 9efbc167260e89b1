// Command smoketest checks that a deployed server answers its read-only JSON API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/myrjola/trainingplan/internal/e2etest"
	"github.com/myrjola/trainingplan/internal/logging"
	"github.com/myrjola/trainingplan/internal/testhelpers"
	"github.com/myrjola/trainingplan/internal/training"
)

const smokeTimeout = 10 * time.Second

// checkAPI fetches the profile, catalog, and periodization state.
func checkAPI(ctx context.Context, client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(ctx, smokeTimeout)
	defer cancel()

	var profile training.Profile
	if err := client.Get(ctx, "/api/profile", &profile); err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	var exercises []training.Exercise
	if err := client.Get(ctx, "/api/exercises", &exercises); err != nil {
		return fmt.Errorf("list exercises: %w", err)
	}
	if len(exercises) == 0 {
		return errors.New("exercise catalog is empty")
	}
	var state training.PeriodizationState
	if err := client.Get(ctx, "/api/periodization", &state); err != nil {
		return fmt.Errorf("get periodization: %w", err)
	}
	return nil
}

// baseURL turns a hostname into a URL. Localhost is served over plain HTTP.
func baseURL(hostname string) string {
	if strings.Contains(hostname, "localhost") {
		return "http://" + hostname
	}
	return "https://" + hostname
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		client   = e2etest.NewClient(baseURL(hostname))
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))

	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}
	if err := checkAPI(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error checking API", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
}
