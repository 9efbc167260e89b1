// Package flightrecorder keeps a rolling execution trace and writes it to disk when a request times out.
package flightrecorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync/atomic"
	"time"
)

const (
	defaultMinAge   = 2 * time.Minute
	defaultMaxBytes = 32 * 1024 * 1024
	defaultCooldown = 30 * time.Minute
)

// Recorder captures at most one trace per cooldown period.
type Recorder struct {
	logger          *slog.Logger
	flightRecorder  *trace.FlightRecorder
	tracesDirectory string
	cooldown        time.Duration
	minAge          time.Duration
	maxBytes        uint64
	// lastCapture is the Unix nanosecond timestamp of the last capture.
	lastCapture atomic.Int64
}

// Config configures the recorder. Zero durations and sizes use the defaults.
type Config struct {
	Logger          *slog.Logger
	MinAge          time.Duration
	MaxBytes        uint64
	Cooldown        time.Duration
	TracesDirectory string
}

// New creates the traces directory when missing and prepares a recorder. Call Start to begin recording.
func New(cfg Config) (*Recorder, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.TracesDirectory == "" {
		return nil, errors.New("traces directory is required")
	}
	stat, err := os.Stat(cfg.TracesDirectory)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err = os.MkdirAll(cfg.TracesDirectory, 0o700); err != nil { //nolint:mnd // owner only.
			return nil, fmt.Errorf("create traces directory: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat traces directory: %w", err)
	case !stat.IsDir():
		return nil, fmt.Errorf("traces path is not a directory: %s", cfg.TracesDirectory)
	}

	r := &Recorder{
		logger:          cfg.Logger,
		flightRecorder:  nil,
		tracesDirectory: cfg.TracesDirectory,
		cooldown:        orDefault(cfg.Cooldown, defaultCooldown),
		minAge:          orDefault(cfg.MinAge, defaultMinAge),
		maxBytes:        orDefault(cfg.MaxBytes, defaultMaxBytes),
		lastCapture:     atomic.Int64{},
	}
	r.flightRecorder = trace.NewFlightRecorder(trace.FlightRecorderConfig{
		MinAge:   r.minAge,
		MaxBytes: r.maxBytes,
	})
	return r, nil
}

func orDefault[T time.Duration | uint64](v, fallback T) T {
	if v == 0 {
		return fallback
	}
	return v
}

// Start begins recording.
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.flightRecorder.Start(); err != nil {
		return fmt.Errorf("start flight recorder: %w", err)
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.Duration("min_age", r.minAge),
		slog.Uint64("max_bytes", r.maxBytes),
		slog.Duration("cooldown", r.cooldown))
	return nil
}

// Stop ends recording.
func (r *Recorder) Stop(ctx context.Context) {
	r.flightRecorder.Stop()
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// Capture writes the recorded trace to <reason>-<timestamp>.trace unless a trace was captured within the cooldown.
// It returns the path of the written file or an empty string.
func (r *Recorder) Capture(ctx context.Context, reason string) string {
	now := time.Now()
	last := r.lastCapture.Load()
	if last > 0 && now.Sub(time.Unix(0, last)) < r.cooldown {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "skipping trace capture during cooldown",
			slog.Time("last_capture", time.Unix(0, last)))
		return ""
	}
	if !r.lastCapture.CompareAndSwap(last, now.UnixNano()) {
		return ""
	}

	path := filepath.Join(r.tracesDirectory, fmt.Sprintf("%s-%s.trace", reason, now.UTC().Format("20060102-150405")))
	file, err := os.Create(path)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to create trace file",
			slog.String("file", path), slog.Any("error", err))
		return ""
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			r.logger.LogAttrs(ctx, slog.LevelError, "failed to close trace file",
				slog.String("file", path), slog.Any("error", closeErr))
		}
	}()

	n, err := r.flightRecorder.WriteTo(file)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to write trace",
			slog.String("file", path), slog.Any("error", err))
		return ""
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured trace",
		slog.String("reason", reason), slog.String("file", path), slog.Int64("bytes", n))
	return path
}
