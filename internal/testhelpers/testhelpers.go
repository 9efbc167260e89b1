// Package testhelpers contains shared helpers for tests.
package testhelpers

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/myrjola/trainingplan/internal/logging"
)

// NewLogger creates a debug level logger writing to logSink such as testhelpers.NewWriter.
func NewLogger(logSink io.Writer) *slog.Logger {
	return logging.New(logSink, logging.Options{Level: slog.LevelDebug, Observe: nil})
}

// Writer implements io.Writer and writes to t.Log so that logs are only shown for failed tests.
type Writer struct {
	t        *testing.T
	testDone chan struct{}
}

// NewWriter creates a Writer that writes to t.Log until the test finishes.
func NewWriter(t *testing.T) io.Writer {
	w := &Writer{
		t:        t,
		testDone: make(chan struct{}),
	}
	t.Cleanup(func() {
		close(w.testDone)
	})
	return w
}

// Write implements io.Writer by writing to t.Log.
func (w *Writer) Write(p []byte) (int, error) {
	select {
	case <-w.testDone:
		panic("testwriter: attempted to write after test completion. Did you forget to stop a goroutine?")
	default:
		output := strings.TrimSuffix(string(p), "\n")
		if output != "" {
			w.t.Log(output)
		}
		return len(p), nil
	}
}

// Date parses a YYYY-MM-DD date in UTC and fails the test on malformed input.
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

// Monday parses a YYYY-MM-DD date and fails the test unless it is a Monday.
func Monday(t *testing.T, s string) time.Time {
	t.Helper()
	d := Date(t, s)
	if d.Weekday() != time.Monday {
		t.Fatalf("%s is a %s, not a Monday", s, d.Weekday())
	}
	return d
}
