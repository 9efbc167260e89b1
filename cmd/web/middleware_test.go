package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/myrjola/trainingplan/internal/contexthelpers"
	"github.com/myrjola/trainingplan/internal/logging"
)

func Test_application_timeout(t *testing.T) {
	tests := []struct {
		name     string
		sleep    time.Duration
		timesOut bool
	}{
		{name: "completes within timeout", sleep: 500 * time.Millisecond, timesOut: false},
		{name: "times out", sleep: 12 * time.Second, timesOut: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				app := &application{ //nolint:exhaustruct // this is a test
					logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
				}
				handler := app.timeout(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					select {
					case <-time.After(tt.sleep):
						_, _ = w.Write([]byte(`{"status":"ok"}`))
					case <-r.Context().Done():
					}
				}))

				w := httptest.NewRecorder()
				handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/plans/2025-01-06/generate", nil))

				if tt.timesOut {
					if w.Code != http.StatusServiceUnavailable {
						t.Errorf("Expected status 503 on timeout, got %d", w.Code)
					}
					if !strings.Contains(w.Body.String(), "timed out") {
						t.Errorf("Expected timeout message in response body, got: %s", w.Body.String())
					}
				} else if w.Code != http.StatusOK {
					t.Errorf("Expected status 200, got %d", w.Code)
				}
			})
		})
	}
}

func Test_application_logAndTraceRequest(t *testing.T) {
	app := &application{ //nolint:exhaustruct // this is a test
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	var traceID string
	handler := app.logAndTraceRequest(secureHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = contexthelpers.TraceID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profile", nil))

	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTeapot)
	}
	if traceID == "" {
		t.Error("trace ID missing from the request context")
	}
	for header, want := range map[string]string{
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "deny",
		"Cache-Control":           "no-store",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func Test_application_logAndTraceRequest_completed(t *testing.T) {
	var buf bytes.Buffer
	app := &application{ //nolint:exhaustruct // this is a test
		logger: logging.New(&buf, logging.Options{Level: slog.LevelDebug, Observe: nil}),
	}
	mux := http.NewServeMux()
	mux.Handle("GET /api/goals/{id}", app.logAndTraceRequest(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	})))

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/goals/3", nil))

	line := buf.String()
	for _, want := range []string{
		"level=WARN",
		`msg="request completed"`,
		`pattern="GET /api/goals/{id}"`,
		"status_code=404",
		"bytes=7",
		"uri=/api/goals/3",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("expected %q to contain %q", line, want)
		}
	}
}
