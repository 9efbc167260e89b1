package main

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/trace"
	"time"

	"github.com/myrjola/trainingplan/internal/contexthelpers"
	"github.com/myrjola/trainingplan/internal/errors"
	"github.com/myrjola/trainingplan/internal/logging"
)

// responseRecorder remembers the first status code and counts the body bytes for the request log.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (rr *responseRecorder) WriteHeader(status int) {
	if rr.status == 0 {
		rr.status = status
	}
	rr.ResponseWriter.WriteHeader(status)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if rr.status == 0 {
		rr.status = http.StatusOK
	}
	n, err := rr.ResponseWriter.Write(b)
	rr.written += int64(n)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rr *responseRecorder) Unwrap() http.ResponseWriter {
	return rr.ResponseWriter
}

func (rr *responseRecorder) statusCode() int {
	if rr.status == 0 {
		return http.StatusOK
	}
	return rr.status
}

// secureHeaders sets the headers of a JSON API that is never framed, embedded, or cached.
func secureHeaders(next http.Handler) http.Handler {
	headers := map[string]string{
		"Content-Security-Policy":    "default-src 'none'; frame-ancestors 'none'",
		"Cross-Origin-Opener-Policy": "same-origin",
		"Referrer-Policy":            "no-referrer",
		"X-Content-Type-Options":     "nosniff",
		"X-Frame-Options":            "deny",
		"Cache-Control":              "no-store",
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range headers {
			h.Set(k, v)
		}
		next.ServeHTTP(w, r)
	})
}

// logAndTraceRequest assigns a trace ID, logs one record per request, and runs the request in a runtime/trace task
// named after the matched route so that flight recorder captures group by endpoint.
func (app *application) logAndTraceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		traceID := rand.Text()
		ctx := logging.WithAttrs(r.Context(),
			slog.String("trace_id", traceID),
			slog.String("method", r.Method),
			slog.String("uri", r.URL.RequestURI()),
		)
		taskName := r.Pattern
		if taskName == "" {
			taskName = r.Method + " " + r.URL.Path
		}
		ctx, task := trace.NewTask(ctx, taskName)
		defer task.End()
		r = contexthelpers.SetTraceID(r.WithContext(ctx), traceID)

		rec := &responseRecorder{ResponseWriter: w, status: 0, written: 0}
		next.ServeHTTP(rec, r)

		status := rec.statusCode()
		trace.Logf(ctx, "response", "status=%d bytes=%d", status, rec.written)
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		app.logger.LogAttrs(ctx, level, "request completed",
			slog.String("pattern", r.Pattern),
			slog.Int("status_code", status),
			slog.Int64("bytes", rec.written),
			slog.Duration("duration", time.Since(start)))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if excp := recover(); excp != nil {
				app.serverError(w, r, errors.DecoratePanic(excp))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// crossOriginProtection rejects cross-origin browser requests that change state.
func (app *application) crossOriginProtection(next http.Handler) http.Handler {
	protection := http.NewCrossOriginProtection()
	return protection.Handler(next)
}

// timeout times out the request and cancels the context using http.TimeoutHandler. A trace is captured when the
// flight recorder is enabled.
func (app *application) timeout(next http.Handler) http.Handler {
	timeout := requestTimeout - (200 * time.Millisecond) //nolint:mnd // writing the response takes time.
	h := http.TimeoutHandler(next, timeout, `{"error":"timed out","category":"dependency_unavailable"}`)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h.ServeHTTP(w, r)
		if app.flightRecorder != nil && time.Since(start) >= timeout {
			app.flightRecorder.Capture(r.Context(), "timeout")
		}
	})
}
