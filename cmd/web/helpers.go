package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/myrjola/trainingplan/internal/contexthelpers"
	"github.com/myrjola/trainingplan/internal/errors"
	"github.com/myrjola/trainingplan/internal/training"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
	TraceID  string `json:"trace_id,omitempty"`
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("marshal response: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(append(b, '\n')); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "write response", errors.SlogError(err))
	}
}

// serverError logs err and answers 500 without leaking err to the client.
func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	category := "internal"
	switch {
	case errors.Is(err, training.ErrPersistence):
		category = "persistence"
	case errors.Is(err, training.ErrDataIntegrity):
		category = "data_integrity"
	}
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", slog.String("category", category),
		errors.SlogError(err))
	app.writeJSON(w, r, http.StatusInternalServerError, errorResponse{
		Error:    http.StatusText(http.StatusInternalServerError),
		Category: category,
		TraceID:  contexthelpers.TraceID(r.Context()),
	})
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, category string, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, "client error", slog.Int("status", status),
		errors.SlogError(err))
	app.writeJSON(w, r, status, errorResponse{
		Error:    err.Error(),
		Category: category,
		TraceID:  contexthelpers.TraceID(r.Context()),
	})
}

// handleError maps the error taxonomy of the training service to HTTP status codes.
func (app *application) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, training.ErrValidation):
		app.clientError(w, r, http.StatusBadRequest, "validation", err)
	case errors.Is(err, training.ErrNotFound):
		app.clientError(w, r, http.StatusNotFound, "not_found", err)
	case errors.Is(err, training.ErrConflict):
		app.clientError(w, r, http.StatusConflict, "conflict", err)
	case errors.Is(err, training.ErrDependencyUnavailable):
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "dependency unavailable", errors.SlogError(err))
		app.writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{
			Error:    err.Error(),
			Category: "dependency_unavailable",
			TraceID:  contexthelpers.TraceID(r.Context()),
		})
	default:
		app.serverError(w, r, err)
	}
}

func (app *application) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	app.clientError(w, r, http.StatusBadRequest, "validation", err)
}

// decodeJSON decodes the request body into v. Unknown fields are rejected.
func (app *application) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request body is empty")
		}
		app.badRequest(w, r, fmt.Errorf("decode request body: %w", err))
		return false
	}
	return true
}

// parseWeekParam parses the "week" path parameter, the Monday a plan starts on.
func (app *application) parseWeekParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	return app.parseDate(w, r, "week", r.PathValue("week"))
}

func (app *application) parseDate(w http.ResponseWriter, r *http.Request, name, value string) (time.Time, bool) {
	date, err := time.Parse(time.DateOnly, value)
	if err != nil {
		app.badRequest(w, r, fmt.Errorf("%s %q is not a YYYY-MM-DD date", name, value))
		return time.Time{}, false
	}
	return date, true
}

// parseIDParam parses the "id" path parameter. Malformed IDs are reported as not found.
func (app *application) parseIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		app.clientError(w, r, http.StatusNotFound, "not_found", fmt.Errorf("no resource with id %q", r.PathValue("id")))
		return 0, false
	}
	return id, true
}
