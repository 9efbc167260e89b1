package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/myrjola/trainingplan/internal/errors"
	"github.com/myrjola/trainingplan/internal/training"
)

func Test_application_handleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantCategory string
	}{
		{"validation", fmt.Errorf("add goal: %w", training.ErrValidation), http.StatusBadRequest, "validation"},
		{"not found", fmt.Errorf("load goal: %w", training.ErrNotFound), http.StatusNotFound, "not_found"},
		{"persistence", fmt.Errorf("save plan: %w", training.ErrPersistence), http.StatusInternalServerError,
			"persistence"},
		{"data integrity", fmt.Errorf("load plan: %w", training.ErrDataIntegrity), http.StatusInternalServerError,
			"data_integrity"},
		{"outside the taxonomy", errors.New("template missing"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &application{ //nolint:exhaustruct // this is a test
				logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
			}
			rec := httptest.NewRecorder()
			app.handleError(rec, httptest.NewRequest(http.MethodGet, "/api/plans/2025-01-06", nil), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var got errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if got.Category != tt.wantCategory {
				t.Errorf("category = %q, want %q", got.Category, tt.wantCategory)
			}
			if tt.wantStatus == http.StatusInternalServerError && got.Error != "Internal Server Error" {
				t.Errorf("500 body leaks %q", got.Error)
			}
		})
	}
}

func Test_application_recoverPanic(t *testing.T) {
	app := &application{ //nolint:exhaustruct // this is a test
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	handler := app.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/goals", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var got errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Category != "internal" {
		t.Errorf("category = %q, want internal", got.Category)
	}
}
