package main

import (
	"net/http"

	"github.com/myrjola/trainingplan/internal/contexthelpers"
)

// healthy responds with a JSON object indicating that the server is healthy.
func (app *application) healthy(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusNotFound, errorResponse{
		Error:    http.StatusText(http.StatusNotFound),
		Category: "not_found",
		TraceID:  contexthelpers.TraceID(r.Context()),
	})
}
