package main

import (
	"net/http"

	"github.com/myrjola/trainingplan/internal/training"
)

func (app *application) profileGET(w http.ResponseWriter, r *http.Request) {
	p, err := app.service.GetProfile(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, p)
}

func (app *application) profilePUT(w http.ResponseWriter, r *http.Request) {
	var p training.Profile
	if !app.decodeJSON(w, r, &p) {
		return
	}
	if err := app.service.SaveProfile(r.Context(), p); err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, p)
}

func (app *application) periodizationGET(w http.ResponseWriter, r *http.Request) {
	state, err := app.service.GetPeriodization(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, state)
}
