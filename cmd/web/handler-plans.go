package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/myrjola/trainingplan/internal/training"
)

func (app *application) planGeneratePOST(w http.ResponseWriter, r *http.Request) {
	ws, ok := app.parseWeekParam(w, r)
	if !ok {
		return
	}
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		var err error
		if force, err = strconv.ParseBool(v); err != nil {
			app.badRequest(w, r, err)
			return
		}
	}
	plan, err := app.service.GenerateWeeklyPlan(r.Context(), ws, force)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, plan)
}

func (app *application) planGET(w http.ResponseWriter, r *http.Request) {
	app.planAction(w, r, app.service.GetPlan)
}

func (app *application) planActivatePOST(w http.ResponseWriter, r *http.Request) {
	app.planAction(w, r, app.service.ActivatePlan)
}

func (app *application) planCompletePOST(w http.ResponseWriter, r *http.Request) {
	app.planAction(w, r, app.service.CompletePlan)
}

func (app *application) planAbandonPOST(w http.ResponseWriter, r *http.Request) {
	app.planAction(w, r, app.service.AbandonPlan)
}

func (app *application) planAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(context.Context, time.Time) (training.WeeklyTrainingPlan, error),
) {
	ws, ok := app.parseWeekParam(w, r)
	if !ok {
		return
	}
	plan, err := action(r.Context(), ws)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, plan)
}

func (app *application) justificationGET(w http.ResponseWriter, r *http.Request) {
	level, err := training.ParseDetailLevel(r.URL.Query().Get("detail"))
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	j, err := app.service.GetJustification(r.Context(), r.PathValue("dayID"), level)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, j)
}
