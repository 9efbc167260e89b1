package main

import (
	"net/http"
	"time"

	"github.com/myrjola/trainingplan/internal/training"
)

func (app *application) exercisesGET(w http.ResponseWriter, r *http.Request) {
	exercises, err := app.service.ListExercises(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, exercises)
}

type logRequest struct {
	Reps     int     `json:"reps"`
	WeightKg float64 `json:"weight_kg"`
	RPE      float64 `json:"rpe"`
	// Date defaults to today.
	Date string `json:"date"`
}

func (app *application) exerciseLogPOST(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	var req logRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	date := time.Now().UTC()
	if req.Date != "" {
		if date, ok = app.parseDate(w, r, "date", req.Date); !ok {
			return
		}
	}
	l, err := app.service.LogExercise(r.Context(), training.LogInput{
		ExerciseID: id,
		Reps:       req.Reps,
		WeightKg:   req.WeightKg,
		RPE:        req.RPE,
		Date:       date,
	})
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, l)
}

func (app *application) exerciseProgressionGET(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	p, err := app.service.SuggestProgression(r.Context(), id)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, p)
}

// activitiesGET lists the cached calendar activities dated from "from" through "to".
func (app *application) activitiesGET(w http.ResponseWriter, r *http.Request) {
	from, ok := app.parseDate(w, r, "from", r.URL.Query().Get("from"))
	if !ok {
		return
	}
	to, ok := app.parseDate(w, r, "to", r.URL.Query().Get("to"))
	if !ok {
		return
	}
	activities, err := app.service.ListActivities(r.Context(), from, to)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, activities)
}
