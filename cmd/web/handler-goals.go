package main

import (
	"net/http"
	"time"

	"github.com/myrjola/trainingplan/internal/training"
)

type classifyRequest struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (app *application) goalClassifyPOST(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	tt, err := app.service.ClassifyGoal(req.Description, req.Category)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, tt)
}

type goalRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	StartValue   float64  `json:"start_value"`
	CurrentValue *float64 `json:"current_value"`
	TargetValue  float64  `json:"target_value"`
	Unit         string   `json:"unit"`
	// Deadline is an optional YYYY-MM-DD date.
	Deadline string `json:"deadline"`
}

func (app *application) goalCreatePOST(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	in := training.GoalInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		StartValue:   req.StartValue,
		CurrentValue: req.CurrentValue,
		TargetValue:  req.TargetValue,
		Unit:         req.Unit,
		Deadline:     nil,
	}
	if req.Deadline != "" {
		deadline, ok := app.parseDate(w, r, "deadline", req.Deadline)
		if !ok {
			return
		}
		in.Deadline = &deadline
	}
	detail, err := app.service.CreateGoal(r.Context(), in)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, detail)
}

func (app *application) goalsGET(w http.ResponseWriter, r *http.Request) {
	goals, err := app.service.ListGoals(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, goals)
}

func (app *application) goalGET(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	detail, err := app.service.GetGoal(r.Context(), id)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, detail)
}

func (app *application) goalDELETE(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	if err := app.service.DeleteGoal(r.Context(), id); err != nil {
		app.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type progressRequest struct {
	Value float64 `json:"value"`
	// Date defaults to today.
	Date string `json:"date"`
}

func (app *application) goalProgressPOST(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	var req progressRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	date := time.Now().UTC()
	if req.Date != "" {
		if date, ok = app.parseDate(w, r, "date", req.Date); !ok {
			return
		}
	}
	detail, err := app.service.LogGoalProgress(r.Context(), id, req.Value, date)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, detail)
}

type statusRequest struct {
	Status training.GoalStatus `json:"status"`
}

func (app *application) goalStatusPOST(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	detail, err := app.service.SetGoalStatus(r.Context(), id, req.Status)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, detail)
}

type targetRequest struct {
	StartValue  float64 `json:"start_value"`
	TargetValue float64 `json:"target_value"`
}

func (app *application) goalTargetPOST(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	var req targetRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	detail, err := app.service.UpdateGoalTarget(r.Context(), id, req.StartValue, req.TargetValue)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, detail)
}

func (app *application) goalMilestonesPOST(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	detail, err := app.service.GenerateMilestones(r.Context(), id)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, detail)
}
