package training

import (
	"math"
	"time"
)

const progressionWindow = 3

// Progression is the proposed target for the next session of an exercise.
type Progression struct {
	ExerciseID int     `json:"exercise_id"`
	Reps       int     `json:"reps"`
	WeightKg   float64 `json:"weight_kg"`
	Note       string  `json:"note"`
	AverageRPE float64 `json:"average_rpe"`
	BasedOn    int     `json:"based_on"`
}

// SuggestProgression proposes the next reps and weight from the most recent logs, ordered oldest first.
//
// Up to the last three logs are averaged. At least one log is required. Weight carries over from the most recent log.
func SuggestProgression(exerciseID int, logs []ExerciseLog) (Progression, error) {
	if len(logs) == 0 {
		return Progression{}, validationError("exercise %d has no logged history", exerciseID)
	}
	recent := logs[max(0, len(logs)-progressionWindow):]
	var total float64
	for _, l := range recent {
		total += l.RPE
	}
	avg := total / float64(len(recent))
	last := recent[len(recent)-1]

	p := Progression{
		ExerciseID: exerciseID,
		Reps:       last.Reps,
		WeightKg:   last.WeightKg,
		Note:       "",
		AverageRPE: math.Round(avg*100) / 100, //nolint:mnd // two decimals.
		BasedOn:    len(recent),
	}
	switch {
	case avg < 6: //nolint:mnd // RPE threshold.
		p.Reps += 2
		p.Note = "RPE was low"
	case avg < 7.5: //nolint:mnd // RPE threshold.
		p.Reps++
		p.Note = "progressing well"
	case avg < 8.5: //nolint:mnd // RPE threshold.
		p.Note = "good intensity"
	default:
		p.Reps = max(1, p.Reps-1)
		p.Note = "high RPE, consider reducing"
	}
	return p, nil
}

// LogInput is a performed set of an exercise.
type LogInput struct {
	ExerciseID int       `json:"exercise_id"`
	Reps       int       `json:"reps"`
	WeightKg   float64   `json:"weight_kg"`
	RPE        float64   `json:"rpe"`
	Date       time.Time `json:"date"`
}

// Validate rejects out-of-range reps, weight, or RPE.
func (in LogInput) Validate() error {
	if in.Reps < 1 {
		return validationError("reps must be at least 1, got %d", in.Reps)
	}
	if in.WeightKg < 0 || math.IsNaN(in.WeightKg) || math.IsInf(in.WeightKg, 0) {
		return validationError("weight must be a non-negative number, got %v", in.WeightKg)
	}
	if !(in.RPE >= 1 && in.RPE <= 10) { //nolint:mnd // RPE scale.
		return validationError("RPE must be between 1 and 10, got %v", in.RPE)
	}
	if in.Date.IsZero() {
		return validationError("date is required")
	}
	return nil
}
