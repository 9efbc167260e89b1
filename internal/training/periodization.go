package training

import (
	"fmt"
	"time"
)

// Phase is a block of the periodization cycle.
type Phase string

const (
	PhaseAccumulation  Phase = "accumulation"
	PhaseTransmutation Phase = "transmutation"
	PhaseRealization   Phase = "realization"
	PhaseDeload        Phase = "deload"
)

// PhaseConfig holds the defaults of a phase.
type PhaseConfig struct {
	Weeks         int     `json:"weeks"`
	RPEMin        int     `json:"rpe_min"`
	RPEMax        int     `json:"rpe_max"`
	SetMultiplier float64 `json:"set_multiplier"`
	Volume        string  `json:"volume"`
	Intensity     string  `json:"intensity"`
}

//nolint:gochecknoglobals,mnd // immutable reference data.
var phaseConfigs = map[Phase]PhaseConfig{
	PhaseAccumulation:  {Weeks: 3, RPEMin: 6, RPEMax: 7, SetMultiplier: 1.2, Volume: "high", Intensity: "moderate"},
	PhaseTransmutation: {Weeks: 2, RPEMin: 7, RPEMax: 8, SetMultiplier: 1.0, Volume: "moderate", Intensity: "high"},
	PhaseRealization:   {Weeks: 1, RPEMin: 8, RPEMax: 9, SetMultiplier: 0.6, Volume: "low", Intensity: "peak"},
	PhaseDeload:        {Weeks: 1, RPEMin: 5, RPEMax: 6, SetMultiplier: 0.5, Volume: "very low", Intensity: "low"},
}

//nolint:gochecknoglobals // cycle order.
var phaseOrder = []Phase{PhaseAccumulation, PhaseTransmutation, PhaseRealization, PhaseDeload}

// Config returns the defaults of p. Unknown phases get the accumulation defaults.
func (p Phase) Config() PhaseConfig {
	if c, ok := phaseConfigs[p]; ok {
		return c
	}
	return phaseConfigs[PhaseAccumulation]
}

func (p Phase) next() Phase {
	for i, q := range phaseOrder {
		if q == p {
			return phaseOrder[(i+1)%len(phaseOrder)]
		}
	}
	return PhaseAccumulation
}

// PhaseSnapshot is the position in the cycle recorded on a plan.
type PhaseSnapshot struct {
	Phase             Phase `json:"phase"`
	WeekInPhase       int   `json:"week_in_phase"`
	TotalWeeksInPhase int   `json:"total_weeks_in_phase"`
}

// String renders the snapshot as shown to users.
func (s PhaseSnapshot) String() string {
	return fmt.Sprintf("week %d of %d of the %s phase", s.WeekInPhase, s.TotalWeeksInPhase, s.Phase)
}

// PeriodizationState is the single global cycle position. WeekStart is the Monday the state applies to.
//
// Version is used for compare-and-swap writes. A zero version means the state has never been stored.
type PeriodizationState struct {
	CycleStartDate           time.Time  `json:"cycle_start_date"`
	CurrentPhase             Phase      `json:"current_phase"`
	WeekInPhase              int        `json:"week_in_phase"`
	TotalWeeksInPhase        int        `json:"total_weeks_in_phase"`
	WeekStart                time.Time  `json:"week_start"`
	NextDeloadDate           *time.Time `json:"next_deload_date,omitempty"`
	LastDeloadDate           *time.Time `json:"last_deload_date,omitempty"`
	ConsecutiveTrainingWeeks int        `json:"consecutive_training_weeks"`
	Version                  int        `json:"version"`
}

// NewPeriodizationState starts a cycle in the first accumulation week of weekStart.
func NewPeriodizationState(weekStart time.Time) PeriodizationState {
	ws := dateOf(weekStart)
	s := PeriodizationState{
		CycleStartDate:           ws,
		CurrentPhase:             PhaseAccumulation,
		WeekInPhase:              1,
		TotalWeeksInPhase:        PhaseAccumulation.Config().Weeks,
		WeekStart:                ws,
		NextDeloadDate:           nil,
		LastDeloadDate:           nil,
		ConsecutiveTrainingWeeks: 1,
		Version:                  0,
	}
	s.NextDeloadDate = s.nextDeload()
	return s
}

// Snapshot returns the position recorded on plans.
func (s PeriodizationState) Snapshot() PhaseSnapshot {
	return PhaseSnapshot{Phase: s.CurrentPhase, WeekInPhase: s.WeekInPhase, TotalWeeksInPhase: s.TotalWeeksInPhase}
}

// Advance moves the state into the week starting one week after s.WeekStart.
//
// When the current phase has used its budgeted weeks the next phase in the cycle starts at week 1 with its default
// length. Entering deload records the deload date and resets the consecutive training weeks.
func (s PeriodizationState) Advance() PeriodizationState {
	next := s
	next.WeekStart = s.WeekStart.AddDate(0, 0, 7) //nolint:mnd // one week.
	if s.WeekInPhase >= s.TotalWeeksInPhase {
		next.CurrentPhase = s.CurrentPhase.next()
		next.WeekInPhase = 1
		next.TotalWeeksInPhase = next.CurrentPhase.Config().Weeks
		if next.CurrentPhase == PhaseAccumulation {
			next.CycleStartDate = next.WeekStart
		}
	} else {
		next.WeekInPhase++
	}
	if next.CurrentPhase == PhaseDeload {
		if next.WeekInPhase == 1 {
			d := next.WeekStart
			next.LastDeloadDate = &d
		}
		next.ConsecutiveTrainingWeeks = 0
	} else {
		next.ConsecutiveTrainingWeeks++
	}
	next.NextDeloadDate = next.nextDeload()
	return next
}

// AdvanceTo advances s week by week until it applies to weekStart.
//
// It returns the number of weeks advanced. A weekStart before s.WeekStart is rejected with ErrValidation.
func (s PeriodizationState) AdvanceTo(weekStart time.Time) (PeriodizationState, int, error) {
	target := dateOf(weekStart)
	if target.Weekday() != time.Monday {
		return s, 0, validationError("week start %s is not a Monday", target.Format(time.DateOnly))
	}
	days := daysBetween(s.WeekStart, target)
	if days < 0 {
		return s, 0, validationError("week %s is before the current periodization week %s",
			target.Format(time.DateOnly), s.WeekStart.Format(time.DateOnly))
	}
	weeks := days / 7 //nolint:mnd // days per week.
	for range weeks {
		s = s.Advance()
	}
	return s, weeks, nil
}

// nextDeload returns the start of the upcoming deload week, or the one after the current deload.
func (s PeriodizationState) nextDeload() *time.Time {
	weeks := s.TotalWeeksInPhase - s.WeekInPhase + 1
	for p := s.CurrentPhase.next(); p != PhaseDeload; p = p.next() {
		weeks += p.Config().Weeks
	}
	d := s.WeekStart.AddDate(0, 0, 7*weeks) //nolint:mnd // days per week.
	return &d
}
