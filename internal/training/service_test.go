package training_test

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/myrjola/trainingplan/internal/errors"
	"github.com/myrjola/trainingplan/internal/ptr"
	"github.com/myrjola/trainingplan/internal/sqlite"
	"github.com/myrjola/trainingplan/internal/testhelpers"
	"github.com/myrjola/trainingplan/internal/training"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCalendar struct {
	mu         sync.Mutex
	records    []training.CalendarRecord
	err        error
	block      bool
	publishErr error
	published  []training.WorkoutEvent
}

func (c *fakeCalendar) Activities(ctx context.Context, from, to time.Time) ([]training.CalendarRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.block {
		<-ctx.Done()
		return nil, fmt.Errorf("list events: %w", ctx.Err())
	}
	if c.err != nil {
		return nil, c.err
	}
	var records []training.CalendarRecord
	for _, r := range c.records {
		if !r.Date.Before(from) && r.Date.Before(to) {
			records = append(records, r)
		}
	}
	return records, nil
}

func (c *fakeCalendar) PublishWorkout(_ context.Context, event training.WorkoutEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, event)
	return nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes []string
	degraded int
	warnings map[string]int
}

func (m *fakeMetrics) PlanGenerated(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *fakeMetrics) CalendarDegraded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degraded++
}

func (m *fakeMetrics) PlanWarning(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.warnings == nil {
		m.warnings = make(map[string]int)
	}
	m.warnings[kind]++
}

// now is a Wednesday so that the current week starts on 2025-01-06.
var now = time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // test clock.

type serviceConfig struct {
	calendar *fakeCalendar
	metrics  *fakeMetrics
	timeout  time.Duration
}

func newTestService(t *testing.T, cfg serviceConfig) *training.Service {
	t.Helper()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	db, err := sqlite.NewDatabase(t.Context(), ":memory:", logger)
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	t.Cleanup(func() {
		if err = db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	serviceCfg := training.ServiceConfig{
		Calendar:        nil,
		CalendarTimeout: cfg.timeout,
		Metrics:         nil,
		Now:             func() time.Time { return now },
	}
	if cfg.calendar != nil {
		serviceCfg.Calendar = cfg.calendar
	}
	if cfg.metrics != nil {
		serviceCfg.Metrics = cfg.metrics
	}
	return training.NewService(db, logger, serviceCfg)
}

func saveBeginnerProfile(t *testing.T, svc *training.Service) {
	t.Helper()
	err := svc.SaveProfile(t.Context(), training.Profile{
		FitnessLevel:        training.LevelBeginner,
		Equipment:           []training.Equipment{training.EquipmentDumbbells, training.EquipmentResistanceBand},
		Exclusions:          nil,
		TrainingDays:        nil,
		RecoveryWindowHours: 24,
	})
	if err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}
}

func createGoal(t *testing.T, svc *training.Service, in training.GoalInput) training.GoalDetail {
	t.Helper()
	detail, err := svc.CreateGoal(t.Context(), in)
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	return detail
}

func generate(t *testing.T, svc *training.Service, weekStart time.Time, force bool) training.WeeklyTrainingPlan {
	t.Helper()
	plan, err := svc.GenerateWeeklyPlan(t.Context(), weekStart, force)
	if err != nil {
		t.Fatalf("GenerateWeeklyPlan(%s) error = %v", weekStart.Format(time.DateOnly), err)
	}
	return plan
}

func bjjOnTuesday(t *testing.T) training.CalendarRecord {
	t.Helper()
	return training.CalendarRecord{
		SourceID:        "bjj-2025-01-07",
		Date:            testhelpers.Date(t, "2025-01-07"),
		Name:            "BJJ",
		Notes:           "competition class #high",
		Intensity:       "",
		DurationMinutes: 90,
		Recurring:       true,
	}
}

func TestService_GoalLifecycle(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	svc := newTestService(t, serviceConfig{})

	created := createGoal(t, svc, training.GoalInput{
		Title: "Deadlift 140 kg", StartValue: 100, TargetValue: 140, Unit: "kg",
	})
	if created.Goal.Category != training.CategoryStrength || created.Goal.Status != training.GoalActive {
		t.Errorf("goal = %s %s, want an active strength goal", created.Goal.Category, created.Goal.Status)
	}
	if !created.Goal.CreatedAt.Equal(now) || created.Goal.CurrentValue != 100 {
		t.Errorf("goal = created %s current %v", created.Goal.CreatedAt, created.Goal.CurrentValue)
	}
	if diff := cmp.Diff([]float64{110, 120, 130, 140}, milestoneTargets(created.Milestones)); diff != "" {
		t.Errorf("milestones mismatch (-want +got):\n%s", diff)
	}
	id := created.Goal.ID

	detail, err := svc.LogGoalProgress(ctx, id, 125, testhelpers.Date(t, "2025-01-08"))
	if err != nil {
		t.Fatalf("LogGoalProgress() error = %v", err)
	}
	if detail.Progress != 62.5 {
		t.Errorf("Progress = %v, want 62.5", detail.Progress)
	}
	for i, m := range detail.Milestones {
		achieved := i < 2
		if (m.Status == training.MilestoneAchieved) != achieved {
			t.Errorf("milestone %v status = %s", m.TargetValue, m.Status)
		}
		if achieved && (m.AchievedDate == nil || !m.AchievedDate.Equal(testhelpers.Date(t, "2025-01-08"))) {
			t.Errorf("milestone %v achieved on %v", m.TargetValue, m.AchievedDate)
		}
	}

	detail, err = svc.LogGoalProgress(ctx, id, 140, time.Time{})
	if err != nil {
		t.Fatalf("LogGoalProgress() error = %v", err)
	}
	if detail.Goal.Status != training.GoalAchieved || detail.Progress != 100 {
		t.Errorf("goal = %s at %v%%, want achieved at 100%%", detail.Goal.Status, detail.Progress)
	}

	detail, err = svc.UpdateGoalTarget(ctx, id, 100, 160)
	if err != nil {
		t.Fatalf("UpdateGoalTarget() error = %v", err)
	}
	if diff := cmp.Diff([]float64{110, 120, 130, 140, 145, 160}, milestoneTargets(detail.Milestones)); diff != "" {
		t.Errorf("milestones mismatch (-want +got):\n%s", diff)
	}
	for i, m := range detail.Milestones[:4] {
		if m.ID != created.Milestones[i].ID || m.Status != training.MilestoneAchieved {
			t.Errorf("achieved milestone %d = %+v, want it kept", i, m)
		}
	}
	if detail.Goal.Status != training.GoalActive || detail.Progress != 66.67 {
		t.Errorf("goal = %s at %v%%, want active at 66.67%%", detail.Goal.Status, detail.Progress)
	}

	if _, err = svc.SetGoalStatus(ctx, id, training.GoalPaused); err != nil {
		t.Fatalf("SetGoalStatus() error = %v", err)
	}
	goals, err := svc.ListGoals(ctx)
	if err != nil {
		t.Fatalf("ListGoals() error = %v", err)
	}
	if len(goals) != 1 || goals[0].Status != training.GoalPaused {
		t.Errorf("ListGoals() = %+v, want the paused goal", goals)
	}
	if _, err = svc.SetGoalStatus(ctx, id, "forgotten"); !errors.Is(err, training.ErrValidation) {
		t.Errorf("SetGoalStatus(forgotten) error = %v, want ErrValidation", err)
	}

	if err = svc.DeleteGoal(ctx, id); err != nil {
		t.Fatalf("DeleteGoal() error = %v", err)
	}
	if _, err = svc.GetGoal(ctx, id); !errors.Is(err, training.ErrNotFound) {
		t.Errorf("GetGoal() after delete error = %v, want ErrNotFound", err)
	}
	if err = svc.DeleteGoal(ctx, id); !errors.Is(err, training.ErrNotFound) {
		t.Errorf("DeleteGoal() twice error = %v, want ErrNotFound", err)
	}
}

func TestService_CreateGoal_WithDeadline(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, serviceConfig{})

	created := createGoal(t, svc, training.GoalInput{
		Title: "Run a faster 5k", StartValue: 30, TargetValue: 25, Unit: "min",
		Deadline: ptr.Ref(testhelpers.Date(t, "2025-03-08")),
	})
	if created.Goal.Category != training.Category5kTime {
		t.Errorf("Category = %s, want %s", created.Goal.Category, training.Category5kTime)
	}
	last := created.Milestones[len(created.Milestones)-1]
	if last.TargetDate == nil || !last.TargetDate.Equal(testhelpers.Date(t, "2025-03-08")) {
		t.Errorf("final milestone date = %v, want the deadline", last.TargetDate)
	}

	got, err := svc.GetGoal(t.Context(), created.Goal.ID)
	if err != nil {
		t.Fatalf("GetGoal() error = %v", err)
	}
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("GetGoal() mismatch (-created +got):\n%s", diff)
	}
}

func TestService_CreateGoal_Validation(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, serviceConfig{})

	tests := map[string]training.GoalInput{
		"empty title":      {Title: "   ", TargetValue: 1},
		"long title":       {Title: strings.Repeat("x", 201), TargetValue: 1},
		"unknown category": {Title: "Jump", Category: "telekinesis", TargetValue: 1},
		"nan target":       {Title: "Jump", TargetValue: math.NaN()},
		"infinite current": {Title: "Jump", TargetValue: 1, CurrentValue: ptr.Ref(math.Inf(1))},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := svc.CreateGoal(t.Context(), in); !errors.Is(err, training.ErrValidation) {
				t.Errorf("CreateGoal() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestService_Profile(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	svc := newTestService(t, serviceConfig{})

	got, err := svc.GetProfile(ctx)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.FitnessLevel != training.LevelBeginner || got.RecoveryWindowHours != 24 {
		t.Errorf("default profile = %+v", got)
	}

	want := training.Profile{
		FitnessLevel:        training.LevelAdvanced,
		Equipment:           []training.Equipment{training.EquipmentBarbell, training.EquipmentBench},
		Exclusions:          []training.BodyArea{training.BodyAreaShoulders},
		TrainingDays:        []time.Weekday{time.Monday, time.Thursday, time.Saturday},
		RecoveryWindowHours: 48,
	}
	if err = svc.SaveProfile(ctx, want); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}
	if got, err = svc.GetProfile(ctx); err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetProfile() mismatch (-want +got):\n%s", diff)
	}

	want.RecoveryWindowHours = 72
	if err = svc.SaveProfile(ctx, want); !errors.Is(err, training.ErrValidation) {
		t.Errorf("SaveProfile(72h window) error = %v, want ErrValidation", err)
	}
}

func TestService_GenerateWeeklyPlan(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	calendar := &fakeCalendar{records: []training.CalendarRecord{bjjOnTuesday(t)}}
	metrics := &fakeMetrics{}
	svc := newTestService(t, serviceConfig{calendar: calendar, metrics: metrics})
	saveBeginnerProfile(t, svc)
	goal := createGoal(t, svc, training.GoalInput{Title: "Get fit", StartValue: 0, TargetValue: 10})
	ws := testhelpers.Monday(t, "2025-01-06")

	plan := generate(t, svc, ws, false)

	wantKinds := []training.DayKind{
		training.DayRecovery, training.DayExternal, training.DayRecovery, training.DayRest, training.DayWorkout,
		training.DayRest, training.DayRest,
	}
	if diff := cmp.Diff(wantKinds, dayKinds(plan)); diff != "" {
		t.Fatalf("day kinds mismatch (-want +got):\n%s", diff)
	}
	if plan.Status != training.PlanDraft || plan.Version != 1 || !plan.CreatedAt.Equal(now) {
		t.Errorf("plan = %s v%d created %s", plan.Status, plan.Version, plan.CreatedAt)
	}
	if diff := cmp.Diff([]int{goal.Goal.ID}, plan.GoalIDs); diff != "" {
		t.Errorf("GoalIDs mismatch (-want +got):\n%s", diff)
	}
	if got := plan.Days[1].Activities[0]; got.Type != training.ActivityJiuJitsu || got.LoadScore != 10 {
		t.Errorf("Tuesday activity = %+v", got)
	}

	stored, err := svc.GetPlan(ctx, ws)
	if err != nil {
		t.Fatalf("GetPlan() error = %v", err)
	}
	if diff := cmp.Diff(plan, stored); diff != "" {
		t.Errorf("stored plan mismatch (-generated +stored):\n%s", diff)
	}

	state, err := svc.GetPeriodization(ctx)
	if err != nil {
		t.Fatalf("GetPeriodization() error = %v", err)
	}
	if state.Version != 1 || !state.WeekStart.Equal(ws) || state.CurrentPhase != training.PhaseAccumulation {
		t.Errorf("periodization = %+v, want the first accumulation week stored", state)
	}

	activities, err := svc.ListActivities(ctx, ws, ws.AddDate(0, 0, 6))
	if err != nil {
		t.Fatalf("ListActivities() error = %v", err)
	}
	if len(activities) != 1 || activities[0].SourceID != "bjj-2025-01-07" {
		t.Errorf("ListActivities() = %+v, want the cached BJJ class", activities)
	}

	if diff := cmp.Diff([]string{"success"}, metrics.outcomes); diff != "" {
		t.Errorf("metric outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestService_GenerateWeeklyPlan_Regeneration(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	calendar := &fakeCalendar{records: []training.CalendarRecord{bjjOnTuesday(t)}}
	metrics := &fakeMetrics{}
	svc := newTestService(t, serviceConfig{calendar: calendar, metrics: metrics})
	saveBeginnerProfile(t, svc)
	ws := testhelpers.Monday(t, "2025-01-06")

	first := generate(t, svc, ws, false)
	second := generate(t, svc, ws, false)
	if second.Version != 2 || second.ID == first.ID {
		t.Errorf("regenerated draft = %s v%d, want a new plan with version 2", second.ID, second.Version)
	}
	if _, err := svc.GetJustification(ctx, first.Days[0].ID, training.DetailBrief); !errors.Is(err,
		training.ErrNotFound) {
		t.Errorf("justification of a replaced plan error = %v, want ErrNotFound", err)
	}

	active, err := svc.ActivatePlan(ctx, ws)
	if err != nil {
		t.Fatalf("ActivatePlan() error = %v", err)
	}
	if active.Status != training.PlanActive || active.Version != 3 {
		t.Errorf("activated plan = %s v%d", active.Status, active.Version)
	}
	if got := len(calendar.published); got != 3 {
		t.Errorf("published %d calendar events, want 2 recovery days and 1 workout", got)
	}

	if _, err = svc.GenerateWeeklyPlan(ctx, ws, false); !errors.Is(err, training.ErrConflict) {
		t.Fatalf("GenerateWeeklyPlan() on an active plan error = %v, want ErrConflict", err)
	}
	stillActive, err := svc.GetPlan(ctx, ws)
	if err != nil {
		t.Fatalf("GetPlan() error = %v", err)
	}
	if diff := cmp.Diff(active, stillActive); diff != "" {
		t.Errorf("conflicting generation changed the plan (-want +got):\n%s", diff)
	}

	forced := generate(t, svc, ws, true)
	if forced.Status != training.PlanDraft || forced.Version != 4 {
		t.Errorf("forced plan = %s v%d, want a draft with version 4", forced.Status, forced.Version)
	}
	state, err := svc.GetPeriodization(ctx)
	if err != nil {
		t.Fatalf("GetPeriodization() error = %v", err)
	}
	if state.Version != 1 || forced.Phase != first.Phase {
		t.Errorf("regeneration moved the periodization state to %+v", state)
	}
	if diff := cmp.Diff([]string{"success", "success", "conflict", "success"}, metrics.outcomes); diff != "" {
		t.Errorf("metric outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestService_GenerateWeeklyPlan_AdvancesPeriodization(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	svc := newTestService(t, serviceConfig{})
	saveBeginnerProfile(t, svc)
	ws := testhelpers.Monday(t, "2025-01-06")

	generate(t, svc, ws, false)
	next := generate(t, svc, ws.AddDate(0, 0, 7), false)
	if next.Phase.Phase != training.PhaseAccumulation || next.Phase.WeekInPhase != 2 {
		t.Errorf("next week phase = %s", next.Phase)
	}

	later := generate(t, svc, ws.AddDate(0, 0, 28), false)
	if later.Phase.Phase != training.PhaseTransmutation || later.Phase.WeekInPhase != 2 {
		t.Errorf("week 5 phase = %s, want week 2 of transmutation", later.Phase)
	}
	state, err := svc.GetPeriodization(ctx)
	if err != nil {
		t.Fatalf("GetPeriodization() error = %v", err)
	}
	if state.Version != 3 || !state.WeekStart.Equal(ws.AddDate(0, 0, 28)) {
		t.Errorf("periodization = v%d at %s", state.Version, state.WeekStart)
	}

	// An existing week keeps its snapshot even though the state has moved on.
	again := generate(t, svc, ws, false)
	if again.Phase.WeekInPhase != 1 || again.Phase.Phase != training.PhaseAccumulation {
		t.Errorf("regenerated first week phase = %s", again.Phase)
	}

	if _, err = svc.GenerateWeeklyPlan(ctx, ws.AddDate(0, 0, 14), false); !errors.Is(err, training.ErrValidation) {
		t.Errorf("GenerateWeeklyPlan() for a skipped week error = %v, want ErrValidation", err)
	}
	if _, err = svc.GenerateWeeklyPlan(ctx, ws.AddDate(0, 0, 2), false); !errors.Is(err, training.ErrValidation) {
		t.Errorf("GenerateWeeklyPlan(wednesday) error = %v, want ErrValidation", err)
	}
}

func TestService_GenerateWeeklyPlan_DegradedCalendar(t *testing.T) {
	t.Parallel()

	tests := map[string]*fakeCalendar{
		"error":   {err: fmt.Errorf("calendar api: 503 backend error")},
		"timeout": {block: true},
	}
	for name, calendar := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			metrics := &fakeMetrics{}
			svc := newTestService(t, serviceConfig{calendar: calendar, metrics: metrics, timeout: 20 * time.Millisecond})
			saveBeginnerProfile(t, svc)

			plan := generate(t, svc, testhelpers.Monday(t, "2025-01-06"), false)
			if !plan.CalendarDegraded {
				t.Errorf("CalendarDegraded = false, want true")
			}
			if len(plan.Warnings) == 0 || plan.Warnings[0].Kind != training.WarningCalendarUnavailable {
				t.Errorf("Warnings = %+v, want calendar_unavailable first", plan.Warnings)
			}
			for _, d := range plan.Days {
				if d.Kind == training.DayExternal || d.Kind == training.DayRecovery {
					t.Errorf("%s = %s without calendar data", d.Date, d.Kind)
				}
			}
			if metrics.degraded != 1 || metrics.warnings[string(training.WarningCalendarUnavailable)] != 1 {
				t.Errorf("metrics = %d degraded, warnings %v", metrics.degraded, metrics.warnings)
			}
		})
	}
}

func TestService_GenerateWeeklyPlan_CancelledCallerLeavesSharedGeneration(t *testing.T) {
	t.Parallel()
	// The calendar stalls every generation until its timeout, long enough for both callers to share it.
	calendar := &fakeCalendar{block: true}
	metrics := &fakeMetrics{}
	svc := newTestService(t, serviceConfig{calendar: calendar, metrics: metrics, timeout: 300 * time.Millisecond})
	saveBeginnerProfile(t, svc)
	ws := testhelpers.Monday(t, "2025-01-06")

	leaving, leave := context.WithCancel(t.Context())
	leftErr := make(chan error, 1)
	go func() {
		_, err := svc.GenerateWeeklyPlan(leaving, ws, false)
		leftErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	type result struct {
		plan training.WeeklyTrainingPlan
		err  error
	}
	waited := make(chan result, 1)
	go func() {
		plan, err := svc.GenerateWeeklyPlan(t.Context(), ws, false)
		waited <- result{plan, err}
	}()
	time.Sleep(20 * time.Millisecond)
	leave()

	select {
	case err := <-leftErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("cancelled caller error = %v, want context.Canceled", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("cancelled caller kept waiting on the shared generation")
	}

	res := <-waited
	if res.err != nil {
		t.Fatalf("waiting caller error = %v", res.err)
	}
	plan := res.plan
	if !plan.CalendarDegraded || plan.Version != 1 {
		t.Errorf("plan = v%d degraded %v, want the first degraded draft", plan.Version, plan.CalendarDegraded)
	}
	stored, err := svc.GetPlan(t.Context(), ws)
	if err != nil {
		t.Fatalf("GetPlan() error = %v", err)
	}
	if stored.ID != plan.ID {
		t.Errorf("stored plan %s, want %s", stored.ID, plan.ID)
	}
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if diff := cmp.Diff([]string{"success"}, metrics.outcomes); diff != "" {
		t.Errorf("metric outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestService_PlanLifecycle(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	calendar := &fakeCalendar{publishErr: fmt.Errorf("calendar api: 403 forbidden")}
	svc := newTestService(t, serviceConfig{calendar: calendar})
	saveBeginnerProfile(t, svc)
	ws := testhelpers.Monday(t, "2025-01-06")

	if _, err := svc.GetPlan(ctx, ws); !errors.Is(err, training.ErrNotFound) {
		t.Fatalf("GetPlan() before generation error = %v, want ErrNotFound", err)
	}
	if _, err := svc.ActivatePlan(ctx, ws); !errors.Is(err, training.ErrNotFound) {
		t.Errorf("ActivatePlan() before generation error = %v, want ErrNotFound", err)
	}
	generate(t, svc, ws, false)

	if _, err := svc.CompletePlan(ctx, ws); !errors.Is(err, training.ErrConflict) {
		t.Errorf("CompletePlan() on a draft error = %v, want ErrConflict", err)
	}
	active, err := svc.ActivatePlan(ctx, ws)
	if err != nil {
		t.Fatalf("ActivatePlan() error = %v", err)
	}
	publishFailures := 0
	for _, w := range active.Warnings {
		if w.Kind == training.WarningCalendarPublishFailed {
			publishFailures++
		}
	}
	if publishFailures != 3 || active.Status != training.PlanActive {
		t.Errorf("activated plan = %s with %d publish failures, want active with 3", active.Status, publishFailures)
	}
	if _, err = svc.ActivatePlan(ctx, ws); !errors.Is(err, training.ErrConflict) {
		t.Errorf("ActivatePlan() twice error = %v, want ErrConflict", err)
	}

	completed, err := svc.CompletePlan(ctx, ws)
	if err != nil {
		t.Fatalf("CompletePlan() error = %v", err)
	}
	if completed.Status != training.PlanCompleted {
		t.Errorf("Status = %s, want completed", completed.Status)
	}
	if _, err = svc.AbandonPlan(ctx, ws); !errors.Is(err, training.ErrConflict) {
		t.Errorf("AbandonPlan() on a completed plan error = %v, want ErrConflict", err)
	}

	next, err := svc.PregenerateNextWeek(ctx)
	if err != nil {
		t.Fatalf("PregenerateNextWeek() error = %v", err)
	}
	if want := testhelpers.Monday(t, "2025-01-13"); !next.WeekStart.Equal(want) || next.Status != training.PlanDraft {
		t.Errorf("pregenerated plan = %s %s, want a draft for %s", next.WeekStart, next.Status, want)
	}
	abandoned, err := svc.AbandonPlan(ctx, next.WeekStart)
	if err != nil {
		t.Fatalf("AbandonPlan() error = %v", err)
	}
	if abandoned.Status != training.PlanAbandoned {
		t.Errorf("Status = %s, want abandoned", abandoned.Status)
	}
}

func TestService_GetJustification(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	calendar := &fakeCalendar{records: []training.CalendarRecord{bjjOnTuesday(t)}}
	svc := newTestService(t, serviceConfig{calendar: calendar})
	saveBeginnerProfile(t, svc)
	plan := generate(t, svc, testhelpers.Monday(t, "2025-01-06"), false)
	monday := plan.Days[0].ID

	brief, err := svc.GetJustification(ctx, monday, training.DetailBrief)
	if err != nil {
		t.Fatalf("GetJustification(brief) error = %v", err)
	}
	if want := "Light mobility today to recover around your high-intensity BJJ on Tuesday."; brief.Brief != want {
		t.Errorf("Brief = %q, want %q", brief.Brief, want)
	}
	if brief.Detailed != "" || brief.HTML != "" {
		t.Errorf("brief level returned detailed text")
	}

	detailed, err := svc.GetJustification(ctx, monday, training.DetailDetailed)
	if err != nil {
		t.Fatalf("GetJustification(detailed) error = %v", err)
	}
	if !strings.Contains(detailed.Detailed, "## Calendar") || detailed.HTML != "" {
		t.Errorf("Detailed = %q", detailed.Detailed)
	}

	html, err := svc.GetJustification(ctx, monday, training.DetailHTML)
	if err != nil {
		t.Fatalf("GetJustification(html) error = %v", err)
	}
	if !strings.Contains(html.HTML, "<h2>Calendar</h2>") {
		t.Errorf("HTML = %q", html.HTML)
	}
	if diff := cmp.Diff(brief, html, cmpopts.IgnoreFields(training.JustificationText{}, "Level", "Detailed",
		"HTML")); diff != "" {
		t.Errorf("levels disagree on shared fields (-brief +html):\n%s", diff)
	}

	if _, err = svc.GetJustification(ctx, "no-such-day", training.DetailBrief); !errors.Is(err,
		training.ErrNotFound) {
		t.Errorf("GetJustification(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err = svc.GetJustification(ctx, monday, "verbose"); !errors.Is(err, training.ErrValidation) {
		t.Errorf("GetJustification(verbose) error = %v, want ErrValidation", err)
	}
}

func TestService_LogExercise(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	svc := newTestService(t, serviceConfig{})
	saveBeginnerProfile(t, svc)
	ws := testhelpers.Monday(t, "2025-01-06")
	generate(t, svc, ws, false)
	if _, err := svc.ActivatePlan(ctx, ws); err != nil {
		t.Fatalf("ActivatePlan() error = %v", err)
	}

	logOn := func(date string) {
		t.Helper()
		_, err := svc.LogExercise(ctx, training.LogInput{
			ExerciseID: 28, Reps: 10, WeightKg: 0, RPE: 7, Date: testhelpers.Date(t, date),
		})
		if err != nil {
			t.Fatalf("LogExercise(%s) error = %v", date, err)
		}
	}
	actualLoad := func() int {
		t.Helper()
		plan, err := svc.GetPlan(ctx, ws)
		if err != nil {
			t.Fatalf("GetPlan() error = %v", err)
		}
		return ptr.ValueOr(plan.WeeklyLoadActual, 0)
	}

	logOn("2025-01-06")
	if got := actualLoad(); got != 5 {
		t.Errorf("actual load after Monday = %d, want 5", got)
	}
	logOn("2025-01-06")
	logOn("2025-01-07")
	if got := actualLoad(); got != 5 {
		t.Errorf("actual load after a repeated Monday log and a rest day log = %d, want 5", got)
	}
	logOn("2025-01-08")
	if got := actualLoad(); got != 10 {
		t.Errorf("actual load after Wednesday = %d, want 10", got)
	}

	progression, err := svc.SuggestProgression(ctx, 28)
	if err != nil {
		t.Fatalf("SuggestProgression() error = %v", err)
	}
	if progression.Reps != 11 || progression.BasedOn != 3 {
		t.Errorf("SuggestProgression() = %+v, want 11 reps from 3 logs", progression)
	}

	if _, err = svc.AbandonPlan(ctx, ws); err != nil {
		t.Fatalf("AbandonPlan() error = %v", err)
	}
	logOn("2025-01-10")
	if got := actualLoad(); got != 10 {
		t.Errorf("actual load after logging into an abandoned plan = %d, want 10", got)
	}

	if _, err = svc.LogExercise(ctx, training.LogInput{
		ExerciseID: 999, Reps: 5, RPE: 7, Date: testhelpers.Date(t, "2025-01-06"),
	}); !errors.Is(err, training.ErrNotFound) {
		t.Errorf("LogExercise(unknown exercise) error = %v, want ErrNotFound", err)
	}
	if _, err = svc.LogExercise(ctx, training.LogInput{
		ExerciseID: 28, Reps: 5, RPE: 12, Date: testhelpers.Date(t, "2025-01-06"),
	}); !errors.Is(err, training.ErrValidation) {
		t.Errorf("LogExercise(rpe 12) error = %v, want ErrValidation", err)
	}
	if _, err = svc.SuggestProgression(ctx, 29); !errors.Is(err, training.ErrValidation) {
		t.Errorf("SuggestProgression() without history error = %v, want ErrValidation", err)
	}
}

func TestService_ProgressionFeedsNextPlan(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	// The default profile has no equipment, so the push-up is the only horizontal push.
	svc := newTestService(t, serviceConfig{})
	ws := testhelpers.Monday(t, "2025-01-06")
	const pushUp = 1

	for i := range 3 {
		if _, err := svc.LogExercise(ctx, training.LogInput{
			ExerciseID: pushUp, Reps: 10, WeightKg: 0, RPE: 5, Date: ws.AddDate(0, 0, -i-1),
		}); err != nil {
			t.Fatalf("LogExercise() error = %v", err)
		}
	}

	plan := generate(t, svc, ws, false)
	found := 0
	for _, d := range plan.Days {
		for _, e := range d.Exercises {
			if e.ExerciseID != pushUp {
				continue
			}
			found++
			if e.RepsMin != 12 || e.RepsMax != 12 || e.Note != "RPE was low" {
				t.Errorf("%s push-up = %d-%d reps %q, want the progression", d.Date.Weekday(), e.RepsMin, e.RepsMax,
					e.Note)
			}
		}
	}
	if found == 0 {
		t.Errorf("plan has no push-ups")
	}
}

func TestService_ListExercises(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, serviceConfig{})

	exercises, err := svc.ListExercises(t.Context())
	if err != nil {
		t.Fatalf("ListExercises() error = %v", err)
	}
	patterns := make(map[training.MovementPattern]int)
	for _, e := range exercises {
		patterns[e.Pattern]++
	}
	if len(patterns) != 12 {
		t.Errorf("catalog covers %d movement patterns, want 12", len(patterns))
	}
	if _, err = svc.ListActivities(t.Context(), now, now.AddDate(0, 0, -1)); !errors.Is(err, training.ErrValidation) {
		t.Errorf("ListActivities(reversed range) error = %v, want ErrValidation", err)
	}
}
