package training

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/myrjola/trainingplan/internal/errors"
	"github.com/myrjola/trainingplan/internal/logging"
	"github.com/myrjola/trainingplan/internal/ptr"
	"github.com/myrjola/trainingplan/internal/sqlite"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Calendar is the Calendar Service. It supplies external activities and receives workout events.
type Calendar interface {
	// Activities lists the activities dated from from up to but excluding to.
	Activities(ctx context.Context, from, to time.Time) ([]CalendarRecord, error)
	// PublishWorkout adds a planned workout to the calendar.
	PublishWorkout(ctx context.Context, event WorkoutEvent) error
}

// WorkoutEvent is a planned session written to the calendar.
type WorkoutEvent struct {
	DayID           string
	Date            time.Time
	Title           string
	Description     string
	DurationMinutes int
}

// Metrics records plan generation outcomes.
type Metrics interface {
	PlanGenerated(outcome string, duration time.Duration)
	CalendarDegraded()
	PlanWarning(kind string)
}

type noopMetrics struct{}

func (noopMetrics) PlanGenerated(string, time.Duration) {}
func (noopMetrics) CalendarDegraded()                   {}
func (noopMetrics) PlanWarning(string)                  {}

const (
	defaultCalendarTimeout = 3 * time.Second
	// generationTimeout bounds a shared generation, which outlives the callers waiting on it.
	generationTimeout = 30 * time.Second
	// activityLookbehindDays and activityLookaheadDays cover the widest recovery window around the week.
	activityLookbehindDays = 2
	activityLookaheadDays  = 9
)

// ServiceConfig holds the optional collaborators of Service.
type ServiceConfig struct {
	// Calendar is nil when no calendar is connected. Plans are then generated without external activities.
	Calendar        Calendar
	CalendarTimeout time.Duration
	Metrics         Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service orchestrates the training components against the store and the calendar.
type Service struct {
	repo            *repository
	logger          *slog.Logger
	calendar        Calendar
	calendarTimeout time.Duration
	metrics         Metrics
	now             func() time.Time
	generations     singleflight.Group
}

// NewService creates a new training service.
func NewService(db *sqlite.Database, logger *slog.Logger, cfg ServiceConfig) *Service {
	factory := newRepositoryFactory(db, logger)
	s := &Service{
		repo:            factory.newRepository(),
		logger:          logger,
		calendar:        cfg.Calendar,
		calendarTimeout: cfg.CalendarTimeout,
		metrics:         cfg.Metrics,
		now:             cfg.Now,
		generations:     singleflight.Group{},
	}
	if s.calendarTimeout <= 0 {
		s.calendarTimeout = defaultCalendarTimeout
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) today() time.Time {
	return dateOf(s.now())
}

// ClassifyGoal maps a goal description or an explicit category to its training type.
func (s *Service) ClassifyGoal(description, explicitCategory string) (GoalTrainingType, error) {
	t, err := ClassifyGoal(description, explicitCategory)
	if err != nil {
		return GoalTrainingType{}, fmt.Errorf("classify goal: %w", err)
	}
	return t, nil
}

// GoalInput describes a new goal. CurrentValue defaults to StartValue.
type GoalInput struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	StartValue   float64    `json:"start_value"`
	CurrentValue *float64   `json:"current_value"`
	TargetValue  float64    `json:"target_value"`
	Unit         string     `json:"unit"`
	Deadline     *time.Time `json:"deadline"`
}

func (in GoalInput) validate() error {
	title := strings.TrimSpace(in.Title)
	if title == "" || len([]rune(title)) > 200 { //nolint:mnd // title column limit.
		return validationError("title must be between 1 and 200 characters")
	}
	for name, v := range map[string]float64{"start value": in.StartValue, "target value": in.TargetValue} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return validationError("%s must be a finite number", name)
		}
	}
	if in.CurrentValue != nil && (math.IsNaN(*in.CurrentValue) || math.IsInf(*in.CurrentValue, 0)) {
		return validationError("current value must be a finite number")
	}
	return nil
}

// GoalDetail is a goal with its progress and milestones.
type GoalDetail struct {
	Goal       Goal        `json:"goal"`
	Progress   float64     `json:"progress"`
	Milestones []Milestone `json:"milestones"`
}

// CreateGoal classifies the goal, stores it, and generates its milestones in one transaction.
func (s *Service) CreateGoal(ctx context.Context, in GoalInput) (GoalDetail, error) {
	if err := in.validate(); err != nil {
		return GoalDetail{}, fmt.Errorf("create goal: %w", err)
	}
	t, err := ClassifyGoal(in.Title+" "+in.Description, in.Category)
	if err != nil {
		return GoalDetail{}, fmt.Errorf("create goal: %w", err)
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	g := Goal{
		ID:           0,
		Category:     t.Category,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		StartValue:   in.StartValue,
		CurrentValue: in.StartValue,
		TargetValue:  in.TargetValue,
		Unit:         strings.TrimSpace(in.Unit),
		Deadline:     nil,
		Status:       GoalActive,
		CreatedAt:    now,
	}
	if in.CurrentValue != nil {
		g.CurrentValue = *in.CurrentValue
	}
	if in.Deadline != nil {
		d := dateOf(*in.Deadline)
		g.Deadline = &d
	}
	var detail GoalDetail
	err = s.repo.goals.db.WithTx(ctx, func(tx *sql.Tx) error {
		if g.ID, err = s.repo.goals.Create(ctx, tx, g); err != nil {
			return err
		}
		milestones := GenerateMilestones(g)
		applyGoalValue(&g, milestones, g.CurrentValue, now)
		if err = s.repo.goals.Save(ctx, tx, g); err != nil {
			return err
		}
		if err = s.repo.goals.ReplaceMilestones(ctx, tx, g.ID, milestones); err != nil {
			return err
		}
		detail, err = s.goalDetail(ctx, tx, g.ID)
		return err
	})
	if err != nil {
		return GoalDetail{}, fmt.Errorf("create goal: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "created goal",
		slog.Int("goal_id", g.ID), slog.String("category", string(g.Category)))
	return detail, nil
}

// applyGoalValue records value as the goal's current value, marks crossed milestones achieved, and moves the goal
// between active and achieved.
func applyGoalValue(g *Goal, milestones []Milestone, value float64, date time.Time) {
	g.CurrentValue = value
	applyProgress(*g, milestones, value, date)
	switch reached := g.reached(value, g.TargetValue); {
	case reached && g.Status == GoalActive:
		g.Status = GoalAchieved
	case !reached && g.Status == GoalAchieved:
		g.Status = GoalActive
	}
}

func (s *Service) goalDetail(ctx context.Context, q querier, id int) (GoalDetail, error) {
	g, err := s.repo.goals.Get(ctx, q, id)
	if err != nil {
		return GoalDetail{}, err
	}
	milestones, err := s.repo.goals.Milestones(ctx, q, id)
	if err != nil {
		return GoalDetail{}, err
	}
	return GoalDetail{Goal: g, Progress: roundTo(g.Progress(), 2), Milestones: milestones}, nil //nolint:mnd // decimals.
}

// ListGoals returns every goal ordered by ID.
func (s *Service) ListGoals(ctx context.Context) ([]Goal, error) {
	goals, err := s.repo.goals.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// GetGoal retrieves a goal with its milestones.
func (s *Service) GetGoal(ctx context.Context, id int) (GoalDetail, error) {
	detail, err := s.goalDetail(ctx, s.repo.goals.db.ReadOnly, id)
	if err != nil {
		return GoalDetail{}, fmt.Errorf("get goal %d: %w", id, err)
	}
	return detail, nil
}

// LogGoalProgress sets the current value of a goal on date.
func (s *Service) LogGoalProgress(ctx context.Context, id int, value float64, date time.Time) (GoalDetail, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return GoalDetail{}, fmt.Errorf("log goal progress: %w", validationError("value must be a finite number"))
	}
	if date.IsZero() {
		date = s.today()
	}
	return s.updateGoal(ctx, id, func(g *Goal, milestones *[]Milestone) (bool, error) {
		applyGoalValue(g, *milestones, value, date)
		return true, nil
	})
}

// SetGoalStatus pauses, abandons, resumes, or completes a goal.
func (s *Service) SetGoalStatus(ctx context.Context, id int, status GoalStatus) (GoalDetail, error) {
	if !status.valid() {
		return GoalDetail{}, fmt.Errorf("set goal status: %w", validationError("unknown goal status %q", status))
	}
	return s.updateGoal(ctx, id, func(g *Goal, _ *[]Milestone) (bool, error) {
		changed := g.Status != status
		g.Status = status
		return changed, nil
	})
}

// UpdateGoalTarget changes the start and target values and regenerates pending milestones. Achieved milestones are
// kept verbatim.
func (s *Service) UpdateGoalTarget(ctx context.Context, id int, startValue, targetValue float64) (GoalDetail, error) {
	for _, v := range []float64{startValue, targetValue} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return GoalDetail{}, fmt.Errorf("update goal target: %w", validationError("values must be finite numbers"))
		}
	}
	return s.updateGoal(ctx, id, func(g *Goal, milestones *[]Milestone) (bool, error) {
		g.StartValue = startValue
		g.TargetValue = targetValue
		*milestones = RegenerateMilestones(*g, *milestones)
		applyGoalValue(g, *milestones, g.CurrentValue, s.today())
		return true, nil
	})
}

// GenerateMilestones regenerates the pending milestones of a goal from its current values.
func (s *Service) GenerateMilestones(ctx context.Context, id int) (GoalDetail, error) {
	return s.updateGoal(ctx, id, func(g *Goal, milestones *[]Milestone) (bool, error) {
		*milestones = RegenerateMilestones(*g, *milestones)
		applyProgress(*g, *milestones, g.CurrentValue, s.today())
		return true, nil
	})
}

func (s *Service) updateGoal(
	ctx context.Context,
	id int,
	updateFn func(g *Goal, milestones *[]Milestone) (bool, error),
) (GoalDetail, error) {
	ctx = logging.WithGoal(ctx, id)
	if err := s.repo.goals.Update(ctx, id, updateFn); err != nil {
		return GoalDetail{}, err
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "updated goal")
	return s.GetGoal(ctx, id)
}

// DeleteGoal removes a goal and its milestones.
func (s *Service) DeleteGoal(ctx context.Context, id int) error {
	if err := s.repo.goals.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	return nil
}

// GetProfile retrieves the training profile.
func (s *Service) GetProfile(ctx context.Context) (Profile, error) {
	p, err := s.repo.profile.Get(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// SaveProfile validates and stores the training profile.
func (s *Service) SaveProfile(ctx context.Context, p Profile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if err := s.repo.profile.Save(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// ListExercises returns the exercise catalog.
func (s *Service) ListExercises(ctx context.Context) ([]Exercise, error) {
	exercises, err := s.repo.exercises.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return exercises, nil
}

// ListActivities returns the cached calendar activities dated from from up to and including to.
func (s *Service) ListActivities(ctx context.Context, from, to time.Time) ([]ExternalActivity, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("list activities: %w", validationError("range end is before its start"))
	}
	activities, err := s.repo.activities.Between(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// GenerateWeeklyPlan generates and stores the plan of the week starting on weekStart.
//
// A draft for the week is replaced. An active or completed plan is only replaced with force, otherwise ErrConflict is
// returned. Replacing a plan keeps its periodization snapshot, while a new week advances the periodization state.
// Concurrent calls for the same week share one generation. The shared generation is detached from the caller that
// started it and runs to completion even when every caller has given up waiting.
func (s *Service) GenerateWeeklyPlan(ctx context.Context, weekStart time.Time, force bool) (WeeklyTrainingPlan, error) {
	ws := dateOf(weekStart)
	if ws.Weekday() != time.Monday {
		return WeeklyTrainingPlan{}, fmt.Errorf("generate weekly plan: %w",
			validationError("week start %s is not a Monday", formatDate(ws)))
	}
	ctx = logging.WithWeek(ctx, ws)
	key := formatDate(ws) + ":" + strconv.FormatBool(force)
	ch := s.generations.DoChan(key, func() (any, error) {
		gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), generationTimeout)
		defer cancel()
		start := time.Now()
		plan, err := s.generate(gctx, ws, force)
		outcome := "success"
		if err != nil {
			outcome = errorCategory(err)
		}
		s.metrics.PlanGenerated(outcome, time.Since(start))
		return plan, err
	})
	select {
	case <-ctx.Done():
		return WeeklyTrainingPlan{}, fmt.Errorf("generate weekly plan %s: %w", formatDate(ws), ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return WeeklyTrainingPlan{}, fmt.Errorf("generate weekly plan %s: %w", formatDate(ws), res.Err)
		}
		plan, _ := res.Val.(WeeklyTrainingPlan)
		return plan, nil
	}
}

type generationInputs struct {
	goals      []Goal
	profile    Profile
	catalog    []Exercise
	state      PeriodizationState
	stateFound bool
	existing   *WeeklyTrainingPlan
	logs       map[int][]ExerciseLog
	activities []ExternalActivity
	degraded   bool
}

func (s *Service) loadGenerationInputs(ctx context.Context, ws time.Time) (generationInputs, error) {
	var in generationInputs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in.goals, err = s.repo.goals.List(gctx, GoalActive)
		return err
	})
	g.Go(func() error {
		var err error
		in.profile, err = s.repo.profile.Get(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		in.catalog, err = s.repo.exercises.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		in.state, in.stateFound, err = s.repo.periodization.Get(gctx)
		return err
	})
	g.Go(func() error {
		plan, err := s.repo.plans.Get(gctx, s.repo.plans.db.ReadOnly, ws)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		in.existing = &plan
		return nil
	})
	g.Go(func() error {
		var err error
		in.logs, err = s.repo.logs.RecentByExercise(gctx, progressionWindow)
		return err
	})
	g.Go(func() error {
		in.activities, in.degraded = s.fetchActivities(gctx, ws)
		return nil
	})
	if err := g.Wait(); err != nil {
		return generationInputs{}, fmt.Errorf("load generation inputs: %w", err)
	}
	return in, nil
}

// fetchActivities reads the activities around the week from the calendar. A failing calendar degrades to no
// activities and reports degraded.
func (s *Service) fetchActivities(ctx context.Context, ws time.Time) ([]ExternalActivity, bool) {
	if s.calendar == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, s.calendarTimeout)
	defer cancel()
	from := ws.AddDate(0, 0, -activityLookbehindDays)
	to := ws.AddDate(0, 0, activityLookaheadDays)
	records, err := s.calendar.Activities(ctx, from, to)
	if err != nil {
		err = fmt.Errorf("%w: read calendar: %w", ErrDependencyUnavailable, err)
		s.logger.LogAttrs(ctx, slog.LevelWarn, "calendar unavailable, assuming no external activities",
			errors.SlogError(err))
		s.metrics.CalendarDegraded()
		return nil, true
	}
	activities := make([]ExternalActivity, 0, len(records))
	for _, r := range records {
		a, err := ActivityFromRecord(r)
		if err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "skipping malformed calendar activity",
				slog.String("source_id", r.SourceID), errors.SlogError(err))
			continue
		}
		activities = append(activities, a)
	}
	return activities, false
}

func (s *Service) generate(ctx context.Context, ws time.Time, force bool) (WeeklyTrainingPlan, error) {
	in, err := s.loadGenerationInputs(ctx, ws)
	if err != nil {
		return WeeklyTrainingPlan{}, err
	}

	if in.existing != nil && in.existing.Status.locked() && !force {
		return WeeklyTrainingPlan{}, errorf(ErrConflict, "plan for week %s is %s, regenerate with force to replace it",
			formatDate(ws), in.existing.Status)
	}

	// Regenerating a week keeps the phase it was first planned in.
	var (
		state     PeriodizationState
		phase     PhaseSnapshot
		saveState bool
	)
	switch {
	case in.existing != nil:
		phase = in.existing.Phase
	case !in.stateFound:
		state = NewPeriodizationState(ws)
		phase = state.Snapshot()
		saveState = true
	default:
		var weeks int
		if state, weeks, err = in.state.AdvanceTo(ws); err != nil {
			return WeeklyTrainingPlan{}, err
		}
		phase = state.Snapshot()
		saveState = weeks > 0
	}

	progressions := make(map[int]Progression, len(in.logs))
	lastPerformed := make(map[int]time.Time, len(in.logs))
	for id, logs := range in.logs {
		if p, perr := SuggestProgression(id, logs); perr == nil {
			progressions[id] = p
			lastPerformed[id] = logs[len(logs)-1].Date
		}
	}

	plan, err := GeneratePlan(PlanInput{
		WeekStart:     ws,
		Goals:         in.goals,
		Profile:       in.profile,
		Activities:    in.activities,
		Phase:         phase,
		Catalog:       in.catalog,
		Progressions:  progressions,
		LastPerformed: lastPerformed,
		NewID:         nil,
	})
	if err != nil {
		return WeeklyTrainingPlan{}, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	plan.CreatedAt, plan.UpdatedAt = now, now
	if in.existing != nil {
		plan.Version = in.existing.Version + 1
	}
	if in.degraded {
		plan.CalendarDegraded = true
		plan.Warnings = append([]Warning{{
			Kind:    WarningCalendarUnavailable,
			Message: "Your calendar could not be read, so this plan assumes no outside activities.",
		}}, plan.Warnings...)
	}

	justifications := make([]WorkoutJustification, len(plan.Days))
	for i, day := range plan.Days {
		justifications[i] = ComposeJustification(plan, day, in.goals)
	}

	err = s.repo.plans.db.WithTx(ctx, func(tx *sql.Tx) error {
		if in.existing != nil {
			if err = s.repo.plans.Delete(ctx, tx, in.existing.ID, in.existing.Version); err != nil {
				return err
			}
		}
		if err = s.repo.plans.Insert(ctx, tx, plan); err != nil {
			if isUniqueViolation(err) {
				return errorf(ErrConflict, "plan for week %s was generated concurrently", formatDate(ws))
			}
			return err
		}
		if err = s.repo.plans.InsertJustifications(ctx, tx, justifications); err != nil {
			return err
		}
		if err = s.repo.activities.Upsert(ctx, tx, in.activities); err != nil {
			return err
		}
		if saveState {
			if _, err = s.repo.periodization.Save(ctx, tx, state); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return WeeklyTrainingPlan{}, fmt.Errorf("store plan: %w", err)
	}

	for _, w := range plan.Warnings {
		s.metrics.PlanWarning(string(w.Kind))
		if w.Kind == WarningMissingExercises {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "dropped movement pattern",
				errors.SlogError(errorf(ErrDataIntegrity, "%s", w.Message)))
		}
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "generated weekly plan",
		slog.String("plan_id", plan.ID),
		slog.String("phase", plan.Phase.String()),
		slog.Int("weekly_load_target", plan.WeeklyLoadTarget),
		slog.Bool("unbalanced", plan.Unbalanced),
		slog.Bool("calendar_degraded", plan.CalendarDegraded))
	return plan, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// PregenerateNextWeek generates a draft for the week after the current one. An existing committed plan is left alone.
func (s *Service) PregenerateNextWeek(ctx context.Context) (WeeklyTrainingPlan, error) {
	return s.GenerateWeeklyPlan(ctx, weekStartOf(s.now()).AddDate(0, 0, 7), false) //nolint:mnd // next week.
}

// GetPlan retrieves the plan of the week starting on weekStart.
func (s *Service) GetPlan(ctx context.Context, weekStart time.Time) (WeeklyTrainingPlan, error) {
	plan, err := s.repo.plans.Get(ctx, s.repo.plans.db.ReadOnly, dateOf(weekStart))
	if err != nil {
		return WeeklyTrainingPlan{}, fmt.Errorf("get plan: %w", err)
	}
	return plan, nil
}

// ActivatePlan commits a draft and publishes its workout and recovery days to the calendar. Publishing failures are
// attached to the plan as warnings.
func (s *Service) ActivatePlan(ctx context.Context, weekStart time.Time) (WeeklyTrainingPlan, error) {
	ws := dateOf(weekStart)
	ctx = logging.WithWeek(ctx, ws)
	plan, err := s.transition(ctx, ws, PlanActive, PlanDraft)
	if err != nil {
		return WeeklyTrainingPlan{}, fmt.Errorf("activate plan: %w", err)
	}
	warnings := s.publish(ctx, plan)
	if len(warnings) == 0 {
		return plan, nil
	}
	plan, err = s.repo.plans.Update(ctx, ws, func(_ *sql.Tx, p *WeeklyTrainingPlan) (bool, error) {
		p.Warnings = append(p.Warnings, warnings...)
		p.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
		return true, nil
	})
	if err != nil {
		return WeeklyTrainingPlan{}, fmt.Errorf("activate plan: %w", err)
	}
	for _, w := range warnings {
		s.metrics.PlanWarning(string(w.Kind))
	}
	return plan, nil
}

func (s *Service) publish(ctx context.Context, plan WeeklyTrainingPlan) []Warning {
	if s.calendar == nil {
		return nil
	}
	var warnings []Warning
	for _, day := range plan.Days {
		if day.Kind != DayWorkout && day.Kind != DayRecovery {
			continue
		}
		names := make([]string, len(day.Exercises))
		for i, e := range day.Exercises {
			names[i] = e.Name
		}
		event := WorkoutEvent{
			DayID:           day.ID,
			Date:            day.Date,
			Title:           focusLabels[day.Focus] + " workout",
			Description:     strings.Join(names, "\n"),
			DurationMinutes: day.DurationMinutes,
		}
		pctx, cancel := context.WithTimeout(ctx, s.calendarTimeout)
		err := s.calendar.PublishWorkout(pctx, event)
		cancel()
		if err != nil {
			err = fmt.Errorf("%w: publish workout: %w", ErrDependencyUnavailable, err)
			s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to publish workout",
				slog.String("day", formatDate(day.Date)), errors.SlogError(err))
			warnings = append(warnings, Warning{
				Kind:    WarningCalendarPublishFailed,
				Message: fmt.Sprintf("The %s workout could not be added to your calendar.", day.Date.Weekday()),
			})
		}
	}
	return warnings
}

// CompletePlan marks an active plan completed.
func (s *Service) CompletePlan(ctx context.Context, weekStart time.Time) (WeeklyTrainingPlan, error) {
	plan, err := s.transition(ctx, dateOf(weekStart), PlanCompleted, PlanActive)
	if err != nil {
		return WeeklyTrainingPlan{}, fmt.Errorf("complete plan: %w", err)
	}
	return plan, nil
}

// AbandonPlan marks a draft or active plan abandoned.
func (s *Service) AbandonPlan(ctx context.Context, weekStart time.Time) (WeeklyTrainingPlan, error) {
	plan, err := s.transition(ctx, dateOf(weekStart), PlanAbandoned, PlanDraft, PlanActive)
	if err != nil {
		return WeeklyTrainingPlan{}, fmt.Errorf("abandon plan: %w", err)
	}
	return plan, nil
}

func (s *Service) transition(
	ctx context.Context,
	ws time.Time,
	to PlanStatus,
	from ...PlanStatus,
) (WeeklyTrainingPlan, error) {
	return s.repo.plans.Update(ctx, ws, func(_ *sql.Tx, p *WeeklyTrainingPlan) (bool, error) {
		allowed := false
		for _, f := range from {
			allowed = allowed || p.Status == f
		}
		if !allowed {
			return false, errorf(ErrConflict, "plan is %s and cannot become %s", p.Status, to)
		}
		p.Status = to
		p.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
		return true, nil
	})
}

// JustificationText is a justification at the requested detail level.
type JustificationText struct {
	DayID             string      `json:"day_id"`
	Level             DetailLevel `json:"level"`
	Brief             string      `json:"brief"`
	Detailed          string      `json:"detailed,omitempty"`
	HTML              string      `json:"html,omitempty"`
	GoalIDs           []int       `json:"goal_ids"`
	CalendarNote      string      `json:"calendar_note"`
	PeriodizationNote string      `json:"periodization_note"`
}

// GetJustification explains a plan day at level.
func (s *Service) GetJustification(ctx context.Context, dayID string, level DetailLevel) (JustificationText, error) {
	j, err := s.repo.plans.Justification(ctx, dayID)
	if err != nil {
		return JustificationText{}, fmt.Errorf("get justification: %w", err)
	}
	text := JustificationText{
		DayID:             j.DayID,
		Level:             level,
		Brief:             j.Brief,
		Detailed:          "",
		HTML:              "",
		GoalIDs:           j.GoalIDs,
		CalendarNote:      j.CalendarNote,
		PeriodizationNote: j.PeriodizationNote,
	}
	switch level {
	case DetailDetailed:
		text.Detailed = j.Detailed
	case DetailHTML:
		text.Detailed = j.Detailed
		if text.HTML, err = RenderJustificationHTML(j.Detailed); err != nil {
			return JustificationText{}, fmt.Errorf("get justification: %w", err)
		}
	case DetailBrief:
	default:
		return JustificationText{}, fmt.Errorf("get justification: %w", validationError("unknown detail level %q", level))
	}
	return text, nil
}

// LogExercise appends a performed exercise. The first log on a workout or recovery day of a non-abandoned plan adds the
// day's load score to the plan's actual weekly load.
func (s *Service) LogExercise(ctx context.Context, in LogInput) (ExerciseLog, error) {
	if err := in.Validate(); err != nil {
		return ExerciseLog{}, fmt.Errorf("log exercise: %w", err)
	}
	if _, err := s.repo.exercises.Get(ctx, in.ExerciseID); err != nil {
		return ExerciseLog{}, fmt.Errorf("log exercise: %w", err)
	}
	l := ExerciseLog{
		ID:         0,
		ExerciseID: in.ExerciseID,
		Date:       dateOf(in.Date),
		Reps:       in.Reps,
		WeightKg:   in.WeightKg,
		RPE:        in.RPE,
	}
	err := s.repo.logs.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		if l.ID, err = s.repo.logs.Append(ctx, tx, l); err != nil {
			return err
		}
		return s.recordActualLoad(ctx, tx, l.Date)
	})
	if err != nil {
		return ExerciseLog{}, fmt.Errorf("log exercise: %w", err)
	}
	return l, nil
}

func (s *Service) recordActualLoad(ctx context.Context, tx *sql.Tx, date time.Time) error {
	plan, err := s.repo.plans.Get(ctx, tx, weekStartOf(date))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if plan.Status == PlanAbandoned {
		return nil
	}
	day, ok := plan.dayOn(date)
	if !ok || (day.Kind != DayWorkout && day.Kind != DayRecovery) {
		return nil
	}
	first, err := s.repo.plans.MarkDayCompleted(ctx, tx, plan.ID, day.ID, date)
	if err != nil || !first {
		return err
	}
	plan.WeeklyLoadActual = ptr.Ref(day.LoadScore + ptr.ValueOr(plan.WeeklyLoadActual, 0))
	plan.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	return s.repo.plans.save(ctx, tx, plan)
}

// SuggestProgression proposes the next session of an exercise from its three latest logs.
func (s *Service) SuggestProgression(ctx context.Context, exerciseID int) (Progression, error) {
	if _, err := s.repo.exercises.Get(ctx, exerciseID); err != nil {
		return Progression{}, fmt.Errorf("suggest progression: %w", err)
	}
	logs, err := s.repo.logs.Recent(ctx, exerciseID, progressionWindow)
	if err != nil {
		return Progression{}, fmt.Errorf("suggest progression: %w", err)
	}
	p, err := SuggestProgression(exerciseID, logs)
	if err != nil {
		return Progression{}, fmt.Errorf("suggest progression: %w", err)
	}
	return p, nil
}

// GetPeriodization returns the stored periodization state, or the state the first plan of this week would start.
func (s *Service) GetPeriodization(ctx context.Context) (PeriodizationState, error) {
	state, ok, err := s.repo.periodization.Get(ctx)
	if err != nil {
		return PeriodizationState{}, fmt.Errorf("get periodization: %w", err)
	}
	if !ok {
		return NewPeriodizationState(weekStartOf(s.now())), nil
	}
	return state, nil
}

// errorCategory names the sentinel wrapped by err.
func errorCategory(err error) string {
	for _, c := range []struct {
		sentinel error
		name     string
	}{
		{ErrValidation, "validation"},
		{ErrConflict, "conflict"},
		{ErrNotFound, "not_found"},
		{ErrDependencyUnavailable, "dependency_unavailable"},
		{ErrDataIntegrity, "data_integrity"},
		{ErrPersistence, "persistence"},
	} {
		if errors.Is(err, c.sentinel) {
			return c.name
		}
	}
	return "error"
}
