package training

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const daysPerWeek = 7

// PlanInput is everything the Weekly Plan Generator looks at.
type PlanInput struct {
	WeekStart time.Time
	// Goals are the active goals. Order does not matter.
	Goals   []Goal
	Profile Profile
	// Activities may include dates outside the week. Those within the recovery window still constrain the week.
	Activities []ExternalActivity
	Phase      PhaseSnapshot
	Catalog    []Exercise
	// Progressions are keyed by exercise ID.
	Progressions map[int]Progression
	// LastPerformed holds the most recent log date per exercise ID.
	LastPerformed map[int]time.Time
	// NewID defaults to random UUIDs.
	NewID func() string
}

type dayTemplate struct {
	focus    DayFocus
	patterns []MovementPattern
}

//nolint:gochecknoglobals // immutable templates.
var (
	fullBodyA = dayTemplate{FocusFullBody, []MovementPattern{
		PatternSquat, PatternPushHorizontal, PatternPullVertical, PatternCore,
	}}
	fullBodyB = dayTemplate{FocusFullBody, []MovementPattern{
		PatternHinge, PatternPushVertical, PatternPullHorizontal, PatternCarry,
	}}
	fullBodyC = dayTemplate{FocusFullBody, []MovementPattern{
		PatternLunge, PatternPushHorizontal, PatternPullHorizontal, PatternRotation,
	}}
	upperBody = dayTemplate{FocusUpperBody, []MovementPattern{
		PatternPushHorizontal, PatternPullHorizontal, PatternPushVertical, PatternPullVertical, PatternCore,
	}}
	lowerBody = dayTemplate{FocusLowerBody, []MovementPattern{
		PatternSquat, PatternHinge, PatternLunge, PatternCore,
	}}
	mobilityDay = dayTemplate{FocusMobility, []MovementPattern{
		PatternFlexibility, PatternRotation, PatternCore, PatternFlexibility,
	}}
	recoveryDay = dayTemplate{FocusMobility, []MovementPattern{
		PatternFlexibility, PatternCore, PatternFlexibility,
	}}
)

// templatesFor returns one template per workout day. Up to three days get full body sessions, more days alternate
// upper and lower body with any days past the fourth returning to full body.
func templatesFor(workoutDays int) []dayTemplate {
	fullBody := []dayTemplate{fullBodyA, fullBodyB, fullBodyC}
	if workoutDays <= len(fullBody) {
		return fullBody[:workoutDays]
	}
	templates := []dayTemplate{upperBody, lowerBody, upperBody, lowerBody}
	for i := 0; len(templates) < workoutDays; i++ {
		templates = append(templates, fullBody[i%len(fullBody)])
	}
	return templates
}

func (t dayTemplate) accepts(p MovementPattern) bool {
	switch t.focus {
	case FocusUpperBody:
		return p.isPush() || p.isPull() || p == PatternCore || p == PatternRotation || p == PatternCarry
	case FocusLowerBody:
		return p.isSquatOrHinge() || p == PatternLunge || p == PatternLocomotion || p == PatternCore
	case FocusMobility:
		return p == PatternFlexibility || p == PatternRotation || p == PatternCore
	case FocusFullBody, FocusNone:
	}
	return true
}

//nolint:gochecknoglobals,mnd // reference tables.
var (
	baseSets        = map[FitnessLevel]int{LevelBeginner: 2, LevelIntermediate: 3, LevelAdvanced: 4}
	maxDifficulty   = map[FitnessLevel]int{LevelBeginner: 2, LevelIntermediate: 4, LevelAdvanced: 5}
	levelLoadFactor = map[FitnessLevel]float64{LevelBeginner: 0.85, LevelIntermediate: 1.0, LevelAdvanced: 1.15}
	phaseReps       = map[Phase][2]int{
		PhaseAccumulation:  {10, 12},
		PhaseTransmutation: {6, 8},
		PhaseRealization:   {3, 5},
		PhaseDeload:        {8, 10},
	}
	phaseRestSeconds = map[Phase]int{
		PhaseAccumulation:  60,
		PhaseTransmutation: 90,
		PhaseRealization:   150,
		PhaseDeload:        60,
	}
	phaseBaseLoad = map[Phase]float64{
		PhaseAccumulation:  6,
		PhaseTransmutation: 7,
		PhaseRealization:   8,
		PhaseDeload:        3,
	}
)

const (
	recoveryLoad        = 2
	mobilityLoad        = 3
	beginnerExtraRest   = 30
	mobilityRestSeconds = 30
	warmupMinutes       = 10
	secondsPerSet       = 45
	enduranceExtraReps  = 4
	powerReps           = 5
)

type planner struct {
	in         PlanInput
	style      PeriodizationStyle
	tags       []string
	emphasis   []MovementPattern
	eligible   []Exercise
	usedInWeek map[int]bool
	dropped    map[MovementPattern]bool
	plan       WeeklyTrainingPlan
}

// GeneratePlan builds the seven-day plan for in.WeekStart.
//
// Days with high-load calendar activities mirror them, as do days off and days kept light by a neighbouring high-load
// activity. Training days with only low-load activities keep their workout. Days within the recovery window of a
// high-load activity are downgraded to recovery on training days and rest otherwise. Remaining training days get
// generated workouts, and sessions left without exercises become rest days. Missing exercises and
// unbalanced weeks are reported as warnings on the plan, never as errors.
func GeneratePlan(in PlanInput) (WeeklyTrainingPlan, error) {
	weekStart := dateOf(in.WeekStart)
	if weekStart.Weekday() != time.Monday {
		return WeeklyTrainingPlan{}, validationError("week start %s is not a Monday", weekStart.Format(time.DateOnly))
	}
	if err := in.Profile.Validate(); err != nil {
		return WeeklyTrainingPlan{}, fmt.Errorf("profile: %w", err)
	}
	if in.NewID == nil {
		in.NewID = uuid.NewString
	}
	in.WeekStart = weekStart
	in.Goals = slices.Clone(in.Goals)
	slices.SortFunc(in.Goals, func(a, b Goal) int { return cmp.Compare(a.ID, b.ID) })

	p := newPlanner(in)
	p.scheduleDays()
	p.fillWorkouts()
	p.checkBalance()
	p.sumLoad()
	return p.plan, nil
}

func newPlanner(in PlanInput) *planner {
	p := &planner{
		in:         in,
		style:      StyleBalanced,
		tags:       nil,
		emphasis:   nil,
		eligible:   nil,
		usedInWeek: make(map[int]bool),
		dropped:    make(map[MovementPattern]bool),
		plan: WeeklyTrainingPlan{
			ID:               in.NewID(),
			WeekStart:        in.WeekStart,
			Status:           PlanDraft,
			Phase:            in.Phase,
			Days:             make([]PlanDay, daysPerWeek),
			WeeklyLoadTarget: 0,
			WeeklyLoadActual: nil,
			Unbalanced:       false,
			CalendarDegraded: false,
			GoalIDs:          []int{},
			Warnings:         []Warning{},
			Version:          1,
			CreatedAt:        time.Time{},
			UpdatedAt:        time.Time{},
		},
	}
	for i, g := range in.Goals {
		t, err := TrainingType(g.Category)
		if err != nil {
			t = trainingTypes[CategoryCustom]
		}
		if i == 0 {
			p.style = t.PeriodizationStyle
		}
		for _, tag := range t.ExerciseTags {
			if !slices.Contains(p.tags, tag) {
				p.tags = append(p.tags, tag)
			}
		}
		for _, mp := range t.MovementPatterns {
			if !slices.Contains(p.emphasis, mp) {
				p.emphasis = append(p.emphasis, mp)
			}
		}
		p.plan.GoalIDs = append(p.plan.GoalIDs, g.ID)
	}
	for _, ex := range in.Catalog {
		if p.allowed(ex) {
			p.eligible = append(p.eligible, ex)
		}
	}
	return p
}

// allowed reports whether the profile has the equipment for ex, ex avoids excluded body areas, and ex is within the
// difficulty ceiling of the fitness level.
func (p *planner) allowed(ex Exercise) bool {
	for _, e := range ex.Equipment {
		if !slices.Contains(p.in.Profile.Equipment, e) {
			return false
		}
	}
	for _, a := range ex.BodyAreas {
		if slices.Contains(p.in.Profile.Exclusions, a) {
			return false
		}
	}
	return ex.Difficulty <= maxDifficulty[p.in.Profile.FitnessLevel]
}

// recoveryWindowDays converts the configured recovery window to whole days, one or two.
func recoveryWindowDays(hours int) int {
	if hours > 24 { //nolint:mnd // hours per day.
		return 2 //nolint:mnd // maximum window.
	}
	return 1
}

func (p *planner) scheduleDays() {
	byDate := make(map[time.Time][]ExternalActivity)
	for _, a := range p.in.Activities {
		d := dateOf(a.Date)
		byDate[d] = append(byDate[d], a)
	}
	for d := range byDate {
		slices.SortFunc(byDate[d], func(a, b ExternalActivity) int { return strings.Compare(a.SourceID, b.SourceID) })
	}
	window := recoveryWindowDays(p.in.Profile.RecoveryWindowHours)
	trainingDays := p.in.Profile.trainingDays()

	for i := range p.plan.Days {
		date := p.in.WeekStart.AddDate(0, 0, i)
		day := PlanDay{
			ID:              p.in.NewID(),
			Date:            date,
			Kind:            DayRest,
			Focus:           FocusNone,
			Exercises:       []Prescription{},
			Activities:      []ExternalActivity{},
			ConstrainedBy:   []ExternalActivity{},
			DurationMinutes: 0,
			LoadScore:       0,
			Downgraded:      false,
		}
		for offset := -window; offset <= window; offset++ {
			if offset == 0 {
				continue
			}
			for _, a := range byDate[date.AddDate(0, 0, offset)] {
				if a.highLoad() {
					day.ConstrainedBy = append(day.ConstrainedBy, a)
				}
			}
		}
		training := slices.Contains(trainingDays, date.Weekday())
		constrained := len(day.ConstrainedBy) > 0
		activities := byDate[date]
		takesOver := !training || constrained || slices.ContainsFunc(activities, ExternalActivity.highLoad)
		switch {
		case len(activities) > 0 && takesOver:
			mirror(&day, activities)
		case constrained && training:
			day.Kind = DayRecovery
			day.Focus = FocusMobility
			day.Downgraded = true
			day.LoadScore = recoveryLoad
		case training:
			// Low-load activities share the day with the workout.
			day.Kind = DayWorkout
			if len(activities) > 0 {
				day.Activities = activities
			}
		}
		p.plan.Days[i] = day
	}
}

// mirror turns day into an external-activity day carrying the load and duration of activities.
func mirror(day *PlanDay, activities []ExternalActivity) {
	day.Kind = DayExternal
	day.Focus = FocusNone
	day.Exercises = []Prescription{}
	day.Activities = activities
	day.DurationMinutes = 0
	day.LoadScore = activityLoad(activities)
	for _, a := range activities {
		day.DurationMinutes += a.DurationMinutes
	}
}

func activityLoad(activities []ExternalActivity) int {
	return clampLoad(sumActivityLoad(activities))
}

func sumActivityLoad(activities []ExternalActivity) int {
	load := 0
	for _, a := range activities {
		load += a.LoadScore
	}
	return load
}

// downgradeEmpty turns a session without exercises into a rest day, or mirrors the day's activities.
func downgradeEmpty(day *PlanDay) {
	if len(day.Activities) > 0 {
		mirror(day, day.Activities)
		return
	}
	day.Kind = DayRest
	day.Focus = FocusNone
	day.Exercises = []Prescription{}
	day.DurationMinutes = 0
	day.LoadScore = 0
}

// mobilityOnly reports whether every active goal is a maintenance goal such as mobility.
func (p *planner) mobilityOnly() bool {
	return len(p.in.Goals) > 0 && !slices.ContainsFunc(p.in.Goals, func(g Goal) bool {
		t, err := TrainingType(g.Category)
		return err != nil || t.PeriodizationStyle != StyleMaintenance
	})
}

func (p *planner) fillWorkouts() {
	var workoutDays []int
	for i, d := range p.plan.Days {
		if d.Kind == DayWorkout {
			workoutDays = append(workoutDays, i)
		}
	}
	templates := templatesFor(len(workoutDays))
	mobility := p.mobilityOnly()

	for n, i := range workoutDays {
		day := &p.plan.Days[i]
		t := templates[n]
		if mobility {
			t = mobilityDay
		}
		patterns := slices.Clone(t.patterns)
		if extra, ok := p.emphasisFor(t, patterns, n); ok {
			patterns = append(patterns, extra)
		}
		day.Focus = t.focus
		day.Exercises = p.selectExercises(patterns, t.focus == FocusMobility)
		if len(day.Exercises) == 0 {
			downgradeEmpty(day)
			continue
		}
		load := p.workoutLoad()
		if mobility {
			load = mobilityLoad
		}
		day.LoadScore = clampLoad(load + sumActivityLoad(day.Activities))
		day.DurationMinutes = sessionMinutes(day.Exercises)
	}

	for i := range p.plan.Days {
		day := &p.plan.Days[i]
		if day.Kind != DayRecovery {
			continue
		}
		day.Exercises = p.selectExercises(recoveryDay.patterns, true)
		if len(day.Exercises) == 0 {
			downgradeEmpty(day)
			continue
		}
		day.DurationMinutes = sessionMinutes(day.Exercises)
	}
}

// emphasisFor picks the goal pattern for the n-th workout day, rotating through the goal patterns and skipping those
// that do not fit the day's focus or are already in the template.
func (p *planner) emphasisFor(t dayTemplate, patterns []MovementPattern, n int) (MovementPattern, bool) {
	for k := range p.emphasis {
		candidate := p.emphasis[(n+k)%len(p.emphasis)]
		if t.accepts(candidate) && !slices.Contains(patterns, candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (p *planner) selectExercises(patterns []MovementPattern, light bool) []Prescription {
	prescriptions := make([]Prescription, 0, len(patterns))
	usedToday := make(map[int]bool)
	for _, pattern := range patterns {
		ex, ok := p.pick(pattern, usedToday)
		if !ok {
			continue
		}
		usedToday[ex.ID] = true
		p.usedInWeek[ex.ID] = true
		prescriptions = append(prescriptions, p.prescribe(ex, light))
	}
	return prescriptions
}

// pick chooses the best eligible exercise for pattern. Candidates are ranked by matching goal tags, then by not having
// been used this week, then by least recently performed, and finally by ID.
func (p *planner) pick(pattern MovementPattern, usedToday map[int]bool) (Exercise, bool) {
	var candidates []Exercise
	anyForPattern := false
	for _, ex := range p.eligible {
		if ex.Pattern != pattern {
			continue
		}
		anyForPattern = true
		if !usedToday[ex.ID] {
			candidates = append(candidates, ex)
		}
	}
	if !anyForPattern {
		p.drop(pattern)
		return Exercise{}, false
	}
	if len(candidates) == 0 {
		return Exercise{}, false
	}
	slices.SortStableFunc(candidates, func(a, b Exercise) int {
		if c := cmp.Compare(p.tagMatches(b), p.tagMatches(a)); c != 0 {
			return c
		}
		if p.usedInWeek[a.ID] != p.usedInWeek[b.ID] {
			if p.usedInWeek[a.ID] {
				return 1
			}
			return -1
		}
		if c := p.in.LastPerformed[a.ID].Compare(p.in.LastPerformed[b.ID]); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return candidates[0], true
}

func (p *planner) tagMatches(ex Exercise) int {
	n := 0
	for _, tag := range ex.Tags {
		if slices.Contains(p.tags, tag) {
			n++
		}
	}
	return n
}

func (p *planner) drop(pattern MovementPattern) {
	if p.dropped[pattern] {
		return
	}
	p.dropped[pattern] = true
	p.plan.Warnings = append(p.plan.Warnings, Warning{
		Kind: WarningMissingExercises,
		Message: fmt.Sprintf("No %s exercise fits your equipment, fitness level, and health notes, so it was "+
			"left out this week.", patternLabel(pattern)),
	})
}

func (p *planner) prescribe(ex Exercise, light bool) Prescription {
	level := p.in.Profile.FitnessLevel
	phase := p.in.Phase.Phase
	pr := Prescription{
		ExerciseID:  ex.ID,
		Name:        ex.Name,
		Pattern:     ex.Pattern,
		Sets:        max(1, int(math.Round(float64(baseSets[level])*phase.Config().SetMultiplier))),
		RepsMin:     phaseReps[phase][0],
		RepsMax:     phaseReps[phase][1],
		RestSeconds: phaseRestSeconds[phase],
		WeightKg:    0,
		Note:        "",
	}
	if level == LevelBeginner {
		pr.RestSeconds += beginnerExtraRest
	}
	if light {
		pr.Sets = 2
		pr.RepsMin, pr.RepsMax = phaseReps[PhaseDeload][0], phaseReps[PhaseDeload][1]
		pr.RestSeconds = mobilityRestSeconds
		return pr
	}
	switch {
	case p.style == StyleEnduranceFocus:
		pr.RepsMin += enduranceExtraReps
		pr.RepsMax += enduranceExtraReps
	case p.style == StylePowerFocus && (slices.Contains(ex.Tags, "plyometric") || slices.Contains(ex.Tags, "explosive")):
		pr.RepsMin = min(pr.RepsMin, powerReps)
		pr.RepsMax = min(pr.RepsMax, powerReps)
	}
	if prog, ok := p.in.Progressions[ex.ID]; ok {
		pr.RepsMin, pr.RepsMax = prog.Reps, prog.Reps
		pr.WeightKg = prog.WeightKg
		pr.Note = prog.Note
	}
	return pr
}

func (p *planner) workoutLoad() int {
	base := phaseBaseLoad[p.in.Phase.Phase]
	return clampLoad(int(math.Floor(base*levelLoadFactor[p.in.Profile.FitnessLevel] + 1e-9))) //nolint:mnd // tolerance.
}

func sessionMinutes(exercises []Prescription) int {
	if len(exercises) == 0 {
		return 0
	}
	seconds := 0
	for _, e := range exercises {
		seconds += e.Sets * (secondsPerSet + e.RestSeconds)
	}
	return warmupMinutes + int(math.Round(float64(seconds)/60)) //nolint:mnd // seconds per minute.
}

// checkBalance flags weeks whose workouts miss a push, a pull, or a squat-or-hinge movement.
func (p *planner) checkBalance() {
	if p.mobilityOnly() {
		p.plan.Unbalanced = true
		p.plan.Warnings = append(p.plan.Warnings, Warning{
			Kind:    WarningUnbalancedWeek,
			Message: "Your goals focus on mobility, so this week skips strength movements.",
		})
		return
	}
	var push, pull, lower, workouts bool
	for _, d := range p.plan.Days {
		if d.Kind != DayWorkout {
			continue
		}
		workouts = true
		for _, e := range d.Exercises {
			push = push || e.Pattern.isPush()
			pull = pull || e.Pattern.isPull()
			lower = lower || e.Pattern.isSquatOrHinge()
		}
	}
	if push && pull && lower {
		return
	}
	p.plan.Unbalanced = true
	if !workouts {
		msg := "Calendar activities and recovery fill this week, so no strength sessions were scheduled."
		if len(p.dropped) > 0 {
			msg = "No exercises fit your equipment and health notes, so no strength sessions were scheduled."
		}
		p.plan.Warnings = append(p.plan.Warnings, Warning{Kind: WarningUnbalancedWeek, Message: msg})
		return
	}
	var missing []string
	if !push {
		missing = append(missing, "pushing")
	}
	if !pull {
		missing = append(missing, "pulling")
	}
	if !lower {
		missing = append(missing, "squat or hinge")
	}
	p.plan.Warnings = append(p.plan.Warnings, Warning{
		Kind:    WarningUnbalancedWeek,
		Message: fmt.Sprintf("This week has no %s movement.", strings.Join(missing, ", ")),
	})
}

func (p *planner) sumLoad() {
	total := 0
	for _, d := range p.plan.Days {
		total += d.LoadScore
	}
	p.plan.WeeklyLoadTarget = total
}

func patternLabel(p MovementPattern) string {
	return strings.ReplaceAll(string(p), "_", " ")
}
