package training

import (
	"math"
	"slices"
	"time"
)

// GoalCategory is the closed set of training archetypes a goal is classified into.
type GoalCategory string

const (
	CategoryVerticalJump     GoalCategory = "vertical_jump"
	Category5kTime           GoalCategory = "5k_time"
	CategoryGeneralFitness   GoalCategory = "general_fitness"
	CategoryMobility         GoalCategory = "mobility"
	CategoryStrength         GoalCategory = "strength"
	CategoryMuscleBuilding   GoalCategory = "muscle_building"
	CategoryWeightLoss       GoalCategory = "weight_loss"
	CategorySportPerformance GoalCategory = "sport_performance"
	CategorySkillAcquisition GoalCategory = "skill_acquisition"
	CategoryCustom           GoalCategory = "custom"
)

// PeriodizationStyle describes how a goal prefers volume and intensity to be distributed.
type PeriodizationStyle string

const (
	StylePowerFocus     PeriodizationStyle = "power_focus"
	StyleEnduranceFocus PeriodizationStyle = "endurance_focus"
	StyleStrengthFocus  PeriodizationStyle = "strength_focus"
	StyleBalanced       PeriodizationStyle = "balanced"
	StyleMaintenance    PeriodizationStyle = "maintenance"
)

// GoalTrainingType is immutable reference data attached to every goal category.
type GoalTrainingType struct {
	Category           GoalCategory       `json:"category"`
	TrainingMethods    []string           `json:"training_methods"`
	ExerciseTags       []string           `json:"exercise_tags"`
	MovementPatterns   []MovementPattern  `json:"movement_patterns"`
	PeriodizationStyle PeriodizationStyle `json:"periodization_style"`
	Description        string             `json:"description"`
}

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalAchieved  GoalStatus = "achieved"
	GoalAbandoned GoalStatus = "abandoned"
	GoalPaused    GoalStatus = "paused"
)

func (s GoalStatus) valid() bool {
	return slices.Contains([]GoalStatus{GoalActive, GoalAchieved, GoalAbandoned, GoalPaused}, s)
}

// Goal is a user-defined target. Start, current, and target values share Unit.
type Goal struct {
	ID           int          `json:"id"`
	Category     GoalCategory `json:"category"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	StartValue   float64      `json:"start_value"`
	CurrentValue float64      `json:"current_value"`
	TargetValue  float64      `json:"target_value"`
	Unit         string       `json:"unit"`
	Deadline     *time.Time   `json:"deadline,omitempty"`
	Status       GoalStatus   `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Progress returns the percentage of the way from start to target.
//
// Regressions past the start value give negative progress. Progress is capped at 100.
func (g Goal) Progress() float64 {
	span := g.TargetValue - g.StartValue
	if span == 0 {
		return 100 //nolint:mnd // a goal that starts at its target is complete.
	}
	return math.Min(100, (g.CurrentValue-g.StartValue)/span*100) //nolint:mnd // percent.
}

// reached reports whether value has crossed threshold in the goal's direction.
func (g Goal) reached(value, threshold float64) bool {
	if g.TargetValue < g.StartValue {
		return value <= threshold
	}
	return value >= threshold
}

// MilestoneStatus is the lifecycle state of a milestone.
type MilestoneStatus string

const (
	MilestonePending  MilestoneStatus = "pending"
	MilestoneAchieved MilestoneStatus = "achieved"
	MilestoneSkipped  MilestoneStatus = "skipped"
)

// Milestone is an ordered sub-target of a goal. OrderIndex is 1-based and contiguous within the goal.
type Milestone struct {
	ID           int             `json:"id"`
	GoalID       int             `json:"goal_id"`
	OrderIndex   int             `json:"order_index"`
	TargetValue  float64         `json:"target_value"`
	Description  string          `json:"description"`
	TargetDate   *time.Time      `json:"target_date,omitempty"`
	AchievedDate *time.Time      `json:"achieved_date,omitempty"`
	Status       MilestoneStatus `json:"status"`
}

// MovementPattern classifies an exercise by the joint action it trains.
type MovementPattern string

const (
	PatternPushHorizontal MovementPattern = "push_horizontal"
	PatternPushVertical   MovementPattern = "push_vertical"
	PatternPullHorizontal MovementPattern = "pull_horizontal"
	PatternPullVertical   MovementPattern = "pull_vertical"
	PatternSquat          MovementPattern = "squat"
	PatternHinge          MovementPattern = "hinge"
	PatternLunge          MovementPattern = "lunge"
	PatternCarry          MovementPattern = "carry"
	PatternCore           MovementPattern = "core"
	PatternRotation       MovementPattern = "rotation"
	PatternLocomotion     MovementPattern = "locomotion"
	PatternFlexibility    MovementPattern = "flexibility"
)

func (p MovementPattern) isPush() bool {
	return p == PatternPushHorizontal || p == PatternPushVertical
}

func (p MovementPattern) isPull() bool {
	return p == PatternPullHorizontal || p == PatternPullVertical
}

func (p MovementPattern) isSquatOrHinge() bool {
	return p == PatternSquat || p == PatternHinge
}

// Equipment is a piece of gear an exercise may require.
type Equipment string

const (
	EquipmentBarbell        Equipment = "barbell"
	EquipmentDumbbells      Equipment = "dumbbells"
	EquipmentKettlebell     Equipment = "kettlebell"
	EquipmentPullUpBar      Equipment = "pull_up_bar"
	EquipmentResistanceBand Equipment = "resistance_band"
	EquipmentBench          Equipment = "bench"
	EquipmentBox            Equipment = "box"
	EquipmentJumpRope       Equipment = "jump_rope"
)

// AllEquipment lists every known piece of equipment.
func AllEquipment() []Equipment {
	return []Equipment{
		EquipmentBarbell, EquipmentDumbbells, EquipmentKettlebell, EquipmentPullUpBar,
		EquipmentResistanceBand, EquipmentBench, EquipmentBox, EquipmentJumpRope,
	}
}

// BodyArea is used for health-note exclusions.
type BodyArea string

const (
	BodyAreaKnees     BodyArea = "knees"
	BodyAreaLowerBack BodyArea = "lower_back"
	BodyAreaShoulders BodyArea = "shoulders"
	BodyAreaWrists    BodyArea = "wrists"
	BodyAreaElbows    BodyArea = "elbows"
	BodyAreaAnkles    BodyArea = "ankles"
	BodyAreaHips      BodyArea = "hips"
)

func allBodyAreas() []BodyArea {
	return []BodyArea{
		BodyAreaKnees, BodyAreaLowerBack, BodyAreaShoulders, BodyAreaWrists,
		BodyAreaElbows, BodyAreaAnkles, BodyAreaHips,
	}
}

// Exercise is catalog reference data. An empty Equipment list means bodyweight.
type Exercise struct {
	ID               int             `json:"id"`
	Name             string          `json:"name"`
	Pattern          MovementPattern `json:"pattern"`
	Difficulty       int             `json:"difficulty"`
	Equipment        []Equipment     `json:"equipment"`
	Tags             []string        `json:"tags"`
	BodyAreas        []BodyArea      `json:"body_areas"`
	CoachingMarkdown string          `json:"coaching_markdown"`
}

// ExerciseLog is an append-only performance record.
type ExerciseLog struct {
	ID         int       `json:"id"`
	ExerciseID int       `json:"exercise_id"`
	Date       time.Time `json:"date"`
	Reps       int       `json:"reps"`
	WeightKg   float64   `json:"weight_kg"`
	RPE        float64   `json:"rpe"`
}

// FitnessLevel scales volume, rest, and the difficulty ceiling of selected exercises.
type FitnessLevel string

const (
	LevelBeginner     FitnessLevel = "beginner"
	LevelIntermediate FitnessLevel = "intermediate"
	LevelAdvanced     FitnessLevel = "advanced"
)

// Profile is the read-only health and equipment snapshot used for generation.
type Profile struct {
	FitnessLevel        FitnessLevel   `json:"fitness_level"`
	Equipment           []Equipment    `json:"equipment"`
	Exclusions          []BodyArea     `json:"exclusions"`
	TrainingDays        []time.Weekday `json:"training_days"`
	RecoveryWindowHours int            `json:"recovery_window_hours"`
}

const maxRecoveryWindowHours = 48

// Validate reports the first malformed field of the profile.
func (p Profile) Validate() error {
	if !slices.Contains([]FitnessLevel{LevelBeginner, LevelIntermediate, LevelAdvanced}, p.FitnessLevel) {
		return validationError("unknown fitness level %q", p.FitnessLevel)
	}
	for _, e := range p.Equipment {
		if !slices.Contains(AllEquipment(), e) {
			return validationError("unknown equipment %q", e)
		}
	}
	for _, a := range p.Exclusions {
		if !slices.Contains(allBodyAreas(), a) {
			return validationError("unknown body area %q", a)
		}
	}
	seen := make(map[time.Weekday]bool, len(p.TrainingDays))
	for _, d := range p.TrainingDays {
		if d < time.Sunday || d > time.Saturday {
			return validationError("weekday %d out of range", d)
		}
		if seen[d] {
			return validationError("duplicate training day %s", d)
		}
		seen[d] = true
	}
	if p.RecoveryWindowHours < 0 || p.RecoveryWindowHours > maxRecoveryWindowHours {
		return validationError("recovery window must be between 0 and %d hours", maxRecoveryWindowHours)
	}
	return nil
}

// trainingDays returns the preferred weekdays or the level's defaults when none are set.
func (p Profile) trainingDays() []time.Weekday {
	if len(p.TrainingDays) > 0 {
		return p.TrainingDays
	}
	switch p.FitnessLevel {
	case LevelIntermediate:
		return []time.Weekday{time.Monday, time.Tuesday, time.Thursday, time.Friday}
	case LevelAdvanced:
		return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Friday, time.Saturday}
	case LevelBeginner:
	}
	return []time.Weekday{time.Monday, time.Wednesday, time.Friday}
}

// DayKind tells what a plan day holds.
type DayKind string

const (
	DayWorkout  DayKind = "workout"
	DayRest     DayKind = "rest"
	DayExternal DayKind = "external"
	DayRecovery DayKind = "recovery"
)

// DayFocus names the body region trained on a workout or recovery day.
type DayFocus string

const (
	FocusFullBody  DayFocus = "full_body"
	FocusUpperBody DayFocus = "upper_body"
	FocusLowerBody DayFocus = "lower_body"
	FocusMobility  DayFocus = "mobility"
	FocusNone      DayFocus = ""
)

// Prescription is an exercise with its targets for one day.
type Prescription struct {
	ExerciseID  int             `json:"exercise_id"`
	Name        string          `json:"name"`
	Pattern     MovementPattern `json:"pattern"`
	Sets        int             `json:"sets"`
	RepsMin     int             `json:"reps_min"`
	RepsMax     int             `json:"reps_max"`
	RestSeconds int             `json:"rest_seconds"`
	WeightKg    float64         `json:"weight_kg"`
	Note        string          `json:"note,omitempty"`
}

// PlanDay is one of the seven entries of a weekly plan.
type PlanDay struct {
	ID              string             `json:"id"`
	Date            time.Time          `json:"date"`
	Kind            DayKind            `json:"kind"`
	Focus           DayFocus           `json:"focus"`
	Exercises       []Prescription     `json:"exercises"`
	Activities      []ExternalActivity `json:"activities"`
	ConstrainedBy   []ExternalActivity `json:"constrained_by"`
	DurationMinutes int                `json:"duration_minutes"`
	LoadScore       int                `json:"load_score"`
	Downgraded      bool               `json:"downgraded"`
}

// PlanStatus is the lifecycle state of a weekly plan.
type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanAbandoned PlanStatus = "abandoned"
)

// locked reports whether regenerating the plan requires force.
func (s PlanStatus) locked() bool {
	return s == PlanActive || s == PlanCompleted
}

// WeeklyTrainingPlan covers the seven days starting on WeekStart, a Monday.
type WeeklyTrainingPlan struct {
	ID               string        `json:"id"`
	WeekStart        time.Time     `json:"week_start"`
	Status           PlanStatus    `json:"status"`
	Phase            PhaseSnapshot `json:"phase"`
	Days             []PlanDay     `json:"days"`
	WeeklyLoadTarget int           `json:"weekly_load_target"`
	WeeklyLoadActual *int          `json:"weekly_load_actual"`
	Unbalanced       bool          `json:"unbalanced"`
	CalendarDegraded bool          `json:"calendar_degraded"`
	GoalIDs          []int         `json:"goal_ids"`
	Warnings         []Warning     `json:"warnings"`
	Version          int           `json:"version"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// dayOn returns the plan day dated date.
func (p *WeeklyTrainingPlan) dayOn(date time.Time) (*PlanDay, bool) {
	for i := range p.Days {
		if p.Days[i].Date.Equal(dateOf(date)) {
			return &p.Days[i], true
		}
	}
	return nil, false
}

// WorkoutJustification explains one plan day.
type WorkoutJustification struct {
	DayID             string    `json:"day_id"`
	PlanID            string    `json:"plan_id"`
	Date              time.Time `json:"date"`
	Brief             string    `json:"brief"`
	Detailed          string    `json:"detailed"`
	GoalIDs           []int     `json:"goal_ids"`
	CalendarNote      string    `json:"calendar_note"`
	PeriodizationNote string    `json:"periodization_note"`
}

// weekStartOf returns the Monday of the week containing t.
func weekStartOf(t time.Time) time.Time {
	d := dateOf(t)
	offset := (int(d.Weekday()) + 6) % 7 //nolint:mnd // days since Monday.
	return d.AddDate(0, 0, -offset)
}

// dateOf truncates t to midnight UTC of its calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole days from a to b, both truncated to dates.
func daysBetween(a, b time.Time) int {
	return int(dateOf(b).Sub(dateOf(a)).Hours() / 24) //nolint:mnd // hours per day.
}
