package training_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/trainingplan/internal/errors"
	"github.com/myrjola/trainingplan/internal/testhelpers"
	"github.com/myrjola/trainingplan/internal/training"
)

func testCatalog() []training.Exercise {
	ex := func(
		id int, name string, p training.MovementPattern, difficulty int, equipment []training.Equipment,
		tags []string, areas []training.BodyArea,
	) training.Exercise {
		return training.Exercise{
			ID: id, Name: name, Pattern: p, Difficulty: difficulty, Equipment: equipment, Tags: tags,
			BodyAreas: areas, CoachingMarkdown: "",
		}
	}
	return []training.Exercise{
		ex(1, "Air squat", training.PatternSquat, 1, nil, []string{"compound"}, nil),
		ex(2, "Back squat", training.PatternSquat, 3, []training.Equipment{training.EquipmentBarbell},
			[]string{"compound", "strength"}, nil),
		ex(3, "Push-up", training.PatternPushHorizontal, 1, nil, []string{"compound"}, nil),
		ex(4, "Pike push-up", training.PatternPushVertical, 2, nil, []string{"compound"}, nil),
		ex(5, "Inverted row", training.PatternPullHorizontal, 1, nil, []string{"compound"}, nil),
		ex(6, "Band pulldown", training.PatternPullVertical, 1,
			[]training.Equipment{training.EquipmentResistanceBand}, nil, nil),
		ex(7, "Glute bridge", training.PatternHinge, 1, nil, nil, nil),
		ex(8, "Reverse lunge", training.PatternLunge, 1, nil, nil, []training.BodyArea{training.BodyAreaKnees}),
		ex(9, "Plank", training.PatternCore, 1, nil, []string{"stability"}, nil),
		ex(10, "Farmer carry", training.PatternCarry, 1, []training.Equipment{training.EquipmentDumbbells}, nil, nil),
		ex(11, "Russian twist", training.PatternRotation, 1, nil, []string{"mobility"}, nil),
		ex(12, "Hamstring stretch", training.PatternFlexibility, 1, nil, []string{"mobility"}, nil),
		ex(13, "Hip flexor stretch", training.PatternFlexibility, 1, nil, []string{"mobility"}, nil),
		ex(14, "Box jump", training.PatternSquat, 2, []training.Equipment{training.EquipmentBox},
			[]string{"plyometric", "explosive", "power"}, nil),
		ex(15, "Bounding", training.PatternLocomotion, 2, nil, []string{"plyometric", "power"}, nil),
	}
}

func beginnerProfile() training.Profile {
	return training.Profile{
		FitnessLevel: training.LevelBeginner,
		Equipment: []training.Equipment{
			training.EquipmentResistanceBand, training.EquipmentDumbbells, training.EquipmentBox,
		},
		Exclusions:          nil,
		TrainingDays:        nil,
		RecoveryWindowHours: 24,
	}
}

func goalOf(id int, category training.GoalCategory) training.Goal {
	return training.Goal{
		ID: id, Category: category, Title: fmt.Sprintf("Goal %d", id), StartValue: 0, CurrentValue: 0,
		TargetValue: 10, Status: training.GoalActive,
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func accumulation() training.PhaseSnapshot {
	return training.PhaseSnapshot{Phase: training.PhaseAccumulation, WeekInPhase: 1, TotalWeeksInPhase: 3}
}

func planInput(t *testing.T) training.PlanInput {
	t.Helper()
	return training.PlanInput{
		WeekStart:     testhelpers.Monday(t, "2025-01-06"),
		Goals:         []training.Goal{goalOf(1, training.CategoryGeneralFitness)},
		Profile:       beginnerProfile(),
		Activities:    nil,
		Phase:         accumulation(),
		Catalog:       testCatalog(),
		Progressions:  nil,
		LastPerformed: nil,
		NewID:         sequentialIDs(),
	}
}

func activity(t *testing.T, id, date, name string, intensity training.Intensity, minutes int) training.ExternalActivity {
	t.Helper()
	a, err := training.NewExternalActivity(id, testhelpers.Date(t, date), training.ParseActivityType(name), name,
		intensity, minutes, false)
	if err != nil {
		t.Fatalf("NewExternalActivity() error = %v", err)
	}
	return a
}

func dayKinds(plan training.WeeklyTrainingPlan) []training.DayKind {
	kinds := make([]training.DayKind, len(plan.Days))
	for i, d := range plan.Days {
		kinds[i] = d.Kind
	}
	return kinds
}

func TestGeneratePlan_BalancedBeginnerWeek(t *testing.T) {
	t.Parallel()

	plan, err := training.GeneratePlan(planInput(t))
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}

	wantKinds := []training.DayKind{
		training.DayWorkout, training.DayRest, training.DayWorkout, training.DayRest, training.DayWorkout,
		training.DayRest, training.DayRest,
	}
	if diff := cmp.Diff(wantKinds, dayKinds(plan)); diff != "" {
		t.Errorf("day kinds mismatch (-want +got):\n%s", diff)
	}
	if plan.Unbalanced || len(plan.Warnings) != 0 {
		t.Errorf("Unbalanced = %v, Warnings = %+v, want a balanced week without warnings", plan.Unbalanced,
			plan.Warnings)
	}
	if plan.Status != training.PlanDraft || plan.Version != 1 || plan.ID != "id-1" {
		t.Errorf("plan = %s v%d status %s", plan.ID, plan.Version, plan.Status)
	}
	if diff := cmp.Diff([]int{1}, plan.GoalIDs); diff != "" {
		t.Errorf("GoalIDs mismatch (-want +got):\n%s", diff)
	}

	total := 0
	for i, d := range plan.Days {
		if want := plan.WeekStart.AddDate(0, 0, i); !d.Date.Equal(want) {
			t.Errorf("day %d date = %s, want %s", i, d.Date, want)
		}
		total += d.LoadScore
		if d.Kind != training.DayWorkout {
			if len(d.Exercises) != 0 || d.LoadScore != 0 {
				t.Errorf("rest day %d has exercises or load", i)
			}
			continue
		}
		if d.Focus != training.FocusFullBody {
			t.Errorf("day %d focus = %s, want full body", i, d.Focus)
		}
		if d.LoadScore != 5 {
			t.Errorf("day %d load = %d, want 5", i, d.LoadScore)
		}
		if len(d.Exercises) < 4 {
			t.Errorf("day %d has %d exercises", i, len(d.Exercises))
		}
		seen := make(map[int]bool)
		for _, e := range d.Exercises {
			if seen[e.ExerciseID] {
				t.Errorf("day %d repeats exercise %d", i, e.ExerciseID)
			}
			seen[e.ExerciseID] = true
			if e.ExerciseID == 2 {
				t.Errorf("day %d prescribes the barbell back squat to a beginner without a barbell", i)
			}
			if e.Sets != 2 || e.RepsMin != 10 || e.RepsMax != 12 || e.RestSeconds != 90 {
				t.Errorf("day %d %s = %d x %d-%d rest %d, want 2 x 10-12 rest 90", i, e.Name, e.Sets, e.RepsMin,
					e.RepsMax, e.RestSeconds)
			}
		}
		if d.DurationMinutes <= 10 {
			t.Errorf("day %d duration = %d", i, d.DurationMinutes)
		}
	}
	if plan.WeeklyLoadTarget != total || total != 15 {
		t.Errorf("WeeklyLoadTarget = %d, sum of days = %d, want 15", plan.WeeklyLoadTarget, total)
	}
}

func TestGeneratePlan_HighLoadActivityDowngradesNeighbours(t *testing.T) {
	t.Parallel()

	in := planInput(t)
	in.Activities = []training.ExternalActivity{
		activity(t, "bjj", "2025-01-07", "BJJ", training.IntensityHigh, 90),
	}
	plan, err := training.GeneratePlan(in)
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}

	wantKinds := []training.DayKind{
		training.DayRecovery, training.DayExternal, training.DayRecovery, training.DayRest, training.DayWorkout,
		training.DayRest, training.DayRest,
	}
	if diff := cmp.Diff(wantKinds, dayKinds(plan)); diff != "" {
		t.Fatalf("day kinds mismatch (-want +got):\n%s", diff)
	}
	for _, i := range []int{0, 2} {
		d := plan.Days[i]
		if !d.Downgraded || d.LoadScore != 2 || d.Focus != training.FocusMobility {
			t.Errorf("day %d = downgraded %v load %d focus %s, want a downgraded mobility day with load 2", i,
				d.Downgraded, d.LoadScore, d.Focus)
		}
		if len(d.ConstrainedBy) != 1 || d.ConstrainedBy[0].SourceID != "bjj" {
			t.Errorf("day %d constrained by %+v", i, d.ConstrainedBy)
		}
		for _, e := range d.Exercises {
			if e.Pattern != training.PatternFlexibility && e.Pattern != training.PatternCore {
				t.Errorf("recovery day %d prescribes %s", i, e.Pattern)
			}
			if e.Sets != 2 || e.RestSeconds != 30 {
				t.Errorf("recovery day %d %s = %d sets rest %d, want 2 sets rest 30", i, e.Name, e.Sets,
					e.RestSeconds)
			}
		}
	}
	external := plan.Days[1]
	if external.LoadScore != 10 || external.DurationMinutes != 90 || len(external.Exercises) != 0 {
		t.Errorf("external day = load %d duration %d exercises %d", external.LoadScore, external.DurationMinutes,
			len(external.Exercises))
	}
	if plan.WeeklyLoadTarget != 19 {
		t.Errorf("WeeklyLoadTarget = %d, want 19", plan.WeeklyLoadTarget)
	}
}

func TestGeneratePlan_LongRecoveryWindowReachesTwoDays(t *testing.T) {
	t.Parallel()

	in := planInput(t)
	in.Profile.RecoveryWindowHours = 48
	in.Activities = []training.ExternalActivity{
		activity(t, "game", "2025-01-10", "Basketball game", training.IntensityHigh, 60),
	}
	plan, err := training.GeneratePlan(in)
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}
	// Wednesday is two days before the Friday game.
	wantKinds := []training.DayKind{
		training.DayWorkout, training.DayRest, training.DayRecovery, training.DayRest, training.DayExternal,
		training.DayRest, training.DayRest,
	}
	if diff := cmp.Diff(wantKinds, dayKinds(plan)); diff != "" {
		t.Errorf("day kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestGeneratePlan_ActivitiesOutsideTheWeekStillConstrain(t *testing.T) {
	t.Parallel()

	in := planInput(t)
	in.Activities = []training.ExternalActivity{
		activity(t, "sunday", "2025-01-05", "Rugby match", training.IntensityHigh, 80),
	}
	plan, err := training.GeneratePlan(in)
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}
	if got := plan.Days[0].Kind; got != training.DayRecovery {
		t.Errorf("Monday after a Sunday match = %s, want recovery", got)
	}
	for _, d := range plan.Days {
		if d.Kind == training.DayExternal {
			t.Errorf("%s mirrors an activity from the previous week", d.Date)
		}
	}
}

func TestGeneratePlan_SaturatedWeek(t *testing.T) {
	t.Parallel()

	in := planInput(t)
	for i := range 7 {
		date := in.WeekStart.AddDate(0, 0, i).Format(time.DateOnly)
		in.Activities = append(in.Activities,
			activity(t, "run-"+date, date, "Evening run", training.IntensityHigh, 60))
	}
	plan, err := training.GeneratePlan(in)
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}
	for i, d := range plan.Days {
		if d.Kind != training.DayExternal || d.LoadScore != 7 {
			t.Errorf("day %d = %s load %d, want external with load 7", i, d.Kind, d.LoadScore)
		}
	}
	if plan.WeeklyLoadTarget != 49 {
		t.Errorf("WeeklyLoadTarget = %d, want 49", plan.WeeklyLoadTarget)
	}
	if !plan.Unbalanced || len(plan.Warnings) != 1 || plan.Warnings[0].Kind != training.WarningUnbalancedWeek {
		t.Errorf("Unbalanced = %v, Warnings = %+v, want one unbalanced week warning", plan.Unbalanced, plan.Warnings)
	}
}

func TestGeneratePlan_LowLoadActivitiesKeepWorkouts(t *testing.T) {
	t.Parallel()

	in := planInput(t)
	for _, date := range []string{"2025-01-06", "2025-01-07", "2025-01-08", "2025-01-10"} {
		in.Activities = append(in.Activities, activity(t, "yoga-"+date, date, "Yoga flow", training.IntensityLow, 30))
	}
	plan, err := training.GeneratePlan(in)
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}

	wantKinds := []training.DayKind{
		training.DayWorkout, training.DayExternal, training.DayWorkout, training.DayRest, training.DayWorkout,
		training.DayRest, training.DayRest,
	}
	if diff := cmp.Diff(wantKinds, dayKinds(plan)); diff != "" {
		t.Fatalf("day kinds mismatch (-want +got):\n%s", diff)
	}
	var push, pull, lower bool
	for _, i := range []int{0, 2, 4} {
		d := plan.Days[i]
		if len(d.Activities) != 1 || d.Activities[0].LoadScore != 1 {
			t.Errorf("day %d activities = %+v, want the yoga flow", i, d.Activities)
		}
		if len(d.Exercises) == 0 || d.LoadScore != 6 {
			t.Errorf("day %d = %d exercises load %d, want a workout with load 5 plus 1 for yoga", i,
				len(d.Exercises), d.LoadScore)
		}
		for _, e := range d.Exercises {
			push = push || e.Pattern == training.PatternPushHorizontal || e.Pattern == training.PatternPushVertical
			pull = pull || e.Pattern == training.PatternPullHorizontal || e.Pattern == training.PatternPullVertical
			lower = lower || e.Pattern == training.PatternSquat || e.Pattern == training.PatternHinge
		}
	}
	if !push || !pull || !lower {
		t.Errorf("push %v pull %v squat or hinge %v, want all three", push, pull, lower)
	}
	if plan.Unbalanced {
		t.Errorf("Unbalanced = true with only low-load activities, warnings %+v", plan.Warnings)
	}
	if got := plan.Days[1]; got.LoadScore != 1 || got.DurationMinutes != 30 {
		t.Errorf("Tuesday = load %d duration %d, want the yoga flow on its own", got.LoadScore, got.DurationMinutes)
	}
}

func TestGeneratePlan_EmptyCatalogSchedulesNoHollowSessions(t *testing.T) {
	t.Parallel()

	in := planInput(t)
	in.Catalog = nil
	in.Activities = []training.ExternalActivity{
		activity(t, "bjj", "2025-01-07", "BJJ", training.IntensityHigh, 90),
	}
	plan, err := training.GeneratePlan(in)
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}

	for i, d := range plan.Days {
		if d.Kind == training.DayWorkout || d.Kind == training.DayRecovery {
			t.Errorf("day %d is a %s day without exercises", i, d.Kind)
		}
		if d.Kind == training.DayRest && (d.LoadScore != 0 || d.DurationMinutes != 0) {
			t.Errorf("rest day %d = load %d duration %d, want 0", i, d.LoadScore, d.DurationMinutes)
		}
	}
	if plan.WeeklyLoadTarget != 10 {
		t.Errorf("WeeklyLoadTarget = %d, want only the BJJ load of 10", plan.WeeklyLoadTarget)
	}
	if !plan.Unbalanced {
		t.Error("Unbalanced = false for a week without exercises")
	}

	for i, want := range map[int]string{
		0: "Rest today to stay fresh for your high-intensity BJJ on Tuesday.",
		4: "Rest day to let your body recover and adapt.",
	} {
		if got := training.ComposeJustification(plan, plan.Days[i], in.Goals).Brief; got != want {
			t.Errorf("day %d brief = %q, want %q", i, got, want)
		}
	}
}

func TestGeneratePlan_MobilityOnlyGoals(t *testing.T) {
	t.Parallel()

	in := planInput(t)
	in.Goals = []training.Goal{goalOf(4, training.CategoryMobility)}
	plan, err := training.GeneratePlan(in)
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}
	for i, d := range plan.Days {
		if d.Kind != training.DayWorkout {
			continue
		}
		if d.Focus != training.FocusMobility || d.LoadScore != 3 {
			t.Errorf("day %d = focus %s load %d, want mobility with load 3", i, d.Focus, d.LoadScore)
		}
		for _, e := range d.Exercises {
			switch e.Pattern {
			case training.PatternFlexibility, training.PatternRotation, training.PatternCore:
			default:
				t.Errorf("mobility day %d prescribes %s", i, e.Pattern)
			}
		}
	}
	if !plan.Unbalanced || len(plan.Warnings) != 1 ||
		!strings.Contains(plan.Warnings[0].Message, "mobility") {
		t.Errorf("Unbalanced = %v, Warnings = %+v, want the mobility imbalance warning", plan.Unbalanced,
			plan.Warnings)
	}
}

func TestGeneratePlan_ExclusionsDropPatterns(t *testing.T) {
	t.Parallel()

	in := planInput(t)
	in.Profile.Exclusions = []training.BodyArea{training.BodyAreaKnees}
	plan, err := training.GeneratePlan(in)
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}
	for _, d := range plan.Days {
		for _, e := range d.Exercises {
			if e.ExerciseID == 8 {
				t.Errorf("%s prescribes the excluded reverse lunge", d.Date)
			}
		}
	}
	var missing []training.Warning
	for _, w := range plan.Warnings {
		if w.Kind == training.WarningMissingExercises {
			missing = append(missing, w)
		}
	}
	if len(missing) != 1 || !strings.Contains(missing[0].Message, "lunge") {
		t.Errorf("missing exercise warnings = %+v, want one about lunges", missing)
	}
	if plan.Unbalanced {
		t.Errorf("dropping lunges should not unbalance the week")
	}
}

func TestGeneratePlan_PowerGoalPrefersExplosiveExercises(t *testing.T) {
	t.Parallel()

	in := planInput(t)
	in.Goals = []training.Goal{goalOf(2, training.CategoryVerticalJump)}
	plan, err := training.GeneratePlan(in)
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}
	found := map[int]training.Prescription{}
	for _, d := range plan.Days {
		for _, e := range d.Exercises {
			found[e.ExerciseID] = e
		}
	}
	for _, id := range []int{14, 15} {
		e, ok := found[id]
		if !ok {
			t.Errorf("week lacks explosive exercise %d", id)
			continue
		}
		if e.RepsMax > 5 {
			t.Errorf("%s reps = %d-%d, want at most 5", e.Name, e.RepsMin, e.RepsMax)
		}
	}
	if got := plan.Days[0].Exercises[0].ExerciseID; got != 14 {
		t.Errorf("Monday squat = exercise %d, want the box jump", got)
	}
}

func TestGeneratePlan_AppliesProgressions(t *testing.T) {
	t.Parallel()

	in := planInput(t)
	in.Progressions = map[int]training.Progression{
		3: {ExerciseID: 3, Reps: 15, WeightKg: 0, Note: "RPE was low", AverageRPE: 5, BasedOn: 3},
	}
	in.LastPerformed = map[int]time.Time{3: testhelpers.Date(t, "2025-01-03")}
	plan, err := training.GeneratePlan(in)
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}
	for _, e := range plan.Days[0].Exercises {
		if e.ExerciseID != 3 {
			continue
		}
		if e.RepsMin != 15 || e.RepsMax != 15 || e.Note != "RPE was low" {
			t.Errorf("push-up = %d-%d %q, want the progression", e.RepsMin, e.RepsMax, e.Note)
		}
		return
	}
	t.Errorf("Monday has no push-up: %+v", plan.Days[0].Exercises)
}

func TestGeneratePlan_Deterministic(t *testing.T) {
	t.Parallel()

	in := planInput(t)
	in.Goals = []training.Goal{goalOf(1, training.CategoryGeneralFitness), goalOf(2, training.CategoryStrength)}
	first, err := training.GeneratePlan(in)
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}
	in = planInput(t)
	in.Goals = []training.Goal{goalOf(2, training.CategoryStrength), goalOf(1, training.CategoryGeneralFitness)}
	second, err := training.GeneratePlan(in)
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("goal order changed the plan (-first +second):\n%s", diff)
	}
	if first.Days[6].ID != "id-8" {
		t.Errorf("Sunday ID = %s, want id-8", first.Days[6].ID)
	}
}

func TestGeneratePlan_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	in := planInput(t)
	in.WeekStart = in.WeekStart.AddDate(0, 0, 1)
	if _, err := training.GeneratePlan(in); !errors.Is(err, training.ErrValidation) {
		t.Errorf("Tuesday week start error = %v, want ErrValidation", err)
	}

	in = planInput(t)
	in.Profile.FitnessLevel = "olympian"
	if _, err := training.GeneratePlan(in); !errors.Is(err, training.ErrValidation) {
		t.Errorf("invalid profile error = %v, want ErrValidation", err)
	}
}
