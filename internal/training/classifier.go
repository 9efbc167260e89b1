package training

import (
	"strings"
	"unicode"
)

//nolint:gochecknoglobals // immutable reference data.
var trainingTypes = map[GoalCategory]GoalTrainingType{
	CategoryVerticalJump: {
		Category:           CategoryVerticalJump,
		TrainingMethods:    []string{"plyometrics", "power training", "lower body strength"},
		ExerciseTags:       []string{"plyometric", "explosive", "power"},
		MovementPatterns:   []MovementPattern{PatternSquat, PatternHinge, PatternLocomotion},
		PeriodizationStyle: StylePowerFocus,
		Description:        "Jump higher by developing explosive lower body power.",
	},
	Category5kTime: {
		Category:           Category5kTime,
		TrainingMethods:    []string{"interval training", "tempo runs", "aerobic base building"},
		ExerciseTags:       []string{"endurance", "conditioning"},
		MovementPatterns:   []MovementPattern{PatternLocomotion, PatternLunge, PatternCore},
		PeriodizationStyle: StyleEnduranceFocus,
		Description:        "Run faster over distance by building aerobic capacity and running economy.",
	},
	CategoryGeneralFitness: {
		Category:           CategoryGeneralFitness,
		TrainingMethods:    []string{"circuit training", "balanced strength training", "aerobic conditioning"},
		ExerciseTags:       []string{"compound", "conditioning", "strength"},
		MovementPatterns:   []MovementPattern{PatternSquat, PatternPushHorizontal, PatternPullHorizontal},
		PeriodizationStyle: StyleBalanced,
		Description:        "Feel fitter and stronger with well-rounded training.",
	},
	CategoryMobility: {
		Category:           CategoryMobility,
		TrainingMethods:    []string{"dynamic stretching", "joint mobility drills", "active flexibility"},
		ExerciseTags:       []string{"mobility", "stability"},
		MovementPatterns:   []MovementPattern{PatternFlexibility, PatternRotation, PatternCore},
		PeriodizationStyle: StyleMaintenance,
		Description:        "Move freely by improving range of motion and joint control.",
	},
	CategoryStrength: {
		Category:           CategoryStrength,
		TrainingMethods:    []string{"progressive overload", "compound lifting", "low repetition strength work"},
		ExerciseTags:       []string{"strength", "compound"},
		MovementPatterns:   []MovementPattern{PatternSquat, PatternHinge, PatternPushHorizontal, PatternPullVertical},
		PeriodizationStyle: StyleStrengthFocus,
		Description:        "Lift more by getting stronger in the big compound movements.",
	},
	CategoryMuscleBuilding: {
		Category:           CategoryMuscleBuilding,
		TrainingMethods:    []string{"hypertrophy training", "progressive overload", "time under tension"},
		ExerciseTags:       []string{"hypertrophy", "compound"},
		MovementPatterns:   []MovementPattern{PatternPushHorizontal, PatternPullHorizontal, PatternSquat},
		PeriodizationStyle: StyleStrengthFocus,
		Description:        "Build muscle with moderate loads and plenty of quality volume.",
	},
	CategoryWeightLoss: {
		Category:           CategoryWeightLoss,
		TrainingMethods:    []string{"metabolic conditioning", "circuit training", "strength training"},
		ExerciseTags:       []string{"conditioning", "endurance"},
		MovementPatterns:   []MovementPattern{PatternLocomotion, PatternSquat, PatternCarry},
		PeriodizationStyle: StyleEnduranceFocus,
		Description:        "Lose body fat while keeping strength with conditioning-focused training.",
	},
	CategorySportPerformance: {
		Category:           CategorySportPerformance,
		TrainingMethods:    []string{"power training", "agility drills", "sport-specific conditioning"},
		ExerciseTags:       []string{"power", "agility", "explosive"},
		MovementPatterns:   []MovementPattern{PatternLunge, PatternRotation, PatternLocomotion},
		PeriodizationStyle: StylePowerFocus,
		Description:        "Perform better in your sport with power, agility, and resilience.",
	},
	CategorySkillAcquisition: {
		Category:           CategorySkillAcquisition,
		TrainingMethods:    []string{"skill practice", "progressive skill progressions", "strength foundation"},
		ExerciseTags:       []string{"skill", "strength"},
		MovementPatterns:   []MovementPattern{PatternPullVertical, PatternPushVertical, PatternCore},
		PeriodizationStyle: StyleBalanced,
		Description:        "Learn a new movement skill through frequent, focused practice.",
	},
	CategoryCustom: {
		Category:           CategoryCustom,
		TrainingMethods:    []string{"progressive overload", "balanced strength training"},
		ExerciseTags:       []string{"compound"},
		MovementPatterns:   nil,
		PeriodizationStyle: StyleBalanced,
		Description:        "A personal goal trained with a balanced program.",
	},
}

// categoryVocabulary is matched in order and the first category with a matching phrase wins.
//
//nolint:gochecknoglobals // immutable reference data.
var categoryVocabulary = []struct {
	category GoalCategory
	phrases  []string
}{
	{CategoryVerticalJump, []string{"jump", "dunk", "vertical", "leap", "explosive", "plyometric", "plyo"}},
	{Category5kTime, []string{"5k", "10k", "run time", "pace", "race", "run", "running", "marathon", "mile"}},
	{CategorySkillAcquisition, []string{
		"learn", "skill", "pull up", "pullup", "chin up", "muscle up", "handstand", "pistol",
	}},
	{CategoryMobility, []string{
		"mobility", "flexibility", "flexible", "stretch", "stretching", "yoga", "splits", "range of motion", "stiff",
	}},
	{CategoryWeightLoss, []string{"lose", "weight loss", "fat", "lean", "slim", "shred"}},
	{CategoryMuscleBuilding, []string{"muscle", "bulk", "hypertrophy", "mass", "bigger"}},
	{CategoryStrength, []string{
		"strength", "strong", "stronger", "squat", "deadlift", "bench", "press", "lift", "1rm", "powerlifting",
	}},
	{CategorySportPerformance, []string{
		"sport", "basketball", "soccer", "football", "tennis", "athletic", "agility", "speed", "season",
	}},
	{CategoryGeneralFitness, []string{"fit", "fitness", "health", "healthy", "active", "shape", "energy"}},
}

// TrainingType returns the reference record of category.
func TrainingType(category GoalCategory) (GoalTrainingType, error) {
	if category == "" {
		category = CategoryCustom
	}
	t, ok := trainingTypes[category]
	if !ok {
		return GoalTrainingType{}, validationError("unknown goal category %q", category)
	}
	return t, nil
}

// TrainingTypes lists every category in classification order followed by custom.
func TrainingTypes() []GoalTrainingType {
	types := make([]GoalTrainingType, 0, len(trainingTypes))
	for _, v := range categoryVocabulary {
		types = append(types, trainingTypes[v.category])
	}
	return append(types, trainingTypes[CategoryCustom])
}

// ClassifyGoal maps a goal to its training type.
//
// A non-empty explicit category is used verbatim and rejected with ErrValidation when unknown. Otherwise the first
// category whose vocabulary appears in description wins, defaulting to general fitness.
func ClassifyGoal(description string, explicit string) (GoalTrainingType, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return TrainingType(GoalCategory(explicit))
	}
	tokens := tokenize(description)
	for _, v := range categoryVocabulary {
		for _, phrase := range v.phrases {
			if containsPhrase(tokens, phrase) {
				return trainingTypes[v.category], nil
			}
		}
	}
	return trainingTypes[CategoryGeneralFitness], nil
}

// tokenize lowercases s and splits it into letter and digit runs.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsPhrase reports whether the words of phrase appear consecutively in tokens. Each token may carry a
// trailing plural "s".
func containsPhrase(tokens []string, phrase string) bool {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return false
	}
	for i := 0; i+len(words) <= len(tokens); i++ {
		matched := true
		for j, w := range words {
			if t := tokens[i+j]; t != w && t != w+"s" {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}
