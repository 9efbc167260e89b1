package training

import (
	"fmt"
	"math"
	"time"
)

type milestoneStep struct {
	percent     float64
	description string
}

//nolint:gochecknoglobals // immutable reference data.
var milestoneTemplates = map[GoalCategory][]milestoneStep{
	CategoryVerticalJump: {
		{25, "Land your first noticeable gain in jump height"},
		{50, "Halfway to your target jump"},
		{75, "Explosive power is within reach of your target"},
		{100, "Hit your target jump height"},
	},
	Category5kTime: {
		{25, "Shave the first quarter off your time gap"},
		{50, "Halfway to your target time"},
		{75, "Race pace is within reach"},
		{100, "Run your target time"},
	},
	CategoryStrength: {
		{25, "First strength milestone"},
		{50, "Halfway to your target lift"},
		{75, "Three quarters of the way to your target lift"},
		{100, "Lift your target"},
	},
	CategoryWeightLoss: {
		{25, "A quarter of the way to your target weight"},
		{50, "Halfway to your target weight"},
		{75, "Three quarters of the way to your target weight"},
		{100, "Reach your target weight"},
	},
	CategoryMuscleBuilding: {
		{25, "First visible progress"},
		{50, "Halfway to your target"},
		{75, "Three quarters of the way to your target"},
		{100, "Reach your muscle building target"},
	},
}

//nolint:gochecknoglobals // immutable reference data.
var (
	countableSplit = []float64{20, 40, 60, 80, 100}
	quarterSplit   = []float64{25, 50, 75, 100}
)

func milestoneSteps(category GoalCategory) []milestoneStep {
	if t, ok := milestoneTemplates[category]; ok {
		return t
	}
	split := quarterSplit
	if category == CategorySkillAcquisition {
		split = countableSplit
	}
	steps := make([]milestoneStep, len(split))
	for i, pct := range split {
		steps[i] = milestoneStep{percent: pct, description: fmt.Sprintf("%.0f%% of the way to your goal", pct)}
	}
	return steps
}

// GenerateMilestones derives the ordered milestones of g.
//
// Target values are start + pct/100 * (target - start). A goal that starts at its target gets a single milestone.
// When g has a deadline, target dates are spread proportionally between g.CreatedAt and the deadline.
func GenerateMilestones(g Goal) []Milestone {
	steps := milestoneSteps(g.Category)
	if g.StartValue == g.TargetValue {
		steps = steps[len(steps)-1:]
	}
	targets := milestoneTargets(g, steps)
	milestones := make([]Milestone, len(steps))
	for i, step := range steps {
		milestones[i] = Milestone{
			ID:           0,
			GoalID:       g.ID,
			OrderIndex:   i + 1,
			TargetValue:  targets[i],
			Description:  step.description,
			TargetDate:   milestoneDate(g, step.percent),
			AchievedDate: nil,
			Status:       MilestonePending,
		}
	}
	return milestones
}

// milestoneTargets places each step percent of the way from start to target. Targets are rounded to six decimals
// unless rounding would make two of them level on a tiny span. The last target is the goal target exactly.
func milestoneTargets(g Goal, steps []milestoneStep) []float64 {
	span := g.TargetValue - g.StartValue
	raw := make([]float64, len(steps))
	rounded := make([]float64, len(steps))
	for i, step := range steps {
		raw[i] = g.StartValue + step.percent/100*span //nolint:mnd // percent.
		rounded[i] = roundTo(raw[i], 6)               //nolint:mnd // decimals shown to users.
	}
	raw[len(raw)-1], rounded[len(rounded)-1] = g.TargetValue, g.TargetValue
	prev := g.StartValue
	for _, v := range rounded {
		if (v-prev)*span <= 0 {
			return raw
		}
		prev = v
	}
	return rounded
}

func milestoneDate(g Goal, percent float64) *time.Time {
	if g.Deadline == nil || g.CreatedAt.IsZero() {
		return nil
	}
	start := dateOf(g.CreatedAt)
	days := daysBetween(start, *g.Deadline)
	if days < 0 {
		days = 0
	}
	d := start.AddDate(0, 0, int(math.Round(float64(days)*percent/100))) //nolint:mnd // percent.
	return &d
}

// RegenerateMilestones keeps achieved milestones verbatim and regenerates the pending ones.
//
// Fresh milestones are kept only when they lie strictly beyond the last achieved target and are renumbered to follow
// the achieved ones. The final target is always present unless it is already achieved.
func RegenerateMilestones(g Goal, existing []Milestone) []Milestone {
	var achieved []Milestone
	for _, m := range existing {
		if m.Status == MilestoneAchieved {
			achieved = append(achieved, m)
		}
	}
	result := make([]Milestone, 0, len(achieved)+len(countableSplit))
	for i, m := range achieved {
		m.OrderIndex = i + 1
		result = append(result, m)
	}
	for _, m := range GenerateMilestones(g) {
		if len(achieved) > 0 {
			last := achieved[len(achieved)-1].TargetValue
			if g.reached(last, m.TargetValue) {
				continue
			}
		}
		m.OrderIndex = len(result) + 1
		result = append(result, m)
	}
	return result
}

// applyProgress marks pending milestones crossed by value as achieved on date. It returns whether any changed.
func applyProgress(g Goal, milestones []Milestone, value float64, date time.Time) bool {
	changed := false
	for i := range milestones {
		m := &milestones[i]
		if m.Status != MilestonePending || !g.reached(value, m.TargetValue) {
			continue
		}
		d := dateOf(date)
		m.Status = MilestoneAchieved
		m.AchievedDate = &d
		changed = true
	}
	return changed
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals)) //nolint:mnd // base 10.
	return math.Round(v*p) / p
}
