package training_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/myrjola/trainingplan/internal/ptr"
	"github.com/myrjola/trainingplan/internal/testhelpers"
	"github.com/myrjola/trainingplan/internal/training"
)

func milestoneTargets(milestones []training.Milestone) []float64 {
	targets := make([]float64, len(milestones))
	for i, m := range milestones {
		targets[i] = m.TargetValue
	}
	return targets
}

func TestGenerateMilestones(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		category training.GoalCategory
		start    float64
		target   float64
		want     []float64
	}{
		{"increasing quarters", training.CategoryStrength, 100, 140, []float64{110, 120, 130, 140}},
		{"decreasing time", training.Category5kTime, 30, 25, []float64{28.75, 27.5, 26.25, 25}},
		{"countable skill", training.CategorySkillAcquisition, 0, 10, []float64{2, 4, 6, 8, 10}},
		{"generic quarters", training.CategoryMobility, 0, 20, []float64{5, 10, 15, 20}},
		{"already at target", training.CategoryStrength, 100, 100, []float64{100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			milestones := training.GenerateMilestones(training.Goal{
				ID: 7, Category: tt.category, StartValue: tt.start, CurrentValue: tt.start, TargetValue: tt.target,
				Status: training.GoalActive,
			})
			if diff := cmp.Diff(tt.want, milestoneTargets(milestones)); diff != "" {
				t.Errorf("targets mismatch (-want +got):\n%s", diff)
			}
			for i, m := range milestones {
				if m.OrderIndex != i+1 {
					t.Errorf("milestone %d order = %d", i, m.OrderIndex)
				}
				if m.GoalID != 7 || m.Status != training.MilestonePending || m.Description == "" {
					t.Errorf("milestone %d = %+v", i, m)
				}
				if m.TargetDate != nil {
					t.Errorf("milestone %d has a target date without a deadline", i)
				}
			}
		})
	}
}

func TestGenerateMilestones_TinySpansStayStrictlyOrdered(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		start  float64
		target float64
	}{
		{"below rounding precision", 0, 1e-7},
		{"rounding reaches the target", 0, 1e-6},
		{"skill steps at rounding precision", 3, 3 + 2e-6},
		{"decreasing", 1, 1 - 3e-7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for _, category := range []training.GoalCategory{training.CategoryStrength, training.CategorySkillAcquisition} {
				targets := milestoneTargets(training.GenerateMilestones(training.Goal{
					ID: 1, Category: category, StartValue: tt.start, CurrentValue: tt.start, TargetValue: tt.target,
					Status: training.GoalActive,
				}))
				prev := tt.start
				for i, v := range targets {
					if (v-prev)*(tt.target-tt.start) <= 0 {
						t.Errorf("%s targets %v: milestone %d does not move past %v", category, targets, i+1, prev)
					}
					prev = v
				}
				if last := targets[len(targets)-1]; last != tt.target {
					t.Errorf("%s final target = %v, want %v", category, last, tt.target)
				}
			}
		})
	}
}

func TestGenerateMilestones_SpreadsDatesToDeadline(t *testing.T) {
	t.Parallel()

	milestones := training.GenerateMilestones(training.Goal{
		ID: 1, Category: training.CategoryStrength, StartValue: 100, TargetValue: 140,
		Deadline:  ptr.Ref(testhelpers.Date(t, "2025-04-11")),
		CreatedAt: time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC),
		Status:    training.GoalActive,
	})
	want := []*time.Time{
		ptr.Ref(testhelpers.Date(t, "2025-01-26")),
		ptr.Ref(testhelpers.Date(t, "2025-02-20")),
		ptr.Ref(testhelpers.Date(t, "2025-03-17")),
		ptr.Ref(testhelpers.Date(t, "2025-04-11")),
	}
	got := make([]*time.Time, len(milestones))
	for i, m := range milestones {
		got[i] = m.TargetDate
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("target dates mismatch (-want +got):\n%s", diff)
	}
}

func TestRegenerateMilestones_KeepsAchieved(t *testing.T) {
	t.Parallel()

	goal := training.Goal{
		ID: 3, Category: training.CategoryStrength, StartValue: 100, CurrentValue: 112, TargetValue: 140,
		Status: training.GoalActive,
	}
	existing := training.GenerateMilestones(goal)
	existing[0].ID = 11
	existing[0].Status = training.MilestoneAchieved
	existing[0].AchievedDate = ptr.Ref(testhelpers.Date(t, "2025-02-01"))

	goal.TargetValue = 160
	got := training.RegenerateMilestones(goal, existing)

	if diff := cmp.Diff([]float64{110, 115, 130, 145, 160}, milestoneTargets(got)); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(existing[0], got[0]); diff != "" {
		t.Errorf("achieved milestone changed (-want +got):\n%s", diff)
	}
	for i, m := range got[1:] {
		if m.Status != training.MilestonePending || m.OrderIndex != i+2 {
			t.Errorf("milestone %d = %+v, want pending with order %d", i+1, m, i+2)
		}
	}
}

func TestRegenerateMilestones_DropsTargetsBehindAchieved(t *testing.T) {
	t.Parallel()

	goal := training.Goal{
		ID: 3, Category: training.CategoryStrength, StartValue: 100, CurrentValue: 135, TargetValue: 140,
		Status: training.GoalActive,
	}
	existing := training.GenerateMilestones(goal)
	for i := range 3 {
		existing[i].Status = training.MilestoneAchieved
	}

	// Every regenerated target lies behind the achieved 130, so only the achieved milestones remain.
	goal.TargetValue = 128
	got := training.RegenerateMilestones(goal, existing)
	if diff := cmp.Diff([]float64{110, 120, 130}, milestoneTargets(got),
		cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}
}
