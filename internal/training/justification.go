package training

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
)

// DetailLevel selects how much of a justification is returned.
type DetailLevel string

const (
	DetailBrief    DetailLevel = "brief"
	DetailDetailed DetailLevel = "detailed"
	DetailHTML     DetailLevel = "html"
)

// ParseDetailLevel defaults to brief.
func ParseDetailLevel(s string) (DetailLevel, error) {
	switch l := DetailLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return DetailBrief, nil
	case DetailBrief, DetailDetailed, DetailHTML:
		return l, nil
	}
	return "", validationError("unknown detail level %q", s)
}

const (
	maxBriefLength = 200
	maxTitleLength = 80
)

//nolint:gochecknoglobals // immutable reference data.
var (
	styleRationale = map[PeriodizationStyle]string{
		StylePowerFocus: "Explosive, low-repetition work teaches your nervous system to recruit muscle quickly, " +
			"which carries over to jumping and sprinting.",
		StyleEnduranceFocus: "Higher repetitions with short rests build muscular endurance and support your " +
			"aerobic capacity.",
		StyleStrengthFocus: "Progressive overload on compound movements builds strength and muscle in the " +
			"lifts that matter for your goal.",
		StyleBalanced: "Mixing upper and lower body movements across the week builds well-rounded fitness " +
			"without overloading any single area.",
		StyleMaintenance: "Controlled movement through full ranges of motion keeps your joints healthy and " +
			"improves how freely you move.",
	}
	styleAdaptation = map[PeriodizationStyle]string{
		StylePowerFocus:     "Expect noticeable gains in explosive power within 4 to 6 weeks of consistent training.",
		StyleEnduranceFocus: "Expect your conditioning to improve within 6 to 8 weeks of consistent training.",
		StyleStrengthFocus:  "Expect strength gains within 4 to 8 weeks, with visible muscle changes after 8 to 12 weeks.",
		StyleBalanced:       "Expect to feel fitter and stronger within 4 to 6 weeks of consistent training.",
		StyleMaintenance:    "Expect easier, more comfortable movement within 2 to 4 weeks of regular practice.",
	}
	focusLabels = map[DayFocus]string{
		FocusFullBody:  "Full body",
		FocusUpperBody: "Upper body",
		FocusLowerBody: "Lower body",
		FocusMobility:  "Mobility",
		FocusNone:      "Training",
	}
)

// ComposeJustification explains day of plan in terms of the goals, the calendar, and the periodization phase.
//
// The brief text is a single sentence naming the dominant reason for the day. The detailed text is markdown and only
// states facts taken from its inputs.
func ComposeJustification(plan WeeklyTrainingPlan, day PlanDay, goals []Goal) WorkoutJustification {
	goals = slices.Clone(goals)
	slices.SortFunc(goals, func(a, b Goal) int { return a.ID - b.ID })

	addressed, dominant := addressedGoals(day, goals)
	goalIDs := make([]int, 0, len(addressed))
	for _, g := range addressed {
		goalIDs = append(goalIDs, g.ID)
	}
	j := WorkoutJustification{
		DayID:             day.ID,
		PlanID:            plan.ID,
		Date:              day.Date,
		Brief:             briefText(day, dominant),
		Detailed:          "",
		GoalIDs:           goalIDs,
		CalendarNote:      calendarNote(day, plan.CalendarDegraded),
		PeriodizationNote: periodizationNote(plan.Phase),
	}
	j.Detailed = detailedText(day, addressed, dominant, j)
	return j
}

// addressedGoals returns the goals a day works toward and the one it serves most. Workout days address the goals whose
// movement patterns they train, or every goal when none match. Recovery days support every goal. Rest and external
// days address none.
func addressedGoals(day PlanDay, goals []Goal) ([]Goal, *Goal) {
	switch day.Kind {
	case DayRest, DayExternal:
		return []Goal{}, nil
	case DayRecovery:
		return goals, nil
	case DayWorkout:
	}
	var (
		matched  []Goal
		dominant *Goal
		best     int
	)
	for i, g := range goals {
		t, err := TrainingType(g.Category)
		if err != nil {
			continue
		}
		score := 0
		for _, e := range day.Exercises {
			if slices.Contains(t.MovementPatterns, e.Pattern) {
				score++
			}
		}
		if score == 0 {
			continue
		}
		matched = append(matched, g)
		if score > best {
			best = score
			dominant = &goals[i]
		}
	}
	if len(matched) == 0 {
		matched = goals
		if len(goals) > 0 {
			dominant = &goals[0]
		}
	}
	return matched, dominant
}

func briefText(day PlanDay, dominant *Goal) string {
	var s string
	switch day.Kind {
	case DayExternal:
		s = fmt.Sprintf("Today is reserved for your %s, so no extra workout is scheduled.", activityNames(day.Activities))
	case DayRecovery:
		a := day.ConstrainedBy[0]
		s = fmt.Sprintf("Light mobility today to recover around your high-intensity %s on %s.",
			activityName(a), a.Date.Weekday())
	case DayRest:
		if len(day.ConstrainedBy) > 0 {
			a := day.ConstrainedBy[0]
			s = fmt.Sprintf("Rest today to stay fresh for your high-intensity %s on %s.", activityName(a), a.Date.Weekday())
		} else {
			s = "Rest day to let your body recover and adapt."
		}
	case DayWorkout:
		label := focusLabels[day.Focus]
		if dominant == nil {
			s = label + " session to build balanced general fitness."
		} else {
			s = fmt.Sprintf("%s session focused on your goal: %s.", label, truncate(dominant.Title, maxTitleLength))
		}
	}
	return truncate(s, maxBriefLength)
}

func calendarNote(day PlanDay, degraded bool) string {
	switch {
	case degraded && len(day.Activities) == 0 && len(day.ConstrainedBy) == 0:
		return "Your calendar could not be read, so this day assumes no outside activities."
	case len(day.Activities) > 0:
		return fmt.Sprintf("Your calendar lists %s today.", activityNames(day.Activities))
	case len(day.ConstrainedBy) > 0:
		parts := make([]string, len(day.ConstrainedBy))
		for i, a := range day.ConstrainedBy {
			parts[i] = fmt.Sprintf("%s on %s (load %d of 10)", activityName(a), a.Date.Weekday(), a.LoadScore)
		}
		return "This day is kept light because of " + strings.Join(parts, " and ") + "."
	}
	return "No calendar activities affect this day."
}

func periodizationNote(s PhaseSnapshot) string {
	c := s.Phase.Config()
	return fmt.Sprintf("This is week %d of %d of the %s phase: %s volume at %s intensity, targeting RPE %d to %d.",
		s.WeekInPhase, s.TotalWeeksInPhase, s.Phase, c.Volume, c.Intensity, c.RPEMin, c.RPEMax)
}

func detailedText(day PlanDay, addressed []Goal, dominant *Goal, j WorkoutJustification) string {
	var b strings.Builder
	b.WriteString(j.Brief + "\n")

	if len(addressed) > 0 {
		b.WriteString("\n## Goals\n\n")
		for _, g := range addressed {
			fmt.Fprintf(&b, "- **%s**: %.0f%% of the way from %s to %s %s.\n",
				escapeMarkdown(g.Title), g.Progress(), formatValue(g.StartValue), formatValue(g.TargetValue),
				escapeMarkdown(g.Unit))
		}
	}

	style := StyleBalanced
	if dominant != nil {
		if t, err := TrainingType(dominant.Category); err == nil {
			style = t.PeriodizationStyle
			if day.Kind == DayWorkout {
				b.WriteString("\n## Training methods\n\n")
				fmt.Fprintf(&b, "Today uses %s. %s\n", strings.Join(t.TrainingMethods, ", "), styleRationale[style])
			}
		}
	}

	if len(day.Exercises) > 0 {
		b.WriteString("\n## Session\n\n")
		for _, e := range day.Exercises {
			reps := fmt.Sprintf("%d to %d", e.RepsMin, e.RepsMax)
			if e.RepsMin == e.RepsMax {
				reps = fmt.Sprint(e.RepsMin)
			}
			fmt.Fprintf(&b, "- %s: %d sets of %s reps, %d s rest", escapeMarkdown(e.Name), e.Sets, reps, e.RestSeconds)
			if e.WeightKg > 0 {
				fmt.Fprintf(&b, " at %s kg", formatValue(e.WeightKg))
			}
			if e.Note != "" {
				fmt.Fprintf(&b, " (%s)", e.Note)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n## Calendar\n\n" + j.CalendarNote + "\n")
	b.WriteString("\n## Periodization\n\n" + j.PeriodizationNote + "\n")
	if day.Kind == DayWorkout {
		b.WriteString("\n## Expected adaptation\n\n" + styleAdaptation[style] + "\n")
	}
	return b.String()
}

// RenderJustificationHTML converts detailed justification markdown to HTML. Raw HTML in the input is not rendered.
func RenderJustificationHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

func activityName(a ExternalActivity) string {
	if a.Name != "" {
		return a.Name
	}
	return strings.ReplaceAll(string(a.Type), "_", " ")
}

func activityNames(activities []ExternalActivity) string {
	names := make([]string, len(activities))
	for i, a := range activities {
		names[i] = activityName(a)
	}
	return strings.Join(names, " and ")
}

func formatValue(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

//nolint:gochecknoglobals // immutable.
var markdownEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// truncate shortens s to at most n runes, ending in an ellipsis when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
