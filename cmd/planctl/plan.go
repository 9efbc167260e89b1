package main

import (
	"context"
	"fmt"
	"time"

	"github.com/myrjola/trainingplan/internal/training"
	"github.com/spf13/cobra"
)

func (c *cli) planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate and manage weekly training plans",
	}

	var force bool
	generate := c.weekCmd("generate", "Generate the plan of a week",
		func(svc *training.Service, ctx context.Context, ws time.Time) (training.WeeklyTrainingPlan, error) { //nolint:revive // method expression order.
			return svc.GenerateWeeklyPlan(ctx, ws, force)
		})
	generate.Flags().BoolVar(&force, "force", false, "Replace an active or completed plan")

	cmd.AddCommand(
		generate,
		c.weekCmd("show", "Show the plan of a week", (*training.Service).GetPlan),
		c.weekCmd("activate", "Commit a draft and publish it to the calendar", (*training.Service).ActivatePlan),
		c.weekCmd("complete", "Mark an active plan completed", (*training.Service).CompletePlan),
		c.weekCmd("abandon", "Abandon a draft or active plan", (*training.Service).AbandonPlan),
		c.planNextCmd(),
		c.planWhyCmd(),
	)
	return cmd
}

// weekCmd builds a subcommand that applies action to the plan of the --week flag.
func (c *cli) weekCmd(
	use, short string,
	action func(*training.Service, context.Context, time.Time) (training.WeeklyTrainingPlan, error),
) *cobra.Command {
	var week string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := parseWeek(week, c.now())
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				plan, err := action(svc, ctx, ws)
				if err != nil {
					return err
				}
				return c.printPlan(cmd, plan)
			})
		},
	}
	cmd.Flags().StringVar(&week, "week", "", "Monday of the plan week YYYY-MM-DD (default this week)")
	return cmd
}

func (c *cli) planNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Draft next week's plan unless it is already committed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				plan, err := svc.PregenerateNextWeek(ctx)
				if err != nil {
					return err
				}
				return c.printPlan(cmd, plan)
			})
		},
	}
}

func (c *cli) planWhyCmd() *cobra.Command {
	var detail string
	cmd := &cobra.Command{
		Use:   "why <day-id>",
		Short: "Explain why a plan day looks the way it does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := training.ParseDetailLevel(detail)
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				j, err := svc.GetJustification(ctx, args[0], level)
				if err != nil {
					return err
				}
				if ok, err := c.printJSON(cmd, j); ok {
					return err
				}
				out := cmd.OutOrStdout()
				switch level {
				case training.DetailDetailed:
					_, _ = fmt.Fprintln(out, j.Detailed)
				case training.DetailHTML:
					_, _ = fmt.Fprintln(out, j.HTML)
				case training.DetailBrief:
					_, _ = fmt.Fprintln(out, j.Brief)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&detail, "detail", "brief", "Detail level: brief, detailed, or html")
	return cmd
}

func (c *cli) printPlan(cmd *cobra.Command, plan training.WeeklyTrainingPlan) error {
	if ok, err := c.printJSON(cmd, plan); ok {
		return err
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Week of %s (%s, v%d) %s\n", plan.WeekStart.Format(time.DateOnly), plan.Status,
		plan.Version, plan.Phase)
	load := fmt.Sprintf("Load target %d", plan.WeeklyLoadTarget)
	if plan.WeeklyLoadActual != nil {
		load += fmt.Sprintf(", actual %d", *plan.WeeklyLoadActual)
	}
	_, _ = fmt.Fprintln(out, load)
	for _, d := range plan.Days {
		line := fmt.Sprintf("%s %s\t%s", d.Date.Format("Mon"), d.Date.Format(time.DateOnly), d.Kind)
		if d.Focus != training.FocusNone {
			line += " " + string(d.Focus)
		}
		if d.DurationMinutes > 0 {
			line += fmt.Sprintf("\t%d min", d.DurationMinutes)
		}
		_, _ = fmt.Fprintf(out, "%s\tload %d\t%s\n", line, d.LoadScore, d.ID)
		for _, a := range d.Activities {
			_, _ = fmt.Fprintf(out, "    %s (%s, %d min)\n", a.Name, a.Intensity, a.DurationMinutes)
		}
		for _, e := range d.Exercises {
			_, _ = fmt.Fprintf(out, "    %d %s %dx%d-%d rest %ds", e.ExerciseID, e.Name, e.Sets, e.RepsMin, e.RepsMax,
				e.RestSeconds)
			if e.WeightKg > 0 {
				_, _ = fmt.Fprintf(out, " @ %s kg", formatValue(e.WeightKg))
			}
			if e.Note != "" {
				_, _ = fmt.Fprintf(out, " (%s)", e.Note)
			}
			_, _ = fmt.Fprintln(out)
		}
	}
	for _, w := range plan.Warnings {
		_, _ = fmt.Fprintf(out, "Warning [%s]: %s\n", w.Kind, w.Message)
	}
	return nil
}
