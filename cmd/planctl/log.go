package main

import (
	"context"
	"fmt"
	"time"

	"github.com/myrjola/trainingplan/internal/training"
	"github.com/spf13/cobra"
)

func (c *cli) logCmd() *cobra.Command {
	var (
		in   training.LogInput
		date string
	)
	cmd := &cobra.Command{
		Use:   "log <exercise-id>",
		Short: "Log a performed exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if in.ExerciseID, err = parseIDArg("exercise id", args[0]); err != nil {
				return err
			}
			if in.Date, err = parseDateOrToday("date", date, c.now()); err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				l, err := svc.LogExercise(ctx, in)
				if err != nil {
					return err
				}
				if ok, err := c.printJSON(cmd, l); ok {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged exercise %d on %s: %d reps @ %s kg, RPE %s\n",
					l.ExerciseID, l.Date.Format(time.DateOnly), l.Reps, formatValue(l.WeightKg), formatValue(l.RPE))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&in.Reps, "reps", 0, "Repetitions performed")
	cmd.Flags().Float64Var(&in.WeightKg, "weight", 0, "Weight in kg")
	cmd.Flags().Float64Var(&in.RPE, "rpe", 0, "Rate of perceived exertion 1-10")
	cmd.Flags().StringVar(&date, "date", "", "Date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("reps")
	_ = cmd.MarkFlagRequired("rpe")
	return cmd
}

func (c *cli) progressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <exercise-id>",
		Short: "Suggest the next session of an exercise from its recent logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("exercise id", args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				p, err := svc.SuggestProgression(ctx, id)
				if err != nil {
					return err
				}
				if ok, err := c.printJSON(cmd, p); ok {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Next: %d reps @ %s kg (%s, average RPE %s over %d logs)\n",
					p.Reps, formatValue(p.WeightKg), p.Note, formatValue(p.AverageRPE), p.BasedOn)
				return nil
			})
		},
	}
}

func (c *cli) exercisesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exercises",
		Short: "List the exercise catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				exercises, err := svc.ListExercises(ctx)
				if err != nil {
					return err
				}
				if ok, err := c.printJSON(cmd, exercises); ok {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, "ID\tPATTERN\tLEVEL\tNAME")
				for _, e := range exercises {
					_, _ = fmt.Fprintf(out, "%d\t%s\t%d\t%s\n", e.ID, e.Pattern, e.Difficulty, e.Name)
				}
				return nil
			})
		},
	}
}

func (c *cli) periodizationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "periodization",
		Short: "Show the current training phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				state, err := svc.GetPeriodization(ctx)
				if err != nil {
					return err
				}
				if ok, err := c.printJSON(cmd, state); ok {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Phase: %s week %d of %d\nCycle started: %s\n", state.CurrentPhase,
					state.WeekInPhase, state.TotalWeeksInPhase, state.CycleStartDate.Format(time.DateOnly))
				if state.NextDeloadDate != nil {
					_, _ = fmt.Fprintf(out, "Next deload: %s\n", state.NextDeloadDate.Format(time.DateOnly))
				}
				return nil
			})
		},
	}
}
