package main

import (
	"context"
	"fmt"
	"time"

	"github.com/myrjola/trainingplan/internal/training"
	"github.com/spf13/cobra"
)

func (c *cli) goalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage fitness goals and their milestones",
	}
	cmd.AddCommand(
		c.goalClassifyCmd(),
		c.goalAddCmd(),
		c.goalListCmd(),
		c.goalShowCmd(),
		c.goalProgressCmd(),
		c.goalStatusCmd(),
		c.goalTargetCmd(),
		c.goalDeleteCmd(),
	)
	return cmd
}

func (c *cli) goalClassifyCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "classify <description>",
		Short: "Show the training approach for a goal description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(_ context.Context, svc *training.Service) error {
				tt, err := svc.ClassifyGoal(args[0], category)
				if err != nil {
					return err
				}
				if ok, err := c.printJSON(cmd, tt); ok {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Category: %s\nPeriodization: %s\n", tt.Category, tt.PeriodizationStyle)
				_, _ = fmt.Fprintf(out, "Methods: %v\nPatterns: %v\n%s\n", tt.TrainingMethods, tt.MovementPatterns,
					tt.Description)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Explicit goal category")
	return cmd
}

func (c *cli) goalAddCmd() *cobra.Command {
	var (
		in       training.GoalInput
		current  string
		deadline string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a goal and generate its milestones",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if current != "" {
				v, err := parseFloatArg("current value", current)
				if err != nil {
					return err
				}
				in.CurrentValue = &v
			}
			if deadline != "" {
				d, err := parseDateOrToday("deadline", deadline, c.now())
				if err != nil {
					return err
				}
				in.Deadline = &d
			}
			if in.Description == "" {
				in.Description = in.Title
			}
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				detail, err := svc.CreateGoal(ctx, in)
				if err != nil {
					return err
				}
				return c.printGoal(cmd, detail)
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "Goal title")
	cmd.Flags().StringVar(&in.Description, "description", "", "Free-text description used for classification")
	cmd.Flags().StringVar(&in.Category, "category", "", "Explicit goal category")
	cmd.Flags().Float64Var(&in.StartValue, "start", 0, "Start value")
	cmd.Flags().StringVar(&current, "current", "", "Current value (default start value)")
	cmd.Flags().Float64Var(&in.TargetValue, "target", 0, "Target value")
	cmd.Flags().StringVar(&in.Unit, "unit", "", "Unit shared by the values, such as kg or reps")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func (c *cli) goalListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				goals, err := svc.ListGoals(ctx)
				if err != nil {
					return err
				}
				if ok, err := c.printJSON(cmd, goals); ok {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, "ID\tSTATUS\tPROGRESS\tTITLE")
				for _, g := range goals {
					_, _ = fmt.Fprintf(out, "%d\t%s\t%.1f%%\t%s\n", g.ID, g.Status, g.Progress(), g.Title)
				}
				return nil
			})
		},
	}
}

func (c *cli) goalShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a goal with its milestones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("goal id", args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				detail, err := svc.GetGoal(ctx, id)
				if err != nil {
					return err
				}
				return c.printGoal(cmd, detail)
			})
		},
	}
}

func (c *cli) goalProgressCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "progress <id> <value>",
		Short: "Record the current value of a goal",
		Args:  cobra.ExactArgs(2), //nolint:mnd // id and value.
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("goal id", args[0])
			if err != nil {
				return err
			}
			value, err := parseFloatArg("value", args[1])
			if err != nil {
				return err
			}
			on, err := parseDateOrToday("date", date, c.now())
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				detail, err := svc.LogGoalProgress(ctx, id, value, on)
				if err != nil {
					return err
				}
				return c.printGoal(cmd, detail)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date of the measurement YYYY-MM-DD (default today)")
	return cmd
}

func (c *cli) goalStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <active|paused|abandoned|achieved>",
		Short: "Change the status of a goal",
		Args:  cobra.ExactArgs(2), //nolint:mnd // id and status.
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("goal id", args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				detail, err := svc.SetGoalStatus(ctx, id, training.GoalStatus(args[1]))
				if err != nil {
					return err
				}
				return c.printGoal(cmd, detail)
			})
		},
	}
}

func (c *cli) goalTargetCmd() *cobra.Command {
	var start, target float64
	cmd := &cobra.Command{
		Use:   "target <id>",
		Short: "Change the start and target values and regenerate pending milestones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("goal id", args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				detail, err := svc.UpdateGoalTarget(ctx, id, start, target)
				if err != nil {
					return err
				}
				return c.printGoal(cmd, detail)
			})
		},
	}
	cmd.Flags().Float64Var(&start, "start", 0, "Start value")
	cmd.Flags().Float64Var(&target, "target", 0, "Target value")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func (c *cli) goalDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a goal and its milestones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("goal id", args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				if err = svc.DeleteGoal(ctx, id); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted goal %d\n", id)
				return nil
			})
		},
	}
}

func (c *cli) printGoal(cmd *cobra.Command, detail training.GoalDetail) error {
	if ok, err := c.printJSON(cmd, detail); ok {
		return err
	}
	g := detail.Goal
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Goal %d: %s [%s, %s]\n", g.ID, g.Title, g.Category, g.Status)
	_, _ = fmt.Fprintf(out, "Progress: %.1f%% (%s of %s %s, started at %s)\n", detail.Progress,
		formatValue(g.CurrentValue), formatValue(g.TargetValue), g.Unit, formatValue(g.StartValue))
	for _, m := range detail.Milestones {
		line := fmt.Sprintf("  %d. %s %s", m.OrderIndex, formatValue(m.TargetValue), m.Status)
		if m.TargetDate != nil {
			line += " by " + m.TargetDate.Format(time.DateOnly)
		}
		if m.AchievedDate != nil {
			line += " on " + m.AchievedDate.Format(time.DateOnly)
		}
		_, _ = fmt.Fprintln(out, line)
	}
	return nil
}
