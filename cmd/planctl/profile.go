package main

import (
	"context"
	"fmt"

	"github.com/myrjola/trainingplan/internal/training"
	"github.com/spf13/cobra"
)

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change fitness level, equipment, and training days",
	}
	cmd.AddCommand(c.profileShowCmd(), c.profileSetCmd())
	return cmd
}

func (c *cli) profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				p, err := svc.GetProfile(ctx)
				if err != nil {
					return err
				}
				return c.printProfile(cmd, p)
			})
		},
	}
}

// profileSetCmd updates only the fields whose flags are set.
func (c *cli) profileSetCmd() *cobra.Command {
	var (
		level      string
		equipment  string
		exclusions string
		days       string
		recovery   int
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *training.Service) error {
				p, err := svc.GetProfile(ctx)
				if err != nil {
					return err
				}
				flags := cmd.Flags()
				if flags.Changed("level") {
					p.FitnessLevel = training.FitnessLevel(level)
				}
				if flags.Changed("equipment") {
					p.Equipment = []training.Equipment{}
					for _, e := range splitList(equipment) {
						p.Equipment = append(p.Equipment, training.Equipment(e))
					}
				}
				if flags.Changed("exclude") {
					p.Exclusions = []training.BodyArea{}
					for _, a := range splitList(exclusions) {
						p.Exclusions = append(p.Exclusions, training.BodyArea(a))
					}
				}
				if flags.Changed("days") {
					if p.TrainingDays, err = parseWeekdays(days); err != nil {
						return err
					}
				}
				if flags.Changed("recovery-hours") {
					p.RecoveryWindowHours = recovery
				}
				if err = svc.SaveProfile(ctx, p); err != nil {
					return err
				}
				return c.printProfile(cmd, p)
			})
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "Fitness level: beginner, intermediate, or advanced")
	cmd.Flags().StringVar(&equipment, "equipment", "", "Comma-separated equipment, empty for bodyweight only")
	cmd.Flags().StringVar(&exclusions, "exclude", "", "Comma-separated body areas to avoid")
	cmd.Flags().StringVar(&days, "days", "", "Comma-separated preferred training days such as mon,wed,fri")
	cmd.Flags().IntVar(&recovery, "recovery-hours", 0, "Hours of recovery needed after a hard session")
	return cmd
}

func (c *cli) printProfile(cmd *cobra.Command, p training.Profile) error {
	if ok, err := c.printJSON(cmd, p); ok {
		return err
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Level: %s\nEquipment: %v\nExclusions: %v\nTraining days: %v\nRecovery window: %dh\n",
		p.FitnessLevel, p.Equipment, p.Exclusions, p.TrainingDays, p.RecoveryWindowHours)
	return nil
}
