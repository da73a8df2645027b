package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate a flow definition",
		ArgsUsage: "<flow.yaml>",
		Action: func(ctx context.Context, command *cli.Command) error {
			if _, err := loadConfig(ctx, command); err != nil {
				return err
			}
			aFlow, err := loadFlow(ctx, command)
			if err != nil {
				return err
			}
			plan, err := aFlow.Plan()
			if err != nil {
				return err
			}
			fmt.Fprintf(command.Root().Writer, "flow %s is valid: %d steps, %d levels\n", aFlow.ID, len(aFlow.Steps), len(plan.Levels))
			return nil
		},
	}
}

func NewPlanCommand() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "Print the execution levels of a flow",
		ArgsUsage: "<flow.yaml>",
		Action: func(ctx context.Context, command *cli.Command) error {
			if _, err := loadConfig(ctx, command); err != nil {
				return err
			}
			aFlow, err := loadFlow(ctx, command)
			if err != nil {
				return err
			}
			plan, err := aFlow.Plan()
			if err != nil {
				return err
			}
			for i, ids := range plan.IDs() {
				fmt.Fprintf(command.Root().Writer, "level %d: %v\n", i, ids)
			}
			return nil
		},
	}
}
