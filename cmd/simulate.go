package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetload/app"
)

var busCmd = &cobra.Command{
	Use:   "bus",
	Short: "Simulate overnight hydrogen refuelling of the bus fleet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runService(cmd, func(ctx context.Context, svc *app.Service) error {
			_, err := svc.RunBus(ctx)
			return err
		})
	},
}

var evCmd = &cobra.Command{
	Use:   "ev",
	Short: "Simulate the charging demand of the EV fleet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runService(cmd, func(ctx context.Context, svc *app.Service) error {
			_, err := svc.RunEV(ctx)
			return err
		})
	},
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Run the EV simulation for every substation of the scenario catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runService(cmd, func(ctx context.Context, svc *app.Service) error {
			_, err := svc.RunScenarios(ctx)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(busCmd, evCmd, scenariosCmd)
}
