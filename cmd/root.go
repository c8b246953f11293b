package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetload/app"
	"github.com/kilianp07/fleetload/config"
	coremon "github.com/kilianp07/fleetload/core/monitoring"
	"github.com/kilianp07/fleetload/infra/logger"
	"github.com/kilianp07/fleetload/infra/monitoring"
)

var (
	cfgPath   string
	logLevel  string
	seed      uint64
	outputDir string
)

var rootCmd = &cobra.Command{
	Use:   "fleetload",
	Short: "Fleet charging demand simulator",
	Long: "fleetload simulates the refuelling demand of a hydrogen bus fleet and the\n" +
		"charging demand of an electric vehicle fleet as load time series.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "random seed override")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory override")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// runService loads the configuration, applies flag overrides and runs fn
// until it returns or a signal cancels the context.
func runService(cmd *cobra.Command, fn func(context.Context, *app.Service) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("seed") {
		cfg.Simulation.Seed = seed
	}
	if outputDir != "" {
		cfg.Simulation.OutputDir = outputDir
	}
	logger.SetLevel(cfg.Logging.Level)
	log := logger.New("main")

	mon, err := monitoring.New(cfg.Monitoring)
	if err != nil {
		log.Warnf("sentry disabled: %v", err)
	}
	coremon.Init(mon)
	defer coremon.Flush(2 * time.Second)

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()
	tags := map[string]string{"command": cmd.Name()}
	err = coremon.Guard(tags, func() error { return fn(ctx, svc) })
	if err != nil && ctx.Err() == nil {
		coremon.Capture(err, tags)
	}
	return err
}
