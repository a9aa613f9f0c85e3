package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/celer/app"
	"github.com/kilianp07/celer/config"
	coremon "github.com/kilianp07/celer/core/monitoring"
	"github.com/kilianp07/celer/infra/logger"
	"github.com/kilianp07/celer/infra/monitoring"
)

var (
	cfgPath     string
	summaryPath string
)

var rootCmd = &cobra.Command{
	Use:          "celer",
	Short:        "Ride-hailing fleet dispatch simulator",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.Flags().StringVar(&summaryPath, "summary", "", "write the run summary as JSON to this file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New("main")
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return err
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
	sum, err := svc.Run(ctx)
	if summaryPath != "" {
		if werr := writeSummary(summaryPath, sum); werr != nil {
			log.Errorf("summary: %v", werr)
		}
	}
	return err
}

func writeSummary(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
