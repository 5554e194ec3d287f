package main

import (
	"context"
	"fmt"

	"staff-match/internal/app"
	"staff-match/internal/config"
	"staff-match/internal/database/seeder"
	"staff-match/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const appName = "matchctl"

type rootOptions struct {
	debug   bool
	json    bool
	fixture string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "matchctl operates the staff-match engine from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "verbose/debug output")
	cmd.PersistentFlags().BoolVarP(&opts.json, "json", "j", false, "json format for logging")
	cmd.PersistentFlags().StringVar(&opts.fixture, "fixture", "", "YAML fixture of jobs and workers loaded before the command runs")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newMatchCmd(opts),
		newInvalidateCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}

// open loads configuration and builds the container. The fixture, when set,
// is written through the container's entity store.
func (o *rootOptions) open(ctx context.Context) (*app.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.debug {
		cfg.App.LogDebug = true
	}
	if o.json {
		cfg.App.LogJSON = true
	}

	log, err := logger.New(cfg.App.LogJSON, cfg.App.LogDebug)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	c, err := app.NewContainer(cfg, log.Named(appName))
	if err != nil {
		return nil, err
	}

	if o.fixture != "" {
		fx, err := seeder.LoadFixture(o.fixture)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		if err := (seeder.Runner{Seeders: []seeder.Seeder{fx}, Logger: c.Logger}).Run(ctx, c.Entities); err != nil {
			_ = c.Close()
			return nil, err
		}
		c.Logger.Debug("fixture loaded", zap.String("path", o.fixture), zap.Int("entities", len(fx.Entities())))
	}
	return c, nil
}
