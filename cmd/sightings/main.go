package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/sightings/internal/app"
	"github.com/MrSnakeDoc/sightings/internal/config"
	"github.com/MrSnakeDoc/sightings/internal/logger"
	"github.com/MrSnakeDoc/sightings/internal/pipeline"
	"github.com/MrSnakeDoc/sightings/internal/version"
)

// runFunc starts the service, or runs a single cycle when once is set.
type runFunc func(ctx context.Context, once bool) error

func main() {
	if err := newRootCmd(run).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "❌ sightings failed: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(fn runFunc) *cobra.Command {
	var once bool

	root := &cobra.Command{
		Use:           "sightings",
		Short:         "Periodically run the sightings collection pipeline and keep cumulative stats",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return fn(cmd.Context(), once)
		},
	}
	root.Flags().BoolVar(&once, "once", false, "run a single collection cycle and exit")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "sightings", version.String())
		},
	})

	return root
}

func run(ctx context.Context, once bool) error {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.PrettyLog, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	p, err := pipeline.NewCommand(cfg.PipelineCmd, cfg.PipelineTimeout)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, log, p)
	if err != nil {
		return err
	}

	if once {
		return a.RunOnce(ctx)
	}
	return a.Run(ctx)
}
