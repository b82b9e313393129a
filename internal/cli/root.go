// Package cli implements the pharmacyctl command line.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/UnknownOlympus/pharmacy-locator/internal/app"
	"github.com/UnknownOlympus/pharmacy-locator/internal/config"
	"github.com/UnknownOlympus/pharmacy-locator/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X .../internal/cli.version=...".
var version = "dev"

var verbose bool

// Lookup is the part of the lookup service the CLI drives.
type Lookup interface {
	Initialize(ctx context.Context) error
	Fetch(ctx context.Context, region, subRegion string) error
	Snapshot() service.Snapshot
}

// newLookup builds the lookup service from the environment. Tests replace it.
var newLookup = func(ctx context.Context, log *slog.Logger) (Lookup, func(), error) {
	cfg := config.MustLoad()
	a, err := app.New(ctx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		return nil, nil, err
	}
	return a.Service, a.Close, nil
}

var rootCmd = &cobra.Command{
	Use:          "pharmacyctl",
	Short:        "Find nearby pharmacies and their opening hours",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
