package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/gssdash/config"
	"github.com/spektr-org/gssdash/dataset"
	"github.com/spektr-org/gssdash/logging"
	"github.com/spektr-org/gssdash/views"
)

// ============================================================================
// GSSDASH CLI — GSS gender pay dashboard
// ============================================================================

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries what PersistentPreRunE builds for every subcommand.
type app struct {
	configPath string
	logLevel   string
	source     string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "gssdash",
		Short: "GSS gender pay dashboard",
		Long: `gssdash serves an interactive dashboard over the 2018 General Social
Survey extract: agreement with the "male breadwinner" statement, income and
job prestige distributions by sex, a prestige vs income scatter with
trendlines, and a configurable grouped bar chart.

Examples:
  gssdash serve --config gssdash.yaml
  gssdash render --view distribution --region pacific --out charts/
  gssdash export --region "new england" --format xlsx --out gss.xlsx`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.source, "source", "", "Dataset URL or file path")

	cmd.AddCommand(
		newServeCmd(a),
		newRenderCmd(a),
		newExportCmd(a),
		newOptionsCmd(a),
		newProfileCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// init loads configuration, applies flag overrides and builds the logger.
func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.source != "" {
		cfg.Source.URL = a.source
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	logger, _, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// load reads the dataset named by the configuration.
func (a *app) load(ctx context.Context) (*dataset.Dataset, error) {
	return dataset.Load(ctx, a.cfg.Source.URL,
		dataset.WithEncoding(a.cfg.Source.Encoding),
		dataset.WithTimeout(a.cfg.Source.Timeout),
		dataset.WithCachePath(a.cfg.Source.CachePath),
		dataset.WithLogger(a.logger),
	)
}

// dashboard builds the dashboard with the configured cache.
func (a *app) dashboard(data *dataset.Dataset, opts ...views.Option) *views.Dashboard {
	opts = append([]views.Option{
		views.WithLogger(a.logger),
		views.WithPalette(a.cfg.Render.Palette...),
	}, opts...)
	if a.cfg.Cache.Enabled {
		opts = append(opts, views.WithCache(a.cfg.Cache.TTL, a.cfg.Cache.Cleanup))
	}
	return views.NewDashboard(data, opts...)
}
