package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/gssdash"
	"github.com/spektr-org/gssdash/export"
	"github.com/spektr-org/gssdash/gss"
	"github.com/spektr-org/gssdash/render"
	"github.com/spektr-org/gssdash/schema"
	"github.com/spektr-org/gssdash/server"
	"github.com/spektr-org/gssdash/views"
)

// ── serve ────────────────────────────────────────────────────────────────────

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the dataset and serve the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			data, err := a.load(ctx)
			if err != nil {
				return err
			}
			renderer, err := render.New(a.cfg.Render.Backend, a.cfg.Render.Size())
			if err != nil {
				return err
			}

			metrics := server.NewMetrics()
			dash := a.dashboard(data, views.WithRecorder(metrics))
			srv := server.New(data, dash, renderer,
				server.WithLogger(a.logger),
				server.WithMetrics(metrics),
				server.WithCORSOrigins(a.cfg.Server.CORSOrigins...),
				server.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
			)
			a.logger.Info("dashboard ready",
				zap.Int("rows", data.Len()),
				zap.Strings("regions", data.Regions()),
				zap.String("renderer", renderer.Name()),
			)
			return srv.Run(ctx, a.cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

// ── render ───────────────────────────────────────────────────────────────────

type renderFlags struct {
	view    string
	outDir  string
	format  string
	regions []string
	feature string
	groupBy string
}

func (f renderFlags) selection() views.Selection {
	sel := views.Selection{
		views.SelectorRegion:        f.regions,
		views.SelectorRegionScatter: f.regions,
	}
	if f.feature != "" {
		sel[views.SelectorBarFeature] = []string{f.feature}
	}
	if f.groupBy != "" {
		sel[views.SelectorGroupBy] = []string{f.groupBy}
	}
	return sel
}

func newRenderCmd(a *app) *cobra.Command {
	var f renderFlags
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render dashboard charts to files",
		Long: `Renders every chart of a view (or of all views) into --out.

Formats:
  png, svg  chart images
  csv       chart series as CSV (ready for Sheets/Excel)
  json      the view output as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			dash := a.dashboard(data)
			sel := f.selection()
			if err := dash.Validate(sel); err != nil {
				return err
			}

			ids := []string{f.view}
			if f.view == "" {
				ids = ids[:0]
				for _, c := range dash.Controllers() {
					ids = append(ids, c.ID())
				}
			}
			if err := os.MkdirAll(f.outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			renderer, err := render.New(a.cfg.Render.Backend, a.cfg.Render.Size())
			if err != nil {
				return err
			}
			for _, id := range ids {
				out, err := dash.Render(id, sel)
				if err != nil {
					return err
				}
				if err := writeOutput(f.outDir, f.format, out, renderer); err != nil {
					return err
				}
				if out.Empty {
					a.logger.Warn("view has no data for selection", zap.String("view", id))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.view, "view", "", "View id (agreement, distribution, scatter, custom); empty renders all")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", ".", "Output directory")
	cmd.Flags().StringVar(&f.format, "format", "png", "Output format: png, svg, csv, json")
	cmd.Flags().StringArrayVar(&f.regions, "region", nil, "Region code filter (repeatable)")
	cmd.Flags().StringVar(&f.feature, "feature", "", "Custom bar feature")
	cmd.Flags().StringVar(&f.groupBy, "groupby", "", "Custom bar grouping")
	return cmd
}

// writeOutput writes one file per chart, or one JSON file per view.
func writeOutput(dir, format string, out *views.Output, renderer render.Renderer) error {
	if format == "json" {
		return writeFile(filepath.Join(dir, out.Controller+".json"), func(w io.Writer) error {
			return writeJSON(w, out, true)
		})
	}

	for _, c := range out.Charts {
		path := filepath.Join(dir, c.ID+"."+format)
		var err error
		switch format {
		case "csv":
			err = writeFile(path, func(w io.Writer) error { return export.WriteChartCSV(w, c.ChartConfig) })
		default:
			imgFormat, perr := render.ParseFormat(format)
			if perr != nil {
				return perr
			}
			err = writeFile(path, func(w io.Writer) error { return renderer.Render(w, c.ChartConfig, imgFormat) })
		}
		if err != nil {
			return fmt.Errorf("%s: %w", c.ID, err)
		}
	}
	return nil
}

// ── export ───────────────────────────────────────────────────────────────────

func newExportCmd(a *app) *cobra.Command {
	var (
		regions []string
		format  string
		outFile string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export respondent rows, optionally filtered by region",
		RunE: func(cmd *cobra.Command, args []string) error {
			ef, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			data, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			view := views.FilterByRegion(data.View(), regions)

			write := func(w io.Writer) error {
				if ef == export.XLSX {
					return export.WriteXLSX(w, view, gss.Columns)
				}
				return export.WriteCSV(w, view, gss.Columns)
			}

			// ── Output writer ─────────────────────────────────────────────
			if outFile == "" {
				if ef == export.XLSX {
					return fmt.Errorf("--out is required for xlsx")
				}
				return write(cmd.OutOrStdout())
			}
			if err := writeFile(outFile, write); err != nil {
				return err
			}
			a.logger.Info("export written", zap.String("path", outFile), zap.Int("rows", view.Len()))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&regions, "region", nil, "Region code filter (repeatable)")
	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv, xlsx")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write output to file instead of stdout")
	return cmd
}

// ── profile ──────────────────────────────────────────────────────────────────

func newProfileCmd(a *app) *cobra.Command {
	var (
		regions []string
		pretty  bool
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Print null counts, distinct values and ranges for every field",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			view := views.FilterByRegion(data.View(), regions)
			return writeJSON(cmd.OutOrStdout(), schema.Profile(view, gss.Schema), pretty)
		},
	}
	cmd.Flags().StringArrayVar(&regions, "region", nil, "Region code filter (repeatable)")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "Indent the JSON output")
	return cmd
}

// ── options / version ────────────────────────────────────────────────────────

func newOptionsCmd(a *app) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "options",
		Short: "Print the selector catalogue as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), a.dashboard(data).Options(), pretty)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", true, "Indent the JSON output")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// No config or dataset needed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gssdash %s\n", gssdash.Version)
		},
	}
}

// ============================================================================
// OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// writeFile creates path and writes it with fn, removing it on failure.
func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
