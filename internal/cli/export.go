package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbauto/orgchart/pkg/pipeline"
)

// exportCommand creates the export command for rendering chart artifacts.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		title      string
		full       bool
		refresh    bool
		noCache    bool
		scale      float64
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the chart as SVG, PNG, DOT, Graphviz SVG, or XLSX",
		Long: `Export the chart as SVG, PNG, DOT, Graphviz SVG, or XLSX.

The export runs the full pipeline against the stored snapshot: filters,
hierarchy, layout, and rendering. Pass --full to lay out every employee
regardless of the configured collapse depth, and --refresh to fetch a
fresh snapshot first. Layout and render results are cached locally.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), cfg, noCache)
			if err != nil {
				return err
			}
			settings, err := newSettingsStore(cfg)
			if err != nil {
				return err
			}
			chart, err := settings.Load()
			if err != nil {
				return err
			}

			opts := pipeline.Options{
				Settings: chart,
				Formats:  parseFormats(formatsStr),
				Full:     full,
				Refresh:  refresh,
				Title:    title,
				Scale:    scale,
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			spinner := newSpinnerWithContext(cmd.Context(), "Rendering chart...")
			spinner.Start()

			res, err := runner.Execute(cmd.Context(), opts)
			if err != nil {
				spinner.StopWithError("Export failed")
				return fmt.Errorf("export: %w", err)
			}
			spinner.Stop()

			for _, format := range opts.Formats {
				path := outputPath(output, format, opts.Formats)
				if err := os.WriteFile(path, res.Artifacts[format], 0644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				printFile(path)
			}

			printStats(res.Stats.EmployeeCount, res.Stats.VisibleCount, res.CacheInfo.LayoutHit && res.CacheInfo.RenderHit)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, dot-svg, xlsx (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "chart title")
	cmd.Flags().BoolVar(&full, "full", false, "lay out the whole tree, ignoring collapse depth")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch a fresh snapshot before exporting")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&scale, "scale", 0, "PNG device scale factor")

	return cmd
}
