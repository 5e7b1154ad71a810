package cli

import (
	"github.com/spf13/cobra"

	"github.com/dbauto/orgchart/internal/server"
)

// serveCommand creates the serve command that runs the web application.
func (c *CLI) serveCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the org chart web application",
		Long: `Serve the org chart web application.

The server exposes the chart payload, settings, reports, search, and
export endpoints, and runs the scheduled directory refresh when enabled
in the config. It shuts down gracefully on SIGINT/SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			if cfg.Directory.ClientID == "" {
				printWarning("No directory credentials configured; refresh is unavailable")
			}

			runner, err := c.newRunner(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			settings, err := newSettingsStore(cfg)
			if err != nil {
				return err
			}

			srv := server.New(cfg, settings, runner, c.Logger)
			printInfo("Serving on %s", StyleHighlight.Render(cfg.Listen))
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides config)")
	return cmd
}
