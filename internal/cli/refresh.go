package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbauto/orgchart/pkg/pipeline"
)

// refreshCommand creates the refresh command that pulls the directory.
func (c *CLI) refreshCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the directory and rebuild the snapshot",
		Long: `Fetch the directory and rebuild the snapshot.

The refresh pages through the identity provider's user listing, applies
the configured visibility filters, builds the reporting tree, and stores
the result as the current snapshot. Directory credentials must be set in
the config or environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), cfg, false)
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

			spinner := newSpinnerWithContext(cmd.Context(), "Fetching directory...")
			spinner.Start()

			snap, err := runner.Refresh(cmd.Context(), pipeline.Options{Settings: chart})
			if err != nil {
				spinner.StopWithError("Refresh failed")
				return fmt.Errorf("refresh: %w", err)
			}
			spinner.StopWithSuccess(fmt.Sprintf("Snapshot updated from %s", snap.Source))

			printStats(len(snap.Employees), snap.Tree.Count(), false)
			printNextStep("Export the chart", "orgchart export --format svg")
			return nil
		},
	}
	return cmd
}
