package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dbauto/orgchart/pkg/report"
)

// reportCommand creates the report command for staffing reports.
func (c *CLI) reportCommand() *cobra.Command {
	var (
		days   int
		output string
	)

	kinds := make([]string, len(report.Kinds))
	for i, k := range report.Kinds {
		kinds[i] = string(k)
	}

	cmd := &cobra.Command{
		Use:   "report [kind]",
		Short: "Print a staffing report",
		Long: fmt.Sprintf(`Print a staffing report from the stored snapshot.

Available kinds:
  %s

Reports with a time window (recently-hired, recently-disabled) accept
--days to override the configured window. Pass --output to write the
report as a spreadsheet instead of printing it.`, strings.Join(kinds, "\n  ")),
		ValidArgs: kinds,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), cfg, true)
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

			snap, err := runner.Store.Load(cmd.Context())
			if err != nil {
				return err
			}

			kind := report.Kind(args[0])
			window := chart.RecentDays
			if kind == report.KindRecentlyHired {
				window = chart.NewHireDays
			}
			if days > 0 {
				window = days
			}

			rep, err := report.NewBuilder(snap.Employees, snap.Tree).Build(kind, window)
			if err != nil {
				return err
			}

			if output != "" {
				data, err := report.WriteXLSX(rep, chart.Columns)
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, data, 0644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				printSuccess("%s: %d entries", rep.Title, len(rep.Entries))
				printFile(output)
				return nil
			}

			printReport(rep)
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 0, "time window in days (windowed reports)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report as XLSX instead of printing")
	return cmd
}

// printReport renders a report as a terminal table.
func printReport(rep report.Report) {
	fmt.Println(StyleTitle.Render(rep.Title))

	if len(rep.Entries) == 0 {
		printInfo("No entries")
		return
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, 0, len(rep.Entries))
	for _, e := range rep.Entries {
		rows = append(rows, []string{e.Name, e.Title, e.Department, e.Reason})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "Title", "Department", "Reason").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	fmt.Println(t.Render())
	fmt.Println(StyleDim.Render(fmt.Sprintf("  %d entries", len(rep.Entries))))
}
