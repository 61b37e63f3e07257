package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodedesk/nodedesk/src/internal/fnm"
	"github.com/nodedesk/nodedesk/src/internal/tui"
	"github.com/nodedesk/nodedesk/src/internal/ui"
)

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "Check installed release lines for newer versions",
	Long: `Compare the newest installed version of each release line against the
published Node.js release data and report lines that are behind.

Examples:
  nodedesk updates
  nodedesk updates --env wsl:Ubuntu`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		eng, err := startEngine(ctx)
		if err != nil {
			ui.Error("%v", err)
			return
		}
		defer eng.Stop()

		env := targetEnv()
		err = ui.WithSpinner("Checking installed versions", func() error {
			refreshCtx, cancel := context.WithTimeout(ctx, fnm.DefaultQueryTimeout)
			defer cancel()
			return eng.RefreshEnv(refreshCtx, env)
		})
		if err != nil {
			ui.Error("%v", err)
			return
		}

		report := eng.CheckUpdates(ctx, env)
		if len(report.Updates) == 0 {
			ui.Success("All installed release lines are up to date")
		} else {
			table := tui.NewTable("Line", "Installed", "Latest")
			table.SetTitle("Updates available")
			for _, u := range report.Updates {
				table.AddRow(
					fmt.Sprintf("Node.js %d", u.Major),
					u.Installed.String(),
					u.Latest.String(),
				)
			}
			fmt.Println(table.Render())
			ui.Info("Run 'nodedesk install <version>' to update a line")
		}

		if report.StaleData {
			ui.Warning("Release data could not be refreshed; results are based on a cached snapshot")
		}
	},
}

func init() {
	rootCmd.AddCommand(updatesCmd)
}
