package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
	"github.com/nodedesk/nodedesk/src/internal/fnm"
	"github.com/nodedesk/nodedesk/src/internal/tui"
	"github.com/nodedesk/nodedesk/src/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed Node.js versions",
	Long: `List installed Node.js versions in an environment, with the default
version and end-of-life status per release line.

Examples:
  nodedesk list                    # Native environment
  nodedesk list --env wsl:Ubuntu   # A WSL distribution`,
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
		refreshCtx, cancel := context.WithTimeout(ctx, fnm.DefaultQueryTimeout)
		defer cancel()
		if err := eng.RefreshEnv(refreshCtx, env); err != nil {
			ui.Error("%v", err)
			return
		}

		set, ok := eng.Catalog().Installed(env)
		if !ok || len(set.Versions) == 0 {
			ui.Info("No versions installed")
			return
		}

		table := tui.NewTable("Version", "Default", "Support")
		table.SetTitle(fmt.Sprintf("Installed versions (%s)", env))
		for _, v := range set.Versions {
			def := ""
			if v.IsDefault {
				def = "default"
			}
			state := eng.EOLStatus(ctx, v.Version)
			row := []string{v.Version.String(), def, tui.RenderSupportState(state)}
			if v.IsDefault {
				table.AddHighlightRow(row...)
			} else {
				table.AddRow(row...)
			}
		}
		fmt.Println(table.Render())

		if set.Stale {
			ui.Warning("Shown data may be out of date; the last refresh failed")
		}
		warnEndingLines(ctx, eng, set)
	},
}

// warnEndingLines prints one warning per installed release line that is
// ending soon or already past end-of-life.
func warnEndingLines(ctx context.Context, eng engineFacade, set catalog.InstalledSet) {
	seen := map[int]bool{}
	for _, v := range set.Versions {
		if seen[v.Version.Major] {
			continue
		}
		seen[v.Version.Major] = true
		switch eng.EOLStatus(ctx, v.Version) {
		case catalog.SupportEnded:
			ui.Warning("Node.js %d is past end-of-life; consider uninstalling", v.Version.Major)
		case catalog.SupportEnding:
			ui.Warning("Node.js %d reaches end-of-life soon", v.Version.Major)
		}
	}
}

// engineFacade is the slice of the engine the list helpers need.
type engineFacade interface {
	EOLStatus(ctx context.Context, v catalog.NodeVersion) catalog.SupportState
}

func init() {
	rootCmd.AddCommand(listCmd)
}
