package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nodedesk/nodedesk/src/internal/fnm"
	"github.com/nodedesk/nodedesk/src/internal/ui"
)

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the active Node.js version",
	Long: `Show the Node.js version active in an environment right now.

Examples:
  nodedesk current
  nodedesk current --env wsl:Ubuntu`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		eng, err := startEngine(ctx)
		if err != nil {
			ui.Error("%v", err)
			return
		}
		defer eng.Stop()

		client, err := eng.Client(ctx, targetEnv())
		if err != nil {
			ui.Error("%v", err)
			return
		}

		queryCtx, cancel := context.WithTimeout(ctx, fnm.DefaultQueryTimeout)
		defer cancel()
		v, active, err := client.Current(queryCtx)
		if err != nil {
			ui.Error("%v", err)
			return
		}
		if !active {
			ui.Info("No Node.js version is active")
			return
		}
		ui.Println("%s", ui.HighlightVersion(v.String()))
	},
}

func init() {
	rootCmd.AddCommand(currentCmd)
}
