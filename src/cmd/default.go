package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
	"github.com/nodedesk/nodedesk/src/internal/opqueue"
	"github.com/nodedesk/nodedesk/src/internal/ui"
)

var defaultCmd = &cobra.Command{
	Use:   "default <version>",
	Short: "Set the default Node.js version",
	Long: `Set the default Node.js version in an environment. The version must
already be installed there.

Examples:
  nodedesk default 18.16.0
  nodedesk default 20.11.1 --env wsl:Ubuntu`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		version, err := catalog.ParseVersion(args[0])
		if err != nil {
			ui.Error("Invalid version: %v", err)
			return
		}

		ctx := context.Background()
		eng, err := startEngine(ctx)
		if err != nil {
			ui.Error("%v", err)
			return
		}
		defer eng.Stop()

		op, err := eng.Submit(opqueue.KindSetDefault, targetEnv(), version)
		if err != nil {
			ui.Error("%v", err)
			return
		}

		final := waitForOperation(eng, op.ID, nil)
		switch final.Status {
		case opqueue.StatusSucceeded:
			ui.Success("Default set to Node.js %s", version)
		case opqueue.StatusFailed:
			ui.Error("Setting default failed: %s", final.Err)
			if final.Detail != "" {
				ui.Detail(final.Detail)
			}
		default:
			ui.Warning("Operation ended with status %s", final.Status)
		}
	},
}

func init() {
	rootCmd.AddCommand(defaultCmd)
}
