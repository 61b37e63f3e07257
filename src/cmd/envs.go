package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodedesk/nodedesk/src/internal/environ"
	"github.com/nodedesk/nodedesk/src/internal/tui"
	"github.com/nodedesk/nodedesk/src/internal/ui"
)

var envsRecheckFlag bool

var envsCmd = &cobra.Command{
	Use:   "envs",
	Short: "List detected environments",
	Long: `List the environments nodedesk can manage: the native OS plus any WSL
distributions, with tool availability for each.

Examples:
  nodedesk envs            # Show environments from the last detection
  nodedesk envs --recheck  # Drop cached tool paths and probe again`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		eng, err := startEngine(ctx)
		if err != nil {
			ui.Error("%v", err)
			return
		}
		defer eng.Stop()

		reg := eng.Registry()
		envs := reg.Environments()
		if envsRecheckFlag {
			for _, env := range envs {
				reg.Recheck(env.ID)
			}
		}

		table := tui.NewTable("ID", "Environment", "Status", "Tool")
		table.SetTitle("Environments")
		for _, env := range envs {
			tool := describeTool(ctx, reg, env)
			status := string(env.Availability)
			if env.ID == environ.NativeID {
				table.AddHighlightRow(string(env.ID), env.Label, status, tool)
			} else {
				table.AddRow(string(env.ID), env.Label, status, tool)
			}
		}
		fmt.Println(table.Render())
	},
}

// describeTool resolves the version tool for one environment and renders
// the outcome as a table cell.
func describeTool(ctx context.Context, reg *environ.Registry, env *environ.Environment) string {
	if !env.Running() {
		return "-"
	}
	path, err := reg.ResolveTool(ctx, env.ID)
	if err != nil {
		return "not found"
	}
	if env.ToolVersion != "" {
		return fmt.Sprintf("%s (%s)", path, env.ToolVersion)
	}
	return path
}

func init() {
	rootCmd.AddCommand(envsCmd)
	envsCmd.Flags().BoolVar(&envsRecheckFlag, "recheck", false, "Re-probe tool availability in every environment")
}
