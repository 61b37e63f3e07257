package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nodedesk/nodedesk/src/internal/fnm"
	"github.com/nodedesk/nodedesk/src/internal/opqueue"
	"github.com/nodedesk/nodedesk/src/internal/ui"
)

var pruneYesFlag bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Uninstall all but the newest version of each release line",
	Long: `Uninstall every installed version except the newest of each major
release line and the current default. Shows the exact list before
touching anything.

Examples:
  nodedesk prune
  nodedesk prune --env wsl:Ubuntu --yes`,
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

		candidates := eng.Catalog().PruneCandidates(env)
		if len(candidates) == 0 {
			ui.Info("Nothing to prune")
			return
		}

		ui.Header("Will uninstall:")
		for _, v := range candidates {
			ui.Printf("  %s\n", ui.HighlightVersion(v.String()))
		}

		if !pruneYesFlag && !confirm(fmt.Sprintf("\nUninstall %d version(s)? [y/N]: ", len(candidates))) {
			ui.Info("Aborted")
			return
		}

		ops, err := eng.SubmitPrune(env)
		if err != nil {
			ui.Error("%v", err)
			return
		}

		failed := 0
		for _, op := range ops {
			final := waitForOperation(eng, op.ID, nil)
			switch final.Status {
			case opqueue.StatusUndoAvailable, opqueue.StatusSucceeded, opqueue.StatusExpired:
				ui.Success("Uninstalled Node.js %s", op.Version)
			default:
				failed++
				ui.Error("Node.js %s: %s", op.Version, final.Err)
			}
		}
		if failed > 0 {
			ui.Warning("%d of %d uninstalls failed", failed, len(ops))
			return
		}
		ui.Success("Pruned %d version(s)", len(ops))
	},
}

// confirm prints a prompt and reads a yes/no answer from stdin.
func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().BoolVarP(&pruneYesFlag, "yes", "y", false, "Skip confirmation prompt")
}
