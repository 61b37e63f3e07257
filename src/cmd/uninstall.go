package cmd

import (
	"bufio"
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
	"github.com/nodedesk/nodedesk/src/internal/engine"
	"github.com/nodedesk/nodedesk/src/internal/opqueue"
	"github.com/nodedesk/nodedesk/src/internal/ui"
)

var uninstallNoUndoFlag bool

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <version>",
	Short: "Uninstall a Node.js version",
	Long: `Uninstall a Node.js version from an environment.

After the uninstall completes there is a short grace window during which
it can be undone; nodedesk waits for that window and reinstalls the
version if you ask it to.

Examples:
  nodedesk uninstall 16.13.0
  nodedesk uninstall 16.13.0 --env wsl:Ubuntu --no-undo`,
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

		env := targetEnv()
		op, err := eng.Submit(opqueue.KindUninstall, env, version)
		if err != nil {
			ui.Error("%v", err)
			return
		}

		final := waitForOperation(eng, op.ID, nil)
		switch final.Status {
		case opqueue.StatusUndoAvailable:
			ui.Success("Uninstalled Node.js %s", version)
			if !uninstallNoUndoFlag {
				offerUndo(eng, final)
			}
		case opqueue.StatusFailed:
			ui.Error("Uninstall failed: %s", final.Err)
			if final.Detail != "" {
				ui.Detail(final.Detail)
			}
		default:
			ui.Warning("Uninstall ended with status %s", final.Status)
		}
	},
}

// offerUndo prompts for an undo until the operation's grace window runs
// out. Anything other than "u" within the window keeps the uninstall.
func offerUndo(eng *engine.Engine, op opqueue.Operation) {
	window := time.Until(op.UndoDeadline)
	if window <= 0 {
		return
	}

	ui.Printf("Press u then Enter within %s to undo: ", window.Round(time.Second))

	answer := make(chan string, 1)
	go func() {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		answer <- strings.ToLower(strings.TrimSpace(line))
	}()

	select {
	case line := <-answer:
		if line != "u" {
			ui.Info("Keeping the uninstall")
			return
		}
	case <-time.After(window):
		ui.Println("")
		ui.Info("Undo window elapsed")
		return
	}

	redo, err := eng.Undo(op.ID)
	if err != nil {
		ui.Error("Undo failed: %v", err)
		return
	}
	ui.Info("Reinstalling Node.js %s", op.Version)
	final := waitForOperation(eng, redo.ID, nil)
	if final.Status == opqueue.StatusSucceeded {
		ui.Success("Restored Node.js %s", op.Version)
	} else {
		ui.Error("Reinstall ended with status %s: %s", final.Status, final.Err)
	}
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
	uninstallCmd.Flags().BoolVar(&uninstallNoUndoFlag, "no-undo", false, "Skip the undo prompt after uninstalling")
}
