// Package cmd implements the CLI commands for nodedesk
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nodedesk/nodedesk/src/internal/engine"
	"github.com/nodedesk/nodedesk/src/internal/environ"
	"github.com/nodedesk/nodedesk/src/internal/logging"
	"github.com/nodedesk/nodedesk/src/internal/opqueue"
	"github.com/nodedesk/nodedesk/src/internal/settings"
	"github.com/nodedesk/nodedesk/src/internal/tui"
	"github.com/nodedesk/nodedesk/src/internal/ui"
)

var (
	verbose bool
	envFlag string
)

var rootCmd = &cobra.Command{
	Use:   "nodedesk",
	Short: "Node.js version management across your local environments",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetVerbose(verbose)
		ui.CheckVerboseEnv()
	},
}

func Execute() {
	// Check for --version or -v flag before Cobra parses
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			versionCmd.Run(versionCmd, []string{})
			return
		}
	}

	if err := rootCmd.Execute(); err != nil {
		// Error already printed by Cobra, just exit with error code
		os.Exit(1)
	}
}

func init() {
	// Hide the completion command until we implement it
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "", "Target environment ID (default: native)")

	rootCmd.SetUsageFunc(customUsage)
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		_ = customUsage(cmd)
	})
}

func customUsage(cmd *cobra.Command) error {
	const tableWidth = 95 // Consistent width for all tables

	headerTable := tui.NewTable("")
	headerTable.SetTitle(cmd.Short)
	headerTable.HideHeader()
	headerTable.SetMinWidth(tableWidth)
	headerTable.AddRow("nodedesk manages Node.js versions through fnm across your native OS and")
	headerTable.AddRow("WSL distributions, with installs, undo, and release-line update checks.")

	fmt.Println(headerTable.Render())
	fmt.Println()

	table := tui.NewTable("Command", "Description")
	table.SetTitle("Available Commands")
	table.SetMinWidth(tableWidth)

	for _, c := range cmd.Commands() {
		if c.Hidden || c.Name() == "completion" {
			continue
		}
		table.AddRow(c.Name(), c.Short)
	}

	fmt.Println(table.Render())

	return nil
}

// startEngine loads settings, sets up logging, and returns a started
// engine. Callers must Stop it.
func startEngine(ctx context.Context) (*engine.Engine, error) {
	cfg, err := settings.Load()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logging.Init(level)

	eng := engine.New(cfg)
	eng.Start(ctx)
	return eng, nil
}

// targetEnv resolves the --env flag to an environment ID.
func targetEnv() environ.ID {
	if envFlag == "" {
		return environ.NativeID
	}
	return environ.ID(envFlag)
}

// waitForOperation blocks until the operation reaches a terminal status or
// becomes undoable. Queue events can be dropped under load, so a poll
// ticker backs up the subscription.
func waitForOperation(eng *engine.Engine, id uuid.UUID, onEvent func(opqueue.Operation)) opqueue.Operation {
	events, cancel := eng.Subscribe()
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	settled := func(op opqueue.Operation) bool {
		return op.Status.Terminal() || op.Status == opqueue.StatusUndoAvailable
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				op, _ := eng.Operation(id)
				return op
			}
			if ev.Op.ID != id {
				continue
			}
			if onEvent != nil {
				onEvent(ev.Op)
			}
			if settled(ev.Op) {
				return ev.Op
			}
		case <-ticker.C:
			op, found := eng.Operation(id)
			if !found || settled(op) {
				return op
			}
		}
	}
}
