package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nodedesk/nodedesk/src/internal/environ"
	"github.com/nodedesk/nodedesk/src/internal/manifest"
	"github.com/nodedesk/nodedesk/src/internal/settings"
	"github.com/nodedesk/nodedesk/src/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose tool detection and release data access",
	Long: `Report whether the version tool can be found in each environment and
whether Node.js release data is reachable. Run this first when
something misbehaves.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		eng, err := startEngine(ctx)
		if err != nil {
			ui.Error("%v", err)
			return
		}
		defer eng.Stop()

		ui.Header("Environments")
		reg := eng.Registry()
		for _, env := range reg.Environments() {
			reportEnvironment(ctx, reg, env)
		}

		ui.Header("\nRelease data")
		m, err := eng.Manifest(ctx)
		switch {
		case m == nil:
			ui.Error("No release data available: %v", err)
		case manifest.IsStale(err):
			ui.Warning("Release data is stale (fetched %s)", fetchedLabel(m))
		case err != nil:
			ui.Error("Release data: %v", err)
		default:
			ui.Success("Release data current (fetched %s, %d lines)", fetchedLabel(m), len(m.Lines))
		}

		ui.Header("\nStorage")
		paths := settings.DefaultPaths()
		ui.Info("Config: %s", paths.Config)
		ui.Info("Cache:  %s", paths.Cache)
		ui.Info("Logs:   %s", paths.Logs)
	},
}

func reportEnvironment(ctx context.Context, reg *environ.Registry, env *environ.Environment) {
	if !env.Running() {
		ui.Warning("%s: not running", env.Label)
		return
	}
	path, err := reg.ResolveTool(ctx, env.ID)
	if err != nil {
		ui.Error("%s: version tool not found (%v)", env.Label, err)
		ui.Info("  Install fnm, or set tool_path in the config file")
		return
	}
	if env.ToolVersion != "" {
		ui.Success("%s: %s (fnm %s)", env.Label, path, env.ToolVersion)
		return
	}
	ui.Success("%s: %s", env.Label, path)
}

func fetchedLabel(m *manifest.Manifest) string {
	if m.FetchedAt.IsZero() {
		return "built-in snapshot"
	}
	return m.FetchedAt.Format("2006-01-02 15:04")
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
