package cmd

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
	"github.com/nodedesk/nodedesk/src/internal/fnm"
	"github.com/nodedesk/nodedesk/src/internal/opqueue"
	"github.com/nodedesk/nodedesk/src/internal/ui"
)

var installCmd = &cobra.Command{
	Use:   "install <version>",
	Short: "Install a Node.js version",
	Long: `Install a Node.js version into an environment, streaming download
progress while the tool works.

Examples:
  nodedesk install 18.16.0
  nodedesk install v20.11.1 --env wsl:Ubuntu`,
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
		op, err := eng.Submit(opqueue.KindInstall, env, version)
		if err != nil {
			ui.Error("%v", err)
			return
		}

		ui.Info("Installing Node.js %s in %s", ui.HighlightVersion(version.String()), env)

		render := newInstallRenderer()
		final := waitForOperation(eng, op.ID, func(op opqueue.Operation) {
			render.observe(op.Progress)
		})
		render.finish()

		switch final.Status {
		case opqueue.StatusSucceeded:
			ui.Success("Installed Node.js %s", version)
		case opqueue.StatusFailed:
			ui.Error("Install failed: %s", final.Err)
			if final.Detail != "" {
				ui.Detail(final.Detail)
			}
		default:
			ui.Warning("Install ended with status %s", final.Status)
		}
	},
}

// installRenderer turns queue progress snapshots into a byte progress bar.
// The bar is created lazily once a total size is known; phase changes
// before that are printed as plain lines.
type installRenderer struct {
	bar       *progressbar.ProgressBar
	lastPhase fnm.Phase
}

func newInstallRenderer() *installRenderer {
	return &installRenderer{}
}

func (r *installRenderer) observe(p fnm.Progress) {
	if p.Phase == r.lastPhase && r.bar == nil && !p.HasPercent {
		return
	}

	switch p.Phase {
	case fnm.PhaseDownloading:
		if r.bar == nil && p.TotalBytes > 0 {
			r.bar = progressbar.DefaultBytes(
				int64(p.TotalBytes),
				"Downloading",
			)
		}
		if r.bar != nil && p.TotalBytes > 0 {
			_ = r.bar.Set64(int64(p.BytesDownloaded))
		}
	case fnm.PhaseExtracting:
		r.closeBar()
		if r.lastPhase != fnm.PhaseExtracting {
			ui.Progress("Extracting...")
		}
	case fnm.PhaseInstalling:
		r.closeBar()
		if r.lastPhase != fnm.PhaseInstalling {
			ui.Progress("Installing...")
		}
	}
	r.lastPhase = p.Phase
}

func (r *installRenderer) finish() {
	r.closeBar()
}

func (r *installRenderer) closeBar() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Finish()
	fmt.Println() // New line after progress bar
	r.bar = nil
}

func init() {
	rootCmd.AddCommand(installCmd)
}
