package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodedesk/nodedesk/src/internal/fnm"
	"github.com/nodedesk/nodedesk/src/internal/tui"
	"github.com/nodedesk/nodedesk/src/internal/ui"
)

var listRemoteLTSFlag bool

var listRemoteCmd = &cobra.Command{
	Use:   "list-remote",
	Short: "List Node.js versions available to install",
	Long: `List Node.js versions available for install, as reported by the tool
in the native environment.

Examples:
  nodedesk list-remote          # Every available version
  nodedesk list-remote --lts    # LTS releases only`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		eng, err := startEngine(ctx)
		if err != nil {
			ui.Error("%v", err)
			return
		}
		defer eng.Stop()

		sp := ui.NewSpinner("Contacting fnm")
		sp.Start()
		refreshCtx, cancel := context.WithTimeout(ctx, fnm.DefaultQueryTimeout)
		refreshErr := eng.RefreshRemote(refreshCtx)
		cancel()
		sp.UpdateMessage("Collecting available versions")

		set, ok := eng.Catalog().Remote()
		switch {
		case refreshErr != nil && !ok:
			sp.Error("Fetching available versions failed")
			ui.Error("%v", refreshErr)
			return
		case refreshErr != nil:
			sp.Warning("Fetch failed, showing cached versions from %s", set.FetchedAt.Format("2006-01-02 15:04"))
		default:
			sp.Success("Fetched %d versions", len(set.Versions))
		}

		if len(set.Versions) == 0 {
			ui.Info("No versions reported")
			return
		}

		table := tui.NewTable("Version", "LTS")
		table.SetTitle("Available versions")
		shown := 0
		for _, v := range set.Versions {
			if listRemoteLTSFlag && v.LTSCodename == "" {
				continue
			}
			codename := ""
			if v.LTSCodename != "" {
				codename = v.LTSCodename
			}
			table.AddRow(v.Version.String(), codename)
			shown++
		}
		if shown == 0 {
			ui.Info("No LTS versions reported")
			return
		}
		fmt.Println(table.Render())
	},
}

func init() {
	rootCmd.AddCommand(listRemoteCmd)
	listRemoteCmd.Flags().BoolVar(&listRemoteLTSFlag, "lts", false, "Show only LTS releases")
}
