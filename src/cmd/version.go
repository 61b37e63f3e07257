package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodedesk/nodedesk/src/internal/tui"
)

// Version can be set at build time using ldflags
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the nodedesk version",
	Long:  `Display the current version of nodedesk.`,
	Run: func(cmd *cobra.Command, args []string) {
		table := tui.NewTable("")
		table.HideHeader()
		table.AddRow(fmt.Sprintf("nodedesk %s", Version))
		fmt.Println(table.Render())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
