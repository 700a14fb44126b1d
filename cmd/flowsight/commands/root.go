package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "flowsight",
	Short: "flowsight - Reconstruct business workflows from source code",
	Long: `flowsight statically analyzes a source tree and reconstructs the
business workflows hidden in it: database operations, API calls, file
and queue I/O, cache access, and the UI triggers that start them.

Commands:
  scan        Scan a source tree and build the workflow graph
  workflows   Narrate the user-facing workflows from the last scan
  graph       Render a (filtered) diagram view of the last scan
  export      Re-export the last scan in a chosen format
  init        Create a configuration file interactively

Use "flowsight [command] --help" for more information about a command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}
