// Package main implements the flowsight CLI.
// It provides commands for scanning source trees, rebuilding workflow
// narratives, and rendering filtered graph views.
package main

import (
	"os"

	"flowsight/cmd/flowsight/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`flowsight version {{.Version}}
`)

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
