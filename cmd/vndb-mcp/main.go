package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "vndb-mcp",
		Short:         "MCP server for the VNDB visual novel database",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (defaults when empty)")

	root.AddCommand(
		newServeCmd(&configPath),
		newSearchCmd(&configPath),
		newDetailsCmd(&configPath),
		newNotesCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
