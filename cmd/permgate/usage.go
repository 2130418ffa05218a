package main

import (
	"github.com/spf13/cobra"
)

// usageCmd represents the usage command
var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Inspect and record capability access history",
	Long:  `Usage subcommands read the recorded access history of a capability group and ingest new access events from platform attribution.`,
}

func init() {
	rootCmd.AddCommand(usageCmd)
}
