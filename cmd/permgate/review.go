package main

import (
	"github.com/spf13/cobra"
)

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Manage pending grant reviews",
	Long: `Legacy-gated applications get their capabilities granted with a
pending review. Review subcommands inspect and clear that state.`,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
