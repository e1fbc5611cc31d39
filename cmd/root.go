package cmd

import (
	"fmt"
	"os"

	"labelops/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "labelops",
	Short: "labelops is the label back-office service.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
