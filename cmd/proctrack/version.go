package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/proctrack/proctrack/version"
)

func init() {
	rootCmd.AddCommand(cmdVersion)
}

var cmdVersion = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("proctrack version %s\n", version.Version)
	},
}
