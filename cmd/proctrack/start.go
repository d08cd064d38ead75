package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdStart)
}

var cmdStart = &cobra.Command{
	Use:   "start",
	Short: "Start tracking in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return launchDaemon(cfg, []string{"start"}, false)
	},
}
