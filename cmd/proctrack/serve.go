package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

var servePort int

func init() {
	cmdServe.Flags().IntVar(&servePort, "port", 0, "Web API port (overrides config)")
	rootCmd.AddCommand(cmdServe)
}

var cmdServe = &cobra.Command{
	Use:   "serve",
	Short: "Start tracking in the background with the web API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		childArgs := []string{"serve"}
		if servePort > 0 {
			if err := cfg.SetWebPort(servePort); err != nil {
				return err
			}
			childArgs = append(childArgs, "--port", strconv.Itoa(servePort))
		}
		return launchDaemon(cfg, childArgs, true)
	},
}
