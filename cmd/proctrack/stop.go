package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/proctrack/proctrack/internal/daemon"
)

func init() {
	rootCmd.AddCommand(cmdStop)
}

var cmdStop = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dm := daemon.New(cfg.Daemon.PIDFile)

		running, pid, err := dm.IsRunning()
		if err != nil {
			return fmt.Errorf("failed to check daemon status: %w", err)
		}

		if !running {
			fmt.Println("Daemon is not running")
			return nil
		}

		fmt.Printf("Stopping daemon (PID: %d)...\n", pid)
		if err := dm.Stop(); err != nil {
			return fmt.Errorf("failed to stop daemon: %w", err)
		}

		fmt.Println("Daemon stopped successfully")
		return nil
	},
}
