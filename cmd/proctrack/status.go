package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/proctrack/proctrack/internal/daemon"
	"github.com/proctrack/proctrack/pkg/provider"
	"github.com/proctrack/proctrack/pkg/utils"
)

func init() {
	rootCmd.AddCommand(cmdStatus)
}

var cmdStatus = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status and the most recently updated application",
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
			fmt.Println("Status: Not running")
		} else {
			fmt.Printf("Status: Running (PID: %d)\n", pid)
		}
		fmt.Printf("Poll Interval: %v\n", cfg.Tracker.PollInterval)
		fmt.Printf("Provider: %s (display server: %s)\n", cfg.Tracker.Provider, provider.DetectDisplayServer())

		repo, db, err := openRepository(cfg)
		if err != nil {
			fmt.Printf("\nCould not open database: %v\n", err)
			return nil
		}
		defer db.Close()

		ctx := cmd.Context()
		latest, err := repo.GetLatest(ctx)
		if err == nil && latest != nil {
			fmt.Printf("\nLast Updated:\n")
			fmt.Printf("  App: %s (%s)\n", latest.DisplayName, latest.Name)
			fmt.Printf("  Running Time: %s\n", utils.FormatDuration(uint64(latest.CumulativeSeconds)))
			fmt.Printf("  At: %s\n", latest.LastSeenAt.In(cfg.Location()).Format("2006-01-02 15:04:05"))
		}

		logs, err := repo.GetRecentErrors(ctx, 5)
		if err == nil && len(logs) > 0 {
			fmt.Printf("\nRecent Errors:\n")
			for _, l := range logs {
				fmt.Printf("  %s [%s] %s\n", l.Timestamp.In(cfg.Location()).Format("2006-01-02 15:04:05"), l.Kind, l.ErrorMsg)
			}
		}
		return nil
	},
}
