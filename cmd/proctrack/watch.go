package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/proctrack/proctrack/internal/config"
	"github.com/proctrack/proctrack/internal/reporter"
	"github.com/proctrack/proctrack/internal/tracker"
	"github.com/proctrack/proctrack/internal/tui"
)

var (
	watchTUI      bool
	watchInterval string
	watchProvider string
)

func init() {
	cmdWatch.Flags().BoolVar(&watchTUI, "tui", false, "Show an interactive table instead of printing each cycle")
	cmdWatch.Flags().StringVarP(&watchInterval, "interval", "i", "", "Poll interval, e.g. 10s or 30 (overrides config)")
	cmdWatch.Flags().StringVarP(&watchProvider, "provider", "p", "", "Snapshot provider: auto, x11, wayland or process (overrides config)")
	rootCmd.AddCommand(cmdWatch)
}

var cmdWatch = &cobra.Command{
	Use:   "watch",
	Short: "Track running time in the foreground",
	Long:  `Polls in the foreground and prints every application with its instance count and cumulative running time after each cycle.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := applyWatchFlags(cfg); err != nil {
			return err
		}

		s, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer s.close()

		if watchTUI {
			return tui.Run(s.tracker, cfg.Tracker.PollInterval)
		}

		s.tracker.OnCycle = func(result *tracker.CycleResult) {
			fmt.Fprint(os.Stdout, reporter.FormatCycle(result))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := s.tracker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func applyWatchFlags(cfg *config.Config) error {
	if watchInterval != "" {
		interval, err := config.ParseInterval(watchInterval)
		if err != nil {
			return err
		}
		if err := cfg.SetPollInterval(interval); err != nil {
			return err
		}
	}
	if watchProvider != "" {
		cfg.Tracker.Provider = watchProvider
	}
	return cfg.Validate()
}
