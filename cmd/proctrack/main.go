package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/proctrack/proctrack/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "proctrack [command]",
	Short: "proctrack: cumulative running time per application",
	Long: `proctrack polls the running processes at a fixed interval and keeps a
persistent, per-application total of how long each one has been running.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a JSON config file (default $PROCTRACK_CONFIG)")
}

// loadConfig builds and validates the configuration for a command.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.New()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
