package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearYes bool

func init() {
	cmdClear.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(cmdClear)
}

var cmdClear = &cobra.Command{
	Use:   "clear",
	Short: "Delete all tracked running time",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if !clearYes {
			fmt.Print("This will delete all tracking data. Are you sure? (yes/no): ")
			var response string
			fmt.Scanln(&response)

			if response != "yes" && response != "y" {
				fmt.Println("Operation cancelled")
				return nil
			}
		}

		repo, db, err := openRepository(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := repo.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear database: %w", err)
		}

		fmt.Println("Database cleared successfully")
		return nil
	},
}
