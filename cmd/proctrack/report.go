package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/proctrack/proctrack/internal/reporter"
)

var reportJSON bool

func init() {
	cmdReport.Flags().BoolVar(&reportJSON, "json", false, "Print the report as JSON")
	rootCmd.AddCommand(cmdReport)
}

var cmdReport = &cobra.Command{
	Use:       "report [all|day|week|month]",
	Short:     "Show cumulative running time per application",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"all", "day", "today", "week", "month"},
	RunE: func(cmd *cobra.Command, args []string) error {
		periodType := "all"
		if len(args) > 0 {
			periodType = args[0]
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		repo, db, err := openRepository(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		rep := reporter.New(cfg, repo)
		report, err := rep.GenerateReport(cmd.Context(), periodType)
		if err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		if reportJSON {
			jsonStr, err := rep.FormatReportJSON(report)
			if err != nil {
				return err
			}
			fmt.Println(jsonStr)
			return nil
		}

		fmt.Println(rep.FormatReportText(report))
		return nil
	},
}
