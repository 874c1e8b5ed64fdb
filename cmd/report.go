package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"podscrub/internal/report"
)

var reportOutput string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize rendered episodes into an Excel workbook",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "podscrub-report.xlsx", "path of the workbook to write")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	count, err := report.Build(cfg.OutputDir, reportOutput, log)
	if err != nil {
		return err
	}
	fmt.Printf("%d episodes -> %s\n", count, reportOutput)
	return nil
}
