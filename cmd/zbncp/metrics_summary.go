package main

import (
	"github.com/spf13/cobra"

	"github.com/tonylturner/zbncp/internal/app"
)

func newMetricsSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics-summary <csv>",
		Short: "Summarize a metrics CSV",
		Long:  `Read a metrics CSV written by run --metrics-csv and print its frame and latency summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if len(args) == 0 {
				return missingArgError(cmd, "<csv>")
			}
			return app.RunMetricsSummary(args[0], cmd.OutOrStdout())
		},
	}
}
