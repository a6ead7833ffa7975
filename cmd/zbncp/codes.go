package main

import (
	"github.com/spf13/cobra"

	"github.com/tonylturner/zbncp/internal/app"
)

type codesFlags struct {
	category string
	status   bool
}

func newCodesCmd() *cobra.Command {
	flags := &codesFlags{}

	cmd := &cobra.Command{
		Use:   "codes",
		Short: "List call codes or status codes",
		Long: `Print the call table grouped by category, or with --status the status
table grouped by status category.`,
		Example: `  # All calls
  zbncp codes

  # ZDO calls only
  zbncp codes --category zdo

  # MAC status codes
  zbncp codes --status --category mac`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			return app.RunCodes(app.CodesOptions{
				Category: flags.category,
				Status:   flags.status,
				Out:      cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&flags.category, "category", "", "Only show this category")
	cmd.Flags().BoolVar(&flags.status, "status", false, "Show status codes instead of calls")

	return cmd
}
