package main

import (
	"github.com/spf13/cobra"

	"github.com/tonylturner/zbncp/internal/app"
)

func newValidateConfigCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:     "validate-config",
		Short:   "Validate a run config file",
		Example: `  zbncp validate-config --config zbncp_run.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if configPath == "" {
				return missingFlagError(cmd, "--config")
			}
			return app.ValidateConfig(configPath, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Run config file (required)")

	return cmd
}
