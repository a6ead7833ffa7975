package main

import (
	"github.com/spf13/cobra"

	"github.com/tonylturner/zbncp/internal/ui"
)

type initFlags struct {
	output string
	copy   bool
}

func newInitCmd() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a run config interactively",
		Long: `Ask for the scenario, network settings and outputs, write them as a run
config and print the run command that uses it. A .toml output is written as
TOML, anything else as YAML.`,
		Example: `  # Write zbncp_run.yaml
  zbncp init

  # Write TOML and copy the command to the clipboard
  zbncp init --output lab.toml --copy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			return ui.RunWizard(ui.WizardOptions{
				Output: flags.output,
				Copy:   flags.copy,
				Out:    cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&flags.output, "output", "zbncp_run.yaml", "Config file to write")
	cmd.Flags().BoolVar(&flags.copy, "copy", false, "Copy the run command to the clipboard")

	return cmd
}
