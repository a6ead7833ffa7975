package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tonylturner/zbncp/internal/app"
)

type selfTestFlags struct {
	scenarios   []string
	echoLimit   int
	byteOrder   string
	skipKeyDump bool
	verbose     bool
}

func newSelfTestCmd() *cobra.Command {
	flags := &selfTestFlags{echoLimit: 3}

	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run every scenario against the loopback NCP",
		Long: `Run each built-in scenario against the in-process loopback NCP and
report which ones produced their full required call sequence.`,
		Example: `  # Run all scenarios
  zbncp selftest

  # Only the coordinator scenarios, big endian, with logs
  zbncp selftest --scenario zc --scenario zc_echo --byte-order big --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			_, err := app.RunSelfTest(context.Background(), app.SelfTestOptions{
				Scenarios:   flags.scenarios,
				EchoLimit:   flags.echoLimit,
				ByteOrder:   flags.byteOrder,
				SkipKeyDump: flags.skipKeyDump,
				Verbose:     flags.verbose,
				Out:         cmd.OutOrStdout(),
			})
			return err
		},
	}

	cmd.Flags().StringArrayVar(&flags.scenarios, "scenario", nil, "Scenario to run (repeatable, default all)")
	cmd.Flags().IntVar(&flags.echoLimit, "echo-limit", 3, "Echo packets for the echo scenarios")
	cmd.Flags().StringVar(&flags.byteOrder, "byte-order", "", "Multi-byte field order: little|big")
	cmd.Flags().BoolVar(&flags.skipKeyDump, "skip-key-dump", false, "Do not read keys after joining")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Print each scenario's log")

	return cmd
}
