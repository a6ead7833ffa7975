package main

import (
	"github.com/spf13/cobra"

	"github.com/tonylturner/zbncp/internal/app"
)

type captureDumpFlags struct {
	call       string
	maxEntries int
	showBody   bool
	byteOrder  string
}

func newCaptureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Inspect capture files",
	}
	cmd.AddCommand(newCaptureDumpCmd())
	return cmd
}

func newCaptureDumpCmd() *cobra.Command {
	flags := &captureDumpFlags{}

	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the frames of a capture file",
		Long: `Print every frame recorded by run --capture with its time, direction and
decoded header and body.`,
		Example: `  # Dump a capture
  zbncp capture dump zc.pcap

  # Only channel reads, with raw bytes
  zbncp capture dump zc.pcap --call get_zigbee_channel --body`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if len(args) == 0 {
				return missingArgError(cmd, "<file>")
			}
			return app.RunCaptureDump(app.CaptureDumpOptions{
				Path:       args[0],
				Call:       flags.call,
				MaxEntries: flags.maxEntries,
				ShowBody:   flags.showBody,
				ByteOrder:  flags.byteOrder,
				Out:        cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&flags.call, "call", "", "Only frames carrying this call")
	cmd.Flags().IntVar(&flags.maxEntries, "max", 0, "Stop after this many frames (0 for all)")
	cmd.Flags().BoolVar(&flags.showBody, "body", false, "Include the raw frame as hex")
	cmd.Flags().StringVar(&flags.byteOrder, "byte-order", "", "Multi-byte field order: little|big")

	return cmd
}
