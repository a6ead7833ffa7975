package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonylturner/zbncp/internal/app"
)

type decodeFlags struct {
	byteOrder string
}

func newDecodeCmd() *cobra.Command {
	flags := &decodeFlags{}

	cmd := &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode one frame",
		Long: `Decode a single frame given as hex and print its header and typed body.
Spaces, colons and a 0x prefix in the input are ignored.`,
		Example: `  # Decode a GET_MODULE_VERSION request
  zbncp decode "00 02 01 00"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if len(args) == 0 {
				return missingArgError(cmd, "<hex>")
			}
			return app.RunDecode(app.DecodeOptions{
				Hex:       strings.Join(args, ""),
				ByteOrder: flags.byteOrder,
				Out:       cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&flags.byteOrder, "byte-order", "", "Multi-byte field order: little|big")

	return cmd
}
