package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonylturner/zbncp/internal/app"
	"github.com/tonylturner/zbncp/internal/scenario"
	"github.com/tonylturner/zbncp/internal/tui"
)

type runFlags struct {
	scenario    string
	config      string
	quickStart  bool
	capture     string
	logFile     string
	metricsCSV  string
	metricsJSON string
	byteOrder   string
	replay      string
	timeoutSec  int
	echoLimit   int
	skipKeyDump bool
	tui         bool
	progress    bool
	verbose     bool
	debug       bool
}

func newRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario against the NCP",
		Long: `Drive one scenario through the session and verify that every required
call arrived in order.

Available scenarios:
  bringup  - Reset with NVRAM erase and configure channel, PAN and role
  zc       - Form a network as coordinator and register an install code
  zc_echo  - Coordinator that identifies a joining device and echoes its APS data
  zr       - Discover and join a network as router, echo APS data
  zed      - Join as sleepy end device and walk the poll control states

Without --replay the NCP is the in-process loopback double, scripted by the
loopback section of the config. With --replay the frames recorded in a
capture file are fed back to the session.

The command exits non-zero when required calls remain at the timeout.`,
		Example: `  # Coordinator bring-up with a capture file
  zbncp run --scenario zc --capture zc.pcap

  # Router with a config file and live view
  zbncp run --config zbncp_run.yaml --scenario zr --tui

  # Re-check a recorded session
  zbncp run --scenario bringup --replay bringup.pcap`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if flags.scenario == "" && flags.config == "" {
				return missingFlagError(cmd, "--scenario or --config")
			}
			if flags.tui && flags.progress {
				return fmt.Errorf("--tui and --progress cannot be combined")
			}
			opts := flags.options()
			if flags.tui {
				return runTUI(cmd, opts)
			}
			return app.RunScenario(opts)
		},
	}

	cmd.Flags().StringVar(&flags.scenario, "scenario", "", "Scenario name: "+strings.Join(scenario.Names(), "|"))
	cmd.Flags().StringVar(&flags.config, "config", "", "Run config file, YAML or TOML (default: built-in defaults)")
	cmd.Flags().BoolVar(&flags.quickStart, "quick-start", false, "Create a default config at --config if it is missing")
	cmd.Flags().StringVar(&flags.capture, "capture", "", "Record every frame to this pcap file")
	cmd.Flags().StringVar(&flags.logFile, "log", "", "Log file path (default: stdout/stderr only)")
	cmd.Flags().StringVar(&flags.metricsCSV, "metrics-csv", "", "Write per-frame metrics as CSV")
	cmd.Flags().StringVar(&flags.metricsJSON, "metrics-json", "", "Write per-frame metrics as a JSON array")
	cmd.Flags().StringVar(&flags.byteOrder, "byte-order", "", "Multi-byte field order: little|big")
	cmd.Flags().StringVar(&flags.replay, "replay", "", "Feed frames from a capture file instead of the loopback NCP")
	cmd.Flags().IntVar(&flags.timeoutSec, "timeout", 0, "Run timeout in seconds (scenario default if omitted)")
	cmd.Flags().IntVar(&flags.echoLimit, "echo-limit", 0, "Echo packets for the echo scenarios")
	cmd.Flags().BoolVar(&flags.skipKeyDump, "skip-key-dump", false, "Do not read keys after joining")
	cmd.Flags().BoolVar(&flags.tui, "tui", false, "Show the live view while the scenario runs")
	cmd.Flags().BoolVar(&flags.progress, "progress", false, "Show a progress bar of required calls")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Enable verbose output")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug output")

	return cmd
}

func (f *runFlags) options() app.RunOptions {
	return app.RunOptions{
		ConfigPath:  f.config,
		QuickStart:  f.quickStart,
		Scenario:    f.scenario,
		Replay:      f.replay,
		ByteOrder:   f.byteOrder,
		CaptureFile: f.capture,
		LogFile:     f.logFile,
		MetricsCSV:  f.metricsCSV,
		MetricsJSON: f.metricsJSON,
		TimeoutSec:  f.timeoutSec,
		EchoLimit:   f.echoLimit,
		SkipKeyDump: f.skipKeyDump,
		Verbose:     f.verbose,
		Debug:       f.debug,
		Progress:    f.progress,
	}
}

func runTUI(cmd *cobra.Command, opts app.RunOptions) error {
	cfg, err := app.LoadRunConfig(opts)
	if err != nil {
		return err
	}
	r, err := app.Prepare(cfg, nil)
	if err != nil {
		return err
	}
	defer r.Close()
	r.ConfigPath = opts.ConfigPath

	res, runErr := tui.Run(context.Background(), r)
	if err := r.WriteMetrics(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write metrics: %v\n", err)
	}
	if res != nil {
		fmt.Fprintln(cmd.OutOrStdout(), app.FormatResult(res))
	}
	return runErr
}
