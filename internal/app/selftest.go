package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tonylturner/zbncp/internal/config"
	"github.com/tonylturner/zbncp/internal/logging"
	"github.com/tonylturner/zbncp/internal/scenario"
)

// SelfTestOptions controls `zbncp selftest`.
type SelfTestOptions struct {
	Scenarios   []string
	EchoLimit   int
	ByteOrder   string
	SkipKeyDump bool
	Verbose     bool
	Out         io.Writer
}

// SelfTestResult is the outcome of one scenario in a self test.
type SelfTestResult struct {
	Name    string
	Status  string
	Matched int
	Frames  int
	Errors  int
	Elapsed time.Duration
	Err     string
}

// Passed reports whether the scenario completed cleanly.
func (r SelfTestResult) Passed() bool { return r.Status == "PASS" }

// RunSelfTest runs each built-in scenario against the loopback double and
// reports the outcome per scenario.
func RunSelfTest(ctx context.Context, opts SelfTestOptions) ([]SelfTestResult, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	names := opts.Scenarios
	if len(names) == 0 {
		names = scenario.Names()
	}

	var results []SelfTestResult
	for _, name := range names {
		fmt.Fprintf(out, "--- Scenario: %s ", name)
		r := selfTestOne(ctx, name, opts, out)
		results = append(results, r)
		if r.Passed() {
			fmt.Fprintf(out, "[PASS] %d required calls, %d frames in %s\n", r.Matched, r.Frames, r.Elapsed.Round(time.Millisecond))
		} else {
			fmt.Fprintf(out, "[FAIL] %s\n", r.Err)
		}
	}

	fmt.Fprintf(out, "\n=== Selftest Summary ===\n")
	failed := 0
	for _, r := range results {
		if !r.Passed() {
			failed++
			fmt.Fprintf(out, "  FAIL: %s: %s\n", r.Name, r.Err)
		}
	}
	fmt.Fprintf(out, "\nTotal: %d | Passed: %d | Failed: %d\n", len(results), len(results)-failed, failed)
	if failed > 0 {
		return results, fmt.Errorf("%d scenario(s) failed", failed)
	}
	return results, nil
}

func selfTestOne(ctx context.Context, name string, opts SelfTestOptions, out io.Writer) SelfTestResult {
	res := SelfTestResult{Name: name, Status: "FAIL"}

	cfg := config.CreateDefaultRunConfig()
	cfg.Scenario = name
	cfg.Network.Role, cfg.Network.PanID, cfg.Network.EchoLimit = "", 0, 0
	cfg.TimeoutSec = 0
	config.EnrichForScenario(cfg, name)
	if opts.EchoLimit > 0 {
		cfg.Network.EchoLimit = opts.EchoLimit
	}
	if opts.ByteOrder != "" {
		cfg.Protocol.ByteOrder = opts.ByteOrder
	}
	cfg.Network.SkipKeyDump = opts.SkipKeyDump
	if err := config.ValidateRunConfig(cfg); err != nil {
		res.Err = err.Error()
		return res
	}

	level := logging.LogLevelError
	if opts.Verbose {
		level = logging.LogLevelVerbose
	}
	logger, logs := logging.NewCaptureLogger(level)
	if opts.Verbose {
		logger.OnLine(func(line string) { fmt.Fprintf(out, "\n    %s", line) })
	}

	r, err := Prepare(cfg, logger)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	defer r.Close()

	result, err := r.Execute(ctx)
	if result != nil {
		res.Matched = result.Verify.Matched
		res.Frames = result.Summary.TotalFrames
		res.Elapsed = result.Elapsed
	}
	res.Errors = logs.Count("ERROR", "")
	switch {
	case err != nil:
		res.Err = err.Error()
	case res.Errors > 0:
		res.Err = fmt.Sprintf("%d errors logged", res.Errors)
	default:
		res.Status = "PASS"
	}
	if opts.Verbose {
		fmt.Fprintln(out)
	}
	return res
}
