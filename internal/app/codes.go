package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tonylturner/zbncp/internal/config"
	zbErrors "github.com/tonylturner/zbncp/internal/errors"
	"github.com/tonylturner/zbncp/internal/metrics"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
	"github.com/tonylturner/zbncp/internal/ui"
)

// CodesOptions controls `zbncp codes`.
type CodesOptions struct {
	Category string
	Status   bool
	Out      io.Writer
}

// RunCodes prints the call table, or the status table with Status set,
// optionally limited to one category.
func RunCodes(opts CodesOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	name := strings.ToUpper(strings.TrimSpace(opts.Category))

	if opts.Status {
		ids := spec.Statuses()
		if name != "" {
			cat, ok := spec.ParseStatusCategory(name)
			if !ok {
				return fmt.Errorf("unknown status category %q", opts.Category)
			}
			var filtered []spec.StatusID
			for _, id := range ids {
				if c, _ := id.Decompose(); c == cat {
					filtered = append(filtered, id)
				}
			}
			ids = filtered
		}
		fmt.Fprintln(out, ui.RenderStatusTable(ids))
		return nil
	}

	defs := spec.Calls()
	if name != "" {
		cat, ok := spec.ParseCallCategory(name)
		if !ok {
			return fmt.Errorf("unknown call category %q", opts.Category)
		}
		defs = spec.DefaultCallRegistry().InCategory(cat)
	}
	fmt.Fprintln(out, ui.RenderCallTable(defs))
	return nil
}

// ValidateConfig loads and validates a run config file.
func ValidateConfig(path string, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}
	cfg, err := config.LoadRunConfig(path, false)
	if err != nil {
		return zbErrors.WrapConfigError(err, path)
	}
	if err := config.ValidateRunConfig(cfg); err != nil {
		return zbErrors.WrapConfigError(err, path)
	}
	fmt.Fprintf(out, "Config %s is valid (scenario %s, role %s, transport %s)\n",
		path, cfg.Scenario, cfg.Network.Role, cfg.Transport)
	return nil
}

// RunMetricsSummary summarizes a metrics CSV written by a run.
func RunMetricsSummary(path string, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}
	rows, first, last, err := metrics.ReadMetricsCSV(path)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintf(out, "%s has no metric rows\n", path)
		return nil
	}
	fmt.Fprintf(out, "%s: %d rows from %s to %s (%s)\n", path, len(rows),
		first.Format("15:04:05.000"), last.Format("15:04:05.000"), last.Sub(first))
	fmt.Fprint(out, metrics.FormatSummary(metrics.SummarizeMetrics(rows)))
	return nil
}
