package metrics

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{
	"timestamp",
	"run_id",
	"scenario",
	"direction",
	"kind",
	"call",
	"call_id",
	"tsn",
	"status",
	"success",
	"size",
	"rtt_ms",
	"error",
}

// Writer streams metric rows to a CSV file, a JSON array file, or both.
type Writer struct {
	csvFile *os.File
	csv     *csv.Writer

	jsonFile *os.File
	json     *json.Encoder
	jsonRows int
}

// NewWriter opens the outputs. Either path may be empty.
func NewWriter(csvPath, jsonPath string) (*Writer, error) {
	w := &Writer{}
	if csvPath != "" {
		if err := w.openCSV(csvPath); err != nil {
			w.Close()
			return nil, err
		}
	}
	if jsonPath != "" {
		if err := w.openJSON(jsonPath); err != nil {
			w.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Writer) openCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	w.csvFile, w.csv = file, csv.NewWriter(file)
	if err := w.csv.Write(csvHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	w.csv.Flush()
	return w.csv.Error()
}

func (w *Writer) openJSON(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create JSON file: %w", err)
	}
	w.jsonFile = file
	if _, err := file.WriteString("["); err != nil {
		return fmt.Errorf("write JSON start: %w", err)
	}
	w.json = json.NewEncoder(file)
	w.json.SetIndent("", "  ")
	return nil
}

func csvRecord(m Metric) []string {
	rtt := ""
	if m.RTTMs != 0 {
		rtt = strconv.FormatFloat(m.RTTMs, 'f', 3, 64)
	}
	return []string{
		m.Timestamp.Format(time.RFC3339Nano),
		m.RunID,
		m.Scenario,
		m.Direction,
		string(m.Kind),
		m.Call,
		fmt.Sprintf("0x%04x", uint16(m.CallID)),
		strconv.Itoa(int(m.TSN)),
		m.Status,
		strconv.FormatBool(m.Success),
		strconv.Itoa(m.Size),
		rtt,
		m.Error,
	}
}

// WriteMetric appends one row to every open output.
func (w *Writer) WriteMetric(m Metric) error {
	if w.csv != nil {
		if err := w.csv.Write(csvRecord(m)); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
		w.csv.Flush()
	}
	if w.json != nil {
		sep := "\n"
		if w.jsonRows > 0 {
			sep = ",\n"
		}
		if _, err := w.jsonFile.WriteString(sep); err != nil {
			return fmt.Errorf("write JSON separator: %w", err)
		}
		// Encode ends each row with a newline; the separator then starts the next
		if err := w.json.Encode(m); err != nil {
			return fmt.Errorf("write JSON row: %w", err)
		}
		w.jsonRows++
	}
	return nil
}

// Close flushes and closes every output, ending the JSON array.
func (w *Writer) Close() error {
	var errs []error
	if w.csv != nil {
		w.csv.Flush()
		errs = append(errs, w.csv.Error())
	}
	if w.csvFile != nil {
		errs = append(errs, w.csvFile.Close())
	}
	if w.jsonFile != nil {
		if w.json != nil {
			_, err := w.jsonFile.WriteString("]\n")
			errs = append(errs, err)
		}
		errs = append(errs, w.jsonFile.Close())
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close metrics writer: %w", err)
	}
	return nil
}

// FormatSummary formats a summary for human-readable output
func FormatSummary(summary *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total Frames: %d\n", summary.TotalFrames)
	fmt.Fprintf(&b, "Requests: %d  Responses: %d  Indications: %d\n",
		summary.Requests, summary.Responses, summary.Indications)
	if summary.Responses > 0 {
		fmt.Fprintf(&b, "Failed Responses: %d (%.1f%%)\n",
			summary.Failures, float64(summary.Failures)/float64(summary.Responses)*100)
	}
	if summary.Malformed > 0 {
		fmt.Fprintf(&b, "Malformed: %d\n", summary.Malformed)
	}
	if summary.Unanswered > 0 {
		fmt.Fprintf(&b, "Unanswered Requests: %d\n", summary.Unanswered)
	}

	if summary.MaxRTT > 0 {
		b.WriteString("\nResponse Latency:\n")
		fmt.Fprintf(&b, "  Min: %.3f ms\n", summary.MinRTT)
		fmt.Fprintf(&b, "  Max: %.3f ms\n", summary.MaxRTT)
		fmt.Fprintf(&b, "  Avg: %.3f ms\n", summary.AvgRTT)
		fmt.Fprintf(&b, "  P50: %.3f ms  P90: %.3f ms  P95: %.3f ms  P99: %.3f ms\n",
			summary.P50RTT, summary.P90RTT, summary.P95RTT, summary.P99RTT)
		if len(summary.RTTBuckets) > 0 {
			fmt.Fprintf(&b, "  Buckets: <1ms=%d 1-5ms=%d 5-10ms=%d 10-50ms=%d 50-100ms=%d 100-500ms=%d >500ms=%d\n",
				summary.RTTBuckets["lt_1ms"],
				summary.RTTBuckets["1_5ms"],
				summary.RTTBuckets["5_10ms"],
				summary.RTTBuckets["10_50ms"],
				summary.RTTBuckets["50_100ms"],
				summary.RTTBuckets["100_500ms"],
				summary.RTTBuckets["gt_500ms"],
			)
		}
	}

	if len(summary.ByStatus) > 0 {
		b.WriteString("\nFailure Statuses:\n")
		for _, st := range sortedKeys(summary.ByStatus) {
			fmt.Fprintf(&b, "  %s: %d\n", st, summary.ByStatus[st])
		}
	}

	if len(summary.ByCall) > 0 {
		b.WriteString("\nPer-Call Statistics:\n")
		calls := make([]string, 0, len(summary.ByCall))
		for call := range summary.ByCall {
			calls = append(calls, call)
		}
		sort.Strings(calls)
		for _, call := range calls {
			stats := summary.ByCall[call]
			fmt.Fprintf(&b, "  %s: %d req, %d rsp (%d failed), %d ind",
				call, stats.Requests, stats.Responses, stats.Failed, stats.Indications)
			if stats.AvgRTT > 0 {
				fmt.Fprintf(&b, " - RTT: min=%.3fms, max=%.3fms, avg=%.3fms",
					stats.MinRTT, stats.MaxRTT, stats.AvgRTT)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
