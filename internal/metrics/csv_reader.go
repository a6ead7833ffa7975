package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// ReadMetricsCSV reads a metrics CSV file and returns the parsed metrics along
// with the first and last timestamps found in the data.
func ReadMetricsCSV(path string) ([]Metric, time.Time, time.Time, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("open metrics CSV: %w", err)
	}
	defer file.Close()
	return readMetrics(file)
}

func readMetrics(r io.Reader) ([]Metric, time.Time, time.Time, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("read CSV header: %w", err)
	}
	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[col] = i
	}
	for _, col := range []string{"timestamp", "direction", "kind", "call", "tsn"} {
		if _, ok := colIndex[col]; !ok {
			return nil, time.Time{}, time.Time{}, fmt.Errorf("CSV missing required column: %s", col)
		}
	}

	var metrics []Metric
	var firstTime, lastTime time.Time
	rowCount := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, time.Time{}, time.Time{}, fmt.Errorf("read CSV row %d: %w", rowCount+2, err)
		}
		col := func(name string) string {
			if idx, ok := colIndex[name]; ok && idx < len(record) {
				return record[idx]
			}
			return ""
		}

		m := Metric{
			RunID:     col("run_id"),
			Scenario:  col("scenario"),
			Direction: col("direction"),
			Kind:      Kind(col("kind")),
			Call:      col("call"),
			Status:    col("status"),
			Success:   col("success") == "true",
			Error:     col("error"),
		}
		if t, err := time.Parse(time.RFC3339Nano, col("timestamp")); err == nil {
			m.Timestamp = t
			if firstTime.IsZero() {
				firstTime = t
			}
			lastTime = t
		}
		if v, err := strconv.ParseUint(col("call_id"), 0, 16); err == nil {
			m.CallID = uint16(v)
		}
		if v, err := strconv.ParseUint(col("tsn"), 10, 8); err == nil {
			m.TSN = uint8(v)
		}
		if v, err := strconv.Atoi(col("size")); err == nil {
			m.Size = v
		}
		if s := col("rtt_ms"); s != "" {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				m.RTTMs = v
			}
		}

		metrics = append(metrics, m)
		rowCount++
	}

	if rowCount == 0 {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("no data rows in CSV file")
	}
	return metrics, firstTime, lastTime, nil
}
