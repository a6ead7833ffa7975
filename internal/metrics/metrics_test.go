package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
	"github.com/tonylturner/zbncp/internal/session"
)

func txEvent(at time.Time, call spec.CallCode, tsn uint8) session.Event {
	return session.Event{
		Time:      at,
		Direction: session.DirTx,
		Header:    protocol.Header{Control: protocol.ControlRequest, CallID: call, TSN: tsn},
		Size:      5,
	}
}

func rspEvent(at time.Time, call spec.CallCode, tsn uint8, status spec.StatusID) session.Event {
	return session.Event{
		Time:      at,
		Direction: session.DirRx,
		Header:    protocol.Header{Control: protocol.ControlResponse, CallID: call, TSN: tsn, Status: status},
		Size:      7,
	}
}

func TestObserveMatchesResponsesByTSN(t *testing.T) {
	sink := NewSink("run-1", "zc")
	base := time.Unix(1700000000, 0)

	sink.Observe(txEvent(base, spec.GetPanID, 1))
	sink.Observe(txEvent(base, spec.NwkFormation, 2))
	sink.Observe(rspEvent(base.Add(4*time.Millisecond), spec.NwkFormation, 2, spec.StatusIDOf(spec.StatusGeneric, 1)))
	m := sink.Observe(rspEvent(base.Add(2*time.Millisecond), spec.GetPanID, 1, 0))
	if m.RTTMs != 2 || !m.Success || m.RunID != "run-1" {
		t.Fatalf("observed metric = %+v", m)
	}
	sink.Observe(session.Event{Time: base, Direction: session.DirRx,
		Header: protocol.Header{Control: protocol.ControlIndication, CallID: spec.ZDODevAnnceInd, TSN: protocol.IndicationTSN}})
	sink.Observe(session.Event{Time: base, Direction: session.DirRx, Err: errors.New("short frame")})
	sink.Observe(txEvent(base, spec.GetZigbeeRole, 3))

	summary := sink.GetSummary()
	if summary.TotalFrames != 7 || summary.Requests != 3 || summary.Responses != 2 || summary.Indications != 1 {
		t.Fatalf("counts = %+v", summary)
	}
	if summary.Malformed != 1 || summary.Failures != 1 || summary.Unanswered != 1 {
		t.Fatalf("malformed %d failures %d unanswered %d", summary.Malformed, summary.Failures, summary.Unanswered)
	}
	if summary.MinRTT != 2 || summary.MaxRTT != 4 || summary.AvgRTT != 3 {
		t.Fatalf("rtt min %.3f max %.3f avg %.3f", summary.MinRTT, summary.MaxRTT, summary.AvgRTT)
	}
	if summary.P50RTT != 2 || summary.P99RTT != 4 {
		t.Fatalf("percentiles p50 %.3f p99 %.3f", summary.P50RTT, summary.P99RTT)
	}
	if summary.RTTBuckets["1_5ms"] != 2 {
		t.Fatalf("buckets = %v", summary.RTTBuckets)
	}
	formation := summary.ByCall["NWK_FORMATION"]
	if formation == nil || formation.Requests != 1 || formation.Failed != 1 {
		t.Fatalf("per-call stats = %+v", formation)
	}
	if len(summary.ByStatus) != 1 {
		t.Fatalf("statuses = %v", summary.ByStatus)
	}

	for _, row := range sink.GetMetrics() {
		if row.RunID != "run-1" || row.Scenario != "zc" {
			t.Fatalf("row not stamped: %+v", row)
		}
	}
	sink.RelabelScenario("replayed")
	for _, row := range sink.GetMetrics() {
		if row.Scenario != "replayed" {
			t.Fatalf("expected relabeled scenario, got %s", row.Scenario)
		}
	}
}

func TestSummaryIsACopy(t *testing.T) {
	sink := NewSink("r", "s")
	sink.Record(Metric{Kind: KindRequest, Call: "GET_PAN_ID"})
	summary := sink.GetSummary()
	summary.ByCall["GET_PAN_ID"].Requests = 99
	if got := sink.GetSummary().ByCall["GET_PAN_ID"].Requests; got != 1 {
		t.Fatalf("summary shares state with sink: %d", got)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "metrics.csv")
	jsonPath := filepath.Join(dir, "metrics.json")

	w, err := NewWriter(csvPath, jsonPath)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := []Metric{
		{Timestamp: base, RunID: "abc", Scenario: "zr", Direction: "tx", Kind: KindRequest,
			Call: "NWK_DISCOVERY", CallID: 0x402, TSN: 7, Success: true, Size: 15},
		{Timestamp: base.Add(time.Second), RunID: "abc", Scenario: "zr", Direction: "rx", Kind: KindResponse,
			Call: "NWK_DISCOVERY", CallID: 0x402, TSN: 7, Status: "GENERIC:1", Size: 7, RTTMs: 1.5},
	}
	for _, m := range rows {
		if err := w.WriteMetric(m); err != nil {
			t.Fatalf("WriteMetric: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, first, last, err := ReadMetricsCSV(csvPath)
	if err != nil {
		t.Fatalf("ReadMetricsCSV: %v", err)
	}
	if len(got) != 2 || !first.Equal(base) || !last.Equal(base.Add(time.Second)) {
		t.Fatalf("rows %d first %v last %v", len(got), first, last)
	}
	if got[1].CallID != 0x402 || got[1].TSN != 7 || got[1].RTTMs != 1.5 || got[1].Success || got[1].Status != "GENERIC:1" {
		t.Fatalf("row = %+v", got[1])
	}
	if got[0].Kind != KindRequest || got[0].Size != 15 || got[0].RunID != "abc" {
		t.Fatalf("row = %+v", got[0])
	}

	summary := SummarizeMetrics(got)
	if summary.Failures != 1 || summary.ByCall["NWK_DISCOVERY"].Requests != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	text := FormatSummary(summary)
	for _, want := range []string{"Total Frames: 2", "NWK_DISCOVERY: 1 req, 1 rsp (1 failed)", "GENERIC:1: 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary text missing %q:\n%s", want, text)
		}
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	if s := string(data); !strings.HasPrefix(s, "[\n") || !strings.HasSuffix(s, "\n]\n") || strings.Count(s, "\"TSN\": 7") != 2 {
		t.Fatalf("json output:\n%s", s)
	}
}

func TestReadMetricsCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing column", "timestamp,call\n", "missing required column"},
		{"no rows", strings.Join(csvHeader, ",") + "\n", "no data rows"},
		{"empty", "", "read CSV header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := readMetrics(strings.NewReader(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
	if _, _, _, err := ReadMetricsCSV(filepath.Join(t.TempDir(), "none.csv")); err == nil {
		t.Fatal("expected open error")
	}
}
