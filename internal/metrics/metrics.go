package metrics

// Metrics collection for NCP frames

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/session"
)

// Kind of a recorded frame.
type Kind string

const (
	KindRequest    Kind = "REQUEST"
	KindResponse   Kind = "RESPONSE"
	KindIndication Kind = "INDICATION"
	KindMalformed  Kind = "MALFORMED"
	KindOther      Kind = "OTHER"
)

// Metric represents a single frame crossing the transport
type Metric struct {
	Timestamp time.Time
	RunID     string
	Scenario  string
	Direction string
	Kind      Kind
	Call      string
	CallID    uint16
	TSN       uint8
	Status    string
	Success   bool
	Size      int
	RTTMs     float64
	Error     string
}

// Sink collects and aggregates metrics
type Sink struct {
	mu       sync.RWMutex
	runID    string
	scenario string
	metrics  []Metric
	summary  *Summary
	sent     map[uint8]time.Time
}

// Summary contains aggregated statistics
type Summary struct {
	TotalFrames int
	Requests    int
	Responses   int
	Indications int
	Malformed   int
	Failures    int
	Unanswered  int
	MinRTT      float64
	MaxRTT      float64
	AvgRTT      float64
	P50RTT      float64
	P90RTT      float64
	P95RTT      float64
	P99RTT      float64
	rttCount    int
	RTTBuckets  map[string]int
	ByCall      map[string]*CallStats
	ByStatus    map[string]int
}

// CallStats contains statistics for one call id
type CallStats struct {
	Requests    int
	Responses   int
	Indications int
	Failed      int
	MinRTT      float64
	MaxRTT      float64
	AvgRTT      float64
	SumRTT      float64
	rttCount    int
}

func newSummary() *Summary {
	return &Summary{
		RTTBuckets: make(map[string]int),
		ByCall:     make(map[string]*CallStats),
		ByStatus:   make(map[string]int),
	}
}

// NewSink creates a metrics sink for one run
func NewSink(runID, scenario string) *Sink {
	return &Sink{
		runID:    runID,
		scenario: scenario,
		summary:  newSummary(),
		sent:     make(map[uint8]time.Time),
	}
}

// Observe converts a session event into a metric. Responses are matched to
// the request with the same tsn to compute the round trip time.
func (s *Sink) Observe(ev session.Event) Metric {
	m := Metric{
		Timestamp: ev.Time,
		Direction: ev.Direction,
		Size:      ev.Size,
		Success:   true,
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	if ev.Err != nil {
		m.RunID, m.Scenario = s.runID, s.scenario
		m.Kind = KindMalformed
		m.Success = false
		m.Error = ev.Err.Error()
		s.Record(m)
		return m
	}

	h := ev.Header
	m.RunID, m.Scenario = s.runID, s.scenario
	m.Call = h.CallID.String()
	m.CallID = uint16(h.CallID)
	m.TSN = h.TSN

	s.mu.Lock()
	switch h.Control {
	case protocol.ControlRequest:
		m.Kind = KindRequest
		if ev.Direction == session.DirTx {
			s.sent[h.TSN] = m.Timestamp
		}
	case protocol.ControlResponse:
		m.Kind = KindResponse
		m.Status = h.Status.String()
		m.Success = h.Status.OK()
		if at, ok := s.sent[h.TSN]; ok {
			m.RTTMs = float64(m.Timestamp.Sub(at).Microseconds()) / 1000
			delete(s.sent, h.TSN)
		}
	case protocol.ControlIndication:
		m.Kind = KindIndication
	default:
		m.Kind = KindOther
	}
	s.mu.Unlock()

	s.Record(m)
	return m
}

// Record records a new metric
func (s *Sink) Record(m Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.RunID == "" {
		m.RunID = s.runID
	}
	if m.Scenario == "" {
		m.Scenario = s.scenario
	}
	s.metrics = append(s.metrics, m)
	s.updateSummary(m)
}

// RelabelScenario overwrites scenario names on all metrics.
func (s *Sink) RelabelScenario(label string) {
	if label == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scenario = label
	for i := range s.metrics {
		s.metrics[i].Scenario = label
	}
}

// GetMetrics returns a copy of all recorded metrics
func (s *Sink) GetMetrics() []Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics := make([]Metric, len(s.metrics))
	copy(metrics, s.metrics)
	return metrics
}

// GetSummary returns a deep copy of the aggregated summary
func (s *Sink) GetSummary() *Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := *s.summary
	summary.Unanswered = len(s.sent)
	summary.RTTBuckets = make(map[string]int, len(s.summary.RTTBuckets))
	summary.ByCall = make(map[string]*CallStats, len(s.summary.ByCall))
	summary.ByStatus = make(map[string]int, len(s.summary.ByStatus))
	for call, stats := range s.summary.ByCall {
		cp := *stats
		summary.ByCall[call] = &cp
	}
	for k, v := range s.summary.ByStatus {
		summary.ByStatus[k] = v
	}

	rtts := make([]float64, 0, len(s.metrics))
	for _, m := range s.metrics {
		if m.RTTMs > 0 {
			rtts = append(rtts, m.RTTMs)
			incrementBucket(summary.RTTBuckets, m.RTTMs)
		}
	}
	p := computePercentiles(rtts)
	summary.P50RTT, summary.P90RTT, summary.P95RTT, summary.P99RTT = p[0], p[1], p[2], p[3]
	return &summary
}

// updateSummary updates the summary statistics with a new metric
func (s *Sink) updateSummary(m Metric) {
	sum := s.summary
	sum.TotalFrames++

	switch m.Kind {
	case KindRequest:
		sum.Requests++
	case KindResponse:
		sum.Responses++
	case KindIndication:
		sum.Indications++
	case KindMalformed:
		sum.Malformed++
		return
	}
	if m.Kind == KindResponse && !m.Success {
		sum.Failures++
		sum.ByStatus[m.Status]++
	}

	if m.RTTMs > 0 {
		if sum.MinRTT == 0 || m.RTTMs < sum.MinRTT {
			sum.MinRTT = m.RTTMs
		}
		if m.RTTMs > sum.MaxRTT {
			sum.MaxRTT = m.RTTMs
		}
		sum.rttCount++
		total := sum.AvgRTT * float64(sum.rttCount-1)
		sum.AvgRTT = (total + m.RTTMs) / float64(sum.rttCount)
	}

	if m.Call == "" {
		return
	}
	stats, ok := sum.ByCall[m.Call]
	if !ok {
		stats = &CallStats{}
		sum.ByCall[m.Call] = stats
	}
	switch m.Kind {
	case KindRequest:
		stats.Requests++
	case KindResponse:
		stats.Responses++
		if !m.Success {
			stats.Failed++
		}
	case KindIndication:
		stats.Indications++
	}
	if m.RTTMs > 0 {
		if stats.MinRTT == 0 || m.RTTMs < stats.MinRTT {
			stats.MinRTT = m.RTTMs
		}
		if m.RTTMs > stats.MaxRTT {
			stats.MaxRTT = m.RTTMs
		}
		stats.rttCount++
		stats.SumRTT += m.RTTMs
		stats.AvgRTT = stats.SumRTT / float64(stats.rttCount)
	}
}

// SummarizeMetrics rebuilds a summary from recorded rows, for example rows
// read back from a CSV file.
func SummarizeMetrics(rows []Metric) *Summary {
	s := NewSink("", "")
	for _, m := range rows {
		s.Record(m)
	}
	return s.GetSummary()
}

func incrementBucket(buckets map[string]int, value float64) {
	switch {
	case value < 1:
		buckets["lt_1ms"]++
	case value < 5:
		buckets["1_5ms"]++
	case value < 10:
		buckets["5_10ms"]++
	case value < 50:
		buckets["10_50ms"]++
	case value < 100:
		buckets["50_100ms"]++
	case value < 500:
		buckets["100_500ms"]++
	default:
		buckets["gt_500ms"]++
	}
}

func computePercentiles(values []float64) [4]float64 {
	var result [4]float64
	if len(values) == 0 {
		return result
	}
	sort.Float64s(values)
	result[0] = percentile(values, 0.50)
	result[1] = percentile(values, 0.90)
	result[2] = percentile(values, 0.95)
	result[3] = percentile(values, 0.99)
	return result
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
