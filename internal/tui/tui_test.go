package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonylturner/zbncp/internal/app"
	"github.com/tonylturner/zbncp/internal/metrics"
	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
	"github.com/tonylturner/zbncp/internal/session"
	"github.com/tonylturner/zbncp/internal/verify"
)

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewModel(t *testing.T) {
	m := NewModel("run-1", "zc", "loopback", 12, nil)
	if m.status != "running" {
		t.Errorf("status = %q, want running", m.status)
	}
	if !m.showLog {
		t.Error("log panel should start visible")
	}
	if m.Init() == nil {
		t.Error("Init should start the ticker")
	}
}

func TestModelCountsEvents(t *testing.T) {
	m := NewModel("run-1", "zc", "loopback", 3, nil)
	now := time.Now()
	m.Update(eventMsg(session.Event{Time: now, Direction: session.DirTx,
		Header: protocol.Header{Control: protocol.ControlRequest, CallID: spec.NwkFormation, TSN: 4}}))
	m.Update(eventMsg(session.Event{Time: now, Direction: session.DirRx, Handled: true,
		Header: protocol.Header{Control: protocol.ControlResponse, CallID: spec.NwkFormation, TSN: 4,
			Status: spec.StatusIDOf(spec.StatusMAC, 0xEA)}}))
	m.Update(eventMsg(session.Event{Time: now, Direction: session.DirRx,
		Header: protocol.Header{Control: protocol.ControlIndication, CallID: spec.ZDODevAnnceInd}}))
	m.Update(progressMsg{matched: 1, next: "GET_ZIGBEE_ROLE"})

	if m.tx != 1 || m.rx != 2 || m.failures != 1 {
		t.Fatalf("tx %d rx %d failures %d", m.tx, m.rx, m.failures)
	}
	if len(m.frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(m.frames))
	}
	if !strings.Contains(m.frames[1], "NWK_FORMATION") || !strings.Contains(m.frames[1], "tsn 4") {
		t.Errorf("response line = %q", m.frames[1])
	}
	if !strings.Contains(m.frames[2], "unhandled") {
		t.Errorf("indication line = %q", m.frames[2])
	}
	view := m.View()
	for _, want := range []string{"zc", "1/3", "waiting for GET_ZIGBEE_ROLE", "Frames", "Log"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestHistoryIsBounded(t *testing.T) {
	m := NewModel("run-1", "zr", "loopback", 1, nil)
	for i := 0; i < historySize+25; i++ {
		m.Update(logMsg("INFO: line"))
	}
	if len(m.logs) != historySize {
		t.Fatalf("logs = %d, want %d", len(m.logs), historySize)
	}
}

func TestQuitStopsRunFirst(t *testing.T) {
	cancelled := 0
	m := NewModel("run-1", "zed", "loopback", 2, func() { cancelled++ })

	_, cmd := m.Update(key('q'))
	if cmd != nil || m.status != "stopping" || cancelled != 1 {
		t.Fatalf("first q: cmd %v status %q cancelled %d", cmd, m.status, cancelled)
	}
	_, cmd = m.Update(key('q'))
	if cmd != nil {
		t.Fatal("q while stopping should wait for the run")
	}

	m.Update(doneMsg{
		result: &app.Result{Scenario: "zed", Pending: []string{"PIM_STOP_POLL"}, Summary: &metrics.Summary{}},
		err:    errors.New("stopped"),
	})
	if m.status != "failed" {
		t.Fatalf("status = %q, want failed", m.status)
	}
	if _, cmd = m.Update(key('q')); cmd == nil {
		t.Fatal("q after the run should quit")
	}
}

func TestDoneCompleted(t *testing.T) {
	m := NewModel("run-1", "bringup", "loopback", 2, nil)
	m.Update(doneMsg{result: &app.Result{
		Scenario:  "bringup",
		Completed: true,
		Verify:    verify.Stats{Matched: 2},
		Summary:   &metrics.Summary{TotalFrames: 4},
	}})
	if m.status != "completed" || m.matched != 2 {
		t.Fatalf("status %q matched %d", m.status, m.matched)
	}
	if !strings.Contains(m.View(), "Scenario 'bringup' completed") {
		t.Error("view should show the result line")
	}
}

func TestToggleLog(t *testing.T) {
	m := NewModel("run-1", "zc", "loopback", 1, nil)
	m.Update(logMsg("INFO: marker"))
	if !strings.Contains(m.View(), "marker") {
		t.Fatal("log line not rendered")
	}
	m.Update(key('l'))
	if m.showLog {
		t.Fatal("l should hide the log panel")
	}
	if strings.Contains(m.View(), "marker") {
		t.Error("hidden log panel still rendered")
	}
}

func TestProgressBar(t *testing.T) {
	bar := ProgressBar("Required", 5, 10, 40, DefaultStyles)
	if !strings.Contains(bar, "5/10") {
		t.Errorf("bar = %q", bar)
	}
	if !strings.Contains(ProgressBar("Required", 20, 10, 40, DefaultStyles), "10/10") {
		t.Error("done should clamp to total")
	}
}
