package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tonylturner/zbncp/internal/app"
	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/session"
)

// Lines kept per panel.
const historySize = 200

const (
	defaultWidth  = 100
	defaultHeight = 30
)

type eventMsg session.Event

type logMsg string

type progressMsg struct {
	matched    int
	mismatched int
	next       string
}

type doneMsg struct {
	result *app.Result
	err    error
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the live view of one run.
type Model struct {
	styles    Styles
	runID     string
	scenario  string
	transport string
	required  int

	matched    int
	mismatched int
	next       string
	tx, rx     int
	failures   int

	frames  []string
	logs    []string
	showLog bool

	status  string
	start   time.Time
	elapsed time.Duration
	result  *app.Result
	err     error

	width, height int
	cancel        func()
}

// NewModel builds the view for a run that requires `required` calls.
// cancel stops the run.
func NewModel(runID, scenario, transport string, required int, cancel func()) *Model {
	return &Model{
		styles:    DefaultStyles,
		runID:     runID,
		scenario:  scenario,
		transport: transport,
		required:  required,
		showLog:   true,
		status:    "running",
		start:     time.Now(),
		width:     defaultWidth,
		height:    defaultHeight,
		cancel:    cancel,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		if m.status == "running" || m.status == "stopping" {
			m.elapsed = time.Since(m.start)
			return m, tickCmd()
		}
	case eventMsg:
		m.addEvent(session.Event(msg))
	case logMsg:
		m.logs = appendBounded(m.logs, string(msg))
	case progressMsg:
		m.matched, m.mismatched, m.next = msg.matched, msg.mismatched, msg.next
	case doneMsg:
		m.finish(msg.result, msg.err)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if m.status == "running" {
			m.status = "stopping"
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		if m.status == "stopping" {
			return m, nil
		}
		return m, tea.Quit
	case "l":
		m.showLog = !m.showLog
	}
	return m, nil
}

func (m *Model) addEvent(ev session.Event) {
	if ev.Direction == session.DirTx {
		m.tx++
	} else {
		m.rx++
	}
	h := ev.Header
	if h.Control == protocol.ControlResponse && !h.Status.OK() {
		m.failures++
	}
	m.frames = appendBounded(m.frames, m.frameLine(ev))
}

func (m *Model) frameLine(ev session.Event) string {
	h := ev.Header
	dir := m.styles.Rx.Render(ev.Direction)
	if ev.Direction == session.DirTx {
		dir = m.styles.Tx.Render(ev.Direction)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %-10s %s", ev.Time.Format("15:04:05.000"), dir, h.Control, h.CallID)
	if h.Control != protocol.ControlIndication {
		fmt.Fprintf(&b, " tsn %d", h.TSN)
	}
	switch {
	case ev.Err != nil:
		b.WriteString(" " + m.styles.Error.Render(ev.Err.Error()))
	case h.Control == protocol.ControlResponse && !h.Status.OK():
		b.WriteString(" " + m.styles.Error.Render(h.Status.String()))
	case ev.Direction == session.DirRx && !ev.Handled:
		b.WriteString(" " + m.styles.Warning.Render("unhandled"))
	}
	return b.String()
}

func (m *Model) finish(res *app.Result, err error) {
	m.result, m.err = res, err
	if res != nil {
		m.elapsed = res.Elapsed
		m.matched = res.Verify.Matched
		m.mismatched = res.Verify.Mismatched
		m.next = ""
	}
	if err == nil && res != nil && res.Completed {
		m.status = "completed"
	} else {
		m.status = "failed"
	}
}

func appendBounded(lines []string, line string) []string {
	lines = append(lines, line)
	if len(lines) > historySize {
		lines = lines[len(lines)-historySize:]
	}
	return lines
}

// tail returns the last n lines.
func tail(lines []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(lines) > n {
		return lines[len(lines)-n:]
	}
	return lines
}

// clipLines joins lines, cutting each at width cells so panels never wrap.
func clipLines(lines []string, width int) string {
	clip := lipgloss.NewStyle().MaxWidth(width)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, clip.Render(l))
	}
	return strings.Join(out, "\n")
}

// View implements tea.Model.
func (m *Model) View() string {
	s := m.styles
	header := s.Title.Render("zbncp") + " " +
		s.Bold.Render(m.scenario) + " " +
		s.Dim.Render(fmt.Sprintf("over %s  run %s", m.transport, m.runID)) + "  " +
		StatusBadge(m.status, m.status, s)

	progress := ProgressBar("Required", m.matched, m.required, m.width-2, s)
	counters := s.Dim.Render(fmt.Sprintf("tx %d  rx %d  failed %d  mismatches %d  elapsed %s",
		m.tx, m.rx, m.failures, m.mismatched, m.elapsed.Round(time.Millisecond)))
	if m.next != "" {
		counters += "  " + s.Info.Render("waiting for "+m.next)
	}

	// header, progress, counters, footer and panel borders
	rows := m.height - 8
	if rows < 3 {
		rows = 3
	}
	width := m.width
	if width < 40 {
		width = 40
	}
	framesWidth := width
	if m.showLog {
		framesWidth = width / 2
	}
	panels := Panel("Frames", clipLines(tail(m.frames, rows), framesWidth-4), framesWidth, true, s)
	if m.showLog {
		logWidth := width - framesWidth
		panels = lipgloss.JoinHorizontal(lipgloss.Top, panels,
			Panel("Log", clipLines(tail(m.logs, rows), logWidth-4), logWidth, false, s))
	}

	hints := []KeyHint{{Key: "l", Label: "Log"}}
	switch m.status {
	case "running":
		hints = append(hints, KeyHint{Key: "q", Label: "Stop"})
	case "completed", "failed":
		hints = append(hints, KeyHint{Key: "q", Label: "Quit"})
	}
	footer := KeyHints(hints, s)
	if m.result != nil {
		summary := app.FormatResult(m.result)
		if m.status == "completed" {
			footer = s.Success.Render(summary) + "\n" + footer
		} else {
			footer = s.Error.Render(summary) + "\n" + footer
		}
	}

	return strings.Join([]string{header, progress, counters, panels, footer}, "\n")
}
