package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonylturner/zbncp/internal/app"
	"github.com/tonylturner/zbncp/internal/session"
)

// Run executes a prepared run under the live view. The view stays open after
// the run ends until the user quits; the result is returned either way.
func Run(ctx context.Context, r *app.Run) (*app.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v := r.Session.Verifier()
	model := NewModel(r.ID, r.Scenario.Name(), r.Session.Transport().String(), v.Required(), cancel)
	program := tea.NewProgram(model, tea.WithAltScreen())

	// the session goroutine feeds the view; console logging would tear the screen
	r.Logger.SetConsole(false)
	defer r.Logger.SetConsole(true)
	r.Logger.OnLine(func(line string) { program.Send(logMsg(line)) })
	r.Session.Observe(func(ev session.Event) { program.Send(eventMsg(ev)) })
	r.Session.OnPoll(func(context.Context) error {
		st := v.Stats()
		msg := progressMsg{matched: st.Matched, mismatched: st.Mismatched}
		if pending := v.Pending(); len(pending) > 0 {
			msg.next = pending[0].String()
		}
		program.Send(msg)
		return nil
	})

	done := make(chan doneMsg, 1)
	go func() {
		res, err := r.Execute(ctx)
		d := doneMsg{result: res, err: err}
		done <- d
		program.Send(d)
	}()

	_, uiErr := program.Run()
	cancel()
	d := <-done
	r.Logger.OnLine(nil)
	if uiErr != nil && d.err == nil {
		return d.result, fmt.Errorf("live view: %w", uiErr)
	}
	return d.result, d.err
}
