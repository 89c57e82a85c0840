package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tweetcloud/pkg/collector"
	"tweetcloud/pkg/ratelimit"
)

// TUI is a full-screen dashboard for a collection run
type TUI struct {
	program *tea.Program
	model   *Model
}

// New creates a dashboard for numSearches iterations of query. cancel
// stops the run when the user quits early.
func New(query string, numSearches int, cancel context.CancelFunc, opts ...tea.ProgramOption) *TUI {
	model := NewModel(query, numSearches, cancel)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}

	return &TUI{
		program: tea.NewProgram(&model, opts...),
		model:   &model,
	}
}

// Run blocks until the run finishes or the user quits
func (t *TUI) Run() error {
	if _, err := t.program.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}

// Send sends a message to the dashboard
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// Iteration reports a finished iteration
func (t *TUI) Iteration(r collector.IterationResult) {
	t.Send(IterationMsg(r))
}

// Quota reports a rate limit status check
func (t *TUI) Quota(s ratelimit.Snapshot) {
	t.Send(QuotaMsg(s))
}

// Waiting reports that the quota gate sleeps for d
func (t *TUI) Waiting(d time.Duration) {
	t.Send(WaitMsg{Duration: d})
}

// Done reports the end of the run and closes the dashboard
func (t *TUI) Done(err error) {
	t.Send(DoneMsg{Err: err})
}

// Log sends a log message to the dashboard
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}
