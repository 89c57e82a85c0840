package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"tweetcloud/pkg/collector"
	"tweetcloud/pkg/ratelimit"
)

// IterationMsg is sent after every finished search iteration
type IterationMsg collector.IterationResult

// QuotaMsg is sent after every rate limit status check
type QuotaMsg ratelimit.Snapshot

// WaitMsg is sent when the quota gate starts sleeping
type WaitMsg struct {
	Duration time.Duration
}

// LogMsg adds a line to the log panel
type LogMsg struct {
	Level   string
	Message string
}

// DoneMsg ends the dashboard, carrying the run's error if any
type DoneMsg struct {
	Err error
}

// TickMsg refreshes the clocks once a second
type TickMsg time.Time

type keyMap struct {
	Quit      key.Binding
	Help      key.Binding
	ClearLogs key.Binding
}

var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "stop collecting and quit")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle this help")),
	ClearLogs: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear the log panel")),
}

// Update applies one message to the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.onKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case TickMsg:
		if !m.done {
			return m, tickCmd()
		}
	case DoneMsg:
		m.finish(msg.Err)
		return m, tea.Quit
	default:
		m.onRunEvent(msg)
	}
	return m, nil
}

// onRunEvent folds collector, gate and log events into the model
func (m *Model) onRunEvent(msg tea.Msg) {
	switch msg := msg.(type) {
	case IterationMsg:
		r := collector.IterationResult(msg)
		m.RecordIteration(r)
		m.AddLogMessage("SUCCESS", fmt.Sprintf("iteration %d: +%d (%s total)",
			r.Iteration, r.Current, humanize.Comma(int64(r.Total))))
	case QuotaMsg:
		m.RecordQuota(ratelimit.Snapshot(msg))
	case WaitMsg:
		m.RecordWait(msg.Duration)
		m.AddLogMessage("WARN", "rate limit nearly exhausted, waiting "+formatDuration(msg.Duration))
	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
	}
}

func (m *Model) finish(err error) {
	m.done, m.err = true, err
	if err != nil {
		m.AddLogMessage("ERROR", err.Error())
		return
	}
	m.AddLogMessage("SUCCESS", "collection finished")
}

func (m *Model) onKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		if !m.done && m.cancel != nil {
			m.cancel()
			m.AddLogMessage("WARN", "collection cancelled by user")
		}
		return tea.Quit
	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, keys.ClearLogs):
		m.logMessages = nil
	}
	return nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return TickMsg(t) })
}
