package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tweetcloud/pkg/collector"
	"tweetcloud/pkg/ratelimit"
)

// Model is the collection dashboard state. It is only touched from the
// bubbletea event loop; producers talk to it through messages.
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	query       string
	numSearches int

	iterations  int
	collected   int
	totalLines  int
	cursor      int64
	lastCurrent int
	lastElapsed time.Duration

	quota     ratelimit.Snapshot
	haveQuota bool
	waitUntil time.Time
	waits     int

	startTime time.Time
	now       func() time.Time
	cancel    context.CancelFunc

	width          int
	height         int
	showHelp       bool
	done           bool
	err            error
	logMessages    []LogMessage
	maxLogMessages int
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates the dashboard model. cancel is called when the user
// quits before the run finishes and may be nil.
func NewModel(query string, numSearches int, cancel context.CancelFunc) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(th.colors.accent)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return Model{
		spinner:        s,
		progress:       p,
		query:          query,
		numSearches:    numSearches,
		startTime:      time.Now(),
		now:            time.Now,
		cancel:         cancel,
		maxLogMessages: 50,
	}
}

// Init starts the spinner and the refresh tick
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// RecordIteration folds a finished iteration into the stats
func (m *Model) RecordIteration(r collector.IterationResult) {
	m.iterations = r.Iteration + 1
	m.collected += r.Current
	m.totalLines = r.Total
	m.cursor = r.Cursor
	m.lastCurrent = r.Current
	m.lastElapsed = r.Elapsed
	m.waitUntil = time.Time{}
}

// RecordQuota stores the latest quota snapshot
func (m *Model) RecordQuota(s ratelimit.Snapshot) {
	m.quota = s
	m.haveQuota = true
}

// RecordWait notes that the gate is sleeping for d
func (m *Model) RecordWait(d time.Duration) {
	m.waits++
	m.waitUntil = m.now().Add(d)
}

// Progress returns the finished share of iterations in [0, 1]
func (m *Model) Progress() float64 {
	if m.numSearches <= 0 {
		return 0
	}
	return min(float64(m.iterations)/float64(m.numSearches), 1)
}

// Waiting reports whether the gate is currently sleeping
func (m *Model) Waiting() bool {
	return !m.waitUntil.IsZero() && m.now().Before(m.waitUntil)
}

// Err returns the error the run finished with
func (m *Model) Err() error {
	return m.err
}

// AddLogMessage adds a log message, keeping the newest maxLogMessages
func (m *Model) AddLogMessage(level, message string) {
	m.logMessages = append(m.logMessages, LogMessage{
		Time:    m.now(),
		Level:   level,
		Message: message,
		Color:   th.level(level),
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}
