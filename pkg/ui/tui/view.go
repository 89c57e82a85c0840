package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"tweetcloud/pkg/twitter"
)

// View renders the entire dashboard
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())

	half := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(half),
		m.renderProgressPanel(half),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderQuotaPanel(half),
		m.renderLogsPanel(half),
	)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, th.help.Render("Press ? for help, q to stop"))
	}

	return th.canvas.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m Model) renderHeader() string {
	status := m.spinner.View() + " collecting"
	switch {
	case m.done && m.err != nil:
		status = th.failed.Render("✗ failed")
	case m.done:
		status = th.ok.Render("✓ finished")
	case m.Waiting():
		status = th.paused.Render("⏸  waiting for rate limit reset")
	}

	title := fmt.Sprintf("tweetcloud • %q • %s", m.query, status)
	return th.header.Width(m.width).Render(title)
}

func (m Model) renderStatsPanel(width int) string {
	title := th.heading.Render(" COLLECTION ")

	newest := "none"
	if m.cursor > twitter.BaseTimestamp {
		newest = time.UnixMilli(m.cursor).UTC().Format("2006-01-02 15:04:05")
	}

	stats := []string{
		statLine("Session Time:", formatDuration(m.now().Sub(m.startTime))),
		statLine("Collected:", humanize.Comma(int64(m.collected))+" texts"),
		statLine("Lines in File:", humanize.Comma(int64(m.totalLines))),
		statLine("Last Iteration:", fmt.Sprintf("+%d in %s", m.lastCurrent, formatDuration(m.lastElapsed))),
		statLine("Newest Tweet:", newest),
	}

	return th.panel.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

func (m Model) renderProgressPanel(width int) string {
	title := th.heading.Render(" ITERATIONS ")

	bar := m.progress
	bar.Width = max(width-8, 10)

	content := lipgloss.JoinVertical(lipgloss.Left,
		statLine("Done:", fmt.Sprintf("%d/%d", m.iterations, m.numSearches)),
		bar.ViewAs(m.Progress()),
	)

	return th.panel.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m Model) renderQuotaPanel(width int) string {
	title := th.heading.Render(" RATE LIMIT STATUS ")

	if !m.haveQuota {
		content := th.faint.Render("No status checked yet")
		return th.panel.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	content := []string{
		fmt.Sprintf("%s %s", th.label.Render("search/tweets:"),
			th.quota(m.quota.SearchRemaining).Render(fmt.Sprintf("%d left", m.quota.SearchRemaining))),
		fmt.Sprintf("%s %s", th.label.Render("rate_limit_status:"),
			th.quota(m.quota.StatusRemaining).Render(fmt.Sprintf("%d left", m.quota.StatusRemaining))),
	}

	if m.Waiting() {
		content = append(content, statLine("Resuming in:", formatDuration(m.waitUntil.Sub(m.now()))))
	}
	if m.waits > 0 {
		content = append(content, statLine("Waits so far:", fmt.Sprintf("%d", m.waits)))
	}

	return th.panel.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(content, "\n")),
	)
}

func (m Model) renderLogsPanel(width int) string {
	title := th.heading.Render(" LOG ")

	start := max(len(m.logMessages)-10, 0)

	var logs []string
	maxMsgLen := max(width-25, 10)
	for _, log := range m.logMessages[start:] {
		timestamp := th.faint.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))

		msg := log.Message
		if r := []rune(msg); len(r) > maxMsgLen {
			msg = string(r[:maxMsgLen-3]) + "..."
		}

		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, th.text.Render(msg)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = th.faint.Render("No logs yet...")
	}

	return th.panel.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString("\n  Keys:\n")
	for _, k := range []key.Binding{keys.Quit, keys.ClearLogs, keys.Help} {
		h := k.Help()
		fmt.Fprintf(&b, "    %-8s - %s\n", h.Key, h.Desc)
	}

	b.WriteString("\n  Quota colors:\n")
	fmt.Fprintf(&b, "    %s    - Plenty of calls left\n", th.plenty.Render("Green"))
	fmt.Fprintf(&b, "    %s   - Ten or fewer calls left\n", th.low.Render("Orange"))
	fmt.Fprintf(&b, "    %s      - Gate will wait for the reset\n", th.exhausted.Render("Red"))

	return th.panel.Width(m.width).Render(b.String())
}

func statLine(label, value string) string {
	return fmt.Sprintf("%s %s", th.label.Render(label), th.value.Render(value))
}

// formatDuration formats a duration as mm:ss or hh:mm:ss
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
