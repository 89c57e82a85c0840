package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"tweetcloud/pkg/collector"
	"tweetcloud/pkg/ratelimit"
	"tweetcloud/pkg/twitter"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// StatusTracker prints one line per finished iteration
type StatusTracker struct {
	out         io.Writer
	numSearches int
	collected   int
	waits       int
	StartTime   time.Time
}

// NewStatusTracker creates a tracker for a run of numSearches iterations.
// A nil writer means Out.
func NewStatusTracker(w io.Writer, numSearches int) *StatusTracker {
	if w == nil {
		w = Out
	}
	return &StatusTracker{
		out:         w,
		numSearches: numSearches,
		StartTime:   time.Now(),
	}
}

// GetProgress returns a formatted progress bar after done iterations
func (st *StatusTracker) GetProgress(done int) string {
	filled := 0
	if st.numSearches > 0 {
		filled = min(done*barWidth/st.numSearches, barWidth)
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, barWidth-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, done, st.numSearches)
}

// Iteration prints the progress line for r
func (st *StatusTracker) Iteration(r collector.IterationResult) {
	st.collected += r.Current
	fmt.Fprintf(st.out, "%s %s +%s • %s lines • newest %s\n",
		Green("[COLLECTED]"),
		st.GetProgress(r.Iteration+1),
		humanize.Comma(int64(r.Current)),
		humanize.Comma(int64(r.Total)),
		FormatCursor(r.Cursor),
	)
}

// Quota prints the remaining calls when they run low
func (st *StatusTracker) Quota(s ratelimit.Snapshot) {
	if min(s.SearchRemaining, s.StatusRemaining) > 10 {
		return
	}
	fmt.Fprintf(st.out, "%s search %d left • rate_limit_status %d left\n",
		Magenta("[QUOTA]"), s.SearchRemaining, s.StatusRemaining)
}

// Waiting prints a rate limit warning
func (st *StatusTracker) Waiting(d time.Duration) {
	st.waits++
	fmt.Fprintf(st.out, "%s Rate limit reached. Waiting %s...\n", Yellow("⚠"), formatDuration(d))
}

// Done prints the failure, if any
func (st *StatusTracker) Done(err error) {
	if err != nil {
		fmt.Fprintf(st.out, "%s %v\n", Red("✗"), err)
	}
}

// GetCollectedCount returns the number of texts collected so far
func (st *StatusTracker) GetCollectedCount() int {
	return st.collected
}

// FormatCursor renders a cursor timestamp in milliseconds since the Unix
// epoch. The initial cursor renders as "none".
func FormatCursor(ms int64) string {
	if ms <= twitter.BaseTimestamp {
		return "none"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05 UTC")
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
