package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"tweetcloud/pkg/collector"
)

// PrintCollectSummary prints the outcome of a collection run
func PrintCollectSummary(s *collector.Summary, outputPath string) {
	if s == nil {
		return
	}

	fmt.Fprintf(Out, "\n%s Collected %s texts in %d iterations\n",
		Green("✓"),
		humanize.Comma(int64(s.Collected)),
		s.Iterations,
	)

	size := ""
	if info, err := os.Stat(outputPath); err == nil {
		size = " (" + humanize.Bytes(uint64(info.Size())) + ")"
	}
	fmt.Fprintf(Out, "  %s %s lines in %s%s\n",
		Dim("•"),
		humanize.Comma(int64(s.TotalLines)),
		outputPath,
		size,
	)
	fmt.Fprintf(Out, "  %s newest tweet %s\n", Dim("•"), FormatCursor(s.Cursor))

	if s.Elapsed > 0 {
		fmt.Fprintf(Out, "  %s finished in %s\n", Dim("•"), formatDuration(s.Elapsed.Round(time.Second)))
	}
}

// PrintCloudSummary prints the outcome of a word cloud render
func PrintCloudSummary(words, distinct, placed int, outputPath string) {
	fmt.Fprintf(Out, "\n%s Rendered %d of %d distinct words (%s content words)\n",
		Green("✓"),
		placed,
		distinct,
		humanize.Comma(int64(words)),
	)

	if info, err := os.Stat(outputPath); err == nil {
		fmt.Fprintf(Out, "  %s %s (%s)\n", Dim("•"), outputPath, humanize.Bytes(uint64(info.Size())))
	}
}
