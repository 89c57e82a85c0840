package ui

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"tweetcloud/pkg/wordcloud"
)

// RenderWordTable renders the top entries of counts as a table. Shares are
// relative to every entry of counts, not only the rendered ones.
func RenderWordTable(counts []wordcloud.WordCount, top int) string {
	if top <= 0 || top > len(counts) {
		top = len(counts)
	}

	total := 0
	for _, c := range counts {
		total += c.Count
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Word", "Count", "Share"})

	for i, c := range counts[:top] {
		share := 0.0
		if total > 0 {
			share = float64(c.Count) * 100 / float64(total)
		}
		t.AppendRow(table.Row{
			i + 1,
			c.Word,
			humanize.Comma(int64(c.Count)),
			fmt.Sprintf("%.1f%%", share),
		})
	}

	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%d distinct", len(counts)),
		humanize.Comma(int64(total)),
		"",
	})

	return t.Render()
}

// PrintWordTable prints RenderWordTable to Out
func PrintWordTable(counts []wordcloud.WordCount, top int) {
	fmt.Fprintln(Out, RenderWordTable(counts, top))
}
