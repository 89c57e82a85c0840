package collector

import (
	"context"

	"tweetcloud/pkg/twitter"
)

// SearchClient defines the search operation the collector needs
type SearchClient interface {
	Search(ctx context.Context, query string, count int) (*twitter.SearchResponse, error)
}

// QuotaGate blocks until the provider quota allows another search
type QuotaGate interface {
	Wait(ctx context.Context) error
}

// Sink receives the normalized texts of each iteration
type Sink interface {
	AppendLines(lines []string) error
	TotalLines() int
}
