package collector

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"tweetcloud/pkg/checkpoint"
	"tweetcloud/pkg/config"
	"tweetcloud/pkg/logger"
	"tweetcloud/pkg/retry"
	"tweetcloud/pkg/textnorm"
	"tweetcloud/pkg/twitter"
)

// IterationResult describes one finished search iteration
type IterationResult struct {
	Iteration int
	Current   int
	Total     int
	Cursor    int64
	Elapsed   time.Duration
}

// Summary describes a finished run
type Summary struct {
	Iterations int
	Collected  int
	TotalLines int
	Cursor     int64
	Elapsed    time.Duration
}

// Collector runs the search, filter and append loop
type Collector struct {
	client        SearchClient
	gate          QuotaGate
	sink          Sink
	config        config.CollectorConfig
	logger        logger.Logger
	checkpointMgr *checkpoint.Manager

	// OnIteration is called after every iteration when set
	OnIteration func(IterationResult)

	// Now and Sleep are replaceable for tests
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// New creates a new Collector
func New(client SearchClient, gate QuotaGate, sink Sink, cfg config.CollectorConfig, log logger.Logger) *Collector {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = 2
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = twitter.MaxSearchCount
	}

	return &Collector{
		client: client,
		gate:   gate,
		sink:   sink,
		config: cfg,
		logger: log.WithField("query", cfg.Query),
		Now:    time.Now,
		Sleep:  retry.Wait,
	}
}

// SetCheckpointManager makes the collector resume from and persist its cursor
func (c *Collector) SetCheckpointManager(mgr *checkpoint.Manager) {
	c.checkpointMgr = mgr
}

// FilterStatuses keeps statuses newer than cursor and normalizes their text.
// It returns the newest timestamp seen, which is cursor when nothing is
// newer, and the texts that kept at least minChars runes.
func FilterStatuses(statuses []twitter.Status, cursor int64, minChars int) (int64, []string) {
	latest := cursor
	texts := make([]string, 0, len(statuses))

	for _, status := range statuses {
		ts := status.Timestamp()
		if ts <= cursor {
			continue
		}
		if ts > latest {
			latest = ts
		}

		text := textnorm.Normalize(status.FullText)
		if utf8.RuneCountInString(text) < minChars {
			continue
		}
		texts = append(texts, text)
	}

	return latest, texts
}

// loadCursor returns the starting cursor and, when resuming, the checkpoint
func (c *Collector) loadCursor() (int64, *checkpoint.Checkpoint, error) {
	if c.checkpointMgr == nil {
		return twitter.BaseTimestamp, nil, nil
	}

	cp, err := c.checkpointMgr.Load()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp != nil && cp.Query == c.config.Query {
		c.logger.InfoWithFields("resuming from checkpoint", map[string]interface{}{
			"cursor":     cp.Cursor,
			"iterations": cp.Iterations,
		})
		return cp.Cursor, cp, nil
	}

	cp, err = c.checkpointMgr.Create(c.config.Query, c.config.OutputPath, twitter.BaseTimestamp)
	if err != nil {
		return 0, nil, err
	}
	return cp.Cursor, cp, nil
}

// Run performs the configured number of iterations. Lines appended before
// an error or cancellation stay on disk.
func (c *Collector) Run(ctx context.Context) (*Summary, error) {
	cursor, cp, err := c.loadCursor()
	if err != nil {
		return nil, err
	}

	runStart := c.Now()
	summary := &Summary{Cursor: cursor, TotalLines: c.sink.TotalLines()}

	c.logger.InfoWithFields("starting collection", map[string]interface{}{
		"num_searches": c.config.NumSearches,
		"interval":     c.config.Interval,
		"output":       c.config.OutputPath,
		"total":        summary.TotalLines,
	})

	for i := 0; i < c.config.NumSearches; i++ {
		iterStart := c.Now()

		if err := c.gate.Wait(ctx); err != nil {
			return summary, fmt.Errorf("iteration %d: %w", i, err)
		}

		resp, err := c.client.Search(ctx, c.config.Query, c.config.PageSize)
		if err != nil {
			return summary, fmt.Errorf("iteration %d: search failed: %w", i, err)
		}

		latest, texts := FilterStatuses(resp.Statuses, cursor, c.config.MinChars)

		if err := c.sink.AppendLines(texts); err != nil {
			return summary, fmt.Errorf("iteration %d: %w", i, err)
		}
		cursor = latest

		summary.Iterations++
		summary.Collected += len(texts)
		summary.TotalLines = c.sink.TotalLines()
		summary.Cursor = cursor

		c.logger.InfoWithFields("iteration finished", map[string]interface{}{
			"iteration": i,
			"total":     summary.TotalLines,
			"current":   len(texts),
			"fetched":   len(resp.Statuses),
		})

		if cp != nil {
			if err := c.checkpointMgr.UpdateProgress(cp, cursor, len(texts)); err != nil {
				c.logger.WithError(err).Warn("failed to save checkpoint")
			}
		}

		elapsed := c.Now().Sub(iterStart)
		if c.OnIteration != nil {
			c.OnIteration(IterationResult{
				Iteration: i,
				Current:   len(texts),
				Total:     summary.TotalLines,
				Cursor:    cursor,
				Elapsed:   elapsed,
			})
		}

		if i == c.config.NumSearches-1 {
			break
		}
		if remaining := c.config.Interval - elapsed; remaining > 0 {
			c.logger.DebugWithFields("waiting before next search", map[string]interface{}{
				"wait": remaining,
			})
			if err := c.Sleep(ctx, remaining); err != nil {
				return summary, err
			}
		}
	}

	summary.Elapsed = c.Now().Sub(runStart)
	c.logger.InfoWithFields("collection finished", map[string]interface{}{
		"iterations": summary.Iterations,
		"collected":  summary.Collected,
		"total":      summary.TotalLines,
		"elapsed":    summary.Elapsed,
	})

	return summary, nil
}
