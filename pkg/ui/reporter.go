package ui

import (
	"time"

	"tweetcloud/pkg/collector"
	"tweetcloud/pkg/ratelimit"
)

// Reporter shows the progress of a collection run
type Reporter interface {
	Iteration(r collector.IterationResult)
	Quota(s ratelimit.Snapshot)
	Waiting(d time.Duration)
	Done(err error)
}

// Attach routes the collector and gate hooks to r
func Attach(r Reporter, c *collector.Collector, g *ratelimit.QuotaGate) {
	c.OnIteration = r.Iteration
	g.OnCheck = r.Quota
	g.OnWait = r.Waiting
}
