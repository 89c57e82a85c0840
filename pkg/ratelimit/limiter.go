package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tweetcloud/pkg/config"
	errs "tweetcloud/pkg/errors"
	"tweetcloud/pkg/logger"
	"tweetcloud/pkg/retry"
	"tweetcloud/pkg/twitter"
)

// ErrQuotaExhausted is returned when every check found the quota used up
var ErrQuotaExhausted = errors.New("rate limit quota still exhausted")

// StatusSource reports the provider's current rate limit status
type StatusSource interface {
	RateLimitStatus(ctx context.Context) (*twitter.RateLimitStatus, error)
}

// Snapshot is the part of the status the gate looks at
type Snapshot struct {
	SearchRemaining int
	SearchReset     int64
	StatusRemaining int
	StatusReset     int64
}

// Exhausted reports whether either endpoint is at or below threshold
func (s Snapshot) Exhausted(threshold int) bool {
	return min(s.SearchRemaining, s.StatusRemaining) <= threshold
}

// WaitFor returns how long to sleep until both endpoints have reset, plus
// margin. It never returns a negative duration.
func (s Snapshot) WaitFor(now time.Time, margin time.Duration) time.Duration {
	reset := time.Unix(max(s.SearchReset, s.StatusReset), 0)
	d := reset.Sub(now) + margin
	if d < 0 {
		return 0
	}
	return d
}

// QuotaGate blocks until the search endpoint has calls left
type QuotaGate struct {
	source       StatusSource
	threshold    int
	safetyMargin time.Duration
	maxChecks    int
	logger       logger.Logger

	// OnCheck and OnWait observe every status check and every sleep when set
	OnCheck func(Snapshot)
	OnWait  func(time.Duration)

	// Now and Sleep are replaceable for tests
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewQuotaGate creates a gate reading status from source
func NewQuotaGate(source StatusSource, cfg config.RateLimitConfig, log logger.Logger) *QuotaGate {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if cfg.MaxChecks <= 0 {
		cfg.MaxChecks = 1
	}

	return &QuotaGate{
		source:       source,
		threshold:    cfg.Threshold,
		safetyMargin: cfg.SafetyMargin,
		maxChecks:    cfg.MaxChecks,
		logger:       log,
		Now:          time.Now,
		Sleep:        retry.Wait,
	}
}

// Check fetches the current status and extracts the two quotas
func (g *QuotaGate) Check(ctx context.Context) (Snapshot, error) {
	status, err := g.source.RateLimitStatus(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to fetch rate limit status: %w", err)
	}

	search, ok := status.Lookup("search", twitter.SearchResource)
	if !ok {
		return Snapshot{}, errs.New(errs.ErrorTypeParsing, 0, "rate limit status has no "+twitter.SearchResource+" entry")
	}
	app, ok := status.Lookup("application", twitter.RateLimitResource)
	if !ok {
		return Snapshot{}, errs.New(errs.ErrorTypeParsing, 0, "rate limit status has no "+twitter.RateLimitResource+" entry")
	}

	return Snapshot{
		SearchRemaining: search.Remaining,
		SearchReset:     search.Reset,
		StatusRemaining: app.Remaining,
		StatusReset:     app.Reset,
	}, nil
}

// Wait returns once both endpoints have more than threshold calls left.
// It sleeps until the later reset plus the safety margin between checks and
// gives up with ErrQuotaExhausted after maxChecks exhausted checks.
func (g *QuotaGate) Wait(ctx context.Context) error {
	for check := 1; check <= g.maxChecks; check++ {
		snap, err := g.Check(ctx)
		if err != nil {
			return err
		}

		g.logger.InfoWithFields("remaining counts", map[string]interface{}{
			"search": snap.SearchRemaining,
			"limit":  snap.StatusRemaining,
		})
		if g.OnCheck != nil {
			g.OnCheck(snap)
		}

		if !snap.Exhausted(g.threshold) {
			return nil
		}

		if check == g.maxChecks {
			break
		}

		wait := snap.WaitFor(g.Now(), g.safetyMargin)
		g.logger.WarnWithFields("rate limit nearly exhausted, waiting for reset", map[string]interface{}{
			"check": check,
			"wait":  wait,
		})
		if g.OnWait != nil {
			g.OnWait(wait)
		}
		if err := g.Sleep(ctx, wait); err != nil {
			return err
		}
	}

	return &errs.Error{
		Type:    errs.ErrorTypeQuotaExhausted,
		Message: fmt.Sprintf("quota still exhausted after %d checks", g.maxChecks),
		Err:     ErrQuotaExhausted,
	}
}
