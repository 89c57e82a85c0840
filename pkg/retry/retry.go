package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "tweetcloud/pkg/errors"
	"tweetcloud/pkg/logger"
)

// Operation is one attempt of a retried call
type Operation func(ctx context.Context) error

// OperationWithResult is an Operation that also produces a value
type OperationWithResult[T any] func(ctx context.Context) (T, error)

// Config controls Do. Nil hooks fall back to DefaultConfig's.
type Config struct {
	MaxAttempts int // 0 retries forever
	Backoff     BackoffStrategy
	RetryIf     func(error) bool
	OnRetry     func(attempt int, err error, delay time.Duration)
	Sleep       func(ctx context.Context, d time.Duration) error
	Logger      logger.Logger
}

// DefaultConfig allows 10 attempts, 30 seconds apart
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 10,
		Backoff:     &ConstantBackoff{Delay: 30 * time.Second},
		RetryIf:     DefaultRetryIf,
		Sleep:       Wait,
		Logger:      logger.NewNopLogger(),
	}
}

// DefaultRetryIf retries typed errors whose ErrorType is retryable and any
// untyped error. Context errors are never retried.
func DefaultRetryIf(err error) bool {
	var typed *errs.Error
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.As(err, &typed):
		return errs.IsRetryable(typed.Type)
	}
	return true
}

// ErrMaxAttempts is wrapped by the error Do returns when every attempt failed
var ErrMaxAttempts = errors.New("max retry attempts exceeded")

// withDefaults returns a copy of cfg with every nil hook filled in
func (cfg *Config) withDefaults() Config {
	c := *DefaultConfig()
	if cfg != nil {
		c.MaxAttempts, c.Backoff, c.OnRetry = cfg.MaxAttempts, cfg.Backoff, cfg.OnRetry
		if cfg.RetryIf != nil {
			c.RetryIf = cfg.RetryIf
		}
		if cfg.Sleep != nil {
			c.Sleep = cfg.Sleep
		}
		if cfg.Logger != nil {
			c.Logger = cfg.Logger
		}
	}
	return c
}

// exhausted reports whether attempt was the last one allowed
func (cfg *Config) exhausted(attempt int) bool {
	return cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts
}

// delay is the pause after a failed attempt
func (cfg *Config) delay(attempt int) time.Duration {
	if cfg.Backoff == nil {
		return 0
	}
	return cfg.Backoff.NextDelay(attempt)
}

// Do runs op until it succeeds, fails with an error RetryIf rejects, or
// MaxAttempts is used up. The pause is skipped after the final attempt.
func Do(ctx context.Context, op Operation, cfg *Config) error {
	c := cfg.withDefaults()
	log := c.Logger

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}

		err := op(ctx)
		switch {
		case err == nil:
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{"attempt": attempt})
			}
			return nil
		case !c.RetryIf(err):
			log.WithError(err).Debug("error is not retryable")
			return err
		case c.exhausted(attempt):
			log.WithError(err).ErrorWithFields("max retry attempts exceeded", map[string]interface{}{"attempts": attempt})
			return fmt.Errorf("%w (%d): %w", ErrMaxAttempts, c.MaxAttempts, err)
		}

		pause := c.delay(attempt)
		if c.OnRetry != nil {
			c.OnRetry(attempt, err, pause)
		}
		log.WithError(err).WarnWithFields("retrying operation", map[string]interface{}{
			"attempt":      attempt,
			"delay":        pause,
			"max_attempts": c.MaxAttempts,
		})

		if werr := c.Sleep(ctx, pause); werr != nil {
			log.WarnWithFields("retry cancelled", map[string]interface{}{"attempt": attempt, "reason": werr.Error()})
			return fmt.Errorf("retry cancelled: %w", werr)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](ctx context.Context, op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	}, cfg)

	return result, err
}
