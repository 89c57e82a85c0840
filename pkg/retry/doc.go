// Package retry runs an operation a bounded number of times with a fixed
// pause between failures.
//
// The pause is skipped after the last attempt, and every wait observes the
// caller's context so a shutdown signal interrupts a long back-off.
//
//	cfg := &retry.Config{
//		MaxAttempts: 10,
//		Backoff:     &retry.ConstantBackoff{Delay: 30 * time.Second},
//		Logger:      log,
//	}
//	body, err := retry.DoWithResult(ctx, fetch, cfg)
package retry
