// Package ratelimit keeps the collector inside the provider's published quota.
//
// Before every search the QuotaGate reads the rate limit status endpoint and
// looks at two resources: the search endpoint itself and the status endpoint
// the gate is calling. If either has one call or fewer left, the gate sleeps
// until the later of the two reset times plus a safety margin and checks
// again. After a bounded number of exhausted checks it fails with
// ErrQuotaExhausted.
//
//	gate := ratelimit.NewQuotaGate(client, cfg.RateLimit, log)
//	if err := gate.Wait(ctx); err != nil {
//		return err
//	}
package ratelimit
