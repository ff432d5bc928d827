// Package ratelimit paces requests to the catalog API.
//
// Available implementations:
//
// Fixed delay:
//   - Sleeps the same duration on every Wait
//   - Default, one pause of 100ms after each entity
//
// Token bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Allows bursts followed by quiet periods
//
// Sliding window:
//   - Tracks requests within a moving time window
//
// Unlimited:
//   - Never blocks; only built when rate_limit.disabled is set
//
// All limiters implement Limiter. Wait takes a context so an interrupted
// run stops sleeping immediately:
//
//	limiter, err := ratelimit.New(cfg.RateLimit)
//	if err != nil {
//	    return err
//	}
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // ctx cancelled
//	}
package ratelimit
