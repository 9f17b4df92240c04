// Package retry implements a bounded exponential-backoff retry policy.
// The policy is an explicit value passed to the code that needs it, so retry
// behavior stays visible and testable instead of hiding inside call sites.
package retry

import (
	"context"
	"time"
)

// Policy describes how many times to attempt an operation and how long to
// wait between attempts.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Default matches the upload retry behavior used across the pipeline:
// five attempts, 200ms base, capped at 5s.
func Default() Policy {
	return Policy{MaxAttempts: 5, BaseDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second}
}

// Do runs op until it succeeds, attempts are exhausted, or the context is
// canceled. The last operation error is returned on exhaustion.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay(attempt - 1)):
			}
		}
		if err = op(ctx); err == nil {
			return nil
		}
	}
	return err
}

// Delay returns the backoff before retrying after the given attempt,
// doubling from BaseDelay and capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := p.BaseDelay << attempt
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}
