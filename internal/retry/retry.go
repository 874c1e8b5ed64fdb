// Package retry runs operations under an attempt budget, with an explicit
// error taxonomy deciding what is worth retrying.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Class tags a failure for retry and escalation decisions.
type Class int

const (
	// Transient failures (connection resets, 5xx, expired tokens) are
	// retried up to the attempt budget.
	Transient Class = iota
	// RateLimit failures are never retried and abort the whole batch the
	// call belongs to.
	RateLimit
	// Client failures (other 4xx) are never retried but stay isolated to
	// the failing call.
	Client
)

func (c Class) String() string {
	switch c {
	case RateLimit:
		return "rate_limit"
	case Client:
		return "client"
	default:
		return "transient"
	}
}

// Classifier maps an error to its Class. It is called fresh on every
// failure, so an operation whose error changes nature between attempts is
// handled by its latest classification.
type Classifier func(error) Class

type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Exponential bool
}

// Default matches the tool's reference behavior: up to 3 attempts with a
// fixed 30s pause between them.
func Default() Policy {
	return Policy{MaxAttempts: 3, Delay: 30 * time.Second}
}

// Do runs op at most p.MaxAttempts times, sleeping p.Delay between
// attempts (never after the last). Only Transient errors are retried;
// RateLimit and Client errors return unchanged on first sight. A Transient
// error that survives the whole budget comes back wrapped with the attempt
// count so callers can tell exhaustion from a one-shot refusal.
func (p Policy) Do(ctx context.Context, classify Classifier, op func() error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempts := 0
	retryable := false
	wrapped := func() error {
		attempts++
		err := op()
		if err == nil {
			return nil
		}
		if classify(err) != Transient {
			retryable = false
			return backoff.Permanent(err)
		}
		retryable = true
		return err
	}

	var b backoff.BackOff
	if p.Exponential {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = p.Delay
		eb.MaxElapsedTime = 0 // the attempt budget bounds us, not wall time
		b = eb
	} else {
		b = backoff.NewConstantBackOff(p.Delay)
	}
	b = backoff.WithMaxRetries(b, uint64(maxAttempts-1))
	b = backoff.WithContext(b, ctx)

	err := backoff.Retry(wrapped, b)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil || !retryable {
		return err
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}
