package delivery

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds how often a queue publish is attempted. MaxAttempts
// counts every attempt, the first one included.
type RetryPolicy struct {
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
	MaxAttempts uint
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MinBackoff:  10 * time.Second,
		MaxBackoff:  30 * time.Second,
		MaxAttempts: 3,
	}
}

// backOff doubles from MinBackoff up to MaxBackoff without jitter, so no
// wait falls outside the configured bounds.
func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.MinBackoff
	b.MaxInterval = p.MaxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	return b
}

func (p RetryPolicy) options(notify backoff.Notify) []backoff.RetryOption {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	return []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(attempts),
		backoff.WithNotify(notify),
	}
}
