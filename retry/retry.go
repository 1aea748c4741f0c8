// Package retry re-issues raw calls whose errno is known to be transient.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/evanphx/rawsys/abi"
)

// Policy bounds how a call is retried. Only results carrying one of the
// Retryable errnos are retried, at most MaxAttempts times in total.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Retryable       []abi.Errno
}

var DefaultPolicy = Policy{
	MaxAttempts:     8,
	InitialInterval: time.Millisecond,
	MaxInterval:     50 * time.Millisecond,
	Retryable:       []abi.Errno{abi.EBUSY, abi.EINTR},
}

// Once never retries.
var Once = Policy{MaxAttempts: 1}

func (p Policy) IsRetryable(e abi.Errno) bool {
	for _, r := range p.Retryable {
		if r == e {
			return true
		}
	}
	return false
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Schedule lists the pause before each retry, without jitter: doubling
// from InitialInterval and capped at MaxInterval.
func (p Policy) Schedule() []time.Duration {
	n := p.attempts() - 1
	delays := make([]time.Duration, n)

	d := p.InitialInterval
	for i := range delays {
		if p.MaxInterval > 0 && d > p.MaxInterval {
			d = p.MaxInterval
		}
		delays[i] = d
		d *= 2
	}

	return delays
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.attempts()-1)), ctx)
}

// Do runs op until it returns a success, a non-retryable errno, the
// attempts run out, or ctx is done. It returns op's last raw result and,
// for a failure, the Errno (or ctx's error).
func Do(ctx context.Context, p Policy, op func() int64) (int64, error) {
	var ret int64

	err := backoff.Retry(func() error {
		ret = op()

		e, ok := abi.ErrnoOf(ret)
		if !ok {
			return nil
		}

		if !p.IsRetryable(e) {
			return backoff.Permanent(e)
		}

		return e
	}, p.backOff(ctx))

	return ret, err
}
