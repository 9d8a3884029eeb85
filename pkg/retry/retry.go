// Package retry runs operations that can fail transiently, with a fixed
// number of attempts and a constant delay between them.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes how many times an operation is attempted and how long
// to wait between attempts.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first one.
	// Values below 1 mean a single attempt.
	MaxAttempts int

	// Delay is the pause between two attempts.
	Delay time.Duration
}

// Default is three attempts one second apart.
var Default = Policy{MaxAttempts: 3, Delay: time.Second}

// Permanent marks an error that must not be retried.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do calls op until it succeeds, returns a permanent error, the context
// is canceled, or the attempts are exhausted. The last error is returned.
// Permanent errors are returned unwrapped.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)
	b = backoff.WithMaxRetries(b, uint64(attempts-1))
	b = backoff.WithContext(b, ctx)

	var attempt int
	wrapped := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempt++
		return op()
	}

	notify := func(err error, d time.Duration) {
		slog.Debug("Retrying operation",
			"attempt", attempt,
			"max_attempts", attempts,
			"delay", d,
			"error", err,
		)
	}

	return backoff.RetryNotify(wrapped, b, notify)
}

// DoValue is Do for operations that return a value.
func DoValue[T any](
	ctx context.Context,
	p Policy,
	op func() (T, error),
) (T, error) {
	var res T
	err := p.Do(ctx, func() error {
		var err error
		res, err = op()
		return err
	})
	return res, err
}
