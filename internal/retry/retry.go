// Package retry runs an operation a bounded number of times with a delay
// that grows linearly between attempts.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default policy: three attempts, 1s then 2s between them.
const (
	DefaultAttempts = 3
	DefaultDelay    = time.Second
)

// linear waits delay, 2*delay, 3*delay, ...
type linear struct {
	delay time.Duration
	n     int
}

func (l *linear) NextBackOff() time.Duration {
	l.n++
	return time.Duration(l.n) * l.delay
}

func (l *linear) Reset() { l.n = 0 }

// Permanent wraps err so Do returns it without further attempts.
func Permanent(err error) error { return backoff.Permanent(err) }

// Do calls fn until it succeeds, returns a Permanent error, ctx is done or
// attempts calls have failed. The last error is returned.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	return DoNotify(ctx, attempts, delay, fn, nil)
}

// DoNotify is Do with a callback invoked before every wait.
func DoNotify(ctx context.Context, attempts int, delay time.Duration, fn func() error, notify func(err error, wait time.Duration)) error {
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithContext(backoff.WithMaxRetries(&linear{delay: delay}, uint64(attempts-1)), ctx)
	return backoff.RetryNotify(fn, b, notify)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
