package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// Pinger is anything with a connectivity check, such as a pgx pool or a
// Redis client wrapper.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck checks a dependency by pinging it.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// GoroutineCountCheck reports unhealthy when the goroutine count exceeds
// threshold, which usually means a leak.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}
