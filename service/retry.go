package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/WedtreeAutomation/PaySlip-Sender/pkg/metrics"
)

// RetryPolicy bounds retries of transient remote failures.
type RetryPolicy struct {
	Attempts int           // total attempts, including the first
	Delay    time.Duration // fixed pause between attempts
}

// DefaultRetryPolicy is three attempts five seconds apart.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: 5 * time.Second}

// Do runs fn until it succeeds, fails with a non-transient error, or the
// attempt cap is reached. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, op string, m *metrics.Metrics, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		started := time.Now()
		err = fn(ctx)
		m.RemoteCall(op, started, err)
		if err == nil || !IsTransient(err) || attempt == attempts {
			return err
		}

		slog.Warn("transient remote error, retrying",
			"op", op,
			"attempt", attempt,
			"max_attempts", attempts,
			"delay", p.Delay,
			"error", err,
		)
		m.Retry(op)

		if err := sleepContext(ctx, p.Delay); err != nil {
			return err
		}
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
