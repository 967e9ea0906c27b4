package retry

import (
	"context"
	"fmt"
	"time"
)

// Backoff is a bounded exponential-backoff retry policy for
// eventually-consistent reads. Unlike a reconnect loop it always gives up
// deterministically after Attempts tries.
type Backoff struct {
	Attempts   int           // total attempts, must be >= 1
	StartDelay time.Duration // delay before the second attempt (or the first, with DelayFirst)
	MaxDelay   time.Duration // cap on the per-attempt delay
	Multiplier float64       // delay growth factor, defaults to 2
	DelayFirst bool          // sleep before the first attempt too
}

// Do runs op until it succeeds, canceling on ctx. The last error is
// returned when all attempts are exhausted.
func Do(ctx context.Context, cfg Backoff, op func(ctx context.Context) error) error {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	multiplier := cfg.Multiplier
	if multiplier <= 1 {
		multiplier = 2
	}

	delay := cfg.StartDelay
	var lastErr error

	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if attempt > 0 || cfg.DelayFirst {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * multiplier)
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("retry budget exhausted after %d attempts: %w", cfg.Attempts, lastErr)
}
