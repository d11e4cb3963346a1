package verification

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/withtally/compound-seatbelt-sub001/pkg/logger"
)

// remoteAttempts bounds every remote explorer call; there is no other
// timeout mechanism.
const remoteAttempts = 3

var (
	// rateLimitDelay is the mandatory pause before each attempt. Explorers
	// rate-limit aggressively and a burst of classifications would trip
	// them immediately.
	rateLimitDelay = time.Second
	// backoffBase is the starting delay between retries; it doubles on each
	// subsequent retry.
	backoffBase = time.Second
)

// doWithRetry runs fn with the uniform remote-call retry discipline: a fixed
// rate-limit pause before every attempt, up to remoteAttempts attempts, and
// exponential backoff between retries.
func doWithRetry[T any](ctx context.Context, lggr logger.Logger, op string, fn func(context.Context) (T, error)) (T, error) {
	return retry.DoWithData(
		func() (T, error) {
			select {
			case <-time.After(rateLimitDelay):
			case <-ctx.Done():
				var zero T
				return zero, ctx.Err()
			}

			return fn(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(remoteAttempts),
		retry.Delay(backoffBase),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			lggr.Warnw("Remote call failed, retrying", "op", op, "attempt", attempt+1, "error", err)
		}),
	)
}
