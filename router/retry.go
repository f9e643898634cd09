package router

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/sony/gobreaker"
)

// retryDelay computes the wait before retry number attempt (1-based):
// exponential backoff with jitter, overridden by the provider's Retry-After
// when the previous failure was a rate limit.
func (r *Router) retryDelay(attempt int, lastErr error) time.Duration {
	var provErr *litellm.ProviderError
	if errors.As(lastErr, &provErr) && litellm.IsRateLimitError(lastErr) {
		if after := provErr.RetryAfter(); after > 0 {
			return after
		}
	}

	// Past ~2^30 the doubled delay exceeds any sane RetryBackoffMax anyway;
	// clamping the exponent keeps the shift from overflowing int64.
	shift := attempt - 1
	if shift > 30 {
		shift = 30
	}
	delay := r.cfg.RetryBackoffBase << shift
	if delay > r.cfg.RetryBackoffMax || delay <= 0 {
		delay = r.cfg.RetryBackoffMax
	}
	// Full jitter: anywhere in (0, delay].
	return time.Duration(rand.Int64N(int64(delay))) + 1
}

// retryable reports whether the call should be attempted again. Breaker
// rejections count as retryable so traffic shifts to other deployments.
func retryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	return litellm.IsRetryable(err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
