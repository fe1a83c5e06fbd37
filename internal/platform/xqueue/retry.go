package xqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/phrazzld/certify-api/internal/platform/logger"
)

// RetryingClient wraps a Client with an exponential backoff retry policy.
// The inner client stays one-shot; retrying lives here so submission
// semantics and retry policy remain separately testable and composable.
// Only transport-level failures are retried; an explicit rejection from
// the queue (non-zero return code) is returned immediately.
type RetryingClient struct {
	inner      Client
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// Ensure RetryingClient implements the Client interface
var _ Client = (*RetryingClient)(nil)

// NewRetryingClient creates a retry policy wrapper around the given
// client. maxRetries is the number of additional attempts after the
// first; zero disables retrying entirely.
func NewRetryingClient(inner Client, maxRetries int, baseDelay time.Duration, log *slog.Logger) *RetryingClient {
	if maxRetries < 0 {
		maxRetries = 0
	}

	if baseDelay <= 0 {
		baseDelay = time.Second
	}

	if log == nil {
		log = slog.Default()
	}

	return &RetryingClient{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     log.With(slog.String("component", "xqueue_retry")),
	}
}

// Submit implements Client.Submit with retries on transport failure.
func (c *RetryingClient) Submit(ctx context.Context, key, callbackURL string, body any) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	// Per-call rng: rand.Rand is not safe for concurrent use, and one
	// client instance serves every in-flight submission.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err := c.inner.Submit(ctx, key, callbackURL, body)
		if err == nil {
			if attempt > 0 {
				log.Info("queue submission succeeded after retry",
					slog.Int("attempt", attempt+1))
			}
			return nil
		}

		lastErr = err

		var submitErr *SubmitError
		if !errors.As(err, &submitErr) || !submitErr.IsTransport() {
			// Explicit rejection; retrying would resend a task the queue
			// already refused.
			return err
		}

		if attempt >= c.maxRetries {
			break
		}

		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoff := float64(c.baseDelay) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoff * jitterFactor)

		log.Warn("queue submission failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			log.Warn("queue submission cancelled during retry delay",
				slog.String("error", ctx.Err().Error()))
			return fmt.Errorf("submission cancelled: %w", ctx.Err())
		}
	}

	return fmt.Errorf("exceeded maximum submission attempts (%d): %w", c.maxRetries+1, lastErr)
}
