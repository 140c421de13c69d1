package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	// DefaultMaxRetries is the number of additional attempts beyond the first.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the initial delay for exponential backoff.
	DefaultBaseDelay = 1 * time.Second
	// DefaultMaxDelay caps the backoff delay between attempts.
	DefaultMaxDelay = 30 * time.Second
	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier = 2.0
	// BackoffRandomizationFactor is the jitter applied to each delay.
	BackoffRandomizationFactor = 0.2
	// maxInvalidResponseRetries bounds retries of unparseable or
	// schema-invalid responses: one fresh attempt, then fatal.
	maxInvalidResponseRetries = 1
)

// Retryer executes a chat attempt with admission control and retries.
//
// Every attempt, including retries, first passes through the Admitter. On a
// retryable failure the next attempt is delayed by exponential backoff with
// jitter, or by the backend's Retry-After hint when it is longer. Invalid
// responses (JSON parse or schema validation failures) get a single fresh
// attempt; after exhaustion the last failure is wrapped in a terminal
// provider error carrying the attempt count.
type Retryer struct {
	admitter   Admitter
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     zerolog.Logger
}

// NewRetryer creates a Retryer with the given admission control.
// Zero values for maxRetries/baseDelay/maxDelay select the defaults.
func NewRetryer(admitter Admitter, maxRetries int, baseDelay, maxDelay time.Duration, logger zerolog.Logger) *Retryer {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	return &Retryer{
		admitter:   admitter,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
		logger:     logger.With().Str("component", "retryer").Logger(),
	}
}

// Do runs op until it succeeds, fails terminally, or retries are exhausted.
func (r *Retryer) Do(ctx context.Context, op func(ctx context.Context) (ChatResponse, error)) (ChatResponse, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.baseDelay
	eb.Multiplier = BackoffMultiplier
	eb.RandomizationFactor = BackoffRandomizationFactor
	eb.MaxInterval = r.maxDelay
	eb.MaxElapsedTime = 0 // retries are bounded by count, not elapsed time
	eb.Reset()

	var lastErr error
	invalidResponses := 0

	for attempt := 1; ; attempt++ {
		if err := r.admitter.Acquire(ctx); err != nil {
			return nil, NewTimeoutError("canceled while waiting for rate limiter", err)
		}

		resp, err := op(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// Explicit cancellation terminates the retry loop immediately.
		if ctx.Err() != nil {
			return nil, NewTimeoutError("request canceled", lastErr)
		}
		if !IsRetryableError(err) {
			return nil, err
		}
		if IsInvalidResponseError(err) {
			invalidResponses++
			if invalidResponses > maxInvalidResponseRetries {
				return nil, NewProviderError(
					fmt.Sprintf("response failed validation after %d attempts", attempt), err)
			}
		}
		if attempt > r.maxRetries {
			return nil, NewProviderError(
				fmt.Sprintf("retries exhausted after %d attempts", attempt), lastErr)
		}

		delay := eb.NextBackOff()
		if delay == backoff.Stop {
			return nil, NewProviderError(
				fmt.Sprintf("retries exhausted after %d attempts", attempt), lastErr)
		}
		if ra := ExtractRetryAfter(err); ra != nil && *ra > delay {
			delay = *ra
			if delay > r.maxDelay {
				delay = r.maxDelay
			}
		}

		r.logger.Warn().
			Int("attempt", attempt).
			Int("max_retries", r.maxRetries).
			Dur("next_delay", delay).
			Err(err).
			Msg("Chat attempt failed, retrying after delay")

		if err := r.wait(ctx, delay); err != nil {
			return nil, NewTimeoutError("canceled during retry backoff", lastErr)
		}
	}
}

// wait sleeps for the delay, respecting context cancellation.
func (r *Retryer) wait(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
