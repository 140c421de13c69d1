package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ebonhold/charforge/schema"
)

// countingAdmitter counts Acquire calls without ever blocking.
type countingAdmitter struct {
	acquires int
}

func (a *countingAdmitter) Acquire(_ context.Context) error {
	a.acquires++
	return nil
}

// scriptedOp returns the queued errors in order, then succeeds.
func scriptedOp(resp ChatResponse, failures ...error) (func(ctx context.Context) (ChatResponse, error), *int) {
	calls := new(int)
	return func(_ context.Context) (ChatResponse, error) {
		idx := *calls
		*calls++
		if idx < len(failures) {
			return nil, failures[idx]
		}
		return resp, nil
	}, calls
}

func newTestRetryer(admitter Admitter) *Retryer {
	return NewRetryer(admitter, DefaultMaxRetries, time.Millisecond, 5*time.Millisecond, zerolog.Nop())
}

func TestRetryer_SucceedsAfterRateLimits(t *testing.T) {
	admitter := &countingAdmitter{}
	op, calls := scriptedOp(
		ChatResponse{"background": "ok"},
		NewRateLimitError("throttled", nil, nil),
		NewRateLimitError("throttled", nil, nil),
	)

	resp, err := newTestRetryer(admitter).Do(context.Background(), op)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp["background"] != "ok" {
		t.Errorf("unexpected response: %v", resp)
	}
	if *calls != 3 {
		t.Errorf("expected 3 attempts, got %d", *calls)
	}
	if admitter.acquires != 3 {
		t.Errorf("expected rate limiter to be acquired exactly 3 times, got %d", admitter.acquires)
	}
}

func TestRetryer_ExhaustsRetries(t *testing.T) {
	admitter := &countingAdmitter{}
	op, calls := scriptedOp(nil,
		NewTransientProviderError("server error", 500, nil),
		NewTransientProviderError("server error", 500, nil),
		NewTransientProviderError("server error", 500, nil),
		NewTransientProviderError("server error", 500, nil),
		NewTransientProviderError("server error", 500, nil),
	)

	_, err := newTestRetryer(admitter).Do(context.Background(), op)
	var llmErr *Error
	if !errors.As(err, &llmErr) || llmErr.Type != ErrorTypeProvider {
		t.Fatalf("expected terminal provider error, got %v", err)
	}
	// MAX_RETRIES=3 means 4 attempts total, never a 5th.
	if *calls != 4 {
		t.Errorf("expected exactly 4 attempts, got %d", *calls)
	}
	if admitter.acquires != 4 {
		t.Errorf("expected 4 limiter acquisitions, got %d", admitter.acquires)
	}
}

func TestRetryer_NonRetryableFailsFast(t *testing.T) {
	admitter := &countingAdmitter{}
	op, calls := scriptedOp(nil, NewUnauthorizedError("unauthorized", 401, nil))

	_, err := newTestRetryer(admitter).Do(context.Background(), op)
	var llmErr *Error
	if !errors.As(err, &llmErr) || llmErr.Type != ErrorTypeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if *calls != 1 {
		t.Errorf("expected a single attempt, got %d", *calls)
	}
}

func TestRetryer_InvalidResponseRetriedOnce(t *testing.T) {
	valErr := &schema.ValidationError{Violations: []schema.Violation{{Path: "background", Message: "required field is missing"}}}
	admitter := &countingAdmitter{}
	op, calls := scriptedOp(nil,
		NewInvalidResponseError("response failed schema validation", valErr),
		NewInvalidResponseError("response failed schema validation", valErr),
		NewInvalidResponseError("response failed schema validation", valErr),
	)

	_, err := newTestRetryer(admitter).Do(context.Background(), op)
	var llmErr *Error
	if !errors.As(err, &llmErr) || llmErr.Type != ErrorTypeProvider {
		t.Fatalf("expected terminal provider error, got %v", err)
	}
	// One fresh attempt after the first invalid response, then fatal.
	if *calls != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", *calls)
	}
}

func TestRetryer_InvalidResponseRecoversOnRetry(t *testing.T) {
	admitter := &countingAdmitter{}
	op, calls := scriptedOp(
		ChatResponse{"background": "ok"},
		NewInvalidResponseError("invalid JSON response", nil),
	)

	resp, err := newTestRetryer(admitter).Do(context.Background(), op)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp["background"] != "ok" {
		t.Errorf("unexpected response: %v", resp)
	}
	if *calls != 2 {
		t.Errorf("expected 2 attempts, got %d", *calls)
	}
}

func TestRetryer_HonorsRetryAfterHint(t *testing.T) {
	retryAfter := 30 * time.Millisecond
	admitter := &countingAdmitter{}
	op, _ := scriptedOp(
		ChatResponse{},
		NewRateLimitError("throttled", &retryAfter, nil),
	)

	retryer := NewRetryer(admitter, DefaultMaxRetries, time.Millisecond, 100*time.Millisecond, zerolog.Nop())
	start := time.Now()
	if _, err := retryer.Do(context.Background(), op); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < retryAfter {
		t.Errorf("expected Retry-After hint to delay the retry, elapsed %v", elapsed)
	}
}

func TestRetryer_CancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	admitter := &countingAdmitter{}
	calls := 0
	op := func(_ context.Context) (ChatResponse, error) {
		calls++
		cancel()
		return nil, NewTransientProviderError("server error", 500, nil)
	}

	_, err := newTestRetryer(admitter).Do(ctx, op)
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected no retries after cancellation, got %d attempts", calls)
	}
}
