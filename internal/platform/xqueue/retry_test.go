package xqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient implements Client for retry tests, failing a configurable
// number of times before succeeding.
type fakeClient struct {
	calls    int
	failures int
	err      error
}

func (f *fakeClient) Submit(ctx context.Context, key, callbackURL string, body any) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func TestRetryingClientSucceedsAfterTransportFailures(t *testing.T) {
	inner := &fakeClient{
		failures: 2,
		err:      &SubmitError{Code: CodeTransport, Message: "queue unreachable"},
	}
	client := NewRetryingClient(inner, 3, time.Millisecond, nil)

	err := client.Submit(context.Background(), "key", "https://cb", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingClientDoesNotRetryRejection(t *testing.T) {
	inner := &fakeClient{
		failures: 5,
		err:      &SubmitError{Code: 1, Message: "payload too large"},
	}
	client := NewRetryingClient(inner, 3, time.Millisecond, nil)

	err := client.Submit(context.Background(), "key", "https://cb", nil)
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)

	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, 1, submitErr.Code)
}

func TestRetryingClientExhaustsAttempts(t *testing.T) {
	inner := &fakeClient{
		failures: 10,
		err:      &SubmitError{Code: CodeTransport, Message: "queue unreachable"},
	}
	client := NewRetryingClient(inner, 2, time.Millisecond, nil)

	err := client.Submit(context.Background(), "key", "https://cb", nil)
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Contains(t, err.Error(), "exceeded maximum submission attempts")

	var submitErr *SubmitError
	assert.ErrorAs(t, err, &submitErr)
}

func TestRetryingClientZeroRetriesIsOneShot(t *testing.T) {
	inner := &fakeClient{
		failures: 1,
		err:      &SubmitError{Code: CodeTransport, Message: "queue unreachable"},
	}
	client := NewRetryingClient(inner, 0, time.Millisecond, nil)

	err := client.Submit(context.Background(), "key", "https://cb", nil)
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

// failingClient always returns the same error; safe for concurrent use.
type failingClient struct {
	calls atomic.Int64
	err   error
}

func (f *failingClient) Submit(ctx context.Context, key, callbackURL string, body any) error {
	f.calls.Add(1)
	return f.err
}

func TestRetryingClientConcurrentSubmits(t *testing.T) {
	inner := &failingClient{
		err: &SubmitError{Code: CodeTransport, Message: "queue unreachable"},
	}
	client := NewRetryingClient(inner, 2, time.Millisecond, nil)

	const workers = 16
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.Submit(context.Background(), "key", "https://cb", nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeded maximum submission attempts")
	}
	assert.Equal(t, int64(workers*3), inner.calls.Load())
}

func TestRetryingClientStopsOnCancelledContext(t *testing.T) {
	inner := &fakeClient{
		failures: 10,
		err:      &SubmitError{Code: CodeTransport, Message: "queue unreachable"},
	}
	client := NewRetryingClient(inner, 5, 500*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Submit(ctx, "key", "https://cb", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}
