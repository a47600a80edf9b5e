package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adesina-io/kudiflow/internal/service"
)

func fastRetry(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithRetryEventualSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return NewProviderError("gemini", "complete", ProviderTimeout, errors.New("slow"))
		}
		return nil
	}, fastRetry(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return NewProviderError("gemini", "complete", ProviderUnavailable, errors.New("down"))
	}, fastRetry(3))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsOnFatalExtraction(t *testing.T) {
	calls := 0
	fatal := NewExtractionError("unreadable document", nil)
	err := WithRetry(context.Background(), func() error {
		calls++
		return fatal
	}, fastRetry(5))

	assert.Equal(t, 1, calls)
	assert.True(t, IsFatalExtraction(err))
}

func TestWithRetryStopsOnNonRetryableProviderError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return NewProviderError("vision", "annotate", ProviderLowConfidence, nil)
	}, fastRetry(5))

	assert.Equal(t, 1, calls)
	require.Error(t, err)
}

func TestIsRetryableKinds(t *testing.T) {
	assert.True(t, IsRetryable(NewProviderError("gemini", "complete", ProviderRateLimited, nil)))
	assert.True(t, IsRetryable(NewProviderError("gemini", "complete", ProviderTimeout, nil)))
	assert.False(t, IsRetryable(NewProviderError("gemini", "complete", ProviderLowConfidence, nil)))
	assert.False(t, IsRetryable(errors.New("plain failure")))
	assert.True(t, IsRetryable(ErrRateLimit))
}
