package chain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/brewbar/internal/chain"
	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

var (
	errNonRetryable = errors.New("non-retryable error")
	errSomeError    = errors.New("some error")
)

func fastRetry(attempts int) chain.RetryConfig {
	return chain.RetryConfig{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func TestRetry_SuccessFirstAttempt(t *testing.T) {
	attempts := 0
	result, err := chain.RetryWithConfig(context.Background(), chain.DefaultRetryConfig(), func() (string, error) {
		attempts++
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 1, attempts)
}

func TestRetry_SuccessAfterRetry(t *testing.T) {
	attempts := 0
	result, err := chain.RetryWithConfig(context.Background(), fastRetry(3), func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", chain.ErrRetryable
		}
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 3, attempts)
}

func TestRetry_NonRetryableError(t *testing.T) {
	attempts := 0

	_, err := chain.RetryWithConfig(context.Background(), fastRetry(3), func() (string, error) {
		attempts++
		return "", errNonRetryable
	})

	require.ErrorIs(t, err, errNonRetryable)
	assert.Equal(t, 1, attempts)
}

func TestRetry_MaxAttempts(t *testing.T) {
	attempts := 0

	_, err := chain.RetryWithConfig(context.Background(), fastRetry(4), func() (string, error) {
		attempts++
		return "", chain.ErrRetryable
	})

	require.ErrorIs(t, err, chain.ErrRetryable)
	assert.Contains(t, err.Error(), "after 4 attempts")
	assert.Equal(t, 4, attempts)
}

func TestRetry_NoRetry(t *testing.T) {
	attempts := 0

	_, err := chain.RetryWithConfig(context.Background(), chain.NoRetry(), func() (int, error) {
		attempts++
		return 0, chain.ErrRetryable
	})

	require.ErrorIs(t, err, chain.ErrRetryable)
	assert.NotContains(t, err.Error(), "attempts")
	assert.Equal(t, 1, attempts)
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	cfg := chain.RetryConfig{MaxAttempts: 10, BaseDelay: 40 * time.Millisecond, MaxDelay: time.Second}
	_, err := chain.RetryWithConfig(ctx, cfg, func() (string, error) {
		attempts++
		return "", chain.ErrRetryable
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, attempts, 10)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, chain.IsRetryable(chain.ErrRetryable))
	assert.True(t, chain.IsRetryable(chain.WrapRetryable(errSomeError)))
	assert.True(t, chain.IsRetryable(brewerr.ErrTimeout))
	assert.True(t, chain.IsRetryable(context.DeadlineExceeded))

	assert.False(t, chain.IsRetryable(brewerr.ErrUserRejected))
	assert.False(t, chain.IsRetryable(errSomeError))
	assert.False(t, chain.IsRetryable(nil))
	assert.NoError(t, chain.WrapRetryable(nil))
}
