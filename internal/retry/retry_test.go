package retry_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objgw-labs/objgw/internal/logger"
	"github.com/objgw-labs/objgw/internal/retry"
)

func newHelper() *retry.Helper {
	return retry.NewHelper(logger.NewLogger("error", "text", io.Discard))
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	h := newHelper()
	calls := 0
	err := h.Do(context.Background(), retry.Config{Attempts: 3, OnError: true}, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	h := newHelper()
	calls := 0
	err := h.Do(context.Background(), retry.Config{
		Attempts: 5,
		Delay:    time.Millisecond,
		OnError:  true,
	}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient failure")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	h := newHelper()
	sentinel := errors.New("persistent failure")
	calls := 0
	err := h.Do(context.Background(), retry.Config{
		Attempts: 3,
		Delay:    time.Millisecond,
		OnError:  true,
	}, func(ctx context.Context) error {
		calls++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
}

func TestDo_NoRetryWhenOnErrorDisabled(t *testing.T) {
	h := newHelper()
	calls := 0
	err := h.Do(context.Background(), retry.Config{Attempts: 5}, func(ctx context.Context) error {
		calls++
		return errors.New("failure")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledContextStopsRetries(t *testing.T) {
	h := newHelper()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := h.Do(ctx, retry.Config{
		Attempts: 10,
		Delay:    50 * time.Millisecond,
		OnError:  true,
	}, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("failure")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
	assert.Equal(t, 1, calls)
}
