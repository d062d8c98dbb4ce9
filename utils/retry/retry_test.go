package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	t.Run("succeeds on first attempt", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), Config{MaxAttempts: 3}, func(ctx context.Context) error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), Config{MaxAttempts: 3}, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausted attempts return last error", func(t *testing.T) {
		sentinel := errors.New("upstream down")
		calls := 0
		err := Do(context.Background(), Config{MaxAttempts: 3}, func(ctx context.Context) error {
			calls++
			return sentinel
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, sentinel)
		assert.Contains(t, err.Error(), "all 3 attempts failed")
		assert.Equal(t, 3, calls)
	})

	t.Run("abort predicate stops retries", func(t *testing.T) {
		fatal := errors.New("bad request")
		calls := 0
		err := Do(context.Background(), Config{
			MaxAttempts: 5,
			Abort:       func(err error) bool { return errors.Is(err, fatal) },
		}, func(ctx context.Context) error {
			calls++
			return fatal
		})

		assert.ErrorIs(t, err, fatal)
		assert.Equal(t, 1, calls)
	})

	t.Run("per-attempt timeout bounds each call", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), Config{
			MaxAttempts:       2,
			PerAttemptTimeout: 20 * time.Millisecond,
		}, func(ctx context.Context) error {
			calls++
			<-ctx.Done()
			return ctx.Err()
		})

		require.Error(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("parent cancellation aborts between attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := Do(ctx, Config{
			MaxAttempts: 5,
			Backoff:     FixedBackoff(time.Hour),
		}, func(ctx context.Context) error {
			calls++
			cancel()
			return errors.New("transient")
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("zero max attempts still runs once", func(t *testing.T) {
		calls := 0
		_ = Do(context.Background(), Config{}, func(ctx context.Context) error {
			calls++
			return nil
		})
		assert.Equal(t, 1, calls)
	})
}

func TestBackoffFunctions(t *testing.T) {
	t.Run("linear backoff grows with attempt number", func(t *testing.T) {
		backoff := LinearBackoff(500 * time.Millisecond)
		assert.Equal(t, 500*time.Millisecond, backoff(1))
		assert.Equal(t, time.Second, backoff(2))
	})

	t.Run("fixed backoff is constant", func(t *testing.T) {
		backoff := FixedBackoff(300 * time.Millisecond)
		assert.Equal(t, backoff(1), backoff(4))
	})
}
