package reembed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			return nil
		}, 3, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			if calls < 3 {
				return fmt.Errorf("transient")
			}
			return nil
		}, 5, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			return fmt.Errorf("attempt %d", calls)
		}, 3, time.Millisecond)
		require.Error(t, err)
		assert.EqualError(t, err, "attempt 3")
		assert.Equal(t, 3, calls)
	})

	t.Run("invalid max attempts", func(t *testing.T) {
		err := RetryWithBackoff(ctx, func() error { return nil }, 0, time.Millisecond)
		assert.Equal(t, ErrInvalidMaxAttempts, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		err := RetryWithBackoff(cancelled, func() error {
			return fmt.Errorf("should not matter")
		}, 3, time.Millisecond)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNormalizeVector(t *testing.T) {
	t.Run("unit length output", func(t *testing.T) {
		normalized := NormalizeVector([]float32{3, 4})
		assert.InDelta(t, 0.6, normalized[0], 1e-6)
		assert.InDelta(t, 0.8, normalized[1], 1e-6)
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		normalized := NormalizeVector([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, normalized)
	})

	t.Run("empty vector", func(t *testing.T) {
		assert.Empty(t, NormalizeVector(nil))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		input := []float32{3, 4}
		NormalizeVector(input)
		assert.Equal(t, []float32{3, 4}, input)
	})
}
