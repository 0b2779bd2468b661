package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("second holder is refused until unlock", func(t *testing.T) {
		l := NewInMemoryLocker()

		ok, err := l.TryLock(ctx, "sweep:order_completion", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, l.Held("sweep:order_completion"))

		ok, err = l.TryLock(ctx, "sweep:order_completion", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = l.TryLock(ctx, "sweep:delivery_submission", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "other keys are independent")

		require.NoError(t, l.Unlock(ctx, "sweep:order_completion"))
		ok, err = l.TryLock(ctx, "sweep:order_completion", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired lock can be taken over", func(t *testing.T) {
		l := NewInMemoryLocker()
		now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		l.now = func() time.Time { return now }

		ok, _ := l.TryLock(ctx, "k", time.Minute)
		require.True(t, ok)

		now = now.Add(2 * time.Minute)
		assert.False(t, l.Held("k"))
		ok, _ = l.TryLock(ctx, "k", time.Minute)
		assert.True(t, ok)
	})

	t.Run("unlock of unknown key", func(t *testing.T) {
		l := NewInMemoryLocker()
		assert.ErrorIs(t, l.Unlock(ctx, "nope"), ErrLockNotHeld)
	})

	t.Run("only one concurrent winner", func(t *testing.T) {
		l := NewInMemoryLocker()
		var winners atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ok, _ := l.TryLock(ctx, "race", time.Minute); ok {
					winners.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), winners.Load())
	})
}
