package keylock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyLock_MutualExclusion(t *testing.T) {
	t.Parallel()

	kl := New()
	const workers = 50

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := kl.Acquire(context.Background(), "auction1")
			require.NoError(t, err)
			defer release()
			// Unsynchronized increment: only safe if the lock actually excludes.
			counter++
		}()
	}
	wg.Wait()

	require.Equal(t, workers, counter)
}

func TestKeyLock_DistinctKeysDoNotContend(t *testing.T) {
	t.Parallel()

	kl := New()

	releaseA, err := kl.Acquire(context.Background(), "auction1")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseB, err := kl.Acquire(ctx, "auction2")
	require.NoError(t, err)
	releaseB()
}

func TestKeyLock_AcquireTimesOut(t *testing.T) {
	t.Parallel()

	kl := New()

	release, err := kl.Acquire(context.Background(), "auction1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = kl.Acquire(ctx, "auction1")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// Once released the key is acquirable again.
	release()
	release2, err := kl.Acquire(context.Background(), "auction1")
	require.NoError(t, err)
	release2()
}

func TestKeyLock_TryAcquire(t *testing.T) {
	t.Parallel()

	kl := New()

	release, ok := kl.TryAcquire("auction1")
	require.True(t, ok)

	_, ok = kl.TryAcquire("auction1")
	require.False(t, ok)

	release()
	release2, ok := kl.TryAcquire("auction1")
	require.True(t, ok)
	release2()
}
