package guard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCounterStore_IncrementAndGet(t *testing.T) {
	store := NewMemoryCounterStore()
	ctx := context.Background()

	count, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = store.Increment(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.Increment(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Other identifiers are independent
	count, err = store.Increment(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryCounterStore_Reset(t *testing.T) {
	store := NewMemoryCounterStore()
	ctx := context.Background()

	_, err := store.Increment(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx, "alice"))

	count, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Resetting a missing entry is a no-op
	require.NoError(t, store.Reset(ctx, "nobody"))
}

func TestMemoryCounterStore_Sweep(t *testing.T) {
	store := NewMemoryCounterStore()
	ctx := context.Background()

	current := time.Now()
	store.now = func() time.Time { return current }

	_, err := store.Increment(ctx, "stale")
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)
	_, err = store.Increment(ctx, "fresh")
	require.NoError(t, err)

	removed := store.Sweep(1 * time.Hour)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	count, err := store.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = store.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryCounterStore_ConcurrentIncrements(t *testing.T) {
	store := NewMemoryCounterStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Increment(ctx, "alice")
		}()
	}
	wg.Wait()

	count, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 50, count)
}
