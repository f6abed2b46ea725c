package sequence

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	n, err := m.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, m.Seed(ctx, 41))
	n, _ = m.Next(ctx)
	assert.Equal(t, int64(42), n)

	require.NoError(t, m.Seed(ctx, 5))
	n, _ = m.Next(ctx)
	assert.Equal(t, int64(43), n)
}

func TestMemory_ConcurrentNumbersAreUnique(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := m.Next(ctx)
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 50)
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	seq := NewRedis(client, "test:seq")

	n, err := seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, seq.Seed(ctx, 100))
	n, err = seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(101), n)

	require.NoError(t, seq.Seed(ctx, 10))
	n, err = seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(102), n)

	stored, err := mr.Get("test:seq")
	require.NoError(t, err)
	assert.Equal(t, "102", stored)
}

func TestRedis_SeedOnEmptyKey(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	seq := NewRedis(client, "fresh")
	require.NoError(t, seq.Seed(ctx, 7))

	n, err := seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
}

func TestRedis_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, err := NewRedis(client, "k").Next(context.Background())
	assert.Error(t, err)
}
