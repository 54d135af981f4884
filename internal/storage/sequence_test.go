package storage

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter struct {
	n   int
	err error
}

func (c fixedCounter) Count(ctx context.Context) (int, error) {
	return c.n, c.err
}

func TestScanSequencePropagatesError(t *testing.T) {
	boom := errors.New("boom")
	seq := NewScanSequence(fixedCounter{err: boom})

	_, err := seq.Next(context.Background())
	assert.ErrorIs(t, err, boom)
}

func redisSequence(t *testing.T, counter Counter) *RedisSequence {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewRedisClient(ctx, addr, os.Getenv("TEST_REDIS_PASSWORD"), 0)
	require.NoError(t, err)

	key := "grid-test:test:" + uuid.NewString()
	t.Cleanup(func() {
		client.Del(context.Background(), key)
		client.Close()
	})

	return NewRedisSequence(client, key, counter)
}

func TestRedisSequenceSeedsFromCount(t *testing.T) {
	seq := redisSequence(t, fixedCounter{n: 4})
	ctx := context.Background()

	n, err := seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestRedisSequenceConcurrentOrdinalsAreDistinct(t *testing.T) {
	seq := redisSequence(t, fixedCounter{n: 0})
	ctx := context.Background()

	const workers = 20
	results := make(chan int, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := seq.Next(ctx)
			if assert.NoError(t, err) {
				results <- n
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int]bool)
	for n := range results {
		assert.False(t, seen[n], "duplicate ordinal %d", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
}
