package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Counter reports how many generated tests already exist
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// ScanSequence derives the next ordinal by re-counting persisted tests.
// Two concurrent callers may receive the same ordinal.
type ScanSequence struct {
	counter Counter
}

// NewScanSequence creates a sequence backed by a repository count
func NewScanSequence(counter Counter) *ScanSequence {
	return &ScanSequence{counter: counter}
}

// Next returns count + 1
func (s *ScanSequence) Next(ctx context.Context) (int, error) {
	n, err := s.counter.Count(ctx)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// RedisSequence reserves ordinals atomically with INCR.
// The key is seeded once per process from the repository count, so an
// existing counter always wins over a re-scan.
type RedisSequence struct {
	client  redis.UniversalClient
	key     string
	counter Counter

	mu     sync.Mutex
	seeded bool
}

// NewRedisSequence creates a Redis-backed sequence
func NewRedisSequence(client redis.UniversalClient, key string, counter Counter) *RedisSequence {
	if key == "" {
		key = "grid-test:generated:seq"
	}
	return &RedisSequence{client: client, key: key, counter: counter}
}

// Next reserves and returns the next ordinal
func (s *RedisSequence) Next(ctx context.Context) (int, error) {
	if err := s.seed(ctx); err != nil {
		return 0, err
	}

	n, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return int(n), nil
}

// HealthCheck verifies Redis connectivity
func (s *RedisSequence) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisSequence) Close() error {
	return s.client.Close()
}

func (s *RedisSequence) seed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seeded {
		return nil
	}

	n, err := s.counter.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count generated tests: %w", err)
	}

	if err := s.client.SetNX(ctx, s.key, n, 0).Err(); err != nil {
		return fmt.Errorf("failed to seed sequence: %w", err)
	}

	s.seeded = true
	return nil
}

// NewRedisClient connects to Redis
func NewRedisClient(ctx context.Context, address, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}
