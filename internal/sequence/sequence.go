// Package sequence hands out reservation numbers.
package sequence

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Memory is a process-local counter.
type Memory struct {
	mu   sync.Mutex
	last int64
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Next(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last++
	return m.last, nil
}

// Seed makes the next number greater than n. It never moves the counter back.
func (m *Memory) Seed(_ context.Context, n int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > m.last {
		m.last = n
	}
	return nil
}

var seedScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local n = tonumber(ARGV[1])
if cur < n then
	redis.call('SET', KEYS[1], ARGV[1])
end
return 0
`)

// Redis keeps the counter in a Redis key so several engine processes share one numbering.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(client *redis.Client, key string) *Redis {
	return &Redis{client: client, key: key}
}

func (r *Redis) Next(ctx context.Context) (int64, error) {
	n, err := r.client.Incr(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", r.key, err)
	}
	return n, nil
}

func (r *Redis) Seed(ctx context.Context, n int64) error {
	if err := seedScript.Run(ctx, r.client, []string{r.key}, n).Err(); err != nil {
		return fmt.Errorf("seed %s: %w", r.key, err)
	}
	return nil
}
