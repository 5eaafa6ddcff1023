package redisclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const QueueNumberKey = "booking:queue_number"

// Counter hands out strictly increasing integers from a single Redis key.
// INCR is atomic on the server so replicas never issue the same value.
type Counter struct {
	client *redis.Client
	key    string
}

func NewCounter(client *redis.Client, key string) *Counter {
	return &Counter{client: client, key: key}
}

// Next increments the counter and returns the new value.
func (c *Counter) Next(ctx context.Context) (int64, error) {
	n, err := c.client.Incr(ctx, c.key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", c.key, err)
	}
	return n, nil
}

// Current returns the last issued value, 0 when nothing was issued yet.
func (c *Counter) Current(ctx context.Context) (int64, error) {
	n, err := c.client.Get(ctx, c.key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", c.key, err)
	}
	return n, nil
}

var raiseScript = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
local floor = tonumber(ARGV[1])
if cur < floor then
	redis.call("SET", KEYS[1], ARGV[1])
	return 1
end
return 0
`)

// EnsureAtLeast raises the counter to n when it is behind, so the next value
// issued is above n. It reports whether the counter was moved.
func (c *Counter) EnsureAtLeast(ctx context.Context, n int64) (bool, error) {
	moved, err := raiseScript.Run(ctx, c.client, []string{c.key}, n).Int()
	if err != nil {
		return false, fmt.Errorf("raise %s: %w", c.key, err)
	}
	return moved == 1, nil
}
