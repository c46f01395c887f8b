package repository

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"relay-back/internal/model"
)

const bucketTTLSeconds = 86400

// tokenBucketScript refills and spends atomically inside redis.
// KEYS[1] bucket; ARGV capacity, refill rate per second, now, requested.
var tokenBucketScript = goredis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'tokens', 'updated_at')
local tokens = tonumber(bucket[1])
local updated_at = tonumber(bucket[2])

if tokens == nil or updated_at == nil then
    tokens = capacity
    updated_at = now
end

local elapsed = math.max(0, now - updated_at)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
local retry_after = 0

if tokens >= requested then
    tokens = tokens - requested
    allowed = 1
else
    retry_after = (requested - tokens) / rate
end

redis.call('HSET', key, 'tokens', tokens, 'updated_at', now)
redis.call('EXPIRE', key, ARGV[5])

return {allowed, math.floor(tokens), math.ceil(retry_after)}
`)

type RateLimitRepository struct {
	rdb      *goredis.Client
	capacity int
	rate     float64
	now      func() time.Time
}

func NewRateLimitRepository(rdb *goredis.Client, capacity int, refillPerSecond float64) *RateLimitRepository {
	if capacity <= 0 {
		capacity = 1
	}

	if refillPerSecond <= 0 {
		refillPerSecond = 1
	}

	return &RateLimitRepository{
		rdb:      rdb,
		capacity: capacity,
		rate:     refillPerSecond,
		now:      time.Now,
	}
}

func (r *RateLimitRepository) Take(ctx context.Context, key string) (model.RateDecision, error) {
	now := float64(r.now().UnixNano()) / 1e9

	result, err := tokenBucketScript.Run(ctx, r.rdb, []string{key}, r.capacity, r.rate, now, 1, bucketTTLSeconds).Int64Slice()
	if err != nil {
		return model.RateDecision{}, fmt.Errorf("failed to run token bucket script: %w", err)
	}

	if len(result) < 3 {
		return model.RateDecision{}, fmt.Errorf("unexpected token bucket reply: %v", result)
	}

	return model.RateDecision{
		Allowed:    result[0] == 1,
		Limit:      r.capacity,
		Remaining:  int(result[1]),
		RetryAfter: int(result[2]),
	}, nil
}
