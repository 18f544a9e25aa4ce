package cache

import (
	"context"
	"errors"
	"fmt"
	"milk-collection-service/internal/platform/obs"
	"milk-collection-service/internal/ports"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "distance:"

// RedisDistanceCache stores one hash per origin: field = destination key,
// value = "meters:seconds". The hash expires TTL after its last write.
type RedisDistanceCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisDistanceCache(client *redis.Client, ttl time.Duration) *RedisDistanceCache {
	return &RedisDistanceCache{Client: client, TTL: ttl}
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return client, nil
}

func (r *RedisDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "redis.cache.GetMany")(&err)

	if r.Client == nil {
		return nil, errors.New("distance cache: redis client is nil")
	}
	if origin == "" {
		return nil, fmt.Errorf("get distance cache: %w", errEmptyOrigin)
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	values, err := r.Client.HMGet(ctx, redisKeyPrefix+origin, uniq...).Result()
	if err != nil {
		return nil, fmt.Errorf("get distance cache: hmget: %w", err)
	}

	out := make(map[string]ports.DistanceResult, len(uniq))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		res, err := decodeResult(s)
		if err != nil {
			return nil, fmt.Errorf("get distance cache dest=%q: %w", uniq[i], err)
		}
		out[uniq[i]] = res
	}

	return out, nil
}

func (r *RedisDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) error {
	if r.Client == nil {
		return errors.New("distance cache: redis client is nil")
	}
	batch, err := writeBatch(origin, results)
	if err != nil {
		return fmt.Errorf("insert distance cache: %w", err)
	}
	if len(batch) == 0 {
		return nil
	}

	fields := make([]any, 0, 2*len(batch))
	for _, r := range batch {
		fields = append(fields, r.dest, encodeResult(r.DistanceResult))
	}

	key := redisKeyPrefix + origin
	pipe := r.Client.TxPipeline()
	pipe.HSet(ctx, key, fields...)
	if r.TTL > 0 {
		pipe.Expire(ctx, key, r.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert distance cache: exec: %w", err)
	}

	return nil
}

func encodeResult(r ports.DistanceResult) string {
	return strconv.Itoa(r.DistanceMeters) + ":" + strconv.Itoa(r.DurationSeconds)
}

func decodeResult(s string) (ports.DistanceResult, error) {
	meters, seconds, ok := strings.Cut(s, ":")
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("malformed value %q", s)
	}
	m, err := strconv.Atoi(meters)
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("malformed meters %q: %w", meters, err)
	}
	sec, err := strconv.Atoi(seconds)
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("malformed seconds %q: %w", seconds, err)
	}
	return ports.DistanceResult{DistanceMeters: m, DurationSeconds: sec}, nil
}
