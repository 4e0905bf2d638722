package alarm

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "routined:fired:"
	redisKeyTTL    = 48 * time.Hour
)

// RedisDeduplicator shares fired occurrences between processes polling the
// same task store. Keys expire on their own, so Prune has nothing to do.
type RedisDeduplicator struct {
	client *redis.Client
	prefix string
}

func NewRedisDeduplicator(client *redis.Client, namespace string) *RedisDeduplicator {
	prefix := redisKeyPrefix
	if namespace != "" {
		prefix += namespace + ":"
	}
	return &RedisDeduplicator{client: client, prefix: prefix}
}

// NewRedisClient creates a client with short timeouts; a slow Redis must not stall a tick.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     4,
	})
}

func (d *RedisDeduplicator) key(k OccurrenceKey) string {
	return d.prefix + k.String()
}

func (d *RedisDeduplicator) HasFired(ctx context.Context, key OccurrenceKey) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

func (d *RedisDeduplicator) MarkFired(ctx context.Context, key OccurrenceKey) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(key), time.Now().UTC().Format(time.RFC3339), redisKeyTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

func (d *RedisDeduplicator) Reset(ctx context.Context) error {
	keys, err := d.scan(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := d.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del fired keys: %w", err)
	}
	return nil
}

func (d *RedisDeduplicator) Prune(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (d *RedisDeduplicator) Len(ctx context.Context) (int, error) {
	keys, err := d.scan(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (d *RedisDeduplicator) scan(ctx context.Context) ([]string, error) {
	var (
		out    []string
		cursor uint64
	)
	for {
		keys, next, err := d.client.Scan(ctx, cursor, d.prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan fired keys: %w", err)
		}
		out = append(out, keys...)
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}

var _ Deduplicator = (*RedisDeduplicator)(nil)
